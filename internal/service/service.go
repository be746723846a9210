// Package service implements the business rules of the exercise
// tracker: create-or-fetch user semantics, exercise appending with date
// normalization, and filtered log retrieval.
package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/fitlog/internal/datefmt"
	"github.com/patric-chuzhbe/fitlog/internal/db/storage"
	"github.com/patric-chuzhbe/fitlog/internal/models"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *models.User) (string, error)

	GetUserByID(ctx context.Context, userID string) (*models.User, bool, error)

	GetUserByUsername(ctx context.Context, username string) (*models.User, bool, error)

	GetUsers(ctx context.Context) ([]models.User, error)
}

type exercisesKeeper interface {
	CreateExercise(ctx context.Context, exercise *models.Exercise) (string, error)

	GetUserExercises(
		ctx context.Context,
		userID string,
		filter models.ExerciseFilter,
	) ([]models.Exercise, error)
}

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfExercises(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type serviceStorage interface {
	userKeeper
	exercisesKeeper
	statsKeeper
	pinger
}

// ValidationError marks a failure caused by missing or malformed client
// input. Handlers map it to a 400 response with the error text as is.
type ValidationError struct {
	message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.message
}

var (
	// ErrUsernameRequired is returned when the username field is absent or empty.
	ErrUsernameRequired = &ValidationError{message: "username is required"}

	// ErrDescriptionRequired is returned when the description field is absent or empty.
	ErrDescriptionRequired = &ValidationError{message: "description is required"}

	// ErrDurationRequired is returned when the duration field is absent or empty.
	ErrDurationRequired = &ValidationError{message: "duration is required"}

	// ErrDurationNotAnInteger is returned when the duration field does not
	// parse as an integer.
	ErrDurationNotAnInteger = &ValidationError{message: "duration must be an integer"}

	// ErrUserNotFound is returned when the referenced user ID does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Service holds the exercise tracker business logic on top of an
// injected storage gateway.
type Service struct {
	db serviceStorage
}

// New returns a Service using db as its persistence gateway.
func New(db serviceStorage) *Service {
	return &Service{
		db: db,
	}
}

// CreateOrGetUser returns the user holding username, creating it when
// absent. A concurrent identical create is recovered transparently: when
// the insert loses the uniqueness race, the winner's record is
// re-fetched and returned instead of the conflict error.
func (s *Service) CreateOrGetUser(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}

	usr, found, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if found {
		return usr, nil
	}

	userID, err := s.db.CreateUser(ctx, &models.User{Username: username})
	if err == nil {
		return &models.User{ID: userID, Username: username}, nil
	}
	if !errors.Is(err, storage.ErrUniqueViolation) {
		return nil, err
	}

	usr, found, err = s.db.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("user vanished after a uniqueness conflict on " + username)
	}

	return usr, nil
}

// ListUsers returns every user in insertion order, unbounded.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserView, error) {
	users, err := s.db.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	return funk.Map(users, func(usr models.User) models.UserView {
		return models.UserView{
			Username: usr.Username,
			ID:       usr.ID,
		}
	}).([]models.UserView), nil
}

// AppendExercise validates the input, normalizes the date and persists a
// new exercise for the given user. The returned view carries the
// display-formatted date, not the stored calendar value.
func (s *Service) AppendExercise(
	ctx context.Context,
	userID,
	description,
	durationRaw,
	dateRaw string,
) (*models.ExerciseView, error) {
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if durationRaw == "" {
		return nil, ErrDurationRequired
	}
	duration, err := strconv.Atoi(durationRaw)
	if err != nil {
		return nil, ErrDurationNotAnInteger
	}

	usr, found, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	date := datefmt.Normalize(dateRaw)

	_, err = s.db.CreateExercise(ctx, &models.Exercise{
		UserID:      usr.ID,
		Description: description,
		Duration:    duration,
		Date:        date,
	})
	if err != nil {
		return nil, err
	}

	// The view carries the user's ID, matching the log view shape.
	return &models.ExerciseView{
		ID:          usr.ID,
		Username:    usr.Username,
		Description: description,
		Duration:    duration,
		Date:        datefmt.Display(date),
	}, nil
}

// GetLogs returns the user's exercises restricted by the optional
// from/to bounds and count limit. The bounds are parsed leniently: an
// unparseable value imposes no restriction instead of erroring, and the
// same holds for a non-numeric limit.
func (s *Service) GetLogs(
	ctx context.Context,
	userID,
	fromRaw,
	toRaw,
	limitRaw string,
) (*models.LogView, error) {
	usr, found, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	filter := models.ExerciseFilter{}
	filter.From, filter.HasFrom = datefmt.ParseFilterDate(fromRaw)
	filter.To, filter.HasTo = datefmt.ParseFilterDate(toRaw)
	if limit, err := strconv.Atoi(limitRaw); err == nil && limit > 0 {
		filter.Limit = limit
	}

	exercises, err := s.db.GetUserExercises(ctx, usr.ID, filter)
	if err != nil {
		return nil, err
	}

	log := funk.Map(exercises, func(exercise models.Exercise) models.LogEntry {
		return models.LogEntry{
			Description: exercise.Description,
			Duration:    exercise.Duration,
			Date:        datefmt.Display(exercise.Date),
		}
	}).([]models.LogEntry)

	return &models.LogView{
		Username: usr.Username,
		Count:    len(log),
		ID:       usr.ID,
		Log:      log,
	}, nil
}

// GetInternalStats returns the total amount of users and exercises.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	exercises, err := s.db.GetNumberOfExercises(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users:     users,
		Exercises: exercises,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
