// Package storage declares the persistence gateway contract shared by
// the postgres, file and memory backends, together with the tagged
// errors the service layer branches on.
package storage

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/fitlog/internal/models"
)

// ErrUniqueViolation is returned by CreateUser when another record
// already holds the requested username. The user service recovers from
// it by re-fetching the winner of the race.
var ErrUniqueViolation = errors.New("unique constraint violation")

// Storage is the full persistence gateway. Consumers declare narrower
// interfaces with just the methods they need.
type Storage interface {
	CreateUser(ctx context.Context, usr *models.User) (string, error)

	GetUserByID(ctx context.Context, userID string) (*models.User, bool, error)

	GetUserByUsername(ctx context.Context, username string) (*models.User, bool, error)

	GetUsers(ctx context.Context) ([]models.User, error)

	CreateExercise(ctx context.Context, exercise *models.Exercise) (string, error)

	GetUserExercises(
		ctx context.Context,
		userID string,
		filter models.ExerciseFilter,
	) ([]models.Exercise, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfExercises(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
