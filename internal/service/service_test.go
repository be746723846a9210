package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/fitlog/internal/datefmt"
	"github.com/patric-chuzhbe/fitlog/internal/db/memorystorage"
	"github.com/patric-chuzhbe/fitlog/internal/db/storage"
	"github.com/patric-chuzhbe/fitlog/internal/mockstorage"
	"github.com/patric-chuzhbe/fitlog/internal/models"
)

func newMemoryService(t *testing.T) *Service {
	t.Helper()

	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	return New(theStorage)
}

func TestCreateOrGetUserRequiresUsername(t *testing.T) {
	svc := newMemoryService(t)

	_, err := svc.CreateOrGetUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrUsernameRequired)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "username is required", validationErr.Error())
}

func TestCreateOrGetUserIsIdempotent(t *testing.T) {
	svc := newMemoryService(t)

	first, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)
	assert.NotEmpty(t, first.ID)

	second, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "the ID should be stable across repeated calls")
}

func TestCreateOrGetUserRecoversFromUniquenessRace(t *testing.T) {
	theStorage := &mockstorage.StorageMock{}
	theStorage.On("GetUserByUsername", mock.Anything, "alice").
		Return(nil, false, nil).
		Once()
	theStorage.On("CreateUser", mock.Anything, mock.Anything).
		Return("", storage.ErrUniqueViolation).
		Once()
	theStorage.On("GetUserByUsername", mock.Anything, "alice").
		Return(&models.User{ID: "the-winner", Username: "alice"}, true, nil).
		Once()

	svc := New(theStorage)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err, "the uniqueness conflict should never surface to the caller")
	assert.Equal(t, "the-winner", usr.ID)

	theStorage.AssertExpectations(t)
}

func TestCreateOrGetUserSurfacesOtherStorageFailures(t *testing.T) {
	bang := errors.New("storage exploded")

	theStorage := &mockstorage.StorageMock{}
	theStorage.On("GetUserByUsername", mock.Anything, "alice").
		Return(nil, false, nil).
		Once()
	theStorage.On("CreateUser", mock.Anything, mock.Anything).
		Return("", bang).
		Once()

	svc := New(theStorage)

	_, err := svc.CreateOrGetUser(context.Background(), "alice")
	assert.ErrorIs(t, err, bang)
}

func TestListUsersKeepsInsertionOrder(t *testing.T) {
	svc := newMemoryService(t)

	for _, username := range []string{"alice", "bob", "carol"} {
		_, err := svc.CreateOrGetUser(context.Background(), username)
		require.NoError(t, err)
	}

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "carol", users[2].Username)
}

func TestAppendExerciseValidation(t *testing.T) {
	svc := newMemoryService(t)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)

	testCases := []struct {
		name        string
		description string
		duration    string
		expected    error
	}{
		{
			name:     "missing description",
			duration: "30",
			expected: ErrDescriptionRequired,
		},
		{
			name:        "missing duration",
			description: "run",
			expected:    ErrDurationRequired,
		},
		{
			name:        "non-numeric duration",
			description: "run",
			duration:    "half an hour",
			expected:    ErrDurationNotAnInteger,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := svc.AppendExercise(
				context.Background(),
				usr.ID,
				testCase.description,
				testCase.duration,
				"",
			)
			assert.ErrorIs(t, err, testCase.expected)
		})
	}

	logView, err := svc.GetLogs(context.Background(), usr.ID, "", "", "")
	require.NoError(t, err)
	assert.Zero(t, logView.Count, "no exercise should be created on a validation failure")
}

func TestAppendExerciseUnknownUser(t *testing.T) {
	svc := newMemoryService(t)

	_, err := svc.AppendExercise(context.Background(), "no-such-id", "run", "30", "2023-05-01")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAppendExerciseFormatsDateForDisplay(t *testing.T) {
	svc := newMemoryService(t)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)

	view, err := svc.AppendExercise(context.Background(), usr.ID, "run", "30", "2023-05-01")
	require.NoError(t, err)

	assert.Equal(t, usr.ID, view.ID)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "run", view.Description)
	assert.Equal(t, 30, view.Duration)
	assert.Equal(t, "Mon May 01 2023", view.Date)
}

func TestAppendExerciseDefaultsToCurrentDate(t *testing.T) {
	svc := newMemoryService(t)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)

	view, err := svc.AppendExercise(context.Background(), usr.ID, "run", "30", "")
	require.NoError(t, err)
	assert.Equal(t, datefmt.Display(datefmt.Today()), view.Date)

	view, err = svc.AppendExercise(context.Background(), usr.ID, "run", "30", "2024-02-30")
	require.NoError(t, err)
	assert.Equal(t, datefmt.Display(datefmt.Today()), view.Date, "a calendar-invalid date should fall back to today")
}

func TestGetLogsLimit(t *testing.T) {
	svc := newMemoryService(t)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)

	for _, day := range []string{"2023-01-01", "2023-01-02", "2023-01-03", "2023-01-04", "2023-01-05"} {
		_, err = svc.AppendExercise(context.Background(), usr.ID, "run", "30", day)
		require.NoError(t, err)
	}

	logView, err := svc.GetLogs(context.Background(), usr.ID, "", "", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, logView.Count)
	assert.Len(t, logView.Log, 2)

	logView, err = svc.GetLogs(context.Background(), usr.ID, "", "", "not a number")
	require.NoError(t, err)
	assert.Equal(t, 5, logView.Count, "an unparseable limit should impose no restriction")
}

func TestGetLogsDateRange(t *testing.T) {
	svc := newMemoryService(t)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)

	for _, day := range []string{"2022-12-31", "2023-01-01", "2023-06-15", "2023-12-31", "2024-01-01"} {
		_, err = svc.AppendExercise(context.Background(), usr.ID, "run", "30", day)
		require.NoError(t, err)
	}

	logView, err := svc.GetLogs(context.Background(), usr.ID, "2023-01-01", "2023-12-31", "")
	require.NoError(t, err)
	assert.Equal(t, 3, logView.Count, "the range bounds are inclusive")

	logView, err = svc.GetLogs(context.Background(), usr.ID, "certainly not a date", "", "")
	require.NoError(t, err)
	assert.Equal(t, 5, logView.Count, "an unparseable bound should impose no restriction")
}

func TestGetLogsUnknownUser(t *testing.T) {
	svc := newMemoryService(t)

	_, err := svc.GetLogs(context.Background(), "no-such-id", "", "", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetLogsScenario(t *testing.T) {
	svc := newMemoryService(t)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)

	_, err = svc.AppendExercise(context.Background(), usr.ID, "run", "30", "2023-01-15")
	require.NoError(t, err)

	logView, err := svc.GetLogs(context.Background(), usr.ID, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, "alice", logView.Username)
	assert.Equal(t, usr.ID, logView.ID)
	assert.Equal(t, 1, logView.Count)
	require.Len(t, logView.Log, 1)
	assert.Equal(
		t,
		models.LogEntry{
			Description: "run",
			Duration:    30,
			Date:        "Sun Jan 15 2023",
		},
		logView.Log[0],
	)
}

func TestGetInternalStats(t *testing.T) {
	svc := newMemoryService(t)

	usr, err := svc.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)
	_, err = svc.CreateOrGetUser(context.Background(), "bob")
	require.NoError(t, err)
	_, err = svc.AppendExercise(context.Background(), usr.ID, "run", "30", "")
	require.NoError(t, err)

	stats, err := svc.GetInternalStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users)
	assert.Equal(t, int64(1), stats.Exercises)
}
