// Package mockstorage provides a testify-based mock implementation
// of the storage interface used by the service and router packages.
// It is used for unit testing by simulating storage behavior.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/fitlog/internal/models"
)

// StorageMock is a testify mock that implements the full storage
// gateway. Use it in tests to simulate database behavior.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks user creation and returns a generated ID.
func (m *StorageMock) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}

// GetUserByID mocks fetching a user by ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*models.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetUserByUsername mocks fetching a user by username.
func (m *StorageMock) GetUserByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetUsers mocks listing all users.
func (m *StorageMock) GetUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

// CreateExercise mocks exercise creation and returns a generated ID.
func (m *StorageMock) CreateExercise(ctx context.Context, exercise *models.Exercise) (string, error) {
	args := m.Called(ctx, exercise)
	return args.String(0), args.Error(1)
}

// GetUserExercises mocks the filtered exercise query.
func (m *StorageMock) GetUserExercises(
	ctx context.Context,
	userID string,
	filter models.ExerciseFilter,
) ([]models.Exercise, error) {
	args := m.Called(ctx, userID, filter)
	exercises, _ := args.Get(0).([]models.Exercise)
	return exercises, args.Error(1)
}

// GetNumberOfUsers mocks the user counter.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfExercises mocks the exercise counter.
func (m *StorageMock) GetNumberOfExercises(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
