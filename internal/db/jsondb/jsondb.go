// Package jsondb provides a JSON-file-backed implementation of the
// storage interface. The whole dataset lives in an in-memory cache that
// is loaded on startup and flushed to disk on Close.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/fitlog/internal/db/storage"
	"github.com/patric-chuzhbe/fitlog/internal/models"
)

// CacheStruct is the serialized shape of the database file. Slices keep
// insertion order, which is the order log queries return.
type CacheStruct struct {
	Users     []*models.User
	Exercises []*models.Exercise
}

// JSONDB keeps every record in memory and persists the cache to a JSON
// file. The mutex makes the uniqueness check on username atomic with
// the insert.
type JSONDB struct {
	fileName string

	mu              sync.RWMutex
	Cache           CacheStruct
	usersByID       map[string]*models.User
	usersByUsername map[string]*models.User
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": [],
	"Exercises": []
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

// New loads the database from fileName, creating an empty file first if
// none exists.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}

	db.rebuildIndexes()

	return db, nil
}

// NewEmpty returns a JSONDB with an empty cache and no backing file.
// The memory storage backend builds on it.
func NewEmpty() *JSONDB {
	db := &JSONDB{
		Cache: CacheStruct{
			Users:     []*models.User{},
			Exercises: []*models.Exercise{},
		},
	}
	db.rebuildIndexes()

	return db
}

func (db *JSONDB) rebuildIndexes() {
	db.usersByID = make(map[string]*models.User, len(db.Cache.Users))
	db.usersByUsername = make(map[string]*models.User, len(db.Cache.Users))
	for _, usr := range db.Cache.Users {
		db.usersByID[usr.ID] = usr
		db.usersByUsername[usr.Username] = usr
	}
}

// CreateUser inserts a new user. The check on username and the insert
// run under one lock, so concurrent identical creates resolve to a
// single surviving record and the losers get storage.ErrUniqueViolation.
func (db *JSONDB) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.usersByUsername[usr.Username]; exists {
		return "", fmt.Errorf("username %q: %w", usr.Username, storage.ErrUniqueViolation)
	}

	stored := &models.User{
		ID:        usr.ID,
		Username:  usr.Username,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	db.Cache.Users = append(db.Cache.Users, stored)
	db.usersByID[stored.ID] = stored
	db.usersByUsername[stored.Username] = stored

	return stored.ID, nil
}

// GetUserByID returns the user with the given ID and whether it exists.
func (db *JSONDB) GetUserByID(ctx context.Context, userID string) (*models.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.usersByID[userID]
	if !found {
		return nil, false, nil
	}

	userCopy := *usr

	return &userCopy, true, nil
}

// GetUserByUsername returns the user holding username and whether it
// exists.
func (db *JSONDB) GetUserByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.usersByUsername[username]
	if !found {
		return nil, false, nil
	}

	userCopy := *usr

	return &userCopy, true, nil
}

// GetUsers returns every user in insertion order.
func (db *JSONDB) GetUsers(ctx context.Context) ([]models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make([]models.User, 0, len(db.Cache.Users))
	for _, usr := range db.Cache.Users {
		result = append(result, *usr)
	}

	return result, nil
}

// CreateExercise appends a new exercise record.
func (db *JSONDB) CreateExercise(ctx context.Context, exercise *models.Exercise) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := &models.Exercise{
		ID:          exercise.ID,
		UserID:      exercise.UserID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date,
	}
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}

	db.Cache.Exercises = append(db.Cache.Exercises, stored)

	return stored.ID, nil
}

// GetUserExercises returns the user's exercises in insertion order,
// restricted by the optional inclusive date bounds and count limit.
func (db *JSONDB) GetUserExercises(
	ctx context.Context,
	userID string,
	filter models.ExerciseFilter,
) ([]models.Exercise, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []models.Exercise{}
	for _, exercise := range db.Cache.Exercises {
		if exercise.UserID != userID {
			continue
		}
		if filter.HasFrom && exercise.Date.Before(filter.From) {
			continue
		}
		if filter.HasTo && exercise.Date.After(filter.To) {
			continue
		}

		result = append(result, *exercise)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	return result, nil
}

// GetNumberOfUsers returns the total amount of users.
func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

// GetNumberOfExercises returns the total amount of logged exercises.
func (db *JSONDB) GetNumberOfExercises(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Exercises)), nil
}

// Ping reports the storage as always available.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache to the backing file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	err := writeToJSONFile(db.fileName, db.Cache)
	if err != nil {
		return err
	}

	return nil
}
