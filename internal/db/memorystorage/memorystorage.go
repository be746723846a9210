// Package memorystorage is the in-memory storage backend. It reuses the
// jsondb cache without a backing file, so Close does not persist
// anything.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/fitlog/internal/db/jsondb"
)

// MemoryStorage keeps all records in process memory only.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty memory storage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewEmpty(),
	}, nil
}

// Close is a no-op, there is nothing to flush.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping reports the storage as always available.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
