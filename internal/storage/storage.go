// Package storage provides the generic key-value store the pattern library
// persists through, and its SQLite implementation.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a key-value store with backup rotation. Values are opaque blobs;
// the pattern library serializes itself as one unit under a single key.
type Store interface {
	// Load returns the value for key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save writes the value for key, rotating the previous value into the
	// backup history.
	Save(ctx context.Context, key string, value []byte) error
	// List returns all keys.
	List(ctx context.Context) ([]string, error)
	// Delete removes a key and its backups. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error
	// Close releases store resources.
	Close() error
}
