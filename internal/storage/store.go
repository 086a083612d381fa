// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing is stored under a key.
var ErrNotFound = errors.New("not found")

// Store is a durable key-value blob store.
// This abstraction allows swapping storage backends (SQLite, Azure Blob
// Storage, memory) without changing the service layer.
type Store interface {
	// Load returns the blob stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the blob stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}
