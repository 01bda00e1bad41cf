// Package storage provides the backing stores for rendered video payloads.
// It defines the Storage interface (port) and implementations for the local
// temp directory and S3.
package storage

import (
	"context"
	"errors"
	"io"
)

// Static errors for storage operations.
var (
	// ErrNotFound is returned when no object exists for a key.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidKey is returned for empty keys or keys that escape the store.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Storage holds opaque byte objects addressed by key.
// Objects live until Delete is called; nothing is retained across restarts.
type Storage interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data io.Reader) error

	// Open returns a reader for the object stored under key.
	// The caller is responsible for closing the returned ReadCloser.
	// Returns ErrNotFound if the object does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object stored under key.
	// Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
