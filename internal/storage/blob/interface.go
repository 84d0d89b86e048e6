// internal/storage/blob/interface.go
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no object exists at the path
var ErrNotFound = errors.New("blob: not found")

// Storage defines the interface for snapshot blob backends
type Storage interface {
	// Write replaces the data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}
