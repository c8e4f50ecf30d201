// Package storage defines interfaces for image storage backends.
// The storage layer persists uploaded photo files and their thumbnails,
// keyed by their generated filenames.
package storage

import (
	"context"
	"io"
)

// Backend defines the interface for image storage backends.
// Implementations include the local filesystem and S3-compatible object
// stores. The interface is stateless to support horizontal scaling.
type Backend interface {
	// Save stores content under the given filename.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - filename: Target filename (no directory components)
	//   - reader: Source of the content to store
	//   - size: Expected size in bytes, or -1 if unknown
	//
	// Returns:
	//   - err: Error if storage fails
	Save(ctx context.Context, filename string, reader io.Reader, size int64) error

	// Open retrieves stored content by filename.
	// Returns a ReadCloser that must be closed after use.
	//
	// Returns:
	//   - io.ReadCloser: Stream of the content (caller must close)
	//   - err: ErrImageNotFound if the file doesn't exist, or other error
	Open(ctx context.Context, filename string) (io.ReadCloser, error)

	// Delete removes stored content by filename.
	// Deleting a missing file is not an error.
	Delete(ctx context.Context, filename string) error

	// Exists checks if a file with the given name exists.
	Exists(ctx context.Context, filename string) (bool, error)

	// Size returns the size of a stored file in bytes.
	// Returns ErrImageNotFound if the file doesn't exist.
	Size(ctx context.Context, filename string) (int64, error)
}
