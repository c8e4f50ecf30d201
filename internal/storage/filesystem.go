package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/domain"
)

// FilesystemBackend stores images as flat files under a base directory.
// Writes go to a temp file first and are renamed into place so readers
// never observe a partially written image.
type FilesystemBackend struct {
	baseDir string
	logger  zerolog.Logger
}

// NewFilesystemBackend creates a filesystem storage backend rooted at baseDir.
// The directory is created if it doesn't exist.
func NewFilesystemBackend(baseDir string, logger zerolog.Logger) (*FilesystemBackend, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	logger.Info().Str("dir", baseDir).Msg("filesystem storage initialized")

	return &FilesystemBackend{
		baseDir: baseDir,
		logger:  logger.With().Str("storage", "filesystem").Logger(),
	}, nil
}

// Save stores content under the given filename.
func (b *FilesystemBackend) Save(ctx context.Context, filename string, reader io.Reader, size int64) error {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return fmt.Errorf("invalid filename %q", filename)
	}

	tmp, err := os.CreateTemp(b.baseDir, ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write image: %w", err)
	}

	if size >= 0 && written != size {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("short write: expected %d bytes, got %d", size, written)
	}

	target := filepath.Join(b.baseDir, name)
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	b.logger.Debug().Str("filename", name).Int64("size", written).Msg("image stored")
	return nil
}

// Open retrieves stored content by filename.
func (b *FilesystemBackend) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return nil, domain.ErrImageNotFound
	}

	f, err := os.Open(filepath.Join(b.baseDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return f, nil
}

// Delete removes stored content by filename.
func (b *FilesystemBackend) Delete(ctx context.Context, filename string) error {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return nil
	}

	if err := os.Remove(filepath.Join(b.baseDir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	b.logger.Debug().Str("filename", name).Msg("image deleted")
	return nil
}

// Exists checks if a file with the given name exists.
func (b *FilesystemBackend) Exists(ctx context.Context, filename string) (bool, error) {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return false, nil
	}

	_, err := os.Stat(filepath.Join(b.baseDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return true, nil
}

// Size returns the size of a stored file in bytes.
func (b *FilesystemBackend) Size(ctx context.Context, filename string) (int64, error) {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return 0, domain.ErrImageNotFound
	}

	info, err := os.Stat(filepath.Join(b.baseDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, domain.ErrImageNotFound
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return info.Size(), nil
}

// Ensure FilesystemBackend implements Backend.
var _ Backend = (*FilesystemBackend)(nil)
