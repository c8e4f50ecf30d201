// Package service provides business logic services for Glimpse.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/metrics"
	"github.com/glimpse-app/glimpse/internal/repository"
	"github.com/glimpse-app/glimpse/internal/storage"
)

// PhotoService handles photo upload, retrieval and deletion.
type PhotoService struct {
	photoRepo repository.PhotoRepository
	names     *nameResolver
	storage   storage.Backend
	metrics   *metrics.Metrics
	cfg       config.StorageConfig
	logger    zerolog.Logger
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(
	photoRepo repository.PhotoRepository,
	userRepo repository.UserRepository,
	cache repository.Cache,
	backend storage.Backend,
	m *metrics.Metrics,
	cfg config.StorageConfig,
	logger zerolog.Logger,
) *PhotoService {
	logger = logger.With().Str("service", "photo").Logger()
	return &PhotoService{
		photoRepo: photoRepo,
		names:     newNameResolver(userRepo, cache, logger),
		storage:   backend,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// UploadPhotoInput contains the data needed to upload a photo.
type UploadPhotoInput struct {
	OwnerID      int64
	OriginalName string
	Title        string
	Description  string
	Body         io.Reader
	Size         int64
}

// UploadPhotoOutput contains the result of uploading a photo.
type UploadPhotoOutput struct {
	Photo *domain.Photo
}

// GetPhotoInput contains the data needed to retrieve a photo.
type GetPhotoInput struct {
	PhotoID string
}

// ListPhotosInput contains pagination options for listing photos.
type ListPhotosInput struct {
	// OwnerID restricts the listing to one user's photos when non-zero.
	OwnerID int64
	Limit   int
	Offset  int
}

// ListPhotosOutput contains the result of listing photos.
type ListPhotosOutput struct {
	Photos     []*domain.Photo
	TotalCount int64
}

// DeletePhotoInput contains the data needed to delete a photo.
type DeletePhotoInput struct {
	PhotoID     string
	RequesterID int64
}

// OpenImageOutput contains a stored image stream and its size.
type OpenImageOutput struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// =============================================================================
// Service Methods
// =============================================================================

// Upload validates, stores and registers a new photo.
func (s *PhotoService) Upload(ctx context.Context, input UploadPhotoInput) (*UploadPhotoOutput, error) {
	if err := s.validateUploadInput(input); err != nil {
		return nil, err
	}

	author, err := s.names.DisplayName(ctx, input.OwnerID)
	if err != nil {
		s.logger.Error().Err(err).Int64("owner_id", input.OwnerID).Msg("failed to resolve uploader")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if author == "" {
		return nil, ErrUserNotFound
	}

	// Buffer the upload so it can be size-checked and thumbnailed.
	limit := s.cfg.MaxUploadSize
	data, err := io.ReadAll(io.LimitReader(input.Body, limit+1))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read upload body")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	filename := storage.GenerateFilename(input.OriginalName)
	if err := s.storage.Save(ctx, filename, bytes.NewReader(data), int64(len(data))); err != nil {
		s.logger.Error().Err(err).Str("filename", filename).Msg("failed to store image")
		return nil, storageFailure(err)
	}

	if s.cfg.Thumbnail.Enabled {
		s.storeThumbnail(ctx, filename, data)
	}

	photo := domain.NewPhoto(filename, strings.TrimSpace(input.Title), strings.TrimSpace(input.Description), author, input.OwnerID)

	if err := s.photoRepo.Create(ctx, photo); err != nil {
		// Roll back the stored files so storage doesn't leak.
		_ = s.storage.Delete(ctx, filename)
		if s.cfg.Thumbnail.Enabled {
			_ = s.storage.Delete(ctx, storage.ThumbnailFilename(filename))
		}
		s.logger.Error().Err(err).Str("photo_id", photo.ID).Msg("failed to create photo record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.metrics != nil {
		s.metrics.RecordUpload(int64(len(data)))
	}

	s.logger.Info().
		Str("photo_id", photo.ID).
		Str("filename", filename).
		Int64("owner_id", input.OwnerID).
		Int("size", len(data)).
		Msg("photo uploaded")

	return &UploadPhotoOutput{Photo: photo}, nil
}

// storeThumbnail generates and stores a thumbnail for an uploaded image.
// Thumbnail failures are logged and swallowed; the upload still succeeds.
func (s *PhotoService) storeThumbnail(ctx context.Context, filename string, data []byte) {
	thumb, err := storage.GenerateThumbnail(bytes.NewReader(data), s.cfg.Thumbnail.MaxWidth, s.cfg.Thumbnail.MaxHeight)
	if err != nil {
		s.logger.Warn().Err(err).Str("filename", filename).Msg("thumbnail generation failed")
		return
	}

	thumbName := storage.ThumbnailFilename(filename)
	if err := s.storage.Save(ctx, thumbName, bytes.NewReader(thumb), int64(len(thumb))); err != nil {
		s.logger.Warn().Err(err).Str("filename", thumbName).Msg("thumbnail store failed")
	}
}

// Get retrieves a photo by ID.
func (s *PhotoService) Get(ctx context.Context, input GetPhotoInput) (*domain.Photo, error) {
	photo, err := s.photoRepo.GetByID(ctx, input.PhotoID)
	if err != nil {
		if errors.Is(err, domain.ErrPhotoNotFound) {
			return nil, ErrPhotoNotFound
		}
		s.logger.Error().Err(err).Str("photo_id", input.PhotoID).Msg("failed to get photo")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return photo, nil
}

// List returns photos with pagination, optionally restricted to one owner.
func (s *PhotoService) List(ctx context.Context, input ListPhotosInput) (*ListPhotosOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	opts := repository.ListOptions{
		Limit:  input.Limit,
		Offset: input.Offset,
	}

	var result *repository.ListResult[domain.Photo]
	var err error
	if input.OwnerID != 0 {
		result, err = s.photoRepo.ListByOwner(ctx, input.OwnerID, opts)
	} else {
		result, err = s.photoRepo.ListAll(ctx, opts)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list photos")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListPhotosOutput{
		Photos:     result.Items,
		TotalCount: result.Total,
	}, nil
}

// Delete removes a photo and its stored files. Only the owner may delete.
func (s *PhotoService) Delete(ctx context.Context, input DeletePhotoInput) error {
	photo, err := s.photoRepo.GetByID(ctx, input.PhotoID)
	if err != nil {
		if errors.Is(err, domain.ErrPhotoNotFound) {
			return ErrPhotoNotFound
		}
		s.logger.Error().Err(err).Str("photo_id", input.PhotoID).Msg("failed to get photo for deletion")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if photo.OwnerID != input.RequesterID {
		return ErrNotPhotoOwner
	}

	if err := s.photoRepo.Delete(ctx, photo.ID); err != nil {
		if errors.Is(err, domain.ErrPhotoNotFound) {
			return ErrPhotoNotFound
		}
		s.logger.Error().Err(err).Str("photo_id", photo.ID).Msg("failed to delete photo record")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// Best effort: the record is gone, stale files only waste space.
	if err := s.storage.Delete(ctx, photo.Filename); err != nil {
		s.logger.Warn().Err(err).Str("filename", photo.Filename).Msg("failed to delete stored image")
	}
	if s.cfg.Thumbnail.Enabled {
		_ = s.storage.Delete(ctx, storage.ThumbnailFilename(photo.Filename))
	}

	s.logger.Info().
		Str("photo_id", photo.ID).
		Int64("owner_id", photo.OwnerID).
		Msg("photo deleted")

	return nil
}

// OpenImage opens a stored image file for streaming to a client.
func (s *PhotoService) OpenImage(ctx context.Context, filename string) (*OpenImageOutput, error) {
	size, err := s.storage.Size(ctx, filename)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return nil, ErrPhotoNotFound
		}
		s.logger.Error().Err(err).Str("filename", filename).Msg("failed to stat image")
		return nil, storageFailure(err)
	}

	body, err := s.storage.Open(ctx, filename)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return nil, ErrPhotoNotFound
		}
		s.logger.Error().Err(err).Str("filename", filename).Msg("failed to open image")
		return nil, storageFailure(err)
	}

	return &OpenImageOutput{
		Body:        body,
		Size:        size,
		ContentType: contentTypeForFilename(filename),
	}, nil
}

// validateUploadInput validates the input for uploading a photo.
func (s *PhotoService) validateUploadInput(input UploadPhotoInput) error {
	title := strings.TrimSpace(input.Title)
	if len(title) < 1 || len(title) > 255 {
		return ErrInvalidTitle
	}

	if !storage.AllowedExtension(input.OriginalName, s.cfg.AllowedExtensions) {
		return fmt.Errorf("%w: allowed extensions are %s", ErrUnsupportedFileType, strings.Join(s.cfg.AllowedExtensions, ", "))
	}

	if input.Size > s.cfg.MaxUploadSize {
		return ErrFileTooLarge
	}

	return nil
}

// storageFailure keeps the retryable sentinel visible when the image
// store reports an outage so the handler can answer 503 instead of 500.
func storageFailure(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}

// contentTypeForFilename maps a stored filename to its MIME type.
func contentTypeForFilename(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".jpg"), strings.HasSuffix(filename, ".jpeg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
