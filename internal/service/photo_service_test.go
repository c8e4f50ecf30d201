package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/repository"
)

// =============================================================================
// Helper Functions
// =============================================================================

func newTestPhotoService() (*PhotoService, *mockPhotoRepository, *mockUserRepository, *mockStorageBackend) {
	photoRepo := new(mockPhotoRepository)
	userRepo := new(mockUserRepository)
	backend := new(mockStorageBackend)
	logger := zerolog.Nop()

	cfg := config.StorageConfig{
		MaxUploadSize:     1 << 20,
		AllowedExtensions: []string{".jpg", ".jpeg", ".png"},
	}

	svc := NewPhotoService(photoRepo, userRepo, nil, backend, nil, cfg, logger)

	return svc, photoRepo, userRepo, backend
}

func uploadInput(body string) UploadPhotoInput {
	return UploadPhotoInput{
		OwnerID:      1,
		OriginalName: "beach.jpg",
		Title:        "Beach day",
		Body:         strings.NewReader(body),
		Size:         int64(len(body)),
	}
}

// =============================================================================
// Test Cases
// =============================================================================

func TestPhotoService_Upload(t *testing.T) {
	tests := []struct {
		name    string
		input   func() UploadPhotoInput
		setup   func(*mockPhotoRepository, *mockUserRepository, *mockStorageBackend)
		wantErr error
	}{
		{
			name:  "success",
			input: func() UploadPhotoInput { return uploadInput("fake image bytes") },
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository, backend *mockStorageBackend) {
				userRepo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Name: "alice"}, nil)
				backend.On("Save", mock.Anything, mock.AnythingOfType("string"), mock.Anything, int64(16)).Return(nil)
				photoRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Photo")).
					Run(func(args mock.Arguments) {
						args.Get(1).(*domain.Photo).Version = 1
					}).
					Return(nil)
			},
		},
		{
			name: "empty title rejected",
			input: func() UploadPhotoInput {
				in := uploadInput("data")
				in.Title = "  "
				return in
			},
			setup:   func(*mockPhotoRepository, *mockUserRepository, *mockStorageBackend) {},
			wantErr: ErrInvalidTitle,
		},
		{
			name: "unsupported extension rejected",
			input: func() UploadPhotoInput {
				in := uploadInput("data")
				in.OriginalName = "script.exe"
				return in
			},
			setup:   func(*mockPhotoRepository, *mockUserRepository, *mockStorageBackend) {},
			wantErr: ErrUnsupportedFileType,
		},
		{
			name: "declared size over limit rejected",
			input: func() UploadPhotoInput {
				in := uploadInput("data")
				in.Size = 2 << 20
				return in
			},
			setup:   func(*mockPhotoRepository, *mockUserRepository, *mockStorageBackend) {},
			wantErr: ErrFileTooLarge,
		},
		{
			name: "oversized body rejected even with small declared size",
			input: func() UploadPhotoInput {
				in := uploadInput(strings.Repeat("x", (1<<20)+1))
				in.Size = 10
				return in
			},
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository, backend *mockStorageBackend) {
				userRepo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Name: "alice"}, nil)
			},
			wantErr: ErrFileTooLarge,
		},
		{
			name:  "empty body rejected",
			input: func() UploadPhotoInput { return uploadInput("") },
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository, backend *mockStorageBackend) {
				userRepo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Name: "alice"}, nil)
			},
			wantErr: ErrEmptyUpload,
		},
		{
			name:  "unknown owner rejected",
			input: func() UploadPhotoInput { return uploadInput("data") },
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository, backend *mockStorageBackend) {
				userRepo.On("GetByID", mock.Anything, int64(1)).Return(nil, domain.ErrUserNotFound)
			},
			wantErr: ErrUserNotFound,
		},
		{
			name:  "storage outage surfaces as retryable",
			input: func() UploadPhotoInput { return uploadInput("fake image bytes") },
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository, backend *mockStorageBackend) {
				userRepo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Name: "alice"}, nil)
				backend.On("Save", mock.Anything, mock.AnythingOfType("string"), mock.Anything, int64(16)).
					Return(fmt.Errorf("%w: disk full", domain.ErrStorageUnavailable))
			},
			wantErr: ErrStorageUnavailable,
		},
		{
			name:  "record failure rolls back stored file",
			input: func() UploadPhotoInput { return uploadInput("fake image bytes") },
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository, backend *mockStorageBackend) {
				userRepo.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Name: "alice"}, nil)
				backend.On("Save", mock.Anything, mock.AnythingOfType("string"), mock.Anything, int64(16)).Return(nil)
				photoRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(errors.New("insert failed"))
				backend.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)
			},
			wantErr: ErrInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, photoRepo, userRepo, backend := newTestPhotoService()
			tt.setup(photoRepo, userRepo, backend)

			out, err := svc.Upload(context.Background(), tt.input())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, out.Photo)
				require.Equal(t, "Beach day", out.Photo.Title)
				require.Equal(t, "alice", out.Photo.Author)
				require.Equal(t, int64(1), out.Photo.Version)
				require.True(t, strings.HasSuffix(out.Photo.Filename, ".jpg"))
			}
			mock.AssertExpectationsForObjects(t, photoRepo, userRepo, backend)
		})
	}
}

func TestPhotoService_Get(t *testing.T) {
	tests := []struct {
		name    string
		photoID string
		setup   func(*mockPhotoRepository)
		wantErr error
	}{
		{
			name:    "success",
			photoID: "p1",
			setup: func(photoRepo *mockPhotoRepository) {
				photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)
			},
		},
		{
			name:    "not found",
			photoID: "missing",
			setup: func(photoRepo *mockPhotoRepository) {
				photoRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrPhotoNotFound)
			},
			wantErr: ErrPhotoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, photoRepo, _, _ := newTestPhotoService()
			tt.setup(photoRepo)

			photo, err := svc.Get(context.Background(), GetPhotoInput{PhotoID: tt.photoID})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.photoID, photo.ID)
			photoRepo.AssertExpectations(t)
		})
	}
}

func TestPhotoService_List(t *testing.T) {
	t.Run("all photos with default limit", func(t *testing.T) {
		svc, photoRepo, _, _ := newTestPhotoService()

		photoRepo.On("ListAll", mock.Anything, repository.ListOptions{Limit: 20}).Return(&repository.ListResult[domain.Photo]{
			Items: []*domain.Photo{testPhoto("p1", 1), testPhoto("p2", 2)},
			Total: 2,
		}, nil)

		out, err := svc.List(context.Background(), ListPhotosInput{})

		require.NoError(t, err)
		require.Len(t, out.Photos, 2)
		require.Equal(t, int64(2), out.TotalCount)
		photoRepo.AssertExpectations(t)
	})

	t.Run("owner filter", func(t *testing.T) {
		svc, photoRepo, _, _ := newTestPhotoService()

		photoRepo.On("ListByOwner", mock.Anything, int64(5), repository.ListOptions{Limit: 10, Offset: 10}).Return(&repository.ListResult[domain.Photo]{
			Items: []*domain.Photo{testPhoto("p3", 5)},
			Total: 11,
		}, nil)

		out, err := svc.List(context.Background(), ListPhotosInput{OwnerID: 5, Limit: 10, Offset: 10})

		require.NoError(t, err)
		require.Len(t, out.Photos, 1)
		require.Equal(t, int64(11), out.TotalCount)
		photoRepo.AssertExpectations(t)
	})

	t.Run("limit is capped", func(t *testing.T) {
		svc, photoRepo, _, _ := newTestPhotoService()

		photoRepo.On("ListAll", mock.Anything, repository.ListOptions{Limit: 100}).Return(&repository.ListResult[domain.Photo]{
			Items: []*domain.Photo{},
			Total: 0,
		}, nil)

		_, err := svc.List(context.Background(), ListPhotosInput{Limit: 500})

		require.NoError(t, err)
		photoRepo.AssertExpectations(t)
	})
}

func TestPhotoService_Delete(t *testing.T) {
	tests := []struct {
		name    string
		input   DeletePhotoInput
		setup   func(*mockPhotoRepository, *mockStorageBackend)
		wantErr error
	}{
		{
			name:  "owner deletes photo and stored file",
			input: DeletePhotoInput{PhotoID: "p1", RequesterID: 1},
			setup: func(photoRepo *mockPhotoRepository, backend *mockStorageBackend) {
				photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)
				photoRepo.On("Delete", mock.Anything, "p1").Return(nil)
				backend.On("Delete", mock.Anything, "123-456.jpg").Return(nil)
			},
		},
		{
			name:  "non-owner rejected",
			input: DeletePhotoInput{PhotoID: "p1", RequesterID: 2},
			setup: func(photoRepo *mockPhotoRepository, backend *mockStorageBackend) {
				photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)
			},
			wantErr: ErrNotPhotoOwner,
		},
		{
			name:  "not found",
			input: DeletePhotoInput{PhotoID: "missing", RequesterID: 1},
			setup: func(photoRepo *mockPhotoRepository, backend *mockStorageBackend) {
				photoRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrPhotoNotFound)
			},
			wantErr: ErrPhotoNotFound,
		},
		{
			name:  "record deleted even when stored file removal fails",
			input: DeletePhotoInput{PhotoID: "p1", RequesterID: 1},
			setup: func(photoRepo *mockPhotoRepository, backend *mockStorageBackend) {
				photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)
				photoRepo.On("Delete", mock.Anything, "p1").Return(nil)
				backend.On("Delete", mock.Anything, "123-456.jpg").Return(domain.ErrStorageUnavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, photoRepo, _, backend := newTestPhotoService()
			tt.setup(photoRepo, backend)

			err := svc.Delete(context.Background(), tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			mock.AssertExpectationsForObjects(t, photoRepo, backend)
		})
	}
}

func TestPhotoService_OpenImage(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc, _, _, backend := newTestPhotoService()

		backend.On("Size", mock.Anything, "missing.jpg").Return(int64(0), domain.ErrImageNotFound)

		_, err := svc.OpenImage(context.Background(), "missing.jpg")

		require.ErrorIs(t, err, ErrPhotoNotFound)
		backend.AssertExpectations(t)
	})
}

func TestContentTypeForFilename(t *testing.T) {
	require.Equal(t, "image/jpeg", contentTypeForFilename("a.jpg"))
	require.Equal(t, "image/jpeg", contentTypeForFilename("a.jpeg"))
	require.Equal(t, "image/png", contentTypeForFilename("a.png"))
	require.Equal(t, "application/octet-stream", contentTypeForFilename("a.bin"))
}
