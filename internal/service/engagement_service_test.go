// Package service provides business logic services for Glimpse.
package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/lock"
	"github.com/glimpse-app/glimpse/internal/repository"
)

// =============================================================================
// Helper Functions
// =============================================================================

func newTestEngagementService() (*EngagementService, *mockPhotoRepository, *mockUserRepository) {
	photoRepo := new(mockPhotoRepository)
	userRepo := new(mockUserRepository)
	locker := lock.NewNoOpLocker()
	logger := zerolog.Nop()

	svc := NewEngagementService(photoRepo, userRepo, nil, locker, nil, config.EngagementConfig{}, logger)

	return svc, photoRepo, userRepo
}

func testPhoto(id string, ownerID int64) *domain.Photo {
	photo := domain.NewPhoto("123-456.jpg", "Sunset", "", "alice", ownerID)
	photo.ID = id
	photo.Version = 1
	return photo
}

// =============================================================================
// Test Cases
// =============================================================================

func TestEngagementService_ToggleLike(t *testing.T) {
	tests := []struct {
		name      string
		input     ToggleLikeInput
		setup     func(*mockPhotoRepository)
		wantErr   error
		wantLiked bool
		wantLikes int64
	}{
		{
			name:  "success - like added",
			input: ToggleLikeInput{PhotoID: "p1", UserID: 7},
			setup: func(photoRepo *mockPhotoRepository) {
				photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)
				photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(nil)
			},
			wantLiked: true,
			wantLikes: 1,
		},
		{
			name:  "success - like removed on second toggle",
			input: ToggleLikeInput{PhotoID: "p1", UserID: 7},
			setup: func(photoRepo *mockPhotoRepository) {
				photo := testPhoto("p1", 1)
				photo.ToggleLike(7)
				photoRepo.On("GetByID", mock.Anything, "p1").Return(photo, nil)
				photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(nil)
			},
			wantLiked: false,
			wantLikes: 0,
		},
		{
			name:  "photo not found",
			input: ToggleLikeInput{PhotoID: "missing", UserID: 7},
			setup: func(photoRepo *mockPhotoRepository) {
				photoRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrPhotoNotFound)
			},
			wantErr: ErrPhotoNotFound,
		},
		{
			name:  "conflict - retries exhausted",
			input: ToggleLikeInput{PhotoID: "p1", UserID: 7},
			setup: func(photoRepo *mockPhotoRepository) {
				photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)
				photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(domain.ErrVersionConflict)
			},
			wantErr: ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, photoRepo, _ := newTestEngagementService()
			tt.setup(photoRepo)

			out, err := svc.ToggleLike(context.Background(), tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantLiked, out.Liked)
			require.Equal(t, tt.wantLikes, out.LikesCount)
			photoRepo.AssertExpectations(t)
		})
	}
}

func TestEngagementService_ToggleLike_RetriesOnConflict(t *testing.T) {
	svc, photoRepo, _ := newTestEngagementService()

	// Each attempt re-reads the photo, so every read gets a fresh copy.
	photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil).Once()
	photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil).Once()
	photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).
		Return(domain.ErrVersionConflict).Once()
	photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).
		Return(nil).Once()

	out, err := svc.ToggleLike(context.Background(), ToggleLikeInput{PhotoID: "p1", UserID: 7})

	require.NoError(t, err)
	require.True(t, out.Liked)
	photoRepo.AssertExpectations(t)
}

// busyLocker never grants the lock, as if another writer held it past
// every retry.
type busyLocker struct{}

func (busyLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, nil
}

func (busyLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	return false, nil
}

func (busyLocker) Release(ctx context.Context, key string) (bool, error) { return false, nil }

func (busyLocker) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, nil
}

func (busyLocker) IsHeld(ctx context.Context, key string) (bool, error) { return true, nil }

func TestEngagementService_ToggleLike_LockHeldElsewhere(t *testing.T) {
	photoRepo := new(mockPhotoRepository)
	userRepo := new(mockUserRepository)
	svc := NewEngagementService(photoRepo, userRepo, nil, busyLocker{}, nil, config.EngagementConfig{}, zerolog.Nop())

	_, err := svc.ToggleLike(context.Background(), ToggleLikeInput{PhotoID: "p1", UserID: 7})

	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, repository.ErrLockNotAcquired)
	photoRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestEngagementService_RegisterView(t *testing.T) {
	tests := []struct {
		name        string
		input       RegisterViewInput
		setup       func(*mockPhotoRepository)
		wantErr     error
		wantCounted bool
		wantViews   int64
	}{
		{
			name:  "first view counts",
			input: RegisterViewInput{PhotoID: "p1", UserID: 7},
			setup: func(photoRepo *mockPhotoRepository) {
				photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)
				photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(nil)
			},
			wantCounted: true,
			wantViews:   1,
		},
		{
			name:  "repeat view does not count and does not write",
			input: RegisterViewInput{PhotoID: "p1", UserID: 7},
			setup: func(photoRepo *mockPhotoRepository) {
				photo := testPhoto("p1", 1)
				photo.RegisterView(7)
				photoRepo.On("GetByID", mock.Anything, "p1").Return(photo, nil)
			},
			wantCounted: false,
			wantViews:   1,
		},
		{
			name:  "photo not found",
			input: RegisterViewInput{PhotoID: "missing", UserID: 7},
			setup: func(photoRepo *mockPhotoRepository) {
				photoRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrPhotoNotFound)
			},
			wantErr: ErrPhotoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, photoRepo, _ := newTestEngagementService()
			tt.setup(photoRepo)

			out, err := svc.RegisterView(context.Background(), tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCounted, out.Counted)
			require.Equal(t, tt.wantViews, out.ViewsCount)
			photoRepo.AssertExpectations(t)
		})
	}
}

func TestEngagementService_AddComment(t *testing.T) {
	tests := []struct {
		name    string
		input   AddCommentInput
		setup   func(*mockPhotoRepository, *mockUserRepository)
		wantErr error
	}{
		{
			name:  "success",
			input: AddCommentInput{PhotoID: "p1", UserID: 7, Content: "nice shot"},
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository) {
				userRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Name: "bob"}, nil)
				photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)
				photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(nil)
			},
		},
		{
			name:    "empty content rejected",
			input:   AddCommentInput{PhotoID: "p1", UserID: 7, Content: "   "},
			setup:   func(*mockPhotoRepository, *mockUserRepository) {},
			wantErr: ErrEmptyContent,
		},
		{
			name:  "photo not found",
			input: AddCommentInput{PhotoID: "missing", UserID: 7, Content: "hello"},
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository) {
				userRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Name: "bob"}, nil)
				photoRepo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrPhotoNotFound)
			},
			wantErr: ErrPhotoNotFound,
		},
		{
			name:  "vanished author rejected",
			input: AddCommentInput{PhotoID: "p1", UserID: 99, Content: "hello"},
			setup: func(photoRepo *mockPhotoRepository, userRepo *mockUserRepository) {
				userRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrUserNotFound)
			},
			wantErr: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, photoRepo, userRepo := newTestEngagementService()
			tt.setup(photoRepo, userRepo)

			out, err := svc.AddComment(context.Background(), tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, out.Comment.ID)
			require.Equal(t, "nice shot", out.Comment.Content)
			require.Equal(t, "bob", out.Author)
			require.Equal(t, int64(1), out.CommentsCount)
			mock.AssertExpectationsForObjects(t, photoRepo, userRepo)
		})
	}
}

func TestEngagementService_ReplyToComment(t *testing.T) {
	svc, photoRepo, userRepo := newTestEngagementService()

	photo := testPhoto("p1", 1)
	comment := photo.AddComment(5, "first")

	userRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Name: "bob"}, nil)
	photoRepo.On("GetByID", mock.Anything, "p1").Return(photo, nil)
	photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(nil)

	out, err := svc.ReplyToComment(context.Background(), AddReplyInput{
		PhotoID:   "p1",
		CommentID: comment.ID,
		UserID:    7,
		Content:   "agreed",
	})

	require.NoError(t, err)
	require.Equal(t, "agreed", out.Reply.Content)
	require.Equal(t, int64(7), out.Reply.UserID)
	require.Equal(t, "bob", out.Author)
	require.Equal(t, comment.ID, out.Comment.ID)
	require.Len(t, out.Comment.Replies, 1)
}

func TestEngagementService_ReplyToComment_UnknownComment(t *testing.T) {
	svc, photoRepo, userRepo := newTestEngagementService()

	userRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Name: "bob"}, nil)
	photoRepo.On("GetByID", mock.Anything, "p1").Return(testPhoto("p1", 1), nil)

	_, err := svc.ReplyToComment(context.Background(), AddReplyInput{
		PhotoID:   "p1",
		CommentID: "does-not-exist",
		UserID:    7,
		Content:   "hello",
	})

	require.ErrorIs(t, err, ErrCommentNotFound)
}

func TestEngagementService_DeleteComment(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*domain.Photo) DeleteCommentInput
		wantErr error
	}{
		{
			name: "owner deletes own comment",
			setup: func(photo *domain.Photo) DeleteCommentInput {
				c := photo.AddComment(7, "mine")
				return DeleteCommentInput{PhotoID: photo.ID, CommentID: c.ID, RequesterID: 7}
			},
		},
		{
			name: "non-owner is rejected",
			setup: func(photo *domain.Photo) DeleteCommentInput {
				c := photo.AddComment(7, "mine")
				return DeleteCommentInput{PhotoID: photo.ID, CommentID: c.ID, RequesterID: 8}
			},
			wantErr: ErrNotCommentOwner,
		},
		{
			name: "unknown comment",
			setup: func(photo *domain.Photo) DeleteCommentInput {
				return DeleteCommentInput{PhotoID: photo.ID, CommentID: "missing", RequesterID: 7}
			},
			wantErr: ErrCommentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, photoRepo, _ := newTestEngagementService()

			photo := testPhoto("p1", 1)
			input := tt.setup(photo)

			photoRepo.On("GetByID", mock.Anything, "p1").Return(photo, nil)
			if tt.wantErr == nil {
				photoRepo.On("UpdateVersioned", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(nil)
			}

			out, err := svc.DeleteComment(context.Background(), input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, int64(0), out.CommentsCount)
			require.Empty(t, out.Comments)
			photoRepo.AssertExpectations(t)
		})
	}
}

// TestEngagementService_ConcurrentLikes drives many distinct users
// through ToggleLike at once against a version-checking repository and
// verifies no like is lost.
func TestEngagementService_ConcurrentLikes(t *testing.T) {
	photoRepo := newFakePhotoRepository()
	userRepo := new(mockUserRepository)
	locker := lock.NewMemoryLocker()

	svc := NewEngagementService(photoRepo, userRepo, nil, locker, nil, config.EngagementConfig{
		LockTTL:        time.Second,
		LockRetries:    200,
		LockRetryDelay: 2 * time.Millisecond,
		WriteRetries:   5,
	}, zerolog.Nop())

	photo := testPhoto("p1", 1)
	require.NoError(t, photoRepo.Create(context.Background(), photo))

	const users = 20
	var wg sync.WaitGroup
	errs := make(chan error, users)

	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := svc.ToggleLike(context.Background(), ToggleLikeInput{PhotoID: "p1", UserID: userID})
			errs <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := photoRepo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, int64(users), stored.LikesCount)
	require.Len(t, stored.Likes, users)
	for i := 0; i < users; i++ {
		require.True(t, stored.LikedBy(int64(i+1)), fmt.Sprintf("user %d like lost", i+1))
	}
}

// TestEngagementService_ConcurrentToggleCancels verifies that an even
// number of toggles by the same user always nets out to zero likes.
func TestEngagementService_ConcurrentToggleCancels(t *testing.T) {
	photoRepo := newFakePhotoRepository()
	userRepo := new(mockUserRepository)
	locker := lock.NewMemoryLocker()

	svc := NewEngagementService(photoRepo, userRepo, nil, locker, nil, config.EngagementConfig{
		LockTTL:        time.Second,
		LockRetries:    200,
		LockRetryDelay: 2 * time.Millisecond,
		WriteRetries:   5,
	}, zerolog.Nop())

	photo := testPhoto("p1", 1)
	require.NoError(t, photoRepo.Create(context.Background(), photo))

	const toggles = 10 // even
	for i := 0; i < toggles; i++ {
		_, err := svc.ToggleLike(context.Background(), ToggleLikeInput{PhotoID: "p1", UserID: 7})
		require.NoError(t, err)
	}

	stored, err := photoRepo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, int64(0), stored.LikesCount)
	require.False(t, stored.LikedBy(7))
}
