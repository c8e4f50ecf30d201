// Package service provides business logic services for Glimpse.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/lock"
	"github.com/glimpse-app/glimpse/internal/metrics"
	"github.com/glimpse-app/glimpse/internal/repository"
)

// maxContentLength bounds comment and reply bodies.
const maxContentLength = 2000

// EngagementService handles likes, views, comments and replies.
//
// Every mutation follows the same discipline: take the per-photo lock,
// then read-modify-write the photo row under its version. The lock
// serializes writers on one node (or across nodes with Redis); the
// versioned write catches anything the lock missed, and the operation
// retries from a fresh read on conflict.
type EngagementService struct {
	photoRepo repository.PhotoRepository
	names     *nameResolver
	locker    lock.Locker
	metrics   *metrics.Metrics
	cfg       config.EngagementConfig
	logger    zerolog.Logger
}

// NewEngagementService creates a new EngagementService.
func NewEngagementService(
	photoRepo repository.PhotoRepository,
	userRepo repository.UserRepository,
	cache repository.Cache,
	locker lock.Locker,
	m *metrics.Metrics,
	cfg config.EngagementConfig,
	logger zerolog.Logger,
) *EngagementService {
	logger = logger.With().Str("service", "engagement").Logger()
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	if cfg.WriteRetries <= 0 {
		cfg.WriteRetries = 3
	}
	return &EngagementService{
		photoRepo: photoRepo,
		names:     newNameResolver(userRepo, cache, logger),
		locker:    locker,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// ToggleLikeInput identifies the photo and the acting user.
type ToggleLikeInput struct {
	PhotoID string
	UserID  int64
}

// ToggleLikeOutput reports the new like state after the toggle.
type ToggleLikeOutput struct {
	Liked      bool
	LikesCount int64
}

// RegisterViewInput identifies the photo and the viewing user.
type RegisterViewInput struct {
	PhotoID string
	UserID  int64
}

// RegisterViewOutput reports whether the view counted.
type RegisterViewOutput struct {
	Counted    bool
	ViewsCount int64
}

// AddCommentInput carries a new top-level comment.
type AddCommentInput struct {
	PhotoID string
	UserID  int64
	Content string
}

// AddCommentOutput contains the stored comment and its author's name.
type AddCommentOutput struct {
	Comment       *domain.Comment
	Author        string
	CommentsCount int64
}

// AddReplyInput carries a reply to an existing comment.
type AddReplyInput struct {
	PhotoID   string
	CommentID string
	UserID    int64
	Content   string
}

// AddReplyOutput contains the updated comment, the stored reply, and
// the reply author's name.
type AddReplyOutput struct {
	Comment *domain.Comment
	Reply   *domain.Reply
	Author  string
}

// DeleteCommentInput identifies the comment and the acting user.
type DeleteCommentInput struct {
	PhotoID     string
	CommentID   string
	RequesterID int64
}

// DeleteCommentOutput carries the surviving comments after deletion.
type DeleteCommentOutput struct {
	Comments      []domain.Comment
	CommentsCount int64
}

// =============================================================================
// Service Methods
// =============================================================================

// ToggleLike flips the user's like on a photo. Liking twice returns the
// photo to its original state.
func (s *EngagementService) ToggleLike(ctx context.Context, input ToggleLikeInput) (*ToggleLikeOutput, error) {
	var out ToggleLikeOutput

	err := s.mutate(ctx, "toggle_like", input.PhotoID, func(photo *domain.Photo) error {
		out.Liked = photo.ToggleLike(input.UserID)
		out.LikesCount = photo.LikesCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("photo_id", input.PhotoID).
		Int64("user_id", input.UserID).
		Bool("liked", out.Liked).
		Msg("like toggled")

	return &out, nil
}

// RegisterView records a view at most once per user per photo.
// Repeat views are acknowledged without changing state.
func (s *EngagementService) RegisterView(ctx context.Context, input RegisterViewInput) (*RegisterViewOutput, error) {
	var out RegisterViewOutput

	err := s.mutate(ctx, "register_view", input.PhotoID, func(photo *domain.Photo) error {
		out.Counted = photo.RegisterView(input.UserID)
		out.ViewsCount = photo.ViewsCount
		if !out.Counted {
			// Nothing changed; skip the write entirely.
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Counted {
		s.logger.Info().
			Str("photo_id", input.PhotoID).
			Int64("user_id", input.UserID).
			Msg("view registered")
	}

	return &out, nil
}

// AddComment appends a top-level comment to a photo.
func (s *EngagementService) AddComment(ctx context.Context, input AddCommentInput) (*AddCommentOutput, error) {
	content, err := s.validateContent(input.Content)
	if err != nil {
		return nil, err
	}

	author, err := s.resolveAuthor(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	var out AddCommentOutput
	out.Author = author

	err = s.mutate(ctx, "add_comment", input.PhotoID, func(photo *domain.Photo) error {
		out.Comment = photo.AddComment(input.UserID, content)
		out.CommentsCount = photo.CommentsCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("photo_id", input.PhotoID).
		Str("comment_id", out.Comment.ID).
		Int64("user_id", input.UserID).
		Msg("comment added")

	return &out, nil
}

// ReplyToComment appends a reply to an existing comment.
func (s *EngagementService) ReplyToComment(ctx context.Context, input AddReplyInput) (*AddReplyOutput, error) {
	content, err := s.validateContent(input.Content)
	if err != nil {
		return nil, err
	}

	author, err := s.resolveAuthor(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	var out AddReplyOutput
	out.Author = author

	err = s.mutate(ctx, "add_reply", input.PhotoID, func(photo *domain.Photo) error {
		comment := photo.FindComment(input.CommentID)
		if comment == nil {
			return ErrCommentNotFound
		}
		out.Reply = comment.AddReply(input.UserID, content)
		out.Comment = comment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("photo_id", input.PhotoID).
		Str("comment_id", input.CommentID).
		Int64("user_id", input.UserID).
		Msg("reply added")

	return &out, nil
}

// DeleteComment removes a comment and its replies. Only the comment's
// author may delete it.
func (s *EngagementService) DeleteComment(ctx context.Context, input DeleteCommentInput) (*DeleteCommentOutput, error) {
	var out DeleteCommentOutput

	err := s.mutate(ctx, "delete_comment", input.PhotoID, func(photo *domain.Photo) error {
		comment := photo.FindComment(input.CommentID)
		if comment == nil {
			return ErrCommentNotFound
		}
		if comment.UserID != input.RequesterID {
			return ErrNotCommentOwner
		}
		photo.RemoveComment(input.CommentID)
		out.Comments = photo.Comments
		out.CommentsCount = photo.CommentsCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("photo_id", input.PhotoID).
		Str("comment_id", input.CommentID).
		Int64("user_id", input.RequesterID).
		Msg("comment deleted")

	return &out, nil
}

// =============================================================================
// Write Coordination
// =============================================================================

// errNoChange signals that a mutation left the photo untouched and the
// versioned write can be skipped. Never returned to callers.
var errNoChange = errors.New("no change")

// mutate runs fn against a fresh copy of the photo under the per-photo
// lock and persists the result with a versioned write, retrying from a
// fresh read on version conflicts.
func (s *EngagementService) mutate(ctx context.Context, operation, photoID string, fn func(*domain.Photo) error) error {
	key := lock.Keys.PhotoEngagement(photoID)

	lockStart := time.Now()
	acquired, err := s.locker.AcquireWithRetry(ctx, key, s.cfg.LockTTL, s.cfg.LockRetries, s.cfg.LockRetryDelay)
	if err != nil {
		s.logger.Error().Err(err).Str("photo_id", photoID).Msg("lock acquisition failed")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if s.metrics != nil {
		s.metrics.EngagementLockWaits.Observe(time.Since(lockStart).Seconds())
	}
	if !acquired {
		s.recordOutcome(operation, "conflict")
		return fmt.Errorf("%w: %w", ErrConflict, repository.ErrLockNotAcquired)
	}
	defer func() {
		if _, err := s.locker.Release(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("photo_id", photoID).Msg("lock release failed")
		}
	}()

	for attempt := 0; attempt <= s.cfg.WriteRetries; attempt++ {
		if attempt > 0 && s.metrics != nil {
			s.metrics.EngagementRetriesTotal.Inc()
		}

		photo, err := s.photoRepo.GetByID(ctx, photoID)
		if err != nil {
			if errors.Is(err, domain.ErrPhotoNotFound) {
				s.recordOutcome(operation, "not_found")
				return ErrPhotoNotFound
			}
			s.logger.Error().Err(err).Str("photo_id", photoID).Msg("failed to load photo")
			return fmt.Errorf("%w: %v", ErrInternalError, err)
		}

		if err := fn(photo); err != nil {
			if errors.Is(err, errNoChange) {
				s.recordOutcome(operation, "ok")
				return nil
			}
			s.recordOutcome(operation, "rejected")
			return err
		}

		err = s.photoRepo.UpdateVersioned(ctx, photo)
		if err == nil {
			s.recordOutcome(operation, "ok")
			return nil
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			if s.metrics != nil {
				s.metrics.EngagementConflictsTotal.Inc()
			}
			s.logger.Debug().
				Str("photo_id", photoID).
				Int("attempt", attempt+1).
				Msg("version conflict, retrying")
			continue
		}
		if errors.Is(err, domain.ErrPhotoNotFound) {
			s.recordOutcome(operation, "not_found")
			return ErrPhotoNotFound
		}
		s.logger.Error().Err(err).Str("photo_id", photoID).Msg("versioned write failed")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.recordOutcome(operation, "conflict")
	return ErrConflict
}

func (s *EngagementService) recordOutcome(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordEngagement(operation, outcome)
	}
}

// resolveAuthor maps a user ID to a display name, rejecting vanished users.
func (s *EngagementService) resolveAuthor(ctx context.Context, userID int64) (string, error) {
	author, err := s.names.DisplayName(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to resolve author")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if author == "" {
		return "", ErrUserNotFound
	}
	return author, nil
}

// validateContent trims and bounds comment content.
func (s *EngagementService) validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	if len(content) > maxContentLength {
		return "", fmt.Errorf("%w: limit is %d characters", ErrContentTooLong, maxContentLength)
	}
	return content, nil
}
