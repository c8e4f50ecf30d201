package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/repository"
)

// displayNameTTL bounds staleness of cached display names.
const displayNameTTL = 15 * time.Minute

// nameResolver resolves user display names with a cache in front of the
// user repository. Engagement payloads carry author names, so these
// lookups sit on every comment-heavy read path.
type nameResolver struct {
	userRepo repository.UserRepository
	cache    repository.Cache
	logger   zerolog.Logger
}

func newNameResolver(userRepo repository.UserRepository, cache repository.Cache, logger zerolog.Logger) *nameResolver {
	return &nameResolver{
		userRepo: userRepo,
		cache:    cache,
		logger:   logger,
	}
}

func displayNameKey(userID int64) string {
	return "user:name:" + strconv.FormatInt(userID, 10)
}

// DisplayName returns the display name for a user, or an empty string
// when the user no longer exists. Cache failures fall through to the
// repository.
func (r *nameResolver) DisplayName(ctx context.Context, userID int64) (string, error) {
	key := displayNameKey(userID)

	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, key); err == nil {
			return string(cached), nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			r.logger.Debug().Err(err).Int64("user_id", userID).Msg("display name cache read failed")
		}
	}

	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, []byte(user.Name), displayNameTTL); err != nil {
			r.logger.Debug().Err(err).Int64("user_id", userID).Msg("display name cache write failed")
		}
	}

	return user.Name, nil
}

// Invalidate drops the cached display name for a user.
func (r *nameResolver) Invalidate(ctx context.Context, userID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, displayNameKey(userID)); err != nil {
		r.logger.Debug().Err(err).Int64("user_id", userID).Msg("display name cache invalidation failed")
	}
}
