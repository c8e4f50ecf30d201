package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/repository"
)

func newTestUserRepository(t *testing.T) repository.UserRepository {
	t.Helper()

	ctx := context.Background()
	db, err := NewDB(ctx, DefaultConfig(filepath.Join(t.TempDir(), "test.db")), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(ctx))

	return NewUserRepository(db)
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := newTestUserRepository(t)
	ctx := context.Background()

	user := domain.NewUser("alice", "alice@example.com", "hash")
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, "alice", got.Name)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := newTestUserRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.NewUser("alice", "alice@example.com", "hash")))

	err := repo.Create(ctx, domain.NewUser("imposter", "alice@example.com", "hash2"))
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestUserRepository_ExternalUsersWithoutEmail(t *testing.T) {
	repo := newTestUserRepository(t)
	ctx := context.Background()

	first := domain.NewExternalUser("carol", "", "google-1")
	require.NoError(t, repo.Create(ctx, first))

	second := domain.NewExternalUser("dave", "", "google-2")
	require.NoError(t, repo.Create(ctx, second))
	require.NotEqual(t, first.ID, second.ID)

	got, err := repo.GetByExternalID(ctx, "google-2")
	require.NoError(t, err)
	require.Equal(t, "dave", got.Name)
	require.Empty(t, got.Email)

	err = repo.Create(ctx, domain.NewExternalUser("copycat", "", "google-1"))
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}
