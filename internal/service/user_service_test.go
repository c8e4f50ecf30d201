package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/glimpse-app/glimpse/internal/domain"
)

// =============================================================================
// Helper Functions
// =============================================================================

func newTestUserService() (*UserService, *mockUserRepository) {
	userRepo := new(mockUserRepository)
	svc := NewUserService(userRepo, bcrypt.MinCost, zerolog.Nop())
	return svc, userRepo
}

func hashedUser(id int64, email, password string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := domain.NewUser("alice", email, string(hash))
	user.ID = id
	return user
}

// =============================================================================
// Test Cases
// =============================================================================

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		setup   func(*mockUserRepository)
		wantErr error
	}{
		{
			name:  "success",
			input: RegisterInput{Name: "alice", Email: "alice@example.com", Password: "hunter22hunter22"},
			setup: func(userRepo *mockUserRepository) {
				userRepo.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(false, nil)
				userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
			},
		},
		{
			name:    "empty name rejected",
			input:   RegisterInput{Name: "", Email: "alice@example.com", Password: "hunter22hunter22"},
			setup:   func(*mockUserRepository) {},
			wantErr: ErrInvalidName,
		},
		{
			name:    "malformed email rejected",
			input:   RegisterInput{Name: "alice", Email: "not-an-email", Password: "hunter22hunter22"},
			setup:   func(*mockUserRepository) {},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "short password rejected",
			input:   RegisterInput{Name: "alice", Email: "alice@example.com", Password: "short"},
			setup:   func(*mockUserRepository) {},
			wantErr: ErrInvalidPassword,
		},
		{
			name:  "duplicate email",
			input: RegisterInput{Name: "alice", Email: "alice@example.com", Password: "hunter22hunter22"},
			setup: func(userRepo *mockUserRepository) {
				userRepo.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(true, nil)
			},
			wantErr: ErrUserAlreadyExists,
		},
		{
			name:  "duplicate email raced past existence check",
			input: RegisterInput{Name: "alice", Email: "alice@example.com", Password: "hunter22hunter22"},
			setup: func(userRepo *mockUserRepository) {
				userRepo.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(false, nil)
				userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(domain.ErrUserAlreadyExists)
			},
			wantErr: ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, userRepo := newTestUserService()
			tt.setup(userRepo)

			out, err := svc.Register(context.Background(), tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, "alice", out.User.Name)
				require.NotEmpty(t, out.User.PasswordHash)
				require.NotEqual(t, "hunter22hunter22", out.User.PasswordHash)
			}
			userRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_RegisterExternal(t *testing.T) {
	t.Run("existing identity returned as-is", func(t *testing.T) {
		svc, userRepo := newTestUserService()

		existing := domain.NewExternalUser("alice", "alice@example.com", "google-123")
		existing.ID = 42
		userRepo.On("GetByExternalID", mock.Anything, "google-123").Return(existing, nil)

		out, err := svc.RegisterExternal(context.Background(), RegisterExternalInput{
			Name:       "alice",
			Email:      "alice@example.com",
			ExternalID: "google-123",
		})

		require.NoError(t, err)
		require.Equal(t, int64(42), out.User.ID)
		userRepo.AssertExpectations(t)
	})

	t.Run("unknown identity creates account", func(t *testing.T) {
		svc, userRepo := newTestUserService()

		userRepo.On("GetByExternalID", mock.Anything, "google-456").Return(nil, domain.ErrUserNotFound)
		userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

		out, err := svc.RegisterExternal(context.Background(), RegisterExternalInput{
			Name:       "bob",
			Email:      "bob@example.com",
			ExternalID: "google-456",
		})

		require.NoError(t, err)
		require.Equal(t, "google-456", out.User.ExternalID)
		require.Empty(t, out.User.PasswordHash)
		userRepo.AssertExpectations(t)
	})

	t.Run("missing external id rejected", func(t *testing.T) {
		svc, _ := newTestUserService()

		_, err := svc.RegisterExternal(context.Background(), RegisterExternalInput{Name: "bob"})

		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		setup    func(*mockUserRepository)
		wantErr  error
	}{
		{
			name:     "success",
			email:    "alice@example.com",
			password: "correct horse",
			setup: func(userRepo *mockUserRepository) {
				userRepo.On("GetByEmail", mock.Anything, "alice@example.com").
					Return(hashedUser(1, "alice@example.com", "correct horse"), nil)
			},
		},
		{
			name:     "wrong password",
			email:    "alice@example.com",
			password: "wrong",
			setup: func(userRepo *mockUserRepository) {
				userRepo.On("GetByEmail", mock.Anything, "alice@example.com").
					Return(hashedUser(1, "alice@example.com", "correct horse"), nil)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "whatever",
			setup: func(userRepo *mockUserRepository) {
				userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrUserNotFound)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "external-only account rejects password login",
			email:    "ext@example.com",
			password: "whatever",
			setup: func(userRepo *mockUserRepository) {
				ext := domain.NewExternalUser("ext", "ext@example.com", "google-789")
				userRepo.On("GetByEmail", mock.Anything, "ext@example.com").Return(ext, nil)
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, userRepo := newTestUserService()
			tt.setup(userRepo)

			user, err := svc.Authenticate(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.email, user.Email)
			userRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_UpdatePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, userRepo := newTestUserService()

		userRepo.On("GetByID", mock.Anything, int64(1)).
			Return(hashedUser(1, "alice@example.com", "old password"), nil)
		userRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

		err := svc.UpdatePassword(context.Background(), UpdatePasswordInput{
			UserID:      1,
			OldPassword: "old password",
			NewPassword: "new password 99",
		})

		require.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("wrong old password", func(t *testing.T) {
		svc, userRepo := newTestUserService()

		userRepo.On("GetByID", mock.Anything, int64(1)).
			Return(hashedUser(1, "alice@example.com", "old password"), nil)

		err := svc.UpdatePassword(context.Background(), UpdatePasswordInput{
			UserID:      1,
			OldPassword: "not it",
			NewPassword: "new password 99",
		})

		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("short new password", func(t *testing.T) {
		svc, userRepo := newTestUserService()

		userRepo.On("GetByID", mock.Anything, int64(1)).
			Return(hashedUser(1, "alice@example.com", "old password"), nil)

		err := svc.UpdatePassword(context.Background(), UpdatePasswordInput{
			UserID:      1,
			OldPassword: "old password",
			NewPassword: "short",
		})

		require.ErrorIs(t, err, ErrInvalidPassword)
	})
}

func TestUserService_GetByID(t *testing.T) {
	svc, userRepo := newTestUserService()

	userRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, domain.ErrUserNotFound)

	_, err := svc.GetByID(context.Background(), 404)

	require.ErrorIs(t, err, ErrUserNotFound)
	userRepo.AssertExpectations(t)
}
