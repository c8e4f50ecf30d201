package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    42,
		Name:  "alice",
		Email: "alice@example.com",
	}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
	require.Equal(t, "alice", claims.Name)
	require.Equal(t, "alice@example.com", claims.Email)
}

func TestTokenService_Verify(t *testing.T) {
	tests := []struct {
		name  string
		token func() string
	}{
		{
			name:  "garbage token",
			token: func() string { return "not.a.token" },
		},
		{
			name: "wrong secret",
			token: func() string {
				other := NewTokenService("other-secret", time.Hour)
				tok, err := other.Issue(testUser())
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "expired token",
			token: func() string {
				expired := NewTokenService("test-secret", -time.Minute)
				tok, err := expired.Issue(testUser())
				require.NoError(t, err)
				return tok
			},
		},
	}

	svc := NewTokenService("test-secret", time.Hour)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token())
			require.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}
