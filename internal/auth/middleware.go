// Package auth provides JWT session authentication for Glimpse.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/glimpse-app/glimpse/internal/domain"
)

// AuthorizationHeader is the header carrying the bearer token.
const AuthorizationHeader = "Authorization"

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

// sessionContextKey stores the authenticated Session in request contexts.
var sessionContextKey = contextKey{}

// Session describes the authenticated caller of a request.
type Session struct {
	// UserID is the canonical numeric user identifier.
	UserID int64

	// Name is the user's display name at token issue time.
	Name string

	// Email is the user's email at token issue time.
	Email string
}

// Config contains configuration for the auth middleware.
type Config struct {
	// SkipPaths are paths that skip authentication entirely.
	SkipPaths []string
}

// DefaultConfig returns the default auth configuration.
func DefaultConfig() Config {
	return Config{
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// Middleware returns middleware that requires a valid bearer token.
// The resulting Session is injected into the request context.
func Middleware(tokens *TokenService, config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}

			session, err := authenticate(r, tokens)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// OptionalMiddleware returns middleware that injects a Session when a
// valid bearer token is present, but lets anonymous requests through.
// A malformed or expired token is still rejected so callers never act
// on a token they believe to be valid.
func OptionalMiddleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(AuthorizationHeader) == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := authenticate(r, tokens)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// authenticate extracts and verifies the bearer token from a request.
func authenticate(r *http.Request, tokens *TokenService) (*Session, error) {
	authHeader := r.Header.Get(AuthorizationHeader)
	if authHeader == "" {
		return nil, domain.ErrNoCredentials
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, domain.ErrInvalidToken
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID: userID,
		Name:   claims.Name,
		Email:  claims.Email,
	}, nil
}

// WithSession returns a context carrying the given session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFrom retrieves the Session from a request context.
func SessionFrom(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	return session, ok
}

// RequireSession returns the session or ErrUnauthenticated.
func RequireSession(ctx context.Context) (*Session, error) {
	session, ok := SessionFrom(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return session, nil
}

// writeAuthError writes a JSON error response for failed authentication.
func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	message := "authentication required"
	if err != nil && !errors.Is(err, domain.ErrNoCredentials) {
		message = "invalid or expired token"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
