package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/auth"
	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/service"
)

// AuthHandler handles account registration and login requests.
type AuthHandler struct {
	userService *service.UserService
	tokens      *auth.TokenService
	logger      zerolog.Logger
}

// AuthHandlerConfig contains configuration for the auth handler.
type AuthHandlerConfig struct {
	UserService *service.UserService
	Tokens      *auth.TokenService
	Logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		userService: cfg.UserService,
		tokens:      cfg.Tokens,
		logger:      cfg.Logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers authentication routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/external", h.handleExternal)
}

// =============================================================================
// Request / Response Types
// =============================================================================

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type externalLoginRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ExternalID string `json:"external_id"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	out, err := h.userService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusCreated, out.User)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

// handleExternal signs a user in through an external identity provider,
// creating the account on first sight of the external ID.
func (h *AuthHandler) handleExternal(w http.ResponseWriter, r *http.Request) {
	var req externalLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	out, err := h.userService.RegisterExternal(r.Context(), service.RegisterExternalInput{
		Name:       req.Name,
		Email:      req.Email,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.respondWithToken(w, http.StatusOK, out.User)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *domain.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, status, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}
