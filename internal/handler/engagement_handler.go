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

// EngagementHandler handles like, view and comment requests.
type EngagementHandler struct {
	engagementService *service.EngagementService
	logger            zerolog.Logger
}

// EngagementHandlerConfig contains configuration for the engagement handler.
type EngagementHandlerConfig struct {
	EngagementService *service.EngagementService
	Logger            zerolog.Logger
}

// NewEngagementHandler creates a new EngagementHandler.
func NewEngagementHandler(cfg EngagementHandlerConfig) *EngagementHandler {
	return &EngagementHandler{
		engagementService: cfg.EngagementService,
		logger:            cfg.Logger.With().Str("handler", "engagement").Logger(),
	}
}

// RegisterRoutes registers engagement routes. All routes require
// authentication.
func (h *EngagementHandler) RegisterRoutes(r chi.Router) {
	r.Put("/photos/{photoID}/like", h.handleToggleLike)
	r.Put("/photos/{photoID}/view", h.handleRegisterView)
	r.Post("/photos/{photoID}/comments", h.handleAddComment)
	r.Post("/photos/{photoID}/comments/{commentID}/replies", h.handleAddReply)
	r.Delete("/photos/{photoID}/comments/{commentID}", h.handleDeleteComment)
}

// =============================================================================
// Request / Response Types
// =============================================================================

type commentRequest struct {
	Content string `json:"content"`
}

type likeResponse struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

type viewResponse struct {
	Counted    bool  `json:"counted"`
	ViewsCount int64 `json:"views_count"`
}

type commentResponse struct {
	ID            string         `json:"id"`
	UserID        int64          `json:"user_id"`
	Author        string         `json:"author"`
	Content       string         `json:"content"`
	CreatedAt     string         `json:"created_at"`
	Replies       []domain.Reply `json:"replies"`
	CommentsCount int64          `json:"comments_count"`
}

type replyResponse struct {
	CommentID string         `json:"comment_id"`
	UserID    int64          `json:"user_id"`
	Author    string         `json:"author"`
	Content   string         `json:"content"`
	CreatedAt string         `json:"created_at"`
	Replies   []domain.Reply `json:"replies"`
}

type deleteCommentResponse struct {
	Comments      []domain.Comment `json:"comments"`
	CommentsCount int64            `json:"comments_count"`
}

// =============================================================================
// Handlers
// =============================================================================

func (h *EngagementHandler) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	session, err := auth.RequireSession(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrUnauthenticated)
		return
	}

	out, err := h.engagementService.ToggleLike(r.Context(), service.ToggleLikeInput{
		PhotoID: chi.URLParam(r, "photoID"),
		UserID:  session.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, likeResponse{
		Liked:      out.Liked,
		LikesCount: out.LikesCount,
	})
}

func (h *EngagementHandler) handleRegisterView(w http.ResponseWriter, r *http.Request) {
	session, err := auth.RequireSession(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrUnauthenticated)
		return
	}

	out, err := h.engagementService.RegisterView(r.Context(), service.RegisterViewInput{
		PhotoID: chi.URLParam(r, "photoID"),
		UserID:  session.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, viewResponse{
		Counted:    out.Counted,
		ViewsCount: out.ViewsCount,
	})
}

func (h *EngagementHandler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	session, err := auth.RequireSession(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrUnauthenticated)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	out, err := h.engagementService.AddComment(r.Context(), service.AddCommentInput{
		PhotoID: chi.URLParam(r, "photoID"),
		UserID:  session.UserID,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentResponse{
		ID:            out.Comment.ID,
		UserID:        out.Comment.UserID,
		Author:        out.Author,
		Content:       out.Comment.Content,
		CreatedAt:     out.Comment.CreatedAt.Format(time.RFC3339),
		Replies:       []domain.Reply{},
		CommentsCount: out.CommentsCount,
	})
}

func (h *EngagementHandler) handleAddReply(w http.ResponseWriter, r *http.Request) {
	session, err := auth.RequireSession(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrUnauthenticated)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	out, err := h.engagementService.ReplyToComment(r.Context(), service.AddReplyInput{
		PhotoID:   chi.URLParam(r, "photoID"),
		CommentID: chi.URLParam(r, "commentID"),
		UserID:    session.UserID,
		Content:   req.Content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, replyResponse{
		CommentID: out.Comment.ID,
		UserID:    out.Reply.UserID,
		Author:    out.Author,
		Content:   out.Reply.Content,
		CreatedAt: out.Reply.CreatedAt.Format(time.RFC3339),
		Replies:   out.Comment.Replies,
	})
}

func (h *EngagementHandler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	session, err := auth.RequireSession(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrUnauthenticated)
		return
	}

	out, err := h.engagementService.DeleteComment(r.Context(), service.DeleteCommentInput{
		PhotoID:     chi.URLParam(r, "photoID"),
		CommentID:   chi.URLParam(r, "commentID"),
		RequesterID: session.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteCommentResponse{
		Comments:      out.Comments,
		CommentsCount: out.CommentsCount,
	})
}
