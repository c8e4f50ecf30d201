package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/auth"
	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/service"
)

// PhotoHandler handles photo upload, listing, deletion and image
// delivery requests.
type PhotoHandler struct {
	photoService  *service.PhotoService
	maxUploadSize int64
	logger        zerolog.Logger
}

// PhotoHandlerConfig contains configuration for the photo handler.
type PhotoHandlerConfig struct {
	PhotoService  *service.PhotoService
	MaxUploadSize int64
	Logger        zerolog.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(cfg PhotoHandlerConfig) *PhotoHandler {
	return &PhotoHandler{
		photoService:  cfg.PhotoService,
		maxUploadSize: cfg.MaxUploadSize,
		logger:        cfg.Logger.With().Str("handler", "photo").Logger(),
	}
}

// RegisterPublicRoutes registers read-only photo routes. A session is
// optional here and only personalizes the Liked flag.
func (h *PhotoHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/photos", h.handleList)
	r.Get("/photos/{photoID}", h.handleGet)
}

// RegisterRoutes registers photo routes requiring authentication.
func (h *PhotoHandler) RegisterRoutes(r chi.Router) {
	r.Get("/photos/mine", h.handleListMine)
	r.Post("/photos", h.handleUpload)
	r.Delete("/photos/{photoID}", h.handleDelete)
}

// RegisterImageRoutes registers the image delivery route. Images are
// served without authentication so they can be embedded directly.
func (h *PhotoHandler) RegisterImageRoutes(r chi.Router) {
	r.Get("/uploads/{filename}", h.handleImage)
}

// =============================================================================
// Response Types
// =============================================================================

type photoResponse struct {
	PhotoID       string           `json:"id"`
	Filename      string           `json:"filename"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Author        string           `json:"author"`
	OwnerID       int64            `json:"owner_id"`
	UploadedAt    string           `json:"uploaded_at"`
	LikesCount    int64            `json:"likes_count"`
	ViewsCount    int64            `json:"views_count"`
	CommentsCount int64            `json:"comments_count"`
	Liked         bool             `json:"liked"`
	Comments      []domain.Comment `json:"comments"`
}

type photoListResponse struct {
	Photos     []photoResponse `json:"photos"`
	TotalCount int64           `json:"total_count"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// toPhotoResponse shapes a photo for the client. viewerID personalizes
// the Liked flag; zero means no viewer context.
func toPhotoResponse(p *domain.Photo, viewerID int64) photoResponse {
	comments := p.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	return photoResponse{
		PhotoID:       p.ID,
		Filename:      p.Filename,
		Title:         p.Title,
		Description:   p.Description,
		Author:        p.Author,
		OwnerID:       p.OwnerID,
		UploadedAt:    p.UploadedAt.Format(time.RFC3339),
		LikesCount:    p.LikesCount,
		ViewsCount:    p.ViewsCount,
		CommentsCount: p.CommentsCount,
		Liked:         viewerID != 0 && p.LikedBy(viewerID),
		Comments:      comments,
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (h *PhotoHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	out, err := h.photoService.List(r.Context(), service.ListPhotosInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.writePhotoList(w, r, out, limit, offset)
}

func (h *PhotoHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	session, err := auth.RequireSession(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrUnauthenticated)
		return
	}

	limit, offset := paginationParams(r)

	out, err := h.photoService.List(r.Context(), service.ListPhotosInput{
		OwnerID: session.UserID,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.writePhotoList(w, r, out, limit, offset)
}

func (h *PhotoHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	session, err := auth.RequireSession(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrUnauthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing image file"})
		return
	}
	defer file.Close()

	out, err := h.photoService.Upload(r.Context(), service.UploadPhotoInput{
		OwnerID:      session.UserID,
		OriginalName: header.Filename,
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Body:         file,
		Size:         header.Size,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPhotoResponse(out.Photo, session.UserID))
}

func (h *PhotoHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	photo, err := h.photoService.Get(r.Context(), service.GetPhotoInput{
		PhotoID: chi.URLParam(r, "photoID"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPhotoResponse(photo, viewerID(r)))
}

func (h *PhotoHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	session, err := auth.RequireSession(r.Context())
	if err != nil {
		writeServiceError(w, service.ErrUnauthenticated)
		return
	}

	err = h.photoService.Delete(r.Context(), service.DeletePhotoInput{
		PhotoID:     chi.URLParam(r, "photoID"),
		RequesterID: session.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PhotoHandler) handleImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	out, err := h.photoService.OpenImage(r.Context(), filename)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer out.Body.Close()

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(out.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, out.Body); err != nil {
		h.logger.Debug().Err(err).Str("filename", filename).Msg("image stream interrupted")
	}
}

// =============================================================================
// Helpers
// =============================================================================

func (h *PhotoHandler) writePhotoList(w http.ResponseWriter, r *http.Request, out *service.ListPhotosOutput, limit, offset int) {
	viewer := viewerID(r)
	photos := make([]photoResponse, 0, len(out.Photos))
	for _, p := range out.Photos {
		photos = append(photos, toPhotoResponse(p, viewer))
	}

	writeJSON(w, http.StatusOK, photoListResponse{
		Photos:     photos,
		TotalCount: out.TotalCount,
		Limit:      limit,
		Offset:     offset,
	})
}

// viewerID extracts the authenticated user ID when a session is
// present, zero otherwise.
func viewerID(r *http.Request) int64 {
	if session, ok := auth.SessionFrom(r.Context()); ok {
		return session.UserID
	}
	return 0
}

// paginationParams parses limit and offset query parameters, leaving
// zero values for the service defaults when absent or malformed.
func paginationParams(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
