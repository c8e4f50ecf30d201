// Package handler provides HTTP handlers for the Glimpse API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/glimpse-app/glimpse/internal/service"
)

// =============================================================================
// Response Helpers
// =============================================================================

// errorResponse is the JSON body returned for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service error to an HTTP status and writes
// the JSON error body.
func writeServiceError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorResponse{Error: messageForError(err)})
}

// statusForError maps service sentinel errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPhotoNotFound),
		errors.Is(err, service.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotPhotoOwner),
		errors.Is(err, service.ErrNotCommentOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrInvalidTitle),
		errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrEmptyUpload),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrContentTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageForError returns the client-facing message for an error.
// Backend details are not leaked to clients.
func messageForError(err error) string {
	switch statusForError(err) {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusServiceUnavailable:
		return service.ErrStorageUnavailable.Error()
	}
	return err.Error()
}
