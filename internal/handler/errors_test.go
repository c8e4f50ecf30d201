package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/internal/service"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"photo not found", service.ErrPhotoNotFound, http.StatusNotFound},
		{"duplicate user", service.ErrUserAlreadyExists, http.StatusConflict},
		{"write conflict", service.ErrConflict, http.StatusConflict},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"foreign comment", service.ErrNotCommentOwner, http.StatusForbidden},
		{"oversized upload", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"storage outage", service.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{"wrapped storage outage", fmt.Errorf("%w: disk full", service.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{"empty content", service.ErrEmptyContent, http.StatusBadRequest},
		{"unknown error", fmt.Errorf("pool exhausted"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestMessageForError_HidesBackendDetails(t *testing.T) {
	internal := fmt.Errorf("%w: connect tcp 10.0.0.5: refused", service.ErrInternalError)
	require.Equal(t, "internal server error", messageForError(internal))

	outage := fmt.Errorf("%w: open /data/img: permission denied", service.ErrStorageUnavailable)
	require.Equal(t, service.ErrStorageUnavailable.Error(), messageForError(outage))
	require.NotContains(t, messageForError(outage), "permission denied")
}
