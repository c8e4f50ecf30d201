// Package domain contains the core business entities for Glimpse.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same email or
	// external identity exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoCredentials indicates an account without any usable
	// credential (neither password hash nor external identity).
	ErrNoCredentials = errors.New("account has no usable credentials")

	// ===========================================
	// Photo Errors
	// ===========================================

	// ErrPhotoNotFound indicates the requested photo does not exist.
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrNotPhotoOwner indicates the caller does not own the photo.
	ErrNotPhotoOwner = errors.New("caller is not the photo owner")

	// ErrUnsupportedFileType indicates the uploaded file extension is
	// not an accepted image type.
	ErrUnsupportedFileType = errors.New("unsupported file type: only .jpg, .jpeg and .png are accepted")

	// ErrFileTooLarge indicates the uploaded file exceeds the size limit.
	ErrFileTooLarge = errors.New("uploaded file exceeds the maximum size")

	// ErrEmptyUpload indicates an upload request without file content.
	ErrEmptyUpload = errors.New("no file uploaded")

	// ===========================================
	// Engagement Errors
	// ===========================================

	// ErrCommentNotFound indicates the targeted comment does not exist
	// on the photo.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrNotCommentOwner indicates the caller did not author the comment.
	ErrNotCommentOwner = errors.New("caller is not the comment owner")

	// ErrEmptyContent indicates comment or reply content that is empty
	// or whitespace-only.
	ErrEmptyContent = errors.New("content must not be empty")

	// ErrVersionConflict indicates a write conditioned on a stale photo
	// version. The operation should re-read and retry.
	ErrVersionConflict = errors.New("photo was modified concurrently")

	// ===========================================
	// Authentication Errors
	// ===========================================

	// ErrUnauthenticated indicates no resolved caller identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidToken indicates the session token failed verification.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ===========================================
	// Storage Errors
	// ===========================================

	// ErrImageNotFound indicates the stored image file does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrStorageUnavailable indicates the storage backend failed and
	// the operation may be retried.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., photo ID, comment ID).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// WrapError wraps an error with domain context if it's not already a DomainError.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	return &DomainError{
		Err:     err,
		Message: message,
	}
}
