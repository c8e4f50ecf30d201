// Package service provides business logic services for Glimpse.
package service

import "errors"

// Common service errors.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password: must be at least 8 characters")
	ErrInvalidName        = errors.New("invalid name: must be 1-255 characters")
	ErrInvalidEmail       = errors.New("invalid email format")

	// Photo errors
	ErrPhotoNotFound       = errors.New("photo not found")
	ErrNotPhotoOwner       = errors.New("photo belongs to another user")
	ErrInvalidTitle        = errors.New("invalid title: must be 1-255 characters")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum upload size")
	ErrEmptyUpload         = errors.New("upload contains no data")

	// Engagement errors
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("comment belongs to another user")
	ErrEmptyContent    = errors.New("content must not be empty")
	ErrContentTooLong  = errors.New("content exceeds maximum length")
	ErrConflict        = errors.New("concurrent update conflict, retry the request")

	// General errors
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInternalError      = errors.New("internal server error")
	ErrStorageUnavailable = errors.New("storage temporarily unavailable, retry the request")
)
