// Package repository defines data access interfaces for Glimpse.
// These interfaces abstract database operations, allowing for different
// implementations (PostgreSQL, SQLite, in-memory for testing) while
// keeping the service layer clean.
package repository

import (
	"context"

	"github.com/glimpse-app/glimpse/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByExternalID retrieves a user by external identity ID.
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id int64) error

	// List returns all users with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.User], error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByExternalID checks if a user with the given external
	// identity exists.
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
}

// =============================================================================
// Photo Repository
// =============================================================================

// PhotoRepository defines the interface for photo data access.
//
// A photo row carries its engagement collections as a single document,
// so every engagement mutation is a read-modify-write over one row.
// UpdateVersioned is the write half of that cycle: it persists the
// photo only if the stored version still matches the version the
// caller read, and returns domain.ErrVersionConflict otherwise.
type PhotoRepository interface {
	// Create creates a new photo record.
	Create(ctx context.Context, photo *domain.Photo) error

	// GetByID retrieves a photo by ID.
	GetByID(ctx context.Context, id string) (*domain.Photo, error)

	// ListAll returns all photos, newest first.
	ListAll(ctx context.Context, opts ListOptions) (*ListResult[domain.Photo], error)

	// ListByOwner returns photos uploaded by the given user, newest first.
	ListByOwner(ctx context.Context, ownerID int64, opts ListOptions) (*ListResult[domain.Photo], error)

	// UpdateVersioned persists the photo if the stored version equals
	// photo.Version, incrementing the version on success (and in the
	// passed struct). Returns domain.ErrVersionConflict when another
	// writer got there first, domain.ErrPhotoNotFound when the photo
	// is gone.
	UpdateVersioned(ctx context.Context, photo *domain.Photo) error

	// Delete deletes a photo by ID. Engagement data dies with the row.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of items (without pagination).
	Total int64

	// Offset is the current offset.
	Offset int

	// Limit is the current limit.
	Limit int
}
