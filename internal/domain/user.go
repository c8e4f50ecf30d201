// Package domain contains the core business entities for Glimpse.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the photo sharing system.
package domain

import (
	"time"
)

// User represents a registered user in the system.
// Users own photos and appear as the authors of likes, views, comments
// and replies.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name shown next to photos and comments.
	Name string `json:"name"`

	// Email is the unique email address for the user.
	// Optional: externally-authenticated accounts may not have one.
	Email string `json:"email,omitempty"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Empty for accounts that authenticate through an external identity
	// provider. This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// ExternalID is the unique identifier assigned by an external
	// identity provider. Empty for password accounts.
	ExternalID string `json:"-"`

	// ProfileImage is the filename of the user's profile picture, if set.
	ProfileImage string `json:"profile_image,omitempty"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new password-authenticated User.
func NewUser(name, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewExternalUser creates a new User authenticated by an external
// identity provider. Email may be empty.
func NewExternalUser(name, email, externalID string) *User {
	now := time.Now().UTC()
	return &User{
		Name:       name,
		Email:      email,
		ExternalID: externalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CanAuthenticate returns true if the account has at least one
// usable credential.
func (u *User) CanAuthenticate() bool {
	return u.PasswordHash != "" || u.ExternalID != ""
}
