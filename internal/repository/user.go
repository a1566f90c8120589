package repository

import (
	"context"

	"rideshare/internal/domain"
)

// UserRepository defines the persistence operations for user profiles.
type UserRepository interface {
	// Create adds a new user. Returns ErrConflict if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByIDs retrieves the users with the given IDs.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)

	// UpdateProfile updates the editable profile fields.
	UpdateProfile(ctx context.Context, user *domain.User) error

	// MarkVerified flags the user's email as verified.
	MarkVerified(ctx context.Context, id string) error
}
