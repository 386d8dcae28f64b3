package repository

import (
	"context"
	"errors"

	"foodbridge/internal/domain/entity"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when an email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	GetAll(ctx context.Context) ([]*entity.User, error)

	// GetByID retrieves a single user by their unique ID.
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetByEmail matches the email case-insensitively.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// Add persists a new user; emails are unique.
	Add(ctx context.Context, user *entity.User) error

	Update(ctx context.Context, user *entity.User) error

	// Delete removes the user permanently.
	Delete(ctx context.Context, id string) error

	GetByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
	GetPendingVerification(ctx context.Context) ([]*entity.User, error)
}
