package repository

import (
	"context"

	"rideshare/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// FindByEmail retrieves a user by email. Returns ErrNotFound if absent.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Insert stores a new user. The uniqueness check and the write are a single
	// operation; returns ErrDuplicate if the email is already registered.
	Insert(ctx context.Context, user *domain.User) error
}
