package memory

import (
	"context"
	"fmt"
	"sync"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository stores users in memory, keyed by email.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]domain.User),
	}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[email]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

// Insert checks for an existing email and stores the user under one lock.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return repository.ErrDuplicate
	}
	r.users[user.Email] = *user
	return nil
}
