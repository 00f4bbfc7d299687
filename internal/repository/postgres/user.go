package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// FindByEmail retrieves a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT email, name, phone_no, secret_digest, created_at FROM users WHERE email = $1`

	var user domain.User
	err := r.q.QueryRowContext(ctx, query, email).Scan(
		&user.Email,
		&user.Name,
		&user.PhoneNo,
		&user.SecretDigest,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return &user, nil
}

// Insert adds a new user. ON CONFLICT makes the uniqueness check and the
// write one statement, so concurrent signups for the same email cannot both win.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, name, phone_no, secret_digest)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING created_at
	`

	err := r.q.QueryRowContext(ctx, query, user.Email, user.Name, user.PhoneNo, user.SecretDigest).
		Scan(&user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrDuplicate
		}
		return classifyError(err)
	}
	return nil
}
