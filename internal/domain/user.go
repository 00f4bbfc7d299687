package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidUser is returned when a user record is missing required fields.
	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidSecret is returned when a secret is empty or too long to hash.
	ErrInvalidSecret = errors.New("invalid password")
)

// MaxSecretBytes is the longest secret bcrypt accepts.
const MaxSecretBytes = 72

// User represents a registered account. Email is the unique key.
type User struct {
	Email        string
	Name         string
	PhoneNo      string
	SecretDigest string
	CreatedAt    time.Time
}

// Validate checks the fields every stored user must carry.
func (u *User) Validate() error {
	switch {
	case strings.TrimSpace(u.Email) == "":
		return fmt.Errorf("%w: email is required", ErrInvalidUser)
	case strings.TrimSpace(u.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	case strings.TrimSpace(u.PhoneNo) == "":
		return fmt.Errorf("%w: phone_no is required", ErrInvalidUser)
	}
	return nil
}

// ValidateSecret checks a plaintext secret before hashing.
func ValidateSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidSecret)
	}
	if len(secret) > MaxSecretBytes {
		return fmt.Errorf("%w: password exceeds %d bytes", ErrInvalidSecret, MaxSecretBytes)
	}
	return nil
}
