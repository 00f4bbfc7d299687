package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a conditional insert finds a conflicting record.
	ErrDuplicate = errors.New("entity already exists")

	// ErrUnavailable is returned when the store cannot be reached or timed out.
	// Callers may retry; it never means the entity is absent.
	ErrUnavailable = errors.New("store unavailable")
)
