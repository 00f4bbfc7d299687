package service

import (
	"errors"

	"rideshare/internal/repository"
)

var (
	// ErrDuplicateEmail is returned when signing up with an email that is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a token fails signature, algorithm or expiry checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrDuplicateActiveRide is returned when the poster already has a ride inside the dedupe window.
	ErrDuplicateActiveRide = errors.New("an active ride already exists for this user")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidPhoneNo is returned when a phone number is empty.
	ErrInvalidPhoneNo = errors.New("invalid phone number")

	// ErrUnavailable is returned when the store timed out or could not be reached.
	ErrUnavailable = repository.ErrUnavailable
)
