package repository

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// RideRepository defines the persistence operations for rides.
//
// Read and mutate methods take a notBefore bound: rides created before it are
// treated as absent even if they have not been purged yet.
type RideRepository interface {
	// CreateIfNoActive inserts ride unless a stored ride whose email equals
	// posterKey was created after activeSince. The check and insert are
	// atomic. Returns ErrDuplicate when such a ride exists.
	CreateIfNoActive(ctx context.Context, ride *domain.Ride, posterKey string, activeSince time.Time) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string, notBefore time.Time) (*domain.Ride, error)

	// List retrieves all visible rides, newest first.
	List(ctx context.Context, notBefore time.Time) ([]*domain.Ride, error)

	// Update replaces the client-supplied fields of a ride and returns the stored record.
	Update(ctx context.Context, id string, draft domain.RideDraft, notBefore time.Time) (*domain.Ride, error)

	// DeleteByPhone deletes every visible ride with the given phone number and
	// returns the deleted IDs. Returns ErrNotFound if nothing matched.
	DeleteByPhone(ctx context.Context, phoneNo string, notBefore time.Time) ([]string, error)

	// DeleteCreatedBefore purges rides created before cutoff and returns how many were removed.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
