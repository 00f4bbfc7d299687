package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var _ repository.RideRepository = (*RideRepository)(nil)

// RideRepository stores rides in memory. Records are copied on the way in and
// out so callers never share memory with the store.
type RideRepository struct {
	mu    sync.RWMutex
	rides map[string]domain.Ride
}

func NewRideRepository() *RideRepository {
	return &RideRepository{
		rides: make(map[string]domain.Ride),
	}
}

func (r *RideRepository) CreateIfNoActive(ctx context.Context, ride *domain.Ride, posterKey string, activeSince time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rides {
		if existing.Email == posterKey && existing.CreatedAt.After(activeSince) {
			return repository.ErrDuplicate
		}
	}
	if _, exists := r.rides[ride.ID]; exists {
		return repository.ErrDuplicate
	}

	r.rides[ride.ID] = *ride
	return nil
}

func (r *RideRepository) GetByID(ctx context.Context, id string, notBefore time.Time) (*domain.Ride, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ride, exists := r.rides[id]
	if !exists || ride.CreatedAt.Before(notBefore) {
		return nil, repository.ErrNotFound
	}
	return &ride, nil
}

func (r *RideRepository) List(ctx context.Context, notBefore time.Time) ([]*domain.Ride, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rides := make([]*domain.Ride, 0, len(r.rides))
	for _, ride := range r.rides {
		if ride.CreatedAt.Before(notBefore) {
			continue
		}
		ride := ride
		rides = append(rides, &ride)
	}

	sort.Slice(rides, func(i, j int) bool {
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
	return rides, nil
}

func (r *RideRepository) Update(ctx context.Context, id string, draft domain.RideDraft, notBefore time.Time) (*domain.Ride, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ride, exists := r.rides[id]
	if !exists || ride.CreatedAt.Before(notBefore) {
		return nil, repository.ErrNotFound
	}
	ride.Apply(draft)
	r.rides[id] = ride
	return &ride, nil
}

func (r *RideRepository) DeleteByPhone(ctx context.Context, phoneNo string, notBefore time.Time) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, ride := range r.rides {
		if ride.PhoneNo == phoneNo && !ride.CreatedAt.Before(notBefore) {
			delete(r.rides, id)
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, repository.ErrNotFound
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RideRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, ride := range r.rides {
		if ride.CreatedAt.Before(cutoff) {
			delete(r.rides, id)
			deleted++
		}
	}
	return deleted, nil
}
