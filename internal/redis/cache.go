package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rideshare/internal/domain"
)

const rideCachePrefix = "cache:ride:"

// CacheStore handles ride caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// CachedRide represents a cached ride entity.
type CachedRide struct {
	ID          string    `json:"id"`
	Host        string    `json:"host"`
	Destination string    `json:"destination"`
	Pickup      string    `json:"pickup"`
	Time        time.Time `json:"time"`
	CreatedAt   time.Time `json:"created_at"`
	PhoneNo     string    `json:"phone_no"`
	Email       string    `json:"email"`
}

func toCachedRide(r *domain.Ride) *CachedRide {
	return &CachedRide{
		ID:          r.ID,
		Host:        r.Host,
		Destination: r.Destination,
		Pickup:      r.Pickup,
		Time:        r.Time,
		CreatedAt:   r.CreatedAt,
		PhoneNo:     r.PhoneNo,
		Email:       r.Email,
	}
}

func (c *CachedRide) toDomain() *domain.Ride {
	return &domain.Ride{
		ID:          c.ID,
		Host:        c.Host,
		Destination: c.Destination,
		Pickup:      c.Pickup,
		Time:        c.Time,
		CreatedAt:   c.CreatedAt,
		PhoneNo:     c.PhoneNo,
		Email:       c.Email,
	}
}

// GetRide retrieves a ride from cache. A miss returns nil, nil.
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	data, err := s.client.Get(ctx, rideCachePrefix+rideID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var ride CachedRide
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, err
	}
	return ride.toDomain(), nil
}

// SetRide stores a ride in cache for ttl. A non-positive ttl is a no-op.
func (s *CacheStore) SetRide(ctx context.Context, ride *domain.Ride, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(toCachedRide(ride))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rideCachePrefix+ride.ID, data, ttl).Err()
}

// InvalidateRides removes rides from cache in one round trip.
func (s *CacheStore) InvalidateRides(ctx context.Context, rideIDs ...string) error {
	if len(rideIDs) == 0 {
		return nil
	}

	keys := make([]string, len(rideIDs))
	for i, id := range rideIDs {
		keys[i] = rideCachePrefix + id
	}
	return s.client.Del(ctx, keys...).Err()
}
