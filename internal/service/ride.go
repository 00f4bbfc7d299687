package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// RidePolicy holds the ride posting rules.
type RidePolicy struct {
	DedupeWindow time.Duration
	TTL          time.Duration
	DedupeKey    domain.DedupeKey
	OpTimeout    time.Duration // per store call
	CacheTTL     time.Duration // upper bound for cached reads
}

// RideCache is an optional read-through cache for single rides.
// GetRide returns nil, nil on a miss.
type RideCache interface {
	GetRide(ctx context.Context, rideID string) (*domain.Ride, error)
	SetRide(ctx context.Context, ride *domain.Ride, ttl time.Duration) error
	InvalidateRides(ctx context.Context, rideIDs ...string) error
}

// RideService handles ride operations.
type RideService struct {
	rideRepo repository.RideRepository
	cache    RideCache
	policy   RidePolicy
	log      *logrus.Logger
	now      func() time.Time
	newID    func() string
}

// NewRideService creates a new RideService. cache may be nil.
func NewRideService(rideRepo repository.RideRepository, cache RideCache, policy RidePolicy, log *logrus.Logger, opts ...Option) *RideService {
	if policy.DedupeKey == "" {
		policy.DedupeKey = domain.DedupeKeyEmail
	}
	o := buildOptions(opts)
	return &RideService{
		rideRepo: rideRepo,
		cache:    cache,
		policy:   policy,
		log:      orDiscard(log),
		now:      o.now,
		newID:    o.newID,
	}
}

// CreateRide stores a new ride unless its poster already has an active one.
func (s *RideService) CreateRide(ctx context.Context, draft domain.RideDraft) (*domain.Ride, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	draft = draft.Normalize()

	// Truncate so the returned ride matches the stored one.
	now := s.now().UTC().Truncate(domain.TimePrecision)
	ride := domain.NewRide(s.newID(), draft, now)
	posterKey := s.policy.DedupeKey.PosterKey(draft)

	ctx, cancel := withOpTimeout(ctx, s.policy.OpTimeout)
	defer cancel()

	err := s.rideRepo.CreateIfNoActive(ctx, ride, posterKey, now.Add(-s.policy.DedupeWindow))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.WithField("email", draft.Email).Info("ride rejected: active ride exists")
			return nil, ErrDuplicateActiveRide
		}
		return nil, storeError(err)
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":  ride.ID,
		"email":    ride.Email,
		"phone_no": ride.PhoneNo,
	}).Info("ride created")
	return ride, nil
}

// GetRide retrieves a visible ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if strings.TrimSpace(rideID) == "" {
		return nil, ErrInvalidRideID
	}

	now := s.now()
	notBefore := now.Add(-s.policy.TTL)

	if s.cache != nil {
		cached, err := s.cache.GetRide(ctx, rideID)
		if err != nil {
			s.log.WithError(err).WithField("ride_id", rideID).Warn("ride cache read failed")
		} else if cached != nil && !cached.CreatedAt.Before(notBefore) {
			return cached, nil
		}
	}

	storeCtx, cancel := withOpTimeout(ctx, s.policy.OpTimeout)
	defer cancel()

	ride, err := s.rideRepo.GetByID(storeCtx, rideID, notBefore)
	if err != nil {
		return nil, storeError(err)
	}

	if s.cache != nil {
		ttl := s.policy.CacheTTL
		if remaining := ride.ExpiresAt(s.policy.TTL).Sub(now); remaining < ttl {
			ttl = remaining
		}
		if err := s.cache.SetRide(ctx, ride, ttl); err != nil {
			s.log.WithError(err).WithField("ride_id", rideID).Warn("ride cache write failed")
		}
	}
	return ride, nil
}

// ListRides returns every visible ride, newest first.
func (s *RideService) ListRides(ctx context.Context) ([]*domain.Ride, error) {
	ctx, cancel := withOpTimeout(ctx, s.policy.OpTimeout)
	defer cancel()

	rides, err := s.rideRepo.List(ctx, s.now().Add(-s.policy.TTL))
	if err != nil {
		return nil, storeError(err)
	}
	return rides, nil
}

// UpdateRide replaces every client-supplied field of a ride. The ride keeps
// its ID and creation time, so its expiry does not move.
func (s *RideService) UpdateRide(ctx context.Context, rideID string, draft domain.RideDraft) (*domain.Ride, error) {
	if strings.TrimSpace(rideID) == "" {
		return nil, ErrInvalidRideID
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	draft = draft.Normalize()

	storeCtx, cancel := withOpTimeout(ctx, s.policy.OpTimeout)
	defer cancel()

	ride, err := s.rideRepo.Update(storeCtx, rideID, draft, s.now().Add(-s.policy.TTL))
	if err != nil {
		return nil, storeError(err)
	}

	s.invalidate(ctx, ride.ID)
	s.log.WithFields(logrus.Fields{
		"ride_id":  ride.ID,
		"email":    ride.Email,
		"phone_no": ride.PhoneNo,
	}).Info("ride updated")
	return ride, nil
}

// DeleteRidesByPhone deletes every visible ride posted with phoneNo and
// returns how many were removed.
func (s *RideService) DeleteRidesByPhone(ctx context.Context, phoneNo string) (int, error) {
	if strings.TrimSpace(phoneNo) == "" {
		return 0, ErrInvalidPhoneNo
	}

	storeCtx, cancel := withOpTimeout(ctx, s.policy.OpTimeout)
	defer cancel()

	ids, err := s.rideRepo.DeleteByPhone(storeCtx, phoneNo, s.now().Add(-s.policy.TTL))
	if err != nil {
		return 0, storeError(err)
	}

	s.invalidate(ctx, ids...)
	s.log.WithFields(logrus.Fields{
		"phone_no": phoneNo,
		"deleted":  len(ids),
	}).Info("rides deleted")
	return len(ids), nil
}

func (s *RideService) invalidate(ctx context.Context, rideIDs ...string) {
	if s.cache == nil || len(rideIDs) == 0 {
		return
	}
	if err := s.cache.InvalidateRides(ctx, rideIDs...); err != nil {
		s.log.WithError(err).WithField("ride_ids", rideIDs).Warn("ride cache invalidation failed")
	}
}
