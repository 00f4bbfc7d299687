package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"rideshare/internal/repository"
)

const reaperLockKey = "lock:reaper"

// Locker hands out named, expiring locks shared by every instance.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ExpiryReaper purges rides older than the TTL.
type ExpiryReaper struct {
	rideRepo  repository.RideRepository
	locker    Locker
	ttl       time.Duration
	lockTTL   time.Duration
	opTimeout time.Duration
	log       *logrus.Logger
	now       func() time.Time
}

// NewExpiryReaper creates a new ExpiryReaper. locker may be nil for a single
// instance; lockTTL should cover one sweep. opTimeout bounds the purge itself.
func NewExpiryReaper(rideRepo repository.RideRepository, locker Locker, ttl, lockTTL, opTimeout time.Duration, log *logrus.Logger, opts ...Option) *ExpiryReaper {
	o := buildOptions(opts)
	return &ExpiryReaper{
		rideRepo:  rideRepo,
		locker:    locker,
		ttl:       ttl,
		lockTTL:   lockTTL,
		opTimeout: opTimeout,
		log:       orDiscard(log),
		now:       o.now,
	}
}

// Sweep deletes every ride created more than the TTL ago and returns the
// number removed. It returns 0, nil when another instance holds the lock.
func (r *ExpiryReaper) Sweep(ctx context.Context) (int64, error) {
	if r.locker != nil {
		acquired, err := r.locker.Acquire(ctx, reaperLockKey, r.lockTTL)
		if err != nil {
			return 0, fmt.Errorf("failed to acquire reaper lock: %w", err)
		}
		if !acquired {
			r.log.Debug("reaper lock held elsewhere, skipping sweep")
			return 0, nil
		}
		defer func() {
			if err := r.locker.Release(context.WithoutCancel(ctx), reaperLockKey); err != nil {
				r.log.WithError(err).Warn("failed to release reaper lock")
			}
		}()
	}

	cutoff := r.now().Add(-r.ttl)

	purgeCtx, cancel := withOpTimeout(ctx, r.opTimeout)
	defer cancel()

	deleted, err := r.rideRepo.DeleteCreatedBefore(purgeCtx, cutoff)
	if err != nil {
		return 0, storeError(err)
	}

	if deleted > 0 {
		r.log.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("expired rides purged")
	}
	return deleted, nil
}
