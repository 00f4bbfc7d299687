package memory

import (
	"context"
	"sync"
	"time"
)

// LockManager provides named locks with TTL-based expiry for single-instance
// deployments. Redis SETNX replaces it when Redis is configured.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewLockManager creates a LockManager and starts a goroutine that sweeps
// expired locks every interval. Call Stop to end it.
func NewLockManager(interval time.Duration) *LockManager {
	lm := &LockManager{
		locks: make(map[string]time.Time),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go lm.cleanupExpiredLocks(interval)
	return lm
}

// Acquire takes the named lock for ttl. Returns false if it is already held.
// An expired lock counts as free.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	now := lm.now()
	if expiresAt, held := lm.locks[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	lm.locks[key] = now.Add(ttl)
	return true, nil
}

// Release frees the named lock before its TTL expires.
func (lm *LockManager) Release(ctx context.Context, key string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	delete(lm.locks, key)
	return nil
}

func (lm *LockManager) cleanupExpiredLocks(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lm.mu.Lock()
			now := lm.now()
			for key, expiresAt := range lm.locks {
				if !now.Before(expiresAt) {
					delete(lm.locks, key)
				}
			}
			lm.mu.Unlock()
		case <-lm.stop:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (lm *LockManager) Stop() {
	lm.once.Do(func() { close(lm.stop) })
}
