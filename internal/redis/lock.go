package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore hands out expiring named locks shared across instances. Each
// store has its own owner token, so an instance whose lock already expired
// cannot release a lock another instance has since taken.
type LockStore struct {
	client *redis.Client
	owner  string
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client, owner: uuid.NewString()}
}

// Acquire attempts to take the named lock for ttl.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, s.owner, ttl).Result()
}

// Release drops the named lock if this store still holds it.
func (s *LockStore) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, s.client, []string{key}, s.owner).Err()
}
