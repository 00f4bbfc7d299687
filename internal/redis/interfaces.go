package redis

import "rideshare/internal/service"

// Ensure concrete types implement interfaces.
var (
	_ service.RideCache = (*CacheStore)(nil)
	_ service.Locker    = (*LockStore)(nil)
)
