package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
	"rideshare/internal/repository/memory"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// FAKE CLOCK
// ──────────────────────────────────────────────

// FakeClock is a manually advanced clock shared by services under test.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock frozen at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository wraps the in-memory store with counters and error injection.
type MockUserRepository struct {
	store *memory.UserRepository

	// Counters for verification
	FindCallCount   int32
	InsertCallCount int32

	// Error injection
	FindError   error
	InsertError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{store: memory.NewUserRepository()}
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	atomic.AddInt32(&m.FindCallCount, 1)
	if m.FindError != nil {
		return nil, m.FindError
	}
	return m.store.FindByEmail(ctx, email)
}

func (m *MockUserRepository) Insert(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.InsertCallCount, 1)
	if m.InsertError != nil {
		return m.InsertError
	}
	return m.store.Insert(ctx, user)
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository wraps the in-memory store with counters and error injection.
type MockRideRepository struct {
	store *memory.RideRepository

	// Counters for verification
	CreateCallCount int32
	GetCallCount    int32
	UpdateCallCount int32
	DeleteCallCount int32
	PurgeCallCount  int32

	// Error injection
	CreateError error
	GetError    error
	ListError   error
	UpdateError error
	DeleteError error
	PurgeError  error

	// BlockUntilDone makes every call wait for its context to end and return ctx.Err().
	BlockUntilDone bool

	mu         sync.Mutex
	lastSince  time.Time
	lastPoster string
	lastCutoff time.Time
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{store: memory.NewRideRepository()}
}

// AddRide stores a ride directly, bypassing the dedupe check.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	_ = m.store.CreateIfNoActive(context.Background(), ride, "\x00"+ride.ID, ride.CreatedAt)
}

func (m *MockRideRepository) block(ctx context.Context) error {
	if !m.BlockUntilDone {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *MockRideRepository) CreateIfNoActive(ctx context.Context, ride *domain.Ride, posterKey string, activeSince time.Time) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	m.lastPoster = posterKey
	m.lastSince = activeSince
	m.mu.Unlock()

	if err := m.block(ctx); err != nil {
		return err
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	return m.store.CreateIfNoActive(ctx, ride, posterKey, activeSince)
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string, notBefore time.Time) (*domain.Ride, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if err := m.block(ctx); err != nil {
		return nil, err
	}
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.store.GetByID(ctx, id, notBefore)
}

func (m *MockRideRepository) List(ctx context.Context, notBefore time.Time) ([]*domain.Ride, error) {
	if err := m.block(ctx); err != nil {
		return nil, err
	}
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.store.List(ctx, notBefore)
}

func (m *MockRideRepository) Update(ctx context.Context, id string, draft domain.RideDraft, notBefore time.Time) (*domain.Ride, error) {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if err := m.block(ctx); err != nil {
		return nil, err
	}
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	return m.store.Update(ctx, id, draft, notBefore)
}

func (m *MockRideRepository) DeleteByPhone(ctx context.Context, phoneNo string, notBefore time.Time) ([]string, error) {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	if err := m.block(ctx); err != nil {
		return nil, err
	}
	if m.DeleteError != nil {
		return nil, m.DeleteError
	}
	return m.store.DeleteByPhone(ctx, phoneNo, notBefore)
}

func (m *MockRideRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	atomic.AddInt32(&m.PurgeCallCount, 1)
	m.mu.Lock()
	m.lastCutoff = cutoff
	m.mu.Unlock()

	if err := m.block(ctx); err != nil {
		return 0, err
	}
	if m.PurgeError != nil {
		return 0, m.PurgeError
	}
	return m.store.DeleteCreatedBefore(ctx, cutoff)
}

// LastCreateArgs returns the poster key and window start of the last create call.
func (m *MockRideRepository) LastCreateArgs() (string, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPoster, m.lastSince
}

// LastPurgeCutoff returns the cutoff of the last purge call.
func (m *MockRideRepository) LastPurgeCutoff() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCutoff
}

// CountRides returns the number of stored rides, expired or not.
func (m *MockRideRepository) CountRides() int {
	rides, _ := m.store.List(context.Background(), time.Time{})
	return len(rides)
}

// ──────────────────────────────────────────────
// MOCK RIDE CACHE
// ──────────────────────────────────────────────

// MockRideCache is an in-process RideCache that records TTLs.
type MockRideCache struct {
	mu    sync.Mutex
	rides map[string]domain.Ride
	ttls  map[string]time.Duration

	// Counters for verification
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32

	// Error injection
	GetError        error
	SetError        error
	InvalidateError error
}

// NewMockRideCache creates a new mock ride cache.
func NewMockRideCache() *MockRideCache {
	return &MockRideCache{
		rides: make(map[string]domain.Ride),
		ttls:  make(map[string]time.Duration),
	}
}

func (m *MockRideCache) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, nil
	}
	return &ride, nil
}

func (m *MockRideCache) SetRide(ctx context.Context, ride *domain.Ride, ttl time.Duration) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = *ride
	m.ttls[ride.ID] = ttl
	return nil
}

func (m *MockRideCache) InvalidateRides(ctx context.Context, rideIDs ...string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	if m.InvalidateError != nil {
		return m.InvalidateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range rideIDs {
		delete(m.rides, id)
		delete(m.ttls, id)
	}
	return nil
}

// Put seeds the cache directly.
func (m *MockRideCache) Put(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = *ride
}

// TTL returns the TTL the ride was cached with, and whether it is cached.
func (m *MockRideCache) TTL(rideID string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl, ok := m.ttls[rideID]
	return ttl, ok
}

// Has reports whether the ride is cached.
func (m *MockRideCache) Has(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rides[rideID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCKER
// ──────────────────────────────────────────────

// MockLocker is a Locker that never expires locks on its own.
type MockLocker struct {
	mu   sync.Mutex
	held map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLocker creates a new mock locker.
func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]bool)}
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *MockLocker) Release(ctx context.Context, key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// Hold marks key as held by another instance.
func (m *MockLocker) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[key] = true
}

// Ensure mocks implement interfaces.
var (
	_ repository.UserRepository = (*MockUserRepository)(nil)
	_ repository.RideRepository = (*MockRideRepository)(nil)
	_ service.RideCache         = (*MockRideCache)(nil)
	_ service.Locker            = (*MockLocker)(nil)
)
