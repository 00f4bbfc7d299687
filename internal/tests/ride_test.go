package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// 1. READS AND EXPIRY
// ──────────────────────────────────────────────

func TestGetRide_ReturnsExistingRide(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	rideService := newRideService(repo, nil, NewFakeClock(t0), defaultPolicy())

	created, err := rideService.CreateRide(context.Background(), newDraft("a@x.com", "555"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := rideService.GetRide(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.ID != created.ID || got.Email != "a@x.com" {
		t.Errorf("unexpected ride: %+v", got)
	}
}

func TestGetRide_ReturnsErrorForEmptyID(t *testing.T) {
	t.Parallel()

	rideService := newRideService(NewMockRideRepository(), nil, NewFakeClock(t0), defaultPolicy())

	_, err := rideService.GetRide(context.Background(), "  ")
	if !errors.Is(err, service.ErrInvalidRideID) {
		t.Fatalf("expected ErrInvalidRideID, got: %v", err)
	}
}

func TestGetRide_ReturnsNotFoundForNonexistentRide(t *testing.T) {
	t.Parallel()

	rideService := newRideService(NewMockRideRepository(), nil, NewFakeClock(t0), defaultPolicy())

	_, err := rideService.GetRide(context.Background(), "nonexistent")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRideExpiry_VisibleAt899sGoneAt901s(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	clock := NewFakeClock(t0)
	rideService := newRideService(repo, nil, clock, defaultPolicy())

	ride, err := rideService.CreateRide(context.Background(), newDraft("a@x.com", "555"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Set(t0.Add(899 * time.Second))
	if _, err := rideService.GetRide(context.Background(), ride.ID); err != nil {
		t.Errorf("expected ride visible at +899s, got: %v", err)
	}
	rides, err := rideService.ListRides(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rides) != 1 {
		t.Errorf("expected 1 listed ride at +899s, got %d", len(rides))
	}

	clock.Set(t0.Add(901 * time.Second))
	if _, err := rideService.GetRide(context.Background(), ride.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound at +901s, got: %v", err)
	}
	rides, err = rideService.ListRides(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rides) != 0 {
		t.Errorf("expected no listed rides at +901s, got %d", len(rides))
	}

	// Filtering hides the ride before any purge runs.
	if repo.CountRides() != 1 {
		t.Errorf("expected ride still stored until reaped, got %d", repo.CountRides())
	}
}

func TestListRides_EmptyStoreReturnsEmptySlice(t *testing.T) {
	t.Parallel()

	rideService := newRideService(NewMockRideRepository(), nil, NewFakeClock(t0), defaultPolicy())

	rides, err := rideService.ListRides(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if rides == nil || len(rides) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", rides)
	}
}

func TestGetRide_StoreUnavailable_NotReportedAsNotFound(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		setup func(repo *MockRideRepository, policy *service.RidePolicy)
	}{
		{
			name: "store reports unavailable",
			setup: func(repo *MockRideRepository, _ *service.RidePolicy) {
				repo.GetError = fmt.Errorf("%w: connection reset", repository.ErrUnavailable)
			},
		},
		{
			name: "store call times out",
			setup: func(repo *MockRideRepository, policy *service.RidePolicy) {
				repo.BlockUntilDone = true
				policy.OpTimeout = 20 * time.Millisecond
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := NewMockRideRepository()
			policy := defaultPolicy()
			tc.setup(repo, &policy)
			rideService := newRideService(repo, nil, NewFakeClock(t0), policy)

			_, err := rideService.GetRide(context.Background(), "ride-1")
			if !errors.Is(err, service.ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got: %v", err)
			}
			if errors.Is(err, repository.ErrNotFound) {
				t.Fatal("unavailable store must not be reported as not found")
			}
		})
	}
}

// ──────────────────────────────────────────────
// 2. READ CACHE
// ──────────────────────────────────────────────

func TestGetRide_CacheTTLBoundedByRideExpiry(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	cache := NewMockRideCache()
	clock := NewFakeClock(t0)
	rideService := newRideService(repo, cache, clock, defaultPolicy())

	ride, err := rideService.CreateRide(context.Background(), newDraft("a@x.com", "555"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Set(t0.Add(890 * time.Second))
	if _, err := rideService.GetRide(context.Background(), ride.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	ttl, ok := cache.TTL(ride.ID)
	if !ok {
		t.Fatal("expected ride to be cached")
	}
	if ttl != 10*time.Second {
		t.Errorf("expected cache ttl 10s, got %v", ttl)
	}
}

func TestGetRide_CacheHitSkipsStore(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	cache := NewMockRideCache()
	rideService := newRideService(repo, cache, NewFakeClock(t0), defaultPolicy())

	cached := domain.NewRide("ride-1", newDraft("a@x.com", "555"), t0)
	cache.Put(cached)

	got, err := rideService.GetRide(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got.ID != "ride-1" {
		t.Errorf("unexpected ride: %+v", got)
	}
	if repo.GetCallCount != 0 {
		t.Errorf("expected store not to be called, got %d", repo.GetCallCount)
	}
}

func TestGetRide_IgnoresExpiredCacheEntry(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	cache := NewMockRideCache()
	rideService := newRideService(repo, cache, NewFakeClock(t0.Add(1000*time.Second)), defaultPolicy())

	cache.Put(domain.NewRide("ride-1", newDraft("a@x.com", "555"), t0))

	_, err := rideService.GetRide(context.Background(), "ride-1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestGetRide_CacheErrorFallsBackToStore(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	cache := NewMockRideCache()
	cache.GetError = errors.New("redis down")
	cache.SetError = errors.New("redis down")
	rideService := newRideService(repo, cache, NewFakeClock(t0), defaultPolicy())

	ride, err := rideService.CreateRide(context.Background(), newDraft("a@x.com", "555"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := rideService.GetRide(context.Background(), ride.ID); err != nil {
		t.Fatalf("expected store read to succeed, got: %v", err)
	}
	if repo.GetCallCount != 1 {
		t.Errorf("expected 1 store call, got %d", repo.GetCallCount)
	}
}

// ──────────────────────────────────────────────
// 3. UPDATE
// ──────────────────────────────────────────────

func TestRideUpdate_ReplacesFieldsAndKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	cache := NewMockRideCache()
	clock := NewFakeClock(t0)
	rideService := newRideService(repo, cache, clock, defaultPolicy())

	ride, err := rideService.CreateRide(context.Background(), newDraft("a@x.com", "555"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := rideService.GetRide(context.Background(), ride.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !cache.Has(ride.ID) {
		t.Fatal("expected ride to be cached after read")
	}

	clock.Set(t0.Add(10 * time.Minute))
	update := newDraft("a@x.com", "555")
	update.Destination = "Z"
	update.Host = "B"

	updated, err := rideService.UpdateRide(context.Background(), ride.ID, update)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != ride.ID {
		t.Errorf("expected ID %s, got %s", ride.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(t0) {
		t.Errorf("expected created_at to stay %v, got %v", t0, updated.CreatedAt)
	}
	if updated.Destination != "Z" || updated.Host != "B" {
		t.Errorf("expected fields replaced, got %+v", updated)
	}
	if cache.Has(ride.ID) {
		t.Error("expected cache entry to be invalidated")
	}

	// Expiry is still measured from the original creation.
	clock.Set(t0.Add(901 * time.Second))
	if _, err := rideService.GetRide(context.Background(), ride.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound at +901s after update, got: %v", err)
	}
}

func TestRideTimes_ReturnedAsStored(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	clock := NewFakeClock(t0.Add(123456789 * time.Nanosecond))
	rideService := newRideService(repo, nil, clock, defaultPolicy())

	draft := newDraft("a@x.com", "555")
	draft.Time = time.Date(2026, 10, 18, 12, 30, 0, 999999999, time.FixedZone("UTC+2", 2*60*60))
	wantTime := time.Date(2026, 10, 18, 10, 30, 0, 999999000, time.UTC)

	created, err := rideService.CreateRide(context.Background(), draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Time.Equal(wantTime) || created.Time.Location() != time.UTC {
		t.Errorf("expected time %v, got %v", wantTime, created.Time)
	}
	if created.CreatedAt.Nanosecond()%1000 != 0 {
		t.Errorf("expected created_at at microsecond precision, got %v", created.CreatedAt)
	}

	got, err := rideService.GetRide(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Time.Equal(created.Time) || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("expected stored times %v/%v, got %v/%v", created.Time, created.CreatedAt, got.Time, got.CreatedAt)
	}

	update := newDraft("a@x.com", "555")
	update.Time = wantTime.Add(time.Hour + 500*time.Nanosecond)
	updated, err := rideService.UpdateRide(context.Background(), created.ID, update)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Time.Equal(wantTime.Add(time.Hour)) {
		t.Errorf("expected updated time truncated to %v, got %v", wantTime.Add(time.Hour), updated.Time)
	}
}

func TestRideUpdate_DoesNotRecheckDedupe(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	rideService := newRideService(repo, nil, NewFakeClock(t0), defaultPolicy())

	first, _ := rideService.CreateRide(context.Background(), newDraft("a@x.com", "555"))
	if _, err := rideService.CreateRide(context.Background(), newDraft("b@x.com", "777")); err != nil {
		t.Fatalf("create b: %v", err)
	}

	// Moving a's ride onto b's email is allowed.
	if _, err := rideService.UpdateRide(context.Background(), first.ID, newDraft("b@x.com", "555")); err != nil {
		t.Fatalf("expected update to succeed, got: %v", err)
	}
	if repo.CreateCallCount != 2 {
		t.Errorf("expected no extra create calls, got %d", repo.CreateCallCount)
	}
}

func TestRideUpdate_Errors(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(t0)
	repo := NewMockRideRepository()
	rideService := newRideService(repo, nil, clock, defaultPolicy())
	ride, _ := rideService.CreateRide(context.Background(), newDraft("a@x.com", "555"))

	invalid := newDraft("a@x.com", "555")
	invalid.Pickup = ""

	testCases := []struct {
		name    string
		id      string
		draft   domain.RideDraft
		wantErr error
	}{
		{name: "empty id", id: "", draft: newDraft("a@x.com", "555"), wantErr: service.ErrInvalidRideID},
		{name: "invalid draft", id: ride.ID, draft: invalid, wantErr: domain.ErrInvalidRide},
		{name: "unknown id", id: "missing", draft: newDraft("a@x.com", "555"), wantErr: repository.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rideService.UpdateRide(context.Background(), tc.id, tc.draft)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got: %v", tc.wantErr, err)
			}
		})
	}

	clock.Set(t0.Add(901 * time.Second))
	if _, err := rideService.UpdateRide(context.Background(), ride.ID, newDraft("a@x.com", "555")); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected expired ride to be not found, got: %v", err)
	}
}

// ──────────────────────────────────────────────
// 4. DELETE BY PHONE
// ──────────────────────────────────────────────

func TestDeleteRidesByPhone_RemovesExactlyMatchingRides(t *testing.T) {
	t.Parallel()

	repo := NewMockRideRepository()
	cache := NewMockRideCache()
	rideService := newRideService(repo, cache, NewFakeClock(t0), defaultPolicy())
	ctx := context.Background()

	a, _ := rideService.CreateRide(ctx, newDraft("a@x.com", "555"))
	b, _ := rideService.CreateRide(ctx, newDraft("b@x.com", "555"))
	c, _ := rideService.CreateRide(ctx, newDraft("c@x.com", "777"))
	for _, id := range []string{a.ID, b.ID, c.ID} {
		if _, err := rideService.GetRide(ctx, id); err != nil {
			t.Fatalf("warm cache for %s: %v", id, err)
		}
	}

	deleted, err := rideService.DeleteRidesByPhone(ctx, "555")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	rides, _ := rideService.ListRides(ctx)
	if len(rides) != 1 || rides[0].ID != c.ID {
		t.Errorf("expected only the 777 ride to remain, got %+v", rides)
	}
	if cache.Has(a.ID) || cache.Has(b.ID) {
		t.Error("expected deleted rides to be evicted from cache")
	}
	if !cache.Has(c.ID) {
		t.Error("expected unrelated ride to stay cached")
	}
}

func TestDeleteRidesByPhone_NoMatch_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	rideService := newRideService(NewMockRideRepository(), nil, NewFakeClock(t0), defaultPolicy())

	_, err := rideService.DeleteRidesByPhone(context.Background(), "999")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestDeleteRidesByPhone_IgnoresExpiredRides(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(t0)
	rideService := newRideService(NewMockRideRepository(), nil, clock, defaultPolicy())

	if _, err := rideService.CreateRide(context.Background(), newDraft("a@x.com", "555")); err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Set(t0.Add(901 * time.Second))
	_, err := rideService.DeleteRidesByPhone(context.Background(), "555")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired ride, got: %v", err)
	}
}

func TestDeleteRidesByPhone_EmptyPhone(t *testing.T) {
	t.Parallel()

	rideService := newRideService(NewMockRideRepository(), nil, NewFakeClock(t0), defaultPolicy())

	_, err := rideService.DeleteRidesByPhone(context.Background(), "")
	if !errors.Is(err, service.ErrInvalidPhoneNo) {
		t.Fatalf("expected ErrInvalidPhoneNo, got: %v", err)
	}
}
