package tests

import (
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func defaultPolicy() service.RidePolicy {
	return service.RidePolicy{
		DedupeWindow: 15 * time.Minute,
		TTL:          900 * time.Second,
		DedupeKey:    domain.DedupeKeyEmail,
		CacheTTL:     30 * time.Second,
	}
}

func newDraft(email, phone string) domain.RideDraft {
	return domain.RideDraft{
		Host:        "A",
		Destination: "X",
		Pickup:      "Y",
		Time:        t0.Add(time.Hour),
		PhoneNo:     phone,
		Email:       email,
	}
}

func newRideService(repo *MockRideRepository, cache service.RideCache, clock *FakeClock, policy service.RidePolicy) *service.RideService {
	return service.NewRideService(repo, cache, policy, nil, service.WithClock(clock.Now))
}
