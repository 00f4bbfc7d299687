package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRide is returned when a ride draft is missing required fields.
var ErrInvalidRide = errors.New("invalid ride")

// TimePrecision is the finest resolution the stores keep for timestamps.
const TimePrecision = time.Microsecond

// DedupeKey selects which field of a new ride is compared against the email
// of stored rides when enforcing one active ride per poster.
type DedupeKey string

const (
	// DedupeKeyEmail compares the new ride's email.
	DedupeKeyEmail DedupeKey = "email"
	// DedupeKeyLegacyPhone compares the new ride's phone number, matching the
	// behavior of the first release.
	DedupeKeyLegacyPhone DedupeKey = "legacy_phone"
)

// Valid reports whether k is a known dedupe mode.
func (k DedupeKey) Valid() bool {
	return k == DedupeKeyEmail || k == DedupeKeyLegacyPhone
}

// PosterKey returns the value of d that is matched against stored emails.
func (k DedupeKey) PosterKey(d RideDraft) string {
	if k == DedupeKeyLegacyPhone {
		return d.PhoneNo
	}
	return d.Email
}

// RideDraft holds the client-supplied fields of a ride posting.
type RideDraft struct {
	Host        string
	Destination string
	Pickup      string
	Time        time.Time // scheduled departure
	PhoneNo     string
	Email       string
}

// Validate checks that every field of the draft is present.
func (d RideDraft) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"host", d.Host},
		{"destination", d.Destination},
		{"pickup", d.Pickup},
		{"phone_no", d.PhoneNo},
		{"email", d.Email},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidRide, f.name)
		}
	}
	if d.Time.IsZero() {
		return fmt.Errorf("%w: time is required", ErrInvalidRide)
	}
	return nil
}

// Normalize returns the draft with Time in UTC at TimePrecision, the form it
// reads back from any store.
func (d RideDraft) Normalize() RideDraft {
	d.Time = d.Time.UTC().Truncate(TimePrecision)
	return d
}

// Ride represents a stored ride posting.
// ID and CreatedAt are assigned by the ride registry and never by clients.
type Ride struct {
	ID          string
	Host        string
	Destination string
	Pickup      string
	Time        time.Time
	CreatedAt   time.Time
	PhoneNo     string
	Email       string
}

// NewRide builds a ride from a draft with registry-assigned identity.
func NewRide(id string, d RideDraft, createdAt time.Time) *Ride {
	r := &Ride{ID: id, CreatedAt: createdAt}
	r.Apply(d)
	return r
}

// Apply replaces every client-supplied field, leaving ID and CreatedAt untouched.
func (r *Ride) Apply(d RideDraft) {
	r.Host = d.Host
	r.Destination = d.Destination
	r.Pickup = d.Pickup
	r.Time = d.Time
	r.PhoneNo = d.PhoneNo
	r.Email = d.Email
}

// ExpiresAt returns the instant the ride stops being visible for the given TTL.
func (r *Ride) ExpiresAt(ttl time.Duration) time.Time {
	return r.CreatedAt.Add(ttl)
}
