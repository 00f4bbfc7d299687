package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

const rideColumns = `id, host, destination, pickup, ride_time, created_at, phone_no, email`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	db *sql.DB
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

// CreateIfNoActive inserts the ride unless the poster already has an active one.
//
// A transaction-scoped advisory lock keyed on the poster serialises concurrent
// creates for the same identity; the NOT EXISTS guard then makes the check and
// the insert a single statement.
func (r *RideRepository) CreateIfNoActive(ctx context.Context, ride *domain.Ride, posterKey string, activeSince time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, posterKey); err != nil {
			return classifyError(err)
		}

		query := `
			INSERT INTO rides (` + rideColumns + `)
			SELECT $1::uuid, $2::text, $3::text, $4::text, $5::timestamptz, $6::timestamptz, $7::text, $8::text
			WHERE NOT EXISTS (
				SELECT 1 FROM rides WHERE email = $9 AND created_at > $10
			)
		`
		result, err := tx.ExecContext(ctx, query,
			ride.ID,
			ride.Host,
			ride.Destination,
			ride.Pickup,
			ride.Time,
			ride.CreatedAt,
			ride.PhoneNo,
			ride.Email,
			posterKey,
			activeSince,
		)
		if err != nil {
			return classifyError(err)
		}

		inserted, err := result.RowsAffected()
		if err != nil {
			return classifyError(err)
		}
		if inserted == 0 {
			return repository.ErrDuplicate
		}
		return nil
	})
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string, notBefore time.Time) (*domain.Ride, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 AND created_at >= $2`

	ride, err := scanRide(r.db.QueryRowContext(ctx, query, id, notBefore))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return ride, nil
}

// List retrieves all visible rides, newest first.
func (r *RideRepository) List(ctx context.Context, notBefore time.Time) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE created_at >= $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, notBefore)
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	rides := make([]*domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, classifyError(err)
		}
		rides = append(rides, ride)
	}
	return rides, classifyError(rows.Err())
}

// Update replaces the client-supplied fields of a ride. id and created_at are never written.
func (r *RideRepository) Update(ctx context.Context, id string, draft domain.RideDraft, notBefore time.Time) (*domain.Ride, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	query := `
		UPDATE rides
		SET host = $1, destination = $2, pickup = $3, ride_time = $4, phone_no = $5, email = $6
		WHERE id = $7 AND created_at >= $8
		RETURNING ` + rideColumns

	ride, err := scanRide(r.db.QueryRowContext(ctx, query,
		draft.Host,
		draft.Destination,
		draft.Pickup,
		draft.Time,
		draft.PhoneNo,
		draft.Email,
		id,
		notBefore,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classifyError(err)
	}
	return ride, nil
}

// DeleteByPhone deletes every visible ride with the given phone number.
func (r *RideRepository) DeleteByPhone(ctx context.Context, phoneNo string, notBefore time.Time) ([]string, error) {
	query := `DELETE FROM rides WHERE phone_no = $1 AND created_at >= $2 RETURNING id`

	rows, err := r.db.QueryContext(ctx, query, phoneNo, notBefore)
	if err != nil {
		return nil, classifyError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classifyError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err)
	}

	if len(ids) == 0 {
		return nil, repository.ErrNotFound
	}
	return ids, nil
}

// DeleteCreatedBefore purges expired rides.
func (r *RideRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rides WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, classifyError(err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, classifyError(err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	err := row.Scan(
		&ride.ID,
		&ride.Host,
		&ride.Destination,
		&ride.Pickup,
		&ride.Time,
		&ride.CreatedAt,
		&ride.PhoneNo,
		&ride.Email,
	)
	if err != nil {
		return nil, err
	}
	return &ride, nil
}
