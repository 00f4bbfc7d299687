package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"rideshare/internal/config"
)

// NewDatabase opens a PostgreSQL pool and waits up to connectWait for the
// server to answer a ping. If nrApp is set, queries go through the New Relic
// instrumented driver.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, connectWait time.Duration, nrApp *newrelic.Application, log *logrus.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	driver := "postgres"
	if nrApp != nil {
		driver = "nrpostgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with %s: %w", driver, err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := pingWithRetry(ctx, db, connectWait, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// pingWithRetry backs off exponentially from 250ms, capped at 5s per attempt,
// until the database answers or maxWait elapses.
func pingWithRetry(ctx context.Context, db *sql.DB, maxWait time.Duration, log *logrus.Logger) error {
	backoff := retry.NewExponential(250 * time.Millisecond)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithMaxDuration(maxWait, backoff)

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			if log != nil {
				log.WithError(err).WithField("attempt", attempt).Warn("database not ready")
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}
