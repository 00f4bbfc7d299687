package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"rideshare/internal/repository"
)

const (
	uniqueViolation          pq.ErrorCode  = "23505"
	queryCanceled            pq.ErrorCode  = "57014"
	adminShutdown            pq.ErrorCode  = "57P01"
	cannotConnectNow         pq.ErrorCode  = "57P03"
	connectionExceptionClass pq.ErrorClass = "08"
)

// classifyError maps driver errors onto the repository error taxonomy.
// Errors it does not recognise are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == uniqueViolation:
			return fmt.Errorf("%w: %w", repository.ErrDuplicate, err)
		case pqErr.Code.Class() == connectionExceptionClass,
			pqErr.Code == queryCanceled,
			pqErr.Code == adminShutdown,
			pqErr.Code == cannotConnectNow:
			return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", repository.ErrUnavailable, err)
	}

	return err
}
