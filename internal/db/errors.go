package db

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/apperror"
)

// ErrUnavailable is returned once transient store failures outlast the retry budget.
var ErrUnavailable = apperror.New(http.StatusServiceUnavailable, "storage temporarily unavailable, please retry")

// IsTransient reports whether err is a store failure after which the failed
// statement or transaction is known to have left no state behind, so running
// it again is safe.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure,
			pgerrcode.DeadlockDetected,
			pgerrcode.CannotConnectNow,
			pgerrcode.TooManyConnections:
			return true
		}
		return pgerrcode.IsConnectionException(pgErr.Code)
	}

	// Nothing reached the server.
	return pgconn.SafeToRetry(err)
}

// IsUniqueViolation reports whether err violates the named unique constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	return hasCode(err, pgerrcode.UniqueViolation, constraint)
}

// IsExclusionViolation reports whether err violates the named exclusion constraint.
func IsExclusionViolation(err error, constraint string) bool {
	return hasCode(err, pgerrcode.ExclusionViolation, constraint)
}

func hasCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// Unavailable converts a transient error into ErrUnavailable and leaves other errors untouched.
func Unavailable(err error) error {
	if IsTransient(err) {
		return apperror.Wrap(err, ErrUnavailable.Code, ErrUnavailable.Message)
	}
	return err
}
