package store

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a referenced device or ticket does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks malformed or missing request fields. Not retryable.
	ErrInvalidInput = errors.New("invalid input")
)

// StorageError reports a persistence failure. Callers may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transaction conflict that is worth
// running the whole transaction again for.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
		return myErr.Number == 1213 || myErr.Number == 1205
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	return false
}
