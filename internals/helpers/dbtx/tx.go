// file: internals/helpers/dbtx/tx.go
package dbtx

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// maxRetries bounds the invisible conflict-retry loop. Anything still
// failing after this surfaces to the caller as-is.
const maxRetries = 3

// WithTx runs fn inside a single transaction.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// WithRetry runs fn inside a transaction and retries it when the commit
// failed on a transient conflict (serialization failure, deadlock, or a
// unique-constraint race two requests lost). Business errors pass through
// untouched on the first attempt.
func WithRetry(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !IsConflict(err) {
			return err
		}
		log.Printf("[dbtx] tx conflict (attempt %d/%d): %v", attempt, maxRetries, err)
	}
	return err
}

// IsConflict reports whether err is a retryable storage-level conflict.
func IsConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", // unique_violation
			"40001", // serialization_failure
			"40P01": // deadlock_detected
			return true
		}
	}
	return false
}
