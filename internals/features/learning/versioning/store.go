// file: internals/features/learning/versioning/store.go
package versioning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"akademiku_backend/internals/features/learning/errs"
)

/* =========================================================
   Generic version store
   One Store per content kind; Cols carries that kind's
   prefixed column names so the queries stay table-agnostic.
========================================================= */

type Cols struct {
	Table         string
	ID            string
	ResourceID    string
	VersionNumber string
	Status        string
	IsCurrent     string
	PublishedAt   string
}

type Store[T any] struct {
	DB   *gorm.DB
	Cols Cols
}

func NewStore[T any](db *gorm.DB, cols Cols) *Store[T] {
	return &Store[T]{DB: db, Cols: cols}
}

func (s *Store[T]) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.DB
}

// GetCurrent returns the one is_current row for resourceID, or NotFound
// when the resource was never published.
func (s *Store[T]) GetCurrent(ctx context.Context, resourceID uuid.UUID) (*T, error) {
	var out T
	err := s.DB.WithContext(ctx).Table(s.Cols.Table).
		Where(s.Cols.ResourceID+" = ? AND "+s.Cols.IsCurrent+" = ?", resourceID, true).
		First(&out).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("no published version for this resource")
		}
		return nil, err
	}
	return &out, nil
}

// GetVersion is the exact (resource_id, version_number) lookup. Used for
// display of pinned versions, never for scoring — scoring reads snapshots.
func (s *Store[T]) GetVersion(ctx context.Context, resourceID uuid.UUID, version int) (*T, error) {
	var out T
	err := s.DB.WithContext(ctx).Table(s.Cols.Table).
		Where(s.Cols.ResourceID+" = ? AND "+s.Cols.VersionNumber+" = ?", resourceID, version).
		First(&out).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("version not found for this resource")
		}
		return nil, err
	}
	return &out, nil
}

// ListVersions returns the full history, newest first.
func (s *Store[T]) ListVersions(ctx context.Context, resourceID uuid.UUID) ([]T, error) {
	var out []T
	err := s.DB.WithContext(ctx).Table(s.Cols.Table).
		Where(s.Cols.ResourceID+" = ?", resourceID).
		Order(s.Cols.VersionNumber + " DESC").
		Find(&out).Error
	return out, err
}

// NextVersionNumber computes max(version_number)+1 for resourceID inside tx.
func (s *Store[T]) NextVersionNumber(tx *gorm.DB, resourceID uuid.UUID) (int, error) {
	var maxVersion int
	err := s.conn(tx).Table(s.Cols.Table).
		Select("COALESCE(MAX("+s.Cols.VersionNumber+"), 0)").
		Where(s.Cols.ResourceID+" = ?", resourceID).
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

// HasOpenDraft reports whether a draft row exists for resourceID. The DB
// also enforces this via a partial unique index; this check just gives a
// clean business error before the constraint fires.
func (s *Store[T]) HasOpenDraft(tx *gorm.DB, resourceID uuid.UUID) (bool, error) {
	var n int64
	err := s.conn(tx).Table(s.Cols.Table).
		Where(s.Cols.ResourceID+" = ? AND "+s.Cols.Status+" = ?", resourceID, StatusDraft).
		Count(&n).Error
	return n > 0, err
}

// Publish flips the previous current version off and marks rowID as the new
// published current, in the caller's transaction. The partial unique index
// on (resource_id) WHERE is_current backstops concurrent publishes.
func (s *Store[T]) Publish(tx *gorm.DB, resourceID, rowID uuid.UUID, now time.Time) error {
	if err := tx.Table(s.Cols.Table).
		Where(s.Cols.ResourceID+" = ? AND "+s.Cols.IsCurrent+" = ?", resourceID, true).
		Update(s.Cols.IsCurrent, false).Error; err != nil {
		return err
	}
	return tx.Table(s.Cols.Table).
		Where(s.Cols.ID+" = ?", rowID).
		Updates(map[string]any{
			s.Cols.Status:      StatusPublished,
			s.Cols.IsCurrent:   true,
			s.Cols.PublishedAt: now,
		}).Error
}

// CurrentCount is used by invariant checks in tests and health tooling.
func (s *Store[T]) CurrentCount(ctx context.Context, resourceID uuid.UUID) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Table(s.Cols.Table).
		Where(s.Cols.ResourceID+" = ? AND "+s.Cols.IsCurrent+" = ?", resourceID, true).
		Count(&n).Error
	return n, err
}
