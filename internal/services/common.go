package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ourgarden/backend/internal/config"
	"github.com/ourgarden/backend/pkg/garden"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock at microsecond precision, which is what
// postgres timestamps keep.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// next returns the clock reading, moved past prev when the clock has not
// advanced, so every update strictly increases updatedAt.
func (c Clock) next(prev time.Time) time.Time {
	now := c().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// dbError translates a persistence error into the garden taxonomy. Errors
// already in the taxonomy pass through unchanged.
func dbError(what string, err error) error {
	if err == nil || inTaxonomy(err) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, garden.ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", garden.ErrTransientIO, what, err)
}

func inTaxonomy(err error) bool {
	for _, target := range []error{
		garden.ErrValidation, garden.ErrNotFound, garden.ErrUpload,
		garden.ErrAuthRequired, garden.ErrForbidden, garden.ErrTransientIO,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// slugTaken reports whether another row of model already uses slug.
func slugTaken(tx *gorm.DB, model any, slug, exceptID string) (bool, error) {
	var count int64
	q := tx.Model(model).Where("slug = ?", slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// forUpdate locks the selected rows on databases that support it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// likePattern builds a case-insensitive LIKE operand. Wildcards in needle are
// left alone: the SQL match is a superset that callers narrow down exactly.
func likePattern(needle string) string {
	return "%" + strings.ToLower(needle) + "%"
}

// Upload and UploadLimits are shared with the client-side repositories.
type (
	Upload       = garden.Upload
	UploadLimits = garden.UploadLimits
)

// DefaultUploadLimits are used when configuration leaves a limit unset.
var DefaultUploadLimits = garden.DefaultUploadLimits

// LimitsFromConfig reads the upload limits, keeping the default for any value
// that is not positive.
func LimitsFromConfig(cfg *config.Config) UploadLimits {
	l := DefaultUploadLimits
	if cfg.UploadMaxFiles > 0 {
		l.MaxFiles = cfg.UploadMaxFiles
	}
	if cfg.UploadMaxImageSize > 0 {
		l.MaxFileSize = cfg.UploadMaxImageSize
	}
	if cfg.MaxImagesPerMemory > 0 {
		l.MaxPerEntity = cfg.MaxImagesPerMemory
	}
	return l
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// findByID loads one row of M or returns ErrNotFound.
func findByID[M any](ctx context.Context, db *gorm.DB, what, id string) (*M, error) {
	var row M
	if err := db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, dbError(what, err)
	}
	return &row, nil
}

// deleteByID removes one row of M or returns ErrNotFound.
func deleteByID[M any](ctx context.Context, db *gorm.DB, what, id string) error {
	var row M
	res := db.WithContext(ctx).Delete(&row, "id = ?", id)
	if res.Error != nil {
		return dbError(what, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %w", what, garden.ErrNotFound)
	}
	return nil
}

// searchFilter narrows rows by a case-insensitive LIKE over columns.
func searchFilter(q *gorm.DB, needle *string, columns ...string) *gorm.DB {
	if needle == nil || *needle == "" || len(columns) == 0 {
		return q
	}
	p := likePattern(*needle)
	expr := ""
	args := make([]any, 0, len(columns))
	for i, c := range columns {
		if i > 0 {
			expr += " OR "
		}
		expr += "LOWER(" + c + ") LIKE ?"
		args = append(args, p)
	}
	return q.Where(expr, args...)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
