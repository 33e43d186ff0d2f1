// Package storage persists the cleaning ledger: which corpus files were cleaned, when, and into what.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/multisense/internal/models"
)

// ErrRecordNotFound is returned when no ledger record exists for a source path.
var ErrRecordNotFound = errors.New("ledger record not found")

// Ledger records cleaning runs keyed by source path.
type Ledger interface {
	// Put inserts or replaces the record for r.SourcePath.
	Put(ctx context.Context, r *models.CleanRecord) error
	Get(ctx context.Context, sourcePath string) (*models.CleanRecord, error)
	Delete(ctx context.Context, sourcePath string) error
	// List returns records ordered by source path.
	List(ctx context.Context, offset, limit int) ([]*models.CleanRecord, error)
	Count(ctx context.Context) (int64, error)

	Close() error
}
