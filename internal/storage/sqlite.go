package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/multisense/internal/models"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cleaned_files (
		id TEXT NOT NULL,
		source_path TEXT PRIMARY KEY,
		output_path TEXT NOT NULL,
		source_size INTEGER NOT NULL,
		source_mod_time INTEGER NOT NULL,
		lines INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		cleaned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_cleaned_files_status ON cleaned_files(status);
	`
	_, err := db.Exec(schema)
	return err
}

// Put inserts or replaces the record for r.SourcePath. A zero CleanedAt is set to now.
func (s *SQLiteLedger) Put(ctx context.Context, r *models.CleanRecord) error {
	if r.CleanedAt.IsZero() {
		r.CleanedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cleaned_files (id, source_path, output_path, source_size, source_mod_time, lines, status, error, cleaned_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
		   id = excluded.id,
		   output_path = excluded.output_path,
		   source_size = excluded.source_size,
		   source_mod_time = excluded.source_mod_time,
		   lines = excluded.lines,
		   status = excluded.status,
		   error = excluded.error,
		   cleaned_at = excluded.cleaned_at`,
		r.ID, r.SourcePath, r.OutputPath, r.SourceSize, r.SourceModTime.UnixNano(),
		r.Lines, r.Status, r.Error, r.CleanedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store record for %s: %w", r.SourcePath, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.CleanRecord, error) {
	var r models.CleanRecord
	var modTime int64
	if err := row.Scan(&r.ID, &r.SourcePath, &r.OutputPath, &r.SourceSize, &modTime,
		&r.Lines, &r.Status, &r.Error, &r.CleanedAt); err != nil {
		return nil, err
	}
	r.SourceModTime = time.Unix(0, modTime)
	return &r, nil
}

const recordColumns = `id, source_path, output_path, source_size, source_mod_time, lines, status, error, cleaned_at`

// Get returns the record for sourcePath, or ErrRecordNotFound.
func (s *SQLiteLedger) Get(ctx context.Context, sourcePath string) (*models.CleanRecord, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM cleaned_files WHERE source_path = ?`, sourcePath))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, sourcePath)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes the record for sourcePath. Deleting a missing record is not an error.
func (s *SQLiteLedger) Delete(ctx context.Context, sourcePath string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cleaned_files WHERE source_path = ?`, sourcePath)
	return err
}

// List returns records ordered by source path.
func (s *SQLiteLedger) List(ctx context.Context, offset, limit int) ([]*models.CleanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM cleaned_files ORDER BY source_path LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.CleanRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of records.
func (s *SQLiteLedger) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cleaned_files`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
