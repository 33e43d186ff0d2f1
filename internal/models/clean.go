package models

import "time"

// Clean record statuses.
const (
	CleanStatusOK     = "ok"
	CleanStatusFailed = "failed"
)

// CleanRecord is the ledger entry for one cleaned corpus file.
type CleanRecord struct {
	ID            string    `json:"id" db:"id"`
	SourcePath    string    `json:"source_path" db:"source_path"`
	OutputPath    string    `json:"output_path" db:"output_path"`
	SourceSize    int64     `json:"source_size" db:"source_size"`
	SourceModTime time.Time `json:"source_mod_time" db:"source_mod_time"`
	Lines         int64     `json:"lines" db:"lines"`
	Status        string    `json:"status" db:"status"`
	Error         string    `json:"error,omitempty" db:"error"`
	CleanedAt     time.Time `json:"cleaned_at" db:"cleaned_at"`
}

// Unchanged reports whether r was a successful clean of a source with the given size and mtime.
func (r *CleanRecord) Unchanged(size int64, modTime time.Time) bool {
	return r != nil && r.Status == CleanStatusOK && r.SourceSize == size && r.SourceModTime.Equal(modTime)
}
