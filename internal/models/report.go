package models

import (
	"time"
)

// ImportSource identifies where an import batch came from
type ImportSource string

const (
	ImportSourceUpload  ImportSource = "upload"
	ImportSourceWatcher ImportSource = "watcher"
	ImportSourceSeed    ImportSource = "seed"
	ImportSourceCLI     ImportSource = "cli"
)

// ImportReport is the outcome of one import batch
type ImportReport struct {
	Source      ImportSource `json:"source"`
	Total       int          `json:"total_records"`
	Processed   int          `json:"processed"`
	Created     int          `json:"created"`
	Updated     int          `json:"updated"`
	Skipped     int          `json:"skipped"`
	Failed      int          `json:"failed"`
	DurationMs  int64        `json:"duration_ms"`
	RowsPerSec  float64      `json:"rows_per_sec,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Errors      []RowError   `json:"errors,omitempty"`
	ErrorCount  int          `json:"error_count,omitempty"`
}

// Finish stamps the completion time and throughput
func (r *ImportReport) Finish(now time.Time) {
	r.CompletedAt = now
	r.DurationMs = now.Sub(r.StartedAt).Milliseconds()
	if r.DurationMs > 0 {
		r.RowsPerSec = float64(r.Processed) / (float64(r.DurationMs) / 1000)
	}
	r.ErrorCount = len(r.Errors)
}

// RowError represents a single row diagnostic
type RowError struct {
	Line    int         `json:"line"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// SnapshotResult describes an uploaded CSV snapshot
type SnapshotResult struct {
	Key       string    `json:"key"`
	Location  string    `json:"location,omitempty"`
	Posts     int       `json:"posts"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}
