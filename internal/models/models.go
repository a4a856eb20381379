package models

import "time"

// TableStatus describes the outcome of one table within an import.
type TableStatus string

const (
	// TableLoaded means the table's rows were persisted.
	TableLoaded TableStatus = "loaded"
	// TableSkippedUnknown means the file did not match any recognized
	// GTFS table and was ignored. Informational, not an error.
	TableSkippedUnknown TableStatus = "skipped_unknown"
	// TableSkippedNoColumns means no file column matched the destination
	// schema, so the whole table was skipped with a warning.
	TableSkippedNoColumns TableStatus = "skipped_no_columns"
	// TableFailed means the store rejected the table; none of its rows
	// from this import were kept.
	TableFailed TableStatus = "failed"
)

// TableReport is one entry of the import manifest.
type TableReport struct {
	File          string      `json:"file"`
	Table         string      `json:"table,omitempty"`
	Status        TableStatus `json:"status"`
	RowsLoaded    int         `json:"rows_loaded"`
	MalformedRows int         `json:"malformed_rows,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// ImportSummary is the caller-visible result of one import run. Per-table
// outcomes are reported explicitly instead of being logged and swallowed.
type ImportSummary struct {
	BatchID    int64         `json:"batch_id"`
	OwnerID    string        `json:"owner_id"`
	ProjectID  string        `json:"project_id"`
	SourceFile string        `json:"source_file"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"-"`
	Tables     []TableReport `json:"tables"`
}

// Succeeded reports whether no table ended in a hard failure. Skipped
// files and tables do not count against success.
func (s *ImportSummary) Succeeded() bool {
	for _, t := range s.Tables {
		if t.Status == TableFailed {
			return false
		}
	}
	return true
}

// RowsLoaded sums loaded rows across all tables.
func (s *ImportSummary) RowsLoaded() int {
	total := 0
	for _, t := range s.Tables {
		total += t.RowsLoaded
	}
	return total
}

// ImportBatch identifies one import attempt. Created at the start of an
// import and kept as an audit trail; every row written during the import
// carries its id.
type ImportBatch struct {
	ID         int64     `json:"id"`
	OwnerID    string    `json:"owner_id"`
	ProjectID  string    `json:"project_id"`
	SourceFile string    `json:"source_file"`
	CreatedAt  time.Time `json:"created_at"`
}

// Project groups all GTFS rows belonging to one feed being edited.
type Project struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
