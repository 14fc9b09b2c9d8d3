package pipeline

import "time"

// RunSummary is the terminal result of one orchestrator run. It is always
// returned, even when individual days failed; only setup failures carry an
// accompanying error.
type RunSummary struct {
	RunID          string        `json:"run_id"`
	ProcessedCount int           `json:"processed_count"`
	SkippedCount   int           `json:"skipped_count"`
	ErrorCount     int           `json:"error_count"`
	FilesCreated   int           `json:"files_created"`
	Elapsed        time.Duration `json:"elapsed"`
}

// dayTask is one unit of batch work: a business day and the storage key of
// its transaction export.
type dayTask struct {
	day string
	key string
}
