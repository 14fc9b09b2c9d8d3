package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink receives progress updates and the terminal run outcome. The
// dashboard's log-entry store implements this in production; SlogSink is
// the built-in fallback.
type Sink interface {
	UpdateProgress(ctx context.Context, percentage float64, message string)
	MarkCompleted(ctx context.Context, summary RunSummary)
	MarkFailed(ctx context.Context, reason string)
}

// SlogSink reports progress through structured logging.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger, or slog.Default when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// UpdateProgress logs a progress update.
func (s *SlogSink) UpdateProgress(ctx context.Context, percentage float64, message string) {
	s.logger.DebugContext(ctx, "progress",
		slog.Float64("percentage", percentage),
		slog.String("message", message))
}

// MarkCompleted logs the terminal run summary.
func (s *SlogSink) MarkCompleted(ctx context.Context, summary RunSummary) {
	s.logger.InfoContext(ctx, "run completed",
		slog.String("run_id", summary.RunID),
		slog.Int("processed", summary.ProcessedCount),
		slog.Int("skipped", summary.SkippedCount),
		slog.Int("errors", summary.ErrorCount),
		slog.Int("files_created", summary.FilesCreated),
		slog.Duration("elapsed", summary.Elapsed))
}

// MarkFailed logs a terminal run failure.
func (s *SlogSink) MarkFailed(ctx context.Context, reason string) {
	s.logger.ErrorContext(ctx, "run failed", slog.String("reason", reason))
}

// Tracker is a thread-safe progress counter reporting to a sink. The
// estimate comes from the pre-count phase and may undershoot; the reported
// percentage is capped at 100.
type Tracker struct {
	mu        sync.Mutex
	entryID   string
	estimated int
	processed int
	sink      Sink
	started   time.Time
}

// NewTracker creates a tracker for an estimated number of work units.
func NewTracker(sink Sink, estimated int) *Tracker {
	return &Tracker{
		entryID:   uuid.NewString(),
		estimated: estimated,
		sink:      sink,
		started:   time.Now(),
	}
}

// EntryID returns the log-entry identifier associated with this run.
func (t *Tracker) EntryID() string {
	return t.entryID
}

// Add increments the processed count and reports the new percentage.
func (t *Tracker) Add(ctx context.Context, units int, message string) {
	t.mu.Lock()
	t.processed += units
	pct := t.percentageLocked()
	t.mu.Unlock()

	if t.sink != nil {
		t.sink.UpdateProgress(ctx, pct, message)
	}
}

// Processed returns the number of work units completed so far.
func (t *Tracker) Processed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.processed
}

// Percentage returns the capped completion percentage.
func (t *Tracker) Percentage() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentageLocked()
}

func (t *Tracker) percentageLocked() float64 {
	if t.estimated <= 0 {
		return 0
	}
	pct := float64(t.processed) / float64(t.estimated) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
