package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures progress callbacks for assertions.
type recordingSink struct {
	mu          sync.Mutex
	percentages []float64
	messages    []string
	completed   *RunSummary
	failed      string
}

func (s *recordingSink) UpdateProgress(ctx context.Context, percentage float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percentages = append(s.percentages, percentage)
	s.messages = append(s.messages, message)
}

func (s *recordingSink) MarkCompleted(ctx context.Context, summary RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = &summary
}

func (s *recordingSink) MarkFailed(ctx context.Context, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = reason
}

func TestTracker_ReportsPercentage(t *testing.T) {
	sink := &recordingSink{}
	tracker := NewTracker(sink, 4)

	ctx := context.Background()
	tracker.Add(ctx, 1, "first")
	tracker.Add(ctx, 2, "second")

	assert.Equal(t, 3, tracker.Processed())
	assert.InDelta(t, 75.0, tracker.Percentage(), 0.001)
	require.Len(t, sink.percentages, 2)
	assert.InDelta(t, 25.0, sink.percentages[0], 0.001)
	assert.InDelta(t, 75.0, sink.percentages[1], 0.001)
	assert.Equal(t, []string{"first", "second"}, sink.messages)
}

func TestTracker_CapsAtHundred(t *testing.T) {
	tracker := NewTracker(&recordingSink{}, 2)
	tracker.Add(context.Background(), 5, "overshoot")
	assert.Equal(t, 100.0, tracker.Percentage())
}

func TestTracker_ZeroEstimate(t *testing.T) {
	tracker := NewTracker(&recordingSink{}, 0)
	tracker.Add(context.Background(), 3, "unknown total")
	assert.Equal(t, 0.0, tracker.Percentage())
}

func TestTracker_EntryIDsAreUnique(t *testing.T) {
	a := NewTracker(&recordingSink{}, 1)
	b := NewTracker(&recordingSink{}, 1)
	assert.NotEmpty(t, a.EntryID())
	assert.NotEqual(t, a.EntryID(), b.EntryID())
}

func TestSlogSink_NilLoggerFallsBack(t *testing.T) {
	sink := NewSlogSink(nil)
	require.NotNil(t, sink)
	sink.UpdateProgress(context.Background(), 50, "halfway")
	sink.MarkCompleted(context.Background(), RunSummary{RunID: "r1"})
	sink.MarkFailed(context.Background(), "listing denied")
}
