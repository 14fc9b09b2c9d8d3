package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"brokersum/internal/blobstore"
	"brokersum/internal/summary"
	"brokersum/internal/tickdata"
)

// Checker decides whether expected outputs already exist for a business
// day. The check is an at-least-one heuristic per prefix, not a row count.
type Checker struct {
	store  blobstore.Store
	logger *slog.Logger
}

// NewChecker creates a completeness checker over store.
func NewChecker(store blobstore.Store, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{store: store, logger: logger}
}

// HasOutput reports whether at least one artifact exists under the prefix
// for (pivot, trade type, day).
func (c *Checker) HasOutput(ctx context.Context, pivot summary.Pivot, t tickdata.TradeType, day string) (bool, error) {
	prefix := OutputPrefix(pivot, t, day)
	keys, err := c.store.List(ctx, prefix, 1)
	if err != nil {
		return false, fmt.Errorf("list output prefix %s: %w", prefix, err)
	}
	return len(keys) > 0, nil
}

// TypeComplete reports whether both pivot categories for (day, trade type)
// already hold at least one artifact.
func (c *Checker) TypeComplete(ctx context.Context, t tickdata.TradeType, day string) (bool, error) {
	for _, pivot := range summary.Pivots() {
		has, err := c.HasOutput(ctx, pivot, t, day)
		if err != nil {
			return false, err
		}
		if !has {
			return false, nil
		}
	}
	return true, nil
}

// DayComplete reports whether every (pivot, trade type) prefix for the day
// already holds at least one artifact.
func (c *Checker) DayComplete(ctx context.Context, day string, types []tickdata.TradeType) (bool, error) {
	for _, t := range types {
		complete, err := c.TypeComplete(ctx, t, day)
		if err != nil {
			return false, err
		}
		if !complete {
			return false, nil
		}
	}
	c.logger.DebugContext(ctx, "day outputs already complete",
		slog.String("day", day))
	return true, nil
}
