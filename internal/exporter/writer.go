package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"brokersum/internal/blobstore"
)

const outputContentType = "text/csv"

// Writer serializes uniform row sets to delimited text in the blob store.
type Writer struct {
	store  blobstore.Store
	logger *slog.Logger
}

// NewWriter creates a writer over store.
func NewWriter(store blobstore.Store, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: store, logger: logger}
}

// WriteRows serializes header plus rows and stores the artifact under key.
// Empty row sets are skipped with a warning, and an existing target is
// skipped silently; the existence check runs here, immediately before the
// write, to guard against a concurrent run having produced the artifact
// since discovery. Reports whether a new artifact was created.
func (w *Writer) WriteRows(ctx context.Context, key string, header []string, rows [][]string) (bool, error) {
	if len(rows) == 0 {
		w.logger.WarnContext(ctx, "skipping write of empty row set",
			slog.String("key", key))
		return false, nil
	}

	exists, err := w.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check existing artifact %s: %w", key, err)
	}
	if exists {
		w.logger.DebugContext(ctx, "artifact already exists, skipping write",
			slog.String("key", key))
		return false, nil
	}

	content := serialize(header, rows)
	if err := w.store.Put(ctx, key, content, outputContentType); err != nil {
		return false, fmt.Errorf("write artifact %s: %w", key, err)
	}

	w.logger.DebugContext(ctx, "wrote artifact",
		slog.String("key", key),
		slog.Int("row_count", len(rows)))
	return true, nil
}

// serialize joins the header and rows with commas. Broker and stock codes
// never contain commas, so no quoting is applied.
func serialize(header []string, rows [][]string) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
