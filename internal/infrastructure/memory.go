package infrastructure

import (
	"log/slog"
	"runtime"
)

// HeapUsage returns the bytes currently allocated on the heap.
func HeapUsage() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// RelieveHeapPressure forces a garbage collection when heap usage exceeds
// limitBytes. A limit of 0 disables the check. Reports whether a collection
// was triggered.
func RelieveHeapPressure(logger *slog.Logger, limitBytes uint64) bool {
	if limitBytes == 0 {
		return false
	}
	used := HeapUsage()
	if used <= limitBytes {
		return false
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("heap pressure detected, forcing garbage collection",
		slog.Uint64("heap_bytes", used),
		slog.Uint64("limit_bytes", limitBytes))
	runtime.GC()
	return true
}
