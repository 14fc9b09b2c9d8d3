// Package infrastructure wires the cross-cutting runtime concerns: slog
// logger construction, prometheus metric registration, OpenTelemetry trace
// bootstrap, and heap-pressure relief used by the batch orchestrator.
package infrastructure
