// Package exporter persists aggregated position summaries as delimited
// artifacts in the blob store and decides when a business day's outputs
// already exist.
//
// One artifact is written per (business day, trade type, pivot entity)
// under the path pattern {category}_{type}/{category}_{type}_{YYYYMMDD}/
// {entity}.csv. Writes are idempotent: an existing target is skipped
// without error, and the existence check runs immediately before each
// write as best-effort protection against concurrent runs.
package exporter
