// Package pipeline orchestrates the daily aggregation run.
//
// A run moves through fixed phases: discover candidate day files, pre-count
// expected work units for progress reporting, mark the days active, process
// them in fixed-size batches under a bounded worker pool, and clean up the
// active-day set regardless of outcome. Failures are isolated per day and
// reported in the run summary; only a setup failure (the input prefix
// cannot be listed at all) aborts the run.
package pipeline
