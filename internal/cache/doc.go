// Package cache provides a read-through cache in front of the blob store
// for raw day-file content.
//
// Entries expire after a TTL and the cache stays within a byte budget by
// evicting oldest-inserted entries first, down to a configurable fraction
// of the budget. Fetch failures surface as absence rather than errors so
// callers treat them as "file not found".
//
// The cache also tracks the set of business days currently being
// aggregated. Counting passes fetch active days directly from the store
// without inserting, so estimate traffic cannot evict entries the
// aggregation pass relies on.
package cache
