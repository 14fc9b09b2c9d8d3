// Package blobstore abstracts the object store that holds raw daily
// transaction exports and generated summary artifacts.
//
// Three backings are provided:
//
// FSStore: stores objects as files under a base directory, mapping object
// keys to relative paths. This is the default backend for local runs.
//
// MemStore: keeps objects in memory. Used by tests and dry runs.
//
// GCSStore: stores objects in a Google Cloud Storage bucket through the
// google.golang.org/api client.
//
// All implementations are safe for concurrent use. Missing objects are
// reported with ErrNotExist rather than backend-specific errors, and
// transient failures can be retried through Do, a bounded exponential
// backoff helper.
package blobstore
