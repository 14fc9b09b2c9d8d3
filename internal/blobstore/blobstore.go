package blobstore

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when no object is stored under the key.
var ErrNotExist = errors.New("blobstore: object does not exist")

// Store is the object-store boundary used by the aggregation pipeline.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the content stored under key, or ErrNotExist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores content under key with the given content type.
	// Existing objects are overwritten.
	Put(ctx context.Context, key string, content []byte, contentType string) error

	// List returns the keys that begin with prefix, sorted ascending.
	// A limit of 0 means no cap.
	List(ctx context.Context, prefix string, limit int) ([]string, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// IsNotExist reports whether err indicates a missing object.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}
