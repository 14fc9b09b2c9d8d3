package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// GCSStore stores objects in a Google Cloud Storage bucket.
type GCSStore struct {
	svc    *storage.Service
	bucket string
}

// NewGCSStore creates a store backed by the given bucket. Client options
// follow the usual google.golang.org/api conventions (credentials file,
// scopes, endpoint overrides).
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs store: bucket is required")
	}
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSStore{svc: svc, bucket: bucket}, nil
}

// Get downloads the object stored under key, or returns ErrNotExist.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.svc.Objects.Get(s.bucket, key).Context(ctx).Download()
	if err != nil {
		if isGoogleNotFound(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("download object %s: %w", key, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return content, nil
}

// Put uploads content under key.
func (s *GCSStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	obj := &storage.Object{Name: key, ContentType: contentType}
	_, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("upload object %s: %w", key, err)
	}
	return nil
}

// List returns object names beginning with prefix, sorted ascending
// (GCS lists lexicographically). A limit of 0 means no cap.
func (s *GCSStore) List(ctx context.Context, prefix string, limit int) ([]string, error) {
	var keys []string
	pageToken := ""
	for {
		call := s.svc.Objects.List(s.bucket).Prefix(prefix).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		if limit > 0 {
			remaining := limit - len(keys)
			call = call.MaxResults(int64(remaining))
		}
		objs, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list prefix %s: %w", prefix, err)
		}
		for _, obj := range objs.Items {
			keys = append(keys, obj.Name)
		}
		if limit > 0 && len(keys) >= limit {
			return keys[:limit], nil
		}
		if objs.NextPageToken == "" {
			return keys, nil
		}
		pageToken = objs.NextPageToken
	}
}

// Exists reports whether an object is stored under key.
func (s *GCSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.svc.Objects.Get(s.bucket, key).Fields("name").Context(ctx).Do()
	if err == nil {
		return true, nil
	}
	if isGoogleNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s: %w", key, err)
}

func isGoogleNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
