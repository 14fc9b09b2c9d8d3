package blobstore

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSStore stores objects as files under a base directory. Object keys use
// forward slashes and map directly onto the directory tree.
type FSStore struct {
	baseDir string
	logger  *slog.Logger
}

// NewFSStore creates a filesystem-backed store rooted at baseDir.
func NewFSStore(baseDir string, logger *slog.Logger) *FSStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStore{baseDir: baseDir, logger: logger}
}

// Get returns the content stored under key, or ErrNotExist.
func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(s.resolve(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return content, nil
}

// Put stores content under key, creating parent directories as needed.
// The content type is ignored; the filesystem has no metadata to carry it.
func (s *FSStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath := s.resolve(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return fmt.Errorf("write object %s: %w", key, err)
	}
	s.logger.Debug("stored object",
		slog.String("key", key),
		slog.Int("size", len(content)))
	return nil
}

// List returns the keys beginning with prefix, sorted ascending.
func (s *FSStore) List(ctx context.Context, prefix string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Walk only the deepest directory the prefix pins down.
	walkRoot := s.baseDir
	if dir := dirPortion(prefix); dir != "" {
		walkRoot = filepath.Join(s.baseDir, filepath.FromSlash(dir))
	}
	if _, err := os.Stat(walkRoot); os.IsNotExist(err) {
		return nil, nil
	}

	var keys []string
	err := filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(s.baseDir, p)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list prefix %s: %w", prefix, err)
	}

	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

// Exists reports whether an object is stored under key.
func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.resolve(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s: %w", key, err)
}

func (s *FSStore) resolve(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

// dirPortion returns the directory part of a slash-separated prefix,
// without the trailing partial segment.
func dirPortion(prefix string) string {
	idx := strings.LastIndex(prefix, "/")
	if idx < 0 {
		return ""
	}
	return prefix[:idx]
}
