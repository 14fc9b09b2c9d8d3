package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"brokersum/internal/blobstore"
	"brokersum/internal/config"
	"brokersum/internal/infrastructure"
)

type entry struct {
	content    []byte
	insertedAt time.Time
	size       int64
}

// Stats is a point-in-time snapshot of cache accounting.
type Stats struct {
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Bypasses   uint64
	Entries    int
	TotalBytes int64
}

// Cache is a TTL and size-bounded read-through cache over a blob store.
// Safe for concurrent use. Construct once per process and pass by
// reference; there is no ambient global instance.
type Cache struct {
	store   blobstore.Store
	logger  *slog.Logger
	metrics *infrastructure.Metrics

	ttl         time.Duration
	maxBytes    int64
	evictTarget float64

	mu         sync.Mutex
	entries    map[string]*entry
	totalBytes int64
	activeDays map[string]struct{}
	stats      Stats

	now func() time.Time
}

// New creates a cache over store. A nil metrics is allowed; a nil logger
// falls back to slog.Default.
func New(store blobstore.Store, cfg config.CacheConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	target := cfg.EvictionTarget
	if target <= 0 || target > 1 {
		target = 0.9
	}
	return &Cache{
		store:       store,
		logger:      logger,
		metrics:     metrics,
		ttl:         cfg.TTL,
		maxBytes:    cfg.MaxBytes,
		evictTarget: target,
		entries:     make(map[string]*entry),
		activeDays:  make(map[string]struct{}),
		now:         time.Now,
	}
}

// Get returns the content for key, fetching through to the store on a miss
// and caching the result. A fetch failure or missing object returns
// (nil, false); callers treat both as "file not found".
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if content, ok := c.lookup(key); ok {
		return content, true
	}

	content, ok := c.fetch(ctx, key)
	if !ok {
		return nil, false
	}
	c.insert(key, content)
	return content, true
}

// GetForCount serves counting passes. Cache hits are still served, but a
// miss for a day in the active set is fetched directly without inserting,
// so the estimate pass cannot disturb eviction for the aggregation pass.
func (c *Cache) GetForCount(ctx context.Context, key, day string) ([]byte, bool) {
	if content, ok := c.lookup(key); ok {
		return content, true
	}
	if c.IsActive(day) {
		c.mu.Lock()
		c.stats.Bypasses++
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.CacheBypasses.Inc()
		}
		return c.fetch(ctx, key)
	}

	content, ok := c.fetch(ctx, key)
	if !ok {
		return nil, false
	}
	c.insert(key, content)
	return content, true
}

// AddActiveDay marks a business day as currently being aggregated.
func (c *Cache) AddActiveDay(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeDays[day] = struct{}{}
}

// RemoveActiveDay unmarks a business day. Call from cleanup regardless of
// processing outcome.
func (c *Cache) RemoveActiveDay(day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.activeDays, day)
}

// IsActive reports whether the day is currently being aggregated.
func (c *Cache) IsActive(day string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.activeDays[day]
	return ok
}

// Clear drops all entries and the active-day set.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.activeDays = make(map[string]struct{})
	c.totalBytes = 0
	if c.metrics != nil {
		c.metrics.CacheBytes.Set(0)
	}
}

// Snapshot returns current cache statistics.
func (c *Cache) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Entries = len(c.entries)
	stats.TotalBytes = c.totalBytes
	return stats
}

func (c *Cache) lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.insertedAt) < c.ttl {
		c.stats.Hits++
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return e.content, true
	}
	if ok {
		// Expired; drop it so the miss path refreshes.
		c.removeLocked(key, e)
	}
	c.stats.Misses++
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
	return nil, false
}

func (c *Cache) fetch(ctx context.Context, key string) ([]byte, bool) {
	content, err := c.store.Get(ctx, key)
	if err != nil {
		if !blobstore.IsNotExist(err) {
			c.logger.Warn("blob fetch failed, treating as absent",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	return content, true
}

func (c *Cache) insert(key string, content []byte) {
	size := int64(len(content))
	if c.maxBytes > 0 && size > c.maxBytes {
		// Never cache an entry bigger than the whole budget.
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(key, old)
	}

	if c.maxBytes > 0 && c.totalBytes+size > c.maxBytes {
		c.evictLocked(size)
	}

	c.entries[key] = &entry{content: content, insertedAt: c.now(), size: size}
	c.totalBytes += size
	if c.metrics != nil {
		c.metrics.CacheBytes.Set(float64(c.totalBytes))
	}
}

// evictLocked removes oldest-inserted entries until the projected usage
// including incoming bytes fits within the eviction target.
func (c *Cache) evictLocked(incoming int64) {
	budget := int64(float64(c.maxBytes) * c.evictTarget)
	for c.totalBytes+incoming > budget && len(c.entries) > 0 {
		oldestKey := ""
		var oldest *entry
		for key, e := range c.entries {
			if oldest == nil || e.insertedAt.Before(oldest.insertedAt) {
				oldestKey, oldest = key, e
			}
		}
		c.removeLocked(oldestKey, oldest)
		c.stats.Evictions++
		if c.metrics != nil {
			c.metrics.CacheEvictions.Inc()
		}
		c.logger.Debug("evicted cache entry",
			slog.String("key", oldestKey),
			slog.Int64("size", oldest.size))
	}
}

func (c *Cache) removeLocked(key string, e *entry) {
	delete(c.entries, key)
	c.totalBytes -= e.size
	if c.metrics != nil {
		c.metrics.CacheBytes.Set(float64(c.totalBytes))
	}
}
