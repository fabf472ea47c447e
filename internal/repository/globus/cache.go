package globus

import (
	"crypto/md5" //nolint:gosec // cache key, not a security boundary
	"encoding/hex"
	"sync"
	"time"

	"github.com/esgf-us/esg-bridge/internal/domain"
)

// cacheKey is the stable hash of a serialized query body. It is exposed
// to clients as the response etag, so the algorithm is part of the wire
// contract.
func cacheKey(body []byte) string {
	sum := md5.Sum(body) //nolint:gosec // see above
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	result  domain.GlobusResult
	timings map[string]int
	stored  time.Time
}

// defaultCacheCapacity bounds the entry map. Every distinct query body is
// a new key, so without a cap an unauthenticated caller could grow the
// cache for the life of the process.
const defaultCacheCapacity = 4096

// responseCache is a forced time-boxed cache: entries are reusable for a
// fixed TTL no matter what the backend's cache headers said. Concurrent
// inserts for one key are tolerated, last write wins. The entry count is
// bounded: inserts at capacity sweep expired entries first, then evict
// the oldest.
type responseCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	capacity int
	entries  map[string]cacheEntry
	now      func() time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &responseCache{
		ttl:      ttl,
		capacity: defaultCacheCapacity,
		entries:  make(map[string]cacheEntry),
		now:      time.Now,
	}
}

func (c *responseCache) get(key string) (cacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return cacheEntry{}, false
	}
	if c.now().Sub(entry.stored) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a fresh insert may have raced.
		if current, still := c.entries[key]; still && c.now().Sub(current.stored) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *responseCache) put(key string, entry cacheEntry) {
	entry.stored = c.now()
	c.mu.Lock()
	if len(c.entries) >= c.capacity {
		c.sweepExpiredLocked()
	}
	for len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *responseCache) sweepExpiredLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.stored) >= c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *responseCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.stored.Before(oldest) {
			oldestKey, oldest = key, entry.stored
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
