package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/stakesim/pkg/cache"
)

// MemoryCache implements cache.PriceCache using in-memory storage
type MemoryCache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Get retrieves a snapshot from cache
func (c *MemoryCache) Get(_ context.Context, key string) (*cache.PriceSnapshot, error) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}

	return entry.snap, nil
}

// Set stores a snapshot in cache with TTL. A zero TTL never expires.
func (c *MemoryCache) Set(
	_ context.Context,
	key string,
	snap *cache.PriceSnapshot,
	ttl time.Duration,
) error {
	entry := &cacheEntry{snap: snap}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}

// Delete removes a snapshot from cache
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

type cacheEntry struct {
	snap      *cache.PriceSnapshot
	expiresAt time.Time
}

var _ cache.PriceCache = (*MemoryCache)(nil)
