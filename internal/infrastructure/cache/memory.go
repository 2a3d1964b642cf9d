package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cartlens/backend/internal/domain"
)

type memoryEntry struct {
	payload    []byte
	expiration time.Time
	noExpiry   bool
}

// MemoryCache is a thread-safe in-memory cache with TTL support. Payloads go
// through the same compressed-JSON codec as the Redis backend so both return
// independent copies, never shared references.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

// NewMemoryCache creates an in-memory cache and starts its expiry sweeper.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{data: make(map[string]memoryEntry)}
	go c.sweepExpired()
	return c
}

// GetJSON retrieves the payload at key into dest.
func (c *MemoryCache) GetJSON(ctx context.Context, key string, dest any) error {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || (!entry.noExpiry && time.Now().After(entry.expiration)) {
		return domain.ErrCacheMiss
	}
	return decompressJSON(entry.payload, dest)
}

// SetJSON stores value at key for ttl. A non-positive ttl stores the entry
// without expiry.
func (c *MemoryCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	blob, err := compressJSON(value)
	if err != nil {
		return err
	}
	entry := memoryEntry{payload: blob, noExpiry: ttl <= 0}
	if ttl > 0 {
		entry.expiration = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.data[key] = entry
	c.mu.Unlock()
	return nil
}

// TTLRemaining reports the remaining lifetime of key.
func (c *MemoryCache) TTLRemaining(ctx context.Context, key string) (time.Duration, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return 0, domain.ErrCacheMiss
	}
	if entry.noExpiry {
		return 0, domain.ErrNoExpiry
	}
	remaining := time.Until(entry.expiration)
	if remaining <= 0 {
		return 0, domain.ErrCacheMiss
	}
	return remaining, nil
}

// Size returns the current number of entries, expired or not.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache) sweepExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.data {
			if !entry.noExpiry && now.After(entry.expiration) {
				delete(c.data, key)
			}
		}
		c.mu.Unlock()
	}
}
