package cache

import (
	"context"
	"sync"
)

// MemoryCache is an unbounded in-process cache.
// It is safe for concurrent use by multiple goroutines.
//
// Entries are never evicted: the cache lives as long as the process, or as
// long as the owner keeps a reference to it. Tests create their own instance
// for isolation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]Entry),
	}
}

// Get retrieves the entry stored under key.
// The returned entry is a copy and may be modified by the caller.
func (c *MemoryCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	select {
	case <-ctx.Done():
		return Entry{}, false, ctx.Err()
	default:
	}

	c.mu.RLock()
	entry, found := c.entries[key.String()]
	c.mu.RUnlock()

	if !found {
		return Entry{}, false, nil
	}
	return entry.clone(), true, nil
}

// Put stores a copy of entry under key.
func (c *MemoryCache) Put(ctx context.Context, key Key, entry Entry) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	k := key.String()
	entry = entry.clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[k] = entry
	return nil
}

// Len returns the number of entries currently stored.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
