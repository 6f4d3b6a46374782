// Package roomcache keeps per-room read results in a bounded LRU.
//
// Every write that touches a room must call Invalidate for that room after it
// commits. A load that started before an invalidation is never stored, so a
// reader racing a writer cannot put the pre-write state back into the cache.
package roomcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Loader[V any] func(ctx context.Context, roomID string) (V, error)

type Cache[V any] struct {
	mu          sync.Mutex
	entries     *lru.Cache[string, V]
	generations map[string]uint64
	epoch       uint64

	hits   atomic.Int64
	misses atomic.Int64
}

type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

func New[V any](size int) (*Cache[V], error) {
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create room cache: %w", err)
	}
	return &Cache[V]{
		entries:     entries,
		generations: make(map[string]uint64),
	}, nil
}

// Get returns the cached value for roomID or loads it. Load errors are not
// cached. Returned values are shared and must not be modified.
func (c *Cache[V]) Get(ctx context.Context, roomID string, load Loader[V]) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries.Get(roomID); ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return v, nil
	}
	gen, epoch := c.generations[roomID], c.epoch
	c.mu.Unlock()
	c.misses.Add(1)

	v, err := load(ctx, roomID)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	if c.generations[roomID] == gen && c.epoch == epoch {
		c.entries.Add(roomID, v)
	}
	c.mu.Unlock()

	return v, nil
}

func (c *Cache[V]) Invalidate(roomIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range roomIDs {
		c.generations[id]++
		c.entries.Remove(id)
	}
}

// Purge drops every entry. The invalidation consumer calls it when an event
// cannot be decoded and the affected rooms are unknown.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	clear(c.generations)
	c.entries.Purge()
}

func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.entries.Len(),
	}
}
