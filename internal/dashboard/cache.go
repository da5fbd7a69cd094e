package dashboard

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/KI7MT/ki7mt-sunspot-viz/internal/solar"
)

// Loader reads a source locator into a table.
type Loader func(ctx context.Context, source string) (*solar.Table, error)

// Cache memoises loaded tables by source locator. Concurrent misses on the
// same locator share one load; failed loads are not remembered.
type Cache struct {
	load    Loader
	metrics *Metrics

	mu     sync.RWMutex
	tables map[string]*solar.Table
	gens   map[string]uint64
	group  singleflight.Group
}

// NewCache returns an empty cache backed by load.
func NewCache(load Loader, metrics *Metrics) *Cache {
	return &Cache{
		load:    load,
		metrics: metrics,
		tables:  make(map[string]*solar.Table),
		gens:    make(map[string]uint64),
	}
}

// Get returns the table for source, loading it on first use. Every hit
// returns the same *solar.Table.
func (c *Cache) Get(ctx context.Context, source string) (*solar.Table, error) {
	if t, ok := c.lookup(source); ok {
		c.metrics.cacheLookup(true)
		return t, nil
	}
	c.metrics.cacheLookup(false)

	v, err, _ := c.group.Do(source, func() (any, error) {
		c.mu.RLock()
		t, ok := c.tables[source]
		gen := c.gens[source]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}
		// The load outlives the request that started it; other callers
		// may be waiting on the same result.
		t, err := c.load(context.WithoutCancel(ctx), source)
		if err != nil {
			return nil, err
		}
		// An Invalidate during the load means t may predate the change.
		c.mu.Lock()
		if c.gens[source] == gen {
			c.tables[source] = t
		}
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*solar.Table), nil
}

// Invalidate drops the cached table for source. A load already in flight
// still answers its callers but is not cached, and the next Get reloads.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	delete(c.tables, source)
	c.gens[source]++
	c.mu.Unlock()
	c.group.Forget(source)
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

func (c *Cache) lookup(source string) (*solar.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[source]
	return t, ok
}
