package cache

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryCache keeps entries in process memory.
type MemoryCache struct {
	items *ttlcache.Cache[string, *Entry]
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache creates a MemoryCache. ttl <= 0 means DefaultTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		items: ttlcache.New[string, *Entry](
			ttlcache.WithTTL[string, *Entry](ttl),
			// Reads must not extend an entry's life.
			ttlcache.WithDisableTouchOnHit[string, *Entry](),
		),
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the fresh entry stored under k.
func (c *MemoryCache) Get(_ context.Context, k Key) (*Entry, error) {
	item := c.items.Get(k.String())
	if item == nil {
		return nil, ErrMiss
	}
	e := item.Value()
	if e == nil || !e.Fresh(c.now(), c.ttl) {
		return nil, ErrMiss
	}
	return e, nil
}

// Put stores e under k.
func (c *MemoryCache) Put(_ context.Context, k Key, e *Entry) error {
	c.items.Set(k.String(), e, ttlcache.DefaultTTL)
	return nil
}

// Invalidate drops every entry of a route.
func (c *MemoryCache) Invalidate(_ context.Context, project, route string) error {
	prefix := RoutePrefix(project, route)
	for _, key := range c.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.items.Delete(key)
		}
	}
	return nil
}

// Sweep removes expired entries.
func (c *MemoryCache) Sweep(_ context.Context) (int, error) {
	before := c.items.Len()
	c.items.DeleteExpired()
	return before - c.items.Len(), nil
}

// Len returns the number of stored entries, fresh or not.
func (c *MemoryCache) Len() int {
	return c.items.Len()
}

var _ Cache = (*MemoryCache)(nil)
