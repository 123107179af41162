package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/getmockd/mockapi/pkg/store"
)

// DocumentCache keeps entries in a store.DocumentStore, one document per key.
// Backends implementing store.ExpiringStore expire entries on their own.
type DocumentCache struct {
	docs store.DocumentStore
	ttl  time.Duration
	now  func() time.Time
}

// NewDocumentCache creates a DocumentCache. ttl <= 0 means DefaultTTL.
func NewDocumentCache(docs store.DocumentStore, ttl time.Duration) *DocumentCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DocumentCache{docs: docs, ttl: ttl, now: time.Now}
}

// Get returns the fresh entry stored under k.
func (c *DocumentCache) Get(ctx context.Context, k Key) (*Entry, error) {
	data, err := c.docs.Get(ctx, k.String())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, ErrMiss
	}
	if !e.Fresh(c.now(), c.ttl) {
		return nil, ErrMiss
	}
	return &e, nil
}

// Put writes e under k.
func (c *DocumentCache) Put(ctx context.Context, k Key, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if exp, ok := c.docs.(store.ExpiringStore); ok {
		return exp.PutWithTTL(ctx, k.String(), data, c.ttl)
	}
	return c.docs.Put(ctx, k.String(), data)
}

// Invalidate deletes every entry of a route.
func (c *DocumentCache) Invalidate(ctx context.Context, project, route string) error {
	keys, err := c.docs.List(ctx, RoutePrefix(project, route))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := c.docs.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

// Sweep deletes entries that are no longer fresh, including undecodable ones.
func (c *DocumentCache) Sweep(ctx context.Context) (int, error) {
	keys, err := c.docs.List(ctx, "")
	if err != nil {
		return 0, err
	}
	now := c.now()
	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		data, err := c.docs.Get(ctx, key)
		if err != nil {
			continue
		}
		var e Entry
		if json.Unmarshal(data, &e) == nil && e.Fresh(now, c.ttl) {
			continue
		}
		if err := c.docs.Delete(ctx, key); err == nil {
			removed++
		}
	}
	return removed, nil
}

var _ Cache = (*DocumentCache)(nil)
