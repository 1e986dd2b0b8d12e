// Package querycache provides the query cache used by cold repositories.
//
// Entries expire after a per-query TTL. Concurrent fetches of the same key are
// collapsed into one upstream call, and invalidation bumps a generation so a
// fetch that was in flight when its key was invalidated is never cached.
package querycache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/mirror/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// Options configures a Cache.
type Options struct {
	// DefaultTTL applies to queries fetched with a zero TTL.
	DefaultTTL time.Duration
	// Capacity bounds the number of entries; zero means unbounded.
	Capacity uint64
}

// Cache implements ports.QueryCache.
type Cache struct {
	items *ttlcache.Cache[string, any]
	group singleflight.Group

	mu  sync.Mutex
	gen uint64
}

var _ ports.QueryCache = (*Cache)(nil)

// New creates a Cache.
func New(opts Options) *Cache {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = domain.DefaultColdTTL
	}
	items := ttlcache.New(
		ttlcache.WithTTL[string, any](ttl),
		ttlcache.WithCapacity[string, any](opts.Capacity),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)
	return &Cache{items: items}
}

// FetchQuery returns the cached value for key or runs fetch and caches its
// result for ttl. Errors are never cached. A caller whose ctx ends stops
// waiting without failing the others sharing the fetch.
func (c *Cache) FetchQuery(
	ctx context.Context,
	key domain.QueryKey,
	ttl time.Duration,
	fetch ports.QueryFunc,
) (any, error) {
	k := key.String()
	if item := c.items.Get(k); item != nil {
		return item.Value(), nil
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	// The shared fetch outlives any single caller; each caller still honors
	// its own ctx while waiting.
	ch := c.group.DoChan(strconv.FormatUint(gen, 10)+"\x1e"+k, func() (any, error) {
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen == gen {
			c.items.Set(k, v, max(ttl, ttlcache.DefaultTTL))
		}
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InvalidateQueries drops every entry whose key starts with prefix.
// An empty prefix drops everything.
func (c *Cache) InvalidateQueries(prefix domain.QueryKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if len(prefix) == 0 {
		c.items.DeleteAll()
		return
	}

	p := prefix.String()
	for _, k := range c.items.Keys() {
		if k == p || strings.HasPrefix(k, p+"\x1f") {
			c.items.Delete(k)
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Run evicts expired entries in the background until ctx is done.
func (c *Cache) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.items.Start()
	}()

	<-ctx.Done()
	c.items.Stop()
	<-done
}
