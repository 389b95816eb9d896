// Package caching holds a small in-memory cache of request decisions so hot
// paths skip re-evaluating the rule set. Entries expire on a TTL; a reload
// replaces the whole cache rather than invalidating entries piecemeal.
package caching

import (
	"context"
	"sync"
	"time"

	apexlog "github.com/apex/log"
	"github.com/c2h5oh/datasize"

	"github.com/richiefi/redirector/metrics"
	"github.com/richiefi/redirector/redirect"
)

// Key identifies one cached decision. The raw query is part of the key
// because it feeds the Location the decision carries.
type Key struct {
	Host     string
	Path     string
	RawQuery string
}

// Cache stores computed decisions.
type Cache interface {
	Get(k Key) (redirect.Decision, bool)
	Set(k Key, d redirect.Decision)
	Clear()
}

// Options configures a memory cache.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	MaxSize         datasize.ByteSize
}

type entry struct {
	decision  redirect.Decision
	createdAt time.Time
	size      int
}

// MemoryCache is a TTL-bounded in-memory decision cache. The clock is
// injected so tests can advance time.
type MemoryCache struct {
	logger *apexlog.Logger
	opts   Options
	now    func() time.Time

	lock    sync.RWMutex
	entries map[Key]entry
	size    int
}

// NewMemoryCache builds a memory cache and starts its cleanup loop, which
// runs until ctx is done.
func NewMemoryCache(ctx context.Context, logger *apexlog.Logger, opts Options, now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	c := &MemoryCache{
		logger:  logger,
		opts:    opts,
		now:     now,
		entries: make(map[Key]entry),
	}
	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(ctx)
	}
	return c
}

// Get returns the cached decision for k if it exists and has not expired.
func (c *MemoryCache) Get(k Key) (redirect.Decision, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	e, ok := c.entries[k]
	if !ok || c.expired(e) {
		metrics.ObserveCache(false)
		return redirect.Decision{}, false
	}
	metrics.ObserveCache(true)
	return e.decision, true
}

// Set stores a decision. Inserts that would push the cache past its size cap
// are dropped; expiry reclaims space over time.
func (c *MemoryCache) Set(k Key, d redirect.Decision) {
	sz := entrySize(k, d)

	c.lock.Lock()
	defer c.lock.Unlock()

	if old, ok := c.entries[k]; ok {
		c.size -= old.size
	} else if c.opts.MaxSize > 0 && c.size+sz > int(c.opts.MaxSize.Bytes()) {
		c.logger.WithFields(apexlog.Fields{"host": k.Host, "path": k.Path}).Debug("decision cache full, not storing")
		return
	}
	c.entries[k] = entry{decision: d, createdAt: c.now(), size: sz}
	c.size += sz
}

// Clear drops every entry, used when a new snapshot is published.
func (c *MemoryCache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries = make(map[Key]entry)
	c.size = 0
}

func (c *MemoryCache) expired(e entry) bool {
	return c.opts.TTL > 0 && c.now().Sub(e.createdAt) > c.opts.TTL
}

func (c *MemoryCache) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("stopping decision cache cleanup")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *MemoryCache) cleanup() {
	c.lock.Lock()
	defer c.lock.Unlock()
	removed := 0
	for k, e := range c.entries {
		if c.expired(e) {
			c.size -= e.size
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.logger.WithField("removed", removed).Debug("decision cache cleanup")
	}
}

func entrySize(k Key, d redirect.Decision) int {
	const overhead = 64
	return overhead + len(k.Host) + len(k.Path) + len(k.RawQuery) + len(d.Location) + len(d.CacheControl)
}
