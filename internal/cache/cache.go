// Package cache is the mandatory per-date computation cache: an
// in-memory, mutex-protected map keyed by date/location/strategy,
// with a fixed TTL and opportunistic eviction once the cache grows
// past a size ceiling. It is deliberately not a strict LRU: it walks
// entries and drops whichever have aged past TTL, favoring a simple
// sweep over bookkeeping an access-order list.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/yusufkaya/waqt/internal/observability"
	"github.com/yusufkaya/waqt/internal/schedule"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultMaxSize and DefaultTTL are the suggested cache size ceiling
// and entry lifetime.
const (
	DefaultMaxSize = 1000
	DefaultTTL     = 6 * time.Hour
)

// Store is the per-date schedule cache contract both ScheduleCache and
// Tiered satisfy, letting httpapi depend on the interface rather than
// a concrete in-memory-only cache.
type Store interface {
	Get(ctx context.Context, key string) (schedule.Schedule, bool)
	Set(ctx context.Context, key string, sched schedule.Schedule)
}

// Stats is a snapshot of cache hit/miss/eviction counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

type entry struct {
	schedule  schedule.Schedule
	createdAt time.Time
}

// ScheduleCache is the per-date computation cache the HTTP server
// keeps behind one mutex.
type ScheduleCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	maxSize int
	stats   Stats
}

// New creates a ScheduleCache with the given size ceiling and TTL.
func New(maxSize int, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Key builds the cache key for a date/location/strategy combination.
func Key(date string, lat, lon float64, strategy schedule.GapStrategy) string {
	return fmt.Sprintf("%s:%.4f:%.4f:%s", date, lat, lon, strategy)
}

// Get returns the cached Schedule for key, if present and unexpired.
func (c *ScheduleCache) Get(ctx context.Context, key string) (schedule.Schedule, bool) {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "cache.Get")
	defer span.End()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.recordMiss()
		span.SetAttributes(attribute.Bool("cache_hit", false))
		return schedule.Schedule{}, false
	}

	if time.Since(e.createdAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.recordMiss()
		span.SetAttributes(attribute.Bool("cache_hit", false), attribute.Bool("expired", true))
		return schedule.Schedule{}, false
	}

	c.recordHit()
	span.SetAttributes(attribute.Bool("cache_hit", true))
	return e.schedule, true
}

// Set stores a Schedule under key, then evicts stale entries if the
// cache has grown past its size ceiling.
func (c *ScheduleCache) Set(ctx context.Context, key string, sched schedule.Schedule) {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "cache.Set")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{schedule: sched, createdAt: time.Now()}

	if len(c.entries) > c.maxSize {
		c.evictStaleLocked()
	}

	span.SetAttributes(attribute.Int("cache_size", len(c.entries)))
}

// evictStaleLocked walks the entry set and drops whichever have aged
// past TTL. Callers must hold c.mu. This is opportunistic, not a
// guarantee the cache stays under maxSize: if nothing has expired yet,
// the cache is left to grow until the next Set call that does find
// stale entries.
func (c *ScheduleCache) evictStaleLocked() {
	now := time.Now()
	for _, key := range maps.Keys(c.entries) {
		if now.Sub(c.entries[key].createdAt) > c.ttl {
			delete(c.entries, key)
			c.stats.Evictions++
		}
	}
}

// Len returns the current entry count, including possibly-stale ones
// not yet swept.
func (c *ScheduleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of cache hit/miss/eviction counters.
func (c *ScheduleCache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.stats
	stats.Entries = len(c.entries)
	return stats
}

func (c *ScheduleCache) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *ScheduleCache) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

// Clear empties the cache.
func (c *ScheduleCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Tiered layers the in-memory ScheduleCache in front of a RedisTier for
// multi-instance deployments: a miss in memory falls through to Redis,
// and a Redis hit is backfilled into memory so the next lookup on this
// instance skips the network round trip.
type Tiered struct {
	local *ScheduleCache
	redis *RedisTier
}

// NewTiered combines a required in-memory cache with an optional Redis
// tier. A nil redis tier makes Tiered behave exactly like local alone.
func NewTiered(local *ScheduleCache, redis *RedisTier) *Tiered {
	return &Tiered{local: local, redis: redis}
}

// Get checks the in-memory tier first, then Redis, backfilling memory
// on a Redis hit.
func (t *Tiered) Get(ctx context.Context, key string) (schedule.Schedule, bool) {
	if sched, ok := t.local.Get(ctx, key); ok {
		return sched, true
	}
	if t.redis == nil {
		return schedule.Schedule{}, false
	}
	sched, ok := t.redis.Get(ctx, key)
	if !ok {
		return schedule.Schedule{}, false
	}
	t.local.Set(ctx, key, sched)
	return sched, true
}

// Set writes through to both tiers. A Redis write failure is logged
// and otherwise ignored: the in-memory tier still has the entry, and
// the next miss on another instance simply recomputes.
func (t *Tiered) Set(ctx context.Context, key string, sched schedule.Schedule) {
	t.local.Set(ctx, key, sched)
	if t.redis == nil {
		return
	}
	if err := t.redis.Set(ctx, key, sched); err != nil {
		logger.WithField("key", key).WithError(err).Warn("Redis cache write failed")
	}
}
