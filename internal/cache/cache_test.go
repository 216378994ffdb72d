package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yusufkaya/waqt/internal/schedule"
)

func TestCacheSetGet(t *testing.T) {
	c := New(10, time.Hour)
	ctx := context.Background()
	key := Key("2026-02-14", 21.4225, 39.8262, schedule.Projected45)

	sched := schedule.Schedule{State: schedule.Normal}
	c.Set(ctx, key, sched)

	got, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, schedule.Normal, got.State)
}

func TestCacheMiss(t *testing.T) {
	c := New(10, time.Hour)
	_, ok := c.Get(context.Background(), "nonexistent")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	ctx := context.Background()
	key := Key("2026-02-14", 0, 0, schedule.Strict)

	c.Set(ctx, key, schedule.Schedule{State: schedule.Normal})
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestCacheEvictsOnlyStaleEntries(t *testing.T) {
	c := New(2, 10*time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, "a", schedule.Schedule{State: schedule.Normal})
	time.Sleep(20 * time.Millisecond)
	c.Set(ctx, "b", schedule.Schedule{State: schedule.Normal})
	c.Set(ctx, "c", schedule.Schedule{State: schedule.Normal})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok, "entry a should have been swept for exceeding TTL")
}

func TestCacheStats(t *testing.T) {
	c := New(10, time.Hour)
	ctx := context.Background()
	key := Key("2026-02-14", 0, 0, schedule.Strict)

	c.Set(ctx, key, schedule.Schedule{})
	c.Get(ctx, key)
	c.Get(ctx, "missing")

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestCacheClear(t *testing.T) {
	c := New(10, time.Hour)
	ctx := context.Background()
	c.Set(ctx, "a", schedule.Schedule{})
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCacheKeyIncludesStrategy(t *testing.T) {
	a := Key("2026-02-14", 1.0, 2.0, schedule.Strict)
	b := Key("2026-02-14", 1.0, 2.0, schedule.Projected45)
	assert.NotEqual(t, a, b)
}

func TestTieredWithoutRedisBehavesLikeLocal(t *testing.T) {
	local := New(10, time.Hour)
	tiered := NewTiered(local, nil)
	ctx := context.Background()
	key := Key("2026-02-14", 0, 0, schedule.Strict)

	_, ok := tiered.Get(ctx, key)
	assert.False(t, ok)

	tiered.Set(ctx, key, schedule.Schedule{State: schedule.Normal})
	got, ok := tiered.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, schedule.Normal, got.State)

	localGot, ok := local.Get(ctx, key)
	assert.True(t, ok, "Tiered.Set must write through to the local tier")
	assert.Equal(t, schedule.Normal, localGot.State)
}
