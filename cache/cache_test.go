package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rentcontroldept/rcd-api/cache"
)

func TestCacheGetSet(t *testing.T) {
	c := cache.New(time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v")
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	c := cache.New(10 * time.Millisecond)
	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheDelete(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("k", "v")
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)

	// deleting a missing key is a no-op
	c.Delete("missing")
}

func TestCacheDeleteByPrefix(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("calendar:u1:2026-01-01:2026-01-31", "a")
	c.Set("calendar:u1:2026-02-01:2026-02-28", "b")
	c.Set("calendar:u2:2026-01-01:2026-01-31", "c")
	c.Set("stats:u1", "d")

	c.DeleteByPrefix(cache.CalendarPrefix("u1"))

	_, ok := c.Get("calendar:u1:2026-01-01:2026-01-31")
	assert.False(t, ok)
	_, ok = c.Get("calendar:u1:2026-02-01:2026-02-28")
	assert.False(t, ok)
	_, ok = c.Get("calendar:u2:2026-01-01:2026-01-31")
	assert.True(t, ok)
	_, ok = c.Get("stats:u1")
	assert.True(t, ok)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "case:abc", cache.CaseViewKey("abc"))
	assert.Equal(t, "stats:u1", cache.StatsKey("u1"))
	assert.Equal(t, "dashboard:u1", cache.DashboardKey("u1"))
	assert.Equal(t, "calendar:u1:2026-01-01:2026-01-31", cache.CalendarKey("u1", "2026-01-01", "2026-01-31"))
	assert.Equal(t, "calendar:u1:", cache.CalendarPrefix("u1"))
}

func TestKeySetFlush(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set(cache.CaseViewKey("case1"), "v")
	c.Set(cache.StatsKey("u1"), "v")
	c.Set(cache.DashboardKey("u1"), "v")
	c.Set(cache.CalendarKey("u1", "2026-01-01", "2026-01-31"), "v")
	c.Set(cache.StatsKey("u2"), "v")

	ks := &cache.KeySet{}
	ks.AddKey(cache.CaseViewKey("case1"))
	ks.AddActor("u1")
	ks.Flush(c)

	_, ok := c.Get(cache.CaseViewKey("case1"))
	assert.False(t, ok)
	_, ok = c.Get(cache.StatsKey("u1"))
	assert.False(t, ok)
	_, ok = c.Get(cache.DashboardKey("u1"))
	assert.False(t, ok)
	_, ok = c.Get(cache.CalendarKey("u1", "2026-01-01", "2026-01-31"))
	assert.False(t, ok)

	// other actors' views survive
	_, ok = c.Get(cache.StatsKey("u2"))
	assert.True(t, ok)
}

func TestKeySetAddActorSkipsBlank(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("stats:", "v")

	ks := &cache.KeySet{}
	ks.AddActor("")
	ks.Flush(c)

	// a blank actor id must not turn into an eviction of "stats:"
	_, ok := c.Get("stats:")
	assert.True(t, ok)
}
