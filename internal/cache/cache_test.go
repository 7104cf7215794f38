package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Stats().Size)
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[string, int](10, time.Minute)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)

	now = now.Add(2 * time.Minute)
	c.Set("c", 3)
	assert.Equal(t, 2, c.CleanExpired())

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestGetOrCompute(t *testing.T) {
	c := NewLRU[int, string](4, time.Hour)
	calls := 0
	compute := func() string { calls++; return "v" }

	assert.Equal(t, "v", c.GetOrCompute(1, compute))
	assert.Equal(t, "v", c.GetOrCompute(1, compute))
	assert.Equal(t, 1, calls)

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)

	c.Delete(1)
	c.GetOrCompute(1, compute)
	assert.Equal(t, 2, calls)
}

func TestManagerSweepAndStop(t *testing.T) {
	now := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[string, int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	now = now.Add(time.Minute)
	assert.Equal(t, 1, m.Sweep())

	m.Start(time.Hour)
	m.Stop()
	m.Stop()
}
