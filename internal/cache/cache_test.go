package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := New(Options{SweepInterval: time.Hour})
	t.Cleanup(c.Close)
	return c
}

type fixture struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	c.Set("search:dune", fixture{Title: "Dune", Count: 3}, time.Minute)

	got, ok := GetJSON[fixture](c, "search:dune")
	require.True(t, ok)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, 3, got.Count)
}

func TestCache_Miss(t *testing.T) {
	c := newTestCache(t)

	_, ok := c.Get("search:absent")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := newTestCache(t)

	c.Set("search:dune", fixture{Title: "Dune"}, 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("search:dune")
	assert.False(t, ok, "expired entry should be a miss")
	assert.Equal(t, 0, c.Len(), "lazy expiry should remove the entry")
}

func TestCache_Del(t *testing.T) {
	c := newTestCache(t)

	c.Set("recommendations:user-1", fixture{Title: "x"}, time.Minute)
	c.Del("recommendations:user-1")

	_, ok := c.Get("recommendations:user-1")
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	c.Del("recommendations:user-1")
}

func TestCache_LastWriterWins(t *testing.T) {
	c := newTestCache(t)

	c.Set("search:dune", fixture{Title: "old"}, time.Minute)
	c.Set("search:dune", fixture{Title: "new"}, time.Minute)

	got, ok := GetJSON[fixture](c, "search:dune")
	require.True(t, ok)
	assert.Equal(t, "new", got.Title)
}

func TestCache_SerializationFailureDegradesToMiss(t *testing.T) {
	c := newTestCache(t)

	// Channels are not JSON-serializable; the write must be dropped, not panic.
	c.Set("search:bad", make(chan int), time.Minute)

	_, ok := c.Get("search:bad")
	assert.False(t, ok)
}

func TestCache_SweepReclaimsUnreadEntries(t *testing.T) {
	c := newTestCache(t)

	c.Set("search:stale", fixture{}, time.Millisecond)
	c.Set("search:fresh", fixture{}, time.Hour)
	time.Sleep(10 * time.Millisecond)

	c.sweep()

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("search:fresh")
	assert.True(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for range 200 {
				c.Set("search:shared", fixture{Count: n}, time.Minute)
				c.Get("search:shared")
				c.Del("search:other")
			}
		}(i)
	}
	wg.Wait()

	_, ok := c.Get("search:shared")
	assert.True(t, ok)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "search:dune herbert", SearchKey("dune herbert"))
	assert.Equal(t, "recommendations:user-1", RecommendationsKey("user-1"))
}
