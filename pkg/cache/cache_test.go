package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

func hit(url string, score float64) runstate.SearchHit {
	return runstate.SearchHit{URL: url, Score: score}
}

func TestCacheExactHitIncrementsHits(t *testing.T) {
	c := New(10, time.Hour, 0.85)
	c.Set("AI chips", []runstate.SearchHit{hit("https://a.example", 0.9)})

	results, exact, found := c.Get("AI chips")
	require.True(t, found)
	assert.True(t, exact)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, c.Stats().Hits)
}

func TestCacheFuzzyHit(t *testing.T) {
	c := New(10, time.Hour, 0.85)
	c.Set("ai chips 2024", []runstate.SearchHit{hit("https://a.example", 0.9)})

	// Extra whitespace and mixed case normalize to the same key.
	results, exact, found := c.Get("AI   Chips 2024")
	require.True(t, found)
	assert.True(t, exact)
	assert.Len(t, results, 1)
}

func TestCacheExpiredEntryIsMiss(t *testing.T) {
	c := New(10, time.Millisecond, 0.85)
	c.Set("stale query", []runstate.SearchHit{hit("https://a.example", 0.5)})
	time.Sleep(5 * time.Millisecond)

	_, _, found := c.Get("stale query")
	assert.False(t, found)
	assert.Equal(t, 1, c.Stats().Misses)
}

func TestCacheEvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := New(2, time.Hour, 0.85)
	c.Set("first", []runstate.SearchHit{hit("https://1.example", 0.1)})
	c.Set("second", []runstate.SearchHit{hit("https://2.example", 0.1)})
	// Touch "first" so "second" becomes least-recently-used.
	_, _, _ = c.Get("first")
	c.Set("third", []runstate.SearchHit{hit("https://3.example", 0.1)})

	_, _, foundSecond := c.Get("second")
	_, _, foundFirst := c.Get("first")
	_, _, foundThird := c.Get("third")
	assert.False(t, foundSecond)
	assert.True(t, foundFirst)
	assert.True(t, foundThird)
}

func TestCacheCleanupExpiredRemovesStaleEntries(t *testing.T) {
	c := New(10, time.Millisecond, 0.85)
	c.Set("a", []runstate.SearchHit{hit("https://a.example", 0.1)})
	c.Set("b", []runstate.SearchHit{hit("https://b.example", 0.1)})
	time.Sleep(5 * time.Millisecond)

	removed := c.CleanupExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestCacheHitRate(t *testing.T) {
	c := New(10, time.Hour, 0.85)
	c.Set("q", []runstate.SearchHit{hit("https://a.example", 0.1)})
	_, _, _ = c.Get("q")
	_, _, _ = c.Get("missing")

	stats := c.Stats()
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
}
