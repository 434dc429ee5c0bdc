package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

func TestCanonicalizeURLIdempotent(t *testing.T) {
	raw := "HTTPS://Example.COM/Path/?utm_source=x&q=1#frag"
	once := CanonicalizeURL(raw)
	twice := CanonicalizeURL(once)
	assert.Equal(t, once, twice)
	assert.NotContains(t, once, "utm_source")
	assert.NotContains(t, once, "#frag")
}

func TestCanonicalizeURLStripsTrailingSlashAndLowercasesHost(t *testing.T) {
	got := CanonicalizeURL("https://Example.COM/path/")
	assert.Equal(t, "https://example.com/path", got)
}

func TestCanonicalizeURLPassesThroughRelative(t *testing.T) {
	assert.Equal(t, "/relative/path", CanonicalizeURL("/relative/path"))
}

func bagsFixture() []runstate.ResultBag {
	return []runstate.ResultBag{
		{
			Query:     "battery energy density",
			Timestamp: time.Now(),
			Results: []runstate.SearchHit{
				{URL: "https://a.example/1", Title: "Lithium batteries", Snippet: "Energy density is high", Score: 0.9},
				{URL: "https://a.example/1?utm_source=x", Title: "Lithium batteries", Snippet: "Energy density is high", Score: 0.5},
				{URL: "https://b.example/2", Title: "Sodium batteries", Snippet: "Lower cost", Score: 0.4},
			},
		},
		{
			Query: "sodium ion batteries",
			Results: []runstate.SearchHit{
				{URL: "https://c.example/3", Title: "Sodium ion review", Snippet: "Comparison data", Score: 0.2},
			},
		},
	}
}

func TestAggregateDedupsByCanonicalURLKeepingHighestScore(t *testing.T) {
	result := Aggregate(bagsFixture(), Options{})
	urls := map[string]float64{}
	for _, ev := range allEvidence(result) {
		urls[ev.Hit.URL] = ev.Hit.Score
	}
	score, ok := urls["https://a.example/1"]
	assert.True(t, ok)
	assert.Equal(t, 0.9, score)
}

func TestAggregateTiersByScore(t *testing.T) {
	result := Aggregate(bagsFixture(), Options{})
	for _, ev := range result.Tier1 {
		assert.GreaterOrEqual(t, ev.Hit.Score, DefaultTier1Threshold)
	}
	for _, ev := range result.Tier2 {
		assert.GreaterOrEqual(t, ev.Hit.Score, DefaultTier2Threshold)
		assert.Less(t, ev.Hit.Score, DefaultTier1Threshold)
	}
	for _, ev := range result.Tier3 {
		assert.Less(t, ev.Hit.Score, DefaultTier2Threshold)
	}
}

func TestAggregateMonotonicity(t *testing.T) {
	// Removing any hit from the input never promotes a surviving hit to a
	// higher tier.
	bags := bagsFixture()
	before := Aggregate(bags, Options{})
	tierOf := func(r Result, url string) int {
		for _, ev := range r.Tier1 {
			if ev.Hit.URL == url {
				return 1
			}
		}
		for _, ev := range r.Tier2 {
			if ev.Hit.URL == url {
				return 2
			}
		}
		for _, ev := range r.Tier3 {
			if ev.Hit.URL == url {
				return 3
			}
		}
		return 0
	}

	reduced := make([]runstate.ResultBag, len(bags))
	copy(reduced, bags)
	reduced[1] = runstate.ResultBag{Query: bags[1].Query} // drop its only hit

	after := Aggregate(reduced, Options{})
	for _, ev := range allEvidence(before) {
		beforeTier := tierOf(before, ev.Hit.URL)
		afterTier := tierOf(after, ev.Hit.URL)
		if afterTier == 0 {
			continue // hit removed entirely, not promoted
		}
		assert.GreaterOrEqual(t, afterTier, beforeTier)
	}
}

func TestAggregateCitationTagsStable(t *testing.T) {
	result := Aggregate(bagsFixture(), Options{})
	ctx := result.ToContext(5, 5, 5, 0)
	assert.Contains(t, ctx, "[S1-1]")
	assert.Contains(t, ctx, "## Sources")
}

func TestCompactUniqueSourcesDedupesAndCaps(t *testing.T) {
	result := Aggregate(bagsFixture(), Options{})
	sources := CompactUniqueSources(allEvidence(result), 2)
	assert.LessOrEqual(t, len(sources), 2)
}
