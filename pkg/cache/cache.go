// Package cache implements the search-result cache and pre-flight query
// deduplicator: an LRU+TTL cache keyed by normalized query, with a
// fuzzy-similarity fallback lookup for near-duplicate queries that miss the
// exact key. Uses github.com/hashicorp/golang-lru/v2 for the recency
// structure and github.com/agnivade/levenshtein for the similarity ratio.
package cache

import (
	"crypto/md5" //nolint:gosec // used only as a stable key digest, not for security
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// Default sizing for a cache constructed without explicit overrides.
const (
	DefaultMaxSize             = 100
	DefaultTTL                 = time.Hour
	DefaultSimilarityThreshold = 0.85
)

// Entry is the data model's CacheEntry: {query, results, insertion_time,
// hit_count}.
type Entry struct {
	Query        string
	Results      []runstate.SearchHit
	InsertedAt   time.Time
	HitCount     int
}

func (e *Entry) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.InsertedAt) > ttl
}

// Stats is a snapshot of cache hit/miss counters.
type Stats struct {
	Size        int
	MaxSize     int
	Hits        int
	SimilarHits int
	Misses      int
}

// HitRate returns hits+similar_hits over total lookups, or 0 with no lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.SimilarHits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits+s.SimilarHits) / float64(total)
}

// Cache is a thread-safe LRU+TTL search-result cache keyed by normalized
// query, with a fuzzy-similarity secondary lookup path.
type Cache struct {
	mu sync.Mutex

	maxSize             int
	ttl                 time.Duration
	similarityThreshold float64

	// order tracks LRU recency of cache keys; entries is keyed on the same
	// normalized-query hash. hashicorp/golang-lru/v2 supplies the eviction
	// policy itself — Cache wraps it rather than re-implementing recency
	// tracking, and layers TTL/fuzzy lookup on top since the library has no
	// notion of either.
	recency *lru.Cache[string, struct{}]
	entries map[string]*Entry

	hits        int
	similarHits int
	misses      int
}

// New creates a cache with the given bounds. ttl <= 0 or maxSize <= 0 fall
// back to the package defaults.
func New(maxSize int, ttl time.Duration, similarityThreshold float64) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if similarityThreshold <= 0 {
		similarityThreshold = DefaultSimilarityThreshold
	}

	c := &Cache{
		maxSize:             maxSize,
		ttl:                 ttl,
		similarityThreshold: similarityThreshold,
		entries:             make(map[string]*Entry, maxSize),
	}
	// Capacity one larger than maxSize: Cache performs its own eviction on
	// Set so the LRU's own auto-eviction callback never fires in the
	// common path; the extra slot avoids a double-eviction race.
	recency, _ := lru.New[string, struct{}](maxSize + 1)
	c.recency = recency
	return c
}

// normalizeQuery lowercases and collapses whitespace so equivalent queries
// share a cache key regardless of formatting.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// queryHash truncates an MD5 hex digest to 16 chars, short enough to use as
// a map key without carrying the full query string around.
func queryHash(normalized string) string {
	sum := md5.Sum([]byte(normalized)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:16]
}

// similarity returns a 0..1 ratio where 1 means identical, using
// normalized Levenshtein distance as a stand-in for difflib's
// SequenceMatcher ratio — both are threshold-gated near-duplicate
// detectors, not required to agree bit-for-bit.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// Get performs the exact-match lookup, falling back to the fuzzy scan.
// Returns the cached results, whether they came from an exact key hit
// (exact=true) or a fuzzy match (exact=false), and whether anything was
// found at all.
func (c *Cache) Get(query string) (results []runstate.SearchHit, exact bool, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	normalized := normalizeQuery(query)
	key := queryHash(normalized)

	if entry, ok := c.entries[key]; ok {
		if entry.expired(c.ttl, now) {
			c.evictLocked(key)
		} else {
			entry.HitCount++
			c.recency.Add(key, struct{}{})
			c.hits++
			return append([]runstate.SearchHit(nil), entry.Results...), true, true
		}
	}

	if match := c.findSimilarLocked(normalized, now); match != nil {
		match.HitCount++
		c.similarHits++
		return append([]runstate.SearchHit(nil), match.Results...), false, true
	}

	c.misses++
	return nil, false, false
}

// findSimilarLocked linearly scans unexpired entries, evicting any expired
// ones it passes over, and returns the first one whose normalized query
// similarity meets the threshold.
func (c *Cache) findSimilarLocked(normalized string, now time.Time) *Entry {
	var expiredKeys []string
	var match *Entry
	for key, entry := range c.entries {
		if entry.expired(c.ttl, now) {
			expiredKeys = append(expiredKeys, key)
			continue
		}
		if match == nil && similarity(normalized, normalizeQuery(entry.Query)) >= c.similarityThreshold {
			match = entry
		}
	}
	for _, key := range expiredKeys {
		c.evictLocked(key)
	}
	return match
}

// Set inserts or refreshes a cache entry, evicting the least-recently-used
// entry first if at capacity.
func (c *Cache) Set(query string, results []runstate.SearchHit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	normalized := normalizeQuery(query)
	key := queryHash(normalized)

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		if oldest, ok := c.recency.RemoveOldest(); ok {
			delete(c.entries, oldest)
		}
	}

	c.entries[key] = &Entry{
		Query:      query,
		Results:    append([]runstate.SearchHit(nil), results...),
		InsertedAt: time.Now(),
	}
	c.recency.Add(key, struct{}{})
}

func (c *Cache) evictLocked(key string) {
	delete(c.entries, key)
	c.recency.Remove(key)
}

// Clear empties the cache and resets statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry, c.maxSize)
	c.recency.Purge()
	c.hits, c.similarHits, c.misses = 0, 0, 0
}

// CleanupExpired sweeps every entry for expiry outside of a lookup path.
// Returns the number of entries removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	var expired []string
	for key, entry := range c.entries {
		if entry.expired(c.ttl, now) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.evictLocked(key)
	}
	return len(expired)
}

// Stats returns a snapshot of cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:        len(c.entries),
		MaxSize:     c.maxSize,
		Hits:        c.hits,
		SimilarHits: c.similarHits,
		Misses:      c.misses,
	}
}
