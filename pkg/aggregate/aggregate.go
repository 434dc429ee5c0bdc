package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// Default thresholds for aggregation run without explicit Options.
const (
	DefaultMaxResultsPerQuery = 3
	DefaultContentSimilarity  = 0.7
	DefaultTier1Threshold     = 0.6
	DefaultTier2Threshold     = 0.3
)

// Options configures the aggregation procedure; zero values fall back to
// the package defaults.
type Options struct {
	MaxResultsPerQuery int
	ContentSimilarity  float64
	Tier1Threshold     float64
	Tier2Threshold     float64
}

func (o Options) withDefaults() Options {
	if o.MaxResultsPerQuery <= 0 {
		o.MaxResultsPerQuery = DefaultMaxResultsPerQuery
	}
	if o.ContentSimilarity <= 0 {
		o.ContentSimilarity = DefaultContentSimilarity
	}
	if o.Tier1Threshold <= 0 {
		o.Tier1Threshold = DefaultTier1Threshold
	}
	if o.Tier2Threshold <= 0 {
		o.Tier2Threshold = DefaultTier2Threshold
	}
	return o
}

// taggedHit carries enough bookkeeping through the pipeline to rebuild
// stable citation tags and preserve insertion order on score ties.
type taggedHit struct {
	queryOrdinal int
	hitOrdinal   int
	hit          runstate.SearchHit
	insertionIdx int
}

// Result is the aggregator's output: {tier_1, tier_2, tier_3, total_before,
// total_after}.
type Result struct {
	Tier1       []Evidence
	Tier2       []Evidence
	Tier3       []Evidence
	TotalBefore int
	TotalAfter  int
}

// Evidence is one surviving hit, tagged with its stable citation marker.
type Evidence struct {
	Citation string
	Hit      runstate.SearchHit
	Query    string
}

// contentSimilarity reuses the same normalized-Levenshtein-ratio approach
// as pkg/cache, over title+snippet concatenation.
func contentSimilarity(a, b string) float64 {
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

func contentKey(h runstate.SearchHit) string {
	return strings.ToLower(strings.TrimSpace(h.Title + " " + h.Snippet))
}

// Aggregate runs the full flatten → canonicalize → dedup → cap → rank →
// tier procedure over a run's scraped_content.
func Aggregate(bags []runstate.ResultBag, opts Options) Result {
	opts = opts.withDefaults()

	// 1. Flatten, tagging query/hit ordinals for stable citations.
	var flat []taggedHit
	insertionIdx := 0
	for qi, bag := range bags {
		for hi, h := range bag.Results {
			h.URL = CanonicalizeURL(h.URL) // 2. Canonicalize URLs.
			flat = append(flat, taggedHit{
				queryOrdinal: qi + 1,
				hitOrdinal:   hi + 1,
				hit:          h,
				insertionIdx: insertionIdx,
			})
			insertionIdx++
		}
	}
	totalBefore := len(flat)

	// 3a. Dedup by canonical URL, keeping the highest score.
	byURL := make(map[string]taggedHit, len(flat))
	order := make([]string, 0, len(flat))
	for _, th := range flat {
		existing, ok := byURL[th.hit.URL]
		if !ok {
			byURL[th.hit.URL] = th
			order = append(order, th.hit.URL)
			continue
		}
		if th.hit.Score > existing.hit.Score {
			byURL[th.hit.URL] = th
		}
	}
	deduped := make([]taggedHit, 0, len(order))
	for _, u := range order {
		deduped = append(deduped, byURL[u])
	}

	// 3b. Dedup by content similarity on title+snippet over the surviving set.
	var survivors []taggedHit
	for _, th := range deduped {
		key := contentKey(th.hit)
		dup := false
		if key != "" {
			for _, s := range survivors {
				if contentSimilarity(key, contentKey(s.hit)) >= opts.ContentSimilarity {
					if th.hit.Score > s.hit.Score {
						// Keep the higher-scoring of the pair; replace in place.
						for i := range survivors {
							if survivors[i] == s {
								survivors[i] = th
								break
							}
						}
					}
					dup = true
					break
				}
			}
		}
		if !dup {
			survivors = append(survivors, th)
		}
	}

	// 4. Cap per query, preferring higher score.
	perQuery := make(map[int][]taggedHit)
	for _, th := range survivors {
		perQuery[th.queryOrdinal] = append(perQuery[th.queryOrdinal], th)
	}
	var capped []taggedHit
	for _, group := range perQuery {
		sort.SliceStable(group, func(i, j int) bool { return group[i].hit.Score > group[j].hit.Score })
		if len(group) > opts.MaxResultsPerQuery {
			group = group[:opts.MaxResultsPerQuery]
		}
		capped = append(capped, group...)
	}

	// 5. Rank by score descending, stable on ties by original insertion order.
	sort.SliceStable(capped, func(i, j int) bool {
		if capped[i].hit.Score != capped[j].hit.Score {
			return capped[i].hit.Score > capped[j].hit.Score
		}
		return capped[i].insertionIdx < capped[j].insertionIdx
	})

	// 6. Tier by score.
	result := Result{TotalBefore: totalBefore, TotalAfter: len(capped)}
	for _, th := range capped {
		var query string
		if th.queryOrdinal-1 < len(bags) {
			query = bags[th.queryOrdinal-1].Query
		}
		ev := Evidence{
			Citation: citationTag(th.queryOrdinal, th.hitOrdinal),
			Hit:      th.hit,
			Query:    query,
		}
		switch {
		case th.hit.Score >= opts.Tier1Threshold:
			result.Tier1 = append(result.Tier1, ev)
		case th.hit.Score >= opts.Tier2Threshold:
			result.Tier2 = append(result.Tier2, ev)
		default:
			result.Tier3 = append(result.Tier3, ev)
		}
	}

	return result
}

// citationTag produces the stable [Sq-i] marker: query-ordinal, hit-ordinal.
func citationTag(queryOrdinal, hitOrdinal int) string {
	return "[S" + strconv.Itoa(queryOrdinal) + "-" + strconv.Itoa(hitOrdinal) + "]"
}
