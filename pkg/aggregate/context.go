package aggregate

import (
	"fmt"
	"strings"
)

// ToContext renders a writer-facing evidence block: inline citation-tagged
// excerpts followed by a sources table, capped at max1/max2/max3 items per
// tier and maxChars total. Citation tags are carried through unchanged so a
// reviser can preserve them across revisions.
func (r Result) ToContext(max1, max2, max3, maxChars int) string {
	var b strings.Builder
	remaining := maxChars
	if maxChars <= 0 {
		remaining = -1 // unbounded
	}

	write := func(s string) bool {
		if remaining >= 0 {
			if len(s) > remaining {
				return false
			}
			remaining -= len(s)
		}
		b.WriteString(s)
		return true
	}

	writeTier := func(label string, tier []Evidence, max int) {
		if len(tier) == 0 {
			return
		}
		if max > 0 && len(tier) > max {
			tier = tier[:max]
		}
		if !write(fmt.Sprintf("## %s\n\n", label)) {
			return
		}
		for _, ev := range tier {
			line := fmt.Sprintf("%s %s\n", ev.Citation, excerpt(ev))
			if !write(line) {
				return
			}
		}
		write("\n")
	}

	writeTier("Tier 1 evidence", r.Tier1, max1)
	writeTier("Tier 2 evidence", r.Tier2, max2)
	writeTier("Tier 3 evidence", r.Tier3, max3)

	write("## Sources\n\n")
	for _, ev := range allEvidence(r) {
		line := fmt.Sprintf("%s %s — %s\n", ev.Citation, titleOrURL(ev), ev.Hit.URL)
		if !write(line) {
			break
		}
	}

	return b.String()
}

func excerpt(ev Evidence) string {
	s := ev.Hit.Summary()
	if s == "" {
		s = ev.Hit.Title
	}
	return s
}

func titleOrURL(ev Evidence) string {
	if ev.Hit.Title != "" {
		return ev.Hit.Title
	}
	return ev.Hit.URL
}

func allEvidence(r Result) []Evidence {
	all := make([]Evidence, 0, len(r.Tier1)+len(r.Tier2)+len(r.Tier3))
	all = append(all, r.Tier1...)
	all = append(all, r.Tier2...)
	all = append(all, r.Tier3...)
	return all
}

// CompactSource is a trimmed, deduplicated source listing suitable for
// embedding in a report's citation list.
type CompactSource struct {
	Title         string
	URL           string
	Provider      string
	PublishedDate string
	Score         float64
}

// CompactUniqueSources dedupes by canonical URL and projects to a compact
// shape, capped at limit (default 5).
func CompactUniqueSources(evidence []Evidence, limit int) []CompactSource {
	if limit <= 0 {
		limit = 5
	}
	seen := make(map[string]bool)
	out := make([]CompactSource, 0, limit)
	for _, ev := range evidence {
		url := CanonicalizeURL(ev.Hit.URL)
		if seen[url] {
			continue
		}
		seen[url] = true
		out = append(out, CompactSource{
			Title:         ev.Hit.Title,
			URL:           url,
			Provider:      ev.Hit.Provider,
			PublishedDate: ev.Hit.PublishedDate,
			Score:         ev.Hit.Score,
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}
