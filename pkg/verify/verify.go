// Package verify implements the claim verifier: a deterministic
// claim-to-evidence matcher that extracts candidate claims from a draft
// report and scores each against collected evidence by token overlap and
// negation/trend-direction contradiction detection.
package verify

import (
	"regexp"
	"strings"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

var claimMarkers = []string{
	"research", "study", "report", "data", "according to", "shows", "found",
	"研究", "报告", "数据显示", "统计", "增长", "下降",
}

var negationMarkers = []string{
	"not", "no", "never", "without", "didn't", "doesn't", "isn't", "wasn't",
	"不是", "并非", "没有", "未", "无",
}

var upMarkers = []string{"increase", "increased", "grow", "growth", "up", "rise", "rose", "增长", "上升"}
var downMarkers = []string{"decrease", "decreased", "decline", "down", "fell", "drop", "下降", "减少"}

var stopwords = map[string]bool{
	"the": true, "and": true, "that": true, "this": true, "with": true,
	"from": true, "into": true, "were": true, "was": true, "are": true,
	"for": true, "has": true, "have": true, "had": true, "will": true,
	"about": true,
	"在":    true, "是": true, "了": true, "和": true, "与": true, "对": true, "将": true, "及": true,
}

var (
	sentenceSplit  = regexp.MustCompile(`(?:[。！？.!?])\s+|\n+`)
	numericSignal  = regexp.MustCompile(`\d{2,4}|\d+%|\d+\.\d+`)
	tokenPattern   = regexp.MustCompile(`[a-z0-9\x{4e00}-\x{9fff}]+`)
)

// Status is the verifier's verdict for a single claim.
type Status string

const (
	StatusVerified     Status = "verified"
	StatusContradicted Status = "contradicted"
	StatusUnsupported  Status = "unsupported"
)

// Check is the verifier's structured output for one claim.
type Check struct {
	Claim        string   `json:"claim"`
	Status       Status   `json:"status"`
	EvidenceURLs []string `json:"evidence_urls"`
	Score        float64  `json:"score"`
	Notes        string   `json:"notes"`
}

// Verifier holds verifier configuration. MinOverlapTokens defaults to 2.
type Verifier struct {
	MinOverlapTokens int
}

// New creates a Verifier; minOverlapTokens<=0 defaults to 2.
func New(minOverlapTokens int) *Verifier {
	if minOverlapTokens <= 0 {
		minOverlapTokens = 2
	}
	return &Verifier{MinOverlapTokens: minOverlapTokens}
}

type evidenceItem struct {
	url  string
	text string
}

// VerifyReport extracts up to maxClaims candidate claims from report and
// checks each against scrapedContent's tier 1-2 evidence.
func (v *Verifier) VerifyReport(report string, scrapedContent []runstate.ResultBag, maxClaims int) []Check {
	claims := v.ExtractClaims(report, maxClaims)
	if len(claims) == 0 {
		return nil
	}
	evidence := extractEvidence(scrapedContent)
	checks := make([]Check, 0, len(claims))
	for _, claim := range claims {
		checks = append(checks, v.VerifyClaim(claim, evidence))
	}
	return checks
}

// ExtractClaims extracts sentences that carry a claim marker or a numeric
// pattern, deduped case-insensitively, capped at maxClaims (default 10).
func (v *Verifier) ExtractClaims(report string, maxClaims int) []string {
	if report == "" {
		return nil
	}
	if maxClaims <= 0 {
		maxClaims = 10
	}

	candidates := sentenceSplit.Split(report, -1)
	var claims []string
	seen := map[string]bool{}

	for _, sentence := range candidates {
		text := strings.TrimSpace(sentence)
		if len(text) < 20 {
			continue
		}
		lower := strings.ToLower(text)
		hasSignal := containsAny(lower, claimMarkers) || numericSignal.MatchString(text)
		if !hasSignal {
			continue
		}
		key := lower
		if seen[key] {
			continue
		}
		seen[key] = true
		claims = append(claims, text)
		if len(claims) >= maxClaims {
			break
		}
	}
	return claims
}

// VerifyClaim scores one claim against the full evidence set by token
// overlap, classifying contradicted/verified/unsupported.
func (v *Verifier) VerifyClaim(claim string, evidence []evidenceItem) Check {
	claimTokens := tokenize(claim)
	if len(claimTokens) == 0 {
		return Check{Claim: claim, Status: StatusUnsupported}
	}

	var supportedURLs, contradictedURLs []string
	bestOverlap := 0

	for _, ev := range evidence {
		evidenceTokens := tokenize(ev.text)
		overlap := overlapCount(claimTokens, evidenceTokens)
		if overlap < v.MinOverlapTokens {
			continue
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
		}
		if isContradiction(claim, ev.text) {
			contradictedURLs = appendUnique(contradictedURLs, ev.url)
		} else {
			supportedURLs = appendUnique(supportedURLs, ev.url)
		}
	}

	if len(contradictedURLs) > 0 {
		urls := appendUnique(append([]string{}, contradictedURLs...), supportedURLs...)
		return Check{
			Claim:        claim,
			Status:       StatusContradicted,
			EvidenceURLs: cap5(urls),
			Score:        float64(bestOverlap),
			Notes:        "conflicting evidence found",
		}
	}

	if len(supportedURLs) > 0 {
		return Check{
			Claim:        claim,
			Status:       StatusVerified,
			EvidenceURLs: cap5(supportedURLs),
			Score:        float64(bestOverlap),
			Notes:        "supported by evidence",
		}
	}

	return Check{
		Claim:  claim,
		Status: StatusUnsupported,
		Score:  0,
		Notes:  "no matching evidence",
	}
}

func extractEvidence(scrapedContent []runstate.ResultBag) []evidenceItem {
	var evidence []evidenceItem
	for _, bag := range scrapedContent {
		for _, hit := range bag.Results {
			url := strings.TrimSpace(hit.URL)
			if url == "" {
				url = "unknown"
			}
			text := strings.TrimSpace(hit.Summary())
			if text != "" {
				evidence = append(evidence, evidenceItem{url: url, text: text})
			}
		}
	}
	return evidence
}

func tokenize(text string) map[string]bool {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) > 1 && !stopwords[t] {
			set[t] = true
		}
	}
	return set
}

func overlapCount(a, b map[string]bool) int {
	n := 0
	for t := range a {
		if b[t] {
			n++
		}
	}
	return n
}

func hasNegation(text string) bool {
	return containsAny(strings.ToLower(text), negationMarkers)
}

func trendDirection(text string) int {
	lower := strings.ToLower(text)
	up := containsAny(lower, upMarkers)
	down := containsAny(lower, downMarkers)
	switch {
	case up && !down:
		return 1
	case down && !up:
		return -1
	default:
		return 0
	}
}

func isContradiction(claim, evidence string) bool {
	if hasNegation(claim) != hasNegation(evidence) {
		return true
	}
	claimDir := trendDirection(claim)
	evidenceDir := trendDirection(evidence)
	if claimDir != 0 && evidenceDir != 0 && claimDir != evidenceDir {
		return true
	}
	return false
}

func containsAny(haystack string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(haystack, m) {
			return true
		}
	}
	return false
}

func appendUnique(existing []string, items ...string) []string {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e] = true
	}
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			existing = append(existing, it)
		}
	}
	return existing
}

func cap5(urls []string) []string {
	if len(urls) > 5 {
		return urls[:5]
	}
	return urls
}
