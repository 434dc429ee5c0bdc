// Package nodes implements the nine node types wired into the research
// graph: router, clarifier, direct_answer, planner, searcher,
// initiate_research, writer, evaluator, refine_plan, reviser, human_review.
// Each node closes over a shared Deps bundle of process-wide collaborators
// and applies a "structured output with a post-processing pass on the raw
// LLM result" discipline (planner's clamp/fallback, evaluator's downgrade
// rule, refine_plan's query synthesis).
package nodes

import (
	"github.com/codeready-toolchain/deepsearch/pkg/aggregate"
	"github.com/codeready-toolchain/deepsearch/pkg/cache"
	"github.com/codeready-toolchain/deepsearch/pkg/llm"
	"github.com/codeready-toolchain/deepsearch/pkg/masking"
	"github.com/codeready-toolchain/deepsearch/pkg/search"
	"github.com/codeready-toolchain/deepsearch/pkg/tools"
	"github.com/codeready-toolchain/deepsearch/pkg/verify"
)

// Deps bundles the process-wide collaborators every node needs (cache,
// tool registry, trigger registry are process-wide, shared across runs)
// plus the run-configuration knobs a loaded pkg/config.Config carries. A
// full config loader assembles one of these per run; the fields here are
// exactly the subset the node set consults.
type Deps struct {
	LLM      llm.Client
	Search   search.Client
	Cache    *cache.Cache
	Dedup    *cache.Deduplicator
	Invoker  *tools.Invoker
	Verifier *verify.Verifier
	// Masker redacts secrets from report text before it's checkpointed or
	// returned to a caller. Nil disables redaction.
	Masker *masking.Service

	ConfidenceThreshold float64         // router clarify threshold, default 0.6
	SearchModeOverride  string          // config.search_mode; bypasses the router classifier when non-empty
	MaxResultsPerQuery  int             // default 3
	MaxRevisions        int             // config.max_revisions
	AllowInterrupts     bool            // config.allow_interrupts
	HumanReviewEnabled  bool            // config.human_review
	AggregateOptions    aggregate.Options
	EvidenceMax1        int // to_context tier caps
	EvidenceMax2        int
	EvidenceMax3        int
	EvidenceMaxChars    int
}

func strPtr(s string) *string     { return &s }
func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
