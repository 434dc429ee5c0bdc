package nodes

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
	"github.com/codeready-toolchain/deepsearch/pkg/verify"
)

const evalDowngradeThreshold = 0.6

var evaluatorSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary":           map[string]any{"type": "string"},
		"verdict":           map[string]any{"type": "string", "enum": []string{"pass", "revise", "incomplete"}},
		"eval_dimensions":    map[string]any{"type": "object"},
		"missing_topics":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"suggested_queries": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"verdict", "eval_dimensions"},
}

// Evaluator grades the draft against the original request, producing
// coverage/accuracy/freshness/coherence scores. A claim-verification pass
// runs over the draft and the scraped evidence first; its contradiction
// findings are folded into the accuracy prompt context so the model has
// grounding-check results, not just its own judgement.
type Evaluator struct {
	Deps Deps
}

func NewEvaluator(deps Deps) *Evaluator { return &Evaluator{Deps: deps} }

func (e *Evaluator) Name() string { return "evaluator" }

func (e *Evaluator) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	checks := e.Deps.Verifier.VerifyReport(run.DraftReport, run.ScrapedContent, 10)
	contradictions := 0
	for _, c := range checks {
		if c.Status == verify.StatusContradicted {
			contradictions++
		}
	}

	messages := []runstate.Message{
		{Role: runstate.RoleSystem, Content: "Evaluate this draft report against the original request. Score coverage, accuracy, freshness, coherence in [0,1]. Respond as JSON {\"verdict\":..., \"eval_dimensions\": {...}, \"missing_topics\": [...], \"suggested_queries\": [...]}."},
		{Role: runstate.RoleUser, Content: run.Input},
		{Role: runstate.RoleAssistant, Content: run.DraftReport},
	}
	if contradictions > 0 {
		messages = append(messages, runstate.Message{
			Role:    runstate.RoleUser,
			Content: "Note: the claim verifier flagged contradicted claims in this draft; weigh accuracy accordingly.",
		})
	}

	var out struct {
		Summary          string                  `json:"summary"`
		Verdict          runstate.Verdict        `json:"verdict"`
		Dimensions       runstate.EvalDimensions `json:"eval_dimensions"`
		MissingTopics    []string                `json:"missing_topics"`
		SuggestedQueries []string                `json:"suggested_queries"`
	}
	if err := structuredCall(ctx, e.Deps.LLM, messages, evaluatorSchema, &out); err != nil {
		run.AddError("evaluator: " + err.Error())
		eval := runstate.Evaluation{Verdict: runstate.VerdictIncomplete}
		return graph.PartialState{Evaluation: &eval}, nil
	}

	eval := runstate.Evaluation{
		Summary:          out.Summary,
		Verdict:          out.Verdict,
		Dimensions:       out.Dimensions,
		MissingTopics:    out.MissingTopics,
		SuggestedQueries: out.SuggestedQueries,
	}
	// Downgrade rule: pass with a weak dimension or open topics isn't pass.
	if eval.Verdict == runstate.VerdictPass && (eval.Dimensions.Min() < evalDowngradeThreshold || len(eval.MissingTopics) > 0) {
		eval.Verdict = runstate.VerdictRevise
	}

	return graph.PartialState{Evaluation: &eval}, nil
}

// Edge: revise (with budget remaining) goes to refine_plan when the
// evaluator flagged missing topics or suggested new queries (the gap
// needs more research); when revise is purely a write-quality issue
// (feedback present, no new ground to cover), it goes to reviser instead,
// which rewrites the existing evidence rather than re-searching. Pass, or
// revise with no budget left, terminates at human_review.
func (e *Evaluator) Edge(run *runstate.Run) string {
	maxRevisions := e.Deps.MaxRevisions
	if run.Evaluation.Verdict == runstate.VerdictRevise && run.RevisionCount < maxRevisions {
		if len(run.Evaluation.MissingTopics) > 0 || len(run.Evaluation.SuggestedQueries) > 0 {
			return "refine_plan"
		}
		return "reviser"
	}
	return "human_review"
}
