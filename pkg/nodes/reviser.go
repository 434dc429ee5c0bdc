package nodes

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/llm"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// Reviser rewrites the existing draft in light of the evaluator's
// feedback without re-researching: used when a "revise" verdict reflects
// a coherence/accuracy problem in the writing itself rather than a gap in
// evidence. Increments revision_count and loops back to evaluator so the
// rewritten draft is re-graded (O3: revision rounds are strictly
// serialized).
type Reviser struct {
	Deps Deps
}

func NewReviser(deps Deps) *Reviser { return &Reviser{Deps: deps} }

func (r *Reviser) Name() string { return "reviser" }

func (r *Reviser) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	resp, err := r.Deps.LLM.Invoke(ctx, llm.Request{Messages: []runstate.Message{
		{Role: runstate.RoleSystem, Content: "Revise the draft report to address the evaluator's feedback. Preserve existing citation tags exactly; do not renumber them."},
		{Role: runstate.RoleUser, Content: run.Input},
		{Role: runstate.RoleAssistant, Content: run.DraftReport},
		{Role: runstate.RoleUser, Content: run.Evaluation.Summary},
	}})
	if err != nil {
		run.AddError("reviser: " + err.Error())
		return graph.PartialState{RevisionCount: intPtr(run.RevisionCount + 1)}, nil
	}
	draft := resp.Content
	if r.Deps.Masker != nil {
		draft = r.Deps.Masker.Redact(draft)
	}
	return graph.PartialState{
		DraftReport:   strPtr(draft),
		RevisionCount: intPtr(run.RevisionCount + 1),
	}, nil
}

func (r *Reviser) Edge(run *runstate.Run) string { return "evaluator" }
