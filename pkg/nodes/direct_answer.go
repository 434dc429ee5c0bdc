package nodes

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/llm"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// DirectAnswer handles the "direct" route: a single-turn LLM call whose
// content becomes the final report, with no research fan-out.
type DirectAnswer struct {
	Deps Deps
}

func NewDirectAnswer(deps Deps) *DirectAnswer { return &DirectAnswer{Deps: deps} }

func (d *DirectAnswer) Name() string { return "direct_answer" }

func (d *DirectAnswer) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	resp, err := d.Deps.LLM.Invoke(ctx, llm.Request{
		Messages: []runstate.Message{
			{Role: runstate.RoleUser, Content: run.Input},
		},
	})
	if err != nil {
		run.AddError("direct_answer: " + err.Error())
		return graph.PartialState{FinalReport: strPtr(""), IsComplete: boolPtr(true)}, nil
	}
	content := resp.Content
	if d.Deps.Masker != nil {
		content = d.Deps.Masker.Redact(content)
	}
	return graph.PartialState{FinalReport: strPtr(content), IsComplete: boolPtr(true)}, nil
}

func (d *DirectAnswer) Edge(run *runstate.Run) string { return "human_review" }
