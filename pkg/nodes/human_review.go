package nodes

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// HumanReview is the run's terminal node. If allow_interrupts and
// human_review are both set, it suspends the run carrying the draft (or
// the clarification question, or the direct answer) for external review;
// resuming supplies the caller's edited content as the final report. If
// either config flag is unset, it passes the existing report through
// unchanged and marks the run complete.
type HumanReview struct {
	Deps Deps
}

func NewHumanReview(deps Deps) *HumanReview { return &HumanReview{Deps: deps} }

func (h *HumanReview) Name() string { return "human_review" }

func (h *HumanReview) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	if run.IsComplete {
		// Clarifier or direct_answer already set the final report; nothing
		// further to review unless interrupts are explicitly wanted for it.
		if !h.Deps.AllowInterrupts || !h.Deps.HumanReviewEnabled {
			return graph.PartialState{}, nil
		}
	}

	content := run.FinalReport
	if content == "" {
		content = run.DraftReport
	}

	if !h.Deps.AllowInterrupts || !h.Deps.HumanReviewEnabled {
		return graph.PartialState{FinalReport: strPtr(content), IsComplete: boolPtr(true)}, nil
	}

	if run.ClarificationAnswer == "" {
		return graph.PartialState{FinalReport: strPtr(content)}, &graph.InterruptError{
			Interrupt: graph.Interrupt{NodeName: "human_review", Payload: content},
		}
	}

	return graph.PartialState{
		FinalReport: strPtr(run.ClarificationAnswer),
		IsComplete:  boolPtr(true),
	}, nil
}

func (h *HumanReview) Edge(run *runstate.Run) string { return graph.End }
