package nodes

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

var clarifierSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"need_clarification": map[string]any{"type": "boolean"},
		"question":           map[string]any{"type": "string"},
		"verification":       map[string]any{"type": "string"},
	},
	"required": []string{"need_clarification"},
}

type clarifierOutput struct {
	NeedClarification bool   `json:"need_clarification"`
	Question          string `json:"question"`
	Verification      string `json:"verification"`
}

// Clarifier decides whether the input is ambiguous enough to ask the
// caller a question before researching. On true, the question becomes the
// run's final report and the run completes immediately — a clarification
// *is* the output unless the caller resumes with the missing context.
type Clarifier struct {
	Deps Deps
}

func NewClarifier(deps Deps) *Clarifier { return &Clarifier{Deps: deps} }

func (c *Clarifier) Name() string { return "clarifier" }

func (c *Clarifier) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	messages := []runstate.Message{
		{Role: runstate.RoleSystem, Content: "Decide whether this request needs clarification before research can begin. Respond as JSON {\"need_clarification\": bool, \"question\": str, \"verification\": str}."},
		{Role: runstate.RoleUser, Content: run.Input},
	}

	var out clarifierOutput
	if err := structuredCall(ctx, c.Deps.LLM, messages, clarifierSchema, &out); err != nil {
		run.AddError("clarifier: " + err.Error())
		return graph.PartialState{NeedsClarification: boolPtr(false)}, nil
	}

	if out.NeedClarification {
		return graph.PartialState{
			NeedsClarification: boolPtr(true),
			FinalReport:        strPtr(out.Question),
			IsComplete:         boolPtr(true),
		}, nil
	}
	return graph.PartialState{NeedsClarification: boolPtr(false)}, nil
}

// Edge: clarify-needed short-circuits to human_review (the terminal);
// otherwise control proceeds to planner.
func (c *Clarifier) Edge(run *runstate.Run) string {
	if run.NeedsClarification {
		return "human_review"
	}
	return "planner"
}
