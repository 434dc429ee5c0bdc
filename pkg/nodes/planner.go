package nodes

import (
	"context"
	"strings"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

const (
	plannerMinQueries = 3
	plannerMaxQueries = 6
)

var plannerSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"queries":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"reasoning": map[string]any{"type": "string"},
	},
	"required": []string{"queries"},
}

type plannerOutput struct {
	Queries   []string `json:"queries"`
	Reasoning string   `json:"reasoning"`
}

// Planner produces the initial research_plan: 3..7 candidate queries from
// the model, post-processed down to a clean, clamped, deduped list. On
// any failure it falls back to the deterministic minimum plan [input].
type Planner struct {
	Deps Deps
}

func NewPlanner(deps Deps) *Planner { return &Planner{Deps: deps} }

func (p *Planner) Name() string { return "planner" }

func (p *Planner) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	messages := []runstate.Message{
		{Role: runstate.RoleSystem, Content: "Break this research request into 3 to 7 concrete search queries. Respond as JSON {\"queries\": [...], \"reasoning\": str}."},
		{Role: runstate.RoleUser, Content: run.Input},
	}

	var out plannerOutput
	if err := structuredCall(ctx, p.Deps.LLM, messages, plannerSchema, &out); err != nil {
		run.AddError("planner: " + err.Error())
		return graph.PartialState{ResearchPlan: []string{run.Input}}, nil
	}

	plan := normalizePlan(out.Queries)
	if len(plan) == 0 {
		plan = []string{run.Input}
	}
	return graph.PartialState{ResearchPlan: plan}, nil
}

// normalizePlan strips whitespace, drops empties, case-insensitively
// dedups while preserving first-occurrence order, and clamps to
// plannerMaxQueries.
func normalizePlan(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
		if len(out) >= plannerMaxQueries {
			break
		}
	}
	return out
}

func (p *Planner) Edge(run *runstate.Run) string { return "initiate_research" }
