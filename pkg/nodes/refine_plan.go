package nodes

import (
	"context"
	"strings"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/llm"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

const refinePlanMaxFollowUps = 3

// RefinePlan adds targeted follow-up queries after a "revise" verdict:
// prefer the evaluator's suggested_queries, else synthesize from
// missing_topics by appending each to the original query, else ask the
// model for up to three follow-ups. New queries are deduped against the
// existing plan before appending, and revision_count increments.
type RefinePlan struct {
	Deps Deps
}

func NewRefinePlan(deps Deps) *RefinePlan { return &RefinePlan{Deps: deps} }

func (r *RefinePlan) Name() string { return "refine_plan" }

func (r *RefinePlan) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	var candidates []string
	switch {
	case len(run.Evaluation.SuggestedQueries) > 0:
		candidates = run.Evaluation.SuggestedQueries
	case len(run.Evaluation.MissingTopics) > 0:
		for _, topic := range run.Evaluation.MissingTopics {
			candidates = append(candidates, run.Input+" "+topic)
		}
	default:
		resp, err := r.Deps.LLM.Invoke(ctx, llm.Request{Messages: []runstate.Message{
			{Role: runstate.RoleSystem, Content: "Suggest up to three follow-up search queries to fill gaps in this research, one per line."},
			{Role: runstate.RoleUser, Content: run.Input},
			{Role: runstate.RoleAssistant, Content: run.DraftReport},
		}})
		if err == nil {
			for _, line := range strings.Split(resp.Content, "\n") {
				if q := strings.TrimSpace(line); q != "" {
					candidates = append(candidates, q)
				}
			}
		}
		if len(candidates) > refinePlanMaxFollowUps {
			candidates = candidates[:refinePlanMaxFollowUps]
		}
	}

	existing := make(map[string]bool, len(run.ResearchPlan))
	for _, q := range run.ResearchPlan {
		existing[strings.ToLower(strings.TrimSpace(q))] = true
	}

	plan := append([]string(nil), run.ResearchPlan...)
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" || existing[key] {
			continue
		}
		existing[key] = true
		plan = append(plan, q)
	}

	return graph.PartialState{
		ResearchPlan:  plan,
		RevisionCount: intPtr(run.RevisionCount + 1),
	}, nil
}

func (r *RefinePlan) Edge(run *runstate.Run) string { return "initiate_research" }
