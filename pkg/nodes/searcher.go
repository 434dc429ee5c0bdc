package nodes

import (
	"context"
	"time"

	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// InitiateResearch is the fan-out node: it deduplicates research_plan via
// the query deduplicator and dispatches one Searcher sub-task
// per query not yet reflected in scraped_content. Re-entering after
// refine_plan appends new (already-deduped) queries, the length delta
// between the unique plan and the bags collected so far is exactly the
// set of newly added queries, so only those are redispatched.
type InitiateResearch struct {
	Deps Deps
}

func NewInitiateResearch(deps Deps) *InitiateResearch { return &InitiateResearch{Deps: deps} }

func (n *InitiateResearch) Name() string { return "initiate_research" }

func (n *InitiateResearch) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	return graph.PartialState{}, nil
}

func (n *InitiateResearch) Tasks(run *runstate.Run) []graph.SubTask {
	dedup := n.Deps.Dedup
	unique := run.ResearchPlan
	if dedup != nil {
		unique, _ = dedup.Deduplicate(run.ResearchPlan)
	}
	dispatched := len(run.ScrapedContent)
	if dispatched >= len(unique) {
		return nil
	}
	pending := unique[dispatched:]
	tasks := make([]graph.SubTask, len(pending))
	for i, q := range pending {
		tasks[i] = graph.SubTask{Query: q}
	}
	return tasks
}

// RunSub is the searcher's actual work for one query: cache-check, search
// on miss, populate the cache, return a single result bag.
func (n *InitiateResearch) RunSub(ctx context.Context, run *runstate.Run, task graph.SubTask) (graph.PartialState, error) {
	if run.IsCancelled {
		return graph.PartialState{}, nil
	}

	maxResults := n.Deps.MaxResultsPerQuery
	if maxResults <= 0 {
		maxResults = 3
	}

	if cached, _, found := n.Deps.Cache.Get(task.Query); found {
		return graph.PartialState{ScrapedContent: []runstate.ResultBag{{
			Query:     task.Query,
			Timestamp: time.Now(),
			Cached:    true,
			Results:   cached,
		}}}, nil
	}

	result, err := n.Deps.Invoker.Invoke(ctx, run, "search_web", map[string]any{
		"query":       task.Query,
		"max_results": maxResults,
	})
	if err != nil || result == nil || !result.Success {
		msg := "search failed"
		if err != nil {
			msg = err.Error()
		} else if result != nil {
			msg = result.Error
		}
		return graph.PartialState{
			Errors:         []string{"searcher: " + task.Query + ": " + msg},
			ScrapedContent: []runstate.ResultBag{{Query: task.Query, Timestamp: time.Now()}},
		}, nil
	}

	hits, _ := result.Metadata["hits"].([]runstate.SearchHit)
	n.Deps.Cache.Set(task.Query, hits)

	return graph.PartialState{ScrapedContent: []runstate.ResultBag{{
		Query:     task.Query,
		Timestamp: time.Now(),
		Cached:    false,
		Results:   hits,
	}}}, nil
}

func (n *InitiateResearch) Edge(run *runstate.Run) string { return "writer" }
