package runstate

import "fmt"

// CheckRevisionBudget enforces that revision_count never exceeds max_revisions.
func (r *Run) CheckRevisionBudget() error {
	if r.RevisionCount > r.MaxRevisions {
		return fmt.Errorf("revision_count %d exceeds max_revisions %d", r.RevisionCount, r.MaxRevisions)
	}
	return nil
}

// CheckPlanCoverage enforces that every scraped_content query is present
// in some generation of research_plan (after dedup the caller applied
// before fan-out).
func (r *Run) CheckPlanCoverage() error {
	planned := make(map[string]bool, len(r.ResearchPlan))
	for _, q := range r.ResearchPlan {
		planned[q] = true
	}
	for _, bag := range r.ScrapedContent {
		if !planned[bag.Query] {
			return fmt.Errorf("scraped_content query %q is not present in research_plan", bag.Query)
		}
	}
	return nil
}

// CheckToolCallBudget enforces that tool_call_count never exceeds limit (0
// = unlimited). Exceeding is fatal: the caller must abort the run.
func (r *Run) CheckToolCallBudget(limit int) error {
	if limit > 0 && r.ToolCallCount > limit {
		return fmt.Errorf("tool_call_count %d exceeds configured limit %d", r.ToolCallCount, limit)
	}
	return nil
}

// CanWrite enforces that once is_complete is true, no further node writes
// state fields except via an explicit resume (resume clears IsComplete
// itself before re-entering the graph).
func (r *Run) CanWrite() bool {
	return !r.IsComplete
}
