// Package graph implements the graph engine: a typed state-machine runtime
// over runstate.Run with pure nodes, conditional edges, a parallel
// fan-out/fan-in stage, pluggable checkpointing, and cooperative per-run
// cancellation. Routing is conditional rather than a fixed dependency
// graph, since control flow depends on runtime values (route, verdict,
// revision count).
package graph

import (
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// PartialState is what a node returns: the fields it wrote. Nil fields are
// left untouched by Merge. List-valued fields named in the data model
// (scraped_content, code_results, errors) are append-concat; everything
// else overwrites.
type PartialState struct {
	Route                *runstate.Route
	RoutingConfidence     *float64
	NeedsClarification    *bool
	ClarificationAnswer   *string
	ResearchPlan          []string // whole-slice replace (planner/refine_plan set this explicitly)
	ScrapedContent        []runstate.ResultBag
	DraftReport           *string
	FinalReport           *string
	Evaluation            *runstate.Evaluation
	RevisionCount         *int
	Messages              []runstate.Message
	CodeResults           []runstate.CodeResult
	IsComplete            *bool
	Errors                []string
}

// Merge applies a node's partial state onto the run in place, following
// the field-wise merge rule documented on PartialState.
func Merge(run *runstate.Run, p PartialState) {
	if p.Route != nil {
		run.Route = *p.Route
	}
	if p.RoutingConfidence != nil {
		run.RoutingConfidence = *p.RoutingConfidence
	}
	if p.NeedsClarification != nil {
		run.NeedsClarification = *p.NeedsClarification
	}
	if p.ClarificationAnswer != nil {
		run.ClarificationAnswer = *p.ClarificationAnswer
	}
	if p.ResearchPlan != nil {
		run.ResearchPlan = p.ResearchPlan
	}
	if len(p.ScrapedContent) > 0 {
		run.ScrapedContent = append(run.ScrapedContent, p.ScrapedContent...)
	}
	if p.DraftReport != nil {
		run.DraftReport = *p.DraftReport
	}
	if p.FinalReport != nil {
		run.FinalReport = *p.FinalReport
	}
	if p.Evaluation != nil {
		run.Evaluation = *p.Evaluation
	}
	if p.RevisionCount != nil {
		run.RevisionCount = *p.RevisionCount
	}
	if len(p.Messages) > 0 {
		run.Messages = append(run.Messages, p.Messages...)
	}
	if len(p.CodeResults) > 0 {
		run.CodeResults = append(run.CodeResults, p.CodeResults...)
	}
	if p.IsComplete != nil {
		run.IsComplete = *p.IsComplete
	}
	if len(p.Errors) > 0 {
		run.Errors = append(run.Errors, p.Errors...)
	}
}
