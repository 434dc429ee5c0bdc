package nodes

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/aggregate"
	"github.com/codeready-toolchain/deepsearch/pkg/graph"
	"github.com/codeready-toolchain/deepsearch/pkg/llm"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// Writer consumes the tiered evidence projection built from
// scraped_content and drafts a report with inline citation tags and a
// sources table. Sub-tools (e.g. chart generation) may be invoked through
// the same invoker as the searcher; their outputs accumulate in
// code_results, but the base writer here only issues the drafting call —
// tool-using drafting is the continuation loop's job when a writer-bound
// tool is registered, kept as a seam rather than inlined here.
type Writer struct {
	Deps Deps
}

func NewWriter(deps Deps) *Writer { return &Writer{Deps: deps} }

func (w *Writer) Name() string { return "writer" }

func (w *Writer) Run(ctx context.Context, run *runstate.Run) (graph.PartialState, error) {
	result := aggregate.Aggregate(run.ScrapedContent, w.Deps.AggregateOptions)
	evidence := result.ToContext(w.Deps.EvidenceMax1, w.Deps.EvidenceMax2, w.Deps.EvidenceMax3, w.Deps.EvidenceMaxChars)

	messages := []runstate.Message{
		{Role: runstate.RoleSystem, Content: "Write a research report answering the user's request using only the evidence provided. Cite every claim with its [Sq-i] tag and include a sources section."},
		{Role: runstate.RoleUser, Content: run.Input},
		{Role: runstate.RoleUser, Content: evidence},
	}

	resp, err := w.Deps.LLM.Invoke(ctx, llm.Request{Messages: messages})
	if err != nil {
		run.AddError("writer: " + err.Error())
		return graph.PartialState{DraftReport: strPtr("")}, nil
	}
	draft := resp.Content
	if w.Deps.Masker != nil {
		draft = w.Deps.Masker.Redact(draft)
	}
	return graph.PartialState{DraftReport: strPtr(draft)}, nil
}

// Edge: only "deep" route runs the evaluator; everything else (web,
// agent) goes straight to human_review, per the graph diagram.
func (w *Writer) Edge(run *runstate.Run) string {
	if run.Route == runstate.RouteDeep {
		return "evaluator"
	}
	return "human_review"
}
