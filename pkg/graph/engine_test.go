package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestGraphLinearRouting(t *testing.T) {
	cancel := NewCancelRegistry()
	checkpt := NewMemoryCheckpointer()
	b := NewBuilder("test", "start", cancel, checkpt)

	b.AddNode(FuncNode{
		NodeName: "start",
		Fn: func(ctx context.Context, run *runstate.Run) (PartialState, error) {
			return PartialState{DraftReport: strp("draft")}, nil
		},
	}, func(run *runstate.Run) string { return "finish" })

	b.AddNode(FuncNode{
		NodeName: "finish",
		Fn: func(ctx context.Context, run *runstate.Run) (PartialState, error) {
			return PartialState{FinalReport: strp(run.DraftReport), IsComplete: boolp(true)}, nil
		},
	}, func(run *runstate.Run) string { return End })

	g, err := b.Build()
	require.NoError(t, err)

	run := &runstate.Run{RunID: "r1", ThreadID: "t1"}
	result, err := g.Run(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, "draft", result.Run.FinalReport)
	assert.True(t, result.Run.IsComplete)
}

func TestGraphConditionalRouting(t *testing.T) {
	cancel := NewCancelRegistry()
	checkpt := NewMemoryCheckpointer()
	b := NewBuilder("test", "router", cancel, checkpt)

	b.AddNode(FuncNode{
		NodeName: "router",
		Fn: func(ctx context.Context, run *runstate.Run) (PartialState, error) {
			route := runstate.RouteDirect
			return PartialState{Route: &route}, nil
		},
	}, func(run *runstate.Run) string {
		if run.Route == runstate.RouteDirect {
			return "direct"
		}
		return "other"
	})
	b.AddNode(FuncNode{
		NodeName: "direct",
		Fn: func(ctx context.Context, run *runstate.Run) (PartialState, error) {
			return PartialState{IsComplete: boolp(true)}, nil
		},
	}, func(run *runstate.Run) string { return End })

	g, err := b.Build()
	require.NoError(t, err)
	run := &runstate.Run{RunID: "r2"}
	result, err := g.Run(context.Background(), run)
	require.NoError(t, err)
	assert.True(t, result.Run.IsComplete)
}

func TestGraphCancellationStopsAtBoundary(t *testing.T) {
	cancel := NewCancelRegistry()
	checkpt := NewMemoryCheckpointer()
	b := NewBuilder("test", "start", cancel, checkpt)

	calls := 0
	b.AddNode(FuncNode{
		NodeName: "start",
		Fn: func(ctx context.Context, run *runstate.Run) (PartialState, error) {
			calls++
			return PartialState{}, nil
		},
	}, func(run *runstate.Run) string { return "start" }) // would loop forever without cancellation

	g, err := b.Build()
	require.NoError(t, err)
	run := &runstate.Run{RunID: "cancel-me"}
	cancel.Cancel("cancel-me")

	result, err := g.Run(context.Background(), run)
	require.ErrorIs(t, err, ErrRunCancelled)
	assert.True(t, result.Run.IsCancelled)
	assert.Equal(t, 0, calls)
}

func TestGraphInterruptSuspendsAndResumes(t *testing.T) {
	cancel := NewCancelRegistry()
	checkpt := NewMemoryCheckpointer()
	b := NewBuilder("test", "review", cancel, checkpt)

	b.AddNode(FuncNode{
		NodeName: "review",
		Fn: func(ctx context.Context, run *runstate.Run) (PartialState, error) {
			if run.ClarificationAnswer == "" {
				return PartialState{DraftReport: strp("draft")}, &InterruptError{Interrupt: Interrupt{NodeName: "review", Payload: "draft"}}
			}
			return PartialState{FinalReport: strp(run.ClarificationAnswer), IsComplete: boolp(true)}, nil
		},
	}, func(run *runstate.Run) string { return End })

	g, err := b.Build()
	require.NoError(t, err)

	run := &runstate.Run{RunID: "r3", ThreadID: "t3"}
	result, err := g.Run(context.Background(), run)
	require.NoError(t, err)
	assert.True(t, result.Suspended)
	require.NotNil(t, result.Interrupt)
	assert.Equal(t, "review", result.Interrupt.NodeName)

	run.ClarificationAnswer = "edited content"
	result2, err := g.Resume(context.Background(), run, "review")
	require.NoError(t, err)
	assert.False(t, result2.Suspended)
	assert.Equal(t, "edited content", result2.Run.FinalReport)
}

func TestGraphFanOutBarrierMergesAllResults(t *testing.T) {
	cancel := NewCancelRegistry()
	checkpt := NewMemoryCheckpointer()
	b := NewBuilder("test", "fanout", cancel, checkpt)

	b.AddNode(fanOutNode{queries: []string{"a", "b", "c"}}, func(run *runstate.Run) string { return End })

	g, err := b.Build()
	require.NoError(t, err)
	run := &runstate.Run{RunID: "r4"}
	result, err := g.Run(context.Background(), run)
	require.NoError(t, err)
	assert.Len(t, result.Run.ScrapedContent, 3)
}

type fanOutNode struct {
	queries []string
}

func (f fanOutNode) Name() string { return "fanout" }
func (f fanOutNode) Run(ctx context.Context, run *runstate.Run) (PartialState, error) {
	return PartialState{}, nil
}
func (f fanOutNode) Tasks(run *runstate.Run) []SubTask {
	tasks := make([]SubTask, len(f.queries))
	for i, q := range f.queries {
		tasks[i] = SubTask{Query: q}
	}
	return tasks
}
func (f fanOutNode) RunSub(ctx context.Context, run *runstate.Run, task SubTask) (PartialState, error) {
	return PartialState{ScrapedContent: []runstate.ResultBag{{Query: task.Query}}}, nil
}
