package graph

import (
	"context"
	"errors"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// Node is a pure (state, config) → partial-state unit of work.
// Collaborators nodes need (LLM client, tool invoker, cache) are
// process-wide and threaded through ctx, not part of run state.
type Node interface {
	Name() string
	Run(ctx context.Context, run *runstate.Run) (PartialState, error)
}

// FuncNode adapts a bare function to Node, the way pkg/tools.Func adapts
// functions to the Tool interface.
type FuncNode struct {
	NodeName string
	Fn       func(ctx context.Context, run *runstate.Run) (PartialState, error)
}

func (n FuncNode) Name() string { return n.NodeName }
func (n FuncNode) Run(ctx context.Context, run *runstate.Run) (PartialState, error) {
	return n.Fn(ctx, run)
}

// SubTask is one unit of fan-out work: a map edge emits a batch of
// (node, sub-state) pairs to run in parallel.
type SubTask struct {
	Query string
}

// FanOutNode is a node whose work is dispatched as N parallel sub-tasks,
// all barriered before the engine proceeds. initiate_research is the
// graph's only fan-out node.
type FanOutNode interface {
	Node
	Tasks(run *runstate.Run) []SubTask
	RunSub(ctx context.Context, run *runstate.Run, task SubTask) (PartialState, error)
}

// EdgeFunc is a pure (state) → next-node-name conditional edge.
// End is the sentinel "no next node" edge target.
const End = ""

type EdgeFunc func(run *runstate.Run) string

// ErrInterrupt signals that a node wants to suspend the run for human
// input. The engine persists state and returns a resumable handle rather
// than propagating this as a failure.
var ErrInterrupt = errors.New("node requested interrupt")

// Interrupt carries a node's payload for human_review, e.g. a draft report
// awaiting approval.
type Interrupt struct {
	NodeName string
	Payload  any
}

// InterruptError wraps Interrupt so a node can `return PartialState{},
// &InterruptError{...}` and have the engine recognize it via errors.As.
type InterruptError struct {
	Interrupt Interrupt
}

func (e *InterruptError) Error() string        { return "interrupt: " + e.Interrupt.NodeName }
func (e *InterruptError) Unwrap() error         { return ErrInterrupt }
func (e *InterruptError) Is(target error) bool  { return target == ErrInterrupt }
