package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// ErrRunCancelled is returned when a run's cancellation token was set at a
// node boundary.
var ErrRunCancelled = errors.New("run cancelled")

// Graph is a named-node, conditionally-routed state machine.
type Graph struct {
	name    string
	nodes   map[string]Node
	edges   map[string]EdgeFunc
	entry   string
	cancel  *CancelRegistry
	checkpt Checkpointer

	// MaxFanOutParallelism bounds concurrent sub-tasks during fan-out.
	// Defaults to the number of queries, configurable via the cap below.
	MaxFanOutParallelism int64
}

// Builder constructs a Graph with validation using a fluent node-by-node
// API over conditional edges rather than a static dependency list.
type Builder struct {
	g      *Graph
	errors []error
}

// NewBuilder creates a graph builder rooted at entryNode, backed by
// cancel and checkpt for cooperative cancellation and state persistence.
func NewBuilder(name, entryNode string, cancel *CancelRegistry, checkpt Checkpointer) *Builder {
	return &Builder{
		g: &Graph{
			name:                 name,
			nodes:                make(map[string]Node),
			edges:                make(map[string]EdgeFunc),
			entry:                entryNode,
			cancel:               cancel,
			checkpt:              checkpt,
			MaxFanOutParallelism: 8,
		},
	}
}

// AddNode registers a node with its conditional edge function, a pure
// (state) → next-node-name selector.
func (b *Builder) AddNode(n Node, edge EdgeFunc) *Builder {
	if _, exists := b.g.nodes[n.Name()]; exists {
		b.errors = append(b.errors, fmt.Errorf("graph: duplicate node %q", n.Name()))
		return b
	}
	b.g.nodes[n.Name()] = n
	b.g.edges[n.Name()] = edge
	return b
}

// Build validates the graph (entry node exists, no dangling edge errors
// recorded during AddNode) and returns it.
func (b *Builder) Build() (*Graph, error) {
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	if _, ok := b.g.nodes[b.g.entry]; !ok {
		return nil, fmt.Errorf("graph: entry node %q not registered", b.g.entry)
	}
	return b.g, nil
}

// RunResult is what Engine.Run returns: either a completed/cancelled run or
// a suspended one awaiting Resume.
type RunResult struct {
	Run       *runstate.Run
	Suspended bool
	Interrupt *Interrupt
}

// Run drives run through the graph from its entry node until a terminal
// node, an interrupt, cancellation, or an error. Each node boundary is
// checkpointed: writes are atomic per state transition.
func (g *Graph) Run(ctx context.Context, run *runstate.Run) (*RunResult, error) {
	return g.runFrom(ctx, run, g.entry)
}

// Resume re-enters the graph at resumeNode (typically human_review) after
// an interrupt, with run already carrying the caller-supplied resume value.
func (g *Graph) Resume(ctx context.Context, run *runstate.Run, resumeNode string) (*RunResult, error) {
	return g.runFrom(ctx, run, resumeNode)
}

func (g *Graph) runFrom(ctx context.Context, run *runstate.Run, start string) (*RunResult, error) {
	current := start
	checkpointSeq := 0

	for current != End {
		if g.cancel != nil && g.cancel.IsCancelled(run.RunID) {
			run.IsCancelled = true
			slog.Info("graph run cancelled", "run_id", run.RunID, "node", current)
			return &RunResult{Run: run}, ErrRunCancelled
		}

		node, ok := g.nodes[current]
		if !ok {
			return nil, fmt.Errorf("graph: no such node %q", current)
		}

		if !run.CanWrite() {
			return &RunResult{Run: run}, fmt.Errorf("graph: run %s already complete at node %q", run.RunID, current)
		}

		var partial PartialState
		var err error
		if fanOut, isFanOut := node.(FanOutNode); isFanOut {
			partial, err = g.runFanOut(ctx, fanOut, run)
		} else {
			partial, err = node.Run(ctx, run)
		}

		if err != nil {
			var interruptErr *InterruptError
			if errors.As(err, &interruptErr) {
				Merge(run, partial)
				g.checkpoint(ctx, run, &checkpointSeq)
				return &RunResult{Run: run, Suspended: true, Interrupt: &interruptErr.Interrupt}, nil
			}
			run.AddError(fmt.Sprintf("node %s: %v", current, err))
			return &RunResult{Run: run}, fmt.Errorf("graph: node %q failed: %w", current, err)
		}

		Merge(run, partial)
		g.checkpoint(ctx, run, &checkpointSeq)

		edge, ok := g.edges[current]
		if !ok {
			return nil, fmt.Errorf("graph: no edge function for node %q", current)
		}
		current = edge(run)
	}

	return &RunResult{Run: run}, nil
}

// runFanOut dispatches Tasks() in parallel bounded by MaxFanOutParallelism,
// merges every sub-result into a single PartialState before the engine
// proceeds (O2: "the writer runs only after all siblings complete").
func (g *Graph) runFanOut(ctx context.Context, node FanOutNode, run *runstate.Run) (PartialState, error) {
	tasks := node.Tasks(run)
	if len(tasks) == 0 {
		return PartialState{}, nil
	}

	limit := g.MaxFanOutParallelism
	if limit <= 0 || limit > int64(len(tasks)) {
		limit = int64(len(tasks))
	}
	sem := semaphore.NewWeighted(limit)

	results := make([]PartialState, len(tasks))
	grp, grpCtx := errgroup.WithContext(ctx)

	for i, task := range tasks {
		i, task := i, task
		grp.Go(func() error {
			if err := sem.Acquire(grpCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			if g.cancel != nil && g.cancel.IsCancelled(run.RunID) {
				return nil // cooperative: finish in-flight work is none yet, just skip
			}
			partial, err := node.RunSub(grpCtx, run, task)
			if err != nil {
				slog.Warn("fan-out sub-task failed", "node", node.Name(), "query", task.Query, "error", err)
				results[i] = PartialState{Errors: []string{fmt.Sprintf("%s: %v", task.Query, err)}}
				return nil // a single failing query degrades, doesn't abort the barrier
			}
			results[i] = partial
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return PartialState{}, err
	}

	return mergeFanOutResults(results), nil
}

// mergeFanOutResults concatenates every sub-task's append-concat fields in
// positional order (O1: "scraped_content is a concatenation of all returned
// bags").
func mergeFanOutResults(results []PartialState) PartialState {
	merged := PartialState{}
	for _, r := range results {
		merged.ScrapedContent = append(merged.ScrapedContent, r.ScrapedContent...)
		merged.CodeResults = append(merged.CodeResults, r.CodeResults...)
		merged.Errors = append(merged.Errors, r.Errors...)
		merged.Messages = append(merged.Messages, r.Messages...)
	}
	return merged
}

func (g *Graph) checkpoint(ctx context.Context, run *runstate.Run, seq *int) {
	if g.checkpt == nil {
		return
	}
	*seq++
	checkpointID := fmt.Sprintf("%s-%d", run.RunID, *seq)
	if err := g.checkpt.Put(ctx, run.ThreadID, checkpointID, run); err != nil {
		slog.Error("graph: checkpoint write failed, continuing with in-memory state",
			"run_id", run.RunID, "checkpoint_id", checkpointID, "error", err)
		run.AddError(fmt.Sprintf("checkpoint write failed: %v", err))
	}
}
