package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// ErrBudgetExceeded is the fatal error raised when a run's tool-call
// budget is exceeded.
var ErrBudgetExceeded = errors.New("tool call budget exceeded")

// RetryPolicy configures the invoker's retry behavior: attempts=N,
// backoff=b means wait b·2^i between attempts.
type RetryPolicy struct {
	Enabled     bool
	MaxAttempts int
	Backoff     time.Duration
}

// Invoker gates every tool call through the registry with budget
// enforcement and retry.
type Invoker struct {
	registry *Registry
	budget   int // 0 = unlimited
	retry    RetryPolicy
}

// NewInvoker creates an invoker bound to a registry, a per-run budget (0 =
// unlimited), and a retry policy.
func NewInvoker(registry *Registry, budget int, retry RetryPolicy) *Invoker {
	return &Invoker{registry: registry, budget: budget, retry: retry}
}

// Invoke runs the named tool against a run's mutable state: increments
// tool_call_count, enforces the budget, retries transient errors per the
// backoff policy, and normalizes the return value into a ToolResult.
func (inv *Invoker) Invoke(ctx context.Context, run *runstate.Run, name string, args map[string]any) (*ToolResult, error) {
	run.ToolCallCount++
	if err := run.CheckToolCallBudget(inv.budget); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBudgetExceeded, err)
	}

	t, err := inv.registry.Get(name)
	if err != nil {
		return &ToolResult{Success: false, Error: err.Error()}, err
	}

	if !inv.retry.Enabled {
		return inv.invokeOnce(ctx, t, args), nil
	}

	var result *ToolResult
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = inv.retry.Backoff
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0 // bounded by MaxRetries below, not wall-clock
	bounded := backoff.WithMaxRetries(policy, uint64(maxInt(inv.retry.MaxAttempts-1, 0)))

	attempt := 0
	operation := func() error {
		attempt++
		result = inv.invokeOnce(ctx, t, args)
		if result.Success {
			return nil
		}
		if result.Metadata != nil {
			if transient, _ := result.Metadata["transient"].(bool); transient {
				slog.Warn("tool call failed, retrying", "tool", name, "attempt", attempt, "error", result.Error)
				return errors.New(result.Error)
			}
		}
		return backoff.Permanent(errors.New(result.Error))
	}

	_ = backoff.Retry(operation, bounded)
	return result, nil
}

func (inv *Invoker) invokeOnce(ctx context.Context, t Tool, args map[string]any) *ToolResult {
	raw, err := t.Invoke(ctx, args)
	if err != nil {
		res := &ToolResult{
			Success:  false,
			Error:    err.Error(),
			Output:   "tool invocation failed",
			Metadata: map[string]any{"transient": IsTransient(err)},
		}
		return res
	}
	if raw != nil {
		return raw
	}
	return &ToolResult{Success: true, Output: ""}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
