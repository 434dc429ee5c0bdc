package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

func TestInvokerIncrementsToolCallCount(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search"), nil, false))
	inv := NewInvoker(r, 0, RetryPolicy{})

	run := &runstate.Run{}
	_, err := inv.Invoke(context.Background(), run, "search", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, run.ToolCallCount)
}

func TestInvokerFatalOnBudgetExceeded(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("search"), nil, false))
	inv := NewInvoker(r, 1, RetryPolicy{})

	run := &runstate.Run{ToolCallCount: 1}
	_, err := inv.Invoke(context.Background(), run, "search", nil)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
}

func TestInvokerRetriesTransientErrorThenSucceeds(t *testing.T) {
	r := NewRegistry()
	attempts := 0
	flaky := Func{
		FuncName:    "flaky",
		SchemaValue: Schema{},
		Call: func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			attempts++
			if attempts < 3 {
				return nil, WrapTransient(errors.New("temporary outage"))
			}
			return &ToolResult{Success: true, Output: "recovered"}, nil
		},
	}
	require.NoError(t, r.Register(flaky, nil, false))
	inv := NewInvoker(r, 0, RetryPolicy{Enabled: true, MaxAttempts: 5, Backoff: time.Millisecond})

	run := &runstate.Run{}
	result, err := inv.Invoke(context.Background(), run, "flaky", nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, attempts)
}

func TestInvokerDoesNotRetryFatalError(t *testing.T) {
	r := NewRegistry()
	attempts := 0
	broken := Func{
		FuncName:    "broken",
		SchemaValue: Schema{},
		Call: func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			attempts++
			return nil, errors.New("bad request")
		},
	}
	require.NoError(t, r.Register(broken, nil, false))
	inv := NewInvoker(r, 0, RetryPolicy{Enabled: true, MaxAttempts: 5, Backoff: time.Millisecond})

	run := &runstate.Run{}
	result, err := inv.Invoke(context.Background(), run, "broken", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, attempts)
}

func TestInvokerGivesUpAfterMaxAttempts(t *testing.T) {
	r := NewRegistry()
	attempts := 0
	alwaysFlaky := Func{
		FuncName:    "alwaysFlaky",
		SchemaValue: Schema{},
		Call: func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			attempts++
			return nil, WrapTransient(errors.New("still down"))
		},
	}
	require.NoError(t, r.Register(alwaysFlaky, nil, false))
	inv := NewInvoker(r, 0, RetryPolicy{Enabled: true, MaxAttempts: 3, Backoff: time.Millisecond})

	run := &runstate.Run{}
	result, err := inv.Invoke(context.Background(), run, "alwaysFlaky", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, attempts)
}

func TestInvokerNormalizesNilResultToSuccess(t *testing.T) {
	r := NewRegistry()
	nilReturning := Func{
		FuncName:    "nilReturning",
		SchemaValue: Schema{},
		Call: func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			return nil, nil
		},
	}
	require.NoError(t, r.Register(nilReturning, nil, false))
	inv := NewInvoker(r, 0, RetryPolicy{})

	run := &runstate.Run{}
	result, err := inv.Invoke(context.Background(), run, "nilReturning", nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestInvokerUnknownToolReturnsFailedResult(t *testing.T) {
	r := NewRegistry()
	inv := NewInvoker(r, 0, RetryPolicy{})
	run := &runstate.Run{}
	result, err := inv.Invoke(context.Background(), run, "missing", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
	require.NotNil(t, result)
	assert.False(t, result.Success)
}
