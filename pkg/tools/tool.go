// Package tools implements the tool registry and invocation path:
// schema-described tools behind a uniform ToolResult contract, retry with
// exponential backoff for transient errors, and a per-run call budget.
package tools

import (
	"context"
	"errors"
)

// ToolResult is the universal return of every tool invocation.
type ToolResult struct {
	Success  bool
	Output   string
	Error    string
	Metadata map[string]any
}

// Schema is a JSON-Schema-shaped description of a tool's input parameters.
type Schema map[string]any

// Tool is the capability record every registered tool implements: name,
// description, input schema, and invoke. Both a struct exposing this
// interface and a bare function wrapped by Func satisfy discovery
// identically.
type Tool interface {
	Name() string
	Description() string
	InputSchema() Schema
	Invoke(ctx context.Context, args map[string]any) (*ToolResult, error)
}

// Func adapts a bare function to the Tool interface, matching the "(b) a
// bare function annotated with the same schema" half of the discovery
// contract.
type Func struct {
	FuncName        string
	FuncDescription string
	SchemaValue     Schema
	Call            func(ctx context.Context, args map[string]any) (*ToolResult, error)
}

func (f Func) Name() string               { return f.FuncName }
func (f Func) Description() string        { return f.FuncDescription }
func (f Func) InputSchema() Schema        { return f.SchemaValue }
func (f Func) Invoke(ctx context.Context, args map[string]any) (*ToolResult, error) {
	return f.Call(ctx, args)
}

// ErrTransient classifies a tool error as retriable; wrap underlying
// errors with this to opt into the invoker's retry policy.
var ErrTransient = errors.New("transient tool error")

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// WrapTransient marks err as transient for the retry policy.
func WrapTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{cause: err}
}

type transientError struct{ cause error }

func (e *transientError) Error() string { return e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }
func (e *transientError) Is(target error) bool { return target == ErrTransient }
