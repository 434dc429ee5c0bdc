// Package llm defines the provider-agnostic LLM client contract (messages
// in, streamed/non-streamed completion with usage out) and a deterministic
// mock used by tests throughout the rest of the module.
package llm

import (
	"context"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// FinishReason classifies why a completion ended.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishToolCalls FinishReason = "tool_calls"
)

// ToolCall is a single native tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ToolDefinition is the wire shape a client binds for native tool calling;
// mirrors pkg/tools.Definition without importing it, keeping llm free of a
// dependency on the tools package.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Request is a single completion call.
type Request struct {
	Messages         []runstate.Message
	Tools            []ToolDefinition
	StructuredSchema map[string]any
}

// Response is the result of a completion call.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason FinishReason
	Usage        Usage
}

// Client is the provider-agnostic contract every node calls through.
type Client interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}
