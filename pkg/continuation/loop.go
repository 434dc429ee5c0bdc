package continuation

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/deepsearch/pkg/llm"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
	"github.com/codeready-toolchain/deepsearch/pkg/tools"
)

// State is a node in the continuation state machine.
type State string

const (
	StateIdle     State = "idle"
	StateCalling  State = "calling"
	StateDetect   State = "detect"
	StateExecute  State = "execute"
	StateStopped  State = "stopped"
)

// ExecutionStrategy selects how multiple detected tool calls are invoked.
type ExecutionStrategy string

const (
	Sequential ExecutionStrategy = "sequential"
	Parallel   ExecutionStrategy = "parallel"
)

// InjectionStrategy selects how tool results are written back into the
// conversation; all three yield semantically equivalent state transitions,
// differing only in message shape.
type InjectionStrategy string

const (
	InjectNative      InjectionStrategy = "native"       // tool-role messages with tool_call_id
	InjectTaggedUser  InjectionStrategy = "tagged_user"   // single user-role message, <tool_result> blocks
	InjectDegradedAck InjectionStrategy = "degraded_ack"  // assistant-role acknowledgement text
)

// Policy configures the stop condition and execution/injection strategies.
type Policy struct {
	MaxIterations      int
	ContinueOnToolCalls bool
	ContinueOnLength   bool
	StopOnToolFailure  bool
	Execution          ExecutionStrategy
	Injection          InjectionStrategy
}

// DefaultPolicy continues on tool calls, leaves stop-on-tool-failure
// disabled (failures are injected as observations, not fatal), and runs
// sequential execution with native injection.
func DefaultPolicy() Policy {
	return Policy{
		MaxIterations:       10,
		ContinueOnToolCalls: true,
		ContinueOnLength:    false,
		StopOnToolFailure:   false,
		Execution:           Sequential,
		Injection:           InjectNative,
	}
}

// Decision is the pure continuation-decision function's output.
type Decision struct {
	Next    State
	Stopped bool
	Reason  string
}

// Decide is a pure function of (state, finish_reason, has_tool_calls,
// tool_results, policy), kept free of I/O so it can be unit tested
// exhaustively.
func Decide(state State, finishReason llm.FinishReason, hasToolCalls bool, toolResults []*tools.ToolResult, iteration int, policy Policy) Decision {
	if iteration >= policy.MaxIterations {
		return Decision{Next: StateStopped, Stopped: true, Reason: "max_iterations"}
	}

	if policy.StopOnToolFailure {
		for _, r := range toolResults {
			if r != nil && !r.Success {
				return Decision{Next: StateStopped, Stopped: true, Reason: "tool_failure"}
			}
		}
	}

	switch state {
	case StateIdle:
		return Decision{Next: StateCalling}
	case StateCalling:
		if hasToolCalls && policy.ContinueOnToolCalls {
			return Decision{Next: StateDetect}
		}
		if finishReason == llm.FinishLength && policy.ContinueOnLength {
			return Decision{Next: StateCalling, Reason: "length_continue"}
		}
		return Decision{Next: StateStopped, Stopped: true, Reason: string(finishReason)}
	case StateDetect:
		if hasToolCalls {
			return Decision{Next: StateExecute}
		}
		return Decision{Next: StateStopped, Stopped: true, Reason: "no_calls_detected"}
	case StateExecute:
		return Decision{Next: StateCalling}
	default:
		return Decision{Next: StateStopped, Stopped: true, Reason: "terminal"}
	}
}

// Result is what a completed Loop.Run returns.
type Result struct {
	FinalMessage string
	Iterations   int
	StopReason   string
	ToolCalls    int
}

// Loop drives a single node's tool-call continuation: repeatedly prompting
// the model, parsing its intent, invoking the requested tool, and feeding
// the result back until the model stops asking for tools or a limit hits.
type Loop struct {
	Client   llm.Client
	Invoker  *tools.Invoker
	Policy   Policy
}

// NewLoop constructs a continuation loop bound to an LLM client and a tool
// invoker (which already carries the registry, budget, and retry policy).
func NewLoop(client llm.Client, invoker *tools.Invoker, policy Policy) *Loop {
	return &Loop{Client: client, Invoker: invoker, Policy: policy}
}

// Run drives messages through the full Idle→...→Stop cycle, mutating run's
// Messages and ToolCallCount in place.
func (l *Loop) Run(ctx context.Context, run *runstate.Run, toolDefs []llm.ToolDefinition) (*Result, error) {
	state := StateIdle
	iteration := 0
	result := &Result{}

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if !run.CanWrite() {
			return result, fmt.Errorf("run %s is already complete, continuation loop cannot write", run.RunID)
		}

		if state == StateIdle {
			state = StateCalling
			continue
		}

		if state == StateCalling {
			resp, err := l.Client.Invoke(ctx, llm.Request{Messages: run.Messages, Tools: toolDefs})
			if err != nil {
				return result, fmt.Errorf("llm invoke failed: %w", err)
			}
			iteration++
			result.Iterations = iteration

			assistantMsg := runstate.Message{Role: runstate.RoleAssistant, Content: resp.Content}
			run.Messages = append(run.Messages, assistantMsg)

			parsed := parseNativeAndTagged(resp)
			hasCalls := len(parsed) > 0

			decision := Decide(state, resp.FinishReason, hasCalls, nil, iteration, l.Policy)
			if decision.Stopped {
				result.FinalMessage = resp.Content
				result.StopReason = decision.Reason
				return result, nil
			}
			state = decision.Next
			if state == StateDetect {
				state = StateExecute
				toolResults := l.executeCalls(ctx, run, parsed)
				result.ToolCalls += len(parsed)

				decision = Decide(StateExecute, resp.FinishReason, hasCalls, toolResults, iteration, l.Policy)
				if decision.Stopped {
					result.FinalMessage = resp.Content
					result.StopReason = decision.Reason
					return result, nil
				}
				l.inject(run, parsed, toolResults)
				state = decision.Next
			}
			continue
		}
	}
}

// parseNativeAndTagged normalizes native ToolCalls and a tagged-markup
// fallback parse of resp.Content into a single ParsedCall slice.
func parseNativeAndTagged(resp *llm.Response) []ParsedCall {
	if len(resp.ToolCalls) > 0 {
		calls := make([]ParsedCall, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			calls = append(calls, ParsedCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
		}
		return calls
	}
	parser := NewTaggedParser()
	parser.Feed(resp.Content)
	return parser.Detect()
}

func (l *Loop) executeCalls(ctx context.Context, run *runstate.Run, calls []ParsedCall) []*tools.ToolResult {
	results := make([]*tools.ToolResult, len(calls))
	if l.Policy.Execution == Parallel {
		done := make(chan struct{}, len(calls))
		for i, c := range calls {
			go func(i int, c ParsedCall) {
				defer func() { done <- struct{}{} }()
				r, _ := l.Invoker.Invoke(ctx, run, c.Name, c.Arguments)
				results[i] = r
			}(i, c)
		}
		for range calls {
			<-done
		}
		return results
	}
	for i, c := range calls {
		r, _ := l.Invoker.Invoke(ctx, run, c.Name, c.Arguments)
		results[i] = r
	}
	return results
}

// inject writes tool results back into the conversation per the selected
// InjectionStrategy; each differs in message shape, not in effect on run
// state.
func (l *Loop) inject(run *runstate.Run, calls []ParsedCall, results []*tools.ToolResult) {
	switch l.Policy.Injection {
	case InjectTaggedUser:
		content := ""
		for i, r := range results {
			content += formatTaggedResult(calls[i].Name, r)
		}
		run.Messages = append(run.Messages, runstate.Message{Role: runstate.RoleUser, Content: content})
	case InjectDegradedAck:
		for i, r := range results {
			run.Messages = append(run.Messages, runstate.Message{
				Role:    runstate.RoleAssistant,
				Content: fmt.Sprintf("Acknowledged result of %s: %s", calls[i].Name, summarizeResult(r)),
			})
		}
	default: // InjectNative
		for i, r := range results {
			run.Messages = append(run.Messages, runstate.Message{
				Role:       runstate.RoleTool,
				Content:    summarizeResult(r),
				Name:       calls[i].Name,
				ToolCallID: calls[i].ID,
			})
		}
	}
}

func formatTaggedResult(name string, r *tools.ToolResult) string {
	if r == nil {
		return fmt.Sprintf("<tool_result name=%q><error>no result</error></tool_result>", name)
	}
	if r.Success {
		return fmt.Sprintf("<tool_result name=%q><output>%s</output></tool_result>", name, r.Output)
	}
	return fmt.Sprintf("<tool_result name=%q><error>%s</error></tool_result>", name, r.Error)
}

func summarizeResult(r *tools.ToolResult) string {
	if r == nil {
		return "no result"
	}
	if r.Success {
		return r.Output
	}
	return fmt.Sprintf("error: %s", r.Error)
}
