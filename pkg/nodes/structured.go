package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/deepsearch/pkg/llm"
	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
)

// structuredCall drives one LLM call whose content is expected to be a
// JSON object matching out's shape, with a "one re-prompt on malformed
// output" validation policy: a parse failure feeds the raw content and the
// error back to the model once before the caller falls back to its own
// deterministic minimum.
func structuredCall(ctx context.Context, client llm.Client, messages []runstate.Message, schema map[string]any, out any) error {
	resp, err := client.Invoke(ctx, llm.Request{Messages: messages, StructuredSchema: schema})
	if err != nil {
		return fmt.Errorf("nodes: structured call: %w", err)
	}
	if json.Unmarshal([]byte(resp.Content), out) == nil {
		return nil
	}

	retryMessages := append(append([]runstate.Message(nil), messages...), runstate.Message{
		Role:    runstate.RoleAssistant,
		Content: resp.Content,
	}, runstate.Message{
		Role:    runstate.RoleUser,
		Content: "Your previous response was not valid JSON matching the requested schema. Reply again with only the JSON object, nothing else.",
	})
	resp2, err := client.Invoke(ctx, llm.Request{Messages: retryMessages, StructuredSchema: schema})
	if err != nil {
		return fmt.Errorf("nodes: structured call retry: %w", err)
	}
	if err := json.Unmarshal([]byte(resp2.Content), out); err != nil {
		return fmt.Errorf("nodes: structured output still malformed after retry: %w", err)
	}
	return nil
}
