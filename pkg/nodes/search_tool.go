package nodes

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/deepsearch/pkg/runstate"
	"github.com/codeready-toolchain/deepsearch/pkg/search"
	"github.com/codeready-toolchain/deepsearch/pkg/tools"
)

// NewSearchTool adapts a search.Client into the tools.Tool contract so the
// searcher sub-node can invoke it through the same registry/invoker path
// (retry, budget) every other tool call goes through.
func NewSearchTool(client search.Client) tools.Tool {
	return tools.Func{
		FuncName:        "search_web",
		FuncDescription: "Search the web for a query and return scored hits.",
		SchemaValue: tools.Schema{
			"type": "object",
			"properties": map[string]any{
				"query":       map[string]any{"type": "string"},
				"max_results": map[string]any{"type": "integer"},
			},
			"required": []string{"query"},
		},
		Call: func(ctx context.Context, args map[string]any) (*tools.ToolResult, error) {
			query, _ := args["query"].(string)
			maxResults := 3
			switch v := args["max_results"].(type) {
			case int:
				maxResults = v
			case float64:
				maxResults = int(v)
			}

			hits, err := client.Search(ctx, query, maxResults)
			if err != nil {
				return &tools.ToolResult{Success: false, Error: err.Error()}, tools.WrapTransient(err)
			}
			return &tools.ToolResult{
				Success:  true,
				Output:   fmt.Sprintf("%d hits for %q", len(hits), query),
				Metadata: map[string]any{"hits": hits},
			}, nil
		},
	}
}
