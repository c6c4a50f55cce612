// Package scholar provides the search_papers tool: literature lookup
// across a pool of rate-limited providers.
package scholar

import (
	"context"
	"encoding/json"

	scribe "github.com/arcoslabs/scribe"
)

// Tool exposes search_papers over a ScholarPool.
type Tool struct {
	pool *scribe.ScholarPool
}

// New creates a Tool backed by pool.
func New(pool *scribe.ScholarPool) *Tool {
	return &Tool{pool: pool}
}

func (t *Tool) Definitions() []scribe.ToolDefinition {
	return []scribe.ToolDefinition{
		{
			Name:        "search_papers",
			Description: "Search academic literature providers for papers matching a query.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query"},
					"k": {"type": "integer", "description": "Maximum papers to return (default 5)"}
				},
				"required": ["query"]
			}`),
		},
	}
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (scribe.ToolResult, error) {
	if name != "search_papers" {
		return scribe.ToolResult{Error: "unknown search_papers tool: " + name}, nil
	}
	if t.pool == nil {
		return scribe.ToolResult{Error: "no scholar providers configured"}, nil
	}
	var params struct {
		Query string `json:"query"`
		K     int    `json:"k"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return scribe.ToolResult{Error: "invalid args: " + err.Error()}, nil
	}
	if params.Query == "" {
		return scribe.ToolResult{Error: "query is required"}, nil
	}
	k := params.K
	if k <= 0 {
		k = 5
	}

	papers := t.pool.Search(ctx, params.Query, k)
	out, _ := json.Marshal(map[string]any{"papers": papers})
	return scribe.ToolResult{Content: string(out)}, nil
}
