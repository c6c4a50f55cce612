// Package searchcode provides the search_code tool: a workspace-sandboxed
// keyword/symbol search over the repository tree.
package searchcode

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	scribe "github.com/arcoslabs/scribe"
)

// Tool exposes search_code, sandboxed to a workspace root.
type Tool struct {
	workspacePath string
	search        *scribe.CodeSearch
}

// New creates a Tool restricted to workspacePath, backed by a CodeSearch
// rooted there. cas may be nil to disable symbol-summary caching.
func New(workspacePath string, cas *scribe.ContentStore) *Tool {
	return &Tool{
		workspacePath: workspacePath,
		search:        scribe.NewCodeSearch(workspacePath, cas),
	}
}

func (t *Tool) Definitions() []scribe.ToolDefinition {
	return []scribe.ToolDefinition{
		{
			Name:        "search_code",
			Description: "Search the workspace for a keyword or symbol, surfacing definitions and usages ahead of plain text matches.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search terms"},
					"paths": {"type": "array", "items": {"type": "string"}, "description": "Restrict the search to these workspace-relative paths (optional, defaults to the whole tree)"},
					"max_results": {"type": "integer", "description": "Maximum hits to return (default 10)"}
				},
				"required": ["query"]
			}`),
		},
	}
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (scribe.ToolResult, error) {
	if name != "search_code" {
		return scribe.ToolResult{Error: "unknown search_code tool: " + name}, nil
	}
	var params struct {
		Query      string   `json:"query"`
		Paths      []string `json:"paths"`
		MaxResults int      `json:"max_results"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return scribe.ToolResult{Error: "invalid args: " + err.Error()}, nil
	}
	if params.Query == "" {
		return scribe.ToolResult{Error: "query is required"}, nil
	}

	var resolvedPaths []string
	if len(params.Paths) > 0 {
		resolvedPaths = make([]string, 0, len(params.Paths))
		for _, p := range params.Paths {
			resolved, err := t.resolvePath(p)
			if err != nil {
				return scribe.ToolResult{Error: err.Error()}, nil
			}
			resolvedPaths = append(resolvedPaths, resolved)
		}
	}

	hits := t.search.Search(params.Query, resolvedPaths, params.MaxResults)
	out, _ := json.Marshal(map[string]any{"hits": hits})
	return scribe.ToolResult{Content: string(out)}, nil
}

// resolvePath rejects absolute paths, ".." segments, and any join result
// that escapes the workspace root.
func (t *Tool) resolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute paths not allowed: %s", path)
	}
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("path traversal not allowed: %s", path)
	}
	resolved := filepath.Join(t.workspacePath, path)
	if !strings.HasPrefix(resolved, t.workspacePath) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return resolved, nil
}
