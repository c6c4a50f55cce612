// Package sandbox provides the run_sandbox tool: isolated execution of a
// short Python snippet, preferring a container runner and falling back
// to a subprocess.
package sandbox

import (
	"context"
	"encoding/json"

	scribe "github.com/arcoslabs/scribe"
)

// Tool exposes run_sandbox, sandboxed to a workspace root that snippets
// may read/write scratch files under.
type Tool struct {
	workspacePath  string
	defaultTimeout int
}

// New creates a Tool restricted to workspacePath. defaultTimeout is used
// when a call omits timeout_seconds.
func New(workspacePath string, defaultTimeout int) *Tool {
	if defaultTimeout <= 0 {
		defaultTimeout = 30
	}
	return &Tool{workspacePath: workspacePath, defaultTimeout: defaultTimeout}
}

func (t *Tool) Definitions() []scribe.ToolDefinition {
	return []scribe.ToolDefinition{
		{
			Name:        "run_sandbox",
			Description: "Run a short Python snippet in an isolated sandbox and return its stdout/stderr/return code.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"code": {"type": "string", "description": "Python source to execute"},
					"input": {"type": "object", "description": "JSON object made available to the snippet as its stdin (optional)"},
					"timeout_seconds": {"type": "integer", "description": "Wall-clock timeout (optional)"},
					"seed": {"type": "integer", "description": "Seed used to make the run reproducible (optional)"}
				},
				"required": ["code"]
			}`),
		},
	}
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (scribe.ToolResult, error) {
	if name != "run_sandbox" {
		return scribe.ToolResult{Error: "unknown run_sandbox tool: " + name}, nil
	}
	var params struct {
		Code           string          `json:"code"`
		Input          json.RawMessage `json:"input"`
		TimeoutSeconds int             `json:"timeout_seconds"`
		Seed           int64           `json:"seed"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return scribe.ToolResult{Error: "invalid args: " + err.Error()}, nil
	}
	if params.Code == "" {
		return scribe.ToolResult{Error: "code is required"}, nil
	}

	timeout := params.TimeoutSeconds
	if timeout <= 0 {
		timeout = t.defaultTimeout
	}
	input := params.Input
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	result, err := scribe.RunSnippet(ctx, params.Code, input, timeout, params.Seed, t.workspacePath)
	if err != nil {
		return scribe.ToolResult{Error: "sandbox error: " + err.Error()}, nil
	}
	out, _ := json.Marshal(result)
	return scribe.ToolResult{Content: string(out)}, nil
}
