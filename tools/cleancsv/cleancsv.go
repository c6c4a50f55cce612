// Package cleancsv provides the clean_csv tool: schema sniffing and
// rule-based cleaning for CSV files in the workspace.
package cleancsv

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	scribe "github.com/arcoslabs/scribe"
)

// Tool exposes clean_csv, sandboxed to a workspace root.
type Tool struct {
	workspacePath string
}

// New creates a Tool restricted to workspacePath.
func New(workspacePath string) *Tool {
	return &Tool{workspacePath: workspacePath}
}

func (t *Tool) Definitions() []scribe.ToolDefinition {
	return []scribe.ToolDefinition{
		{
			Name:        "clean_csv",
			Description: "Sniff a CSV file's schema, suggest cleaning steps (null-fill, numeric coercion, string normalization, column drop), and write a cleaned copy.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "CSV path relative to workspace"},
					"output_path": {"type": "string", "description": "Cleaned CSV path relative to workspace"}
				},
				"required": ["path", "output_path"]
			}`),
		},
	}
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (scribe.ToolResult, error) {
	if name != "clean_csv" {
		return scribe.ToolResult{Error: "unknown clean_csv tool: " + name}, nil
	}
	var params struct {
		Path       string `json:"path"`
		OutputPath string `json:"output_path"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return scribe.ToolResult{Error: "invalid args: " + err.Error()}, nil
	}
	if params.Path == "" || params.OutputPath == "" {
		return scribe.ToolResult{Error: "path and output_path are required"}, nil
	}

	csvPath, err := t.resolvePath(params.Path)
	if err != nil {
		return scribe.ToolResult{Error: err.Error()}, nil
	}
	outputPath, err := t.resolvePath(params.OutputPath)
	if err != nil {
		return scribe.ToolResult{Error: err.Error()}, nil
	}

	info, err := scribe.SniffCSV(csvPath, 0)
	if err != nil {
		return scribe.ToolResult{Error: "sniff error: " + err.Error()}, nil
	}
	steps := scribe.SuggestCleaningSteps(info)
	result, err := scribe.CleanCSV(info, steps, outputPath)
	if err != nil {
		return scribe.ToolResult{Error: "clean error: " + err.Error()}, nil
	}

	out, _ := json.Marshal(map[string]any{
		"original_rows": result.OriginalRows,
		"cleaned_rows":  result.CleanedRows,
		"output_path":   params.OutputPath,
		"steps_applied": result.StepsApplied,
	})
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
