// Package file provides the read_file tool: a workspace-sandboxed file
// reader that returns a line-range snippet padded with surrounding
// context.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	scribe "github.com/arcoslabs/scribe"
)

// contextLines pads the requested [start,end] range on both sides, matching
// the original snippet reader's default context window.
const contextLines = 3

// Tool exposes read_file, sandboxed to a workspace root.
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
			Name:        "read_file",
			Description: "Read a line-range snippet of a file in the workspace, with surrounding context. Omit start/end to read from the top of the file.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "File path relative to workspace"},
					"start": {"type": "integer", "description": "1-based start line (optional)"},
					"end": {"type": "integer", "description": "1-based end line, inclusive (optional)"}
				},
				"required": ["path"]
			}`),
		},
	}
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (scribe.ToolResult, error) {
	if name != "read_file" {
		return scribe.ToolResult{Error: "unknown file tool: " + name}, nil
	}
	var params struct {
		Path  string `json:"path"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return scribe.ToolResult{Error: "invalid args: " + err.Error()}, nil
	}

	resolved, err := t.resolvePath(params.Path)
	if err != nil {
		return scribe.ToolResult{Error: err.Error()}, nil
	}

	snippet, err := readSnippet(resolved, params.Start, params.End)
	if err != nil {
		return scribe.ToolResult{Error: "read error: " + err.Error()}, nil
	}
	out, _ := json.Marshal(map[string]any{
		"path":  params.Path,
		"start": snippet.start,
		"end":   snippet.end,
		"text":  snippet.text,
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

type fileSnippet struct {
	start, end int
	text       string
}

// readSnippet returns lines [start,end] (1-based, inclusive) padded by
// contextLines on each side. start<=0 means from the top; end<=0 means
// start+contextLines. A missing or unreadable file returns the read
// error, which Execute reports in ToolResult.Error.
func readSnippet(path string, start, end int) (fileSnippet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileSnippet{}, err
	}
	lines := strings.SplitAfter(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	total := len(lines)

	var startIdx int
	if start <= 0 {
		startIdx = 0
	} else {
		startIdx = max(0, start-contextLines-1)
	}
	var endIdx int
	if end <= 0 {
		base := start
		if base <= 0 {
			base = 1
		}
		endIdx = min(total, base+contextLines)
	} else {
		endIdx = min(total, end+contextLines)
	}
	if startIdx > endIdx {
		startIdx = endIdx
	}

	return fileSnippet{
		start: startIdx + 1,
		end:   endIdx,
		text:  strings.Join(lines[startIdx:endIdx], ""),
	}, nil
}
