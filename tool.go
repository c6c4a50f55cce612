package scribe

import (
	"context"
	"encoding/json"
	"sort"
)

// Tool defines an agent capability exposing one or more named tool
// functions, each described by a ToolDefinition and dispatched through
// Execute. ToolResult carries failures in-band so a tool-internal error
// never aborts registry dispatch.
type Tool interface {
	Definitions() []ToolDefinition
	Execute(ctx context.Context, name string, args json.RawMessage) (ToolResult, error)
}

// ToolRegistry holds all registered tools and dispatches execution by
// name. Dispatch is a linear scan; with the small, fixed tool set named
// by the seven built-in tools this is simpler than a map and keeps
// registration order meaningful for List.
type ToolRegistry struct {
	tools []Tool
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{}
}

// Add registers a tool.
func (r *ToolRegistry) Add(t Tool) {
	r.tools = append(r.tools, t)
}

// List returns all tool definitions across registered tools, sorted by
// name so that the schema injected into a reasoner request (spec
// §4.10) is stable across runs regardless of registration order.
func (r *ToolRegistry) List() []ToolDefinition {
	var defs []ToolDefinition
	for _, t := range r.tools {
		defs = append(defs, t.Definitions()...)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute dispatches a tool call by name. An unknown name is reported
// via ToolResult.Error rather than a Go error, matching the in-band
// failure contract every tool follows.
func (r *ToolRegistry) Execute(ctx context.Context, name string, args json.RawMessage) (ToolResult, error) {
	for _, t := range r.tools {
		for _, d := range t.Definitions() {
			if d.Name == name {
				return t.Execute(ctx, name, args)
			}
		}
	}
	return ToolResult{Error: "unknown tool: " + name}, nil
}
