package scribe

import (
	"context"
	"encoding/json"
	"errors"
)

// --- Tool mocks, shared across orchestrator/tool registry tests ---

type mockTool struct{}

func (m mockTool) Definitions() []ToolDefinition {
	return []ToolDefinition{{Name: "greet", Description: "Say hello"}}
}

func (m mockTool) Execute(_ context.Context, name string, _ json.RawMessage) (ToolResult, error) {
	return ToolResult{Content: "hello from " + name}, nil
}

type errTool struct{}

func (e errTool) Definitions() []ToolDefinition {
	return []ToolDefinition{{Name: "fail", Description: "Always fails"}}
}
func (e errTool) Execute(_ context.Context, _ string, _ json.RawMessage) (ToolResult, error) {
	return ToolResult{}, errors.New("tool broken")
}

type multiTool struct{}

func (m multiTool) Definitions() []ToolDefinition {
	return []ToolDefinition{
		{Name: "read", Description: "Read file"},
		{Name: "write", Description: "Write file"},
	}
}
func (m multiTool) Execute(_ context.Context, name string, _ json.RawMessage) (ToolResult, error) {
	return ToolResult{Content: "did " + name}, nil
}

// contextReadingTool captures context in Execute for deadline/cancellation tests.
type contextReadingTool struct {
	onExecute func(ctx context.Context)
}

func (t *contextReadingTool) Definitions() []ToolDefinition {
	return []ToolDefinition{{Name: "ctx_reader", Description: "Reads context"}}
}
func (t *contextReadingTool) Execute(ctx context.Context, _ string, _ json.RawMessage) (ToolResult, error) {
	if t.onExecute != nil {
		t.onExecute(ctx)
	}
	return ToolResult{Content: "ok"}, nil
}

// callbackReasoner captures ChatRequest via onChat for assertions.
type callbackReasoner struct {
	name     string
	response ChatResponse
	err      error
	onChat   func(ChatRequest)
}

func (c *callbackReasoner) Name() string { return c.name }
func (c *callbackReasoner) Chat(_ context.Context, req ChatRequest) (ChatResponse, error) {
	if c.onChat != nil {
		c.onChat(req)
	}
	return c.response, c.err
}
