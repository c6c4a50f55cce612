package remotereasoner

import (
	"encoding/json"

	scribe "github.com/arcoslabs/scribe"
)

// --- OpenAI-compatible chat completions wire format ---

type chatRequestWire struct {
	Model          string            `json:"model"`
	Messages       []messageWire     `json:"messages"`
	Tools          []toolWire        `json:"tools,omitempty"`
	ToolChoice     string            `json:"tool_choice,omitempty"`
	ResponseFormat *responseFormat   `json:"response_format,omitempty"`
}

type messageWire struct {
	Role       string              `json:"role"`
	Content    string              `json:"content"`
	ToolCalls  []toolCallWire      `json:"tool_calls,omitempty"`
	ToolCallID string              `json:"tool_call_id,omitempty"`
}

type toolWire struct {
	Type     string       `json:"type"`
	Function functionWire `json:"function"`
}

type functionWire struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type toolCallWire struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function functionCallWire `json:"function"`
}

type functionCallWire struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaWire `json:"json_schema,omitempty"`
}

type jsonSchemaWire struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponseWire struct {
	ID      string       `json:"id"`
	Choices []choiceWire `json:"choices"`
	Usage   usageWire    `json:"usage"`
}

type choiceWire struct {
	Index        int          `json:"index"`
	Message      messageWire  `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

type usageWire struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// buildBody translates a scribe.ChatRequest into the OpenAI-compatible
// wire shape.
func buildBody(req scribe.ChatRequest, model string) chatRequestWire {
	messages := make([]messageWire, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, toMessageWire(m))
	}

	body := chatRequestWire{
		Model:    model,
		Messages: messages,
	}

	if len(req.Tools) > 0 {
		tools := make([]toolWire, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, toolWire{
				Type: "function",
				Function: functionWire{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		body.Tools = tools
	}

	if req.ResponseSchema != nil {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaWire{
				Name:   req.ResponseSchema.Name,
				Schema: req.ResponseSchema.Schema,
			},
		}
	}

	return body
}

func toMessageWire(m scribe.ChatMessage) messageWire {
	wire := messageWire{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	if len(m.ToolCalls) > 0 {
		calls := make([]toolCallWire, 0, len(m.ToolCalls))
		for _, tc := range m.ToolCalls {
			calls = append(calls, toolCallWire{
				ID:   tc.ID,
				Type: "function",
				Function: functionCallWire{
					Name:      tc.Name,
					Arguments: string(tc.Args),
				},
			})
		}
		wire.ToolCalls = calls
	}
	return wire
}

// parseResponse translates the wire response back into a
// scribe.ChatResponse, picking the first choice.
func parseResponse(resp chatResponseWire) scribe.ChatResponse {
	out := scribe.ChatResponse{
		Usage: scribe.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	if len(resp.Choices) == 0 {
		return out
	}
	msg := resp.Choices[0].Message
	out.Content = msg.Content
	out.ToolCalls = parseToolCalls(msg.ToolCalls)
	return out
}

func parseToolCalls(wire []toolCallWire) []scribe.ToolCall {
	if len(wire) == 0 {
		return nil
	}
	calls := make([]scribe.ToolCall, 0, len(wire))
	for _, tc := range wire {
		calls = append(calls, scribe.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: json.RawMessage(tc.Function.Arguments),
		})
	}
	return calls
}
