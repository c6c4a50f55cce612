// Package summarize provides the summarize_results tool: folding a
// block of accumulated observation text into a citation-checked,
// length-capped summary, the same admission gate the orchestrator's own
// loop applies to every report update.
package summarize

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	scribe "github.com/arcoslabs/scribe"
)

// pathLineRefPattern matches any "<path>:<line>" citation embedded in
// free text, independent of file extension.
var pathLineRefPattern = regexp.MustCompile(`[\w./\\-]+:\d+`)

const defaultMaxTokens = 200

// Tool exposes summarize_results over a VerifierGate.
type Tool struct {
	verifier *scribe.VerifierGate
}

// New creates a Tool backed by verifier. Pass a heuristic-only gate
// (scribe.NewVerifierGate(nil, "")) when no reasoner is configured.
func New(verifier *scribe.VerifierGate) *Tool {
	return &Tool{verifier: verifier}
}

func (t *Tool) Definitions() []scribe.ToolDefinition {
	return []scribe.ToolDefinition{
		{
			Name:        "summarize_results",
			Description: "Fold raw observation text into a citation-checked, length-capped summary. Citations embedded as path:line are bracketed onto the result only when they pass the verifier's citation and independence checks.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"text": {"type": "string", "description": "Raw observation or evidence text to summarize"},
					"max_tokens": {"type": "integer", "description": "Maximum whitespace-delimited tokens to keep (default 200)"}
				},
				"required": ["text"]
			}`),
		},
	}
}

func (t *Tool) Execute(ctx context.Context, name string, args json.RawMessage) (scribe.ToolResult, error) {
	if name != "summarize_results" {
		return scribe.ToolResult{Error: "unknown summarize_results tool: " + name}, nil
	}
	var params struct {
		Text      string `json:"text"`
		MaxTokens int    `json:"max_tokens"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return scribe.ToolResult{Error: "invalid args: " + err.Error()}, nil
	}
	if strings.TrimSpace(params.Text) == "" {
		return scribe.ToolResult{Error: "text is required"}, nil
	}
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	summary := t.bracketVerifiedCitations(ctx, params.Text)
	summary = truncateTokens(summary, maxTokens)

	out, _ := json.Marshal(map[string]any{"summary": summary})
	return scribe.ToolResult{Content: string(out)}, nil
}

func (t *Tool) bracketVerifiedCitations(ctx context.Context, text string) string {
	sources := dedupe(pathLineRefPattern.FindAllString(text, -1))
	if len(sources) == 0 || t.verifier == nil {
		return text
	}
	claim := t.verifier.VerifyClaim(ctx, text, sources)
	if !claim.Verified {
		return text
	}
	return text + " [" + strings.Join(sources, ", ") + "]"
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// truncateTokens caps text to at most maxTokens whitespace-delimited
// tokens, appending an ellipsis marker when it truncates.
func truncateTokens(text string, maxTokens int) string {
	tokens := strings.Fields(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return strings.Join(tokens[:maxTokens], " ") + " …"
}
