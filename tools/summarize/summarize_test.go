package summarize

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	scribe "github.com/arcoslabs/scribe"
)

func TestSummarizeResultsBracketsVerifiedCitations(t *testing.T) {
	tool := New(scribe.NewVerifierGate(nil, ""))
	args, _ := json.Marshal(map[string]any{
		"text": "the handler is defined in pkg/a.go:10 and used in pkg/b.go:20",
	})
	result, err := tool.Execute(context.Background(), "summarize_results", args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	var parsed struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !strings.Contains(parsed.Summary, "[pkg/a.go:10, pkg/b.go:20]") {
		t.Fatalf("expected bracketed citations, got %q", parsed.Summary)
	}
}

func TestSummarizeResultsTruncatesToMaxTokens(t *testing.T) {
	tool := New(scribe.NewVerifierGate(nil, ""))
	words := make([]string, 50)
	for i := range words {
		words[i] = "word"
	}
	args, _ := json.Marshal(map[string]any{"text": strings.Join(words, " "), "max_tokens": 5})
	result, err := tool.Execute(context.Background(), "summarize_results", args)
	if err != nil {
		t.Fatal(err)
	}
	var parsed struct {
		Summary string `json:"summary"`
	}
	json.Unmarshal([]byte(result.Content), &parsed)
	if fields := strings.Fields(parsed.Summary); len(fields) != 6 {
		t.Fatalf("expected 5 words plus an ellipsis marker, got %d fields: %q", len(fields), parsed.Summary)
	}
}

func TestSummarizeResultsMissingText(t *testing.T) {
	tool := New(scribe.NewVerifierGate(nil, ""))
	args, _ := json.Marshal(map[string]any{})
	result, _ := tool.Execute(context.Background(), "summarize_results", args)
	if result.Error == "" {
		t.Error("expected error for missing text")
	}
}

func TestSummarizeResultsUnknownTool(t *testing.T) {
	tool := New(scribe.NewVerifierGate(nil, ""))
	result, _ := tool.Execute(context.Background(), "other_tool", nil)
	if result.Error == "" {
		t.Error("expected error for unknown tool name")
	}
}

func TestSummarizeResultsDefinitions(t *testing.T) {
	tool := New(scribe.NewVerifierGate(nil, ""))
	defs := tool.Definitions()
	if len(defs) != 1 || defs[0].Name != "summarize_results" {
		t.Fatalf("expected exactly [summarize_results], got %v", defs)
	}
}
