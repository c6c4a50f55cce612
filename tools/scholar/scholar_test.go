package scholar

import (
	"context"
	"encoding/json"
	"testing"

	scribe "github.com/arcoslabs/scribe"
)

type stubProvider struct {
	papers []scribe.PaperMeta
}

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) Search(ctx context.Context, query string) ([]scribe.PaperMeta, error) {
	return s.papers, nil
}

func TestSearchPapersReturnsResults(t *testing.T) {
	pool := scribe.NewScholarPool([]scribe.ScholarProvider{
		&stubProvider{papers: []scribe.PaperMeta{{ID: "1", Title: "A Paper", Source: "stub"}}},
	})
	tool := New(pool)
	args, _ := json.Marshal(map[string]any{"query": "graphs", "k": 3})
	result, err := tool.Execute(context.Background(), "search_papers", args)
	if err != nil {
		t.Fatal(err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	var parsed struct {
		Papers []scribe.PaperMeta `json:"papers"`
	}
	if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(parsed.Papers) != 1 || parsed.Papers[0].Title != "A Paper" {
		t.Fatalf("expected one paper back, got %v", parsed.Papers)
	}
}

func TestSearchPapersMissingQuery(t *testing.T) {
	tool := New(scribe.NewScholarPool(nil))
	args, _ := json.Marshal(map[string]any{})
	result, _ := tool.Execute(context.Background(), "search_papers", args)
	if result.Error == "" {
		t.Error("expected error for missing query")
	}
}

func TestSearchPapersNoPoolConfigured(t *testing.T) {
	tool := New(nil)
	args, _ := json.Marshal(map[string]any{"query": "x"})
	result, _ := tool.Execute(context.Background(), "search_papers", args)
	if result.Error == "" {
		t.Error("expected error when no pool is configured")
	}
}

func TestSearchPapersUnknownTool(t *testing.T) {
	tool := New(nil)
	result, _ := tool.Execute(context.Background(), "other_tool", nil)
	if result.Error == "" {
		t.Error("expected error for unknown tool name")
	}
}

func TestSearchPapersDefinitions(t *testing.T) {
	tool := New(nil)
	defs := tool.Definitions()
	if len(defs) != 1 || defs[0].Name != "search_papers" {
		t.Fatalf("expected exactly [search_papers], got %v", defs)
	}
}
