package scribe

import (
	"context"
	"strings"
	"testing"
)

func TestRunSnippetFallsBackToSubprocess(t *testing.T) {
	res, err := RunSnippet(context.Background(), `print("sandboxed")`, nil, 5, 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected success, got %+v", res)
	}
	if !strings.Contains(res.Stdout, "sandboxed") {
		t.Errorf("expected stdout to contain snippet output, got %q", res.Stdout)
	}
}
