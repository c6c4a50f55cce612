package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileReadFull(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "test.txt"), []byte("line1\nline2\nline3\n"), 0644)
	tool := New(dir)
	args, _ := json.Marshal(map[string]any{"path": "test.txt"})
	result, _ := tool.Execute(context.Background(), "read_file", args)
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	var snip map[string]any
	if err := json.Unmarshal([]byte(result.Content), &snip); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !strings.Contains(snip["text"].(string), "line1") {
		t.Errorf("expected full file content, got %v", snip)
	}
}

func TestFileReadRange(t *testing.T) {
	dir := t.TempDir()
	content := "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10\n"
	os.WriteFile(filepath.Join(dir, "multi.txt"), []byte(content), 0644)
	tool := New(dir)
	args, _ := json.Marshal(map[string]any{"path": "multi.txt", "start": 5, "end": 6})
	result, _ := tool.Execute(context.Background(), "read_file", args)
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	var snip map[string]any
	json.Unmarshal([]byte(result.Content), &snip)
	// start=5,end=6 padded by 3 context lines -> lines 2..9
	if int(snip["start"].(float64)) != 2 {
		t.Errorf("expected padded start 2, got %v", snip["start"])
	}
	if int(snip["end"].(float64)) != 9 {
		t.Errorf("expected padded end 9, got %v", snip["end"])
	}
}

func TestFilePathTraversal(t *testing.T) {
	tool := New(t.TempDir())
	args, _ := json.Marshal(map[string]string{"path": "../etc/passwd"})
	result, _ := tool.Execute(context.Background(), "read_file", args)
	if result.Error == "" {
		t.Error("expected path traversal error")
	}
}

func TestFileAbsolutePath(t *testing.T) {
	tool := New(t.TempDir())
	args, _ := json.Marshal(map[string]string{"path": "/etc/passwd"})
	result, _ := tool.Execute(context.Background(), "read_file", args)
	if result.Error == "" {
		t.Error("expected absolute path error")
	}
}

func TestFileReadNonexistent(t *testing.T) {
	tool := New(t.TempDir())
	args, _ := json.Marshal(map[string]string{"path": "does_not_exist.txt"})
	result, _ := tool.Execute(context.Background(), "read_file", args)
	if result.Error == "" {
		t.Error("expected error for nonexistent file")
	}
}

func TestFileMissingPath(t *testing.T) {
	tool := New(t.TempDir())
	args, _ := json.Marshal(map[string]string{})
	result, _ := tool.Execute(context.Background(), "read_file", args)
	if result.Error == "" {
		t.Error("expected error for missing path")
	}
}

func TestFileDefinitions(t *testing.T) {
	tool := New(t.TempDir())
	defs := tool.Definitions()
	if len(defs) != 1 || defs[0].Name != "read_file" {
		t.Fatalf("expected exactly [read_file], got %v", defs)
	}
}

func TestFileUnknownTool(t *testing.T) {
	tool := New(t.TempDir())
	result, _ := tool.Execute(context.Background(), "file_write", nil)
	if result.Error == "" {
		t.Error("expected error for unknown tool name")
	}
}
