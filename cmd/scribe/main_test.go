package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func() int) (string, int) {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	code := fn()
	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), code
}

func TestRunListsTools(t *testing.T) {
	dir := t.TempDir()
	out, code := captureStdout(t, func() int {
		return run([]string{"--root", dir, "--tools"})
	})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "read_file") || !strings.Contains(out, "search_code") {
		t.Fatalf("expected tool listing, got %q", out)
	}
}

func TestRunValidateConfigRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	badPath := filepath.Join(dir, "models.ini")
	if err := os.WriteFile(badPath, []byte("[models]\nfallback_interval = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code := run([]string{"--validate-config", "--models", badPath})
	if code != 1 {
		t.Fatalf("expected exit 1 for invalid fallback_interval, got %d", code)
	}
}

func TestRunValidateConfigAcceptsDefaults(t *testing.T) {
	dir := t.TempDir()
	missingPath := filepath.Join(dir, "models.ini")
	code := run([]string{"--validate-config", "--models", missingPath})
	if code != 0 {
		t.Fatalf("expected exit 0 for defaulted config, got %d", code)
	}
}

func TestRunExecutesOrchestratorLocally(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv("OPENROUTER_API_KEY")

	out, code := captureStdout(t, func() int {
		return run([]string{"--root", dir, "what does main.go contain?"})
	})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "Q: what does main.go contain?") {
		t.Fatalf("expected synthesized report, got %q", out)
	}
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	code := run([]string{"--bogus"})
	if code != 2 {
		t.Fatalf("expected exit 2 for flag parse error, got %d", code)
	}
}
