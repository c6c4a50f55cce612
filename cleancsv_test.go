package scribe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSniffCSVInfersTypesAndNulls(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "data.csv", "id,name,score\n1,Alice,9.5\n2,,8.0\n3,Carol,\n")

	info, err := SniffCSV(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if info.Rows != 3 || info.Columns != 3 {
		t.Fatalf("unexpected shape: %+v", info)
	}
	if info.Info[0].Dtype != "int64" {
		t.Errorf("expected id column to be int64, got %s", info.Info[0].Dtype)
	}
	if info.Info[1].NullCount != 1 {
		t.Errorf("expected name column to have 1 null, got %d", info.Info[1].NullCount)
	}
}

func TestSuggestCleaningStepsFlagsHighNullRatio(t *testing.T) {
	info := CSVInfo{
		Rows: 10,
		Info: []ColumnInfo{
			{Name: "mostly_null", Dtype: "object", NullCount: 6},
		},
	}
	steps := SuggestCleaningSteps(info)
	if len(steps) != 1 || steps[0].Type != "drop_column" {
		t.Fatalf("expected a drop_column suggestion, got %+v", steps)
	}
}

func TestCleanCSVAppliesDropAndNormalize(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "in.csv", "id,name,junk\n1,  Alice  ,x\n2,Bob,y\n")
	info, err := SniffCSV(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	steps := []CleaningStep{
		{Type: "drop_column", Column: "junk"},
		{Type: "normalize_strings", Column: "name"},
	}
	out := filepath.Join(dir, "out.csv")
	result, err := CleanCSV(info, steps, out)
	if err != nil {
		t.Fatal(err)
	}
	if result.CleanedRows != 2 {
		t.Fatalf("expected 2 cleaned rows, got %d", result.CleanedRows)
	}
	data, _ := os.ReadFile(out)
	if got := string(data); !strings.Contains(got, "alice") || strings.Contains(got, "junk") {
		t.Fatalf("expected normalized name and dropped junk column, got %q", got)
	}
}
