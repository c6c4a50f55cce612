package scribe

import "testing"

func entriesFor(paths ...string) []ManifestEntry {
	entries := make([]ManifestEntry, len(paths))
	for i, p := range paths {
		entries[i] = ManifestEntry{Path: p}
	}
	return entries
}

func TestPlanStagesSeparatesHighSignalTier(t *testing.T) {
	entries := entriesFor("src/main.go", "docs/readme.md", "vendor/pkg/x.go", "tmp/out.log")
	stages := PlanStages(entries, 16)

	var tier1, tier2 PlanStage
	for _, s := range stages {
		switch s.Name {
		case "tier1":
			tier1 = s
		case "tier2":
			tier2 = s
		}
	}
	if len(tier1.Paths) != 2 {
		t.Fatalf("expected 2 high-signal paths, got %d: %v", len(tier1.Paths), tier1.Paths)
	}
	if len(tier2.Paths) != 2 {
		t.Fatalf("expected 2 remainder paths, got %d: %v", len(tier2.Paths), tier2.Paths)
	}
}

func TestPlanStagesManifestStageIsSequential(t *testing.T) {
	stages := PlanStages(nil, 16)
	if stages[0].Name != "manifest" || stages[0].MaxConcurrency != 1 {
		t.Fatalf("expected sequential manifest stage first, got %+v", stages[0])
	}
}

func TestPlanStagesConcurrencyScalesWithVolume(t *testing.T) {
	var many []string
	for i := 0; i < 800; i++ {
		many = append(many, "src/file.go")
	}
	entries := entriesFor(many...)
	stages := PlanStages(entries, 16)

	for _, s := range stages {
		if s.Name == "tier1" && s.MaxConcurrency != 16 {
			t.Fatalf("expected tier1 to hit the base concurrency cap of 16, got %d", s.MaxConcurrency)
		}
	}
}

func TestPlanStagesConcurrencyFloorsAtFour(t *testing.T) {
	entries := entriesFor("src/a.go", "src/b.go")
	stages := PlanStages(entries, 16)

	for _, s := range stages {
		if s.Name == "tier1" && s.MaxConcurrency != 4 {
			t.Fatalf("expected tier1 concurrency to floor at 4 for a small batch, got %d", s.MaxConcurrency)
		}
	}
}

func TestPlanStagesTier2FloorsAtTwo(t *testing.T) {
	var many []string
	for i := 0; i < 200; i++ {
		many = append(many, "tmp/file.go")
	}
	entries := entriesFor(many...)
	stages := PlanStages(entries, 16)

	var tier2 PlanStage
	for _, s := range stages {
		if s.Name == "tier2" {
			tier2 = s
		}
	}
	if tier2.MaxConcurrency < 2 {
		t.Fatalf("expected tier2 concurrency to floor at 2, got %d", tier2.MaxConcurrency)
	}
}

func TestPlanStagesEmptyTierHasZeroConcurrency(t *testing.T) {
	entries := entriesFor("docs/readme.md")
	stages := PlanStages(entries, 16)

	for _, s := range stages {
		if s.Name == "tier2" && s.MaxConcurrency != 0 {
			t.Fatalf("expected empty tier2 to have 0 concurrency, got %d", s.MaxConcurrency)
		}
	}
}

func TestBuildManifestFindsFilesUnderTempDir(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", "hello")
	writeTempFile(t, dir, "nested/b.txt", "world")

	entries := BuildManifest(dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 manifest entries, got %d", len(entries))
	}
}
