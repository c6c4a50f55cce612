package scribe

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// highSignalDirs are scanned before anything else: the places a
// research question is most likely answered.
var highSignalDirs = map[string]bool{
	"src":     true,
	"schemas": true,
	"docs":    true,
}

// BuildManifest walks root and records every file it can stat,
// tolerating files that vanish or become unreadable mid-walk.
func BuildManifest(root string) []ManifestEntry {
	var entries []ManifestEntry
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		entries = append(entries, ManifestEntry{
			Path:  path,
			Size:  info.Size(),
			Mtime: info.ModTime().Unix(),
		})
		return nil
	})
	return entries
}

const defaultBaseConcurrency = 16

// PlanStages partitions entries into a high-signal tier (src/, schemas/,
// docs/) and a remainder tier, then caps each tier's concurrency
// proportionally to its volume so a huge tree can't overwhelm IO.
func PlanStages(entries []ManifestEntry, baseConcurrency int) []PlanStage {
	if baseConcurrency <= 0 {
		baseConcurrency = defaultBaseConcurrency
	}
	tier1, tier2 := tierPaths(entries)
	tier1Cap := concurrencyCap(tier1, baseConcurrency)
	tier2Cap := 0
	if len(tier2) > 0 {
		tier2Cap = maxInt(2, tier1Cap/2)
	}

	return []PlanStage{
		{Name: "manifest", Paths: nil, MaxConcurrency: 1, Notes: "sequential metadata scan"},
		{Name: "tier1", Paths: tier1, MaxConcurrency: tier1Cap, Notes: "high-signal dirs first"},
		{Name: "tier2", Paths: tier2, MaxConcurrency: tier2Cap, Notes: "remaining dirs throttled"},
	}
}

func tierPaths(entries []ManifestEntry) (tier1, tier2 []string) {
	for _, entry := range entries {
		rel := strings.TrimPrefix(strings.ReplaceAll(entry.Path, "\\", "/"), "./")
		first, _, _ := strings.Cut(rel, "/")
		if highSignalDirs[first] {
			tier1 = append(tier1, entry.Path)
		} else {
			tier2 = append(tier2, entry.Path)
		}
	}
	sort.Strings(tier1)
	sort.Strings(tier2)
	return tier1, tier2
}

// concurrencyCap limits fan-out proportionally to path volume: one
// worker per 8 paths, floored at 4 and capped at base.
func concurrencyCap(paths []string, base int) int {
	if len(paths) == 0 {
		return 0
	}
	return maxInt(4, minInt(base, maxInt(4, len(paths)/8)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
