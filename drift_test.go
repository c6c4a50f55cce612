package scribe

import "testing"

func TestDriftMonitorStableWhenTextUnchanged(t *testing.T) {
	m := DefaultDriftMonitor()
	text := "the report mentions files and functions and variables"
	tick := m.Measure(1, text, text)
	if tick.Action != "stable" {
		t.Fatalf("expected stable action for identical text, got %q (sim=%f)", tick.Action, tick.CosineSim)
	}
	if tick.CosineSim < 0.999 {
		t.Errorf("expected cosine similarity ~1.0, got %f", tick.CosineSim)
	}
}

func TestDriftMonitorDangerWhenTextUnrelated(t *testing.T) {
	m := DefaultDriftMonitor()
	tick := m.Measure(2, "alpha beta gamma delta epsilon", "zulu yankee xray whiskey victor")
	if tick.Action != "increase_compression;raise_verify_k;reduce_concurrency" {
		t.Fatalf("expected danger action for unrelated text, got %q", tick.Action)
	}
	if tick.CosineSim != 0 {
		t.Errorf("expected zero overlap similarity, got %f", tick.CosineSim)
	}
}

func TestDriftMonitorWarnBand(t *testing.T) {
	m := NewDriftMonitor(0.98, 0.50)
	tick := m.Measure(3, "alpha beta gamma delta", "alpha beta gamma zeta")
	if tick.Action != "increase_compression_slight;prefer_high_authority_sources" {
		t.Fatalf("expected warn-band action, got %q (sim=%f)", tick.Action, tick.CosineSim)
	}
}

func TestDriftMonitorHandlesEmptyText(t *testing.T) {
	m := DefaultDriftMonitor()
	tick := m.Measure(0, "", "some text")
	if tick.CosineSim != 0 {
		t.Errorf("expected zero similarity against empty text, got %f", tick.CosineSim)
	}
}
