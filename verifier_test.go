package scribe

import (
	"context"
	"errors"
	"testing"
)

var errBoom = errors.New("boom")

type stubReasoner struct {
	content string
	err     error
}

func (s *stubReasoner) Name() string { return "stub" }

func (s *stubReasoner) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if s.err != nil {
		return ChatResponse{}, s.err
	}
	return ChatResponse{Content: s.content}, nil
}

func TestVerifierGateSetMinCitationsRaisesFloor(t *testing.T) {
	gate := NewVerifierGate(nil, "")
	gate.SetMinCitations(3)
	claim := gate.VerifyClaim(context.Background(), "two independent sources", []string{"https://a.example/p", "https://b.example/p"})
	if claim.Verified {
		t.Fatal("expected two sources to fail once the citation floor is raised to 3")
	}
}

func TestVerifierGateRejectsSingleWeakCitation(t *testing.T) {
	gate := NewVerifierGate(nil, "")
	claim := gate.VerifyClaim(context.Background(), "the system is fast", []string{"orchestrator.go:1"})
	if claim.Verified {
		t.Fatal("expected a single non-def-use citation to fail the citation-count rule")
	}
}

func TestVerifierGateAcceptsDefUsePairSingleSource(t *testing.T) {
	gate := NewVerifierGate(nil, "")
	claim := gate.VerifyClaim(context.Background(), "foo is defined and used here", []string{"pkg/file.go:12:45"})
	if !claim.Verified {
		t.Fatalf("expected a def+use pair single source to pass, got %+v", claim)
	}
}

func TestVerifierGateRejectsSameDomainSources(t *testing.T) {
	gate := NewVerifierGate(nil, "")
	claim := gate.VerifyClaim(context.Background(), "claim", []string{
		"https://github.com/a/b", "https://github.com/c/d",
	})
	if claim.Verified {
		t.Fatal("expected two sources from the same domain to fail independence")
	}
}

func TestVerifierGateAcceptsTwoIndependentDomains(t *testing.T) {
	gate := NewVerifierGate(nil, "")
	claim := gate.VerifyClaim(context.Background(), "claim", []string{
		"https://github.com/a/b", "https://arxiv.org/abs/1234",
	})
	if !claim.Verified {
		t.Fatalf("expected two independent domains with basic validation to pass, got %+v", claim)
	}
}

func TestVerifierGateAcceptsTwoDistinctLocalFiles(t *testing.T) {
	gate := NewVerifierGate(nil, "")
	claim := gate.VerifyClaim(context.Background(), "claim", []string{
		"pkg/a.go:10", "pkg/b.go:20",
	})
	if !claim.Verified {
		t.Fatalf("expected two distinct local files to pass independence, got %+v", claim)
	}
}

func TestVerifierGateUsesReasonerWhenPresent(t *testing.T) {
	gate := NewVerifierGate(&stubReasoner{content: "YES"}, "test-model")
	claim := gate.VerifyClaim(context.Background(), "claim", []string{
		"pkg/a.go:10", "pkg/b.go:20",
	})
	if !claim.Verified || claim.Confidence != 0.8 {
		t.Fatalf("expected reasoner YES to verify with confidence 0.8, got %+v", claim)
	}
}

func TestVerifierGateReasonerNoRejects(t *testing.T) {
	gate := NewVerifierGate(&stubReasoner{content: "NO"}, "test-model")
	claim := gate.VerifyClaim(context.Background(), "claim", []string{
		"pkg/a.go:10", "pkg/b.go:20",
	})
	if claim.Verified || claim.Confidence != 0.2 {
		t.Fatalf("expected reasoner NO to reject with confidence 0.2, got %+v", claim)
	}
}

func TestVerifierGateReasonerErrorFallsBackToHeuristic(t *testing.T) {
	gate := NewVerifierGate(&stubReasoner{err: errBoom}, "test-model")
	claim := gate.VerifyClaim(context.Background(), "claim", []string{
		"pkg/a.go:10", "pkg/b.go:20",
	})
	if !claim.Verified {
		t.Fatalf("expected heuristic fallback to verify on reasoner error, got %+v", claim)
	}
}

func TestFilterClaimsKeepsOnlyVerified(t *testing.T) {
	claims := []Claim{
		{Text: "a", Verified: true},
		{Text: "b", Verified: false},
		{Text: "c", Verified: true},
	}
	filtered := FilterClaims(claims)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 verified claims, got %d", len(filtered))
	}
}
