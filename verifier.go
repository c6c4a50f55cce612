package scribe

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// VerifierGate enforces citation and independence requirements before a
// Claim is allowed to enter the shared loop state. When reasoner is
// nil, semantic support falls back to a basic heuristic instead of an
// LLM judgment call.
type VerifierGate struct {
	reasoner     RemoteReasoner
	model        string
	minCitations int
}

// NewVerifierGate creates a gate. Pass a nil reasoner to run in
// heuristic-only fallback mode.
func NewVerifierGate(reasoner RemoteReasoner, model string) *VerifierGate {
	return &VerifierGate{reasoner: reasoner, model: model, minCitations: 2}
}

// SetMinCitations adjusts the citation-count floor. The orchestrator
// raises this from 2 to 3 in response to a raise_verify_k drift
// advisory.
func (g *VerifierGate) SetMinCitations(n int) {
	if n < 1 {
		n = 1
	}
	g.minCitations = n
}

// VerifyClaim runs the three ordered rules — citation count,
// independence, semantic support — short-circuiting on the first that
// fails. An unverified Claim is still returned (never an error) so
// callers can report why a claim was dropped.
func (g *VerifierGate) VerifyClaim(ctx context.Context, claimText string, sources []string) Claim {
	claim := Claim{Text: claimText, Sources: sources}

	if !g.hasSufficientCitations(sources) {
		return claim
	}
	if !hasIndependentSources(sources) {
		return claim
	}

	if g.reasoner != nil {
		claim.Verified = g.validateWithReasoner(ctx, claimText, sources)
	} else {
		claim.Verified = basicValidation(sources)
	}

	if claim.Verified {
		claim.Confidence = 0.8
	} else {
		claim.Confidence = 0.2
	}
	return claim
}

// FilterClaims returns only the verified claims, preserving order.
func FilterClaims(claims []Claim) []Claim {
	out := make([]Claim, 0, len(claims))
	for _, c := range claims {
		if c.Verified {
			out = append(out, c)
		}
	}
	return out
}

// hasSufficientCitations requires at least minCitations sources, or one
// source that is itself a definition+usage pair within the same file.
func (g *VerifierGate) hasSufficientCitations(sources []string) bool {
	if len(sources) >= g.minCitations {
		return true
	}
	return len(sources) == 1 && isDefUsePair(sources[0])
}

// hasIndependentSources requires two or more distinct domains/files, or
// a lone definition+usage pair.
func hasIndependentSources(sources []string) bool {
	if len(sources) >= 2 {
		domains := map[string]bool{}
		files := map[string]bool{}
		for _, source := range sources {
			switch domain := extractDomain(source); domain {
			case "":
				continue
			case "local_file":
				files[localFileName(source)] = true
			default:
				domains[domain] = true
			}
		}
		return len(domains) >= 2 || len(files) >= 2
	}
	if len(sources) == 0 {
		return false
	}
	return isDefUsePair(sources[0])
}

// isDefUsePair reports whether source encodes a path with two distinct
// line markers, e.g. "pkg/file.go:12:45", which the caller treats as a
// definition and a usage within the same file.
func isDefUsePair(source string) bool {
	return strings.Count(source, ":") >= 2
}

func localFileName(source string) string {
	if idx := strings.Index(source, ":"); idx != -1 {
		return source[:idx]
	}
	return source
}

var urlHostPattern = regexp.MustCompile(`^https?://([^/]+)`)

// extractDomain classifies a source as a remote domain, a local file,
// or unrecognized (empty string).
func extractDomain(source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if m := urlHostPattern.FindStringSubmatch(source); m != nil {
			return m[1]
		}
		return ""
	}
	if strings.HasPrefix(source, "/") || strings.Contains(source, ":") {
		return "local_file"
	}
	return ""
}

func (g *VerifierGate) validateWithReasoner(ctx context.Context, claimText string, sources []string) bool {
	prompt := "You must respond with ONLY the word YES or ONLY the word NO.\n\n" +
		"Claim: " + claimText + "\n" +
		"Sources: " + strings.Join(sources, ", ") + "\n\n" +
		"Is this claim supported by the sources? Respond with ONLY YES or NO."

	resp, err := g.reasoner.Chat(ctx, ChatRequest{
		Model: g.model,
		Messages: []ChatMessage{
			{Role: "system", Content: "You are an evidence verification assistant. Always respond with only YES or NO."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		slog.Warn("verifier: reasoner call failed, falling back to heuristic", "error", err)
		return basicValidation(sources)
	}

	answer := strings.ToUpper(strings.TrimSpace(resp.Content))
	return answer == "YES" || answer == "YES." || answer == "YES!"
}

// basicValidation is the no-reasoner fallback: it requires at least two
// non-blank sources.
func basicValidation(sources []string) bool {
	nonBlank := 0
	for _, s := range sources {
		if strings.TrimSpace(s) != "" {
			nonBlank++
		}
	}
	return nonBlank >= 2
}
