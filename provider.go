package scribe

import "context"

// RemoteReasoner is the opaque text-in/text-out (optionally tool-calling)
// capability described in spec §6: an HTTPS JSON chat-completions-style
// client the orchestrator treats as a black box. It is constructed only
// when OPENROUTER_API_KEY is present; its absence degrades the
// orchestrator to local-only operation rather than producing a
// ConfigError.
//
// See package remotereasoner for the concrete OpenRouter-compatible
// implementation.
type RemoteReasoner interface {
	// Chat sends a request and returns the reasoner's response. When
	// req.Tools is non-empty, the response may carry structured tool
	// calls (spec §4.10's first parser tier); otherwise the orchestrator
	// falls back to parsing the response content for an embedded JSON
	// object or ReAct blocks via the ReAct Parser.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Name identifies the reasoner for logging/tracing (e.g. the
	// underlying model name).
	Name() string
}
