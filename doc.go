// Package scribe is the core reasoning-and-dispatch engine of a local-first,
// tool-augmented research assistant.
//
// Given a natural-language question and a repository root, scribe plans a
// staged walk of the repository (Planner), searches it for evidence (Code
// Search, backed by a Symbol Index and a Content-Addressable Store),
// executes untrusted snippets in an isolated Sandbox, looks up literature
// through a pool of rate-limited Scholar providers, and accumulates
// evidence into a single compressed report (the Orchestrator's Markov
// loop), admitting only observations that pass the Verifier Gate's
// citation and independence checks.
//
// # Core pieces
//
//   - [ContentStore] — content-addressed blob + metadata persistence.
//   - [SymbolIndex] — identifier → (file, line) lookup, cached in a ContentStore.
//   - [CodeSearch] — keyword/symbol evidence retrieval.
//   - [RunSnippet] — isolated snippet execution (container-preferred).
//   - [ScholarPool] — multi-provider literature search.
//   - [ToolRegistry] — uniform tool dispatch contract.
//   - [DelegationPolicy] — per-agent budget enforcement and output compression.
//   - [VerifierGate] — citation/independence/semantic-support gate.
//   - [BuildManifest] / [PlanStages] — manifest scan + tiered stage planning.
//   - [Orchestrator] — the Markov loop tying all of the above together.
//
// The command-line wrapper, configuration file loading, and the HTTP
// client for a remote LLM are treated as external collaborators; see
// cmd/scribe, internal/config, and remotereasoner.
package scribe
