package scribe

import "encoding/json"

// --- §3 data model ---

// ManifestEntry is one file discovered by the planner's repository walk.
// Built once per run; immutable.
type ManifestEntry struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"`
}

// PlanStage is one ordered phase of the plan produced by the Planner.
type PlanStage struct {
	Name           string   `json:"name"`
	Paths          []string `json:"paths"`
	MaxConcurrency int      `json:"max_concurrency"`
	Notes          string   `json:"notes,omitempty"`
}

// SearchHit is one evidence line returned by the Code Searcher.
type SearchHit struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// SymbolDef is a single definition site for an identifier.
type SymbolDef struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Line int    `json:"line"`
}

// SymbolUse is a single usage site for an identifier.
type SymbolUse struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Line int    `json:"line"`
}

// BlobMeta is the JSON sidecar stored alongside a CAS blob.
type BlobMeta struct {
	URL            string `json:"url,omitempty"`
	FetchedAt      int64  `json:"fetched_at,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
	Size           int64  `json:"size"`
	ParserVersion  string `json:"parser_version"`
	Outlinks       []string `json:"outlinks,omitempty"`
}

// AgentBudget is a per-agent quota on tool calls and admitted tokens.
type AgentBudget struct {
	MaxCalls   int
	MaxTokens  int
	CallsUsed  int
	TokensUsed int
}

// AtLimit reports whether the budget is exhausted.
func (b *AgentBudget) AtLimit() bool {
	return b.CallsUsed >= b.MaxCalls || b.TokensUsed >= b.MaxTokens
}

// ToolResult is returned by a Tool's Execute. Exactly one of Content/Error
// is meaningful; Error is used in preference to a Go error so that the
// registry never aborts dispatch on a tool-internal failure.
type ToolResult struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Claim is a proposed addition to the report after verification.
// verified=true implies Confidence >= 0.8; verified=false implies
// Confidence <= 0.2 (spec §3).
type Claim struct {
	Text       string   `json:"text"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
	Verified   bool     `json:"verified"`
}

// LoopState is R_t: the only state the orchestrator carries across turns.
type LoopState struct {
	Question        string `json:"question"`
	Report          string `json:"report"`
	LastObservation string `json:"last_observation"`
}

// ExecResult is the outcome of a sandboxed snippet run.
type ExecResult struct {
	OK          bool   `json:"ok"`
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	ReturnCode  int    `json:"returncode"`
	DurationMs  int64  `json:"duration_ms"`
	Isolated    bool   `json:"isolated"`
	ContainerID string `json:"container_id,omitempty"`
}

// PaperMeta is a normalized literature record returned by a ScholarProvider.
type PaperMeta struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Venue    string   `json:"venue,omitempty"`
	Year     int      `json:"year,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	URL      string   `json:"url,omitempty"`
	PDFURL   string   `json:"pdf_url,omitempty"`
	Source   string   `json:"source"`
}

// --- LLM protocol types (RemoteReasoner wire shape) ---

// ChatMessage is one turn in a conversation with a RemoteReasoner.
type ChatMessage struct {
	Role       string          `json:"role"` // "system", "user", "assistant", "tool"
	Content    string          `json:"content"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// ToolCall is a single tool invocation, either produced by the registry
// (spec §3 ToolCall{name,parameters}) or parsed from a reasoner response.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ResponseSchema requests structured JSON output from a RemoteReasoner.
type ResponseSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

// ChatRequest is sent to a RemoteReasoner.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Tools          []ToolDefinition `json:"tools,omitempty"`
	ResponseSchema *ResponseSchema `json:"response_schema,omitempty"`
}

// ChatResponse is returned by a RemoteReasoner.
type ChatResponse struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
}

// Usage carries token accounting from a RemoteReasoner call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ToolDefinition declares a tool's name, description, and JSON Schema
// parameters, as exposed by ToolRegistry.List and injected into
// reasoner-driven requests.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// --- ChatMessage constructors, matching the teacher's naming ---

func UserMessage(text string) ChatMessage      { return ChatMessage{Role: "user", Content: text} }
func SystemMessage(text string) ChatMessage    { return ChatMessage{Role: "system", Content: text} }
func AssistantMessage(text string) ChatMessage { return ChatMessage{Role: "assistant", Content: text} }
func ToolResultMessage(callID, content string) ChatMessage {
	return ChatMessage{Role: "tool", Content: content, ToolCallID: callID}
}
