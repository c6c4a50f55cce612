package scribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// delegateHandler produces raw (uncompressed) output for one delegated
// call. Domain-level failures are reported as sentinel strings in the
// returned text (e.g. "csv_error: ..."), matching every other tool's
// in-band failure contract; the error return is reserved for failures
// the delegation policy itself should treat as exceptional.
type delegateHandler func(ctx context.Context, prompt string) (string, error)

// DelegateTool gates a delegate call through a DelegationPolicy and
// compresses its output before it can join the shared loop state.
type DelegateTool struct {
	policy   *DelegationPolicy
	handlers map[string]delegateHandler
}

// NewDelegateTool creates a DelegateTool over policy and handlers.
func NewDelegateTool(policy *DelegationPolicy, handlers map[string]delegateHandler) *DelegateTool {
	return &DelegateTool{policy: policy, handlers: handlers}
}

// Run dispatches to agentID's handler if the policy allows it, records
// the (compressed) result, and reports whether the call actually ran.
func (d *DelegateTool) Run(ctx context.Context, agentID, prompt string) (string, bool) {
	if !d.policy.Allow(agentID) {
		return "", false
	}
	handler, ok := d.handlers[agentID]
	if !ok {
		return "", false
	}
	raw, err := handler(ctx, prompt)
	if err != nil {
		raw = fmt.Sprintf("_error: %v", err)
	}
	compressed, err := d.policy.Record(agentID, raw)
	if err != nil {
		return "", false
	}
	return compressed, true
}

// ModelRouter alternates between a primary and fallback model every
// fallbackInterval calls, spreading load across two model slots the
// way a client-side round robin over a provider's rate limits would.
type ModelRouter struct {
	mu               sync.Mutex
	primary          string
	fallback         string
	fallbackInterval int
	calls            int
}

// NewModelRouter creates a router. A zero or negative fallbackInterval
// is treated as 1 (fallback on every call).
func NewModelRouter(primary, fallback string, fallbackInterval int) *ModelRouter {
	if fallbackInterval <= 0 {
		fallbackInterval = 1
	}
	return &ModelRouter{primary: primary, fallback: fallback, fallbackInterval: fallbackInterval}
}

// NextModel returns the model to use for the next call.
func (r *ModelRouter) NextModel() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.fallback != "" && r.calls%r.fallbackInterval == 0 {
		return r.fallback
	}
	return r.primary
}

// SufficiencyFunc decides whether the accumulated loop state already
// answers the question, letting the orchestrator stop before exhausting
// its stage plan.
type SufficiencyFunc func(LoopState) bool

// Orchestrator ties the Planner, Code Search, Sandbox, Scholar Pool,
// Verifier Gate, Delegation Policy, and Drift Monitor into a single
// Markov loop: at every stage it gathers one observation, verifies and
// folds it into the report, runs any stage-triggered delegate calls one
// after another, and reacts to drift feedback before moving to the next
// stage.
type Orchestrator struct {
	root            string
	baseConcurrency int

	manifest []ManifestEntry
	stages   []PlanStage

	codeSearch *CodeSearch
	verifier   *VerifierGate
	scholar    *ScholarPool
	policy     *DelegationPolicy
	drift      *DriftMonitor
	tools      *ToolRegistry

	reasoner      RemoteReasoner
	reasonerModel string
	modelRouter   *ModelRouter
	reactParser   *ReActParser

	agentBudgets     map[string]*AgentBudget
	delegateHandlers map[string]delegateHandler
	delegateTool     *DelegateTool

	sufficient SufficiencyFunc

	logger *slog.Logger
	tracer Tracer
}

// OrchestratorOption configures an Orchestrator at construction time.
type OrchestratorOption func(*Orchestrator)

// WithReasoner attaches a RemoteReasoner and default model, enabling the
// "tongyi" delegate handler and RunWithReasoner. Leaving this unset
// degrades gracefully to "tongyi_unavailable: ..." observations.
func WithReasoner(r RemoteReasoner, model string) OrchestratorOption {
	return func(o *Orchestrator) { o.reasoner = r; o.reasonerModel = model }
}

// WithModelRouter attaches a ModelRouter the "tongyi" handler consults
// for each call instead of always using the default model.
func WithModelRouter(router *ModelRouter) OrchestratorOption {
	return func(o *Orchestrator) { o.modelRouter = router }
}

// WithScholarPool attaches a ScholarPool, enabling the "scholar"
// delegate handler.
func WithScholarPool(p *ScholarPool) OrchestratorOption {
	return func(o *Orchestrator) { o.scholar = p }
}

// WithToolRegistry attaches a ToolRegistry for RunWithReasoner's
// reasoner-driven tool dispatch.
func WithToolRegistry(r *ToolRegistry) OrchestratorOption {
	return func(o *Orchestrator) { o.tools = r }
}

// WithAgentBudgets overrides the default per-delegate budget table.
func WithAgentBudgets(budgets map[string]*AgentBudget) OrchestratorOption {
	return func(o *Orchestrator) { o.agentBudgets = budgets }
}

// WithDelegateHandlers overrides the default delegate handler set,
// useful for tests that stub out sandbox/scholar/reasoner behavior.
func WithDelegateHandlers(handlers map[string]delegateHandler) OrchestratorOption {
	return func(o *Orchestrator) { o.delegateHandlers = handlers }
}

// WithSufficiencyFunc injects the predicate used to decide whether the
// loop can stop before exhausting its stage plan. Without one, every
// planned stage runs.
func WithSufficiencyFunc(fn SufficiencyFunc) OrchestratorOption {
	return func(o *Orchestrator) { o.sufficient = fn }
}

// WithBaseConcurrency overrides the planner's base fan-out.
func WithBaseConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.baseConcurrency = n }
}

// WithDriftMonitor overrides the default drift thresholds.
func WithDriftMonitor(m *DriftMonitor) OrchestratorOption {
	return func(o *Orchestrator) { o.drift = m }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTracer attaches a Tracer for per-stage spans.
func WithTracer(t Tracer) OrchestratorOption {
	return func(o *Orchestrator) { o.tracer = t }
}

// NewOrchestrator builds an Orchestrator rooted at root, scanning the
// manifest and planning stages immediately so Run has a fixed plan.
func NewOrchestrator(root string, opts ...OrchestratorOption) *Orchestrator {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	o := &Orchestrator{
		root:            abs,
		baseConcurrency: defaultBaseConcurrency,
		codeSearch:      NewCodeSearch(abs, nil),
		verifier:        NewVerifierGate(nil, ""),
		drift:           DefaultDriftMonitor(),
		reactParser:     NewReActParser(),
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.agentBudgets == nil {
		o.agentBudgets = DefaultAgentBudgets()
	}
	o.policy = NewDelegationPolicy(o.agentBudgets)

	o.manifest = BuildManifest(o.root)
	// PlanStages tiers paths by their top-level directory, so plan over
	// root-relative paths and map the planned paths back to absolute ones.
	rel := make([]ManifestEntry, len(o.manifest))
	for i, e := range o.manifest {
		rel[i] = e
		if r, err := filepath.Rel(o.root, e.Path); err == nil {
			rel[i].Path = r
		}
	}
	o.stages = PlanStages(rel, o.baseConcurrency)
	for i := range o.stages {
		for j, p := range o.stages[i].Paths {
			o.stages[i].Paths[j] = filepath.Join(o.root, p)
		}
	}

	if o.delegateHandlers == nil {
		o.delegateHandlers = o.buildDefaultDelegateHandlers()
	}
	o.delegateTool = NewDelegateTool(o.policy, o.delegateHandlers)

	return o
}

// Policy exposes the orchestrator's DelegationPolicy, mainly so callers
// can inspect Metrics() after a run.
func (o *Orchestrator) Policy() *DelegationPolicy { return o.policy }

// Run executes the full staged loop for question and returns the
// synthesized answer along with the drift ticks observed along the way.
func (o *Orchestrator) Run(ctx context.Context, question string) (string, []DriftTick, error) {
	state := LoopState{Question: question}
	ticks := make([]DriftTick, 0, len(o.stages))

	for i, stage := range o.stages {
		if err := ctx.Err(); err != nil {
			return "", ticks, err
		}

		prevReport := state.Report
		o.runStage(ctx, stage, &state)

		tick := o.drift.Measure(i, prevReport, state.Report)
		ticks = append(ticks, tick)
		o.applyDriftAdvisory(tick, i)

		if o.sufficient != nil && o.sufficient(state) {
			o.logger.Info("orchestrator: sufficiency predicate satisfied, stopping early", "stage", stage.Name)
			break
		}
	}

	return o.synthesize(state), ticks, nil
}

// runStage executes one stage under a trace span and structured-logging
// pair, recovering from a panicking stage into an observation instead
// of crashing the whole run.
func (o *Orchestrator) runStage(ctx context.Context, stage PlanStage, state *LoopState) {
	spanCtx := ctx
	var span Span
	if o.tracer != nil {
		spanCtx, span = o.tracer.Start(ctx, "orchestrator.stage",
			StringAttr("stage", stage.Name), IntAttr("max_concurrency", stage.MaxConcurrency))
		defer span.End()
	}

	o.logger.Info("orchestrator: stage started", "stage", stage.Name, "paths", len(stage.Paths))
	defer func() {
		if r := recover(); r != nil {
			if span != nil {
				span.Error(fmt.Errorf("panic: %v", r))
			}
			o.logger.Error("orchestrator: stage panicked", "stage", stage.Name, "panic", r)
			state.LastObservation = fmt.Sprintf("stage %s failed: %v", stage.Name, r)
			state.Report = compressReport(state.Report, state.LastObservation, o.policy.defaultTokens)
		}
	}()

	o.processStage(spanCtx, stage, state)
	o.logger.Info("orchestrator: stage completed", "stage", stage.Name)
}

// processStage gathers one stage's observation, verifies and folds it
// into the report, then fires any stage-triggered delegate calls.
func (o *Orchestrator) processStage(ctx context.Context, stage PlanStage, state *LoopState) {
	if stage.Name == "manifest" {
		state.LastObservation = fmt.Sprintf("Manifest scanned: %d files", len(o.manifest))
	} else {
		hits := o.collectHits(stage, state.Question)
		if len(hits) == 0 {
			hits = o.codeSearch.Search(state.Question, nil, 4)
		}
		if len(hits) > 0 {
			raw := fmt.Sprintf("Stage %s hits: %s", stage.Name, o.describeHits(hits))
			state.LastObservation = o.verifyAndAddClaims(ctx, raw)
		} else {
			state.LastObservation = fmt.Sprintf("Stage %s no matches for query", stage.Name)
		}
	}
	state.Report = compressReport(state.Report, state.LastObservation, o.policy.defaultTokens)

	switch stage.Name {
	case "tier1":
		o.runTier1Delegates(ctx, stage, state)
	case "tier2":
		o.runTier2Delegates(ctx, stage, state)
	}
}

// collectHits searches stage's paths, capping fan-out at 200 files so a
// huge tier doesn't turn every stage into a full repo scan.
func (o *Orchestrator) collectHits(stage PlanStage, question string) []SearchHit {
	paths := stage.Paths
	if len(paths) > 200 {
		paths = paths[:200]
	}
	return o.codeSearch.Search(question, paths, 4)
}

func (o *Orchestrator) describeHits(hits []SearchHit) string {
	lines := make([]string, 0, len(hits))
	for _, hit := range hits {
		rel, err := filepath.Rel(o.root, hit.Path)
		if err != nil {
			rel = hit.Path
		}
		snippet := strings.TrimSpace(strings.ReplaceAll(hit.Snippet, "\n", " "))
		if len(snippet) > 160 {
			snippet = snippet[:157] + "…"
		}
		lines = append(lines, fmt.Sprintf("%s:%d %s", rel, hit.Line, snippet))
	}
	return strings.Join(lines, " | ")
}

// runTier1Delegates asks the small in-process agent and then the tongyi
// delegate to weigh in on the first 20 high-signal paths. The tongyi
// delegate runs even when no remote reasoner is configured; it then
// reports itself unavailable.
func (o *Orchestrator) runTier1Delegates(ctx context.Context, stage PlanStage, state *LoopState) {
	paths := stage.Paths
	if len(paths) > 20 {
		paths = paths[:20]
	}
	for _, agentID := range []string{"small", "tongyi"} {
		response, ok := o.delegateTool.Run(ctx, agentID, o.buildDelegatePrompt(state.Question, paths, stage.Name))
		if !ok {
			continue
		}
		state.LastObservation = fmt.Sprintf("Delegate %s -> %s", agentID, response)
		state.Report = compressReport(state.Report, state.LastObservation, o.policy.defaultTokens)
	}
}

var (
	computeKeywords  = []string{"compute", "calculate", "evaluate", "run", "execute"}
	scholarKeywords  = []string{"paper", "literature", "survey", "review", "recent", "state-of-the-art"}
	csvKeywords      = []string{"clean csv", "process csv", "clean the csv", "clean the data"}
	markdownKeywords = []string{"clean markdown", "process markdown", "clean the markdown", "clean the dump"}
)

// runTier2Delegates fires opportunistic sandbox/scholar/csv/markdown
// delegate calls when the question's phrasing hints at that capability.
func (o *Orchestrator) runTier2Delegates(ctx context.Context, stage PlanStage, state *LoopState) {
	q := strings.ToLower(state.Question)

	if containsAny(q, computeKeywords...) {
		demo := "result = sum(range(10))\nprint(f'sum(0..9)={result}')"
		if response, ok := o.delegateTool.Run(ctx, "sandbox", fmt.Sprintf("code=%s\nseed=42\ntimeout=10", demo)); ok {
			o.foldDelegateObservation(state, "sandbox", response)
		}
	}

	if containsAny(q, scholarKeywords...) {
		query := strings.Trim(state.Question, "?")
		if response, ok := o.delegateTool.Run(ctx, "scholar", fmt.Sprintf("query=%s\nk=3", query)); ok {
			o.foldDelegateObservation(state, "scholar", response)
		}
	}

	if containsAny(q, csvKeywords...) {
		if csvPath := findFileWithSuffix(state.Question, ".csv"); csvPath != "" {
			out := strings.TrimSuffix(csvPath, ".csv") + "_cleaned.csv"
			if response, ok := o.delegateTool.Run(ctx, "csv_cleaner", fmt.Sprintf("csv_path=%s\noutput_path=%s", csvPath, out)); ok {
				o.foldDelegateObservation(state, "csv_cleaner", response)
			}
		}
	}

	if containsAny(q, markdownKeywords...) {
		if mdPath := findFileWithSuffix(state.Question, ".md"); mdPath != "" {
			out := strings.TrimSuffix(mdPath, ".md") + "_cleaned.md"
			if response, ok := o.delegateTool.Run(ctx, "md_cleaner", fmt.Sprintf("md_path=%s\noutput_path=%s", mdPath, out)); ok {
				o.foldDelegateObservation(state, "md_cleaner", response)
			}
		}
	}
}

func (o *Orchestrator) foldDelegateObservation(state *LoopState, agentID, response string) {
	state.LastObservation = fmt.Sprintf("Delegate %s -> %s", agentID, response)
	state.Report = compressReport(state.Report, state.LastObservation, o.policy.defaultTokens)
}

func findFileWithSuffix(question, suffix string) string {
	for _, word := range strings.Fields(question) {
		if strings.HasSuffix(strings.ToLower(word), suffix) {
			return word
		}
	}
	return ""
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// buildDelegatePrompt encodes the loop question, stage, and a
// workspace-relative file list as newline-separated key=value pairs, the
// format every default delegate handler parses with parseKeyValue.
func (o *Orchestrator) buildDelegatePrompt(question string, paths []string, stageName string) string {
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(o.root, p)
		if err != nil {
			r = p
		}
		rel = append(rel, r)
	}
	return fmt.Sprintf("question=%s\nstage=%s\nfiles=%s", question, stageName, strings.Join(rel, ","))
}

func parseKeyValue(prompt string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(prompt, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

// pathLineRefPattern matches any "<path>:<line>" citation, independent
// of file extension.
var pathLineRefPattern = regexp.MustCompile(`[\w./\\-]+:\d+`)

// verifyAndAddClaims extracts path:line citations from raw, runs them
// through the Verifier Gate, and appends the citation list to the
// observation text only when the claim passes.
func (o *Orchestrator) verifyAndAddClaims(ctx context.Context, raw string) string {
	sources := dedupeStrings(pathLineRefPattern.FindAllString(raw, -1))
	if len(sources) == 0 {
		return raw
	}
	claim := o.verifier.VerifyClaim(ctx, raw, sources)
	if !claim.Verified {
		return raw
	}
	return fmt.Sprintf("%s [%s]", raw, strings.Join(sources, ", "))
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// compressReport folds addition onto report, then truncates to a
// whitespace-token cap. Unlike DelegationPolicy's compressText, this
// never backs off to a sentence boundary: the report is an append-only
// working log, not agent-facing prose that needs to read cleanly.
func compressReport(report, addition string, capTokens int) string {
	combined := strings.TrimSpace(report + "\n" + addition)
	if capTokens <= 0 {
		return combined
	}
	tokens := strings.Fields(combined)
	if len(tokens) <= capTokens {
		return combined
	}
	return strings.Join(tokens[len(tokens)-capTokens:], " ")
}

// applyDriftAdvisory reacts to a DriftTick's semicolon-separated action
// list, tightening future stages' concurrency, the Verifier Gate's
// citation floor, or the Delegation Policy's compression cap.
func (o *Orchestrator) applyDriftAdvisory(tick DriftTick, stageIdx int) {
	for _, action := range strings.Split(tick.Action, ";") {
		switch action {
		case "reduce_concurrency":
			for j := stageIdx + 1; j < len(o.stages); j++ {
				if o.stages[j].MaxConcurrency > 1 {
					o.stages[j].MaxConcurrency = maxInt(1, o.stages[j].MaxConcurrency/2)
				}
			}
		case "raise_verify_k":
			o.verifier.SetMinCitations(3)
		case "increase_compression":
			o.policy.TightenCompression(0.75)
		case "increase_compression_slight":
			o.policy.TightenCompression(0.90)
		}
	}
}

func (o *Orchestrator) synthesize(state LoopState) string {
	return fmt.Sprintf("Q: %s\nReport:\n%s\nLast Observation: %s", state.Question, state.Report, state.LastObservation)
}

// --- default delegate handlers ---

func (o *Orchestrator) buildDefaultDelegateHandlers() map[string]delegateHandler {
	return map[string]delegateHandler{
		"small":       o.delegateSmall,
		"sandbox":     o.delegateSandbox,
		"scholar":     o.delegateScholar,
		"csv_cleaner": o.delegateCSVCleaner,
		"md_cleaner":  o.delegateMDCleaner,
		"tongyi":      o.delegateTongyi,
	}
}

func (o *Orchestrator) delegateSmall(ctx context.Context, prompt string) (string, error) {
	parts := parseKeyValue(prompt)
	question := parts["question"]

	var paths []string
	if files := parts["files"]; files != "" {
		for _, f := range strings.Split(files, ",") {
			if f = strings.TrimSpace(f); f != "" {
				paths = append(paths, filepath.Join(o.root, f))
			}
		}
	}

	hits := o.codeSearch.Search(question, paths, 3)
	if len(hits) == 0 {
		return "small agent found no evidence", nil
	}
	return "small agent evidence " + o.describeHits(hits), nil
}

func (o *Orchestrator) delegateSandbox(ctx context.Context, prompt string) (string, error) {
	parts := parseKeyValue(prompt)
	code := parts["code"]
	if code == "" {
		return "sandbox_error: no code provided", nil
	}

	timeout := 30
	if v, err := strconv.Atoi(parts["timeout"]); err == nil {
		timeout = v
	}
	seed := int64(1337)
	if v, err := strconv.ParseInt(parts["seed"], 10, 64); err == nil {
		seed = v
	}

	var input json.RawMessage
	if raw := parts["input_json"]; raw != "" {
		input = json.RawMessage(raw)
	} else {
		input = json.RawMessage("{}")
	}

	result, err := RunSnippet(ctx, code, input, timeout, seed, o.root)
	if err != nil {
		return fmt.Sprintf("sandbox_error: %v", err), nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("sandbox_error: %v", err), nil
	}
	return string(out), nil
}

func (o *Orchestrator) delegateScholar(ctx context.Context, prompt string) (string, error) {
	if o.scholar == nil {
		return "scholar_error: no scholar pool configured", nil
	}
	parts := parseKeyValue(prompt)
	query := parts["query"]
	if query == "" {
		return "scholar_error: no query provided", nil
	}
	k := 5
	if v, err := strconv.Atoi(parts["k"]); err == nil && v > 0 {
		k = v
	}

	papers := o.scholar.Search(ctx, query, k)
	if len(papers) == 0 {
		return "scholar: no results", nil
	}
	summaries := make([]string, 0, len(papers))
	for _, p := range papers {
		author := ""
		if len(p.Authors) > 0 {
			author = p.Authors[0] + " et al."
		}
		summaries = append(summaries, fmt.Sprintf("%s (%d) %s %s", p.Title, p.Year, author, p.Venue))
	}
	return "scholar: " + strings.Join(summaries, " | "), nil
}

// delegateCSVCleaner calls the CSV cleaning pipeline directly in
// process. The original routed this through a sandboxed snippet to
// isolate pandas from the host process; Go's cleaning pipeline is a
// pure, dependency-free library call with nothing to isolate from.
func (o *Orchestrator) delegateCSVCleaner(ctx context.Context, prompt string) (string, error) {
	parts := parseKeyValue(prompt)
	csvRel, outRel := parts["csv_path"], parts["output_path"]
	if csvRel == "" || outRel == "" {
		return "csv_error: csv_path and output_path required", nil
	}

	csvPath := filepath.Join(o.root, csvRel)
	outputPath := filepath.Join(o.root, outRel)
	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Sprintf("csv_error: file not found %s", csvRel), nil
	}

	info, err := SniffCSV(csvPath, 0)
	if err != nil {
		return fmt.Sprintf("csv_error: %v", err), nil
	}
	steps := SuggestCleaningSteps(info)
	result, err := CleanCSV(info, steps, outputPath)
	if err != nil {
		return fmt.Sprintf("csv_error: %v", err), nil
	}
	return fmt.Sprintf("csv_cleaned: rows=%d output=%s steps=%d", result.CleanedRows, outRel, len(steps)), nil
}

// delegateMDCleaner mirrors delegateCSVCleaner's direct-call design for
// the markdown cleaning pipeline.
func (o *Orchestrator) delegateMDCleaner(ctx context.Context, prompt string) (string, error) {
	parts := parseKeyValue(prompt)
	mdRel, outRel := parts["md_path"], parts["output_path"]
	if mdRel == "" || outRel == "" {
		return "md_error: md_path and output_path required", nil
	}

	mdPath := filepath.Join(o.root, mdRel)
	outputPath := filepath.Join(o.root, outRel)
	if _, err := os.Stat(mdPath); err != nil {
		return fmt.Sprintf("md_error: file not found %s", mdRel), nil
	}

	info, err := ParseMarkdown(mdPath)
	if err != nil {
		return fmt.Sprintf("md_error: %v", err), nil
	}
	steps := SuggestMDCleaning(info)
	result, err := CleanMarkdown(info, steps, outputPath)
	if err != nil {
		return fmt.Sprintf("md_error: %v", err), nil
	}
	return fmt.Sprintf("md_cleaned: sections=%d output=%s steps=%d", result.CleanedSections, outRel, len(steps)), nil
}

func (o *Orchestrator) delegateTongyi(ctx context.Context, prompt string) (string, error) {
	if o.reasoner == nil {
		return "tongyi_unavailable: configure OPENROUTER_API_KEY and run the config validator to enable remote reasoning.", nil
	}

	model := o.reasonerModel
	if o.modelRouter != nil {
		model = o.modelRouter.NextModel()
	}

	resp, err := o.reasoner.Chat(ctx, ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			SystemMessage("You are a concise research assistant. Summarize evidence with citations if available."),
			UserMessage(prompt),
		},
	})
	if err != nil {
		return fmt.Sprintf("tongyi_error: run config_validator --check-openrouter; %v", err), nil
	}
	return resp.Content, nil
}

// --- reasoner-driven mode ---

// RunWithReasoner drives the loop through the configured RemoteReasoner
// and ToolRegistry instead of the manifest/stage plan. Each turn parses
// the reasoner's response with a three-tier priority: native tool_calls
// first, then a ReAct-parsed tool call embedded in the text, then a
// free-text final answer.
func (o *Orchestrator) RunWithReasoner(ctx context.Context, question string, maxIterations int) (string, error) {
	if o.reasoner == nil {
		return "", &ConfigError{Field: "reasoner", Message: "no RemoteReasoner configured"}
	}
	if maxIterations <= 0 {
		maxIterations = 6
	}

	var defs []ToolDefinition
	if o.tools != nil {
		defs = o.tools.List()
	}

	messages := []ChatMessage{
		SystemMessage("You are a research assistant. Use the available tools to gather evidence before answering."),
		UserMessage(question),
	}

	for i := 0; i < maxIterations; i++ {
		model := o.reasonerModel
		if o.modelRouter != nil {
			model = o.modelRouter.NextModel()
		}

		resp, err := o.reasoner.Chat(ctx, ChatRequest{Model: model, Messages: messages, Tools: defs})
		if err != nil {
			return "", fmt.Errorf("orchestrator: reasoner call failed: %w", err)
		}

		if len(resp.ToolCalls) > 0 {
			messages = append(messages, AssistantMessage(resp.Content))
			for _, call := range resp.ToolCalls {
				messages = append(messages, o.dispatchToolCall(ctx, call))
			}
			continue
		}

		if o.reactParser.HasToolCalls(resp.Content) {
			messages = append(messages, AssistantMessage(resp.Content))
			ranAny := false
			for _, block := range o.reactParser.ParseResponse(resp.Content) {
				if block.Action == "" {
					continue
				}
				args, _ := json.Marshal(block.ActionInput)
				messages = append(messages, o.dispatchToolCall(ctx, ToolCall{Name: block.Action, Args: args}))
				ranAny = true
			}
			if ranAny {
				continue
			}
		}

		if answer := o.reactParser.ExtractFinalAnswer(resp.Content); answer != "" {
			return answer, nil
		}
		return strings.TrimSpace(resp.Content), nil
	}

	return "", fmt.Errorf("orchestrator: exceeded %d reasoner iterations without a final answer", maxIterations)
}

func (o *Orchestrator) dispatchToolCall(ctx context.Context, call ToolCall) ChatMessage {
	if o.tools == nil {
		return ToolResultMessage(call.ID, "error: no tools registered")
	}
	result, err := o.tools.Execute(ctx, call.Name, call.Args)
	if err != nil {
		return ToolResultMessage(call.ID, fmt.Sprintf("error: %v", err))
	}
	if result.Error != "" {
		return ToolResultMessage(call.ID, o.reactParser.FormatObservation(call.Name, "error: "+result.Error))
	}
	return ToolResultMessage(call.ID, o.reactParser.FormatObservation(call.Name, result.Content))
}
