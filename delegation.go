package scribe

import (
	"fmt"
	"strings"
	"sync"
)

// Consume records one delegated call that produced tokens tokens of
// compressed output.
func (b *AgentBudget) Consume(tokens int) {
	b.CallsUsed++
	b.TokensUsed += tokens
}

// RemainingCalls returns how many calls are left before the budget trips.
func (b *AgentBudget) RemainingCalls() int {
	if r := b.MaxCalls - b.CallsUsed; r > 0 {
		return r
	}
	return 0
}

// RemainingTokens returns how many tokens are left before the budget trips.
func (b *AgentBudget) RemainingTokens() int {
	if r := b.MaxTokens - b.TokensUsed; r > 0 {
		return r
	}
	return 0
}

// DefaultAgentBudgets returns the budget table for the six delegate
// targets the orchestrator dispatches to, sized so no single target can
// dominate a run's context growth.
func DefaultAgentBudgets() map[string]*AgentBudget {
	return map[string]*AgentBudget{
		"tongyi":      {MaxCalls: 3, MaxTokens: 1200},
		"small":       {MaxCalls: 2, MaxTokens: 400},
		"sandbox":     {MaxCalls: 2, MaxTokens: 600},
		"scholar":     {MaxCalls: 2, MaxTokens: 500},
		"csv_cleaner": {MaxCalls: 2, MaxTokens: 800},
		"md_cleaner":  {MaxCalls: 2, MaxTokens: 700},
	}
}

// DelegationPolicy enforces per-agent call/token budgets and is the
// single entry point through which delegated-agent output is
// compressed before it joins the shared loop state.
type DelegationPolicy struct {
	mu            sync.Mutex
	agentBudgets  map[string]*AgentBudget
	defaultTokens int
	metrics       map[string]int
}

// DelegationPolicyOption configures a DelegationPolicy.
type DelegationPolicyOption func(*DelegationPolicy)

// WithDefaultTokens overrides the per-call compression cap used when an
// agent's remaining token budget is larger than a sane single-call size.
func WithDefaultTokens(n int) DelegationPolicyOption {
	return func(p *DelegationPolicy) { p.defaultTokens = n }
}

// NewDelegationPolicy creates a policy over the given per-agent budgets.
func NewDelegationPolicy(budgets map[string]*AgentBudget, opts ...DelegationPolicyOption) *DelegationPolicy {
	p := &DelegationPolicy{
		agentBudgets:  budgets,
		defaultTokens: 400,
		metrics:       make(map[string]int),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// TightenCompression scales the default per-call truncation cap by
// factor (e.g. 0.75 for an increase_compression drift advisory, 0.90 for
// increase_compression_slight), flooring at 40 tokens so compression
// never collapses output to nothing.
func (p *DelegationPolicy) TightenCompression(factor float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := int(float64(p.defaultTokens) * factor)
	if next < 40 {
		next = 40
	}
	p.defaultTokens = next
}

// Allow reports whether agentID may be delegated to again.
func (p *DelegationPolicy) Allow(agentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	budget, ok := p.agentBudgets[agentID]
	if !ok {
		return false
	}
	if budget.AtLimit() {
		p.incMetric("deny." + agentID)
		return false
	}
	return true
}

// Record compresses raw into the agent's remaining token budget, debits
// the budget, and returns the compressed text. Every delegated tool or
// sub-agent response must pass through Record before it is allowed into
// shared loop state.
func (p *DelegationPolicy) Record(agentID string, raw string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	budget, ok := p.agentBudgets[agentID]
	if !ok {
		return "", fmt.Errorf("delegation: unknown agent_id %q", agentID)
	}

	limit := p.defaultTokens
	if rem := budget.RemainingTokens(); rem < limit {
		limit = rem
	}
	compressed := compressText(raw, limit)
	budget.Consume(len(strings.Fields(compressed)))

	p.incMetric("calls." + agentID)
	p.incMetric("calls.total")
	return compressed, nil
}

// Remaining returns an agent's remaining (calls, tokens), or (0, 0) for
// an unknown agent.
func (p *DelegationPolicy) Remaining(agentID string) (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	budget, ok := p.agentBudgets[agentID]
	if !ok {
		return 0, 0
	}
	return budget.RemainingCalls(), budget.RemainingTokens()
}

// Metrics returns a snapshot of the policy's call/deny counters.
func (p *DelegationPolicy) Metrics() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make(map[string]int, len(p.metrics))
	for k, v := range p.metrics {
		snapshot[k] = v
	}
	return snapshot
}

func (p *DelegationPolicy) incMetric(key string) {
	p.metrics[key]++
}

// compressText truncates text to at most maxTokens whitespace-delimited
// tokens, then backs off to the last sentence boundary it can find so
// the result reads cleanly rather than stopping mid-sentence.
func compressText(text string, maxTokens int) string {
	if text == "" {
		return ""
	}
	tokens := strings.Fields(text)
	shortened := text
	if len(tokens) > maxTokens {
		shortened = strings.Join(tokens[:maxTokens], " ") + " …"
	}

	if lastPeriod := strings.LastIndex(shortened, "."); lastPeriod > 20 {
		return shortened[:lastPeriod+1]
	}
	return shortened
}
