package scribe

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ScholarProvider searches one academic source for papers matching query.
type ScholarProvider interface {
	Name() string
	Search(ctx context.Context, query string) ([]PaperMeta, error)
}

// TokenBucket is a true token bucket: tokens refill continuously at
// rate per second up to capacity, and Acquire blocks until enough
// tokens are available rather than rejecting the call outright.
type TokenBucket struct {
	mu       sync.Mutex
	rate     float64
	capacity float64
	tokens   float64
	last     time.Time
}

// NewTokenBucket creates a bucket starting full.
func NewTokenBucket(ratePerSecond float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:     ratePerSecond,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		last:     time.Now(),
	}
}

// Acquire blocks until cost tokens are available, then debits them.
func (b *TokenBucket) Acquire(ctx context.Context, cost float64) error {
	b.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now
	b.tokens = minF(b.capacity, b.tokens+elapsed*b.rate)

	if b.tokens >= cost {
		b.tokens -= cost
		b.mu.Unlock()
		return nil
	}
	need := cost - b.tokens
	var wait time.Duration
	if b.rate > 0 {
		wait = time.Duration(need / b.rate * float64(time.Second))
	}
	b.tokens -= cost
	b.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// CircuitBreakerState is one of the three breaker states.
type CircuitBreakerState string

const (
	CircuitClosed   CircuitBreakerState = "closed"
	CircuitOpen     CircuitBreakerState = "open"
	CircuitHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreaker trips open after failureThreshold consecutive failures
// and allows a single half-open probe after recoveryTimeout elapses.
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	recoveryTimeout  time.Duration
	failures         int
	lastFailure      time.Time
	state            CircuitBreakerState
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            CircuitClosed,
	}
}

// Allow reports whether a call may proceed, transitioning an open
// breaker to half-open once its recovery window has elapsed. Callers
// that want to skip a call entirely (no rate-limiter token spent, no
// provider hit) when the breaker is open should check Allow before
// doing any of that work, then report the outcome with Record.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != CircuitOpen {
		return true
	}
	if time.Since(cb.lastFailure) > cb.recoveryTimeout {
		cb.state = CircuitHalfOpen
		return true
	}
	return false
}

// Record updates breaker state from the outcome of a call already
// permitted by Allow.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.failureThreshold {
			cb.state = CircuitOpen
		}
		return
	}
	cb.failures = 0
	cb.state = CircuitClosed
}

// Call runs fn if the breaker permits it, tracking the outcome.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.Allow() {
		return fmt.Errorf("circuit breaker open")
	}
	err := fn()
	cb.Record(err)
	return err
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// ScholarPoolOption configures a ScholarPool.
type ScholarPoolOption func(*ScholarPool)

// WithDedupeLedger attaches a persistent dedupe ledger (e.g. a Postgres
// table) so duplicate papers are suppressed across process restarts,
// not just within a single search call.
func WithDedupeLedger(ledger DedupeLedger) ScholarPoolOption {
	return func(p *ScholarPool) { p.ledger = ledger }
}

// DedupeLedger records (title, year) pairs already surfaced to a caller.
type DedupeLedger interface {
	SeenAndRecord(ctx context.Context, title string, year int) (alreadySeen bool, err error)
}

// ScholarPool queries providers in a fixed order, retrying each with
// jittered backoff, and merges results while deduping on
// (lowercased title, year). A failing provider never aborts the
// search — partial results from the remaining providers still return.
// Each provider is guarded by its own per-host TokenBucket and
// CircuitBreaker (spec §4.5); a provider whose breaker is open is
// skipped entirely, without spending a rate-limiter token or being
// called.
type ScholarPool struct {
	providers []ScholarProvider
	ledger    DedupeLedger
	maxRetry  int

	mu       sync.Mutex
	limiters map[string]*TokenBucket
	breakers map[string]*CircuitBreaker
}

// WithRateLimits overrides the pool's per-provider-name token buckets.
// Providers not named here fall back to a generic bucket created on
// first use.
func WithRateLimits(limits map[string]*TokenBucket) ScholarPoolOption {
	return func(p *ScholarPool) {
		for name, b := range limits {
			p.limiters[name] = b
		}
	}
}

// WithCircuitBreakers overrides the pool's per-provider-name circuit
// breakers. Providers not named here fall back to a generic breaker
// created on first use.
func WithCircuitBreakers(breakers map[string]*CircuitBreaker) ScholarPoolOption {
	return func(p *ScholarPool) {
		for name, cb := range breakers {
			p.breakers[name] = cb
		}
	}
}

// NewScholarPool creates a pool over providers, queried in the given
// order. Rate limits default to DefaultScholarRateLimits(); any
// provider not named there gets a generic bucket/breaker lazily.
func NewScholarPool(providers []ScholarProvider, opts ...ScholarPoolOption) *ScholarPool {
	p := &ScholarPool{
		providers: providers,
		maxRetry:  3,
		limiters:  DefaultScholarRateLimits(),
		breakers:  DefaultScholarCircuitBreakers(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// limiterFor returns the token bucket for a provider host, creating a
// generic one on first use if none was configured by name.
func (p *ScholarPool) limiterFor(name string) *TokenBucket {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.limiters[name]; ok {
		return b
	}
	b := NewTokenBucket(2.0, 5)
	p.limiters[name] = b
	return b
}

// breakerFor returns the circuit breaker for a provider host, creating
// a generic one on first use if none was configured by name.
func (p *ScholarPool) breakerFor(name string) *CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cb, ok := p.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(5, 60*time.Second)
	p.breakers[name] = cb
	return cb
}

// Search queries each provider in order until k results are collected.
func (p *ScholarPool) Search(ctx context.Context, query string, k int) []PaperMeta {
	q := normalizeQuery(query)
	var results []PaperMeta
	seen := map[string]bool{}

	for _, provider := range p.providers {
		name := provider.Name()
		limiter := p.limiterFor(name)
		breaker := p.breakerFor(name)

		if !breaker.Allow() {
			slog.Warn("scholar provider circuit open, skipping", "provider", name)
			continue
		}

		for attempt := 1; attempt <= p.maxRetry; attempt++ {
			if err := limiter.Acquire(ctx, 1); err != nil {
				return results
			}

			papers, err := provider.Search(ctx, q)
			breaker.Record(err)
			if err != nil {
				slog.Warn("scholar provider failed, retrying", "provider", name, "attempt", attempt, "error", err)
				if !breaker.Allow() {
					break // tripped open mid-retry — stop hammering it
				}
				select {
				case <-ctx.Done():
					return results
				case <-time.After(retryBackoff(600*time.Millisecond, attempt-1)):
				}
				continue
			}
			for _, paper := range papers {
				key := dedupeKey(paper)
				if seen[key] {
					continue
				}
				if p.ledger != nil {
					already, err := p.ledger.SeenAndRecord(ctx, paper.Title, paper.Year)
					if err == nil && already {
						continue
					}
				}
				seen[key] = true
				results = append(results, paper)
				if len(results) >= k {
					return results
				}
			}
			break // provider responded, even if empty — move to the next
		}
	}
	return results
}

func dedupeKey(p PaperMeta) string {
	return strings.ToLower(p.Title) + "|" + strconv.Itoa(p.Year)
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// DefaultScholarRateLimits mirrors the Python original's per-host limits.
func DefaultScholarRateLimits() map[string]*TokenBucket {
	return map[string]*TokenBucket{
		"semantic_scholar": NewTokenBucket(2.0, 5),
		"crossref":         NewTokenBucket(5.0, 10),
		"arxiv":            NewTokenBucket(2.0, 5),
		"openalex":         NewTokenBucket(10.0, 20),
	}
}

// DefaultScholarCircuitBreakers mirrors the Python original's
// CircuitBreaker() defaults (failure_threshold=5, recovery_timeout_s=60)
// applied per host.
func DefaultScholarCircuitBreakers() map[string]*CircuitBreaker {
	return map[string]*CircuitBreaker{
		"semantic_scholar": NewCircuitBreaker(5, 60*time.Second),
		"crossref":         NewCircuitBreaker(5, 60*time.Second),
		"arxiv":            NewCircuitBreaker(5, 60*time.Second),
		"openalex":         NewCircuitBreaker(5, 60*time.Second),
	}
}
