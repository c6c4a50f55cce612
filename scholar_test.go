package scribe

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct {
	name    string
	papers  []PaperMeta
	err     error
	failN   int
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string) ([]PaperMeta, error) {
	f.calls++
	if f.calls <= f.failN {
		return nil, f.err
	}
	return f.papers, nil
}

func TestScholarPoolMergesAcrossProviders(t *testing.T) {
	p1 := &fakeProvider{name: "a", papers: []PaperMeta{{Title: "Paper One", Year: 2020}}}
	p2 := &fakeProvider{name: "b", papers: []PaperMeta{{Title: "Paper Two", Year: 2021}}}
	pool := NewScholarPool([]ScholarProvider{p1, p2})

	results := pool.Search(context.Background(), "query", 10)
	if len(results) != 2 {
		t.Fatalf("expected 2 merged results, got %d", len(results))
	}
}

func TestScholarPoolDedupesByTitleAndYear(t *testing.T) {
	dup := PaperMeta{Title: "Same Paper", Year: 2019}
	p1 := &fakeProvider{name: "a", papers: []PaperMeta{dup}}
	p2 := &fakeProvider{name: "b", papers: []PaperMeta{{Title: "same paper", Year: 2019}}}
	pool := NewScholarPool([]ScholarProvider{p1, p2})

	results := pool.Search(context.Background(), "query", 10)
	if len(results) != 1 {
		t.Fatalf("expected dedupe to collapse to 1 result, got %d", len(results))
	}
}

func TestScholarPoolStopsAtK(t *testing.T) {
	papers := []PaperMeta{{Title: "A", Year: 1}, {Title: "B", Year: 2}, {Title: "C", Year: 3}}
	p1 := &fakeProvider{name: "a", papers: papers}
	pool := NewScholarPool([]ScholarProvider{p1})

	results := pool.Search(context.Background(), "query", 2)
	if len(results) != 2 {
		t.Fatalf("expected exactly k=2 results, got %d", len(results))
	}
}

func TestScholarPoolTalksAroundFailingProvider(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("boom"), failN: 99}
	healthy := &fakeProvider{name: "healthy", papers: []PaperMeta{{Title: "Survivor", Year: 2022}}}
	pool := NewScholarPool([]ScholarProvider{broken, healthy})

	results := pool.Search(context.Background(), "query", 10)
	if len(results) != 1 || results[0].Title != "Survivor" {
		t.Fatalf("expected the healthy provider's result despite the broken one, got %+v", results)
	}
}

func TestScholarPoolRetriesBeforeGivingUp(t *testing.T) {
	flaky := &fakeProvider{name: "flaky", err: errors.New("transient"), failN: 2, papers: []PaperMeta{{Title: "Eventually", Year: 2023}}}
	pool := NewScholarPool([]ScholarProvider{flaky})

	results := pool.Search(context.Background(), "query", 10)
	if len(results) != 1 {
		t.Fatalf("expected provider to succeed on its third attempt, got %d results", len(results))
	}
}

func TestScholarPoolSkipsProviderWithOpenCircuit(t *testing.T) {
	tripped := &fakeProvider{name: "tripped", papers: []PaperMeta{{Title: "Unreachable", Year: 2024}}}
	healthy := &fakeProvider{name: "healthy", papers: []PaperMeta{{Title: "Survivor", Year: 2022}}}
	pool := NewScholarPool([]ScholarProvider{tripped, healthy})

	breaker := pool.breakerFor("tripped")
	for i := 0; i < 5; i++ {
		breaker.Record(errors.New("down"))
	}
	if breaker.State() != CircuitOpen {
		t.Fatalf("expected breaker to be open, got %s", breaker.State())
	}

	results := pool.Search(context.Background(), "query", 10)
	if tripped.calls != 0 {
		t.Fatalf("expected open-circuit provider never to be called, got %d calls", tripped.calls)
	}
	if len(results) != 1 || results[0].Title != "Survivor" {
		t.Fatalf("expected only the healthy provider's result, got %+v", results)
	}
}

func TestScholarPoolAcquiresRateLimiterTokenPerAttempt(t *testing.T) {
	p1 := &fakeProvider{name: "semantic_scholar", papers: []PaperMeta{{Title: "Paper", Year: 2020}}}
	pool := NewScholarPool([]ScholarProvider{p1})

	limiter := pool.limiterFor("semantic_scholar")
	limiter.tokens = 0 // force a wait before the first attempt can proceed

	start := time.Now()
	pool.Search(context.Background(), "query", 10)
	if time.Since(start) <= 0 {
		t.Fatal("expected Acquire to be on the call path")
	}
	if p1.calls != 1 {
		t.Fatalf("expected provider to be called once its token was available, got %d calls", p1.calls)
	}
}

func TestDefaultScholarCircuitBreakersCoverNamedProviders(t *testing.T) {
	breakers := DefaultScholarCircuitBreakers()
	for _, name := range []string{"semantic_scholar", "crossref", "arxiv", "openalex"} {
		if _, ok := breakers[name]; !ok {
			t.Fatalf("expected a default circuit breaker for %q", name)
		}
	}
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	bucket := NewTokenBucket(1000, 1) // fast rate keeps the test quick
	ctx := context.Background()
	if err := bucket.Acquire(ctx, 1); err != nil {
		t.Fatalf("first acquire should not block: %v", err)
	}
	if err := bucket.Acquire(ctx, 1); err != nil {
		t.Fatalf("second acquire should succeed after brief refill wait: %v", err)
	}
}

func TestTokenBucketRespectsContextCancellation(t *testing.T) {
	bucket := NewTokenBucket(0.001, 1)
	bucket.Acquire(context.Background(), 1) // drain it
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := bucket.Acquire(ctx, 1); err == nil {
		t.Fatal("expected context deadline to interrupt a long wait")
	}
}

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	fail := func() error { return errors.New("down") }

	for i := 0; i < 3; i++ {
		cb.Call(fail)
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected breaker to trip open after 3 failures, got %s", cb.State())
	}
	if err := cb.Call(func() error { return nil }); err == nil {
		t.Fatal("expected open breaker to reject calls")
	}
}

func TestCircuitBreakerRecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	cb.Call(func() error { return errors.New("down") })
	if cb.State() != CircuitOpen {
		t.Fatalf("expected breaker open, got %s", cb.State())
	}

	time.Sleep(20 * time.Millisecond)
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to succeed: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected breaker to close after successful probe, got %s", cb.State())
	}
}

func TestNormalizeQueryCollapsesWhitespaceAndCase(t *testing.T) {
	got := normalizeQuery("  Large   Context   RETRIEVAL  ")
	want := "large context retrieval"
	if got != want {
		t.Fatalf("normalizeQuery() = %q, want %q", got, want)
	}
}
