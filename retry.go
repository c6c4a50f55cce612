package scribe

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// retryReasoner wraps a RemoteReasoner and automatically retries transient
// HTTP errors (spec §5: 408, 425, 429, and any 5xx) with exponential
// backoff, honoring a server-supplied Retry-After as a floor.
type retryReasoner struct {
	inner       RemoteReasoner
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration // overall timeout across all attempts; 0 = no limit
}

// RetryOption configures a retryReasoner.
type RetryOption func(*retryReasoner)

// RetryMaxAttempts sets the maximum number of attempts (default: 3).
func RetryMaxAttempts(n int) RetryOption {
	return func(r *retryReasoner) { r.maxAttempts = n }
}

// RetryBaseDelay sets the initial backoff delay before the second attempt
// (default: 1s). Each subsequent delay doubles: baseDelay, 2x, 4x, ...
func RetryBaseDelay(d time.Duration) RetryOption {
	return func(r *retryReasoner) { r.baseDelay = d }
}

// RetryTimeout bounds the entire retry sequence. Zero (default) disables
// the bound.
func RetryTimeout(d time.Duration) RetryOption {
	return func(r *retryReasoner) { r.timeout = d }
}

// WithRetry wraps a RemoteReasoner with automatic retry on transient
// errors. Retries use exponential backoff with jitter; when the error
// carries a Retry-After, the delay is at least that long.
func WithRetry(rr RemoteReasoner, opts ...RetryOption) RemoteReasoner {
	r := &retryReasoner{
		inner:       rr,
		maxAttempts: 3,
		baseDelay:   time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name delegates to the inner reasoner.
func (r *retryReasoner) Name() string { return r.inner.Name() }

// Chat implements RemoteReasoner with retry.
func (r *retryReasoner) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return retryCall(ctx, r.maxAttempts, r.baseDelay, r.inner.Name(), func() (ChatResponse, error) {
		return r.inner.Chat(ctx, req)
	})
}

// withTimeout returns a child context with a deadline if r.timeout is set.
func (r *retryReasoner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	deadline := time.Now().Add(r.timeout)
	if existing, ok := ctx.Deadline(); ok && existing.Before(deadline) {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, deadline)
}

// isTransient reports whether err is a retryable HTTP error per
// isRetryableStatus.
func isTransient(err error) bool {
	var e *ErrHTTP
	return errors.As(err, &e) && isRetryableStatus(e.Status)
}

// statusOf extracts the HTTP status code from an ErrHTTP, or 0.
func statusOf(err error) int {
	var e *ErrHTTP
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// retryAfterOf extracts the Retry-After duration from an ErrHTTP, or 0.
func retryAfterOf(err error) time.Duration {
	var e *ErrHTTP
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// retryDelay computes the delay before retry attempt i: the larger of
// exponential backoff and the server's Retry-After, if any.
func retryDelay(base time.Duration, i int, err error) time.Duration {
	backoff := retryBackoff(base, i)
	if ra := retryAfterOf(err); ra > backoff {
		return ra
	}
	return backoff
}

// retryCall calls fn up to maxAttempts times, sleeping between transient
// failures. Only the RemoteReasoner retry wrapper calls it; ScholarPool
// runs its own retry loop.
func retryCall[T any](ctx context.Context, maxAttempts int, base time.Duration, name string, fn func() (T, error)) (T, error) {
	var zero T
	var last error
	for i := 0; i < maxAttempts; i++ {
		result, err := fn()
		if err == nil || !isTransient(err) {
			return result, err
		}
		last = err
		slog.Warn("retrying transient error", "name", name, "status", statusOf(err), "attempt", i+1, "max_attempts", maxAttempts)
		if i < maxAttempts-1 {
			delay := retryDelay(base, i, err)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, last
}

// retryBackoff returns the delay for retry i (0-indexed): base * 2^i, plus
// up to 50% random jitter.
func retryBackoff(base time.Duration, i int) time.Duration {
	exp := base * (1 << i)
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp + jitter
}

var _ RemoteReasoner = (*retryReasoner)(nil)
