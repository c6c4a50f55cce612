package scribe

import (
	"fmt"
	"strconv"
	"time"
)

// ConfigError signals a required credential or config value missing at
// startup. Fatal: the CLI surfaces it and exits non-zero.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %s: %s", e.Field, e.Message) }

// ToolError wraps a tool failure. Recorded as an observation; never
// aborts the orchestrator loop.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string { return fmt.Sprintf("tool %s: %s", e.Tool, e.Message) }

// BudgetDeniedError is returned when a delegation-policy budget is
// already at its limit. The caller proceeds without the tool result.
type BudgetDeniedError struct {
	AgentID string
}

func (e *BudgetDeniedError) Error() string { return fmt.Sprintf("budget denied: %s", e.AgentID) }

// TimeoutError marks a blocking operation that exceeded its deadline.
// Treated as a ToolError by callers.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

// NetworkError marks a transient remote failure eligible for retry
// within the caller's backoff policy. RetryAfter is non-zero when the
// server named an explicit delay.
type NetworkError struct {
	Op         string
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error (status %d): %s", e.Op, e.Status, e.Message)
}

// VerificationRejectedError marks a proposed claim that failed the
// Verifier Gate. Dropped silently from the report; never surfaced to
// the user as a failure.
type VerificationRejectedError struct {
	Reason string
}

func (e *VerificationRejectedError) Error() string { return "verification rejected: " + e.Reason }

// FatalError marks an unrecoverable programming-invariant violation.
// Propagates and terminates the run.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string { return "fatal: " + e.Message }

// ErrHTTP is returned by RemoteReasoner transport implementations for
// non-2xx HTTP responses. Retry middleware inspects Status/RetryAfter.
type ErrHTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrHTTP) Error() string { return fmt.Sprintf("http %d: %s", e.Status, e.Body) }

// isRetryableStatus reports whether an HTTP status is transient per
// spec §5: 408, 425, 429, and any 5xx are retried; other 4xx are fatal.
func isRetryableStatus(status int) bool {
	switch status {
	case 408, 425, 429:
		return true
	}
	return status >= 500 && status < 600
}

// ParseRetryAfter parses an HTTP Retry-After header value, which is
// either a number of seconds or an HTTP-date. Returns 0 if unparsable.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}
