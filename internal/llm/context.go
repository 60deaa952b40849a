package llm

import (
	"context"
	"sync"
)

type contextKey string

const (
	purposeKey    contextKey = "llm_purpose"
	runIDKey      contextKey = "llm_run_id"
	attemptLogKey contextKey = "llm_attempt_log"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithRunID attaches the ID of the pipeline run issuing the request.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFrom extracts the run ID from the context, or "" if none.
func RunIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// AttemptLog collects the attempts made by a RetryProvider for one call
// chain. Create one per request; it is not shared across requests.
type AttemptLog struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (l *AttemptLog) record(a Attempt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, a)
}

// Attempts returns a copy of the recorded attempts in order.
func (l *AttemptLog) Attempts() []Attempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Attempt, len(l.attempts))
	copy(out, l.attempts)
	return out
}

// WithAttemptLog attaches log to the context. A RetryProvider called with
// this context records every attempt into it.
func WithAttemptLog(ctx context.Context, log *AttemptLog) context.Context {
	return context.WithValue(ctx, attemptLogKey, log)
}

func attemptLogFrom(ctx context.Context) *AttemptLog {
	if v, ok := ctx.Value(attemptLogKey).(*AttemptLog); ok {
		return v
	}
	return nil
}
