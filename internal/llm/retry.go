package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// State is a step of the retry state machine:
//
//	Idle -> Calling -> Succeeded
//	               \-> Retrying -> Calling
//	               \-> Failed
type State string

const (
	StateIdle      State = "idle"
	StateCalling   State = "calling"
	StateRetrying  State = "retrying"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Outcome is the result of a single attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeTransient Outcome = "transient"
	OutcomePermanent Outcome = "permanent"
	OutcomeCanceled  Outcome = "canceled"
)

// Attempt records one call made by the RetryProvider.
type Attempt struct {
	// Number is 1-based.
	Number  int
	Outcome Outcome

	// Next is the state entered after this attempt.
	Next State

	// Backoff is the wait scheduled before the next attempt; zero unless
	// Next is StateRetrying.
	Backoff time.Duration

	Err error
}

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc, backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryOption customizes a RetryProvider.
type RetryOption func(*RetryProvider)

// WithSleeper replaces the backoff sleep. Tests use it to observe delays
// without waiting.
func WithSleeper(fn SleepFunc) RetryOption {
	return func(r *RetryProvider) { r.sleep = fn }
}

// RetryProvider is a decorator that retries transient errors with
// exponential backoff. Attempts are strictly sequential.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	sleep  SleepFunc
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig, opts ...RetryOption) *RetryProvider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	r := &RetryProvider{inner: p, config: cfg, sleep: Sleep}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	log := attemptLogFrom(ctx)
	state := StateIdle
	var lastErr error

	for attempt := 0; state != StateSucceeded && state != StateFailed; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &CanceledError{Attempts: attempt, Err: err}
		}

		state = StateCalling
		resp, err := r.inner.Generate(ctx, req)
		rec := Attempt{Number: attempt + 1, Err: err}

		switch {
		case err == nil:
			rec.Outcome, state = OutcomeSuccess, StateSucceeded
		case isContextErr(ctx, err):
			rec.Outcome, rec.Next = OutcomeCanceled, StateFailed
			r.record(log, rec)
			return nil, &CanceledError{Attempts: attempt + 1, Err: contextCause(ctx, err)}
		case IsTransient(err):
			rec.Outcome = OutcomeTransient
			lastErr = err
			if attempt+1 < r.config.MaxAttempts {
				state = StateRetrying
				rec.Backoff = r.backoff(attempt, err)
			} else {
				state = StateFailed
			}
		default:
			rec.Outcome, state = OutcomePermanent, StateFailed
			lastErr = err
		}

		rec.Next = state
		r.record(log, rec)

		switch state {
		case StateSucceeded:
			return resp, nil
		case StateRetrying:
			if err := r.sleep(ctx, rec.Backoff); err != nil {
				return nil, &CanceledError{Attempts: attempt + 1, Err: err}
			}
		}
	}

	// Permanent failures surface unchanged.
	if !IsTransient(lastErr) {
		return nil, lastErr
	}
	return nil, exhausted(lastErr, r.config.MaxAttempts)
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func (r *RetryProvider) record(log *AttemptLog, a Attempt) {
	if log != nil {
		log.record(a)
	}
}

// exhausted builds the terminal error after every attempt failed
// transiently.
func exhausted(last error, attempts int) error {
	out := &GenerationError{Kind: Transient, Attempts: attempts, Err: last}
	var gen *GenerationError
	if errors.As(last, &gen) {
		out.StatusCode = gen.StatusCode
		out.Err = gen.Err
	}
	return out
}

// backoff computes the wait duration after the given 0-based attempt.
// A server-supplied RetryAfter longer than the computed wait replaces it.
// Either way the result never exceeds MaxWait.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if r.config.Jitter > 0 {
		wait += wait * r.config.Jitter * (2*rand.Float64() - 1)
	}

	var gen *GenerationError
	if errors.As(err, &gen) && float64(gen.RetryAfter) > wait {
		wait = float64(gen.RetryAfter)
	}

	if r.config.MaxWait > 0 && wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

func isContextErr(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
