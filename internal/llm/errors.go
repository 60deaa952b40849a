package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Kind classifies a generation failure.
type Kind int

const (
	// Transient failures are likely to succeed on retry (5xx, 429,
	// network trouble).
	Transient Kind = iota

	// Permanent failures will not improve on retry (bad request, auth).
	Permanent
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// GenerationError is the single failure type returned by providers and by
// the retry orchestrator. Kind is decided once, where the SDK error is
// first observed.
type GenerationError struct {
	Kind Kind

	// StatusCode is the HTTP status reported by the service, 0 if none.
	StatusCode int

	// RetryAfter is the server-requested wait for rate limits, 0 if none.
	RetryAfter time.Duration

	// Attempts is set by the orchestrator on the terminal error.
	Attempts int

	Err error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s generation failure", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" after %d attempt(s)", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// CanceledError reports that the caller's context ended the generation.
// It is neither transient nor permanent and is never retried.
type CanceledError struct {
	Attempts int
	Err      error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("generation canceled after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *CanceledError) Unwrap() error { return e.Err }

// IsTransient reports whether err carries a transient classification.
func IsTransient(err error) bool {
	var gen *GenerationError
	return errors.As(err, &gen) && gen.Kind == Transient
}

// IsPermanent reports whether err carries a permanent classification.
func IsPermanent(err error) bool {
	var gen *GenerationError
	return errors.As(err, &gen) && gen.Kind == Permanent
}

// IsCanceled reports whether err is a cancellation outcome.
func IsCanceled(err error) bool {
	var c *CanceledError
	return errors.As(err, &c)
}

// classifyStatus maps an HTTP status reported by an SDK to a GenerationError.
func classifyStatus(status int, err error) *GenerationError {
	kind := Permanent
	if status == http.StatusTooManyRequests || status >= 500 {
		kind = Transient
	}
	return &GenerationError{Kind: kind, StatusCode: status, Err: err}
}

// classifyTransport maps an error that carries no HTTP status. Network
// failures are transient; anything else is permanent.
func classifyTransport(err error) *GenerationError {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &GenerationError{Kind: Transient, Err: err}
	}
	return &GenerationError{Kind: Permanent, Err: err}
}

// mapSDKError is the shared tail of every provider's error mapping.
// Context errors pass through untouched so the orchestrator can report
// cancellation.
func mapSDKError(err error, status int) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if status > 0 {
		return classifyStatus(status, err)
	}
	return classifyTransport(err)
}
