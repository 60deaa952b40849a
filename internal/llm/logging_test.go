package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/mcqgen/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "llm.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	s := openTestStore(t)
	core, logs := observer.New(zapcore.DebugLevel)

	mock := NewMockProvider(MockResponse{
		Text:  "Q?\na) 1\nb) 2\nc) 3\nd) 4\nCorrect answer: a",
		Usage: Usage{InputTokens: 11, OutputTokens: 22, TotalTokens: 33},
	})
	p := WithLogging(mock, "mock", s.EventRepo(), zap.New(core))

	ctx := WithRunID(WithPurpose(context.Background(), "quiz-gen"), "run-42")
	if _, err := p.Generate(ctx, Request{
		System:   "be terse",
		Messages: []Message{{Role: RoleUser, Content: "make a quiz"}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Provider != "mock" || ev.Model != "mock" {
		t.Fatalf("unexpected provider/model: %q %q", ev.Provider, ev.Model)
	}
	if ev.RunID != "run-42" || ev.Purpose != "quiz-gen" {
		t.Fatalf("unexpected run/purpose: %q %q", ev.RunID, ev.Purpose)
	}
	if !ev.Success || ev.InputTokens != 11 || ev.OutputTokens != 22 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[system]\nbe terse") || !strings.Contains(ev.RequestBody, "[user]\nmake a quiz") {
		t.Fatalf("unexpected request body: %q", ev.RequestBody)
	}
	if !strings.HasSuffix(ev.ResponseBody, "Correct answer: a") {
		t.Fatalf("unexpected response body: %q", ev.ResponseBody)
	}

	entries := logs.FilterMessage("llm request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 completion log, got %d", len(entries))
	}
	if entries[0].ContextMap()["run_id"] != "run-42" {
		t.Fatalf("missing run_id field: %v", entries[0].ContextMap())
	}
}

func TestLoggingProvider_RecordsFailureKind(t *testing.T) {
	s := openTestStore(t)
	core, logs := observer.New(zapcore.WarnLevel)

	mock := NewMockProvider(MockResponse{Err: &GenerationError{Kind: Permanent, StatusCode: 401, Err: errors.New("bad key")}})
	p := WithLogging(mock, "mock", s.EventRepo(), zap.New(core))

	_, err := p.Generate(context.Background(), Request{})
	if !IsPermanent(err) {
		t.Fatalf("expected the provider error to pass through, got %v", err)
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Success || events[0].ErrorKind != "permanent" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Purpose != "unknown" {
		t.Fatalf("expected default purpose, got %q", events[0].Purpose)
	}
	if logs.FilterMessage("llm request failed").Len() != 1 {
		t.Fatal("expected a warning for the failed request")
	}
}

func TestLoggingProvider_StoresProviderNameNotModel(t *testing.T) {
	s := openTestStore(t)
	inner := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-test",
			"model": "gpt-4o-mini-2024-07-18",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "ok"}, "finish_reason": "stop"},
			},
		})
	})
	p := WithLogging(inner, "openai", s.EventRepo(), zap.NewNop())

	if _, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Provider != "openai" {
		t.Errorf("provider = %q, want %q", events[0].Provider, "openai")
	}
	if events[0].Model != "gpt-4o-mini-2024-07-18" {
		t.Errorf("model = %q, want the served model", events[0].Model)
	}
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Text: "ok"}), "mock", nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}

func TestLoggingInsideRetry_RecordsEveryAttempt(t *testing.T) {
	s := openTestStore(t)
	mock := NewMockProvider(
		MockResponse{Err: &GenerationError{Kind: Transient, StatusCode: 503}},
		MockResponse{Text: "ok"},
	)
	p := WithRetry(WithLogging(mock, "mock", s.EventRepo(), zap.NewNop()), retryConfig(),
		WithSleeper((&recordingSleeper{}).sleep))

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := s.EventRepo().QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	// Newest first.
	if !events[0].Success || events[1].Success || events[1].ErrorKind != "transient" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&GenerationError{Kind: Transient}, "transient"},
		{&GenerationError{Kind: Permanent}, "permanent"},
		{context.DeadlineExceeded, "canceled"},
		{errors.New("x"), "unclassified"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
