package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenRouterProvider(t *testing.T, handler http.HandlerFunc) *OpenRouterProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.0-flash-exp",
		BaseURL: server.URL + "/api/v1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestOpenRouterProvider_ReturnsReplyUnmodified(t *testing.T) {
	// Fenced and indented on purpose: cleanup belongs to the parser.
	reply := "```\nWhat is H2O?\n  a) Water\nb) Salt\nc) Sugar\nd) Sand\nCorrect answer: a\n```\n"

	var (
		gotPath, gotModel, gotTitle, gotReferer, gotAuth string
	)
	p := newTestOpenRouterProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTitle = r.Header.Get("X-Title")
		gotReferer = r.Header.Get("HTTP-Referer")
		gotAuth = r.Header.Get("Authorization")

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-test",
			"model": "google/gemini-2.0-flash-exp",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}, "finish_reason": "length"},
			},
			"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 12, "total_tokens": 42},
		})
	})

	resp, err := p.Generate(context.Background(), Request{
		System:   "You are an expert MCQ maker.",
		Messages: []Message{{Role: RoleUser, Content: "Make one question."}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != reply {
		t.Errorf("text = %q, want reply unmodified", resp.Text)
	}
	if resp.StopReason != "max_tokens" {
		t.Errorf("stop reason = %q, want %q", resp.StopReason, "max_tokens")
	}
	if resp.Usage.TotalTokens != 42 {
		t.Errorf("total tokens = %d, want 42", resp.Usage.TotalTokens)
	}
	if gotPath != "/api/v1/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotModel != "google/gemini-2.0-flash-exp" {
		t.Errorf("model sent = %q, want it passed through", gotModel)
	}
	if gotAuth != "Bearer sk-or-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotTitle != openRouterTitle || gotReferer != openRouterReferer {
		t.Errorf("attribution headers = %q / %q", gotTitle, gotReferer)
	}
}

func TestOpenRouterProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"service unavailable", http.StatusServiceUnavailable, Transient},
		{"rate limit", http.StatusTooManyRequests, Transient},
		{"unauthorized", http.StatusUnauthorized, Permanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenRouterProvider(t, openAIErrorHandler(tt.status, "error"))
			_, err := p.Generate(context.Background(), Request{
				Messages: []Message{{Role: RoleUser, Content: "test"}},
			})
			var gen *GenerationError
			if !errors.As(err, &gen) {
				t.Fatalf("expected GenerationError, got: %T (%v)", err, err)
			}
			if gen.Kind != tt.want {
				t.Errorf("kind = %s, want %s", gen.Kind, tt.want)
			}
			if gen.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", gen.StatusCode, tt.status)
			}
		})
	}
}

func TestOpenRouterProvider_RetriedThroughDecorator(t *testing.T) {
	calls := 0
	p := newTestOpenRouterProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			openAIErrorHandler(http.StatusServiceUnavailable, "error")(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "ok"}, "finish_reason": "stop"},
			},
		})
	})

	s := &recordingSleeper{}
	resp, err := WithRetry(p, retryConfig(), WithSleeper(s.sleep)).Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "test"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "ok" || calls != 2 {
		t.Errorf("text = %q after %d calls", resp.Text, calls)
	}
}

func TestNewOpenRouterProvider_RequiresKeyAndModel(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"}); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test"}); err == nil {
		t.Error("expected error for empty model")
	}
}
