package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewOllamaProvider(t *testing.T) {
	p, err := NewOllamaProvider(OllamaConfig{ServerURL: "http://localhost:11434", Model: "llama3.2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "llama3.2" {
		t.Fatalf("expected 'llama3.2', got %q", p.ModelID())
	}

	if _, err := NewOllamaProvider(OllamaConfig{ServerURL: "http://localhost:11434"}); err == nil {
		t.Fatal("expected error for empty model")
	}
}

func TestOllamaProvider_HappyPath(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.2",
			"created_at":        "2024-01-01T00:00:00Z",
			"message":           map[string]any{"role": "assistant", "content": "Q?\na) 1\nb) 2\nc) 3\nd) 4\nCorrect answer: c"},
			"done":              true,
			"done_reason":       "stop",
			"prompt_eval_count": 9,
			"eval_count":        6,
		})
	}))
	t.Cleanup(server.Close)

	p, err := NewOllamaProvider(OllamaConfig{ServerURL: server.URL, Model: "llama3.2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := p.Generate(context.Background(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "make a quiz"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "Q?\na) 1\nb) 2\nc) 3\nd) 4\nCorrect answer: c" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if resp.Usage.InputTokens != 9 || resp.Usage.OutputTokens != 6 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %v", got["messages"])
	}
}

func TestOllamaProvider_UnreachableIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	p, err := NewOllamaProvider(OllamaConfig{ServerURL: url, Model: "llama3.2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if !IsTransient(err) {
		t.Fatalf("expected transient error for refused connection, got %T (%v)", err, err)
	}
}

func TestIntInfo(t *testing.T) {
	info := map[string]any{"a": 3, "b": int64(4), "c": float64(5), "d": "x"}
	for key, want := range map[string]int{"a": 3, "b": 4, "c": 5, "d": 0, "missing": 0} {
		if got := intInfo(info, key); got != want {
			t.Errorf("intInfo(%q) = %d, want %d", key, got, want)
		}
	}
}
