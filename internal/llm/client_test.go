package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(serverURL string) *HTTPClient {
	c := NewHTTPClient(serverURL, "clave-de-prueba", "claude-test", 0.7, 4096, 0.95, zap.NewNop())
	return c
}

func TestHTTPClientComplete(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody invokeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"completion": " Hola, ¿en qué te ayudo? ", "stop_reason": "stop_sequence", "stop": "\n\nHuman:"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.client = server.Client()

	turns := []Turn{
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "buenas"},
		{Role: "user", Content: "¿cómo estás?"},
	}
	completion, err := client.Complete(context.Background(), turns, Options{SystemPrompt: "sé breve"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if gotPath != "/model/claude-test/invoke" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAPIKey != "clave-de-prueba" {
		t.Fatalf("expected api key header, got %q", gotAPIKey)
	}
	if !strings.Contains(gotBody.Prompt, "\n\nHuman: hola") ||
		!strings.Contains(gotBody.Prompt, "\n\nAssistant: buenas") {
		t.Fatalf("expected role-tagged turns in prompt, got %q", gotBody.Prompt)
	}
	if !strings.HasSuffix(gotBody.Prompt, "\n\nAssistant:") {
		t.Fatalf("expected trailing assistant marker, got %q", gotBody.Prompt)
	}
	if !strings.Contains(gotBody.Prompt, "sé breve") {
		t.Fatalf("expected system prompt folded in, got %q", gotBody.Prompt)
	}
	if gotBody.MaxTokens != 4096 || gotBody.Temperature != 0.7 || gotBody.TopP != 0.95 {
		t.Fatalf("unexpected generation options: %+v", gotBody)
	}

	if completion.Content != "Hola, ¿en qué te ayudo?" {
		t.Fatalf("unexpected completion %q", completion.Content)
	}
	if completion.StopReason != "stop_sequence" || completion.StopSequence != "\n\nHuman:" {
		t.Fatalf("unexpected stop fields: %+v", completion)
	}
	if completion.Model != "claude-test" {
		t.Fatalf("expected model echo, got %q", completion.Model)
	}
}

func TestHTTPClientOptionOverrides(t *testing.T) {
	var gotBody invokeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"completion": "ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.client = server.Client()

	_, err := client.Complete(context.Background(), []Turn{{Role: "user", Content: "x"}}, Options{
		Temperature: 0.2,
		MaxTokens:   128,
		TopP:        0.5,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if gotBody.Temperature != 0.2 || gotBody.MaxTokens != 128 || gotBody.TopP != 0.5 {
		t.Fatalf("expected per-call overrides, got %+v", gotBody)
	}
}

func TestHTTPClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "throttled"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.client = server.Client()

	_, err := client.Complete(context.Background(), []Turn{{Role: "user", Content: "x"}}, Options{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.Message != "throttled" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestHTTPClientEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"completion": ""}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.client = server.Client()

	_, err := client.Complete(context.Background(), []Turn{{Role: "user", Content: "x"}}, Options{})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
