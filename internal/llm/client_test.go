package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + strconvQuote(content) + `}}]}`
}

func strconvQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestClient_Complete(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(completionBody("  CURRENT_VALUE:fridge_temperature\n")))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL + "/", APIKey: "sk-test", Model: "gpt-4o-mini"})

	got, err := c.Complete(context.Background(), "classify the question", "fridge temp?", 120)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "CURRENT_VALUE:fridge_temperature" {
		t.Fatalf("completion = %q, want surrounding whitespace trimmed", got)
	}

	if gotPath != "/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", gotReq.Model)
	}
	if gotReq.MaxTokens != 120 {
		t.Fatalf("max_tokens = %d", gotReq.MaxTokens)
	}
	if gotReq.Temperature != 0 {
		t.Fatalf("temperature = %v, want deterministic 0", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 ||
		gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "classify the question" ||
		gotReq.Messages[1].Role != "user" || gotReq.Messages[1].Content != "fridge temp?" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
}

func TestClient_Complete_NoAPIKeySkipsAuthHeader(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Model: "local"})
	if _, err := c.Complete(context.Background(), "s", "u", 0); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if sawAuth {
		t.Fatalf("Authorization header must be absent without an API key")
	}
}

func TestClient_Complete_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Model: "m"})
	_, err := c.Complete(context.Background(), "s", "u", 0)
	if err == nil {
		t.Fatalf("expected an error on 429")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error should carry status and body snippet, got %v", err)
	}
}

func TestClient_Complete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Model: "m"})
	if _, err := c.Complete(context.Background(), "s", "u", 0); err == nil {
		t.Fatalf("expected an error on empty choices")
	}
}

func TestClient_Complete_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(Config{Endpoint: srv.URL, Model: "m"})
	if _, err := c.Complete(ctx, "s", "u", 0); err == nil {
		t.Fatalf("expected an error on cancelled context")
	}
}
