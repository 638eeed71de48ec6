package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *PromptClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewPromptClient("sk-test", "gpt-4o-mini", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.url = srv.URL
	return c
}

func TestCompleteSendsJSONRequest(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"questions\":[\"a\"]} "}}]}`))
	})

	out, err := c.Complete(t.Context(), "hello")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"questions":["a"]}` {
		t.Fatalf("content = %q", out)
	}
	if got.ResponseFormat.Type != "json_object" || got.Temperature == nil || got.Messages[0].Content != "hello" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	})
	_, err := c.Complete(t.Context(), "hello")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}

func TestNewPromptClientValidates(t *testing.T) {
	if _, err := NewPromptClient("", "gpt-4o", 0); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if _, err := NewPromptClient("k", " ", 0); err == nil {
		t.Fatalf("expected error for missing model")
	}
}
