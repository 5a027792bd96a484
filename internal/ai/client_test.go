package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"folioforge/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.AIConfig{BaseURL: srv.URL, TimeoutSeconds: 5})
}

func TestExtractFromURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/extract" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.URL != "https://blobs.example/r.pdf" {
			t.Errorf("url = %s", req.URL)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "resume body"})
	})

	text, err := c.ExtractFromURL(context.Background(), "https://blobs.example/r.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "resume body" {
		t.Errorf("text = %q", text)
	}
}

func TestGenerateObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string         `json:"prompt"`
			Schema map[string]any `json:"schema"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Schema["type"] != "object" {
			t.Errorf("schema not forwarded: %v", req.Schema)
		}
		w.Write([]byte(`{"object":{"summary":"hi"}}`))
	})

	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.GenerateObject(context.Background(), "p", ResumeParseSchema(), &out); err != nil {
		t.Fatalf("generate object: %v", err)
	}
	if out.Summary != "hi" {
		t.Errorf("summary = %q", out.Summary)
	}
}

func TestGenerateObjectErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	})

	var out map[string]any
	err := c.GenerateObject(context.Background(), "p", nil, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestGenerateTextEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"   "}`))
	})
	if _, err := c.GenerateText(context.Background(), "p"); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestParsePromptCapsText(t *testing.T) {
	long := strings.Repeat("a", 6000)
	p := ParsePrompt(long)
	if strings.Count(p, "a") != 4000 {
		t.Errorf("prompt embeds %d chars, want 4000", strings.Count(p, "a"))
	}
}
