package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apatwa/studydeck/internal/ingest"
)

func TestOllamaClientGenerateLesson(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		var payload struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if payload.Model != "qwen3-vl:8b" {
			t.Fatalf("expected model qwen3-vl:8b, got %s", payload.Model)
		}
		if !strings.Contains(payload.Prompt, "Topic: Pointers") {
			t.Fatalf("prompt missing topic: %s", payload.Prompt)
		}
		if !strings.Contains(payload.Prompt, "File: ptr.go (go)") {
			t.Fatalf("prompt missing source header: %s", payload.Prompt)
		}
		if payload.Stream {
			t.Fatal("expected streaming to be disabled")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"{\"concepts\":[{\"term\":\"pointer\",\"definition\":\"An address of a value.\",\"notes\":\"Beware nil.\"}]}","done":true}`))
	}))
	defer server.Close()

	client := &ollamaClient{
		host:   server.URL,
		model:  "qwen3-vl:8b",
		client: server.Client(),
	}

	sources := []ingest.Source{{Name: "ptr.go", Lang: "go", Text: "var p *int"}}
	drafts, err := client.GenerateLesson(context.Background(), "Pointers", sources)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 concept, got %d", len(drafts))
	}
	if drafts[0].Term != "pointer" || drafts[0].Notes != "Beware nil." {
		t.Fatalf("unexpected draft: %#v", drafts[0])
	}
}

func TestOllamaClientExplain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if !strings.Contains(payload.Prompt, "Term: closure") {
			t.Fatalf("prompt missing term: %s", payload.Prompt)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"A closure captures its surrounding scope.","done":true}`))
	}))
	defer server.Close()

	client := &ollamaClient{
		host:   server.URL,
		model:  "qwen3-vl:8b",
		client: server.Client(),
	}

	answer, err := client.Explain(context.Background(), "closure", "Functions are first-class values.")
	if err != nil {
		t.Fatalf("explain failed: %v", err)
	}
	if answer != "A closure captures its surrounding scope." {
		t.Fatalf("unexpected answer: %s", answer)
	}
}

func TestOllamaClientExplainRejectsEmptyTerm(t *testing.T) {
	client := &ollamaClient{host: "http://unused", model: "m", client: http.DefaultClient}
	if _, err := client.Explain(context.Background(), "   ", "material"); err == nil {
		t.Fatal("expected error for empty term")
	}
}

func TestOllamaClientSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := &ollamaClient{host: server.URL, model: "missing", client: server.Client()}
	_, err := client.GenerateLesson(context.Background(), "Topic", nil)
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected API error to surface, got %v", err)
	}
}
