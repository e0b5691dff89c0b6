package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIClientGenerateLesson(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if len(payload.Messages) != 2 || !strings.Contains(payload.Messages[1].Content, "Topic: Recursion") {
			t.Fatalf("prompt missing topic: %#v", payload.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"[{\"term\":\"base case\",\"definition\":\"The stopping condition.\"}]"}}]}`))
	}))
	defer server.Close()

	client := &openAIClient{
		apiKey: "sk-test",
		model:  "gpt-4o-mini",
		base:   server.URL + "/v1",
		client: server.Client(),
	}

	drafts, err := client.GenerateLesson(context.Background(), "Recursion", nil)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Term != "base case" {
		t.Fatalf("unexpected drafts: %#v", drafts)
	}
}

func TestOpenAIClientNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := &openAIClient{apiKey: "sk-test", model: "m", base: server.URL, client: server.Client()}
	if _, err := client.Explain(context.Background(), "stack", ""); err == nil {
		t.Fatal("expected error when API returns no choices")
	}
}
