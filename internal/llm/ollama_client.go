package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apatwa/studydeck/internal/ingest"
)

type ollamaClient struct {
	host   string
	model  string
	client *http.Client
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) GenerateLesson(ctx context.Context, topic string, sources []ingest.Source) ([]ConceptDraft, error) {
	contextText := BuildContext(sources, maxLessonContextChars)
	if contextText == "" && strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("nothing to generate from; need a topic or source files")
	}
	prompt := buildLessonPrompt(topic, contextText)
	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseConceptDrafts(raw)
}

func (c *ollamaClient) Explain(ctx context.Context, term, material string) (string, error) {
	if strings.TrimSpace(term) == "" {
		return "", fmt.Errorf("term cannot be empty")
	}
	prompt := buildExplainPrompt(term, clipText(material, maxExplainContextChars))
	return c.generate(ctx, prompt)
}

func (c *ollamaClient) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ollama API error: %s (%s)", resp.Status, string(body))
	}

	var parsed struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("ollama returned an empty response")
	}
	return strings.TrimSpace(parsed.Response), nil
}
