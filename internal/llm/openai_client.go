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

type openAIClient struct {
	apiKey string
	model  string
	base   string
	client *http.Client
}

func (c *openAIClient) Name() string {
	return fmt.Sprintf("OpenAI (%s)", c.model)
}

func (c *openAIClient) GenerateLesson(ctx context.Context, topic string, sources []ingest.Source) ([]ConceptDraft, error) {
	contextText := BuildContext(sources, maxLessonContextChars)
	if contextText == "" && strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("nothing to generate from; need a topic or source files")
	}
	prompt := buildLessonPrompt(topic, contextText)
	raw, err := c.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseConceptDrafts(raw)
}

func (c *openAIClient) Explain(ctx context.Context, term, material string) (string, error) {
	if strings.TrimSpace(term) == "" {
		return "", fmt.Errorf("term cannot be empty")
	}
	prompt := buildExplainPrompt(term, clipText(material, maxExplainContextChars))
	return c.chat(ctx, prompt)
}

func (c *openAIClient) chat(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a patient programming tutor."},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.base)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
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
		return "", fmt.Errorf("openai API error: %s (%s)", resp.Status, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai API returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
