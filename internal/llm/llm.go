package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/apatwa/studydeck/internal/ingest"
)

const (
	defaultOllamaModel = "ministral-3:latest"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOpenAIBase  = "https://api.openai.com/v1"

	// Prompt budgets stay far below the model windows (roughly 4 chars per
	// token) so generation requests never trip context limits.
	maxLessonContextChars  = 150_000
	maxExplainContextChars = 60_000
)

const defaultLLMHTTPTimeout = 3 * time.Minute

// ErrDisabled is returned by New when no provider is configured. Callers
// fall back to the offline outline.
var ErrDisabled = errors.New("llm: no provider configured")

// Config describes how to build a client.
type Config struct {
	Provider   string
	Model      string
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// ConceptDraft is one concept card as returned by a model, before ids are
// assigned and code fences are stripped.
type ConceptDraft struct {
	Term          string `json:"term"`
	Definition    string `json:"definition"`
	Notes         string `json:"notes"`
	VisualExample string `json:"visualExample"`
	CodeExample   string `json:"codeExample"`
}

// Client exposes lesson generation and concept explanation.
type Client interface {
	GenerateLesson(ctx context.Context, topic string, sources []ingest.Source) ([]ConceptDraft, error)
	Explain(ctx context.Context, term, material string) (string, error)
	Name() string
}

// New builds a client for the configured provider. Environment variables
// fill gaps the config leaves: OLLAMA_HOST/OLLAMA_MODEL for ollama and
// OPENAI_API_KEY for openai. Provider "off" (or empty with no key material)
// yields ErrDisabled.
func New(cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		if os.Getenv("OPENAI_API_KEY") != "" {
			provider = "openai"
		} else {
			provider = "ollama"
		}
	}
	switch provider {
	case "off", "none":
		return nil, ErrDisabled
	case "ollama":
		host := cfg.Endpoint
		if host == "" {
			if env := os.Getenv("OLLAMA_HOST"); env != "" {
				host = strings.TrimRight(env, "/")
			} else {
				host = "http://localhost:11434"
			}
		}
		model := cfg.Model
		if model == "" {
			if env := os.Getenv("OLLAMA_MODEL"); env != "" {
				model = env
			} else {
				model = defaultOllamaModel
			}
		}
		return &ollamaClient{
			host:   host,
			model:  model,
			client: pickHTTPClient(cfg.HTTPClient),
		}, nil
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("llm: openai provider selected but no API key set")
		}
		base := cfg.Endpoint
		if base == "" {
			base = defaultOpenAIBase
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		return &openAIClient{
			apiKey: apiKey,
			model:  model,
			base:   strings.TrimRight(base, "/"),
			client: pickHTTPClient(cfg.HTTPClient),
		}, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Generations routinely run past 60s; rely on the caller's context for
	// cancellation.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}
