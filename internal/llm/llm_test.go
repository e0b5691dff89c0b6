package llm

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/apatwa/studydeck/internal/ingest"
)

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	if got := pickHTTPClient(custom); got != custom {
		t.Fatalf("expected custom client to be returned")
	}
}

func TestPickHTTPClientUsesLongerTimeout(t *testing.T) {
	client := pickHTTPClient(nil)
	if client.Timeout != defaultLLMHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultLLMHTTPTimeout, client.Timeout)
	}
}

func TestNewDisabledProvider(t *testing.T) {
	if _, err := New(Config{Provider: "off"}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "bedrock"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New(Config{Provider: "openai"}); err == nil {
		t.Fatal("expected error when no API key is available")
	}
}

func TestNewOllamaDefaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("OLLAMA_MODEL", "")
	client, err := New(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !strings.Contains(client.Name(), defaultOllamaModel) {
		t.Fatalf("expected default model in name, got %s", client.Name())
	}
}

func TestParseConceptDraftsShapes(t *testing.T) {
	t.Parallel()

	direct := `[{"term":"slice","definition":"A view over an array."}]`
	wrapped := `{"concepts":[{"term":"slice","definition":"A view over an array."}]}`
	buried := "Here you go:\n```json\n" + wrapped + "\n```\nEnjoy!"

	for name, raw := range map[string]string{"direct": direct, "wrapped": wrapped, "buried": buried} {
		drafts, err := parseConceptDrafts(raw)
		if err != nil {
			t.Fatalf("%s: parse failed: %v", name, err)
		}
		if len(drafts) != 1 || drafts[0].Term != "slice" {
			t.Fatalf("%s: unexpected drafts: %#v", name, drafts)
		}
	}
}

func TestParseConceptDraftsDropsEmptyCards(t *testing.T) {
	t.Parallel()

	raw := `[{"term":"  ","definition":"orphan"},{"term":"map","definition":"Key-value store."}]`
	drafts, err := parseConceptDrafts(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Term != "map" {
		t.Fatalf("expected only the complete card, got %#v", drafts)
	}
}

func TestParseConceptDraftsRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "I could not produce JSON today.", "[]"} {
		if _, err := parseConceptDrafts(raw); err == nil {
			t.Fatalf("expected parse error for %q", raw)
		}
	}
}

func TestBuildContextSplitsBudgetAndDedupes(t *testing.T) {
	t.Parallel()

	shared := "This paragraph appears in both files."
	sources := []ingest.Source{
		{Name: "a.go", Lang: "go", Text: shared + "\n\nfunc A() {}"},
		{Name: "b.go", Lang: "go", Text: shared + "\n\nfunc B() {}"},
	}

	got := BuildContext(sources, 10_000)
	if strings.Count(got, shared) != 1 {
		t.Fatalf("shared paragraph should appear once, got:\n%s", got)
	}
	if !strings.Contains(got, "File: a.go (go)") || !strings.Contains(got, "File: b.go (go)") {
		t.Fatalf("missing file headers:\n%s", got)
	}
	if !strings.Contains(got, "func B() {}") {
		t.Fatalf("second source content missing:\n%s", got)
	}
}

func TestBuildContextClipsOversizedSources(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 500)
	sources := []ingest.Source{
		{Name: "big.txt", Text: big},
		{Name: "small.txt", Text: "tiny"},
	}
	got := BuildContext(sources, 100)
	if len(got) > 200 {
		t.Fatalf("context not clipped, length %d", len(got))
	}
	if !strings.Contains(got, "tiny") {
		t.Fatalf("small source crowded out:\n%s", got)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	t.Parallel()

	if got := BuildContext(nil, 100); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}
