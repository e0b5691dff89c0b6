package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apatwa/studydeck/internal/lesson"
)

func fixtureLesson() lesson.Lesson {
	return lesson.Lesson{
		ID:    "l1",
		Topic: "Variables",
		Concepts: []lesson.Concept{
			{
				ID:          "c1",
				Term:        "declaration",
				Definition:  "A declaration introduces a name.",
				Notes:       "Shadowing trips people up.",
				CodeExample: "int x = 5;",
				CodeLang:    "c",
			},
		},
		Annotations: []lesson.Annotation{
			{
				ID:         "a1",
				ConceptID:  "c1",
				FieldName:  lesson.FieldDefinition,
				TargetText: "introduces a name",
				Note:       "key phrase",
				StartIndex: 14,
				EndIndex:   31,
			},
			{
				ID:         "a2",
				ConceptID:  "c1",
				FieldName:  lesson.FieldCode,
				TargetText: "x",
				Note:       "the variable",
				StartIndex: 4,
				EndIndex:   5,
			},
		},
	}
}

func TestMarkdownRendersHighlightsAndFootnotes(t *testing.T) {
	t.Parallel()

	got := Markdown(fixtureLesson())

	if !strings.Contains(got, "# Variables") || !strings.Contains(got, "## declaration") {
		t.Fatalf("missing headers:\n%s", got)
	}
	if !strings.Contains(got, "==introduces a name==[^1]") {
		t.Fatalf("prose highlight not rendered:\n%s", got)
	}
	if !strings.Contains(got, "[^1]: key phrase") {
		t.Fatalf("footnote missing:\n%s", got)
	}
	if !strings.Contains(got, "```c\nint x = 5;\n```") {
		t.Fatalf("code fence missing:\n%s", got)
	}
	if !strings.Contains(got, "- `x`: the variable") {
		t.Fatalf("code annotation listing missing:\n%s", got)
	}
}

func TestMarkdownSurvivesStaleOffsets(t *testing.T) {
	t.Parallel()

	l := fixtureLesson()
	l.Annotations[0].EndIndex = 500

	got := Markdown(l)
	if !strings.Contains(got, "==introduces a name.==") {
		t.Fatalf("clamped highlight should run to end of text:\n%s", got)
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lesson.md")
	if err := WriteFile(path, fixtureLesson()); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "# Variables") {
		t.Fatal("exported file missing lesson content")
	}
}
