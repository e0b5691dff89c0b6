package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apatwa/studydeck/internal/lesson"
)

func TestStudyMaterialFlattensCards(t *testing.T) {
	l := lesson.Lesson{
		Concepts: []lesson.Concept{
			{Term: "pointer", Definition: "An address of a value.", Notes: "Dereference with *."},
			{Term: "slice", Definition: "A view over an array."},
		},
	}
	got := studyMaterial(l)
	want := "pointer: An address of a value. Dereference with *.\nslice: A view over an array.\n"
	if got != want {
		t.Fatalf("studyMaterial = %q, want %q", got, want)
	}
}

func TestTrimmedTitle(t *testing.T) {
	if got := trimmedTitle("  Short topic  "); got != "Short topic" {
		t.Fatalf("trimmedTitle = %q", got)
	}
	long := strings.Repeat("pointers and memory ", 6)
	got := trimmedTitle(long)
	if len(got) > 60 {
		t.Fatalf("trimmed title still %d chars: %q", len(got), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("long titles should end in ellipsis, got %q", got)
	}
}

func TestExportPathSlugifiesTopic(t *testing.T) {
	library := filepath.Join("home", "user", "library.json")
	got := exportPath(library, "Pointers & Memory!")
	want := filepath.Join("home", "user", "pointers--memory.md")
	if got != want {
		t.Fatalf("exportPath = %q, want %q", got, want)
	}

	got = exportPath(library, "###")
	want = filepath.Join("home", "user", "lesson.md")
	if got != want {
		t.Fatalf("exportPath fallback = %q, want %q", got, want)
	}
}

func TestLoadLibraryJobToleratesMissingFile(t *testing.T) {
	runner := loadLibraryJob(filepath.Join(t.TempDir(), "nope", "library.json"))
	msg, err := runner(context.Background())
	if err != nil {
		t.Fatalf("missing library should not error, got %v", err)
	}
	loaded, ok := msg.(libraryLoadedMsg)
	if !ok {
		t.Fatalf("unexpected message %T", msg)
	}
	if loaded.err != nil || len(loaded.lessons) != 0 {
		t.Fatalf("expected empty load, got %+v", loaded)
	}
}
