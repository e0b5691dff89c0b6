package guide

import (
	"strings"
	"testing"
)

func TestBuildPersonalizesSteps(t *testing.T) {
	t.Parallel()

	steps := Build(Metadata{Topic: "Pointers", ConceptCount: 5})
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if steps[0].Title != "Skim the cards" {
		t.Fatalf("unexpected first step %q", steps[0].Title)
	}
	if !strings.Contains(steps[0].Description, "all 5 cards") {
		t.Fatalf("first step not personalized: %q", steps[0].Description)
	}
	if !strings.Contains(steps[0].Description, "Pointers") {
		t.Fatalf("topic missing from first step: %q", steps[0].Description)
	}
	if !strings.Contains(steps[3].Description, "Pointers") {
		t.Fatalf("topic missing from self-test step: %q", steps[3].Description)
	}
}

func TestBuildFallsBackWithoutMetadata(t *testing.T) {
	t.Parallel()

	steps := Build(Metadata{})
	if !strings.Contains(steps[0].Description, "this lesson") {
		t.Fatalf("missing topic fallback: %q", steps[0].Description)
	}
	if !strings.Contains(steps[0].Description, "the cards") {
		t.Fatalf("missing card-count fallback: %q", steps[0].Description)
	}
}
