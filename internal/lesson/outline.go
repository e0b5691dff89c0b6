package lesson

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apatwa/studydeck/internal/ingest"
)

const maxOutlineConcepts = 6

// Outline builds a heuristic lesson when no generative model is configured.
// One concept per source: the leading comment or sentence becomes the
// definition, declaration names become the notes, and the top of a code file
// becomes the example. It is deliberately shallow; the point is that the
// annotation workflow works offline.
func Outline(topic string, sources []ingest.Source) Lesson {
	now := time.Now()
	concepts := make([]Concept, 0, len(sources))
	for _, source := range sources {
		if len(concepts) == maxOutlineConcepts {
			break
		}
		concepts = append(concepts, outlineConcept(source))
	}
	if len(concepts) == 0 {
		concepts = append(concepts, Concept{
			ID:         uuid.NewString(),
			Term:       topic,
			Definition: fmt.Sprintf("Placeholder card for %s. Configure a provider to generate real content.", topic),
		})
	}
	return Lesson{
		ID:        uuid.NewString(),
		Topic:     topic,
		Concepts:  concepts,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func outlineConcept(source ingest.Source) Concept {
	concept := Concept{
		ID:         uuid.NewString(),
		Term:       termFromName(source.Name),
		Definition: leadingProse(source.Text),
		CodeLang:   source.Lang,
	}
	if names := declarationNames(source.Text); len(names) > 0 {
		concept.Notes = "Declares " + strings.Join(names, ", ") + "."
	}
	if source.Lang != "" {
		concept.CodeExample = headLines(source.Text, 24)
	}
	if concept.Definition == "" {
		concept.Definition = fmt.Sprintf("Extracted from %s.", source.Name)
	}
	return concept
}

func termFromName(name string) string {
	base := name
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(base)
}

// leadingProse returns the first comment block, or failing that the first
// sentence of the first non-empty line.
func leadingProse(text string) string {
	var comment []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(comment) > 0 {
				break
			}
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "//"):
			comment = append(comment, strings.TrimSpace(strings.TrimPrefix(trimmed, "//")))
		case strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#!"):
			comment = append(comment, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
		default:
			if len(comment) > 0 {
				return strings.Join(comment, " ")
			}
			return firstSentence(trimmed)
		}
	}
	return strings.Join(comment, " ")
}

func firstSentence(text string) string {
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 {
		return strings.TrimSpace(text[:idx+1])
	}
	return strings.TrimSpace(text)
}

var declarationPrefixes = []string{"func ", "type ", "class ", "def ", "interface ", "struct "}

func declarationNames(text string) []string {
	names := make([]string, 0, 5)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range declarationPrefixes {
			if !strings.HasPrefix(trimmed, prefix) {
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
			if name := identifierHead(rest); name != "" && !containsString(names, name) {
				names = append(names, name)
			}
			break
		}
		if len(names) == 5 {
			break
		}
	}
	return names
}

func identifierHead(s string) string {
	for i, r := range s {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return s[:i]
	}
	return s
}

func headLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func containsString(haystack []string, needle string) bool {
	for _, existing := range haystack {
		if existing == needle {
			return true
		}
	}
	return false
}
