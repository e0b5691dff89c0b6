// Package export renders an annotated lesson to Markdown. It reuses the
// same span merge as the interactive view so exported highlights land on
// exactly the ranges the user saw.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/apatwa/studydeck/internal/annotate"
	"github.com/apatwa/studydeck/internal/highlight"
	"github.com/apatwa/studydeck/internal/lesson"
)

// Markdown renders the whole lesson. Prose highlights become ==marks== with
// footnoted notes; code examples stay in fenced blocks with their
// annotations listed underneath.
func Markdown(l lesson.Lesson) string {
	var b strings.Builder
	footnotes := []string{}

	fmt.Fprintf(&b, "# %s\n", l.Topic)
	for _, concept := range l.Concepts {
		fmt.Fprintf(&b, "\n## %s\n", concept.Term)

		writeProse(&b, &footnotes, "Definition", concept.Definition,
			annotate.RelevantFor(l.Annotations, concept.ID, lesson.FieldDefinition))
		writeProse(&b, &footnotes, "Notes", concept.Notes,
			annotate.RelevantFor(l.Annotations, concept.ID, lesson.FieldNotes))
		if concept.VisualExample != "" {
			fmt.Fprintf(&b, "\n*Visual:* %s\n", concept.VisualExample)
		}
		writeCode(&b, concept, annotate.RelevantFor(l.Annotations, concept.ID, lesson.FieldCode))
	}

	if len(footnotes) > 0 {
		b.WriteString("\n")
		for i, note := range footnotes {
			fmt.Fprintf(&b, "[^%d]: %s\n", i+1, note)
		}
	}
	return b.String()
}

// WriteFile renders the lesson and writes it next to the library.
func WriteFile(path string, l lesson.Lesson) error {
	return os.WriteFile(path, []byte(Markdown(l)), 0o644)
}

func writeProse(b *strings.Builder, footnotes *[]string, label, text string, annotations []lesson.Annotation) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintf(b, "\n**%s.** ", label)
	spans := highlight.Merge(text, annotations, highlight.ModeProse)
	for _, span := range spans {
		if span.Annotation == nil {
			b.WriteString(span.Text)
			continue
		}
		fmt.Fprintf(b, "==%s==", span.Text)
		if note := strings.TrimSpace(span.Annotation.Note); note != "" {
			*footnotes = append(*footnotes, note)
			fmt.Fprintf(b, "[^%d]", len(*footnotes))
		}
	}
	b.WriteString("\n")
}

func writeCode(b *strings.Builder, concept lesson.Concept, annotations []lesson.Annotation) {
	code := strings.TrimRight(concept.CodeExample, "\n")
	if code == "" {
		return
	}
	fmt.Fprintf(b, "\n```%s\n%s\n```\n", concept.CodeLang, code)
	if len(annotations) == 0 {
		return
	}
	// Fenced blocks cannot carry inline marks; the merge still drives which
	// ranges survive clamping and overlap absorption.
	spans := highlight.Merge(code, annotations, highlight.ModeCode)
	listed := map[string]bool{}
	for _, span := range spans {
		if span.Annotation == nil || listed[span.Annotation.ID] {
			continue
		}
		listed[span.Annotation.ID] = true
		line := fmt.Sprintf("- `%s`", span.Annotation.TargetText)
		if note := strings.TrimSpace(span.Annotation.Note); note != "" {
			line += ": " + note
		}
		b.WriteString(line + "\n")
	}
}
