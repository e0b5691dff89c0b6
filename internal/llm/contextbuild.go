package llm

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/apatwa/studydeck/internal/ingest"
)

var paragraphSplit = regexp.MustCompile(`\n{2,}`)

// BuildContext assembles the prompt material from the ingested sources. The
// character budget is split evenly across sources so one huge file cannot
// crowd the rest out, repeated paragraphs are deduplicated across the whole
// set, and oversized sources are clipped on rune boundaries.
func BuildContext(sources []ingest.Source, budget int) string {
	if len(sources) == 0 || budget <= 0 {
		return ""
	}
	perSource := budget / len(sources)
	if perSource < 1 {
		perSource = 1
	}

	seen := map[string]bool{}
	var b strings.Builder
	for _, source := range sources {
		body := dedupeParagraphs(source.Text, seen)
		body = clipText(body, perSource)
		if body == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("File: ")
		b.WriteString(source.Name)
		if source.Lang != "" {
			b.WriteString(" (")
			b.WriteString(source.Lang)
			b.WriteString(")")
		}
		b.WriteString("\n")
		b.WriteString(body)
	}
	return strings.TrimSpace(b.String())
}

func dedupeParagraphs(text string, seen map[string]bool) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	paragraphs := paragraphSplit.Split(text, -1)
	kept := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" {
			continue
		}
		hash := hashParagraph(canonicalParagraph(trimmed))
		if seen[hash] {
			continue
		}
		seen[hash] = true
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n\n")
}

func canonicalParagraph(text string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

func hashParagraph(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
