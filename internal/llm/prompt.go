package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func buildLessonPrompt(topic, context string) string {
	if strings.TrimSpace(topic) == "" {
		topic = "the provided material"
	}
	var b strings.Builder
	b.WriteString("You are a patient programming tutor building flash-card style study material.\n")
	b.WriteString("Distill the material into 4-8 concept cards a student can annotate.\n")
	b.WriteString("Each card must include: term (<=6 words), definition (2-3 plain sentences), ")
	b.WriteString("notes (practical tips or pitfalls, 1-3 sentences), visualExample (a one-line ")
	b.WriteString("description of a diagram that would help, may be empty), and codeExample ")
	b.WriteString("(a short self-contained snippet, fenced with the language tag, may be empty).\n")
	b.WriteString(`Return ONLY JSON matching {"concepts":[{"term":"","definition":"","notes":"","visualExample":"","codeExample":""}]}.` + "\n\n")
	b.WriteString("Topic: " + topic + "\n")
	if context != "" {
		b.WriteString("\nMaterial:\n")
		b.WriteString(context)
	}
	return b.String()
}

func buildExplainPrompt(term, material string) string {
	var b strings.Builder
	b.WriteString("You are a patient programming tutor. Explain the term below to a student ")
	b.WriteString("in 3-5 short sentences, grounded in the study material when it is relevant.\n\n")
	b.WriteString("Term: " + term + "\n")
	if material != "" {
		b.WriteString("\nStudy material:\n")
		b.WriteString(material)
	}
	return b.String()
}

// parseConceptDrafts accepts the strict JSON the prompt demands but also the
// shapes models actually return: a bare array, a {"concepts": []} wrapper,
// or either of those buried in surrounding prose.
func parseConceptDrafts(raw string) ([]ConceptDraft, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty generation response")
	}

	candidates := []string{raw}
	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}

	for _, candidate := range candidates {
		var arr []ConceptDraft
		if err := json.Unmarshal([]byte(candidate), &arr); err == nil && len(arr) > 0 {
			if clean := sanitizeConceptDrafts(arr); len(clean) > 0 {
				return clean, nil
			}
		}
		var wrapper struct {
			Concepts []ConceptDraft `json:"concepts"`
		}
		if err := json.Unmarshal([]byte(candidate), &wrapper); err == nil && len(wrapper.Concepts) > 0 {
			if clean := sanitizeConceptDrafts(wrapper.Concepts); len(clean) > 0 {
				return clean, nil
			}
		}
	}
	return nil, fmt.Errorf("unable to parse generation payload")
}

func sanitizeConceptDrafts(drafts []ConceptDraft) []ConceptDraft {
	result := make([]ConceptDraft, 0, len(drafts))
	for _, draft := range drafts {
		d := ConceptDraft{
			Term:          strings.TrimSpace(draft.Term),
			Definition:    strings.TrimSpace(draft.Definition),
			Notes:         strings.TrimSpace(draft.Notes),
			VisualExample: strings.TrimSpace(draft.VisualExample),
			CodeExample:   strings.TrimRight(draft.CodeExample, "\n\t "),
		}
		if d.Term == "" || d.Definition == "" {
			continue
		}
		result = append(result, d)
	}
	return result
}
