package guide

import (
	"fmt"
	"strings"
)

// Step represents one actionable recommendation in the study workflow.
type Step struct {
	Title       string
	Description string
}

// Metadata carries just enough context for personalizing guide steps.
type Metadata struct {
	Topic        string
	ConceptCount int
}

// Build returns a study checklist tailored to one lesson.
func Build(meta Metadata) []Step {
	topic := strings.TrimSpace(meta.Topic)
	if topic == "" {
		topic = "this lesson"
	}
	cards := "the cards"
	if meta.ConceptCount > 0 {
		cards = fmt.Sprintf("all %d cards", meta.ConceptCount)
	}

	return []Step{
		{
			Title:       "Skim the cards",
			Description: fmt.Sprintf("Read %s of %s once without stopping. Note which terms are new and which you could already explain to someone else.", cards, topic),
		},
		{
			Title:       "Work the examples",
			Description: "Step through each code example line by line. Predict what it does before reading the notes, then check yourself against the definition.",
		},
		{
			Title:       "Highlight and annotate",
			Description: "Select the phrases you would stumble on in a week and attach a note in your own words. A highlight without your own phrasing is a bookmark, not a memory.",
		},
		{
			Title:       "Self-test",
			Description: fmt.Sprintf("Cover the definitions and recite each term's meaning from the highlights alone. Re-annotate anything about %s you got wrong.", topic),
		},
	}
}
