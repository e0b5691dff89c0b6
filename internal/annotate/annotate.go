// Package annotate holds the pure operations over a lesson's annotation
// list. Every operation copies; callers decide when the resulting list is
// persisted back onto the lesson.
package annotate

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/apatwa/studydeck/internal/lesson"
)

// ErrDuplicateID is returned by Add when the annotation's id is already
// present in the list.
var ErrDuplicateID = errors.New("annotate: duplicate annotation id")

// New builds an annotation for a captured selection. TargetText is the
// selected substring at capture time; offsets are half-open into the field's
// plain text.
func New(conceptID string, field lesson.Field, targetText string, start, end int) lesson.Annotation {
	return lesson.Annotation{
		ID:         uuid.NewString(),
		ConceptID:  conceptID,
		FieldName:  field,
		TargetText: targetText,
		StartIndex: start,
		EndIndex:   end,
		CreatedAt:  time.Now(),
	}
}

// Add appends the annotation and returns a new list. When an annotation with
// the same id already exists the input list is returned unchanged alongside
// ErrDuplicateID.
func Add(annotations []lesson.Annotation, a lesson.Annotation) ([]lesson.Annotation, error) {
	for _, existing := range annotations {
		if existing.ID == a.ID {
			return annotations, ErrDuplicateID
		}
	}
	updated := append(append([]lesson.Annotation(nil), annotations...), a)
	return updated, nil
}

// UpdateNote replaces the note text of the annotation with the given id.
// A missing id leaves the list unchanged; a fresh copy is returned either way.
func UpdateNote(annotations []lesson.Annotation, id, note string) []lesson.Annotation {
	updated := append([]lesson.Annotation(nil), annotations...)
	for i := range updated {
		if updated[i].ID == id {
			updated[i].Note = note
			break
		}
	}
	return updated
}

// Remove drops the annotation with the given id. A missing id leaves the
// list unchanged; a fresh copy is returned either way.
func Remove(annotations []lesson.Annotation, id string) []lesson.Annotation {
	updated := make([]lesson.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a.ID == id {
			continue
		}
		updated = append(updated, a)
	}
	return updated
}

// RelevantFor returns the annotations anchored to one field of one concept,
// sorted by ascending start offset. The render layer depends on this order.
func RelevantFor(annotations []lesson.Annotation, conceptID string, field lesson.Field) []lesson.Annotation {
	relevant := make([]lesson.Annotation, 0)
	for _, a := range annotations {
		if a.ConceptID == conceptID && a.FieldName == field {
			relevant = append(relevant, a)
		}
	}
	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].StartIndex < relevant[j].StartIndex
	})
	return relevant
}
