package lesson

import (
	"regexp"
	"strings"
	"time"
)

// Field identifies which text field of a concept an operation targets.
// The set is closed; code paths that branch on it must handle every value.
type Field string

const (
	FieldDefinition Field = "definition"
	FieldNotes      Field = "notes"
	FieldCode       Field = "codeExample"
)

// Valid reports whether f is one of the recognized concept fields.
func (f Field) Valid() bool {
	switch f {
	case FieldDefinition, FieldNotes, FieldCode:
		return true
	default:
		return false
	}
}

// IsCode reports whether the field renders with syntax highlighting.
func (f Field) IsCode() bool {
	return f == FieldCode
}

// Concept is one teachable unit inside a lesson.
type Concept struct {
	ID            string `json:"id"`
	Term          string `json:"term"`
	Definition    string `json:"definition"`
	Notes         string `json:"notes"`
	VisualExample string `json:"visualExample"`
	CodeExample   string `json:"codeExample"`
	CodeLang      string `json:"codeLang,omitempty"`
}

// FieldText returns the plain text stored in the named field.
func (c Concept) FieldText(field Field) string {
	switch field {
	case FieldDefinition:
		return c.Definition
	case FieldNotes:
		return c.Notes
	case FieldCode:
		return c.CodeExample
	default:
		return ""
	}
}

// SetField replaces the named field's text. Unknown fields are ignored.
func (c *Concept) SetField(field Field, value string) {
	switch field {
	case FieldDefinition:
		c.Definition = value
	case FieldNotes:
		c.Notes = value
	case FieldCode:
		c.CodeExample = value
	}
}

// Annotation anchors a user highlight plus note to a character range within
// one field of one concept. Offsets are half-open [StartIndex, EndIndex)
// into the plain text of that field as it was at creation time. TargetText
// is a snapshot of the selected substring, kept for display; it is never
// re-derived from the offsets.
type Annotation struct {
	ID         string    `json:"id"`
	ConceptID  string    `json:"conceptId"`
	FieldName  Field     `json:"fieldName"`
	TargetText string    `json:"targetText"`
	Note       string    `json:"note"`
	StartIndex int       `json:"startIndex"`
	EndIndex   int       `json:"endIndex"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Lesson is a generated collection of concepts plus the user's annotations.
type Lesson struct {
	ID          string       `json:"id"`
	FolderID    string       `json:"folderId"`
	Topic       string       `json:"topic"`
	Concepts    []Concept    `json:"concepts"`
	Annotations []Annotation `json:"annotations"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Concept returns the concept with the given id.
func (l Lesson) Concept(id string) (Concept, bool) {
	for _, c := range l.Concepts {
		if c.ID == id {
			return c, true
		}
	}
	return Concept{}, false
}

// WithAnnotations returns a copy of the lesson carrying the provided
// annotation list and a bumped UpdatedAt, leaving the receiver untouched.
// Callers persist the returned lesson as a whole-object replacement.
func (l Lesson) WithAnnotations(annotations []Annotation) Lesson {
	l.Annotations = append([]Annotation(nil), annotations...)
	l.UpdatedAt = time.Now()
	return l
}

// Folder groups lessons in the library. Folders are flat.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var fenceRe = regexp.MustCompile("(?s)^```([A-Za-z0-9+#._-]*)[ \t]*\n(.*?)\n?```\\s*$")

// StripFence removes a surrounding Markdown code fence from generated code
// and returns the body plus the language tag, if any. Unfenced input is
// returned as-is.
func StripFence(code string) (body, lang string) {
	trimmed := strings.TrimSpace(code)
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		return m[2], m[1]
	}
	return code, ""
}
