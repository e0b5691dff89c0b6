// Package selection turns an active text selection into annotation offsets
// relative to the plain text of one rendering container.
package selection

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/apatwa/studydeck/internal/lesson"
)

// Source abstracts where a selection comes from. The TUI's highlight mode
// implements it over cursor anchors; tests implement it directly.
type Source interface {
	// Selection reports the container holding the active selection, the
	// selected plain text, and the plain-text offset of its first character
	// within that container. ok is false when nothing is selected.
	Selection() (containerID, text string, start int, ok bool)
}

// Range is a half-open [StartIndex, EndIndex) offset pair.
type Range struct {
	StartIndex int
	EndIndex   int
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// StripStyles removes terminal styling so offsets can be counted against the
// plain text a container renders.
func StripStyles(rendered string) string {
	return ansiPattern.ReplaceAllString(rendered, "")
}

// Capture computes the offsets of the source's active selection within the
// container whose plain content is given. It returns ok=false, declining
// silently, when the selection is collapsed, lives in another container,
// does not line up with the content, or has an endpoint inside an already
// annotated range (a highlight of a highlight).
func Capture(src Source, containerID, content string, existing []lesson.Annotation) (Range, bool) {
	selContainer, text, start, ok := src.Selection()
	if !ok || text == "" {
		return Range{}, false
	}
	if selContainer != containerID {
		return Range{}, false
	}
	if start < 0 {
		return Range{}, false
	}
	end := start + len(text)
	if end > len(content) {
		return Range{}, false
	}
	// Offsets must reproduce the selected text; a mismatch means the
	// selection was captured against different content.
	if content[start:end] != text {
		return Range{}, false
	}
	for _, a := range existing {
		if insideMark(start, a) || insideMark(end, a) {
			return Range{}, false
		}
	}
	return Range{StartIndex: start, EndIndex: end}, true
}

// insideMark reports whether the offset falls strictly inside the
// annotation's range. Touching a boundary is allowed; adjacent highlights
// are fine, nested ones are not.
func insideMark(offset int, a lesson.Annotation) bool {
	return offset > a.StartIndex && offset < a.EndIndex
}

// Anchored is a cursor-anchored selection over a known container, the
// Source the TUI uses: the user drops an anchor, moves, and the span
// between anchor and cursor is the selection.
type Anchored struct {
	ContainerID string
	Content     string
	Anchor      int
	Cursor      int
}

// Selection implements Source. The reported range is normalized so anchor
// and cursor order does not matter, and the whole rune under the cursor is
// included.
func (a Anchored) Selection() (string, string, int, bool) {
	start, end := a.Anchor, a.Cursor
	if start > end {
		start, end = end, start
	}
	if end < 0 || end >= len(a.Content) {
		return "", "", 0, false
	}
	_, size := utf8.DecodeRuneInString(a.Content[end:])
	if size == 0 {
		size = 1
	}
	end += size
	if start < 0 || start >= end {
		return "", "", 0, false
	}
	return a.ContainerID, a.Content[start:end], start, true
}

// ContainerID builds the identifier for one concept field's rendering
// container. Distinct fields have independent offset spaces, so the id
// carries both coordinates.
func ContainerID(conceptID string, field lesson.Field) string {
	return conceptID + "/" + string(field)
}

// SplitContainerID is the inverse of ContainerID.
func SplitContainerID(id string) (conceptID string, field lesson.Field, ok bool) {
	idx := strings.LastIndex(id, "/")
	if idx <= 0 || idx == len(id)-1 {
		return "", "", false
	}
	field = lesson.Field(id[idx+1:])
	if !field.Valid() {
		return "", "", false
	}
	return id[:idx], field, true
}
