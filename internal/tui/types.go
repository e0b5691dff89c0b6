package tui

import (
	"time"

	"github.com/apatwa/studydeck/internal/lesson"
)

type stage int

const (
	stageLibrary stage = iota
	stageLesson
	stageSearch
)

type interactionMode int

const (
	modeNormal interactionMode = iota
	modeHighlight
	modeInsert
)

const heroTagline = "Annotate your way to recall with studydeck."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
)

// container is one annotatable rendering surface: a single field of a single
// concept. Offsets captured against it index into Content, which is the
// field's unstyled text.
type container struct {
	ConceptIdx int
	Field      lesson.Field
	Content    string
}

// popoverKind distinguishes the two ways a popover opens.
type popoverKind int

const (
	popoverClosed popoverKind = iota
	popoverNew
	popoverEdit
)

// popoverState is the single annotation popover. At most one is open per
// lesson view; opening another replaces this one wholesale.
type popoverState struct {
	Kind         popoverKind
	AnnotationID string
	TargetText   string
}

type qaExchange struct {
	Term    string
	Answer  string
	Error   string
	Pending bool
	AskedAt time.Time
}
