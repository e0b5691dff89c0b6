package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/apatwa/studydeck/internal/ingest"
	"github.com/apatwa/studydeck/internal/lesson"
	"github.com/apatwa/studydeck/internal/llm"
)

type fakeLLM struct{}

func (fakeLLM) GenerateLesson(ctx context.Context, topic string, sources []ingest.Source) ([]llm.ConceptDraft, error) {
	return []llm.ConceptDraft{{Term: "fixture", Definition: "a fixture"}}, nil
}

func (fakeLLM) Explain(ctx context.Context, term, material string) (string, error) {
	return "because", nil
}

func (fakeLLM) Name() string { return "fake" }

func fixtureLesson() lesson.Lesson {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return lesson.Lesson{
		ID:    "lesson-1",
		Topic: "Variables",
		Concepts: []lesson.Concept{
			{
				ID:          "concept-1",
				Term:        "declaration",
				Definition:  "A declaration introduces a name.",
				CodeExample: "int x = 5;",
				CodeLang:    "c",
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestModel(t *testing.T) *model {
	t.Helper()
	teaModel, ok := New(Config{
		LibraryPath: filepath.Join(t.TempDir(), "library.json"),
		Logger:      zerolog.Nop(),
	}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	teaModel.Init()
	teaModel.loading = false
	teaModel.lessons = []lesson.Lesson{fixtureLesson()}
	return teaModel
}

func openFixture(t *testing.T, m *model) {
	t.Helper()
	m.openLesson(0)
	if m.stage != stageLesson {
		t.Fatalf("stage = %v, want stageLesson", m.stage)
	}
	if len(m.containers) != 2 {
		t.Fatalf("containers = %d, want 2 (definition + code)", len(m.containers))
	}
}

func press(m *model, msg tea.KeyMsg) {
	m.Update(msg)
}

func pressRune(m *model, r rune) {
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func TestLibraryEnterOpensLesson(t *testing.T) {
	m := newTestModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.stage != stageLesson {
		t.Fatalf("stage = %v, want stageLesson", m.stage)
	}
	if m.current == nil || m.current.Topic != "Variables" {
		t.Fatalf("current lesson not set: %#v", m.current)
	}
}

func TestHighlightCaptureStoresAnnotationAndOpensPopover(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)

	pressRune(m, 'v')
	if m.mode != modeHighlight || !m.selActive {
		t.Fatalf("highlight mode not armed (mode=%v active=%v)", m.mode, m.selActive)
	}
	pressRune(m, 'l')
	pressRune(m, 'l')
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.current.Annotations) != 1 {
		t.Fatalf("annotations = %d, want 1", len(m.current.Annotations))
	}
	a := m.current.Annotations[0]
	if a.TargetText != "A d" || a.StartIndex != 0 || a.EndIndex != 3 {
		t.Fatalf("captured %q [%d,%d), want %q [0,3)", a.TargetText, a.StartIndex, a.EndIndex, "A d")
	}
	if a.ConceptID != "concept-1" || a.FieldName != lesson.FieldDefinition {
		t.Fatalf("annotation bound to %s/%s", a.ConceptID, a.FieldName)
	}
	if m.popover.Kind != popoverNew || m.popover.AnnotationID != a.ID {
		t.Fatalf("popover = %+v, want new popover for %s", m.popover, a.ID)
	}
	if m.mode != modeInsert {
		t.Fatalf("mode = %v, want modeInsert", m.mode)
	}
}

func TestSelectionOverlappingExistingHighlightIsRejected(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)
	m.current.Annotations = []lesson.Annotation{{
		ID:         "a1",
		ConceptID:  "concept-1",
		FieldName:  lesson.FieldDefinition,
		TargetText: "A dec",
		StartIndex: 0,
		EndIndex:   5,
	}}

	m.setChar(2)
	pressRune(m, 'v')
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.current.Annotations) != 1 {
		t.Fatalf("rejected selection must not add annotations, got %d", len(m.current.Annotations))
	}
	if m.mode != modeNormal || m.popover.Kind != popoverClosed {
		t.Fatalf("rejection should drop back to normal mode, got mode=%v popover=%v", m.mode, m.popover.Kind)
	}
}

func TestEnterOnExistingHighlightOpensEditPopover(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)
	m.current.Annotations = []lesson.Annotation{{
		ID:         "a1",
		ConceptID:  "concept-1",
		FieldName:  lesson.FieldDefinition,
		TargetText: "A dec",
		Note:       "old note",
		StartIndex: 0,
		EndIndex:   5,
	}}

	m.setChar(2)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.popover.Kind != popoverEdit || m.popover.AnnotationID != "a1" {
		t.Fatalf("popover = %+v, want edit popover for a1", m.popover)
	}
	if got := m.noteInput.Value(); got != "old note" {
		t.Fatalf("note input preloaded with %q, want %q", got, "old note")
	}
}

func TestPopoverEnterSavesNote(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)
	pressRune(m, 'v')
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.popover.Kind != popoverNew {
		t.Fatalf("popover not open: %+v", m.popover)
	}

	m.noteInput.SetValue("remember this")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.popover.Kind != popoverClosed {
		t.Fatalf("popover should close after save, got %v", m.popover.Kind)
	}
	if got := m.current.Annotations[0].Note; got != "remember this" {
		t.Fatalf("note = %q, want %q", got, "remember this")
	}
	if !m.savePending {
		t.Fatal("saving a note should schedule persistence")
	}
}

func TestPopoverCtrlDDeletesHighlight(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)
	pressRune(m, 'v')
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	press(m, tea.KeyMsg{Type: tea.KeyCtrlD})

	if len(m.current.Annotations) != 0 {
		t.Fatalf("annotations = %d, want 0 after delete", len(m.current.Annotations))
	}
	if m.popover.Kind != popoverClosed || m.mode != modeNormal {
		t.Fatalf("delete should close the popover, got popover=%v mode=%v", m.popover.Kind, m.mode)
	}
}

func TestOpeningSecondPopoverReplacesFirst(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)
	m.current.Annotations = []lesson.Annotation{
		{ID: "a1", ConceptID: "concept-1", FieldName: lesson.FieldDefinition, TargetText: "A", StartIndex: 0, EndIndex: 1},
		{ID: "a2", ConceptID: "concept-1", FieldName: lesson.FieldDefinition, TargetText: "dec", StartIndex: 2, EndIndex: 5},
	}

	m.setChar(0)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.popover.AnnotationID != "a1" {
		t.Fatalf("expected popover on a1, got %q", m.popover.AnnotationID)
	}

	m.openEditPopover(m.current.Annotations[1])
	if m.popover.AnnotationID != "a2" || m.popover.Kind != popoverEdit {
		t.Fatalf("second popover should replace the first, got %+v", m.popover)
	}
}

func TestEscLadder(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)
	pressRune(m, 'v')
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.popover.Kind != popoverClosed {
		t.Fatal("first esc should close the popover")
	}

	pressRune(m, 'v')
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeNormal {
		t.Fatal("esc should leave highlight mode")
	}

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.stage != stageLibrary {
		t.Fatalf("esc should return to the library, got stage %v", m.stage)
	}
}

func TestFocusMoveCancelsSelection(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)
	pressRune(m, 'v')
	pressRune(m, 'j')

	if m.focusIdx != 1 {
		t.Fatalf("focusIdx = %d, want 1", m.focusIdx)
	}
	if m.mode != modeNormal || m.selActive {
		t.Fatalf("selection must not survive a focus change (mode=%v active=%v)", m.mode, m.selActive)
	}
	if m.charCursor != 0 {
		t.Fatalf("cursor should reset on focus change, got %d", m.charCursor)
	}
}

func TestExplainResultFillsHistory(t *testing.T) {
	m := newTestModel(t)
	m.config.LLM = fakeLLM{}
	openFixture(t, m)

	pressRune(m, 'e')
	if !m.explainLoading || len(m.qaHistory) != 1 || !m.qaHistory[0].Pending {
		t.Fatalf("explain did not queue an exchange: loading=%v history=%#v", m.explainLoading, m.qaHistory)
	}

	m.Update(explainResultMsg{lessonID: "lesson-1", term: "declaration", answer: "names introduce storage"})
	if m.explainLoading {
		t.Fatal("result should clear the loading flag")
	}
	if got := m.qaHistory[0].Answer; got != "names introduce storage" {
		t.Fatalf("answer = %q", got)
	}
}

func TestExplainResultForOtherLessonIgnored(t *testing.T) {
	m := newTestModel(t)
	m.config.LLM = fakeLLM{}
	openFixture(t, m)
	pressRune(m, 'e')

	m.Update(explainResultMsg{lessonID: "someone-else", term: "declaration", answer: "nope"})
	if !m.qaHistory[0].Pending {
		t.Fatal("a result for another lesson must not resolve the pending exchange")
	}
}

func TestHelpToggleShowsCheatsheet(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)

	if strings.Contains(m.View(), "Navigation Cheatsheet") {
		t.Fatal("cheatsheet should be hidden by default")
	}
	pressRune(m, '?')
	if !strings.Contains(m.View(), "Navigation Cheatsheet") {
		t.Fatal("cheatsheet did not appear after toggling help")
	}
	pressRune(m, '?')
	if strings.Contains(m.View(), "Navigation Cheatsheet") {
		t.Fatal("cheatsheet should hide again after second toggle")
	}
}

func TestViewShowsLessonContent(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)

	plain := stripANSI(m.View())
	if !strings.Contains(plain, "int x = 5;") {
		t.Fatalf("code example missing from view:\n%s", plain)
	}
	if !strings.Contains(plain, "A declaration introduces a name.") {
		t.Fatal("definition missing from view")
	}
	if !strings.Contains(plain, "Study Guide") {
		t.Fatal("study guide missing from view")
	}
}

func TestSearchFindsMatches(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)

	pressRune(m, '/')
	if m.stage != stageSearch {
		t.Fatalf("stage = %v, want stageSearch", m.stage)
	}
	m.searchInput.SetValue("declaration")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.stage != stageLesson {
		t.Fatalf("stage = %v, want stageLesson after applying search", m.stage)
	}
	if len(m.searchMatches) == 0 {
		t.Fatal("expected at least one match for \"declaration\"")
	}
	if m.searchMatchIdx != 0 {
		t.Fatalf("searchMatchIdx = %d, want 0", m.searchMatchIdx)
	}
	before := m.searchMatchIdx
	pressRune(m, 'n')
	if len(m.searchMatches) > 1 && m.searchMatchIdx == before {
		t.Fatal("n should advance to the next match")
	}
}

func TestLessonSavedMsgClearsPendingFlag(t *testing.T) {
	m := newTestModel(t)
	openFixture(t, m)
	m.savePending = true

	m.Update(lessonSavedMsg{lessonID: "lesson-1"})
	if m.savePending {
		t.Fatal("save confirmation should clear the pending flag")
	}
}
