package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/apatwa/studydeck/internal/annotate"
	"github.com/apatwa/studydeck/internal/lesson"
)

// openNewPopover shows the note editor for a freshly captured highlight.
// Opening replaces whatever popover was showing before.
func (m *model) openNewPopover(a lesson.Annotation) {
	m.popover = popoverState{Kind: popoverNew, AnnotationID: a.ID, TargetText: a.TargetText}
	m.noteInput.SetValue("")
	m.noteInput.Focus()
	m.infoMessage = "Highlight captured. Add a note, or Esc to keep it bare."
}

// openEditPopover shows the note editor for an existing highlight.
func (m *model) openEditPopover(a lesson.Annotation) {
	m.popover = popoverState{Kind: popoverEdit, AnnotationID: a.ID, TargetText: a.TargetText}
	m.noteInput.SetValue(a.Note)
	m.noteInput.Focus()
	m.mode = modeInsert
	m.infoMessage = "Editing note. Enter saves, ctrl+d deletes the highlight."
}

// closePopover dismisses the popover without touching the note. A new
// highlight stays stored with whatever note it has; the save job persists it.
func (m *model) closePopover() tea.Cmd {
	wasNew := m.popover.Kind == popoverNew
	m.popover = popoverState{}
	m.noteInput.Blur()
	m.mode = modeNormal
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	if wasNew {
		m.infoMessage = "Highlight kept without a note."
		return m.persistCurrent()
	}
	m.infoMessage = ""
	return nil
}

func (m *model) handlePopoverKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEnter:
		return m.savePopoverNote()
	case tea.KeyCtrlD:
		return m.deletePopoverAnnotation()
	}
	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(key)
	return m, cmd
}

func (m *model) savePopoverNote() (tea.Model, tea.Cmd) {
	if m.current == nil || m.popover.Kind == popoverClosed {
		return m, nil
	}
	note := strings.TrimSpace(m.noteInput.Value())
	m.current.Annotations = annotate.UpdateNote(m.current.Annotations, m.popover.AnnotationID, note)
	m.popover = popoverState{}
	m.noteInput.Blur()
	m.mode = modeNormal
	m.infoMessage = "Note saved."
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	return m, m.persistCurrent()
}

func (m *model) deletePopoverAnnotation() (tea.Model, tea.Cmd) {
	if m.current == nil || m.popover.Kind == popoverClosed {
		return m, nil
	}
	m.current.Annotations = annotate.Remove(m.current.Annotations, m.popover.AnnotationID)
	m.popover = popoverState{}
	m.noteInput.Blur()
	m.mode = modeNormal
	m.infoMessage = "Highlight removed."
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	return m, m.persistCurrent()
}
