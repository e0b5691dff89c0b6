package tui

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/apatwa/studydeck/internal/annotate"
	"github.com/apatwa/studydeck/internal/highlight"
	"github.com/apatwa/studydeck/internal/lesson"
	"github.com/apatwa/studydeck/internal/selection"
)

func (m *model) View() string {
	switch m.stage {
	case stageLibrary:
		return m.viewLibrary()
	case stageLesson:
		return m.viewLesson()
	case stageSearch:
		return m.viewSearch()
	default:
		return ""
	}
}

func (m *model) viewLibrary() string {
	parts := []string{m.heroView()}
	if m.loading {
		parts = append(parts, fmt.Sprintf("%s Loading library...", m.spinner.View()))
	} else {
		parts = append(parts, m.libraryListView())
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if m.helpVisible {
		parts = append(parts, m.helpView())
	}
	parts = append(parts, helperStyle.Render("j/k move, Enter opens, r reloads, q quits, ? help."))
	return joinNonEmpty(parts)
}

func (m *model) libraryListView() string {
	if len(m.lessons) == 0 {
		return helperStyle.Render("No lessons yet. `studydeck generate --topic \"Pointers\" notes.go` builds one.")
	}
	folderNames := map[string]string{}
	for _, f := range m.folders {
		folderNames[f.ID] = f.Name
	}
	rows := []string{sectionHeaderStyle.Render("Lessons")}
	for i, l := range m.lessons {
		label := fmt.Sprintf("%s  (%d cards, %d highlights)", trimmedTitle(l.Topic), len(l.Concepts), len(l.Annotations))
		if name := folderNames[l.FolderID]; name != "" {
			label = fmt.Sprintf("%s / %s", name, label)
		}
		if i == m.listCursor {
			rows = append(rows, focusedRowStyle.Render("▸ "+label))
		} else {
			rows = append(rows, "  "+label)
		}
	}
	return strings.Join(rows, "\n")
}

func (m *model) viewLesson() string {
	if m.current == nil {
		return m.viewLibrary()
	}
	m.refreshViewportIfDirty()
	parts := []string{m.lessonHeaderView(), m.viewport.View()}
	if m.popover.Kind != popoverClosed {
		parts = append(parts, m.popoverView())
	}
	if status := m.searchStatusLine(); status != "" {
		parts = append(parts, helperStyle.Render(status))
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.explainLoading || m.savePending {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	if m.helpVisible {
		if legend := m.keyLegendView(); legend != "" {
			parts = append(parts, legend)
		}
		parts = append(parts, m.helpView())
	}
	parts = append(parts, m.statusBarView())
	return joinNonEmpty(parts)
}

func (m *model) viewSearch() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Search Current Lesson"))
	b.WriteRune('\n')
	b.WriteString(m.searchInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Press Enter to apply search, Esc to cancel."))
	return joinNonEmpty([]string{m.lessonHeaderView(), b.String()})
}

func (m *model) lessonHeaderView() string {
	if m.current == nil {
		return m.heroView()
	}
	title := titleStyle.Render(wordwrap.String(m.current.Topic, 60))
	meta := helperStyle.Render(fmt.Sprintf("%d cards  •  %d highlights", len(m.current.Concepts), len(m.current.Annotations)))
	return lipgloss.JoinVertical(lipgloss.Left, title, meta)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) popoverView() string {
	title := "New highlight"
	if m.popover.Kind == popoverEdit {
		title = "Edit highlight"
	}
	target := m.popover.TargetText
	if utf8.RuneCountInString(target) > 48 {
		target = string([]rune(target)[:45]) + "..."
	}
	lines := []string{
		sectionHeaderStyle.Render(title),
		annotationTagStyle.Render(fmt.Sprintf("“%s”", target)),
		m.noteInput.View(),
		helperStyle.Render("Enter saves the note • ctrl+d deletes • Esc closes"),
	}
	return popoverBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) statusBarView() string {
	stats := []string{fmt.Sprintf("Mode %s", m.modeLabel())}
	if m.current != nil {
		stats = append(stats, fmt.Sprintf("Highlights %d", len(m.current.Annotations)))
	}
	if m.config.LLM != nil {
		stats = append(stats, fmt.Sprintf("Q&A %d", len(m.qaHistory)))
		if m.explainLoading {
			stats = append(stats, "LLM working...")
		}
	}
	if m.savePending {
		stats = append(stats, "Saving...")
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) modeLabel() string {
	switch m.mode {
	case modeInsert:
		return "INSERT"
	case modeHighlight:
		return "HIGHLIGHT"
	default:
		return "NORMAL"
	}
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"j/k", "Next/prev field"},
		{"h/l", "Move cursor"},
		{"w/b", "Jump words"},
		{"v", "Highlight mode"},
		{"Enter", "Capture or edit"},
		{"e", "Explain card"},
		{"x", "Export Markdown"},
		{"/", "Search"},
		{"n/N", "Next/prev match"},
		{"g/G", "Top or bottom"},
		{"q", "Back to library"},
		{"?", "Toggle cheatsheet"},
	}
	rows := []string{sectionHeaderStyle.Render("Navigation Cheatsheet")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description)
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("How studying works here"),
		helperStyle.Render("• j/k walk the annotatable fields; h/l move the character cursor inside one."),
		helperStyle.Render("• v starts a highlight at the cursor, Enter captures it and opens the note popover."),
		helperStyle.Render("• Enter on an existing highlight reopens its note; ctrl+d inside the popover deletes it."),
		helperStyle.Render("• e asks the configured model to explain the focused card, x exports the lesson as Markdown."),
		helperStyle.Render("• / opens search, n/N cycle matches, Esc backs out of any overlay."),
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) refreshViewport() {
	content := m.buildLessonContent()
	plain := stripANSI(content)
	if m.searchQuery != "" {
		m.searchMatches = findMatches(plain, m.searchQuery)
		if m.searchMatchIdx >= len(m.searchMatches) {
			m.searchMatchIdx = len(m.searchMatches) - 1
		}
		content = m.decorateSearch(content, plain)
	}
	m.viewportContent = content
	m.lineCount = strings.Count(content, "\n") + 1
	m.viewport.SetContent(content)
	m.viewport.SetYOffset(m.clampYOffset(m.viewport.YOffset))
	m.viewportDirty = false
}

func (m *model) buildLessonContent() string {
	if m.current == nil {
		return ""
	}
	cb := &contentBuilder{}
	m.containerLines = map[int]int{}

	if len(m.guide) > 0 {
		cb.WriteString(sectionHeaderStyle.Render("Study Guide"))
		cb.WriteRune('\n')
		for i, step := range m.guide {
			line := fmt.Sprintf("%d. %s: %s", i+1, step.Title, step.Description)
			cb.WriteString(helperStyle.Render(wordwrap.String(line, m.wrapWidth(4))))
			cb.WriteRune('\n')
		}
	}

	lastConcept := -1
	for idx, cont := range m.containers {
		if cont.ConceptIdx != lastConcept {
			concept := m.current.Concepts[cont.ConceptIdx]
			cb.WriteRune('\n')
			cb.WriteString(subtitleStyle.Render(concept.Term))
			cb.WriteRune('\n')
			if concept.VisualExample != "" {
				cb.WriteString(helperStyle.Render(wordwrap.String("Visual: "+concept.VisualExample, m.wrapWidth(4))))
				cb.WriteRune('\n')
			}
			lastConcept = cont.ConceptIdx
		}
		m.containerLines[idx] = cb.Line()
		label := fieldLabel(cont.Field)
		if idx == m.focusIdx {
			cb.WriteString(focusedRowStyle.Render("▸ " + label))
		} else {
			cb.WriteString(fieldLabelStyle.Render("  " + label))
		}
		cb.WriteRune('\n')
		cb.WriteString(m.renderField(idx, cont))
		cb.WriteRune('\n')
	}

	if len(m.qaHistory) > 0 {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render("Explanations"))
		cb.WriteRune('\n')
		for _, qa := range m.qaHistory {
			cb.WriteString(subtitleStyle.Render("Q: " + qa.Term))
			cb.WriteRune('\n')
			switch {
			case qa.Pending:
				cb.WriteString(helperStyle.Render("...thinking"))
			case qa.Error != "":
				cb.WriteString(errorStyle.Render(qa.Error))
			default:
				cb.WriteString(wordwrap.String(qa.Answer, m.wrapWidth(4)))
			}
			cb.WriteRune('\n')
		}
	}

	return cb.String()
}

// renderField paints one container's content. Spans carry the syntax and
// highlight styling; the focused container additionally shows the selection
// and the character cursor, split out at sub-span granularity. Styling
// happens against the unwrapped text, then the styled string is wrapped,
// so annotation offsets always index the raw field content.
func (m *model) renderField(idx int, cont container) string {
	conceptID := m.current.Concepts[cont.ConceptIdx].ID
	relevant := annotate.RelevantFor(m.current.Annotations, conceptID, cont.Field)
	spans := highlight.Merge(cont.Content, relevant, highlightModeFor(cont.Field))

	focused := idx == m.focusIdx
	selStart, selEnd, hasSel := 0, 0, false
	if focused {
		selStart, selEnd, hasSel = m.selectionBounds()
	}
	curStart, curEnd := -1, -1
	if focused && m.popover.Kind == popoverClosed {
		curStart = m.charCursor
		_, size := utf8.DecodeRuneInString(cont.Content[curStart:])
		if size == 0 {
			size = 1
		}
		curEnd = curStart + size
	}

	var b strings.Builder
	for _, span := range spans {
		b.WriteString(renderSpanSegments(span, hasSel, selStart, selEnd, curStart, curEnd))
	}
	return wordwrap.String(b.String(), m.wrapWidth(4))
}

func renderSpanSegments(span highlight.Span, hasSel bool, selStart, selEnd, curStart, curEnd int) string {
	cuts := []int{span.Start, span.End}
	for _, offset := range []int{selStart, selEnd, curStart, curEnd} {
		if offset > span.Start && offset < span.End {
			cuts = append(cuts, offset)
		}
	}
	sort.Ints(cuts)

	var b strings.Builder
	for i := 0; i < len(cuts)-1; i++ {
		from, to := cuts[i], cuts[i+1]
		if from == to {
			continue
		}
		text := span.Text[from-span.Start : to-span.Start]
		style := highlight.KindStyle(span.Kind)
		if span.Annotation != nil {
			style = style.Copy().
				Background(highlight.MarkStyle().GetBackground()).
				Foreground(highlight.MarkStyle().GetForeground())
		}
		if hasSel && from >= selStart && to <= selEnd {
			style = style.Copy().
				Background(selectedRuneStyle.GetBackground()).
				Foreground(selectedRuneStyle.GetForeground())
		}
		if curStart >= 0 && from >= curStart && to <= curEnd {
			style = style.Copy().Reverse(true)
		}
		b.WriteString(style.Render(text))
	}
	return b.String()
}

func fieldLabel(field lesson.Field) string {
	switch field {
	case lesson.FieldDefinition:
		return "Definition"
	case lesson.FieldNotes:
		return "Notes"
	case lesson.FieldCode:
		return "Code example"
	default:
		return string(field)
	}
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func stripANSI(s string) string {
	return selection.StripStyles(s)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func renderLogo() string {
	lines := make([]string, len(logoArtLines))
	for i, line := range logoArtLines {
		lines[i] = heroTitleStyle.Render(line)
	}
	return strings.Join(lines, "\n")
}
