package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/apatwa/studydeck/internal/annotate"
	"github.com/apatwa/studydeck/internal/guide"
	"github.com/apatwa/studydeck/internal/highlight"
	"github.com/apatwa/studydeck/internal/lesson"
	"github.com/apatwa/studydeck/internal/llm"
	"github.com/apatwa/studydeck/internal/selection"
)

// Config wires the model to its collaborators.
type Config struct {
	LibraryPath string
	LLM         llm.Client
	Logger      zerolog.Logger
}

// New builds the program's root model.
func New(config Config) tea.Model {
	noteInput := textinput.New()
	noteInput.Placeholder = "Write a note for this highlight and press Enter..."
	noteInput.CharLimit = 280
	noteInput.Width = 60

	searchInput := textinput.New()
	searchInput.Placeholder = "Search within the current lesson..."
	searchInput.CharLimit = 120
	searchInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:         config,
		stage:          stageLibrary,
		mode:           modeNormal,
		noteInput:      noteInput,
		searchInput:    searchInput,
		spinner:        spin,
		viewport:       vp,
		loading:        true,
		viewportDirty:  true,
		containerLines: map[int]int{},
		searchMatchIdx: -1,
		infoMessage:    "Loading library...",
	}
}

type model struct {
	config Config
	stage  stage
	mode   interactionMode

	noteInput   textinput.Model
	searchInput textinput.Model
	spinner     spinner.Model
	viewport    viewport.Model

	lessons    []lesson.Lesson
	folders    []lesson.Folder
	listCursor int
	loading    bool

	current    *lesson.Lesson
	guide      []guide.Step
	containers []container
	focusIdx   int
	charCursor int
	selAnchor  int
	selActive  bool
	popover    popoverState

	viewportDirty   bool
	viewportContent string
	containerLines  map[int]int
	lineCount       int

	searchQuery    string
	searchMatches  []matchRange
	searchMatchIdx int

	qaHistory      []qaExchange
	explainLoading bool
	savePending    bool

	infoMessage  string
	errorMessage string
	helpVisible  bool

	jobs *jobBus
}

type libraryLoadedMsg struct {
	lessons []lesson.Lesson
	folders []lesson.Folder
	err     error
}

type lessonSavedMsg struct {
	lessonID string
	err      error
}

type explainResultMsg struct {
	lessonID string
	term     string
	answer   string
	err      error
}

type exportDoneMsg struct {
	path string
	err  error
}

func (m *model) Init() tea.Cmd {
	m.jobs = newJobBus(m.config.Logger)
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.jobs.Start(jobKindLoad, loadLibraryJob(m.config.LibraryPath)),
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.loading || m.explainLoading || m.savePending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		return m, nil
	case jobResultEnvelope:
		if msg.Snapshot.Status == jobStatusFailed {
			m.config.Logger.Warn().Str("job", msg.Snapshot.ID).Str("err", msg.Snapshot.Err).Msg("job failed")
		}
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			return m.handleEsc()
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.stage == stageLesson && m.popover.Kind == popoverClosed {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case libraryLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Library failed to load. Press r to retry."
			return m, nil
		}
		m.lessons = msg.lessons
		m.folders = msg.folders
		m.errorMessage = ""
		if len(m.lessons) == 0 {
			m.infoMessage = "Library is empty. Run `studydeck generate` to create a lesson."
		} else {
			m.infoMessage = fmt.Sprintf("%d lesson(s) loaded. Enter opens the selection.", len(m.lessons))
		}
		if m.listCursor >= len(m.lessons) {
			m.listCursor = 0
		}
		return m, nil
	case lessonSavedMsg:
		m.savePending = false
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("save failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = "Annotations saved."
		return m, nil
	case explainResultMsg:
		if m.current == nil || m.current.ID != msg.lessonID {
			return m, nil
		}
		m.explainLoading = false
		for i := len(m.qaHistory) - 1; i >= 0; i-- {
			entry := &m.qaHistory[i]
			if !entry.Pending || entry.Term != msg.term {
				continue
			}
			entry.Pending = false
			if msg.err != nil {
				entry.Error = msg.err.Error()
				m.errorMessage = entry.Error
				m.infoMessage = "Explanation failed. Press e to retry."
			} else {
				entry.Answer = msg.answer
				m.errorMessage = ""
				m.infoMessage = "Explanation ready."
			}
			break
		}
		m.markViewportDirty()
		return m, nil
	case exportDoneMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("export failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Exported to %s", msg.path)
		return m, nil
	case tea.WindowSizeMsg:
		newWidth := msg.Width - viewportHorizontalPadding
		if newWidth < minViewportWidth {
			newWidth = minViewportWidth
		}
		m.viewport.Width = newWidth
		height := msg.Height - 6
		if height < 5 {
			height = 5
		}
		m.viewport.Height = height
		m.markViewportDirty()
		return m, nil
	}
	return m, nil
}

func (m *model) handleEsc() (tea.Model, tea.Cmd) {
	if m.popover.Kind != popoverClosed {
		return m, m.closePopover()
	}
	switch m.stage {
	case stageSearch:
		m.stage = stageLesson
		m.searchInput.Blur()
		return m, nil
	case stageLesson:
		if m.mode == modeHighlight {
			m.exitHighlightMode("Highlight mode disabled.")
			return m, nil
		}
		m.leaveLesson()
		return m, nil
	default:
		return m, tea.Quit
	}
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.popover.Kind != popoverClosed {
		return m.handlePopoverKey(key)
	}
	switch m.stage {
	case stageLibrary:
		return m.handleLibraryKey(key)
	case stageLesson:
		return m.handleLessonKey(key)
	case stageSearch:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(key)
		if key.Type == tea.KeyEnter {
			value := strings.TrimSpace(m.searchInput.Value())
			m.stage = stageLesson
			m.searchInput.Blur()
			m.applySearch(value)
			return m, cmd
		}
		return m, cmd
	default:
		return m, nil
	}
}

func (m *model) handleLibraryKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.listCursor > 0 {
			m.listCursor--
		}
	case "down", "j":
		if m.listCursor < len(m.lessons)-1 {
			m.listCursor++
		}
	case "enter":
		if len(m.lessons) == 0 {
			m.infoMessage = "Nothing to open yet. Run `studydeck generate` first."
			return m, nil
		}
		m.openLesson(m.listCursor)
	case "r":
		m.loading = true
		m.infoMessage = "Reloading library..."
		return m, tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindLoad, loadLibraryJob(m.config.LibraryPath)))
	case "q":
		return m, tea.Quit
	case "?":
		m.helpVisible = !m.helpVisible
	}
	return m, nil
}

func (m *model) handleLessonKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	handled := true
	switch key.String() {
	case "down", "j":
		m.focusContainer(m.focusIdx + 1)
	case "up", "k":
		m.focusContainer(m.focusIdx - 1)
	case "left", "h":
		m.moveChar(-1)
	case "right", "l":
		m.moveChar(1)
	case "0":
		m.setChar(0)
	case "$":
		if cont, ok := m.focusedContainer(); ok {
			m.setChar(lastRuneStart(cont.Content))
		}
	case "w":
		m.jumpWord(1)
	case "b":
		m.jumpWord(-1)
	case "v":
		m.toggleHighlightMode()
	case "enter":
		return m.handleLessonEnter()
	case "e":
		return m.askExplain()
	case "x":
		return m.exportCurrent()
	case "/":
		m.stage = stageSearch
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.Focus()
		return m, nil
	case "n":
		m.advanceSearch(1)
	case "N":
		m.advanceSearch(-1)
	case "g":
		m.viewport.SetYOffset(0)
	case "G":
		m.viewport.SetYOffset(m.clampYOffset(m.lineCount))
	case "q":
		m.leaveLesson()
	case "?":
		m.helpVisible = !m.helpVisible
		m.markViewportDirty()
	default:
		handled = false
	}
	if handled {
		m.refreshViewportIfDirty()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

// handleLessonEnter commits the active selection or, with no selection,
// opens the edit popover for the highlight under the cursor.
func (m *model) handleLessonEnter() (tea.Model, tea.Cmd) {
	if m.mode == modeHighlight && m.selActive {
		return m.commitSelection()
	}
	cont, ok := m.focusedContainer()
	if !ok {
		return m, nil
	}
	conceptID := m.current.Concepts[cont.ConceptIdx].ID
	relevant := annotate.RelevantFor(m.current.Annotations, conceptID, cont.Field)
	for _, a := range relevant {
		if m.charCursor >= a.StartIndex && m.charCursor < a.EndIndex {
			m.openEditPopover(a)
			return m, nil
		}
	}
	m.infoMessage = "No highlight under the cursor. Press v to start one."
	return m, nil
}

func (m *model) openLesson(idx int) {
	m.current = &m.lessons[idx]
	m.guide = guide.Build(guide.Metadata{Topic: m.current.Topic, ConceptCount: len(m.current.Concepts)})
	m.rebuildContainers()
	m.stage = stageLesson
	m.mode = modeNormal
	m.focusIdx = 0
	m.charCursor = 0
	m.selActive = false
	m.popover = popoverState{}
	m.qaHistory = nil
	m.clearSearch()
	m.viewport.SetYOffset(0)
	m.infoMessage = fmt.Sprintf("Opened %s. j/k move between fields, v highlights.", m.current.Topic)
	m.markViewportDirty()
	m.refreshViewportIfDirty()
}

func (m *model) leaveLesson() {
	m.stage = stageLibrary
	m.current = nil
	m.guide = nil
	m.containers = nil
	m.qaHistory = nil
	m.mode = modeNormal
	m.selActive = false
	m.popover = popoverState{}
	m.clearSearch()
	m.viewport.SetContent("")
	m.infoMessage = "Back in the library."
}

func (m *model) rebuildContainers() {
	m.containers = nil
	if m.current == nil {
		return
	}
	for idx, concept := range m.current.Concepts {
		for _, field := range []lesson.Field{lesson.FieldDefinition, lesson.FieldNotes, lesson.FieldCode} {
			content := concept.FieldText(field)
			if strings.TrimSpace(content) == "" {
				continue
			}
			m.containers = append(m.containers, container{
				ConceptIdx: idx,
				Field:      field,
				Content:    content,
			})
		}
	}
}

func (m *model) focusedContainer() (container, bool) {
	if m.focusIdx < 0 || m.focusIdx >= len(m.containers) {
		return container{}, false
	}
	return m.containers[m.focusIdx], true
}

func (m *model) focusContainer(idx int) {
	if len(m.containers) == 0 {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(m.containers) {
		idx = len(m.containers) - 1
	}
	if idx == m.focusIdx {
		return
	}
	// Moving focus abandons any in-progress selection; offsets from one
	// container mean nothing in another.
	m.focusIdx = idx
	m.charCursor = 0
	m.selActive = false
	if m.mode == modeHighlight {
		m.mode = modeNormal
		m.infoMessage = "Highlight mode disabled (left the field)."
	}
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	m.ensureFocusVisible()
}

func (m *model) moveChar(delta int) {
	cont, ok := m.focusedContainer()
	if !ok {
		return
	}
	cursor := m.charCursor
	if delta > 0 {
		_, size := utf8.DecodeRuneInString(cont.Content[cursor:])
		if size == 0 {
			return
		}
		next := cursor + size
		if next >= len(cont.Content) {
			next = lastRuneStart(cont.Content)
		}
		cursor = next
	} else if delta < 0 {
		if cursor == 0 {
			return
		}
		_, size := utf8.DecodeLastRuneInString(cont.Content[:cursor])
		cursor -= size
	}
	m.setChar(cursor)
}

func (m *model) setChar(cursor int) {
	cont, ok := m.focusedContainer()
	if !ok {
		return
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(cont.Content) {
		cursor = lastRuneStart(cont.Content)
	}
	if cursor == m.charCursor {
		return
	}
	m.charCursor = cursor
	m.markViewportDirty()
	m.refreshViewportIfDirty()
}

func (m *model) jumpWord(delta int) {
	cont, ok := m.focusedContainer()
	if !ok {
		return
	}
	content := cont.Content
	cursor := m.charCursor
	if delta > 0 {
		idx := strings.IndexAny(content[cursor:], " \n\t")
		if idx < 0 {
			m.setChar(lastRuneStart(content))
			return
		}
		next := cursor + idx
		for next < len(content) && (content[next] == ' ' || content[next] == '\n' || content[next] == '\t') {
			next++
		}
		if next >= len(content) {
			next = lastRuneStart(content)
		}
		m.setChar(next)
		return
	}
	trimmed := strings.TrimRight(content[:cursor], " \n\t")
	idx := strings.LastIndexAny(trimmed, " \n\t")
	if idx < 0 {
		m.setChar(0)
		return
	}
	m.setChar(idx + 1)
}

func (m *model) toggleHighlightMode() {
	if m.stage != stageLesson || len(m.containers) == 0 {
		return
	}
	switch m.mode {
	case modeHighlight:
		m.exitHighlightMode("Highlight mode disabled.")
	default:
		m.mode = modeHighlight
		m.selAnchor = m.charCursor
		m.selActive = true
		m.infoMessage = "Highlight mode: h/l expand the selection, Enter captures it."
	}
	m.markViewportDirty()
	m.refreshViewportIfDirty()
}

func (m *model) exitHighlightMode(message string) {
	m.mode = modeNormal
	m.selActive = false
	if message != "" {
		m.infoMessage = message
	}
	m.markViewportDirty()
	m.refreshViewportIfDirty()
}

// commitSelection turns the anchored selection into a stored annotation and
// opens the note popover. Rejected selections clear silently, matching the
// renderer's "nothing happens" contract.
func (m *model) commitSelection() (tea.Model, tea.Cmd) {
	cont, ok := m.focusedContainer()
	if !ok {
		return m, nil
	}
	conceptID := m.current.Concepts[cont.ConceptIdx].ID
	containerID := selection.ContainerID(conceptID, cont.Field)
	src := selection.Anchored{
		ContainerID: containerID,
		Content:     cont.Content,
		Anchor:      m.selAnchor,
		Cursor:      m.charCursor,
	}
	existing := annotate.RelevantFor(m.current.Annotations, conceptID, cont.Field)
	captured, ok := selection.Capture(src, containerID, cont.Content, existing)
	if !ok {
		m.exitHighlightMode("Selection rejected (empty or overlapping a highlight).")
		return m, nil
	}
	a := annotate.New(conceptID, cont.Field, cont.Content[captured.StartIndex:captured.EndIndex], captured.StartIndex, captured.EndIndex)
	updated, err := annotate.Add(m.current.Annotations, a)
	if err != nil {
		m.errorMessage = err.Error()
		m.exitHighlightMode("")
		return m, nil
	}
	m.current.Annotations = updated
	m.selActive = false
	m.mode = modeInsert
	m.openNewPopover(a)
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	return m, nil
}

func (m *model) askExplain() (tea.Model, tea.Cmd) {
	cont, ok := m.focusedContainer()
	if !ok {
		return m, nil
	}
	if m.config.LLM == nil {
		m.infoMessage = "Configure an Ollama or OpenAI provider to ask for explanations."
		return m, nil
	}
	if m.explainLoading {
		m.infoMessage = "Explanation already running."
		return m, nil
	}
	term := m.current.Concepts[cont.ConceptIdx].Term
	m.qaHistory = append(m.qaHistory, qaExchange{Term: term, Pending: true, AskedAt: time.Now()})
	m.explainLoading = true
	m.infoMessage = fmt.Sprintf("Asking %s about %q...", m.config.LLM.Name(), term)
	m.markViewportDirty()
	m.refreshViewportIfDirty()
	return m, tea.Batch(
		m.spinner.Tick,
		m.jobs.Start(jobKindExplain, explainJob(m.config.LLM, m.current.ID, term, studyMaterial(*m.current))),
	)
}

func (m *model) exportCurrent() (tea.Model, tea.Cmd) {
	if m.current == nil {
		return m, nil
	}
	outPath := exportPath(m.config.LibraryPath, m.current.Topic)
	m.infoMessage = "Exporting lesson..."
	return m, m.jobs.Start(jobKindExport, exportLessonJob(outPath, *m.current))
}

// persistCurrent writes the working lesson back to the library.
func (m *model) persistCurrent() tea.Cmd {
	if m.current == nil {
		return nil
	}
	m.savePending = true
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindSave, saveLessonJob(m.config.LibraryPath, *m.current)))
}

// selectionBounds reports the active selection as half-open byte offsets
// into the focused container's content.
func (m *model) selectionBounds() (int, int, bool) {
	cont, ok := m.focusedContainer()
	if !ok || !m.selActive || m.mode != modeHighlight {
		return 0, 0, false
	}
	start, end := m.selAnchor, m.charCursor
	if start > end {
		start, end = end, start
	}
	_, size := utf8.DecodeRuneInString(cont.Content[end:])
	if size == 0 {
		size = 1
	}
	return start, end + size, true
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) clampYOffset(offset int) int {
	maxOffset := m.lineCount - m.viewport.Height
	if m.viewport.Height <= 0 {
		maxOffset = m.lineCount - 1
	}
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset < 0 {
		return 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

func (m *model) ensureFocusVisible() {
	line, ok := m.containerLines[m.focusIdx]
	if !ok {
		return
	}
	top := m.viewport.YOffset
	bottom := top + m.viewport.Height - 1
	if line < top {
		m.viewport.SetYOffset(m.clampYOffset(line))
	} else if line > bottom {
		m.viewport.SetYOffset(m.clampYOffset(line - m.viewport.Height + 1))
	}
}

func lastRuneStart(s string) int {
	if s == "" {
		return 0
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return len(s) - size
}

func highlightModeFor(field lesson.Field) highlight.Mode {
	if field.IsCode() {
		return highlight.ModeCode
	}
	return highlight.ModeProse
}
