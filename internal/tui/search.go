package tui

import (
	"fmt"
	"strings"
)

type matchRange struct {
	start int
	end   int
}

func (m *model) applySearch(query string) {
	m.searchQuery = query
	m.searchMatchIdx = -1
	m.searchMatches = nil
	if query == "" {
		m.infoMessage = "Search cleared."
		m.markViewportDirty()
		m.refreshViewportIfDirty()
		return
	}
	m.markViewportDirty()
	m.refreshViewport()
	if len(m.searchMatches) == 0 {
		m.infoMessage = fmt.Sprintf("No matches for %q.", query)
		return
	}
	m.searchMatchIdx = 0
	m.markViewportDirty()
	m.refreshViewport()
	m.scrollToCurrentMatch()
	m.infoMessage = m.searchStatusLine()
}

func (m *model) clearSearch() {
	m.searchQuery = ""
	m.searchMatches = nil
	m.searchMatchIdx = -1
}

func (m *model) advanceSearch(delta int) {
	if len(m.searchMatches) == 0 {
		return
	}
	m.searchMatchIdx = (m.searchMatchIdx + delta + len(m.searchMatches)) % len(m.searchMatches)
	m.markViewportDirty()
	m.refreshViewport()
	m.scrollToCurrentMatch()
	m.infoMessage = m.searchStatusLine()
}

func (m *model) scrollToCurrentMatch() {
	if len(m.searchMatches) == 0 || m.searchMatchIdx < 0 || m.searchMatchIdx >= len(m.searchMatches) {
		return
	}
	match := m.searchMatches[m.searchMatchIdx]
	line := lineNumberAtOffset(stripANSI(m.viewportContent), match.start)
	target := line - 1
	if target < 0 {
		target = 0
	}
	m.viewport.SetYOffset(m.clampYOffset(target))
}

func (m *model) searchStatusLine() string {
	if m.searchQuery == "" {
		return ""
	}
	if len(m.searchMatches) == 0 {
		return fmt.Sprintf("Search %q: no matches", m.searchQuery)
	}
	return fmt.Sprintf("Search %q: match %d/%d", m.searchQuery, m.searchMatchIdx+1, len(m.searchMatches))
}

func findMatches(content, query string) []matchRange {
	lowerContent := strings.ToLower(content)
	lowerQuery := strings.ToLower(query)
	if lowerQuery == "" {
		return nil
	}
	var matches []matchRange
	searchIdx := 0
	for {
		idx := strings.Index(lowerContent[searchIdx:], lowerQuery)
		if idx == -1 {
			break
		}
		start := searchIdx + idx
		end := start + len(lowerQuery)
		matches = append(matches, matchRange{start: start, end: end})
		searchIdx = end
		if searchIdx >= len(content) {
			break
		}
	}
	return matches
}

func highlightMatches(content string, matches []matchRange, current int) string {
	if len(matches) == 0 {
		return content
	}
	var b strings.Builder
	pos := 0
	for idx, match := range matches {
		if match.start > len(content) {
			break
		}
		if match.start > pos {
			b.WriteString(content[pos:match.start])
		}
		segmentEnd := match.end
		if segmentEnd > len(content) {
			segmentEnd = len(content)
		}
		segment := content[match.start:segmentEnd]
		if idx == current {
			b.WriteString(searchCurrentStyle.Render(segment))
		} else {
			b.WriteString(searchHighlightStyle.Render(segment))
		}
		pos = segmentEnd
	}
	if pos < len(content) {
		b.WriteString(content[pos:])
	}
	return b.String()
}

// decorateSearch re-renders matched lines from their plain text with the
// search styles. Matched lines trade syntax color for match visibility.
func (m *model) decorateSearch(styled, plain string) string {
	if m.searchQuery == "" || len(m.searchMatches) == 0 {
		return styled
	}
	styledLines := splitLinesPreserve(styled)
	plainLines := splitLinesPreserve(plain)
	if len(styledLines) != len(plainLines) {
		return styled
	}
	offset := 0
	for i, line := range plainLines {
		lineEnd := offset + len(line)
		var local []matchRange
		current := -1
		for gi, match := range m.searchMatches {
			if match.start >= offset && match.end <= lineEnd {
				if gi == m.searchMatchIdx {
					current = len(local)
				}
				local = append(local, matchRange{start: match.start - offset, end: match.end - offset})
			}
		}
		if len(local) > 0 {
			styledLines[i] = highlightMatches(line, local, current)
		}
		offset = lineEnd + 1
	}
	return strings.Join(styledLines, "\n")
}

func splitLinesPreserve(content string) []string {
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}

func lineNumberAtOffset(content string, offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n")
}
