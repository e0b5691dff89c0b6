package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/apatwa/studydeck/internal/syntax"
)

var (
	commentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	stringStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	keywordStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("176"))
	numberStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	callStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	typeNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("222"))
	operatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	punctStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	markStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("190"))
)

// MarkStyle is the base style for highlighted (annotated) text.
func MarkStyle() lipgloss.Style {
	return markStyle
}

// KindStyle maps a token kind to its display style. Exported so callers that
// compose extra layers (cursor, selection) can start from the same palette.
func KindStyle(kind syntax.Kind) lipgloss.Style {
	switch kind {
	case syntax.KindComment:
		return commentStyle
	case syntax.KindString:
		return stringStyle
	case syntax.KindKeyword:
		return keywordStyle
	case syntax.KindNumber:
		return numberStyle
	case syntax.KindCall:
		return callStyle
	case syntax.KindTypeName:
		return typeNameStyle
	case syntax.KindOperator:
		return operatorStyle
	case syntax.KindPunct:
		return punctStyle
	default:
		return lipgloss.NewStyle()
	}
}

// Paint renders the spans as a single styled string. Highlighted spans keep
// their token foreground and take the mark background, so code stays colored
// inside a highlight.
func Paint(spans []Span) string {
	var builder strings.Builder
	for _, span := range spans {
		style := KindStyle(span.Kind)
		if span.Annotation != nil {
			style = style.Copy().Background(markStyle.GetBackground())
			if span.Kind == syntax.KindPlain {
				style = style.Foreground(markStyle.GetForeground())
			}
		}
		builder.WriteString(style.Render(span.Text))
	}
	return builder.String()
}
