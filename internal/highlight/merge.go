// Package highlight merges a field's annotations with its syntax tokens into
// one flat, paintable span sequence.
package highlight

import (
	"github.com/apatwa/studydeck/internal/lesson"
	"github.com/apatwa/studydeck/internal/syntax"
)

// Mode selects how un-highlighted text is classified.
type Mode int

const (
	// ModeProse renders every span as plain text.
	ModeProse Mode = iota
	// ModeCode classifies spans with the syntax tokenizer, inside and
	// outside highlights.
	ModeCode
)

// Span is one renderable unit. Offsets are half-open into the merged text.
// Annotation is non-nil for the portions covered by a highlight; several
// consecutive spans may share one annotation when a highlight covers more
// than one token.
type Span struct {
	Start      int
	End        int
	Text       string
	Kind       syntax.Kind
	Annotation *lesson.Annotation
}

// Merge walks the text once, interleaving annotation ranges with token
// boundaries. The result has no gaps and no overlaps, and concatenating the
// span texts reproduces the input. Annotations must arrive sorted by
// ascending StartIndex (annotate.RelevantFor's order); an annotation
// overlapping an earlier one contributes only its portion past the cursor,
// and offsets beyond the text are clamped rather than rejected, so stale
// ranges degrade instead of breaking the render.
func Merge(text string, annotations []lesson.Annotation, mode Mode) []Span {
	if text == "" {
		return nil
	}

	var tokens []syntax.Token
	if mode == ModeCode {
		tokens = syntax.Tokenize(text)
	}

	spans := make([]Span, 0, len(annotations)*2+1)
	cursor := 0
	for i := range annotations {
		a := &annotations[i]
		start := a.StartIndex
		if start < cursor {
			start = cursor
		}
		end := a.EndIndex
		if end > len(text) {
			end = len(text)
		}
		if end <= start {
			continue
		}
		spans = appendRegion(spans, text, tokens, cursor, start, mode, nil)
		spans = appendHighlighted(spans, text, start, end, mode, a)
		cursor = end
	}
	spans = appendRegion(spans, text, tokens, cursor, len(text), mode, nil)
	return spans
}

// appendRegion emits the spans for an un-highlighted region, splitting it on
// the precomputed token boundaries in code mode.
func appendRegion(spans []Span, text string, tokens []syntax.Token, from, to int, mode Mode, owner *lesson.Annotation) []Span {
	if to <= from {
		return spans
	}
	if mode == ModeProse {
		return append(spans, Span{Start: from, End: to, Text: text[from:to], Kind: syntax.KindPlain, Annotation: owner})
	}
	for _, tok := range tokens {
		if tok.End <= from || tok.Start >= to {
			continue
		}
		start, end := tok.Start, tok.End
		if start < from {
			start = from
		}
		if end > to {
			end = to
		}
		spans = append(spans, Span{Start: start, End: end, Text: text[start:end], Kind: tok.Kind, Annotation: owner})
	}
	return spans
}

// appendHighlighted emits the spans for one highlight. In code mode the
// covered substring is re-tokenized on its own so coloring survives inside
// the highlight even when the range cuts through a token of the full text.
func appendHighlighted(spans []Span, text string, from, to int, mode Mode, owner *lesson.Annotation) []Span {
	if mode == ModeProse {
		return append(spans, Span{Start: from, End: to, Text: text[from:to], Kind: syntax.KindPlain, Annotation: owner})
	}
	inner := syntax.Tokenize(text[from:to])
	for _, tok := range inner {
		spans = append(spans, Span{
			Start:      from + tok.Start,
			End:        from + tok.End,
			Text:       tok.Text,
			Kind:       tok.Kind,
			Annotation: owner,
		})
	}
	return spans
}

// SpanAt returns the span covering the given text offset.
func SpanAt(spans []Span, offset int) (Span, bool) {
	for _, span := range spans {
		if offset >= span.Start && offset < span.End {
			return span, true
		}
	}
	return Span{}, false
}

// AnnotationAt returns the annotation highlighted at the given text offset.
func AnnotationAt(spans []Span, offset int) (*lesson.Annotation, bool) {
	span, ok := SpanAt(spans, offset)
	if !ok || span.Annotation == nil {
		return nil, false
	}
	return span.Annotation, true
}
