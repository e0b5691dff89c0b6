// Package syntax classifies source text into contiguous tokens for display
// coloring. It is a heuristic lexer, not a parser: it must accept any string,
// including malformed or truncated code, and always cover the full input.
package syntax

import "strings"

// Kind labels a token for styling.
type Kind string

const (
	KindComment  Kind = "comment"
	KindString   Kind = "string"
	KindKeyword  Kind = "keyword"
	KindNumber   Kind = "number"
	KindCall     Kind = "identifier-call"
	KindTypeName Kind = "type-name"
	KindOperator Kind = "operator"
	KindPunct    Kind = "punctuation"
	KindPlain    Kind = "plain"
)

// Token is a classified substring. Offsets are half-open byte offsets into
// the tokenized text; Text always equals the slice at [Start, End).
type Token struct {
	Start int
	End   int
	Kind  Kind
	Text  string
}

var keywords = map[string]struct{}{}

func init() {
	for _, kw := range []string{
		"abstract", "async", "await", "boolean", "break", "byte", "case",
		"catch", "char", "class", "const", "continue", "def", "default",
		"do", "double", "elif", "else", "enum", "export", "extends",
		"false", "final", "finally", "float", "for", "func", "function",
		"go", "if", "implements", "import", "in", "instanceof", "int",
		"interface", "let", "long", "new", "nil", "none", "null",
		"package", "private", "protected", "public", "range", "return",
		"self", "short", "static", "struct", "super", "switch", "this",
		"throw", "true", "try", "type", "typeof", "var", "void", "while",
		"yield",
	} {
		keywords[kw] = struct{}{}
	}
}

const operatorChars = "+-*/%=<>!&|^~?:"
const punctChars = "()[]{};,."

// Tokenize splits text into an ordered, gap-free, non-overlapping token
// sequence. Concatenating the token texts reproduces the input exactly, and
// no token is zero-length. Rules apply in a fixed precedence at each scan
// position: comment, string literal, word (keyword / call / type name),
// number, operator run, punctuation; anything else accrues into a plain run.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}

	var tokens []Token
	// lastWord tracks the most recent keyword token so constructor calls
	// after `new` can be told apart from ordinary capitalized calls.
	lastWord := ""
	plainStart := -1

	flushPlain := func(end int) {
		if plainStart >= 0 && end > plainStart {
			tokens = append(tokens, Token{Start: plainStart, End: end, Kind: KindPlain, Text: text[plainStart:end]})
		}
		plainStart = -1
	}
	emit := func(start, end int, kind Kind) {
		flushPlain(start)
		tokens = append(tokens, Token{Start: start, End: end, Kind: kind, Text: text[start:end]})
	}

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '/' && i+1 < len(text) && (text[i+1] == '/' || text[i+1] == '*'):
			end := scanComment(text, i)
			emit(i, end, KindComment)
			lastWord = ""
			i = end
		case c == '"' || c == '\'' || c == '`':
			end := scanString(text, i)
			emit(i, end, KindString)
			lastWord = ""
			i = end
		case isWordStart(c):
			end := scanWord(text, i)
			word := text[i:end]
			kind := classifyWord(text, word, end, lastWord)
			if kind == KindPlain {
				// Ordinary identifiers join the surrounding plain run so
				// `x = y` yields one plain span per side, not three.
				if plainStart < 0 {
					plainStart = i
				}
				lastWord = ""
				i = end
				continue
			}
			emit(i, end, kind)
			if kind == KindKeyword {
				lastWord = word
			} else {
				lastWord = ""
			}
			i = end
		case isDigit(c):
			end := scanNumber(text, i)
			emit(i, end, KindNumber)
			lastWord = ""
			i = end
		case strings.IndexByte(operatorChars, c) >= 0:
			end := i + 1
			for end < len(text) && strings.IndexByte(operatorChars, text[end]) >= 0 {
				end++
			}
			emit(i, end, KindOperator)
			lastWord = ""
			i = end
		case strings.IndexByte(punctChars, c) >= 0:
			emit(i, i+1, KindPunct)
			lastWord = ""
			i++
		default:
			if plainStart < 0 {
				plainStart = i
			}
			// Whitespace inside a plain run does not reset the `new`
			// tracking; `new Foo()` keeps the keyword visible to Foo.
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				lastWord = ""
			}
			i++
		}
	}
	flushPlain(len(text))
	return tokens
}

func scanComment(text string, start int) int {
	if text[start+1] == '/' {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			return len(text)
		}
		return start + end
	}
	end := strings.Index(text[start+2:], "*/")
	if end < 0 {
		return len(text)
	}
	return start + 2 + end + 2
}

func scanString(text string, start int) int {
	quote := text[start]
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			// Unterminated on this line; keep the token from swallowing
			// the rest of the file.
			if quote != '`' {
				return i
			}
		}
	}
	return len(text)
}

func scanWord(text string, start int) int {
	end := start + 1
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	return end
}

func classifyWord(text, word string, end int, lastWord string) Kind {
	if _, ok := keywords[word]; ok {
		return KindKeyword
	}
	capitalized := word[0] >= 'A' && word[0] <= 'Z'
	if end < len(text) && text[end] == '(' {
		if capitalized && lastWord == "new" {
			return KindTypeName
		}
		return KindCall
	}
	if capitalized {
		return KindTypeName
	}
	return KindPlain
}

func scanNumber(text string, start int) int {
	end := start + 1
	if end < len(text) && text[start] == '0' && (text[end] == 'x' || text[end] == 'X') {
		end++
		for end < len(text) && isHexDigit(text[end]) {
			end++
		}
		return end
	}
	for end < len(text) && isDigit(text[end]) {
		end++
	}
	if end+1 < len(text) && text[end] == '.' && isDigit(text[end+1]) {
		end += 2
		for end < len(text) && isDigit(text[end]) {
			end++
		}
	}
	if end < len(text) && (text[end] == 'e' || text[end] == 'E') {
		mark := end + 1
		if mark < len(text) && (text[mark] == '+' || text[mark] == '-') {
			mark++
		}
		if mark < len(text) && isDigit(text[mark]) {
			end = mark + 1
			for end < len(text) && isDigit(text[end]) {
				end++
			}
		}
	}
	return end
}

func isWordStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isWordByte(c byte) bool {
	return isWordStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
