package parser

import "iopls/internal/symbols"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokComment
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	r    symbols.Range
}

// lex splits the source into tokens, tracking 0-indexed line/column
// positions. Identifiers may contain dots so qualified references such
// as core.LogLevel arrive as a single token, mirroring how type tokens
// are consumed downstream. Unknown bytes become single-character punct
// tokens; the parser turns them into error nodes.
func lex(src []byte) []token {
	var toks []token
	line, col := 0, 0
	i := 0

	pos := func() symbols.Position { return symbols.Position{Line: line, Col: col} }
	advance := func(n int) {
		for k := 0; k < n; k++ {
			if src[i+k] == '\n' {
				line++
				col = 0
			} else {
				col++
			}
		}
		i += n
	}

	for i < len(src) {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			advance(1)

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			start := pos()
			j := i
			for j < len(src) && src[j] != '\n' {
				j++
			}
			text := string(src[i:j])
			advance(j - i)
			toks = append(toks, token{tokComment, text, symbols.Range{Start: start, End: pos()}})

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := pos()
			j := i + 2
			for j+1 < len(src) && !(src[j] == '*' && src[j+1] == '/') {
				j++
			}
			if j+1 < len(src) {
				j += 2
			} else {
				j = len(src)
			}
			text := string(src[i:j])
			advance(j - i)
			toks = append(toks, token{tokComment, text, symbols.Range{Start: start, End: pos()}})

		case isIdentStart(c):
			start := pos()
			j := i
			for j < len(src) && (isIdentPart(src[j]) || dotJoins(src, j)) {
				j++
			}
			text := string(src[i:j])
			advance(j - i)
			toks = append(toks, token{tokIdent, text, symbols.Range{Start: start, End: pos()}})

		case c >= '0' && c <= '9',
			c == '-' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			start := pos()
			j := i + 1
			for j < len(src) && (isIdentPart(src[j]) || src[j] == '.') {
				j++
			}
			text := string(src[i:j])
			advance(j - i)
			toks = append(toks, token{tokNumber, text, symbols.Range{Start: start, End: pos()}})

		case c == '"':
			start := pos()
			j := i + 1
			for j < len(src) && src[j] != '"' && src[j] != '\n' {
				if src[j] == '\\' && j+1 < len(src) {
					j++
				}
				j++
			}
			if j < len(src) && src[j] == '"' {
				j++
			}
			text := string(src[i:j])
			advance(j - i)
			toks = append(toks, token{tokString, text, symbols.Range{Start: start, End: pos()}})

		default:
			start := pos()
			text := string(src[i : i+1])
			advance(1)
			toks = append(toks, token{tokPunct, text, symbols.Range{Start: start, End: pos()}})
		}
	}

	toks = append(toks, token{tokEOF, "", symbols.Range{Start: pos(), End: pos()}})
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// dotJoins reports whether the dot at src[j] glues two identifier parts
// together, as in a qualified name. A trailing dot does not join.
func dotJoins(src []byte, j int) bool {
	return src[j] == '.' && j+1 < len(src) && isIdentStart(src[j+1])
}
