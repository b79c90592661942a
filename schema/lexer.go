package schema

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokDoc
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t token) punct(text string) bool {
	return t.is(tokPunct, text)
}

// lex splits schema text into tokens. Line and block comments are dropped,
// "///" doc comments are kept with the marker and one leading space removed.
func lex(input string) ([]token, error) {
	var toks []token
	src := []rune(input)
	line := 1

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++

		case unicode.IsSpace(c):
			i++

		case c == '/' && peek(src, i+1) == '/':
			end := i
			for end < len(src) && src[end] != '\n' {
				end++
			}
			text := string(src[i:end])
			if strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////") {
				doc := strings.TrimPrefix(text, "///")
				doc = strings.TrimPrefix(doc, " ")
				toks = append(toks, token{kind: tokDoc, text: strings.TrimRight(doc, "\r"), line: line})
			}
			i = end

		case c == '/' && peek(src, i+1) == '*':
			start := line
			depth := 0
			for {
				if i >= len(src) {
					return nil, newParseError("", start, "unterminated block comment")
				}
				if src[i] == '/' && peek(src, i+1) == '*' {
					depth++
					i += 2
					continue
				}
				if src[i] == '*' && peek(src, i+1) == '/' {
					depth--
					i += 2
					if depth == 0 {
						break
					}
					continue
				}
				if src[i] == '\n' {
					line++
				}
				i++
			}

		case c == '"':
			start := line
			var b strings.Builder
			i++
			for {
				if i >= len(src) {
					return nil, newParseError("", start, "unterminated string literal")
				}
				if src[i] == '\\' && i+1 < len(src) {
					b.WriteRune(src[i+1])
					i += 2
					continue
				}
				if src[i] == '"' {
					i++
					break
				}
				if src[i] == '\n' {
					line++
				}
				b.WriteRune(src[i])
				i++
			}
			toks = append(toks, token{kind: tokString, text: b.String(), line: start})

		case c == 'r' && peek(src, i+1) == '#' && isIdentStart(peek(src, i+2)):
			end := i + 2
			for end < len(src) && isIdentPart(src[end]) {
				end++
			}
			toks = append(toks, token{kind: tokIdent, text: string(src[i:end]), line: line})
			i = end

		case isIdentStart(c):
			end := i
			for end < len(src) && isIdentPart(src[end]) {
				end++
			}
			toks = append(toks, token{kind: tokIdent, text: string(src[i:end]), line: line})
			i = end

		case unicode.IsDigit(c):
			end := i
			for end < len(src) && unicode.IsDigit(src[end]) {
				end++
			}
			toks = append(toks, token{kind: tokNumber, text: string(src[i:end]), line: line})
			i = end

		case c == '-' && peek(src, i+1) == '>':
			toks = append(toks, token{kind: tokPunct, text: "->", line: line})
			i += 2

		case c == ':' && peek(src, i+1) == ':':
			toks = append(toks, token{kind: tokPunct, text: "::", line: line})
			i += 2

		default:
			toks = append(toks, token{kind: tokPunct, text: string(c), line: line})
			i++
		}
	}

	toks = append(toks, token{kind: tokEOF, line: line})
	return toks, nil
}

func peek(src []rune, i int) rune {
	if i < len(src) {
		return src[i]
	}
	return 0
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
