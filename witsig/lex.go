package witsig

import (
	"strings"

	"github.com/wippyai/trigger-call/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokArrow
	tokPunct
)

type token struct {
	text    string
	kind    tokenKind
	pos     int
	escaped bool
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokArrow:
		return "'->'"
	}
	return "'" + t.text + "'"
}

const punctuation = "{}()<>,:;=./@*"

// lex splits WIT source into words, arrows and single-character
// punctuation. Comments are dropped. A leading '%' on a word is removed.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, syntaxError(i, "unterminated block comment")
			}
			i += end + 4
		case c == '-' && i+1 < len(src) && src[i+1] == '>':
			toks = append(toks, token{text: "->", kind: tokArrow, pos: i})
			i += 2
		case c == '%' || isWordChar(c):
			start := i
			if c == '%' {
				i++
			}
			for i < len(src) && isWordChar(src[i]) {
				if src[i] == '-' && i+1 < len(src) && src[i+1] == '>' {
					break
				}
				i++
			}
			word, escaped := strings.CutPrefix(src[start:i], "%")
			if word == "" {
				return nil, syntaxError(start, "empty escaped identifier")
			}
			toks = append(toks, token{text: word, kind: tokWord, pos: start, escaped: escaped})
		case strings.IndexByte(punctuation, c) >= 0:
			toks = append(toks, token{text: string(c), kind: tokPunct, pos: i})
			i++
		default:
			return nil, syntaxError(i, "unexpected character %q", rune(c))
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

func syntaxError(pos int, detail string, args ...any) *errors.Error {
	return errors.New(errors.PhaseLoad, errors.KindSyntax).
		Offset(pos).
		Detail(detail, args...).
		Build()
}
