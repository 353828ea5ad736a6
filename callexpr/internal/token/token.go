package token

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/trigger-call/errors"
)

type Type int

const (
	EOF Type = iota
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Colon
	Label
	Number
	String
	Char
)

func (t Type) String() string {
	switch t {
	case EOF:
		return "end of input"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case Comma:
		return "','"
	case Colon:
		return "':'"
	case Label:
		return "label"
	case Number:
		return "number"
	case String:
		return "string"
	case Char:
		return "char"
	}
	return "unknown"
}

// Token is one lexical unit. Value holds the decoded contents for strings
// and chars, the label without its '%' for labels, and the raw text for
// numbers. Raw is always the source text.
type Token struct {
	Value   string
	Raw     string
	Type    Type
	Pos     int
	Escaped bool
}

var numberSuffixes = []string{"u8", "u16", "u32", "u64", "s8", "s16", "s32", "s64", "f32", "f64"}

// Tokenize splits input into tokens. Offsets are reported relative to the
// start of input plus base. The last token is always EOF.
func Tokenize(input string, base int) ([]Token, error) {
	var tokens []Token
	i := 0

	for i < len(input) {
		c := input[i]
		start := i

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
			continue
		case strings.IndexByte("()[]{},:", c) >= 0:
			tokens = append(tokens, Token{Value: input[i : i+1], Raw: input[i : i+1], Type: punct(c), Pos: base + i})
			i++
			continue
		case c == '"':
			s, n, err := scanQuoted(input[i:], '"', base+i)
			if err != nil {
				return nil, err
			}
			i += n
			tokens = append(tokens, Token{Value: s, Raw: input[start:i], Type: String, Pos: base + start})
			continue
		case c == '\'':
			s, n, err := scanQuoted(input[i:], '\'', base+i)
			if err != nil {
				return nil, err
			}
			if utf8.RuneCountInString(s) != 1 {
				return nil, errors.Syntax(base+start, "char literal must hold exactly one character")
			}
			i += n
			tokens = append(tokens, Token{Value: s, Raw: input[start:i], Type: Char, Pos: base + start})
			continue
		case c == '-' || isDigit(c):
			n, err := scanNumber(input[i:], base+i)
			if err != nil {
				return nil, err
			}
			i += n
			tokens = append(tokens, Token{Value: input[start:i], Raw: input[start:i], Type: Number, Pos: base + start})
			continue
		case c == '%' || isLabelStart(c):
			escaped := c == '%'
			if escaped {
				i++
				if i >= len(input) || !isLabelStart(input[i]) {
					return nil, errors.Syntax(base+start, "expected label after escape marker")
				}
			}
			j := i
			for j < len(input) && isLabelChar(input[j]) {
				j++
			}
			tokens = append(tokens, Token{Value: input[i:j], Raw: input[start:j], Type: Label, Pos: base + start, Escaped: escaped})
			i = j
			continue
		}

		r, _ := utf8.DecodeRuneInString(input[i:])
		return nil, errors.Syntax(base+i, "unexpected character %q", r)
	}

	tokens = append(tokens, Token{Type: EOF, Pos: base + len(input)})
	return tokens, nil
}

func punct(c byte) Type {
	switch c {
	case '(':
		return LParen
	case ')':
		return RParen
	case '[':
		return LBracket
	case ']':
		return RBracket
	case '{':
		return LBrace
	case '}':
		return RBrace
	case ',':
		return Comma
	}
	return Colon
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLabelStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isLabelChar(c byte) bool {
	return isLabelStart(c) || isDigit(c) || c == '-'
}

// scanNumber returns the length of the number literal at the start of s:
// -?digits(.digits)?([eE][+-]?digits)?suffix? or -inf.
func scanNumber(s string, pos int) (int, error) {
	i := 0
	if s[0] == '-' {
		i++
		if strings.HasPrefix(s[i:], "inf") && (len(s) == i+3 || !isLabelChar(s[i+3])) {
			return i + 3, nil
		}
		if i >= len(s) || !isDigit(s[i]) {
			return 0, errors.Syntax(pos, "expected digit after '-'")
		}
	}
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		if i >= len(s) || !isDigit(s[i]) {
			return 0, errors.Syntax(pos+i, "expected digit after '.'")
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= len(s) || !isDigit(s[i]) {
			return 0, errors.Syntax(pos+i, "expected exponent digits")
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && isLabelStart(s[i]) {
		j := i
		for j < len(s) && isLabelChar(s[j]) {
			j++
		}
		suffix := s[i:j]
		for _, ok := range numberSuffixes {
			if suffix == ok {
				return j, nil
			}
		}
		return 0, errors.Syntax(pos+i, "invalid number suffix %q", suffix)
	}
	return i, nil
}

// SplitSuffix separates a width suffix from a number literal.
func SplitSuffix(lit string) (digits, suffix string) {
	for _, s := range numberSuffixes {
		if strings.HasSuffix(lit, s) && len(lit) > len(s) {
			return lit[:len(lit)-len(s)], s
		}
	}
	return lit, ""
}

// scanQuoted decodes a quoted literal at the start of s and returns the
// decoded text and the number of bytes consumed, quotes included.
func scanQuoted(s string, quote byte, pos int) (string, int, error) {
	var b strings.Builder
	i := 1
	for {
		if i >= len(s) {
			return "", 0, errors.Syntax(pos, "unterminated literal")
		}
		c := s[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\n':
			return "", 0, errors.Syntax(pos+i, "newline in literal")
		case c == '\\':
			r, n, err := scanEscape(s[i:], pos+i)
			if err != nil {
				return "", 0, err
			}
			b.WriteRune(r)
			i += n
		default:
			r, n := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && n == 1 {
				return "", 0, errors.Syntax(pos+i, "invalid UTF-8")
			}
			b.WriteRune(r)
			i += n
		}
	}
}

func scanEscape(s string, pos int) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, errors.Syntax(pos, "unterminated escape")
	}
	switch s[1] {
	case '\\':
		return '\\', 2, nil
	case '"':
		return '"', 2, nil
	case '\'':
		return '\'', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'u':
		if len(s) < 3 || s[2] != '{' {
			return 0, 0, errors.Syntax(pos, `expected '{' after \u`)
		}
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0, errors.Syntax(pos, "unterminated unicode escape")
		}
		hex := s[3:end]
		if len(hex) == 0 || len(hex) > 6 {
			return 0, 0, errors.Syntax(pos, "invalid unicode escape %q", s[:end+1])
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, 0, errors.Syntax(pos, "invalid unicode escape %q", s[:end+1])
		}
		r := rune(n)
		if r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
			return 0, 0, errors.Syntax(pos, "escape %q is not a unicode scalar value", s[:end+1])
		}
		return r, end + 1, nil
	}
	return 0, 0, errors.Syntax(pos, "unknown escape \\%c", s[1])
}
