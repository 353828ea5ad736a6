package callexpr

import (
	"unicode/utf8"

	"github.com/wippyai/trigger-call/callexpr/internal/token"
	"github.com/wippyai/trigger-call/errors"
)

// Parse parses a call expression of the form name(arg, ...). The name may
// contain '-', ':', '.', '/', '@' and '#' so that namespaced exports such as
// "wasi:cli/run@0.2.0#run" can be named directly.
func Parse(text string) (*Call, error) {
	start := 0
	for start < len(text) && isSpace(text[start]) {
		start++
	}
	end := start
	for end < len(text) && isNameChar(text[end]) {
		end++
	}
	if end == start || !isNameStart(text[start]) {
		return nil, errors.Syntax(start, "expected function name")
	}

	tokens, err := token.Tokenize(text[end:], end)
	if err != nil {
		return nil, err
	}
	p := &parser{src: text, tokens: tokens}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	args, err := p.parseSeq(token.RParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EOF); err != nil {
		return nil, err
	}

	return &Call{
		Name: text[start:end],
		Text: text,
		Args: args,
	}, nil
}

// ParseExpr parses a single literal expression.
func ParseExpr(text string) (Expr, error) {
	tokens, err := token.Tokenize(text, 0)
	if err != nil {
		return nil, err
	}
	p := &parser{src: text, tokens: tokens}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EOF); err != nil {
		return nil, err
	}
	return e, nil
}

type parser struct {
	src     string
	tokens  []token.Token
	pos     int
	prevEnd int
}

func (p *parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(n int) token.Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) next() token.Token {
	tok := p.tokens[p.pos]
	if tok.Type != token.EOF {
		p.pos++
		p.prevEnd = tok.Pos + len(tok.Raw)
	}
	return tok
}

func (p *parser) expect(t token.Type) (token.Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, unexpected(tok, t.String())
	}
	return p.next(), nil
}

func unexpected(tok token.Token, want string) error {
	if tok.Type == token.EOF {
		return errors.Syntax(tok.Pos, "expected %s, found end of input", want)
	}
	return errors.Syntax(tok.Pos, "expected %s, found %q", want, tok.Raw)
}

// parseSeq parses comma-separated expressions up to and including the
// closing token. A trailing comma is accepted.
func (p *parser) parseSeq(closing token.Type) ([]Expr, error) {
	var elems []Expr
	for {
		if p.peek().Type == closing {
			p.next()
			return elems, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)

		switch tok := p.peek(); tok.Type {
		case token.Comma:
			p.next()
		case closing:
		default:
			return nil, unexpected(tok, "',' or "+closing.String())
		}
	}
}

func (p *parser) parseExpr() (Expr, error) {
	tok := p.peek()
	start := tok.Pos

	switch tok.Type {
	case token.Number:
		p.next()
		lit, suffix := token.SplitSuffix(tok.Value)
		return &Number{node: newNode(p.src, start, p.prevEnd), Literal: lit, Suffix: suffix}, nil

	case token.String:
		p.next()
		return &String{node: newNode(p.src, start, p.prevEnd), Value: tok.Value}, nil

	case token.Char:
		p.next()
		r, _ := utf8.DecodeRuneInString(tok.Value)
		return &Char{node: newNode(p.src, start, p.prevEnd), Value: r}, nil

	case token.LBracket:
		p.next()
		elems, err := p.parseSeq(token.RBracket)
		if err != nil {
			return nil, err
		}
		return &List{node: newNode(p.src, start, p.prevEnd), Elems: elems}, nil

	case token.LParen:
		p.next()
		elems, err := p.parseSeq(token.RParen)
		if err != nil {
			return nil, err
		}
		return &Tuple{node: newNode(p.src, start, p.prevEnd), Elems: elems}, nil

	case token.LBrace:
		return p.parseBraced()

	case token.Label:
		p.next()
		if !tok.Escaped {
			switch tok.Value {
			case "true", "false":
				return &Bool{node: newNode(p.src, start, p.prevEnd), Value: tok.Value == "true"}, nil
			case "inf", "nan":
				return &Number{node: newNode(p.src, start, p.prevEnd), Literal: tok.Value}, nil
			}
		}
		label := &Label{Name: tok.Value, Escaped: tok.Escaped}
		if p.peek().Type == token.LParen {
			p.next()
			payload, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			label.Payload = payload
		}
		label.node = newNode(p.src, start, p.prevEnd)
		return label, nil
	}

	return nil, unexpected(tok, "value")
}

// parseBraced parses a record literal {a: 1}, an empty record {:}, or a
// flags literal {a, b} / {}.
func (p *parser) parseBraced() (Expr, error) {
	open := p.next()
	start := open.Pos

	switch {
	case p.peek().Type == token.RBrace:
		p.next()
		return &Flags{node: newNode(p.src, start, p.prevEnd)}, nil

	case p.peek().Type == token.Colon && p.peekAt(1).Type == token.RBrace:
		p.next()
		p.next()
		return &Record{node: newNode(p.src, start, p.prevEnd)}, nil

	case p.peek().Type == token.Label && p.peekAt(1).Type == token.Colon:
		rec := &Record{}
		for {
			if p.peek().Type == token.RBrace {
				p.next()
				break
			}
			name, err := p.expect(token.Label)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Colon); err != nil {
				return nil, err
			}
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			for _, f := range rec.Fields {
				if f.Name == name.Value {
					return nil, errors.Syntax(name.Pos, "duplicate field %q", name.Value)
				}
			}
			rec.Fields = append(rec.Fields, Field{Name: name.Value, Value: v, Pos: name.Pos})

			if tok := p.peek(); tok.Type == token.Comma {
				p.next()
			} else if tok.Type != token.RBrace {
				return nil, unexpected(tok, "',' or '}'")
			}
		}
		rec.node = newNode(p.src, start, p.prevEnd)
		return rec, nil
	}

	flags := &Flags{}
	for {
		if p.peek().Type == token.RBrace {
			p.next()
			break
		}
		name, err := p.expect(token.Label)
		if err != nil {
			return nil, err
		}
		for _, n := range flags.Names {
			if n == name.Value {
				return nil, errors.Syntax(name.Pos, "duplicate flag %q", name.Value)
			}
		}
		flags.Names = append(flags.Names, name.Value)

		if tok := p.peek(); tok.Type == token.Comma {
			p.next()
		} else if tok.Type != token.RBrace {
			return nil, unexpected(tok, "',' or '}'")
		}
	}
	flags.node = newNode(p.src, start, p.prevEnd)
	return flags, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isNameChar(c byte) bool {
	if isNameStart(c) || (c >= '0' && c <= '9') {
		return true
	}
	switch c {
	case '-', ':', '.', '/', '@', '#':
		return true
	}
	return false
}
