package witsig

import (
	"github.com/wippyai/trigger-call/errors"
)

// typeExpr is an unresolved type reference such as u32, point or
// list<tuple<u8, string>>.
type typeExpr struct {
	name    string
	args    []*typeExpr
	pos     int
	escaped bool
}

// member is a record field, variant case, enum case or flag. typ is nil
// when there is no type.
type member struct {
	typ  *typeExpr
	name string
	pos  int
}

type declKind int

const (
	declRecord declKind = iota
	declVariant
	declEnum
	declFlags
	declAlias
	declResource
)

type typeDecl struct {
	alias   *typeExpr
	name    string
	members []member
	kind    declKind
	pos     int
}

type funcDecl struct {
	name     string
	params   []member
	results  []member
	pos      int
	exported bool
}

// document is the flattened content of a WIT text. Interfaces and worlds
// share one namespace.
type document struct {
	types []*typeDecl
	funcs []*funcDecl
}

type parser struct {
	doc  *document
	toks []token
	pos  int
}

func parseDocument(src string) (*document, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, doc: &document{}}
	for p.peek().kind != tokEOF {
		if err := p.parseItem(true); err != nil {
			return nil, err
		}
	}
	return p.doc, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokWord && !t.escaped && t.text == word
}

func (p *parser) isPunct(c string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == c
}

func (p *parser) accept(c string) bool {
	if p.isPunct(c) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c string) error {
	if p.accept(c) {
		return nil
	}
	t := p.peek()
	return syntaxError(t.pos, "expected '%s', found %s", c, t)
}

func (p *parser) ident() (token, error) {
	t := p.next()
	if t.kind != tokWord {
		return t, syntaxError(t.pos, "expected identifier, found %s", t)
	}
	return t, nil
}

// skipTo consumes tokens through the next top-level ';'.
func (p *parser) skipTo(c string) error {
	depth := 0
	for {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return syntaxError(t.pos, "expected '%s', found end of input", c)
		case t.kind != tokPunct:
		case t.text == "{":
			depth++
		case t.text == "}":
			depth--
		case t.text == c && depth == 0:
			return nil
		}
	}
}

// skipBlock consumes a balanced {...} block. The opening brace has
// already been consumed.
func (p *parser) skipBlock() error {
	depth := 1
	for depth > 0 {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return syntaxError(t.pos, "unterminated block")
		case t.kind == tokPunct && t.text == "{":
			depth++
		case t.kind == tokPunct && t.text == "}":
			depth--
		}
	}
	return nil
}

// parseItem parses one top-level, world or interface item. exported tells
// whether bare function declarations in this scope are callable.
func (p *parser) parseItem(exported bool) error {
	t := p.peek()
	if t.kind != tokWord {
		return syntaxError(t.pos, "expected declaration, found %s", t)
	}
	if t.escaped {
		return p.parseFuncItem(exported)
	}

	switch t.text {
	case "package", "use", "include":
		p.next()
		return p.skipTo(";")
	case "interface", "world":
		p.next()
		if _, err := p.ident(); err != nil {
			return err
		}
		return p.parseBody(exported)
	case "export", "import":
		p.next()
		return p.parseExtern(t.text == "export")
	case "record", "variant", "enum", "flags":
		return p.parseTypeDecl()
	case "type":
		return p.parseAlias()
	case "resource":
		return p.parseResource()
	}
	return p.parseFuncItem(exported)
}

func (p *parser) parseBody(exported bool) error {
	if err := p.expect("{"); err != nil {
		return err
	}
	for !p.accept("}") {
		if p.peek().kind == tokEOF {
			return syntaxError(p.peek().pos, "expected '}', found end of input")
		}
		if err := p.parseItem(exported); err != nil {
			return err
		}
	}
	return nil
}

// parseExtern parses what follows export or import inside a world:
// a function, an inline interface, or a reference to a named interface.
func (p *parser) parseExtern(exported bool) error {
	name, err := p.ident()
	if err != nil {
		return err
	}
	if !p.accept(":") || !(p.isKeyword("func") || p.isKeyword("async") || p.isKeyword("interface")) {
		// export wasi:cli/run@0.2.0; and similar interface references
		return p.skipTo(";")
	}
	if p.isKeyword("interface") {
		p.next()
		return p.parseBody(exported)
	}
	f, err := p.parseFunc(name)
	if err != nil {
		return err
	}
	f.exported = exported
	p.doc.funcs = append(p.doc.funcs, f)
	return nil
}

func (p *parser) parseFuncItem(exported bool) error {
	name, err := p.ident()
	if err != nil {
		return err
	}
	if err := p.expect(":"); err != nil {
		return err
	}
	f, err := p.parseFunc(name)
	if err != nil {
		return err
	}
	f.exported = exported
	p.doc.funcs = append(p.doc.funcs, f)
	return nil
}

// parseFunc parses [async] func(params) [-> results] ; after "name:".
func (p *parser) parseFunc(name token) (*funcDecl, error) {
	if p.isKeyword("async") {
		p.next()
	}
	if !p.isKeyword("func") {
		t := p.peek()
		return nil, syntaxError(t.pos, "expected 'func', found %s", t)
	}
	p.next()

	f := &funcDecl{name: name.text, pos: name.pos}
	params, err := p.parseNamedList()
	if err != nil {
		return nil, err
	}
	f.params = params

	if p.peek().kind == tokArrow {
		p.next()
		if p.isPunct("(") {
			if f.results, err = p.parseNamedList(); err != nil {
				return nil, err
			}
		} else {
			start := p.peek().pos
			te, err := p.parseType()
			if err != nil {
				return nil, err
			}
			f.results = []member{{typ: te, pos: start}}
		}
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	return f, nil
}

// parseNamedList parses (a: T, b: U) with an optional trailing comma.
func (p *parser) parseNamedList() ([]member, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var list []member
	for !p.accept(")") {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		te, err := p.parseType()
		if err != nil {
			return nil, err
		}
		list = append(list, member{name: name.text, typ: te, pos: name.pos})
		if !p.accept(",") && !p.isPunct(")") {
			t := p.peek()
			return nil, syntaxError(t.pos, "expected ',' or ')', found %s", t)
		}
	}
	return list, nil
}

// parseType parses name or name<arg, ...>.
func (p *parser) parseType() (*typeExpr, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	te := &typeExpr{name: name.text, pos: name.pos, escaped: name.escaped}
	if name.escaped || !p.accept("<") {
		return te, nil
	}
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		te.args = append(te.args, arg)
		if p.accept(">") {
			return te, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseTypeDecl() error {
	kw := p.next()
	name, err := p.ident()
	if err != nil {
		return err
	}
	d := &typeDecl{name: name.text, pos: name.pos}
	switch kw.text {
	case "record":
		d.kind = declRecord
	case "variant":
		d.kind = declVariant
	case "enum":
		d.kind = declEnum
	case "flags":
		d.kind = declFlags
	}

	if err := p.expect("{"); err != nil {
		return err
	}
	for !p.accept("}") {
		mname, err := p.ident()
		if err != nil {
			return err
		}
		m := member{name: mname.text, pos: mname.pos}
		switch d.kind {
		case declRecord:
			if err := p.expect(":"); err != nil {
				return err
			}
			if m.typ, err = p.parseType(); err != nil {
				return err
			}
		case declVariant:
			if p.accept("(") {
				if m.typ, err = p.parseType(); err != nil {
					return err
				}
				if err := p.expect(")"); err != nil {
					return err
				}
			}
		}
		d.members = append(d.members, m)
		if !p.accept(",") && !p.isPunct("}") {
			t := p.peek()
			return syntaxError(t.pos, "expected ',' or '}', found %s", t)
		}
	}
	p.doc.types = append(p.doc.types, d)
	return nil
}

func (p *parser) parseAlias() error {
	p.next()
	name, err := p.ident()
	if err != nil {
		return err
	}
	if err := p.expect("="); err != nil {
		return err
	}
	te, err := p.parseType()
	if err != nil {
		return err
	}
	if err := p.expect(";"); err != nil {
		return err
	}
	p.doc.types = append(p.doc.types, &typeDecl{name: name.text, pos: name.pos, kind: declAlias, alias: te})
	return nil
}

// parseResource records the resource name and skips its methods.
func (p *parser) parseResource() error {
	p.next()
	name, err := p.ident()
	if err != nil {
		return err
	}
	p.doc.types = append(p.doc.types, &typeDecl{name: name.text, pos: name.pos, kind: declResource})
	if p.accept(";") {
		return nil
	}
	if err := p.expect("{"); err != nil {
		return err
	}
	return p.skipBlock()
}

func duplicate(what, name string, pos int) *errors.Error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
		Offset(pos).
		Detail("duplicate %s %q", what, name).
		Build()
}
