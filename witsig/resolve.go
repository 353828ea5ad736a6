package witsig

import (
	stderrors "errors"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/trigger-call/errors"
)

// resolver turns type expressions into wit types. Named declarations are
// built on first use so that they may be referenced before they appear.
type resolver struct {
	decls  map[string]*typeDecl
	built  map[string]*wit.TypeDef
	active map[string]bool
}

func newResolver(doc *document) (*resolver, error) {
	r := &resolver{
		decls:  make(map[string]*typeDecl, len(doc.types)),
		built:  make(map[string]*wit.TypeDef, len(doc.types)),
		active: make(map[string]bool),
	}
	for _, d := range doc.types {
		if _, ok := r.decls[d.name]; ok {
			return nil, duplicate("type", d.name, d.pos)
		}
		r.decls[d.name] = d
	}
	return r, nil
}

func (r *resolver) resolve(te *typeExpr) (wit.Type, error) {
	if !te.escaped {
		switch te.name {
		case "list":
			elem, err := r.args(te, 1, 1)
			if err != nil {
				return nil, err
			}
			return &wit.TypeDef{Kind: &wit.List{Type: elem[0]}}, nil
		case "option":
			inner, err := r.args(te, 1, 1)
			if err != nil {
				return nil, err
			}
			return &wit.TypeDef{Kind: &wit.Option{Type: inner[0]}}, nil
		case "tuple":
			types, err := r.args(te, 1, -1)
			if err != nil {
				return nil, err
			}
			return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil
		case "result":
			return r.result(te)
		case "own", "borrow":
			return nil, unsupported(te.pos, "handle type %s", te.name)
		case "future", "stream", "error-context":
			return nil, unsupported(te.pos, "async type %s", te.name)
		case "_":
			return nil, syntaxError(te.pos, "'_' is only valid as the ok type of a result")
		}
		if len(te.args) == 0 {
			if prim, err := wit.ParseType(te.name); err == nil {
				return prim, nil
			}
		}
	}

	if len(te.args) > 0 {
		return nil, syntaxError(te.pos, "type %q takes no parameters", te.name)
	}
	d, ok := r.decls[te.name]
	if !ok {
		err := errors.NotFound(errors.PhaseLoad, "type", te.name)
		err.Offset = te.pos
		return nil, err
	}
	return r.declared(d)
}

func (r *resolver) args(te *typeExpr, lo, hi int) ([]wit.Type, error) {
	if len(te.args) < lo || (hi >= 0 && len(te.args) > hi) {
		return nil, syntaxError(te.pos, "wrong number of parameters for %s", te.name)
	}
	types := make([]wit.Type, len(te.args))
	for i, a := range te.args {
		t, err := r.resolve(a)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

// result handles result, result<T>, result<T, E> and result<_, E>.
func (r *resolver) result(te *typeExpr) (wit.Type, error) {
	if len(te.args) > 2 {
		return nil, syntaxError(te.pos, "wrong number of parameters for result")
	}
	res := &wit.Result{}
	if len(te.args) > 0 && !(te.args[0].name == "_" && !te.args[0].escaped) {
		ok, err := r.resolve(te.args[0])
		if err != nil {
			return nil, err
		}
		res.OK = ok
	}
	if len(te.args) == 2 {
		e, err := r.resolve(te.args[1])
		if err != nil {
			return nil, err
		}
		res.Err = e
	} else if res.OK == nil && len(te.args) == 1 {
		return nil, syntaxError(te.pos, "result<_> has no error type")
	}
	return &wit.TypeDef{Kind: res}, nil
}

func (r *resolver) declared(d *typeDecl) (*wit.TypeDef, error) {
	if td, ok := r.built[d.name]; ok {
		return td, nil
	}
	if r.active[d.name] {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Offset(d.pos).
			Detail("type %q refers to itself", d.name).
			Build()
	}
	r.active[d.name] = true
	defer delete(r.active, d.name)

	if err := checkMembers(d); err != nil {
		return nil, err
	}

	name := d.name
	td := &wit.TypeDef{Name: &name}
	switch d.kind {
	case declRecord:
		rec := &wit.Record{}
		for _, m := range d.members {
			t, err := r.resolve(m.typ)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, wit.Field{Name: m.name, Type: t})
		}
		td.Kind = rec
	case declVariant:
		v := &wit.Variant{}
		for _, m := range d.members {
			c := wit.Case{Name: m.name}
			if m.typ != nil {
				t, err := r.resolve(m.typ)
				if err != nil {
					return nil, err
				}
				c.Type = t
			}
			v.Cases = append(v.Cases, c)
		}
		td.Kind = v
	case declEnum:
		e := &wit.Enum{}
		for _, m := range d.members {
			e.Cases = append(e.Cases, wit.EnumCase{Name: m.name})
		}
		td.Kind = e
	case declFlags:
		f := &wit.Flags{}
		for _, m := range d.members {
			f.Flags = append(f.Flags, wit.Flag{Name: m.name})
		}
		td.Kind = f
	case declAlias:
		t, err := r.resolve(d.alias)
		if err != nil {
			return nil, err
		}
		td.Kind = t
	case declResource:
		// a bare resource name in a signature denotes an owned handle
		td.Kind = &wit.Own{}
	}

	r.built[d.name] = td
	return td, nil
}

func checkMembers(d *typeDecl) error {
	if (d.kind == declVariant || d.kind == declEnum) && len(d.members) == 0 {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Offset(d.pos).
			Detail("%q must have at least one case", d.name).
			Build()
	}
	seen := make(map[string]bool, len(d.members))
	for _, m := range d.members {
		if seen[m.name] {
			return duplicate("member", d.name+"."+m.name, m.pos)
		}
		seen[m.name] = true
	}
	return nil
}

func unsupported(pos int, detail string, args ...any) *errors.Error {
	return errors.New(errors.PhaseLoad, errors.KindUnsupported).
		Offset(pos).
		Detail(detail, args...).
		Build()
}

// at attaches a source offset to err when it has none.
func at(err error, pos int) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Offset < 0 {
		e.Offset = pos
	}
	return err
}
