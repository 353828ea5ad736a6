package witsig

import (
	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

// ParseWIT returns the signatures of the functions exported by a WIT text,
// keyed by function name.
func ParseWIT(text string) (map[string]value.FuncType, error) {
	doc, err := parseDocument(text)
	if err != nil {
		return nil, err
	}
	r, err := newResolver(doc)
	if err != nil {
		return nil, err
	}

	sigs := make(map[string]value.FuncType)
	for _, f := range doc.funcs {
		if !f.exported {
			continue
		}
		if _, ok := sigs[f.name]; ok {
			return nil, duplicate("function", f.name, f.pos)
		}
		ft, err := r.funcType(f)
		if err != nil {
			return nil, err
		}
		sigs[f.name] = ft
	}

	if len(sigs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "no exported functions")
	}
	return sigs, nil
}

func (r *resolver) funcType(f *funcDecl) (value.FuncType, error) {
	var ft value.FuncType
	for _, p := range f.params {
		t, err := r.valueType(p.typ)
		if err != nil {
			return value.FuncType{}, err
		}
		ft.Params = append(ft.Params, value.ParamType{Name: p.name, Type: t})
	}
	for _, res := range f.results {
		t, err := r.valueType(res.typ)
		if err != nil {
			return value.FuncType{}, err
		}
		ft.Results = append(ft.Results, t)
	}
	return ft, nil
}

func (r *resolver) valueType(te *typeExpr) (value.Type, error) {
	wt, err := r.resolve(te)
	if err != nil {
		return nil, err
	}
	t, err := FromWIT(wt)
	if err != nil {
		return nil, at(err, te.pos)
	}
	return t, nil
}
