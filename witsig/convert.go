package witsig

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

// FromWIT converts a WIT type to the bridge type model. Named type
// definitions keep their name. Handles and other types without a value
// representation are rejected. A nil type converts to nil.
func FromWIT(t wit.Type) (value.Type, error) {
	switch t := t.(type) {
	case nil:
		return nil, nil
	case wit.Bool:
		return value.PrimBool, nil
	case wit.S8:
		return value.PrimS8, nil
	case wit.U8:
		return value.PrimU8, nil
	case wit.S16:
		return value.PrimS16, nil
	case wit.U16:
		return value.PrimU16, nil
	case wit.S32:
		return value.PrimS32, nil
	case wit.U32:
		return value.PrimU32, nil
	case wit.S64:
		return value.PrimS64, nil
	case wit.U64:
		return value.PrimU64, nil
	case wit.F32:
		return value.PrimF32, nil
	case wit.F64:
		return value.PrimF64, nil
	case wit.Char:
		return value.PrimChar, nil
	case wit.String:
		return value.PrimString, nil
	case *wit.TypeDef:
		return fromTypeDef(t)
	}
	return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("WIT type %T", t))
}

func fromTypeDef(td *wit.TypeDef) (value.Type, error) {
	var name string
	if td.Name != nil {
		name = *td.Name
	}

	switch k := td.Kind.(type) {
	case *wit.Record:
		rec := value.RecordType{Name: name, Fields: make([]value.FieldType, len(k.Fields))}
		for i, f := range k.Fields {
			ft, err := FromWIT(f.Type)
			if err != nil {
				return nil, err
			}
			rec.Fields[i] = value.FieldType{Name: f.Name, Type: ft}
		}
		return rec, nil

	case *wit.Variant:
		v := value.VariantType{Name: name, Cases: make([]value.CaseType, len(k.Cases))}
		for i, c := range k.Cases {
			ct, err := FromWIT(c.Type)
			if err != nil {
				return nil, err
			}
			v.Cases[i] = value.CaseType{Name: c.Name, Type: ct}
		}
		return v, nil

	case *wit.Enum:
		e := value.EnumType{Name: name, Cases: make([]string, len(k.Cases))}
		for i, c := range k.Cases {
			e.Cases[i] = c.Name
		}
		return e, nil

	case *wit.Flags:
		f := value.FlagsType{Name: name, Names: make([]string, len(k.Flags))}
		for i, fl := range k.Flags {
			f.Names[i] = fl.Name
		}
		return f, nil

	case *wit.Tuple:
		tt := value.TupleType{Types: make([]value.Type, len(k.Types))}
		for i, e := range k.Types {
			et, err := FromWIT(e)
			if err != nil {
				return nil, err
			}
			tt.Types[i] = et
		}
		return tt, nil

	case *wit.List:
		elem, err := FromWIT(k.Type)
		if err != nil {
			return nil, err
		}
		return value.ListType{Elem: elem}, nil

	case *wit.Option:
		inner, err := FromWIT(k.Type)
		if err != nil {
			return nil, err
		}
		return value.OptionType{Type: inner}, nil

	case *wit.Result:
		ok, err := FromWIT(k.OK)
		if err != nil {
			return nil, err
		}
		e, err := FromWIT(k.Err)
		if err != nil {
			return nil, err
		}
		return value.ResultType{OK: ok, Err: e}, nil

	case *wit.Own, *wit.Borrow:
		if name != "" {
			return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("resource handle %s", name))
		}
		return nil, errors.Unsupported(errors.PhaseLoad, "resource handle")

	case wit.Type:
		// type alias
		return FromWIT(k)
	}
	return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("WIT type definition %T", td.Kind))
}
