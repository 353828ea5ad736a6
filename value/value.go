package value

import (
	"fmt"
	"math"
)

// Value is a typed runtime value. Every Value reports the single Type it
// is well-typed against.
type Value interface {
	Type() Type
}

type (
	Bool   bool
	S8     int8
	U8     uint8
	S16    int16
	U16    uint16
	S32    int32
	U32    uint32
	S64    int64
	U64    uint64
	F32    float32
	F64    float64
	Char   rune
	String string
)

func (Bool) Type() Type   { return PrimBool }
func (S8) Type() Type     { return PrimS8 }
func (U8) Type() Type     { return PrimU8 }
func (S16) Type() Type    { return PrimS16 }
func (U16) Type() Type    { return PrimU16 }
func (S32) Type() Type    { return PrimS32 }
func (U32) Type() Type    { return PrimU32 }
func (S64) Type() Type    { return PrimS64 }
func (U64) Type() Type    { return PrimU64 }
func (F32) Type() Type    { return PrimF32 }
func (F64) Type() Type    { return PrimF64 }
func (Char) Type() Type   { return PrimChar }
func (String) Type() Type { return PrimString }

// List is a list value. Elems all check against T.Elem.
type List struct {
	T     ListType
	Elems []Value
}

func (l List) Type() Type { return l.T }

// Record holds one value per declared field, in declared order.
type Record struct {
	T      RecordType
	Fields []Value
}

func (r Record) Type() Type { return r.T }

// Field returns the value of the named field.
func (r Record) Field(name string) (Value, bool) {
	i := r.T.FieldIndex(name)
	if i < 0 || i >= len(r.Fields) {
		return nil, false
	}
	return r.Fields[i], true
}

// Tuple holds one value per tuple element.
type Tuple struct {
	T     TupleType
	Elems []Value
}

func (t Tuple) Type() Type { return t.T }

// Variant is one case of a variant type. Payload is nil for cases
// declared without payload.
type Variant struct {
	T       VariantType
	Payload Value
	Case    int
}

func (v Variant) Type() Type { return v.T }

// CaseName returns the name of the selected case.
func (v Variant) CaseName() string { return v.T.Cases[v.Case].Name }

// Enum is one case of an enum type.
type Enum struct {
	T    EnumType
	Case int
}

func (e Enum) Type() Type { return e.T }

// CaseName returns the name of the selected case.
func (e Enum) CaseName() string { return e.T.Cases[e.Case] }

// Option is some(Value) or none when Value is nil.
type Option struct {
	T     OptionType
	Value Value
}

func (o Option) Type() Type { return o.T }

// IsSome reports whether the option holds a value.
func (o Option) IsSome() bool { return o.Value != nil }

// Result is ok(Value) or err(Value). Value is nil when the selected side
// has no payload type.
type Result struct {
	T     ResultType
	Value Value
	IsErr bool
}

func (r Result) Type() Type { return r.T }

// Flags records which declared flags are set; Set has one entry per name.
type Flags struct {
	T   FlagsType
	Set []bool
}

func (f Flags) Type() Type { return f.T }

// Names returns the set flag names in declared order.
func (f Flags) Names() []string {
	var names []string
	for i, on := range f.Set {
		if on {
			names = append(names, f.T.Names[i])
		}
	}
	return names
}

// Equal reports structural equality of two values. Floats compare by bit
// pattern after NaN canonicalization so that NaN equals NaN.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case F32:
		bb, ok := b.(F32)
		return ok && canonF32(float32(a)) == canonF32(float32(bb))
	case F64:
		bb, ok := b.(F64)
		return ok && canonF64(float64(a)) == canonF64(float64(bb))
	case Bool, S8, U8, S16, U16, S32, U32, S64, U64, Char, String:
		return a == b
	case List:
		bb, ok := b.(List)
		return ok && TypeEqual(a.T, bb.T) && equalValues(a.Elems, bb.Elems)
	case Record:
		bb, ok := b.(Record)
		return ok && TypeEqual(a.T, bb.T) && equalValues(a.Fields, bb.Fields)
	case Tuple:
		bb, ok := b.(Tuple)
		return ok && TypeEqual(a.T, bb.T) && equalValues(a.Elems, bb.Elems)
	case Variant:
		bb, ok := b.(Variant)
		return ok && TypeEqual(a.T, bb.T) && a.Case == bb.Case && Equal(a.Payload, bb.Payload)
	case Enum:
		bb, ok := b.(Enum)
		return ok && TypeEqual(a.T, bb.T) && a.Case == bb.Case
	case Option:
		bb, ok := b.(Option)
		return ok && TypeEqual(a.T, bb.T) && Equal(a.Value, bb.Value)
	case Result:
		bb, ok := b.(Result)
		return ok && TypeEqual(a.T, bb.T) && a.IsErr == bb.IsErr && Equal(a.Value, bb.Value)
	case Flags:
		bb, ok := b.(Flags)
		if !ok || !TypeEqual(a.T, bb.T) || len(a.Set) != len(bb.Set) {
			return false
		}
		for i := range a.Set {
			if a.Set[i] != bb.Set[i] {
				return false
			}
		}
		return true
	}
	return false
}

func equalValues(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func canonF32(f float32) uint32 {
	if f != f {
		return 0x7fc00000
	}
	return math.Float32bits(f)
}

func canonF64(f float64) uint64 {
	if f != f {
		return 0x7ff8000000000000
	}
	return math.Float64bits(f)
}

// Check verifies that v is well-typed against t, recursively.
func Check(v Value, t Type) error {
	if v == nil {
		return fmt.Errorf("missing value of type %s", TypeString(t))
	}
	switch t := t.(type) {
	case PrimType:
		if pt, ok := v.Type().(PrimType); !ok || pt != t {
			return mismatch(v, t)
		}
		if c, ok := v.(Char); ok && !ValidChar(rune(c)) {
			return fmt.Errorf("invalid char U+%04X", rune(c))
		}
		return nil
	case ListType:
		l, ok := v.(List)
		if !ok || !TypeEqual(l.T, t) {
			return mismatch(v, t)
		}
		for i, e := range l.Elems {
			if err := Check(e, t.Elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	case RecordType:
		r, ok := v.(Record)
		if !ok || !TypeEqual(r.T, t) || len(r.Fields) != len(t.Fields) {
			return mismatch(v, t)
		}
		for i, f := range t.Fields {
			if err := Check(r.Fields[i], f.Type); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
		return nil
	case TupleType:
		tu, ok := v.(Tuple)
		if !ok || !TypeEqual(tu.T, t) || len(tu.Elems) != len(t.Types) {
			return mismatch(v, t)
		}
		for i, et := range t.Types {
			if err := Check(tu.Elems[i], et); err != nil {
				return fmt.Errorf("%d: %w", i, err)
			}
		}
		return nil
	case VariantType:
		vv, ok := v.(Variant)
		if !ok || !TypeEqual(vv.T, t) || vv.Case < 0 || vv.Case >= len(t.Cases) {
			return mismatch(v, t)
		}
		return checkPayload(vv.Payload, t.Cases[vv.Case].Type, t.Cases[vv.Case].Name)
	case EnumType:
		e, ok := v.(Enum)
		if !ok || !TypeEqual(e.T, t) || e.Case < 0 || e.Case >= len(t.Cases) {
			return mismatch(v, t)
		}
		return nil
	case OptionType:
		o, ok := v.(Option)
		if !ok || !TypeEqual(o.T, t) {
			return mismatch(v, t)
		}
		if o.Value == nil {
			return nil
		}
		return checkPayload(o.Value, t.Type, "some")
	case ResultType:
		r, ok := v.(Result)
		if !ok || !TypeEqual(r.T, t) {
			return mismatch(v, t)
		}
		if r.IsErr {
			return checkPayload(r.Value, t.Err, "err")
		}
		return checkPayload(r.Value, t.OK, "ok")
	case FlagsType:
		f, ok := v.(Flags)
		if !ok || !TypeEqual(f.T, t) || len(f.Set) != len(t.Names) {
			return mismatch(v, t)
		}
		return nil
	}
	return fmt.Errorf("unknown type %T", t)
}

func checkPayload(v Value, t Type, label string) error {
	if t == nil {
		if v != nil {
			return fmt.Errorf("%s: unexpected payload", label)
		}
		return nil
	}
	if err := Check(v, t); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

func mismatch(v Value, t Type) error {
	return fmt.Errorf("value of type %s does not match %s", TypeString(v.Type()), TypeString(t))
}

// ValidChar reports whether r is a Unicode scalar value.
func ValidChar(r rune) bool {
	return r >= 0 && r <= 0x10FFFF && (r < 0xD800 || r > 0xDFFF)
}

// Zero-value constructors for composite kinds.

// None returns the none value of option<t>.
func None(t Type) Option {
	return Option{T: OptionType{Type: t}}
}

// Some wraps v in an option of v's type.
func Some(v Value) Option {
	return Option{T: OptionType{Type: v.Type()}, Value: v}
}
