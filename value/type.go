package value

import (
	"strings"
)

// Type is the static type of a value crossing the ABI.
// The set of implementations is closed.
type Type interface {
	isType()
}

// PrimType represents primitive types
type PrimType byte

const (
	PrimBool PrimType = iota + 1
	PrimS8
	PrimU8
	PrimS16
	PrimU16
	PrimS32
	PrimU32
	PrimS64
	PrimU64
	PrimF32
	PrimF64
	PrimChar
	PrimString
)

func (PrimType) isType() {}

var primNames = [...]string{
	PrimBool:   "bool",
	PrimS8:     "s8",
	PrimU8:     "u8",
	PrimS16:    "s16",
	PrimU16:    "u16",
	PrimS32:    "s32",
	PrimU32:    "u32",
	PrimS64:    "s64",
	PrimU64:    "u64",
	PrimF32:    "f32",
	PrimF64:    "f64",
	PrimChar:   "char",
	PrimString: "string",
}

func (p PrimType) String() string {
	if int(p) < len(primNames) && primNames[p] != "" {
		return primNames[p]
	}
	return "invalid"
}

// IsInteger reports whether p is one of the fixed-width integer types.
func (p PrimType) IsInteger() bool {
	return p >= PrimS8 && p <= PrimU64
}

// IsSigned reports whether p is a signed integer type.
func (p PrimType) IsSigned() bool {
	switch p {
	case PrimS8, PrimS16, PrimS32, PrimS64:
		return true
	}
	return false
}

// IsFloat reports whether p is f32 or f64.
func (p PrimType) IsFloat() bool {
	return p == PrimF32 || p == PrimF64
}

// Bits returns the width of numeric types, 0 otherwise.
func (p PrimType) Bits() int {
	switch p {
	case PrimS8, PrimU8:
		return 8
	case PrimS16, PrimU16:
		return 16
	case PrimS32, PrimU32, PrimF32, PrimChar:
		return 32
	case PrimS64, PrimU64, PrimF64:
		return 64
	}
	return 0
}

// ListType represents list<T>
type ListType struct {
	Elem Type
}

func (ListType) isType() {}

// RecordType represents a record with ordered named fields
type RecordType struct {
	Name   string
	Fields []FieldType
}

func (RecordType) isType() {}

// FieldType represents a field in a record type
type FieldType struct {
	Type Type
	Name string
}

// FieldIndex returns the position of the named field, or -1.
func (r RecordType) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// TupleType represents tuple<T...>
type TupleType struct {
	Types []Type
}

func (TupleType) isType() {}

// VariantType represents a tagged union
type VariantType struct {
	Name  string
	Cases []CaseType
}

func (VariantType) isType() {}

// CaseType represents a case in a variant type. Type is nil for cases
// without payload.
type CaseType struct {
	Type Type
	Name string
}

// CaseIndex returns the position of the named case, or -1.
func (v VariantType) CaseIndex(name string) int {
	for i, c := range v.Cases {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// EnumType represents an enum (cases without payload)
type EnumType struct {
	Name  string
	Cases []string
}

func (EnumType) isType() {}

// CaseIndex returns the position of the named case, or -1.
func (e EnumType) CaseIndex(name string) int {
	return indexOf(e.Cases, name)
}

// OptionType represents option<T>
type OptionType struct {
	Type Type
}

func (OptionType) isType() {}

// ResultType represents result<OK, Err>. Either side may be nil.
type ResultType struct {
	OK  Type
	Err Type
}

func (ResultType) isType() {}

// FlagsType represents a set of named bits
type FlagsType struct {
	Name  string
	Names []string
}

func (FlagsType) isType() {}

// FlagIndex returns the bit position of the named flag, or -1.
func (f FlagsType) FlagIndex(name string) int {
	return indexOf(f.Names, name)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// ParamType is a named function parameter
type ParamType struct {
	Type Type
	Name string
}

// FuncType is the signature of an exported function.
type FuncType struct {
	Params  []ParamType
	Results []Type
}

// ParamTypes returns the parameter types in declared order.
func (f FuncType) ParamTypes() []Type {
	types := make([]Type, len(f.Params))
	for i, p := range f.Params {
		types[i] = p.Type
	}
	return types
}

// String renders the signature in WIT syntax.
func (f FuncType) String() string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			b.WriteString(": ")
		}
		b.WriteString(TypeString(p.Type))
	}
	b.WriteByte(')')
	switch len(f.Results) {
	case 0:
	case 1:
		b.WriteString(" -> ")
		b.WriteString(TypeString(f.Results[0]))
	default:
		b.WriteString(" -> (")
		for i, r := range f.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(TypeString(r))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// TypeString renders t in WIT syntax. Named record, variant, enum and
// flags types render by name.
func TypeString(t Type) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t Type) {
	switch t := t.(type) {
	case nil:
		b.WriteString("_")
	case PrimType:
		b.WriteString(t.String())
	case ListType:
		b.WriteString("list<")
		writeType(b, t.Elem)
		b.WriteByte('>')
	case OptionType:
		b.WriteString("option<")
		writeType(b, t.Type)
		b.WriteByte('>')
	case ResultType:
		if t.OK == nil && t.Err == nil {
			b.WriteString("result")
			return
		}
		b.WriteString("result<")
		writeType(b, t.OK)
		if t.Err != nil {
			b.WriteString(", ")
			writeType(b, t.Err)
		}
		b.WriteByte('>')
	case TupleType:
		b.WriteString("tuple<")
		for i, e := range t.Types {
			if i > 0 {
				b.WriteString(", ")
			}
			writeType(b, e)
		}
		b.WriteByte('>')
	case RecordType:
		if t.Name != "" {
			b.WriteString(t.Name)
			return
		}
		b.WriteString("record { ")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			writeType(b, f.Type)
		}
		b.WriteString(" }")
	case VariantType:
		if t.Name != "" {
			b.WriteString(t.Name)
			return
		}
		b.WriteString("variant { ")
		for i, c := range t.Cases {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			if c.Type != nil {
				b.WriteByte('(')
				writeType(b, c.Type)
				b.WriteByte(')')
			}
		}
		b.WriteString(" }")
	case EnumType:
		if t.Name != "" {
			b.WriteString(t.Name)
			return
		}
		b.WriteString("enum { ")
		b.WriteString(strings.Join(t.Cases, ", "))
		b.WriteString(" }")
	case FlagsType:
		if t.Name != "" {
			b.WriteString(t.Name)
			return
		}
		b.WriteString("flags { ")
		b.WriteString(strings.Join(t.Names, ", "))
		b.WriteString(" }")
	default:
		b.WriteString("invalid")
	}
}

// TypeEqual reports structural equality. Type names are ignored.
func TypeEqual(a, b Type) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case PrimType:
		bb, ok := b.(PrimType)
		return ok && a == bb
	case ListType:
		bb, ok := b.(ListType)
		return ok && TypeEqual(a.Elem, bb.Elem)
	case OptionType:
		bb, ok := b.(OptionType)
		return ok && TypeEqual(a.Type, bb.Type)
	case ResultType:
		bb, ok := b.(ResultType)
		return ok && TypeEqual(a.OK, bb.OK) && TypeEqual(a.Err, bb.Err)
	case TupleType:
		bb, ok := b.(TupleType)
		if !ok || len(a.Types) != len(bb.Types) {
			return false
		}
		for i := range a.Types {
			if !TypeEqual(a.Types[i], bb.Types[i]) {
				return false
			}
		}
		return true
	case RecordType:
		bb, ok := b.(RecordType)
		if !ok || len(a.Fields) != len(bb.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != bb.Fields[i].Name || !TypeEqual(a.Fields[i].Type, bb.Fields[i].Type) {
				return false
			}
		}
		return true
	case VariantType:
		bb, ok := b.(VariantType)
		if !ok || len(a.Cases) != len(bb.Cases) {
			return false
		}
		for i := range a.Cases {
			if a.Cases[i].Name != bb.Cases[i].Name || !TypeEqual(a.Cases[i].Type, bb.Cases[i].Type) {
				return false
			}
		}
		return true
	case EnumType:
		bb, ok := b.(EnumType)
		return ok && equalStrings(a.Cases, bb.Cases)
	case FlagsType:
		bb, ok := b.(FlagsType)
		return ok && equalStrings(a.Names, bb.Names)
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
