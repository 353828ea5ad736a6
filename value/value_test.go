package value

import (
	"math"
	"testing"
)

func TestTypeString(t *testing.T) {
	named := RecordType{Name: "point", Fields: []FieldType{{Name: "x", Type: PrimS32}}}
	tests := []struct {
		typ  Type
		want string
	}{
		{PrimU32, "u32"},
		{ListType{Elem: PrimString}, "list<string>"},
		{OptionType{Type: ListType{Elem: PrimU8}}, "option<list<u8>>"},
		{ResultType{OK: PrimU32, Err: PrimString}, "result<u32, string>"},
		{ResultType{OK: PrimU32}, "result<u32>"},
		{ResultType{Err: PrimString}, "result<_, string>"},
		{ResultType{}, "result"},
		{TupleType{Types: []Type{PrimBool, PrimChar}}, "tuple<bool, char>"},
		{named, "point"},
		{RecordType{Fields: named.Fields}, "record { x: s32 }"},
		{VariantType{Cases: []CaseType{{Name: "a", Type: PrimU8}, {Name: "b"}}}, "variant { a(u8), b }"},
		{EnumType{Cases: []string{"red", "green"}}, "enum { red, green }"},
		{FlagsType{Names: []string{"read"}}, "flags { read }"},
	}
	for _, tt := range tests {
		if got := TypeString(tt.typ); got != tt.want {
			t.Errorf("TypeString = %q, want %q", got, tt.want)
		}
	}
}

func TestTypeEqual(t *testing.T) {
	rec := func(name string) RecordType {
		return RecordType{Name: name, Fields: []FieldType{{Name: "a", Type: PrimBool}}}
	}
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same prim", PrimU8, PrimU8, true},
		{"different prim", PrimU8, PrimS8, false},
		{"names ignored", rec("x"), rec("y"), true},
		{"field name differs", rec(""), RecordType{Fields: []FieldType{{Name: "b", Type: PrimBool}}}, false},
		{"list elem", ListType{Elem: PrimU8}, ListType{Elem: PrimU16}, false},
		{"result sides", ResultType{OK: PrimU8}, ResultType{Err: PrimU8}, false},
		{"enum order", EnumType{Cases: []string{"a", "b"}}, EnumType{Cases: []string{"b", "a"}}, false},
		{"kind differs", ListType{Elem: PrimU8}, OptionType{Type: PrimU8}, false},
		{"both nil", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("TypeEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	lt := ListType{Elem: PrimU8}
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"ints", U8(1), U8(1), true},
		{"widths differ", U8(1), U16(1), false},
		{"nan", F64(math.NaN()), F64(math.NaN()), true},
		{"signed zero", F64(0), F64(math.Copysign(0, -1)), false},
		{"lists", List{T: lt, Elems: []Value{U8(1)}}, List{T: lt, Elems: []Value{U8(1)}}, true},
		{"nil and empty list", List{T: lt}, List{T: lt, Elems: []Value{}}, true},
		{"list order", List{T: lt, Elems: []Value{U8(1), U8(2)}}, List{T: lt, Elems: []Value{U8(2), U8(1)}}, false},
		{"none vs some", None(PrimU8), Some(U8(0)), false},
		{"nil values", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	rt := RecordType{Fields: []FieldType{
		{Name: "id", Type: PrimU32},
		{Name: "tags", Type: ListType{Elem: PrimString}},
	}}
	vt := VariantType{Cases: []CaseType{{Name: "n", Type: PrimS64}, {Name: "empty"}}}
	res := ResultType{OK: PrimU8}

	good := []struct {
		v Value
		t Type
	}{
		{U32(1), PrimU32},
		{Char('a'), PrimChar},
		{Record{T: rt, Fields: []Value{U32(1), List{T: rt.Fields[1].Type.(ListType), Elems: []Value{String("x")}}}}, rt},
		{Variant{T: vt, Case: 0, Payload: S64(-1)}, vt},
		{Variant{T: vt, Case: 1}, vt},
		{None(PrimU8), OptionType{Type: PrimU8}},
		{Result{T: res, IsErr: true}, res},
		{Flags{T: FlagsType{Names: []string{"a"}}, Set: []bool{true}}, FlagsType{Names: []string{"a"}}},
	}
	for _, tt := range good {
		if err := Check(tt.v, tt.t); err != nil {
			t.Errorf("Check(%#v, %s) = %v", tt.v, TypeString(tt.t), err)
		}
	}

	bad := []struct {
		name string
		v    Value
		t    Type
	}{
		{"nil", nil, PrimU32},
		{"width", U8(1), PrimU32},
		{"surrogate char", Char(0xD800), PrimChar},
		{"record field", Record{T: rt, Fields: []Value{U32(1), String("x")}}, rt},
		{"short record", Record{T: rt, Fields: []Value{U32(1)}}, rt},
		{"missing payload", Variant{T: vt, Case: 0}, vt},
		{"extra payload", Variant{T: vt, Case: 1, Payload: S64(1)}, vt},
		{"case out of range", Variant{T: vt, Case: 5}, vt},
		{"ok without payload", Result{T: res}, res},
		{"flags count", Flags{T: FlagsType{Names: []string{"a"}}}, FlagsType{Names: []string{"a"}}},
		{"option inner", Option{T: OptionType{Type: PrimU8}, Value: U16(1)}, OptionType{Type: PrimU8}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if err := Check(tt.v, tt.t); err == nil {
				t.Errorf("Check succeeded, want error")
			}
		})
	}
}

func TestFuncType_String(t *testing.T) {
	ft := FuncType{
		Params:  []ParamType{{Name: "x", Type: PrimU32}, {Name: "y", Type: PrimU32}},
		Results: []Type{PrimU32},
	}
	if got := ft.String(); got != "func(x: u32, y: u32) -> u32" {
		t.Errorf("String = %q", got)
	}
	if got := len(ft.ParamTypes()); got != 2 {
		t.Errorf("ParamTypes len = %d", got)
	}
}
