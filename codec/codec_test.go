package codec

import (
	"errors"
	"math"
	"strings"
	"testing"

	cerrors "github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

var (
	pointType = value.RecordType{Name: "point", Fields: []value.FieldType{
		{Name: "x", Type: value.PrimU8},
		{Name: "y", Type: value.PrimU8},
	}}
	okErrType = value.VariantType{Cases: []value.CaseType{
		{Name: "ok", Type: value.PrimU32},
		{Name: "err", Type: value.PrimString},
	}}
	colorType = value.EnumType{Cases: []string{"red", "green", "none"}}
	permType  = value.FlagsType{Names: []string{"read", "write", "exec"}}
	shapeType = value.VariantType{Cases: []value.CaseType{
		{Name: "circle", Type: value.PrimF64},
		{Name: "rect", Type: value.TupleType{Types: []value.Type{value.PrimF64, value.PrimF64}}},
		{Name: "empty"},
	}}
)

func TestEncode_Primitives(t *testing.T) {
	tests := []struct {
		text string
		typ  value.Type
		want value.Value
	}{
		{"true", value.PrimBool, value.Bool(true)},
		{"false", value.PrimBool, value.Bool(false)},
		{"255", value.PrimU8, value.U8(255)},
		{"255u8", value.PrimU8, value.U8(255)},
		{"-128", value.PrimS8, value.S8(-128)},
		{"127", value.PrimS8, value.S8(127)},
		{"65535", value.PrimU16, value.U16(65535)},
		{"-32768", value.PrimS16, value.S16(-32768)},
		{"4294967295", value.PrimU32, value.U32(math.MaxUint32)},
		{"-2147483648", value.PrimS32, value.S32(math.MinInt32)},
		{"18446744073709551615", value.PrimU64, value.U64(math.MaxUint64)},
		{"-9223372036854775808", value.PrimS64, value.S64(math.MinInt64)},
		{"-0", value.PrimU32, value.U32(0)},
		{"1.5", value.PrimF32, value.F32(1.5)},
		{"1.5f32", value.PrimF32, value.F32(1.5)},
		{"-2.5e3", value.PrimF64, value.F64(-2500)},
		{"7", value.PrimF64, value.F64(7)},
		{"inf", value.PrimF64, value.F64(math.Inf(1))},
		{"-inf", value.PrimF32, value.F32(float32(math.Inf(-1)))},
		{"nan", value.PrimF64, value.F64(math.NaN())},
		{"'x'", value.PrimChar, value.Char('x')},
		{`'\u{1F600}'`, value.PrimChar, value.Char(0x1F600)},
		{`"hello"`, value.PrimString, value.String("hello")},
		{`"a\tb"`, value.PrimString, value.String("a\tb")},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Encode(tt.text, tt.typ)
			if err != nil {
				t.Fatalf("Encode(%q, %s) error: %v", tt.text, value.TypeString(tt.typ), err)
			}
			if !value.Equal(got, tt.want) {
				t.Errorf("Encode(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEncode_Overflow(t *testing.T) {
	if _, err := Encode("256", value.PrimU8); !errors.Is(err, cerrors.ErrOverflow) {
		t.Errorf("256 as u8: error = %v, want overflow", err)
	}
	v, err := Encode("255", value.PrimU8)
	if err != nil || v != value.U8(255) {
		t.Errorf("255 as u8 = %v, %v", v, err)
	}

	tests := []struct {
		text string
		typ  value.Type
	}{
		{"-1", value.PrimU32},
		{"-129", value.PrimS8},
		{"128", value.PrimS8},
		{"65536", value.PrimU16},
		{"4294967296", value.PrimU32},
		{"2147483648", value.PrimS32},
		{"18446744073709551616", value.PrimU64},
		{"9223372036854775808", value.PrimS64},
		{"1e39", value.PrimF32},
		{"1e309", value.PrimF64},
	}
	for _, tt := range tests {
		_, err := Encode(tt.text, tt.typ)
		if !errors.Is(err, cerrors.ErrOverflow) {
			t.Errorf("Encode(%q, %s) error = %v, want overflow", tt.text, value.TypeString(tt.typ), err)
		}
	}
}

func TestEncode_UnknownCase(t *testing.T) {
	tests := []struct {
		text string
		typ  value.Type
	}{
		{"bogus", okErrType},
		{"blue", colorType},
		{"{read, admin}", permType},
		{"bogus", value.ResultType{OK: value.PrimU8}},
		{"some(1)", value.ResultType{OK: value.PrimU8}},
	}
	for _, tt := range tests {
		_, err := Encode(tt.text, tt.typ)
		if !errors.Is(err, cerrors.ErrUnknownCase) {
			t.Errorf("Encode(%q) error = %v, want unknown case", tt.text, err)
		}
	}
}

func TestEncode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  value.Type
	}{
		{"bool for int", "true", value.PrimU32},
		{"string for bool", `"true"`, value.PrimBool},
		{"float for int", "1.5", value.PrimS32},
		{"suffix mismatch", "1u16", value.PrimU8},
		{"string for char", `"x"`, value.PrimChar},
		{"list for record", "[1, 2]", pointType},
		{"missing field", "{x: 1}", pointType},
		{"unknown field", "{x: 1, y: 2, z: 3}", pointType},
		{"tuple arity", "(1.0)", shapeType.Cases[1].Type},
		{"payload missing", "circle", shapeType},
		{"unexpected payload", "empty(1)", shapeType},
		{"enum payload", "red(1)", colorType},
		{"result literal", "[1]", value.ResultType{OK: value.PrimU8}},
		{"nested option shorthand", "5", value.OptionType{Type: value.OptionType{Type: value.PrimU8}}},
		{"none payload", "none(1)", value.OptionType{Type: value.PrimU8}},
		{"flags for list", "{read}", value.ListType{Elem: value.PrimString}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.text, tt.typ)
			if !errors.Is(err, cerrors.ErrMalformed) {
				t.Errorf("Encode(%q) error = %v, want malformed", tt.text, err)
			}
		})
	}
}

func TestEncode_ErrorPath(t *testing.T) {
	listOfPoints := value.ListType{Elem: pointType}
	tests := []struct {
		text string
		typ  value.Type
		path string
	}{
		{"{x: 1, y: 300}", pointType, "y"},
		{"[1, 2, 300]", value.ListType{Elem: value.PrimU8}, "[2]"},
		{"[{x: 1, y: 2}, {x: 256, y: 0}]", listOfPoints, "[1].x"},
		{"rect((1.0, true))", shapeType, "rect.1"},
	}
	for _, tt := range tests {
		_, err := Encode(tt.text, tt.typ)
		var e *cerrors.Error
		if !errors.As(err, &e) {
			t.Fatalf("Encode(%q) error = %v, want *errors.Error", tt.text, err)
		}
		if got := strings.Join(e.Path, "."); strings.ReplaceAll(got, ".[", "[") != tt.path {
			t.Errorf("Encode(%q) path = %v, want %s", tt.text, e.Path, tt.path)
		}
		if !strings.Contains(err.Error(), " at "+tt.path) {
			t.Errorf("error text %q does not name path %s", err.Error(), tt.path)
		}
	}
}

func TestEncode_SyntaxError(t *testing.T) {
	if _, err := Encode("[1, 2", value.ListType{Elem: value.PrimU8}); !errors.Is(err, cerrors.ErrSyntax) {
		t.Errorf("error = %v, want syntax error", err)
	}
}

func TestEncode_Option(t *testing.T) {
	opt := value.OptionType{Type: value.PrimU32}

	for _, text := range []string{"some(5)", "5"} {
		v, err := Encode(text, opt)
		if err != nil {
			t.Fatalf("Encode(%q): %v", text, err)
		}
		if !value.Equal(v, value.Option{T: opt, Value: value.U32(5)}) {
			t.Errorf("Encode(%q) = %#v", text, v)
		}
	}

	v, err := Encode("none", opt)
	if err != nil || v.(value.Option).IsSome() {
		t.Errorf("none = %#v, %v", v, err)
	}

	// An enum case spelled like a keyword needs the escape under option.
	optColor := value.OptionType{Type: colorType}
	v, err = Encode("%none", optColor)
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Option{T: optColor, Value: value.Enum{T: colorType, Case: 2}}) {
		t.Errorf("%%none = %#v", v)
	}
}

func TestEncode_RecordOmitsOptionFields(t *testing.T) {
	rt := value.RecordType{Fields: []value.FieldType{
		{Name: "name", Type: value.PrimString},
		{Name: "age", Type: value.OptionType{Type: value.PrimU8}},
	}}
	v, err := Encode(`{name: "ann"}`, rt)
	if err != nil {
		t.Fatal(err)
	}
	age, _ := v.(value.Record).Field("age")
	if age.(value.Option).IsSome() {
		t.Errorf("omitted age = %#v, want none", age)
	}

	allOptional := value.RecordType{Fields: rt.Fields[1:]}
	if _, err := Encode("{}", allOptional); err != nil {
		t.Errorf("{} for all-optional record: %v", err)
	}
}

func TestEncode_Flags(t *testing.T) {
	v, err := Encode("{exec, read}", permType)
	if err != nil {
		t.Fatal(err)
	}
	f := v.(value.Flags)
	if got := strings.Join(f.Names(), ","); got != "read,exec" {
		t.Errorf("flags = %s, want read,exec", got)
	}
	if Format(v) != "{read, exec}" {
		t.Errorf("Format = %s", Format(v))
	}
}

func TestCompositeRoundTripKeepsOrder(t *testing.T) {
	rt := value.RecordType{Fields: []value.FieldType{
		{Name: "a", Type: value.PrimBool},
		{Name: "b", Type: value.ListType{Elem: value.PrimString}},
	}}
	v, err := Encode(`{a: true, b: ["x","y"]}`, rt)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Format(v), `{a: true, b: ["x", "y"]}`; got != want {
		t.Errorf("Format = %s, want %s", got, want)
	}

	// Field order follows the declaration, not the literal.
	v, err = Encode(`{b: [], a: false}`, rt)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Format(v), `{a: false, b: []}`; got != want {
		t.Errorf("Format = %s, want %s", got, want)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    value.Value
		want string
	}{
		{value.U8(7), "7"},
		{value.S64(-42), "-42"},
		{value.F64(0.1), "0.1"},
		{value.F32(0.1), "0.1"},
		{value.F64(1e21), "1e+21"},
		{value.F64(math.Inf(-1)), "-inf"},
		{value.F32(float32(math.NaN())), "nan"},
		{value.Char('\''), `'\''`},
		{value.String("say \"hi\"\n"), `"say \"hi\"\n"`},
		{value.String("\x01"), `"\u{1}"`},
		{value.Enum{T: colorType, Case: 2}, "%none"},
		{value.Enum{T: colorType, Case: 0}, "red"},
		{value.Record{T: value.RecordType{}}, "{:}"},
		{value.Flags{T: permType, Set: make([]bool, 3)}, "{}"},
		{value.Option{T: value.OptionType{Type: value.PrimU8}}, "none"},
		{value.Result{T: value.ResultType{}}, "ok"},
		{value.Result{T: value.ResultType{Err: value.PrimString}, IsErr: true, Value: value.String("x")}, `err("x")`},
		{value.Variant{T: shapeType, Case: 1, Payload: value.Tuple{
			T:     shapeType.Cases[1].Type.(value.TupleType),
			Elems: []value.Value{value.F64(1), value.F64(2.5)},
		}}, "rect((1, 2.5))"},
	}
	for _, tt := range tests {
		if got := Format(tt.v); got != tt.want {
			t.Errorf("Format(%#v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	optU8 := value.OptionType{Type: value.PrimU8}
	nested := value.OptionType{Type: optU8}
	res := value.ResultType{OK: value.ListType{Elem: value.PrimChar}, Err: okErrType}
	tuple := value.TupleType{Types: []value.Type{value.PrimString, value.PrimS16, permType}}
	emptyRec := value.RecordType{}

	values := []value.Value{
		value.Bool(false),
		value.S8(-5),
		value.U16(9),
		value.S32(math.MinInt32),
		value.U64(math.MaxUint64),
		value.F32(3.4028235e38),
		value.F32(1e-45),
		value.F64(math.SmallestNonzeroFloat64),
		value.F64(-0.0),
		value.F64(math.Copysign(0, -1)),
		value.F64(123456789.125),
		value.F64(math.NaN()),
		value.Char('é'),
		value.Char('"'),
		value.String(""),
		value.String(`back\slash 'q' "dq" ` + "\r\t\x7f"),
		value.Record{T: pointType, Fields: []value.Value{value.U8(1), value.U8(2)}},
		value.Record{T: emptyRec},
		value.List{T: value.ListType{Elem: pointType}},
		value.Tuple{T: tuple, Elems: []value.Value{
			value.String("t"), value.S16(-1), value.Flags{T: permType, Set: []bool{true, false, true}},
		}},
		value.Variant{T: okErrType, Case: 1, Payload: value.String("boom")},
		value.Variant{T: shapeType, Case: 2},
		value.Enum{T: colorType, Case: 1},
		value.Enum{T: colorType, Case: 2},
		value.Option{T: optU8, Value: value.U8(0)},
		value.Option{T: nested, Value: value.Option{T: optU8}},
		value.Option{T: nested},
		value.Result{T: res, Value: value.List{T: value.ListType{Elem: value.PrimChar}, Elems: []value.Value{value.Char('a')}}},
		value.Result{T: res, IsErr: true, Value: value.Variant{T: okErrType, Case: 0, Payload: value.U32(1)}},
		value.Flags{T: permType, Set: []bool{false, false, false}},
	}

	for _, v := range values {
		text := Format(v)
		got, err := Encode(text, v.Type())
		if err != nil {
			t.Errorf("Encode(Format(%#v) = %q): %v", v, text, err)
			continue
		}
		if !value.Equal(got, v) {
			t.Errorf("round trip of %q: got %#v, want %#v", text, got, v)
		}
	}
}
