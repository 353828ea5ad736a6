package codec

import (
	stderrors "errors"
	"math"
	"strconv"

	"fortio.org/safecast"

	"github.com/wippyai/trigger-call/callexpr"
	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

// Encode parses literal text as a value of type t.
func Encode(text string, t value.Type) (value.Value, error) {
	e, err := callexpr.ParseExpr(text)
	if err != nil {
		return nil, err
	}
	return EncodeExpr(e, t)
}

// EncodeExpr converts a parsed literal into a value of type t. The first
// error found, depth first in declared order, is returned.
func EncodeExpr(e callexpr.Expr, t value.Type) (value.Value, error) {
	return encode(e, t, nil)
}

func encode(e callexpr.Expr, t value.Type, path []string) (value.Value, error) {
	switch t := t.(type) {
	case value.PrimType:
		return encodePrim(e, t, path)
	case value.ListType:
		return encodeList(e, t, path)
	case value.RecordType:
		return encodeRecord(e, t, path)
	case value.TupleType:
		return encodeTuple(e, t, path)
	case value.VariantType:
		return encodeVariant(e, t, path)
	case value.EnumType:
		return encodeEnum(e, t, path)
	case value.OptionType:
		return encodeOption(e, t, path)
	case value.ResultType:
		return encodeResult(e, t, path)
	case value.FlagsType:
		return encodeFlags(e, t, path)
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Path(path...).
		Detail("unsupported type %T", t).
		Build()
}

func malformed(path []string, t value.Type, e callexpr.Expr, want string) error {
	return errors.Malformed(path, value.TypeString(t), "expected %s, found %s", want, describe(e))
}

func describe(e callexpr.Expr) string {
	text := e.Text()
	if len(text) > 32 {
		text = text[:29] + "..."
	}
	return strconv.Quote(text)
}

func encodePrim(e callexpr.Expr, t value.PrimType, path []string) (value.Value, error) {
	switch {
	case t == value.PrimBool:
		b, ok := e.(*callexpr.Bool)
		if !ok {
			return nil, malformed(path, t, e, "true or false")
		}
		return value.Bool(b.Value), nil

	case t == value.PrimString:
		s, ok := e.(*callexpr.String)
		if !ok {
			return nil, malformed(path, t, e, "a string literal")
		}
		return value.String(s.Value), nil

	case t == value.PrimChar:
		c, ok := e.(*callexpr.Char)
		if !ok {
			return nil, malformed(path, t, e, "a char literal")
		}
		return value.Char(c.Value), nil

	case t.IsInteger():
		n, ok := e.(*callexpr.Number)
		if !ok {
			return nil, malformed(path, t, e, "an integer")
		}
		if n.Suffix != "" && n.Suffix != t.String() {
			return nil, errors.Malformed(path, t.String(), "literal %s is suffixed %s", n.Text(), n.Suffix)
		}
		return encodeInteger(n, t, path)

	case t.IsFloat():
		n, ok := e.(*callexpr.Number)
		if !ok {
			return nil, malformed(path, t, e, "a number")
		}
		if n.Suffix != "" && n.Suffix != t.String() {
			return nil, errors.Malformed(path, t.String(), "literal %s is suffixed %s", n.Text(), n.Suffix)
		}
		return encodeFloat(n, t, path)
	}
	return nil, errors.Unsupported(errors.PhaseDecode, "primitive "+t.String())
}

func encodeInteger(n *callexpr.Number, t value.PrimType, path []string) (value.Value, error) {
	lit := n.Literal
	if !isIntegerLiteral(lit) {
		return nil, errors.Malformed(path, t.String(), "%s is not an integer", n.Text())
	}

	if t.IsSigned() {
		i, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, errors.Overflow(path, lit, t.String())
		}
		var v value.Value
		switch t {
		case value.PrimS8:
			var x int8
			x, err = safecast.Conv[int8](i)
			v = value.S8(x)
		case value.PrimS16:
			var x int16
			x, err = safecast.Conv[int16](i)
			v = value.S16(x)
		case value.PrimS32:
			var x int32
			x, err = safecast.Conv[int32](i)
			v = value.S32(x)
		default:
			v = value.S64(i)
		}
		if err != nil {
			return nil, errors.Overflow(path, lit, t.String())
		}
		return v, nil
	}

	if lit[0] == '-' {
		if isNegativeZero(lit) {
			lit = lit[1:]
		} else {
			return nil, errors.Overflow(path, lit, t.String())
		}
	}
	u, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		return nil, errors.Overflow(path, lit, t.String())
	}
	var v value.Value
	switch t {
	case value.PrimU8:
		var x uint8
		x, err = safecast.Conv[uint8](u)
		v = value.U8(x)
	case value.PrimU16:
		var x uint16
		x, err = safecast.Conv[uint16](u)
		v = value.U16(x)
	case value.PrimU32:
		var x uint32
		x, err = safecast.Conv[uint32](u)
		v = value.U32(x)
	default:
		v = value.U64(u)
	}
	if err != nil {
		return nil, errors.Overflow(path, n.Literal, t.String())
	}
	return v, nil
}

func isIntegerLiteral(lit string) bool {
	i := 0
	if i < len(lit) && lit[0] == '-' {
		i++
	}
	if i == len(lit) {
		return false
	}
	for ; i < len(lit); i++ {
		if lit[i] < '0' || lit[i] > '9' {
			return false
		}
	}
	return true
}

func isNegativeZero(lit string) bool {
	for _, c := range lit[1:] {
		if c != '0' {
			return false
		}
	}
	return true
}

func encodeFloat(n *callexpr.Number, t value.PrimType, path []string) (value.Value, error) {
	var f float64
	switch n.Literal {
	case "nan":
		f = math.NaN()
	case "inf":
		f = math.Inf(1)
	case "-inf":
		f = math.Inf(-1)
	default:
		var err error
		f, err = strconv.ParseFloat(n.Literal, t.Bits())
		switch {
		case err == nil:
		case math.IsInf(f, 0):
			return nil, errors.Overflow(path, n.Literal, t.String())
		case stderrors.Is(err, strconv.ErrRange):
			// underflow rounds to zero or a subnormal
		default:
			return nil, errors.Malformed(path, t.String(), "%s is not a number", n.Text())
		}
	}
	if t == value.PrimF32 {
		return value.F32(float32(f)), nil
	}
	return value.F64(f), nil
}

func encodeList(e callexpr.Expr, t value.ListType, path []string) (value.Value, error) {
	l, ok := e.(*callexpr.List)
	if !ok {
		return nil, malformed(path, t, e, "a list")
	}
	elems := make([]value.Value, len(l.Elems))
	for i, el := range l.Elems {
		v, err := encode(el, t.Elem, appendPath(path, "["+strconv.Itoa(i)+"]"))
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return value.List{T: t, Elems: elems}, nil
}

func encodeRecord(e callexpr.Expr, t value.RecordType, path []string) (value.Value, error) {
	var fields []callexpr.Field
	switch r := e.(type) {
	case *callexpr.Record:
		fields = r.Fields
	case *callexpr.Flags:
		// {} is ambiguous between empty flags and a record whose fields are
		// all optional.
		if len(r.Names) != 0 {
			return nil, malformed(path, t, e, "a record")
		}
	default:
		return nil, malformed(path, t, e, "a record")
	}

	for _, f := range fields {
		if t.FieldIndex(f.Name) < 0 {
			return nil, errors.Malformed(appendPath(path, f.Name), value.TypeString(t), "unknown field %q", f.Name)
		}
	}

	values := make([]value.Value, len(t.Fields))
	for i, ft := range t.Fields {
		fieldPath := appendPath(path, ft.Name)
		lit, found := findField(fields, ft.Name)
		if !found {
			if ot, isOpt := ft.Type.(value.OptionType); isOpt {
				values[i] = value.Option{T: ot}
				continue
			}
			return nil, errors.Malformed(fieldPath, value.TypeString(t), "missing field %q", ft.Name)
		}
		v, err := encode(lit, ft.Type, fieldPath)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return value.Record{T: t, Fields: values}, nil
}

func findField(fields []callexpr.Field, name string) (callexpr.Expr, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func encodeTuple(e callexpr.Expr, t value.TupleType, path []string) (value.Value, error) {
	tu, ok := e.(*callexpr.Tuple)
	if !ok {
		return nil, malformed(path, t, e, "a tuple")
	}
	if len(tu.Elems) != len(t.Types) {
		return nil, errors.Malformed(path, value.TypeString(t), "expected %d tuple elements, found %d", len(t.Types), len(tu.Elems))
	}
	elems := make([]value.Value, len(t.Types))
	for i, et := range t.Types {
		v, err := encode(tu.Elems[i], et, appendPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return value.Tuple{T: t, Elems: elems}, nil
}

func encodeVariant(e callexpr.Expr, t value.VariantType, path []string) (value.Value, error) {
	l, ok := e.(*callexpr.Label)
	if !ok {
		return nil, malformed(path, t, e, "a variant case")
	}
	idx := t.CaseIndex(l.Name)
	if idx < 0 {
		return nil, errors.UnknownCase(path, l.Name, value.TypeString(t))
	}
	payload, err := encodePayload(l, t.Cases[idx].Type, t, appendPath(path, l.Name))
	if err != nil {
		return nil, err
	}
	return value.Variant{T: t, Case: idx, Payload: payload}, nil
}

// encodePayload decodes the payload of a label against the case type pt,
// which is nil for cases without payload.
func encodePayload(l *callexpr.Label, pt value.Type, owner value.Type, path []string) (value.Value, error) {
	if pt == nil {
		if l.Payload != nil {
			return nil, errors.Malformed(path, value.TypeString(owner), "case %q takes no payload", l.Name)
		}
		return nil, nil
	}
	if l.Payload == nil {
		return nil, errors.Malformed(path, value.TypeString(owner), "case %q requires a payload", l.Name)
	}
	return encode(l.Payload, pt, path)
}

func encodeEnum(e callexpr.Expr, t value.EnumType, path []string) (value.Value, error) {
	l, ok := e.(*callexpr.Label)
	if !ok {
		return nil, malformed(path, t, e, "an enum case")
	}
	idx := t.CaseIndex(l.Name)
	if idx < 0 {
		return nil, errors.UnknownCase(path, l.Name, value.TypeString(t))
	}
	if l.Payload != nil {
		return nil, errors.Malformed(path, value.TypeString(t), "enum case %q takes no payload", l.Name)
	}
	return value.Enum{T: t, Case: idx}, nil
}

func encodeOption(e callexpr.Expr, t value.OptionType, path []string) (value.Value, error) {
	if l, ok := e.(*callexpr.Label); ok && !l.Escaped {
		switch l.Name {
		case "none":
			if l.Payload != nil {
				return nil, errors.Malformed(path, value.TypeString(t), "none takes no payload")
			}
			return value.Option{T: t}, nil
		case "some":
			if l.Payload == nil {
				return nil, errors.Malformed(path, value.TypeString(t), "some requires a payload")
			}
			v, err := encode(l.Payload, t.Type, appendPath(path, "some"))
			if err != nil {
				return nil, err
			}
			return value.Option{T: t, Value: v}, nil
		}
	}
	// A bare literal stands for some(literal) unless the inner type is
	// itself an option, where the shorthand would be ambiguous.
	if _, nested := t.Type.(value.OptionType); nested {
		return nil, malformed(path, t, e, "some(..) or none")
	}
	v, err := encode(e, t.Type, path)
	if err != nil {
		return nil, err
	}
	return value.Option{T: t, Value: v}, nil
}

func encodeResult(e callexpr.Expr, t value.ResultType, path []string) (value.Value, error) {
	l, ok := e.(*callexpr.Label)
	if !ok {
		return nil, malformed(path, t, e, "ok or err")
	}
	if l.Escaped || (l.Name != "ok" && l.Name != "err") {
		return nil, errors.UnknownCase(path, l.Name, value.TypeString(t))
	}
	isErr := l.Name == "err"
	pt := t.OK
	if isErr {
		pt = t.Err
	}
	v, err := encodePayload(l, pt, t, appendPath(path, l.Name))
	if err != nil {
		return nil, err
	}
	return value.Result{T: t, IsErr: isErr, Value: v}, nil
}

func encodeFlags(e callexpr.Expr, t value.FlagsType, path []string) (value.Value, error) {
	var names []string
	switch f := e.(type) {
	case *callexpr.Flags:
		names = f.Names
	case *callexpr.Record:
		// {:} is the empty record; accept it as no flags set.
		if len(f.Fields) != 0 {
			return nil, malformed(path, t, e, "a flags set")
		}
	default:
		return nil, malformed(path, t, e, "a flags set")
	}
	set := make([]bool, len(t.Names))
	for _, n := range names {
		idx := t.FlagIndex(n)
		if idx < 0 {
			return nil, errors.UnknownCase(path, n, value.TypeString(t))
		}
		set[idx] = true
	}
	return value.Flags{T: t, Set: set}, nil
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}
