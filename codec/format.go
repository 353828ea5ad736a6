package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/trigger-call/value"
)

// keywords are labels the parser gives a meaning of their own. Case names
// spelled like one are written with a leading '%'.
var keywords = map[string]bool{
	"true": true, "false": true,
	"inf": true, "nan": true,
	"some": true, "none": true,
	"ok": true, "err": true,
}

// Format renders v as literal text that Encode accepts under v.Type().
func Format(v value.Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v value.Value) {
	switch v := v.(type) {
	case value.Bool:
		b.WriteString(strconv.FormatBool(bool(v)))
	case value.S8:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case value.S16:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case value.S32:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case value.S64:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case value.U8:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case value.U16:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case value.U32:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case value.U64:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case value.F32:
		writeFloat(b, float64(v), 32)
	case value.F64:
		writeFloat(b, float64(v), 64)
	case value.Char:
		b.WriteByte('\'')
		writeRune(b, rune(v), '\'')
		b.WriteByte('\'')
	case value.String:
		b.WriteByte('"')
		for _, r := range string(v) {
			writeRune(b, r, '"')
		}
		b.WriteByte('"')

	case value.List:
		b.WriteByte('[')
		writeSeq(b, v.Elems)
		b.WriteByte(']')
	case value.Tuple:
		b.WriteByte('(')
		writeSeq(b, v.Elems)
		b.WriteByte(')')
	case value.Record:
		if len(v.Fields) == 0 {
			b.WriteString("{:}")
			return
		}
		b.WriteByte('{')
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.T.Fields[i].Name)
			b.WriteString(": ")
			writeValue(b, f)
		}
		b.WriteByte('}')

	case value.Variant:
		writeLabel(b, v.CaseName())
		writePayload(b, v.Payload)
	case value.Enum:
		writeLabel(b, v.CaseName())
	case value.Option:
		if !v.IsSome() {
			b.WriteString("none")
			return
		}
		b.WriteString("some")
		writePayload(b, v.Value)
	case value.Result:
		if v.IsErr {
			b.WriteString("err")
		} else {
			b.WriteString("ok")
		}
		writePayload(b, v.Value)
	case value.Flags:
		b.WriteByte('{')
		for i, name := range v.Names() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
		}
		b.WriteByte('}')

	case nil:
		b.WriteString("<nil>")
	default:
		b.WriteString("<unknown>")
	}
}

func writeSeq(b *strings.Builder, elems []value.Value) {
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		writeValue(b, e)
	}
}

func writePayload(b *strings.Builder, v value.Value) {
	if v == nil {
		return
	}
	b.WriteByte('(')
	writeValue(b, v)
	b.WriteByte(')')
}

func writeLabel(b *strings.Builder, name string) {
	if keywords[name] {
		b.WriteByte('%')
	}
	b.WriteString(name)
}

func writeFloat(b *strings.Builder, f float64, bits int) {
	switch {
	case math.IsNaN(f):
		b.WriteString("nan")
	case math.IsInf(f, 1):
		b.WriteString("inf")
	case math.IsInf(f, -1):
		b.WriteString("-inf")
	default:
		b.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
	}
}

func writeRune(b *strings.Builder, r rune, quote rune) {
	switch r {
	case '\\':
		b.WriteString(`\\`)
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\t':
		b.WriteString(`\t`)
	case quote:
		b.WriteByte('\\')
		b.WriteRune(r)
	default:
		if r < 0x20 || r == 0x7f {
			b.WriteString(`\u{`)
			b.WriteString(strconv.FormatInt(int64(r), 16))
			b.WriteByte('}')
			return
		}
		b.WriteRune(r)
	}
}
