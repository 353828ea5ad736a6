package canon

import (
	"math"
	"unicode/utf8"

	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

const (
	MaxStringSize = 1 << 30 // 1 GB max string size
	MaxListLength = 1 << 27 // 128M max elements
)

// Lifter reads values out of a guest, from flat core values or from
// linear memory.
type Lifter struct {
	mem Memory
}

// NewLifter creates a lifter over guest memory.
func NewLifter(mem Memory) *Lifter {
	return &Lifter{mem: mem}
}

// LiftResults converts the core results of a call to ft into values.
// When the results do not fit in MaxFlatResults flat values, flat holds a
// single pointer to a tuple of the results in guest memory.
func (l *Lifter) LiftResults(ft value.FuncType, flat []uint64) ([]value.Value, error) {
	sig := FlattenFunc(ft)
	if len(flat) != len(sig.Results) {
		return nil, invalidLift("expected %d core results, got %d", len(sig.Results), len(flat))
	}
	out := make([]value.Value, len(ft.Results))
	if sig.ResultsInMemory {
		ptr := uint32(flat[0])
		for i, off := range fieldOffsets(ft.Results) {
			v, err := l.Load(ft.Results[i], ptr+off)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	c := &cursor{vals: flat}
	for i, t := range ft.Results {
		v, err := l.liftFlat(t, c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// LiftFlat converts the flat core values of a single value of type t.
func (l *Lifter) LiftFlat(t value.Type, flat []uint64) (value.Value, error) {
	c := &cursor{vals: flat}
	v, err := l.liftFlat(t, c)
	if err != nil {
		return nil, err
	}
	if c.pos != len(flat) {
		return nil, invalidLift("%d flat values left over lifting %s", len(flat)-c.pos, value.TypeString(t))
	}
	return v, nil
}

type cursor struct {
	vals []uint64
	pos  int
}

func (c *cursor) next() (uint64, error) {
	if c.pos >= len(c.vals) {
		return 0, invalidLift("ran out of flat values")
	}
	v := c.vals[c.pos]
	c.pos++
	return v, nil
}

func (l *Lifter) liftFlat(t value.Type, c *cursor) (value.Value, error) {
	switch t := t.(type) {
	case value.PrimType:
		if t == value.PrimString {
			ptr, err := c.next()
			if err != nil {
				return nil, err
			}
			n, err := c.next()
			if err != nil {
				return nil, err
			}
			return l.loadString(uint32(ptr), uint32(n))
		}
		x, err := c.next()
		if err != nil {
			return nil, err
		}
		return primFromBits(t, x)

	case value.ListType:
		ptr, err := c.next()
		if err != nil {
			return nil, err
		}
		n, err := c.next()
		if err != nil {
			return nil, err
		}
		return l.loadList(t, uint32(ptr), uint32(n))

	case value.RecordType:
		fields := make([]value.Value, len(t.Fields))
		for i, f := range t.Fields {
			v, err := l.liftFlat(f.Type, c)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		return value.Record{T: t, Fields: fields}, nil

	case value.TupleType:
		elems := make([]value.Value, len(t.Types))
		for i, et := range t.Types {
			v, err := l.liftFlat(et, c)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.Tuple{T: t, Elems: elems}, nil

	case value.FlagsType:
		set := make([]bool, len(t.Names))
		for w := 0; w < flagWords(len(t.Names)); w++ {
			x, err := c.next()
			if err != nil {
				return nil, err
			}
			for b := 0; b < 32 && w*32+b < len(set); b++ {
				set[w*32+b] = x&(1<<b) != 0
			}
		}
		return value.Flags{T: t, Set: set}, nil

	case value.VariantType, value.EnumType, value.OptionType, value.ResultType:
		cases := caseTypes(t)
		d, err := c.next()
		if err != nil {
			return nil, err
		}
		if d >= uint64(len(cases)) {
			return nil, invalidLift("discriminant %d out of range for %s", d, value.TypeString(t))
		}
		width := len(variantPayloadFlat(cases))
		if c.pos+width > len(c.vals) {
			return nil, invalidLift("ran out of flat values")
		}
		var payload value.Value
		if pt := cases[d]; pt != nil {
			sub := &cursor{vals: c.vals[c.pos : c.pos+width]}
			if payload, err = l.liftFlat(pt, sub); err != nil {
				return nil, err
			}
		}
		c.pos += width
		return makeVariant(t, int(d), payload), nil
	}
	return nil, errors.New(errors.PhaseLift, errors.KindUnsupported).
		Detail("cannot lift %s", value.TypeString(t)).
		Build()
}

// primFromBits converts one flat value to a primitive other than string.
func primFromBits(t value.PrimType, x uint64) (value.Value, error) {
	switch t {
	case value.PrimBool:
		return value.Bool(uint32(x) != 0), nil
	case value.PrimS8:
		return value.S8(int8(x)), nil
	case value.PrimU8:
		return value.U8(uint8(x)), nil
	case value.PrimS16:
		return value.S16(int16(x)), nil
	case value.PrimU16:
		return value.U16(uint16(x)), nil
	case value.PrimS32:
		return value.S32(int32(x)), nil
	case value.PrimU32:
		return value.U32(uint32(x)), nil
	case value.PrimS64:
		return value.S64(int64(x)), nil
	case value.PrimU64:
		return value.U64(x), nil
	case value.PrimF32:
		return value.F32(math.Float32frombits(uint32(x))), nil
	case value.PrimF64:
		return value.F64(math.Float64frombits(x)), nil
	case value.PrimChar:
		r := rune(uint32(x))
		if uint32(x) > 0x10FFFF || !value.ValidChar(r) {
			return nil, invalidLift("char U+%X is not a scalar value", uint32(x))
		}
		return value.Char(r), nil
	}
	return nil, invalidLift("unexpected primitive %s", t)
}

// Load reads a value of type t stored at ptr.
func (l *Lifter) Load(t value.Type, ptr uint32) (value.Value, error) {
	switch t := t.(type) {
	case value.PrimType:
		return l.loadPrim(t, ptr)

	case value.ListType:
		p, n, err := l.loadPair(ptr)
		if err != nil {
			return nil, err
		}
		return l.loadList(t, p, n)

	case value.RecordType:
		types := fieldTypes(t)
		fields, err := l.loadFields(types, ptr)
		if err != nil {
			return nil, err
		}
		return value.Record{T: t, Fields: fields}, nil

	case value.TupleType:
		elems, err := l.loadFields(t.Types, ptr)
		if err != nil {
			return nil, err
		}
		return value.Tuple{T: t, Elems: elems}, nil

	case value.FlagsType:
		return l.loadFlags(t, ptr)

	case value.VariantType, value.EnumType, value.OptionType, value.ResultType:
		cases := caseTypes(t)
		d, err := l.loadDiscriminant(ptr, len(cases))
		if err != nil {
			return nil, err
		}
		if d >= uint32(len(cases)) {
			return nil, invalidLift("discriminant %d out of range for %s", d, value.TypeString(t))
		}
		var payload value.Value
		if pt := cases[d]; pt != nil {
			_, off := variantLayout(cases)
			if payload, err = l.Load(pt, ptr+off); err != nil {
				return nil, err
			}
		}
		return makeVariant(t, int(d), payload), nil
	}
	return nil, errors.New(errors.PhaseLift, errors.KindUnsupported).
		Detail("cannot load %s", value.TypeString(t)).
		Build()
}

func (l *Lifter) loadPrim(t value.PrimType, ptr uint32) (value.Value, error) {
	var x uint64
	switch Layout(t).Size {
	case 1:
		b, err := l.mem.ReadU8(ptr)
		if err != nil {
			return nil, outOfBounds(ptr, err)
		}
		x = uint64(b)
	case 2:
		h, err := l.mem.ReadU16(ptr)
		if err != nil {
			return nil, outOfBounds(ptr, err)
		}
		x = uint64(h)
	case 4:
		w, err := l.mem.ReadU32(ptr)
		if err != nil {
			return nil, outOfBounds(ptr, err)
		}
		x = uint64(w)
	case 8:
		if t == value.PrimString {
			p, n, err := l.loadPair(ptr)
			if err != nil {
				return nil, err
			}
			return l.loadString(p, n)
		}
		d, err := l.mem.ReadU64(ptr)
		if err != nil {
			return nil, outOfBounds(ptr, err)
		}
		x = d
	}
	return primFromBits(t, x)
}

func (l *Lifter) loadFields(types []value.Type, ptr uint32) ([]value.Value, error) {
	vals := make([]value.Value, len(types))
	for i, off := range fieldOffsets(types) {
		v, err := l.Load(types[i], ptr+off)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (l *Lifter) loadPair(ptr uint32) (uint32, uint32, error) {
	p, err := l.mem.ReadU32(ptr)
	if err != nil {
		return 0, 0, outOfBounds(ptr, err)
	}
	n, err := l.mem.ReadU32(ptr + 4)
	if err != nil {
		return 0, 0, outOfBounds(ptr+4, err)
	}
	return p, n, nil
}

func (l *Lifter) loadDiscriminant(ptr uint32, n int) (uint32, error) {
	switch discriminantSize(n) {
	case 1:
		b, err := l.mem.ReadU8(ptr)
		return uint32(b), outOfBounds(ptr, err)
	case 2:
		h, err := l.mem.ReadU16(ptr)
		return uint32(h), outOfBounds(ptr, err)
	}
	w, err := l.mem.ReadU32(ptr)
	return w, outOfBounds(ptr, err)
}

func (l *Lifter) loadFlags(t value.FlagsType, ptr uint32) (value.Value, error) {
	n := len(t.Names)
	set := make([]bool, n)
	words := make([]uint32, flagWords(n))
	switch {
	case n == 0:
	case n <= 8:
		b, err := l.mem.ReadU8(ptr)
		if err != nil {
			return nil, outOfBounds(ptr, err)
		}
		words[0] = uint32(b)
	case n <= 16:
		h, err := l.mem.ReadU16(ptr)
		if err != nil {
			return nil, outOfBounds(ptr, err)
		}
		words[0] = uint32(h)
	default:
		for i := range words {
			w, err := l.mem.ReadU32(ptr + uint32(4*i))
			if err != nil {
				return nil, outOfBounds(ptr, err)
			}
			words[i] = w
		}
	}
	for i := range set {
		set[i] = words[i/32]&(1<<(i%32)) != 0
	}
	return value.Flags{T: t, Set: set}, nil
}

func (l *Lifter) loadString(ptr, n uint32) (value.Value, error) {
	if n > MaxStringSize {
		return nil, invalidLift("string length %d exceeds limit", n)
	}
	if n == 0 {
		return value.String(""), nil
	}
	b, err := l.mem.Read(ptr, n)
	if err != nil {
		return nil, outOfBounds(ptr, err)
	}
	if !utf8.Valid(b) {
		return nil, invalidLift("string at %d is not valid UTF-8", ptr)
	}
	return value.String(string(b)), nil
}

func (l *Lifter) loadList(t value.ListType, ptr, n uint32) (value.Value, error) {
	if n > MaxListLength {
		return nil, invalidLift("list length %d exceeds limit", n)
	}
	elem := Layout(t.Elem)
	span := uint64(n) * uint64(max(elem.Size, 1))
	if uint64(ptr)+span > math.MaxUint32 {
		return nil, invalidLift("list at %d with %d elements overflows memory", ptr, n)
	}
	// The whole list must be in guest memory before anything is allocated
	// for it; zero-sized elements count as one byte each.
	if n > 0 {
		if _, err := l.mem.Read(ptr, uint32(span)); err != nil {
			return nil, outOfBounds(ptr, err)
		}
	}
	elems := make([]value.Value, n)
	for i := range elems {
		v, err := l.Load(t.Elem, ptr+uint32(i)*elem.Size)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return value.List{T: t, Elems: elems}, nil
}

func makeVariant(t value.Type, idx int, payload value.Value) value.Value {
	switch t := t.(type) {
	case value.VariantType:
		return value.Variant{T: t, Case: idx, Payload: payload}
	case value.EnumType:
		return value.Enum{T: t, Case: idx}
	case value.OptionType:
		return value.Option{T: t, Value: payload}
	case value.ResultType:
		return value.Result{T: t, IsErr: idx == 1, Value: payload}
	}
	return nil
}

func invalidLift(format string, args ...any) error {
	return errors.New(errors.PhaseLift, errors.KindInvalidData).Detail(format, args...).Build()
}

// outOfBounds wraps a memory access error; it returns nil for nil.
func outOfBounds(ptr uint32, err error) error {
	if err == nil {
		return nil
	}
	return errors.New(errors.PhaseLift, errors.KindOutOfBounds).
		Detail("memory access at %d", ptr).
		Cause(err).
		Build()
}
