package canon

import (
	"github.com/wippyai/trigger-call/value"
)

// Info is the size and alignment of a type in linear memory.
type Info struct {
	Size  uint32
	Align uint32
}

// Layout returns the memory layout of t.
func Layout(t value.Type) Info {
	switch t := t.(type) {
	case value.PrimType:
		switch t {
		case value.PrimBool, value.PrimS8, value.PrimU8:
			return Info{Size: 1, Align: 1}
		case value.PrimS16, value.PrimU16:
			return Info{Size: 2, Align: 2}
		case value.PrimS32, value.PrimU32, value.PrimF32, value.PrimChar:
			return Info{Size: 4, Align: 4}
		case value.PrimS64, value.PrimU64, value.PrimF64:
			return Info{Size: 8, Align: 8}
		case value.PrimString:
			return Info{Size: 8, Align: 4} // [ptr: u32, len: u32]
		}
	case value.ListType:
		return Info{Size: 8, Align: 4}
	case value.RecordType:
		return structLayout(fieldTypes(t))
	case value.TupleType:
		return structLayout(t.Types)
	case value.FlagsType:
		return flagsLayout(len(t.Names))
	case value.VariantType, value.EnumType, value.OptionType, value.ResultType:
		cases := caseTypes(t)
		info, _ := variantLayout(cases)
		return info
	}
	return Info{Size: 0, Align: 1}
}

func alignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// fieldOffsets returns the offset of each member of a record or tuple.
func fieldOffsets(types []value.Type) []uint32 {
	offs := make([]uint32, len(types))
	offset := uint32(0)
	for i, t := range types {
		l := Layout(t)
		offset = alignTo(offset, l.Align)
		offs[i] = offset
		offset += l.Size
	}
	return offs
}

func structLayout(types []value.Type) Info {
	maxAlign := uint32(1)
	offset := uint32(0)
	for _, t := range types {
		l := Layout(t)
		offset = alignTo(offset, l.Align)
		if l.Align > maxAlign {
			maxAlign = l.Align
		}
		offset += l.Size
	}
	return Info{Size: alignTo(offset, maxAlign), Align: maxAlign}
}

// variantLayout returns the layout of a variant with the given case
// payload types (nil for no payload) and the payload offset.
func variantLayout(cases []value.Type) (Info, uint32) {
	disc := discriminantSize(len(cases))
	maxAlign := disc
	maxSize := uint32(0)
	for _, c := range cases {
		if c == nil {
			continue
		}
		l := Layout(c)
		if l.Align > maxAlign {
			maxAlign = l.Align
		}
		if l.Size > maxSize {
			maxSize = l.Size
		}
	}
	payload := alignTo(disc, maxAlign)
	return Info{Size: alignTo(payload+maxSize, maxAlign), Align: maxAlign}, payload
}

// discriminantSize: 1 byte for <=256 cases, 2 for <=65536, else 4.
func discriminantSize(n int) uint32 {
	switch {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	}
	return 4
}

func flagsLayout(n int) Info {
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Info{Size: 1, Align: 1}
	case n <= 16:
		return Info{Size: 2, Align: 2}
	}
	return Info{Size: uint32(4 * flagWords(n)), Align: 4}
}

func flagWords(n int) int {
	return (n + 31) / 32
}

func fieldTypes(r value.RecordType) []value.Type {
	types := make([]value.Type, len(r.Fields))
	for i, f := range r.Fields {
		types[i] = f.Type
	}
	return types
}

// caseTypes returns the payload type of every case of a variant-shaped
// type. Options are variants none | some(T) and results are ok | err.
func caseTypes(t value.Type) []value.Type {
	switch t := t.(type) {
	case value.VariantType:
		cases := make([]value.Type, len(t.Cases))
		for i, c := range t.Cases {
			cases[i] = c.Type
		}
		return cases
	case value.EnumType:
		return make([]value.Type, len(t.Cases))
	case value.OptionType:
		return []value.Type{nil, t.Type}
	case value.ResultType:
		return []value.Type{t.OK, t.Err}
	}
	return nil
}
