package canon

import (
	"math"

	"fortio.org/safecast"

	"github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

// Lowerer writes values into a guest: as flat core values, or into linear
// memory at a pointer. Strings and lists are copied into guest allocations.
type Lowerer struct {
	mem    Memory
	alloc  Allocator
	allocs allocations
}

// NewLowerer creates a lowerer over guest memory and its allocator.
func NewLowerer(mem Memory, alloc Allocator) *Lowerer {
	return &Lowerer{mem: mem, alloc: alloc}
}

// Release frees every allocation made so far. Call it when lowering or the
// call that follows fails before the guest took ownership.
func (l *Lowerer) Release() {
	if l.alloc != nil {
		l.allocs.free(l.alloc)
	}
}

// LowerParams lowers the arguments of a call to ft. When the parameters
// flatten to more than MaxFlatParams values they are stored as a tuple in
// guest memory and the single result is the pointer to it.
func (l *Lowerer) LowerParams(ft value.FuncType, args []value.Value) ([]uint64, error) {
	if len(args) != len(ft.Params) {
		return nil, errors.New(errors.PhaseLower, errors.KindInvalidInput).
			Detail("expected %d arguments, got %d", len(ft.Params), len(args)).
			Build()
	}
	sig := FlattenFunc(ft)
	if !sig.ParamsInMemory {
		flat := make([]uint64, 0, len(sig.Params))
		for _, a := range args {
			var err error
			if flat, err = l.appendFlat(flat, a); err != nil {
				return nil, err
			}
		}
		return flat, nil
	}

	types := ft.ParamTypes()
	info := structLayout(types)
	ptr, err := l.allocate(info.Size, info.Align)
	if err != nil {
		return nil, err
	}
	for i, off := range fieldOffsets(types) {
		if err := l.Store(args[i], ptr+off); err != nil {
			return nil, err
		}
	}
	return []uint64{uint64(ptr)}, nil
}

// LowerFlat returns the flat core values of v.
func (l *Lowerer) LowerFlat(v value.Value) ([]uint64, error) {
	return l.appendFlat(nil, v)
}

func (l *Lowerer) appendFlat(out []uint64, v value.Value) ([]uint64, error) {
	switch v := v.(type) {
	case value.Bool:
		if v {
			return append(out, 1), nil
		}
		return append(out, 0), nil
	case value.S8:
		return append(out, uint64(uint32(int32(v)))), nil
	case value.U8:
		return append(out, uint64(v)), nil
	case value.S16:
		return append(out, uint64(uint32(int32(v)))), nil
	case value.U16:
		return append(out, uint64(v)), nil
	case value.S32:
		return append(out, uint64(uint32(v))), nil
	case value.U32:
		return append(out, uint64(v)), nil
	case value.S64:
		return append(out, uint64(v)), nil
	case value.U64:
		return append(out, uint64(v)), nil
	case value.F32:
		return append(out, uint64(math.Float32bits(float32(v)))), nil
	case value.F64:
		return append(out, math.Float64bits(float64(v))), nil
	case value.Char:
		if !value.ValidChar(rune(v)) {
			return nil, invalidData("char U+%X is not a scalar value", rune(v))
		}
		return append(out, uint64(uint32(v))), nil
	case value.String:
		ptr, n, err := l.storeBytes([]byte(v))
		if err != nil {
			return nil, err
		}
		return append(out, uint64(ptr), uint64(n)), nil
	case value.List:
		ptr, n, err := l.storeList(v)
		if err != nil {
			return nil, err
		}
		return append(out, uint64(ptr), uint64(n)), nil
	case value.Record:
		for _, f := range v.Fields {
			var err error
			if out, err = l.appendFlat(out, f); err != nil {
				return nil, err
			}
		}
		return out, nil
	case value.Tuple:
		for _, e := range v.Elems {
			var err error
			if out, err = l.appendFlat(out, e); err != nil {
				return nil, err
			}
		}
		return out, nil
	case value.Flags:
		words := make([]uint64, flagWords(len(v.Set)))
		for i, on := range v.Set {
			if on {
				words[i/32] |= 1 << (i % 32)
			}
		}
		return append(out, words...), nil
	case value.Variant, value.Enum, value.Option, value.Result:
		idx, payload, cases := variantParts(v)
		width := len(variantPayloadFlat(cases))
		out = append(out, uint64(idx))
		start := len(out)
		if payload != nil {
			var err error
			if out, err = l.appendFlat(out, payload); err != nil {
				return nil, err
			}
		}
		// Joined slots hold every case in the same bit representation,
		// so only padding is needed.
		for len(out)-start < width {
			out = append(out, 0)
		}
		return out, nil
	}
	return nil, errors.New(errors.PhaseLower, errors.KindUnsupported).
		Detail("cannot lower %T", v).
		Build()
}

// Store writes v into guest memory at ptr using its memory layout.
func (l *Lowerer) Store(v value.Value, ptr uint32) error {
	switch v := v.(type) {
	case value.Bool:
		b := uint8(0)
		if v {
			b = 1
		}
		return l.mem.WriteU8(ptr, b)
	case value.S8:
		return l.mem.WriteU8(ptr, uint8(v))
	case value.U8:
		return l.mem.WriteU8(ptr, uint8(v))
	case value.S16:
		return l.mem.WriteU16(ptr, uint16(v))
	case value.U16:
		return l.mem.WriteU16(ptr, uint16(v))
	case value.S32:
		return l.mem.WriteU32(ptr, uint32(v))
	case value.U32:
		return l.mem.WriteU32(ptr, uint32(v))
	case value.S64:
		return l.mem.WriteU64(ptr, uint64(v))
	case value.U64:
		return l.mem.WriteU64(ptr, uint64(v))
	case value.F32:
		return l.mem.WriteU32(ptr, math.Float32bits(float32(v)))
	case value.F64:
		return l.mem.WriteU64(ptr, math.Float64bits(float64(v)))
	case value.Char:
		if !value.ValidChar(rune(v)) {
			return invalidData("char U+%X is not a scalar value", rune(v))
		}
		return l.mem.WriteU32(ptr, uint32(v))
	case value.String:
		p, n, err := l.storeBytes([]byte(v))
		if err != nil {
			return err
		}
		return l.storePair(ptr, p, n)
	case value.List:
		p, n, err := l.storeList(v)
		if err != nil {
			return err
		}
		return l.storePair(ptr, p, n)
	case value.Record:
		return l.storeFields(v.Fields, fieldTypes(v.T), ptr)
	case value.Tuple:
		return l.storeFields(v.Elems, v.T.Types, ptr)
	case value.Flags:
		return l.storeFlags(v, ptr)
	case value.Variant, value.Enum, value.Option, value.Result:
		idx, payload, cases := variantParts(v)
		_, payloadOff := variantLayout(cases)
		if err := l.storeDiscriminant(ptr, idx, len(cases)); err != nil {
			return err
		}
		if payload == nil {
			return nil
		}
		return l.Store(payload, ptr+payloadOff)
	}
	return errors.New(errors.PhaseLower, errors.KindUnsupported).
		Detail("cannot store %T", v).
		Build()
}

func (l *Lowerer) storeFields(vals []value.Value, types []value.Type, ptr uint32) error {
	for i, off := range fieldOffsets(types) {
		if err := l.Store(vals[i], ptr+off); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) storePair(at, ptr, n uint32) error {
	if err := l.mem.WriteU32(at, ptr); err != nil {
		return err
	}
	return l.mem.WriteU32(at+4, n)
}

func (l *Lowerer) storeDiscriminant(ptr uint32, idx, n int) error {
	switch discriminantSize(n) {
	case 1:
		return l.mem.WriteU8(ptr, uint8(idx))
	case 2:
		return l.mem.WriteU16(ptr, uint16(idx))
	}
	return l.mem.WriteU32(ptr, uint32(idx))
}

func (l *Lowerer) storeFlags(v value.Flags, ptr uint32) error {
	n := len(v.Set)
	if n == 0 {
		return nil
	}
	words := make([]uint32, flagWords(n))
	for i, on := range v.Set {
		if on {
			words[i/32] |= 1 << (i % 32)
		}
	}
	switch {
	case n <= 8:
		return l.mem.WriteU8(ptr, uint8(words[0]))
	case n <= 16:
		return l.mem.WriteU16(ptr, uint16(words[0]))
	}
	for i, w := range words {
		if err := l.mem.WriteU32(ptr+uint32(4*i), w); err != nil {
			return err
		}
	}
	return nil
}

// storeBytes copies b into a fresh guest allocation.
func (l *Lowerer) storeBytes(b []byte) (uint32, uint32, error) {
	n, err := safecast.Conv[uint32](len(b))
	if err != nil {
		return 0, 0, invalidData("string of %d bytes does not fit in guest memory", len(b))
	}
	ptr, err := l.allocate(n, 1)
	if err != nil {
		return 0, 0, err
	}
	if n > 0 {
		if err := l.mem.Write(ptr, b); err != nil {
			return 0, 0, err
		}
	}
	return ptr, n, nil
}

func (l *Lowerer) storeList(v value.List) (uint32, uint32, error) {
	elem := Layout(v.T.Elem)
	n, err := safecast.Conv[uint32](len(v.Elems))
	if err != nil {
		return 0, 0, invalidData("list of %d elements does not fit in guest memory", len(v.Elems))
	}
	size := uint64(elem.Size) * uint64(n)
	total, err := safecast.Conv[uint32](size)
	if err != nil {
		return 0, 0, invalidData("list of %d bytes does not fit in guest memory", size)
	}
	ptr, err := l.allocate(total, elem.Align)
	if err != nil {
		return 0, 0, err
	}
	for i, e := range v.Elems {
		if err := l.Store(e, ptr+uint32(i)*elem.Size); err != nil {
			return 0, 0, err
		}
	}
	return ptr, n, nil
}

func (l *Lowerer) allocate(size, align uint32) (uint32, error) {
	if l.alloc == nil {
		return 0, errors.New(errors.PhaseLower, errors.KindUnsupported).
			Detail("guest exports no allocator").
			Build()
	}
	ptr, err := l.alloc.Alloc(size, align)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseLower, errors.KindHostFailure, err, "guest allocation failed")
	}
	l.allocs.add(ptr, size, align)
	return ptr, nil
}

// variantParts returns the selected case index, its payload and the
// payload types of all cases of a variant-shaped value.
func variantParts(v value.Value) (int, value.Value, []value.Type) {
	switch v := v.(type) {
	case value.Variant:
		return v.Case, v.Payload, caseTypes(v.T)
	case value.Enum:
		return v.Case, nil, caseTypes(v.T)
	case value.Option:
		if v.IsSome() {
			return 1, v.Value, caseTypes(v.T)
		}
		return 0, nil, caseTypes(v.T)
	case value.Result:
		if v.IsErr {
			return 1, v.Value, caseTypes(v.T)
		}
		return 0, v.Value, caseTypes(v.T)
	}
	return 0, nil, nil
}

func invalidData(format string, args ...any) error {
	return errors.New(errors.PhaseLower, errors.KindInvalidData).Detail(format, args...).Build()
}
