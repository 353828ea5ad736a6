package wasmtest

import "github.com/tetratelabs/wazero/api"

var (
	i32 = api.ValueTypeI32
)

// WithRealloc adds a bump allocator exported as cabi_realloc. The heap
// starts at heapStart and is never reclaimed.
func (m *Module) WithRealloc(heapStart int32) *Module {
	heap := m.Global(api.ValueTypeI32, true, int64(heapStart))
	return m.Func("cabi_realloc",
		[]api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}, []api.ValueType{i32},
		// aligned := (heap + align - 1) & -align
		GlobalGet(heap), LocalGet(2), I32Add(), I32Const(1), I32Sub(),
		I32Const(0), LocalGet(2), I32Sub(), I32And(),
		LocalTee(4),
		// heap = aligned + newSize
		LocalGet(3), I32Add(), GlobalSet(heap),
		LocalGet(4),
	)
}
