package canon

import (
	triggercall "github.com/wippyai/trigger-call"
)

type Memory = triggercall.Memory
type Allocator = triggercall.Allocator

type allocation struct {
	ptr, size, align uint32
}

// allocations records guest allocations made while lowering so they can
// be returned when lowering fails part way.
type allocations struct {
	list []allocation
}

func (a *allocations) add(ptr, size, align uint32) {
	a.list = append(a.list, allocation{ptr: ptr, size: size, align: align})
}

func (a *allocations) free(alloc Allocator) {
	for _, al := range a.list {
		if al.ptr != 0 {
			alloc.Free(al.ptr, al.size, al.align)
		}
	}
	a.list = a.list[:0]
}
