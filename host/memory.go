package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	triggercall "github.com/wippyai/trigger-call"
)

const (
	// CabiRealloc is the canonical ABI allocation export.
	CabiRealloc = "cabi_realloc"
	// cabiPostPrefix prefixes the optional post-return export of a function.
	cabiPostPrefix = "cabi_post_"
)

// guestMemory exposes an instance's exported linear memory. A module
// without memory yields a guestMemory whose every access fails.
type guestMemory struct {
	mem api.Memory
}

func (m *guestMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if m.mem != nil {
		if data, ok := m.mem.Read(offset, length); ok {
			return data, nil
		}
	}
	return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
}

func (m *guestMemory) Write(offset uint32, data []byte) error {
	if m.mem == nil || !m.mem.Write(offset, data) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *guestMemory) ReadU8(offset uint32) (uint8, error) {
	if m.mem != nil {
		if v, ok := m.mem.ReadByte(offset); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("read out of bounds: offset=%d, length=1", offset)
}

func (m *guestMemory) ReadU16(offset uint32) (uint16, error) {
	if m.mem != nil {
		if v, ok := m.mem.ReadUint16Le(offset); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("read out of bounds: offset=%d, length=2", offset)
}

func (m *guestMemory) ReadU32(offset uint32) (uint32, error) {
	if m.mem != nil {
		if v, ok := m.mem.ReadUint32Le(offset); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("read out of bounds: offset=%d, length=4", offset)
}

func (m *guestMemory) ReadU64(offset uint32) (uint64, error) {
	if m.mem != nil {
		if v, ok := m.mem.ReadUint64Le(offset); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("read out of bounds: offset=%d, length=8", offset)
}

func (m *guestMemory) WriteU8(offset uint32, value uint8) error {
	if m.mem == nil || !m.mem.WriteByte(offset, value) {
		return fmt.Errorf("write out of bounds: offset=%d, length=1", offset)
	}
	return nil
}

func (m *guestMemory) WriteU16(offset uint32, value uint16) error {
	if m.mem == nil || !m.mem.WriteUint16Le(offset, value) {
		return fmt.Errorf("write out of bounds: offset=%d, length=2", offset)
	}
	return nil
}

func (m *guestMemory) WriteU32(offset uint32, value uint32) error {
	if m.mem == nil || !m.mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("write out of bounds: offset=%d, length=4", offset)
	}
	return nil
}

func (m *guestMemory) WriteU64(offset uint32, value uint64) error {
	if m.mem == nil || !m.mem.WriteUint64Le(offset, value) {
		return fmt.Errorf("write out of bounds: offset=%d, length=8", offset)
	}
	return nil
}

// guestAllocator allocates through the guest's cabi_realloc export. The
// context of the call in progress is installed before lowering starts.
type guestAllocator struct {
	ctx     context.Context
	realloc api.Function
	stack   [4]uint64
}

func (a *guestAllocator) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *guestAllocator) Alloc(size, align uint32) (uint32, error) {
	if a.realloc == nil {
		return 0, fmt.Errorf("guest does not export %s", CabiRealloc)
	}
	a.stack = [4]uint64{0, 0, uint64(align), uint64(size)}
	if err := a.realloc.CallWithStack(a.context(), a.stack[:]); err != nil {
		return 0, err
	}
	ptr := uint32(a.stack[0])
	if ptr == 0 && size > 0 {
		return 0, fmt.Errorf("%s returned null for %d bytes", CabiRealloc, size)
	}
	if align > 0 && ptr%align != 0 {
		return 0, fmt.Errorf("%s returned misaligned pointer %d for alignment %d", CabiRealloc, ptr, align)
	}
	return ptr, nil
}

// Free shrinks the allocation to zero bytes. Guests with a bump allocator
// ignore this.
func (a *guestAllocator) Free(ptr, size, align uint32) {
	if a.realloc == nil || ptr == 0 {
		return
	}
	a.stack = [4]uint64{uint64(ptr), uint64(size), uint64(align), 0}
	if err := a.realloc.CallWithStack(a.context(), a.stack[:]); err != nil {
		Logger().Warn("free through cabi_realloc failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

var (
	_ triggercall.Memory    = (*guestMemory)(nil)
	_ triggercall.Allocator = (*guestAllocator)(nil)
)
