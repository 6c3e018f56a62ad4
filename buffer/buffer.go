package buffer

import (
	"fmt"

	structlayout "github.com/wippyai/structlayout"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/internal/layout"
)

// Buffer is a contiguous region [addr, addr+length) of a Memory. Buffers
// never own their storage: slicing shares it, and several buffers may alias
// the same bytes. Offsets passed to accessors are relative to the start of
// the buffer.
type Buffer struct {
	mem    structlayout.Memory
	alloc  structlayout.Allocator
	addr   uint32
	length uint32
}

// New returns a view of length bytes at addr. When mem implements
// structlayout.MemorySizer the region must lie inside the memory.
func New(mem structlayout.Memory, addr, length uint32) (*Buffer, error) {
	if mem == nil {
		return nil, errors.InvalidArgument(errors.PhaseBind, "nil", "buffer requires a memory")
	}
	if sizer, ok := mem.(structlayout.MemorySizer); ok {
		if uint64(addr)+uint64(length) > uint64(sizer.Size()) {
			return nil, errors.OutOfBounds(errors.PhaseBind, nil, uint64(addr), uint64(length), sizer.Size())
		}
	}
	return &Buffer{mem: mem, addr: addr, length: length}, nil
}

// Alloc allocates size zero-filled bytes aligned to align and returns a view
// of them that carries alloc for further allocations (e.g. C strings).
func Alloc(mem structlayout.Memory, alloc structlayout.Allocator, size, align uint32) (*Buffer, error) {
	if alloc == nil {
		return nil, errors.InvalidArgument(errors.PhaseAlloc, "nil", "no allocator for memory")
	}
	if align == 0 {
		align = 1
	}
	n := size
	if n == 0 {
		// Keep distinct addresses for empty structs.
		n = 1
	}
	ptr, err := alloc.Alloc(n, align)
	if err != nil {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, n, align, err)
	}
	if ptr == 0 {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, n, align, fmt.Errorf("allocator returned null"))
	}
	b := &Buffer{mem: mem, alloc: alloc, addr: ptr, length: size}
	if err := b.Zero(0, size); err != nil {
		alloc.Free(ptr, n, align)
		return nil, err
	}
	return b, nil
}

// WithAllocator returns a copy of b that allocates through alloc.
func (b *Buffer) WithAllocator(alloc structlayout.Allocator) *Buffer {
	nb := *b
	nb.alloc = alloc
	return &nb
}

// Memory returns the backing memory.
func (b *Buffer) Memory() structlayout.Memory { return b.mem }

// Allocator returns the allocator attached to b, if any.
func (b *Buffer) Allocator() structlayout.Allocator { return b.alloc }

// Address returns the absolute address of the first byte of b.
func (b *Buffer) Address() uint32 { return b.addr }

// Len returns the length of b in bytes.
func (b *Buffer) Len() uint32 { return b.length }

// Slice returns the sub-view [off, off+length) sharing b's storage.
func (b *Buffer) Slice(off, length uint32) (*Buffer, error) {
	if err := b.check(errors.PhaseBind, off, length); err != nil {
		return nil, err
	}
	return &Buffer{mem: b.mem, alloc: b.alloc, addr: b.addr + off, length: length}, nil
}

// Tail returns the sub-view from off to the end of b.
func (b *Buffer) Tail(off uint32) (*Buffer, error) {
	if off > b.length {
		return nil, errors.OutOfBounds(errors.PhaseBind, nil, uint64(off), 0, b.length)
	}
	return b.Slice(off, b.length-off)
}

// At returns a view of length bytes at an absolute address in b's memory.
// It is how pointers stored in b are followed.
func (b *Buffer) At(addr, length uint32) (*Buffer, error) {
	nb, err := New(b.mem, addr, length)
	if err != nil {
		return nil, err
	}
	nb.alloc = b.alloc
	return nb, nil
}

// Same reports whether b and other view the same region of the same memory.
func (b *Buffer) Same(other *Buffer) bool {
	return other != nil && b.mem == other.mem && b.addr == other.addr && b.length == other.length
}

func (b *Buffer) String() string {
	return fmt.Sprintf("buffer[0x%x+%d]", b.addr, b.length)
}

func (b *Buffer) check(phase errors.Phase, off, n uint32) error {
	end, ok := layout.SafeAddU32(off, n)
	if !ok || end > b.length {
		return errors.OutOfBounds(phase, nil, uint64(off), uint64(n), b.length)
	}
	return nil
}

// Bytes returns a copy of n bytes at off.
func (b *Buffer) Bytes(off, n uint32) ([]byte, error) {
	if err := b.check(errors.PhaseGet, off, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	data, err := b.mem.Read(b.addr+off, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, data)
	return out, nil
}

// Write stores data at off.
func (b *Buffer) Write(off uint32, data []byte) error {
	if err := b.check(errors.PhaseSet, off, uint32(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return b.mem.Write(b.addr+off, data)
}

// Zero clears n bytes at off.
func (b *Buffer) Zero(off, n uint32) error {
	if n == 0 {
		return b.check(errors.PhaseSet, off, 0)
	}
	return b.Write(off, make([]byte, n))
}

// Copy copies n bytes from src at srcOff to dst at dstOff. Overlapping
// ranges behave as if copied through an intermediate buffer.
func Copy(dst *Buffer, dstOff uint32, src *Buffer, srcOff uint32, n uint32) error {
	if err := dst.check(errors.PhaseSet, dstOff, n); err != nil {
		return err
	}
	data, err := src.Bytes(srcOff, n)
	if err != nil {
		return err
	}
	return dst.Write(dstOff, data)
}

// ReadU8 reads an unsigned 8-bit value at off.
func (b *Buffer) ReadU8(off uint32) (uint8, error) {
	if err := b.check(errors.PhaseGet, off, 1); err != nil {
		return 0, err
	}
	return b.mem.ReadU8(b.addr + off)
}

// ReadU16 reads an unsigned 16-bit value at off.
func (b *Buffer) ReadU16(off uint32) (uint16, error) {
	if err := b.check(errors.PhaseGet, off, 2); err != nil {
		return 0, err
	}
	return b.mem.ReadU16(b.addr + off)
}

// ReadU32 reads an unsigned 32-bit value at off.
func (b *Buffer) ReadU32(off uint32) (uint32, error) {
	if err := b.check(errors.PhaseGet, off, 4); err != nil {
		return 0, err
	}
	return b.mem.ReadU32(b.addr + off)
}

// ReadU64 reads an unsigned 64-bit value at off.
func (b *Buffer) ReadU64(off uint32) (uint64, error) {
	if err := b.check(errors.PhaseGet, off, 8); err != nil {
		return 0, err
	}
	return b.mem.ReadU64(b.addr + off)
}

// WriteU8 writes an unsigned 8-bit value at off.
func (b *Buffer) WriteU8(off uint32, v uint8) error {
	if err := b.check(errors.PhaseSet, off, 1); err != nil {
		return err
	}
	return b.mem.WriteU8(b.addr+off, v)
}

// WriteU16 writes an unsigned 16-bit value at off.
func (b *Buffer) WriteU16(off uint32, v uint16) error {
	if err := b.check(errors.PhaseSet, off, 2); err != nil {
		return err
	}
	return b.mem.WriteU16(b.addr+off, v)
}

// WriteU32 writes an unsigned 32-bit value at off.
func (b *Buffer) WriteU32(off uint32, v uint32) error {
	if err := b.check(errors.PhaseSet, off, 4); err != nil {
		return err
	}
	return b.mem.WriteU32(b.addr+off, v)
}

// WriteU64 writes an unsigned 64-bit value at off.
func (b *Buffer) WriteU64(off uint32, v uint64) error {
	if err := b.check(errors.PhaseSet, off, 8); err != nil {
		return err
	}
	return b.mem.WriteU64(b.addr+off, v)
}

// ReadUint reads an unsigned value of 1, 2, 4 or 8 bytes at off.
func (b *Buffer) ReadUint(off, size uint32) (uint64, error) {
	switch size {
	case 1:
		v, err := b.ReadU8(off)
		return uint64(v), err
	case 2:
		v, err := b.ReadU16(off)
		return uint64(v), err
	case 4:
		v, err := b.ReadU32(off)
		return uint64(v), err
	case 8:
		return b.ReadU64(off)
	}
	return 0, errors.Unsupported(errors.PhaseGet, fmt.Sprintf("%d-byte integer", size))
}

// WriteUint writes the low size bytes of v at off. size is 1, 2, 4 or 8.
func (b *Buffer) WriteUint(off, size uint32, v uint64) error {
	switch size {
	case 1:
		return b.WriteU8(off, uint8(v))
	case 2:
		return b.WriteU16(off, uint16(v))
	case 4:
		return b.WriteU32(off, uint32(v))
	case 8:
		return b.WriteU64(off, v)
	}
	return errors.Unsupported(errors.PhaseSet, fmt.Sprintf("%d-byte integer", size))
}
