package hostmem

import (
	"encoding/binary"
	"sync"

	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/internal/layout"
)

const (
	// reserved keeps address 0 (null) out of the allocatable range.
	reserved = 8

	defaultCapacity = 4096
	defaultLimit    = 1 << 30
)

// Arena is a bump-allocated host memory. It is safe for concurrent use;
// the bytes it holds are not protected beyond individual accesses.
type Arena struct {
	order  binary.ByteOrder
	data   []byte
	mu     sync.RWMutex
	next   uint32
	limit  uint32
	allocs int
}

// Option configures an Arena.
type Option func(*Arena)

// WithCapacity sets the initial backing capacity in bytes.
func WithCapacity(n uint32) Option {
	return func(a *Arena) {
		a.data = make([]byte, reserved, max(n, reserved))
	}
}

// WithLimit caps the arena size in bytes.
func WithLimit(n uint32) Option {
	return func(a *Arena) {
		a.limit = n
	}
}

// WithByteOrder overrides the native byte order.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(a *Arena) {
		a.order = order
	}
}

// New creates an empty arena.
func New(opts ...Option) *Arena {
	a := &Arena{
		order: binary.NativeEndian,
		data:  make([]byte, reserved, defaultCapacity),
		next:  reserved,
		limit: defaultLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var (
	defaultArena     *Arena
	defaultArenaOnce sync.Once
)

// Default returns the process-wide arena used when no memory is configured.
func Default() *Arena {
	defaultArenaOnce.Do(func() {
		defaultArena = New()
	})
	return defaultArena
}

// ByteOrder returns the order used for multi-byte accesses.
func (a *Arena) ByteOrder() binary.ByteOrder {
	return a.order
}

// Size returns the number of addressable bytes.
func (a *Arena) Size() uint32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return uint32(len(a.data))
}

// Allocations returns the number of live allocations.
func (a *Arena) Allocations() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.allocs
}

// Alloc reserves size bytes aligned to align. New bytes are zero.
func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if !layout.IsPowerOfTwo(align) {
		return 0, errors.New(errors.PhaseAlloc, errors.KindInvalidArgument).
			Value(align).
			Detail("alignment %d is not a power of two", align).
			Build()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ptr := layout.AlignTo(a.next, align)
	end, ok := layout.SafeAddU32(ptr, size)
	if !ok || ptr < a.next || end > a.limit {
		return 0, errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Value(size).
			Detail("arena exhausted: need %d bytes at 0x%x, limit %d", size, ptr, a.limit).
			Build()
	}
	if int(end) > len(a.data) {
		a.data = append(a.data, make([]byte, int(end)-len(a.data))...)
	}
	a.next = end
	a.allocs++
	return ptr, nil
}

// Free releases an allocation. Only the most recent allocation returns its
// space to the arena; other frees only update accounting.
func (a *Arena) Free(ptr, size, align uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ptr < reserved || a.allocs == 0 {
		return
	}
	a.allocs--
	if end, ok := layout.SafeAddU32(ptr, size); ok && end == a.next {
		clear(a.data[ptr:end])
		a.next = ptr
	}
}

// Reset discards every allocation and zeroes the arena.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.data)
	a.data = a.data[:reserved]
	a.next = reserved
	a.allocs = 0
}

func (a *Arena) bounds(phase errors.Phase, offset, length uint32) error {
	end, ok := layout.SafeAddU32(offset, length)
	if !ok || int(end) > len(a.data) {
		return errors.OutOfBounds(phase, nil, uint64(offset), uint64(length), uint32(len(a.data)))
	}
	return nil
}

// Read returns a view of length bytes at offset.
func (a *Arena) Read(offset uint32, length uint32) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.bounds(errors.PhaseGet, offset, length); err != nil {
		return nil, err
	}
	return a.data[offset : offset+length : offset+length], nil
}

// Write copies data to offset.
func (a *Arena) Write(offset uint32, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.bounds(errors.PhaseSet, offset, uint32(len(data))); err != nil {
		return err
	}
	copy(a.data[offset:], data)
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (a *Arena) ReadU8(offset uint32) (uint8, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.bounds(errors.PhaseGet, offset, 1); err != nil {
		return 0, err
	}
	return a.data[offset], nil
}

// ReadU16 reads an unsigned 16-bit value.
func (a *Arena) ReadU16(offset uint32) (uint16, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.bounds(errors.PhaseGet, offset, 2); err != nil {
		return 0, err
	}
	return a.order.Uint16(a.data[offset:]), nil
}

// ReadU32 reads an unsigned 32-bit value.
func (a *Arena) ReadU32(offset uint32) (uint32, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.bounds(errors.PhaseGet, offset, 4); err != nil {
		return 0, err
	}
	return a.order.Uint32(a.data[offset:]), nil
}

// ReadU64 reads an unsigned 64-bit value.
func (a *Arena) ReadU64(offset uint32) (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if err := a.bounds(errors.PhaseGet, offset, 8); err != nil {
		return 0, err
	}
	return a.order.Uint64(a.data[offset:]), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (a *Arena) WriteU8(offset uint32, value uint8) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.bounds(errors.PhaseSet, offset, 1); err != nil {
		return err
	}
	a.data[offset] = value
	return nil
}

// WriteU16 writes an unsigned 16-bit value.
func (a *Arena) WriteU16(offset uint32, value uint16) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.bounds(errors.PhaseSet, offset, 2); err != nil {
		return err
	}
	a.order.PutUint16(a.data[offset:], value)
	return nil
}

// WriteU32 writes an unsigned 32-bit value.
func (a *Arena) WriteU32(offset uint32, value uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.bounds(errors.PhaseSet, offset, 4); err != nil {
		return err
	}
	a.order.PutUint32(a.data[offset:], value)
	return nil
}

// WriteU64 writes an unsigned 64-bit value.
func (a *Arena) WriteU64(offset uint32, value uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.bounds(errors.PhaseSet, offset, 8); err != nil {
		return err
	}
	a.order.PutUint64(a.data[offset:], value)
	return nil
}
