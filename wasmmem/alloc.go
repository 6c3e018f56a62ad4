package wasmmem

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/internal/layout"
)

// GuestAllocator allocates through a module's cabi_realloc export, with
// the canonical ABI signature (old_ptr, old_size, align, new_size) -> ptr.
type GuestAllocator struct {
	ctx context.Context
	fn  api.Function
}

// NewGuestAllocator returns an allocator calling fn, or nil when fn is nil.
func NewGuestAllocator(ctx context.Context, fn api.Function) *GuestAllocator {
	if fn == nil {
		return nil
	}
	return &GuestAllocator{ctx: ctx, fn: fn}
}

// Alloc allocates size bytes aligned to align.
func (a *GuestAllocator) Alloc(size, align uint32) (uint32, error) {
	results, err := a.fn.Call(a.ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align, err)
	}
	if len(results) == 0 {
		return 0, errors.New(errors.PhaseAlloc, errors.KindAllocation).Detail("cabi_realloc returned no result").Build()
	}
	return uint32(results[0]), nil
}

// Free releases an allocation by reallocating it to size 0.
func (a *GuestAllocator) Free(ptr, size, align uint32) {
	if _, err := a.fn.Call(a.ctx, uint64(ptr), uint64(size), uint64(align), 0); err != nil {
		Logger().Debug("guest free failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}

// BumpAllocator hands out memory above a base address, growing the memory
// when an allocation does not fit. Only the most recent allocation can be
// freed.
type BumpAllocator struct {
	mem  api.Memory
	mu   sync.Mutex
	next uint32
	last uint32
}

// NewBumpAllocator allocates from mem starting at base. Address 0 is never
// returned.
func NewBumpAllocator(mem api.Memory, base uint32) *BumpAllocator {
	if base == 0 {
		base = 8
	}
	return &BumpAllocator{mem: mem, next: base, last: base}
}

// Alloc implements structlayout.Allocator.
func (a *BumpAllocator) Alloc(size, align uint32) (uint32, error) {
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
	if !ok || ptr < a.next {
		return 0, errors.Overflow(errors.PhaseAlloc, nil, size, "wasm32 address")
	}
	if err := a.ensure(end); err != nil {
		return 0, err
	}
	a.last = a.next
	a.next = end
	return ptr, nil
}

func (a *BumpAllocator) ensure(end uint32) error {
	have := a.mem.Size()
	if end <= have {
		return nil
	}
	need := (uint64(end) - uint64(have) + PageSize - 1) / PageSize
	prev, ok := a.mem.Grow(uint32(need))
	if !ok {
		return errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Detail("cannot grow memory by %d pages from %d", need, prev).
			Build()
	}
	Logger().Debug("linear memory grown",
		zap.Uint32("from_pages", prev),
		zap.Uint64("added_pages", need),
		zap.Uint32("size", a.mem.Size()))
	return nil
}

// Free rewinds the allocator when ptr is the most recent allocation.
func (a *BumpAllocator) Free(ptr, size, align uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ptr+size == a.next && ptr >= a.last {
		a.next = a.last
	}
}

// Next returns the address the next allocation starts searching from.
func (a *BumpAllocator) Next() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}
