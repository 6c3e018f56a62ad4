package wasmmem

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/structlayout"
	"github.com/wippyai/structlayout/errors"
)

const (
	memoryExport  = "memory"
	reallocExport = "cabi_realloc"
)

type config struct {
	pages    uint32
	maxPages uint32
	base     uint32
}

// Option configures New.
type Option func(*config)

// WithPages sets the initial memory size in pages.
func WithPages(n uint32) Option {
	return func(c *config) { c.pages = n }
}

// WithMaxPages caps how far the memory may grow.
func WithMaxPages(n uint32) Option {
	return func(c *config) { c.maxPages = n }
}

// WithBase sets the first address the allocator hands out.
func WithBase(addr uint32) Option {
	return func(c *config) { c.base = addr }
}

// Linear is a linear memory together with the allocator that places
// values in it.
type Linear struct {
	rt    wazero.Runtime
	mod   api.Module
	mem   *Memory
	alloc structlayout.Allocator
}

// New starts a wazero runtime holding a module that only exports a
// memory, and allocates from it with a BumpAllocator.
func New(ctx context.Context, opts ...Option) (*Linear, error) {
	cfg := config{pages: 1, maxPages: 65536, base: 16}
	for _, opt := range opts {
		opt(&cfg)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(cfg.maxPages))
	mod, err := rt.Instantiate(ctx, memoryModule(cfg.pages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Load("instantiate memory module", err)
	}

	raw := mod.ExportedMemory(memoryExport)
	Logger().Debug("linear memory created",
		zap.Uint32("pages", cfg.pages),
		zap.Uint32("max_pages", cfg.maxPages))
	return &Linear{
		rt:    rt,
		mod:   mod,
		mem:   Wrap(raw),
		alloc: NewBumpAllocator(raw, cfg.base),
	}, nil
}

// Attach wraps the memory of an instantiated module. Allocation uses the
// module's cabi_realloc when exported; otherwise a BumpAllocator claims
// pages grown past the module's current memory. The module stays owned by
// the caller.
func Attach(ctx context.Context, mod api.Module) (*Linear, error) {
	if mod == nil {
		return nil, errors.InvalidArgument(errors.PhaseLoad, "nil", "module is nil")
	}
	raw := mod.ExportedMemory(memoryExport)
	if raw == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "export", memoryExport)
	}

	lin := &Linear{mod: mod, mem: Wrap(raw)}
	if fn := mod.ExportedFunction(reallocExport); fn != nil {
		lin.alloc = NewGuestAllocator(ctx, fn)
		Logger().Debug("using guest allocator", zap.String("module", mod.Name()))
	} else {
		lin.alloc = NewBumpAllocator(raw, raw.Size())
		Logger().Debug("using bump allocator", zap.String("module", mod.Name()), zap.Uint32("base", raw.Size()))
	}
	return lin, nil
}

// Memory returns the linear memory.
func (l *Linear) Memory() *Memory { return l.mem }

// Allocator returns the allocator for the memory.
func (l *Linear) Allocator() structlayout.Allocator { return l.alloc }

// Module returns the module owning the memory.
func (l *Linear) Module() api.Module { return l.mod }

// Close releases the runtime started by New. It does nothing for
// memories obtained with Attach.
func (l *Linear) Close(ctx context.Context) error {
	if l.rt == nil {
		return nil
	}
	return l.rt.Close(ctx)
}

// memoryModule encodes a module with one memory of the given initial size
// exported as "memory".
func memoryModule(pages uint32) []byte {
	initial := uleb128(pages)
	mod := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
		0x05, byte(2 + len(initial)), 0x01, 0x00, // memory section: 1 memory, no max
	}
	mod = append(mod, initial...)
	return append(mod,
		0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
		0x06, 'm', 'e', 'm', 'o', 'r', 'y',
		0x02, 0x00, // memory 0
	)
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
