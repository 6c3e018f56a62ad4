// Package hostmem provides a growable, host-side memory arena.
//
// An Arena implements structlayout.Memory, structlayout.MemorySizer and
// structlayout.Allocator over a Go byte slice, so struct instances can be
// created without a WebAssembly guest. Addresses are offsets into the arena;
// the first bytes are reserved so that address 0 is never handed out and
// can serve as the null pointer.
//
// Multi-byte values use the host's native byte order by default:
//
//	a := hostmem.New(hostmem.WithCapacity(4096))
//	ptr, _ := a.Alloc(16, 8)
//	_ = a.WriteU32(ptr, 7)
//
// Growing the arena reallocates its backing slice. Slices returned by Read
// are views that are only valid until the next allocation; buffers keep
// addresses, not slices, so they remain valid across growth.
package hostmem
