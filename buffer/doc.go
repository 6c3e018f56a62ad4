// Package buffer provides bounds-checked views over a structlayout.Memory.
//
// A Buffer is the unit every type descriptor reads from and writes to. It
// names a memory, an absolute start address and a length; all accessor
// offsets are relative to the start and checked against the length before
// the memory is touched.
//
//	arena := hostmem.New()
//	buf, _ := buffer.Alloc(arena, arena, 16, 8) // zero-filled
//	tail, _ := buf.Tail(8)                      // shares storage
//	_ = tail.WriteU32(0, 7)                     // visible through buf at 8
//
// Buffers do not own their memory and are never resized or freed by this
// package.
package buffer
