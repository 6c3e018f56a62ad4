// Package wasmmem backs struct instances with WebAssembly linear memory
// hosted by wazero.
//
// Memory adapts an api.Memory to the module's Memory interface. Values are
// little-endian, as wasm32 requires. Two allocators are provided:
//
//   - GuestAllocator calls a module's exported cabi_realloc, so allocations
//     are owned by the guest's own allocator
//   - BumpAllocator hands out memory past a base address and grows the
//     memory a page at a time when it runs out
//
// Linear owns a wazero runtime with a single exported memory and a bump
// allocator, which is enough to lay out and inspect wasm32 structs without
// any guest code:
//
//	lin, err := wasmmem.New(ctx, wasmmem.WithPages(1))
//	if err != nil {
//		return err
//	}
//	defer lin.Close(ctx)
//
//	point := structs.New(structs.WithMemory(lin.Memory(), lin.Allocator()),
//		structs.WithRegistry(types.NewRegistry(types.ILP32)))
//
// Attach wraps an already instantiated module instead, preferring its
// cabi_realloc when exported.
package wasmmem
