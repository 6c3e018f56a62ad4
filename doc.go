// Package structlayout computes C-compatible memory layouts for composite
// types and gives typed, bidirectional access to their fields inside raw
// memory.
//
// The library is organized into several packages with distinct responsibilities:
//
//	structlayout/        Root package with core Memory and Allocator interfaces
//	├── buffer/          Bounds-checked views over a Memory
//	├── hostmem/         Growable host-side arena memory
//	├── wasmmem/         wazero linear memory adapters
//	├── types/           Type descriptors, pointers, arrays, name registry
//	├── structs/         Struct types, instances and bulk writes
//	├── witlayout/       Struct types from WIT records (canonical ABI)
//	├── schema/          YAML struct definition documents
//	├── errors/          Structured error types
//	└── cmd/structlayout Layout inspector CLI
//
// # Quick Start
//
// Define a struct and populate an instance:
//
//	reg := types.NewRegistry(types.LP64)
//	point, err := structs.NewFromFields([]structs.FieldSpec{
//	    {Name: "x", Type: "int"},
//	    {Name: "y", Type: "double"},
//	}, structs.WithName("Point"), structs.WithRegistry(reg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := point.NewFrom(map[string]any{"x": 3, "y": 1.5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	x, _ := p.Get("x") // int32(3)
//
// point.Size() is 16 and point.Align() is 8, matching what a C compiler
// produces for the same declaration on an LP64 target.
//
// # Layout Rules
//
// Fields are placed in definition order. Each field starts at the next
// multiple of its alignment, the struct is aligned to its strictest field,
// and its size is rounded up to that alignment. Packed structs drop all
// padding and have alignment 1.
//
// # Thread Safety
//
// Struct types are immutable once in use and safe for concurrent reads.
// Instances are views, not owners: callers must ensure exclusive or
// read-only concurrent access to any memory region a live instance covers.
package structlayout
