// Package structs defines C-compatible struct types and the instances that
// read and write them in place.
//
// A Type is built field by field. Each Define appends one field and
// recomputes offsets with the C rules: a field starts at the next multiple
// of its alignment, the struct is as aligned as its most aligned field, and
// the size is rounded up so arrays of the struct stay aligned. Packed types
// place fields back to back with alignment 1 and no trailing padding.
//
//	point, err := structs.NewFromFields([]structs.FieldSpec{
//		{Name: "x", Type: "int"},
//		{Name: "y", Type: "double"},
//	}, structs.WithName("Point"))
//
// A Type is also a types.Descriptor, so it can be a field of another Type,
// the element of an array, or the target of a pointer. Its first use in
// any of those roles, or the first instance created from it, seals it and
// later Define calls fail with a finalized error.
//
// Instances are views. Bind wraps existing memory without copying, New
// allocates zeroed memory, NewFrom allocates and fills from a map, a Go
// struct or another instance:
//
//	p, _ := point.NewFrom(map[string]any{"x": 1, "y": 2.5})
//	x, _ := p.Get("x") // int32(1)
//
// Field reads and writes delegate to the field's descriptor at the
// instance offset plus the field offset. Errors from descriptors are
// returned unchanged.
//
// Types are safe for concurrent use once sealed. Instances hold no locks:
// callers coordinate access to the memory they view.
package structs
