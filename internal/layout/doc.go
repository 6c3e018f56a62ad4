// Package layout provides C-ABI layout calculations for struct types.
//
// This package computes field offsets, total size and alignment for an
// ordered list of fields. It is pure: the same input always produces the
// same layout.
//
// # Layout Rules
//
//   - Each field starts at the next multiple of its alignment
//   - Struct alignment is the largest field alignment (1 when empty)
//   - Struct size is rounded up to the struct alignment (trailing padding)
//   - Packed structs use alignment 1 everywhere and have no padding
//
// # Usage
//
//	info := layout.Info{}
//	off, info, err := layout.Append(info, 4, 4, false)
//	off, info, err = layout.Append(info, 8, 8, false) // off == 8
//	info = layout.Finish(info, false)                  // Size 16, Align 8
//
// Compute lays out a whole field list at once and is what struct types use
// when built from a field list; Append serves incremental definition.
//
//	res, err := layout.Compute([]layout.Spec{{"a", 4, 4}, {"b", 8, 8}}, false)
//	// res.Offsets == [0 8], res.Size == 16
//
// This package is internal to the module.
package layout
