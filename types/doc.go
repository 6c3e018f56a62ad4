// Package types provides the type descriptors struct fields are built from.
//
// A Descriptor knows its size and alignment and how to read and write one
// value at an offset inside a buffer. This package supplies:
//
//   - primitives: fixed-width integers, floats, bool and void
//   - pointers (Pointer) whose values are Refs that can be dereferenced
//   - NUL-terminated C strings (CString)
//   - fixed-length arrays (Array) whose values are ArrayViews
//   - a Registry that resolves C-like type names ("int", "char *",
//     "uchar[33]") for a given DataModel
//
// Struct types live in package structs and satisfy Descriptor too, so they
// nest inside arrays, pointers and other structs.
//
// # Values
//
// Get returns the exact Go type of the native value (int32 for "int",
// float64 for "double", Ref for pointers). Set accepts any Go number whose
// value is exactly representable in the target type and reports overflow
// otherwise; floats are stored bit-exact.
package types
