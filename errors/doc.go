// Package errors provides structured error types for the structlayout module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Kinds roll up into three categories callers usually branch on:
//
//   - definition: duplicate field names, zero-sized field types, unknown type
//     names, and modification of a struct type that is already in use
//   - bounds: a buffer shorter than the view or access requires
//   - argument: an instance initializer of an unsupported shape
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSet, errors.KindTypeMismatch).
//		Path("point", "x").
//		GoType("string").
//		CType("int32").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DuplicateField("Point", "x")
//	err := errors.BufferTooSmall(errors.PhaseBind, 16, 8)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
