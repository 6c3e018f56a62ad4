// Package witlayout turns WIT types into struct layouts.
//
// The canonical ABI stores records the way C stores structs: fields in
// order, each at its natural alignment, with trailing padding. A record
// therefore converts to a structs.Type, and the memory it describes can be
// shared with a component through a wasm32 linear memory (see wasmmem).
//
//	conv := witlayout.NewConverter(types.NewRegistry(types.ILP32))
//	point, err := conv.Record(pointDef)
//
// Scalars map to the primitive descriptors, char to a validated Unicode
// scalar, string to a (pointer, length) pair, tuple to a struct with
// fields "0", "1" and so on, and enum to its discriminant read back as the
// case name. Lists, variants, options, results, flags and resources are
// not representable as fixed layouts and fail with an unsupported error.
package witlayout
