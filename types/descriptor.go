package types

import (
	"github.com/wippyai/structlayout/buffer"
)

// Descriptor describes how a value of some native type is laid out and
// accessed in memory.
type Descriptor interface {
	// Name is a C-like spelling of the type, used in messages and layouts.
	Name() string
	// Size in bytes; zero only for void.
	Size() uint32
	// Align is a power of two.
	Align() uint32
	// Get reads the value stored at offset.
	Get(buf *buffer.Buffer, offset uint32) (any, error)
	// Set stores value at offset.
	Set(buf *buffer.Buffer, offset uint32, value any) error
}

// Referencer is implemented by values that can produce a reference to
// their own storage, such as struct instances and array views.
type Referencer interface {
	Ref() Ref
}

// identifier is implemented by composite descriptors that can decide
// layout identity with another descriptor.
type identifier interface {
	IdenticalTo(other Descriptor) bool
}

// Identical reports whether a and b have the same byte layout and access
// semantics, so that a value of one can be copied raw into the other.
// Distinct types with equal names are not assumed identical.
func Identical(a, b Descriptor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if id, ok := a.(identifier); ok {
		return id.IdenticalTo(b)
	}
	return false
}

// Sealer is implemented by descriptors that stay mutable until they are
// first used as part of another type or to hold a value.
type Sealer interface {
	Seal()
}

// Seal freezes d if it is mutable. It is called whenever a type consumes
// d's size or alignment.
func Seal(d Descriptor) {
	if s, ok := d.(Sealer); ok {
		s.Seal()
	}
}
