package types

import (
	"fmt"
	"math"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
)

// PointerType is a pointer-sized address of a value of type Elem. A nil
// Elem means void *.
type PointerType struct {
	elem Descriptor
	size uint32
}

// Pointer returns a pointer type to elem under model. The pointee is not
// inspected, so elem may be a struct type that is still being defined.
func Pointer(elem Descriptor, model DataModel) *PointerType {
	return &PointerType{elem: elem, size: model.PointerSize}
}

// Elem returns the pointee type, nil for void *.
func (p *PointerType) Elem() Descriptor { return p.elem }

// Name implements Descriptor.
func (p *PointerType) Name() string {
	if p.elem == nil {
		return "void *"
	}
	name := p.elem.Name()
	if len(name) > 0 && name[len(name)-1] == '*' {
		return name + "*"
	}
	return name + " *"
}

// Size implements Descriptor.
func (p *PointerType) Size() uint32 { return p.size }

// Align implements Descriptor.
func (p *PointerType) Align() uint32 { return p.size }

// IdenticalTo reports whether other is a pointer of the same width whose
// pointee is the same descriptor or spelled the same way. Pointee layout
// does not affect the bytes a pointer occupies.
func (p *PointerType) IdenticalTo(other Descriptor) bool {
	o, ok := other.(*PointerType)
	if !ok || o.size != p.size {
		return false
	}
	if p.elem == nil || o.elem == nil {
		return p.elem == nil && o.elem == nil
	}
	return p.elem == o.elem || p.elem.Name() == o.elem.Name()
}

// Get implements Descriptor. It returns a Ref.
func (p *PointerType) Get(buf *buffer.Buffer, offset uint32) (any, error) {
	addr, err := readAddress(buf, offset, p.size)
	if err != nil {
		return nil, err
	}
	return Ref{Addr: addr, Elem: p.elem, origin: buf}, nil
}

// Set implements Descriptor. It accepts nil, a Ref, a Referencer, a
// *buffer.Buffer in the same memory, or an integer address.
func (p *PointerType) Set(buf *buffer.Buffer, offset uint32, value any) error {
	addr, err := addressOf(buf, value, p.Name())
	if err != nil {
		return err
	}
	return buf.WriteUint(offset, p.size, uint64(addr))
}

func (p *PointerType) String() string { return p.Name() }

func readAddress(buf *buffer.Buffer, offset, size uint32) (uint32, error) {
	raw, err := buf.ReadUint(offset, size)
	if err != nil {
		return 0, err
	}
	if raw > math.MaxUint32 {
		return 0, errors.InvalidData(errors.PhaseGet, nil,
			fmt.Sprintf("address 0x%x outside the 32-bit address space", raw))
	}
	return uint32(raw), nil
}

func addressOf(buf *buffer.Buffer, value any, cType string) (uint32, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case Ref:
		return v.addressIn(buf)
	case *Ref:
		if v == nil {
			return 0, nil
		}
		return v.addressIn(buf)
	case Referencer:
		return v.Ref().addressIn(buf)
	case *buffer.Buffer:
		if v == nil {
			return 0, nil
		}
		if v.Memory() != buf.Memory() {
			return 0, foreignMemory(cType)
		}
		return v.Address(), nil
	}
	addr, numeric, inRange := coerceUnsigned[uint32](value)
	if !numeric {
		return 0, errors.TypeMismatch(errors.PhaseSet, nil, typeName(value), cType)
	}
	if !inRange {
		return 0, errors.Overflow(errors.PhaseSet, nil, value, cType)
	}
	return addr, nil
}

func foreignMemory(cType string) *errors.Error {
	return errors.New(errors.PhaseSet, errors.KindInvalidArgument).
		CType(cType).
		Detail("pointer target lives in a different memory").
		Build()
}

// Ref is the value of a pointer: an address plus the type stored there.
// It is also the handle returned when taking the address of an instance.
type Ref struct {
	Elem   Descriptor
	origin *buffer.Buffer
	Addr   uint32
}

// NewRef returns a reference to the start of buf holding a value of elem.
func NewRef(buf *buffer.Buffer, elem Descriptor) Ref {
	return Ref{Addr: buf.Address(), Elem: elem, origin: buf}
}

// IsNull reports whether r is the null reference.
func (r Ref) IsNull() bool { return r.Addr == 0 }

// Address returns the referenced address.
func (r Ref) Address() uint32 { return r.Addr }

// Buffer returns a view of the referenced value.
func (r Ref) Buffer() (*buffer.Buffer, error) {
	if r.IsNull() {
		return nil, errors.NilPointer(errors.PhaseGet, nil, r.typeName())
	}
	if r.origin == nil {
		return nil, errors.New(errors.PhaseGet, errors.KindNotFound).
			CType(r.typeName()).
			Detail("reference has no memory to resolve 0x%x in", r.Addr).
			Build()
	}
	var size uint32
	if r.Elem != nil {
		size = r.Elem.Size()
	}
	return r.origin.At(r.Addr, size)
}

// Deref reads the referenced value through Elem. Dereferencing a struct
// reference yields a new instance aliasing the same memory.
func (r Ref) Deref() (any, error) {
	if r.Elem == nil || r.Elem.Size() == 0 {
		return nil, errors.Unsupported(errors.PhaseGet, "dereference of void *")
	}
	view, err := r.Buffer()
	if err != nil {
		return nil, err
	}
	return r.Elem.Get(view, 0)
}

// Store writes value through the reference.
func (r Ref) Store(value any) error {
	if r.Elem == nil || r.Elem.Size() == 0 {
		return errors.Unsupported(errors.PhaseSet, "store through void *")
	}
	view, err := r.Buffer()
	if err != nil {
		return err
	}
	return r.Elem.Set(view, 0, value)
}

func (r Ref) addressIn(buf *buffer.Buffer) (uint32, error) {
	if r.origin != nil && !r.IsNull() && r.origin.Memory() != buf.Memory() {
		return 0, foreignMemory(r.typeName())
	}
	return r.Addr, nil
}

func (r Ref) typeName() string {
	if r.Elem == nil {
		return "void *"
	}
	return r.Elem.Name() + " *"
}

func (r Ref) String() string {
	if r.IsNull() {
		return "NULL"
	}
	return fmt.Sprintf("(%s)0x%x", r.typeName(), r.Addr)
}
