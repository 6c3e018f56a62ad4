package types

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/internal/layout"
)

// ArrayType is a fixed-length sequence of Len elements of type Elem with
// no padding between elements beyond the element's own trailing padding.
type ArrayType struct {
	elem   Descriptor
	length uint32
	size   uint32
}

// Array returns the array type elem[n]. Zero-sized elements and empty
// arrays are rejected. Using a mutable type as the element seals it.
func Array(elem Descriptor, n uint32) (*ArrayType, error) {
	if elem == nil {
		return nil, errors.InvalidArgument(errors.PhaseDefine, "nil", "array element type is nil")
	}
	Seal(elem)
	if elem.Size() == 0 || n == 0 {
		return nil, errors.ZeroSize(nil, fmt.Sprintf("%s[%d]", elem.Name(), n))
	}
	size, ok := layout.SafeMulU32(elem.Size(), n)
	if !ok {
		return nil, errors.Overflow(errors.PhaseDefine, nil, n, elem.Name()+" array")
	}
	return &ArrayType{elem: elem, length: n, size: size}, nil
}

// Elem returns the element type.
func (a *ArrayType) Elem() Descriptor { return a.elem }

// Len returns the number of elements.
func (a *ArrayType) Len() uint32 { return a.length }

// Name implements Descriptor.
func (a *ArrayType) Name() string {
	// Nested arrays keep C order: the outermost dimension comes first.
	dims := fmt.Sprintf("[%d]", a.length)
	elem := a.elem
	for {
		inner, ok := elem.(*ArrayType)
		if !ok {
			break
		}
		dims += fmt.Sprintf("[%d]", inner.length)
		elem = inner.elem
	}
	return elem.Name() + dims
}

// Size implements Descriptor.
func (a *ArrayType) Size() uint32 { return a.size }

// Align implements Descriptor.
func (a *ArrayType) Align() uint32 { return a.elem.Align() }

// IdenticalTo implements layout identity.
func (a *ArrayType) IdenticalTo(other Descriptor) bool {
	o, ok := other.(*ArrayType)
	return ok && o.length == a.length && Identical(a.elem, o.elem)
}

// Get implements Descriptor. It returns an *ArrayView over the elements.
func (a *ArrayType) Get(buf *buffer.Buffer, offset uint32) (any, error) {
	view, err := buf.Slice(offset, a.size)
	if err != nil {
		return nil, err
	}
	return &ArrayView{typ: a, buf: view}, nil
}

// Set implements Descriptor. It accepts an *ArrayView of an identical
// type (copied raw within one memory, element by element across memories), a string or []byte for byte-sized elements (NUL
// padded), or any slice or array whose elements the element type accepts.
// Elements beyond the length of a shorter slice are left unchanged.
func (a *ArrayType) Set(buf *buffer.Buffer, offset uint32, value any) error {
	dst, err := buf.Slice(offset, a.size)
	if err != nil {
		return err
	}

	switch v := value.(type) {
	case *ArrayView:
		if !Identical(a, v.typ) {
			return errors.TypeMismatch(errors.PhaseSet, nil, v.typ.Name(), a.Name())
		}
		if v.buf.Memory() == dst.Memory() {
			return buffer.Copy(dst, 0, v.buf, 0, a.size)
		}
		// Element-wise across memories so pointers are re-checked and
		// strings re-allocated in the destination.
		vals, err := v.Values()
		if err != nil {
			return err
		}
		return a.setElems(dst, len(vals), func(i int) any { return vals[i] })
	case string:
		if a.elem.Size() == 1 {
			return a.setBytes(dst, []byte(v))
		}
	case []byte:
		if a.elem.Size() == 1 {
			return a.setBytes(dst, v)
		}
	case []any:
		return a.setElems(dst, len(v), func(i int) any { return v[i] })
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return errors.TypeMismatch(errors.PhaseSet, nil, typeName(value), a.Name())
	}
	return a.setElems(dst, rv.Len(), func(i int) any { return rv.Index(i).Interface() })
}

func (a *ArrayType) setBytes(dst *buffer.Buffer, data []byte) error {
	if uint64(len(data)) > uint64(a.length) {
		return errors.OutOfBounds(errors.PhaseSet, nil, 0, uint64(len(data)), a.length)
	}
	if err := dst.Write(0, data); err != nil {
		return err
	}
	return dst.Zero(uint32(len(data)), a.size-uint32(len(data)))
}

func (a *ArrayType) setElems(dst *buffer.Buffer, n int, at func(int) any) error {
	if uint64(n) > uint64(a.length) {
		return errors.OutOfBounds(errors.PhaseSet, nil, 0, uint64(n), a.length)
	}
	stride := a.elem.Size()
	for i := 0; i < n; i++ {
		if err := a.elem.Set(dst, uint32(i)*stride, at(i)); err != nil {
			return err
		}
	}
	return nil
}

func (a *ArrayType) String() string { return a.Name() }

// ArrayView is the value of an array field: a view of its elements.
type ArrayView struct {
	typ *ArrayType
	buf *buffer.Buffer
}

// Type returns the array type.
func (v *ArrayView) Type() *ArrayType { return v.typ }

// Buffer returns the view's storage.
func (v *ArrayView) Buffer() *buffer.Buffer { return v.buf }

// Len returns the number of elements.
func (v *ArrayView) Len() int { return int(v.typ.length) }

// Ref returns a reference to the array.
func (v *ArrayView) Ref() Ref { return NewRef(v.buf, v.typ) }

func (v *ArrayView) check(i int) error {
	if i < 0 || i >= int(v.typ.length) {
		return errors.New(errors.PhaseGet, errors.KindOutOfBounds).
			Value(i).
			Detail("index %d out of range [0, %d)", i, v.typ.length).
			Build()
	}
	return nil
}

// Index reads element i.
func (v *ArrayView) Index(i int) (any, error) {
	if err := v.check(i); err != nil {
		return nil, err
	}
	return v.typ.elem.Get(v.buf, uint32(i)*v.typ.elem.Size())
}

// SetIndex writes element i.
func (v *ArrayView) SetIndex(i int, value any) error {
	if err := v.check(i); err != nil {
		return err
	}
	return v.typ.elem.Set(v.buf, uint32(i)*v.typ.elem.Size(), value)
}

// Values reads every element.
func (v *ArrayView) Values() ([]any, error) {
	out := make([]any, v.typ.length)
	for i := range out {
		val, err := v.Index(i)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// Bytes returns a copy of the raw array bytes.
func (v *ArrayView) Bytes() ([]byte, error) {
	return v.buf.Bytes(0, v.buf.Len())
}

// Text interprets a byte-sized array as a NUL-terminated string.
func (v *ArrayView) Text() (string, error) {
	if v.typ.elem.Size() != 1 {
		return "", errors.TypeMismatch(errors.PhaseGet, nil, "string", v.typ.Name())
	}
	data, err := v.Bytes()
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(string(data), 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

func (v *ArrayView) String() string {
	vals, err := v.Values()
	if err != nil {
		return fmt.Sprintf("%s{<%v>}", v.typ.Name(), err)
	}
	parts := make([]string, len(vals))
	for i, val := range vals {
		parts[i] = fmt.Sprint(val)
	}
	return v.typ.Name() + "{" + strings.Join(parts, ", ") + "}"
}
