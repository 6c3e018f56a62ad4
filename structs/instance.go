package structs

import (
	"fmt"
	"strings"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/types"
)

// Instance is a struct value viewed in place. It does not own its memory.
type Instance struct {
	typ *Type
	buf *buffer.Buffer
	off uint32
}

// Type returns the instance's struct type.
func (i *Instance) Type() *Type { return i.typ }

// Buffer returns the buffer the instance views.
func (i *Instance) Buffer() *buffer.Buffer { return i.buf }

// Offset returns the instance's offset within Buffer.
func (i *Instance) Offset() uint32 { return i.off }

// View returns a buffer covering exactly the instance's bytes.
func (i *Instance) View() (*buffer.Buffer, error) {
	return i.buf.Slice(i.off, i.typ.info.Size)
}

// Get reads the named field.
func (i *Instance) Get(name string) (any, error) {
	f, ok := i.typ.Field(name)
	if !ok {
		return nil, errors.FieldUnknown(errors.PhaseGet, []string{i.typ.Name()}, name)
	}
	return f.Type.Get(i.buf, i.off+f.Offset)
}

// Set writes the named field.
func (i *Instance) Set(name string, value any) error {
	f, ok := i.typ.Field(name)
	if !ok {
		return errors.FieldUnknown(errors.PhaseSet, []string{i.typ.Name()}, name)
	}
	return f.Type.Set(i.buf, i.off+f.Offset, value)
}

// Ref returns a reference to the instance. Dereferencing it yields a new
// instance aliasing the same memory.
func (i *Instance) Ref() types.Ref {
	view, err := i.View()
	if err != nil {
		return types.Ref{Elem: i.typ}
	}
	return types.NewRef(view, i.typ)
}

// Address returns the instance's reference. It is the value to store in a
// pointer field.
func (i *Instance) Address() types.Ref { return i.Ref() }

// Bytes returns a copy of the instance's bytes.
func (i *Instance) Bytes() ([]byte, error) {
	return i.buf.Bytes(i.off, i.typ.info.Size)
}

// Map reads every field into a map. Nested structs become maps and arrays
// become slices; pointers stay types.Ref.
func (i *Instance) Map() (map[string]any, error) {
	fields := i.typ.Fields()
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := f.Type.Get(i.buf, i.off+f.Offset)
		if err != nil {
			return nil, err
		}
		if out[f.Name], err = plain(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func plain(v any) (any, error) {
	switch v := v.(type) {
	case *Instance:
		return v.Map()
	case *types.ArrayView:
		vals, err := v.Values()
		if err != nil {
			return nil, err
		}
		for j, e := range vals {
			if vals[j], err = plain(e); err != nil {
				return nil, err
			}
		}
		return vals, nil
	}
	return v, nil
}

// String renders the instance as Name{field: value, ...}.
func (i *Instance) String() string {
	var b strings.Builder
	b.WriteString(i.typ.Name())
	b.WriteByte('{')
	for n, f := range i.typ.Fields() {
		if n > 0 {
			b.WriteString(", ")
		}
		v, err := f.Type.Get(i.buf, i.off+f.Offset)
		if err != nil {
			fmt.Fprintf(&b, "%s: <%v>", f.Name, err)
			continue
		}
		if s, ok := v.(string); ok {
			fmt.Fprintf(&b, "%s: %q", f.Name, s)
			continue
		}
		fmt.Fprintf(&b, "%s: %v", f.Name, v)
	}
	b.WriteByte('}')
	return b.String()
}
