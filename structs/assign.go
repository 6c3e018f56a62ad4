package structs

import (
	"fmt"
	"reflect"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
)

// TagName is the struct tag that maps Go struct fields to field names.
const TagName = "layout"

// Assign writes a whole record into the instance. value may be:
//
//   - nil, which zeroes the instance
//   - an *Instance of the same layout in the same memory, copied byte for byte
//   - any other *Instance, copied field by field where names match
//   - a map with string keys
//   - a Go struct or pointer to one, fields named by their `layout` tag or
//     their Go name
//
// Keys and Go fields that name no struct field are ignored. Fields missing
// from value keep their current bytes.
func (i *Instance) Assign(value any) error {
	switch v := value.(type) {
	case nil:
		return i.buf.Zero(i.off, i.typ.info.Size)
	case *Instance:
		return i.assignInstance(v)
	case map[string]any:
		for _, f := range i.typ.Fields() {
			if fv, ok := v[f.Name]; ok {
				if err := f.Type.Set(i.buf, i.off+f.Offset, fv); err != nil {
					return err
				}
			}
		}
		return nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch {
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		return i.assignMap(rv)
	case rv.Kind() == reflect.Struct:
		return i.assignStruct(rv)
	}
	return errors.InvalidArgument(errors.PhaseSet, fmt.Sprintf("%T", value),
		"struct value must be a map, a struct or an instance")
}

func (i *Instance) assignInstance(src *Instance) error {
	if src == nil {
		return i.buf.Zero(i.off, i.typ.info.Size)
	}
	// Raw bytes are only meaningful in the memory their pointers refer to.
	if SameLayout(i.typ, src.typ) && i.buf.Memory() == src.buf.Memory() {
		return buffer.Copy(i.buf, i.off, src.buf, src.off, i.typ.info.Size)
	}

	// Every source field is read before any destination byte is written,
	// so overlapping ranges copy as if through an intermediate buffer.
	type pending struct {
		f Field
		v any
	}
	var writes []pending
	for _, f := range i.typ.Fields() {
		sf, ok := src.typ.Field(f.Name)
		if !ok {
			continue
		}
		v, err := sf.Type.Get(src.buf, src.off+sf.Offset)
		if err != nil {
			return err
		}
		if v, err = plain(v); err != nil {
			return err
		}
		writes = append(writes, pending{f: f, v: v})
	}
	for _, w := range writes {
		if err := w.f.Type.Set(i.buf, i.off+w.f.Offset, w.v); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) assignMap(m reflect.Value) error {
	for _, f := range i.typ.Fields() {
		key := reflect.ValueOf(f.Name).Convert(m.Type().Key())
		v := m.MapIndex(key)
		if !v.IsValid() {
			continue
		}
		if err := f.Type.Set(i.buf, i.off+f.Offset, v.Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) assignStruct(s reflect.Value) error {
	st := s.Type()
	for n := 0; n < st.NumField(); n++ {
		sf := st.Field(n)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup(TagName); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		f, ok := i.typ.Field(name)
		if !ok {
			continue
		}
		if err := f.Type.Set(i.buf, i.off+f.Offset, s.Field(n).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// assignable reports whether Assign accepts value without inspecting it
// further.
func assignable(value any) bool {
	switch value.(type) {
	case *Instance, map[string]any:
		return true
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Struct:
		return true
	}
	return false
}
