package types

import (
	"math"
	"testing"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/hostmem"
)

func newBuf(t *testing.T, size uint32) *buffer.Buffer {
	t.Helper()
	arena := hostmem.New()
	buf, err := buffer.Alloc(arena, arena, size, 8)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	return buf
}

func TestPrimitiveRoundTrip(t *testing.T) {
	type flags uint16

	tests := []struct {
		name  string
		desc  *Primitive
		in    any
		want  any
		bytes []byte
	}{
		{"int8_negative", Int8, -5, int8(-5), nil},
		{"uint8_from_int", Uint8, 255, uint8(255), nil},
		{"int16", Int16, int16(-300), int16(-300), nil},
		{"uint16_named", Uint16, flags(7), uint16(7), nil},
		{"int32_from_float", Int32, 42.0, int32(42), nil},
		{"uint32", Uint32, uint32(math.MaxUint32), uint32(math.MaxUint32), nil},
		{"int64_min", Int64, int64(math.MinInt64), int64(math.MinInt64), nil},
		{"uint64_max", Uint64, uint64(math.MaxUint64), uint64(math.MaxUint64), nil},
		{"float32", Float32, float32(1.5), float32(1.5), nil},
		{"float64_from_int", Float64, 3, float64(3), nil},
		{"bool_true", Bool, true, true, []byte{1}},
		{"bool_from_int", Bool, 0, false, []byte{0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := newBuf(t, 8)
			if err := tc.desc.Set(buf, 0, tc.in); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := tc.desc.Get(buf, 0)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
			if tc.bytes != nil {
				raw, _ := buf.Bytes(0, uint32(len(tc.bytes)))
				for i := range tc.bytes {
					if raw[i] != tc.bytes[i] {
						t.Errorf("byte %d: got %d, want %d", i, raw[i], tc.bytes[i])
					}
				}
			}
		})
	}
}

func TestPrimitiveNaNBits(t *testing.T) {
	buf := newBuf(t, 8)
	nan := math.Float64frombits(0x7ff8_0000_dead_beef)
	if err := Float64.Set(buf, 0, nan); err != nil {
		t.Fatal(err)
	}
	raw, _ := buf.ReadU64(0)
	if raw != 0x7ff8_0000_dead_beef {
		t.Errorf("NaN payload changed: %x", raw)
	}
}

func TestPrimitiveSetErrors(t *testing.T) {
	buf := newBuf(t, 8)

	tests := []struct {
		name string
		desc *Primitive
		in   any
		kind errors.Kind
	}{
		{"uint8_overflow", Uint8, 256, errors.KindOverflow},
		{"uint32_negative", Uint32, -1, errors.KindOverflow},
		{"int8_fraction", Int8, 1.5, errors.KindOverflow},
		{"int64_big_unsigned", Int64, uint64(math.MaxUint64), errors.KindOverflow},
		{"int32_string", Int32, "12", errors.KindTypeMismatch},
		{"double_string", Float64, "x", errors.KindTypeMismatch},
		{"bool_string", Bool, "true", errors.KindTypeMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.desc.Set(buf, 0, tc.in)
			if !errors.HasKind(err, tc.kind) {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}

	if err := Int64.Set(buf, 4, 1); !errors.IsBounds(err) {
		t.Errorf("expected bounds error, got %v", err)
	}
}

func TestPrimitiveLayout(t *testing.T) {
	if Void.Size() != 0 || Void.Align() != 1 {
		t.Errorf("void: size %d align %d", Void.Size(), Void.Align())
	}
	for _, p := range []*Primitive{Int8, Int16, Int32, Int64, Float32, Float64} {
		if p.Size() != p.Align() {
			t.Errorf("%s: size %d align %d", p, p.Size(), p.Align())
		}
	}
	if Int32.Name() != "int32" || Float64.Name() != "double" {
		t.Errorf("names: %s %s", Int32.Name(), Float64.Name())
	}
}

func TestDataModel(t *testing.T) {
	tests := []struct {
		name       string
		model      DataModel
		long, size uint32
	}{
		{"lp64", LP64, 8, 8},
		{"llp64", LLP64, 4, 8},
		{"wasm32", ILP32, 4, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := ParseDataModel(tc.name)
			if err != nil {
				t.Fatal(err)
			}
			if m != tc.model {
				t.Fatalf("got %v, want %v", m, tc.model)
			}
			if m.Long().Size() != tc.long || m.SizeT().Size() != tc.size {
				t.Errorf("long %d size_t %d", m.Long().Size(), m.SizeT().Size())
			}
		})
	}

	if _, err := ParseDataModel("pdp11"); !errors.HasKind(err, errors.KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
	if m, _ := ParseDataModel(""); m != Native() {
		t.Errorf("empty name should select native, got %v", m)
	}
}

func TestPointer(t *testing.T) {
	arena := hostmem.New()
	holder, _ := buffer.Alloc(arena, arena, 8, 8)
	target, _ := buffer.Alloc(arena, arena, 4, 4)
	if err := Int32.Set(target, 0, 99); err != nil {
		t.Fatal(err)
	}

	ptr := Pointer(Int32, LP64)
	if ptr.Name() != "int32 *" || ptr.Size() != 8 || ptr.Align() != 8 {
		t.Fatalf("pointer layout: %s %d %d", ptr.Name(), ptr.Size(), ptr.Align())
	}

	t.Run("null", func(t *testing.T) {
		v, err := ptr.Get(holder, 0)
		if err != nil {
			t.Fatal(err)
		}
		ref := v.(Ref)
		if !ref.IsNull() {
			t.Fatalf("fresh pointer not null: %v", ref)
		}
		if _, err := ref.Deref(); !errors.HasKind(err, errors.KindNilPointer) {
			t.Errorf("expected nil_pointer, got %v", err)
		}
		if ref.String() != "NULL" {
			t.Errorf("String = %q", ref.String())
		}
	})

	t.Run("buffer_target", func(t *testing.T) {
		if err := ptr.Set(holder, 0, target); err != nil {
			t.Fatal(err)
		}
		v, _ := ptr.Get(holder, 0)
		ref := v.(Ref)
		if ref.Address() != target.Address() {
			t.Fatalf("address: got %#x, want %#x", ref.Address(), target.Address())
		}
		got, err := ref.Deref()
		if err != nil {
			t.Fatal(err)
		}
		if got != int32(99) {
			t.Errorf("deref: got %v", got)
		}
		if err := ref.Store(int32(-1)); err != nil {
			t.Fatal(err)
		}
		if v, _ := Int32.Get(target, 0); v != int32(-1) {
			t.Errorf("store not visible through target: %v", v)
		}
	})

	t.Run("ref_and_integer", func(t *testing.T) {
		if err := ptr.Set(holder, 0, NewRef(target, Int32)); err != nil {
			t.Fatal(err)
		}
		if err := ptr.Set(holder, 0, nil); err != nil {
			t.Fatal(err)
		}
		if raw, _ := holder.ReadU64(0); raw != 0 {
			t.Errorf("nil did not clear: %#x", raw)
		}
		if err := ptr.Set(holder, 0, target.Address()); err != nil {
			t.Fatal(err)
		}
		if raw, _ := holder.ReadU64(0); raw != uint64(target.Address()) {
			t.Errorf("integer address: %#x", raw)
		}
	})

	t.Run("foreign_memory", func(t *testing.T) {
		other := hostmem.New()
		foreign, _ := buffer.Alloc(other, other, 4, 4)
		if err := ptr.Set(holder, 0, foreign); !errors.IsArgument(err) {
			t.Errorf("expected invalid_argument, got %v", err)
		}
	})

	t.Run("type_mismatch", func(t *testing.T) {
		if err := ptr.Set(holder, 0, "nope"); !errors.HasKind(err, errors.KindTypeMismatch) {
			t.Errorf("expected type_mismatch, got %v", err)
		}
	})

	t.Run("void", func(t *testing.T) {
		vp := Pointer(nil, ILP32)
		if vp.Name() != "void *" || vp.Size() != 4 {
			t.Fatalf("void pointer: %s %d", vp.Name(), vp.Size())
		}
		if err := vp.Set(holder, 0, target); err != nil {
			t.Fatal(err)
		}
		v, _ := vp.Get(holder, 0)
		if _, err := v.(Ref).Deref(); !errors.HasKind(err, errors.KindUnsupported) {
			t.Errorf("expected unsupported, got %v", err)
		}
	})
}

func TestPointerIdentity(t *testing.T) {
	if !Identical(Pointer(Int32, LP64), Pointer(Int32, LP64)) {
		t.Error("equal pointer types not identical")
	}
	if Identical(Pointer(Int32, LP64), Pointer(Int32, ILP32)) {
		t.Error("pointer width ignored")
	}
	if Identical(Pointer(Int32, LP64), Pointer(Int64, LP64)) {
		t.Error("pointee ignored")
	}
	if !Identical(Pointer(nil, LP64), Pointer(nil, LP64)) {
		t.Error("void pointers not identical")
	}
	if Pointer(Pointer(Int8, LP64), LP64).Name() != "int8 **" {
		t.Errorf("double pointer name: %s", Pointer(Pointer(Int8, LP64), LP64).Name())
	}
}

func TestCString(t *testing.T) {
	cs := CString(LP64)
	buf := newBuf(t, 16)

	v, err := cs.Get(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("NULL string: got %v", v)
	}

	if err := cs.Set(buf, 0, "Hello World"); err != nil {
		t.Fatal(err)
	}
	v, err = cs.Get(buf, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != "Hello World" {
		t.Errorf("got %q", v)
	}

	if err := cs.Set(buf, 8, []byte("")); err != nil {
		t.Fatal(err)
	}
	if v, _ := cs.Get(buf, 8); v != "" {
		t.Errorf("empty string: got %v", v)
	}

	if err := cs.Set(buf, 0, "a\x00b"); !errors.HasKind(err, errors.KindInvalidData) {
		t.Errorf("expected invalid_data, got %v", err)
	}

	if err := cs.Set(buf, 0, nil); err != nil {
		t.Fatal(err)
	}
	if v, _ := cs.Get(buf, 0); v != nil {
		t.Errorf("after nil: got %v", v)
	}

	noAlloc, _ := buffer.New(buf.Memory(), buf.Address(), buf.Len())
	if err := cs.Set(noAlloc, 0, "x"); !errors.HasKind(err, errors.KindAllocation) {
		t.Errorf("expected allocation error, got %v", err)
	}
}

func TestArray(t *testing.T) {
	t.Run("construction", func(t *testing.T) {
		arr, err := Array(Float64, 10)
		if err != nil {
			t.Fatal(err)
		}
		if arr.Size() != 80 || arr.Align() != 8 || arr.Name() != "double[10]" {
			t.Errorf("got %s size %d align %d", arr.Name(), arr.Size(), arr.Align())
		}
		if _, err := Array(Int8, 0); !errors.HasKind(err, errors.KindZeroSize) {
			t.Errorf("n=0: expected zero_size, got %v", err)
		}
		if _, err := Array(Void, 4); !errors.HasKind(err, errors.KindZeroSize) {
			t.Errorf("void elem: expected zero_size, got %v", err)
		}
		if _, err := Array(Int64, 1<<30); !errors.HasKind(err, errors.KindOverflow) {
			t.Errorf("expected overflow, got %v", err)
		}
	})

	t.Run("values", func(t *testing.T) {
		arr, _ := Array(Int32, 4)
		buf := newBuf(t, arr.Size())
		if err := arr.Set(buf, 0, []int{1, 2, 3}); err != nil {
			t.Fatal(err)
		}
		v, err := arr.Get(buf, 0)
		if err != nil {
			t.Fatal(err)
		}
		view := v.(*ArrayView)
		vals, err := view.Values()
		if err != nil {
			t.Fatal(err)
		}
		want := []any{int32(1), int32(2), int32(3), int32(0)}
		for i := range want {
			if vals[i] != want[i] {
				t.Errorf("[%d]: got %v, want %v", i, vals[i], want[i])
			}
		}

		if err := view.SetIndex(3, 40); err != nil {
			t.Fatal(err)
		}
		if got, _ := view.Index(3); got != int32(40) {
			t.Errorf("SetIndex: got %v", got)
		}
		if _, err := view.Index(4); !errors.IsBounds(err) {
			t.Errorf("expected bounds error, got %v", err)
		}

		// Shorter input leaves the tail unchanged.
		if err := arr.Set(buf, 0, []any{9}); err != nil {
			t.Fatal(err)
		}
		if got, _ := view.Index(3); got != int32(40) {
			t.Errorf("tail overwritten: %v", got)
		}
		if err := arr.Set(buf, 0, [5]int{}); !errors.IsBounds(err) {
			t.Errorf("expected bounds error for long input, got %v", err)
		}
		if err := arr.Set(buf, 0, 7); !errors.HasKind(err, errors.KindTypeMismatch) {
			t.Errorf("expected type_mismatch, got %v", err)
		}
	})

	t.Run("view_across_memories", func(t *testing.T) {
		arr, _ := Array(CString(LP64), 2)
		src := newBuf(t, arr.Size())
		if err := arr.Set(src, 0, []any{"a", "bc"}); err != nil {
			t.Fatal(err)
		}
		v, _ := arr.Get(src, 0)

		dst := newBuf(t, arr.Size())
		if err := arr.Set(dst, 0, v); err != nil {
			t.Fatal(err)
		}
		got, _ := arr.Get(dst, 0)
		vals, err := got.(*ArrayView).Values()
		if err != nil {
			t.Fatal(err)
		}
		if vals[0] != "a" || vals[1] != "bc" {
			t.Errorf("got %v, want [a bc]", vals)
		}
	})

	t.Run("char_text", func(t *testing.T) {
		arr, _ := Array(Int8, 8)
		buf := newBuf(t, arr.Size())
		if err := arr.Set(buf, 0, "abcdefg"); err != nil {
			t.Fatal(err)
		}
		if err := arr.Set(buf, 0, "hi"); err != nil {
			t.Fatal(err)
		}
		v, _ := arr.Get(buf, 0)
		text, err := v.(*ArrayView).Text()
		if err != nil {
			t.Fatal(err)
		}
		if text != "hi" {
			t.Errorf("text: got %q", text)
		}
		raw, _ := v.(*ArrayView).Bytes()
		for i := 2; i < 8; i++ {
			if raw[i] != 0 {
				t.Errorf("byte %d not cleared: %d", i, raw[i])
			}
		}
		if err := arr.Set(buf, 0, "too long string"); !errors.IsBounds(err) {
			t.Errorf("expected bounds error, got %v", err)
		}
	})

	t.Run("view_copy", func(t *testing.T) {
		arr, _ := Array(Uint16, 3)
		src := newBuf(t, arr.Size())
		dst := newBuf(t, arr.Size())
		_ = arr.Set(src, 0, []uint16{7, 8, 9})
		v, _ := arr.Get(src, 0)
		if err := arr.Set(dst, 0, v); err != nil {
			t.Fatal(err)
		}
		got, _ := arr.Get(dst, 0)
		if got.(*ArrayView).String() != "uint16[3]{7, 8, 9}" {
			t.Errorf("copy: %s", got)
		}

		other, _ := Array(Int16, 3)
		if err := other.Set(dst, 0, v); !errors.HasKind(err, errors.KindTypeMismatch) {
			t.Errorf("expected type_mismatch, got %v", err)
		}
	})

	t.Run("nested_name", func(t *testing.T) {
		inner, _ := Array(Int32, 3)
		outer, _ := Array(inner, 2)
		if outer.Name() != "int32[2][3]" || outer.Size() != 24 {
			t.Errorf("got %s size %d", outer.Name(), outer.Size())
		}
	})
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry(LP64)

	tests := []struct {
		name  string
		size  uint32
		align uint32
		print string
	}{
		{"int", 4, 4, "int32"},
		{"char", 1, 1, "int8"},
		{"long", 8, 8, "int64"},
		{"size_t", 8, 8, "uint64"},
		{"double", 8, 8, "double"},
		{"char *", 8, 8, "int8 *"},
		{"int**", 8, 8, "int32 **"},
		{"void *", 8, 8, "void *"},
		{"pointer", 8, 8, "void *"},
		{"string", 8, 8, "CString"},
		{"char[33]", 33, 1, "int8[33]"},
		{"int[2][3]", 24, 4, "int32[2][3]"},
		{"char *[4]", 32, 8, "int8 *[4]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := reg.Resolve(tc.name)
			if err != nil {
				t.Fatal(err)
			}
			if d.Size() != tc.size || d.Align() != tc.align || d.Name() != tc.print {
				t.Errorf("got %s size %d align %d", d.Name(), d.Size(), d.Align())
			}
		})
	}

	first, _ := reg.Resolve("short *")
	second, _ := reg.Resolve("short *")
	if first != second {
		t.Error("resolved suffix types are not cached")
	}
	if s, _ := reg.Resolve("string"); s != Descriptor(mustLookup(t, reg, "CString")) {
		t.Error("string and CString differ")
	}
}

func mustLookup(t *testing.T, reg *Registry, name string) Descriptor {
	t.Helper()
	d, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("%s not registered", name)
	}
	return d
}

func TestRegistryBase(t *testing.T) {
	reg := NewRegistry(LP64)

	tests := []struct {
		name    string
		want    Descriptor
		byValue bool
		ok      bool
	}{
		{"int", Int32, true, true},
		{"int[4]", Int32, true, true},
		{"int[2][3]", Int32, true, true},
		{"int *", Int32, false, true},
		{"int *[4]", Int32, false, true},
		{" char ", Int8, true, true},
		{"nosuch[2]", nil, true, false},
		{"int[x]", nil, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, byValue, ok := reg.Base(tc.name)
			if ok != tc.ok {
				t.Fatalf("ok: got %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if d != tc.want || byValue != tc.byValue {
				t.Errorf("got (%v, %v), want (%v, %v)", d, byValue, tc.want, tc.byValue)
			}
		})
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry(ILP32)

	_, err := reg.Resolve("strnig")
	if !errors.HasKind(err, errors.KindUnknownType) {
		t.Fatalf("expected unknown_type, got %v", err)
	}
	if e := err.(*errors.Error); e.Detail != "unknown type name `strnig`" {
		t.Errorf("detail: %q", e.Detail)
	}
	if _, err := reg.Resolve("int[x]"); !errors.HasKind(err, errors.KindUnknownType) {
		t.Errorf("bad dimension: got %v", err)
	}
	if _, err := reg.Resolve("char[0]"); !errors.HasKind(err, errors.KindZeroSize) {
		t.Errorf("zero dimension: got %v", err)
	}

	if err := reg.Register("int", Int64); !errors.IsArgument(err) {
		t.Errorf("duplicate register: got %v", err)
	}
	if err := reg.Register("T *", Int64); !errors.IsArgument(err) {
		t.Errorf("suffix in name: got %v", err)
	}
	if err := reg.Register("handle", Uint32); err != nil {
		t.Fatal(err)
	}
	d, err := reg.Resolve("handle *")
	if err != nil {
		t.Fatal(err)
	}
	if d.Size() != 4 {
		t.Errorf("ILP32 pointer size: %d", d.Size())
	}
}
