package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseSet,
				Kind:   KindTypeMismatch,
				Path:   []string{"Outer", "inner", "x"},
				GoType: "string",
				CType:  "int32",
				Detail: "cannot convert",
			},
			contains: []string{"[set]", "type_mismatch", "Outer.inner.x", "Go type string", "C type int32", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseBind,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[bind]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Detail: "arena full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[alloc]", "allocation", "arena full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Format(t *testing.T) {
	err := &Error{
		Phase:  PhaseSet,
		Kind:   KindOverflow,
		Path:   []string{"Point", "x"},
		CType:  "int8",
		Detail: "value 300 overflows int8",
	}
	want := "[set] overflow at Point.x: C type int8 - value 300 overflows int8"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &Error{Phase: PhaseDefine, Kind: KindUnknownType, Detail: "unknown type name `x`"}
	if got, want := bare.Error(), "[define] unknown_type: unknown type name `x`"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseSet,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDefine,
		Kind:  KindDuplicateField,
		Path:  []string{"S", "a"},
	}

	if !err.Is(&Error{Phase: PhaseDefine, Kind: KindDuplicateField}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseBind, Kind: KindDuplicateField}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDefine, Kind: KindZeroSize}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(fmt.Errorf("wrapped: %w", err), &Error{Phase: PhaseDefine, Kind: KindDuplicateField}) {
		t.Error("errors.Is should match through wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseSet, KindTypeMismatch).
		Path("point", "x").
		GoType("string").
		CType("int32").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "int32", "string").
		Build()

	if err.Phase != PhaseSet {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseSet)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "point" || err.Path[1] != "x" {
		t.Errorf("Path = %v, want [point x]", err.Path)
	}
	if err.GoType != "string" || err.CType != "int32" {
		t.Errorf("GoType=%v CType=%v", err.GoType, err.CType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected int32, got string" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want Category
	}{
		{DuplicateField("S", "a"), "duplicate", CategoryDefinition},
		{ZeroSize([]string{"S", "v"}, "void"), "zero_size", CategoryDefinition},
		{UnknownType("quux"), "unknown_type", CategoryDefinition},
		{Finalized("S", "b"), "finalized", CategoryDefinition},
		{BufferTooSmall(PhaseBind, 16, 8), "bounds", CategoryBounds},
		{OutOfBounds(PhaseGet, nil, 4, 8, 8), "out_of_bounds", CategoryBounds},
		{InvalidArgument(PhaseBind, "int", "unsupported initializer"), "argument", CategoryArgument},
		{Overflow(PhaseSet, nil, 300, "uint8"), "overflow", CategoryOther},
		{errors.New("plain"), "plain", CategoryOther},
		{nil, "nil", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf = %v, want %v", got, tt.want)
			}
		})
	}

	wrapped := fmt.Errorf("context: %w", DuplicateField("S", "a"))
	if !IsDefinition(wrapped) {
		t.Error("IsDefinition should see through wrapping")
	}
	if IsBounds(wrapped) || IsArgument(wrapped) {
		t.Error("definition error misclassified")
	}
	if !IsBounds(BufferTooSmall(PhaseBind, 16, 8)) {
		t.Error("IsBounds failed")
	}
	if !IsArgument(InvalidArgument(PhaseBind, "int", "x")) {
		t.Error("IsArgument failed")
	}
}

func TestHasKind(t *testing.T) {
	inner := NilPointer(PhaseGet, []string{"next"}, "Node *")
	outer := Wrap(PhaseLoad, KindInvalidData, inner, "deref")

	if !HasKind(outer, KindNilPointer) {
		t.Error("HasKind should find cause kind")
	}
	if !HasKind(outer, KindInvalidData) {
		t.Error("HasKind should find outer kind")
	}
	if HasKind(outer, KindOverflow) {
		t.Error("HasKind matched absent kind")
	}
	if HasKind(nil, KindOverflow) {
		t.Error("HasKind(nil) should be false")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnknownType", func(t *testing.T) {
		err := UnknownType("strnig")
		if !strings.Contains(err.Error(), "unknown type name `strnig`") {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("ZeroSize", func(t *testing.T) {
		err := ZeroSize([]string{"S", "v"}, "void")
		if !strings.Contains(err.Error(), "zero-sized type not allowed") {
			t.Errorf("message = %q", err.Error())
		}
		if err.CType != "void" {
			t.Errorf("CType = %q, want void", err.CType)
		}
	})

	t.Run("DuplicateField", func(t *testing.T) {
		err := DuplicateField("S", "a")
		if !strings.Contains(err.Error(), `duplicate field name "a"`) {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("BufferTooSmall", func(t *testing.T) {
		err := BufferTooSmall(PhaseBind, 24, 16)
		if !strings.Contains(err.Detail, "need 24") || !strings.Contains(err.Detail, "have 16") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		cause := errors.New("grow refused")
		err := AllocationFailed(PhaseAlloc, 1024, 8, cause)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
		if !errors.Is(err, cause) {
			t.Error("cause not reachable")
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseSet, []string{"val"}, 300, "uint8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("FieldUnknown", func(t *testing.T) {
		err := FieldUnknown(PhaseGet, []string{"S"}, "extra")
		if err.Kind != KindFieldUnknown {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFieldUnknown)
		}
	})

	t.Run("ParseFailed", func(t *testing.T) {
		err := ParseFailed("schema", errors.New("bad yaml"))
		if err.Phase != PhaseParse || !strings.Contains(err.Error(), "bad yaml") {
			t.Errorf("unexpected %v", err)
		}
	})
}
