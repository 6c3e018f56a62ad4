package types

import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	"github.com/wippyai/structlayout/errors"
)

// DataModel fixes the sizes of the C types whose width varies by platform.
type DataModel struct {
	Name        string
	PointerSize uint32
	LongSize    uint32
	SizeTSize   uint32
}

var (
	// LP64 is used by 64-bit Unix-like systems.
	LP64 = DataModel{Name: "lp64", PointerSize: 8, LongSize: 8, SizeTSize: 8}
	// LLP64 is used by 64-bit Windows.
	LLP64 = DataModel{Name: "llp64", PointerSize: 8, LongSize: 4, SizeTSize: 8}
	// ILP32 is used by 32-bit targets, including wasm32.
	ILP32 = DataModel{Name: "ilp32", PointerSize: 4, LongSize: 4, SizeTSize: 4}
)

// Native returns the data model of the running process.
func Native() DataModel {
	if unsafe.Sizeof(uintptr(0)) == 4 {
		return ILP32
	}
	if runtime.GOOS == "windows" {
		return LLP64
	}
	return LP64
}

// ParseDataModel resolves a model by name. An empty name selects Native.
func ParseDataModel(name string) (DataModel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return Native(), nil
	case "lp64":
		return LP64, nil
	case "llp64":
		return LLP64, nil
	case "ilp32", "wasm32":
		return ILP32, nil
	}
	return DataModel{}, errors.New(errors.PhaseParse, errors.KindNotFound).
		Value(name).
		Detail("unknown data model %q", name).
		Build()
}

func (m DataModel) String() string {
	return fmt.Sprintf("%s(ptr=%d,long=%d,size_t=%d)", m.Name, m.PointerSize, m.LongSize, m.SizeTSize)
}

func intOfSize(size uint32, signed bool) *Primitive {
	switch size {
	case 4:
		if signed {
			return Int32
		}
		return Uint32
	default:
		if signed {
			return Int64
		}
		return Uint64
	}
}

// Long returns the descriptor for C long.
func (m DataModel) Long() *Primitive { return intOfSize(m.LongSize, true) }

// ULong returns the descriptor for C unsigned long.
func (m DataModel) ULong() *Primitive { return intOfSize(m.LongSize, false) }

// SizeT returns the descriptor for size_t.
func (m DataModel) SizeT() *Primitive { return intOfSize(m.SizeTSize, false) }
