package layout

import (
	"math"

	"github.com/wippyai/structlayout/errors"
)

// Info is the running layout state of a struct.
type Info struct {
	// Size is the published size, including trailing padding.
	Size uint32
	// Align is the struct alignment, always a power of two.
	Align uint32
	// End is the end offset of the last field, before trailing padding.
	End uint32
}

// Empty is the layout of a struct with no fields.
var Empty = Info{Size: 0, Align: 1, End: 0}

// Spec describes one field for Compute.
type Spec struct {
	Name  string
	Size  uint32
	Align uint32
}

// Result is the outcome of Compute.
type Result struct {
	Offsets []uint32
	Info
}

// AlignTo rounds offset up to a multiple of align, which must be a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// IsPowerOfTwo reports whether v is a non-zero power of two.
func IsPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// SafeAddU32 returns a+b and whether the sum fits in a uint32.
func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// SafeMulU32 returns a*b and whether the product fits in a uint32.
func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

// Append places a field of the given size and alignment after the fields
// already described by info. It returns the field offset and the new state.
// The returned state is already finished; info is never modified.
func Append(info Info, size, align uint32, packed bool) (uint32, Info, error) {
	if size == 0 {
		return 0, info, errors.ZeroSize(nil, "")
	}
	if !IsPowerOfTwo(align) {
		return 0, info, errors.New(errors.PhaseDefine, errors.KindInvalidArgument).
			Value(align).
			Detail("alignment %d is not a power of two", align).
			Build()
	}
	if info.Align == 0 {
		info.Align = 1
	}

	effAlign := align
	if packed {
		effAlign = 1
	}

	// Fields pack against the end of the previous field, not the padded size.
	cursor := info.End
	if cursor > math.MaxUint32-(effAlign-1) {
		return 0, info, errors.Overflow(errors.PhaseDefine, nil, cursor, "struct offset")
	}
	offset := AlignTo(cursor, effAlign)
	end, ok := SafeAddU32(offset, size)
	if !ok {
		return 0, info, errors.Overflow(errors.PhaseDefine, nil, uint64(offset)+uint64(size), "struct size")
	}

	next := Info{Align: 1, End: end}
	if !packed {
		next.Align = max(info.Align, align)
	}
	finished, err := finish(next, packed)
	if err != nil {
		return 0, info, err
	}
	return offset, finished, nil
}

// Finish applies trailing padding to info. It is idempotent.
func Finish(info Info, packed bool) Info {
	out, err := finish(info, packed)
	if err != nil {
		return info
	}
	return out
}

func finish(info Info, packed bool) (Info, error) {
	if info.Align == 0 {
		info.Align = 1
	}
	if packed {
		info.Align = 1
		info.Size = info.End
		return info, nil
	}
	if info.End > math.MaxUint32-(info.Align-1) {
		return info, errors.Overflow(errors.PhaseDefine, nil, info.End, "struct size")
	}
	info.Size = AlignTo(info.End, info.Align)
	return info, nil
}

// Compute lays out fields in order and applies trailing padding. Names
// must be unique. It is the bulk form of Append used for whole field lists.
func Compute(fields []Spec, packed bool) (Result, error) {
	res := Result{Info: Empty, Offsets: make([]uint32, 0, len(fields))}
	seen := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			e := errors.DuplicateField("", f.Name)
			e.Path = []string{f.Name}
			return Result{}, e
		}
		off, next, err := Append(res.Info, f.Size, f.Align, packed)
		if err != nil {
			if e, ok := err.(*errors.Error); ok && len(e.Path) == 0 {
				e.Path = []string{f.Name}
			}
			return Result{}, err
		}
		seen[f.Name] = struct{}{}
		res.Offsets = append(res.Offsets, off)
		res.Info = next
	}

	res.Info = Finish(res.Info, packed)
	return res, nil
}

// Padding returns the number of padding bytes following each field, given
// the field offsets and sizes and the published struct size.
func Padding(offsets, sizes []uint32, total uint32) []uint32 {
	pad := make([]uint32, len(offsets))
	for i := range offsets {
		end := offsets[i] + sizes[i]
		next := total
		if i+1 < len(offsets) {
			next = offsets[i+1]
		}
		if next > end {
			pad[i] = next - end
		}
	}
	return pad
}
