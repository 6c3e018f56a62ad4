package witlayout

import (
	"fmt"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/types"
)

// EnumType stores an enum case as its index in the smallest unsigned
// integer that holds every case.
type EnumType struct {
	disc  *types.Primitive
	index map[string]uint32
	name  string
	cases []string
}

// NewEnum returns an enum descriptor for cases in declaration order.
func NewEnum(name string, cases []string) (*EnumType, error) {
	if len(cases) == 0 {
		return nil, errors.ZeroSize(nil, "enum "+name)
	}
	e := &EnumType{name: name, cases: cases, index: make(map[string]uint32, len(cases))}
	for i, c := range cases {
		if _, dup := e.index[c]; dup {
			return nil, errors.DuplicateField(name, c)
		}
		e.index[c] = uint32(i)
	}
	switch n := len(cases); {
	case n <= 1<<8:
		e.disc = types.Uint8
	case n <= 1<<16:
		e.disc = types.Uint16
	default:
		e.disc = types.Uint32
	}
	return e, nil
}

func (e *EnumType) Name() string {
	if e.name == "" {
		return "enum"
	}
	return e.name
}

func (e *EnumType) Size() uint32  { return e.disc.Size() }
func (e *EnumType) Align() uint32 { return e.disc.Align() }

// Cases returns the case names in order.
func (e *EnumType) Cases() []string { return e.cases }

// Get returns the case name.
func (e *EnumType) Get(buf *buffer.Buffer, offset uint32) (any, error) {
	raw, err := buf.ReadUint(offset, e.disc.Size())
	if err != nil {
		return nil, err
	}
	if raw >= uint64(len(e.cases)) {
		return nil, errors.InvalidData(errors.PhaseGet, nil,
			fmt.Sprintf("discriminant %d out of range for %s", raw, e.Name()))
	}
	return e.cases[raw], nil
}

// Set accepts a case name or a case index.
func (e *EnumType) Set(buf *buffer.Buffer, offset uint32, value any) error {
	if name, ok := value.(string); ok {
		i, found := e.index[name]
		if !found {
			return errors.New(errors.PhaseSet, errors.KindInvalidArgument).
				CType(e.Name()).
				Value(name).
				Detail("unknown case %q", name).
				Build()
		}
		return buf.WriteUint(offset, e.disc.Size(), uint64(i))
	}
	n, ok := codePoint(value)
	if !ok {
		return errors.TypeMismatch(errors.PhaseSet, nil, fmt.Sprintf("%T", value), e.Name())
	}
	if n < 0 || n >= int64(len(e.cases)) {
		return errors.Overflow(errors.PhaseSet, nil, value, e.Name())
	}
	return buf.WriteUint(offset, e.disc.Size(), uint64(n))
}
