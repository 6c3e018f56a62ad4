package types

import (
	"fmt"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
)

// MaxCStringLen bounds how far Get scans for a terminating NUL.
const MaxCStringLen = 1 << 30

// CStringType is a char * that reads and writes Go strings. A null pointer
// reads as nil.
type CStringType struct {
	size uint32
}

// CString returns the C string type for model.
func CString(model DataModel) *CStringType {
	return &CStringType{size: model.PointerSize}
}

// Name implements Descriptor.
func (c *CStringType) Name() string { return "CString" }

// Size implements Descriptor.
func (c *CStringType) Size() uint32 { return c.size }

// Align implements Descriptor.
func (c *CStringType) Align() uint32 { return c.size }

// IdenticalTo implements layout identity.
func (c *CStringType) IdenticalTo(other Descriptor) bool {
	o, ok := other.(*CStringType)
	return ok && o.size == c.size
}

// Get implements Descriptor. It returns a string, or nil for NULL.
func (c *CStringType) Get(buf *buffer.Buffer, offset uint32) (any, error) {
	addr, err := readAddress(buf, offset, c.size)
	if err != nil {
		return nil, err
	}
	if addr == 0 {
		return nil, nil
	}
	return readCString(buf, addr)
}

// Set implements Descriptor. A string or []byte is copied into memory
// obtained from the buffer's allocator; nil, Refs and integers are stored
// as addresses.
func (c *CStringType) Set(buf *buffer.Buffer, offset uint32, value any) error {
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		addr, err := addressOf(buf, value, c.Name())
		if err != nil {
			return err
		}
		return buf.WriteUint(offset, c.size, uint64(addr))
	}

	for i, b := range data {
		if b == 0 {
			return errors.InvalidData(errors.PhaseSet, nil, fmt.Sprintf("string contains NUL at byte %d", i))
		}
	}
	if buf.Allocator() == nil {
		return errors.New(errors.PhaseSet, errors.KindAllocation).
			CType(c.Name()).
			Detail("buffer has no allocator for string data").
			Build()
	}
	n := uint32(len(data)) + 1
	store, err := buffer.Alloc(buf.Memory(), buf.Allocator(), n, 1)
	if err != nil {
		return err
	}
	if err := store.Write(0, data); err != nil {
		return err
	}
	return buf.WriteUint(offset, c.size, uint64(store.Address()))
}

func (c *CStringType) String() string { return c.Name() }

func readCString(buf *buffer.Buffer, addr uint32) (string, error) {
	mem := buf.Memory()
	var out []byte
	for n := uint32(0); n < MaxCStringLen; n++ {
		b, err := mem.ReadU8(addr + n)
		if err != nil {
			return "", errors.Wrap(errors.PhaseGet, errors.KindOutOfBounds, err, "read C string")
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, b)
	}
	return "", errors.InvalidData(errors.PhaseGet, nil, "unterminated C string")
}
