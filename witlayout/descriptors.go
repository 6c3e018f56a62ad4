package witlayout

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
)

// StringType is a canonical ABI string: a u32 pointer to UTF-8 bytes
// followed by a u32 byte length.
type StringType struct{}

// String is the string descriptor.
var String = &StringType{}

func (*StringType) Name() string  { return "string" }
func (*StringType) Size() uint32  { return 8 }
func (*StringType) Align() uint32 { return 4 }

// Get returns the string the pair points at.
func (*StringType) Get(buf *buffer.Buffer, offset uint32) (any, error) {
	ptr, err := buf.ReadU32(offset)
	if err != nil {
		return nil, err
	}
	n, err := buf.ReadU32(offset + 4)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return "", nil
	}
	data, err := buf.Memory().Read(ptr, n)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGet, errors.KindOutOfBounds, err, "read string data")
	}
	if !utf8.Valid(data) {
		return nil, errors.InvalidData(errors.PhaseGet, nil, "string is not valid UTF-8")
	}
	return string(data), nil
}

// Set copies a string or []byte into memory from the buffer's allocator
// and stores the pair. The empty string is stored as (0, 0).
func (s *StringType) Set(buf *buffer.Buffer, offset uint32, value any) error {
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.TypeMismatch(errors.PhaseSet, nil, fmt.Sprintf("%T", value), s.Name())
	}
	if !utf8.Valid(data) {
		return errors.InvalidData(errors.PhaseSet, nil, "string is not valid UTF-8")
	}

	var ptr uint32
	if len(data) > 0 {
		store, err := buffer.Alloc(buf.Memory(), buf.Allocator(), uint32(len(data)), 1)
		if err != nil {
			return err
		}
		if err := store.Write(0, data); err != nil {
			return err
		}
		ptr = store.Address()
	}
	if err := buf.WriteU32(offset, ptr); err != nil {
		return err
	}
	return buf.WriteU32(offset+4, uint32(len(data)))
}

// CharType is a Unicode scalar value stored as a u32.
type CharType struct{}

// Char is the char descriptor.
var Char = &CharType{}

func (*CharType) Name() string  { return "char" }
func (*CharType) Size() uint32  { return 4 }
func (*CharType) Align() uint32 { return 4 }

// Get returns a rune.
func (c *CharType) Get(buf *buffer.Buffer, offset uint32) (any, error) {
	v, err := buf.ReadU32(offset)
	if err != nil {
		return nil, err
	}
	r := rune(v)
	if !validChar(r) {
		return nil, errors.InvalidData(errors.PhaseGet, nil, fmt.Sprintf("invalid char 0x%x", v))
	}
	return r, nil
}

// Set accepts a rune, an integer code point or a one-rune string.
func (c *CharType) Set(buf *buffer.Buffer, offset uint32, value any) error {
	var r rune
	switch v := value.(type) {
	case string:
		if utf8.RuneCountInString(v) != 1 {
			return errors.InvalidArgument(errors.PhaseSet, "string", "char needs exactly one rune")
		}
		r, _ = utf8.DecodeRuneInString(v)
	default:
		n, ok := codePoint(value)
		if !ok {
			return errors.TypeMismatch(errors.PhaseSet, nil, fmt.Sprintf("%T", value), c.Name())
		}
		r = -1
		if n >= 0 && n < 0x110000 {
			r = rune(n)
		}
	}
	if !validChar(r) {
		return errors.Overflow(errors.PhaseSet, nil, value, c.Name())
	}
	return buf.WriteU32(offset, uint32(r))
}

func codePoint(value any) (int64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return -1, true
		}
		return int64(rv.Uint()), true
	}
	return 0, false
}

func validChar(r rune) bool {
	if r >= 0xD800 && r <= 0xDFFF {
		return false
	}
	return r >= 0 && r < 0x110000
}
