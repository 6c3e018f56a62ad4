package types

import (
	"math"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
)

// Kind identifies a primitive type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
)

var kindNames = [...]string{
	KindVoid:    "void",
	KindBool:    "bool",
	KindInt8:    "int8",
	KindUint8:   "uint8",
	KindInt16:   "int16",
	KindUint16:  "uint16",
	KindInt32:   "int32",
	KindUint32:  "uint32",
	KindInt64:   "int64",
	KindUint64:  "uint64",
	KindFloat32: "float",
	KindFloat64: "double",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Primitive is a scalar type whose size equals its alignment.
type Primitive struct {
	kind Kind
	size uint32
}

// Primitive descriptors. They are singletons, so descriptor identity can be
// compared with ==.
var (
	Void    = &Primitive{kind: KindVoid, size: 0}
	Bool    = &Primitive{kind: KindBool, size: 1}
	Int8    = &Primitive{kind: KindInt8, size: 1}
	Uint8   = &Primitive{kind: KindUint8, size: 1}
	Int16   = &Primitive{kind: KindInt16, size: 2}
	Uint16  = &Primitive{kind: KindUint16, size: 2}
	Int32   = &Primitive{kind: KindInt32, size: 4}
	Uint32  = &Primitive{kind: KindUint32, size: 4}
	Int64   = &Primitive{kind: KindInt64, size: 8}
	Uint64  = &Primitive{kind: KindUint64, size: 8}
	Float32 = &Primitive{kind: KindFloat32, size: 4}
	Float64 = &Primitive{kind: KindFloat64, size: 8}
)

// Kind returns the primitive kind.
func (p *Primitive) Kind() Kind { return p.kind }

// Name implements Descriptor.
func (p *Primitive) Name() string { return p.kind.String() }

// Size implements Descriptor.
func (p *Primitive) Size() uint32 { return p.size }

// Align implements Descriptor.
func (p *Primitive) Align() uint32 {
	if p.size == 0 {
		return 1
	}
	return p.size
}

// Signed reports whether p is a signed integer type.
func (p *Primitive) Signed() bool {
	switch p.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

// Zero returns the Go zero value Get produces for zeroed memory.
func (p *Primitive) Zero() any {
	switch p.kind {
	case KindBool:
		return false
	case KindInt8:
		return int8(0)
	case KindUint8:
		return uint8(0)
	case KindInt16:
		return int16(0)
	case KindUint16:
		return uint16(0)
	case KindInt32:
		return int32(0)
	case KindUint32:
		return uint32(0)
	case KindInt64:
		return int64(0)
	case KindUint64:
		return uint64(0)
	case KindFloat32:
		return float32(0)
	case KindFloat64:
		return float64(0)
	}
	return nil
}

// Get implements Descriptor.
func (p *Primitive) Get(buf *buffer.Buffer, offset uint32) (any, error) {
	if p.kind == KindVoid {
		return nil, nil
	}
	raw, err := buf.ReadUint(offset, p.size)
	if err != nil {
		return nil, err
	}
	switch p.kind {
	case KindBool:
		return raw != 0, nil
	case KindInt8:
		return int8(raw), nil
	case KindUint8:
		return uint8(raw), nil
	case KindInt16:
		return int16(raw), nil
	case KindUint16:
		return uint16(raw), nil
	case KindInt32:
		return int32(raw), nil
	case KindUint32:
		return uint32(raw), nil
	case KindInt64:
		return int64(raw), nil
	case KindUint64:
		return raw, nil
	case KindFloat32:
		return math.Float32frombits(uint32(raw)), nil
	case KindFloat64:
		return math.Float64frombits(raw), nil
	}
	return nil, errors.Unsupported(errors.PhaseGet, "primitive kind "+p.kind.String())
}

// Set implements Descriptor.
func (p *Primitive) Set(buf *buffer.Buffer, offset uint32, value any) error {
	raw, err := p.encode(value)
	if err != nil {
		return err
	}
	if p.kind == KindVoid {
		return nil
	}
	return buf.WriteUint(offset, p.size, raw)
}

func (p *Primitive) encode(value any) (uint64, error) {
	var (
		raw     uint64
		numeric bool
		inRange bool
	)

	switch p.kind {
	case KindVoid:
		return 0, nil
	case KindBool:
		b, ok := coerceBool(value)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseSet, nil, typeName(value), p.Name())
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case KindInt8:
		var v int8
		v, numeric, inRange = coerceSigned[int8](value)
		raw = uint64(uint8(v))
	case KindUint8:
		var v uint8
		v, numeric, inRange = coerceUnsigned[uint8](value)
		raw = uint64(v)
	case KindInt16:
		var v int16
		v, numeric, inRange = coerceSigned[int16](value)
		raw = uint64(uint16(v))
	case KindUint16:
		var v uint16
		v, numeric, inRange = coerceUnsigned[uint16](value)
		raw = uint64(v)
	case KindInt32:
		var v int32
		v, numeric, inRange = coerceSigned[int32](value)
		raw = uint64(uint32(v))
	case KindUint32:
		var v uint32
		v, numeric, inRange = coerceUnsigned[uint32](value)
		raw = uint64(v)
	case KindInt64:
		var v int64
		v, numeric, inRange = coerceSigned[int64](value)
		raw = uint64(v)
	case KindUint64:
		raw, numeric, inRange = coerceUnsigned[uint64](value)
	case KindFloat32:
		v, ok := coerceFloat[float32](value)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseSet, nil, typeName(value), p.Name())
		}
		return uint64(math.Float32bits(v)), nil
	case KindFloat64:
		v, ok := coerceFloat[float64](value)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseSet, nil, typeName(value), p.Name())
		}
		return math.Float64bits(v), nil
	default:
		return 0, errors.Unsupported(errors.PhaseSet, "primitive kind "+p.kind.String())
	}

	if !numeric {
		return 0, errors.TypeMismatch(errors.PhaseSet, nil, typeName(value), p.Name())
	}
	if !inRange {
		return 0, errors.Overflow(errors.PhaseSet, nil, value, p.Name())
	}
	return raw, nil
}

func (p *Primitive) String() string { return p.Name() }
