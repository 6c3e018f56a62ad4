package types

import (
	"math"
	"reflect"

	"golang.org/x/exp/constraints"
)

// number normalizes any Go numeric value. Exactly one of the flags
// describes which field carries the value.
type number struct {
	i        int64
	u        uint64
	f        float64
	isSigned bool
	isFloat  bool
}

func toNumber(value any) (number, bool) {
	switch v := value.(type) {
	case int:
		return number{i: int64(v), isSigned: true}, true
	case int8:
		return number{i: int64(v), isSigned: true}, true
	case int16:
		return number{i: int64(v), isSigned: true}, true
	case int32:
		return number{i: int64(v), isSigned: true}, true
	case int64:
		return number{i: v, isSigned: true}, true
	case uint:
		return number{u: uint64(v)}, true
	case uint8:
		return number{u: uint64(v)}, true
	case uint16:
		return number{u: uint64(v)}, true
	case uint32:
		return number{u: uint64(v)}, true
	case uint64:
		return number{u: v}, true
	case uintptr:
		return number{u: uint64(v)}, true
	case float32:
		return number{f: float64(v), isFloat: true}, true
	case float64:
		return number{f: v, isFloat: true}, true
	}

	// Named numeric types (e.g. type Flags uint16).
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: rv.Int(), isSigned: true}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float(), isFloat: true}, true
	}
	return number{}, false
}

// coerceSigned converts value to T when the value is exactly representable.
// The second result is false for non-numbers, the third for overflow.
func coerceSigned[T constraints.Signed](value any) (T, bool, bool) {
	n, ok := toNumber(value)
	if !ok {
		return 0, false, false
	}
	var i int64
	switch {
	case n.isFloat:
		if n.f != math.Trunc(n.f) || n.f < math.MinInt64 || n.f >= math.MaxInt64 {
			return 0, true, false
		}
		i = int64(n.f)
	case n.isSigned:
		i = n.i
	default:
		if n.u > math.MaxInt64 {
			return 0, true, false
		}
		i = int64(n.u)
	}
	if int64(T(i)) != i {
		return 0, true, false
	}
	return T(i), true, true
}

// coerceUnsigned converts value to T when the value is exactly representable.
func coerceUnsigned[T constraints.Unsigned](value any) (T, bool, bool) {
	n, ok := toNumber(value)
	if !ok {
		return 0, false, false
	}
	var u uint64
	switch {
	case n.isFloat:
		if n.f != math.Trunc(n.f) || n.f < 0 || n.f >= math.MaxUint64 {
			return 0, true, false
		}
		u = uint64(n.f)
	case n.isSigned:
		if n.i < 0 {
			return 0, true, false
		}
		u = uint64(n.i)
	default:
		u = n.u
	}
	if uint64(T(u)) != u {
		return 0, true, false
	}
	return T(u), true, true
}

// coerceFloat converts value to T. Integers are converted, floats of the
// other width are converted with the usual rounding.
func coerceFloat[T constraints.Float](value any) (T, bool) {
	switch v := value.(type) {
	case T:
		return v, true
	}
	n, ok := toNumber(value)
	if !ok {
		return 0, false
	}
	switch {
	case n.isFloat:
		return T(n.f), true
	case n.isSigned:
		return T(n.i), true
	default:
		return T(n.u), true
	}
}

// coerceBool accepts bool and numbers (non-zero is true).
func coerceBool(value any) (bool, bool) {
	if b, ok := value.(bool); ok {
		return b, true
	}
	n, ok := toNumber(value)
	if !ok {
		return false, false
	}
	return n.i != 0 || n.u != 0 || n.f != 0, true
}

// typeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}
