package types

import (
	"errors"
	"fmt"
	"hemlock/internal/object"
	"math"
)

var (
	ErrUnknownType = errors.New("unknown type")
	ErrConversion  = errors.New("Cannot convert type to target type")
)

var rank = map[object.ObjectType]int{
	object.I8_OBJ:  0,
	object.U8_OBJ:  1,
	object.I16_OBJ: 2,
	object.U16_OBJ: 3,
	object.I32_OBJ: 4,
	object.U32_OBJ: 5,
	object.I64_OBJ: 6,
	object.U64_OBJ: 7,
	object.F32_OBJ: 8,
	object.F64_OBJ: 9,
}

// aliases for annotation names
var aliases = map[string]string{
	"number":  "f64",
	"integer": "i32",
	"byte":    "u8",
}

// Canonical resolves annotation aliases such as number and byte.
func Canonical(name string) string {
	if a, ok := aliases[name]; ok {
		return a
	}
	return name
}

// Rank is the promotion rank of a numeric type, or -1.
func Rank(t object.ObjectType) int {
	if r, ok := rank[t]; ok {
		return r
	}
	return -1
}

func IsNumericType(name string) bool {
	_, ok := rank[object.ObjectType(Canonical(name))]
	return ok
}

func isFloatType(t object.ObjectType) bool {
	return t == object.F32_OBJ || t == object.F64_OBJ
}

// PromoteTypes picks the common type of a binary numeric operation.
func PromoteTypes(left, right object.ObjectType) object.ObjectType {
	if left == right {
		return left
	}
	switch {
	case isFloatType(left) && isFloatType(right):
		return object.F64_OBJ
	case isFloatType(left):
		return left
	case isFloatType(right):
		return right
	}
	if Rank(left) > Rank(right) {
		return left
	}
	return right
}

// Promote converts a numeric value to t with C cast semantics. Promoting a
// value that already has type t returns it unchanged.
func Promote(v object.Object, t object.ObjectType) object.Object {
	if v.Type() == t {
		return v
	}
	if isFloatType(t) {
		f, _ := object.ToFloat64(v)
		if t == object.F32_OBJ {
			return object.F32(f)
		}
		return object.F64(f)
	}
	if object.IsFloat(v) {
		f, _ := object.ToFloat64(v)
		return castInt(t, int64(math.Trunc(f)), uint64(f), f >= 0)
	}
	i, _ := object.ToInt64(v)
	u, _ := object.ToUint64(v)
	return castInt(t, i, u, true)
}

func castInt(t object.ObjectType, i int64, u uint64, nonNegative bool) object.Object {
	switch t {
	case object.I8_OBJ:
		return object.I8(i)
	case object.I16_OBJ:
		return object.I16(i)
	case object.I32_OBJ:
		return object.I32(i)
	case object.I64_OBJ:
		return object.I64(i)
	case object.U8_OBJ:
		return object.U8(i)
	case object.U16_OBJ:
		return object.U16(i)
	case object.U32_OBJ:
		return object.U32(i)
	case object.U64_OBJ:
		if nonNegative {
			return object.U64(u)
		}
		return object.U64(i)
	}
	return object.I32(i)
}

type bounds struct {
	min int64
	max uint64
}

var intBounds = map[string]bounds{
	"i8":  {math.MinInt8, math.MaxInt8},
	"i16": {math.MinInt16, math.MaxInt16},
	"i32": {math.MinInt32, math.MaxInt32},
	"i64": {math.MinInt64, math.MaxInt64},
	"u8":  {0, math.MaxUint8},
	"u16": {0, math.MaxUint16},
	"u32": {0, math.MaxUint32},
	"u64": {0, math.MaxUint64},
}

// Convert applies a type annotation to v with range checking. Custom record
// type names return ErrUnknownType for the caller to resolve.
func Convert(v object.Object, typeName string) (object.Object, error) {
	target := Canonical(typeName)

	if b, ok := intBounds[target]; ok {
		return convertInt(v, target, b)
	}

	switch target {
	case "f32", "f64":
		var f float64
		switch {
		case object.IsNumeric(v):
			f, _ = object.ToFloat64(v)
		case v.Type() == object.BOOL_OBJ:
			i, _ := object.ToInt64(v)
			f = float64(i)
		default:
			return nil, ErrConversion
		}
		if target == "f32" {
			return object.F32(f), nil
		}
		return object.F64(f), nil
	case "bool", "string", "null", "ptr", "buffer", "array", "object", "rune":
		if v.Type() == object.ObjectType(target) {
			return v, nil
		}
		if target == "rune" && object.IsInteger(v) {
			i, _ := object.ToInt64(v)
			if i < 0 || i > 0x10FFFF {
				return nil, fmt.Errorf("Value %d out of range for rune [0, 1114111]", i)
			}
			return object.Rune(i), nil
		}
		if object.IsNumeric(v) || v.Type() == object.BOOL_OBJ {
			return nil, fmt.Errorf("Cannot convert to %s", target)
		}
		return nil, ErrConversion
	case "void":
		return nil, errors.New("Cannot convert to void type")
	case "type":
		if v.Type() == object.TYPE_OBJ {
			return v, nil
		}
		return nil, ErrConversion
	}
	return nil, ErrUnknownType
}

func convertInt(v object.Object, target string, b bounds) (object.Object, error) {
	var (
		i        int64
		u        uint64
		negative bool
	)
	switch {
	case v.Type() == object.U64_OBJ:
		u, _ = object.ToUint64(v)
		i = int64(u)
	case object.IsFloat(v):
		f, _ := object.ToFloat64(v)
		f = math.Trunc(f)
		if f < 0 {
			i = int64(f)
			negative = true
		} else {
			u = uint64(f)
			i = int64(f)
		}
	case object.IsInteger(v) || v.Type() == object.BOOL_OBJ:
		i, _ = object.ToInt64(v)
		negative = i < 0
		u = uint64(i)
	default:
		return nil, ErrConversion
	}

	if negative {
		if i < b.min {
			return nil, rangeError(fmt.Sprint(i), target, b)
		}
	} else if u > b.max {
		return nil, rangeError(fmt.Sprint(u), target, b)
	}
	return castInt(object.ObjectType(target), i, u, !negative), nil
}

func rangeError(value, target string, b bounds) error {
	return fmt.Errorf("Value %s out of range for %s [%d, %d]", value, target, b.min, b.max)
}

// Sizeof reports the storage size of a type name in bytes.
func Sizeof(typeName string) (int, bool) {
	switch Canonical(typeName) {
	case "i8", "u8":
		return 1, true
	case "i16", "u16":
		return 2, true
	case "i32", "u32", "f32", "bool", "rune":
		return 4, true
	case "i64", "u64", "f64", "ptr", "buffer", "string":
		return 8, true
	}
	return 0, false
}

// Zero is the default value of a numeric type.
func Zero(t object.ObjectType) object.Object {
	return Promote(object.I32(0), t)
}
