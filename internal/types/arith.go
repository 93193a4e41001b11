package types

import (
	"errors"
	"fmt"
	"hemlock/internal/object"
	"math"
)

var (
	ErrDivisionByZero = errors.New("Division by zero")
	ErrFloatBitwise   = errors.New("Invalid operation for floats")
	ErrNotNumeric     = errors.New("Binary operation requires numeric operands")
	ErrUnknownOp      = errors.New("Unknown binary operator")
)

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
	object.Object
}

type float interface {
	~float32 | ~float64
	object.Object
}

type ordered interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Binary applies a numeric operator after promoting both operands to their
// common type. Integer results wrap at the promoted width.
func Binary(op string, left, right object.Object) (object.Object, error) {
	if !object.IsNumeric(left) || !object.IsNumeric(right) {
		return nil, ErrNotNumeric
	}
	t := PromoteTypes(left.Type(), right.Type())
	l := Promote(left, t)
	r := Promote(right, t)

	switch l := l.(type) {
	case object.I8:
		return intOp(op, l, r.(object.I8))
	case object.I16:
		return intOp(op, l, r.(object.I16))
	case object.I32:
		return intOp(op, l, r.(object.I32))
	case object.I64:
		return intOp(op, l, r.(object.I64))
	case object.U8:
		return intOp(op, l, r.(object.U8))
	case object.U16:
		return intOp(op, l, r.(object.U16))
	case object.U32:
		return intOp(op, l, r.(object.U32))
	case object.U64:
		return intOp(op, l, r.(object.U64))
	case object.F32:
		return floatOp(op, l, r.(object.F32))
	case object.F64:
		return floatOp(op, l, r.(object.F64))
	}
	return nil, ErrNotNumeric
}

func intOp[T integer](op string, x, y T) (object.Object, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return nil, ErrDivisionByZero
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return nil, ErrDivisionByZero
		}
		return x % y, nil
	case "&":
		return x & y, nil
	case "|":
		return x | y, nil
	case "^":
		return x ^ y, nil
	case "<<":
		return x << shiftCount(y), nil
	case ">>":
		return x >> shiftCount(y), nil
	}
	return compare(op, x, y)
}

// shiftCount clamps negative counts to zero.
func shiftCount[T integer](y T) uint64 {
	if y < 0 {
		return 0
	}
	return uint64(y)
}

func floatOp[T float](op string, x, y T) (object.Object, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return nil, ErrDivisionByZero
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return nil, ErrDivisionByZero
		}
		return T(math.Mod(float64(x), float64(y))), nil
	case "&", "|", "^", "<<", ">>":
		return nil, ErrFloatBitwise
	}
	return compare(op, x, y)
}

func compare[T ordered](op string, x, y T) (object.Object, error) {
	switch op {
	case "==":
		return object.Bool(x == y), nil
	case "!=":
		return object.Bool(x != y), nil
	case "<":
		return object.Bool(x < y), nil
	case "<=":
		return object.Bool(x <= y), nil
	case ">":
		return object.Bool(x > y), nil
	case ">=":
		return object.Bool(x >= y), nil
	}
	return nil, fmt.Errorf("%w '%s'", ErrUnknownOp, op)
}

// Negate flips the sign. Unsigned values widen to the next signed type.
func Negate(v object.Object) (object.Object, error) {
	switch v := v.(type) {
	case object.I8:
		return -v, nil
	case object.I16:
		return -v, nil
	case object.I32:
		return -v, nil
	case object.I64:
		return -v, nil
	case object.U8:
		return -object.I16(v), nil
	case object.U16:
		return -object.I32(v), nil
	case object.U32:
		return -object.I64(v), nil
	case object.U64:
		if uint64(v) > math.MaxInt64 {
			return nil, errors.New("Cannot negate u64 value larger than INT64_MAX")
		}
		return -object.I64(v), nil
	case object.F32:
		return -v, nil
	case object.F64:
		return -v, nil
	}
	return nil, errors.New("Unary - requires numeric operand")
}

// Complement is bitwise NOT at the operand's width.
func Complement(v object.Object) (object.Object, error) {
	switch v := v.(type) {
	case object.I8:
		return ^v, nil
	case object.I16:
		return ^v, nil
	case object.I32:
		return ^v, nil
	case object.I64:
		return ^v, nil
	case object.U8:
		return ^v, nil
	case object.U16:
		return ^v, nil
	case object.U32:
		return ^v, nil
	case object.U64:
		return ^v, nil
	}
	return nil, errors.New("Cannot apply bitwise NOT to non-integer value")
}

// Step adds delta to an integer or float at its own width, for ++ and --.
func Step(v object.Object, delta int64) (object.Object, error) {
	if !object.IsNumeric(v) {
		return nil, errors.New("Can only increment/decrement numeric values")
	}
	return Binary("+", v, Promote(object.I64(delta), v.Type()))
}
