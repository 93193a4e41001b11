package object

import "math"

func IsInteger(v Object) bool {
	switch v.(type) {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	}
	return false
}

func IsFloat(v Object) bool {
	switch v.(type) {
	case F32, F64:
		return true
	}
	return false
}

func IsNumeric(v Object) bool {
	return IsInteger(v) || IsFloat(v)
}

// ToInt64 widens any integer or bool value, truncating floats toward zero.
func ToInt64(v Object) (int64, bool) {
	switch v := v.(type) {
	case I8:
		return int64(v), true
	case I16:
		return int64(v), true
	case I32:
		return int64(v), true
	case I64:
		return int64(v), true
	case U8:
		return int64(v), true
	case U16:
		return int64(v), true
	case U32:
		return int64(v), true
	case U64:
		return int64(v), true
	case F32:
		return int64(v), true
	case F64:
		return int64(v), true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	case Rune:
		return int64(v), true
	}
	return 0, false
}

func ToUint64(v Object) (uint64, bool) {
	if u, ok := v.(U64); ok {
		return uint64(u), true
	}
	i, ok := ToInt64(v)
	return uint64(i), ok
}

func ToFloat64(v Object) (float64, bool) {
	switch v := v.(type) {
	case F32:
		return float64(v), true
	case F64:
		return float64(v), true
	case U64:
		return float64(v), true
	}
	i, ok := ToInt64(v)
	return float64(i), ok
}

// Truthy is false for false, null, zero numerics and the empty string.
func Truthy(v Object) bool {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Null, nil:
		return false
	case *String:
		return v.Value != ""
	case F32:
		return v != 0
	case F64:
		return v != 0
	}
	if IsInteger(v) {
		u, _ := ToUint64(v)
		return u != 0
	}
	return true
}

// Equal compares numerics by value, strings bools and runes by content,
// pointers by address and every other heap value by identity.
func Equal(a, b Object) bool {
	if IsNumeric(a) && IsNumeric(b) {
		return numericEqual(a, b)
	}
	switch a := a.(type) {
	case Null:
		switch b := b.(type) {
		case Null:
			return true
		case Ptr:
			return b.IsNull()
		}
		return false
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Rune:
		br, ok := b.(Rune)
		return ok && a == br
	case *String:
		bs, ok := b.(*String)
		return ok && a.Value == bs.Value
	case Ptr:
		switch b := b.(type) {
		case Ptr:
			return a.Block == b.Block && a.Offset == b.Offset
		case Null:
			return a.IsNull()
		}
		return false
	case TypeValue:
		bt, ok := b.(TypeValue)
		return ok && a.Name == bt.Name
	}
	return a == b
}

func numericEqual(a, b Object) bool {
	if IsFloat(a) || IsFloat(b) {
		x, _ := ToFloat64(a)
		y, _ := ToFloat64(b)
		return x == y
	}
	au, aUnsigned := a.(U64)
	bu, bUnsigned := b.(U64)
	switch {
	case aUnsigned && bUnsigned:
		return au == bu
	case aUnsigned:
		y, _ := ToInt64(b)
		return y >= 0 && uint64(au) == uint64(y)
	case bUnsigned:
		x, _ := ToInt64(a)
		return x >= 0 && uint64(x) == uint64(bu)
	}
	x, _ := ToInt64(a)
	y, _ := ToInt64(b)
	return x == y
}

// Constants bound into the global scope.
var Constants = map[string]Object{
	"__PI":  F64(math.Pi),
	"__E":   F64(math.E),
	"__TAU": F64(2 * math.Pi),
	"__INF": F64(math.Inf(1)),
	"__NAN": F64(math.NaN()),
}
