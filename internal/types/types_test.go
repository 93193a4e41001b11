package types

import (
	"errors"
	"hemlock/internal/object"
	"math"
	"testing"
)

var numericTypes = []object.ObjectType{
	object.I8_OBJ, object.I16_OBJ, object.I32_OBJ, object.I64_OBJ,
	object.U8_OBJ, object.U16_OBJ, object.U32_OBJ, object.U64_OBJ,
	object.F32_OBJ, object.F64_OBJ,
}

func TestPromoteTypes(t *testing.T) {
	type testCase struct {
		left, right object.ObjectType
		expected    object.ObjectType
	}

	testCases := []testCase{
		{object.I32_OBJ, object.I32_OBJ, object.I32_OBJ},
		{object.I8_OBJ, object.U8_OBJ, object.U8_OBJ},
		{object.U8_OBJ, object.I16_OBJ, object.I16_OBJ},
		{object.I32_OBJ, object.U32_OBJ, object.U32_OBJ},
		{object.U32_OBJ, object.I64_OBJ, object.I64_OBJ},
		{object.I64_OBJ, object.U64_OBJ, object.U64_OBJ},
		{object.U64_OBJ, object.F32_OBJ, object.F32_OBJ},
		{object.F32_OBJ, object.I8_OBJ, object.F32_OBJ},
		{object.F32_OBJ, object.F64_OBJ, object.F64_OBJ},
		{object.I32_OBJ, object.F64_OBJ, object.F64_OBJ},
	}

	for _, tc := range testCases {
		t.Run(string(tc.left)+"+"+string(tc.right), func(t *testing.T) {
			if got := PromoteTypes(tc.left, tc.right); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
			if got := PromoteTypes(tc.right, tc.left); got != tc.expected {
				t.Fatalf("promotion should be symmetric: expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestPromoteIdempotent(t *testing.T) {
	values := []object.Object{
		object.I8(-7), object.U8(250), object.I16(-30000), object.U16(65000),
		object.I32(math.MinInt32), object.U32(math.MaxUint32), object.I64(math.MaxInt64),
		object.U64(math.MaxUint64), object.F32(-2.5), object.F64(1e10), object.F64(-0.75),
	}

	for _, target := range numericTypes {
		for _, v := range values {
			once := Promote(v, target)
			twice := Promote(once, target)
			if once.Type() != target {
				t.Fatalf("promote %s to %s produced %s", v.Inspect(), target, once.Type())
			}
			if once != twice {
				t.Fatalf("promote not idempotent for %s to %s: %v then %v", v.Inspect(), target, once, twice)
			}
		}
	}
}

func TestDivisionByZeroEveryWidth(t *testing.T) {
	for _, target := range numericTypes {
		for _, op := range []string{"/", "%"} {
			t.Run(string(target)+op, func(t *testing.T) {
				x := Promote(object.I32(7), target)
				zero := Promote(object.I32(0), target)
				if _, err := Binary(op, x, zero); !errors.Is(err, ErrDivisionByZero) {
					t.Fatalf("expected division by zero, got %v", err)
				}
			})
		}
	}
}

func TestBinary(t *testing.T) {
	type testCase struct {
		name        string
		op          string
		left, right object.Object
		expected    object.Object
		err         error
	}

	testCases := []testCase{
		{name: "i32 add", op: "+", left: object.I32(2), right: object.I32(3), expected: object.I32(5)},
		{name: "i8 wraps", op: "+", left: object.I8(127), right: object.I8(1), expected: object.I8(-128)},
		{name: "u8 wraps", op: "-", left: object.U8(0), right: object.U8(1), expected: object.U8(255)},
		{name: "promoted width", op: "*", left: object.I8(100), right: object.I32(100), expected: object.I32(10000)},
		{name: "int division truncates", op: "/", left: object.I32(7), right: object.I32(2), expected: object.I32(3)},
		{name: "float division", op: "/", left: object.I32(7), right: object.F64(2), expected: object.F64(3.5)},
		{name: "float modulo", op: "%", left: object.F64(7.5), right: object.F64(2), expected: object.F64(1.5)},
		{name: "negative modulo", op: "%", left: object.I32(-7), right: object.I32(3), expected: object.I32(-1)},
		{name: "shift", op: "<<", left: object.I32(1), right: object.I32(4), expected: object.I32(16)},
		{name: "xor", op: "^", left: object.U8(0xF0), right: object.U8(0xFF), expected: object.U8(0x0F)},
		{name: "compare", op: "<", left: object.I64(-1), right: object.U8(1), expected: object.TRUE},
		{name: "float equality", op: "==", left: object.F32(0.5), right: object.F64(0.5), expected: object.TRUE},
		{name: "float bitwise", op: "&", left: object.F64(1), right: object.I32(1), err: ErrFloatBitwise},
		{name: "float divide by zero", op: "/", left: object.F64(1), right: object.F64(0), err: ErrDivisionByZero},
		{name: "non numeric", op: "+", left: object.TRUE, right: object.I32(1), err: ErrNotNumeric},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Binary(tc.op, tc.left, tc.right)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected error %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Fatalf("expected %s %s, got %s %s", tc.expected.Type(), tc.expected.Inspect(), got.Type(), got.Inspect())
			}
		})
	}
}

func TestNegateAndComplement(t *testing.T) {
	type testCase struct {
		name     string
		fn       func(object.Object) (object.Object, error)
		value    object.Object
		expected object.Object
		errMsg   string
	}

	testCases := []testCase{
		{name: "negate i32", fn: Negate, value: object.I32(5), expected: object.I32(-5)},
		{name: "negate u8 widens", fn: Negate, value: object.U8(200), expected: object.I16(-200)},
		{name: "negate u16 widens", fn: Negate, value: object.U16(40000), expected: object.I32(-40000)},
		{name: "negate u32 widens", fn: Negate, value: object.U32(3000000000), expected: object.I64(-3000000000)},
		{name: "negate u64", fn: Negate, value: object.U64(9), expected: object.I64(-9)},
		{name: "negate huge u64", fn: Negate, value: object.U64(math.MaxUint64), errMsg: "Cannot negate u64 value larger than INT64_MAX"},
		{name: "negate float", fn: Negate, value: object.F32(1.5), expected: object.F32(-1.5)},
		{name: "complement", fn: Complement, value: object.U8(0x0F), expected: object.U8(0xF0)},
		{name: "complement signed", fn: Complement, value: object.I32(0), expected: object.I32(-1)},
		{name: "complement float", fn: Complement, value: object.F64(1), errMsg: "Cannot apply bitwise NOT to non-integer value"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn(tc.value)
			if tc.errMsg != "" {
				if err == nil || err.Error() != tc.errMsg {
					t.Fatalf("expected %q, got %v", tc.errMsg, err)
				}
				return
			}
			if err != nil || got != tc.expected {
				t.Fatalf("expected %v, got %v (%v)", tc.expected, got, err)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	type testCase struct {
		name     string
		value    object.Object
		target   string
		expected object.Object
		errMsg   string
	}

	testCases := []testCase{
		{name: "i32 to i8", value: object.I32(100), target: "i8", expected: object.I8(100)},
		{name: "i8 range", value: object.I32(200), target: "i8", errMsg: "Value 200 out of range for i8 [-128, 127]"},
		{name: "u8 negative", value: object.I32(-1), target: "u8", errMsg: "Value -1 out of range for u8 [0, 255]"},
		{name: "u16 range", value: object.I32(70000), target: "u16", errMsg: "Value 70000 out of range for u16 [0, 65535]"},
		{name: "float truncates", value: object.F64(3.9), target: "i32", expected: object.I32(3)},
		{name: "negative float truncates", value: object.F64(-3.9), target: "i32", expected: object.I32(-3)},
		{name: "float range", value: object.F64(300.5), target: "u8", errMsg: "Value 300 out of range for u8 [0, 255]"},
		{name: "bool to int", value: object.TRUE, target: "i32", expected: object.I32(1)},
		{name: "u64 to i64 range", value: object.U64(math.MaxUint64), target: "i64", errMsg: "Value 18446744073709551615 out of range for i64 [-9223372036854775808, 9223372036854775807]"},
		{name: "i32 to u64", value: object.I32(5), target: "u64", expected: object.U64(5)},
		{name: "int to f64", value: object.I32(2), target: "f64", expected: object.F64(2)},
		{name: "number alias", value: object.I32(2), target: "number", expected: object.F64(2)},
		{name: "integer alias", value: object.I8(2), target: "integer", expected: object.I32(2)},
		{name: "byte alias", value: object.I32(65), target: "byte", expected: object.U8(65)},
		{name: "int to rune", value: object.I32(65), target: "rune", expected: object.Rune('A')},
		{name: "bool passthrough", value: object.FALSE, target: "bool", expected: object.FALSE},
		{name: "int to bool", value: object.I32(1), target: "bool", errMsg: "Cannot convert to bool"},
		{name: "string to int", value: object.NewString("1"), target: "i32", errMsg: "Cannot convert type to target type"},
		{name: "null passthrough", value: object.NULL, target: "null", expected: object.NULL},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.value, tc.target)
			if tc.errMsg != "" {
				if err == nil || err.Error() != tc.errMsg {
					t.Fatalf("expected %q, got %v", tc.errMsg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Fatalf("expected %s %s, got %s %s", tc.expected.Type(), tc.expected.Inspect(), got.Type(), got.Inspect())
			}
		})
	}

	if _, err := Convert(object.NewRecord(), "Person"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("custom types should be left to the caller, got %v", err)
	}
}

func TestSizeof(t *testing.T) {
	expected := map[string]int{"i8": 1, "u16": 2, "f32": 4, "i64": 8, "ptr": 8, "bool": 4, "byte": 1}
	for name, size := range expected {
		if got, ok := Sizeof(name); !ok || got != size {
			t.Errorf("sizeof(%s): expected %d, got %d", name, size, got)
		}
	}
	if _, ok := Sizeof("object"); ok {
		t.Errorf("object has no fixed size")
	}
}

func TestStep(t *testing.T) {
	got, err := Step(object.U8(255), 1)
	if err != nil || got != object.U8(0) {
		t.Fatalf("u8 increment should wrap, got %v (%v)", got, err)
	}
	got, _ = Step(object.I16(0), -1)
	if got != object.I16(-1) {
		t.Fatalf("expected i16 -1, got %v", got)
	}
	if _, err := Step(object.NewString("x"), 1); err == nil {
		t.Fatalf("expected error stepping a string")
	}
}
