package foreign

import (
	"fmt"
	"hemlock/internal/object"
)

func unpackString(arg object.Object, fn, what string) (string, error) {
	s, ok := arg.(*object.String)
	if !ok {
		return "", fmt.Errorf("%s() %s must be a string", fn, what)
	}
	return s.Value, nil
}

func unpackInt(arg object.Object, fn, what string) (int, error) {
	if !object.IsInteger(arg) {
		return 0, fmt.Errorf("%s() %s must be an integer", fn, what)
	}
	n, _ := object.ToInt64(arg)
	return int(n), nil
}

func unpackFloat(arg object.Object, fn string) (float64, error) {
	if !object.IsNumeric(arg) {
		return 0, fmt.Errorf("%s() arguments must be numeric", fn)
	}
	f, _ := object.ToFloat64(arg)
	return f, nil
}

// arity reports a uniform arity error. usage names the parameters, e.g.
// "(start, length)".
func arity(ctx object.BuiltinContext, args []object.Object, want int, fn, usage string) bool {
	if len(args) == want {
		return true
	}
	switch want {
	case 0:
		ctx.Throw("%s() expects no arguments", fn)
	case 1:
		ctx.Throw("%s() expects 1 argument%s", fn, spaced(usage))
	default:
		ctx.Throw("%s() expects %d arguments%s", fn, want, spaced(usage))
	}
	return false
}

func spaced(usage string) string {
	if usage == "" {
		return ""
	}
	return " " + usage
}

func throwErr(ctx object.BuiltinContext, err error) object.Object {
	return ctx.Throw("%s", err.Error())
}

func stringArray(values []string) *object.Array {
	elements := make([]object.Object, len(values))
	for i, v := range values {
		elements[i] = object.NewString(v)
	}
	return object.NewArray(elements)
}
