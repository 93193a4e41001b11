package foreign

import (
	"hemlock/internal/object"
)

// CallMethod dispatches a method call on a builtin receiver type. Arguments
// are borrowed and the result is owned. found is false when the receiver has
// no method of that name, leaving the error message to the caller.
func CallMethod(ctx object.BuiltinContext, recv object.Object, name string, args []object.Object) (result object.Object, found bool) {
	switch r := recv.(type) {
	case *object.String:
		return stringMethod(ctx, r, name, args)
	case *object.Array:
		return arrayMethod(ctx, r, name, args)
	case *object.Buffer:
		return bufferMethod(ctx, r, name, args)
	case *object.File:
		return fileMethod(ctx, r, name, args)
	case *object.Record:
		return recordMethod(ctx, r, name, args)
	case *object.Socket:
		return socketMethod(ctx, r, name, args)
	}
	return nil, false
}

func recordMethod(ctx object.BuiltinContext, r *object.Record, name string, args []object.Object) (object.Object, bool) {
	switch name {
	case "keys":
		if !arity(ctx, args, 0, "keys", "") {
			return object.NULL, true
		}
		return stringArray(r.Keys()), true
	case "serialize":
		if !arity(ctx, args, 0, "serialize", "") {
			return object.NULL, true
		}
		text, err := Serialize(r)
		if err != nil {
			return throwErr(ctx, err), true
		}
		return object.NewString(text), true
	}
	return nil, false
}

func bufferMethod(ctx object.BuiltinContext, b *object.Buffer, name string, args []object.Object) (object.Object, bool) {
	switch name {
	case "slice", "to_string":
		if b.Freed {
			return ctx.Throw("%s() on freed buffer", name), true
		}
	}

	switch name {
	case "slice":
		start, end, ok := bounds(ctx, "slice", args, len(b.Data))
		if !ok {
			return object.NULL, true
		}
		data := make([]byte, end-start)
		copy(data, b.Data[start:end])
		return object.NewBufferFrom(data), true
	case "to_string":
		if !arity(ctx, args, 0, "to_string", "") {
			return object.NULL, true
		}
		return object.NewString(string(b.Data)), true
	}
	return nil, false
}

// bounds validates slice(start, end) arguments against length.
func bounds(ctx object.BuiltinContext, fn string, args []object.Object, length int) (int, int, bool) {
	if !arity(ctx, args, 2, fn, "(start, end)") {
		return 0, 0, false
	}
	if !object.IsInteger(args[0]) || !object.IsInteger(args[1]) {
		ctx.Throw("%s() arguments must be integers", fn)
		return 0, 0, false
	}
	s, _ := object.ToInt64(args[0])
	e, _ := object.ToInt64(args[1])
	start, end := int(s), int(e)
	if start < 0 || start > length {
		ctx.Throw("%s() start index %d out of bounds (length=%d)", fn, start, length)
		return 0, 0, false
	}
	if end < start || end > length {
		ctx.Throw("%s() end index %d out of bounds (length=%d)", fn, end, length)
		return 0, 0, false
	}
	return start, end, true
}
