package foreign

import (
	"hemlock/internal/object"
	"slices"
	"strings"
)

// element returns an owned value ready to store in a, converted to the
// element type of typed arrays.
func element(ctx object.BuiltinContext, a *object.Array, v object.Object) (object.Object, bool) {
	if a.ElementType == "" {
		return object.Retain(v), true
	}
	return ctx.Convert(v, a.ElementType)
}

func arrayMethod(ctx object.BuiltinContext, a *object.Array, name string, args []object.Object) (object.Object, bool) {
	switch name {
	case "push", "unshift":
		if !arity(ctx, args, 1, name, "") {
			return object.NULL, true
		}
		v, ok := element(ctx, a, args[0])
		if !ok {
			return object.NULL, true
		}
		if name == "push" {
			a.Push(v)
		} else {
			a.Insert(0, v)
		}
		object.Release(v)
		return object.NULL, true

	case "pop", "shift":
		if !arity(ctx, args, 0, name, "") {
			return object.NULL, true
		}
		take := a.Pop
		if name == "shift" {
			take = a.Shift
		}
		if v, ok := take(); ok {
			return v, true
		}
		return object.NULL, true

	case "insert":
		if !arity(ctx, args, 2, "insert", "(index, value)") {
			return object.NULL, true
		}
		i, err := unpackInt(args[0], "insert", "index")
		if err != nil {
			return throwErr(ctx, err), true
		}
		if i < 0 || i > a.Len() {
			return ctx.Throw("insert() index out of bounds"), true
		}
		v, ok := element(ctx, a, args[1])
		if !ok {
			return object.NULL, true
		}
		defer object.Release(v)
		if !a.Insert(i, v) {
			return ctx.Throw("insert() index out of bounds"), true
		}
		return object.NULL, true

	case "remove":
		if !arity(ctx, args, 1, "remove", "(index)") {
			return object.NULL, true
		}
		i, err := unpackInt(args[0], "remove", "index")
		if err != nil {
			return throwErr(ctx, err), true
		}
		removed, ok := a.Remove(i)
		if !ok {
			return ctx.Throw("remove() index out of bounds"), true
		}
		return removed, true

	case "reverse":
		if !arity(ctx, args, 0, "reverse", "") {
			return object.NULL, true
		}
		a.Reverse()
		return object.NULL, true

	case "clear":
		if !arity(ctx, args, 0, "clear", "") {
			return object.NULL, true
		}
		a.Clear()
		return object.NULL, true

	case "map", "filter":
		if !arity(ctx, args, 1, name, "(fn)") {
			return object.NULL, true
		}
		return mapFilter(ctx, a, name, args[0]), true

	case "reduce":
		if len(args) < 1 || len(args) > 2 {
			return ctx.Throw("reduce() expects 1-2 arguments (fn, [initial])"), true
		}
		return reduce(ctx, a, args), true
	}

	items := a.Snapshot()
	defer object.ReleaseAll(items)
	return readMethod(ctx, a, items, name, args)
}

// readMethod implements the methods that only read a snapshot of a.
func readMethod(ctx object.BuiltinContext, a *object.Array, items []object.Object, name string, args []object.Object) (object.Object, bool) {
	switch name {
	case "find", "contains":
		if !arity(ctx, args, 1, name, "(value)") {
			return object.NULL, true
		}
		idx := slices.IndexFunc(items, func(e object.Object) bool {
			return object.Equal(e, args[0])
		})
		if name == "find" {
			return object.I32(idx), true
		}
		return object.Bool(idx >= 0), true

	case "slice":
		start, end, ok := bounds(ctx, "slice", args, len(items))
		if !ok {
			return object.NULL, true
		}
		return retained(a, items[start:end]), true

	case "join":
		if !arity(ctx, args, 1, "join", "(delimiter)") {
			return object.NULL, true
		}
		sep, err := unpackString(args[0], "join", "delimiter")
		if err != nil {
			return throwErr(ctx, err), true
		}
		parts := make([]string, len(items))
		for i, e := range items {
			parts[i] = object.ToString(e)
		}
		return object.NewString(strings.Join(parts, sep)), true

	case "concat":
		if !arity(ctx, args, 1, "concat", "(array)") {
			return object.NULL, true
		}
		other, ok := args[0].(*object.Array)
		if !ok {
			return ctx.Throw("concat() argument must be an array"), true
		}
		tail := other.Snapshot()
		defer object.ReleaseAll(tail)
		return retained(a, slices.Concat(items, tail)), true

	case "first", "last":
		if !arity(ctx, args, 0, name, "") {
			return object.NULL, true
		}
		if len(items) == 0 {
			return object.NULL, true
		}
		if name == "first" {
			return object.Retain(items[0]), true
		}
		return object.Retain(items[len(items)-1]), true
	}
	return nil, false
}

// retained builds a new array sharing elements with src.
func retained(src *object.Array, elements []object.Object) *object.Array {
	out := make([]object.Object, len(elements))
	for i, e := range elements {
		out[i] = object.Retain(e)
	}
	arr := object.NewArray(out)
	arr.ElementType = src.ElementType
	return arr
}

func mapFilter(ctx object.BuiltinContext, a *object.Array, name string, fn object.Object) object.Object {
	// snapshot so callbacks may mutate a
	items := a.Snapshot()
	defer object.ReleaseAll(items)

	out := make([]object.Object, 0, len(items))
	for _, e := range items {
		v, ok := ctx.Call(fn, e)
		if !ok {
			object.Release(object.NewArray(out))
			return object.NULL
		}
		if name == "map" {
			out = append(out, v)
			continue
		}
		if object.Truthy(v) {
			out = append(out, object.Retain(e))
		}
		object.Release(v)
	}
	arr := object.NewArray(out)
	if name == "filter" {
		arr.ElementType = a.ElementType
	}
	return arr
}

func reduce(ctx object.BuiltinContext, a *object.Array, args []object.Object) object.Object {
	items := a.Snapshot()
	defer object.ReleaseAll(items)

	var acc object.Object
	rest := items
	switch {
	case len(args) == 2:
		acc = object.Retain(args[1])
	case len(items) == 0:
		return ctx.Throw("reduce() of empty array with no initial value")
	default:
		acc = object.Retain(items[0])
		rest = items[1:]
	}
	for _, e := range rest {
		next, ok := ctx.Call(args[0], acc, e)
		object.Release(acc)
		if !ok {
			return object.NULL
		}
		acc = next
	}
	return acc
}
