package runtime

import (
	"fmt"
	"hemlock/internal/object"
	"hemlock/internal/types"
	"strings"
)

func fnBuiltinPrint() *object.Builtin {
	return &object.Builtin{
		Name: "print",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			fmt.Fprintln(ctx.Stdout(), inspectAll(args))
			return object.NULL
		},
	}
}

func fnBuiltinEprint() *object.Builtin {
	return &object.Builtin{
		Name: "eprint",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			fmt.Fprintln(ctx.Stderr(), inspectAll(args))
			return object.NULL
		},
	}
}

func inspectAll(args []object.Object) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = object.Inspect(a)
	}
	return strings.Join(parts, " ")
}

func fnBuiltinTypeof() *object.Builtin {
	return &object.Builtin{
		Name: "typeof",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.Throw("typeof() expects 1 argument")
			}
			return object.NewString(object.TypeName(args[0]))
		},
	}
}

func fnBuiltinAssert() *object.Builtin {
	return &object.Builtin{
		Name: "assert",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) < 1 || len(args) > 2 {
				return ctx.Throw("assert() expects 1-2 arguments (condition, [message])")
			}
			if object.Truthy(args[0]) {
				return object.NULL
			}
			e := evaluatorOf(ctx)
			if len(args) == 2 {
				e.ctx.Throw(object.Retain(args[1]))
				return object.NULL
			}
			return ctx.Throw("assertion failed")
		},
	}
}

// panic is fatal: it unwinds past every try block.
func fnBuiltinPanic() *object.Builtin {
	return &object.Builtin{
		Name: "panic",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) > 1 {
				return ctx.Throw("panic() expects 0 or 1 argument (message)")
			}
			message := "panic!"
			if len(args) == 1 {
				message = object.ToString(args[0])
			}
			evaluatorOf(ctx).fatal("panic: %s", message)
			return object.NULL
		},
	}
}

func sizeArg(ctx object.BuiltinContext, fn, what string, v object.Object) (int, bool) {
	if !object.IsInteger(v) {
		ctx.Throw("%s() %s must be an integer", fn, what)
		return 0, false
	}
	n, ok := object.ToInt64(v)
	if !ok || n <= 0 {
		ctx.Throw("%s() %s must be positive", fn, what)
		return 0, false
	}
	if n > object.MaxAllocSize {
		ctx.Throw("%s() %s exceeds maximum of %d", fn, what, object.MaxAllocSize)
		return 0, false
	}
	return int(n), true
}

func fnBuiltinAlloc() *object.Builtin {
	return &object.Builtin{
		Name: "alloc",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.Throw("alloc() expects 1 argument (size in bytes)")
			}
			size, ok := sizeArg(ctx, "alloc", "size", args[0])
			if !ok {
				return object.NULL
			}
			return object.Alloc(size)
		},
	}
}

func fnBuiltinTalloc() *object.Builtin {
	return &object.Builtin{
		Name: "talloc",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 2 {
				return ctx.Throw("talloc() expects 2 arguments (type, count)")
			}
			t, ok := args[0].(object.TypeValue)
			if !ok {
				return ctx.Throw("talloc() first argument must be a type")
			}
			count, ok := sizeArg(ctx, "talloc", "count", args[1])
			if !ok {
				return object.NULL
			}
			width, ok := types.Sizeof(t.Name)
			if !ok {
				return ctx.Throw("Cannot get size of this type")
			}
			if count > object.MaxAllocSize/width {
				return ctx.Throw("talloc() size exceeds maximum of %d", object.MaxAllocSize)
			}
			return object.Alloc(width * count)
		},
	}
}

func fnBuiltinRealloc() *object.Builtin {
	return &object.Builtin{
		Name: "realloc",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 2 {
				return ctx.Throw("realloc() expects 2 arguments (ptr, new_size)")
			}
			p, ok := args[0].(object.Ptr)
			if !ok {
				return ctx.Throw("realloc() first argument must be a pointer")
			}
			size, ok := sizeArg(ctx, "realloc", "new_size", args[1])
			if !ok {
				return object.NULL
			}
			next, err := p.Realloc(size)
			if err != nil {
				return ctx.Throw("%s", err.Error())
			}
			return next
		},
	}
}

func fnBuiltinFree() *object.Builtin {
	return &object.Builtin{
		Name: "free",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.Throw("free() expects 1 argument (pointer, buffer, object, or array)")
			}
			switch v := args[0].(type) {
			case object.Ptr:
				if err := v.Free(); err != nil {
					return ctx.Throw("%s", err.Error())
				}
			case *object.Buffer:
				v.Free()
			case *object.Record, *object.Array:
				object.Free(v)
			default:
				return ctx.Throw("free() requires a pointer, buffer, object, or array")
			}
			return object.NULL
		},
	}
}

// rawBytes views n bytes of a ptr or buffer operand.
func rawBytes(v object.Object, n int) ([]byte, error) {
	switch v := v.(type) {
	case object.Ptr:
		return v.Bytes(n)
	case *object.Buffer:
		if v.Freed {
			return nil, object.ErrUseAfterFree
		}
		if n < 0 || n > len(v.Data) {
			return nil, fmt.Errorf("buffer access out of bounds: size %d (length %d)", n, len(v.Data))
		}
		return v.Data[:n], nil
	}
	return nil, fmt.Errorf("expected pointer or buffer, got %s", object.TypeName(v))
}

func fnBuiltinMemset() *object.Builtin {
	return &object.Builtin{
		Name: "memset",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 3 {
				return ctx.Throw("memset() expects 3 arguments (ptr, byte, size)")
			}
			if !object.IsInteger(args[1]) || !object.IsInteger(args[2]) {
				return ctx.Throw("memset() byte and size must be integers")
			}
			b, _ := object.ToInt64(args[1])
			n, _ := object.ToInt64(args[2])
			dst, err := rawBytes(args[0], int(n))
			if err != nil {
				return ctx.Throw("memset(): %s", err.Error())
			}
			for i := range dst {
				dst[i] = byte(b)
			}
			return object.NULL
		},
	}
}

func fnBuiltinMemcpy() *object.Builtin {
	return &object.Builtin{
		Name: "memcpy",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 3 {
				return ctx.Throw("memcpy() expects 3 arguments (dest, src, size)")
			}
			if !object.IsInteger(args[2]) {
				return ctx.Throw("memcpy() size must be an integer")
			}
			n, _ := object.ToInt64(args[2])
			dst, err := rawBytes(args[0], int(n))
			if err != nil {
				return ctx.Throw("memcpy(): %s", err.Error())
			}
			src, err := rawBytes(args[1], int(n))
			if err != nil {
				return ctx.Throw("memcpy(): %s", err.Error())
			}
			copy(dst, src)
			return object.NULL
		},
	}
}

func fnBuiltinSizeof() *object.Builtin {
	return &object.Builtin{
		Name: "sizeof",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.Throw("sizeof() expects 1 argument (type)")
			}
			t, ok := args[0].(object.TypeValue)
			if !ok {
				return ctx.Throw("sizeof() requires a type argument")
			}
			n, ok := types.Sizeof(t.Name)
			if !ok {
				return ctx.Throw("Cannot get size of this type")
			}
			return object.I32(n)
		},
	}
}

func fnBuiltinBuffer() *object.Builtin {
	return &object.Builtin{
		Name: "buffer",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.Throw("buffer() expects 1 argument (size in bytes)")
			}
			size, ok := sizeArg(ctx, "buffer", "size", args[0])
			if !ok {
				return object.NULL
			}
			return object.NewBuffer(size)
		},
	}
}
