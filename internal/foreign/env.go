package foreign

import (
	"hemlock/internal/object"
	"log/slog"
	"os"
)

func fnEnvGet() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "getenv", "(variable name)") {
				return object.NULL
			}
			name, err := unpackString(args[0], "getenv", "argument")
			if err != nil {
				return throwErr(ctx, err)
			}
			if value, ok := os.LookupEnv(name); ok {
				return object.NewString(value)
			}
			return object.NULL
		},
	}
}

func fnEnvSet() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 2, "setenv", "(name, value)") {
				return object.NULL
			}
			name, err := unpackString(args[0], "setenv", "name")
			if err != nil {
				return throwErr(ctx, err)
			}
			value, err := unpackString(args[1], "setenv", "value")
			if err != nil {
				return throwErr(ctx, err)
			}
			if err := os.Setenv(name, value); err != nil {
				return ctx.Throw("setenv() failed: %s", err.Error())
			}
			return object.NULL
		},
	}
}

func fnEnvUnset() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "unsetenv", "(name)") {
				return object.NULL
			}
			name, err := unpackString(args[0], "unsetenv", "name")
			if err != nil {
				return throwErr(ctx, err)
			}
			if err := os.Unsetenv(name); err != nil {
				return ctx.Throw("unsetenv() failed: %s", err.Error())
			}
			return object.NULL
		},
	}
}

func fnEnvPid() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 0, "get_pid", "") {
				return object.NULL
			}
			return object.I32(os.Getpid())
		},
	}
}

func (l *Library) fnEnvExit() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) > 1 {
				return ctx.Throw("exit() expects 0 or 1 argument (exit code)")
			}
			code := 0
			if len(args) == 1 {
				n, err := unpackInt(args[0], "exit", "argument")
				if err != nil {
					return throwErr(ctx, err)
				}
				code = n
			}
			slog.Debug("exit requested", slog.Int("code", code))
			if err := l.Close(); err != nil {
				slog.Warn("closing library on exit", slog.Any("error", err))
			}
			l.Exit(code)
			return object.NULL
		},
	}
}
