package foreign

import (
	"hemlock/internal/object"
	"time"
)

func fnTimeNow() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 0, "now", "") {
				return object.NULL
			}
			return object.I64(time.Now().Unix())
		},
	}
}

func fnTimeMillis() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 0, "time_ms", "") {
				return object.NULL
			}
			return object.I64(time.Now().UnixMilli())
		},
	}
}

// __sleep takes seconds and accepts fractions.
func fnTimeSleep() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "sleep", "(seconds)") {
				return object.NULL
			}
			if !object.IsNumeric(args[0]) {
				return ctx.Throw("sleep() argument must be numeric")
			}
			seconds, _ := object.ToFloat64(args[0])
			if seconds < 0 {
				return ctx.Throw("sleep() argument must be non-negative")
			}
			time.Sleep(time.Duration(seconds * float64(time.Second)))
			return object.NULL
		},
	}
}

// __clock is seconds elapsed since the runtime started, as f64.
func (l *Library) fnTimeClock() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 0, "clock", "") {
				return object.NULL
			}
			return object.F64(time.Since(l.start).Seconds())
		},
	}
}
