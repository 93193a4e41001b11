package foreign

import (
	"hemlock/internal/object"
	"math"
)

var unaryMath = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sqrt":  math.Sqrt,
	"exp":   math.Exp,
	"log":   math.Log,
	"log10": math.Log10,
	"log2":  math.Log2,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": math.Round,
	"trunc": math.Trunc,
	"abs":   math.Abs,
}

func powf(a, b float64) float64   { return math.Pow(a, b) }
func atan2f(a, b float64) float64 { return math.Atan2(a, b) }

// math builtins take any numeric argument and return f64.
func fnMathUnary(name string, f func(float64) float64) *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, name, "") {
				return object.NULL
			}
			x, err := unpackFloat(args[0], name)
			if err != nil {
				return throwErr(ctx, err)
			}
			return object.F64(f(x))
		},
	}
}

func fnMathBinary(name string, f func(a, b float64) float64) *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 2, name, "") {
				return object.NULL
			}
			a, err := unpackFloat(args[0], name)
			if err != nil {
				return throwErr(ctx, err)
			}
			b, err := unpackFloat(args[1], name)
			if err != nil {
				return throwErr(ctx, err)
			}
			return object.F64(f(a, b))
		},
	}
}

func fnMathClamp() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 3, "clamp", "(value, min, max)") {
				return object.NULL
			}
			var x [3]float64
			for i, a := range args {
				f, err := unpackFloat(a, "clamp")
				if err != nil {
					return throwErr(ctx, err)
				}
				x[i] = f
			}
			return object.F64(math.Min(math.Max(x[0], x[1]), x[2]))
		},
	}
}

func (l *Library) float() float64 {
	l.rngMu.Lock()
	defer l.rngMu.Unlock()
	return l.rng.Float64()
}

// __rand returns a float in [0, 1).
func (l *Library) fnMathRand() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 0, "rand", "") {
				return object.NULL
			}
			return object.F64(l.float())
		},
	}
}

func (l *Library) fnMathRandRange() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 2, "rand_range", "(min, max)") {
				return object.NULL
			}
			lo, err := unpackFloat(args[0], "rand_range")
			if err != nil {
				return throwErr(ctx, err)
			}
			hi, err := unpackFloat(args[1], "rand_range")
			if err != nil {
				return throwErr(ctx, err)
			}
			return object.F64(lo + (hi-lo)*l.float())
		},
	}
}

func (l *Library) fnMathSeed() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "seed", "") {
				return object.NULL
			}
			seed, err := unpackInt(args[0], "seed", "argument")
			if err != nil {
				return throwErr(ctx, err)
			}
			l.rngMu.Lock()
			l.rng.Seed(int64(seed))
			l.rngMu.Unlock()
			return object.NULL
		},
	}
}
