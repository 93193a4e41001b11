package runtime

import (
	"hemlock/internal/ast"
	"hemlock/internal/foreign"
	"hemlock/internal/object"
)

func (e *Evaluator) evalArguments(exprs []ast.Expression, env *object.Environment) ([]object.Object, bool) {
	args := make([]object.Object, 0, len(exprs))
	for _, a := range exprs {
		v := e.evalExpr(a, env)
		if e.ctx.Throwing {
			object.Release(v)
			releaseAll(args)
			return nil, false
		}
		args = append(args, v)
	}
	return args, true
}

func (e *Evaluator) evalCall(node *ast.CallExpression, env *object.Environment) object.Object {
	if prop, ok := node.Function.(*ast.PropertyExpression); ok {
		recv := e.evalExpr(prop.Object, env)
		if e.ctx.Throwing {
			object.Release(recv)
			return object.NULL
		}
		defer object.Release(recv)
		if prop.Optional && isNull(recv) {
			return object.NULL
		}
		args, ok := e.evalArguments(node.Arguments, env)
		if !ok {
			return object.NULL
		}
		defer releaseAll(args)
		return e.callMethod(recv, prop.Property, args, node.Pos())
	}

	fn := e.evalExpr(node.Function, env)
	if e.ctx.Throwing {
		object.Release(fn)
		return object.NULL
	}
	defer object.Release(fn)
	if node.Optional && isNull(fn) {
		return object.NULL
	}

	args, ok := e.evalArguments(node.Arguments, env)
	if !ok {
		return object.NULL
	}
	defer releaseAll(args)

	name := ""
	if ident, ok := node.Function.(*ast.Identifier); ok {
		name = ident.Value
	}
	return e.apply(fn, args, nil, name, node.Pos())
}

// callMethod dispatches recv.name(args) to the receiver's method table.
func (e *Evaluator) callMethod(recv object.Object, name string, args []object.Object, pos int) object.Object {
	switch r := recv.(type) {
	case *object.Channel:
		return e.channelMethod(r, name, args)
	case *object.Task:
		if name == "join" && len(args) == 0 {
			return e.joinTask(r)
		}
	case *object.Record:
		if field, ok := r.Get(name); ok {
			switch field.(type) {
			case *object.Function, *object.Builtin:
				return e.apply(field, args, r, name, pos)
			}
			return e.Throw("Property '%s' is not a function", name)
		}
		if out, found := foreign.CallMethod(e, r, name, args); found {
			return out
		}
		return e.Throw("Object has no method '%s'", name)
	case *object.String, *object.Array, *object.Buffer, *object.File, *object.Socket:
		if out, found := foreign.CallMethod(e, r, name, args); found {
			return out
		}
		return e.Throw("Unknown method '%s' on %s", name, object.TypeName(recv))
	}
	return e.Throw("Cannot call method '%s' on %s", name, object.TypeName(recv))
}

// apply calls a function value with borrowed arguments. self is bound for
// method calls on records.
func (e *Evaluator) apply(fn object.Object, args []object.Object, self object.Object, name string, pos int) object.Object {
	switch fn := fn.(type) {
	case *object.Builtin:
		out := fn.Fn(e, args...)
		if out == nil {
			return object.NULL
		}
		return out
	case *object.Function:
		return e.callFunction(fn, args, self, name, pos)
	}
	return e.Throw("Value is not a function")
}

func (e *Evaluator) callFunction(fn *object.Function, args []object.Object, self object.Object, name string, pos int) object.Object {
	required, total := fn.MinArity(), len(fn.Parameters)
	if len(args) < required || len(args) > total {
		if required == total {
			return e.Throw("Function expects %d arguments, got %d", total, len(args))
		}
		return e.Throw("Function expects %d-%d arguments, got %d", required, total, len(args))
	}

	if len(e.ctx.CallStack) >= e.Runtime.Config.CallDepth() {
		e.fatal("Maximum call stack depth exceeded (infinite recursion?)")
	}

	if name == "" {
		name = fn.Name
	}
	if name == "" {
		name = "<anonymous>"
	}
	e.ctx.pushFrame(CallFrame{Name: name, File: e.file, pos: pos, src: e.src})

	file, src := e.file, e.src
	if fn.Source != "" {
		e.file, e.src = fn.File, fn.Source
	}
	defer func() { e.file, e.src = file, src }()

	callEnv := object.NewEnvironment(fn.Env)
	defer callEnv.Release()

	if self != nil {
		_ = callEnv.Define("self", self, false)
	}

	for i, p := range fn.Parameters {
		var v object.Object = object.NULL
		switch {
		case i < len(args):
			v = object.Retain(args[i])
		case p.Default != nil:
			defaultEnv := fn.Env
			if defaultEnv == nil {
				defaultEnv = callEnv
			}
			v = e.evalExpr(p.Default, defaultEnv)
			if e.ctx.Throwing {
				object.Release(v)
				return object.NULL
			}
		}
		if p.Type != nil {
			v = e.convert(v, p.Type, callEnv)
			if e.ctx.Throwing {
				return object.NULL
			}
		}
		err := callEnv.Define(p.Name.Value, v, false)
		object.Release(v)
		if err != nil {
			return e.throwError(err)
		}
	}

	base := len(e.ctx.defers)
	e.evalBlock(fn.Body.Statements, callEnv)
	e.runDefers(base)

	returned := e.ctx.Returning
	var result object.Object = object.NULL
	if returned {
		result = e.ctx.TakeReturn()
	}
	// break or continue leaking out of a function body stops here
	e.ctx.Breaking, e.ctx.Continuing = false, false

	if e.ctx.Throwing {
		object.Release(result)
		return object.NULL
	}

	if fn.ReturnType != nil && fn.ReturnType.Name != "void" {
		if !returned {
			return e.Throw("Function with return type must return a value")
		}
		result = e.convert(result, fn.ReturnType, callEnv)
		if e.ctx.Throwing {
			return object.NULL
		}
	}

	e.ctx.popFrame()
	return result
}
