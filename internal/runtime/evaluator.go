package runtime

import (
	"bufio"
	"fmt"
	"hemlock/internal/ast"
	"hemlock/internal/object"
	"hemlock/internal/util"
	"io"
	"log/slog"
)

// Evaluator walks the syntax tree for one thread of control. It satisfies
// object.BuiltinContext so builtins can raise exceptions and call back into
// user code.
type Evaluator struct {
	Runtime *Runtime
	ctx     *ExecutionContext
	task    *object.Task
	module  *Module

	file string
	src  string
}

func (r *Runtime) newEvaluator(ctx *ExecutionContext, file, src string) *Evaluator {
	return &Evaluator{Runtime: r, ctx: ctx, file: file, src: src}
}

func (e *Evaluator) Context() *ExecutionContext { return e.ctx }

func (e *Evaluator) Throw(format string, a ...interface{}) object.Object {
	e.ctx.Throw(object.NewString(fmt.Sprintf(format, a...)))
	return object.NULL
}

func (e *Evaluator) throwError(err error) object.Object {
	return e.Throw("%s", err.Error())
}

func (e *Evaluator) Call(fn object.Object, args ...object.Object) (object.Object, bool) {
	result := e.apply(fn, args, nil, "", 0)
	if e.ctx.Throwing {
		object.Release(result)
		return object.NULL, false
	}
	return result, true
}

func (e *Evaluator) Convert(v object.Object, typeName string) (object.Object, bool) {
	out := e.convertName(object.Retain(v), typeName, nil)
	if e.ctx.Throwing {
		return object.NULL, false
	}
	return out, true
}

func (e *Evaluator) Stdout() io.Writer    { return e.Runtime.stdout }
func (e *Evaluator) Stderr() io.Writer    { return e.Runtime.stderr }
func (e *Evaluator) Stdin() *bufio.Reader { return e.Runtime.stdin }
func (e *Evaluator) NextHandleID() int64  { return e.Runtime.NextHandleID() }
func (e *Evaluator) GetConfiguration() util.Configuration {
	return e.Runtime.Config
}

// fatal aborts the current goroutine's evaluation.
func (e *Evaluator) fatal(format string, a ...interface{}) {
	panic(&FatalError{Message: fmt.Sprintf(format, a...), Trace: e.ctx.Trace()})
}

// block and unblock mark the owning task while it waits.
func (e *Evaluator) block() {
	if e.task != nil {
		e.task.Block()
	}
}

func (e *Evaluator) unblock() {
	if e.task != nil {
		e.task.Unblock()
	}
}

func (e *Evaluator) evalProgram(program *ast.Program, env *object.Environment) {
	base := len(e.ctx.defers)
	for _, stmt := range program.Statements {
		e.evalStmt(stmt, env)
		if e.ctx.Throwing {
			break
		}
		if e.ctx.Returning {
			object.Release(e.ctx.TakeReturn())
			break
		}
		e.ctx.Breaking, e.ctx.Continuing = false, false
	}
	e.runDefers(base)
}

// evalBlock runs statements in env, stopping at the first pending signal.
func (e *Evaluator) evalBlock(statements []ast.Statement, env *object.Environment) {
	for _, stmt := range statements {
		e.evalStmt(stmt, env)
		if e.ctx.Interrupted() {
			return
		}
	}
}

func (e *Evaluator) evalStmt(node ast.Statement, env *object.Environment) {
	switch node := node.(type) {

	case *ast.ExpressionStatement:
		object.Release(e.evalExpr(node.Expression, env))

	case *ast.LetStatement:
		e.evalLet(node, env)

	case *ast.BlockStatement:
		blockEnv := object.NewEnvironment(env)
		e.evalBlock(node.Statements, blockEnv)
		blockEnv.Release()

	case *ast.IfStatement:
		cond := e.evalExpr(node.Condition, env)
		if e.ctx.Throwing {
			return
		}
		truthy := object.Truthy(cond)
		object.Release(cond)
		if truthy {
			e.evalStmt(node.Consequence, env)
		} else if node.Alternative != nil {
			e.evalStmt(node.Alternative, env)
		}

	case *ast.WhileStatement:
		e.evalWhile(node, env)

	case *ast.ForStatement:
		e.evalFor(node, env)

	case *ast.ForInStatement:
		e.evalForIn(node, env)

	case *ast.BreakStatement:
		e.ctx.Breaking = true

	case *ast.ContinueStatement:
		e.ctx.Continuing = true

	case *ast.ReturnStatement:
		var v object.Object = object.NULL
		if node.ReturnValue != nil {
			v = e.evalExpr(node.ReturnValue, env)
			if e.ctx.Throwing {
				object.Release(v)
				return
			}
		}
		e.ctx.SetReturn(v)

	case *ast.ThrowStatement:
		v := e.evalExpr(node.Value, env)
		if e.ctx.Throwing {
			object.Release(v)
			return
		}
		e.ctx.Throw(v)

	case *ast.TryStatement:
		e.evalTry(node, env)

	case *ast.DeferStatement:
		e.ctx.defers = append(e.ctx.defers, deferredCall{
			call: node.Call,
			env:  env.Retain(),
			file: e.file,
			src:  e.src,
		})

	case *ast.SwitchStatement:
		e.evalSwitch(node, env)

	case *ast.DefineStatement:
		e.Runtime.defineType(node, env)

	case *ast.EnumStatement:
		e.evalEnum(node, env)

	case *ast.ImportStatement:
		e.evalImport(node, env)

	case *ast.ExportStatement:
		e.evalExport(node, env)

	case *ast.ImportFFIStatement:
		slog.Warn("foreign library import ignored", slog.String("library", node.Library))

	case *ast.ExternStatement:
		e.evalExtern(node, env)

	default:
		e.Throw("Unknown statement type %T", node)
	}
}

func (e *Evaluator) evalLet(node *ast.LetStatement, env *object.Environment) {
	var v object.Object = object.NULL
	if node.Value != nil {
		v = e.evalExpr(node.Value, env)
		if e.ctx.Throwing {
			object.Release(v)
			return
		}
		if node.Type != nil {
			v = e.convert(v, node.Type, env)
			if e.ctx.Throwing {
				return
			}
		}
	}
	if err := env.Define(node.Name.Value, v, node.IsConst); err != nil {
		e.throwError(err)
	}
	object.Release(v)
}

// loopSignal consumes break and continue. It reports whether the loop must stop.
func (e *Evaluator) loopSignal() bool {
	if e.ctx.Breaking {
		e.ctx.Breaking = false
		return true
	}
	if e.ctx.Continuing {
		e.ctx.Continuing = false
	}
	return e.ctx.Returning || e.ctx.Throwing
}

func (e *Evaluator) evalWhile(node *ast.WhileStatement, env *object.Environment) {
	for {
		cond := e.evalExpr(node.Condition, env)
		if e.ctx.Throwing {
			object.Release(cond)
			return
		}
		truthy := object.Truthy(cond)
		object.Release(cond)
		if !truthy {
			return
		}
		e.evalStmt(node.Body, env)
		if e.loopSignal() {
			return
		}
	}
}

func (e *Evaluator) evalFor(node *ast.ForStatement, env *object.Environment) {
	loopEnv := object.NewEnvironment(env)
	defer loopEnv.Release()

	if node.Init != nil {
		e.evalStmt(node.Init, loopEnv)
		if e.ctx.Throwing {
			return
		}
	}
	for {
		if node.Condition != nil {
			cond := e.evalExpr(node.Condition, loopEnv)
			if e.ctx.Throwing {
				object.Release(cond)
				return
			}
			truthy := object.Truthy(cond)
			object.Release(cond)
			if !truthy {
				return
			}
		}
		e.evalStmt(node.Body, loopEnv)
		if e.loopSignal() {
			return
		}
		if node.Update != nil {
			object.Release(e.evalExpr(node.Update, loopEnv))
			if e.ctx.Throwing {
				return
			}
		}
	}
}

func (e *Evaluator) evalForIn(node *ast.ForInStatement, env *object.Environment) {
	iterable := e.evalExpr(node.Iterable, env)
	if e.ctx.Throwing {
		object.Release(iterable)
		return
	}
	defer object.Release(iterable)

	// iteration binds key and value in a fresh scope, then runs the body there
	iteration := func(key, value object.Object) bool {
		iterEnv := object.NewEnvironment(env)
		defer iterEnv.Release()
		if node.Key != nil {
			_ = iterEnv.Define(node.Key.Value, key, false)
		}
		if err := iterEnv.Define(node.Value.Value, value, false); err != nil {
			e.throwError(err)
			return true
		}
		e.evalBlock(node.Body.Statements, iterEnv)
		return e.loopSignal()
	}

	switch it := iterable.(type) {
	case *object.Array:
		for i := 0; ; i++ {
			v, ok := it.At(i)
			if !ok {
				return
			}
			stop := iteration(object.I32(i), v)
			object.Release(v)
			if stop {
				return
			}
		}
	case *object.Record:
		for _, k := range it.Keys() {
			v, ok := it.Get(k)
			if !ok {
				continue
			}
			key := object.NewString(k)
			stop := iteration(key, v)
			object.Release(key)
			if stop {
				return
			}
		}
	case *object.String:
		i := 0
		for _, r := range it.Value {
			if iteration(object.I32(i), object.Rune(r)) {
				return
			}
			i++
		}
	default:
		e.Throw("for-in requires array, object, or string")
	}
}

func (e *Evaluator) evalTry(node *ast.TryStatement, env *object.Environment) {
	depth := len(e.ctx.CallStack)
	e.evalStmt(node.Block, env)

	if e.ctx.Throwing && node.CatchBlock != nil {
		exc := e.ctx.Catch()
		e.ctx.CallStack = e.ctx.CallStack[:depth]

		catchEnv := object.NewEnvironment(env)
		if node.CatchParam != nil {
			_ = catchEnv.Define(node.CatchParam.Value, exc, false)
		}
		object.Release(exc)
		e.evalBlock(node.CatchBlock.Statements, catchEnv)
		catchEnv.Release()
	}

	if node.FinallyBlock != nil {
		saved := e.ctx.suspend()
		e.evalStmt(node.FinallyBlock, env)
		e.ctx.resume(saved)
	}
}

func (e *Evaluator) evalSwitch(node *ast.SwitchStatement, env *object.Environment) {
	subject := e.evalExpr(node.Subject, env)
	if e.ctx.Throwing {
		object.Release(subject)
		return
	}
	defer object.Release(subject)

	start, fallback := -1, -1
	for i, c := range node.Cases {
		if c.Value == nil {
			if fallback < 0 {
				fallback = i
			}
			continue
		}
		v := e.evalExpr(c.Value, env)
		if e.ctx.Throwing {
			object.Release(v)
			return
		}
		matched := object.Equal(subject, v)
		object.Release(v)
		if matched {
			start = i
			break
		}
	}
	if start < 0 {
		start = fallback
	}
	if start < 0 {
		return
	}

	switchEnv := object.NewEnvironment(env)
	defer switchEnv.Release()
	for _, c := range node.Cases[start:] {
		e.evalBlock(c.Body, switchEnv)
		if e.ctx.Breaking {
			e.ctx.Breaking = false
			return
		}
		if e.ctx.Interrupted() {
			return
		}
	}
}

func (e *Evaluator) evalEnum(node *ast.EnumStatement, env *object.Environment) {
	rec := object.NewRecord()
	rec.TypeName = node.Name.Value
	defer object.Release(rec)

	next := int32(0)
	for _, m := range node.Members {
		value := next
		if m.Value != nil {
			v := e.evalExpr(m.Value, env)
			if e.ctx.Throwing {
				object.Release(v)
				return
			}
			i, ok := v.(object.I32)
			object.Release(v)
			if !ok {
				e.Throw("Enum variant value must be i32")
				return
			}
			value = int32(i)
		}
		rec.Set(m.Name.Value, object.I32(value))
		next = value + 1
	}

	if err := env.Define(node.Name.Value, rec, true); err != nil {
		e.throwError(err)
	}
}

func (e *Evaluator) evalExtern(node *ast.ExternStatement, env *object.Environment) {
	name := node.Name.Value
	stub := &object.Builtin{
		Name: name,
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			return ctx.Throw("FFI is not supported in this build: cannot call '%s'", name)
		},
	}
	if err := env.Define(name, stub, false); err != nil {
		e.throwError(err)
	}
}

// runDefers executes, LIFO, every deferred call registered above base.
func (e *Evaluator) runDefers(base int) {
	for len(e.ctx.defers) > base {
		last := len(e.ctx.defers) - 1
		d := e.ctx.defers[last]
		e.ctx.defers = e.ctx.defers[:last]

		saved := e.ctx.suspend()
		file, src := e.file, e.src
		e.file, e.src = d.file, d.src
		object.Release(e.evalExpr(d.call, d.env))
		e.file, e.src = file, src
		d.env.Release()
		e.ctx.resume(saved)
	}
}
