package runtime

import (
	"errors"
	"fmt"
	"hemlock/internal/object"
	"log/slog"
)

// evaluatorOf recovers the evaluator behind a builtin context.
func evaluatorOf(ctx object.BuiltinContext) *Evaluator {
	return ctx.(*Evaluator)
}

func fnTaskSpawn(r *Runtime) *object.Builtin {
	return &object.Builtin{
		Name: "spawn",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) < 1 {
				return ctx.Throw("spawn() expects at least 1 argument (async function)")
			}
			fn, ok := args[0].(*object.Function)
			if !ok || !fn.IsAsync {
				return ctx.Throw("spawn() requires an async function")
			}
			return r.spawn(fn, args[1:])
		},
	}
}

// spawn starts fn on its own goroutine and returns the owned task handle.
// The goroutine holds a second reference until the body completes, so a
// dropped or detached handle stays alive until then.
func (r *Runtime) spawn(fn *object.Function, args []object.Object) *object.Task {
	task := object.NewTask(r.taskIDs.Add(1), fn, args)
	object.Retain(task)

	e := r.newEvaluator(NewExecutionContext(), fn.File, fn.Source)
	e.task = task
	task.Start(e.runTask)

	go func() {
		<-task.Done()
		slog.Debug("task finished",
			slog.Int64("id", task.ID),
			slog.Int("ref-count", int(object.RefCount(task))))
		object.Release(task)
	}()

	slog.Debug("task spawned",
		slog.Int64("id", task.ID),
		slog.Int("argument-count", len(args)))
	return task
}

// runTask is the body of a task goroutine. A thrown value becomes an
// *object.Exception; a fatal error is reported to the runtime and completes
// the task with the fatal message as its exception.
func (e *Evaluator) runTask() (result object.Object, err error) {
	task := e.task
	defer func() {
		if rec := recover(); rec != nil {
			fe, ok := rec.(*FatalError)
			if !ok {
				panic(rec)
			}
			e.Runtime.reportFatal(fe)
			result, err = nil, &object.Exception{Value: object.NewString(fe.Message)}
		}
	}()

	v := e.callFunction(task.Fn, task.Args, nil, "", 0)
	if e.ctx.Throwing {
		object.Release(v)
		exc := e.ctx.Catch()
		slog.Debug("task threw",
			slog.Int64("id", task.ID),
			slog.String("exception", object.ToString(exc)))
		return nil, &object.Exception{Value: exc}
	}
	return v, nil
}

func fnTaskJoin() *object.Builtin {
	return &object.Builtin{
		Name: "join",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.Throw("join() expects 1 argument (task handle)")
			}
			task, ok := args[0].(*object.Task)
			if !ok {
				return ctx.Throw("join() expects a task handle")
			}
			return evaluatorOf(ctx).joinTask(task)
		},
	}
}

// joinTask waits for task and returns its owned result, or re-raises the
// task's exception in this context.
func (e *Evaluator) joinTask(task *object.Task) object.Object {
	e.block()
	v, err := task.Join()
	e.unblock()

	if err == nil {
		return v
	}
	var exc *object.Exception
	if errors.As(err, &exc) {
		e.ctx.Throw(object.Retain(exc.Value))
		return object.NULL
	}
	return e.throwError(err)
}

func fnTaskDetach(r *Runtime) *object.Builtin {
	return &object.Builtin{
		Name: "detach",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) < 1 {
				return ctx.Throw("detach() expects at least 1 argument")
			}
			switch target := args[0].(type) {
			case *object.Task:
				if len(args) != 1 {
					return ctx.Throw("detach() with a task handle expects 1 argument")
				}
				if !target.Detach() {
					return ctx.Throw("cannot detach joined task")
				}
			case *object.Function:
				if !target.IsAsync {
					return ctx.Throw("spawn() requires an async function")
				}
				task := r.spawn(target, args[1:])
				task.Detach()
				object.Release(task)
			default:
				return ctx.Throw("detach() expects an async function or task handle")
			}
			return object.NULL
		},
	}
}

func fnTaskDebugInfo() *object.Builtin {
	return &object.Builtin{
		Name: "task_debug_info",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.Throw("task_debug_info() expects 1 argument (task handle)")
			}
			task, ok := args[0].(*object.Task)
			if !ok {
				return ctx.Throw("task_debug_info() expects a task handle")
			}
			info := task.DebugInfo()
			fmt.Fprintf(ctx.Stdout(),
				"=== Task Debug Info ===\n"+
					"Task ID: %d\n"+
					"State: %s\n"+
					"Joined: %t\n"+
					"Detached: %t\n"+
					"Ref Count: %d\n"+
					"Has Result: %t\n"+
					"Exception: %t\n"+
					"======================\n",
				info.ID, info.State, info.Joined, info.Detached,
				info.RefCount, info.HasResult, info.Exception)
			return object.NULL
		},
	}
}
