package runtime

import (
	"hemlock/internal/ast"
	"hemlock/internal/object"
	"hemlock/internal/util"
)

// CallFrame is one user function activation, kept for stack traces.
type CallFrame struct {
	Name string
	File string
	pos  int
	src  string
}

// Line is the 1-based source line of the call site.
func (f CallFrame) Line() int {
	if f.src == "" {
		return 0
	}
	line, _ := util.GetLineAndColumn(f.src, f.pos)
	return line
}

func (f CallFrame) Column() int {
	if f.src == "" {
		return 0
	}
	_, col := util.GetLineAndColumn(f.src, f.pos)
	return col
}

type deferredCall struct {
	call ast.Expression
	env  *object.Environment
	file string
	src  string
}

// ExecutionContext is the control state of one thread of evaluation: the main
// program or a single spawned task. Signals travel only through its flags.
type ExecutionContext struct {
	Returning   bool
	ReturnValue object.Object
	Breaking    bool
	Continuing  bool
	Throwing    bool
	Exception   object.Object
	CallStack   []CallFrame

	defers []deferredCall
}

func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{}
}

// Interrupted reports whether any flag should stop the current statement sequence.
func (c *ExecutionContext) Interrupted() bool {
	return c.Returning || c.Breaking || c.Continuing || c.Throwing
}

// Throw takes ownership of v as the in-flight exception.
func (c *ExecutionContext) Throw(v object.Object) {
	if c.Exception != nil {
		object.Release(c.Exception)
	}
	c.Throwing = true
	c.Exception = v
}

// Catch clears the exception state and hands the value to the caller.
func (c *ExecutionContext) Catch() object.Object {
	v := c.Exception
	c.Throwing = false
	c.Exception = nil
	if v == nil {
		return object.NULL
	}
	return v
}

// SetReturn takes ownership of v as the pending return value.
func (c *ExecutionContext) SetReturn(v object.Object) {
	if c.ReturnValue != nil {
		object.Release(c.ReturnValue)
	}
	c.Returning = true
	c.ReturnValue = v
}

// TakeReturn clears the return state and hands the value to the caller.
func (c *ExecutionContext) TakeReturn() object.Object {
	v := c.ReturnValue
	c.Returning = false
	c.ReturnValue = nil
	if v == nil {
		return object.NULL
	}
	return v
}

func (c *ExecutionContext) pushFrame(f CallFrame) {
	c.CallStack = append(c.CallStack, f)
}

func (c *ExecutionContext) popFrame() {
	if len(c.CallStack) > 0 {
		c.CallStack = c.CallStack[:len(c.CallStack)-1]
	}
}

// Trace copies the call stack, most recent call first.
func (c *ExecutionContext) Trace() []CallFrame {
	out := make([]CallFrame, len(c.CallStack))
	for i, f := range c.CallStack {
		out[len(c.CallStack)-1-i] = f
	}
	return out
}

// savedState is the in-flight control state parked while a finally block
// or a deferred call runs.
type savedState struct {
	returning   bool
	returnValue object.Object
	breaking    bool
	continuing  bool
	throwing    bool
	exception   object.Object
}

func (c *ExecutionContext) suspend() savedState {
	s := savedState{
		returning:   c.Returning,
		returnValue: c.ReturnValue,
		breaking:    c.Breaking,
		continuing:  c.Continuing,
		throwing:    c.Throwing,
		exception:   c.Exception,
	}
	c.Returning, c.ReturnValue = false, nil
	c.Breaking, c.Continuing = false, false
	c.Throwing, c.Exception = false, nil
	return s
}

// resume restores s unless the intervening code raised its own signal, in
// which case the new signal wins and the parked values are dropped.
func (c *ExecutionContext) resume(s savedState) {
	if c.Interrupted() {
		if s.returnValue != nil {
			object.Release(s.returnValue)
		}
		if s.exception != nil {
			object.Release(s.exception)
		}
		return
	}
	c.Returning, c.ReturnValue = s.returning, s.returnValue
	c.Breaking, c.Continuing = s.breaking, s.continuing
	c.Throwing, c.Exception = s.throwing, s.exception
}

// reset drops every pending signal, frame and defer.
func (c *ExecutionContext) reset() {
	if c.ReturnValue != nil {
		object.Release(c.ReturnValue)
	}
	if c.Exception != nil {
		object.Release(c.Exception)
	}
	for _, d := range c.defers {
		d.env.Release()
	}
	*c = ExecutionContext{}
}
