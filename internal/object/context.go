package object

import (
	"bufio"
	"hemlock/internal/util"
	"io"
)

// BuiltinContext is the bridge between native Go builtins and the interpreter.
// Builtin arguments are borrowed; the returned value is owned by the caller.
type BuiltinContext interface {
	// Throw raises a catchable string exception and returns null.
	Throw(format string, a ...interface{}) Object
	// Call invokes a function value. ok is false when the call threw.
	Call(fn Object, args ...Object) (result Object, ok bool)
	// Convert applies a type annotation to a borrowed value and returns an
	// owned result. ok is false when the conversion threw.
	Convert(v Object, typeName string) (result Object, ok bool)
	Stdout() io.Writer
	Stderr() io.Writer
	Stdin() *bufio.Reader
	NextHandleID() int64
	GetConfiguration() util.Configuration
}
