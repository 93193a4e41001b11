package runtime

import (
	"bufio"
	"fmt"
	"hemlock/internal/ast"
	"hemlock/internal/foreign"
	"hemlock/internal/object"
	"hemlock/internal/parser"
	"hemlock/internal/util"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// Runtime owns everything shared by the evaluators of one program: the
// builtin and global scopes, the module cache, the object type registry and
// the foreign library handles.
type Runtime struct {
	Config   util.Configuration
	Builtins map[string]*object.Builtin
	Library  *foreign.Library
	// OnFatal is called when a fatal error is raised on a task goroutine.
	// The main goroutine reports fatal errors through the Exec return value.
	OnFatal func(*FatalError)

	builtinEnv *object.Environment
	Global     *object.Environment
	main       *ExecutionContext

	stdout *syncWriter
	stderr *syncWriter
	stdin  *bufio.Reader

	modMu   sync.Mutex
	modules map[string]*Module
	loading map[string]bool

	typeMu sync.RWMutex
	types  map[string]*objectType

	nextID  atomic.Int64
	taskIDs atomic.Int64
	fatal   atomic.Pointer[FatalError]
	closed  bool
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func NewRuntime(config util.Configuration) *Runtime {
	r := &Runtime{
		Config:  config,
		Library: foreign.NewLibrary(),
		main:    NewExecutionContext(),
		stdout:  &syncWriter{w: os.Stdout},
		stderr:  &syncWriter{w: os.Stderr},
		stdin:   bufio.NewReader(os.Stdin),
		modules: make(map[string]*Module),
		loading: make(map[string]bool),
		types:   make(map[string]*objectType),
	}

	r.Builtins = map[string]*object.Builtin{
		"print":           fnBuiltinPrint(),
		"eprint":          fnBuiltinEprint(),
		"typeof":          fnBuiltinTypeof(),
		"assert":          fnBuiltinAssert(),
		"panic":           fnBuiltinPanic(),
		"alloc":           fnBuiltinAlloc(),
		"talloc":          fnBuiltinTalloc(),
		"realloc":         fnBuiltinRealloc(),
		"free":            fnBuiltinFree(),
		"memset":          fnBuiltinMemset(),
		"memcpy":          fnBuiltinMemcpy(),
		"sizeof":          fnBuiltinSizeof(),
		"buffer":          fnBuiltinBuffer(),
		"spawn":           fnTaskSpawn(r),
		"join":            fnTaskJoin(),
		"detach":          fnTaskDetach(r),
		"task_debug_info": fnTaskDebugInfo(),
		"channel":         fnChannelNew(),
	}
	for name, fn := range r.Library.Builtins() {
		r.Builtins[name] = fn
	}

	r.builtinEnv = object.NewEnvironment(nil)
	for name, fn := range r.Builtins {
		_ = r.builtinEnv.Define(name, fn, false)
	}
	for name, v := range object.Constants {
		_ = r.builtinEnv.Define(name, v, true)
	}
	args := make([]object.Object, 0, len(config.Args))
	for _, a := range config.Args {
		args = append(args, object.NewString(a))
	}
	argv := object.NewArray(args)
	_ = r.builtinEnv.Define("args", argv, false)
	object.Release(argv)

	r.Global = object.NewEnvironment(r.builtinEnv)
	return r
}

// SetOutput redirects print and eprint.
func (r *Runtime) SetOutput(stdout, stderr io.Writer) {
	r.stdout = &syncWriter{w: stdout}
	r.stderr = &syncWriter{w: stderr}
}

// SetInput replaces the reader behind read_line.
func (r *Runtime) SetInput(in io.Reader) {
	r.stdin = bufio.NewReader(in)
}

func (r *Runtime) NextHandleID() int64 {
	return r.nextID.Add(1)<<16 | int64(rand.Intn(0xFFFF))
}

// Run executes a whole program and tears the runtime down afterwards.
func (r *Runtime) Run(source, path string) error {
	err := r.Exec(source, path)
	if cerr := r.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return err
}

// RunFile reads and runs a script. RootPath defaults to the script's directory.
func (r *Runtime) RunFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	if r.Config.RootPath == "" {
		r.Config.RootPath = filepath.Dir(path)
	}
	return r.Run(string(source), path)
}

// Exec evaluates source in the persistent global scope. Top-level defers run
// at the end of each call, so the REPL can invoke it once per input.
func (r *Runtime) Exec(source, path string) (err error) {
	program, errs := parser.Parse(source)
	if len(errs) > 0 {
		return &ParseError{Path: path, Messages: errs}
	}
	r.dumpAST(program, path)

	ctx := r.main
	defer func() {
		if rec := recover(); rec != nil {
			fe, ok := rec.(*FatalError)
			if !ok {
				panic(rec)
			}
			ctx.reset()
			err = fe
		}
	}()

	e := r.newEvaluator(ctx, path, source)
	e.evalProgram(program, r.Global)

	if ctx.Throwing {
		exc := ctx.Catch()
		uncaught := &UncaughtError{Value: object.ToString(exc), Trace: ctx.Trace()}
		object.Release(exc)
		ctx.reset()
		return uncaught
	}
	ctx.reset()

	// a task fatal is reported once, by the Exec that observes it
	if fe := r.fatal.Swap(nil); fe != nil {
		return fe
	}
	return nil
}

func (r *Runtime) dumpAST(program *ast.Program, path string) {
	if !r.Config.DebugAST || path == "" {
		return
	}
	json, err := parser.RenderASTAsJSON(program)
	if err != nil {
		slog.Error("Failed to render AST as JSON", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(path+".ast.json", []byte(json), 0644); err != nil {
		slog.Error("Failed to write AST as JSON", slog.Any("error", err))
	}
}

// reportFatal records the first fatal error raised off the main goroutine.
func (r *Runtime) reportFatal(fe *FatalError) {
	r.fatal.CompareAndSwap(nil, fe)
	slog.Error("fatal error in task", slog.String("error", fe.Message))
	if r.OnFatal != nil {
		r.OnFatal(fe)
	}
}

// Close breaks closure cycles in every top-level scope, releases them and
// closes open database handles. The runtime must not be used afterwards.
func (r *Runtime) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	cleared := r.Global.BreakCycles()
	r.modMu.Lock()
	for _, m := range r.modules {
		cleared += m.Env.BreakCycles()
		m.release()
	}
	r.modules = map[string]*Module{}
	r.modMu.Unlock()

	r.typeMu.Lock()
	for _, t := range r.types {
		t.env.Release()
	}
	r.types = map[string]*objectType{}
	r.typeMu.Unlock()

	r.Global.Release()
	r.builtinEnv.Release()
	slog.Debug("runtime closed",
		slog.Int("cycles-cleared", cleared),
		slog.Int64("live-values", object.Live()))

	return r.Library.Close()
}
