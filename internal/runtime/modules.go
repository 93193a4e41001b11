package runtime

import (
	"fmt"
	"hemlock/internal/ast"
	"hemlock/internal/object"
	"hemlock/internal/parser"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const stdlibPrefix = "@stdlib/"

// Module is a loaded source file with its own top-level scope.
type Module struct {
	Path string
	Env  *object.Environment

	exports  []string
	exported map[string]bool

	// loader is the context executing the module body; ready closes when it
	// finishes.
	loader *ExecutionContext
	ready  chan struct{}
	failed bool
}

func newModule(path string, parent *object.Environment, loader *ExecutionContext) *Module {
	return &Module{
		Path:     path,
		Env:      object.NewEnvironment(parent),
		exported: make(map[string]bool),
		loader:   loader,
		ready:    make(chan struct{}),
	}
}

func (m *Module) export(name string) {
	if m.exported[name] {
		return
	}
	m.exported[name] = true
	m.exports = append(m.exports, name)
}

// Exports lists exported names in declaration order.
func (m *Module) Exports() []string {
	return append([]string(nil), m.exports...)
}

// lookup returns an owned exported value.
func (m *Module) lookup(name string) (object.Object, error) {
	if !m.exported[name] {
		return nil, fmt.Errorf("Module '%s' has no export '%s'", m.Path, name)
	}
	return m.Env.Get(name)
}

func (m *Module) release() {
	m.Env.Release()
}

// resolveModule maps an import path to an existing file. Relative paths are
// tried against the importing file, the root path and the stdlib directory.
func (r *Runtime) resolveModule(importer, specifier string) (string, error) {
	name := specifier
	if !strings.HasSuffix(name, ".hml") {
		name += ".hml"
	}

	var candidates []string
	switch {
	case strings.HasPrefix(name, stdlibPrefix):
		if r.Config.HemlockHome == "" {
			return "", fmt.Errorf("@stdlib alias used but HEMLOCK_HOME is not set")
		}
		candidates = append(candidates, filepath.Join(r.Config.HemlockHome, "stdlib", strings.TrimPrefix(name, stdlibPrefix)))
	case filepath.IsAbs(name):
		candidates = append(candidates, name)
	default:
		if importer != "" {
			candidates = append(candidates, filepath.Join(filepath.Dir(importer), name))
		}
		if r.Config.RootPath != "" {
			candidates = append(candidates, filepath.Join(r.Config.RootPath, name))
		}
		if r.Config.HemlockHome != "" {
			candidates = append(candidates, filepath.Join(r.Config.HemlockHome, "stdlib", name))
		}
		if len(candidates) == 0 {
			candidates = append(candidates, name)
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			if abs, err := filepath.Abs(c); err == nil {
				return abs, nil
			}
			return c, nil
		}
	}
	return "", fmt.Errorf("Cannot find module '%s'", specifier)
}

// loadModule returns the cached module for specifier, executing it on first use.
// A throw from the module body is left pending on e's context.
func (e *Evaluator) loadModule(specifier string) (*Module, bool) {
	r := e.Runtime
	path, err := r.resolveModule(e.file, specifier)
	if err != nil {
		e.throwError(err)
		return nil, false
	}

	r.modMu.Lock()
	if m, ok := r.modules[path]; ok {
		r.modMu.Unlock()
		select {
		case <-m.ready:
		default:
			if m.loader == e.ctx {
				e.Throw("Circular import detected: %s", path)
				return nil, false
			}
			e.block()
			<-m.ready
			e.unblock()
		}
		if m.failed {
			e.Throw("Failed to load module '%s'", path)
			return nil, false
		}
		slog.Debug("module loaded from cache", slog.String("path", path))
		return m, true
	}
	m := newModule(path, r.builtinEnv, e.ctx)
	r.modules[path] = m
	r.modMu.Unlock()

	ok := e.execModule(m)
	if !ok {
		m.failed = true
		r.modMu.Lock()
		delete(r.modules, path)
		r.modMu.Unlock()
		m.Env.BreakCycles()
		m.release()
	}
	close(m.ready)
	return m, ok
}

func (e *Evaluator) execModule(m *Module) bool {
	source, err := os.ReadFile(m.Path)
	if err != nil {
		e.Throw("could not read module %s: %s", m.Path, err.Error())
		return false
	}
	program, errs := parser.Parse(string(source))
	if len(errs) > 0 {
		slog.Warn("error loading module",
			slog.String("path", m.Path),
			slog.String("errors", strings.Join(errs, "\n")))
		e.throwError(&ParseError{Path: m.Path, Messages: errs})
		return false
	}
	e.Runtime.dumpAST(program, m.Path)

	me := &Evaluator{Runtime: e.Runtime, ctx: e.ctx, task: e.task, module: m, file: m.Path, src: string(source)}
	me.evalProgram(program, m.Env)
	slog.Debug("module executed",
		slog.String("path", m.Path),
		slog.Int("exports", len(m.exports)),
		slog.Bool("threw", e.ctx.Throwing))
	return !e.ctx.Throwing
}

func (e *Evaluator) evalImport(node *ast.ImportStatement, env *object.Environment) {
	m, ok := e.loadModule(node.Path)
	if !ok {
		return
	}

	if node.Namespace != nil {
		ns := object.NewRecord()
		defer object.Release(ns)
		for _, name := range m.exports {
			v, err := m.lookup(name)
			if err != nil {
				e.throwError(err)
				return
			}
			ns.Set(name, v)
			object.Release(v)
		}
		if err := env.Define(node.Namespace.Value, ns, true); err != nil {
			e.throwError(err)
		}
		return
	}

	for _, sym := range node.Symbols {
		v, err := m.lookup(sym.Name.Value)
		if err != nil {
			e.throwError(err)
			return
		}
		bind := sym.Name.Value
		if sym.Alias != nil {
			bind = sym.Alias.Value
		}
		err = env.Define(bind, v, true)
		object.Release(v)
		if err != nil {
			e.throwError(err)
			return
		}
	}
}

func (e *Evaluator) evalExport(node *ast.ExportStatement, env *object.Environment) {
	if node.Declaration != nil {
		e.evalStmt(node.Declaration, env)
		if e.ctx.Throwing || e.module == nil {
			return
		}
		switch decl := node.Declaration.(type) {
		case *ast.LetStatement:
			e.module.export(decl.Name.Value)
		case *ast.EnumStatement:
			e.module.export(decl.Name.Value)
		}
		return
	}

	// re-export from another module
	if node.Path != "" {
		src, ok := e.loadModule(node.Path)
		if !ok {
			return
		}
		for _, sym := range node.Symbols {
			v, err := src.lookup(sym.Name.Value)
			if err != nil {
				e.throwError(err)
				return
			}
			name := sym.Name.Value
			if sym.Alias != nil {
				name = sym.Alias.Value
			}
			err = env.Define(name, v, true)
			object.Release(v)
			if err != nil {
				e.throwError(err)
				return
			}
			if e.module != nil {
				e.module.export(name)
			}
		}
		return
	}

	for _, sym := range node.Symbols {
		if !env.Has(sym.Name.Value) {
			e.Throw("Cannot export undefined name '%s'", sym.Name.Value)
			return
		}
		name := sym.Name.Value
		if sym.Alias != nil {
			v, err := env.Get(sym.Name.Value)
			if err != nil {
				e.throwError(err)
				return
			}
			name = sym.Alias.Value
			err = env.Define(name, v, true)
			object.Release(v)
			if err != nil {
				e.throwError(err)
				return
			}
		}
		if e.module != nil {
			e.module.export(name)
		}
	}
}
