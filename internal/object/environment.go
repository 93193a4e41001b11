package object

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var nextID atomic.Uint64

var (
	ErrUndefinedVariable   = errors.New("undefined variable")
	ErrConstAssignment     = errors.New("const assignment")
	ErrDuplicateDefinition = errors.New("duplicate definition")
)

// BindingError reports a failed define, set or get. It matches one of the
// Err* sentinels through errors.Is.
type BindingError struct {
	Err  error
	Name string
}

func (e *BindingError) Error() string {
	switch e.Err {
	case ErrUndefinedVariable:
		return fmt.Sprintf("Undefined variable '%s'", e.Name)
	case ErrConstAssignment:
		return fmt.Sprintf("Cannot assign to const variable '%s'", e.Name)
	case ErrDuplicateDefinition:
		return fmt.Sprintf("Variable '%s' already defined in this scope", e.Name)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Name)
}

func (e *BindingError) Unwrap() error { return e.Err }

type slot struct {
	name    string
	value   Object
	isConst bool
}

// Environment is a reference counted scope of ordered slots chained to a parent.
type Environment struct {
	ID     uint64
	slots  []slot
	index  map[string]int
	parent *Environment
	refs   atomic.Int32
	freed  atomic.Bool

	mu sync.RWMutex
}

func nextEnvID() uint64 {
	return nextID.Add(1)
}

// NewEnvironment creates a scope owned by the caller. A non-nil parent is retained.
func NewEnvironment(parent *Environment) *Environment {
	env := &Environment{
		ID:     nextEnvID(),
		index:  make(map[string]int),
		parent: parent,
	}
	env.refs.Store(1)
	if parent != nil {
		parent.Retain()
	}
	slog.Debug("new env",
		slog.Uint64("id", env.ID),
		slog.Bool("root", parent == nil))
	return env
}

func (e *Environment) Parent() *Environment { return e.parent }

func (e *Environment) Retain() *Environment {
	e.refs.Add(1)
	return e
}

// Release drops one owner. At zero every slot value is released, then the parent.
func (e *Environment) Release() {
	if e.freed.Load() {
		return
	}
	if e.refs.Add(-1) != 0 {
		return
	}
	if !e.freed.CompareAndSwap(false, true) {
		return
	}
	e.mu.Lock()
	slots := e.slots
	e.slots = nil
	e.index = make(map[string]int)
	e.mu.Unlock()

	for _, s := range slots {
		Release(s.value)
	}
	slog.Debug("env released", slog.Uint64("id", e.ID), slog.Int("slots", len(slots)))
	if e.parent != nil {
		e.parent.Release()
	}
}

func (e *Environment) RefCount() int32 { return e.refs.Load() }

// Define binds name in this environment only, retaining v.
func (e *Environment) Define(name string, v Object, isConst bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.index[name]; exists {
		return &BindingError{Err: ErrDuplicateDefinition, Name: name}
	}
	e.index[name] = len(e.slots)
	e.slots = append(e.slots, slot{name: name, value: Retain(v), isConst: isConst})

	slog.Debug("binding value",
		slog.String("name", name),
		slog.Any("type", v.Type()),
		slog.Bool("const", isConst))
	return nil
}

// Set assigns to the nearest enclosing binding of name. When no scope in the
// chain defines it, a mutable binding is created in this environment.
func (e *Environment) Set(name string, v Object) error {
	for env := e; env != nil; env = env.parent {
		done, err := env.assignLocal(name, v)
		if done {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if i, exists := e.index[name]; exists {
		// defined concurrently since the walk
		old := e.slots[i].value
		e.slots[i].value = Retain(v)
		Release(old)
		return nil
	}
	e.index[name] = len(e.slots)
	e.slots = append(e.slots, slot{name: name, value: Retain(v)})
	slog.Debug("implicit binding", slog.String("name", name), slog.Uint64("env", e.ID))
	return nil
}

func (e *Environment) assignLocal(name string, v Object) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, exists := e.index[name]
	if !exists {
		return false, nil
	}
	if e.slots[i].isConst {
		return true, &BindingError{Err: ErrConstAssignment, Name: name}
	}
	old := e.slots[i].value
	e.slots[i].value = Retain(v)
	Release(old)
	return true, nil
}

// Get returns the value bound to name, retained for the caller.
func (e *Environment) Get(name string) (Object, error) {
	for env := e; env != nil; env = env.parent {
		env.mu.RLock()
		i, ok := env.index[name]
		if ok {
			v := Retain(env.slots[i].value)
			env.mu.RUnlock()
			return v, nil
		}
		env.mu.RUnlock()
	}
	return nil, &BindingError{Err: ErrUndefinedVariable, Name: name}
}

// Has reports whether name is bound anywhere in the chain.
func (e *Environment) Has(name string) bool {
	for env := e; env != nil; env = env.parent {
		env.mu.RLock()
		_, ok := env.index[name]
		env.mu.RUnlock()
		if ok {
			return true
		}
	}
	return false
}

// HasLocal reports whether name is bound in this environment's own slots.
func (e *Environment) HasLocal(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.index[name]
	return ok
}

// IsConst reports whether the nearest binding of name is const.
func (e *Environment) IsConst(name string) bool {
	for env := e; env != nil; env = env.parent {
		env.mu.RLock()
		i, ok := env.index[name]
		if ok {
			c := env.slots[i].isConst
			env.mu.RUnlock()
			return c
		}
		env.mu.RUnlock()
	}
	return false
}

// Names lists this environment's own bindings in definition order.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.slots))
	for i, s := range e.slots {
		names[i] = s.name
	}
	return names
}

// Len is the number of slots in this environment.
func (e *Environment) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.slots)
}

// BreakCycles clears the captured-environment link of every function
// reachable from e, releasing the environment each one held.
func (e *Environment) BreakCycles() int {
	c := &cycleBreaker{
		envs:   make(map[*Environment]bool),
		values: make(map[Object]bool),
	}
	c.walkEnv(e)
	slog.Debug("cycles broken", slog.Uint64("env", e.ID), slog.Int("functions", c.cleared))
	return c.cleared
}

type cycleBreaker struct {
	envs    map[*Environment]bool
	values  map[Object]bool
	cleared int
}

func (c *cycleBreaker) walkEnv(env *Environment) {
	for ; env != nil; env = env.parent {
		if c.envs[env] {
			return
		}
		c.envs[env] = true

		env.mu.RLock()
		values := make([]Object, len(env.slots))
		for i, s := range env.slots {
			values[i] = s.value
		}
		env.mu.RUnlock()

		for _, v := range values {
			c.walkValue(v)
		}
	}
}

func (c *cycleBreaker) walkValue(v Object) {
	if !IsHeap(v) || c.values[v] {
		return
	}
	c.values[v] = true

	switch v := v.(type) {
	case *Function:
		captured := v.Env
		if captured == nil {
			return
		}
		c.walkEnv(captured)
		v.Env = nil
		c.cleared++
		captured.Release()
	case *Array, *Record:
		for _, e := range v.(heapObject).children() {
			c.walkValue(e)
		}
	}
}
