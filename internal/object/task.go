package object

import (
	"errors"
	"fmt"
	"hemlock/internal/util/future"
	"sync"
)

type TaskState int

const (
	TaskReady TaskState = iota
	TaskRunning
	TaskBlocked
	TaskCompleted
)

func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "READY"
	case TaskRunning:
		return "RUNNING"
	case TaskBlocked:
		return "BLOCKED"
	case TaskCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

var (
	ErrTaskJoined   = errors.New("task handle already joined")
	ErrTaskDetached = errors.New("cannot join detached task")
)

// Exception carries a thrown language value across a Go error boundary.
type Exception struct {
	Value Object
}

func (e *Exception) Error() string { return ToString(e.Value) }

// Task is one spawned invocation of an async function.
type Task struct {
	header
	ID   int64
	Fn   *Function
	Args []Object

	mu       sync.Mutex
	state    TaskState
	joined   bool
	detached bool
	result   *future.Future[Object]
}

// NewTask retains fn and args for the lifetime of the task.
func NewTask(id int64, fn *Function, args []Object) *Task {
	t := &Task{ID: id, Fn: fn, Args: make([]Object, len(args))}
	Retain(fn)
	for i, a := range args {
		t.Args[i] = Retain(a)
	}
	t.init()
	return t
}

func (t *Task) Type() ObjectType { return TASK_OBJ }
func (t *Task) Inspect() string {
	return fmt.Sprintf("<task id=%d state=%s>", t.ID, t.State())
}
func (t *Task) value() {}
func (t *Task) children() []Object {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Object, 0, len(t.Args)+2)
	out = append(out, t.Fn)
	out = append(out, t.Args...)
	if t.result != nil {
		select {
		case <-t.result.Done():
			v, err := t.result.Await()
			var exc *Exception
			switch {
			case err == nil && v != nil:
				out = append(out, v)
			case errors.As(err, &exc) && exc.Value != nil:
				out = append(out, exc.Value)
			}
		default:
		}
	}
	return out
}

// Start runs body on its own goroutine. The body's result is owned by the task;
// an *Exception error records a thrown value.
func (t *Task) Start(body func() (Object, error)) {
	t.mu.Lock()
	t.result = future.New(func() (Object, error) {
		t.setState(TaskRunning)
		v, err := body()
		t.setState(TaskCompleted)
		return v, err
	})
	t.mu.Unlock()
}

func (t *Task) setState(s TaskState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Block marks a running task as waiting on a join, a channel or a sleep.
func (t *Task) Block() {
	t.mu.Lock()
	if t.state == TaskRunning {
		t.state = TaskBlocked
	}
	t.mu.Unlock()
}

// Unblock returns a blocked task to running.
func (t *Task) Unblock() {
	t.mu.Lock()
	if t.state == TaskBlocked {
		t.state = TaskRunning
	}
	t.mu.Unlock()
}

func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Join waits for completion exactly once. A thrown value comes back as *Exception.
// The returned result is retained for the caller.
func (t *Task) Join() (Object, error) {
	t.mu.Lock()
	if t.joined {
		t.mu.Unlock()
		return nil, ErrTaskJoined
	}
	if t.detached {
		t.mu.Unlock()
		return nil, ErrTaskDetached
	}
	t.joined = true
	result := t.result
	t.mu.Unlock()

	v, err := result.Await()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return NULL, nil
	}
	return Retain(v), nil
}

// Detach marks the task fire-and-forget. It reports false if already joined.
func (t *Task) Detach() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.joined {
		return false
	}
	t.detached = true
	return true
}

// DebugInfo is a snapshot used by task_debug_info.
type DebugInfo struct {
	ID        int64
	State     TaskState
	Joined    bool
	Detached  bool
	RefCount  int32
	HasResult bool
	Exception bool
}

func (t *Task) DebugInfo() DebugInfo {
	t.mu.Lock()
	info := DebugInfo{
		ID:       t.ID,
		State:    t.state,
		Joined:   t.joined,
		Detached: t.detached,
		RefCount: t.refs.Load(),
	}
	result := t.result
	t.mu.Unlock()

	if result != nil {
		select {
		case <-result.Done():
			_, err := result.Await()
			info.HasResult = true
			info.Exception = err != nil
		default:
		}
	}
	return info
}

// Done is closed once the task body has returned.
func (t *Task) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result.Done()
}
