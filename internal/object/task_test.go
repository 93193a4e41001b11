package object

import (
	"errors"
	"testing"
	"time"
)

func newTestTask(args ...Object) *Task {
	fn := &Function{Name: "work", IsAsync: true}
	fn.init()
	t := NewTask(1, fn, args)
	Release(fn)
	return t
}

func TestTaskJoinOnce(t *testing.T) {
	task := newTestTask()
	task.Start(func() (Object, error) {
		return I32(42), nil
	})

	v, err := task.Join()
	if err != nil || v != I32(42) {
		t.Fatalf("expected 42, got %v (%v)", v, err)
	}
	if task.State() != TaskCompleted {
		t.Fatalf("expected completed, got %s", task.State())
	}
	if _, err := task.Join(); !errors.Is(err, ErrTaskJoined) {
		t.Fatalf("second join should fail, got %v", err)
	}
}

func TestTaskJoinDetached(t *testing.T) {
	task := newTestTask()
	task.Start(func() (Object, error) { return NULL, nil })
	if !task.Detach() {
		t.Fatalf("detach of an unjoined task should succeed")
	}
	if _, err := task.Join(); !errors.Is(err, ErrTaskDetached) {
		t.Fatalf("joining a detached task should fail, got %v", err)
	}
}

func TestTaskExceptionReachesJoiner(t *testing.T) {
	task := newTestTask()
	task.Start(func() (Object, error) {
		return nil, &Exception{Value: NewString("boom")}
	})

	_, err := task.Join()
	var exc *Exception
	if !errors.As(err, &exc) {
		t.Fatalf("expected exception, got %v", err)
	}
	if ToString(exc.Value) != "boom" {
		t.Fatalf("expected boom, got %s", ToString(exc.Value))
	}
}

func TestTaskRetainsArguments(t *testing.T) {
	arg := NewString("arg")
	task := newTestTask(arg)
	if RefCount(arg) != 2 {
		t.Fatalf("task should retain its arguments, count %d", RefCount(arg))
	}
	task.Start(func() (Object, error) { return NewString("result"), nil })
	<-task.Done()

	Release(task)
	if RefCount(arg) != 1 {
		t.Fatalf("task destruction should release its arguments, count %d", RefCount(arg))
	}
}

func TestTaskDebugInfo(t *testing.T) {
	task := newTestTask()
	release := make(chan struct{})
	task.Start(func() (Object, error) {
		<-release
		return I32(1), nil
	})

	time.Sleep(10 * time.Millisecond)
	info := task.DebugInfo()
	if info.HasResult || info.Joined || info.State != TaskRunning {
		t.Fatalf("unexpected info while running: %+v", info)
	}

	close(release)
	<-task.Done()
	info = task.DebugInfo()
	if !info.HasResult || info.Exception || info.State != TaskCompleted || info.RefCount != 1 {
		t.Fatalf("unexpected info after completion: %+v", info)
	}
	if task.Inspect() != "<task id=1 state=COMPLETED>" {
		t.Fatalf("unexpected inspect %q", task.Inspect())
	}
}
