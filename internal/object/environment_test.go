package object

import (
	"errors"
	"sync"
	"testing"
)

func TestEnvironmentDefineAndGet(t *testing.T) {
	env := NewEnvironment(nil)
	defer env.Release()

	if err := env.Define("x", I32(1), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := env.Define("x", I32(2), false)
	if !errors.Is(err, ErrDuplicateDefinition) {
		t.Fatalf("expected duplicate definition, got %v", err)
	}
	if err.Error() != "Variable 'x' already defined in this scope" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	v, err := env.Get("x")
	if err != nil || v != I32(1) {
		t.Fatalf("expected 1, got %v (%v)", v, err)
	}

	_, err = env.Get("missing")
	if !errors.Is(err, ErrUndefinedVariable) || err.Error() != "Undefined variable 'missing'" {
		t.Fatalf("expected undefined variable, got %v", err)
	}
}

func TestEnvironmentShadowing(t *testing.T) {
	parent := NewEnvironment(nil)
	_ = parent.Define("x", I32(1), false)
	child := NewEnvironment(parent)

	if err := child.Define("x", I32(2), false); err != nil {
		t.Fatalf("shadowing a parent binding should succeed: %v", err)
	}
	pv, _ := parent.Get("x")
	cv, _ := child.Get("x")
	if pv != I32(1) || cv != I32(2) {
		t.Fatalf("expected parent 1 and child 2, got %v and %v", pv, cv)
	}

	child.Release()
	parent.Release()
}

func TestEnvironmentSet(t *testing.T) {
	type testCase struct {
		name    string
		setName string
		wantErr error
		// where the binding should be visible afterward
		inRoot, inMiddle, inLeaf bool
	}

	testCases := []testCase{
		{name: "assigns nearest binding", setName: "a", inRoot: true},
		{name: "const fails", setName: "k", wantErr: ErrConstAssignment, inRoot: true},
		{name: "undeclared creates innermost", setName: "fresh", inLeaf: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := NewEnvironment(nil)
			_ = root.Define("a", I32(1), false)
			_ = root.Define("k", I32(1), true)
			middle := NewEnvironment(root)
			leaf := NewEnvironment(middle)

			err := leaf.Set(tc.setName, I32(9))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if root.HasLocal(tc.setName) != tc.inRoot {
				t.Errorf("root binding presence: expected %t", tc.inRoot)
			}
			if middle.HasLocal(tc.setName) != tc.inMiddle {
				t.Errorf("middle binding presence: expected %t", tc.inMiddle)
			}
			if leaf.HasLocal(tc.setName) != tc.inLeaf {
				t.Errorf("leaf binding presence: expected %t", tc.inLeaf)
			}

			leaf.Release()
			middle.Release()
			root.Release()
		})
	}
}

func TestEnvironmentSetReleasesOldValue(t *testing.T) {
	env := NewEnvironment(nil)
	old := NewString("old")
	_ = env.Define("s", old, false)
	Release(old)

	fresh := NewString("new")
	_ = env.Set("s", fresh)
	Release(fresh)

	if !IsFreed(old) {
		t.Fatalf("replaced value should be released")
	}
	if RefCount(fresh) != 1 {
		t.Fatalf("stored value should be owned by the slot, count %d", RefCount(fresh))
	}
	env.Release()
	if !IsFreed(fresh) {
		t.Fatalf("slot values should be released with the environment")
	}
}

func TestEnvironmentParentLifetime(t *testing.T) {
	parent := NewEnvironment(nil)
	child := NewEnvironment(parent)
	if parent.RefCount() != 2 {
		t.Fatalf("child should retain its parent, count %d", parent.RefCount())
	}
	child.Release()
	if parent.RefCount() != 1 {
		t.Fatalf("child release should release its parent, count %d", parent.RefCount())
	}
	parent.Release()
}

func TestBreakCycles(t *testing.T) {
	global := NewEnvironment(nil)
	inner := NewEnvironment(global)

	// a closure stored in the scope it captured
	self := &Function{Name: "self", Env: global.Retain()}
	self.init()
	_ = global.Define("self", self, false)
	Release(self)

	// a closure over a nested scope, reachable through a record
	nested := &Function{Name: "nested", Env: inner}
	nested.init()
	holder := NewRecord()
	holder.Set("fn", nested)
	Release(nested)
	_ = global.Define("holder", holder, false)
	Release(holder)

	if cleared := global.BreakCycles(); cleared != 2 {
		t.Fatalf("expected 2 functions cleared, got %d", cleared)
	}
	if self.Env != nil || nested.Env != nil {
		t.Fatalf("captured environments should be cleared")
	}
	if global.RefCount() != 1 {
		t.Fatalf("only the owner reference should remain, count %d", global.RefCount())
	}

	global.Release()
	if !IsFreed(self) || !IsFreed(holder) || !IsFreed(nested) {
		t.Fatalf("values should be freed once the cycle is broken")
	}
}

func TestEnvironmentConcurrentAccess(t *testing.T) {
	env := NewEnvironment(nil)
	_ = env.Define("counter", I32(0), false)
	shared := NewString("shared")
	_ = env.Define("s", shared, false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v, err := env.Get("s")
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				Release(v)
				_ = env.Set("counter", I32(i))
			}
		}(i)
	}
	wg.Wait()

	if RefCount(shared) != 2 {
		t.Fatalf("balanced retain/release should leave count 2, got %d", RefCount(shared))
	}
	env.Release()
}
