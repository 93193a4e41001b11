package runtime

import (
	"errors"
	"strings"
	"testing"
)

func TestTasks(t *testing.T) {
	type testCase struct {
		name     string
		input    string
		expected string
	}

	testCases := []testCase{
		{name: "spawn and join", input: `
async fn work(n) { return n * 2; }
let t = spawn(work, 21);
print(join(t));`, expected: lines("42")},
		{name: "await joins", input: `
async fn work() { return "done"; }
print(await spawn(work));`, expected: lines("done")},
		{name: "await passthrough", input: `print(await 5);`, expected: lines("5")},
		{name: "exception crosses join", input: `
async fn bad() { throw "boom"; }
let t = spawn(bad);
try { join(t); } catch (e) { print("caught " + e); }`, expected: lines("caught boom")},
		{name: "join twice", input: `
async fn work() { return 1; }
let t = spawn(work);
join(t);
try { join(t); } catch (e) { print(e); }`, expected: lines("task handle already joined")},
		{name: "join detached", input: `
async fn work() { return 1; }
let t = spawn(work);
detach(t);
try { join(t); } catch (e) { print(e); }`, expected: lines("cannot join detached task")},
		{name: "detach function", input: `
let ch = channel(1);
async fn notify(c) { c.send("hello"); }
print(detach(notify, ch));
print(ch.recv());`, expected: lines("null", "hello")},
		{name: "many tasks", input: `
async fn square(n) { return n * n; }
let tasks = [];
for (let i = 1; i <= 10; i++) { tasks.push(spawn(square, i)); }
let sum = 0;
for (let t in tasks) { sum += join(t); }
print(sum);`, expected: lines("385")},
		{name: "task sees closure", input: `
let base = 100;
async fn add(n) { return base + n; }
print(join(spawn(add, 1)));`, expected: lines("101")},
		{name: "tasks share a record and array", input: `
let o = {};
let seen = [];
async fn fill(tag) {
    for (let i = 0; i < 300; i++) { o[tag + i] = i; seen.push(i); }
    return 0;
}
let a = spawn(fill, "a");
let b = spawn(fill, "b");
join(a);
join(b);
let n = 0;
for (let v in o) { n++; }
print(n);
print(seen.length);`, expected: lines("600", "600")},
		{name: "task properties", input: `
async fn work() { return 1; }
let t = spawn(work);
join(t);
print(t.state);
print(typeof(t));`, expected: lines("COMPLETED", "task")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := runOK(t, tc.input)
			if out != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, out)
			}
		})
	}
}

func TestTaskDebugInfo(t *testing.T) {
	out := runOK(t, `
async fn boom() { throw "x"; }
let t = spawn(boom);
try { join(t); } catch (e) {}
task_debug_info(t);`)

	for _, want := range []string{
		"=== Task Debug Info ===",
		"Task ID: 1\n",
		"State: COMPLETED\n",
		"Joined: true\n",
		"Detached: false\n",
		"Ref Count: ",
		"Has Result: true\n",
		"Exception: true\n",
		"======================\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestTaskFatal(t *testing.T) {
	r, stdout, _ := newTestRuntime()
	var reported *FatalError
	r.OnFatal = func(fe *FatalError) { reported = fe }

	err := r.Run(`
async fn bad() { panic("in task"); }
let t = spawn(bad);
try { join(t); } catch (e) { print("joined: " + e); }`, "")

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected *FatalError, got %T (%v)", err, err)
	}
	if fatal.Message != "panic: in task" {
		t.Errorf("message %q", fatal.Message)
	}
	if reported == nil || reported.Message != "panic: in task" {
		t.Errorf("OnFatal not called with the task error")
	}
	if stdout.String() != "joined: panic: in task\n" {
		t.Errorf("got %q", stdout.String())
	}

	if err := r.Run(`print("again");`, ""); err != nil {
		t.Errorf("fatal error leaked into the next run: %v", err)
	}
}

func TestUnjoinedTaskExceptionIsDropped(t *testing.T) {
	r, stdout, stderr := newTestRuntime()
	err := r.Run(`
async fn bad() { throw "lost"; }
let t = spawn(bad);
while (t.state != "COMPLETED") {}
print("ok");`, "")
	if err != nil {
		t.Fatalf("exception of an unjoined task surfaced: %v", err)
	}
	if stdout.String() != "ok\n" {
		t.Errorf("got %q", stdout.String())
	}
	if strings.Contains(stderr.String(), "lost") {
		t.Errorf("unjoined exception was reported: %q", stderr.String())
	}
}

func TestChannels(t *testing.T) {
	type testCase struct {
		name     string
		input    string
		expected string
	}

	testCases := []testCase{
		{name: "buffered fifo then null after close", input: `
let ch = channel(2);
ch.send(1);
ch.send(2);
ch.close();
print(ch.recv());
print(ch.recv());
print(ch.recv());
print(ch.recv());`, expected: lines("1", "2", "null", "null")},
		{name: "rendezvous with producer", input: `
async fn producer(c) {
	for (let i = 0; i < 4; i++) { c.send(i); }
	c.close();
}
let ch = channel();
let t = spawn(producer, ch);
let sum = 0;
while (true) {
	let v = ch.recv();
	if (v == null) { break; }
	sum += v;
}
join(t);
print(sum);`, expected: lines("6")},
		{name: "buffered producer consumer", input: `
async fn producer(c, n) {
	for (let i = 1; i <= n; i++) { c.send(i); }
	c.close();
}
let ch = channel(3);
let t = spawn(producer, ch, 50);
let sum = 0;
let v = ch.recv();
while (v != null) {
	sum += v;
	v = ch.recv();
}
join(t);
print(sum);`, expected: lines("1275")},
		{name: "recv timeout", input: `let ch = channel(1); print(ch.recv_timeout(10));`, expected: lines("null")},
		{name: "send timeout on full", input: `let ch = channel(1); print(ch.send_timeout(1, 10)); print(ch.send_timeout(2, 10)); print(ch.recv());`, expected: lines("true", "false", "1")},
		{name: "rendezvous send timeout", input: `let ch = channel(0); print(ch.send_timeout("x", 10)); print(ch.length);`, expected: lines("false", "0")},
		{name: "close idempotent", input: `let ch = channel(1); ch.close(); ch.close(); print(ch.closed);`, expected: lines("true")},
		{name: "properties", input: `let ch = channel(4); ch.send("a"); print(ch.capacity); print(ch.length); print(ch);`, expected: lines("4", "1", "<channel capacity=4 count=1>")},
		{name: "channel of records", input: `
let ch = channel(1);
ch.send({ id: 9 });
let got = ch.recv();
print(got.id);`, expected: lines("9")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := runOK(t, tc.input)
			if out != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, out)
			}
		})
	}
}
