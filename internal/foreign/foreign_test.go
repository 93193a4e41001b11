package foreign_test

import (
	"bytes"
	"fmt"
	"hemlock/internal/runtime"
	"hemlock/internal/util"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newRuntime(t *testing.T) (*runtime.Runtime, *bytes.Buffer) {
	t.Helper()
	r := runtime.NewRuntime(util.Configuration{})
	var stdout, stderr bytes.Buffer
	r.SetOutput(&stdout, &stderr)
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return r, &stdout
}

func runOK(t *testing.T, source string) string {
	t.Helper()
	r, stdout := newRuntime(t)
	if err := r.Run(source, ""); err != nil {
		t.Fatalf("unexpected error: %v\noutput so far:\n%s", err, stdout.String())
	}
	return stdout.String()
}

func lines(s ...string) string {
	return strings.Join(s, "\n") + "\n"
}

type testCase struct {
	name     string
	input    string
	expected string
}

func runCases(t *testing.T, testCases []testCase) {
	t.Helper()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := runOK(t, tc.input)
			if out != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, out)
			}
		})
	}
}

func TestStringMethods(t *testing.T) {
	runCases(t, []testCase{
		{name: "substr", input: `print("hello world".substr(6, 5));`, expected: lines("world")},
		{name: "substr clamps length", input: `print("hello".substr(3, 10));`, expected: lines("lo")},
		{name: "substr huge length", input: `print("abc".substr(1, 9223372036854775807));`, expected: lines("bc")},
		{name: "slice by codepoint", input: `print("héllo".slice(1, 3));`, expected: lines("él")},
		{name: "find", input: `print("abcabc".find("c")); print("abc".find("z"));`, expected: lines("2", "-1")},
		{name: "contains", input: `print("haystack".contains("st")); print("a".contains(""));`, expected: lines("true", "true")},
		{name: "split", input: `let p = "a,b,,c".split(","); print(p.length); print(p[3]);`, expected: lines("4", "c")},
		{name: "split empty delimiter", input: `print("héy".split("").length);`, expected: lines("3")},
		{name: "trim", input: "print(\"[\" + \"  hi \\n\".trim() + \"]\");", expected: lines("[hi]")},
		{name: "case mapping", input: `print("héllo".to_upper()); print("ABC".to_lower());`, expected: lines("HÉLLO", "abc")},
		{name: "prefix suffix", input: `print("prefix".starts_with("pre")); print("prefix".ends_with("fix")); print("x".ends_with("xx"));`, expected: lines("true", "true", "false")},
		{name: "replace first", input: `print("aaa".replace("a", "b"));`, expected: lines("baa")},
		{name: "replace all", input: `print("aaa".replace_all("a", "bc"));`, expected: lines("bcbcbc")},
		{name: "repeat", input: `print("ab".repeat(3)); print("x".repeat(0).length);`, expected: lines("ababab", "0")},
		{name: "repeat too long", input: `try { "ab".repeat(9223372036854775807); } catch (e) { print(e); } print("".repeat(9223372036854775807).length);`, expected: lines("repeat() result exceeds maximum length of 1073741824 bytes", "0")},
		{name: "char at", input: `print("abc".char_at(1)); print(typeof("héllo".char_at(1)));`, expected: lines("'b'", "rune")},
		{name: "byte at", input: `print("abc".byte_at(0)); print(typeof("abc".byte_at(0)));`, expected: lines("97", "u8")},
		{name: "chars and bytes", input: `print("héllo".chars().length); print("héllo".bytes().length);`, expected: lines("5", "6")},
		{name: "to bytes", input: `let b = "abc".to_bytes(); print(typeof(b)); print(b.length); print(b[0]);`, expected: lines("buffer", "3", "97")},
		{name: "deserialize method", input: `print("[1, 2]".deserialize().length);`, expected: lines("2")},
		{name: "arity error", input: `try { "abc".substr(1); } catch (e) { print(e); }`, expected: lines("substr() expects 2 arguments (start, length)")},
		{name: "type error", input: `try { "abc".find(1); } catch (e) { print(e); }`, expected: lines("find() argument must be a string")},
		{name: "bounds error", input: `try { "abc".char_at(5); } catch (e) { print(e); }`, expected: lines("char_at() index 5 out of bounds (length=3)")},
		{name: "unknown method", input: `try { "abc".nope(); } catch (e) { print(e); }`, expected: lines("Unknown method 'nope' on string")},
	})
}

func TestArrayMethods(t *testing.T) {
	runCases(t, []testCase{
		{name: "push pop", input: `let a = [1, 2]; a.push(3); print(a.pop()); print(a.length);`, expected: lines("3", "2")},
		{name: "pop empty", input: `print([].pop());`, expected: lines("null")},
		{name: "shift unshift", input: `let a = [1, 2]; a.unshift(0); print(a.shift()); print(a);`, expected: lines("0", "[1, 2]")},
		{name: "insert remove", input: `let a = [1, 3]; a.insert(1, 2); print(a); print(a.remove(0)); print(a);`, expected: lines("[1, 2, 3]", "1", "[2, 3]")},
		{name: "find contains", input: `let a = [1, "x", 3]; print(a.find("x")); print(a.find(9)); print(a.contains(3));`, expected: lines("1", "-1", "true")},
		{name: "slice", input: `print([1, 2, 3, 4].slice(1, 3));`, expected: lines("[2, 3]")},
		{name: "join", input: `print([1, "a", true, null].join("-"));`, expected: lines("1-a-true-null")},
		{name: "concat", input: `let a = [1]; let b = a.concat([2, 3]); print(b); print(a.length);`, expected: lines("[1, 2, 3]", "1")},
		{name: "reverse", input: `let a = [1, 2, 3]; a.reverse(); print(a);`, expected: lines("[3, 2, 1]")},
		{name: "first last", input: `let a = [4, 5]; print(a.first()); print(a.last()); print([].first());`, expected: lines("4", "5", "null")},
		{name: "clear", input: `let a = [1, 2]; a.clear(); print(a.length);`, expected: lines("0")},
		{name: "map", input: `print([1, 2, 3].map(fn(x) { return x * 2; }));`, expected: lines("[2, 4, 6]")},
		{name: "filter", input: `print([1, 2, 3, 4].filter(fn(x) { return x % 2 == 0; }));`, expected: lines("[2, 4]")},
		{name: "reduce with initial", input: `print([1, 2, 3].reduce(fn(acc, x) { return acc + x; }, 10));`, expected: lines("16")},
		{name: "reduce without initial", input: `print([1, 2, 3].reduce(fn(acc, x) { return acc * x; }));`, expected: lines("6")},
		{name: "callback throw propagates", input: `try { [1].map(fn(x) { throw "bad"; }); } catch (e) { print(e); }`, expected: lines("bad")},
		{name: "typed push converts", input: `let a: array<u8> = []; a.push(5); print(typeof(a[0]));`, expected: lines("u8")},
		{name: "typed push range checked", input: `let a: array<u8> = [1]; try { a.push(300); } catch (e) { print(e); } print(a.length);`, expected: lines("Value 300 out of range for u8 [0, 255]", "1")},
		{name: "remove out of bounds", input: `try { [1].remove(4); } catch (e) { print(e); }`, expected: lines("remove() index out of bounds")},
	})
}

func TestBufferAndRecordMethods(t *testing.T) {
	runCases(t, []testCase{
		{name: "buffer slice", input: `let b = "hello".to_bytes(); let s = b.slice(1, 3); print(s.length); print(s.to_string());`, expected: lines("2", "el")},
		{name: "buffer to string", input: `let b = buffer(2); b[0] = 104; b[1] = 105; print(b.to_string());`, expected: lines("hi")},
		{name: "record keys in order", input: `let o = { b: 1, a: "x" }; print(o.keys());`, expected: lines("[b, a]")},
		{name: "record serialize", input: `let o = { b: 1, a: "x" }; print(o.serialize());`, expected: lines(`{"b":1,"a":"x"}`)},
		{name: "field function wins", input: `let o = { keys: fn() { return "mine"; } }; print(o.keys());`, expected: lines("mine")},
	})
}

func TestSerialization(t *testing.T) {
	runCases(t, []testCase{
		{name: "scalars", input: `print(serialize([1, 2.5, true, null, "q\""]));`, expected: lines(`[1,2.5,true,null,"q\""]`)},
		{name: "nested", input: `print(serialize({ a: [1, { b: "c" }] }));`, expected: lines(`{"a":[1,{"b":"c"}]}`)},
		{name: "shared child is not a cycle", input: `let c = [1]; print(serialize([c, c]));`, expected: lines("[[1],[1]]")},
		{name: "cycle", input: `let o = { }; o.me = o; try { serialize(o); } catch (e) { print(e); }`, expected: lines("serialize() detected circular reference")},
		{name: "unserializable", input: `try { serialize(fn() {}); } catch (e) { print(e); }`, expected: lines("Cannot serialize value of this type")},
		{name: "deserialize", input: `let v = deserialize("{\"a\": [1, 2.5, \"s\"], \"b\": null}"); print(v.a[0] + 1); print(typeof(v.a[1])); print(v.b);`, expected: lines("2", "f64", "null")},
		{name: "large integer", input: `print(typeof(deserialize("5000000000")));`, expected: lines("i64")},
		{name: "trailing input", input: `try { deserialize("1 2"); } catch (e) { print(e); }`, expected: lines("Unexpected trailing characters in JSON")},
		{name: "round trip", input: `
let s = serialize({ name: "hem", tags: ["a", "b"], n: 3 });
let back = deserialize(s);
print(back.name);
print(back.tags.length);
print(serialize(back) == s);`, expected: lines("hem", "2", "true")},
	})
}

func TestFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	out := runOK(t, fmt.Sprintf(`
let path = %q;
let f = open(path, "w");
print(f.write("hello world"));
f.close();
print(f.closed);
let r = open(path);
print(r.read(5));
print(r.tell());
r.seek(6);
print(r.read());
print(r.read_bytes(10).length);
try { r.write("x"); } catch (e) { print(e.starts_with("Cannot write to file")); }
r.close();
try { r.read(); } catch (e) { print(e.starts_with("Cannot read from closed file")); }
let a = open(path, "a");
a.write_bytes("!".to_bytes());
a.close();
print(open(path).read());`, path))

	expected := lines("11", "true", "hello", "5", "world", "0", "true", "true", "hello world!")
	if out != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello world!" {
		t.Errorf("file contents %q", data)
	}
}

func TestOpenErrors(t *testing.T) {
	runCases(t, []testCase{
		{name: "missing file", input: `try { open("/nonexistent/x.txt"); } catch (e) { print(e.contains("no such file")); }`, expected: lines("true")},
		{name: "bad mode", input: `try { open("x", "q"); } catch (e) { print(e.contains("invalid file mode")); }`, expected: lines("true")},
		{name: "arity", input: `try { open(); } catch (e) { print(e); }`, expected: lines("open() expects 1-2 arguments (path, [mode])")},
	})
}

func TestFilesystem(t *testing.T) {
	dir := t.TempDir()
	out := runOK(t, fmt.Sprintf(`
let d = %q;
__write_file(d + "/a.txt", "one");
__append_file(d + "/a.txt", "two");
print(__read_file(d + "/a.txt"));
print(__exists(d + "/a.txt"));
__make_dir(d + "/sub/deep");
print(__is_dir(d + "/sub"));
print(__is_file(d + "/sub"));
__rename(d + "/a.txt", d + "/b.txt");
print(__list_dir(d));
__remove_file(d + "/b.txt");
print(__exists(d + "/b.txt"));
__remove_dir(d + "/sub/deep");
print(__exists(d + "/sub/deep"));
print(__absolute_path(d + "/sub") == d + "/sub" || __absolute_path(d + "/sub").ends_with("/sub"));
try { __read_file(d + "/missing"); } catch (e) { print(e.contains("no such file or directory")); }`, dir))

	expected := lines("onetwo", "true", "true", "false", "[b.txt, sub]", "false", "false", "true", "true")
	if out != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}
}

func TestMathBuiltins(t *testing.T) {
	runCases(t, []testCase{
		{name: "sqrt", input: `print(__sqrt(16)); print(typeof(__sqrt(16)));`, expected: lines("4", "f64")},
		{name: "rounding", input: `print(__floor(2.7)); print(__ceil(2.1)); print(__round(2.5)); print(__trunc(-2.7));`, expected: lines("2", "3", "3", "-2")},
		{name: "binary", input: `print(__pow(2, 10)); print(__min(2, 3)); print(__max(2, 3));`, expected: lines("1024", "2", "3")},
		{name: "clamp", input: `print(__clamp(15, 0, 10)); print(__clamp(-1, 0, 10)); print(__clamp(5, 0, 10));`, expected: lines("10", "0", "5")},
		{name: "abs", input: `print(__abs(-3));`, expected: lines("3")},
		{name: "constants", input: `print(__cos(0)); print(__sin(0));`, expected: lines("1", "0")},
		{name: "seeded rand repeats", input: `__seed(42); let a = __rand(); __seed(42); print(a == __rand());`, expected: lines("true")},
		{name: "rand range", input: `let r = __rand_range(5, 6); print(r >= 5 && r < 6);`, expected: lines("true")},
		{name: "numeric check", input: `try { __sqrt("x"); } catch (e) { print(e); }`, expected: lines("sqrt() arguments must be numeric")},
	})
}

func TestTimeAndEnvBuiltins(t *testing.T) {
	runCases(t, []testCase{
		{name: "now", input: `print(typeof(__now())); print(__now() > 1600000000);`, expected: lines("i64", "true")},
		{name: "sleep", input: `let t = __time_ms(); __sleep(0.02); print(__time_ms() - t >= 20);`, expected: lines("true")},
		{name: "clock", input: `print(typeof(__clock()));`, expected: lines("f64")},
		{name: "negative sleep", input: `try { __sleep(-1); } catch (e) { print(e); }`, expected: lines("sleep() argument must be non-negative")},
		{name: "env round trip", input: `
__setenv("HEMLOCK_TEST_VAR", "v1");
print(__getenv("HEMLOCK_TEST_VAR"));
__unsetenv("HEMLOCK_TEST_VAR");
print(__getenv("HEMLOCK_TEST_VAR"));`, expected: lines("v1", "null")},
		{name: "pid", input: `print(__get_pid() > 0);`, expected: lines("true")},
	})
}

func TestExit(t *testing.T) {
	r, _ := newRuntime(t)
	code := -1
	r.Library.Exit = func(c int) { code = c }
	if err := r.Run(`__exit(3);`, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code %d, want 3", code)
	}
}

func TestExec(t *testing.T) {
	runCases(t, []testCase{
		{name: "output and status", input: `let r = exec("echo hi; exit 3"); print(r.output.trim()); print(r.exit_code);`, expected: lines("hi", "3")},
		{name: "success", input: `print(exec("true").exit_code);`, expected: lines("0")},
	})
}

func TestReadLine(t *testing.T) {
	r, stdout := newRuntime(t)
	r.SetInput(strings.NewReader("first\r\nsecond"))
	if err := r.Run(`print(read_line()); print(read_line()); print(read_line());`, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := lines("first", "second", "null")
	if stdout.String() != expected {
		t.Errorf("expected %q, got %q", expected, stdout.String())
	}
}

func TestSqliteRoundTrip(t *testing.T) {
	out := runOK(t, `
let db = __db_connect("sqlite3", ":memory:");
__db_exec(db, "CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, score REAL, data BLOB)");
let r = __db_exec(db, "INSERT INTO people (name, score, data) VALUES (?, ?, ?)", "ada", 9.5, "xy".to_bytes());
print(r.rows_affected);
print(r.last_insert_id);
__db_exec(db, "INSERT INTO people (name, score) VALUES (?, ?)", "bob", null);

let rows = __db_query(db, "SELECT id, name, score, data FROM people ORDER BY id");
print(rows.length);
print(rows[0].name);
print(typeof(rows[0].id));
print(rows[0].score);
print(typeof(rows[0].data));
print(rows[1].score);

let tx = __db_begin(db);
__db_exec(tx, "DELETE FROM people");
__db_rollback(tx);
print(__db_query(db, "SELECT COUNT(*) AS n FROM people")[0].n);

let tx2 = __db_begin(db);
__db_exec(tx2, "DELETE FROM people WHERE name = ?", "bob");
__db_commit(tx2);
print(__db_query(db, "SELECT name FROM people").length);

try { __db_commit(tx2); } catch (e) { print(e); }
__db_close(db);
try { __db_query(db, "SELECT 1"); } catch (e) { print(e); }`)

	expected := lines("1", "1", "2", "ada", "i64", "9.5", "buffer", "null", "2", "1",
		"invalid transaction handle", "invalid connection handle")
	if out != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}
}

func TestDbErrors(t *testing.T) {
	runCases(t, []testCase{
		{name: "unknown driver", input: `try { __db_connect("nope", "x"); } catch (e) { print(e.starts_with("failed to open connection")); }`, expected: lines("true")},
		{name: "bad sql", input: `let db = __db_connect("sqlite3", ":memory:"); try { __db_exec(db, "NOT SQL"); } catch (e) { print(e.starts_with("exec failed")); }`, expected: lines("true")},
		{name: "bad param", input: `let db = __db_connect("sqlite3", ":memory:"); try { __db_query(db, "SELECT ?", [1]); } catch (e) { print(e); }`, expected: lines("cannot bind array as a query parameter")},
	})
}

func TestTcpEcho(t *testing.T) {
	out := runOK(t, `
let srv = __tcp_listen("127.0.0.1", 0);
print(srv.address.starts_with("127.0.0.1:"));

async fn serve(listener) {
    let conn = listener.accept();
    let data = conn.recv(64);
    conn.send(data);
    conn.close();
    return data.length;
}

let t = spawn(serve, srv);
let c = __tcp_connect(srv.address);
print(c.send("ping"));
print(c.recv(64).to_string());
print(c.recv(64).length);
c.close();
print(c.closed);
print(join(t));
srv.close();
try { srv.accept(); } catch (e) { print(e); }`)

	expected := lines("true", "4", "ping", "0", "true", "4", "Cannot accept on closed socket")
	if out != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}
}

func TestTcpErrors(t *testing.T) {
	runCases(t, []testCase{
		{name: "arity", input: `try { __tcp_connect(); } catch (e) { print(e); }`, expected: lines("tcp_connect() expects 1-2 arguments (address) or (host, port)")},
		{name: "refused", input: `
let srv = __tcp_listen("127.0.0.1:0");
let addr = srv.address;
srv.close();
try { __tcp_connect(addr); } catch (e) { print(e.starts_with("Failed to connect")); }`, expected: lines("true")},
		{name: "send on listener", input: `let s = __tcp_listen("127.0.0.1:0"); try { s.send("x"); } catch (e) { print(e); } s.close();`, expected: lines("send() requires a connected socket")},
	})
}
