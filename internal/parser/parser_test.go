package parser

import (
	"fmt"
	"hemlock/internal/ast"
	"strings"
	"testing"
)

func parseOrFail(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, errs := Parse(input)
	if len(errs) != 0 {
		t.Fatalf("parser has %d errors for %q:\n%s", len(errs), input, strings.Join(errs, "\n"))
	}
	return program
}

func TestOperatorPrecedence(t *testing.T) {
	type testCase struct {
		input    string
		expected string
	}

	testCases := []testCase{
		{"1 + 2 * 3", "(1 + (2 * 3));"},
		{"-a * b", "((-a) * b);"},
		{"!-a", "(!(-a));"},
		{"a = b = c", "(a = (b = c));"},
		{"x += 2 * 3", "(x += (2 * 3));"},
		{"a ?? b || c", "(a ?? (b || c));"},
		{"a || b && c", "(a || (b && c));"},
		{"a | b ^ c & d", "(a | (b ^ (c & d)));"},
		{"a == b < c", "(a == (b < c));"},
		{"a < b << c", "(a < (b << c));"},
		{"a - b % c", "(a - (b % c));"},
		{"(a + b) * c", "((a + b) * c);"},
		{"a.b.c(1)[2]", "(a.b.c(1)[2]);"},
		{"c ? x : y ? z : w", "(c ? x : (y ? z : w));"},
		{"i++ + 1", "((i++) + 1);"},
		{"-x++", "(-(x++));"},
		{"++x * 2", "((++x) * 2);"},
		{"!a?.b", "(!a?.b);"},
		{"await f(1)", "(await f(1));"},
		{"a?.[0]", "(a?.[0]);"},
		{"f?.(1, 2)", "f?.(1, 2);"},
		{"~a & b", "((~a) & b);"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			program := parseOrFail(t, tc.input)
			if got := program.String(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestLetStatements(t *testing.T) {
	program := parseOrFail(t, `let x: i32 = 5; const y = "s"; let z;`)
	if len(program.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(program.Statements))
	}

	x := program.Statements[0].(*ast.LetStatement)
	if x.Name.Value != "x" || x.IsConst || x.Type == nil || x.Type.Name != "i32" {
		t.Errorf("unexpected let statement %s", x.String())
	}
	if num, ok := x.Value.(*ast.NumberLiteral); !ok || num.IsFloat || num.Int != 5 {
		t.Errorf("expected integer literal 5, got %s", x.Value.String())
	}

	y := program.Statements[1].(*ast.LetStatement)
	if !y.IsConst {
		t.Errorf("expected const statement")
	}
	if s, ok := y.Value.(*ast.StringLiteral); !ok || s.Value != "s" {
		t.Errorf("expected string literal, got %T", y.Value)
	}

	z := program.Statements[2].(*ast.LetStatement)
	if z.Value != nil {
		t.Errorf("expected no initializer, got %s", z.Value.String())
	}
}

func TestNumberLiterals(t *testing.T) {
	type testCase struct {
		input   string
		isFloat bool
		i       int64
		f       float64
	}

	testCases := []testCase{
		{input: "42", i: 42},
		{input: "0xff", i: 255},
		{input: "0b101", i: 5},
		{input: "1_000_000", i: 1000000},
		{input: "9223372036854775807", i: 9223372036854775807},
		{input: "0xFFFFFFFFFFFFFFFF", i: -1},
		{input: "3.5", isFloat: true, f: 3.5},
		{input: "2e3", isFloat: true, f: 2000},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			program := parseOrFail(t, tc.input)
			stmt := program.Statements[0].(*ast.ExpressionStatement)
			num, ok := stmt.Expression.(*ast.NumberLiteral)
			if !ok {
				t.Fatalf("expected NumberLiteral, got %T", stmt.Expression)
			}
			if num.IsFloat != tc.isFloat || num.Int != tc.i || num.Float != tc.f {
				t.Errorf("expected (%v, %d, %g), got (%v, %d, %g)", tc.isFloat, tc.i, tc.f, num.IsFloat, num.Int, num.Float)
			}
		})
	}
}

func TestFunctionDeclarations(t *testing.T) {
	program := parseOrFail(t, `
fn add(a, b = 2) { return a + b; }
async fn work(n: i32, label?: "x"): i32 { return n; }
let anon = fn() {};
`)
	if len(program.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(program.Statements))
	}

	add := program.Statements[0].(*ast.LetStatement).Value.(*ast.FunctionLiteral)
	if add.Name != "add" || add.IsAsync || len(add.Parameters) != 2 {
		t.Fatalf("unexpected function %s", add.String())
	}
	if add.Parameters[1].Default == nil || add.MinArity() != 1 {
		t.Errorf("expected one required parameter and one default")
	}

	work := program.Statements[1].(*ast.LetStatement).Value.(*ast.FunctionLiteral)
	if !work.IsAsync || work.ReturnType == nil || work.ReturnType.Name != "i32" {
		t.Errorf("unexpected async function %s", work.String())
	}
	if work.Parameters[0].Type.Name != "i32" || !work.Parameters[1].Optional {
		t.Errorf("unexpected parameters %s", work.String())
	}

	anon := program.Statements[2].(*ast.LetStatement).Value.(*ast.FunctionLiteral)
	if anon.Name != "anon" {
		t.Errorf("expected let-bound function to take the binding name, got %q", anon.Name)
	}
}

func TestLoops(t *testing.T) {
	program := parseOrFail(t, `
for (let i = 0; i < 10; i++) { continue; }
for (let v in items) { break; }
for (let k, v in obj) {}
while (x) { x = x - 1; }
for (;;) { break; }
`)
	if len(program.Statements) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(program.Statements))
	}

	cstyle := program.Statements[0].(*ast.ForStatement)
	if cstyle.Init == nil || cstyle.Condition == nil || cstyle.Update == nil {
		t.Errorf("expected all for clauses, got %s", cstyle.String())
	}

	single := program.Statements[1].(*ast.ForInStatement)
	if single.Key != nil || single.Value.Value != "v" {
		t.Errorf("unexpected for-in %s", single.String())
	}

	pair := program.Statements[2].(*ast.ForInStatement)
	if pair.Key == nil || pair.Key.Value != "k" || pair.Value.Value != "v" {
		t.Errorf("unexpected for-in %s", pair.String())
	}

	if _, ok := program.Statements[3].(*ast.WhileStatement); !ok {
		t.Errorf("expected while statement, got %T", program.Statements[3])
	}

	empty := program.Statements[4].(*ast.ForStatement)
	if empty.Init != nil || empty.Condition != nil || empty.Update != nil {
		t.Errorf("expected empty for clauses, got %s", empty.String())
	}
}

func TestSwitchStatement(t *testing.T) {
	program := parseOrFail(t, `
switch (x) {
	case 1:
		print("one");
	case 2:
		print("two");
		break;
	default:
		print("many");
}`)
	sw := program.Statements[0].(*ast.SwitchStatement)
	if len(sw.Cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(sw.Cases))
	}
	if sw.Cases[2].Value != nil {
		t.Errorf("expected default clause last")
	}
	if len(sw.Cases[1].Body) != 2 {
		t.Errorf("expected 2 statements in second case, got %d", len(sw.Cases[1].Body))
	}
}

func TestDefineAndEnum(t *testing.T) {
	program := parseOrFail(t, `
define Person { name: string, age?: i32, active?: true, tags: array<string> }
enum Color { RED, GREEN = 5, BLUE }
`)
	def := program.Statements[0].(*ast.DefineStatement)
	if def.Name.Value != "Person" || len(def.Fields) != 4 {
		t.Fatalf("unexpected define %s", def.String())
	}
	if def.Fields[0].Optional || def.Fields[0].Type.Name != "string" {
		t.Errorf("unexpected field %s", def.Fields[0].String())
	}
	if !def.Fields[1].Optional || def.Fields[1].Type.Name != "i32" {
		t.Errorf("unexpected field %s", def.Fields[1].String())
	}
	if _, ok := def.Fields[2].Default.(*ast.Boolean); !ok || !def.Fields[2].Optional {
		t.Errorf("unexpected field %s", def.Fields[2].String())
	}
	if def.Fields[3].Type.String() != "array<string>" {
		t.Errorf("expected array<string>, got %s", def.Fields[3].Type.String())
	}

	enum := program.Statements[1].(*ast.EnumStatement)
	if len(enum.Members) != 3 || enum.Members[1].Value == nil || enum.Members[2].Value != nil {
		t.Errorf("unexpected enum %s", enum.String())
	}
}

func TestModuleStatements(t *testing.T) {
	program := parseOrFail(t, `
import { a, b as c } from "./m.hml";
import * as ns from "./lib";
import "libc.so.6";
export fn f() {}
export const K = 1;
export { a, c as d };
export { x } from "./other";
extern fn strlen(s: string): i32;
`)
	if len(program.Statements) != 8 {
		t.Fatalf("expected 8 statements, got %d", len(program.Statements))
	}

	named := program.Statements[0].(*ast.ImportStatement)
	if named.Path != "./m.hml" || len(named.Symbols) != 2 || named.Symbols[1].Alias.Value != "c" {
		t.Errorf("unexpected import %s", named.String())
	}

	ns := program.Statements[1].(*ast.ImportStatement)
	if ns.Namespace == nil || ns.Namespace.Value != "ns" {
		t.Errorf("unexpected namespace import %s", ns.String())
	}

	if ffi := program.Statements[2].(*ast.ImportFFIStatement); ffi.Library != "libc.so.6" {
		t.Errorf("unexpected library %q", ffi.Library)
	}

	if exp := program.Statements[3].(*ast.ExportStatement); exp.Declaration == nil {
		t.Errorf("expected exported declaration")
	}

	list := program.Statements[5].(*ast.ExportStatement)
	if len(list.Symbols) != 2 || list.Path != "" {
		t.Errorf("unexpected export list %s", list.String())
	}

	reexport := program.Statements[6].(*ast.ExportStatement)
	if reexport.Path != "./other" {
		t.Errorf("unexpected re-export %s", reexport.String())
	}

	ext := program.Statements[7].(*ast.ExternStatement)
	if ext.Name.Value != "strlen" || len(ext.Parameters) != 1 || ext.ReturnType.Name != "i32" {
		t.Errorf("unexpected extern %s", ext.String())
	}
}

func TestTryStatement(t *testing.T) {
	program := parseOrFail(t, `try { throw "x"; } catch (e) { print(e); } finally { cleanup(); }`)
	try := program.Statements[0].(*ast.TryStatement)
	if try.CatchParam == nil || try.CatchParam.Value != "e" || try.CatchBlock == nil || try.FinallyBlock == nil {
		t.Errorf("unexpected try %s", try.String())
	}
}

func TestTemplateLiteral(t *testing.T) {
	program := parseOrFail(t, "`hello ${name}, sum ${a + b}!`")
	tl := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.TemplateLiteral)
	if len(tl.Parts) != 5 {
		t.Fatalf("expected 5 parts, got %d", len(tl.Parts))
	}
	if s := tl.Parts[0].(*ast.StringLiteral); s.Value != "hello " {
		t.Errorf("unexpected text part %q", s.Value)
	}
	if id := tl.Parts[1].(*ast.Identifier); id.Value != "name" {
		t.Errorf("unexpected identifier %q", id.Value)
	}
	if sum := tl.Parts[3].String(); sum != "(a + b)" {
		t.Errorf("unexpected expression %q", sum)
	}
	if s := tl.Parts[4].(*ast.StringLiteral); s.Value != "!" {
		t.Errorf("unexpected text part %q", s.Value)
	}
}

func TestObjectAndArrayLiterals(t *testing.T) {
	program := parseOrFail(t, `let o = { name: "x", "quoted": 1, i32: 2, nested: [1, 2,] };`)
	obj := program.Statements[0].(*ast.LetStatement).Value.(*ast.ObjectLiteral)
	expected := []string{"name", "quoted", "i32", "nested"}
	if len(obj.Keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(obj.Keys))
	}
	for i, k := range expected {
		if obj.Keys[i] != k {
			t.Errorf("key %d: expected %q, got %q", i, k, obj.Keys[i])
		}
	}
	if arr := obj.Values[3].(*ast.ArrayLiteral); len(arr.Elements) != 2 {
		t.Errorf("expected trailing comma to be accepted")
	}
}

func TestParserErrors(t *testing.T) {
	type testCase struct {
		name    string
		input   string
		message string
	}

	testCases := []testCase{
		{name: "missing name", input: "let = 5;", message: "expected next token to be IDENT"},
		{name: "try without handlers", input: "try { x(); }", message: "Try statement must have either 'catch' or 'finally' block"},
		{name: "required after optional", input: "fn f(a = 1, b) {}", message: "Required parameters must come before optional parameters"},
		{name: "bad assignment target", input: "1 = 2;", message: "Invalid assignment target"},
		{name: "lexer error", input: `let s = "abc`, message: "Unterminated string"},
		{name: "unclosed block", input: "if (x) { y();", message: "Expect '}' after block"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := Parse(tc.input)
			if len(errs) == 0 {
				t.Fatalf("expected errors for %q", tc.input)
			}
			joined := strings.Join(errs, "\n")
			if !strings.Contains(joined, tc.message) {
				t.Errorf("expected error containing %q, got:\n%s", tc.message, joined)
			}
		})
	}
}

func TestErrorPositions(t *testing.T) {
	_, errs := Parse("let x = 1;\nlet = 2;")
	if len(errs) == 0 {
		t.Fatalf("expected an error")
	}
	if !strings.HasPrefix(errs[0], "[  2: 5]") {
		t.Errorf("expected error at line 2 column 5, got %q", errs[0])
	}
}

func TestRenderASTAsJSON(t *testing.T) {
	program := parseOrFail(t, "let x = 1 + 2;")
	out, err := RenderASTAsJSON(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"type": "Program"`, `"type": "LetStatement"`, `"operator": "+"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected JSON to contain %s", want)
		}
	}
}

func TestTypeKeywordCallee(t *testing.T) {
	type testCase struct {
		input      string
		calleeType string
		argType    string
	}

	testCases := []testCase{
		{input: "buffer(4);", calleeType: "*ast.Identifier", argType: "*ast.NumberLiteral"},
		{input: "sizeof(u8);", calleeType: "*ast.Identifier", argType: "*ast.TypeLiteral"},
		{input: "talloc(buffer, 2);", calleeType: "*ast.Identifier", argType: "*ast.TypeLiteral"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			program := parseOrFail(t, tc.input)
			stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
			if !ok {
				t.Fatalf("expected expression statement, got %T", program.Statements[0])
			}
			call, ok := stmt.Expression.(*ast.CallExpression)
			if !ok {
				t.Fatalf("expected call expression, got %T", stmt.Expression)
			}
			if got := fmt.Sprintf("%T", call.Function); got != tc.calleeType {
				t.Errorf("callee is %s, want %s", got, tc.calleeType)
			}
			if got := fmt.Sprintf("%T", call.Arguments[0]); got != tc.argType {
				t.Errorf("first argument is %s, want %s", got, tc.argType)
			}
		})
	}
}
