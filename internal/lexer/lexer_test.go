package lexer

import (
	"hemlock/internal/token"
	"testing"
)

type expectedToken struct {
	expectedType    token.TokenType
	expectedLiteral string
}

func assertTokens(t *testing.T, input string, tests []expectedToken) {
	t.Helper()
	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q '%q', got=%q: '%q'",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken(t *testing.T) {
	input := `let five = 5;
const pi: f64 = 3.14;
fn add(x, y) { return x + y; }
async fn work() {}
!- / *%~5;
a += 1; b -= 2; c *= 3; d /= 4;
i++; j--;
5 < 10 > 5 <= 10 >= 5;
1 << 2 >> 3;
a && b || c & d | e ^ f;
a == b != c;
x ?? y; x?.y; c ? 1 : 2;
// comment
/* block
   comment */
[1, 2]; {a: 1};
0xff 0b101 1_000 2.5e3
`

	tests := []expectedToken{
		{token.LET, "let"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.SEMICOLON, ";"},
		{token.CONST, "const"},
		{token.IDENT, "pi"},
		{token.COLON, ":"},
		{token.TYPE, "f64"},
		{token.ASSIGN, "="},
		{token.FLOAT, "3.14"},
		{token.SEMICOLON, ";"},
		{token.FUNCTION, "fn"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.ASYNC, "async"},
		{token.FUNCTION, "fn"},
		{token.IDENT, "work"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.BANG, "!"},
		{token.MINUS, "-"},
		{token.SLASH, "/"},
		{token.ASTERISK, "*"},
		{token.PERCENT, "%"},
		{token.COMPLEMENT, "~"},
		{token.INT, "5"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "a"},
		{token.PLUS_ASSIGN, "+="},
		{token.INT, "1"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "b"},
		{token.MINUS_ASSIGN, "-="},
		{token.INT, "2"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "c"},
		{token.ASTERISK_ASSIGN, "*="},
		{token.INT, "3"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "d"},
		{token.SLASH_ASSIGN, "/="},
		{token.INT, "4"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "i"},
		{token.INCREMENT, "++"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "j"},
		{token.DECREMENT, "--"},
		{token.SEMICOLON, ";"},
		{token.INT, "5"},
		{token.LT, "<"},
		{token.INT, "10"},
		{token.GT, ">"},
		{token.INT, "5"},
		{token.LT_EQ, "<="},
		{token.INT, "10"},
		{token.GT_EQ, ">="},
		{token.INT, "5"},
		{token.SEMICOLON, ";"},
		{token.INT, "1"},
		{token.SHIFT_LEFT, "<<"},
		{token.INT, "2"},
		{token.SHIFT_RIGHT, ">>"},
		{token.INT, "3"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "a"},
		{token.LOGICAL_AND, "&&"},
		{token.IDENT, "b"},
		{token.LOGICAL_OR, "||"},
		{token.IDENT, "c"},
		{token.BITWISE_AND, "&"},
		{token.IDENT, "d"},
		{token.BITWISE_OR, "|"},
		{token.IDENT, "e"},
		{token.BITWISE_XOR, "^"},
		{token.IDENT, "f"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "a"},
		{token.EQ, "=="},
		{token.IDENT, "b"},
		{token.NOT_EQ, "!="},
		{token.IDENT, "c"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.NULL_COALESCE, "??"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.OPTIONAL, "?."},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "c"},
		{token.QUESTION, "?"},
		{token.INT, "1"},
		{token.COLON, ":"},
		{token.INT, "2"},
		{token.SEMICOLON, ";"},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.RBRACKET, "]"},
		{token.SEMICOLON, ";"},
		{token.LBRACE, "{"},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.INT, "1"},
		{token.RBRACE, "}"},
		{token.SEMICOLON, ";"},
		{token.INT, "0xff"},
		{token.INT, "0b101"},
		{token.INT, "1000"},
		{token.FLOAT, "2.5e3"},
		{token.EOF, ""},
	}

	assertTokens(t, input, tests)
}

func TestNextStringToken(t *testing.T) {
	input := `"\n\t\\\"" "" "héllo" 'a' '\n' '\u{1F600}' 'é' ` + "`sum: ${a + b}!` `${ {x: 1}.x }`"

	tests := []expectedToken{
		{token.STRING, "\n\t\\\""},
		{token.STRING, ""},
		{token.STRING, "héllo"},
		{token.RUNE, "a"},
		{token.RUNE, "\n"},
		{token.RUNE, "😀"},
		{token.RUNE, "é"},
		{token.TEMPLATE, "sum: ${a + b}!"},
		{token.TEMPLATE, "${ {x: 1}.x }"},
		{token.EOF, ""},
	}

	assertTokens(t, input, tests)
}

func TestIllegalTokens(t *testing.T) {
	type testCase struct {
		name    string
		input   string
		message string
	}

	testCases := []testCase{
		{name: "unterminated string", input: `"abc`, message: "Unterminated string"},
		{name: "unknown escape", input: `"\q"`, message: "Unknown escape sequence in string"},
		{name: "empty rune", input: `''`, message: "Empty rune literal"},
		{name: "long rune", input: `'ab'`, message: "Expected closing ' after rune literal"},
		{name: "bad unicode escape", input: `'\u{zz}'`, message: "Invalid hex digit in Unicode escape"},
		{name: "unclosed interpolation", input: "`${a`", message: "Unclosed ${...} in string interpolation"},
		{name: "bad underscore", input: `1__0`, message: "underscore must be between digits in number literal"},
		{name: "bad hex", input: `0xg`, message: "expected digit after '0x'"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tok := New(tc.input).NextToken()
			if tok.Type != token.ILLEGAL {
				t.Fatalf("expected ILLEGAL token, got %q: %q", tok.Type, tok.Literal)
			}
			if tok.Literal != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, tok.Literal)
			}
		})
	}
}

func TestTokenPositions(t *testing.T) {
	tokens := New("let x = \"s\";").Tokens()
	expected := []int{0, 4, 6, 8, 11, 12}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, pos := range expected {
		if tokens[i].Position != pos {
			t.Errorf("token %d (%q): expected position %d, got %d", i, tokens[i].Literal, pos, tokens[i].Position)
		}
	}
}
