package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT    = "IDENT"    // add, foobar, x, y, ...
	INT      = "INT"      // 1343456, 0xff, 0b101
	FLOAT    = "FLOAT"    // 3.14, 1e9
	STRING   = "STRING"   // "foobar"
	TEMPLATE = "TEMPLATE" // `hello ${name}`
	RUNE     = "RUNE"     // 'a'

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"

	PLUS_ASSIGN     = "+="
	MINUS_ASSIGN    = "-="
	ASTERISK_ASSIGN = "*="
	SLASH_ASSIGN    = "/="

	INCREMENT = "++"
	DECREMENT = "--"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	COMPLEMENT  = "~"
	BITWISE_AND = "&"
	BITWISE_OR  = "|"
	BITWISE_XOR = "^"
	SHIFT_LEFT  = "<<"
	SHIFT_RIGHT = ">>"

	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"

	EQ     = "=="
	NOT_EQ = "!="

	QUESTION      = "?"
	NULL_COALESCE = "??"
	OPTIONAL      = "?."

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	LET      = "LET"
	CONST    = "CONST"
	FUNCTION = "FUNCTION"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	NULL     = "NULL"
	IF       = "IF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	FOR      = "FOR"
	IN       = "IN"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	RETURN   = "RETURN"
	REF      = "REF"
	DEFINE   = "DEFINE"
	ENUM     = "ENUM"
	OBJECT   = "OBJECT"
	SELF     = "SELF"
	TRY      = "TRY"
	CATCH    = "CATCH"
	FINALLY  = "FINALLY"
	THROW    = "THROW"
	SWITCH   = "SWITCH"
	CASE     = "CASE"
	DEFAULT  = "DEFAULT"
	ASYNC    = "ASYNC"
	AWAIT    = "AWAIT"
	IMPORT   = "IMPORT"
	EXPORT   = "EXPORT"
	FROM     = "FROM"
	AS       = "AS"
	EXTERN   = "EXTERN"
	DEFER    = "DEFER"

	// Type keywords
	TYPE = "TYPE" // i8 ... u64, f32, f64, integer, number, byte, bool, string, rune, ptr, buffer, array, void
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
}

var keywords = map[string]TokenType{
	// constants
	"null":  NULL,
	"true":  TRUE,
	"false": FALSE,

	// declarations
	"let":    LET,
	"const":  CONST,
	"fn":     FUNCTION,
	"ref":    REF,
	"define": DEFINE,
	"enum":   ENUM,
	"object": OBJECT,
	"self":   SELF,
	"async":  ASYNC,
	"await":  AWAIT,
	"extern": EXTERN,

	// modules
	"import": IMPORT,
	"export": EXPORT,
	"from":   FROM,
	"as":     AS,

	// flow control
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"switch":   SWITCH,
	"case":     CASE,
	"default":  DEFAULT,

	// error handling
	"try":     TRY,
	"catch":   CATCH,
	"finally": FINALLY,
	"throw":   THROW,
	"defer":   DEFER,
}

var typeNames = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true,
	"integer": true, "number": true, "byte": true,
	"bool": true, "string": true, "rune": true,
	"ptr": true, "buffer": true, "array": true, "void": true,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if typeNames[ident] {
		return TYPE
	}
	return IDENT
}

// IsTypeName reports whether ident names a built-in type keyword.
func IsTypeName(ident string) bool {
	return typeNames[ident]
}
