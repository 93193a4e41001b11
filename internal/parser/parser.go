package parser

import (
	"fmt"
	"hemlock/internal/ast"
	"hemlock/internal/lexer"
	"hemlock/internal/token"
	"hemlock/internal/util"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	_           int = iota
	LOWEST          // statement level
	ASSIGN          // = += -= *= /=
	TERNARY         // c ? a : b
	COALESCE        // ??
	LOGICAL_OR      // logical or
	LOGICAL_AND     // logical and
	BITWISE_OR
	BITWISE_XOR
	BITWISE_AND // bitwise operators
	EQUALS      // ==
	COMPARISON  // > or <
	SHIFT       // bit shifting
	SUM         // +
	PRODUCT     // *
	PREFIX      // -X or !X
	CALL        // myFunction(X), a.b, a[i], x++
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:          ASSIGN,
	token.PLUS_ASSIGN:     ASSIGN,
	token.MINUS_ASSIGN:    ASSIGN,
	token.ASTERISK_ASSIGN: ASSIGN,
	token.SLASH_ASSIGN:    ASSIGN,
	token.QUESTION:        TERNARY,
	token.NULL_COALESCE:   COALESCE,
	token.LOGICAL_OR:      LOGICAL_OR,
	token.LOGICAL_AND:     LOGICAL_AND,
	token.BITWISE_OR:      BITWISE_OR,
	token.BITWISE_XOR:     BITWISE_XOR,
	token.BITWISE_AND:     BITWISE_AND,
	token.EQ:              EQUALS,
	token.NOT_EQ:          EQUALS,
	token.LT:              COMPARISON,
	token.LT_EQ:           COMPARISON,
	token.GT:              COMPARISON,
	token.GT_EQ:           COMPARISON,
	token.SHIFT_LEFT:      SHIFT,
	token.SHIFT_RIGHT:     SHIFT,
	token.PLUS:            SUM,
	token.MINUS:           SUM,
	token.SLASH:           PRODUCT,
	token.ASTERISK:        PRODUCT,
	token.PERCENT:         PRODUCT,
	token.PERIOD:          CALL,
	token.OPTIONAL:        CALL,
	token.LPAREN:          CALL,
	token.LBRACKET:        CALL,
	token.INCREMENT:       CALL,
	token.DECREMENT:       CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	src    string // source code here
	errors []string

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// Parse lexes and parses a whole source text.
func Parse(source string) (*ast.Program, []string) {
	p := New(lexer.New(source), source)
	program := p.ParseProgram()
	return program, p.Errors()
}

func New(l *lexer.Lexer, source string) *Parser {
	p := &Parser{
		l:      l,
		src:    source,
		errors: []string{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.SELF, p.parseSelf)
	p.registerPrefix(token.TYPE, p.parseTypeLiteral)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TEMPLATE, p.parseTemplateLiteral)
	p.registerPrefix(token.RUNE, p.parseRuneLiteral)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.COMPLEMENT, p.parsePrefixExpression)
	p.registerPrefix(token.INCREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.DECREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.AWAIT, p.parseAwaitExpression)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(token.ASYNC, p.parseAsyncFunctionLiteral)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseObjectLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.PLUS, token.MINUS, token.SLASH, token.ASTERISK, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.LT_EQ, token.GT, token.GT_EQ,
		token.LOGICAL_AND, token.LOGICAL_OR, token.NULL_COALESCE,
		token.BITWISE_AND, token.BITWISE_OR, token.BITWISE_XOR,
		token.SHIFT_LEFT, token.SHIFT_RIGHT,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	for _, t := range []token.TokenType{
		token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.ASTERISK_ASSIGN, token.SLASH_ASSIGN,
	} {
		p.registerInfix(t, p.parseAssignExpression)
	}
	p.registerInfix(token.QUESTION, p.parseTernaryExpression)
	p.registerInfix(token.PERIOD, p.parsePropertyExpression)
	p.registerInfix(token.OPTIONAL, p.parseOptionalChain)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.INCREMENT, p.parsePostfixUpdate)
	p.registerInfix(token.DECREMENT, p.parsePostfixUpdate)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) addError(message string, args ...interface{}) {
	p.addErrorAt(p.curToken.Position, message, args...)
}

func (p *Parser) addErrorAt(position int, message string, args ...interface{}) {
	line, col := util.GetLineAndColumn(p.src, position)
	m := fmt.Sprintf(message, args...)
	msg := fmt.Sprintf("[%3d:%2d] %s", line, col, m)
	p.errors = append(p.errors, msg)
}

func (p *Parser) peekError(t token.TokenType) {
	if p.peekTokenIs(token.ILLEGAL) {
		p.addErrorAt(p.peekToken.Position, "%s", p.peekToken.Literal)
		return
	}
	p.addErrorAt(p.peekToken.Position, "expected next token to be %s, got %s instead", t, p.peekToken.Type)
}

func (p *Parser) noPrefixParseFnError(t token.TokenType) {
	if t == token.ILLEGAL {
		p.addError("%s", p.curToken.Literal)
		return
	}
	p.addError("no prefix parse function for %s found", t)
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	} else {
		p.peekError(t)
		return false
	}
}

func (p *Parser) skipSemicolon() {
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	return program
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.SEMICOLON:
		return nil
	case token.LET, token.CONST:
		return p.parseLetStatement()
	case token.FUNCTION:
		if p.peekTokenIs(token.IDENT) {
			return p.parseFunctionDeclaration(false)
		}
	case token.ASYNC:
		if p.peekTokenIs(token.FUNCTION) {
			p.nextToken() // consume 'async'
			if p.peekTokenIs(token.IDENT) {
				return p.parseFunctionDeclaration(true)
			}
			return p.parseExpressionStatementFrom(p.parseFunctionRest(true))
		}
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.BREAK:
		stmt := &ast.BreakStatement{Token: p.curToken}
		p.skipSemicolon()
		return stmt
	case token.CONTINUE:
		stmt := &ast.ContinueStatement{Token: p.curToken}
		p.skipSemicolon()
		return stmt
	case token.TRY:
		return p.parseTryStatement()
	case token.THROW:
		return p.parseThrowStatement()
	case token.DEFER:
		return p.parseDeferStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.DEFINE:
		return p.parseDefineStatement()
	case token.ENUM:
		return p.parseEnumStatement()
	case token.IMPORT:
		return p.parseImportStatement()
	case token.EXPORT:
		return p.parseExportStatement()
	case token.EXTERN:
		return p.parseExternStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStatement{Token: p.curToken, IsConst: p.curTokenIs(token.CONST)}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		stmt.Type = p.parseType()
		if stmt.Type == nil {
			return nil
		}
	}

	if !stmt.IsConst && (p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.EOF)) {
		p.skipSemicolon()
		return stmt
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}

	p.nextToken()

	stmt.Value = p.parseExpression(LOWEST)
	if fn, ok := stmt.Value.(*ast.FunctionLiteral); ok && fn.Name == "" {
		fn.Name = stmt.Name.Value
	}

	p.skipSemicolon()

	return stmt
}

// parseFunctionDeclaration desugars `fn name() {}` into `let name = fn() {}`.
// The current token is 'fn'.
func (p *Parser) parseFunctionDeclaration(isAsync bool) ast.Statement {
	let := &ast.LetStatement{Token: p.curToken}
	fnToken := p.curToken
	p.nextToken()
	let.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	lit := &ast.FunctionLiteral{Token: fnToken, Name: let.Name.Value, IsAsync: isAsync}
	if !p.parseFunctionSignatureAndBody(lit) {
		return nil
	}
	let.Value = lit
	return let
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	if p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.EOF) {
		p.skipSemicolon()
		return stmt
	}

	p.nextToken()

	stmt.ReturnValue = p.parseExpression(LOWEST)

	p.skipSemicolon()

	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	stmt.Consequence = p.parseBlockStatement()

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()

		if p.peekTokenIs(token.IF) {
			p.nextToken()
			alternative := p.parseIfStatement()
			if alternative == nil {
				return nil
			}
			stmt.Alternative = alternative
		} else if !p.expectPeek(token.LBRACE) {
			return nil
		} else {
			stmt.Alternative = p.parseBlockStatement()
		}
	}

	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()

	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	forToken := p.curToken

	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	var init ast.Statement
	if p.peekTokenIs(token.LET) {
		p.nextToken()
		letToken := p.curToken
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		first := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

		if p.peekTokenIs(token.COMMA) || p.peekTokenIs(token.IN) {
			stmt := &ast.ForInStatement{Token: forToken, Value: first}
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				if !p.expectPeek(token.IDENT) {
					return nil
				}
				stmt.Key = first
				stmt.Value = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			}
			if !p.expectPeek(token.IN) {
				return nil
			}
			p.nextToken()
			stmt.Iterable = p.parseExpression(LOWEST)
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
			if !p.expectPeek(token.LBRACE) {
				return nil
			}
			stmt.Body = p.parseBlockStatement()
			return stmt
		}

		let := &ast.LetStatement{Token: letToken, Name: first}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			let.Type = p.parseType()
		}
		if !p.expectPeek(token.ASSIGN) {
			return nil
		}
		p.nextToken()
		let.Value = p.parseExpression(LOWEST)
		init = let
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	} else if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	} else {
		p.nextToken()
		init = &ast.ExpressionStatement{Token: p.curToken, Expression: p.parseExpression(LOWEST)}
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	}

	stmt := &ast.ForStatement{Token: forToken, Init: init}

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	} else {
		p.nextToken()
		stmt.Condition = p.parseExpression(LOWEST)
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
	} else {
		p.nextToken()
		stmt.Update = p.parseExpression(LOWEST)
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()

	return stmt
}

func (p *Parser) parseTryStatement() ast.Statement {
	stmt := &ast.TryStatement{Token: p.curToken}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Block = p.parseBlockStatement()

	if p.peekTokenIs(token.CATCH) {
		p.nextToken()
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			stmt.CatchParam = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			if !p.expectPeek(token.RPAREN) {
				return nil
			}
		}
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.CatchBlock = p.parseBlockStatement()
	}

	if p.peekTokenIs(token.FINALLY) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.FinallyBlock = p.parseBlockStatement()
	}

	if stmt.CatchBlock == nil && stmt.FinallyBlock == nil {
		p.addErrorAt(stmt.Token.Position, "Try statement must have either 'catch' or 'finally' block")
		return nil
	}

	return stmt
}

func (p *Parser) parseThrowStatement() ast.Statement {
	stmt := &ast.ThrowStatement{Token: p.curToken}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}

	p.skipSemicolon()
	return stmt
}

func (p *Parser) parseDeferStatement() ast.Statement {
	stmt := &ast.DeferStatement{Token: p.curToken}

	p.nextToken()
	stmt.Call = p.parseExpression(LOWEST)
	if stmt.Call == nil {
		return nil
	}

	p.skipSemicolon()
	return stmt
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	stmt := &ast.SwitchStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Subject = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()

	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		c := &ast.SwitchCase{Token: p.curToken}
		switch p.curToken.Type {
		case token.CASE:
			p.nextToken()
			c.Value = p.parseExpression(LOWEST)
		case token.DEFAULT:
		default:
			p.addError("expected 'case' or 'default' in switch, got %s", p.curToken.Type)
			return nil
		}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()

		for !p.curTokenIs(token.CASE) && !p.curTokenIs(token.DEFAULT) &&
			!p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
			s := p.parseStatement()
			if s != nil {
				c.Body = append(c.Body, s)
			}
			p.nextToken()
		}
		stmt.Cases = append(stmt.Cases, c)
	}

	if !p.curTokenIs(token.RBRACE) {
		p.addError("expected '}' after switch cases")
		return nil
	}

	return stmt
}

func (p *Parser) parseDefineStatement() ast.Statement {
	stmt := &ast.DefineStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		field := &ast.FieldDefinition{Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}

		if p.peekTokenIs(token.QUESTION) {
			p.nextToken()
			field.Optional = true
			if p.peekTokenIs(token.COLON) {
				p.nextToken()
				p.nextToken()
				// `name?: type` or `name?: default`
				if p.curTokenIs(token.TYPE) || p.curTokenIs(token.IDENT) || p.curTokenIs(token.OBJECT) {
					field.Type = p.parseType()
				} else {
					field.Default = p.parseExpression(LOWEST)
				}
			}
		} else {
			if p.peekTokenIs(token.COLON) {
				p.nextToken()
				p.nextToken()
				field.Type = p.parseType()
			}
			if p.peekTokenIs(token.ASSIGN) {
				p.nextToken()
				p.nextToken()
				field.Default = p.parseExpression(LOWEST)
			}
		}

		stmt.Fields = append(stmt.Fields, field)

		if !p.peekTokenIs(token.COMMA) && !p.peekTokenIs(token.SEMICOLON) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	p.skipSemicolon()

	return stmt
}

func (p *Parser) parseEnumStatement() ast.Statement {
	stmt := &ast.EnumStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		member := &ast.EnumMember{Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			member.Value = p.parseExpression(LOWEST)
		}
		stmt.Members = append(stmt.Members, member)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	p.skipSemicolon()

	return stmt
}

func (p *Parser) parseImportStatement() ast.Statement {
	importToken := p.curToken

	// import "libfoo.so";
	if p.peekTokenIs(token.STRING) {
		p.nextToken()
		stmt := &ast.ImportFFIStatement{Token: importToken, Library: p.curToken.Literal}
		p.skipSemicolon()
		return stmt
	}

	stmt := &ast.ImportStatement{Token: importToken}

	switch {
	case p.peekTokenIs(token.ASTERISK):
		p.nextToken()
		if !p.expectPeek(token.AS) {
			return nil
		}
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Namespace = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	case p.peekTokenIs(token.LBRACE):
		p.nextToken()
		stmt.Symbols = p.parseImportSymbols()
		if stmt.Symbols == nil {
			return nil
		}
	default:
		p.addErrorAt(p.peekToken.Position, "Expect '{', '*', or string after 'import'")
		return nil
	}

	if !p.expectPeek(token.FROM) {
		return nil
	}
	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Path = p.curToken.Literal

	p.skipSemicolon()
	return stmt
}

// parseImportSymbols reads `{ a, b as c }`; the current token is '{'.
func (p *Parser) parseImportSymbols() []*ast.ImportSymbol {
	symbols := []*ast.ImportSymbol{}

	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}

		symbol := &ast.ImportSymbol{Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}

		// Check for alias using "as"
		if p.peekTokenIs(token.AS) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			symbol.Alias = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
		}

		symbols = append(symbols, symbol)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return symbols
}

func (p *Parser) parseExportStatement() ast.Statement {
	stmt := &ast.ExportStatement{Token: p.curToken}

	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		stmt.Symbols = p.parseImportSymbols()
		if stmt.Symbols == nil {
			return nil
		}
		if p.peekTokenIs(token.FROM) {
			p.nextToken()
			if !p.expectPeek(token.STRING) {
				return nil
			}
			stmt.Path = p.curToken.Literal
		}
		p.skipSemicolon()
		return stmt
	}

	p.nextToken()
	switch decl := p.parseStatement().(type) {
	case *ast.LetStatement:
		stmt.Declaration = decl
	case *ast.DefineStatement:
		stmt.Declaration = decl
	case *ast.EnumStatement:
		stmt.Declaration = decl
	case nil:
		return nil
	default:
		p.addErrorAt(stmt.Token.Position, "Expected declaration or export list after 'export'")
		return nil
	}

	return stmt
}

func (p *Parser) parseExternStatement() ast.Statement {
	stmt := &ast.ExternStatement{Token: p.curToken}

	if !p.expectPeek(token.FUNCTION) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseFunctionParameters()
	if !ok {
		return nil
	}
	stmt.Parameters = params

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		stmt.ReturnType = p.parseType()
	}

	p.skipSemicolon()
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}

	p.nextToken()

	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	if !p.curTokenIs(token.RBRACE) {
		p.addError("Expect '}' after block")
	}

	return block
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}

	p.skipSemicolon()

	return stmt
}

// parseExpressionStatementFrom continues an expression statement whose
// leading operand has already been parsed.
func (p *Parser) parseExpressionStatementFrom(left ast.Expression) ast.Statement {
	if left == nil {
		return nil
	}
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseInfix(left, LOWEST)
	p.skipSemicolon()
	return stmt
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	return p.parseInfix(leftExp, precedence)
}

func (p *Parser) parseInfix(leftExp ast.Expression, precedence int) ast.Expression {
	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}

	return LOWEST
}

// parseType reads a type annotation starting at the current token.
func (p *Parser) parseType() *ast.TypeAnnotation {
	if !p.curTokenIs(token.TYPE) && !p.curTokenIs(token.IDENT) && !p.curTokenIs(token.OBJECT) {
		p.addError("expected type name, got %s", p.curToken.Type)
		return nil
	}
	ta := &ast.TypeAnnotation{Token: p.curToken, Name: p.curToken.Literal}

	if ta.Name == "array" && p.peekTokenIs(token.LT) {
		p.nextToken()
		p.nextToken()
		ta.Element = p.parseType()
		if ta.Element == nil {
			return nil
		}
		if !p.expectPeek(token.GT) {
			return nil
		}
	}

	return ta
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseSelf() ast.Expression {
	return &ast.Self{Token: p.curToken}
}

// parseTypeLiteral yields a type value, except when the keyword is called
// directly, as in buffer(8), which names the builtin of the same name.
func (p *Parser) parseTypeLiteral() ast.Expression {
	if p.peekTokenIs(token.LPAREN) {
		return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	return &ast.TypeLiteral{Token: p.curToken, Name: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken}

	literal := p.curToken.Literal
	base := 10
	if len(literal) > 2 && literal[0] == '0' {
		switch literal[1] {
		case 'x', 'X':
			base = 16
			literal = literal[2:]
		case 'b', 'B':
			base = 2
			literal = literal[2:]
		}
	}

	value, err := strconv.ParseInt(literal, base, 64)
	if err != nil {
		// hex and binary literals may spell the full 64-bit pattern
		u, uerr := strconv.ParseUint(literal, base, 64)
		if uerr != nil || base == 10 {
			p.addError("could not parse %q as integer", p.curToken.Literal)
			return nil
		}
		value = int64(u)
	}

	lit.Int = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken, IsFloat: true}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("could not parse %q as float", p.curToken.Literal)
		return nil
	}

	lit.Float = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseRuneLiteral() ast.Expression {
	r, _ := utf8.DecodeRuneInString(p.curToken.Literal)
	return &ast.RuneLiteral{Token: p.curToken, Value: r}
}

// parseTemplateLiteral splits the literal at each ${...} and parses the
// embedded source with its own lexer and parser.
func (p *Parser) parseTemplateLiteral() ast.Expression {
	tl := &ast.TemplateLiteral{Token: p.curToken}
	src := p.curToken.Literal

	var text strings.Builder
	for i := 0; i < len(src); {
		if src[i] == '$' && i+1 < len(src) && src[i+1] == '{' {
			end, ok := matchingBrace(src, i+2)
			if !ok {
				p.addError("Unclosed ${...} in string interpolation")
				return nil
			}
			tl.Parts = append(tl.Parts, &ast.StringLiteral{Token: p.curToken, Value: text.String()})
			text.Reset()

			inner := src[i+2 : end]
			if strings.TrimSpace(inner) == "" {
				p.addError("Empty expression in string interpolation")
				return nil
			}
			sub := New(lexer.New(inner), inner)
			expr := sub.parseExpression(LOWEST)
			if len(sub.errors) > 0 {
				for _, e := range sub.errors {
					p.addError("in string interpolation: %s", strings.TrimSpace(e))
				}
				return nil
			}
			if !sub.peekTokenIs(token.EOF) {
				p.addError("unexpected %s in string interpolation", sub.peekToken.Type)
				return nil
			}
			tl.Parts = append(tl.Parts, expr)
			i = end + 1
			continue
		}
		text.WriteByte(src[i])
		i++
	}
	tl.Parts = append(tl.Parts, &ast.StringLiteral{Token: p.curToken, Value: text.String()})

	return tl
}

func matchingBrace(src string, start int) (int, bool) {
	depth := 1
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parsePrefixUpdate() ast.Expression {
	expression := &ast.UpdateExpression{Token: p.curToken, Operator: p.curToken.Literal, Prefix: true}

	p.nextToken()
	expression.Target = p.parseExpression(PREFIX)
	if !p.isAssignable(expression.Target) {
		p.addErrorAt(expression.Token.Position, "Invalid operand for %s", expression.Operator)
		return nil
	}

	return expression
}

func (p *Parser) parsePostfixUpdate(left ast.Expression) ast.Expression {
	if !p.isAssignable(left) {
		p.addError("Invalid operand for %s", p.curToken.Literal)
		return nil
	}
	return &ast.UpdateExpression{Token: p.curToken, Operator: p.curToken.Literal, Target: left}
}

func (p *Parser) parseAwaitExpression() ast.Expression {
	expression := &ast.AwaitExpression{Token: p.curToken}

	p.nextToken()
	expression.Value = p.parseExpression(PREFIX)
	if expression.Value == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) isAssignable(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.IndexExpression, *ast.PropertyExpression:
		return true
	}
	return false
}

// parseAssignExpression is right-associative: a = b = c.
func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	if !p.isAssignable(left) {
		p.addError("Invalid assignment target")
		return nil
	}
	if pe, ok := left.(*ast.PropertyExpression); ok && pe.Optional {
		p.addError("Invalid assignment target")
		return nil
	}

	expression := &ast.AssignExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Target:   left,
	}

	p.nextToken()
	expression.Value = p.parseExpression(ASSIGN - 1)
	if expression.Value == nil {
		return nil
	}
	if fn, ok := expression.Value.(*ast.FunctionLiteral); ok && fn.Name == "" {
		if id, ok := left.(*ast.Identifier); ok {
			fn.Name = id.Value
		}
	}

	return expression
}

func (p *Parser) parseTernaryExpression(condition ast.Expression) ast.Expression {
	expression := &ast.TernaryExpression{Token: p.curToken, Condition: condition}

	p.nextToken()
	expression.Consequence = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	expression.Alternative = p.parseExpression(TERNARY - 1)
	if expression.Consequence == nil || expression.Alternative == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseNull() ast.Expression {
	return &ast.Null{Token: p.curToken}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.Boolean{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	return p.parseFunctionRest(false)
}

func (p *Parser) parseAsyncFunctionLiteral() ast.Expression {
	if !p.expectPeek(token.FUNCTION) {
		return nil
	}
	return p.parseFunctionRest(true)
}

// parseFunctionRest parses an anonymous function; the current token is 'fn'.
func (p *Parser) parseFunctionRest(isAsync bool) ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken, IsAsync: isAsync}
	if !p.parseFunctionSignatureAndBody(lit) {
		return nil
	}
	return lit
}

func (p *Parser) parseFunctionSignatureAndBody(lit *ast.FunctionLiteral) bool {
	if !p.expectPeek(token.LPAREN) {
		return false
	}

	params, ok := p.parseFunctionParameters()
	if !ok {
		return false
	}
	lit.Parameters = params

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		lit.ReturnType = p.parseType()
		if lit.ReturnType == nil {
			return false
		}
	}

	if !p.expectPeek(token.LBRACE) {
		return false
	}

	lit.Body = p.parseBlockStatement()

	return true
}

// parseFunctionParameters reads `(a, b: i32, c?: 1, d = 2)`; the current
// token is '('.
func (p *Parser) parseFunctionParameters() ([]*ast.FunctionParameter, bool) {
	parameters := []*ast.FunctionParameter{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return parameters, true
	}

	seenOptional := false
	for {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		param := &ast.FunctionParameter{Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}

		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			param.Type = p.parseType()
			if param.Type == nil {
				return nil, false
			}
		}

		if p.peekTokenIs(token.QUESTION) {
			p.nextToken()
			param.Optional = true
			if p.peekTokenIs(token.COLON) {
				p.nextToken()
				p.nextToken()
				param.Default = p.parseExpression(LOWEST)
			}
		} else if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			param.Optional = true
			param.Default = p.parseExpression(LOWEST)
		}

		if param.Optional {
			seenOptional = true
		} else if seenOptional {
			p.addError("Required parameters must come before optional parameters")
			return nil, false
		}

		parameters = append(parameters, param)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken() // Consume comma
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}

	return parameters, true
}

// propertyName accepts identifiers, type names and keywords after '.'.
func (p *Parser) propertyName() (string, bool) {
	lit := p.curToken.Literal
	switch p.curToken.Type {
	case token.STRING, token.TEMPLATE, token.RUNE, token.ILLEGAL, token.EOF:
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(lit)
	if lit == "" || !(r == '_' || unicode.IsLetter(r)) {
		return "", false
	}
	return lit, true
}

func (p *Parser) parsePropertyExpression(left ast.Expression) ast.Expression {
	expression := &ast.PropertyExpression{Token: p.curToken, Object: left}

	p.nextToken()
	name, ok := p.propertyName()
	if !ok {
		p.addError("Expect property name after '.'")
		return nil
	}
	expression.Property = name

	return expression
}

// parseOptionalChain handles a?.b, a?.[i] and a?.(args).
func (p *Parser) parseOptionalChain(left ast.Expression) ast.Expression {
	chainToken := p.curToken

	switch {
	case p.peekTokenIs(token.LBRACKET):
		p.nextToken()
		expr := &ast.IndexExpression{Token: chainToken, Left: left, Optional: true}
		p.nextToken()
		expr.Index = p.parseExpression(LOWEST)
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return expr
	case p.peekTokenIs(token.LPAREN):
		p.nextToken()
		expr := &ast.CallExpression{Token: chainToken, Function: left, Optional: true}
		args, ok := p.parseExpressionList(token.RPAREN)
		if !ok {
			return nil
		}
		expr.Arguments = args
		return expr
	}

	p.nextToken()
	name, ok := p.propertyName()
	if !ok {
		p.addError("Expect property name after '?.'")
		return nil
	}
	return &ast.PropertyExpression{Token: chainToken, Object: left, Property: name, Optional: true}
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: function}
	args, ok := p.parseExpressionList(token.RPAREN)
	if !ok {
		return nil
	}
	exp.Arguments = args
	return exp
}

func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Expression, bool) {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}

	for {
		p.nextToken()
		item := p.parseExpression(LOWEST)
		if item == nil {
			return nil, false
		}
		list = append(list, item)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		// trailing comma
		if p.peekTokenIs(end) {
			break
		}
	}

	if !p.expectPeek(end) {
		return nil, false
	}

	return list, true
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	array := &ast.ArrayLiteral{Token: p.curToken}

	elements, ok := p.parseExpressionList(token.RBRACKET)
	if !ok {
		return nil
	}
	array.Elements = elements

	return array
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	expr := &ast.IndexExpression{
		Token: p.curToken, // The '[' token
		Left:  left,
	}

	p.nextToken()
	expr.Index = p.parseExpression(LOWEST)
	if expr.Index == nil {
		return nil
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	obj := &ast.ObjectLiteral{Token: p.curToken}

	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()

		var key string
		if p.curTokenIs(token.STRING) {
			key = p.curToken.Literal
		} else if name, ok := p.propertyName(); ok {
			key = name
		} else {
			p.addError("Expect field name, got %s", p.curToken.Type)
			return nil
		}

		if !p.expectPeek(token.COLON) {
			return nil
		}

		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		if fn, ok := value.(*ast.FunctionLiteral); ok && fn.Name == "" {
			fn.Name = key
		}

		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, value)

		if !p.peekTokenIs(token.RBRACE) && !p.expectPeek(token.COMMA) {
			return nil
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return obj
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
