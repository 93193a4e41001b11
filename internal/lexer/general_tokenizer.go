package lexer

import (
	"hemlock/internal/token"
)

type GeneralTokenizer struct {
	lexer *Lexer
}

func NewGeneralTokenizer(lexer *Lexer) *GeneralTokenizer {
	return &GeneralTokenizer{lexer: lexer}
}

func (g *GeneralTokenizer) NextToken() token.Token {
	var tok token.Token

	g.lexer.skipWhitespace()

	startPosition := g.lexer.position // Record the current position as the start of the token

	switch g.lexer.ch {
	case '=':
		tok = g.lexer.handleCompoundToken(token.ASSIGN, '=', token.EQ)
	case '+':
		tok = g.lexer.handleCompoundToken2(token.PLUS, '+', token.INCREMENT, '=', token.PLUS_ASSIGN)
	case '-':
		tok = g.lexer.handleCompoundToken2(token.MINUS, '-', token.DECREMENT, '=', token.MINUS_ASSIGN)
	case '!':
		tok = g.lexer.handleCompoundToken(token.BANG, '=', token.NOT_EQ)
	case '/':
		tok = g.lexer.handleCompoundToken(token.SLASH, '=', token.SLASH_ASSIGN)
	case '*':
		tok = g.lexer.handleCompoundToken(token.ASTERISK, '=', token.ASTERISK_ASSIGN)
	case '%':
		tok = newToken(token.PERCENT, g.lexer.ch, startPosition)
	case '~':
		tok = newToken(token.COMPLEMENT, g.lexer.ch, startPosition)
	case '&':
		tok = g.lexer.handleCompoundToken(token.BITWISE_AND, '&', token.LOGICAL_AND)
	case '|':
		tok = g.lexer.handleCompoundToken(token.BITWISE_OR, '|', token.LOGICAL_OR)
	case '^':
		tok = newToken(token.BITWISE_XOR, g.lexer.ch, startPosition)
	case '<':
		tok = g.lexer.handleCompoundToken2(token.LT, '=', token.LT_EQ, '<', token.SHIFT_LEFT)
	case '>':
		tok = g.lexer.handleCompoundToken2(token.GT, '=', token.GT_EQ, '>', token.SHIFT_RIGHT)
	case '?':
		tok = g.lexer.handleCompoundToken2(token.QUESTION, '?', token.NULL_COALESCE, '.', token.OPTIONAL)
	case ';':
		tok = newToken(token.SEMICOLON, g.lexer.ch, startPosition)
	case ':':
		tok = newToken(token.COLON, g.lexer.ch, startPosition)
	case ',':
		tok = newToken(token.COMMA, g.lexer.ch, startPosition)
	case '.':
		tok = newToken(token.PERIOD, g.lexer.ch, startPosition)
	case '{':
		tok = newToken(token.LBRACE, g.lexer.ch, startPosition)
	case '}':
		tok = newToken(token.RBRACE, g.lexer.ch, startPosition)
	case '(':
		tok = newToken(token.LPAREN, g.lexer.ch, startPosition)
	case ')':
		tok = newToken(token.RPAREN, g.lexer.ch, startPosition)
	case '[':
		tok = newToken(token.LBRACKET, g.lexer.ch, startPosition)
	case ']':
		tok = newToken(token.RBRACKET, g.lexer.ch, startPosition)
	case '"':
		g.lexer.readChar() // consume the opening "
		g.lexer.switchMode(NewStringTokenizer(g.lexer, '"', token.STRING))
		return g.lexer.currentMode.NextToken()
	case '`':
		g.lexer.readChar() // consume the opening `
		g.lexer.switchMode(NewStringTokenizer(g.lexer, '`', token.TEMPLATE))
		return g.lexer.currentMode.NextToken()
	case '\'':
		g.lexer.readChar() // consume the opening '
		return g.lexer.readRune(startPosition)
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Position = startPosition
	default:
		if isLetter(g.lexer.ch) {
			tok.Literal = g.lexer.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Position = startPosition
			return tok
		} else if isDigit(g.lexer.ch) {
			tok.Position = startPosition
			next := g.lexer.peekChar()
			if g.lexer.ch == '0' && (next == 'x' || next == 'X' || next == 'b' || next == 'B') {
				literal, err := g.lexer.readPrefixedNumber()
				if err != nil {
					return token.Token{Type: token.ILLEGAL, Literal: err.Error(), Position: startPosition}
				}
				tok.Type = token.INT
				tok.Literal = literal
				return tok
			}
			literal, isFloat, err := g.lexer.readNumber()
			if err != nil {
				return token.Token{Type: token.ILLEGAL, Literal: err.Error(), Position: startPosition}
			}
			tok.Type = token.INT
			if isFloat {
				tok.Type = token.FLOAT
			}
			tok.Literal = literal
			return tok
		} else {
			tok = newToken(token.ILLEGAL, g.lexer.ch, startPosition)
		}
	}

	g.lexer.readChar()
	return tok
}
