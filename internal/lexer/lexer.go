package lexer

import (
	"errors"
	"hemlock/internal/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int       // current byte position in input (points to start of current rune)
	readPosition int       // next byte position in input (start of next rune)
	ch           rune      // current rune under examination; 0 means EOF
	prevMode     Tokenizer // tokenizer to return to once a string literal ends
	currentMode  Tokenizer // Current tokenizer strategy
}

type Tokenizer interface {
	NextToken() token.Token
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.setMode(NewGeneralTokenizer(l))
	l.readChar()
	return l
}

// retain previous mode, this should be called when entering a string literal
func (l *Lexer) switchMode(mode Tokenizer) {
	l.prevMode = l.currentMode
	l.currentMode = mode
}

// restore the mode that was active before the string literal started
func (l *Lexer) restoreMode() {
	if l.prevMode != nil {
		l.currentMode = l.prevMode
		l.prevMode = nil
	}
}

func (l *Lexer) setMode(mode Tokenizer) {
	l.prevMode = nil
	l.currentMode = mode
}

func (l *Lexer) NextToken() token.Token {
	return l.currentMode.NextToken()
}

// Tokens drains the lexer, the EOF token included.
func (l *Lexer) Tokens() []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	startPosition := l.position
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	} else {
		return newToken(t, l.ch, startPosition)
	}
}

func (l *Lexer) handleCompoundToken2(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
	ch2 rune,
	t2 token.TokenType,
) token.Token {
	startPosition := l.position
	peek := l.peekChar()
	if peek == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	} else if peek == ch2 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t2, Literal: literal, Position: startPosition}
	} else {
		return newToken(t, l.ch, startPosition)
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '/':
			switch l.peekChar() {
			case '/':
				l.skipToLineEnd()
			case '*':
				l.skipBlockComment()
			default:
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() {
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	for l.ch != 0 {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// readIdentifier returns the substring (bytes) covering the identifier runes
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads decimal integers and floats with an optional fraction and
// exponent. Underscores may separate digits.
func (l *Lexer) readNumber() (string, bool, error) {
	var sb strings.Builder
	isFloat := false
	if err := l.readDigits(&sb, isDigit); err != nil {
		return "", false, err
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		sb.WriteRune(l.ch)
		l.readChar()
		if err := l.readDigits(&sb, isDigit); err != nil {
			return "", false, err
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			isFloat = true
			sb.WriteRune(l.ch)
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				sb.WriteRune(l.ch)
				l.readChar()
			}
			if !isDigit(l.ch) {
				return "", false, errors.New("expected digit in number exponent")
			}
			for isDigit(l.ch) {
				sb.WriteRune(l.ch)
				l.readChar()
			}
		}
	}
	return sb.String(), isFloat, nil
}

// readPrefixedNumber reads 0x and 0b literals and keeps the prefix in the
// literal so the parser can pick the base.
func (l *Lexer) readPrefixedNumber() (string, error) {
	var sb strings.Builder
	sb.WriteRune(l.ch)
	l.readChar() // consume '0'
	prefix := l.ch
	sb.WriteRune(prefix)
	l.readChar() // consume 'x' or 'b'

	digit := isHexDigit
	if prefix == 'b' || prefix == 'B' {
		digit = isBinaryDigit
	}
	if !digit(l.ch) {
		return "", errors.New("expected digit after '0" + string(prefix) + "'")
	}
	if err := l.readDigits(&sb, digit); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (l *Lexer) readDigits(sb *strings.Builder, digit func(rune) bool) error {
	for digit(l.ch) || l.ch == '_' {
		if l.ch == '_' {
			prev, _ := utf8.DecodeLastRuneInString(l.input[:l.position])
			// Rule: _ must be between digits
			if !digit(prev) || !digit(l.peekChar()) {
				return errors.New("underscore must be between digits in number literal")
			}
		} else {
			sb.WriteRune(l.ch)
		}
		l.readChar()
	}
	return nil
}

// Unicode-aware helpers
func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.Is(unicode.Mn, ch) || unicode.Is(unicode.Mc, ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isBinaryDigit(ch rune) bool {
	return ch == '0' || ch == '1'
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
