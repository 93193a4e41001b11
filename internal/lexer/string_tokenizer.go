package lexer

import (
	"hemlock/internal/token"
	"strings"
)

// StringTokenizer reads one quoted literal. Double-quoted strings process
// escapes. Template strings process escapes outside of ${...} and keep the
// interpolated source verbatim for the parser.
type StringTokenizer struct {
	lexer     *Lexer
	quote     rune
	tokenType token.TokenType
}

func NewStringTokenizer(lexer *Lexer, quote rune, tokenType token.TokenType) *StringTokenizer {
	return &StringTokenizer{lexer: lexer, quote: quote, tokenType: tokenType}
}

func (s *StringTokenizer) NextToken() token.Token {
	var result strings.Builder
	startPosition := s.lexer.position - 1
	defer s.lexer.restoreMode()

	// start reading the string right away, assume the opening quote has already been read
	for {
		if s.lexer.ch == 0 {
			return token.Token{Type: token.ILLEGAL, Literal: "Unterminated string", Position: startPosition}
		}

		if s.lexer.ch == s.quote {
			s.lexer.readChar() // Consume the closing quote
			break
		}

		if s.tokenType == token.TEMPLATE && s.lexer.ch == '$' && s.lexer.peekChar() == '{' {
			if !s.copyInterpolation(&result) {
				return token.Token{Type: token.ILLEGAL, Literal: "Unclosed ${...} in string interpolation", Position: startPosition}
			}
			continue
		}

		if s.lexer.ch == '\\' {
			s.lexer.readChar() // Move to the escaped character
			r, ok := simpleEscape(s.lexer.ch)
			if !ok {
				return token.Token{Type: token.ILLEGAL, Literal: "Unknown escape sequence in string", Position: startPosition}
			}
			result.WriteRune(r)
		} else {
			result.WriteRune(s.lexer.ch)
		}

		s.lexer.readChar()
	}

	return token.Token{
		Type:     s.tokenType,
		Literal:  result.String(),
		Position: startPosition,
	}
}

// copyInterpolation copies "${ ... }" verbatim, tracking nested braces.
func (s *StringTokenizer) copyInterpolation(result *strings.Builder) bool {
	result.WriteString("${")
	s.lexer.readChar() // consume '$'
	s.lexer.readChar() // consume '{'
	depth := 1
	for s.lexer.ch != 0 {
		switch s.lexer.ch {
		case '{':
			depth++
		case '}':
			depth--
		}
		result.WriteRune(s.lexer.ch)
		s.lexer.readChar()
		if depth == 0 {
			return true
		}
	}
	return false
}

// readRune reads a rune literal body; the opening quote is already consumed.
func (l *Lexer) readRune(startPosition int) token.Token {
	illegal := func(msg string) token.Token {
		return token.Token{Type: token.ILLEGAL, Literal: msg, Position: startPosition}
	}
	if l.ch == 0 || l.ch == '\'' {
		return illegal("Empty rune literal")
	}

	var codepoint rune
	if l.ch == '\\' {
		l.readChar()
		if l.ch == 'u' {
			l.readChar()
			if l.ch != '{' {
				return illegal("Expected '{' after \\u")
			}
			l.readChar()
			digits := 0
			for l.ch != '}' && l.ch != 0 && digits < 6 {
				d, ok := hexValue(l.ch)
				if !ok {
					return illegal("Invalid hex digit in Unicode escape")
				}
				codepoint = codepoint<<4 | d
				digits++
				l.readChar()
			}
			if l.ch != '}' {
				return illegal("Unterminated Unicode escape")
			}
			if codepoint > 0x10FFFF {
				return illegal("Unicode codepoint out of range")
			}
		} else {
			r, ok := simpleEscape(l.ch)
			if !ok {
				return illegal("Unknown escape sequence")
			}
			codepoint = r
		}
	} else {
		codepoint = l.ch
	}
	l.readChar()

	if l.ch != '\'' {
		return illegal("Expected closing ' after rune literal")
	}
	l.readChar()
	return token.Token{Type: token.RUNE, Literal: string(codepoint), Position: startPosition}
}

func simpleEscape(ch rune) (rune, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '"':
		return '"', true
	case '`':
		return '`', true
	case '0':
		return 0, true
	}
	return 0, false
}

func hexValue(ch rune) (rune, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0', true
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10, true
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10, true
	}
	return 0, false
}
