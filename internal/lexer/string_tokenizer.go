package lexer

import (
	"mika/internal/token"
	"strings"
)

// StringTokenizer reads one quoted string. The opening quote is the
// lexer's current rune when NextToken is called.
type StringTokenizer struct {
	lexer *Lexer
	quote rune
}

func NewStringTokenizer(lexer *Lexer, quote rune) *StringTokenizer {
	return &StringTokenizer{lexer: lexer, quote: quote}
}

func (s *StringTokenizer) NextToken() token.Token {
	var result strings.Builder
	start := s.lexer.pos()
	s.lexer.readChar() // opening quote

	for {
		if s.lexer.ch == 0 {
			return token.Token{Type: token.ILLEGAL, Literal: "unterminated string", Position: start}
		}
		if s.lexer.ch == s.quote {
			s.lexer.readChar()
			break
		}
		if s.lexer.ch == '\\' {
			s.lexer.readChar()
			result.WriteString(unescape(s.lexer.ch))
		} else {
			result.WriteRune(s.lexer.ch)
		}
		s.lexer.readChar()
	}

	return token.Token{Type: token.STRING, Literal: result.String(), Position: start}
}

// TemplateTokenizer reads a back-quoted template. The literal keeps the
// `${...}` segments verbatim; the parser splits and parses them.
type TemplateTokenizer struct {
	lexer *Lexer
}

func NewTemplateTokenizer(lexer *Lexer) *TemplateTokenizer {
	return &TemplateTokenizer{lexer: lexer}
}

func (t *TemplateTokenizer) NextToken() token.Token {
	var result strings.Builder
	start := t.lexer.pos()
	t.lexer.readChar() // opening back quote

	depth := 0
	for {
		ch := t.lexer.ch
		switch {
		case ch == 0:
			return token.Token{Type: token.ILLEGAL, Literal: "unterminated template string", Position: start}
		case ch == '`' && depth == 0:
			t.lexer.readChar()
			return token.Token{Type: token.TEMPLATE, Literal: result.String(), Position: start}
		case ch == '\\' && depth == 0:
			t.lexer.readChar()
			if t.lexer.ch == '$' || t.lexer.ch == '`' {
				// escaped markers survive as literal text
				result.WriteRune('\\')
				result.WriteRune(t.lexer.ch)
			} else {
				result.WriteString(unescape(t.lexer.ch))
			}
		case ch == '$' && t.lexer.peekChar() == '{':
			depth++
			result.WriteRune(ch)
			t.lexer.readChar()
			result.WriteRune(t.lexer.ch)
		case ch == '{' && depth > 0:
			depth++
			result.WriteRune(ch)
		case ch == '}' && depth > 0:
			depth--
			result.WriteRune(ch)
		default:
			result.WriteRune(ch)
		}
		t.lexer.readChar()
	}
}

func unescape(ch rune) string {
	switch ch {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case '\\', '\'', '"', '`':
		return string(ch)
	default:
		return "\\" + string(ch)
	}
}
