package lexer

import (
	"mika/internal/token"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF

	line   int
	column int

	currentMode Tokenizer
}

type Tokenizer interface {
	NextToken() token.Token
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.currentMode = NewGeneralTokenizer(l)
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	return l.currentMode.NextToken()
}

// Tokens drains the lexer, EOF included.
func (l *Lexer) Tokens() []token.Token {
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Column: l.column}
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	start := l.pos()
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: start}
	}
	return newToken(t, l.ch, start)
}

func (l *Lexer) handleCompoundToken2(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
	ch2 rune,
	t2 token.TokenType,
) token.Token {
	start := l.pos()
	peek := l.peekChar()
	if peek == ch1 || peek == ch2 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		typ := t1
		if peek == ch2 {
			typ = t2
		}
		return token.Token{Type: typ, Literal: literal, Position: start}
	}
	return newToken(t, l.ch, start)
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekTwoChars() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	next := l.readPosition + w
	if next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[next:])
	return r
}

// skipWhitespace also drops `//`, `#` and `/* */` comments.
func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '#' || (l.ch == '/' && l.peekChar() == '/'):
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber accepts digits with `_` separators, one fraction and an
// optional exponent. Separators are stripped from the literal.
func (l *Lexer) readNumber() string {
	var out []rune
	for isDigit(l.ch) || (l.ch == '_' && isDigit(l.peekChar())) {
		if l.ch != '_' {
			out = append(out, l.ch)
		}
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		out = append(out, l.ch)
		l.readChar()
		for isDigit(l.ch) || (l.ch == '_' && isDigit(l.peekChar())) {
			if l.ch != '_' {
				out = append(out, l.ch)
			}
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		peek := l.peekChar()
		if isDigit(peek) || ((peek == '+' || peek == '-') && isDigit(l.peekTwoChars())) {
			out = append(out, l.ch)
			l.readChar()
			out = append(out, l.ch)
			l.readChar()
			for isDigit(l.ch) {
				out = append(out, l.ch)
				l.readChar()
			}
		}
	}
	return string(out)
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, position token.Position) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
