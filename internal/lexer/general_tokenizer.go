package lexer

import (
	"mika/internal/token"
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

	start := g.lexer.pos()

	switch g.lexer.ch {
	case '=':
		tok = g.lexer.handleCompoundToken2(token.ASSIGN, '=', token.EQ, '>', token.FAT_ARROW)
	case '+':
		tok = g.lexer.handleCompoundToken2(token.PLUS, '+', token.INCREMENT, '=', token.PLUS_ASSIGN)
	case '-':
		tok = g.lexer.handleCompoundToken2(token.MINUS, '-', token.DECREMENT, '=', token.MINUS_ASSIGN)
	case '!':
		tok = g.lexer.handleCompoundToken(token.BANG, '=', token.NOT_EQ)
	case '*':
		tok = g.lexer.handleCompoundToken(token.ASTERISK, '*', token.POWER)
	case '/':
		tok = newToken(token.SLASH, g.lexer.ch, start)
	case '%':
		tok = newToken(token.PERCENT, g.lexer.ch, start)
	case '@':
		tok = newToken(token.AT, g.lexer.ch, start)
	case '&':
		tok = g.lexer.handleCompoundToken(token.ILLEGAL, '&', token.AND)
	case '|':
		tok = g.lexer.handleCompoundToken2(token.PIPE, '|', token.OR, '>', token.PIPELINE)
	case '<':
		tok = g.lexer.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		tok = g.lexer.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case '?':
		tok = g.lexer.handleCompoundToken2(token.QUESTION, '.', token.OPTIONAL_CHAIN, '?', token.NULL_COALESCE)
	case ';':
		tok = newToken(token.SEMICOLON, g.lexer.ch, start)
	case ':':
		tok = newToken(token.COLON, g.lexer.ch, start)
	case ',':
		tok = newToken(token.COMMA, g.lexer.ch, start)
	case '.':
		if g.lexer.peekChar() == '.' && g.lexer.peekTwoChars() == '.' {
			tok = token.Token{Type: token.ELLIPSIS, Literal: "...", Position: start}
			g.lexer.readChar()
			g.lexer.readChar()
		} else {
			tok = newToken(token.PERIOD, g.lexer.ch, start)
		}
	case '{':
		tok = newToken(token.LBRACE, g.lexer.ch, start)
	case '}':
		tok = newToken(token.RBRACE, g.lexer.ch, start)
	case '(':
		tok = newToken(token.LPAREN, g.lexer.ch, start)
	case ')':
		tok = newToken(token.RPAREN, g.lexer.ch, start)
	case '[':
		tok = newToken(token.LBRACKET, g.lexer.ch, start)
	case ']':
		tok = newToken(token.RBRACKET, g.lexer.ch, start)
	case '"', '\'':
		return NewStringTokenizer(g.lexer, g.lexer.ch).NextToken()
	case '`':
		return NewTemplateTokenizer(g.lexer).NextToken()
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Position = start
		return tok
	default:
		if isLetter(g.lexer.ch) {
			tok.Literal = g.lexer.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Position = start
			return tok
		} else if isDigit(g.lexer.ch) {
			tok.Type = token.NUMBER
			tok.Literal = g.lexer.readNumber()
			tok.Position = start
			return tok
		}
		tok = newToken(token.ILLEGAL, g.lexer.ch, start)
	}

	g.lexer.readChar()
	return tok
}
