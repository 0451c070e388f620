package parser

import (
	"mika/internal/ast"
	"mika/internal/lexer"
	"mika/internal/token"
	"strings"
)

// parseTemplateLiteral splits a raw template into text and `${...}`
// segments. Each segment is parsed as a full expression.
func (p *Parser) parseTemplateLiteral() ast.Expression {
	lit := &ast.TemplateLiteral{Token: p.curToken}
	raw := p.curToken.Literal

	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			lit.Parts = append(lit.Parts, &ast.StringLiteral{Token: lit.Token, Value: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(raw); {
		switch {
		case raw[i] == '\\' && i+1 < len(raw) && (raw[i+1] == '$' || raw[i+1] == '`'):
			text.WriteByte(raw[i+1])
			i += 2
		case raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{':
			end := closingBrace(raw, i+2)
			if end < 0 {
				p.addError("unterminated ${ in template string")
				return nil
			}
			flush()
			expr := p.parseEmbedded(raw[i+2:end])
			if expr == nil {
				return nil
			}
			lit.Parts = append(lit.Parts, expr)
			i = end + 1
		default:
			text.WriteByte(raw[i])
			i++
		}
	}
	flush()
	return lit
}

func (p *Parser) parseEmbedded(src string) ast.Expression {
	sub := New(lexer.New(src))
	if sub.curTokenIs(token.EOF) {
		p.addError("empty ${} in template string")
		return nil
	}
	expr := sub.parseExpression(LOWEST)
	if len(sub.errors) == 0 && !sub.peekTokenIs(token.EOF) {
		sub.addErrorAt(sub.peekToken.Position, "unexpected %s in template expression", sub.peekToken.Type)
	}
	for _, e := range sub.errors {
		p.addError("in template: %s", e)
	}
	if len(sub.errors) > 0 {
		return nil
	}
	return expr
}

func closingBrace(s string, from int) int {
	depth := 1
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
