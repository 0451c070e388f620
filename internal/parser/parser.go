package parser

import (
	"fmt"
	"mika/internal/ast"
	"mika/internal/lexer"
	"mika/internal/token"
	"strconv"
	"strings"
)

const (
	_          int = iota
	LOWEST         //
	ASSIGN         // = += -=
	PIPELINE       // |>
	COALESCE       // ??
	LOGICAL_OR     // or ||
	LOGICAL_AND    // and &&
	MEMBERSHIP     // in
	EQUALS         // ==
	COMPARISON     // > or <
	SUM            // +
	PRODUCT        // *
	POWER          // **
	PREFIX         // -X or !X
	POSTFIX        // X++
	CALL           // myFunction(X), a.b, a[i]
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:         ASSIGN,
	token.PLUS_ASSIGN:    ASSIGN,
	token.MINUS_ASSIGN:   ASSIGN,
	token.PIPELINE:       PIPELINE,
	token.NULL_COALESCE:  COALESCE,
	token.OR:             LOGICAL_OR,
	token.AND:            LOGICAL_AND,
	token.IN:             MEMBERSHIP,
	token.EQ:             EQUALS,
	token.NOT_EQ:         EQUALS,
	token.LT:             COMPARISON,
	token.LT_EQ:          COMPARISON,
	token.GT:             COMPARISON,
	token.GT_EQ:          COMPARISON,
	token.PLUS:           SUM,
	token.MINUS:          SUM,
	token.SLASH:          PRODUCT,
	token.ASTERISK:       PRODUCT,
	token.PERCENT:        PRODUCT,
	token.POWER:          POWER,
	token.INCREMENT:      POSTFIX,
	token.DECREMENT:      POSTFIX,
	token.PERIOD:         CALL,
	token.OPTIONAL_CHAIN: CALL,
	token.LPAREN:         CALL,
	token.LBRACKET:       CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	errors []string

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// Errors is the parse failure of a whole program, one formatted message per problem.
type Errors []string

func (e Errors) Error() string {
	return "parse errors:\n\t" + strings.Join(e, "\n\t")
}

// Parse lexes and parses src in one step.
func Parse(src string) (*ast.Program, error) {
	p := New(lexer.New(src))
	program := p.ParseProgram()
	if len(p.errors) > 0 {
		return program, Errors(p.errors)
	}
	return program, nil
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []string{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TEMPLATE, p.parseTemplateLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.UNDEFINED, p.parseUndefined)
	p.registerPrefix(token.THIS, p.parseThis)
	p.registerPrefix(token.SUPER, p.parseSuper)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.INCREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.DECREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)
	p.registerPrefix(token.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(token.PIPE, p.parseLambda)
	p.registerPrefix(token.OR, p.parseLambda)
	p.registerPrefix(token.MATCH, p.parseMatchExpression)
	p.registerPrefix(token.CASE, p.parseCaseExpression)
	p.registerPrefix(token.YIELD, p.parseYieldExpression)
	p.registerPrefix(token.NEW, p.parseNewArray)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	p.registerInfix(token.PLUS, p.parseInfixExpression)
	p.registerInfix(token.MINUS, p.parseInfixExpression)
	p.registerInfix(token.SLASH, p.parseInfixExpression)
	p.registerInfix(token.ASTERISK, p.parseInfixExpression)
	p.registerInfix(token.PERCENT, p.parseInfixExpression)
	p.registerInfix(token.POWER, p.parseInfixExpression)
	p.registerInfix(token.EQ, p.parseInfixExpression)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpression)
	p.registerInfix(token.LT, p.parseInfixExpression)
	p.registerInfix(token.LT_EQ, p.parseInfixExpression)
	p.registerInfix(token.GT, p.parseInfixExpression)
	p.registerInfix(token.GT_EQ, p.parseInfixExpression)
	p.registerInfix(token.IN, p.parseInfixExpression)
	p.registerInfix(token.AND, p.parseLogicalExpression)
	p.registerInfix(token.OR, p.parseLogicalExpression)
	p.registerInfix(token.NULL_COALESCE, p.parseLogicalExpression)
	p.registerInfix(token.ASSIGN, p.parseAssignmentExpression)
	p.registerInfix(token.PLUS_ASSIGN, p.parseAssignmentExpression)
	p.registerInfix(token.MINUS_ASSIGN, p.parseAssignmentExpression)
	p.registerInfix(token.PIPELINE, p.parsePipelineExpression)
	p.registerInfix(token.INCREMENT, p.parsePostfixUpdate)
	p.registerInfix(token.DECREMENT, p.parsePostfixUpdate)
	p.registerInfix(token.PERIOD, p.parseGetExpression)
	p.registerInfix(token.OPTIONAL_CHAIN, p.parseGetExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

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

func (p *Parser) addErrorAt(pos token.Position, message string, args ...interface{}) {
	m := fmt.Sprintf(message, args...)
	p.errors = append(p.errors, fmt.Sprintf("[%3d:%2d] %s", pos.Line, pos.Column, m))
}

func (p *Parser) addError(message string, args ...interface{}) {
	p.addErrorAt(p.curToken.Position, message, args...)
}

func (p *Parser) peekError(t token.TokenType) {
	p.addErrorAt(p.peekToken.Position, "expected next token to be %s, got %s instead", t, p.peekToken.Type)
}

func (p *Parser) noPrefixParseFnError(t token.Token) {
	if t.Type == token.ILLEGAL {
		p.addError("illegal token %q", t.Literal)
		return
	}
	p.addError("no prefix parse function for %s found", t.Type)
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// expectPeekName accepts an identifier or a keyword used as a property name.
func (p *Parser) expectPeekName() bool {
	if isWord(p.peekToken) {
		p.nextToken()
		return true
	}
	p.addErrorAt(p.peekToken.Position, "expected property name, got %s instead", p.peekToken.Type)
	return false
}

func isWord(t token.Token) bool {
	return t.Type == token.IDENT || (t.Literal != "" && token.LookupIdent(t.Literal) == t.Type)
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
		} else if len(p.errors) > 0 {
			p.synchronize()
		}
		p.nextToken()
	}

	return program
}

// synchronize skips to the end of the broken statement so one mistake
// does not cascade into a wall of errors.
func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) && !p.curTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.EOF) {
		switch p.peekToken.Type {
		case token.CLASS, token.FUNCTION, token.VAR, token.FOR, token.IF, token.WHILE, token.RETURN, token.PRINT:
			return
		}
		p.nextToken()
	}
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.VAR:
		return p.parseVarStatement()
	case token.FUNCTION:
		if p.peekTokenIs(token.IDENT) {
			return p.parseFunctionStatement(nil)
		}
		return p.parseExpressionStatement()
	case token.AT:
		return p.parseDecoratedStatement()
	case token.CLASS, token.ABSTRACT:
		return p.parseClassStatement()
	case token.INTERFACE:
		return p.parseInterfaceStatement()
	case token.TYPE:
		return p.parseTypeStatement()
	case token.LBRACE:
		if block := p.parseBlockStatement(); block != nil {
			return block
		}
		return nil
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		stmt := &ast.BreakStatement{Token: p.curToken}
		p.skipSemicolon()
		return stmt
	case token.CONTINUE:
		stmt := &ast.ContinueStatement{Token: p.curToken}
		p.skipSemicolon()
		return stmt
	case token.THROW:
		return p.parseThrowStatement()
	case token.TRY:
		return p.parseTryStatement()
	case token.IMPORT:
		return p.parseImportStatement()
	case token.PRINT, token.PUTS:
		return p.parsePrintStatement()
	case token.SEMICOLON:
		return nil
	default:
		return p.parseExpressionStatement()
	}
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

func (p *Parser) parsePrintStatement() ast.Statement {
	stmt := &ast.PrintStatement{Token: p.curToken, Newline: p.curTokenIs(token.PRINT)}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	p.skipSemicolon()
	return stmt
}

func (p *Parser) parseVarStatement() ast.Statement {
	tok := p.curToken
	if p.peekTokenIs(token.LBRACE) {
		return p.parseDestructureStatement()
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt := &ast.VarStatement{Token: tok, Name: p.identifier()}
	if !p.parseVarTail(stmt) {
		return nil
	}
	p.skipSemicolon()
	return stmt
}

// parseVarTail reads the optional `: Type` and `= value` after a var name.
func (p *Parser) parseVarTail(stmt *ast.VarStatement) bool {
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return false
		}
		stmt.TypeName = p.curToken.Literal
	}
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
		return stmt.Value != nil
	}
	return true
}

func (p *Parser) parseDestructureStatement() ast.Statement {
	stmt := &ast.DestructureStatement{Token: p.curToken}
	p.nextToken() // {
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		field := &ast.DestructureField{Name: p.identifier()}
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			field.Default = p.parseExpression(LOWEST)
		}
		stmt.Fields = append(stmt.Fields, field)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RBRACE) || !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	p.skipSemicolon()
	return stmt
}

func (p *Parser) parseDecorators() []ast.Expression {
	var decorators []ast.Expression
	for p.curTokenIs(token.AT) {
		p.nextToken()
		deco := p.parseExpression(LOWEST)
		if deco == nil {
			return nil
		}
		decorators = append(decorators, deco)
		p.nextToken()
	}
	return decorators
}

func (p *Parser) parseDecoratedStatement() ast.Statement {
	decorators := p.parseDecorators()
	if decorators == nil {
		return nil
	}
	if !p.curTokenIs(token.FUNCTION) || !p.peekTokenIs(token.IDENT) {
		p.addError("decorators must precede a function declaration")
		return nil
	}
	return p.parseFunctionStatement(decorators)
}

func (p *Parser) parseFunctionStatement(decorators []ast.Expression) ast.Statement {
	tok := p.curToken
	p.nextToken()
	name := p.identifier()
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn := p.parseFunctionRest(tok, name.Value)
	if fn == nil {
		return nil
	}
	return &ast.FunctionStatement{Token: tok, Name: name, Decorators: decorators, Function: fn}
}

// parseFunctionRest parses `(params) [: Type] { body }` with curToken on `(`.
func (p *Parser) parseFunctionRest(tok token.Token, name string) *ast.FunctionLiteral {
	fn := &ast.FunctionLiteral{Token: tok, Name: name}
	params, ok := p.parseParameters(token.RPAREN)
	if !ok {
		return nil
	}
	fn.Parameters = params
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		fn.ReturnType = p.curToken.Literal
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	fn.Body = p.parseBlockStatement()
	if fn.Body == nil {
		return nil
	}
	return fn
}

// parseParameters starts on the opening delimiter and stops on end.
func (p *Parser) parseParameters(end token.TokenType) ([]*ast.Parameter, bool) {
	params := []*ast.Parameter{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return params, true
	}

	seen := map[string]bool{}
	hasRest, hasKeywords, hasDefault := false, false, false
	for {
		p.nextToken()
		param := &ast.Parameter{Token: p.curToken}
		switch p.curToken.Type {
		case token.ASTERISK:
			param.Kind = ast.RestParam
			if !p.expectPeek(token.IDENT) {
				return nil, false
			}
		case token.POWER:
			param.Kind = ast.KeywordsParam
			if !p.expectPeek(token.IDENT) {
				return nil, false
			}
		case token.IDENT:
		default:
			p.addError("expected parameter name, got %s", p.curToken.Type)
			return nil, false
		}
		param.Name = p.identifier()

		if seen[param.Name.Value] {
			p.addError("duplicate parameter %q", param.Name.Value)
		}
		seen[param.Name.Value] = true

		switch {
		case hasKeywords:
			p.addError("parameter %q follows a **keywords parameter", param.Name.Value)
		case param.Kind == ast.RestParam && hasRest:
			p.addError("only one *rest parameter is allowed")
		case param.Kind == ast.PositionalParam && hasRest:
			p.addError("positional parameter %q follows *rest", param.Name.Value)
		}
		hasRest = hasRest || param.Kind == ast.RestParam
		hasKeywords = hasKeywords || param.Kind == ast.KeywordsParam

		if param.Kind == ast.PositionalParam {
			if p.peekTokenIs(token.COLON) {
				p.nextToken()
				if !p.expectPeek(token.IDENT) {
					return nil, false
				}
				param.TypeName = p.curToken.Literal
			}
			if p.peekTokenIs(token.ASSIGN) {
				p.nextToken()
				p.nextToken()
				param.Default = p.parseExpression(ASSIGN)
				hasDefault = true
			} else if hasDefault {
				p.addError("parameter %q without default follows a defaulted parameter", param.Name.Value)
			}
		}

		params = append(params, param)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(end) {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseClassStatement() ast.Statement {
	stmt := &ast.ClassStatement{Token: p.curToken}
	if p.curTokenIs(token.ABSTRACT) {
		stmt.IsAbstract = true
		if !p.expectPeek(token.CLASS) {
			return nil
		}
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.identifier()

	if p.peekTokenIs(token.LT) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Superclass = p.identifier()
	}
	if p.peekTokenIs(token.GT) {
		p.nextToken()
		for {
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			stmt.Interfaces = append(stmt.Interfaces, p.identifier())
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()

	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.addError("unterminated class body for %s", stmt.Name.Value)
			return nil
		}
		decorators := p.parseDecorators()
		if !p.curTokenIs(token.IDENT) {
			p.addError("expected method name in class %s, got %s", stmt.Name.Value, p.curToken.Type)
			return nil
		}
		if (p.curToken.Literal == "get" || p.curToken.Literal == "set") && isWord(p.peekToken) {
			if len(decorators) > 0 {
				p.addError("accessors cannot be decorated")
			}
			accessor := p.parseAccessor()
			if accessor == nil {
				return nil
			}
			stmt.Accessors = append(stmt.Accessors, accessor)
		} else {
			tok := p.curToken
			name := p.identifier()
			if !p.expectPeek(token.LPAREN) {
				return nil
			}
			fn := p.parseFunctionRest(tok, name.Value)
			if fn == nil {
				return nil
			}
			stmt.Methods = append(stmt.Methods, &ast.FunctionStatement{
				Token: tok, Name: name, Decorators: decorators, Function: fn,
			})
		}
		p.nextToken()
	}
	return stmt
}

// parseAccessor reads `get name() {}` or `set name(v) {}` with curToken on get/set.
func (p *Parser) parseAccessor() *ast.Accessor {
	accessor := &ast.Accessor{Token: p.curToken, Kind: ast.Getter}
	if p.curToken.Literal == "set" {
		accessor.Kind = ast.Setter
	}
	p.nextToken()
	accessor.Name = p.curToken.Literal
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	accessor.Function = p.parseFunctionRest(accessor.Token, accessor.Name)
	if accessor.Function == nil {
		return nil
	}
	want := 0
	if accessor.Kind == ast.Setter {
		want = 1
	}
	if len(accessor.Function.Parameters) != want {
		p.addErrorAt(accessor.Token.Position, "%s accessor %q takes %d parameter(s)", accessor.Token.Literal, accessor.Name, want)
	}
	return accessor
}

func (p *Parser) parseInterfaceStatement() ast.Statement {
	stmt := &ast.InterfaceStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.identifier()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		method := &ast.InterfaceMethod{Name: p.identifier()}
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		params, ok := p.parseParameters(token.RPAREN)
		if !ok {
			return nil
		}
		method.Parameters = params
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			method.ReturnType = p.curToken.Literal
		}
		p.skipSemicolon()
		stmt.Methods = append(stmt.Methods, method)
	}
	p.nextToken()
	return stmt
}

func (p *Parser) parseTypeStatement() ast.Statement {
	stmt := &ast.TypeStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.identifier()
	if !p.expectPeek(token.ASSIGN) || !p.expectPeek(token.LBRACE) {
		return nil
	}
	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeekName() {
			return nil
		}
		field := &ast.TypeField{Name: p.identifier()}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			field.TypeName = p.curToken.Literal
		}
		stmt.Fields = append(stmt.Fields, field)
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

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}

	p.nextToken()

	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.addErrorAt(block.Token.Position, "unterminated block, expected }")
			return nil
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else if len(p.errors) > 0 {
			return nil
		}
		p.nextToken()
	}

	return block
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
	p.nextToken()
	stmt.Consequence = p.parseStatement()
	if stmt.Consequence == nil {
		return nil
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		p.nextToken()
		stmt.Alternative = p.parseStatement()
		if stmt.Alternative == nil {
			return nil
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
	p.nextToken()
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()

	stmt := &ast.ForStatement{Token: tok}
	switch p.curToken.Type {
	case token.SEMICOLON:
	case token.VAR:
		varTok := p.curToken
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		name := p.identifier()
		if p.peekTokenIs(token.IN) {
			return p.parseForInRest(tok, name)
		}
		init := &ast.VarStatement{Token: varTok, Name: name}
		if !p.parseVarTail(init) || !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		stmt.Init = init
	default:
		init := &ast.ExpressionStatement{Token: p.curToken, Expression: p.parseExpression(LOWEST)}
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		stmt.Init = init
	}

	if !p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		stmt.Condition = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	if !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		stmt.Increment = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseForInRest(tok token.Token, name *ast.Identifier) ast.Statement {
	stmt := &ast.ForInStatement{Token: tok, Name: name}
	p.nextToken() // in
	p.nextToken()
	stmt.Iterable = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Body = p.parseStatement()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.RBRACE) {
		p.skipSemicolon()
		return stmt
	}
	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	p.skipSemicolon()
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

func (p *Parser) parseTryStatement() ast.Statement {
	stmt := &ast.TryStatement{Token: p.curToken}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	if stmt.Body == nil {
		return nil
	}
	if !p.expectPeek(token.CATCH) || !p.expectPeek(token.LPAREN) || !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.CatchName = p.identifier()
	if !p.expectPeek(token.RPAREN) || !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Catch = p.parseBlockStatement()
	if stmt.Catch == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseImportStatement() ast.Statement {
	stmt := &ast.ImportStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Path = append(stmt.Path, p.curToken.Literal)
	for p.peekTokenIs(token.PERIOD) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Path = append(stmt.Path, p.curToken.Literal)
	}
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Alias = p.curToken.Literal
	}
	p.skipSemicolon()
	return stmt
}

// Expressions

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()

	for leftExp != nil && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
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

func (p *Parser) identifier() *ast.Identifier {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIdentifier() ast.Expression {
	return p.identifier()
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("could not parse %q as number", p.curToken.Literal)
		return nil
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNull() ast.Expression {
	return &ast.NullLiteral{Token: p.curToken}
}

func (p *Parser) parseUndefined() ast.Expression {
	return &ast.UndefinedLiteral{Token: p.curToken}
}

func (p *Parser) parseThis() ast.Expression {
	return &ast.ThisExpression{Token: p.curToken}
}

func (p *Parser) parseSuper() ast.Expression {
	expr := &ast.SuperExpression{Token: p.curToken}
	if !p.expectPeek(token.PERIOD) {
		return nil
	}
	if !p.expectPeekName() {
		return nil
	}
	expr.Method = p.identifier()
	return expr
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
	expr := &ast.UpdateExpression{Token: p.curToken, Operator: p.curToken.Literal, Prefix: true}
	p.nextToken()
	expr.Target = p.parseExpression(PREFIX)
	if !p.checkUpdateTarget(expr.Target) {
		return nil
	}
	return expr
}

func (p *Parser) parsePostfixUpdate(left ast.Expression) ast.Expression {
	expr := &ast.UpdateExpression{Token: p.curToken, Operator: p.curToken.Literal, Target: left}
	if !p.checkUpdateTarget(left) {
		return nil
	}
	return expr
}

func (p *Parser) checkUpdateTarget(target ast.Expression) bool {
	switch t := target.(type) {
	case *ast.Identifier, *ast.IndexExpression:
		return true
	case *ast.GetExpression:
		if !t.Optional {
			return true
		}
	}
	if target != nil {
		p.addError("invalid increment/decrement target %s", target.String())
	}
	return false
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	if p.curTokenIs(token.POWER) {
		precedence-- // right associative
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	expression := &ast.LogicalExpression{Token: p.curToken, Left: left}
	switch p.curToken.Type {
	case token.AND:
		expression.Operator = "and"
	case token.OR:
		expression.Operator = "or"
	default:
		expression.Operator = "??"
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseAssignmentExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	value := p.parseExpression(LOWEST) // right associative
	if value == nil {
		return nil
	}

	switch target := left.(type) {
	case *ast.Identifier:
		return &ast.AssignExpression{Token: tok, Name: target, Operator: tok.Literal, Value: value}
	case *ast.GetExpression:
		if !target.Optional {
			return &ast.SetExpression{Token: tok, Object: target.Object, Name: target.Name, Operator: tok.Literal, Value: value}
		}
	case *ast.IndexExpression:
		return &ast.IndexSetExpression{Token: tok, Object: target.Left, Index: target.Index, Operator: tok.Literal, Value: value}
	}
	p.addErrorAt(tok.Position, "invalid assignment target %s", left.String())
	return nil
}

// parsePipelineExpression rewrites `x |> f` as f(x) and `x |> f(y)` as f(x, y).
func (p *Parser) parsePipelineExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(PIPELINE)
	if right == nil {
		return nil
	}
	if call, ok := right.(*ast.CallExpression); ok {
		args := append([]ast.Expression{left}, call.Arguments...)
		return &ast.CallExpression{Token: tok, Function: call.Function, Arguments: args, Keywords: call.Keywords}
	}
	return &ast.CallExpression{Token: tok, Function: right, Arguments: []ast.Expression{left}}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseGetExpression(object ast.Expression) ast.Expression {
	expr := &ast.GetExpression{Token: p.curToken, Object: object, Optional: p.curTokenIs(token.OPTIONAL_CHAIN)}
	if !p.expectPeekName() {
		return nil
	}
	expr.Name = p.curToken.Literal
	return expr
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil || !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return exp
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: function}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return exp
	}
	for {
		p.nextToken()
		switch {
		case p.curTokenIs(token.ELLIPSIS):
			spread := &ast.SpreadExpression{Token: p.curToken}
			p.nextToken()
			spread.Value = p.parseExpression(ASSIGN)
			exp.Arguments = append(exp.Arguments, spread)
		case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON):
			kw := &ast.KeywordArgument{Name: p.identifier()}
			p.nextToken()
			p.nextToken()
			kw.Value = p.parseExpression(LOWEST)
			exp.Keywords = append(exp.Keywords, kw)
		default:
			if len(exp.Keywords) > 0 {
				p.addError("positional argument follows keyword argument")
			}
			arg := p.parseExpression(LOWEST)
			if arg == nil {
				return nil
			}
			exp.Arguments = append(exp.Arguments, arg)
		}
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseListElement() ast.Expression {
	if p.curTokenIs(token.ELLIPSIS) {
		spread := &ast.SpreadExpression{Token: p.curToken}
		p.nextToken()
		spread.Value = p.parseExpression(ASSIGN)
		if spread.Value == nil {
			return nil
		}
		return spread
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken, Elements: []ast.Expression{}}
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return list
	}
	p.nextToken()
	first := p.parseListElement()
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.FOR) {
		return p.parseListComprehension(list.Token, first)
	}
	list.Elements = append(list.Elements, first)
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACKET) {
			break
		}
		p.nextToken()
		elem := p.parseListElement()
		if elem == nil {
			return nil
		}
		list.Elements = append(list.Elements, elem)
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return list
}

func (p *Parser) parseListComprehension(tok token.Token, element ast.Expression) ast.Expression {
	comp := &ast.ListComprehension{Token: tok, Element: element}
	p.nextToken() // for
	if p.peekTokenIs(token.VAR) {
		p.nextToken()
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	comp.Name = p.identifier()
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	comp.Iterable = p.parseExpression(LOWEST)
	if p.peekTokenIs(token.IF) {
		p.nextToken()
		p.nextToken()
		comp.Condition = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return comp
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	obj := &ast.ObjectLiteral{Token: p.curToken}
	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		switch {
		case p.curTokenIs(token.ELLIPSIS):
			p.nextToken()
			value := p.parseExpression(ASSIGN)
			if value == nil {
				return nil
			}
			obj.Entries = append(obj.Entries, &ast.ObjectEntry{Kind: ast.SpreadEntry, Value: value})
		case p.curTokenIs(token.IDENT) && (p.curToken.Literal == "get" || p.curToken.Literal == "set") && isWord(p.peekToken):
			accessor := p.parseAccessor()
			if accessor == nil {
				return nil
			}
			obj.Entries = append(obj.Entries, &ast.ObjectEntry{Kind: ast.AccessorEntry, Key: accessor.Name, Accessor: accessor})
		case isWord(p.curToken) || p.curTokenIs(token.STRING) || p.curTokenIs(token.NUMBER):
			key := p.curToken.Literal
			if p.peekTokenIs(token.COLON) {
				p.nextToken()
				p.nextToken()
				value := p.parseExpression(ASSIGN)
				if value == nil {
					return nil
				}
				obj.Entries = append(obj.Entries, &ast.ObjectEntry{Kind: ast.PairEntry, Key: key, Value: value})
			} else if p.curTokenIs(token.IDENT) {
				obj.Entries = append(obj.Entries, &ast.ObjectEntry{Kind: ast.PairEntry, Key: key, Value: p.identifier()})
			} else {
				p.peekError(token.COLON)
				return nil
			}
		default:
			p.addError("expected property name, got %s", p.curToken.Type)
			return nil
		}
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return obj
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	tok := p.curToken
	name := ""
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		name = p.curToken.Literal
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn := p.parseFunctionRest(tok, name)
	if fn == nil {
		return nil
	}
	return fn
}

// parseLambda handles `|a, b| expr`, `|a| { block }` and the empty `|| expr`.
func (p *Parser) parseLambda() ast.Expression {
	lambda := &ast.LambdaExpression{Token: p.curToken}
	if p.curTokenIs(token.PIPE) {
		params, ok := p.parseParameters(token.PIPE)
		if !ok {
			return nil
		}
		lambda.Parameters = params
	} else {
		lambda.Parameters = []*ast.Parameter{}
	}
	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		lambda.Block = p.parseBlockStatement()
		if lambda.Block == nil {
			return nil
		}
		return lambda
	}
	p.nextToken()
	lambda.Expr = p.parseExpression(LOWEST)
	if lambda.Expr == nil {
		return nil
	}
	return lambda
}

// parseArmBody reads a block or a single expression after `=>`.
func (p *Parser) parseArmBody() ast.Node {
	if p.curTokenIs(token.LBRACE) {
		if block := p.parseBlockStatement(); block != nil {
			return block
		}
		return nil
	}
	if expr := p.parseExpression(LOWEST); expr != nil {
		return expr
	}
	return nil
}

func (p *Parser) skipArmSeparator() {
	if p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.COMMA) {
		p.nextToken()
	}
}

func (p *Parser) parseMatchExpression() ast.Expression {
	expr := &ast.MatchExpression{Token: p.curToken}
	p.nextToken()
	expr.Subject = p.parseExpression(LOWEST)
	if expr.Subject == nil || !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		switch p.curToken.Type {
		case token.WHEN:
			arm := &ast.MatchArm{Token: p.curToken}
			p.nextToken()
			arm.Pattern = p.parseExpression(LOWEST)
			if arm.Pattern == nil || !p.expectPeek(token.FAT_ARROW) {
				return nil
			}
			p.nextToken()
			if arm.Body = p.parseArmBody(); arm.Body == nil {
				return nil
			}
			expr.Arms = append(expr.Arms, arm)
		case token.ELSE:
			if !p.expectPeek(token.FAT_ARROW) {
				return nil
			}
			p.nextToken()
			if expr.Else = p.parseArmBody(); expr.Else == nil {
				return nil
			}
		default:
			p.addError("expected 'when' or 'else' in match, got %s", p.curToken.Type)
			return nil
		}
		p.skipArmSeparator()
		p.nextToken()
	}
	return expr
}

func (p *Parser) parseCaseExpression() ast.Expression {
	expr := &ast.CaseExpression{Token: p.curToken}
	p.nextToken()
	expr.Subject = p.parseExpression(LOWEST)
	if expr.Subject == nil || !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		switch p.curToken.Type {
		case token.WHEN:
			arm := &ast.CaseArm{Token: p.curToken}
			p.nextToken()
			arm.Value = p.parseExpression(LOWEST)
			if arm.Value == nil || !p.expectPeek(token.FAT_ARROW) {
				return nil
			}
			p.nextToken()
			if arm.Body = p.parseArmBody(); arm.Body == nil {
				return nil
			}
			expr.Arms = append(expr.Arms, arm)
		case token.ELSE:
			if !p.expectPeek(token.FAT_ARROW) {
				return nil
			}
			p.nextToken()
			if expr.Else = p.parseArmBody(); expr.Else == nil {
				return nil
			}
		default:
			p.addError("expected 'when' or 'else' in case, got %s", p.curToken.Type)
			return nil
		}
		p.skipArmSeparator()
		p.nextToken()
	}
	return expr
}

func (p *Parser) parseYieldExpression() ast.Expression {
	expr := &ast.YieldExpression{Token: p.curToken}
	switch p.peekToken.Type {
	case token.SEMICOLON, token.RPAREN, token.RBRACKET, token.RBRACE, token.COMMA, token.EOF:
		return expr
	}
	p.nextToken()
	expr.Value = p.parseExpression(LOWEST)
	if expr.Value == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseNewArray() ast.Expression {
	expr := &ast.NewArrayExpression{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expr.TypeName = p.curToken.Literal
	if !p.expectPeek(token.LBRACKET) {
		return nil
	}
	p.nextToken()
	expr.Size = p.parseExpression(LOWEST)
	if expr.Size == nil || !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
