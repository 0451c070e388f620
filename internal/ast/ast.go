package ast

import (
	"bytes"
	"mika/internal/token"
	"strconv"
	"strings"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Parameters

type ParameterKind int

const (
	PositionalParam ParameterKind = iota
	RestParam                     // *args
	KeywordsParam                 // **kwargs
)

type Parameter struct {
	Token    token.Token
	Name     *Identifier
	TypeName string
	Default  Expression
	Kind     ParameterKind
}

func (p *Parameter) String() string {
	var out bytes.Buffer
	switch p.Kind {
	case RestParam:
		out.WriteString("*")
	case KeywordsParam:
		out.WriteString("**")
	}
	out.WriteString(p.Name.Value)
	if p.TypeName != "" {
		out.WriteString(": " + p.TypeName)
	}
	if p.Default != nil {
		out.WriteString(" = " + p.Default.String())
	}
	return out.String()
}

func paramList(params []*Parameter) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Statements

type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String() + ";"
	}
	return ""
}

type PrintStatement struct {
	Token   token.Token // print or puts
	Value   Expression
	Newline bool
}

func (ps *PrintStatement) statementNode()       {}
func (ps *PrintStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PrintStatement) String() string {
	return ps.Token.Literal + " " + ps.Value.String() + ";"
}

type VarStatement struct {
	Token    token.Token // the token.VAR token
	Name     *Identifier
	TypeName string
	Value    Expression
}

func (vs *VarStatement) statementNode()       {}
func (vs *VarStatement) TokenLiteral() string { return vs.Token.Literal }
func (vs *VarStatement) String() string {
	var out bytes.Buffer
	out.WriteString("var " + vs.Name.Value)
	if vs.TypeName != "" {
		out.WriteString(": " + vs.TypeName)
	}
	if vs.Value != nil {
		out.WriteString(" = " + vs.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

type DestructureField struct {
	Name    *Identifier
	Default Expression
}

// DestructureStatement is `var {a, b = 1} = value;`
type DestructureStatement struct {
	Token  token.Token
	Fields []*DestructureField
	Value  Expression
}

func (ds *DestructureStatement) statementNode()       {}
func (ds *DestructureStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DestructureStatement) String() string {
	parts := make([]string, 0, len(ds.Fields))
	for _, f := range ds.Fields {
		if f.Default != nil {
			parts = append(parts, f.Name.Value+" = "+f.Default.String())
		} else {
			parts = append(parts, f.Name.Value)
		}
	}
	return "var {" + strings.Join(parts, ", ") + "} = " + ds.Value.String() + ";"
}

type BlockStatement struct {
	Token      token.Token // the { token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence Statement
	Alternative Statement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	out := "if (" + is.Condition.String() + ") " + is.Consequence.String()
	if is.Alternative != nil {
		out += " else " + is.Alternative.String()
	}
	return out
}

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      Statement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Condition.String() + ") " + ws.Body.String()
}

// ForStatement is the classic three-clause loop. Any clause may be nil.
type ForStatement struct {
	Token     token.Token
	Init      Statement
	Condition Expression
	Increment Expression
	Body      Statement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	if fs.Init != nil {
		out.WriteString(fs.Init.String())
	} else {
		out.WriteString(";")
	}
	if fs.Condition != nil {
		out.WriteString(" " + fs.Condition.String())
	}
	out.WriteString(";")
	if fs.Increment != nil {
		out.WriteString(" " + fs.Increment.String())
	}
	out.WriteString(") " + fs.Body.String())
	return out.String()
}

type ForInStatement struct {
	Token    token.Token
	Name     *Identifier
	Iterable Expression
	Body     Statement
}

func (fs *ForInStatement) statementNode()       {}
func (fs *ForInStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForInStatement) String() string {
	return "for (var " + fs.Name.Value + " in " + fs.Iterable.String() + ") " + fs.Body.String()
}

type FunctionStatement struct {
	Token      token.Token // the fun token, or the method name
	Name       *Identifier
	Decorators []Expression
	Function   *FunctionLiteral
}

func (fs *FunctionStatement) statementNode()       {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *FunctionStatement) String() string {
	var out bytes.Buffer
	for _, d := range fs.Decorators {
		out.WriteString("@" + d.String() + " ")
	}
	out.WriteString("fun " + fs.Name.Value + fs.Function.signature() + " " + fs.Function.Body.String())
	return out.String()
}

type AccessorKind int

const (
	Getter AccessorKind = iota
	Setter
)

type Accessor struct {
	Token    token.Token
	Kind     AccessorKind
	Name     string
	Function *FunctionLiteral
}

func (a *Accessor) String() string {
	kw := "get "
	if a.Kind == Setter {
		kw = "set "
	}
	return kw + a.Name + a.Function.signature() + " " + a.Function.Body.String()
}

type ClassStatement struct {
	Token      token.Token
	Name       *Identifier
	Superclass *Identifier
	Interfaces []*Identifier
	Methods    []*FunctionStatement
	Accessors  []*Accessor
	IsAbstract bool
}

func (cs *ClassStatement) statementNode()       {}
func (cs *ClassStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ClassStatement) String() string {
	var out bytes.Buffer
	if cs.IsAbstract {
		out.WriteString("abstract ")
	}
	out.WriteString("class " + cs.Name.Value)
	if cs.Superclass != nil {
		out.WriteString(" < " + cs.Superclass.Value)
	}
	if len(cs.Interfaces) > 0 {
		names := make([]string, 0, len(cs.Interfaces))
		for _, i := range cs.Interfaces {
			names = append(names, i.Value)
		}
		out.WriteString(" > " + strings.Join(names, ", "))
	}
	out.WriteString(" { ")
	for _, m := range cs.Methods {
		out.WriteString(m.Name.Value + m.Function.signature() + " " + m.Function.Body.String() + " ")
	}
	for _, a := range cs.Accessors {
		out.WriteString(a.String() + " ")
	}
	out.WriteString("}")
	return out.String()
}

type InterfaceMethod struct {
	Name       *Identifier
	Parameters []*Parameter
	ReturnType string
}

type InterfaceStatement struct {
	Token   token.Token
	Name    *Identifier
	Methods []*InterfaceMethod
}

func (is *InterfaceStatement) statementNode()       {}
func (is *InterfaceStatement) TokenLiteral() string { return is.Token.Literal }
func (is *InterfaceStatement) String() string {
	var out bytes.Buffer
	out.WriteString("interface " + is.Name.Value + " { ")
	for _, m := range is.Methods {
		out.WriteString(m.Name.Value + paramList(m.Parameters))
		if m.ReturnType != "" {
			out.WriteString(": " + m.ReturnType)
		}
		out.WriteString("; ")
	}
	out.WriteString("}")
	return out.String()
}

type TypeField struct {
	Name     *Identifier
	TypeName string
}

// TypeStatement declares a structural shape: `type Point = {x: number, y};`
type TypeStatement struct {
	Token  token.Token
	Name   *Identifier
	Fields []*TypeField
}

func (ts *TypeStatement) statementNode()       {}
func (ts *TypeStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TypeStatement) String() string {
	parts := make([]string, 0, len(ts.Fields))
	for _, f := range ts.Fields {
		if f.TypeName != "" {
			parts = append(parts, f.Name.Value+": "+f.TypeName)
		} else {
			parts = append(parts, f.Name.Value)
		}
	}
	return "type " + ts.Name.Value + " = {" + strings.Join(parts, ", ") + "};"
}

type ReturnStatement struct {
	Token       token.Token // the 'return' token
	ReturnValue Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue != nil {
		return "return " + rs.ReturnValue.String() + ";"
	}
	return "return;"
}

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) String() string       { return "break;" }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) String() string       { return "continue;" }

type ThrowStatement struct {
	Token token.Token
	Value Expression
}

func (ts *ThrowStatement) statementNode()       {}
func (ts *ThrowStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *ThrowStatement) String() string       { return "throw " + ts.Value.String() + ";" }

type TryStatement struct {
	Token     token.Token
	Body      *BlockStatement
	CatchName *Identifier
	Catch     *BlockStatement
}

func (ts *TryStatement) statementNode()       {}
func (ts *TryStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TryStatement) String() string {
	return "try " + ts.Body.String() + " catch (" + ts.CatchName.Value + ") " + ts.Catch.String()
}

type ImportStatement struct {
	Token token.Token
	Path  []string
	Alias string
}

func (is *ImportStatement) statementNode()       {}
func (is *ImportStatement) TokenLiteral() string { return is.Token.Literal }
func (is *ImportStatement) String() string {
	out := "import " + strings.Join(is.Path, ".")
	if is.Alias != "" {
		out += " as " + is.Alias
	}
	return out + ";"
}

// Name returns the binding an import introduces.
func (is *ImportStatement) Name() string {
	if is.Alias != "" {
		return is.Alias
	}
	return is.Path[len(is.Path)-1]
}

// Expressions

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return strconv.Quote(sl.Value) }

// TemplateLiteral parts are StringLiterals and embedded expressions, in order.
type TemplateLiteral struct {
	Token token.Token
	Parts []Expression
}

func (tl *TemplateLiteral) expressionNode()      {}
func (tl *TemplateLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TemplateLiteral) String() string {
	var out bytes.Buffer
	out.WriteString("`")
	for _, p := range tl.Parts {
		if s, ok := p.(*StringLiteral); ok {
			out.WriteString(s.Value)
		} else {
			out.WriteString("${" + p.String() + "}")
		}
	}
	out.WriteString("`")
	return out.String()
}

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) String() string       { return b.Token.Literal }

type NullLiteral struct {
	Token token.Token
}

func (n *NullLiteral) expressionNode()      {}
func (n *NullLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NullLiteral) String() string       { return "null" }

type UndefinedLiteral struct {
	Token token.Token
}

func (u *UndefinedLiteral) expressionNode()      {}
func (u *UndefinedLiteral) TokenLiteral() string { return u.Token.Literal }
func (u *UndefinedLiteral) String() string       { return "undefined" }

type SpreadExpression struct {
	Token token.Token // the ... token
	Value Expression
}

func (se *SpreadExpression) expressionNode()      {}
func (se *SpreadExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SpreadExpression) String() string       { return "..." + se.Value.String() }

type ListLiteral struct {
	Token    token.Token // the '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) String() string {
	return "[" + joinExpressions(ll.Elements) + "]"
}

// ListComprehension is `[element for name in iterable if condition]`.
type ListComprehension struct {
	Token     token.Token
	Element   Expression
	Name      *Identifier
	Iterable  Expression
	Condition Expression
}

func (lc *ListComprehension) expressionNode()      {}
func (lc *ListComprehension) TokenLiteral() string { return lc.Token.Literal }
func (lc *ListComprehension) String() string {
	out := "[" + lc.Element.String() + " for " + lc.Name.Value + " in " + lc.Iterable.String()
	if lc.Condition != nil {
		out += " if " + lc.Condition.String()
	}
	return out + "]"
}

type EntryKind int

const (
	PairEntry EntryKind = iota
	SpreadEntry
	AccessorEntry
)

type ObjectEntry struct {
	Kind     EntryKind
	Key      string
	Value    Expression
	Accessor *Accessor
}

type ObjectLiteral struct {
	Token   token.Token // the '{' token
	Entries []*ObjectEntry
}

func (ol *ObjectLiteral) expressionNode()      {}
func (ol *ObjectLiteral) TokenLiteral() string { return ol.Token.Literal }
func (ol *ObjectLiteral) String() string {
	parts := make([]string, 0, len(ol.Entries))
	for _, e := range ol.Entries {
		switch e.Kind {
		case SpreadEntry:
			parts = append(parts, "..."+e.Value.String())
		case AccessorEntry:
			parts = append(parts, e.Accessor.String())
		default:
			parts = append(parts, e.Key+": "+e.Value.String())
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type FunctionLiteral struct {
	Token       token.Token // the 'fun' token
	Name        string
	Parameters  []*Parameter
	ReturnType  string
	Body        *BlockStatement
	IsGenerator bool // set by the resolver when the body yields
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FunctionLiteral) String() string {
	return "fun" + fl.signature() + " " + fl.Body.String()
}

func (fl *FunctionLiteral) signature() string {
	out := paramList(fl.Parameters)
	if fl.ReturnType != "" {
		out += ": " + fl.ReturnType
	}
	return out
}

// LambdaExpression has either an expression body or a block body.
type LambdaExpression struct {
	Token      token.Token // the opening '|'
	Parameters []*Parameter
	Expr       Expression
	Block      *BlockStatement
}

func (le *LambdaExpression) expressionNode()      {}
func (le *LambdaExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LambdaExpression) String() string {
	params := paramList(le.Parameters)
	params = "|" + params[1:len(params)-1] + "| "
	if le.Block != nil {
		return params + le.Block.String()
	}
	return params + le.Expr.String()
}

type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. !
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	op := pe.Operator
	if op == "not" {
		op = "not "
	}
	return "(" + op + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// LogicalExpression covers the short-circuit operators: and, or, ??.
type LogicalExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (le *LogicalExpression) expressionNode()      {}
func (le *LogicalExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LogicalExpression) String() string {
	return "(" + le.Left.String() + " " + le.Operator + " " + le.Right.String() + ")"
}

// UpdateExpression is ++/-- on a variable, property or index target.
type UpdateExpression struct {
	Token    token.Token
	Operator string
	Prefix   bool
	Target   Expression
}

func (ue *UpdateExpression) expressionNode()      {}
func (ue *UpdateExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UpdateExpression) String() string {
	if ue.Prefix {
		return "(" + ue.Operator + ue.Target.String() + ")"
	}
	return "(" + ue.Target.String() + ue.Operator + ")"
}

type AssignExpression struct {
	Token    token.Token
	Name     *Identifier
	Operator string // =, += or -=
	Value    Expression
}

func (ae *AssignExpression) expressionNode()      {}
func (ae *AssignExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignExpression) String() string {
	return ae.Name.Value + " " + ae.Operator + " " + ae.Value.String()
}

type SetExpression struct {
	Token    token.Token
	Object   Expression
	Name     string
	Operator string
	Value    Expression
}

func (se *SetExpression) expressionNode()      {}
func (se *SetExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SetExpression) String() string {
	return se.Object.String() + "." + se.Name + " " + se.Operator + " " + se.Value.String()
}

type IndexSetExpression struct {
	Token    token.Token
	Object   Expression
	Index    Expression
	Operator string
	Value    Expression
}

func (is *IndexSetExpression) expressionNode()      {}
func (is *IndexSetExpression) TokenLiteral() string { return is.Token.Literal }
func (is *IndexSetExpression) String() string {
	return is.Object.String() + "[" + is.Index.String() + "] " + is.Operator + " " + is.Value.String()
}

type KeywordArgument struct {
	Name  *Identifier
	Value Expression
}

type CallExpression struct {
	Token     token.Token // The '(' token
	Function  Expression  // Identifier or FunctionLiteral
	Arguments []Expression
	Keywords  []*KeywordArgument
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	args := joinExpressions(ce.Arguments)
	for _, kw := range ce.Keywords {
		if args != "" {
			args += ", "
		}
		args += kw.Name.Value + ": " + kw.Value.String()
	}
	return ce.Function.String() + "(" + args + ")"
}

type GetExpression struct {
	Token    token.Token
	Object   Expression
	Name     string
	Optional bool // ?.
}

func (ge *GetExpression) expressionNode()      {}
func (ge *GetExpression) TokenLiteral() string { return ge.Token.Literal }
func (ge *GetExpression) String() string {
	if ge.Optional {
		return ge.Object.String() + "?." + ge.Name
	}
	return ge.Object.String() + "." + ge.Name
}

type IndexExpression struct {
	Token token.Token // The [ token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

type ThisExpression struct {
	Token token.Token
}

func (te *ThisExpression) expressionNode()      {}
func (te *ThisExpression) TokenLiteral() string { return te.Token.Literal }
func (te *ThisExpression) String() string       { return "this" }

type SuperExpression struct {
	Token  token.Token
	Method *Identifier
}

func (se *SuperExpression) expressionNode()      {}
func (se *SuperExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SuperExpression) String() string       { return "super." + se.Method.Value }

// MatchArm bodies are either an Expression or a *BlockStatement.
type MatchArm struct {
	Token   token.Token
	Pattern Expression
	Body    Node
}

type MatchExpression struct {
	Token   token.Token
	Subject Expression
	Arms    []*MatchArm
	Else    Node
}

func (me *MatchExpression) expressionNode()      {}
func (me *MatchExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MatchExpression) String() string {
	var out bytes.Buffer
	out.WriteString("match " + me.Subject.String() + " { ")
	for _, arm := range me.Arms {
		out.WriteString("when " + arm.Pattern.String() + " => " + arm.Body.String() + "; ")
	}
	if me.Else != nil {
		out.WriteString("else => " + me.Else.String() + "; ")
	}
	out.WriteString("}")
	return out.String()
}

type CaseArm struct {
	Token token.Token
	Value Expression
	Body  Node
}

type CaseExpression struct {
	Token   token.Token
	Subject Expression
	Arms    []*CaseArm
	Else    Node
}

func (ce *CaseExpression) expressionNode()      {}
func (ce *CaseExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CaseExpression) String() string {
	var out bytes.Buffer
	out.WriteString("case " + ce.Subject.String() + " { ")
	for _, arm := range ce.Arms {
		out.WriteString("when " + arm.Value.String() + " => " + arm.Body.String() + "; ")
	}
	if ce.Else != nil {
		out.WriteString("else => " + ce.Else.String() + "; ")
	}
	out.WriteString("}")
	return out.String()
}

type YieldExpression struct {
	Token token.Token
	Value Expression // may be nil
}

func (ye *YieldExpression) expressionNode()      {}
func (ye *YieldExpression) TokenLiteral() string { return ye.Token.Literal }
func (ye *YieldExpression) String() string {
	if ye.Value == nil {
		return "yield"
	}
	return "yield " + ye.Value.String()
}

// NewArrayExpression is `new number[size]`.
type NewArrayExpression struct {
	Token    token.Token
	TypeName string
	Size     Expression
}

func (na *NewArrayExpression) expressionNode()      {}
func (na *NewArrayExpression) TokenLiteral() string { return na.Token.Literal }
func (na *NewArrayExpression) String() string {
	return "new " + na.TypeName + "[" + na.Size.String() + "]"
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}
