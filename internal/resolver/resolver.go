// Package resolver computes lexical distances for variable, this and super
// references before evaluation and rejects misplaced declarations.
package resolver

import (
	"fmt"
	"log/slog"
	"mika/internal/ast"
	"mika/internal/token"
	"strings"
)

type functionKind int

const (
	noFunction functionKind = iota
	plainFunction
	methodFunction
	initializerFunction
	lambdaFunction
	accessorFunction
)

type classKind int

const (
	noClass classKind = iota
	plainClass
	subClass
)

// Locals maps a reference expression to the number of frames between the
// frame it is evaluated in and the frame that declares it. Keys are node
// identities.
type Locals map[ast.Expression]int

// Errors collects every problem found in one pass.
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, "\n")
}

type Resolver struct {
	scopes []map[string]bool
	locals Locals
	errors Errors

	currentFunction functionKind
	currentClass    classKind
	objectDepth     int
	loopDepth       int
	// functions tracks the innermost enclosing fun literal, nil for lambdas
	// and accessors, so a yield can mark its owner as a generator.
	functions []*ast.FunctionLiteral
}

func New() *Resolver {
	return &Resolver{locals: make(Locals)}
}

// Resolve walks program and returns the distance table.
func Resolve(program *ast.Program) (Locals, error) {
	r := New()
	r.ResolveProgram(program)
	if len(r.errors) > 0 {
		return r.locals, r.errors
	}
	return r.locals, nil
}

func (r *Resolver) ResolveProgram(program *ast.Program) {
	r.resolveStatements(program.Statements)
	slog.Debug("resolved program",
		slog.Int("locals", len(r.locals)),
		slog.Int("errors", len(r.errors)))
}

func (r *Resolver) Locals() Locals { return r.locals }
func (r *Resolver) Errors() Errors { return r.errors }

func (r *Resolver) addError(pos token.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	r.errors = append(r.errors, fmt.Sprintf("[%3d:%2d] %s", pos.Line, pos.Column, msg))
}

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]bool))
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) declare(name *ast.Identifier) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, ok := scope[name.Value]; ok {
		r.addError(name.Token.Position, "Already a variable with name '%s' in this scope.", name.Value)
	}
	scope[name.Value] = false
}

func (r *Resolver) define(name string) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name] = true
}

func (r *Resolver) declareAndDefine(name *ast.Identifier) {
	r.declare(name)
	r.define(name.Value)
}

// resolveLocal records the distance of the innermost scope declaring name.
// Names not found stay unannotated and are looked up dynamically.
func (r *Resolver) resolveLocal(expr ast.Expression, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *Resolver) resolveStatements(statements []ast.Statement) {
	for _, stmt := range statements {
		r.resolveStatement(stmt)
	}
}

func (r *Resolver) resolveStatement(stmt ast.Statement) {
	switch stmt := stmt.(type) {
	case nil:
	case *ast.ExpressionStatement:
		r.resolveExpression(stmt.Expression)
	case *ast.PrintStatement:
		r.resolveExpression(stmt.Value)
	case *ast.VarStatement:
		r.declare(stmt.Name)
		r.resolveExpression(stmt.Value)
		r.define(stmt.Name.Value)
	case *ast.DestructureStatement:
		r.resolveExpression(stmt.Value)
		for _, field := range stmt.Fields {
			r.resolveExpression(field.Default)
			r.declareAndDefine(field.Name)
		}
	case *ast.BlockStatement:
		r.resolveBlock(stmt)
	case *ast.IfStatement:
		r.resolveExpression(stmt.Condition)
		r.resolveStatement(stmt.Consequence)
		r.resolveStatement(stmt.Alternative)
	case *ast.WhileStatement:
		r.resolveExpression(stmt.Condition)
		r.resolveLoopBody(stmt.Body)
	case *ast.ForStatement:
		r.beginScope()
		r.resolveStatement(stmt.Init)
		r.resolveExpression(stmt.Condition)
		r.resolveExpression(stmt.Increment)
		r.resolveLoopBody(stmt.Body)
		r.endScope()
	case *ast.ForInStatement:
		r.resolveExpression(stmt.Iterable)
		r.beginScope()
		r.declareAndDefine(stmt.Name)
		r.resolveLoopBody(stmt.Body)
		r.endScope()
	case *ast.FunctionStatement:
		r.declareAndDefine(stmt.Name)
		for _, decorator := range stmt.Decorators {
			r.resolveExpression(decorator)
		}
		r.resolveFunction(stmt.Function, plainFunction)
	case *ast.ClassStatement:
		r.resolveClass(stmt)
	case *ast.InterfaceStatement:
		r.declareAndDefine(stmt.Name)
	case *ast.TypeStatement:
		r.declareAndDefine(stmt.Name)
	case *ast.ReturnStatement:
		r.resolveReturn(stmt)
	case *ast.BreakStatement:
		if r.loopDepth == 0 {
			r.addError(stmt.Token.Position, "Can't use 'break' outside of a loop.")
		}
	case *ast.ContinueStatement:
		if r.loopDepth == 0 {
			r.addError(stmt.Token.Position, "Can't use 'continue' outside of a loop.")
		}
	case *ast.ThrowStatement:
		r.resolveExpression(stmt.Value)
	case *ast.TryStatement:
		r.resolveBlock(stmt.Body)
		r.beginScope()
		r.declareAndDefine(stmt.CatchName)
		r.resolveStatements(stmt.Catch.Statements)
		r.endScope()
	case *ast.ImportStatement:
		r.define(stmt.Name())
	default:
		r.addError(token.Position{}, "unsupported statement %T", stmt)
	}
}

func (r *Resolver) resolveBlock(block *ast.BlockStatement) {
	r.beginScope()
	r.resolveStatements(block.Statements)
	r.endScope()
}

func (r *Resolver) resolveLoopBody(body ast.Statement) {
	r.loopDepth++
	r.resolveStatement(body)
	r.loopDepth--
}

func (r *Resolver) resolveReturn(stmt *ast.ReturnStatement) {
	if r.currentFunction == noFunction {
		r.addError(stmt.Token.Position, "Can't return from top-level code.")
	}
	if stmt.ReturnValue != nil {
		if r.currentFunction == initializerFunction {
			r.addError(stmt.Token.Position, "Can't return a value from an initializer.")
		}
		r.resolveExpression(stmt.ReturnValue)
	}
}

func (r *Resolver) resolveClass(stmt *ast.ClassStatement) {
	enclosingClass := r.currentClass
	r.currentClass = plainClass
	defer func() { r.currentClass = enclosingClass }()

	r.declareAndDefine(stmt.Name)

	if stmt.Superclass != nil {
		if stmt.Superclass.Value == stmt.Name.Value {
			r.addError(stmt.Superclass.Token.Position, "A class can't inherit from itself.")
		}
		r.currentClass = subClass
		r.resolveExpression(stmt.Superclass)
	}
	for _, iface := range stmt.Interfaces {
		r.resolveExpression(iface)
	}
	for _, method := range stmt.Methods {
		for _, decorator := range method.Decorators {
			r.resolveExpression(decorator)
		}
	}

	if stmt.Superclass != nil {
		r.beginScope()
		r.define("super")
	}
	r.beginScope()
	r.define("this")

	for _, method := range stmt.Methods {
		kind := methodFunction
		if method.Name.Value == "init" {
			kind = initializerFunction
		}
		r.resolveFunction(method.Function, kind)
	}
	for _, accessor := range stmt.Accessors {
		r.resolveFunction(accessor.Function, accessorFunction)
	}

	r.endScope()
	if stmt.Superclass != nil {
		r.endScope()
	}
}

func (r *Resolver) resolveParameters(params []*ast.Parameter) {
	for _, param := range params {
		r.resolveExpression(param.Default)
		r.declareAndDefine(param.Name)
	}
}

func (r *Resolver) resolveFunction(fn *ast.FunctionLiteral, kind functionKind) {
	enclosingFunction := r.currentFunction
	enclosingLoop := r.loopDepth
	r.currentFunction = kind
	r.loopDepth = 0
	if kind == accessorFunction {
		r.functions = append(r.functions, nil)
	} else {
		r.functions = append(r.functions, fn)
	}

	r.beginScope()
	r.resolveParameters(fn.Parameters)
	r.resolveStatements(fn.Body.Statements)
	r.endScope()

	r.functions = r.functions[:len(r.functions)-1]
	r.currentFunction = enclosingFunction
	r.loopDepth = enclosingLoop
}

func (r *Resolver) resolveLambda(lambda *ast.LambdaExpression) {
	enclosingFunction := r.currentFunction
	enclosingLoop := r.loopDepth
	r.currentFunction = lambdaFunction
	r.loopDepth = 0
	r.functions = append(r.functions, nil)

	r.beginScope()
	r.resolveParameters(lambda.Parameters)
	if lambda.Block != nil {
		r.resolveStatements(lambda.Block.Statements)
	} else {
		r.resolveExpression(lambda.Expr)
	}
	r.endScope()

	r.functions = r.functions[:len(r.functions)-1]
	r.currentFunction = enclosingFunction
	r.loopDepth = enclosingLoop
}

// resolveBound resolves a function value that the evaluator binds to an
// object literal, inside the frame that defines `this`.
func (r *Resolver) resolveBound(resolve func()) {
	r.objectDepth++
	r.beginScope()
	r.define("this")
	resolve()
	r.endScope()
	r.objectDepth--
}

func (r *Resolver) resolveExpression(expr ast.Expression) {
	switch expr := expr.(type) {
	case nil:
	case *ast.Identifier:
		if len(r.scopes) > 0 {
			if defined, ok := r.scopes[len(r.scopes)-1][expr.Value]; ok && !defined {
				r.addError(expr.Token.Position, "Can't read local variable '%s' in its own initializer.", expr.Value)
			}
		}
		r.resolveLocal(expr, expr.Value)
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BooleanLiteral,
		*ast.NullLiteral, *ast.UndefinedLiteral:
	case *ast.TemplateLiteral:
		for _, part := range expr.Parts {
			r.resolveExpression(part)
		}
	case *ast.SpreadExpression:
		r.resolveExpression(expr.Value)
	case *ast.ListLiteral:
		for _, el := range expr.Elements {
			r.resolveExpression(el)
		}
	case *ast.ListComprehension:
		r.resolveExpression(expr.Iterable)
		r.beginScope()
		r.declareAndDefine(expr.Name)
		r.resolveExpression(expr.Condition)
		r.resolveExpression(expr.Element)
		r.endScope()
	case *ast.ObjectLiteral:
		r.resolveObjectLiteral(expr)
	case *ast.FunctionLiteral:
		r.resolveFunction(expr, plainFunction)
	case *ast.LambdaExpression:
		r.resolveLambda(expr)
	case *ast.PrefixExpression:
		r.resolveExpression(expr.Right)
	case *ast.InfixExpression:
		r.resolveExpression(expr.Left)
		r.resolveExpression(expr.Right)
	case *ast.LogicalExpression:
		r.resolveExpression(expr.Left)
		r.resolveExpression(expr.Right)
	case *ast.UpdateExpression:
		r.resolveExpression(expr.Target)
	case *ast.AssignExpression:
		r.resolveExpression(expr.Value)
		r.resolveLocal(expr, expr.Name.Value)
	case *ast.SetExpression:
		r.resolveExpression(expr.Value)
		r.resolveExpression(expr.Object)
	case *ast.IndexSetExpression:
		r.resolveExpression(expr.Object)
		r.resolveExpression(expr.Index)
		r.resolveExpression(expr.Value)
	case *ast.CallExpression:
		r.resolveExpression(expr.Function)
		for _, arg := range expr.Arguments {
			r.resolveExpression(arg)
		}
		for _, kw := range expr.Keywords {
			r.resolveExpression(kw.Value)
		}
	case *ast.GetExpression:
		r.resolveExpression(expr.Object)
	case *ast.IndexExpression:
		r.resolveExpression(expr.Left)
		r.resolveExpression(expr.Index)
	case *ast.ThisExpression:
		if r.currentClass == noClass && r.objectDepth == 0 {
			r.addError(expr.Token.Position, "Can't use 'this' outside of a class.")
			return
		}
		if r.currentFunction == noFunction {
			r.addError(expr.Token.Position, "Can't use 'this' outside of a method.")
			return
		}
		r.resolveLocal(expr, "this")
	case *ast.SuperExpression:
		switch r.currentClass {
		case noClass:
			r.addError(expr.Token.Position, "Can't use 'super' outside of a class.")
			return
		case plainClass:
			r.addError(expr.Token.Position, "Can't use 'super' in a class with no superclass.")
			return
		}
		r.resolveLocal(expr, "super")
	case *ast.MatchExpression:
		r.resolveMatch(expr)
	case *ast.CaseExpression:
		r.resolveExpression(expr.Subject)
		for _, arm := range expr.Arms {
			r.resolveExpression(arm.Value)
			r.resolveArmBody(arm.Body)
		}
		if expr.Else != nil {
			r.resolveArmBody(expr.Else)
		}
	case *ast.YieldExpression:
		r.resolveYield(expr)
	case *ast.NewArrayExpression:
		r.resolveExpression(expr.Size)
	default:
		r.addError(token.Position{}, "unsupported expression %T", expr)
	}
}

func (r *Resolver) resolveObjectLiteral(obj *ast.ObjectLiteral) {
	for _, entry := range obj.Entries {
		switch entry.Kind {
		case ast.SpreadEntry:
			r.resolveExpression(entry.Value)
		case ast.AccessorEntry:
			accessor := entry.Accessor
			r.resolveBound(func() { r.resolveFunction(accessor.Function, accessorFunction) })
		case ast.PairEntry:
			switch value := entry.Value.(type) {
			case *ast.FunctionLiteral:
				r.resolveBound(func() { r.resolveFunction(value, plainFunction) })
			case *ast.LambdaExpression:
				r.resolveBound(func() { r.resolveLambda(value) })
			default:
				r.resolveExpression(value)
			}
		}
	}
}

func (r *Resolver) resolveYield(expr *ast.YieldExpression) {
	var owner *ast.FunctionLiteral
	if len(r.functions) > 0 {
		owner = r.functions[len(r.functions)-1]
	}
	switch {
	case owner == nil || r.currentFunction == noFunction:
		r.addError(expr.Token.Position, "Can't use 'yield' outside of a generator function.")
	case r.currentFunction == initializerFunction:
		r.addError(expr.Token.Position, "Can't use 'yield' in an initializer.")
	default:
		owner.IsGenerator = true
	}
	r.resolveExpression(expr.Value)
}

// resolveMatch gives every arm its own scope holding the names its pattern
// binds, matching the frame the evaluator creates per arm.
func (r *Resolver) resolveMatch(expr *ast.MatchExpression) {
	r.resolveExpression(expr.Subject)
	for _, arm := range expr.Arms {
		r.beginScope()
		r.resolvePattern(arm.Pattern)
		r.resolveArmBody(arm.Body)
		r.endScope()
	}
	if expr.Else != nil {
		r.beginScope()
		r.resolveArmBody(expr.Else)
		r.endScope()
	}
}

func (r *Resolver) resolvePattern(pattern ast.Expression) {
	switch p := pattern.(type) {
	case *ast.Identifier:
		if p.Value != "_" {
			r.declareAndDefine(p)
		}
	case *ast.SpreadExpression:
		r.resolvePattern(p.Value)
	case *ast.ListLiteral:
		for _, el := range p.Elements {
			r.resolvePattern(el)
		}
	case *ast.ObjectLiteral:
		for _, entry := range p.Entries {
			if entry.Kind == ast.PairEntry {
				r.resolvePattern(entry.Value)
			}
		}
	default:
		r.resolveExpression(pattern)
	}
}

// resolveArmBody mirrors evaluation: block bodies get their own scope. Arms
// are expressions, so break and continue cannot cross them.
func (r *Resolver) resolveArmBody(body ast.Node) {
	enclosingLoop := r.loopDepth
	r.loopDepth = 0
	defer func() { r.loopDepth = enclosingLoop }()

	switch body := body.(type) {
	case *ast.BlockStatement:
		r.resolveBlock(body)
	case ast.Expression:
		r.resolveExpression(body)
	}
}
