package resolver

import (
	"mika/internal/ast"
	"mika/internal/parser"
	"testing"

	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, input string) (*ast.Program, Locals, error) {
	t.Helper()
	program, err := parser.Parse(input)
	require.NoError(t, err, input)
	locals, err := Resolve(program)
	return program, locals, err
}

func TestBlockDistances(t *testing.T) {
	program, locals, err := resolve(t, `{ var a = 1; { print a; } }`)
	require.NoError(t, err)

	outer := program.Statements[0].(*ast.BlockStatement)
	inner := outer.Statements[1].(*ast.BlockStatement)
	ref := inner.Statements[0].(*ast.PrintStatement).Value

	d, ok := locals[ref]
	require.True(t, ok)
	require.Equal(t, 1, d)
}

func TestClosureDistance(t *testing.T) {
	program, locals, err := resolve(t, `fun f(x) { return fun() { return x; }; }`)
	require.NoError(t, err)

	fn := program.Statements[0].(*ast.FunctionStatement).Function
	inner := fn.Body.Statements[0].(*ast.ReturnStatement).ReturnValue.(*ast.FunctionLiteral)
	ref := inner.Body.Statements[0].(*ast.ReturnStatement).ReturnValue

	require.Equal(t, 1, locals[ref])
}

func TestGlobalsStayUnannotated(t *testing.T) {
	program, locals, err := resolve(t, `var g = 1; fun f() { return g; }`)
	require.NoError(t, err)

	fn := program.Statements[1].(*ast.FunctionStatement).Function
	ref := fn.Body.Statements[0].(*ast.ReturnStatement).ReturnValue
	_, ok := locals[ref]
	require.False(t, ok)
}

func TestThisAndSuperDistances(t *testing.T) {
	program, locals, err := resolve(t, `
class A { m() { return 1; } }
class B < A { m() { return this; } n() { return super.m(); } }`)
	require.NoError(t, err)

	class := program.Statements[1].(*ast.ClassStatement)
	this := class.Methods[0].Function.Body.Statements[0].(*ast.ReturnStatement).ReturnValue
	call := class.Methods[1].Function.Body.Statements[0].(*ast.ReturnStatement).ReturnValue.(*ast.CallExpression)

	require.Equal(t, 1, locals[this])
	require.Equal(t, 2, locals[call.Function])
}

func TestGeneratorMarking(t *testing.T) {
	program, _, err := resolve(t, `
fun g() { if (true) { yield 1; } }
fun h() { var f = fun() { yield 1; }; return f; }`)
	require.NoError(t, err)

	g := program.Statements[0].(*ast.FunctionStatement).Function
	h := program.Statements[1].(*ast.FunctionStatement).Function
	f := h.Body.Statements[0].(*ast.VarStatement).Value.(*ast.FunctionLiteral)

	require.True(t, g.IsGenerator)
	require.False(t, h.IsGenerator)
	require.True(t, f.IsGenerator)
}

func TestMatchArmScope(t *testing.T) {
	program, locals, err := resolve(t, `fun f(v) { return match v { when [a, b] => a + b; else => 0; }; }`)
	require.NoError(t, err)

	fn := program.Statements[0].(*ast.FunctionStatement).Function
	match := fn.Body.Statements[0].(*ast.ReturnStatement).ReturnValue.(*ast.MatchExpression)
	sum := match.Arms[0].Body.(*ast.InfixExpression)

	require.Equal(t, 0, locals[sum.Left])
	require.Equal(t, 0, locals[match.Subject])
}

func TestObjectLiteralThis(t *testing.T) {
	_, _, err := resolve(t, `
var o = {
  n: 1,
  f: fun() { return this.n; },
  g: || this.n,
  get v() { return this.n; },
};`)
	require.NoError(t, err)
}

func TestResolverErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{ var a = a; }`, "in its own initializer"},
		{`{ var a = 1; var a = 2; }`, "Already a variable with name 'a'"},
		{`fun f(a, a) {}`, "Already a variable with name 'a'"},
		{`class A { m() { super.m(); } }`, "no superclass"},
		{`super.m();`, "'super' outside of a class"},
		{`print this;`, "'this' outside of a class"},
		{`var o = {a: this};`, "'this' outside of a class"},
		{`yield 1;`, "'yield' outside of a generator"},
		{`fun f() { var l = |x| yield x; }`, "'yield' outside of a generator"},
		{`var o = {get v() { yield 1; }};`, "'yield' outside of a generator"},
		{`class A { init() { yield 1; } }`, "in an initializer"},
		{`class A { init() { return 1; } }`, "return a value from an initializer"},
		{`class A < A {}`, "inherit from itself"},
		{`return 1;`, "top-level code"},
		{`break;`, "'break' outside of a loop"},
		{`while (true) { fun f() { continue; } }`, "'continue' outside of a loop"},
	}
	for _, tt := range tests {
		_, _, err := resolve(t, tt.input)
		require.Error(t, err, tt.input)
		require.Contains(t, err.Error(), tt.want, tt.input)
	}
}
