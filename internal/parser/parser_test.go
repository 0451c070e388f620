package parser

import (
	"fmt"
	"mika/internal/ast"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := Parse(input)
	require.NoError(t, err)
	return program
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-a * b", "((-a) * b)"},
		{"!-a", "(!(-a))"},
		{"a + b * c", "(a + (b * c))"},
		{"a + b - c", "((a + b) - c)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a or b and c", "(a or (b and c))"},
		{"a && b || c", "((a and b) or c)"},
		{"a ?? b or c", "(a ?? (b or c))"},
		{"x in xs and y", "((x in xs) and y)"},
		{"a = b = c", "a = b = c"},
		{"a.b.c = 1 + 2", "a.b.c = (1 + 2)"},
		{"a[0] += 1", "a[0] += 1"},
		{"x |> f |> g", "g(f(x))"},
		{"x |> f(1)", "f(x, 1)"},
		{"i++ + ++j", "((i++) + (++j))"},
		{"not a == b", "((not a) == b)"},
		{"a?.b.c", "a?.b.c"},
		{"f(1, ...xs, k: 2)", "f(1, ...xs, k: 2)"},
		{"super.m(1)", "super.m(1)"},
		{"new number[3]", "new number[3]"},
		{"(a + b) * c", "((a + b) * c)"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		require.Len(t, program.Statements, 1, tt.input)
		got := strings.TrimSuffix(program.Statements[0].String(), ";")
		if got != tt.expected {
			t.Errorf("%q: expected=%q, got=%q", tt.input, tt.expected, got)
		}
	}
}

func TestFunctionParameters(t *testing.T) {
	program := parseProgram(t, `fun f(a, b: number = 2, *rest, **opts): string { return a; }`)
	stmt, ok := program.Statements[0].(*ast.FunctionStatement)
	require.True(t, ok, "expected *ast.FunctionStatement, got %T", program.Statements[0])

	type param struct {
		Name     string
		TypeName string
		Kind     ast.ParameterKind
		Default  bool
	}
	var got []param
	for _, p := range stmt.Function.Parameters {
		got = append(got, param{p.Name.Value, p.TypeName, p.Kind, p.Default != nil})
	}
	want := []param{
		{"a", "", ast.PositionalParam, false},
		{"b", "number", ast.PositionalParam, true},
		{"rest", "", ast.RestParam, false},
		{"opts", "", ast.KeywordsParam, false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "string", stmt.Function.ReturnType)
}

func TestClassStatement(t *testing.T) {
	input := `
abstract class B < A > Shape, Named {
  @logged
  init(x) { this.x = x; }
  area() { return 0; }
  get size() { return this.x; }
  set size(v) { this.x = v; }
}`
	program := parseProgram(t, input)
	class, ok := program.Statements[0].(*ast.ClassStatement)
	require.True(t, ok)

	require.True(t, class.IsAbstract)
	require.Equal(t, "B", class.Name.Value)
	require.Equal(t, "A", class.Superclass.Value)
	require.Len(t, class.Interfaces, 2)
	require.Len(t, class.Methods, 2)
	require.Len(t, class.Methods[0].Decorators, 1)
	require.Len(t, class.Accessors, 2)
	require.Equal(t, ast.Setter, class.Accessors[1].Kind)
}

func TestStatements(t *testing.T) {
	input := `
var {a, b = 2} = obj;
for (var i = 0; i < 10; i++) { continue; }
for (var x in xs) print x;
while (true) break;
try { throw "x"; } catch (e) { puts e; }
import lib.util as u;
type Point = {x: number, y};
interface Shape { area(); scale(f): number; }
if (a) b; else c;
`
	program := parseProgram(t, input)

	var kinds []string
	for _, s := range program.Statements {
		kinds = append(kinds, strings.TrimPrefix(fmt.Sprintf("%T", s), "*ast."))
	}
	want := []string{
		"DestructureStatement", "ForStatement", "ForInStatement", "WhileStatement",
		"TryStatement", "ImportStatement", "TypeStatement", "InterfaceStatement", "IfStatement",
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("statement kinds mismatch (-want +got):\n%s", diff)
	}

	imp := program.Statements[5].(*ast.ImportStatement)
	require.Equal(t, []string{"lib", "util"}, imp.Path)
	require.Equal(t, "u", imp.Name())
}

func TestExpressionsRoundTrip(t *testing.T) {
	tests := []string{
		`[x * 2 for x in xs if x > 1]`,
		`({a: 1, "b": 2, ...rest, get c() { return 1; }})`,
		`|a, b| a + b`,
		`match v { when [a, b] => a; when {x} => x; else => 0; }`,
		`case v { when 1 => "one"; else => "many"; }`,
		`fun(x) { yield x; }`,
	}
	for _, input := range tests {
		program := parseProgram(t, input)
		require.Len(t, program.Statements, 1, input)
		_, ok := program.Statements[0].(*ast.ExpressionStatement)
		require.True(t, ok, input)
	}
}

func TestTemplateLiteral(t *testing.T) {
	program := parseProgram(t, "`a ${x + 1} b ${f(`c`)}`")
	tl, ok := program.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.TemplateLiteral)
	require.True(t, ok)
	require.Len(t, tl.Parts, 4)
	require.Equal(t, "(x + 1)", tl.Parts[1].String())
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"var = 1;", "expected next token to be IDENT"},
		{"1 = 2;", "invalid assignment target"},
		{"fun f(*a, b) {}", "follows *rest"},
		{"fun f(a = 1, b) {}", "without default"},
		{"class A { 1 }", "expected method name"},
		{"{ var x = 1;", "unterminated block"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		require.Error(t, err, tt.input)
		require.Contains(t, err.Error(), tt.want, tt.input)
	}
}

func TestDumpYAML(t *testing.T) {
	program := parseProgram(t, "var x = 1 + 2;")
	out, err := DumpYAML(program)
	require.NoError(t, err)
	doc := string(out)
	for _, want := range []string{"type: Program", "type: VarStatement", "type: InfixExpression", "Name:"} {
		require.Contains(t, doc, want)
	}
}
