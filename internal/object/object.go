package object

import (
	"bytes"
	"io"
	"math"
	"mika/internal/ast"
	"sort"
	"strconv"
	"strings"
)

const (
	NULL_OBJ      = "NULL"
	UNDEFINED_OBJ = "UNDEFINED"
	BOOLEAN_OBJ   = "BOOLEAN"
	NUMBER_OBJ    = "NUMBER"
	STRING_OBJ    = "STRING"

	LIST_OBJ     = "LIST"
	MAP_OBJ      = "MAP"
	INSTANCE_OBJ = "INSTANCE"

	FUNCTION_OBJ  = "FUNCTION"
	LAMBDA_OBJ    = "LAMBDA"
	BUILTIN_OBJ   = "BUILTIN"
	CLASS_OBJ     = "CLASS"
	GENERATOR_OBJ = "GENERATOR"
	TYPEDEF_OBJ   = "TYPEDEF"
	INTERFACE_OBJ = "INTERFACE"
)

// Class names the runtime creates on its own.
const (
	ObjectClassName = "Object"
	ModuleClassName = "Module"
)

// VariadicArity is returned by Callable.Arity when the call site must not
// check the positional argument count.
const VariadicArity = -1

var (
	NULL      = &Null{}
	UNDEFINED = &Undefined{}
	TRUE      = &Boolean{Value: true}
	FALSE     = &Boolean{Value: false}
)

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

// Callable is anything a call expression can invoke.
type Callable interface {
	Object
	Arity() int
	Call(ctx EvaluatorContext, args []Object, kwargs map[string]Object) (Object, error)
}

// EvaluatorContext is the bridge native code uses to re-enter evaluation
// without going through source text.
type EvaluatorContext interface {
	Call(callee Object, args []Object, kwargs map[string]Object) (Object, error)
	ApplyFunction(fn *Function, args []Object, kwargs map[string]Object) (Object, error)
	ApplyLambda(fn *Lambda, args []Object, kwargs map[string]Object) (Object, error)
	Instantiate(class *Class, args []Object, kwargs map[string]Object) (Object, error)
	Resume(gen *Generator) (Object, error)
	CurrentEnv() *Environment
	Globals() *Environment
	Output() io.Writer
}

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

type Undefined struct{}

func (u *Undefined) Type() ObjectType { return UNDEFINED_OBJ }
func (u *Undefined) Inspect() string  { return "undefined" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return FormatNumber(n.Value) }

// IsIntegral reports whether the number has no fractional part.
func (n *Number) IsIntegral() bool {
	return !math.IsInf(n.Value, 0) && n.Value == math.Trunc(n.Value)
}

// FormatNumber drops the fraction of integral values: 3 not 3.0.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == math.Trunc(v) && math.Abs(v) < 1e21:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	parts := make([]string, 0, len(l.Elements))
	for _, e := range l.Elements {
		parts = append(parts, inspectNested(e))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Map is string keyed; iteration order is not part of its contract.
type Map struct {
	Pairs map[string]Object
}

func NewMap() *Map {
	return &Map{Pairs: make(map[string]Object)}
}

func (m *Map) Type() ObjectType { return MAP_OBJ }
func (m *Map) Inspect() string  { return inspectFields(m.Pairs) }

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	return sortedKeys(m.Pairs)
}

// Function is a user closure.
type Function struct {
	Name          string
	Parameters    []*ast.Parameter
	ReturnType    string
	Body          *ast.BlockStatement
	Env           *Environment
	IsInitializer bool
	IsGenerator   bool
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.Name == "" {
		return "<fn>"
	}
	return "<fn " + f.Name + ">"
}

func (f *Function) Arity() int {
	return arityOf(f.Parameters)
}

func (f *Function) Call(ctx EvaluatorContext, args []Object, kwargs map[string]Object) (Object, error) {
	return ctx.ApplyFunction(f, args, kwargs)
}

// Bind returns a copy of f whose closure is a child frame defining `this`.
func (f *Function) Bind(this Object) *Function {
	env := NewEnclosedEnvironment(f.Env)
	env.Define("this", this)
	bound := *f
	bound.Env = env
	return &bound
}

type Lambda struct {
	Parameters []*ast.Parameter
	Expr       ast.Expression
	Block      *ast.BlockStatement
	Env        *Environment
}

func (l *Lambda) Type() ObjectType { return LAMBDA_OBJ }
func (l *Lambda) Inspect() string  { return "<lambda>" }
func (l *Lambda) Arity() int       { return arityOf(l.Parameters) }

func (l *Lambda) Call(ctx EvaluatorContext, args []Object, kwargs map[string]Object) (Object, error) {
	return ctx.ApplyLambda(l, args, kwargs)
}

func (l *Lambda) Bind(this Object) *Lambda {
	env := NewEnclosedEnvironment(l.Env)
	env.Define("this", this)
	bound := *l
	bound.Env = env
	return &bound
}

// arityOf is the exact parameter count, or VariadicArity when defaults,
// *rest or **keywords make the count flexible.
func arityOf(params []*ast.Parameter) int {
	for _, p := range params {
		if p.Default != nil || p.Kind != ast.PositionalParam {
			return VariadicArity
		}
	}
	return len(params)
}

type BuiltinFunction func(ctx EvaluatorContext, args []Object, kwargs map[string]Object) (Object, error)

// Builtin is a native function. Params is its fixed arity or VariadicArity.
type Builtin struct {
	Name   string
	Params int
	Fn     BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "<native fn " + b.Name + ">" }
func (b *Builtin) Arity() int       { return b.Params }
func (b *Builtin) Call(ctx EvaluatorContext, args []Object, kwargs map[string]Object) (Object, error) {
	return b.Fn(ctx, args, kwargs)
}

type TypeField struct {
	Name     string
	TypeName string
}

// TypeDef is a structural shape: a value matches when it carries every field.
type TypeDef struct {
	Name   string
	Fields []TypeField
}

func (t *TypeDef) Type() ObjectType { return TYPEDEF_OBJ }
func (t *TypeDef) Inspect() string  { return "<type " + t.Name + ">" }

func (t *TypeDef) HasField(name string) bool {
	for _, f := range t.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

type Interface struct {
	Name    string
	Methods []string
}

func (i *Interface) Type() ObjectType { return INTERFACE_OBJ }
func (i *Interface) Inspect() string  { return "<interface " + i.Name + ">" }

// GeneratorState is the private evaluation context of one generator.
type GeneratorState interface {
	Done() bool
}

// Generator is the handle returned by calling a generator function.
type Generator struct {
	Function *Function
	State    GeneratorState
}

func (g *Generator) Type() ObjectType { return GENERATOR_OBJ }
func (g *Generator) Inspect() string {
	return "<generator " + g.Function.Name + ">"
}

func (g *Generator) Done() bool { return g.State == nil || g.State.Done() }

// IterResult builds the {value, done} pair generators hand back.
func IterResult(value Object, done bool) *Map {
	m := NewMap()
	m.Pairs["value"] = value
	m.Pairs["done"] = NativeBool(done)
	return m
}

func IsTruthy(obj Object) bool {
	switch obj := obj.(type) {
	case nil, *Null, *Undefined:
		return false
	case *Boolean:
		return obj.Value
	default:
		return true
	}
}

func IsNullish(obj Object) bool {
	switch obj.(type) {
	case nil, *Null, *Undefined:
		return true
	}
	return false
}

// Equal is value equality for primitives, lists and maps, identity otherwise.
func Equal(a, b Object) bool {
	switch a := a.(type) {
	case *Number:
		b, ok := b.(*Number)
		return ok && a.Value == b.Value
	case *String:
		b, ok := b.(*String)
		return ok && a.Value == b.Value
	case *Boolean:
		b, ok := b.(*Boolean)
		return ok && a.Value == b.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *Undefined:
		_, ok := b.(*Undefined)
		return ok
	case *List:
		b, ok := b.(*List)
		if !ok || len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	case *Map:
		b, ok := b.(*Map)
		if !ok || len(a.Pairs) != len(b.Pairs) {
			return false
		}
		for k, v := range a.Pairs {
			other, ok := b.Pairs[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	}
	return a == b
}

// TypeName is the dynamic type name scripts see through typeof.
func TypeName(obj Object) string {
	switch obj := obj.(type) {
	case nil, *Null:
		return "null"
	case *Undefined:
		return "undefined"
	case *Number:
		return "Number"
	case *String:
		return "String"
	case *Boolean:
		return "Boolean"
	case *List:
		return "Array"
	case *Map:
		return "Object"
	case *Instance:
		return obj.Class.Name
	case *Class:
		return "Class"
	case *Generator:
		return "Generator"
	case *TypeDef:
		return "Type"
	case *Interface:
		return "Interface"
	case Callable:
		return "Function"
	}
	return string(obj.Type())
}

func inspectNested(obj Object) string {
	if s, ok := obj.(*String); ok {
		return strconv.Quote(s.Value)
	}
	return obj.Inspect()
}

func inspectFields(fields map[string]Object) string {
	var out bytes.Buffer
	out.WriteString("{")
	for i, k := range sortedKeys(fields) {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(k + ": " + inspectNested(fields[k]))
	}
	out.WriteString("}")
	return out.String()
}

func sortedKeys(m map[string]Object) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ForeignHandle is a host value that owns its member access and calls.
// The evaluator hands Get, Set and Call on such values straight to it.
type ForeignHandle interface {
	Object
	GetMember(name string) (Object, error)
	SetMember(name string, value Object) error
	Invoke(ctx EvaluatorContext, args []Object, kwargs map[string]Object) (Object, error)
}
