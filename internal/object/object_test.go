package object

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func num(v float64) *Number  { return &Number{Value: v} }
func str(v string) *String   { return &String{Value: v} }
func list(e ...Object) *List { return &List{Elements: e} }

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		in   Object
		want bool
	}{
		{NULL, false},
		{UNDEFINED, false},
		{FALSE, false},
		{TRUE, true},
		{num(0), true},
		{str(""), true},
		{list(), true},
	}
	for _, tt := range tests {
		if got := IsTruthy(tt.in); got != tt.want {
			t.Errorf("IsTruthy(%s) = %v, want %v", tt.in.Inspect(), got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	inst := NewInstance(NewClass("A", nil))
	m1 := NewMap()
	m1.Pairs["a"] = num(1)
	m2 := NewMap()
	m2.Pairs["a"] = num(1)

	tests := []struct {
		a, b Object
		want bool
	}{
		{num(1), num(1), true},
		{num(1), str("1"), false},
		{str("a"), str("a"), true},
		{NULL, NULL, true},
		{NULL, UNDEFINED, false},
		{list(num(1), str("x")), list(num(1), str("x")), true},
		{list(num(1)), list(num(2)), false},
		{m1, m2, true},
		{inst, inst, true},
		{inst, NewInstance(inst.Class), false},
	}
	for i, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("case %d: Equal(%s, %s) = %v, want %v", i, tt.a.Inspect(), tt.b.Inspect(), got, tt.want)
		}
	}
}

func TestInspect(t *testing.T) {
	obj := NewInstance(ObjectClass)
	obj.Fields["b"] = str("x")
	obj.Fields["a"] = num(1.5)
	point := NewInstance(NewClass("Point", nil))
	point.Fields["x"] = num(1)
	named := NewInstance(NewClass(ObjectClassName, nil))
	named.Fields["x"] = num(2)

	tests := []struct {
		in   Object
		want string
	}{
		{num(3), "3"},
		{num(-2.5), "-2.5"},
		{num(1e21), "1e+21"},
		{list(num(1), str("a"), NULL), `[1, "a", null]`},
		{obj, `{a: 1.5, b: "x"}`},
		{point, "Point instance = {x: 1}"},
		{named, "Object instance = {x: 2}"},
		{IterResult(num(1), false), "{done: false, value: 1}"},
		{&Builtin{Name: "clock"}, "<native fn clock>"},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, tt.in.Inspect()); diff != "" {
			t.Errorf("Inspect mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestTypeName(t *testing.T) {
	got := []string{
		TypeName(num(1)), TypeName(str("")), TypeName(TRUE), TypeName(list()),
		TypeName(NewMap()), TypeName(NULL), TypeName(UNDEFINED),
		TypeName(&Builtin{}), TypeName(NewClass("A", nil)),
		TypeName(NewInstance(NewClass("A", nil))),
	}
	want := []string{
		"Number", "String", "Boolean", "Array",
		"Object", "null", "undefined",
		"Function", "Class",
		"A",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TypeName mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvironmentChain(t *testing.T) {
	global := NewEnvironment()
	global.Define("x", num(1))
	inner := NewEnclosedEnvironment(NewEnclosedEnvironment(global))
	inner.Define("y", num(2))

	v, err := inner.Get("x")
	require.NoError(t, err)
	require.True(t, Equal(num(1), v))

	v, err = inner.GetAt(2, "x")
	require.NoError(t, err)
	require.True(t, Equal(num(1), v))

	require.NoError(t, inner.Assign("x", num(5)))
	v, _ = global.Get("x")
	require.True(t, Equal(num(5), v))

	err = inner.Assign("missing", num(1))
	require.True(t, IsKind(err, UndefinedBinding))
	require.False(t, global.Has("missing"))

	_, err = inner.GetAt(1, "x")
	require.True(t, IsKind(err, UndefinedBinding))

	require.NoError(t, inner.AssignAt(2, "x", num(7)))
	v, _ = global.GetLocal("x")
	require.True(t, Equal(num(7), v))

	require.Equal(t, 2, inner.Depth())
	require.Nil(t, inner.Ancestor(3))
}

func TestEnvironmentLookup(t *testing.T) {
	global := NewEnvironment()
	global.Define("x", num(1))
	env := global
	for i := 0; i < 5; i++ {
		env = NewEnclosedEnvironment(env)
	}

	found, ok := env.Lookup("x", 5)
	require.True(t, ok)
	require.Same(t, global, found)

	_, ok = env.Lookup("x", 4)
	require.False(t, ok)
}

func TestShadowing(t *testing.T) {
	global := NewEnvironment()
	global.Define("x", num(1))
	block := NewEnclosedEnvironment(global)
	block.Define("x", num(2))

	v, _ := block.Get("x")
	require.True(t, Equal(num(2), v))
	v, _ = global.Get("x")
	require.True(t, Equal(num(1), v))
}

func TestClassLookup(t *testing.T) {
	base := NewClass("A", nil)
	base.Methods["m"] = &Function{Name: "m"}
	base.Methods["init"] = &Function{Name: "init"}
	derived := NewClass("B", base)
	derived.Methods["n"] = &Function{Name: "n"}

	require.Same(t, base.Methods["m"], derived.FindMethod("m"))
	require.Nil(t, derived.FindMethod("missing"))
	require.True(t, derived.IsSubclassOf(base))
	require.False(t, base.IsSubclassOf(derived))
	require.Equal(t, 0, derived.Arity())

	inst := NewInstance(derived)
	bound := inst.Method("m")
	require.NotNil(t, bound)
	this, err := bound.Env.Get("this")
	require.NoError(t, err)
	require.Same(t, inst, this)
	require.True(t, inst.HasMember("n"))
	require.False(t, inst.HasMember("zzz"))
}

func TestRuntimeErrorFormatting(t *testing.T) {
	err := NewArityError("f", 2, 1)
	require.Equal(t, "ArityError: f expected 2 arguments but got 1.", err.Error())

	thrown := NewThrow(str("boom"))
	require.True(t, Equal(str("boom"), thrown.Value()))
	require.True(t, IsKind(thrown, ThrowError))
}
