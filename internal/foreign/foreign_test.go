package foreign

import (
	"errors"
	"testing"

	"mika/internal/object"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, fn object.Object, args ...object.Object) object.Object {
	t.Helper()
	b, ok := fn.(*object.Builtin)
	require.True(t, ok, "%s is not a builtin", fn.Inspect())
	val, err := b.Fn(nil, args, nil)
	require.NoError(t, err)
	return val
}

func member(t *testing.T, obj object.Object, name string) object.Object {
	t.Helper()
	switch o := obj.(type) {
	case *object.Instance:
		val, ok := o.Fields[name]
		require.True(t, ok, "missing member %s", name)
		return val
	case object.ForeignHandle:
		val, err := o.GetMember(name)
		require.NoError(t, err)
		return val
	}
	t.Fatalf("no members on %s", obj.Inspect())
	return nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	RegisterDefaults(reg)

	for _, name := range []string{"typeof", "length", "str", "keys", "Math", "String", "db"} {
		_, ok := reg.Lookup(name)
		require.True(t, ok, name)
	}
	_, ok := reg.Lookup("nope")
	require.False(t, ok)

	ns := reg.Namespace()
	require.Equal(t, RegistryClassName, ns.Class.Name)
	require.Len(t, ns.Fields, len(reg.Names()))
}

func TestCoreBuiltins(t *testing.T) {
	reg := NewRegistry()
	RegisterDefaults(reg)
	get := func(name string) object.Object {
		val, _ := reg.Lookup(name)
		return val
	}

	require.Equal(t, "Number", call(t, get("typeof"), &object.Number{Value: 1}).Inspect())
	require.Equal(t, "3", call(t, get("length"), &object.String{Value: "héy"}).Inspect())

	m := object.NewMap()
	m.Pairs["b"] = object.TRUE
	m.Pairs["a"] = object.FALSE
	require.Equal(t, `["a", "b"]`, call(t, get("keys"), m).Inspect())

	list := &object.List{Elements: []object.Object{&object.Number{Value: 3}, &object.Number{Value: 1}}}
	require.Equal(t, "[1, 3]", call(t, get("sort"), list).Inspect())
	call(t, get("push"), list, &object.Number{Value: 2})
	require.Len(t, list.Elements, 3)

	_, err := get("exit").(*object.Builtin).Fn(nil, []object.Object{&object.Number{Value: 3}}, nil)
	var exit *ExitError
	require.True(t, errors.As(err, &exit))
	require.Equal(t, 3, exit.Code)
}

func TestNamespaces(t *testing.T) {
	abs := member(t, mathNamespace(), "abs")
	require.Equal(t, "2", call(t, abs, &object.Number{Value: -2}).Inspect())
	biggest := member(t, mathNamespace(), "max")
	require.Equal(t, "7", call(t, biggest, &object.Number{Value: 1}, &object.Number{Value: 7}, &object.Number{Value: 3}).Inspect())

	idx := member(t, stringNamespace(), "indexOf")
	require.Equal(t, "2", call(t, idx, &object.String{Value: "héllo"}, &object.String{Value: "l"}).Inspect())

	split := member(t, regexNamespace(), "split")
	require.Equal(t, `["a", "b", "c"]`, call(t, split, &object.String{Value: "a1b22c"}, &object.String{Value: `\d+`}).Inspect())

	sha := member(t, cryptoNamespace(), "sha256")
	require.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		call(t, sha, &object.String{Value: "hello"}).Inspect())
}

func TestSQLiteConnection(t *testing.T) {
	conn, err := Connect("file::memory:?cache=shared", "sqlite3")
	require.NoError(t, err)
	defer conn.close(nil)

	exec := member(t, conn, "exec")
	call(t, exec, &object.String{Value: "CREATE TABLE people (name TEXT, age INTEGER)"})
	res := call(t, exec,
		&object.String{Value: "INSERT INTO people (name, age) VALUES (?, ?)"},
		&object.String{Value: "ada"}, &object.Number{Value: 36})
	require.Equal(t, "1", res.(*object.Map).Pairs["rowsAffected"].Inspect())

	begin := member(t, conn, "begin")
	call(t, begin)
	require.Equal(t, object.TRUE, member(t, conn, "inTransaction"))
	call(t, exec,
		&object.String{Value: "INSERT INTO people (name, age) VALUES (?, ?)"},
		&object.String{Value: "bob"}, &object.Number{Value: 40})
	call(t, member(t, conn, "rollback"))

	rows := call(t, member(t, conn, "query"), &object.String{Value: "SELECT name, age FROM people ORDER BY name"})
	var got []string
	for _, row := range rows.(*object.List).Elements {
		got = append(got, row.Inspect())
	}
	if diff := cmp.Diff([]string{`{age: 36, name: "ada"}`}, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	require.Error(t, conn.SetMember("driver", object.NULL))
	_, err = conn.GetMember("nope")
	require.True(t, object.IsKind(err, object.PropertyError))
}
