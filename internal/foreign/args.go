package foreign

import "mika/internal/object"

func native(name string, params int, fn object.BuiltinFunction) *object.Builtin {
	return &object.Builtin{Name: name, Params: params, Fn: fn}
}

func members(builtins ...*object.Builtin) map[string]object.Object {
	m := make(map[string]object.Object, len(builtins))
	for _, b := range builtins {
		m[b.Name] = b
	}
	return m
}

func stringArg(fn string, args []object.Object, i int) (string, error) {
	if i >= len(args) {
		return "", object.NewArityError(fn, i+1, len(args))
	}
	s, ok := args[i].(*object.String)
	if !ok {
		return "", object.NewTypeError("argument %d to `%s` must be a String, got '%s'.", i+1, fn, object.TypeName(args[i]))
	}
	return s.Value, nil
}

func numberArg(fn string, args []object.Object, i int) (float64, error) {
	if i >= len(args) {
		return 0, object.NewArityError(fn, i+1, len(args))
	}
	n, ok := args[i].(*object.Number)
	if !ok {
		return 0, object.NewTypeError("argument %d to `%s` must be a Number, got '%s'.", i+1, fn, object.TypeName(args[i]))
	}
	return n.Value, nil
}

func listArg(fn string, args []object.Object, i int) (*object.List, error) {
	if i >= len(args) {
		return nil, object.NewArityError(fn, i+1, len(args))
	}
	l, ok := args[i].(*object.List)
	if !ok {
		return nil, object.NewTypeError("argument %d to `%s` must be an Array, got '%s'.", i+1, fn, object.TypeName(args[i]))
	}
	return l, nil
}

func number(v float64) *object.Number { return &object.Number{Value: v} }

func str(s string) *object.String { return &object.String{Value: s} }

func stringList(values []string) *object.List {
	elements := make([]object.Object, len(values))
	for i, v := range values {
		elements[i] = str(v)
	}
	return &object.List{Elements: elements}
}
