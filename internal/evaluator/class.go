package evaluator

import (
	"log/slog"
	"unicode/utf8"

	"mika/internal/ast"
	"mika/internal/object"
)

func (e *Evaluator) execClass(stmt *ast.ClassStatement) error {
	name := stmt.Name.Value

	var superclass *object.Class
	if stmt.Superclass != nil {
		if stmt.Superclass.Value == name {
			return object.NewClassError("A class can't inherit from itself.")
		}
		val, err := e.lookupVariable(stmt.Superclass.Value, stmt.Superclass)
		if err != nil {
			return err
		}
		sc, ok := val.(*object.Class)
		if !ok {
			return object.NewClassError("Superclass must be a class.")
		}
		superclass = sc
	}

	class := object.NewClass(name, superclass)
	class.IsAbstract = stmt.IsAbstract
	for _, ident := range stmt.Interfaces {
		val, err := e.lookupVariable(ident.Value, ident)
		if err != nil {
			return err
		}
		iface, ok := val.(*object.Interface)
		if !ok {
			return object.NewClassError("'%s' is not an interface.", ident.Value)
		}
		class.Interfaces = append(class.Interfaces, iface)
	}

	e.env.Define(name, object.NULL)

	methodEnv := e.env
	if superclass != nil {
		methodEnv = object.NewEnclosedEnvironment(e.env)
		methodEnv.Define("super", superclass)
	}

	for _, method := range stmt.Methods {
		fn := e.newFunction(method.Function, methodEnv)
		fn.Name = method.Name.Value
		fn.IsInitializer = fn.Name == "init"

		decorated, err := e.decorate(fn, method.Decorators)
		if err != nil {
			return err
		}
		dfn, ok := decorated.(*object.Function)
		if !ok {
			return object.NewClassError("Decorator on method '%s' must return a function.", fn.Name)
		}
		class.Methods[fn.Name] = dfn
	}
	for _, accessor := range stmt.Accessors {
		fn := e.newFunction(accessor.Function, methodEnv)
		fn.Name = accessor.Name
		if accessor.Kind == ast.Getter {
			class.Getters[accessor.Name] = fn
		} else {
			class.Setters[accessor.Name] = fn
		}
	}

	for _, iface := range class.Interfaces {
		for _, m := range iface.Methods {
			if _, ok := class.Methods[m]; !ok {
				return object.NewClassError("Class '%s' does not implement method '%s' from interface '%s'.", name, m, iface.Name)
			}
		}
	}

	slog.Debug("class declared",
		slog.String("name", name),
		slog.Int("methods", len(class.Methods)),
		slog.Bool("abstract", class.IsAbstract))
	e.env.Define(name, class)
	return nil
}

// Instantiate builds an instance and runs init, if any, bound to it.
func (e *Evaluator) Instantiate(class *object.Class, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	if class.IsAbstract {
		return nil, object.NewClassError("Cannot instantiate abstract class '%s'.", class.Name)
	}
	inst := object.NewInstance(class)
	init := class.FindMethod("init")
	if init == nil {
		if len(args) > 0 {
			return nil, object.NewArityError(class.Name, 0, len(args))
		}
		return inst, nil
	}
	if _, err := e.ApplyFunction(init.Bind(inst), args, kwargs); err != nil {
		return nil, err
	}
	return inst, nil
}

func (e *Evaluator) evalSuper(node *ast.SuperExpression) (object.Object, error) {
	val, err := e.lookupVariable("super", node)
	if err != nil {
		return nil, err
	}
	superclass, ok := val.(*object.Class)
	if !ok {
		return nil, object.NewClassError("'super' is not a class.")
	}

	var this object.Object
	if distance, ok := e.interp.locals[node]; ok && distance > 0 {
		if env := e.env.Ancestor(distance - 1); env != nil {
			this, _ = env.GetLocal("this")
		}
	}
	if this == nil {
		env, found := e.env.Lookup("this", e.interp.scanDepth)
		if !found {
			return nil, object.NewReferenceError("this")
		}
		this, _ = env.GetLocal("this")
	}

	method := superclass.FindMethod(node.Method.Value)
	if method == nil {
		return nil, object.NewPropertyError("Undefined property '%s'.", node.Method.Value)
	}
	return method.Bind(this), nil
}

// getMember resolves obj.name. On instances fields shadow getters, which
// shadow methods.
func (e *Evaluator) getMember(obj object.Object, name string) (object.Object, error) {
	if handle, ok := obj.(object.ForeignHandle); ok {
		return handle.GetMember(name)
	}
	if name == "__class__" {
		return &object.String{Value: object.TypeName(obj)}, nil
	}

	switch o := obj.(type) {
	case *object.Instance:
		if val, ok := o.Fields[name]; ok {
			return val, nil
		}
		if getter := o.Getter(name); getter != nil {
			return e.ApplyFunction(getter.Bind(o), nil, nil)
		}
		if method := o.Method(name); method != nil {
			return method, nil
		}
		return nil, object.NewPropertyError("Undefined property '%s'.", name)

	case *object.Class:
		switch name {
		case "new":
			return &object.Builtin{Name: o.Name + ".new", Params: o.Arity(), Fn: func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
				return ctx.Instantiate(o, args, kwargs)
			}}, nil
		case "name":
			return &object.String{Value: o.Name}, nil
		}
		return nil, object.NewPropertyError("Undefined property '%s'.", name)

	case *object.Map:
		if val, ok := o.Pairs[name]; ok {
			return val, nil
		}
		return nil, object.NewPropertyError("Undefined property '%s'.", name)

	case *object.Generator:
		return e.generatorMember(o, name)

	case *object.List:
		if name == "length" {
			return &object.Number{Value: float64(len(o.Elements))}, nil
		}
	case *object.String:
		if name == "length" {
			return &object.Number{Value: float64(utf8.RuneCountInString(o.Value))}, nil
		}
	}
	return nil, object.NewPropertyError("Only instances have properties.")
}

// setMember writes obj.name. A setter on the instance or its class wins
// over the field.
func (e *Evaluator) setMember(obj object.Object, name string, val object.Object) error {
	switch o := obj.(type) {
	case object.ForeignHandle:
		return o.SetMember(name, val)
	case *object.Instance:
		if setter := o.Setter(name); setter != nil {
			_, err := e.ApplyFunction(setter.Bind(o), []object.Object{val}, nil)
			return err
		}
		o.Fields[name] = val
		return nil
	case *object.Map:
		o.Pairs[name] = val
		return nil
	}
	return object.NewPropertyError("Only instances have fields.")
}

func listIndex(list *object.List, index object.Object) (int, error) {
	n, ok := index.(*object.Number)
	if !ok || !n.IsIntegral() {
		return 0, object.NewTypeError("Array index must be an integer, got '%s'.", index.Inspect())
	}
	i := int(n.Value)
	if i < 0 || i >= len(list.Elements) {
		return 0, object.NewError("Index %d out of bounds for array of length %d.", i, len(list.Elements))
	}
	return i, nil
}

func keyOf(index object.Object) string {
	if s, ok := index.(*object.String); ok {
		return s.Value
	}
	return index.Inspect()
}

func (e *Evaluator) getIndex(left, index object.Object) (object.Object, error) {
	switch l := left.(type) {
	case *object.List:
		i, err := listIndex(l, index)
		if err != nil {
			return nil, err
		}
		return l.Elements[i], nil
	case *object.Map:
		key := keyOf(index)
		if val, ok := l.Pairs[key]; ok {
			return val, nil
		}
		return nil, object.NewPropertyError("Object doesn't contain key: %s", key)
	case *object.Instance:
		key := keyOf(index)
		if val, ok := l.Fields[key]; ok {
			return val, nil
		}
		return nil, object.NewPropertyError("Object doesn't contain field: %s", key)
	case *object.String:
		chars := []rune(l.Value)
		i, err := listIndex(&object.List{Elements: make([]object.Object, len(chars))}, index)
		if err != nil {
			return nil, err
		}
		return &object.String{Value: string(chars[i])}, nil
	}
	return nil, object.NewTypeError("Cannot index '%s'.", object.TypeName(left))
}

func (e *Evaluator) setIndex(left, index, val object.Object) error {
	switch l := left.(type) {
	case *object.List:
		i, err := listIndex(l, index)
		if err != nil {
			return err
		}
		l.Elements[i] = val
		return nil
	case *object.Map:
		l.Pairs[keyOf(index)] = val
		return nil
	case *object.Instance:
		l.Fields[keyOf(index)] = val
		return nil
	}
	return object.NewTypeError("Cannot assign into '%s' by index.", object.TypeName(left))
}
