package evaluator

import (
	"fmt"
	"sort"

	"mika/internal/ast"
	"mika/internal/object"
)

func (e *Evaluator) evalCall(node *ast.CallExpression) (object.Object, error) {
	callee, err := e.eval(node.Function)
	if err != nil {
		return nil, err
	}
	args, err := e.evalElements(node.Arguments)
	if err != nil {
		return nil, err
	}
	var kwargs map[string]object.Object
	if len(node.Keywords) > 0 {
		kwargs = make(map[string]object.Object, len(node.Keywords))
		for _, kw := range node.Keywords {
			val, err := e.eval(kw.Value)
			if err != nil {
				return nil, err
			}
			kwargs[kw.Name.Value] = val
		}
	}

	name := calleeName(node.Function, callee)
	if fn, ok := callee.(object.Callable); ok && kwargs == nil {
		if _, foreign := callee.(object.ForeignHandle); !foreign {
			if arity := fn.Arity(); arity != object.VariadicArity && arity != len(args) {
				return nil, object.NewArityError(name, arity, len(args)).At(node.Token.Position)
			}
		}
	}

	result, err := e.Call(callee, args, kwargs)
	if err != nil {
		if rtErr, ok := object.AsRuntimeError(err); ok {
			rtErr.At(node.Token.Position)
			rtErr.PushFrame(name, node.Token.Position)
		}
		return nil, err
	}
	return result, nil
}

func calleeName(expr ast.Expression, callee object.Object) string {
	switch fn := callee.(type) {
	case *object.Function:
		if fn.Name != "" {
			return fn.Name
		}
	case *object.Builtin:
		return fn.Name
	case *object.Class:
		return fn.Name
	}
	return expr.String()
}

// Call dispatches on the callee's kind. Foreign handles own their calls.
func (e *Evaluator) Call(callee object.Object, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	switch fn := callee.(type) {
	case object.ForeignHandle:
		return fn.Invoke(e, args, kwargs)
	case object.Callable:
		return fn.Call(e, args, kwargs)
	}
	return nil, object.NewTypeError("Can only call functions and classes, got '%s'.", object.TypeName(callee))
}

// ApplyFunction runs fn in a fresh frame under its closure. Generator
// functions return a handle instead of running.
func (e *Evaluator) ApplyFunction(fn *object.Function, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	env := object.NewEnclosedEnvironment(fn.Env)
	ev := e.interp.newEvaluator(env)
	if err := ev.bindArguments(fn.Name, fn.Parameters, args, kwargs); err != nil {
		return nil, err
	}
	if fn.IsGenerator {
		return e.newGenerator(fn, env), nil
	}

	c, err := ev.execBlock(fn.Body, fn.Body.Statements, env)
	if err != nil {
		return nil, err
	}
	if fn.IsInitializer {
		this, _ := fn.Env.GetLocal("this")
		return this, nil
	}

	var result object.Object = object.NULL
	if c.Kind == Return {
		result = c.valueOr(object.NULL)
	}
	if err := ev.checkType(fn.ReturnType, result, fmt.Sprintf("return value of '%s'", fn.Name)); err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyLambda runs an expression lambda, or a block lambda whose missing
// return yields null.
func (e *Evaluator) ApplyLambda(fn *object.Lambda, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	env := object.NewEnclosedEnvironment(fn.Env)
	ev := e.interp.newEvaluator(env)
	if err := ev.bindArguments("<lambda>", fn.Parameters, args, kwargs); err != nil {
		return nil, err
	}
	if fn.Block == nil {
		return ev.eval(fn.Expr)
	}

	c, err := ev.execBlock(fn.Block, fn.Block.Statements, env)
	if err != nil {
		return nil, err
	}
	if c.Kind == Return {
		return c.valueOr(object.NULL), nil
	}
	return object.NULL, nil
}

// bindArguments defines every parameter in the current frame. Defaults are
// evaluated in that frame before their own parameter is defined, so a
// default may refer to the parameters before it.
func (e *Evaluator) bindArguments(name string, params []*ast.Parameter, args []object.Object, kwargs map[string]object.Object) error {
	remaining := make(map[string]object.Object, len(kwargs))
	for k, v := range kwargs {
		remaining[k] = v
	}

	required, positional := 0, 0
	for _, p := range params {
		if p.Kind == ast.PositionalParam {
			positional++
			if p.Default == nil {
				required++
			}
		}
	}

	idx := 0
	hasKeywords := false
	for _, p := range params {
		switch p.Kind {
		case ast.PositionalParam:
			var val object.Object
			if idx < len(args) {
				val = args[idx]
				idx++
			} else if kw, ok := remaining[p.Name.Value]; ok {
				val = kw
				delete(remaining, p.Name.Value)
			} else if p.Default != nil {
				v, err := e.eval(p.Default)
				if err != nil {
					return err
				}
				val = v
			} else {
				return object.NewArityError(name, required, len(args))
			}
			if err := e.checkType(p.TypeName, val, fmt.Sprintf("parameter '%s'", p.Name.Value)); err != nil {
				return err
			}
			e.env.Define(p.Name.Value, val)

		case ast.RestParam:
			rest := []object.Object{}
			if idx < len(args) {
				rest = append(rest, args[idx:]...)
				idx = len(args)
			}
			e.env.Define(p.Name.Value, &object.List{Elements: rest})

		case ast.KeywordsParam:
			hasKeywords = true
			m := object.NewMap()
			for k, v := range remaining {
				m.Pairs[k] = v
			}
			remaining = nil
			e.env.Define(p.Name.Value, m)
		}
	}

	if idx < len(args) {
		return object.NewArityError(name, positional, len(args))
	}
	if !hasKeywords && len(remaining) > 0 {
		keys := make([]string, 0, len(remaining))
		for k := range remaining {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return object.NewTypeError("%s got an unexpected keyword argument '%s'.", name, keys[0])
	}
	return nil
}

// checkType verifies val against a declared type name. Unknown names are
// not checked.
func (e *Evaluator) checkType(typeName string, val object.Object, subject string) error {
	if typeName == "" || e.matchesType(typeName, val) {
		return nil
	}
	return object.NewTypeError("Expected type '%s' for %s but got '%s'.", typeName, subject, object.TypeName(val))
}

func (e *Evaluator) matchesType(typeName string, val object.Object) bool {
	switch typeName {
	case "any", "unknown":
		return true
	case "int":
		n, ok := val.(*object.Number)
		return ok && n.IsIntegral()
	case "number":
		_, ok := val.(*object.Number)
		return ok
	case "bool", "boolean":
		_, ok := val.(*object.Boolean)
		return ok
	case "string":
		_, ok := val.(*object.String)
		return ok
	case "function":
		_, isClass := val.(*object.Class)
		_, ok := val.(object.Callable)
		return ok && !isClass
	case "array", "list":
		_, ok := val.(*object.List)
		return ok
	case "map", "object":
		switch val.(type) {
		case *object.Map, *object.Instance:
			return true
		}
		return false
	case "null", "void":
		return object.IsNullish(val)
	}

	if td, ok := e.interp.types[typeName]; ok {
		return e.matchesShape(td, val)
	}
	declared, err := e.env.Get(typeName)
	if err != nil {
		return true
	}
	switch decl := declared.(type) {
	case *object.TypeDef:
		return e.matchesShape(decl, val)
	case *object.Class:
		inst, ok := val.(*object.Instance)
		return ok && inst.Class.IsSubclassOf(decl)
	case *object.Interface:
		inst, ok := val.(*object.Instance)
		return ok && inst.Class.Implements(decl)
	}
	return true
}

// matchesShape is structural: every field of td must be present and match
// its own declared type.
func (e *Evaluator) matchesShape(td *object.TypeDef, val object.Object) bool {
	var fields map[string]object.Object
	switch v := val.(type) {
	case *object.Map:
		fields = v.Pairs
	case *object.Instance:
		fields = v.Fields
	default:
		return false
	}
	for _, f := range td.Fields {
		fv, ok := fields[f.Name]
		if !ok {
			return false
		}
		if f.TypeName != "" && !e.matchesType(f.TypeName, fv) {
			return false
		}
	}
	return true
}
