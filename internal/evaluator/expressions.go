package evaluator

import (
	"strings"

	"mika/internal/ast"
	"mika/internal/object"
)

func (e *Evaluator) eval(node ast.Expression) (object.Object, error) {
	switch node := node.(type) {
	case *ast.NumberLiteral:
		return &object.Number{Value: node.Value}, nil
	case *ast.StringLiteral:
		return &object.String{Value: node.Value}, nil
	case *ast.BooleanLiteral:
		return object.NativeBool(node.Value), nil
	case *ast.NullLiteral:
		return object.NULL, nil
	case *ast.UndefinedLiteral:
		return object.UNDEFINED, nil

	case *ast.TemplateLiteral:
		var out strings.Builder
		for _, part := range node.Parts {
			val, err := e.eval(part)
			if err != nil {
				return nil, err
			}
			out.WriteString(val.Inspect())
		}
		return &object.String{Value: out.String()}, nil

	case *ast.Identifier:
		val, err := e.lookupVariable(node.Value, node)
		if err != nil {
			return nil, errorAt(node.Token.Position, err)
		}
		return val, nil

	case *ast.AssignExpression:
		return e.evalAssign(node)

	case *ast.ThisExpression:
		val, err := e.lookupVariable("this", node)
		if err != nil {
			return nil, errorAt(node.Token.Position, err)
		}
		return val, nil

	case *ast.SuperExpression:
		val, err := e.evalSuper(node)
		if err != nil {
			return nil, errorAt(node.Token.Position, err)
		}
		return val, nil

	case *ast.ListLiteral:
		elements, err := e.evalElements(node.Elements)
		if err != nil {
			return nil, err
		}
		return &object.List{Elements: elements}, nil

	case *ast.ListComprehension:
		return e.evalComprehension(node)

	case *ast.ObjectLiteral:
		return e.evalObjectLiteral(node)

	case *ast.FunctionLiteral:
		return e.newFunction(node, e.env), nil

	case *ast.LambdaExpression:
		return &object.Lambda{Parameters: node.Parameters, Expr: node.Expr, Block: node.Block, Env: e.env}, nil

	case *ast.PrefixExpression:
		right, err := e.eval(node.Right)
		if err != nil {
			return nil, err
		}
		val, err := evalPrefix(node.Operator, right)
		return val, errorAt(node.Token.Position, err)

	case *ast.InfixExpression:
		left, err := e.eval(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(node.Right)
		if err != nil {
			return nil, err
		}
		val, err := e.evalInfix(node.Operator, left, right)
		return val, errorAt(node.Token.Position, err)

	case *ast.LogicalExpression:
		return e.evalLogical(node)

	case *ast.UpdateExpression:
		val, err := e.evalUpdate(node)
		return val, errorAt(node.Token.Position, err)

	case *ast.GetExpression:
		obj, err := e.eval(node.Object)
		if err != nil {
			return nil, err
		}
		if node.Optional && object.IsNullish(obj) {
			return object.UNDEFINED, nil
		}
		val, err := e.getMember(obj, node.Name)
		return val, errorAt(node.Token.Position, err)

	case *ast.SetExpression:
		val, err := e.evalSet(node)
		return val, errorAt(node.Token.Position, err)

	case *ast.IndexExpression:
		left, err := e.eval(node.Left)
		if err != nil {
			return nil, err
		}
		index, err := e.eval(node.Index)
		if err != nil {
			return nil, err
		}
		val, err := e.getIndex(left, index)
		return val, errorAt(node.Token.Position, err)

	case *ast.IndexSetExpression:
		val, err := e.evalIndexSet(node)
		return val, errorAt(node.Token.Position, err)

	case *ast.CallExpression:
		return e.evalCall(node)

	case *ast.MatchExpression:
		return e.evalMatch(node)

	case *ast.CaseExpression:
		return e.evalCase(node)

	case *ast.YieldExpression:
		if e.gen == nil {
			return nil, object.NewGeneratorError("Can't yield outside of a generator.").At(node.Token.Position)
		}
		if e.gen.skipYield {
			e.gen.skipYield = false
			return object.UNDEFINED, nil
		}
		var val object.Object = object.UNDEFINED
		if node.Value != nil {
			v, err := e.eval(node.Value)
			if err != nil {
				return nil, err
			}
			val = v
		}
		return nil, &suspension{value: val}

	case *ast.NewArrayExpression:
		return e.evalNewArray(node)

	case *ast.SpreadExpression:
		return nil, object.NewError("Unexpected spread.").At(node.Token.Position)
	}
	return nil, object.NewError("unknown expression %T", node)
}

// evalElements evaluates list elements, flattening ...spread of lists.
func (e *Evaluator) evalElements(exprs []ast.Expression) ([]object.Object, error) {
	result := make([]object.Object, 0, len(exprs))
	for _, expr := range exprs {
		if spread, ok := expr.(*ast.SpreadExpression); ok {
			val, err := e.eval(spread.Value)
			if err != nil {
				return nil, err
			}
			list, ok := val.(*object.List)
			if !ok {
				return nil, object.NewTypeError("Spread requires an array, got '%s'.", object.TypeName(val)).At(spread.Token.Position)
			}
			result = append(result, list.Elements...)
			continue
		}
		val, err := e.eval(expr)
		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}

func (e *Evaluator) evalComprehension(node *ast.ListComprehension) (object.Object, error) {
	iterable, err := e.eval(node.Iterable)
	if err != nil {
		return nil, err
	}
	seq, err := iterableOf(iterable)
	if err != nil {
		return nil, errorAt(node.Token.Position, err)
	}

	result := &object.List{Elements: []object.Object{}}
	for pos := 0; ; pos++ {
		item, ok, err := e.nextItem(seq, pos)
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}

		env := object.NewEnclosedEnvironment(e.env)
		env.Define(node.Name.Value, item)
		err = e.withEnv(env, func() error {
			if node.Condition != nil {
				cond, err := e.eval(node.Condition)
				if err != nil || !object.IsTruthy(cond) {
					return err
				}
			}
			val, err := e.eval(node.Element)
			if err != nil {
				return err
			}
			result.Elements = append(result.Elements, val)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
}

// evalObjectLiteral builds a plain object. Function and lambda values see
// the new object as `this`; accessors are bound when accessed.
func (e *Evaluator) evalObjectLiteral(node *ast.ObjectLiteral) (object.Object, error) {
	inst := object.NewInstance(e.interp.objectClass)
	for _, entry := range node.Entries {
		switch entry.Kind {
		case ast.SpreadEntry:
			val, err := e.eval(entry.Value)
			if err != nil {
				return nil, err
			}
			switch src := val.(type) {
			case *object.Map:
				for k, v := range src.Pairs {
					inst.Fields[k] = v
				}
			case *object.Instance:
				for k, v := range src.Fields {
					inst.Fields[k] = v
				}
			case *object.Null, *object.Undefined:
			default:
				return nil, object.NewTypeError("Cannot spread '%s' into an object.", object.TypeName(val)).At(node.Token.Position)
			}

		case ast.AccessorEntry:
			fn := e.newFunction(entry.Accessor.Function, e.env)
			fn.Name = entry.Accessor.Name
			if entry.Accessor.Kind == ast.Getter {
				inst.Getters[entry.Accessor.Name] = fn
			} else {
				inst.Setters[entry.Accessor.Name] = fn
			}

		case ast.PairEntry:
			var val object.Object
			switch lit := entry.Value.(type) {
			case *ast.FunctionLiteral:
				fn := e.newFunction(lit, e.env)
				if fn.Name == "" {
					fn.Name = entry.Key
				}
				val = fn.Bind(inst)
			case *ast.LambdaExpression:
				val = (&object.Lambda{Parameters: lit.Parameters, Expr: lit.Expr, Block: lit.Block, Env: e.env}).Bind(inst)
			default:
				v, err := e.eval(entry.Value)
				if err != nil {
					return nil, err
				}
				val = v
			}
			inst.Fields[entry.Key] = val
		}
	}
	return inst, nil
}

func (e *Evaluator) evalLogical(node *ast.LogicalExpression) (object.Object, error) {
	left, err := e.eval(node.Left)
	if err != nil {
		return nil, err
	}
	switch node.Operator {
	case "??":
		if !object.IsNullish(left) {
			return left, nil
		}
	case "or", "||":
		if object.IsTruthy(left) {
			return left, nil
		}
	default:
		if !object.IsTruthy(left) {
			return left, nil
		}
	}
	return e.eval(node.Right)
}

func (e *Evaluator) evalAssign(node *ast.AssignExpression) (object.Object, error) {
	val, err := e.eval(node.Value)
	if err != nil {
		return nil, err
	}
	if node.Operator != "=" {
		current, err := e.lookupVariable(node.Name.Value, node)
		if err != nil {
			return nil, errorAt(node.Token.Position, err)
		}
		if val, err = e.compound(node.Operator, current, val); err != nil {
			return nil, errorAt(node.Token.Position, err)
		}
	}
	if err := e.assignVariable(node.Name.Value, node, val); err != nil {
		return nil, errorAt(node.Token.Position, err)
	}
	return val, nil
}

// compound applies the arithmetic part of += and -=.
func (e *Evaluator) compound(operator string, current, val object.Object) (object.Object, error) {
	return e.evalInfix(strings.TrimSuffix(operator, "="), current, val)
}

func (e *Evaluator) evalSet(node *ast.SetExpression) (object.Object, error) {
	obj, err := e.eval(node.Object)
	if err != nil {
		return nil, err
	}
	val, err := e.eval(node.Value)
	if err != nil {
		return nil, err
	}
	if node.Operator != "" && node.Operator != "=" {
		current, err := e.getMember(obj, node.Name)
		if err != nil {
			return nil, err
		}
		if val, err = e.compound(node.Operator, current, val); err != nil {
			return nil, err
		}
	}
	if err := e.setMember(obj, node.Name, val); err != nil {
		return nil, err
	}
	return val, nil
}

func (e *Evaluator) evalIndexSet(node *ast.IndexSetExpression) (object.Object, error) {
	obj, err := e.eval(node.Object)
	if err != nil {
		return nil, err
	}
	index, err := e.eval(node.Index)
	if err != nil {
		return nil, err
	}
	val, err := e.eval(node.Value)
	if err != nil {
		return nil, err
	}
	if node.Operator != "" && node.Operator != "=" {
		current, err := e.getIndex(obj, index)
		if err != nil {
			return nil, err
		}
		if val, err = e.compound(node.Operator, current, val); err != nil {
			return nil, err
		}
	}
	if err := e.setIndex(obj, index, val); err != nil {
		return nil, err
	}
	return val, nil
}

// evalUpdate handles ++ and --. Prefix forms yield the new value, postfix
// forms the old one.
func (e *Evaluator) evalUpdate(node *ast.UpdateExpression) (object.Object, error) {
	delta := 1.0
	if node.Operator == "--" {
		delta = -1
	}
	bump := func(current object.Object) (object.Object, error) {
		n, ok := current.(*object.Number)
		if !ok {
			return nil, object.NewTypeError("Operand of '%s' must be a number, got '%s'.", node.Operator, object.TypeName(current))
		}
		return &object.Number{Value: n.Value + delta}, nil
	}
	result := func(old, updated object.Object) object.Object {
		if node.Prefix {
			return updated
		}
		return old
	}

	switch target := node.Target.(type) {
	case *ast.Identifier:
		old, err := e.lookupVariable(target.Value, target)
		if err != nil {
			return nil, err
		}
		updated, err := bump(old)
		if err != nil {
			return nil, err
		}
		if err := e.assignVariable(target.Value, target, updated); err != nil {
			return nil, err
		}
		return result(old, updated), nil

	case *ast.GetExpression:
		obj, err := e.eval(target.Object)
		if err != nil {
			return nil, err
		}
		old, err := e.getMember(obj, target.Name)
		if err != nil {
			return nil, err
		}
		updated, err := bump(old)
		if err != nil {
			return nil, err
		}
		if err := e.setMember(obj, target.Name, updated); err != nil {
			return nil, err
		}
		return result(old, updated), nil

	case *ast.IndexExpression:
		obj, err := e.eval(target.Left)
		if err != nil {
			return nil, err
		}
		index, err := e.eval(target.Index)
		if err != nil {
			return nil, err
		}
		old, err := e.getIndex(obj, index)
		if err != nil {
			return nil, err
		}
		updated, err := bump(old)
		if err != nil {
			return nil, err
		}
		if err := e.setIndex(obj, index, updated); err != nil {
			return nil, err
		}
		return result(old, updated), nil
	}
	return nil, object.NewError("Invalid update target.")
}

func (e *Evaluator) evalNewArray(node *ast.NewArrayExpression) (object.Object, error) {
	sizeVal, err := e.eval(node.Size)
	if err != nil {
		return nil, err
	}
	size, ok := sizeVal.(*object.Number)
	if !ok || !size.IsIntegral() || size.Value < 0 {
		return nil, object.NewTypeError("Array size must be a non-negative integer, got '%s'.", sizeVal.Inspect()).At(node.Token.Position)
	}
	if size.Value > maxSequenceLength {
		return nil, object.NewError("Array size %s is too large.", size.Inspect()).At(node.Token.Position)
	}

	var zero object.Object
	switch node.TypeName {
	case "number", "int":
		zero = &object.Number{Value: 0}
	case "string":
		zero = &object.String{Value: ""}
	case "bool", "boolean":
		zero = object.FALSE
	default:
		zero = object.NULL
	}
	elements := make([]object.Object, int(size.Value))
	for i := range elements {
		elements[i] = zero
	}
	return &object.List{Elements: elements}, nil
}
