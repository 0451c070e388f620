package evaluator

import (
	"errors"

	"mika/internal/ast"
	"mika/internal/object"
)

// evalMatch tries each arm in its own child frame; the first pattern that
// matches runs its body in that frame. No match yields undefined.
func (e *Evaluator) evalMatch(node *ast.MatchExpression) (object.Object, error) {
	if cp, ok := e.resumeCheckpoint(node); ok {
		body := node.Else
		if cp.index < len(node.Arms) {
			body = node.Arms[cp.index].Body
		}
		return e.reenterArm(node, cp, body)
	}

	subject, err := e.eval(node.Subject)
	if err != nil {
		return nil, err
	}

	for i, arm := range node.Arms {
		env := object.NewEnclosedEnvironment(e.env)
		var (
			matched bool
			result  object.Object
		)
		err := e.withEnv(env, func() error {
			var err error
			if matched, err = e.matchPattern(arm.Pattern, subject); err != nil || !matched {
				return err
			}
			result, err = e.evalArm(node, i, arm.Body)
			return err
		})
		if err != nil {
			return nil, err
		}
		if matched {
			return result, nil
		}
	}

	if node.Else != nil {
		var result object.Object
		err := e.withEnv(object.NewEnclosedEnvironment(e.env), func() error {
			var err error
			result, err = e.evalArm(node, len(node.Arms), node.Else)
			return err
		})
		return result, err
	}
	return object.UNDEFINED, nil
}

// evalCase compares the subject against each arm value by equality. Arms
// share the current frame.
func (e *Evaluator) evalCase(node *ast.CaseExpression) (object.Object, error) {
	if cp, ok := e.resumeCheckpoint(node); ok {
		body := node.Else
		if cp.index < len(node.Arms) {
			body = node.Arms[cp.index].Body
		}
		return e.reenterArm(node, cp, body)
	}

	subject, err := e.eval(node.Subject)
	if err != nil {
		return nil, err
	}
	for i, arm := range node.Arms {
		val, err := e.eval(arm.Value)
		if err != nil {
			return nil, err
		}
		if object.Equal(subject, val) {
			return e.evalArm(node, i, arm.Body)
		}
	}
	if node.Else != nil {
		return e.evalArm(node, len(node.Arms), node.Else)
	}
	return object.UNDEFINED, nil
}

// evalArm runs the body of arm index of node. If a block inside the body
// suspends, the arm is saved so the next resume re-enters it without
// matching again. Other operands of the enclosing statement are evaluated
// again on that resume.
func (e *Evaluator) evalArm(node ast.Node, index int, body ast.Node) (object.Object, error) {
	depth := e.gen.depth()
	result, err := e.evalArmBody(body)
	var s *suspension
	if err != nil && errors.As(err, &s) && e.gen.depth() > depth {
		e.gen.save(checkpoint{node: node, index: index, env: e.env})
	}
	return result, err
}

func (e *Evaluator) reenterArm(node ast.Node, cp checkpoint, body ast.Node) (object.Object, error) {
	var result object.Object
	err := e.withEnv(cp.env, func() error {
		var err error
		result, err = e.evalArm(node, cp.index, body)
		return err
	})
	return result, err
}

// evalArmBody evaluates an expression arm, or runs a block arm in a child
// frame. A return inside a block arm becomes the arm's value.
func (e *Evaluator) evalArmBody(body ast.Node) (object.Object, error) {
	switch body := body.(type) {
	case *ast.BlockStatement:
		c, err := e.execBlock(body, body.Statements, object.NewEnclosedEnvironment(e.env))
		if err != nil {
			return nil, err
		}
		switch c.Kind {
		case Return:
			return c.valueOr(object.NULL), nil
		case Yield:
			return nil, &suspension{value: c.Value}
		}
		return object.UNDEFINED, nil
	case ast.Expression:
		return e.eval(body)
	}
	return nil, object.NewError("invalid arm body %T", body)
}

// matchPattern binds pattern names into the current frame as it matches.
func (e *Evaluator) matchPattern(pattern ast.Expression, subject object.Object) (bool, error) {
	switch p := pattern.(type) {
	case *ast.Identifier:
		if p.Value != "_" {
			e.env.Define(p.Value, subject)
		}
		return true, nil

	case *ast.ListLiteral:
		list, ok := subject.(*object.List)
		if !ok {
			return false, nil
		}
		rest := -1
		for i, el := range p.Elements {
			if _, ok := el.(*ast.SpreadExpression); ok {
				rest = i
				break
			}
		}
		if rest < 0 {
			if len(list.Elements) != len(p.Elements) {
				return false, nil
			}
		} else if len(list.Elements) < rest {
			return false, nil
		}

		for i, el := range p.Elements {
			if spread, ok := el.(*ast.SpreadExpression); ok {
				tail := &object.List{Elements: append([]object.Object{}, list.Elements[i:]...)}
				return e.matchPattern(spread.Value, tail)
			}
			matched, err := e.matchPattern(el, list.Elements[i])
			if err != nil || !matched {
				return matched, err
			}
		}
		return true, nil

	case *ast.ObjectLiteral:
		for _, entry := range p.Entries {
			if entry.Kind != ast.PairEntry {
				continue
			}
			val, ok := e.patternMember(subject, entry.Key)
			if !ok {
				return false, nil
			}
			matched, err := e.matchPattern(entry.Value, val)
			if err != nil || !matched {
				return matched, err
			}
		}
		switch subject.(type) {
		case *object.Map, *object.Instance:
			return true, nil
		}
		return false, nil
	}

	val, err := e.eval(pattern)
	if err != nil {
		return false, err
	}
	return object.Equal(val, subject), nil
}

func (e *Evaluator) patternMember(subject object.Object, key string) (object.Object, bool) {
	switch s := subject.(type) {
	case *object.Map:
		val, ok := s.Pairs[key]
		return val, ok
	case *object.Instance:
		if !s.HasMember(key) {
			return nil, false
		}
		val, err := e.getMember(s, key)
		return val, err == nil
	}
	return nil, false
}
