package evaluator

import (
	"math"
	"strings"

	"mika/internal/object"
)

// maxSequenceLength caps the length of strings built by repetition and of
// typed arrays.
const maxSequenceLength = 1 << 28

// operatorMethods maps binary operators to the method name a class defines
// to overload them.
var operatorMethods = map[string]string{
	"+":  "add",
	"-":  "sub",
	"*":  "mul",
	"/":  "div",
	"%":  "mod",
	"==": "eq",
	"!=": "ne",
	">":  "gt",
	">=": "ge",
	"<":  "lt",
	"<=": "le",
}

func evalPrefix(operator string, right object.Object) (object.Object, error) {
	switch operator {
	case "!", "not":
		return object.NativeBool(!object.IsTruthy(right)), nil
	case "-":
		n, ok := right.(*object.Number)
		if !ok {
			return nil, object.NewTypeError("Operand must be a number, got '%s'.", object.TypeName(right))
		}
		return &object.Number{Value: -n.Value}, nil
	}
	return nil, object.NewError("Unknown operator: %s%s", operator, object.TypeName(right))
}

func (e *Evaluator) evalInfix(operator string, left, right object.Object) (object.Object, error) {
	if inst, ok := left.(*object.Instance); ok {
		if name, ok := operatorMethods[operator]; ok {
			if method := inst.Method(name); method != nil {
				return e.ApplyFunction(method, []object.Object{right}, nil)
			}
		}
	}

	switch operator {
	case "==":
		return object.NativeBool(object.Equal(left, right)), nil
	case "!=":
		return object.NativeBool(!object.Equal(left, right)), nil
	case "in":
		return evalIn(left, right)
	}

	ln, lok := left.(*object.Number)
	rn, rok := right.(*object.Number)
	if lok && rok {
		return evalNumberInfix(operator, ln.Value, rn.Value)
	}

	ls, lsok := left.(*object.String)
	rs, rsok := right.(*object.String)
	switch operator {
	case "+":
		switch {
		case lsok && rsok:
			return &object.String{Value: ls.Value + rs.Value}, nil
		case lsok && rok:
			return &object.String{Value: ls.Value + rn.Inspect()}, nil
		case lok && rsok:
			return &object.String{Value: ln.Inspect() + rs.Value}, nil
		}
		if ll, ok := left.(*object.List); ok {
			if rl, ok := right.(*object.List); ok {
				elements := make([]object.Object, 0, len(ll.Elements)+len(rl.Elements))
				elements = append(elements, ll.Elements...)
				return &object.List{Elements: append(elements, rl.Elements...)}, nil
			}
		}
		return nil, object.NewTypeError("Operands must be two numbers or two strings, got '%s' and '%s'.",
			object.TypeName(left), object.TypeName(right))
	case "*":
		if lsok && rok && rn.IsIntegral() && rn.Value >= 0 {
			if rn.Value*float64(len(ls.Value)) > maxSequenceLength {
				return nil, object.NewError("String repeat of %d characters by %s is too large.", len(ls.Value), rn.Inspect())
			}
			return &object.String{Value: strings.Repeat(ls.Value, int(rn.Value))}, nil
		}
	}
	return nil, object.NewTypeError("Operands must be numbers, got '%s' %s '%s'.",
		object.TypeName(left), operator, object.TypeName(right))
}

func evalNumberInfix(operator string, l, r float64) (object.Object, error) {
	switch operator {
	case "+":
		return &object.Number{Value: l + r}, nil
	case "-":
		return &object.Number{Value: l - r}, nil
	case "*":
		return &object.Number{Value: l * r}, nil
	case "/":
		return &object.Number{Value: l / r}, nil
	case "%":
		return &object.Number{Value: math.Mod(l, r)}, nil
	case "**":
		return &object.Number{Value: math.Pow(l, r)}, nil
	case "<":
		return object.NativeBool(l < r), nil
	case "<=":
		return object.NativeBool(l <= r), nil
	case ">":
		return object.NativeBool(l > r), nil
	case ">=":
		return object.NativeBool(l >= r), nil
	}
	return nil, object.NewError("Unknown operator: Number %s Number", operator)
}

// evalIn is membership: map keys, list elements, substrings and instance
// members.
func evalIn(needle, haystack object.Object) (object.Object, error) {
	switch h := haystack.(type) {
	case *object.Map:
		key, ok := needle.(*object.String)
		if !ok {
			return object.FALSE, nil
		}
		_, found := h.Pairs[key.Value]
		return object.NativeBool(found), nil
	case *object.List:
		for _, el := range h.Elements {
			if object.Equal(el, needle) {
				return object.TRUE, nil
			}
		}
		return object.FALSE, nil
	case *object.String:
		sub, ok := needle.(*object.String)
		if !ok {
			return nil, object.NewTypeError("Left side of 'in' must be a string, got '%s'.", object.TypeName(needle))
		}
		return object.NativeBool(strings.Contains(h.Value, sub.Value)), nil
	case *object.Instance:
		key, ok := needle.(*object.String)
		if !ok {
			return object.FALSE, nil
		}
		return object.NativeBool(h.HasMember(key.Value)), nil
	}
	return nil, object.NewTypeError("Right side of 'in' must be a collection, got '%s'.", object.TypeName(haystack))
}
