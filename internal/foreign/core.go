package foreign

import (
	"fmt"
	"os"
	"sort"
	"time"
	"unicode/utf8"

	"mika/internal/object"
)

// ExitError is returned by exit() and unwinds to the process entry point.
// Script try/catch does not intercept it.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

func coreBuiltins() []*object.Builtin {
	is := func(name string, test func(object.Object) bool) *object.Builtin {
		return native(name, 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			return object.NativeBool(test(args[0])), nil
		})
	}

	return []*object.Builtin{
		native("typeof", 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			return str(object.TypeName(args[0])), nil
		}),
		native("length", 1, fnLength),
		native("str", 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			return str(args[0].Inspect()), nil
		}),
		native("clock", 0, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			return number(float64(time.Now().UnixNano()) / float64(time.Second)), nil
		}),
		is("isNumber", func(o object.Object) bool { _, ok := o.(*object.Number); return ok }),
		is("isString", func(o object.Object) bool { _, ok := o.(*object.String); return ok }),
		is("isBoolean", func(o object.Object) bool { _, ok := o.(*object.Boolean); return ok }),
		is("isArray", func(o object.Object) bool { _, ok := o.(*object.List); return ok }),
		is("isFunction", func(o object.Object) bool { return object.TypeName(o) == "Function" }),
		is("isObject", func(o object.Object) bool {
			switch o.(type) {
			case *object.Map, *object.Instance:
				return true
			}
			return false
		}),
		native("keys", 1, fnKeys),
		native("push", object.VariadicArity, fnPush),
		native("sort", object.VariadicArity, fnSort),
		native("env", 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			name, err := stringArg("env", args, 0)
			if err != nil {
				return nil, err
			}
			if val, ok := os.LookupEnv(name); ok {
				return str(val), nil
			}
			return object.NULL, nil
		}),
		native("exit", object.VariadicArity, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			code := 0
			if len(args) > 0 {
				n, err := numberArg("exit", args, 0)
				if err != nil {
					return nil, err
				}
				code = int(n)
			}
			return nil, &ExitError{Code: code}
		}),
	}
}

func fnLength(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	switch arg := args[0].(type) {
	case *object.String:
		return number(float64(utf8.RuneCountInString(arg.Value))), nil
	case *object.List:
		return number(float64(len(arg.Elements))), nil
	case *object.Map:
		return number(float64(len(arg.Pairs))), nil
	case *object.Instance:
		return number(float64(len(arg.Fields))), nil
	}
	return nil, object.NewTypeError("argument to `length` not supported, got '%s'.", object.TypeName(args[0]))
}

func fnKeys(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	switch arg := args[0].(type) {
	case *object.Map:
		return stringList(arg.Keys()), nil
	case *object.Instance:
		return stringList(arg.FieldNames()), nil
	}
	return nil, object.NewTypeError("argument to `keys` must be an Object, got '%s'.", object.TypeName(args[0]))
}

// fnPush appends in place and returns the list.
func fnPush(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	list, err := listArg("push", args, 0)
	if err != nil {
		return nil, err
	}
	list.Elements = append(list.Elements, args[1:]...)
	return list, nil
}

// fnSort returns a sorted copy. Without a comparator numbers and strings
// sort naturally; a comparator returns a negative number when a < b.
func fnSort(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	list, err := listArg("sort", args, 0)
	if err != nil {
		return nil, err
	}
	sorted := make([]object.Object, len(list.Elements))
	copy(sorted, list.Elements)

	var cmpErr error
	less := func(a, b object.Object) bool {
		switch a := a.(type) {
		case *object.Number:
			if b, ok := b.(*object.Number); ok {
				return a.Value < b.Value
			}
		case *object.String:
			if b, ok := b.(*object.String); ok {
				return a.Value < b.Value
			}
		}
		if cmpErr == nil {
			cmpErr = object.NewTypeError("cannot compare '%s' and '%s' without a comparator.", object.TypeName(a), object.TypeName(b))
		}
		return false
	}
	if len(args) > 1 {
		comparator := args[1]
		less = func(a, b object.Object) bool {
			if cmpErr != nil {
				return false
			}
			res, err := ctx.Call(comparator, []object.Object{a, b}, nil)
			if err != nil {
				cmpErr = err
				return false
			}
			n, ok := res.(*object.Number)
			return ok && n.Value < 0
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if cmpErr != nil {
		return nil, cmpErr
	}
	return &object.List{Elements: sorted}, nil
}
