package foreign

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"mika/internal/object"
)

func stringNamespace() *object.Instance {
	transform := func(name string, fn func(string) string) *object.Builtin {
		return native(name, 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return str(fn(s)), nil
		})
	}

	return namespace("String", members(
		transform("trim", func(s string) string { return strings.TrimFunc(s, unicode.IsSpace) }),
		transform("toUpper", strings.ToUpper),
		transform("toLower", strings.ToLower),
		native("indexOf", object.VariadicArity, fnIndexOf),
		native("contains", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, err := stringArg("contains", args, 0)
			if err != nil {
				return nil, err
			}
			sub, err := stringArg("contains", args, 1)
			if err != nil {
				return nil, err
			}
			return object.NativeBool(strings.Contains(s, sub)), nil
		}),
		native("split", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, err := stringArg("split", args, 0)
			if err != nil {
				return nil, err
			}
			sep, err := stringArg("split", args, 1)
			if err != nil {
				return nil, err
			}
			return stringList(strings.Split(s, sep)), nil
		}),
		native("join", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			list, err := listArg("join", args, 0)
			if err != nil {
				return nil, err
			}
			sep, err := stringArg("join", args, 1)
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(list.Elements))
			for i, el := range list.Elements {
				parts[i] = el.Inspect()
			}
			return str(strings.Join(parts, sep)), nil
		}),
		native("replace", 3, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, err := stringArg("replace", args, 0)
			if err != nil {
				return nil, err
			}
			old, err := stringArg("replace", args, 1)
			if err != nil {
				return nil, err
			}
			repl, err := stringArg("replace", args, 2)
			if err != nil {
				return nil, err
			}
			return str(strings.ReplaceAll(s, old, repl)), nil
		}),
		native("parseNumber", 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, err := stringArg("parseNumber", args, 0)
			if err != nil {
				return nil, err
			}
			v, perr := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), 64)
			if perr != nil {
				return object.NULL, nil
			}
			return number(v), nil
		}),
	))
}

// fnIndexOf counts in runes. An optional third argument is the rune offset
// to start from.
func fnIndexOf(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	hay, err := stringArg("indexOf", args, 0)
	if err != nil {
		return nil, err
	}
	needle, err := stringArg("indexOf", args, 1)
	if err != nil {
		return nil, err
	}
	startRunes := 0
	if len(args) > 2 {
		n, err := numberArg("indexOf", args, 2)
		if err != nil {
			return nil, err
		}
		startRunes = max(int(n), 0)
	}

	byteStart := 0
	for i := 0; i < startRunes && byteStart < len(hay); i++ {
		_, size := utf8.DecodeRuneInString(hay[byteStart:])
		byteStart += size
	}

	byteIdx := strings.Index(hay[byteStart:], needle)
	if byteIdx < 0 {
		return number(-1), nil
	}
	return number(float64(utf8.RuneCountInString(hay[:byteStart+byteIdx]))), nil
}
