package foreign

import (
	"regexp"

	"mika/internal/object"
)

// compileArgs reads the (subject, pattern) pair every Regex native takes.
func compileArgs(fn string, args []object.Object) (string, *regexp.Regexp, error) {
	s, err := stringArg(fn, args, 0)
	if err != nil {
		return "", nil, err
	}
	pattern, err := stringArg(fn, args, 1)
	if err != nil {
		return "", nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", nil, object.NewError("invalid pattern %q: %v", pattern, err)
	}
	return s, re, nil
}

func regexNamespace() *object.Instance {
	return namespace("Regex", members(
		native("matches", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, re, err := compileArgs("matches", args)
			if err != nil {
				return nil, err
			}
			return object.NativeBool(re.MatchString(s)), nil
		}),
		native("split", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, re, err := compileArgs("split", args)
			if err != nil {
				return nil, err
			}
			return stringList(re.Split(s, -1)), nil
		}),
		native("findAll", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, re, err := compileArgs("findAll", args)
			if err != nil {
				return nil, err
			}
			return stringList(re.FindAllString(s, -1)), nil
		}),
		native("findAllGroups", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, re, err := compileArgs("findAllGroups", args)
			if err != nil {
				return nil, err
			}
			matches := re.FindAllStringSubmatch(s, -1)
			elements := make([]object.Object, len(matches))
			for i, match := range matches {
				elements[i] = stringList(match)
			}
			return &object.List{Elements: elements}, nil
		}),
		native("replaceAll", 3, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			s, re, err := compileArgs("replaceAll", args)
			if err != nil {
				return nil, err
			}
			repl, err := stringArg("replaceAll", args, 2)
			if err != nil {
				return nil, err
			}
			return str(re.ReplaceAllString(s, repl)), nil
		}),
	))
}
