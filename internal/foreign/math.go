package foreign

import (
	"crypto/rand"
	"encoding/binary"
	"math"

	"mika/internal/object"
)

func mathNamespace() *object.Instance {
	unary := func(name string, fn func(float64) float64) *object.Builtin {
		return native(name, 1, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			x, err := numberArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return number(fn(x)), nil
		})
	}
	extreme := func(name string, pick func(a, b float64) float64) *object.Builtin {
		return native(name, object.VariadicArity, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			if len(args) == 0 {
				return nil, object.NewArityError(name, 1, 0)
			}
			result, err := numberArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			for i := 1; i < len(args); i++ {
				x, err := numberArg(name, args, i)
				if err != nil {
					return nil, err
				}
				result = pick(result, x)
			}
			return number(result), nil
		})
	}

	m := members(
		unary("abs", math.Abs),
		unary("floor", math.Floor),
		unary("ceil", math.Ceil),
		unary("sqrt", math.Sqrt),
		unary("round", math.Round),
		native("pow", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			x, err := numberArg("pow", args, 0)
			if err != nil {
				return nil, err
			}
			y, err := numberArg("pow", args, 1)
			if err != nil {
				return nil, err
			}
			return number(math.Pow(x, y)), nil
		}),
		extreme("min", math.Min),
		extreme("max", math.Max),
		native("random", 0, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			n, err := randomUint64()
			if err != nil {
				return nil, err
			}
			return number(float64(n>>11) / (1 << 53)), nil
		}),
		native("randomRange", 2, fnRandomRange),
	)
	m["PI"] = number(math.Pi)
	m["E"] = number(math.E)
	return namespace("Math", m)
}

func randomUint64() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, object.NewError("failed to generate random number: %v", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// fnRandomRange returns an integer in [min, max).
func fnRandomRange(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	lo, err := numberArg("randomRange", args, 0)
	if err != nil {
		return nil, err
	}
	hi, err := numberArg("randomRange", args, 1)
	if err != nil {
		return nil, err
	}
	if lo >= hi {
		return nil, object.NewError("invalid range: min (%v) must be less than max (%v)", lo, hi)
	}
	n, err := randomUint64()
	if err != nil {
		return nil, err
	}
	span := uint64(int64(hi) - int64(lo))
	if span == 0 {
		return number(float64(int64(lo))), nil
	}
	return number(float64(int64(lo) + int64(n%span))), nil
}
