package evaluator

import (
	"context"
	"time"

	"mika/internal/object"
	"mika/internal/runtime"
)

// registerTimers installs setTimeout, setInterval, their clear functions and
// sleep. Callbacks run on scheduler goroutines but always under the dispatch
// lock, one at a time, against the global frame.
func (i *Interpreter) registerTimers() {
	sched := i.Runtime.Scheduler

	schedule := func(name string, repeat bool) *object.Builtin {
		return &object.Builtin{Name: name, Params: 2, Fn: func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			fn, ok := args[0].(object.Callable)
			if !ok {
				return nil, object.NewTypeError("%s expects a function, got '%s'.", name, object.TypeName(args[0]))
			}
			ms, ok := args[1].(*object.Number)
			if !ok {
				return nil, object.NewTypeError("%s expects a delay in milliseconds, got '%s'.", name, object.TypeName(args[1]))
			}
			delay := time.Duration(ms.Value * float64(time.Millisecond))

			callback := func(_ context.Context, tick int) error {
				return i.Runtime.Dispatch(func() error {
					var cbArgs []object.Object
					if repeat && fn.Arity() != 0 {
						cbArgs = []object.Object{&object.Number{Value: float64(tick)}}
					}
					_, err := i.newEvaluator(i.globals).Call(fn, cbArgs, nil)
					return err
				})
			}

			var t *runtime.Timer
			if repeat {
				t = sched.Every(delay, callback)
			} else {
				t = sched.After(delay, callback)
			}
			return &object.Number{Value: float64(t.ID)}, nil
		}}
	}

	cancel := func(name string) *object.Builtin {
		return &object.Builtin{Name: name, Params: 1, Fn: func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			id, ok := args[0].(*object.Number)
			if !ok {
				return object.FALSE, nil
			}
			return object.NativeBool(sched.Cancel(int(id.Value))), nil
		}}
	}

	i.Register("setTimeout", schedule("setTimeout", false))
	i.Register("setInterval", schedule("setInterval", true))
	i.Register("clearTimeout", cancel("clearTimeout"))
	i.Register("clearInterval", cancel("clearInterval"))
	i.Register("sleep", &object.Builtin{Name: "sleep", Params: 1, Fn: func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
		ms, ok := args[0].(*object.Number)
		if !ok {
			return nil, object.NewTypeError("sleep expects milliseconds, got '%s'.", object.TypeName(args[0]))
		}
		if err := i.Runtime.Sleep(time.Duration(ms.Value * float64(time.Millisecond))); err != nil {
			return nil, err
		}
		return object.NULL, nil
	}})
}
