package evaluator

import (
	"log/slog"
	"mika/internal/ast"
	"mika/internal/object"
)

// lookupVariable resolves name for the reference expr in four tiers.
//
// An annotated reference first scans up to scanDepth frames for the first
// frame that binds name, then falls back to the recorded distance. An
// unannotated reference tries the global frame of the current chain, then
// the native registry, then the whole dynamic chain. Frames created at run
// time (module namespaces, bound object literals) do not always line up
// with the static distances, so every tier is kept.
func (e *Evaluator) lookupVariable(name string, expr ast.Expression) (object.Object, error) {
	if distance, ok := e.interp.locals[expr]; ok {
		if env, found := e.env.Lookup(name, e.interp.scanDepth); found {
			val, _ := env.GetLocal(name)
			return val, nil
		}
		if val, err := e.env.GetAt(distance, name); err == nil {
			return val, nil
		}
		slog.Debug("annotated lookup missed",
			slog.String("name", name),
			slog.Int("distance", distance),
			slog.Int("depth", e.env.Depth()))
	}

	if val, ok := globalsOf(e.env).GetLocal(name); ok {
		return val, nil
	}
	if val, ok := e.interp.Builtins.Lookup(name); ok {
		return val, nil
	}
	if val, err := e.env.Get(name); err == nil {
		return val, nil
	}
	return nil, object.NewReferenceError(name)
}

// assignVariable mirrors lookupVariable for writes. It never creates a
// binding.
func (e *Evaluator) assignVariable(name string, expr ast.Expression, val object.Object) error {
	if distance, ok := e.interp.locals[expr]; ok {
		if env, found := e.env.Lookup(name, e.interp.scanDepth); found {
			env.Define(name, val)
			return nil
		}
		if err := e.env.AssignAt(distance, name, val); err == nil {
			return nil
		}
	}

	if globals := globalsOf(e.env); globals.Has(name) {
		globals.Define(name, val)
		return nil
	}
	return e.env.Assign(name, val)
}

// globalsOf is the root of env's chain: the top-level frame of whichever
// program or module the running code was declared in.
func globalsOf(env *object.Environment) *object.Environment {
	for env.Outer != nil {
		env = env.Outer
	}
	return env
}
