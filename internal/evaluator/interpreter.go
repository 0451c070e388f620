package evaluator

import (
	"io"
	"log/slog"
	"mika/internal/ast"
	"mika/internal/foreign"
	"mika/internal/object"
	"mika/internal/parser"
	"mika/internal/resolver"
	"mika/internal/runtime"
	"mika/internal/util"
)

// Interpreter owns one global frame plus the distance table of everything
// resolved against it. Module interpreters share the Runtime and the native
// registry with the root but get their own globals.
type Interpreter struct {
	Runtime  *runtime.Runtime
	Builtins *foreign.Registry

	globals     *object.Environment
	locals      resolver.Locals
	types       map[string]*object.TypeDef
	objectClass *object.Class
	moduleClass *object.Class
	out         io.Writer
	scanDepth   int
}

func newInterpreter(rt *runtime.Runtime, builtins *foreign.Registry, out io.Writer) *Interpreter {
	depth := rt.Config.LookupScanDepth
	if depth <= 0 {
		depth = util.DefaultLookupScanDepth
	}
	return &Interpreter{
		Runtime:     rt,
		Builtins:    builtins,
		globals:     object.NewEnvironment(),
		locals:      make(resolver.Locals),
		types:       make(map[string]*object.TypeDef),
		objectClass: object.ObjectClass,
		moduleClass: object.NewClass(object.ModuleClassName, nil),
		out:         out,
		scanDepth:   depth,
	}
}

// New returns a root interpreter with every native registered in its
// global frame.
func New(rt *runtime.Runtime, out io.Writer) *Interpreter {
	interp := newInterpreter(rt, foreign.NewRegistry(), out)
	foreign.RegisterDefaults(interp.Builtins)
	interp.registerTimers()

	for _, name := range interp.Builtins.Names() {
		value, _ := interp.Builtins.Lookup(name)
		interp.globals.Define(name, value)
	}
	interp.globals.Define("__builtins__", interp.Builtins.Namespace())
	return interp
}

// forModule returns an interpreter with an isolated top-level frame. The
// distance table is shared: module functions run under whichever
// interpreter calls them.
func (i *Interpreter) forModule() *Interpreter {
	sub := newInterpreter(i.Runtime, i.Builtins, i.out)
	sub.locals = i.locals
	return sub
}

func (i *Interpreter) Globals() *object.Environment { return i.globals }

// Register binds a native under name in the global frame and the registry.
func (i *Interpreter) Register(name string, value object.Object) {
	i.Builtins.Register(name, value)
	i.globals.Define(name, value)
}

func (i *Interpreter) newEvaluator(env *object.Environment) *Evaluator {
	return &Evaluator{interp: i, env: env}
}

// Resolve runs the static pass over program and merges its distances.
func (i *Interpreter) Resolve(program *ast.Program) error {
	locals, err := resolver.Resolve(program)
	if err != nil {
		return err
	}
	for expr, distance := range locals {
		i.locals[expr] = distance
	}
	return nil
}

// Run parses, resolves and interprets src.
func (i *Interpreter) Run(src string) (object.Object, error) {
	program, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := i.Resolve(program); err != nil {
		return nil, err
	}
	return i.Interpret(program)
}

// Interpret executes a resolved program one top-level statement at a time,
// holding the dispatch lock for each. It returns the value of the last
// expression statement.
func (i *Interpreter) Interpret(program *ast.Program) (object.Object, error) {
	var result object.Object = object.UNDEFINED
	ev := i.newEvaluator(i.globals)
	for _, stmt := range program.Statements {
		var c Completion
		err := i.Runtime.Dispatch(func() error {
			var err error
			c, err = ev.exec(stmt)
			return err
		})
		if err != nil {
			slog.Debug("top-level statement failed", slog.Any("error", err))
			return nil, err
		}
		result = c.valueOr(object.UNDEFINED)
	}
	return result, nil
}

// execProgram runs program without taking the dispatch lock; the caller
// already holds it.
func (i *Interpreter) execProgram(program *ast.Program) error {
	ev := i.newEvaluator(i.globals)
	for _, stmt := range program.Statements {
		if _, err := ev.exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c Completion) valueOr(fallback object.Object) object.Object {
	if c.Value == nil {
		return fallback
	}
	return c.Value
}
