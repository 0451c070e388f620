package evaluator

import (
	"errors"
	"log/slog"
	"mika/internal/ast"
	"mika/internal/object"
)

// checkpoint records where a suspended statement stopped. node is the
// statement or block that saved it; index and value are interpreted by that
// node (statement index, branch, loop position, iteration sequence).
type checkpoint struct {
	node  ast.Node
	index int
	env   *object.Environment
	value object.Object
}

// generatorState is the private evaluation context of one generator: the
// call frame its body runs in plus the checkpoints left by the last yield.
// Checkpoints are pushed innermost first as a Yield unwinds, and popped
// outermost first while resuming.
type generatorState struct {
	fn          *object.Function
	env         *object.Environment
	checkpoints []checkpoint
	resuming    bool
	running     bool
	done        bool
	// skipYield makes the next yield evaluate to undefined instead of
	// suspending; set while a loop or if header is evaluated again.
	skipYield bool
}

func (g *generatorState) Done() bool { return g.done }

func (g *generatorState) save(cp checkpoint) {
	if g == nil {
		return
	}
	g.checkpoints = append(g.checkpoints, cp)
}

func (g *generatorState) depth() int {
	if g == nil {
		return 0
	}
	return len(g.checkpoints)
}

// owns reports whether the next checkpoint to restore belongs to stmt.
func (g *generatorState) owns(node ast.Node) bool {
	if len(g.checkpoints) == 0 {
		return false
	}
	return g.checkpoints[len(g.checkpoints)-1].node == node
}

// leaf reports whether every checkpoint has been restored during a resume,
// which makes the statement about to run the one that yielded.
func (g *generatorState) leaf() bool {
	return g != nil && g.resuming && len(g.checkpoints) == 0
}

// resumeLeaf finishes a resume on the statement that was suspended inside
// one of its expressions. The statement counts as complete; forms that
// consume the yielded expression see undefined.
func (g *generatorState) resumeLeaf(e *Evaluator, stmt ast.Statement) (Completion, error) {
	g.resuming = false

	switch stmt := stmt.(type) {
	case *ast.VarStatement:
		e.env.Define(stmt.Name.Value, object.UNDEFINED)
	case *ast.DestructureStatement:
		for _, field := range stmt.Fields {
			e.env.Define(field.Name.Value, object.UNDEFINED)
		}
	case *ast.ReturnStatement:
		return returning(object.UNDEFINED), nil
	}
	return normal, nil
}

// evalHeader evaluates a loop or if header. A yield inside it comes back as
// a suspension instead of an error. When resumed is set and nothing nested
// is left to restore, the header runs again and the yield it stopped at
// reads undefined.
func (e *Evaluator) evalHeader(expr ast.Expression, resumed bool) (object.Object, *suspension, error) {
	if resumed && e.gen.depth() == 0 {
		e.gen.resuming = false
		e.gen.skipYield = true
		defer func() { e.gen.skipYield = false }()
	}
	val, err := e.eval(expr)
	if err != nil {
		var s *suspension
		if errors.As(err, &s) {
			return nil, s, nil
		}
		return nil, nil, err
	}
	return val, nil, nil
}

// resumeCheckpoint pops the checkpoint saved by node, if it is next.
func (e *Evaluator) resumeCheckpoint(node ast.Node) (checkpoint, bool) {
	g := e.gen
	if g == nil || !g.resuming || !g.owns(node) {
		return checkpoint{}, false
	}
	cp := g.checkpoints[len(g.checkpoints)-1]
	g.checkpoints = g.checkpoints[:len(g.checkpoints)-1]
	if len(g.checkpoints) == 0 {
		// The innermost checkpoint is restored; what runs next is the
		// statement that yielded.
		slog.Debug("generator checkpoints restored", slog.String("function", g.fn.Name))
	}
	return cp, true
}

func (e *Evaluator) newGenerator(fn *object.Function, env *object.Environment) *object.Generator {
	slog.Debug("generator created",
		slog.String("function", fn.Name),
		slog.Uint64("env", env.ID))
	return &object.Generator{
		Function: fn,
		State:    &generatorState{fn: fn, env: env},
	}
}

// Resume runs the generator until its next yield or completion and returns
// the {value, done} pair.
func (e *Evaluator) Resume(gen *object.Generator) (object.Object, error) {
	state, ok := gen.State.(*generatorState)
	if !ok {
		return nil, object.NewGeneratorError("Invalid generator.")
	}
	if state.done {
		return object.IterResult(object.UNDEFINED, true), nil
	}
	if state.running {
		return nil, object.NewGeneratorError("Generator '%s' is already running.", state.fn.Name)
	}

	state.running = true
	defer func() { state.running = false }()
	state.resuming = len(state.checkpoints) > 0

	ev := &Evaluator{interp: e.interp, env: state.env, gen: state}
	body := state.fn.Body
	c, err := ev.execBlock(body, body.Statements, state.env)
	state.resuming = false
	if err != nil {
		state.done = true
		state.checkpoints = nil
		return nil, err
	}

	switch c.Kind {
	case Yield:
		return object.IterResult(c.valueOr(object.UNDEFINED), false), nil
	case Return:
		state.done = true
		return object.IterResult(c.valueOr(object.UNDEFINED), true), nil
	}
	state.done = true
	return object.IterResult(object.UNDEFINED, true), nil
}

// generatorMember exposes the handle's methods through member access.
func (e *Evaluator) generatorMember(gen *object.Generator, name string) (object.Object, error) {
	switch name {
	case "next":
		return &object.Builtin{Name: "next", Params: 0, Fn: func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			return ctx.Resume(gen)
		}}, nil
	case "done":
		return object.NativeBool(gen.Done()), nil
	}
	return nil, object.NewPropertyError("Undefined property '%s'.", name)
}
