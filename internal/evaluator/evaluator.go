package evaluator

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mika/internal/ast"
	"mika/internal/object"
	"mika/internal/token"
)

// Evaluator walks statements and expressions against one current frame.
// Each call gets a fresh Evaluator; a generator keeps one for its lifetime.
type Evaluator struct {
	interp *Interpreter
	env    *object.Environment
	gen    *generatorState
}

func (e *Evaluator) CurrentEnv() *object.Environment { return e.env }
func (e *Evaluator) Globals() *object.Environment    { return e.interp.globals }
func (e *Evaluator) Output() io.Writer               { return e.interp.out }

// withEnv evaluates fn with env as the current frame.
func (e *Evaluator) withEnv(env *object.Environment, fn func() error) error {
	previous := e.env
	e.env = env
	defer func() { e.env = previous }()
	return fn()
}

func errorAt(pos token.Position, err error) error {
	if rtErr, ok := object.AsRuntimeError(err); ok {
		rtErr.At(pos)
	}
	return err
}

// exec runs one statement. A suspension raised while evaluating one of its
// expressions becomes a Yield completion here.
func (e *Evaluator) exec(stmt ast.Statement) (Completion, error) {
	if e.gen.leaf() {
		return e.gen.resumeLeaf(e, stmt)
	}

	c, err := e.execStatement(stmt)
	if err != nil {
		var s *suspension
		if errors.As(err, &s) {
			return Completion{Kind: Yield, Value: s.value}, nil
		}
		return Completion{}, err
	}
	return c, nil
}

func (e *Evaluator) execStatement(stmt ast.Statement) (Completion, error) {
	switch stmt := stmt.(type) {
	case *ast.ExpressionStatement:
		val, err := e.eval(stmt.Expression)
		if err != nil {
			return normal, errorAt(stmt.Token.Position, err)
		}
		return Completion{Kind: Normal, Value: val}, nil

	case *ast.PrintStatement:
		val, err := e.eval(stmt.Value)
		if err != nil {
			return normal, err
		}
		if stmt.Newline {
			fmt.Fprintln(e.interp.out, val.Inspect())
		} else {
			fmt.Fprint(e.interp.out, val.Inspect())
		}
		return normal, nil

	case *ast.VarStatement:
		return normal, e.execVar(stmt)

	case *ast.DestructureStatement:
		return normal, e.execDestructure(stmt)

	case *ast.BlockStatement:
		return e.execBlock(stmt, stmt.Statements, object.NewEnclosedEnvironment(e.env))

	case *ast.IfStatement:
		return e.execIf(stmt)

	case *ast.WhileStatement:
		return e.execWhile(stmt)

	case *ast.ForStatement:
		return e.execFor(stmt)

	case *ast.ForInStatement:
		return e.execForIn(stmt)

	case *ast.FunctionStatement:
		return normal, e.execFunction(stmt)

	case *ast.ClassStatement:
		return normal, errorAt(stmt.Token.Position, e.execClass(stmt))

	case *ast.InterfaceStatement:
		iface := &object.Interface{Name: stmt.Name.Value}
		for _, m := range stmt.Methods {
			iface.Methods = append(iface.Methods, m.Name.Value)
		}
		e.env.Define(iface.Name, iface)
		return normal, nil

	case *ast.TypeStatement:
		td := &object.TypeDef{Name: stmt.Name.Value}
		for _, f := range stmt.Fields {
			td.Fields = append(td.Fields, object.TypeField{Name: f.Name.Value, TypeName: f.TypeName})
		}
		e.interp.types[td.Name] = td
		e.env.Define(td.Name, td)
		return normal, nil

	case *ast.ReturnStatement:
		var val object.Object = object.NULL
		if e.gen != nil {
			val = object.UNDEFINED
		}
		if stmt.ReturnValue != nil {
			v, err := e.eval(stmt.ReturnValue)
			if err != nil {
				return normal, err
			}
			val = v
		}
		return returning(val), nil

	case *ast.BreakStatement:
		return Completion{Kind: Break}, nil

	case *ast.ContinueStatement:
		return Completion{Kind: Continue}, nil

	case *ast.ThrowStatement:
		val, err := e.eval(stmt.Value)
		if err != nil {
			return normal, err
		}
		return normal, object.NewThrow(val).At(stmt.Token.Position)

	case *ast.TryStatement:
		return e.execTry(stmt)

	case *ast.ImportStatement:
		return normal, errorAt(stmt.Token.Position, e.execImport(stmt))
	}
	return normal, object.NewError("unknown statement %T", stmt)
}

// execBlock runs statements in env. key identifies the block for generator
// checkpoints; on resume the saved frame and index replace env and 0.
func (e *Evaluator) execBlock(key ast.Node, statements []ast.Statement, env *object.Environment) (Completion, error) {
	start := 0
	if cp, ok := e.resumeCheckpoint(key); ok {
		env = cp.env
		start = cp.index
	}

	previous := e.env
	e.env = env
	defer func() { e.env = previous }()

	for i := start; i < len(statements); i++ {
		c, err := e.exec(statements[i])
		if err != nil {
			return c, err
		}
		switch c.Kind {
		case Normal:
		case Yield:
			e.gen.save(checkpoint{node: key, index: i, env: env})
			return c, nil
		default:
			return c, nil
		}
	}
	return normal, nil
}

func (e *Evaluator) execVar(stmt *ast.VarStatement) error {
	var val object.Object = object.UNDEFINED
	if stmt.Value != nil {
		v, err := e.eval(stmt.Value)
		if err != nil {
			return err
		}
		val = v
		if err := e.checkType(stmt.TypeName, val, fmt.Sprintf("variable '%s'", stmt.Name.Value)); err != nil {
			return errorAt(stmt.Token.Position, err)
		}
	}
	e.env.Define(stmt.Name.Value, val)
	return nil
}

func (e *Evaluator) execDestructure(stmt *ast.DestructureStatement) error {
	source, err := e.eval(stmt.Value)
	if err != nil {
		return err
	}
	switch source.(type) {
	case *object.Map, *object.Instance:
	default:
		return object.NewTypeError("Destructuring requires an object, got '%s'.", object.TypeName(source)).At(stmt.Token.Position)
	}

	for _, field := range stmt.Fields {
		var val object.Object = object.UNDEFINED
		switch src := source.(type) {
		case *object.Map:
			if v, ok := src.Pairs[field.Name.Value]; ok {
				val = v
			}
		case *object.Instance:
			if v, err := e.getMember(src, field.Name.Value); err == nil {
				val = v
			} else if !object.IsKind(err, object.PropertyError) {
				return err
			}
		}
		if object.IsNullish(val) && field.Default != nil {
			if val, err = e.eval(field.Default); err != nil {
				return err
			}
		}
		e.env.Define(field.Name.Value, val)
	}
	return nil
}

// Phases a suspended if or loop statement resumes at.
const (
	atBody = iota
	atInit
	atCondition
	atIncrement
	atElse
)

func (e *Evaluator) execIf(stmt *ast.IfStatement) (Completion, error) {
	branch := atCondition
	cp, resumed := e.resumeCheckpoint(stmt)
	if resumed {
		branch = cp.index
	}
	if branch == atCondition {
		cond, s, err := e.evalHeader(stmt.Condition, resumed)
		if err != nil {
			return normal, err
		}
		if s != nil {
			e.gen.save(checkpoint{node: stmt, index: atCondition})
			return Completion{Kind: Yield, Value: s.value}, nil
		}
		branch = atBody
		if !object.IsTruthy(cond) {
			branch = atElse
		}
	}

	body := stmt.Consequence
	if branch == atElse {
		body = stmt.Alternative
	}
	if body == nil {
		return normal, nil
	}

	c, err := e.exec(body)
	if err == nil && c.Kind == Yield {
		e.gen.save(checkpoint{node: stmt, index: branch})
	}
	return c, err
}

func (e *Evaluator) execWhile(stmt *ast.WhileStatement) (Completion, error) {
	phase := atCondition
	cp, resumed := e.resumeCheckpoint(stmt)
	if resumed {
		phase = cp.index
	}
	for ; ; resumed = false {
		if phase == atCondition {
			cond, s, err := e.evalHeader(stmt.Condition, resumed)
			if err != nil {
				return normal, err
			}
			if s != nil {
				e.gen.save(checkpoint{node: stmt, index: atCondition})
				return Completion{Kind: Yield, Value: s.value}, nil
			}
			if !object.IsTruthy(cond) {
				return normal, nil
			}
		}
		phase = atCondition

		c, err := e.exec(stmt.Body)
		if err != nil {
			return c, err
		}
		switch c.Kind {
		case Yield:
			e.gen.save(checkpoint{node: stmt, index: atBody})
			return c, nil
		case Break:
			return normal, nil
		case Return:
			return c, nil
		}
	}
}

func (e *Evaluator) execFor(stmt *ast.ForStatement) (Completion, error) {
	env := object.NewEnclosedEnvironment(e.env)
	phase := atInit
	cp, resumed := e.resumeCheckpoint(stmt)
	if resumed {
		env, phase = cp.env, cp.index
	}

	var result Completion
	suspend := func(at int, value object.Object) error {
		e.gen.save(checkpoint{node: stmt, index: at, env: env})
		result = Completion{Kind: Yield, Value: value}
		return nil
	}
	err := e.withEnv(env, func() error {
		for ; ; resumed = false {
			switch phase {
			case atInit:
				if stmt.Init != nil {
					c, err := e.exec(stmt.Init)
					if err != nil {
						return err
					}
					if c.Kind == Yield {
						return suspend(atInit, c.Value)
					}
					if c.Kind != Normal {
						result = c
						return nil
					}
				}
				phase = atCondition

			case atCondition:
				if stmt.Condition != nil {
					cond, s, err := e.evalHeader(stmt.Condition, resumed)
					if err != nil {
						return err
					}
					if s != nil {
						return suspend(atCondition, s.value)
					}
					if !object.IsTruthy(cond) {
						return nil
					}
				}
				phase = atBody

			case atBody:
				c, err := e.exec(stmt.Body)
				if err != nil {
					return err
				}
				switch c.Kind {
				case Yield:
					return suspend(atBody, c.Value)
				case Break:
					return nil
				case Return:
					result = c
					return nil
				}
				phase = atIncrement

			case atIncrement:
				if stmt.Increment != nil {
					_, s, err := e.evalHeader(stmt.Increment, resumed)
					if err != nil {
						return err
					}
					if s != nil {
						return suspend(atIncrement, s.value)
					}
				}
				phase = atCondition
			}
		}
	})
	return result, err
}

func (e *Evaluator) execForIn(stmt *ast.ForInStatement) (Completion, error) {
	var (
		seq object.Object
		pos int
		env *object.Environment
	)
	cp, resumed := e.resumeCheckpoint(stmt)
	if resumed {
		seq, pos, env = cp.value, cp.index, cp.env
	} else {
		iterable, err := e.eval(stmt.Iterable)
		if err != nil {
			return normal, err
		}
		if seq, err = iterableOf(iterable); err != nil {
			return normal, errorAt(stmt.Token.Position, err)
		}
	}

	for ; ; pos++ {
		if !resumed {
			item, ok, err := e.nextItem(seq, pos)
			if err != nil {
				return normal, err
			}
			if !ok {
				return normal, nil
			}
			env = object.NewEnclosedEnvironment(e.env)
			env.Define(stmt.Name.Value, item)
		}
		resumed = false

		var c Completion
		err := e.withEnv(env, func() error {
			var err error
			c, err = e.exec(stmt.Body)
			return err
		})
		if err != nil {
			return c, err
		}
		switch c.Kind {
		case Yield:
			e.gen.save(checkpoint{node: stmt, index: pos, env: env, value: seq})
			return c, nil
		case Break:
			return normal, nil
		case Return:
			return c, nil
		}
	}
}

// iterableOf normalizes what a for-in or comprehension walks over: lists
// as themselves, map keys and instance fields in sorted order, strings by
// character, generators lazily.
func iterableOf(obj object.Object) (object.Object, error) {
	switch obj := obj.(type) {
	case *object.List, *object.Generator:
		return obj, nil
	case *object.Map:
		return stringList(obj.Keys()), nil
	case *object.Instance:
		return stringList(obj.FieldNames()), nil
	case *object.String:
		var chars []object.Object
		for _, r := range obj.Value {
			chars = append(chars, &object.String{Value: string(r)})
		}
		return &object.List{Elements: chars}, nil
	}
	return nil, object.NewTypeError("'%s' is not iterable.", object.TypeName(obj))
}

func stringList(values []string) *object.List {
	elements := make([]object.Object, len(values))
	for i, v := range values {
		elements[i] = &object.String{Value: v}
	}
	return &object.List{Elements: elements}
}

func (e *Evaluator) nextItem(seq object.Object, pos int) (object.Object, bool, error) {
	switch seq := seq.(type) {
	case *object.List:
		if pos >= len(seq.Elements) {
			return nil, false, nil
		}
		return seq.Elements[pos], true, nil
	case *object.Generator:
		res, err := e.Resume(seq)
		if err != nil {
			return nil, false, err
		}
		pair := res.(*object.Map)
		if object.IsTruthy(pair.Pairs["done"]) {
			return nil, false, nil
		}
		return pair.Pairs["value"], true, nil
	}
	return nil, false, nil
}

func (e *Evaluator) execTry(stmt *ast.TryStatement) (Completion, error) {
	phase := 0
	if cp, ok := e.resumeCheckpoint(stmt); ok {
		phase = cp.index
	}

	if phase == 0 {
		c, err := e.execBlock(stmt.Body, stmt.Body.Statements, object.NewEnclosedEnvironment(e.env))
		if err == nil {
			if c.Kind == Yield {
				e.gen.save(checkpoint{node: stmt, index: 0})
			}
			return c, nil
		}
		rtErr, ok := object.AsRuntimeError(err)
		if !ok {
			return c, err
		}
		slog.Debug("caught runtime error",
			slog.String("kind", rtErr.Kind.String()),
			slog.String("message", rtErr.Message))

		env := object.NewEnclosedEnvironment(e.env)
		env.Define(stmt.CatchName.Value, rtErr.Value())
		c, err = e.execBlock(stmt.Catch, stmt.Catch.Statements, env)
		if err == nil && c.Kind == Yield {
			e.gen.save(checkpoint{node: stmt, index: 1})
		}
		return c, err
	}

	c, err := e.execBlock(stmt.Catch, stmt.Catch.Statements, object.NewEnclosedEnvironment(e.env))
	if err == nil && c.Kind == Yield {
		e.gen.save(checkpoint{node: stmt, index: 1})
	}
	return c, err
}

func (e *Evaluator) execFunction(stmt *ast.FunctionStatement) error {
	fn := e.newFunction(stmt.Function, e.env)
	decorated, err := e.decorate(fn, stmt.Decorators)
	if err != nil {
		return errorAt(stmt.Token.Position, err)
	}
	e.env.Define(stmt.Name.Value, decorated)
	return nil
}

func (e *Evaluator) newFunction(lit *ast.FunctionLiteral, env *object.Environment) *object.Function {
	return &object.Function{
		Name:        lit.Name,
		Parameters:  lit.Parameters,
		ReturnType:  lit.ReturnType,
		Body:        lit.Body,
		Env:         env,
		IsGenerator: lit.IsGenerator,
	}
}

// decorate applies decorators innermost first; each must return a callable.
func (e *Evaluator) decorate(fn object.Object, decorators []ast.Expression) (object.Object, error) {
	decorated := fn
	for i := len(decorators) - 1; i >= 0; i-- {
		deco, err := e.eval(decorators[i])
		if err != nil {
			return nil, err
		}
		if _, ok := deco.(object.Callable); !ok {
			return nil, object.NewTypeError("Decorator must be callable.")
		}
		result, err := e.Call(deco, []object.Object{decorated}, nil)
		if err != nil {
			return nil, err
		}
		if _, ok := result.(object.Callable); !ok {
			return nil, object.NewTypeError("Decorator must return a callable, got '%s'.", object.TypeName(result))
		}
		decorated = result
	}
	return decorated, nil
}
