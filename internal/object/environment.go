package object

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

var nextID atomic.Uint64

// Environment is one scope frame: a name to value mapping with a single
// parent link. Frames are shared by reference; closures keep their frame
// alive.
type Environment struct {
	ID       uint64
	Bindings map[string]Object
	Outer    *Environment

	mu sync.RWMutex
}

func nextEnvID() uint64 {
	return nextID.Add(1)
}

func NewEnvironment() *Environment {
	return &Environment{
		ID:       nextEnvID(),
		Bindings: make(map[string]Object),
	}
}

// NewEnclosedEnvironment returns a child frame of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	return env
}

// Define inserts or overwrites name in this frame only.
func (e *Environment) Define(name string, val Object) {
	e.mu.Lock()
	e.Bindings[name] = val
	e.mu.Unlock()

	slog.Debug("binding value",
		slog.Uint64("env", e.ID),
		slog.String("name", name),
		slog.Any("type", typeOf(val)))
}

// GetLocal reads name from this frame without walking outward.
func (e *Environment) GetLocal(name string) (Object, bool) {
	e.mu.RLock()
	val, ok := e.Bindings[name]
	e.mu.RUnlock()
	return val, ok
}

// Has reports whether this frame itself binds name.
func (e *Environment) Has(name string) bool {
	_, ok := e.GetLocal(name)
	return ok
}

// Get searches this frame then the parent chain.
func (e *Environment) Get(name string) (Object, error) {
	for env := e; env != nil; env = env.Outer {
		if val, ok := env.GetLocal(name); ok {
			return val, nil
		}
	}
	return nil, NewUndefinedBinding(name)
}

// Assign overwrites the first frame on the chain that already binds name.
// It never creates a binding.
func (e *Environment) Assign(name string, val Object) error {
	for env := e; env != nil; env = env.Outer {
		env.mu.Lock()
		if _, ok := env.Bindings[name]; ok {
			env.Bindings[name] = val
			env.mu.Unlock()
			slog.Debug("assigning bound value",
				slog.Uint64("env", env.ID),
				slog.String("name", name),
				slog.Any("type", typeOf(val)))
			return nil
		}
		env.mu.Unlock()
	}
	return NewUndefinedBinding(name)
}

// Ancestor walks exactly distance parent links. It returns nil when the
// chain is shorter than distance.
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance && env != nil; i++ {
		env = env.Outer
	}
	return env
}

// GetAt reads name from the frame distance hops up.
func (e *Environment) GetAt(distance int, name string) (Object, error) {
	env := e.Ancestor(distance)
	if env == nil {
		return nil, NewUndefinedBinding(name)
	}
	if val, ok := env.GetLocal(name); ok {
		return val, nil
	}
	return nil, NewUndefinedBinding(name)
}

// AssignAt writes name in the frame distance hops up, which must already
// bind it.
func (e *Environment) AssignAt(distance int, name string, val Object) error {
	env := e.Ancestor(distance)
	if env == nil || !env.Has(name) {
		return NewUndefinedBinding(name)
	}
	env.Define(name, val)
	return nil
}

// Lookup returns the first frame within limit hops that binds name.
func (e *Environment) Lookup(name string, limit int) (*Environment, bool) {
	env := e
	for i := 0; env != nil && i <= limit; i++ {
		if env.Has(name) {
			return env, true
		}
		env = env.Outer
	}
	return nil, false
}

// Depth is the number of parent links between e and the root frame.
func (e *Environment) Depth() int {
	depth := 0
	for env := e.Outer; env != nil; env = env.Outer {
		depth++
	}
	return depth
}

// Names lists this frame's bindings in sorted order.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.Bindings))
	for k := range e.Bindings {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func typeOf(val Object) ObjectType {
	if val == nil {
		return "<nil>"
	}
	return val.Type()
}
