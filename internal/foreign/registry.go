// Package foreign holds the natives scripts can call: the core builtins,
// the Math, String, Regex and Crypto namespaces and database access.
package foreign

import (
	"log/slog"
	"sort"
	"sync"

	"mika/internal/object"
)

// RegistryClassName is the class of the __builtins__ namespace.
const RegistryClassName = "Builtins"

// Registry is the native lookup tier: names registered here resolve even
// when no frame binds them.
type Registry struct {
	mu      sync.RWMutex
	natives map[string]object.Object
}

func NewRegistry() *Registry {
	return &Registry{natives: make(map[string]object.Object)}
}

func (r *Registry) Register(name string, value object.Object) {
	r.mu.Lock()
	r.natives[name] = value
	r.mu.Unlock()
	slog.Debug("native registered",
		slog.String("name", name),
		slog.String("type", object.TypeName(value)))
}

func (r *Registry) Lookup(name string) (object.Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	val, ok := r.natives[name]
	return val, ok
}

// Names lists every registered native in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.natives))
	for name := range r.natives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespace snapshots the registry as an instance, so scripts can reach a
// native even after shadowing its global name.
func (r *Registry) Namespace() *object.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return namespace(RegistryClassName, r.natives)
}

func namespace(name string, members map[string]object.Object) *object.Instance {
	inst := object.NewInstance(object.NewClass(name, nil))
	for k, v := range members {
		inst.Fields[k] = v
	}
	return inst
}

// RegisterDefaults installs the core builtins and the standard namespaces.
func RegisterDefaults(reg *Registry) {
	for _, b := range coreBuiltins() {
		reg.Register(b.Name, b)
	}
	reg.Register("Math", mathNamespace())
	reg.Register("String", stringNamespace())
	reg.Register("Regex", regexNamespace())
	reg.Register("Crypto", cryptoNamespace())
	reg.Register("db", dbNamespace())
}
