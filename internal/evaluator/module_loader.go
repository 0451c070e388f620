package evaluator

import (
	"fmt"
	"log/slog"
	"strings"

	"mika/internal/ast"
	"mika/internal/object"
)

// execImport binds a module namespace under the import's alias. Modules run
// once per process in their own top-level frame; later imports share the
// cached namespace.
func (e *Evaluator) execImport(stmt *ast.ImportStatement) error {
	alias := stmt.Name()
	modName := strings.Join(stmt.Path, ".")
	if e.env.Has(alias) {
		slog.Warn("import skipped, name already bound",
			slog.String("module", modName),
			slog.String("alias", alias))
		return nil
	}

	ns, err := e.loadModule(modName)
	if err != nil {
		return err
	}
	e.env.Define(alias, ns)
	return nil
}

func (e *Evaluator) loadModule(modName string) (*object.Instance, error) {
	rt := e.interp.Runtime
	if mod, ok := rt.CachedModule(modName); ok {
		if mod.Namespace == nil {
			return nil, object.NewError("Circular import of module '%s'.", modName)
		}
		return mod.Namespace, nil
	}

	mod, err := rt.LoadModule(modName)
	if err != nil {
		return nil, object.NewError("%s", err.Error())
	}
	rt.StoreModule(mod)

	sub := e.interp.forModule()
	if err := sub.Resolve(mod.Program); err != nil {
		rt.ForgetModule(modName)
		return nil, object.NewError("%s", fmt.Errorf("resolving module '%s': %w", modName, err).Error())
	}
	if err := sub.execProgram(mod.Program); err != nil {
		rt.ForgetModule(modName)
		return nil, err
	}

	ns := object.NewInstance(e.interp.moduleClass)
	for _, name := range sub.globals.Names() {
		val, _ := sub.globals.GetLocal(name)
		ns.Fields[name] = val
	}
	mod.Namespace = ns

	slog.Debug("module loaded",
		slog.String("module", modName),
		slog.String("path", mod.Path),
		slog.Int("exports", len(ns.Fields)))
	return ns, nil
}
