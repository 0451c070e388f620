// Package runtime holds the state shared by every interpreter of one
// process: configuration, the module cache, timers and the dispatch lock.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mika/internal/ast"
	"mika/internal/object"
	"mika/internal/parser"
	"mika/internal/util"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var ErrModuleNotFound = errors.New("module not found")

// Module is a parsed source file plus, once evaluated, its namespace.
type Module struct {
	Name      string
	Path      string
	Src       string
	Program   *ast.Program
	Namespace *object.Instance
}

type Runtime struct {
	Config    util.Configuration
	Scheduler *Scheduler

	ctx     context.Context
	lock    *semaphore.Weighted
	mu      sync.Mutex
	modules map[string]*Module
}

func NewRuntime(ctx context.Context, config util.Configuration) *Runtime {
	return &Runtime{
		Config:    config,
		Scheduler: NewScheduler(ctx),
		ctx:       ctx,
		lock:      semaphore.NewWeighted(1),
		modules:   make(map[string]*Module),
	}
}

func (r *Runtime) Context() context.Context { return r.ctx }

// Acquire takes the dispatch lock. Every entry into interpreter state,
// top-level statements and timer callbacks alike, holds it.
func (r *Runtime) Acquire() error {
	return r.lock.Acquire(r.ctx, 1)
}

func (r *Runtime) Release() {
	r.lock.Release(1)
}

// Dispatch runs fn while holding the dispatch lock.
func (r *Runtime) Dispatch(fn func() error) error {
	if err := r.Acquire(); err != nil {
		return err
	}
	defer r.Release()
	return fn()
}

// Sleep gives up the dispatch lock for d so pending timers can run. The
// caller must hold the lock. The wait is a scheduler timer, so a shutdown
// ends it early.
func (r *Runtime) Sleep(d time.Duration) error {
	wake := r.Scheduler.After(d, func(context.Context, int) error { return nil })
	r.Release()
	if _, err := wake.Result().Await(); err != nil {
		slog.Debug("sleep interrupted", slog.Int("timer", wake.ID), slog.Any("error", err))
	}
	return r.Acquire()
}

// CachedModule returns a module that was already evaluated.
func (r *Runtime) CachedModule(modName string) (*Module, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mod, ok := r.modules[modName]
	return mod, ok
}

func (r *Runtime) StoreModule(mod *Module) {
	r.mu.Lock()
	r.modules[mod.Name] = mod
	r.mu.Unlock()
	slog.Info("Module loaded, added to cache",
		slog.String("name", mod.Name),
		slog.String("fullPath", mod.Path))
}

// ForgetModule drops a module whose evaluation failed so a later import
// retries it.
func (r *Runtime) ForgetModule(modName string) {
	r.mu.Lock()
	delete(r.modules, modName)
	r.mu.Unlock()
}

// LoadModule resolves a dotted module name ("lib.util" -> lib/util.<ext>)
// against the root path, then $MIKA_HOME/lib, and parses it.
func (r *Runtime) LoadModule(modName string) (*Module, error) {
	fullPath, source, err := r.findModule(modName)
	if err != nil {
		return nil, err
	}

	program, err := parser.Parse(string(source))
	if err != nil {
		slog.Warn("Error loading module",
			slog.String("name", modName),
			slog.String("fullPath", fullPath),
			slog.String("errors", err.Error()),
		)
		return nil, fmt.Errorf("parse errors in module %s:\n%w", modName, err)
	}

	if r.Config.DebugAST {
		if err := parser.WriteASTToYAML(program, fullPath+".ast.yaml"); err != nil {
			slog.Error("Failed to write AST as YAML", slog.Any("error", err))
		}
	}

	return &Module{
		Name:    modName,
		Path:    fullPath,
		Src:     string(source),
		Program: program,
	}, nil
}

func (r *Runtime) findModule(modName string) (string, []byte, error) {
	relPath := filepath.Join(strings.Split(modName, ".")...)

	var roots []string
	if r.Config.RootPath != "" {
		roots = append(roots, r.Config.RootPath)
	}
	if r.Config.MikaHome != "" {
		roots = append(roots, filepath.Join(r.Config.MikaHome, "lib"))
	}

	var tried []string
	for _, root := range roots {
		for _, ext := range r.Config.ModuleExtensions {
			fullPath := filepath.Join(root, relPath+ext)
			source, err := os.ReadFile(fullPath)
			if err == nil {
				slog.Debug("loading module", slog.String("name", modName), slog.String("path", fullPath))
				return fullPath, source, nil
			}
			tried = append(tried, fullPath)
		}
	}
	return "", nil, fmt.Errorf("could not load module %s (tried %s): %w", modName, strings.Join(tried, ", "), ErrModuleNotFound)
}
