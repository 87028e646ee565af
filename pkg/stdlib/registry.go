// Package stdlib provides the Rurtle builtin function registry.
package stdlib

import (
	"sort"

	"github.com/thomasrohde/rurtle/pkg/capabilities"
	"github.com/thomasrohde/rurtle/pkg/evaluator"
)

// Capability names used by builtins that reach outside the interpreter.
const (
	CapDraw       = capabilities.Draw
	CapPrompt     = capabilities.Prompt
	CapScreenshot = capabilities.Screenshot
)

// Fn represents a builtin function.
type Fn struct {
	Name       string
	Arity      int
	Capability string
	// Doc is a one-line usage summary shown by the REPL help.
	Doc string
	// Execute is nil for make and global, which the parser turns into
	// assignments.
	Execute func(c *evaluator.Call) (evaluator.Value, error)
}

// Registry holds registered builtins.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a builtin to the registry.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a builtin by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered builtins.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtins converts the registry into the table a session executes.
func (r *Registry) Builtins() map[string]*evaluator.Builtin {
	out := make(map[string]*evaluator.Builtin, len(r.fns))
	for name, fn := range r.fns {
		out[name] = &evaluator.Builtin{
			Name:       fn.Name,
			Arity:      fn.Arity,
			Capability: fn.Capability,
			Execute:    fn.Execute,
		}
	}
	return out
}

// Default returns a registry holding every builtin.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
