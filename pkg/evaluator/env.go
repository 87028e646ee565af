package evaluator

import "sort"

// Env is one variable scope. The global scope has no parent; every function
// call gets a fresh scope whose parent is the global scope, so lookups see the
// caller's frame only through globals.
type Env struct {
	bindings map[string]Value
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]Value),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Root returns the outermost scope.
func (e *Env) Root() *Env {
	for e.parent != nil {
		e = e.parent
	}
	return e
}

// Get looks up a variable by name, traversing parent scopes.
func (e *Env) Get(name string) (Value, bool) {
	if val, ok := e.bindings[name]; ok {
		return val, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return nil, false
}

// Set binds a variable in this scope.
func (e *Env) Set(name string, val Value) {
	e.bindings[name] = val
}

// SetGlobal binds a variable in the outermost scope.
func (e *Env) SetGlobal(name string, val Value) {
	e.Root().Set(name, val)
}

// Has checks whether a variable is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Names lists the variables bound directly in this scope, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
