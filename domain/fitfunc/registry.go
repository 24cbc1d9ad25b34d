package fitfunc

import (
	"slices"

	"gofit/domain/core"
)

// Entry is a registry entry: either a *FitFunction or a *Generator
type Entry interface {
	Name() string
	DisplayName() string
	Syntax() string
	entry()
}

// Registry maps names to fit functions and generators, in registration order.
// Names are unique across both kinds. A Registry is not safe for concurrent use.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// AddOption configures AddFunction and AddGenerator
type AddOption func(*addOptions)

type addOptions struct {
	save bool
}

// WithoutSaving builds the entry without registering it
func WithoutSaving() AddOption {
	return func(o *addOptions) { o.save = false }
}

func resolveAddOptions(opts []AddOption) addOptions {
	o := addOptions{save: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Add registers an existing entry
func (r *Registry) Add(e Entry) error {
	name := e.Name()
	if _, exists := r.entries[name]; exists {
		return core.NewNameCollisionError(name)
	}
	r.entries[name] = e
	r.order = append(r.order, name)
	return nil
}

// AddFunction builds a fit function and registers it unless WithoutSaving is given
func (r *Registry) AddFunction(spec FunctionSpec, opts ...AddOption) (*FitFunction, error) {
	f, err := NewFunction(spec)
	if err != nil {
		return nil, err
	}
	if resolveAddOptions(opts).save {
		if err := r.Add(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// AddGenerator builds a generator and registers it unless WithoutSaving is given
func (r *Registry) AddGenerator(spec GeneratorSpec, opts ...AddOption) (*Generator, error) {
	g, err := NewGenerator(spec)
	if err != nil {
		return nil, err
	}
	if resolveAddOptions(opts).save {
		if err := r.Add(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Remove deletes an entry
func (r *Registry) Remove(name string) error {
	if _, exists := r.entries[name]; !exists {
		return core.NewUnknownNameError(name)
	}
	delete(r.entries, name)
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return nil
}

// Exists reports whether name is registered
func (r *Registry) Exists(name string) bool {
	_, exists := r.entries[name]
	return exists
}

// Get returns the raw entry registered under name
func (r *Registry) Get(name string) (Entry, error) {
	e, exists := r.entries[name]
	if !exists {
		return nil, core.NewNotFoundLoadError(name)
	}
	return e, nil
}

// Load resolves name to a ready-to-evaluate fit function. Generators are invoked with args;
// plain functions must not receive any.
func (r *Registry) Load(name string, args ...int) (*FitFunction, error) {
	e, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case *FitFunction:
		if len(args) != 0 {
			return nil, core.NewNotGeneratorLoadError(name)
		}
		return v, nil
	case *Generator:
		return v.Generate(args...)
	}
	return nil, core.NewNotFoundLoadError(name)
}

// All returns the entries in registration order
func (r *Registry) All() []Entry {
	out := make([]Entry, len(r.order))
	for i, name := range r.order {
		out[i] = r.entries[name]
	}
	return out
}

// Names returns the registered names in registration order
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Len returns the number of registered entries
func (r *Registry) Len() int {
	return len(r.order)
}

// Syntax renders a Function/Syntax table for names, in the order given
func (r *Registry) Syntax(names ...string) (*SyntaxTable, error) {
	table := &SyntaxTable{}
	for _, name := range names {
		e, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, SyntaxRow{Function: e.DisplayName(), Syntax: e.Syntax()})
	}
	return table, nil
}

// List renders the syntax table of every entry in registration order
func (r *Registry) List() *SyntaxTable {
	table := &SyntaxTable{}
	for _, e := range r.All() {
		table.Rows = append(table.Rows, SyntaxRow{Function: e.DisplayName(), Syntax: e.Syntax()})
	}
	return table
}

// Clear removes every entry
func (r *Registry) Clear() {
	r.entries = make(map[string]Entry)
	r.order = nil
}
