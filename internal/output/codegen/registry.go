// Package codegen holds the named source-code generators and the registry
// the compiler looks them up in.
package codegen

import (
	"sort"

	"evmc/internal/core/ports"
)

type Registry struct {
	generators map[string]ports.CodeGenerator
}

func NewRegistry(generators ...ports.CodeGenerator) *Registry {
	r := &Registry{generators: make(map[string]ports.CodeGenerator, len(generators))}
	for _, g := range generators {
		r.Register(g)
	}
	return r
}

// DefaultRegistry contains the built-in generators.
func DefaultRegistry() *Registry {
	return NewRegistry(MCGenerator{}, CxxGenerator{})
}

// Register adds g, replacing a generator of the same name.
func (r *Registry) Register(g ports.CodeGenerator) {
	r.generators[g.Name()] = g
}

func (r *Registry) Lookup(name string) (ports.CodeGenerator, bool) {
	g, ok := r.generators[name]
	return g, ok
}

// Names returns the registered generator names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
