// Package manifest holds the semantic model of an event manifest: providers,
// their typed item collections and the localized string tables.
//
// Every collection routes inserts through uniqueness constraints that report
// to the diagnostics sink the model was created with. Insertion is lenient: a
// duplicate is reported and still added. Inserting an item that already
// belongs to another collection breaks the ownership invariant and panics.
package manifest

import (
	"evmc/internal/core/errors"
	"evmc/internal/engine/collection"

	"github.com/google/uuid"
)

type EventManifest struct {
	Providers *collection.Collection[*Provider]

	resources []*LocalizedResourceSet
	sink      collection.Reporter
}

func New(sink collection.Reporter) *EventManifest {
	m := &EventManifest{sink: sink}
	m.Providers = collection.New(collection.Hooks[*Provider]{
		OnInsert: func(p *Provider) {
			claim(p.manifest != nil, "provider", p.Name)
			p.manifest = m
		},
		OnRemove: func(p *Provider) { p.manifest = nil },
	})
	unique(m.Providers, sink, func(p *Provider) string { return p.Name }, nil,
		"Duplicate provider name '%s'.",
		func(p *Provider) []any { return []any{p.Name} })
	unique(m.Providers, sink, func(p *Provider) uuid.UUID { return p.ID }, nil,
		"Duplicate provider guid '%s' used by '%s'.",
		func(p *Provider) []any { return []any{FormatGUID(p.ID), p.Name} })
	unique(m.Providers, sink, func(p *Provider) string { return p.Symbol }, noSymbol[*Provider],
		"Duplicate provider symbol '%s'.",
		func(p *Provider) []any { return []any{p.Symbol} })
	return m
}

// Sink returns the diagnostics sink the manifest reports to.
func (m *EventManifest) Sink() collection.Reporter { return m.sink }

// NewProvider creates a provider that reports to the same sink as m. The
// provider is not added to m.
func (m *EventManifest) NewProvider(name string) *Provider {
	p := NewProvider(m.sink)
	p.Name = name
	return p
}

func (m *EventManifest) AddProvider(p *Provider) *Provider {
	m.Providers.Add(p)
	return p
}

func (m *EventManifest) ResourceSets() []*LocalizedResourceSet {
	out := make([]*LocalizedResourceSet, len(m.resources))
	copy(out, m.resources)
	return out
}

// PrimaryResourceSet is the first set added, or nil.
func (m *EventManifest) PrimaryResourceSet() *LocalizedResourceSet {
	if len(m.resources) == 0 {
		return nil
	}
	return m.resources[0]
}

func (m *EventManifest) ResourceSet(culture string) (*LocalizedResourceSet, bool) {
	for _, rs := range m.resources {
		if rs.Culture == culture {
			return rs, true
		}
	}
	return nil, false
}

// AddResourceSet returns the set for culture, creating it when missing.
func (m *EventManifest) AddResourceSet(culture string) *LocalizedResourceSet {
	if rs, ok := m.ResourceSet(culture); ok {
		return rs
	}
	rs := newResourceSet(culture, m.sink)
	rs.manifest = m
	m.resources = append(m.resources, rs)
	return rs
}

// Strings returns the number of strings across all resource sets.
func (m *EventManifest) Strings() int {
	n := 0
	for _, rs := range m.resources {
		n += rs.Strings.Len()
	}
	return n
}

func claim(owned bool, kind, name string) {
	if owned {
		panic(errors.Newf(errors.CodeInternal, "%s '%s' already belongs to a collection", kind, name))
	}
}
