package manifest

import (
	"evmc/internal/engine/collection"
)

// Map is a value map or a bit map; Kind selects the variant.
type Map struct {
	Node
	Kind   MapKind
	Name   string
	Symbol string
	Items  *collection.Collection[*MapItem]

	provider *Provider
}

func NewMap(sink collection.Reporter, kind MapKind, name string) *Map {
	m := &Map{Kind: kind, Name: name}
	m.Items = collection.New(collection.Hooks[*MapItem]{
		OnInsert: func(i *MapItem) { claim(i.owner != nil, "map item", i.Symbol); i.owner = m },
		OnRemove: func(i *MapItem) { i.owner = nil },
	})
	unique(m.Items, sink, func(i *MapItem) uint32 { return i.Value }, nil,
		"Duplicate value 0x%X in map '%s'.",
		func(i *MapItem) []any { return []any{i.Value, m.Name} })
	unique(m.Items, sink, func(i *MapItem) string { return i.Symbol }, noSymbol[*MapItem],
		"Duplicate symbol '%s' in map '%s'.",
		func(i *MapItem) []any { return []any{i.Symbol, m.Name} })
	return m
}

func (m *Map) symbol() string { return m.Symbol }

func (m *Map) Provider() *Provider { return m.provider }

func (m *Map) Add(item *MapItem) *MapItem {
	m.Items.Add(item)
	return item
}

// MapItem is a value-map entry or a bit-map entry depending on its map.
type MapItem struct {
	Node
	Value   uint32
	Symbol  string
	Message *LocalizedString

	owner *Map
}

func (i *MapItem) symbol() string { return i.Symbol }

func (i *MapItem) Map() *Map { return i.owner }

// Kind is the variant of the owning map.
func (i *MapItem) Kind() MapKind {
	if i.owner == nil {
		return ValueMapKind
	}
	return i.owner.Kind
}

type PatternMap struct {
	Node
	Name   string
	Format string
	Symbol string
	Items  *collection.Collection[*PatternMapItem]

	provider *Provider
}

func NewPatternMap(sink collection.Reporter, name, format string) *PatternMap {
	m := &PatternMap{Name: name, Format: format}
	m.Items = collection.New(collection.Hooks[*PatternMapItem]{
		OnInsert: func(i *PatternMapItem) { claim(i.owner != nil, "pattern map item", i.Name); i.owner = m },
		OnRemove: func(i *PatternMapItem) { i.owner = nil },
	})
	unique(m.Items, sink, func(i *PatternMapItem) string { return i.Value }, nil,
		"Duplicate value '%s' in pattern map '%s'.",
		func(i *PatternMapItem) []any { return []any{i.Value, m.Name} })
	return m
}

func (m *PatternMap) symbol() string { return m.Symbol }

func (m *PatternMap) Provider() *Provider { return m.provider }

type PatternMapItem struct {
	Node
	Name  string
	Value string

	owner *PatternMap
}

func (i *PatternMapItem) PatternMap() *PatternMap { return i.owner }
