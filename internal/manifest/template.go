package manifest

import (
	"evmc/internal/diag"
	"evmc/internal/engine/collection"
)

type Template struct {
	Node
	ID         string
	Name       string
	Properties *collection.Collection[Property]

	provider *Provider
}

func NewTemplate(sink collection.Reporter, id string) *Template {
	t := &Template{ID: id}
	t.Properties = newPropertyCollection(sink, func(b *PropertyBase) { b.template = t }, func(b *PropertyBase) { b.template = nil })
	return t
}

func (t *Template) Provider() *Provider { return t.provider }

func (t *Template) Add(p Property) Property {
	t.Properties.Add(p)
	return p
}

// Find returns the top-level property named name.
func (t *Template) Find(name string) (Property, bool) {
	return t.Properties.Find(func(p Property) bool { return p.Base().Name == name })
}

type PropertyKind int

const (
	DataPropertyKind PropertyKind = iota
	StructPropertyKind
)

func (k PropertyKind) String() string {
	if k == StructPropertyKind {
		return "struct"
	}
	return "data"
}

// Property is either a *DataProperty or a *StructProperty.
type Property interface {
	Kind() PropertyKind
	Base() *PropertyBase
	Loc() diag.Location
	isProperty()
}

type PropertyBase struct {
	Node
	Name   string
	Count  Size
	Length Size

	template *Template
	parent   *StructProperty
}

func (b *PropertyBase) Base() *PropertyBase { return b }

// Parent returns the enclosing struct property, or nil for top-level properties.
func (b *PropertyBase) Parent() *StructProperty { return b.parent }

// Template returns the template the property belongs to, directly or through
// its enclosing structs.
func (b *PropertyBase) Template() *Template {
	if b.template != nil {
		return b.template
	}
	if b.parent != nil {
		return b.parent.Template()
	}
	return nil
}

type DataProperty struct {
	PropertyBase
	InType  InType
	OutType OutType
	Map     *Map
}

func NewDataProperty(name string, in InType) *DataProperty {
	return &DataProperty{PropertyBase: PropertyBase{Name: name}, InType: in}
}

func (*DataProperty) Kind() PropertyKind { return DataPropertyKind }

func (*DataProperty) isProperty() {}

type StructProperty struct {
	PropertyBase
	Members *collection.Collection[Property]
}

func NewStructProperty(sink collection.Reporter, name string) *StructProperty {
	s := &StructProperty{PropertyBase: PropertyBase{Name: name}}
	s.Members = newPropertyCollection(sink, func(b *PropertyBase) { b.parent = s }, func(b *PropertyBase) { b.parent = nil })
	return s
}

func (*StructProperty) Kind() PropertyKind { return StructPropertyKind }

func (*StructProperty) isProperty() {}

func (s *StructProperty) Add(p Property) Property {
	s.Members.Add(p)
	return p
}

func newPropertyCollection(sink collection.Reporter, attach, detach func(*PropertyBase)) *collection.Collection[Property] {
	c := collection.New(collection.Hooks[Property]{
		OnInsert: func(p Property) {
			b := p.Base()
			claim(b.template != nil || b.parent != nil, "property", b.Name)
			attach(b)
		},
		OnRemove: func(p Property) { detach(p.Base()) },
	})
	unique(c, sink, func(p Property) string { return p.Base().Name }, nil,
		"Duplicate property name '%s'.",
		func(p Property) []any { return []any{p.Base().Name} })
	return c
}

// WalkProperties visits every property of the template depth-first,
// including struct members.
func (t *Template) WalkProperties(visit func(p Property)) {
	var walk func(c *collection.Collection[Property])
	walk = func(c *collection.Collection[Property]) {
		for p := range c.Values() {
			visit(p)
			if s, ok := p.(*StructProperty); ok {
				walk(s.Members)
			}
		}
	}
	walk(t.Properties)
}
