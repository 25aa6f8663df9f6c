package manifest

import (
	"evmc/internal/engine/collection"

	"github.com/google/uuid"
)

type Provider struct {
	Node
	Name              string
	ID                uuid.UUID
	Symbol            string
	ResourceFileName  string
	MessageFileName   string
	ParameterFileName string
	// ControlGUID is set when the provider is controlled through a GUID
	// embedded in its name.
	ControlGUID *uuid.UUID
	Message     *LocalizedString

	Events      *collection.Collection[*Event]
	Channels    *collection.Collection[*Channel]
	Levels      *collection.Collection[*Level]
	Opcodes     *collection.Collection[*Opcode]
	Tasks       *collection.Collection[*Task]
	Keywords    *collection.Collection[*Keyword]
	Maps        *collection.Collection[*Map]
	PatternMaps *collection.Collection[*PatternMap]
	Templates   *collection.Collection[*Template]
	Filters     *collection.Collection[*Filter]

	manifest *EventManifest
	sink     collection.Reporter
}

func (p *Provider) symbol() string { return p.Symbol }

func (p *Provider) Manifest() *EventManifest { return p.manifest }

// NewProvider builds an empty provider whose collections report duplicate
// keys to sink.
func NewProvider(sink collection.Reporter) *Provider {
	p := &Provider{sink: sink}

	p.Events = collection.New(collection.Hooks[*Event]{
		OnInsert: func(e *Event) { claim(e.provider != nil, "event", e.DisplayName()); e.provider = p },
		OnRemove: func(e *Event) { e.provider = nil },
	})
	type valueVersion struct{ value, version uint32 }
	unique(p.Events, sink, func(e *Event) valueVersion { return valueVersion{e.Value, e.Version} }, nil,
		"Duplicate event value %d with version %d.",
		func(e *Event) []any { return []any{e.Value, e.Version} })
	unique(p.Events, sink, func(e *Event) string { return e.Symbol }, noSymbol[*Event],
		"Duplicate event symbol '%s'.",
		func(e *Event) []any { return []any{e.Symbol} })

	p.Channels = collection.New(collection.Hooks[*Channel]{
		OnInsert: func(c *Channel) { claim(c.provider != nil, "channel", c.Name); c.provider = p },
		OnRemove: func(c *Channel) { c.provider = nil },
	})
	unique(p.Channels, sink, func(c *Channel) string { return c.Name }, nil,
		"Duplicate channel name '%s'.",
		func(c *Channel) []any { return []any{c.Name} })
	unique(p.Channels, sink, func(c *Channel) uint32 { return *c.Value },
		func(c *Channel) bool { return c.Value == nil },
		"Duplicate channel value %d.",
		func(c *Channel) []any { return []any{*c.Value} })
	unique(p.Channels, sink, func(c *Channel) string { return c.Symbol }, noSymbol[*Channel],
		"Duplicate channel symbol '%s'.",
		func(c *Channel) []any { return []any{c.Symbol} })
	unique(p.Channels, sink, func(c *Channel) string { return *c.ID },
		func(c *Channel) bool { return c.ID == nil },
		"Duplicate channel id '%s'.",
		func(c *Channel) []any { return []any{*c.ID} })

	p.Levels = collection.New(collection.Hooks[*Level]{
		OnInsert: func(l *Level) { claim(l.provider != nil, "level", l.Name); l.provider = p },
		OnRemove: func(l *Level) { l.provider = nil },
	})
	unique(p.Levels, sink, func(l *Level) string { return l.Name }, nil,
		"Duplicate level name '%s'.",
		func(l *Level) []any { return []any{l.Name} })
	unique(p.Levels, sink, func(l *Level) uint32 { return l.Value }, nil,
		"Duplicate level value %d.",
		func(l *Level) []any { return []any{l.Value} })
	unique(p.Levels, sink, func(l *Level) string { return l.Symbol }, noSymbol[*Level],
		"Duplicate level symbol '%s'.",
		func(l *Level) []any { return []any{l.Symbol} })

	p.Opcodes = newOpcodeCollection(sink, func(o *Opcode) {
		claim(o.provider != nil || o.task != nil, "opcode", o.Name)
		o.provider = p
	}, func(o *Opcode) { o.provider = nil })

	p.Tasks = collection.New(collection.Hooks[*Task]{
		OnInsert: func(t *Task) { claim(t.provider != nil, "task", t.Name); t.provider = p },
		OnRemove: func(t *Task) { t.provider = nil },
	})
	unique(p.Tasks, sink, func(t *Task) string { return t.Name }, nil,
		"Duplicate task name '%s'.",
		func(t *Task) []any { return []any{t.Name} })
	unique(p.Tasks, sink, func(t *Task) uint32 { return t.Value }, nil,
		"Duplicate task value %d.",
		func(t *Task) []any { return []any{t.Value} })
	unique(p.Tasks, sink, func(t *Task) string { return t.Symbol }, noSymbol[*Task],
		"Duplicate task symbol '%s'.",
		func(t *Task) []any { return []any{t.Symbol} })
	unique(p.Tasks, sink, func(t *Task) uuid.UUID { return *t.GUID },
		func(t *Task) bool { return t.GUID == nil },
		"Duplicate task guid '%s'.",
		func(t *Task) []any { return []any{FormatGUID(*t.GUID)} })

	p.Keywords = collection.New(collection.Hooks[*Keyword]{
		OnInsert: func(k *Keyword) { claim(k.provider != nil, "keyword", k.Name); k.provider = p },
		OnRemove: func(k *Keyword) { k.provider = nil },
	})
	unique(p.Keywords, sink, func(k *Keyword) string { return k.Name }, nil,
		"Duplicate keyword name '%s'.",
		func(k *Keyword) []any { return []any{k.Name} })
	unique(p.Keywords, sink, func(k *Keyword) uint64 { return k.Mask }, nil,
		"Duplicate keyword mask 0x%X.",
		func(k *Keyword) []any { return []any{k.Mask} })
	unique(p.Keywords, sink, func(k *Keyword) string { return k.Symbol }, noSymbol[*Keyword],
		"Duplicate keyword symbol '%s'.",
		func(k *Keyword) []any { return []any{k.Symbol} })

	p.Maps = collection.New(collection.Hooks[*Map]{
		OnInsert: func(m *Map) { claim(m.provider != nil, "map", m.Name); m.provider = p },
		OnRemove: func(m *Map) { m.provider = nil },
	})
	unique(p.Maps, sink, func(m *Map) string { return m.Name }, nil,
		"Duplicate map name '%s'.",
		func(m *Map) []any { return []any{m.Name} })
	unique(p.Maps, sink, func(m *Map) string { return m.Symbol }, noSymbol[*Map],
		"Duplicate map symbol '%s'.",
		func(m *Map) []any { return []any{m.Symbol} })

	p.PatternMaps = collection.New(collection.Hooks[*PatternMap]{
		OnInsert: func(m *PatternMap) { claim(m.provider != nil, "pattern map", m.Name); m.provider = p },
		OnRemove: func(m *PatternMap) { m.provider = nil },
	})
	unique(p.PatternMaps, sink, func(m *PatternMap) string { return m.Name }, nil,
		"Duplicate pattern map name '%s'.",
		func(m *PatternMap) []any { return []any{m.Name} })
	unique(p.PatternMaps, sink, func(m *PatternMap) string { return m.Symbol }, noSymbol[*PatternMap],
		"Duplicate pattern map symbol '%s'.",
		func(m *PatternMap) []any { return []any{m.Symbol} })

	p.Templates = collection.New(collection.Hooks[*Template]{
		OnInsert: func(t *Template) { claim(t.provider != nil, "template", t.ID); t.provider = p },
		OnRemove: func(t *Template) { t.provider = nil },
	})
	unique(p.Templates, sink, func(t *Template) string { return t.ID }, nil,
		"Duplicate template id '%s'.",
		func(t *Template) []any { return []any{t.ID} })
	unique(p.Templates, sink, func(t *Template) string { return t.Name },
		func(t *Template) bool { return t.Name == "" },
		"Duplicate template name '%s'.",
		func(t *Template) []any { return []any{t.Name} })

	p.Filters = collection.New(collection.Hooks[*Filter]{
		OnInsert: func(f *Filter) { claim(f.provider != nil, "filter", f.Name); f.provider = p },
		OnRemove: func(f *Filter) { f.provider = nil },
	})
	unique(p.Filters, sink, func(f *Filter) string { return f.Name }, nil,
		"Duplicate filter name '%s'.",
		func(f *Filter) []any { return []any{f.Name} })
	unique(p.Filters, sink, func(f *Filter) valueVersion { return valueVersion{f.Value, f.Version} }, nil,
		"Duplicate filter value %d with version %d.",
		func(f *Filter) []any { return []any{f.Value, f.Version} })
	unique(p.Filters, sink, func(f *Filter) string { return f.Symbol }, noSymbol[*Filter],
		"Duplicate filter symbol '%s'.",
		func(f *Filter) []any { return []any{f.Symbol} })

	return p
}

func newOpcodeCollection(sink collection.Reporter, attach, detach func(*Opcode)) *collection.Collection[*Opcode] {
	c := collection.New(collection.Hooks[*Opcode]{OnInsert: attach, OnRemove: detach})
	unique(c, sink, func(o *Opcode) string { return o.Name }, nil,
		"Duplicate opcode name '%s'.",
		func(o *Opcode) []any { return []any{o.Name} })
	unique(c, sink, func(o *Opcode) uint32 { return o.Value }, nil,
		"Duplicate opcode value %d.",
		func(o *Opcode) []any { return []any{o.Value} })
	unique(c, sink, func(o *Opcode) string { return o.Symbol }, noSymbol[*Opcode],
		"Duplicate opcode symbol '%s'.",
		func(o *Opcode) []any { return []any{o.Symbol} })
	return c
}

// NewTask creates a task whose scoped opcodes report to the provider's sink.
func (p *Provider) NewTask(name string, value uint32) *Task {
	return NewTask(p.sink, name, value)
}

func (p *Provider) NewMap(kind MapKind, name string) *Map {
	return NewMap(p.sink, kind, name)
}

func (p *Provider) NewPatternMap(name, format string) *PatternMap {
	return NewPatternMap(p.sink, name, format)
}

func (p *Provider) NewTemplate(id string) *Template {
	return NewTemplate(p.sink, id)
}

// AllOpcodes returns provider-scoped opcodes followed by every task-scoped
// opcode, task by task.
func (p *Provider) AllOpcodes() []*Opcode {
	out := p.Opcodes.Items()
	for t := range p.Tasks.Values() {
		out = append(out, t.Opcodes.Items()...)
	}
	return out
}

// MessageRefs returns a pointer to every message field of the provider and
// its items, in message-ID assignment order. Callers may read or rewrite
// through the returned pointers.
func (p *Provider) MessageRefs() []**LocalizedString {
	refs := []**LocalizedString{&p.Message}
	for c := range p.Channels.Values() {
		refs = append(refs, &c.Message)
	}
	for l := range p.Levels.Values() {
		refs = append(refs, &l.Message)
	}
	for t := range p.Tasks.Values() {
		refs = append(refs, &t.Message)
	}
	for _, o := range p.AllOpcodes() {
		refs = append(refs, &o.Message)
	}
	for k := range p.Keywords.Values() {
		refs = append(refs, &k.Message)
	}
	for e := range p.Events.Values() {
		refs = append(refs, &e.Message)
	}
	for m := range p.Maps.Values() {
		for item := range m.Items.Values() {
			refs = append(refs, &item.Message)
		}
	}
	for f := range p.Filters.Values() {
		refs = append(refs, &f.Message)
	}
	return refs
}

func (p *Provider) FindChannel(name string) (*Channel, bool) {
	return p.Channels.Find(func(c *Channel) bool { return c.Name == name || (c.ID != nil && *c.ID == name) })
}

func (p *Provider) FindLevel(name string) (*Level, bool) {
	return p.Levels.Find(func(l *Level) bool { return l.Name == name })
}

func (p *Provider) FindTask(name string) (*Task, bool) {
	return p.Tasks.Find(func(t *Task) bool { return t.Name == name })
}

func (p *Provider) FindOpcode(name string) (*Opcode, bool) {
	return p.Opcodes.Find(func(o *Opcode) bool { return o.Name == name })
}

func (p *Provider) FindKeyword(name string) (*Keyword, bool) {
	return p.Keywords.Find(func(k *Keyword) bool { return k.Name == name })
}

func (p *Provider) FindMap(name string) (*Map, bool) {
	return p.Maps.Find(func(m *Map) bool { return m.Name == name })
}

func (p *Provider) FindPatternMap(name string) (*PatternMap, bool) {
	return p.PatternMaps.Find(func(m *PatternMap) bool { return m.Name == name })
}

func (p *Provider) FindTemplate(id string) (*Template, bool) {
	return p.Templates.Find(func(t *Template) bool { return t.ID == id })
}
