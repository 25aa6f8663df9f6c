package msgid

import (
	"testing"

	"evmc/internal/diag"
	"evmc/internal/manifest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine    *diag.Engine
	collector *diag.Collector
	m         *manifest.EventManifest
	en        *manifest.LocalizedResourceSet
}

func newFixture() *fixture {
	c := &diag.Collector{}
	e := diag.NewEngine(c)
	m := manifest.New(e)
	return &fixture{engine: e, collector: c, m: m, en: m.AddResourceSet("en-US")}
}

func (f *fixture) str(name string) *manifest.LocalizedString {
	return f.en.Add(manifest.NewLocalizedString(name, name))
}

func (f *fixture) provider(name string) *manifest.Provider {
	p := f.m.AddProvider(f.m.NewProvider(name))
	p.ID = uuid.New()
	return p
}

func id(t *testing.T, s *manifest.LocalizedString) uint32 {
	t.Helper()
	v, ok := s.ID.Get()
	require.True(t, ok, "string %s has no id", s.Name)
	return v
}

func TestAssign_DerivedIDs(t *testing.T) {
	f := newFixture()
	p := f.provider("Contoso")
	p.Message = f.str("provider")
	ch := &manifest.Channel{Name: "c", Message: f.str("channel")}
	p.Channels.Add(ch)
	lvl := &manifest.Level{Name: "l", Value: 16, Message: f.str("level")}
	p.Levels.Add(lvl)
	task := p.NewTask("t", 2)
	task.Message = f.str("task")
	scoped := &manifest.Opcode{Name: "o", Value: 11, Message: f.str("scoped")}
	task.Opcodes.Add(scoped)
	p.Tasks.Add(task)
	kw := &manifest.Keyword{Name: "k", Mask: 0x8, Message: f.str("keyword")}
	p.Keywords.Add(kw)
	ev := &manifest.Event{Value: 7, Version: 1, Message: f.str("event")}
	p.Events.Add(ev)
	vm := p.NewMap(manifest.ValueMapKind, "m")
	item := vm.Add(&manifest.MapItem{Value: 1, Message: f.str("item")})
	p.Maps.Add(vm)
	flt := &manifest.Filter{Name: "f", Value: 3, Version: 2, Message: f.str("filter")}
	p.Filters.Add(flt)

	n := Assign(f.engine, f.m)
	assert.Equal(t, 9, n)

	assert.Equal(t, uint32(0x90000001), id(t, p.Message))
	assert.Equal(t, uint32(0x90000002), id(t, ch.Message))
	assert.Equal(t, uint32(0x50000010), id(t, lvl.Message))
	assert.Equal(t, uint32(0x70000002), id(t, task.Message))
	assert.Equal(t, uint32(0x3002000B), id(t, scoped.Message))
	assert.Equal(t, uint32(0x10000003), id(t, kw.Message))
	assert.Equal(t, uint32(0xB0010007), id(t, ev.Message))
	assert.Equal(t, uint32(0xD0000000), id(t, item.Message))
	assert.Equal(t, uint32(0x60020003), id(t, flt.Message))
}

func TestAssign_NumberingRestartsPerProvider(t *testing.T) {
	f := newFixture()
	a := f.provider("A")
	a.Message = f.str("a")
	b := f.provider("B")
	b.Message = f.str("b")

	Assign(f.engine, f.m)
	assert.Equal(t, id(t, a.Message), id(t, b.Message))
}

func TestAssign_UniqueWithinProvider(t *testing.T) {
	f := newFixture()
	p := f.provider("Contoso")
	// Same derived ID for both events: value and version collide after masking.
	e1 := &manifest.Event{Value: 1, Version: 0, Message: f.str("e1")}
	e2 := &manifest.Event{Value: 1, Version: 0x100, Message: f.str("e2")}
	p.Events.AddAll(e1, e2)
	pre := &manifest.Level{Name: "l", Value: 17, Message: f.str("pre")}
	pre.Message.ID = manifest.NewMessageID(0xB0000002)
	p.Levels.Add(pre)
	e3 := &manifest.Event{Value: 2, Message: f.str("e3")}
	p.Events.Add(e3)

	Assign(f.engine, f.m)

	ids := map[uint32]string{}
	require.Nil(t, p.Message)
	for _, ref := range p.MessageRefs() {
		if *ref == nil {
			continue
		}
		v := id(t, *ref)
		if other, dup := ids[v]; dup {
			t.Fatalf("id 0x%08X assigned to %s and %s", v, other, (*ref).Name)
		}
		ids[v] = (*ref).Name
	}
	assert.Equal(t, uint32(0xB0000002), id(t, pre.Message), "pre-assigned id is kept")
	assert.Equal(t, uint32(0xB0000004), id(t, e3.Message))
}

func TestAssign_SharedStringAssignedOnce(t *testing.T) {
	f := newFixture()
	p := f.provider("Contoso")
	shared := f.str("shared")
	p.Message = shared
	p.Events.Add(&manifest.Event{Value: 1, Message: shared})

	n := Assign(f.engine, f.m)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint32(0x90000001), id(t, shared))
}

func TestAssign_MissingTranslationWarns(t *testing.T) {
	f := newFixture()
	de := f.m.AddResourceSet("de-DE")
	p := f.provider("Contoso")
	p.Message = f.str("provider")
	p.Events.Add(&manifest.Event{Value: 1, Message: f.str("event")})
	f.str("unused")
	translated := de.Add(manifest.NewLocalizedString("provider", "Anbieter"))

	Assign(f.engine, f.m)

	warnings := f.collector.BySeverity(diag.Warning)
	require.Len(t, warnings, 1)
	assert.Equal(t, "String 'event' is missing from resources for culture 'de-DE'.", warnings[0].Message)
	assert.Zero(t, f.engine.ErrorCount())
	assert.Equal(t, p.Message.ID, translated.ID)
}

type countingGenerator struct {
	Generator
	calls []string
}

func (g *countingGenerator) Event(p *manifest.Provider, e *manifest.Event) uint32 {
	g.calls = append(g.calls, e.DisplayName())
	return g.Generator.Event(p, e)
}

func TestAssignWith_CustomGenerator(t *testing.T) {
	f := newFixture()
	p := f.provider("Contoso")
	p.Events.Add(&manifest.Event{Value: 1, Symbol: "First", Message: f.str("first")})
	p.Events.Add(&manifest.Event{Value: 2, Symbol: "Second", Message: f.str("second")})
	p.Events.Add(&manifest.Event{Value: 3, Symbol: "Silent"})

	var gens []*countingGenerator
	AssignWith(f.engine, f.m, func() Generator {
		g := &countingGenerator{Generator: NewGenerator()}
		gens = append(gens, g)
		return g
	})
	require.Len(t, gens, 1)
	assert.Equal(t, []string{"First", "Second"}, gens[0].calls)
}
