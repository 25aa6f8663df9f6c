package merge

import (
	"testing"

	"evmc/internal/diag"
	"evmc/internal/manifest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build returns a manifest with one provider whose every message kind points
// into the en-US string table.
func build(sink diag.Reporter, name string, id uuid.UUID) *manifest.EventManifest {
	m := manifest.New(sink)
	en := m.AddResourceSet("en-US")
	str := func(n, v string) *manifest.LocalizedString { return en.Add(manifest.NewLocalizedString(n, v)) }

	p := m.AddProvider(m.NewProvider(name))
	p.ID = id
	p.Message = str("provider", name)
	p.Channels.Add(&manifest.Channel{Name: "ops", Message: str("channel", "Operational")})
	p.Levels.Add(&manifest.Level{Name: "lvl", Value: 16, Message: str("level", "Level")})
	task := p.NewTask("task", 1)
	task.Message = str("task", "Task")
	task.Opcodes.Add(&manifest.Opcode{Name: "op", Value: 10, Message: str("opcode", "Opcode")})
	p.Tasks.Add(task)
	p.Keywords.Add(&manifest.Keyword{Name: "kw", Mask: 1, Message: str("keyword", "Keyword")})
	vm := p.NewMap(manifest.ValueMapKind, "map")
	vm.Add(&manifest.MapItem{Value: 1, Message: str("item", "One")})
	p.Maps.Add(vm)
	p.Filters.Add(&manifest.Filter{Name: "f", Message: str("filter", "Filter")})
	p.Events.Add(&manifest.Event{Value: 1, Message: str("event", "Hello")})
	return m
}

func names(rs *manifest.LocalizedResourceSet) []string {
	var out []string
	for s := range rs.Strings.Values() {
		out = append(out, s.Name)
	}
	return out
}

func TestMerge_SingleManifestIsUnchanged(t *testing.T) {
	engine := diag.NewEngine(nil)
	a := build(engine, "Contoso", uuid.New())
	providers := a.Providers.Items()

	got := Merge(engine, []*manifest.EventManifest{a})
	assert.Same(t, a, got)
	assert.Equal(t, providers, got.Providers.Items())
	assert.Zero(t, engine.ErrorCount())
}

func TestMerge_DisjointManifests(t *testing.T) {
	engine := diag.NewEngine(nil)
	a := build(engine, "Contoso", uuid.New())
	b := manifest.New(engine)
	b.AddResourceSet("en-US").Add(manifest.NewLocalizedString("other", "Other"))
	b.AddProvider(b.NewProvider("Fabrikam")).ID = uuid.New()

	got := Merge(engine, []*manifest.EventManifest{a, b})
	require.Equal(t, 2, got.Providers.Len())
	assert.Same(t, got, got.Providers.At(0).Manifest())
	assert.Zero(t, engine.ErrorCount())

	want := []string{"provider", "channel", "level", "task", "opcode", "keyword", "item", "filter", "event", "other"}
	if diff := cmp.Diff(want, names(got.PrimaryResourceSet())); diff != "" {
		t.Errorf("strings mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_SameManifestTwiceRenamesSecondCopy(t *testing.T) {
	engine := diag.NewEngine(nil)
	id := uuid.New()
	a1 := build(engine, "Contoso", id)
	a2 := build(engine, "Contoso", id)
	first := a1.Providers.At(0)
	second := a2.Providers.At(0)
	original := second.Events.At(0).Message

	got := Merge(engine, []*manifest.EventManifest{a1, a2})

	// Provider name and guid collide across files.
	assert.Equal(t, 2, engine.ErrorCount())
	require.Equal(t, 2, got.Providers.Len())
	require.Len(t, got.ResourceSets(), 1)

	en := got.PrimaryResourceSet()
	assert.Equal(t, 18, en.Strings.Len())

	for _, ref := range first.MessageRefs() {
		assert.Same(t, en, (*ref).Owner())
		assert.NotContains(t, (*ref).Name, "manifest2.")
	}
	for _, ref := range second.MessageRefs() {
		s := *ref
		assert.Same(t, en, s.Owner(), "string %s", s.Name)
		assert.Regexp(t, `^manifest2\.`, s.Name)
	}

	ev := second.Events.At(0).Message
	assert.NotSame(t, original, ev)
	assert.Equal(t, "manifest2.event", ev.Name)
	assert.Equal(t, "Hello", ev.Value)

	opcode := second.Tasks.At(0).Opcodes.At(0).Message
	assert.Equal(t, "manifest2.opcode", opcode.Name)
}

func TestMerge_IdenticalAssignedStringIsShared(t *testing.T) {
	engine := diag.NewEngine(nil)

	a := manifest.New(engine)
	shared := a.AddResourceSet("en-US").Add(manifest.NewLocalizedString("msg", "Hello"))
	shared.ID = manifest.NewMessageID(0x10)

	b := manifest.New(engine)
	dup := b.AddResourceSet("en-US").Add(manifest.NewLocalizedString("msg", "Hello"))
	dup.ID = manifest.NewMessageID(0x10)
	p := b.AddProvider(b.NewProvider("Fabrikam"))
	p.ID = uuid.New()
	p.Message = dup

	got := Merge(engine, []*manifest.EventManifest{a, b})
	assert.Equal(t, []string{"msg"}, names(got.PrimaryResourceSet()))
	assert.Same(t, shared, p.Message)
}

func TestMerge_DifferentValueIsRenamedNotOverwritten(t *testing.T) {
	engine := diag.NewEngine(nil)

	a := manifest.New(engine)
	a.AddResourceSet("de-DE").Add(manifest.NewLocalizedString("msg", "Hallo"))
	b := manifest.New(engine)
	b.AddResourceSet("de-DE").Add(manifest.NewLocalizedString("msg", "Servus"))
	b.AddResourceSet("fr-FR").Add(manifest.NewLocalizedString("msg", "Salut"))

	got := Merge(engine, []*manifest.EventManifest{a, b})

	de, ok := got.ResourceSet("de-DE")
	require.True(t, ok)
	assert.Equal(t, []string{"msg", "manifest2.msg"}, names(de))
	s, _ := de.Get("msg")
	assert.Equal(t, "Hallo", s.Value)

	fr, ok := got.ResourceSet("fr-FR")
	require.True(t, ok)
	assert.Equal(t, []string{"msg"}, names(fr))
	assert.Zero(t, engine.ErrorCount())
}
