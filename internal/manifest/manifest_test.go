package manifest

import (
	"strings"
	"testing"

	"evmc/internal/core/errors"
	"evmc/internal/diag"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSink() (*diag.Engine, *diag.Collector) {
	c := &diag.Collector{}
	return diag.NewEngine(c), c
}

func u32(v uint32) *uint32 { return &v }

func TestProvider_DuplicateKeysAreReportedAndKept(t *testing.T) {
	tests := []struct {
		name  string
		add   func(p *Provider)
		count func(p *Provider) int
		want  string
	}{
		{
			name: "event value and version",
			add: func(p *Provider) {
				p.Events.Add(&Event{Value: 1, Version: 0})
				p.Events.Add(&Event{Value: 1, Version: 0})
			},
			count: func(p *Provider) int { return p.Events.Len() },
			want:  "Duplicate event value 1 with version 0.",
		},
		{
			name: "channel value",
			add: func(p *Provider) {
				p.Channels.Add(&Channel{Name: "a", Value: u32(16)})
				p.Channels.Add(&Channel{Name: "b", Value: u32(16)})
			},
			count: func(p *Provider) int { return p.Channels.Len() },
			want:  "Duplicate channel value 16.",
		},
		{
			name: "level name",
			add: func(p *Provider) {
				p.Levels.Add(&Level{Name: "l", Value: 16})
				p.Levels.Add(&Level{Name: "l", Value: 17})
			},
			count: func(p *Provider) int { return p.Levels.Len() },
			want:  "Duplicate level name 'l'.",
		},
		{
			name: "keyword mask",
			add: func(p *Provider) {
				p.Keywords.Add(&Keyword{Name: "a", Mask: 0x8})
				p.Keywords.Add(&Keyword{Name: "b", Mask: 0x8})
			},
			count: func(p *Provider) int { return p.Keywords.Len() },
			want:  "Duplicate keyword mask 0x8.",
		},
		{
			name: "filter value and version",
			add: func(p *Provider) {
				p.Filters.Add(&Filter{Name: "a", Value: 3, Version: 1})
				p.Filters.Add(&Filter{Name: "b", Value: 3, Version: 1})
			},
			count: func(p *Provider) int { return p.Filters.Len() },
			want:  "Duplicate filter value 3 with version 1.",
		},
		{
			name: "template id",
			add: func(p *Provider) {
				p.Templates.Add(p.NewTemplate("t1"))
				p.Templates.Add(p.NewTemplate("t1"))
			},
			count: func(p *Provider) int { return p.Templates.Len() },
			want:  "Duplicate template id 't1'.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, c := newSink()
			p := NewProvider(sink)
			tt.add(p)

			require.Len(t, c.Diagnostics(), 1)
			assert.Equal(t, tt.want, c.Diagnostics()[0].Message)
			assert.Equal(t, diag.Error, c.Diagnostics()[0].Severity)
			assert.Equal(t, 2, tt.count(p))
		})
	}
}

func TestProvider_AbsentKeysAreSkipped(t *testing.T) {
	sink, c := newSink()
	p := NewProvider(sink)

	p.Channels.Add(&Channel{Name: "a"})
	p.Channels.Add(&Channel{Name: "b"})
	p.Events.Add(&Event{Value: 1})
	p.Events.Add(&Event{Value: 2})
	p.Tasks.Add(p.NewTask("t1", 1))
	p.Tasks.Add(p.NewTask("t2", 2))

	assert.Empty(t, c.Diagnostics())
}

func TestProvider_PreviousLocationIsCited(t *testing.T) {
	sink, c := newSink()
	p := NewProvider(sink)

	first := &Level{Node: Node{Location: diag.Location{File: "a.man", Line: 4, Column: 7}}, Name: "l", Value: 16}
	second := &Level{Node: Node{Location: diag.Location{File: "a.man", Line: 9, Column: 7}}, Name: "l", Value: 17}
	p.Levels.Add(first)
	p.Levels.Add(second)

	require.Len(t, c.Diagnostics(), 1)
	d := c.Diagnostics()[0]
	assert.Equal(t, second.Location, d.Location)
	assert.Equal(t, "Duplicate level name 'l'. Previously defined at a.man(4,7).", d.Message)
}

func TestOpcodes_TaskScopesAreIndependent(t *testing.T) {
	sink, c := newSink()
	p := NewProvider(sink)
	t1 := p.NewTask("t1", 1)
	t2 := p.NewTask("t2", 2)
	p.Tasks.AddAll(t1, t2)

	o1 := &Opcode{Name: "Begin", Value: 10}
	o2 := &Opcode{Name: "Begin", Value: 10}
	t1.Opcodes.Add(o1)
	t2.Opcodes.Add(o2)
	p.Opcodes.Add(&Opcode{Name: "Begin", Value: 10})
	assert.Empty(t, c.Diagnostics())

	assert.Same(t, t1, o1.Task())
	assert.Same(t, p, o1.Provider())
	assert.Len(t, p.AllOpcodes(), 3)

	t1.Opcodes.Add(&Opcode{Name: "Begin", Value: 11})
	require.Len(t, c.Diagnostics(), 1)
	assert.Contains(t, c.Diagnostics()[0].Message, "Duplicate opcode name 'Begin'.")
}

func TestOwnership_BackReferences(t *testing.T) {
	sink, _ := newSink()
	p := NewProvider(sink)
	e := &Event{Value: 1}

	p.Events.Add(e)
	assert.Same(t, p, e.Provider())

	p.Events.Remove(e)
	assert.Nil(t, e.Provider())

	// Once detached, the item can be owned again.
	other := NewProvider(sink)
	other.Events.Add(e)
	assert.Same(t, other, e.Provider())
}

func TestOwnership_DoubleInsertPanics(t *testing.T) {
	sink, _ := newSink()
	a := NewProvider(sink)
	b := NewProvider(sink)
	lvl := &Level{Name: "l", Value: 16}
	a.Levels.Add(lvl)

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.IsCode(err, errors.CodeInternal))
		assert.Contains(t, err.Error(), "level 'l' already belongs")
	}()
	b.Levels.Add(lvl)
}

func TestRemoval_FreesKey(t *testing.T) {
	sink, c := newSink()
	p := NewProvider(sink)
	k := &Keyword{Name: "a", Mask: 0x1}
	p.Keywords.Add(k)
	p.Keywords.Remove(k)
	p.Keywords.Add(&Keyword{Name: "a", Mask: 0x1})
	assert.Empty(t, c.Diagnostics())
}

func TestManifest_ProviderConstraints(t *testing.T) {
	sink, c := newSink()
	m := New(sink)
	id := uuid.MustParse("5c3a2d4b-1111-2222-3333-444444444444")

	a := m.NewProvider("Contoso")
	a.ID = id
	b := m.NewProvider("Fabrikam")
	b.ID = id
	m.AddProvider(a)
	m.AddProvider(b)

	require.Len(t, c.Diagnostics(), 1)
	assert.True(t, strings.HasPrefix(c.Diagnostics()[0].Message,
		"Duplicate provider guid '{5C3A2D4B-1111-2222-3333-444444444444}' used by 'Fabrikam'."))
	assert.Same(t, m, a.Manifest())
}

func TestResourceSets(t *testing.T) {
	sink, c := newSink()
	m := New(sink)

	assert.Nil(t, m.PrimaryResourceSet())
	en := m.AddResourceSet("en-US")
	de := m.AddResourceSet("de-DE")
	assert.Same(t, en, m.AddResourceSet("en-US"))
	assert.Same(t, en, m.PrimaryResourceSet())
	assert.True(t, en.IsPrimary())
	assert.False(t, de.IsPrimary())

	hello := en.Add(NewLocalizedString("hello", "Hello"))
	en.Add(NewLocalizedString("hello", "Hi"))
	require.Len(t, c.Diagnostics(), 1)
	assert.Equal(t, "Duplicate string name 'hello' in resources for culture 'en-US'.", c.Diagnostics()[0].Message)

	got, ok := en.Get("hello")
	require.True(t, ok)
	assert.Same(t, hello, got)
	assert.Same(t, en, hello.Owner())
	assert.Equal(t, 2, m.Strings())

	assert.Empty(t, en.UsedStrings())
	hello.ID = NewMessageID(0x10)
	assert.Equal(t, []*LocalizedString{hello}, en.UsedStrings())
}

func TestResourceSet_RemoveRestoresShadowedName(t *testing.T) {
	sink, _ := newSink()
	rs := New(sink).AddResourceSet("en-US")
	first := rs.Add(NewLocalizedString("s", "one"))
	second := rs.Add(NewLocalizedString("s", "two"))

	rs.Strings.Remove(first)
	got, ok := rs.Get("s")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestMessageRefs_Order(t *testing.T) {
	sink, _ := newSink()
	p := NewProvider(sink)
	msg := func(name string) *LocalizedString { return NewLocalizedString(name, name) }

	p.Message = msg("provider")
	p.Filters.Add(&Filter{Name: "f", Message: msg("filter")})
	m := p.NewMap(ValueMapKind, "m")
	m.Add(&MapItem{Value: 1, Message: msg("item")})
	p.Maps.Add(m)
	p.Events.Add(&Event{Value: 1, Message: msg("event")})
	p.Keywords.Add(&Keyword{Name: "k", Mask: 1, Message: msg("keyword")})
	task := p.NewTask("t", 1)
	task.Message = msg("task")
	task.Opcodes.Add(&Opcode{Name: "o2", Value: 11, Message: msg("task-opcode")})
	p.Tasks.Add(task)
	p.Opcodes.Add(&Opcode{Name: "o", Value: 10, Message: msg("opcode")})
	p.Levels.Add(&Level{Name: "l", Value: 16, Message: msg("level")})
	p.Channels.Add(&Channel{Name: "c", Message: msg("channel")})

	var names []string
	for _, ref := range p.MessageRefs() {
		names = append(names, (*ref).Name)
	}
	assert.Equal(t, []string{
		"provider", "channel", "level", "task", "opcode", "task-opcode",
		"keyword", "event", "item", "filter",
	}, names)
}

func TestTemplate_Properties(t *testing.T) {
	sink, c := newSink()
	p := NewProvider(sink)
	tmpl := p.NewTemplate("t1")
	p.Templates.Add(tmpl)

	s := NewStructProperty(sink, "point")
	x := NewDataProperty("x", InInt32)
	s.Add(x)
	s.Add(NewDataProperty("y", InInt32))
	tmpl.Add(NewDataProperty("name", InUnicodeString))
	tmpl.Add(s)
	tmpl.Add(NewDataProperty("name", InAnsiString))

	require.Len(t, c.Diagnostics(), 1)
	assert.Equal(t, "Duplicate property name 'name'.", c.Diagnostics()[0].Message)

	assert.Same(t, s, x.Parent())
	assert.Same(t, tmpl, x.Template())
	assert.Same(t, p, tmpl.Provider())

	var visited []string
	tmpl.WalkProperties(func(p Property) { visited = append(visited, p.Base().Name) })
	assert.Equal(t, []string{"name", "point", "x", "y", "name"}, visited)
}

func TestMapItem_KindFollowsMap(t *testing.T) {
	sink, c := newSink()
	m := NewMap(sink, BitMapKind, "flags")
	item := m.Add(&MapItem{Value: 1})
	m.Add(&MapItem{Value: 1})

	assert.Equal(t, BitMapKind, item.Kind())
	assert.Same(t, m, item.Map())
	require.Len(t, c.Diagnostics(), 1)
	assert.Equal(t, "Duplicate value 0x1 in map 'flags'.", c.Diagnostics()[0].Message)
}

func TestMessageID(t *testing.T) {
	var unset MessageID
	assert.False(t, unset.IsSet())
	assert.Equal(t, UnusedMessageID, unset.Wire())
	assert.False(t, NewMessageID(UnusedMessageID).IsSet())

	id := NewMessageID(0xB0000001)
	v, ok := id.Get()
	assert.True(t, ok)
	assert.Equal(t, uint32(0xB0000001), v)
	assert.Equal(t, "0xB0000001", id.String())
}

func TestTypes_Parse(t *testing.T) {
	in, ok := ParseInType("win:CountedBinary")
	require.True(t, ok)
	assert.Equal(t, InCountedBinary, in)
	assert.True(t, in.IsCounted())
	assert.False(t, InBinary.IsCounted())

	out, ok := ParseOutType("win:HexInt32")
	require.True(t, ok)
	assert.Equal(t, "win:HexInt32", out.String())

	ct, ok := ParseChannelType("Analytic")
	require.True(t, ok)
	assert.Equal(t, ChannelAnalytic, ct)

	_, ok = ParseInType("win:Nope")
	assert.False(t, ok)
}

func TestGUID_RoundTrip(t *testing.T) {
	id, err := ParseGUID("{5c3a2d4b-1111-2222-3333-444444444444}")
	require.NoError(t, err)
	assert.Equal(t, "{5C3A2D4B-1111-2222-3333-444444444444}", FormatGUID(id))

	_, err = ParseGUID("not-a-guid")
	assert.Error(t, err)
}

func TestWinMeta(t *testing.T) {
	lvl, ok := PredefinedLevel("win:Verbose")
	require.True(t, ok)
	assert.Equal(t, uint32(5), lvl.Value)
	assert.True(t, lvl.Imported)

	assert.True(t, IsReservedOpcodeName("win:Start"))
	assert.False(t, IsReservedOpcodeName("Start"))

	v, ok := PredefinedChannelValue("Application")
	require.True(t, ok)
	assert.Equal(t, uint32(9), v)
}
