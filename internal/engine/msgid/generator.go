package msgid

import (
	"evmc/internal/manifest"
)

// Generator derives message IDs for one provider. A fresh generator is
// created per provider, so numbering restarts for every provider.
type Generator interface {
	// Reserve marks an ID as taken by a pre-assigned message.
	Reserve(id uint32)
	Provider(p *manifest.Provider) uint32
	Channel(p *manifest.Provider, c *manifest.Channel) uint32
	Level(p *manifest.Provider, l *manifest.Level) uint32
	Task(p *manifest.Provider, t *manifest.Task) uint32
	Opcode(p *manifest.Provider, o *manifest.Opcode) uint32
	Keyword(p *manifest.Provider, k *manifest.Keyword) uint32
	Event(p *manifest.Provider, e *manifest.Event) uint32
	MapItem(p *manifest.Provider, m *manifest.Map, item *manifest.MapItem) uint32
	Filter(p *manifest.Provider, f *manifest.Filter) uint32
}

// Factory creates the generator for one provider.
type Factory func() Generator

const (
	keywordBase  uint32 = 0x10000000
	opcodeBase   uint32 = 0x30000000
	levelBase    uint32 = 0x50000000
	filterBase   uint32 = 0x60000000
	taskBase     uint32 = 0x70000000
	providerBase uint32 = 0x90000001
	eventBase    uint32 = 0xB0000000
	mapItemBase  uint32 = 0xD0000000
)

// mcGenerator numbers messages the way mc.exe does: the high nibble encodes
// the entity kind, the low bits its value. Collisions move to the next free ID.
type mcGenerator struct {
	taken    map[uint32]struct{}
	channels uint32
	mapItems uint32
}

func NewGenerator() Generator {
	return &mcGenerator{taken: make(map[uint32]struct{})}
}

func (g *mcGenerator) Reserve(id uint32) {
	g.taken[id] = struct{}{}
}

func (g *mcGenerator) claim(id uint32) uint32 {
	for {
		if _, ok := g.taken[id]; !ok && id != manifest.UnusedMessageID {
			g.taken[id] = struct{}{}
			return id
		}
		id++
	}
}

// Provider and channel messages share one sequence.
func (g *mcGenerator) Provider(*manifest.Provider) uint32 {
	id := providerBase + g.channels
	g.channels++
	return g.claim(id)
}

func (g *mcGenerator) Channel(*manifest.Provider, *manifest.Channel) uint32 {
	id := providerBase + g.channels
	g.channels++
	return g.claim(id)
}

func (g *mcGenerator) Level(_ *manifest.Provider, l *manifest.Level) uint32 {
	return g.claim(levelBase | l.Value)
}

func (g *mcGenerator) Task(_ *manifest.Provider, t *manifest.Task) uint32 {
	return g.claim(taskBase | t.Value)
}

func (g *mcGenerator) Opcode(_ *manifest.Provider, o *manifest.Opcode) uint32 {
	var task uint32
	if t := o.Task(); t != nil {
		task = t.Value
	}
	return g.claim(opcodeBase | (task&0xFFF)<<16 | o.Value&0xFFFF)
}

func (g *mcGenerator) Keyword(_ *manifest.Provider, k *manifest.Keyword) uint32 {
	idx := k.BitIndex()
	if idx < 0 {
		idx = 0
	}
	return g.claim(keywordBase | uint32(idx))
}

func (g *mcGenerator) Event(_ *manifest.Provider, e *manifest.Event) uint32 {
	return g.claim(eventBase | (e.Version&0xFF)<<16 | e.Value&0xFFFF)
}

func (g *mcGenerator) MapItem(*manifest.Provider, *manifest.Map, *manifest.MapItem) uint32 {
	id := mapItemBase + g.mapItems
	g.mapItems++
	return g.claim(id)
}

func (g *mcGenerator) Filter(_ *manifest.Provider, f *manifest.Filter) uint32 {
	return g.claim(filterBase | (f.Version&0xFF)<<16 | f.Value&0xFFFF)
}
