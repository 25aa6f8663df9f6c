// Package wevt encodes validated providers as a binary event template
// resource: a CRIM header followed by one WEVT block per provider.
package wevt

import (
	"fmt"
	"io"

	"evmc/internal/manifest"
)

const (
	majorVersion = 3
	minorVersion = 1
	eventSize    = 48
	propertySize = 24
)

// Element list kinds in the order they follow each WEVT header.
var elementOrder = []string{"CHAN", "LEVL", "OPCO", "TASK", "KEYW", "EVNT", "MAPS", "TTBL"}

const (
	propStruct     uint32 = 0x1
	propCountRef   uint32 = 0x2
	propLengthRef  uint32 = 0x4
	propHasMap     uint32 = 0x8
	chanImported   uint32 = 0x1
	chanEnabled    uint32 = 0x2
	eventNotLogged uint32 = 0x1
)

// Writer implements ports.TemplateWriter.
type Writer struct{}

func (Writer) Write(w io.Writer, providers []*manifest.Provider) error {
	b := &builder{}
	b.magic("CRIM")
	sizeAt := b.reserve()
	b.u16(majorVersion)
	b.u16(minorVersion)
	b.u32(uint32(len(providers)))

	offsets := make([]uint32, len(providers))
	for i, p := range providers {
		b.guid(p.ID)
		offsets[i] = b.reserve()
	}
	for i, p := range providers {
		b.patch(offsets[i], b.pos())
		if err := writeProvider(b, p); err != nil {
			return fmt.Errorf("provider %s: %w", p.Name, err)
		}
	}
	b.patch(sizeAt, b.pos())
	_, err := w.Write(b.buf)
	return err
}

type providerWriter struct {
	b        *builder
	p        *manifest.Provider
	channels map[*manifest.Channel]uint8
	levels   map[*manifest.Level]uint32
	opcodes  map[*manifest.Opcode]uint32
	tasks    map[*manifest.Task]uint32
	maps     map[*manifest.Map]uint32
	// template offsets are only known after EVNT is written.
	templateRefs map[uint32]*manifest.Template
}

func writeProvider(b *builder, p *manifest.Provider) error {
	pw := &providerWriter{
		b:            b,
		p:            p,
		channels:     ResolveChannelValues(p),
		levels:       map[*manifest.Level]uint32{},
		opcodes:      map[*manifest.Opcode]uint32{},
		tasks:        map[*manifest.Task]uint32{},
		maps:         map[*manifest.Map]uint32{},
		templateRefs: map[uint32]*manifest.Template{},
	}

	start := b.pos()
	b.magic("WEVT")
	sizeAt := b.reserve()
	b.u32(messageID(p.Message))
	b.u32(uint32(len(elementOrder)))
	b.u32(0)
	descriptors := make([]uint32, len(elementOrder))
	for i := range elementOrder {
		descriptors[i] = b.reserve()
		b.u32(0)
	}

	writers := []func() error{
		pw.channelList, pw.levelList, pw.opcodeList, pw.taskList,
		pw.keywordList, pw.eventList, pw.mapList, pw.templateList,
	}
	for i, write := range writers {
		b.patch(descriptors[i], b.pos())
		if err := write(); err != nil {
			return fmt.Errorf("%s: %w", elementOrder[i], err)
		}
	}
	b.patch(sizeAt, b.pos()-start)
	return nil
}

func messageID(s *manifest.LocalizedString) uint32 {
	if s == nil {
		return manifest.UnusedMessageID
	}
	return s.ID.Wire()
}

// list writes one element list header and its entries, then the names the
// entries refer to.
func (pw *providerWriter) list(magic string, count int, entries func(n *names)) error {
	b := pw.b
	start := b.pos()
	b.magic(magic)
	sizeAt := b.reserve()
	b.u32(uint32(count))
	var n names
	entries(&n)
	if err := n.flush(b); err != nil {
		return err
	}
	b.patch(sizeAt, b.pos()-start)
	return nil
}

func (pw *providerWriter) channelList() error {
	return pw.list("CHAN", pw.p.Channels.Len(), func(n *names) {
		for c := range pw.p.Channels.Values() {
			var flags uint32
			if c.Imported {
				flags |= chanImported
			}
			if c.Enabled {
				flags |= chanEnabled
			}
			pw.b.u32(uint32(pw.channels[c]))
			n.ref(pw.b, c.Name)
			pw.b.u32(flags)
			pw.b.u32(messageID(c.Message))
		}
	})
}

func (pw *providerWriter) levelList() error {
	return pw.list("LEVL", pw.p.Levels.Len(), func(n *names) {
		for l := range pw.p.Levels.Values() {
			pw.levels[l] = pw.b.pos()
			pw.b.u32(l.Value)
			n.ref(pw.b, l.Name)
			pw.b.u32(messageID(l.Message))
		}
	})
}

func (pw *providerWriter) opcodeList() error {
	opcodes := pw.p.AllOpcodes()
	return pw.list("OPCO", len(opcodes), func(n *names) {
		for _, o := range opcodes {
			var task uint32
			if t := o.Task(); t != nil {
				task = t.Value
			}
			pw.opcodes[o] = pw.b.pos()
			pw.b.u32(task<<16 | o.Value&0xFFFF)
			n.ref(pw.b, o.Name)
			pw.b.u32(messageID(o.Message))
		}
	})
}

func (pw *providerWriter) taskList() error {
	return pw.list("TASK", pw.p.Tasks.Len(), func(n *names) {
		for t := range pw.p.Tasks.Values() {
			pw.tasks[t] = pw.b.pos()
			pw.b.u32(t.Value)
			pw.b.u32(messageID(t.Message))
			if t.GUID != nil {
				pw.b.guid(*t.GUID)
			} else {
				pw.b.buf = append(pw.b.buf, make([]byte, 16)...)
			}
			n.ref(pw.b, t.Name)
		}
	})
}

func (pw *providerWriter) keywordList() error {
	return pw.list("KEYW", pw.p.Keywords.Len(), func(n *names) {
		for k := range pw.p.Keywords.Values() {
			pw.b.u64(k.Mask)
			pw.b.u32(messageID(k.Message))
			n.ref(pw.b, k.Name)
		}
	})
}

func (pw *providerWriter) eventList() error {
	b := pw.b
	start := b.pos()
	b.magic("EVNT")
	sizeAt := b.reserve()
	b.u32(uint32(pw.p.Events.Len()))
	b.u32(0)
	for e := range pw.p.Events.Values() {
		var channel uint8
		if e.Channel != nil {
			channel = pw.channels[e.Channel]
		}
		var level, opcode, task uint32
		if e.Level != nil {
			level = e.Level.Value
		}
		if e.Opcode != nil {
			opcode = e.Opcode.Value
		}
		if e.Task != nil {
			task = e.Task.Value
		}
		var flags uint32
		if e.NotLogged {
			flags |= eventNotLogged
		}

		b.u16(uint16(e.Value))
		b.u8(uint8(e.Version))
		b.u8(channel)
		b.u8(uint8(level))
		b.u8(uint8(opcode))
		b.u16(uint16(task))
		b.u64(e.KeywordMask())
		b.u32(messageID(e.Message))
		if e.Template != nil {
			pw.templateRefs[b.reserve()] = e.Template
		} else {
			b.u32(0)
		}
		b.u32(pw.opcodes[e.Opcode])
		b.u32(pw.levels[e.Level])
		b.u32(pw.tasks[e.Task])
		b.u32(0)
		b.u32(0)
		b.u32(flags)
	}
	b.patch(sizeAt, b.pos()-start)
	return nil
}

func (pw *providerWriter) mapList() error {
	b := pw.b
	start := b.pos()
	b.magic("MAPS")
	sizeAt := b.reserve()
	b.u32(uint32(pw.p.Maps.Len()))
	slots := make([]uint32, 0, pw.p.Maps.Len())
	for range pw.p.Maps.Values() {
		slots = append(slots, b.reserve())
	}
	var n names
	i := 0
	for m := range pw.p.Maps.Values() {
		at := b.pos()
		pw.maps[m] = at
		b.patch(slots[i], at)
		i++
		if m.Kind == manifest.BitMapKind {
			b.magic("BMAP")
		} else {
			b.magic("VMAP")
		}
		mapSizeAt := b.reserve()
		n.ref(b, m.Name)
		b.u32(0)
		b.u32(uint32(m.Items.Len()))
		for item := range m.Items.Values() {
			b.u32(item.Value)
			b.u32(messageID(item.Message))
		}
		b.patch(mapSizeAt, b.pos()-at)
	}
	if err := n.flush(b); err != nil {
		return err
	}
	b.patch(sizeAt, b.pos()-start)
	return nil
}

func (pw *providerWriter) templateList() error {
	b := pw.b
	start := b.pos()
	b.magic("TTBL")
	sizeAt := b.reserve()
	b.u32(uint32(pw.p.Templates.Len()))
	at := map[*manifest.Template]uint32{}
	for t := range pw.p.Templates.Values() {
		at[t] = b.pos()
		if err := pw.template(t); err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
	}
	for ref, t := range pw.templateRefs {
		b.patch(ref, at[t])
	}
	b.patch(sizeAt, b.pos()-start)
	return nil
}

// template writes one TEMP definition. Properties are flattened breadth
// first: top-level properties come first and each struct records the index
// of its first member and the member count.
func (pw *providerWriter) template(t *manifest.Template) error {
	b := pw.b
	start := b.pos()
	flat := flatten(t)
	index := make(map[manifest.Property]int, len(flat))
	for i, p := range flat {
		index[p] = i
	}

	b.magic("TEMP")
	sizeAt := b.reserve()
	b.u32(uint32(len(flat)))
	b.u32(uint32(t.Properties.Len()))
	propsAt := b.reserve()
	b.u32(0)
	b.buf = append(b.buf, make([]byte, 16)...)
	b.patch(propsAt, b.pos())

	var n names
	for _, p := range flat {
		base := p.Base()
		var flags uint32
		var in, out uint8
		var first, members uint16
		var mapAt uint32
		switch p := p.(type) {
		case *manifest.DataProperty:
			in, out = uint8(p.InType), uint8(p.OutType)
			if p.Map != nil {
				flags |= propHasMap
				mapAt = pw.maps[p.Map]
			}
		case *manifest.StructProperty:
			flags |= propStruct
			members = uint16(p.Members.Len())
			if members > 0 {
				first = uint16(index[p.Members.At(0)])
			}
		}
		count, countRef := sizeValue(base.Count, base, index)
		length, lengthRef := sizeValue(base.Length, base, index)
		if countRef {
			flags |= propCountRef
		}
		if lengthRef {
			flags |= propLengthRef
		}

		b.u32(flags)
		b.u8(in)
		b.u8(out)
		b.u16(first)
		b.u16(members)
		b.u16(count)
		b.u16(length)
		b.u16(0)
		b.u32(mapAt)
		n.ref(b, base.Name)
	}
	if err := n.flush(b); err != nil {
		return err
	}
	b.patch(sizeAt, b.pos()-start)
	return nil
}

func flatten(t *manifest.Template) []manifest.Property {
	flat := t.Properties.Items()
	for i := 0; i < len(flat); i++ {
		if s, ok := flat[i].(*manifest.StructProperty); ok {
			flat = append(flat, s.Members.Items()...)
		}
	}
	return flat
}

// sizeValue resolves a count or length to a literal or to the flattened
// index of the sibling property it names.
func sizeValue(s manifest.Size, owner *manifest.PropertyBase, index map[manifest.Property]int) (uint16, bool) {
	if !s.IsSpecified() {
		return 1, false
	}
	if !s.IsRef() {
		return s.Value, false
	}
	var siblings interface {
		Find(func(manifest.Property) bool) (manifest.Property, bool)
	}
	if parent := owner.Parent(); parent != nil {
		siblings = parent.Members
	} else if t := owner.Template(); t != nil {
		siblings = t.Properties
	}
	if siblings == nil {
		return 0, true
	}
	ref, ok := siblings.Find(func(p manifest.Property) bool { return p.Base().Name == s.Ref })
	if !ok {
		return 0, true
	}
	return uint16(index[ref]), true
}

// ResolveChannelValues returns the value every channel of p is written with:
// its declared value, the well-known value of an imported system channel, or
// the next free value from 16 up.
func ResolveChannelValues(p *manifest.Provider) map[*manifest.Channel]uint8 {
	out := make(map[*manifest.Channel]uint8, p.Channels.Len())
	used := map[uint32]bool{}
	for c := range p.Channels.Values() {
		switch {
		case c.Value != nil:
			out[c] = uint8(*c.Value)
			used[*c.Value] = true
		case c.Imported:
			if v, ok := manifest.PredefinedChannelValue(c.Name); ok {
				out[c] = uint8(v)
				used[v] = true
			}
		}
	}
	next := uint32(16)
	for c := range p.Channels.Values() {
		if _, ok := out[c]; ok {
			continue
		}
		for used[next] {
			next++
		}
		out[c] = uint8(next)
		used[next] = true
	}
	return out
}
