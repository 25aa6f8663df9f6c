// Package msgid assigns message IDs to every message reachable from a
// manifest and cross-checks secondary cultures for missing translations.
package msgid

import (
	"log/slog"

	"evmc/internal/diag"
	"evmc/internal/manifest"
)

// Assign numbers every unassigned message of m with the default generator.
func Assign(sink diag.Reporter, m *manifest.EventManifest) int {
	return AssignWith(sink, m, NewGenerator)
}

// AssignWith numbers every unassigned message of m, provider by provider, in
// this order: provider, channels, levels, tasks, opcodes, keywords, events,
// map items (map by map), filters. A string referenced from several items
// receives its ID once. IDs of used primary strings are copied to the
// same-named strings of the other cultures; a missing translation is a
// warning. It returns the number of IDs assigned.
func AssignWith(sink diag.Reporter, m *manifest.EventManifest, newGenerator Factory) int {
	assigned := 0
	for p := range m.Providers.Values() {
		assigned += assignProvider(p, newGenerator())
	}
	checkCultures(sink, m)
	slog.Debug("assigned message ids", "providers", m.Providers.Len(), "assigned", assigned)
	return assigned
}

func assignProvider(p *manifest.Provider, g Generator) int {
	for _, ref := range p.MessageRefs() {
		if *ref == nil {
			continue
		}
		if id, ok := (*ref).ID.Get(); ok {
			g.Reserve(id)
		}
	}

	n := 0
	set := func(s *manifest.LocalizedString, next func() uint32) {
		if s == nil || s.ID.IsSet() {
			return
		}
		s.ID = manifest.NewMessageID(next())
		n++
	}

	set(p.Message, func() uint32 { return g.Provider(p) })
	for c := range p.Channels.Values() {
		set(c.Message, func() uint32 { return g.Channel(p, c) })
	}
	for l := range p.Levels.Values() {
		set(l.Message, func() uint32 { return g.Level(p, l) })
	}
	for t := range p.Tasks.Values() {
		set(t.Message, func() uint32 { return g.Task(p, t) })
	}
	for _, o := range p.AllOpcodes() {
		set(o.Message, func() uint32 { return g.Opcode(p, o) })
	}
	for k := range p.Keywords.Values() {
		set(k.Message, func() uint32 { return g.Keyword(p, k) })
	}
	for e := range p.Events.Values() {
		set(e.Message, func() uint32 { return g.Event(p, e) })
	}
	for mp := range p.Maps.Values() {
		for item := range mp.Items.Values() {
			set(item.Message, func() uint32 { return g.MapItem(p, mp, item) })
		}
	}
	for f := range p.Filters.Values() {
		set(f.Message, func() uint32 { return g.Filter(p, f) })
	}
	return n
}

func checkCultures(sink diag.Reporter, m *manifest.EventManifest) {
	primary := m.PrimaryResourceSet()
	if primary == nil {
		return
	}
	for _, s := range primary.UsedStrings() {
		for _, rs := range m.ResourceSets() {
			if rs == primary {
				continue
			}
			translated, ok := rs.Get(s.Name)
			if !ok {
				sink.Report(diag.Warning, s.Loc(), "String '%s' is missing from resources for culture '%s'.", s.Name, rs.Culture)
				continue
			}
			if !translated.ID.IsSet() {
				translated.ID = s.ID
			}
		}
	}
}
