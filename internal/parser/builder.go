package parser

import (
	"strconv"
	"strings"

	"evmc/internal/diag"
	"evmc/internal/locale"
	"evmc/internal/manifest"

	"github.com/google/uuid"
)

const (
	stringRefPrefix = "$(string."
	stringRefSuffix = ")"
)

// builder turns the element tree into a model. Every problem is reported and
// building continues so that one run surfaces as many errors as possible.
type builder struct {
	file string
	sink diag.Reporter
	m    *manifest.EventManifest
}

func newBuilder(file string, sink diag.Reporter) *builder {
	return &builder{file: file, sink: sink}
}

func (b *builder) errorf(loc diag.Location, format string, args ...any) {
	b.sink.Report(diag.Error, loc, format, args...)
}

func (b *builder) build(root *element) *manifest.EventManifest {
	b.m = manifest.New(b.sink)
	if loc := root.first("localization"); loc != nil {
		for _, res := range loc.all("resources") {
			b.resources(res)
		}
	}
	if events := root.path("instrumentation", "events"); events != nil {
		for _, el := range events.all("provider") {
			b.provider(el)
		}
	}
	return b.m
}

func (b *builder) resources(el *element) {
	culture, _ := el.attr("culture")
	if canonical, err := locale.Canonical(culture); err == nil {
		culture = canonical
	} else {
		b.errorf(el.loc, "Invalid culture '%s'.", culture)
	}
	rs := b.m.AddResourceSet(culture)
	rs.Location = el.loc
	table := el.first("stringTable")
	if table == nil {
		return
	}
	for _, s := range table.all("string") {
		name, ok := b.required(s, "id")
		if !ok {
			continue
		}
		value, _ := s.attr("value")
		str := manifest.NewLocalizedString(name, value)
		str.Location = s.loc
		str.Symbol, _ = s.attr("symbol")
		rs.Add(str)
	}
}

func (b *builder) provider(el *element) {
	name, _ := b.required(el, "name")
	p := b.m.NewProvider(name)
	p.Location = el.loc
	if g, ok := b.required(el, "guid"); ok {
		p.ID = b.guid(el, "guid", g)
	}
	p.Symbol, _ = el.attr("symbol")
	p.ResourceFileName, _ = el.attr("resourceFileName")
	p.MessageFileName, _ = el.attr("messageFileName")
	p.ParameterFileName, _ = el.attr("parameterFileName")
	if g, ok := el.attr("controlGuid"); ok {
		id := b.guid(el, "controlGuid", g)
		p.ControlGUID = &id
	}
	p.Message = b.message(el)

	if list := el.first("channels"); list != nil {
		for _, c := range list.children {
			switch c.name {
			case "channel":
				b.channel(p, c)
			case "importChannel":
				b.importChannel(p, c)
			}
		}
	}
	for _, l := range children(el, "levels", "level") {
		b.level(p, l)
	}
	for _, t := range children(el, "tasks", "task") {
		b.task(p, t)
	}
	for _, o := range children(el, "opcodes", "opcode") {
		if op := b.opcode(o); op != nil {
			p.Opcodes.Add(op)
		}
	}
	for _, k := range children(el, "keywords", "keyword") {
		b.keyword(p, k)
	}
	if maps := el.first("maps"); maps != nil {
		for _, mp := range maps.children {
			switch mp.name {
			case "valueMap":
				b.valueMap(p, mp, manifest.ValueMapKind)
			case "bitMap":
				b.valueMap(p, mp, manifest.BitMapKind)
			case "patternMap":
				b.patternMap(p, mp)
			}
		}
	}
	for _, t := range children(el, "templates", "template") {
		b.template(p, t)
	}
	for _, f := range children(el, "filters", "filter") {
		b.filter(p, f)
	}
	for _, e := range children(el, "events", "event") {
		b.event(p, e)
	}
	b.m.AddProvider(p)
}

func children(el *element, list, item string) []*element {
	if l := el.first(list); l != nil {
		return l.all(item)
	}
	return nil
}

func (b *builder) channel(p *manifest.Provider, el *element) {
	name, _ := b.required(el, "name")
	c := &manifest.Channel{Node: manifest.Node{Location: el.loc}, Name: name, Enabled: false}
	if chid, ok := el.attr("chid"); ok {
		c.ID = &chid
	}
	c.Symbol, _ = el.attr("symbol")
	if t, ok := el.attr("type"); ok {
		ct, valid := manifest.ParseChannelType(t)
		if !valid {
			b.errorf(el.loc, "Invalid channel type '%s' for channel '%s'.", t, name)
		}
		c.Type = ct
	}
	if v, ok := b.uintAttr(el, "value", 32); ok {
		value := uint32(v)
		c.Value = &value
	}
	if enabled, ok := el.attr("enabled"); ok {
		c.Enabled = enabled == "true" || enabled == "1"
	}
	c.Isolation, _ = el.attr("isolation")
	if access, ok := el.attr("access"); ok {
		c.Access = &access
	}
	c.Message = b.message(el)
	p.Channels.Add(c)
}

func (b *builder) importChannel(p *manifest.Provider, el *element) {
	name, _ := b.required(el, "name")
	c := &manifest.Channel{Node: manifest.Node{Location: el.loc}, Name: name, Imported: true}
	if chid, ok := el.attr("chid"); ok {
		c.ID = &chid
	}
	if value, known := manifest.PredefinedChannelValue(name); known {
		c.Value = &value
	} else {
		b.errorf(el.loc, "Unknown imported channel '%s'.", name)
	}
	p.Channels.Add(c)
}

func (b *builder) level(p *manifest.Provider, el *element) {
	name, _ := b.required(el, "name")
	v, _ := b.requiredUint(el, "value", 32)
	l := &manifest.Level{Node: manifest.Node{Location: el.loc}, Name: name, Value: uint32(v)}
	l.Symbol, _ = el.attr("symbol")
	l.Message = b.message(el)
	p.Levels.Add(l)
}

func (b *builder) task(p *manifest.Provider, el *element) {
	name, _ := b.required(el, "name")
	v, _ := b.requiredUint(el, "value", 32)
	t := p.NewTask(name, uint32(v))
	t.Location = el.loc
	t.Symbol, _ = el.attr("symbol")
	if g, ok := el.attr("eventGUID"); ok {
		id := b.guid(el, "eventGUID", g)
		t.GUID = &id
	}
	t.Message = b.message(el)
	for _, o := range children(el, "opcodes", "opcode") {
		if op := b.opcode(o); op != nil {
			t.Opcodes.Add(op)
		}
	}
	p.Tasks.Add(t)
}

func (b *builder) opcode(el *element) *manifest.Opcode {
	name, _ := b.required(el, "name")
	v, _ := b.requiredUint(el, "value", 32)
	o := &manifest.Opcode{Node: manifest.Node{Location: el.loc}, Name: name, Value: uint32(v)}
	o.Symbol, _ = el.attr("symbol")
	o.Message = b.message(el)
	return o
}

func (b *builder) keyword(p *manifest.Provider, el *element) {
	name, _ := b.required(el, "name")
	mask, _ := b.requiredUint(el, "mask", 64)
	k := &manifest.Keyword{Node: manifest.Node{Location: el.loc}, Name: name, Mask: mask}
	k.Symbol, _ = el.attr("symbol")
	k.Message = b.message(el)
	p.Keywords.Add(k)
}

func (b *builder) valueMap(p *manifest.Provider, el *element, kind manifest.MapKind) {
	name, _ := b.required(el, "name")
	m := p.NewMap(kind, name)
	m.Location = el.loc
	m.Symbol, _ = el.attr("symbol")
	for _, it := range el.all("map") {
		v, _ := b.requiredUint(it, "value", 32)
		item := &manifest.MapItem{Node: manifest.Node{Location: it.loc}, Value: uint32(v)}
		item.Symbol, _ = it.attr("symbol")
		item.Message = b.message(it)
		m.Add(item)
	}
	p.Maps.Add(m)
}

func (b *builder) patternMap(p *manifest.Provider, el *element) {
	name, _ := b.required(el, "name")
	format, _ := b.required(el, "format")
	m := p.NewPatternMap(name, format)
	m.Location = el.loc
	m.Symbol, _ = el.attr("symbol")
	for _, it := range el.all("map") {
		itemName, _ := b.required(it, "name")
		value, _ := b.required(it, "value")
		m.Items.Add(&manifest.PatternMapItem{Node: manifest.Node{Location: it.loc}, Name: itemName, Value: value})
	}
	p.PatternMaps.Add(m)
}

func (b *builder) template(p *manifest.Provider, el *element) {
	tid, _ := b.required(el, "tid")
	t := p.NewTemplate(tid)
	t.Location = el.loc
	t.Name, _ = el.attr("name")
	for _, prop := range b.properties(p, el) {
		t.Add(prop)
	}
	p.Templates.Add(t)
}

func (b *builder) properties(p *manifest.Provider, el *element) []manifest.Property {
	var out []manifest.Property
	for _, c := range el.children {
		switch c.name {
		case "data":
			out = append(out, b.dataProperty(p, c))
		case "struct":
			name, _ := b.required(c, "name")
			s := manifest.NewStructProperty(b.sink, name)
			s.Location = c.loc
			s.Count = b.size(c, "count")
			s.Length = b.size(c, "length")
			for _, member := range b.properties(p, c) {
				s.Add(member)
			}
			out = append(out, s)
		}
	}
	return out
}

func (b *builder) dataProperty(p *manifest.Provider, el *element) *manifest.DataProperty {
	name, _ := b.required(el, "name")
	var in manifest.InType
	if raw, ok := b.required(el, "inType"); ok {
		var valid bool
		if in, valid = manifest.ParseInType(raw); !valid {
			b.errorf(el.loc, "Unknown inType '%s' for property '%s'.", raw, name)
		}
	}
	d := manifest.NewDataProperty(name, in)
	d.Location = el.loc
	if raw, ok := el.attr("outType"); ok {
		out, valid := manifest.ParseOutType(raw)
		if !valid {
			b.errorf(el.loc, "Unknown outType '%s' for property '%s'.", raw, name)
		}
		d.OutType = out
	}
	d.Count = b.size(el, "count")
	d.Length = b.size(el, "length")
	if mapName, ok := el.attr("map"); ok {
		if m, found := p.FindMap(mapName); found {
			d.Map = m
		} else {
			b.errorf(el.loc, "Unknown map '%s' referenced by property '%s'.", mapName, name)
		}
	}
	return d
}

func (b *builder) filter(p *manifest.Provider, el *element) {
	name, _ := b.required(el, "name")
	v, _ := b.requiredUint(el, "value", 32)
	f := &manifest.Filter{Node: manifest.Node{Location: el.loc}, Name: name, Value: uint32(v)}
	if version, ok := b.uintAttr(el, "version", 32); ok {
		f.Version = uint32(version)
	}
	f.Symbol, _ = el.attr("symbol")
	if tid, ok := el.attr("tid"); ok {
		f.Template = b.templateRef(p, el, tid)
	}
	f.Message = b.message(el)
	p.Filters.Add(f)
}

func (b *builder) event(p *manifest.Provider, el *element) {
	v, _ := b.requiredUint(el, "value", 32)
	e := &manifest.Event{Node: manifest.Node{Location: el.loc}, Value: uint32(v)}
	if version, ok := b.uintAttr(el, "version", 32); ok {
		e.Version = uint32(version)
	}
	e.Symbol, _ = el.attr("symbol")
	if name, ok := el.attr("channel"); ok {
		if c, found := p.FindChannel(name); found {
			e.Channel = c
		} else {
			b.errorf(el.loc, "Unknown channel '%s' referenced by event '%s'.", name, e.DisplayName())
		}
	}
	if name, ok := el.attr("level"); ok {
		e.Level = b.levelRef(p, el, e, name)
	}
	if name, ok := el.attr("task"); ok {
		e.Task = b.taskRef(p, el, e, name)
	}
	if name, ok := el.attr("opcode"); ok {
		e.Opcode = b.opcodeRef(p, el, e, name)
	}
	if names, ok := el.attr("keywords"); ok {
		for _, name := range strings.Fields(names) {
			if k, found := p.FindKeyword(name); found {
				e.Keywords = append(e.Keywords, k)
			} else if k, found := manifest.PredefinedKeyword(name); found {
				e.Keywords = append(e.Keywords, k)
			} else {
				b.errorf(el.loc, "Unknown keyword '%s' referenced by event '%s'.", name, e.DisplayName())
			}
		}
	}
	if tid, ok := el.attr("template"); ok {
		e.Template = b.templateRef(p, el, tid)
	}
	if notLogged, ok := el.attr("notLogged"); ok {
		e.NotLogged = notLogged == "true" || notLogged == "1"
	}
	e.Message = b.message(el)
	p.Events.Add(e)
}

func (b *builder) levelRef(p *manifest.Provider, el *element, e *manifest.Event, name string) *manifest.Level {
	if l, ok := p.FindLevel(name); ok {
		return l
	}
	if l, ok := manifest.PredefinedLevel(name); ok {
		return l
	}
	b.errorf(el.loc, "Unknown level '%s' referenced by event '%s'.", name, e.DisplayName())
	return nil
}

func (b *builder) taskRef(p *manifest.Provider, el *element, e *manifest.Event, name string) *manifest.Task {
	if t, ok := p.FindTask(name); ok {
		return t
	}
	if t, ok := manifest.PredefinedTask(name); ok {
		return t
	}
	b.errorf(el.loc, "Unknown task '%s' referenced by event '%s'.", name, e.DisplayName())
	return nil
}

// opcodeRef looks in the event's task first, then the provider, then the
// predefined opcodes.
func (b *builder) opcodeRef(p *manifest.Provider, el *element, e *manifest.Event, name string) *manifest.Opcode {
	if e.Task != nil && e.Task.Opcodes != nil {
		if o, ok := e.Task.FindOpcode(name); ok {
			return o
		}
	}
	if o, ok := p.FindOpcode(name); ok {
		return o
	}
	if o, ok := manifest.PredefinedOpcode(name); ok {
		return o
	}
	b.errorf(el.loc, "Unknown opcode '%s' referenced by event '%s'.", name, e.DisplayName())
	return nil
}

func (b *builder) templateRef(p *manifest.Provider, el *element, tid string) *manifest.Template {
	if t, ok := p.FindTemplate(tid); ok {
		return t
	}
	b.errorf(el.loc, "Unknown template '%s'.", tid)
	return nil
}

// message resolves the element's message attribute against the primary
// resource set.
func (b *builder) message(el *element) *manifest.LocalizedString {
	ref, ok := el.attr("message")
	if !ok {
		return nil
	}
	if !strings.HasPrefix(ref, stringRefPrefix) || !strings.HasSuffix(ref, stringRefSuffix) {
		b.errorf(el.loc, "Invalid message reference '%s'; expected $(string.Name).", ref)
		return nil
	}
	name := ref[len(stringRefPrefix) : len(ref)-len(stringRefSuffix)]
	primary := b.m.PrimaryResourceSet()
	if primary == nil {
		b.errorf(el.loc, "Message reference '%s' cannot be resolved: the manifest has no localization resources.", ref)
		return nil
	}
	s, found := primary.Get(name)
	if !found {
		b.errorf(el.loc, "Undefined string '%s' referenced in culture '%s'.", name, primary.Culture)
		return nil
	}
	return s
}

func (b *builder) required(el *element, name string) (string, bool) {
	v, ok := el.attr(name)
	if !ok {
		b.errorf(el.loc, "Element '%s' is missing required attribute '%s'.", el.name, name)
	}
	return v, ok
}

func (b *builder) requiredUint(el *element, name string, bits int) (uint64, bool) {
	if _, ok := b.required(el, name); !ok {
		return 0, false
	}
	return b.uintAttr(el, name, bits)
}

// uintAttr parses an optional decimal or 0x-prefixed hexadecimal attribute.
func (b *builder) uintAttr(el *element, name string, bits int) (uint64, bool) {
	raw, ok := el.attr(name)
	if !ok {
		return 0, false
	}
	v, err := parseUint(raw, bits)
	if err != nil {
		b.errorf(el.loc, "Invalid value '%s' for attribute '%s' of element '%s'.", raw, name, el.name)
		return 0, false
	}
	return v, true
}

func parseUint(raw string, bits int) (uint64, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

// size parses a count or length attribute: a number or a property name.
func (b *builder) size(el *element, name string) manifest.Size {
	raw, ok := el.attr(name)
	if !ok {
		return manifest.Size{}
	}
	if v, err := parseUint(raw, 16); err == nil {
		return manifest.FixedSize(uint16(v))
	}
	return manifest.RefSize(raw)
}

func (b *builder) guid(el *element, attr, raw string) uuid.UUID {
	id, err := manifest.ParseGUID(raw)
	if err != nil {
		b.errorf(el.loc, "Invalid GUID '%s' for attribute '%s'.", raw, attr)
	}
	return id
}
