package codegen

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"evmc/internal/manifest"
	"evmc/internal/output/wevt"

	"github.com/google/uuid"
)

// The view types below flatten the manifest into what the templates print.

type providerView struct {
	Name     string
	Symbol   string
	GUID     string
	GUIDInit string
	Channels []constView
	Levels   []constView
	Opcodes  []constView
	Tasks    []constView
	Keywords []constView
	Events   []eventView
	Messages []constView
}

type constView struct {
	Symbol string
	Value  string
	Name   string
}

type eventView struct {
	Symbol     string
	Descriptor string
	Value      uint32
	Args       []argView
}

type argView struct {
	Name   string
	Type   string
	Data   string
	Length string
}

func buildProviders(m *manifest.EventManifest) []providerView {
	var out []providerView
	for p := range m.Providers.Values() {
		out = append(out, buildProvider(p))
	}
	return out
}

func buildProvider(p *manifest.Provider) providerView {
	sym := p.Symbol
	if sym == "" {
		sym = identifier(p.Name)
	}
	v := providerView{
		Name:     p.Name,
		Symbol:   sym,
		GUID:     manifest.FormatGUID(p.ID),
		GUIDInit: guidInitializer(p.ID),
	}

	channels := wevt.ResolveChannelValues(p)
	for c := range p.Channels.Values() {
		v.Channels = append(v.Channels, constView{
			Symbol: symbolOr(c.Symbol, sym+"_CHANNEL_"+identifier(c.Name)),
			Value:  fmt.Sprintf("0x%x", channels[c]),
			Name:   c.Name,
		})
	}
	for l := range p.Levels.Values() {
		v.Levels = append(v.Levels, constView{Symbol: symbolOr(l.Symbol, "LEVEL_"+identifier(l.Name)), Value: fmt.Sprintf("0x%x", l.Value), Name: l.Name})
	}
	for t := range p.Tasks.Values() {
		v.Tasks = append(v.Tasks, constView{Symbol: symbolOr(t.Symbol, "TASK_"+identifier(t.Name)), Value: fmt.Sprintf("0x%x", t.Value), Name: t.Name})
	}
	for _, o := range p.AllOpcodes() {
		def := "OPCODE_" + identifier(o.Name)
		if t := o.Task(); t != nil {
			def = "OPCODE_" + identifier(t.Name) + "_" + identifier(o.Name)
		}
		v.Opcodes = append(v.Opcodes, constView{Symbol: symbolOr(o.Symbol, def), Value: fmt.Sprintf("0x%x", o.Value), Name: o.Name})
	}
	for k := range p.Keywords.Values() {
		v.Keywords = append(v.Keywords, constView{Symbol: symbolOr(k.Symbol, "KEYWORD_"+identifier(k.Name)), Value: fmt.Sprintf("0x%x", k.Mask), Name: k.Name})
	}
	for e := range p.Events.Values() {
		ev := eventView{
			Symbol: symbolOr(e.Symbol, fmt.Sprintf("%s_EVENT_%d_V%d", sym, e.Value, e.Version)),
			Value:  e.Value,
		}
		var channel, level, opcode, task uint32
		if e.Channel != nil {
			channel = uint32(channels[e.Channel])
		}
		if e.Level != nil {
			level = e.Level.Value
		}
		if e.Opcode != nil {
			opcode = e.Opcode.Value
		}
		if e.Task != nil {
			task = e.Task.Value
		}
		ev.Descriptor = fmt.Sprintf("0x%x, 0x%x, 0x%x, 0x%x, 0x%x, 0x%x, 0x%x",
			e.Value, e.Version, channel, level, opcode, task, e.KeywordMask())
		if e.Template != nil {
			ev.Args = templateArgs(e.Template)
		}
		v.Events = append(v.Events, ev)
	}

	seen := map[*manifest.LocalizedString]bool{}
	for _, ref := range p.MessageRefs() {
		s := *ref
		if s == nil || seen[s] || !s.ID.IsSet() {
			continue
		}
		seen[s] = true
		v.Messages = append(v.Messages, constView{
			Symbol: symbolOr(s.Symbol, "MSG_"+identifier(s.Name)),
			Value:  fmt.Sprintf("0x%08XL", s.ID.Wire()),
			Name:   s.Name,
		})
	}
	sort.SliceStable(v.Messages, func(i, j int) bool { return v.Messages[i].Value < v.Messages[j].Value })
	return v
}

// templateArgs maps every leaf property to a C++ parameter. Struct members
// are flattened with the struct name as prefix.
func templateArgs(t *manifest.Template) []argView {
	var args []argView
	var walk func(props []manifest.Property, path string)
	walk = func(props []manifest.Property, path string) {
		for _, p := range props {
			name := path + identifier(p.Base().Name)
			switch p := p.(type) {
			case *manifest.DataProperty:
				args = append(args, dataArg(p, name))
			case *manifest.StructProperty:
				walk(p.Members.Items(), name+"_")
			}
		}
	}
	walk(t.Properties.Items(), "")
	return args
}

func dataArg(p *manifest.DataProperty, name string) argView {
	a := argView{Name: name}
	switch p.InType {
	case manifest.InUnicodeString:
		a.Type, a.Data, a.Length = "wchar_t const*", name, fmt.Sprintf("(ULONG)((wcslen(%s) + 1) * sizeof(wchar_t))", name)
	case manifest.InAnsiString:
		a.Type, a.Data, a.Length = "char const*", name, fmt.Sprintf("(ULONG)(strlen(%s) + 1)", name)
	case manifest.InBinary, manifest.InCountedBinary, manifest.InCountedUnicodeString, manifest.InCountedAnsiString:
		a.Type, a.Data, a.Length = "void const*", name, name+"_size"
	case manifest.InSID:
		a.Type, a.Data, a.Length = "SID const*", name, fmt.Sprintf("GetLengthSid((PSID)%s)", name)
	default:
		a.Type = scalarType(p.InType)
		a.Data, a.Length = "&"+name, fmt.Sprintf("sizeof(%s)", a.Type)
	}
	if p.Count.IsSpecified() && p.InType != manifest.InBinary {
		a.Type = strings.TrimSuffix(a.Type, " const*") + " const*"
		a.Data, a.Length = name, name+"_size"
	}
	return a
}

func scalarType(t manifest.InType) string {
	switch t {
	case manifest.InInt8:
		return "INT8"
	case manifest.InUInt8:
		return "UINT8"
	case manifest.InInt16:
		return "INT16"
	case manifest.InUInt16:
		return "UINT16"
	case manifest.InInt32:
		return "INT32"
	case manifest.InUInt32, manifest.InHexInt32:
		return "UINT32"
	case manifest.InInt64:
		return "INT64"
	case manifest.InUInt64, manifest.InHexInt64:
		return "UINT64"
	case manifest.InFloat:
		return "float"
	case manifest.InDouble:
		return "double"
	case manifest.InBoolean:
		return "BOOL"
	case manifest.InGUID:
		return "GUID"
	case manifest.InPointer:
		return "void const*"
	case manifest.InFILETIME:
		return "FILETIME"
	case manifest.InSYSTEMTIME:
		return "SYSTEMTIME"
	}
	return "UINT32"
}

func symbolOr(symbol, fallback string) string {
	if symbol != "" {
		return symbol
	}
	return fallback
}

// identifier turns a manifest name into a C identifier.
func identifier(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func guidInitializer(id uuid.UUID) string {
	return fmt.Sprintf("{0x%02x%02x%02x%02x, 0x%02x%02x, 0x%02x%02x, {0x%02x, 0x%02x, 0x%02x, 0x%02x, 0x%02x, 0x%02x, 0x%02x, 0x%02x}}",
		id[0], id[1], id[2], id[3], id[4], id[5], id[6], id[7],
		id[8], id[9], id[10], id[11], id[12], id[13], id[14], id[15])
}
