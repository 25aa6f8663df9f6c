// Package validate implements the semantic rules a manifest must satisfy
// before any output is produced. Every rule reports through the diagnostics
// sink; an entity with several violations reports each of them.
package validate

import (
	"math/bits"
	"slices"
	"strings"
	"unicode/utf8"

	"evmc/internal/core/ports"
	"evmc/internal/diag"
	"evmc/internal/manifest"

	"github.com/google/uuid"
)

const (
	maxEventValue     = 65535
	maxEventVersion   = 255
	minChannelValue   = 16
	maxChannelValue   = 255
	maxChannelNameLen = 255
	minLevelValue     = 16
	maxLevelValue     = 255
	maxTaskValue      = 65535
	minOpcodeValue    = 10
	maxOpcodeValue    = 239
	maxTemplateProps  = 99
	guidHexDigits     = 32
)

// enforceAdminChannelMessage enables the rule that events logged to an Admin
// channel carry a message. mc.exe does not enforce it, so it stays off.
const enforceAdminChannelMessage = false

const invalidChannelNameChars = "\"><&|\\:'*"

// Validator runs the per-entity rules. A nil SDDL validator accepts every
// access descriptor.
type Validator struct {
	sink diag.Reporter
	sddl ports.SDDLValidator
}

func New(sink diag.Reporter, sddl ports.SDDLValidator) *Validator {
	return &Validator{sink: sink, sddl: sddl}
}

func (v *Validator) errorf(loc diag.Location, format string, args ...any) {
	v.sink.Report(diag.Error, loc, format, args...)
}

// Manifest validates every provider, item and string of m. All entities are
// visited even after a failure.
func (v *Validator) Manifest(m *manifest.EventManifest) bool {
	ok := true
	for p := range m.Providers.Values() {
		ok = v.providerTree(p) && ok
	}
	for _, rs := range m.ResourceSets() {
		for s := range rs.Strings.Values() {
			ok = v.LocalizedString(s) && ok
		}
	}
	return ok
}

func (v *Validator) providerTree(p *manifest.Provider) bool {
	ok := v.Provider(p)
	for c := range p.Channels.Values() {
		ok = v.Channel(c) && ok
	}
	for l := range p.Levels.Values() {
		ok = v.Level(l) && ok
	}
	for t := range p.Tasks.Values() {
		ok = v.Task(t) && ok
	}
	for _, o := range p.AllOpcodes() {
		ok = v.Opcode(o) && ok
	}
	for k := range p.Keywords.Values() {
		ok = v.Keyword(k) && ok
	}
	for m := range p.Maps.Values() {
		ok = v.Map(m) && ok
	}
	for t := range p.Templates.Values() {
		ok = v.Template(t) && ok
		t.WalkProperties(func(prop manifest.Property) {
			ok = v.Property(prop) && ok
		})
	}
	for f := range p.Filters.Values() {
		ok = v.Filter(f) && ok
	}
	for e := range p.Events.Values() {
		ok = v.Event(e) && ok
	}
	return ok
}

func (v *Validator) Provider(p *manifest.Provider) bool {
	if p.ControlGUID == nil {
		return true
	}
	suffix, found := GUIDSuffix(p.Name)
	if !found || suffix != p.ID {
		v.errorf(p.Loc(), "Provider name '%s' must end with the provider guid %s when a control guid is specified.",
			p.Name, manifest.FormatGUID(p.ID))
		return false
	}
	return true
}

// GUIDSuffix extracts a GUID from the last 32 hex digits of name. Non-hex
// characters between the digits are skipped.
func GUIDSuffix(name string) (uuid.UUID, bool) {
	digits := make([]byte, 0, guidHexDigits)
	for i := len(name) - 1; i >= 0 && len(digits) < guidHexDigits; i-- {
		if isHexDigit(name[i]) {
			digits = append(digits, name[i])
		}
	}
	if len(digits) < guidHexDigits {
		return uuid.Nil, false
	}
	slices.Reverse(digits)
	id, err := uuid.Parse(string(digits))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func (v *Validator) Event(e *manifest.Event) bool {
	ok := true
	if e.Value > maxEventValue {
		v.errorf(e.Loc(), "Event value %d of event '%s' is out of range [0, %d].", e.Value, e.DisplayName(), maxEventValue)
		ok = false
	}
	if e.Version > maxEventVersion {
		v.errorf(e.Loc(), "Event version %d of event '%s' is out of range [0, %d].", e.Version, e.DisplayName(), maxEventVersion)
		ok = false
	}
	if enforceAdminChannelMessage && e.Channel != nil && e.Channel.Type == manifest.ChannelAdmin && e.Message == nil {
		v.errorf(e.Loc(), "Event '%s' is logged to Admin channel '%s' and must have a message.", e.DisplayName(), e.Channel.Name)
		ok = false
	}
	return ok
}

func (v *Validator) Channel(c *manifest.Channel) bool {
	ok := true
	if i := strings.IndexFunc(c.Name, isInvalidChannelRune); i >= 0 {
		r, _ := utf8.DecodeRuneInString(c.Name[i:])
		v.errorf(c.Loc(), "Channel name '%s' contains invalid character %q.", c.Name, r)
		ok = false
	}
	if n := utf8.RuneCountInString(c.Name); n < 1 || n > maxChannelNameLen {
		v.errorf(c.Loc(), "Channel name '%s' must be between 1 and %d characters long.", c.Name, maxChannelNameLen)
		ok = false
	}
	if c.Value != nil && !c.Imported && (*c.Value < minChannelValue || *c.Value > maxChannelValue) {
		v.errorf(c.Loc(), "Channel value %d of channel '%s' is out of range [%d, %d].", *c.Value, c.Name, minChannelValue, maxChannelValue)
		ok = false
	}
	if c.ID != nil && *c.ID == "" {
		v.errorf(c.Loc(), "Channel id of channel '%s' must not be empty.", c.Name)
		ok = false
	}
	if c.Access != nil && v.sddl != nil && !v.sddl.IsValid(*c.Access) {
		v.errorf(c.Loc(), "Channel access '%s' of channel '%s' is not a valid security descriptor.", *c.Access, c.Name)
		ok = false
	}
	return ok
}

func isInvalidChannelRune(r rune) bool {
	return r <= 0x1F || strings.ContainsRune(invalidChannelNameChars, r)
}

func (v *Validator) Level(l *manifest.Level) bool {
	if l.Imported {
		return true
	}
	if l.Value < minLevelValue || l.Value > maxLevelValue {
		v.errorf(l.Loc(), "Level value %d of level '%s' is out of range [%d, %d].", l.Value, l.Name, minLevelValue, maxLevelValue)
		return false
	}
	return true
}

func (v *Validator) Task(t *manifest.Task) bool {
	ok := true
	if t.Value > maxTaskValue {
		v.errorf(t.Loc(), "Task value %d of task '%s' is out of range [0, %d].", t.Value, t.Name, maxTaskValue)
		ok = false
	}
	for o := range t.Opcodes.Values() {
		if manifest.IsReservedOpcodeName(o.Name) {
			v.errorf(o.Loc(), "Opcode '%s' of task '%s' uses a reserved system opcode name.", o.Name, t.Name)
			ok = false
		}
	}
	return ok
}

func (v *Validator) Opcode(o *manifest.Opcode) bool {
	if o.Imported {
		return true
	}
	if o.Value < minOpcodeValue || o.Value > maxOpcodeValue {
		v.errorf(o.Loc(), "Opcode value %d of opcode '%s' is out of range [%d, %d].", o.Value, o.Name, minOpcodeValue, maxOpcodeValue)
		return false
	}
	return true
}

func (v *Validator) Keyword(k *manifest.Keyword) bool {
	if bits.OnesCount64(k.Mask) != 1 {
		v.errorf(k.Loc(), "Keyword mask 0x%X of keyword '%s' must have exactly one bit set.", k.Mask, k.Name)
		return false
	}
	return true
}

func (v *Validator) Template(t *manifest.Template) bool {
	if n := t.Properties.Len(); n > maxTemplateProps {
		v.errorf(t.Loc(), "Template '%s' has %d properties; at most %d are allowed.", t.ID, n, maxTemplateProps)
		return false
	}
	return true
}

// Property dispatches on the property variant.
func (v *Validator) Property(p manifest.Property) bool {
	switch p := p.(type) {
	case *manifest.DataProperty:
		return v.DataProperty(p)
	case *manifest.StructProperty:
		return v.StructProperty(p)
	}
	return true
}

func (v *Validator) DataProperty(p *manifest.DataProperty) bool {
	switch {
	case p.InType == manifest.InBinary && !p.Length.IsSpecified():
		v.errorf(p.Loc(), "Property '%s' of type %s requires a length.", p.Name, p.InType)
		return false
	case p.InType.IsCounted() && p.Length.IsSpecified():
		v.errorf(p.Loc(), "Property '%s' of type %s must not specify a length.", p.Name, p.InType)
		return false
	}
	return true
}

// StructProperty has no rules of its own; members are checked individually.
func (v *Validator) StructProperty(*manifest.StructProperty) bool { return true }

func (v *Validator) Filter(*manifest.Filter) bool { return true }

func (v *Validator) Map(*manifest.Map) bool { return true }

func (v *Validator) LocalizedString(*manifest.LocalizedString) bool { return true }
