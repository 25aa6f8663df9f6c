package manifest

import (
	"fmt"
	"math/bits"

	"evmc/internal/engine/collection"

	"github.com/google/uuid"
)

type Event struct {
	Node
	Value     uint32
	Version   uint32
	Symbol    string
	Channel   *Channel
	Level     *Level
	Task      *Task
	Opcode    *Opcode
	Keywords  []*Keyword
	Template  *Template
	Message   *LocalizedString
	NotLogged bool

	provider *Provider
}

func (e *Event) symbol() string { return e.Symbol }

func (e *Event) Provider() *Provider { return e.provider }

// DisplayName identifies the event in diagnostics.
func (e *Event) DisplayName() string {
	if e.Symbol != "" {
		return e.Symbol
	}
	return fmt.Sprintf("%d/v%d", e.Value, e.Version)
}

// KeywordMask is the OR of all keyword masks of the event.
func (e *Event) KeywordMask() uint64 {
	var mask uint64
	for _, k := range e.Keywords {
		mask |= k.Mask
	}
	return mask
}

type Channel struct {
	Node
	Name string
	// ID is the optional chid used by events to reference the channel.
	ID        *string
	Symbol    string
	Type      ChannelType
	Value     *uint32
	Enabled   bool
	Isolation string
	Access    *string
	Imported  bool
	Message   *LocalizedString

	provider *Provider
}

func (c *Channel) symbol() string { return c.Symbol }

func (c *Channel) Provider() *Provider { return c.provider }

type Level struct {
	Node
	Name     string
	Value    uint32
	Symbol   string
	Imported bool
	Message  *LocalizedString

	provider *Provider
}

func (l *Level) symbol() string { return l.Symbol }

func (l *Level) Provider() *Provider { return l.provider }

// Opcode belongs either to a provider or to a single task.
type Opcode struct {
	Node
	Name     string
	Value    uint32
	Symbol   string
	Imported bool
	Message  *LocalizedString

	provider *Provider
	task     *Task
}

func (o *Opcode) symbol() string { return o.Symbol }

// Task returns the owning task of a task-scoped opcode.
func (o *Opcode) Task() *Task { return o.task }

// Provider returns the owning provider, following the task for scoped opcodes.
func (o *Opcode) Provider() *Provider {
	if o.task != nil {
		return o.task.provider
	}
	return o.provider
}

type Task struct {
	Node
	Name     string
	Value    uint32
	Symbol   string
	GUID     *uuid.UUID
	Imported bool
	Message  *LocalizedString
	Opcodes  *collection.Collection[*Opcode]

	provider *Provider
}

func NewTask(sink collection.Reporter, name string, value uint32) *Task {
	t := &Task{Name: name, Value: value}
	t.Opcodes = newOpcodeCollection(sink, func(o *Opcode) {
		claim(o.provider != nil || o.task != nil, "opcode", o.Name)
		o.task = t
	}, func(o *Opcode) { o.task = nil })
	return t
}

func (t *Task) symbol() string { return t.Symbol }

func (t *Task) Provider() *Provider { return t.provider }

func (t *Task) FindOpcode(name string) (*Opcode, bool) {
	return t.Opcodes.Find(func(o *Opcode) bool { return o.Name == name })
}

type Keyword struct {
	Node
	Name     string
	Mask     uint64
	Symbol   string
	Imported bool
	Message  *LocalizedString

	provider *Provider
}

func (k *Keyword) symbol() string { return k.Symbol }

func (k *Keyword) Provider() *Provider { return k.provider }

// BitIndex is the position of the lowest set bit of the mask, or -1.
func (k *Keyword) BitIndex() int {
	if k.Mask == 0 {
		return -1
	}
	return bits.TrailingZeros64(k.Mask)
}

type Filter struct {
	Node
	Name     string
	Value    uint32
	Version  uint32
	Symbol   string
	Template *Template
	Message  *LocalizedString

	provider *Provider
}

func (f *Filter) symbol() string { return f.Symbol }

func (f *Filter) Provider() *Provider { return f.provider }
