package manifest

import (
	"fmt"

	"evmc/internal/engine/collection"
)

// LocalizedString is a message shared by reference between manifest items.
// Its owner is the resource set whose string table holds it.
type LocalizedString struct {
	Node
	Name     string
	Value    string
	ID       MessageID
	Symbol   string
	Imported bool

	owner *LocalizedResourceSet
}

func NewLocalizedString(name, value string) *LocalizedString {
	return &LocalizedString{Name: name, Value: value}
}

func (s *LocalizedString) Owner() *LocalizedResourceSet { return s.owner }

// IsUsed reports whether the string carries an assigned message ID.
func (s *LocalizedString) IsUsed() bool { return s != nil && s.ID.IsSet() }

func (s *LocalizedString) String() string {
	return fmt.Sprintf("%s=%q (%s)", s.Name, s.Value, s.ID)
}

// LocalizedResourceSet is the string table of one culture.
type LocalizedResourceSet struct {
	Node
	Culture string
	Strings *collection.Collection[*LocalizedString]

	manifest *EventManifest
	byName   map[string]*LocalizedString
}

func newResourceSet(culture string, sink collection.Reporter) *LocalizedResourceSet {
	rs := &LocalizedResourceSet{Culture: culture, byName: make(map[string]*LocalizedString)}
	rs.Strings = collection.New(collection.Hooks[*LocalizedString]{
		OnInsert: func(s *LocalizedString) {
			claim(s.owner != nil, "localized string", s.Name)
			s.owner = rs
			if _, ok := rs.byName[s.Name]; !ok {
				rs.byName[s.Name] = s
			}
		},
		OnRemove: func(s *LocalizedString) {
			s.owner = nil
			if rs.byName[s.Name] != s {
				return
			}
			delete(rs.byName, s.Name)
			if other, ok := rs.Strings.Find(func(o *LocalizedString) bool { return o.Name == s.Name }); ok {
				rs.byName[s.Name] = other
			}
		},
	})
	unique(rs.Strings, sink, func(s *LocalizedString) string { return s.Name }, nil,
		"Duplicate string name '%s' in resources for culture '%s'.",
		func(s *LocalizedString) []any { return []any{s.Name, rs.Culture} })
	return rs
}

func (rs *LocalizedResourceSet) Manifest() *EventManifest { return rs.manifest }

// IsPrimary reports whether this is the default-locale set of its manifest.
func (rs *LocalizedResourceSet) IsPrimary() bool {
	return rs.manifest != nil && rs.manifest.PrimaryResourceSet() == rs
}

func (rs *LocalizedResourceSet) Add(s *LocalizedString) *LocalizedString {
	rs.Strings.Add(s)
	return s
}

// Get returns the first string with the given name.
func (rs *LocalizedResourceSet) Get(name string) (*LocalizedString, bool) {
	s, ok := rs.byName[name]
	return s, ok
}

func (rs *LocalizedResourceSet) Contains(name string) bool {
	_, ok := rs.byName[name]
	return ok
}

// UsedStrings returns the strings that carry an assigned message ID.
func (rs *LocalizedResourceSet) UsedStrings() []*LocalizedString {
	var used []*LocalizedString
	for s := range rs.Strings.Values() {
		if s.IsUsed() {
			used = append(used, s)
		}
	}
	return used
}
