// Package merge combines independently parsed manifests of one compilation
// unit into a single manifest.
package merge

import (
	"fmt"
	"log/slog"

	"evmc/internal/diag"
	"evmc/internal/manifest"
)

// Merge moves the providers and strings of every source into a new manifest
// reporting to sink. Sources are consumed and must not be used afterwards.
//
// A string whose name is already taken in the target culture is replaced by
// an identical existing string when one exists; otherwise it is copied under
// the name "manifest<N>.<name>", N being the 1-based index of its source.
// Message references of all providers are rewritten to the resolved strings.
func Merge(sink diag.Reporter, sources []*manifest.EventManifest) *manifest.EventManifest {
	if len(sources) == 1 {
		return sources[0]
	}

	combined := manifest.New(sink)
	for _, src := range sources {
		providers := src.Providers.Items()
		src.Providers.Clear()
		for _, p := range providers {
			combined.AddProvider(p)
		}
	}

	resolved := make(map[*manifest.LocalizedString]*manifest.LocalizedString)
	renamed := 0
	for i, src := range sources {
		for _, rs := range src.ResourceSets() {
			target := combined.AddResourceSet(rs.Culture)
			strs := rs.Strings.Items()
			rs.Strings.Clear()
			for _, s := range strs {
				r := resolve(target, s, i+1)
				if r != s && r.Name != s.Name {
					renamed++
				}
				resolved[s] = r
			}
		}
	}

	for p := range combined.Providers.Values() {
		for _, ref := range p.MessageRefs() {
			if *ref == nil {
				continue
			}
			if r, ok := resolved[*ref]; ok {
				*ref = r
			}
		}
	}

	slog.Debug("merged manifests",
		"inputs", len(sources),
		"providers", combined.Providers.Len(),
		"strings", combined.Strings(),
		"renamed", renamed)
	return combined
}

func resolve(target *manifest.LocalizedResourceSet, s *manifest.LocalizedString, index int) *manifest.LocalizedString {
	if !target.Contains(s.Name) {
		return target.Add(s)
	}
	if dup, ok := target.Strings.Find(func(o *manifest.LocalizedString) bool { return identical(o, s) }); ok {
		return dup
	}
	return target.Add(copyString(s, fmt.Sprintf("manifest%d.%s", index, s.Name)))
}

// identical compares strings by assigned ID, symbol and value. Strings
// without an ID are never identical: their final IDs are not known yet.
func identical(a, b *manifest.LocalizedString) bool {
	aid, aok := a.ID.Get()
	bid, bok := b.ID.Get()
	return aok && bok && aid == bid && a.Symbol == b.Symbol && a.Value == b.Value
}

func copyString(s *manifest.LocalizedString, name string) *manifest.LocalizedString {
	c := manifest.NewLocalizedString(name, s.Value)
	c.Location = s.Location
	c.ID = s.ID
	c.Symbol = s.Symbol
	c.Imported = s.Imported
	return c
}
