package compiler

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"slices"

	"evmc/internal/core/ports"
	"evmc/internal/diag"
	"evmc/internal/locale"
	"evmc/internal/manifest"
	"evmc/internal/output/rcscript"
	"evmc/internal/shared/util"
)

const (
	kindTemplate       = "event template"
	kindHeader         = "header"
	kindSource         = "source"
	kindMessageTable   = "message table"
	kindResourceScript = "resource script"
)

// tableFile is a message table listed in the resource script.
type tableFile struct {
	culture string
	path    string
}

// writeFile owns the file for the duration of write and closes it on every
// path. A close error is reported like a write error.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := util.CreateWithDirs(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return write(f)
}

func (r *run) emitTemplate(m *manifest.EventManifest) {
	path := r.opts.EventTemplateFile
	if path == "" {
		return
	}
	err := writeFile(path, func(w io.Writer) error {
		return r.Templates.Write(w, m.Providers.Items())
	})
	r.record(kindTemplate, path, err)
}

func (r *run) emitCode(m *manifest.EventManifest) {
	if r.opts.Generator == "" || r.opts.HeaderFile == "" {
		return
	}
	gen, ok := r.Generators.Lookup(r.opts.Generator)
	if !ok {
		return
	}
	opts := r.opts.Codegen
	if opts.BaseName == "" {
		opts.BaseName = r.opts.BaseName
	}

	// Generate into memory first so that a generator failure leaves no
	// truncated files behind.
	var header, source bytes.Buffer
	out := ports.CodeOutputs{Header: &header}
	if r.opts.SourceFile != "" {
		out.Source = &source
	}
	if err := gen.Generate(m, opts, out); err != nil {
		err = fmt.Errorf("generator %s: %w", gen.Name(), err)
		r.record(kindHeader, r.opts.HeaderFile, err)
		if r.opts.SourceFile != "" {
			r.record(kindSource, r.opts.SourceFile, err)
		}
		return
	}
	r.record(kindHeader, r.opts.HeaderFile, writeFile(r.opts.HeaderFile, func(w io.Writer) error {
		_, err := header.WriteTo(w)
		return err
	}))
	if r.opts.SourceFile != "" {
		r.record(kindSource, r.opts.SourceFile, writeFile(r.opts.SourceFile, func(w io.Writer) error {
			_, err := source.WriteTo(w)
			return err
		}))
	}
}

// emitMessageTables writes one table per resource set and returns every
// table path, written or not, for the resource script.
func (r *run) emitMessageTables(m *manifest.EventManifest) []tableFile {
	pattern := r.opts.MessageTableFile
	if pattern == "" {
		return nil
	}
	var tables []tableFile
	for _, rs := range m.ResourceSets() {
		path := messageTablePath(pattern, rs.Culture, rs.IsPrimary())
		used := rs.UsedStrings()
		messages := make([]ports.Message, 0, len(used))
		for _, s := range used {
			id, _ := s.ID.Get()
			messages = append(messages, ports.Message{Name: s.Name, ID: id, Value: s.Value})
		}
		slices.SortStableFunc(messages, func(a, b ports.Message) int { return cmp.Compare(a.ID, b.ID) })

		err := writeFile(path, func(w io.Writer) error {
			return r.MessageTables.Write(w, messages)
		})
		r.record(kindMessageTable, path, err)
		tables = append(tables, tableFile{culture: rs.Culture, path: path})
	}
	return tables
}

func (r *run) emitResourceScript(tables []tableFile) {
	path := r.opts.ResourceScriptFile
	if path == "" {
		return
	}
	entries := make([]rcscript.MessageTable, 0, len(tables))
	for _, t := range tables {
		id, ok := locale.Lookup(t.culture)
		if !ok {
			r.diags.Errorf(diag.Location{}, "Unknown culture '%s'; no language identifier for its message table.", t.culture)
			continue
		}
		entries = append(entries, rcscript.MessageTable{Culture: t.culture, LangID: id, File: relativeTo(path, t.path)})
	}
	template := ""
	if r.opts.EventTemplateFile != "" {
		template = relativeTo(path, r.opts.EventTemplateFile)
	}
	err := writeFile(path, func(w io.Writer) error {
		return rcscript.Write(w, entries, template)
	})
	r.record(kindResourceScript, path, err)
}
