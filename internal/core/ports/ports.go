package ports

import (
	"context"
	"io"
	"time"

	"evmc/internal/data/history"
	"evmc/internal/diag"
	"evmc/internal/manifest"
)

// ManifestParser reads one manifest file into a fresh semantic model.
// Schema-level problems are reported to sink; the returned error is set when
// the file could not be turned into a model at all.
type ManifestParser interface {
	Parse(ctx context.Context, path string, sink diag.Reporter) (*manifest.EventManifest, error)
}

// SDDLValidator checks the syntax of a security descriptor string.
type SDDLValidator interface {
	IsValid(sddl string) bool
}

// TemplateWriter encodes validated, ID-assigned providers as a binary event
// template resource.
type TemplateWriter interface {
	Write(w io.Writer, providers []*manifest.Provider) error
}

// Message is one message-table entry.
type Message struct {
	Name  string
	ID    uint32
	Value string
}

// MessageTableWriter encodes the messages of one resource set.
type MessageTableWriter interface {
	Write(w io.Writer, messages []Message) error
}

// CodegenOptions are the code-generation knobs passed through unchanged to
// the selected generator.
type CodegenOptions struct {
	Namespace     string
	EtwNamespace  string
	InlineAttr    string
	NoInlineAttr  string
	LogCallPrefix string
	UsePrefix     bool
	// BaseName names the generated files and include guards.
	BaseName string
}

// CodeOutputs are the streams a generator writes to. Source is nil when the
// generator produces a single header or no source file was requested.
type CodeOutputs struct {
	Header io.Writer
	Source io.Writer
}

// CodeGenerator emits source code for a compiled manifest.
type CodeGenerator interface {
	Name() string
	Description() string
	Generate(m *manifest.EventManifest, opts CodegenOptions, out CodeOutputs) error
}

// HistoryStore persists one record per compiler run.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run) error
	LoadRuns(ctx context.Context, since time.Time, limit int) ([]history.Run, error)
}

// GeneratorRegistry resolves code generators by name.
type GeneratorRegistry interface {
	Lookup(name string) (CodeGenerator, bool)
	Names() []string
}
