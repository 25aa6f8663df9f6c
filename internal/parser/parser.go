// Package parser reads instrumentation manifest XML into the semantic model.
package parser

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"evmc/internal/core/errors"
	"evmc/internal/diag"
	"evmc/internal/manifest"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"
)

type Options struct {
	// SchemaPath, when set, names an XSD every input is validated against
	// before it is read.
	SchemaPath string
}

// Parser implements ports.ManifestParser.
type Parser struct {
	schema *xsd.Schema
}

func New(opts Options) (*Parser, error) {
	p := &Parser{}
	if opts.SchemaPath != "" {
		schema, err := xsd.LoadFile(opts.SchemaPath)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeUserError, "load manifest schema"), errors.CtxPath, opts.SchemaPath)
		}
		p.schema = schema
	}
	return p, nil
}

// Parse reads one manifest. Structural problems (unreadable file, malformed
// XML, schema violations) are reported to sink and returned as a user error.
// Semantic problems such as unresolved references are only reported.
func (p *Parser) Parse(ctx context.Context, path string, sink diag.Reporter) (*manifest.EventManifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		sink.Report(diag.Error, diag.Location{}, "Cannot read input file '%s': %v", path, err)
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeUserError, "read manifest"), errors.CtxPath, path)
	}
	return p.ParseBytes(path, data, sink)
}

// ParseBytes is Parse for in-memory input; file is used for locations.
func (p *Parser) ParseBytes(file string, data []byte, sink diag.Reporter) (*manifest.EventManifest, error) {
	if p.schema != nil {
		if err := p.validateSchema(file, data, sink); err != nil {
			return nil, err
		}
	}

	root, err := readTree(file, data)
	if err != nil {
		var le *LocatedError
		if stderrors.As(err, &le) {
			sink.Report(diag.Error, le.Location, "%s", le.Message)
		} else {
			sink.Report(diag.Error, diag.Location{File: file}, "%v", err)
		}
		return nil, errors.Wrap(err, errors.CodeUserError, "malformed manifest")
	}
	if root.name != "instrumentationManifest" {
		sink.Report(diag.Error, root.loc, "Expected root element 'instrumentationManifest', found '%s'.", root.name)
		return nil, errors.Newf(errors.CodeUserError, "%s: not an instrumentation manifest", file)
	}

	b := newBuilder(file, sink)
	m := b.build(root)
	slog.Debug("parsed manifest", "file", file, "providers", m.Providers.Len(), "strings", m.Strings())
	return m, nil
}

func (p *Parser) validateSchema(file string, data []byte, sink diag.Reporter) error {
	err := p.schema.Validate(bytes.NewReader(data))
	if err == nil {
		return nil
	}
	violations, ok := xsderrors.AsValidations(err)
	if !ok {
		sink.Report(diag.Error, diag.Location{File: file}, "Schema validation failed: %v", err)
		return errors.Wrap(err, errors.CodeUserError, "schema validation")
	}
	for _, v := range violations {
		loc := diag.Location{File: file, Line: v.Line, Column: v.Column}
		msg := v.Message
		if v.Path != "" {
			msg = fmt.Sprintf("%s (at %s)", msg, v.Path)
		}
		sink.Report(diag.Error, loc, "Schema violation [%s]: %s", v.Code, msg)
	}
	return errors.Newf(errors.CodeUserError, "%s: %d schema violation(s)", file, len(violations))
}
