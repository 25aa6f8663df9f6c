// Package compiler drives one manifest compilation: load, validate, assign
// message IDs and emit every requested artifact.
package compiler

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"evmc/internal/core/errors"
	"evmc/internal/core/ports"
	"evmc/internal/data/history"
	"evmc/internal/diag"
	"evmc/internal/engine/merge"
	"evmc/internal/engine/msgid"
	"evmc/internal/engine/validate"
	"evmc/internal/manifest"
	"evmc/internal/output/codegen"
	"evmc/internal/output/msgtable"
	"evmc/internal/output/wevt"
	"evmc/internal/parser"
	"evmc/internal/sddl"
	"evmc/internal/shared/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Compiler wires the collaborators of a run. History is optional.
type Compiler struct {
	Parser        ports.ManifestParser
	SDDL          ports.SDDLValidator
	Templates     ports.TemplateWriter
	MessageTables ports.MessageTableWriter
	Generators    ports.GeneratorRegistry
	History       ports.HistoryStore
}

// New returns a compiler with the built-in collaborators.
func New(p ports.ManifestParser) *Compiler {
	return &Compiler{
		Parser:        p,
		SDDL:          sddl.Validator{},
		Templates:     wevt.Writer{},
		MessageTables: msgtable.Writer{},
		Generators:    codegen.DefaultRegistry(),
	}
}

// Execute runs the pipeline with the built-in collaborators.
func Execute(ctx context.Context, diags *diag.Engine, opts Options) ExitCode {
	p, err := parser.New(parser.Options{})
	if err != nil {
		diags.Errorf(diag.Location{}, "%v", err)
		return Error
	}
	return New(p).Execute(ctx, diags, opts)
}

// run carries the state of one Execute call.
type run struct {
	*Compiler
	ctx       context.Context
	diags     *diag.Engine
	opts      Options
	artifacts []history.Artifact
}

// Execute runs load, validate, assign and the four emission stages. Each
// emission stage is attempted even when an earlier one failed.
func (c *Compiler) Execute(ctx context.Context, diags *diag.Engine, opts Options) (code ExitCode) {
	started := time.Now()
	trap := diags.Trap()
	before := snapshot(diags)
	r := &run{Compiler: c, diags: diags, opts: opts}

	ctx, span := observability.Tracer.Start(ctx, "compiler.Execute",
		trace.WithAttributes(attribute.Int("inputs", len(opts.Inputs))))
	r.ctx = ctx
	defer func() {
		if rec := recover(); rec != nil {
			diags.Errorf(diag.Location{}, "Internal compiler error: %v", rec)
			slog.Error("compiler panic", "panic", rec, "internal", isInternal(rec))
			code = Error
		}
		span.SetAttributes(attribute.Int("exit_code", int(code)))
		if code != Success {
			span.SetStatus(codes.Error, code.String())
		}
		span.End()
		r.finish(started, before, code)
	}()

	if code := r.checkGenerator(); code != Success {
		return code
	}

	var m *manifest.EventManifest
	if code := r.phase("load", func() ExitCode {
		var lc ExitCode
		m, lc = r.loadInputs()
		return lc
	}); code != Success {
		return code
	}

	r.phase("validate", func() ExitCode {
		validate.New(diags, c.SDDL).Manifest(m)
		return Success
	})
	if trap.ErrorOccurred() {
		slog.Debug("aborting before emission", "errors", trap.NewErrors())
		return Error
	}

	r.phase("assign", func() ExitCode {
		msgid.Assign(diags, m)
		return Success
	})
	observability.ProvidersCompiled.Set(float64(m.Providers.Len()))

	r.phase("emit_template", func() ExitCode { r.emitTemplate(m); return Success })
	r.phase("emit_code", func() ExitCode { r.emitCode(m); return Success })
	tables := make([]tableFile, 0)
	r.phase("emit_message_tables", func() ExitCode { tables = r.emitMessageTables(m); return Success })
	r.phase("emit_resource_script", func() ExitCode { r.emitResourceScript(tables); return Success })

	if trap.ErrorOccurred() {
		return Error
	}
	return Success
}

func isInternal(rec any) bool {
	err, ok := rec.(error)
	return ok && errors.IsCode(err, errors.CodeInternal)
}

func (r *run) phase(name string, fn func() ExitCode) ExitCode {
	_, span := observability.Tracer.Start(r.ctx, "compiler."+name)
	defer span.End()
	started := time.Now()
	code := fn()
	observability.PhaseDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	slog.Debug("phase done", "phase", name, "errors", r.diags.ErrorCount(), "elapsed", time.Since(started))
	return code
}

func (r *run) checkGenerator() ExitCode {
	if r.opts.Generator == "" || r.opts.HeaderFile == "" {
		return Success
	}
	if _, ok := r.Generators.Lookup(r.opts.Generator); ok {
		return Success
	}
	r.diags.Errorf(diag.Location{}, "Unknown code generator '%s'.", r.opts.Generator)
	r.diags.Notef(diag.Location{}, "Available generators: %s.", strings.Join(r.Generators.Names(), ", "))
	return UserError
}

// loadInputs parses every input. Any input that cannot be turned into a
// model makes the run a user error, after all inputs were tried.
func (r *run) loadInputs() (*manifest.EventManifest, ExitCode) {
	inputs := r.opts.Inputs
	switch {
	case len(inputs) == 0:
		r.diags.Errorf(diag.Location{}, "No input files specified.")
		return nil, UserError
	case len(inputs) > 1 && !r.opts.MergeInputs:
		r.diags.Errorf(diag.Location{}, "Expected exactly one input file, got %d.", len(inputs))
		return nil, UserError
	}

	manifests := make([]*manifest.EventManifest, 0, len(inputs))
	failed := Success
	for _, path := range inputs {
		m, err := r.Parser.Parse(r.ctx, path, r.diags)
		if err != nil {
			slog.Debug("input rejected", "path", path, "error", err, "code", errors.CodeOf(err))
			// Only input problems are user errors; cancellation and
			// internal failures fail the run.
			if errors.IsCode(err, errors.CodeUserError) {
				failed = max(failed, UserError)
			} else {
				failed = max(failed, Error)
			}
			continue
		}
		manifests = append(manifests, m)
	}
	if failed != Success {
		return nil, failed
	}
	if len(manifests) == 1 {
		return manifests[0], Success
	}
	return merge.Merge(r.diags, manifests), Success
}

func (r *run) finish(started time.Time, before [diag.Error + 1]int, code ExitCode) {
	after := snapshot(r.diags)
	for sev := diag.Note; sev <= diag.Error; sev++ {
		if n := after[sev] - before[sev]; n > 0 {
			observability.DiagnosticsTotal.WithLabelValues(strings.ToLower(sev.String())).Add(float64(n))
		}
	}
	observability.RunsTotal.WithLabelValues(strconv.Itoa(int(code))).Inc()

	if r.History == nil {
		return
	}
	rec := history.Run{
		ID:        uuid.New(),
		StartedAt: started.UTC(),
		Duration:  time.Since(started),
		Inputs:    r.opts.Inputs,
		ExitCode:  int(code),
		Errors:    after[diag.Error] - before[diag.Error],
		Warnings:  after[diag.Warning] - before[diag.Warning],
		Artifacts: r.artifacts,
	}
	if err := r.History.SaveRun(context.WithoutCancel(r.ctx), rec); err != nil {
		slog.Warn("failed to record compile history", "error", err)
	}
}

func snapshot(e *diag.Engine) [diag.Error + 1]int {
	var counts [diag.Error + 1]int
	for sev := diag.Ignored; sev <= diag.Error; sev++ {
		counts[sev] = e.Count(sev)
	}
	return counts
}

func (r *run) record(kind, path string, err error) {
	a := history.Artifact{Kind: kind, Path: path}
	result := "written"
	if err != nil {
		a.Err = err.Error()
		result = "failed"
		r.diags.Errorf(diag.Location{}, "Failed to write %s '%s': %v", kind, path, err)
	} else {
		slog.Debug("artifact written", "kind", kind, "path", path)
	}
	observability.ArtifactsTotal.WithLabelValues(kind, result).Inc()
	r.artifacts = append(r.artifacts, a)
}
