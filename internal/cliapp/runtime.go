package cliapp

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"evmc/internal/core/config"
	"evmc/internal/core/ports"
	"evmc/internal/data/history"
	"evmc/internal/diag"
	"evmc/internal/engine/compiler"
	"evmc/internal/output/sarif"
	"evmc/internal/parser"
	"evmc/internal/shared/observability"
	"evmc/internal/shared/util"
	"evmc/internal/shared/version"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return int(compiler.Success)
	}
	var status StatusError
	if stderrors.As(err, &status) {
		return status.StatusCode
	}
	fmt.Fprintf(stderr, "evmc: %v\n", err)
	return int(compiler.UserError)
}

// session is the state shared by the runs of one command invocation.
type session struct {
	opts       *globalOptions
	sarifPath  string
	override   func(*config.Config)
	configFile string
	baseDir    string
	stderr     io.Writer
	color      bool

	mu  sync.Mutex
	cfg *config.Config

	history  *history.Store
	shutdown func(context.Context) error
}

func newSession(cmd *cobra.Command, opts *globalOptions, cf *compileFlags, args []string) (*session, error) {
	configureLogging(cmd.ErrOrStderr(), opts.verbose)
	if opts.logFormat != "text" && opts.logFormat != "log" {
		return nil, fmt.Errorf("--diagnostics must be text or log, got %q", opts.logFormat)
	}

	cfg, file, err := loadConfig(opts.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	baseDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if file != "" {
		baseDir = filepath.Dir(file)
	}

	inputs, err := absolutePaths(args)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	override := func(c *config.Config) {
		config.ApplyEnvOverrides(c)
		applyFlags(flags, cf, c, inputs)
	}
	override(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	s := &session{
		opts:       opts,
		sarifPath:  absOrSelf(cf.sarif),
		override:   override,
		configFile: file,
		baseDir:    baseDir,
		stderr:     cmd.ErrOrStderr(),
		color:      useColor(cmd.ErrOrStderr(), opts.noColor),
		cfg:        cfg,
	}
	s.setupTelemetry(cmd.Context())
	s.openHistory()
	slog.Debug("session ready", "config", file, "base_dir", baseDir, "inputs", len(cfg.Inputs))
	return s, nil
}

// loadConfig reads path. A missing default config file is not an error:
// the built-in defaults are used and the returned file is empty.
func loadConfig(path string, explicit bool) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err == nil {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			return nil, "", absErr
		}
		return cfg, abs, nil
	}
	if !explicit && stderrors.Is(err, fs.ErrNotExist) {
		return config.Default(), "", nil
	}
	return nil, "", err
}

func absolutePaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// applyFlags copies explicitly set flags over cfg. Positional inputs replace
// the configured inputs.
func applyFlags(flags *pflag.FlagSet, cf *compileFlags, cfg *config.Config, inputs []string) {
	if len(inputs) > 0 {
		cfg.Inputs = inputs
		cfg.Exclude = nil
	}
	if flags.Changed("merge") {
		cfg.Compile.MergeInputs = cf.merge
	}
	if flags.Changed("generator") {
		cfg.Codegen.Generator = strings.ToLower(strings.TrimSpace(cf.generator))
	}
	if flags.Changed("output-dir") {
		cfg.Output.OutputDir = absOrSelf(cf.outputDir)
	}
	if flags.Changed("base-name") {
		cfg.Output.BaseName = cf.baseName
	}
	if flags.Changed("schema") {
		cfg.Compile.Schema = absOrSelf(cf.schema)
	}
	if flags.Changed("warnings-as-errors") {
		cfg.Compile.WarningsAsErrors = cf.warningsAsErrors
	}
	if flags.Changed("history") {
		cfg.History.Enabled = cf.history
	}
}

// absOrSelf anchors a flag path at the working directory rather than the
// config file directory.
func absOrSelf(path string) string {
	if path == "" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func useColor(w io.Writer, disabled bool) bool {
	if disabled || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func (s *session) setupTelemetry(ctx context.Context) {
	s.shutdown = func(context.Context) error { return nil }
	endpoint := s.cfg.Telemetry.OTLPEndpoint
	shutdown, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:    endpoint,
		ServiceName: s.cfg.Telemetry.ServiceName,
		Version:     version.Version,
		Insecure:    isLoopback(endpoint),
	})
	if err != nil {
		slog.Warn("tracing disabled", "endpoint", endpoint, "error", err)
		return
	}
	s.shutdown = shutdown
}

func isLoopback(endpoint string) bool {
	return strings.HasPrefix(endpoint, "localhost:") || strings.HasPrefix(endpoint, "127.0.0.1:") || strings.HasPrefix(endpoint, "[::1]:")
}

func (s *session) openHistory() {
	if !s.cfg.History.Enabled {
		return
	}
	path := config.ResolveRelative(s.baseDir, s.cfg.History.Path)
	store, err := history.Open(path)
	if err != nil {
		slog.Warn("compile history disabled", "path", path, "error", err, "corrupt", history.IsCorruptError(err))
		return
	}
	s.history = store
}

func (s *session) close() {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			slog.Warn("failed to close compile history", "error", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.shutdown(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
}

func (s *session) status(code compiler.ExitCode) error {
	if code == compiler.Success {
		return nil
	}
	return StatusError{Status: code.String(), StatusCode: int(code)}
}

// newDiagnostics builds the engine for one run. The collector keeps every
// diagnostic for the SARIF report.
func (s *session) newDiagnostics(cfg *config.Config) (*diag.Engine, *diag.Collector) {
	var consumer diag.Consumer = diag.NewConsolePrinter(s.stderr, s.color)
	if s.opts.logFormat == "log" {
		consumer = diag.SlogSink{}
	}
	collector := &diag.Collector{}
	engine := diag.NewEngine(diag.Multi{consumer, collector})
	engine.SetWarningsAsErrors(cfg.Compile.WarningsAsErrors)
	return engine, collector
}

// compile runs the compiler once. validateOnly stops after validation and
// message-ID assignment without writing any artifact.
func (s *session) compile(ctx context.Context, validateOnly bool) compiler.ExitCode {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	diags, collector := s.newDiagnostics(cfg)
	code := s.execute(ctx, cfg, diags, validateOnly)
	slog.Info("compile finished",
		"result", code.String(),
		"errors", diags.ErrorCount(),
		"warnings", diags.Count(diag.Warning))
	s.writeReport(collector.Diagnostics())
	s.writeMetrics(cfg)
	return code
}

func (s *session) execute(ctx context.Context, cfg *config.Config, diags *diag.Engine, validateOnly bool) compiler.ExitCode {
	opts, err := buildOptions(cfg, s.baseDir, validateOnly)
	if err != nil {
		diags.Errorf(diag.Location{}, "%v", err)
		return compiler.UserError
	}

	p, err := parser.New(parser.Options{SchemaPath: schemaPath(cfg, s.baseDir)})
	if err != nil {
		diags.Errorf(diag.Location{}, "%v", err)
		return compiler.UserError
	}
	c := compiler.New(p)
	if s.history != nil && !validateOnly {
		c.History = s.history
	}
	return c.Execute(ctx, diags, opts)
}

func (s *session) writeReport(diagnostics []diag.Diagnostic) {
	if s.sarifPath == "" {
		return
	}
	data, err := sarif.Generate(s.baseDir, diagnostics)
	if err == nil {
		err = util.WriteFileWithDirs(s.sarifPath, append(data, '\n'), 0o644)
	}
	if err != nil {
		slog.Warn("failed to write SARIF report", "path", s.sarifPath, "error", err)
	}
}

func schemaPath(cfg *config.Config, baseDir string) string {
	if strings.TrimSpace(cfg.Compile.Schema) == "" {
		return ""
	}
	return config.ResolveRelative(baseDir, cfg.Compile.Schema)
}

// buildOptions turns the configuration into compiler options. Without
// outputs only the inputs are set, so no artifact is written.
func buildOptions(cfg *config.Config, baseDir string, validateOnly bool) (compiler.Options, error) {
	inputs, err := config.ExpandInputs(cfg.Inputs, cfg.Exclude, baseDir)
	if err != nil {
		return compiler.Options{}, err
	}
	opts := compiler.Options{
		Inputs:      inputs,
		MergeInputs: cfg.Compile.MergeInputs,
	}
	if validateOnly {
		return opts, nil
	}

	paths, err := config.ResolvePaths(cfg, baseDir)
	if err != nil {
		return compiler.Options{}, err
	}
	opts.BaseName = cfg.Output.BaseName
	opts.HeaderFile = paths.Header
	opts.SourceFile = paths.Source
	opts.MessageTableFile = paths.MessageTable
	opts.EventTemplateFile = paths.EventTemplate
	opts.ResourceScriptFile = paths.ResourceScript
	opts.Generator = cfg.Codegen.Generator
	opts.Codegen = ports.CodegenOptions{
		Namespace:     cfg.Codegen.Namespace,
		EtwNamespace:  cfg.Codegen.EtwNamespace,
		InlineAttr:    cfg.Codegen.InlineAttr,
		NoInlineAttr:  cfg.Codegen.NoInlineAttr,
		LogCallPrefix: cfg.Codegen.LogCallPrefix,
		UsePrefix:     cfg.Codegen.UsePrefix,
		BaseName:      cfg.Output.BaseName,
	}
	return opts, nil
}

func (s *session) writeMetrics(cfg *config.Config) {
	if cfg.Telemetry.MetricsFile == "" {
		return
	}
	path := config.ResolveRelative(s.baseDir, cfg.Telemetry.MetricsFile)
	if err := observability.WriteTextfile(path); err != nil {
		slog.Warn("failed to write metrics", "path", path, "error", err)
	}
}
