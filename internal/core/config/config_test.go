package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "evmc.toml", `
inputs = ["app.man", " manifests/*.man "]
exclude = ["manifests/old-*.man"]

[output]
base_name = "contoso"
output_dir = "gen"
message_table = "msg.$(Culture).bin"

[codegen]
generator = "CXX"
namespace = "contoso::etw"
log_call_prefix = "Log"
use_prefix = true

[compile]
merge_inputs = true
warnings_as_errors = true

[history]
enabled = true

[watch]
debounce = "1s"

[telemetry]
otlp_endpoint = "localhost:4317"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("expected default version 1, got %d", cfg.Version)
	}
	if len(cfg.Inputs) != 2 || cfg.Inputs[1] != "manifests/*.man" {
		t.Errorf("unexpected inputs: %q", cfg.Inputs)
	}
	if cfg.Codegen.Generator != "cxx" {
		t.Errorf("expected normalized generator, got %q", cfg.Codegen.Generator)
	}
	if !cfg.Compile.MergeInputs || !cfg.Compile.WarningsAsErrors {
		t.Errorf("compile section not decoded: %+v", cfg.Compile)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRebuildsPerMinute != 30 {
		t.Errorf("expected default rebuild cap, got %d", cfg.Watch.MaxRebuildsPerMinute)
	}
	if cfg.Telemetry.ServiceName != "evmc" {
		t.Errorf("expected default service name, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "evmc.yaml", `
inputs:
  - app.man
output:
  base_name: app
codegen:
  generator: mc
watch:
  debounce: 250ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Output.BaseName != "app" || cfg.Codegen.Generator != "mc" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.Watch.Debounce)
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "evmc.json", `{}`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Output.BaseName != "events" || cfg.Codegen.Generator != "mc" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"version", func(c *Config) { c.Version = 2 }, "unsupported config version"},
		{"bad glob", func(c *Config) { c.Inputs = []string{"a/[.man"} }, "not a valid glob"},
		{"base name path", func(c *Config) { c.Output.BaseName = "a/b" }, "must be a file name"},
		{"two culture tokens", func(c *Config) { c.Output.MessageTable = "$(Culture)$(Culture).bin" }, "at most once"},
		{"shared output", func(c *Config) { c.Output.Header = "x.h"; c.Output.Source = "./x.h" }, "both write"},
		{"overwrites input", func(c *Config) { c.Inputs = []string{"app.man"}; c.Output.Header = "app.man" }, "would overwrite input"},
		{"namespace", func(c *Config) { c.Codegen.Namespace = "a::" }, "not a valid C++ namespace"},
		{"prefix", func(c *Config) { c.Codegen.LogCallPrefix = "1x" }, "not a valid identifier"},
		{"history", func(c *Config) { c.History.Enabled = true; c.History.Path = " " }, "history.path must not be empty"},
		{"debounce", func(c *Config) { c.Watch.Debounce = -1 }, "watch.debounce"},
		{"endpoint scheme", func(c *Config) { c.Telemetry.OTLPEndpoint = "http://x:1" }, "host:port"},
		{"endpoint port", func(c *Config) { c.Telemetry.OTLPEndpoint = "collector" }, "missing a port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	cfg.Output.OutputDir = "gen"
	cfg.Output.MessageTable = "msg.$(Culture).bin"
	cfg.Output.Source = "events.cpp"

	base := filepath.Join(string(os.PathSeparator), "work")
	got, err := ResolvePaths(cfg, base)
	if err != nil {
		t.Fatal(err)
	}
	gen := filepath.Join(base, "gen")
	if got.Header != filepath.Join(gen, "events.h") {
		t.Errorf("unexpected header path %q", got.Header)
	}
	if got.MessageTable != filepath.Join(gen, "msg.$(Culture).bin") {
		t.Errorf("unexpected message table path %q", got.MessageTable)
	}
	if got.Source != filepath.Join(gen, "events.cpp") {
		t.Errorf("unexpected source path %q", got.Source)
	}
	if got.History != filepath.Join(base, ".evmc", "history.db") {
		t.Errorf("unexpected history path %q", got.History)
	}
	if _, err := ResolvePaths(cfg, ""); err == nil {
		t.Error("expected error for empty base dir")
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "m"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.man", "a.man", "old-x.man", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, "m", name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ExpandInputs([]string{"first.man", "m/*.man", "first.man"}, []string{"m/old-*"}, dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "first.man"),
		filepath.Join(dir, "m", "a.man"),
		filepath.Join(dir, "m", "b.man"),
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("EVMC_HISTORY_ENABLED", "true")
	t.Setenv("EVMC_WATCH_DEBOUNCE", "2s")
	t.Setenv("EVMC_WATCH_MAX_REBUILDS_PER_MINUTE", "nope")
	cfg := Default()
	ApplyEnvOverrides(cfg)
	if !cfg.History.Enabled {
		t.Error("expected history enabled from env")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("expected 2s debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRebuildsPerMinute != 30 {
		t.Errorf("invalid int override should be ignored, got %d", cfg.Watch.MaxRebuildsPerMinute)
	}
}

func TestWatcher_ReloadsOnContentChange(t *testing.T) {
	path := writeConfig(t, "evmc.toml", "inputs = [\"a.man\"]\n")
	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	if err := w.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Same bytes: no reload.
	if err := os.WriteFile(path, []byte("inputs = [\"a.man\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload for unchanged content: %v", cfg.Inputs)
	case <-time.After(400 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("inputs = [\"b.man\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-reloaded:
		if len(cfg.Inputs) != 1 || cfg.Inputs[0] != "b.man" {
			t.Fatalf("unexpected inputs after reload: %v", cfg.Inputs)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload after the content changed")
	}
}
