// Package config loads evmc.toml (or evmc.yaml) into compiler options.
package config

import (
	"time"
)

type Config struct {
	Version   int       `toml:"version" yaml:"version"`
	Inputs    []string  `toml:"inputs" yaml:"inputs"`
	Exclude   []string  `toml:"exclude" yaml:"exclude"`
	Output    Output    `toml:"output" yaml:"output"`
	Codegen   Codegen   `toml:"codegen" yaml:"codegen"`
	Compile   Compile   `toml:"compile" yaml:"compile"`
	History   History   `toml:"history" yaml:"history"`
	Watch     Watch     `toml:"watch" yaml:"watch"`
	Telemetry Telemetry `toml:"telemetry" yaml:"telemetry"`
}

// Output names the artifacts. Empty paths are derived from BaseName inside
// OutputDir; MessageTable may contain the $(Culture) token.
type Output struct {
	BaseName       string `toml:"base_name" yaml:"base_name"`
	OutputDir      string `toml:"output_dir" yaml:"output_dir"`
	Header         string `toml:"header" yaml:"header"`
	Source         string `toml:"source" yaml:"source"`
	MessageTable   string `toml:"message_table" yaml:"message_table"`
	EventTemplate  string `toml:"event_template" yaml:"event_template"`
	ResourceScript string `toml:"resource_script" yaml:"resource_script"`
}

type Codegen struct {
	Generator     string `toml:"generator" yaml:"generator"`
	Namespace     string `toml:"namespace" yaml:"namespace"`
	EtwNamespace  string `toml:"etw_namespace" yaml:"etw_namespace"`
	InlineAttr    string `toml:"inline_attr" yaml:"inline_attr"`
	NoInlineAttr  string `toml:"noinline_attr" yaml:"noinline_attr"`
	LogCallPrefix string `toml:"log_call_prefix" yaml:"log_call_prefix"`
	UsePrefix     bool   `toml:"use_prefix" yaml:"use_prefix"`
}

type Compile struct {
	// MergeInputs allows more than one input; the manifests are merged.
	MergeInputs      bool   `toml:"merge_inputs" yaml:"merge_inputs"`
	Schema           string `toml:"schema" yaml:"schema"`
	WarningsAsErrors bool   `toml:"warnings_as_errors" yaml:"warnings_as_errors"`
}

type History struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce" yaml:"debounce"`
	MaxRebuildsPerMinute int           `toml:"max_rebuilds_per_minute" yaml:"max_rebuilds_per_minute"`
}

type Telemetry struct {
	MetricsFile  string `toml:"metrics_file" yaml:"metrics_file"`
	OTLPEndpoint string `toml:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name" yaml:"service_name"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
