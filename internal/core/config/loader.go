package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFile     = "evmc.toml"
	defaultBaseName = "events"
)

// Load decodes a TOML or YAML file, chosen by extension, then applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case ".toml", "":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	applyDefaults(&cfg)
	normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs every section check. Flag overrides call it again after
// they are applied.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateInputs(cfg); err != nil {
		return err
	}
	if err := validateOutput(cfg); err != nil {
		return err
	}
	if err := validateCodegen(cfg); err != nil {
		return err
	}
	if err := validateHistory(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	return validateTelemetry(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Output.BaseName) == "" {
		cfg.Output.BaseName = defaultBaseName
	}
	if strings.TrimSpace(cfg.Codegen.Generator) == "" {
		cfg.Codegen.Generator = "mc"
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = filepath.Join(".evmc", "history.db")
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerMinute == 0 {
		cfg.Watch.MaxRebuildsPerMinute = 30
	}
	if strings.TrimSpace(cfg.Telemetry.ServiceName) == "" {
		cfg.Telemetry.ServiceName = "evmc"
	}
}

func normalize(cfg *Config) {
	cfg.Inputs = trimAll(cfg.Inputs)
	cfg.Exclude = trimAll(cfg.Exclude)
	cfg.Output.BaseName = strings.TrimSpace(cfg.Output.BaseName)
	cfg.Output.OutputDir = strings.TrimSpace(cfg.Output.OutputDir)
	cfg.Codegen.Generator = strings.ToLower(strings.TrimSpace(cfg.Codegen.Generator))
	cfg.Codegen.Namespace = strings.TrimSpace(cfg.Codegen.Namespace)
	cfg.Codegen.EtwNamespace = strings.TrimSpace(cfg.Codegen.EtwNamespace)
	cfg.Telemetry.OTLPEndpoint = strings.TrimSpace(cfg.Telemetry.OTLPEndpoint)
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
