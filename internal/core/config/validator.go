package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"evmc/internal/core/config/helpers"

	"github.com/gobwas/glob"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	namespacePattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateInputs(cfg *Config) error {
	for i, pattern := range append(append([]string(nil), cfg.Inputs...), cfg.Exclude...) {
		if !helpers.HasWildcard(pattern) {
			continue
		}
		if _, err := glob.Compile(filepath.ToSlash(pattern), '/'); err != nil {
			return fmt.Errorf("pattern %d (%q) is not a valid glob: %w", i, pattern, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	out := cfg.Output
	if strings.ContainsAny(out.BaseName, `/\`) {
		return fmt.Errorf("output.base_name must be a file name, got %q", out.BaseName)
	}
	if strings.Count(out.MessageTable, cultureToken) > 1 {
		return fmt.Errorf("output.message_table may contain %s at most once", cultureToken)
	}
	named := map[string]string{
		"output.header":          out.Header,
		"output.source":          out.Source,
		"output.event_template":  out.EventTemplate,
		"output.resource_script": out.ResourceScript,
	}
	seen := make(map[string]string, len(named))
	for _, key := range []string{"output.header", "output.source", "output.event_template", "output.resource_script"} {
		path := strings.TrimSpace(named[key])
		if path == "" {
			continue
		}
		clean := filepath.Clean(path)
		if prev, ok := seen[clean]; ok {
			return fmt.Errorf("%s and %s both write %q", prev, key, path)
		}
		seen[clean] = key
		for _, in := range cfg.Inputs {
			if !helpers.HasWildcard(in) && helpers.IsPathOverlap(clean, filepath.Clean(in)) {
				return fmt.Errorf("%s %q would overwrite input %q", key, path, in)
			}
		}
	}
	return nil
}

func validateCodegen(cfg *Config) error {
	c := cfg.Codegen
	if c.Namespace != "" && !namespacePattern.MatchString(c.Namespace) {
		return fmt.Errorf("codegen.namespace %q is not a valid C++ namespace", c.Namespace)
	}
	if c.EtwNamespace != "" && !namespacePattern.MatchString(c.EtwNamespace) {
		return fmt.Errorf("codegen.etw_namespace %q is not a valid C++ namespace", c.EtwNamespace)
	}
	if c.LogCallPrefix != "" && !identifierPattern.MatchString(c.LogCallPrefix) {
		return fmt.Errorf("codegen.log_call_prefix %q is not a valid identifier", c.LogCallPrefix)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	path := strings.TrimSpace(cfg.History.Path)
	if path == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	for _, in := range cfg.Inputs {
		if filepath.Clean(in) == filepath.Clean(path) {
			return fmt.Errorf("history.path %q is also an input", path)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRebuildsPerMinute < 0 {
		return fmt.Errorf("watch.max_rebuilds_per_minute must not be negative")
	}
	return nil
}

func validateTelemetry(cfg *Config) error {
	endpoint := cfg.Telemetry.OTLPEndpoint
	if endpoint == "" {
		return nil
	}
	if strings.Contains(endpoint, "://") {
		return fmt.Errorf("telemetry.otlp_endpoint must be host:port, got %q", endpoint)
	}
	if !strings.Contains(endpoint, ":") {
		return fmt.Errorf("telemetry.otlp_endpoint %q is missing a port", endpoint)
	}
	return nil
}
