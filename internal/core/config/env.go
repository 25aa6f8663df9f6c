package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: EVMC_[SECTION]_[KEY] (e.g., EVMC_HISTORY_ENABLED).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Output.OutputDir, "EVMC_OUTPUT_OUTPUT_DIR")
	setEnvString(&cfg.Codegen.Generator, "EVMC_CODEGEN_GENERATOR")
	setEnvString(&cfg.Compile.Schema, "EVMC_COMPILE_SCHEMA")
	setEnvBool(&cfg.Compile.WarningsAsErrors, "EVMC_COMPILE_WARNINGS_AS_ERRORS")

	setEnvBool(&cfg.History.Enabled, "EVMC_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "EVMC_HISTORY_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "EVMC_WATCH_DEBOUNCE")
	setEnvInt(&cfg.Watch.MaxRebuildsPerMinute, "EVMC_WATCH_MAX_REBUILDS_PER_MINUTE")

	setEnvString(&cfg.Telemetry.MetricsFile, "EVMC_TELEMETRY_METRICS_FILE")
	setEnvString(&cfg.Telemetry.OTLPEndpoint, "EVMC_TELEMETRY_OTLP_ENDPOINT")
	setEnvString(&cfg.Telemetry.ServiceName, "EVMC_TELEMETRY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
