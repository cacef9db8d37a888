package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: PYIMPORTS_[SECTION]_[KEY] (e.g., PYIMPORTS_IMPORTS_MIN_DOTS).
// The unprefixed MIN_DOTS and STRING_IMPORTS variables are read first so the
// prefixed form wins when both are set.
func ApplyEnvOverrides(cfg *Config) {
	applyLegacyEnv(cfg)

	// Imports
	setEnvBool(&cfg.Imports.StringImports, "PYIMPORTS_IMPORTS_STRING_IMPORTS")
	setEnvInt(&cfg.Imports.MinDots, "PYIMPORTS_IMPORTS_MIN_DOTS")

	// Scan
	setEnvList(&cfg.Scan.Paths, "PYIMPORTS_SCAN_PATHS")
	setEnvBool(&cfg.Scan.IncludeTests, "PYIMPORTS_SCAN_INCLUDE_TESTS")
	setEnvInt(&cfg.Scan.Workers, "PYIMPORTS_SCAN_WORKERS")
	setEnvDuration(&cfg.Scan.FileTimeout, "PYIMPORTS_SCAN_FILE_TIMEOUT")

	// Exclude
	setEnvList(&cfg.Exclude.Dirs, "PYIMPORTS_EXCLUDE_DIRS")
	setEnvList(&cfg.Exclude.Files, "PYIMPORTS_EXCLUDE_FILES")

	// Cache
	setEnvBool(&cfg.Cache.Enabled, "PYIMPORTS_CACHE_ENABLED")
	setEnvInt(&cfg.Cache.Entries, "PYIMPORTS_CACHE_ENTRIES")
	setEnvString(&cfg.Cache.Path, "PYIMPORTS_CACHE_PATH")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "PYIMPORTS_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.Rate, "PYIMPORTS_WATCH_RATE")
	setEnvInt(&cfg.Watch.Burst, "PYIMPORTS_WATCH_BURST")

	// Output
	setEnvString(&cfg.Output.Format, "PYIMPORTS_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "PYIMPORTS_OUTPUT_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "PYIMPORTS_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "PYIMPORTS_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "PYIMPORTS_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "PYIMPORTS_OBSERVABILITY_OTLP_INSECURE")
	setEnvString(&cfg.Observability.ServiceName, "PYIMPORTS_OBSERVABILITY_SERVICE_NAME")

	normalize(cfg)
}

// applyLegacyEnv honors MIN_DOTS and STRING_IMPORTS. Only the exact value
// "y" enables string imports.
func applyLegacyEnv(cfg *Config) {
	setEnvInt(&cfg.Imports.MinDots, "MIN_DOTS")
	if val, ok := os.LookupEnv("STRING_IMPORTS"); ok {
		slog.Debug("applying env override", "key", "STRING_IMPORTS", "value", val)
		cfg.Imports.StringImports = val == "y"
	}
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val)))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
