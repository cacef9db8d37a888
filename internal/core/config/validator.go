package config

import (
	"net"

	"github.com/gobwas/glob"

	"pyimports/internal/core/errors"
)

// maxMinDots mirrors the engine's cap; the regexp repeat count cannot exceed it.
const maxMinDots = 1000

var supportedFormats = map[string]bool{"json": true, "yaml": true, "tsv": true}

// Validate checks a fully defaulted config. It runs after env overrides too,
// so callers re-validate once everything is merged.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateImports,
		validateScan,
		validateExclude,
		validateCache,
		validateWatch,
		validateOutput,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(option, format string, args ...interface{}) error {
	return errors.AddContext(errors.Newf(errors.CodeValidationError, format, args...), errors.CtxOption, option)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return invalid("version", "unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateImports(cfg *Config) error {
	if cfg.Imports.MinDots < 0 || cfg.Imports.MinDots > maxMinDots {
		return invalid("imports.min_dots", "imports.min_dots must be between 0 and %d, got %d", maxMinDots, cfg.Imports.MinDots)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if len(cfg.Scan.Paths) == 0 {
		return invalid("scan.paths", "scan.paths must not be empty")
	}
	if cfg.Scan.Workers < 1 {
		return invalid("scan.workers", "scan.workers must be >= 1, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.FileTimeout < 0 {
		return invalid("scan.file_timeout", "scan.file_timeout must not be negative")
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, pattern := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(pattern); err != nil {
			return invalid("exclude.dirs", "invalid exclude.dirs pattern %q: %v", pattern, err)
		}
	}
	for _, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return invalid("exclude.files", "invalid exclude.files pattern %q: %v", pattern, err)
		}
	}
	return nil
}

func validateCache(cfg *Config) error {
	if cfg.Cache.Enabled && cfg.Cache.Entries < 1 {
		return invalid("cache.entries", "cache.entries must be >= 1 when the cache is enabled, got %d", cfg.Cache.Entries)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return invalid("watch.debounce", "watch.debounce must not be negative")
	}
	if cfg.Watch.Rate <= 0 {
		return invalid("watch.rate", "watch.rate must be > 0, got %v", cfg.Watch.Rate)
	}
	if cfg.Watch.Burst < 1 {
		return invalid("watch.burst", "watch.burst must be >= 1, got %d", cfg.Watch.Burst)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if !supportedFormats[cfg.Output.Format] {
		return invalid("output.format", "output.format must be one of json, yaml, tsv; got %q", cfg.Output.Format)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Observability.Address); err != nil {
		return invalid("observability.address", "observability.address %q is not host:port: %v", cfg.Observability.Address, err)
	}
	if cfg.Observability.ServiceName == "" {
		return invalid("observability.service_name", "observability.service_name must not be empty")
	}
	return nil
}
