package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pyimports/internal/core/config"
	"pyimports/internal/core/errors"
	"pyimports/internal/core/filter"
	"pyimports/internal/core/ports"
	"pyimports/internal/data/cache"
	"pyimports/internal/engine/parser"
	"pyimports/internal/shared/observability"
)

// App wires the extractor, result cache and path filter behind the parse,
// scan and watch entry points.
type App struct {
	Config *config.Config

	extractor ports.ImportExtractor
	cache     ports.ResultCache
	filter    *filter.Filter
}

// Dependencies lets callers swap the extractor or cache. Nil fields are
// built from the config.
type Dependencies struct {
	Extractor ports.ImportExtractor
	Cache     ports.ResultCache
}

func New(cfg *config.Config) (*App, error) {
	return NewWithDependencies(cfg, Dependencies{})
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}

	f, err := filter.New(cfg.Exclude.Dirs, cfg.Exclude.Files, cfg.Scan.IncludeTests)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "compile exclude patterns"), errors.CtxOption, "exclude")
	}

	extractor := deps.Extractor
	if extractor == nil {
		x, err := parser.NewExtractor(OptionsFromConfig(cfg))
		if err != nil {
			return nil, err
		}
		extractor = x
	}

	resultCache := deps.Cache
	if resultCache == nil && cfg.Cache.Enabled {
		var store *cache.Store
		if path := cfg.CachePath(); path != "" {
			store, err = cache.Open(path)
			if err != nil {
				return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open result cache"), errors.CtxPath, path)
			}
			slog.Debug("result cache opened", "path", path)
		}
		resultCache = cache.New(cfg.Cache.Entries, store)
	}

	return &App{
		Config:    cfg,
		extractor: extractor,
		cache:     resultCache,
		filter:    f,
	}, nil
}

// OptionsFromConfig maps the [imports] section onto engine options.
func OptionsFromConfig(cfg *config.Config) parser.Options {
	return parser.Options{
		StringImports: cfg.Imports.StringImports,
		MinDots:       cfg.Imports.MinDots,
	}
}

func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

// Health reports the state of each component for the /health endpoint.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if a.extractor != nil {
		opts := a.extractor.Options()
		status.Components["extractor"] = fmt.Sprintf("ok (string_imports=%t, min_dots=%d)", opts.StringImports, opts.MinDots)
	} else {
		status.Status = "degraded"
		status.Components["extractor"] = "missing"
	}

	switch {
	case a.cache != nil:
		status.Components["cache"] = fmt.Sprintf("ok (%d entries)", a.cache.Len())
	case a.Config.Cache.Enabled:
		status.Status = "degraded"
		status.Components["cache"] = "missing but enabled in config"
	default:
		status.Components["cache"] = "disabled"
	}

	if err := ctx.Err(); err != nil {
		status.Status = "degraded"
		status.Components["context"] = err.Error()
	}
	return status
}
