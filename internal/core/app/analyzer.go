package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pyimports/internal/core/errors"
	"pyimports/internal/data/cache"
	"pyimports/internal/engine/parser"
	"pyimports/internal/shared/observability"
)

// FileResult is the outcome of analyzing one path. Err is set for files that
// could not be read or whose analysis timed out or panicked; a parse failure
// is not an error.
type FileResult struct {
	Path        string
	Imports     parser.ImportMap
	ParseFailed bool
	Cached      bool
	Suppressed  int
	Duplicates  int
	Removed     bool
	Outcome     string
	Err         error
}

type extraction struct {
	result   *parser.Result
	panicked any
}

// AnalyzeFile reads path and extracts its imports, consulting the result
// cache first. It never panics and never returns a nil Imports map.
func (a *App) AnalyzeFile(ctx context.Context, path string) FileResult {
	ctx, span := observability.Tracer().Start(ctx, "pyimports.analyze_file",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	res := FileResult{Path: path, Imports: parser.ImportMap{}}

	content, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInternal
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		res.Err = errors.AddContext(errors.Wrap(err, code, "read source file"), errors.CtxPath, path)
		res.Outcome = observability.OutcomeReadError
		a.finish(span, res)
		return res
	}

	opts := a.extractor.Options()
	key := cache.Key(path, opts.StringImports, opts.MinDots, content)
	if a.cache != nil {
		if entry, tier, ok := a.cache.Get(key); ok {
			observability.CacheLookupsTotal.WithLabelValues(string(tier)).Inc()
			res.Imports = entry.Imports
			res.ParseFailed = entry.ParseFailed
			res.Cached = true
			res.Outcome = outcomeFor(entry.ParseFailed)
			span.SetAttributes(attribute.String("cache.tier", string(tier)))
			a.finish(span, res)
			return res
		}
		observability.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	result, outcome, err := a.extract(ctx, path, content)
	observability.ParsingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	res.Outcome = outcome
	if err != nil {
		res.Err = err
		a.finish(span, res)
		return res
	}

	res.Imports = result.Imports
	res.ParseFailed = result.ParseFailed
	res.Suppressed = result.Suppressed
	res.Duplicates = result.Duplicates

	observability.OccurrencesTotal.WithLabelValues(observability.OccurrenceRecorded).Add(float64(len(result.Imports)))
	observability.OccurrencesTotal.WithLabelValues(observability.OccurrenceSuppressed).Add(float64(result.Suppressed))
	observability.OccurrencesTotal.WithLabelValues(observability.OccurrenceDuplicate).Add(float64(result.Duplicates))

	if a.cache != nil {
		entry := cache.Entry{Path: path, Imports: result.Imports, ParseFailed: result.ParseFailed}
		if err := a.cache.Put(key, entry); err != nil {
			slog.Warn("failed to store cache entry", "path", path, "error", err)
		}
	}

	a.finish(span, res)
	return res
}

// extract runs the extractor in its own goroutine so a slow or panicking file
// cannot stall or crash the caller. On timeout the goroutine is abandoned and
// its result discarded.
func (a *App) extract(ctx context.Context, path string, content []byte) (*parser.Result, string, error) {
	done := make(chan extraction, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- extraction{panicked: r}
			}
		}()
		done <- extraction{result: a.extractor.Extract(path, content)}
	}()

	var timeout <-chan time.Time
	if d := a.Config.Scan.FileTimeout; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case out := <-done:
		if out.panicked != nil {
			err := errors.Newf(errors.CodeInternal, "extractor panicked: %v", out.panicked)
			return nil, observability.OutcomePanic, errors.AddContext(err, errors.CtxPath, path)
		}
		if out.result == nil {
			err := errors.New(errors.CodeInternal, "extractor returned no result")
			return nil, observability.OutcomePanic, errors.AddContext(err, errors.CtxPath, path)
		}
		return out.result, outcomeFor(out.result.ParseFailed), nil
	case <-timeout:
		err := errors.Newf(errors.CodeTimeout, "analysis exceeded %s", a.Config.Scan.FileTimeout)
		return nil, observability.OutcomeTimeout, errors.AddContext(err, errors.CtxPath, path)
	case <-ctx.Done():
		err := errors.Wrap(ctx.Err(), errors.CodeTimeout, "analysis cancelled")
		return nil, observability.OutcomeTimeout, errors.AddContext(err, errors.CtxPath, path)
	}
}

func (a *App) finish(span trace.Span, res FileResult) {
	observability.FilesAnalyzedTotal.WithLabelValues(res.Outcome).Inc()
	span.SetAttributes(
		attribute.String("outcome", res.Outcome),
		attribute.Int("imports", len(res.Imports)),
	)
	switch {
	case res.Err != nil:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Outcome)
		slog.Warn("file analysis failed", "path", res.Path, "outcome", res.Outcome, "error", res.Err)
	case res.ParseFailed:
		slog.Debug("parse failed, reporting no imports", "path", res.Path)
	default:
		slog.Debug("file analyzed", "path", res.Path, "imports", len(res.Imports), "cached", res.Cached)
	}
}

func outcomeFor(parseFailed bool) string {
	if parseFailed {
		return observability.OutcomeParseFailed
	}
	return observability.OutcomeOK
}
