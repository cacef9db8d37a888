package app

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pyimports/internal/core/errors"
	"pyimports/internal/engine/parser"
	"pyimports/internal/output"
	"pyimports/internal/shared/observability"
)

// ScanReport is the result of a batch scan. Files holds every analyzed path,
// including unreadable ones with an empty map; Results is sorted by path.
type ScanReport struct {
	RunID   string
	Files   map[string]parser.ImportMap
	Results []FileResult
	Summary output.Summary
}

// CollectFiles expands paths into the sorted set of Python files to analyze.
// Directories are walked with the exclude filter applied; files named
// explicitly are kept as long as they are Python sources.
func (a *App) CollectFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			code := errors.CodeInternal
			if os.IsNotExist(err) {
				code = errors.CodeNotFound
			}
			return nil, errors.AddContext(errors.Wrap(err, code, "stat scan path"), errors.CtxPath, root)
		}
		if !info.IsDir() {
			if !parser.IsPythonPath(root) {
				slog.Warn("skipping non-Python file", "path", root)
				continue
			}
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				slog.Warn("skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != root && a.filter.SkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if a.filter.SkipFile(path) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "walk scan path"), errors.CtxPath, root)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Scan analyzes every collected file on a bounded worker pool. Per-file
// failures are recorded in the report and never abort the batch; only an
// invalid scan root or a cancelled context returns an error.
func (a *App) Scan(ctx context.Context, paths []string) (*ScanReport, error) {
	if len(paths) == 0 {
		paths = a.Config.Scan.Paths
	}
	start := time.Now()
	runID := uuid.NewString()

	files, err := a.CollectFiles(paths)
	if err != nil {
		return nil, err
	}
	slog.Info("scan started", "run_id", runID, "files", len(files), "workers", a.Config.Scan.Workers)

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Scan.Workers)

	var mu sync.Mutex
	done := 0
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.AnalyzeFile(gctx, path)
			mu.Lock()
			done++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "scan cancelled")
	}

	report := &ScanReport{
		RunID:   runID,
		Files:   make(map[string]parser.ImportMap, len(results)),
		Results: results,
	}
	summary := output.Summary{RunID: runID, Files: done}
	for _, res := range results {
		report.Files[res.Path] = res.Imports
		switch {
		case res.Err != nil:
			summary.Errors++
		case res.ParseFailed:
			summary.ParseFailed++
		default:
			summary.Parsed++
		}
		if res.Cached {
			summary.CacheHits++
		}
		summary.Imports += len(res.Imports)
	}
	summary.Duration = time.Since(start)
	report.Summary = summary

	observability.ScanDuration.Observe(summary.Duration.Seconds())
	slog.Info("scan finished", "run_id", runID, "files", summary.Files, "errors", summary.Errors,
		"parse_failed", summary.ParseFailed, "duration", summary.Duration)
	return report, nil
}
