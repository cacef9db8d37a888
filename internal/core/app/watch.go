package app

import (
	"context"
	"log/slog"
	"os"

	"pyimports/internal/core/watcher"
	"pyimports/internal/shared/observability"
	"pyimports/internal/shared/util"
)

// Watch re-analyzes Python files under paths as they change and passes each
// outcome to emit. Deleted files are reported with Removed set. It blocks
// until ctx is cancelled.
func (a *App) Watch(ctx context.Context, paths []string, emit func(FileResult)) error {
	if len(paths) == 0 {
		paths = a.Config.Scan.Paths
	}
	limiter := util.NewLimiter(a.Config.Watch.Rate, a.Config.Watch.Burst)

	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.filter, func(changed []string) {
		a.HandleChanges(ctx, changed, limiter, emit)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(paths); err != nil {
		return err
	}
	slog.Info("watching for changes", "paths", paths, "debounce", a.Config.Watch.Debounce)

	<-ctx.Done()
	return nil
}

// HandleChanges analyzes one debounced batch. Each re-analysis takes a token
// from limiter; waits are counted as throttled.
func (a *App) HandleChanges(ctx context.Context, paths []string, limiter *util.Limiter, emit func(FileResult)) {
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			emit(FileResult{Path: path, Imports: map[string]int{}, Removed: true})
			continue
		}

		if limiter != nil {
			throttled, err := limiter.Take(ctx)
			if throttled {
				observability.WatcherThrottledTotal.Inc()
			}
			if err != nil {
				return
			}
		}
		emit(a.AnalyzeFile(ctx, path))
	}
}
