package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	coreapp "pyimports/internal/core/app"
	"pyimports/internal/core/errors"
	"pyimports/internal/output"
)

func parseCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the imports of a single Python file",
		Long: `Print the imports of a single Python file as a {module: line} map.

A file that does not parse prints an empty map and still exits 0; a file that
cannot be read is an error.

Examples:
  pyimports parse app/main.py
  pyimports parse --string-imports --min-dots 1 app/settings.py
  pyimports parse -f tsv app/main.py`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSession(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			res := s.app.AnalyzeFile(cmd.Context(), args[0])
			if res.Err != nil {
				return res.Err
			}
			return s.emit(cmd.OutOrStdout(), func(w io.Writer) error {
				return output.WriteImports(w, s.format, res.Imports)
			})
		},
	}
}

func scanCmd(opts *cliOptions) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "scan [PATH...]",
		Short: "Extract imports from every Python file under the given paths",
		Long: `Extract imports from every Python file under the given paths and print a
{file: {module: line}} map. Without arguments the [scan] paths from the
config are used.

Files that fail to read or analyze are reported in the summary with an
empty map; they never stop the scan.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSession(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			report, err := s.app.Scan(cmd.Context(), args)
			if err != nil {
				return err
			}
			if err := s.emit(cmd.OutOrStdout(), func(w io.Writer) error {
				return output.WriteScan(w, s.format, report.Files)
			}); err != nil {
				return err
			}
			if summary {
				fmt.Fprintln(cmd.ErrOrStderr(), output.RenderSummary(report.Summary))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", true, "print a summary to stderr")
	return cmd
}

func watchCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [PATH...]",
		Short: "Re-extract imports whenever Python files change",
		Long: `Watch the given paths and print one JSON record per changed file:

  {"path": "app/main.py", "imports": {"os": 1}}

Deleted files are reported with "removed": true. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := startSession(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			w, closeOut, err := watchOutput(cmd.OutOrStdout(), s.cfg.Output.Path)
			if err != nil {
				return err
			}
			defer closeOut()

			var mu sync.Mutex
			return s.app.Watch(ctx, args, func(res coreapp.FileResult) {
				mu.Lock()
				defer mu.Unlock()
				if err := output.WriteRecord(w, recordFor(res)); err != nil {
					slog.Warn("failed to write watch record", "path", res.Path, "error", err)
				}
			})
		},
	}
}

// watchOutput appends to path when set so records from earlier runs survive.
func watchOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "create output directory"), errors.CtxPath, dir)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open output"), errors.CtxPath, path)
	}
	return f, func() { _ = f.Close() }, nil
}

func recordFor(res coreapp.FileResult) output.Record {
	rec := output.Record{
		Path:        res.Path,
		Imports:     res.Imports,
		ParseFailed: res.ParseFailed,
		Removed:     res.Removed,
		Cached:      res.Cached,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return rec
}
