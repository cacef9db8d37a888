package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	coreapp "pyimports/internal/core/app"
	"pyimports/internal/core/config"
	"pyimports/internal/core/errors"
	"pyimports/internal/output"
	"pyimports/internal/shared/observability"
	"pyimports/internal/shared/util"
	"pyimports/internal/shared/version"
)

const shutdownTimeout = 5 * time.Second

// loadConfig merges, in increasing precedence: config file or defaults,
// environment, then flags given explicitly on the command line.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "detect working directory")
	}

	cfg, err := config.LoadOrDefault(opts.configPath, cwd)
	if err != nil {
		return nil, err
	}
	if cfg.Source != "" {
		slog.Debug("config loaded", "path", cfg.Source)
	}

	config.ApplyEnvOverrides(cfg)
	applyFlagOverrides(cmd, opts, cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, opts *cliOptions, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("string-imports") {
		cfg.Imports.StringImports = opts.stringImports
	}
	if flags.Changed("min-dots") {
		cfg.Imports.MinDots = opts.minDots
	}
	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(opts.format))
	}
	if flags.Changed("output") {
		cfg.Output.Path = strings.TrimSpace(opts.output)
	}
}

// session is a configured App plus the tracing and metrics plumbing that
// lives as long as one command.
type session struct {
	cfg    *config.Config
	app    *coreapp.App
	format output.Format

	server   *observability.Server
	shutdown observability.ShutdownFunc
}

func startSession(ctx context.Context, cmd *cobra.Command, opts *cliOptions) (*session, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.Observability.OTLPEndpoint,
		OTLPInsecure:   cfg.Observability.OTLPInsecure,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "initialize tracing")
	}

	app, err := coreapp.New(cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	s := &session{cfg: cfg, app: app, format: format, shutdown: shutdown}
	if cfg.Observability.Enabled {
		s.server = observability.NewServer(cfg.Observability.Address, app.Health)
		if err := s.server.Start(); err != nil {
			s.close()
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "start observability server"), errors.CtxOption, "observability.address")
		}
	}
	return s, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.server != nil {
		if err := s.server.Stop(ctx); err != nil {
			slog.Warn("failed to stop observability server", "error", err)
		}
	}
	if err := s.app.Close(); err != nil {
		slog.Warn("failed to close result cache", "error", err)
	}
	if err := s.shutdown(ctx); err != nil {
		slog.Warn("failed to flush traces", "error", err)
	}
}

// emit renders through render and sends the bytes to the configured output
// file, or to w when none is set.
func (s *session) emit(w io.Writer, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if path := s.cfg.Output.Path; path != "" {
		if err := util.WriteFileWithDirs(path, buf.Bytes(), 0o644); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write output"), errors.CtxPath, path)
		}
		slog.Debug("output written", "path", path)
		return nil
	}
	_, err := w.Write(buf.Bytes())
	return err
}
