// Package app implements the application layer behind the stencil CLI.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/zerr"

	"stencil/internal/builder"
	"stencil/internal/config"
	"stencil/internal/metrics"
	"stencil/internal/scaffold"
	"stencil/internal/server"
)

// App ties configuration, builds, serving and scaffolding together.
type App struct {
	logger *slog.Logger
	stdin  io.Reader
}

// New creates an App logging to logger and reading "-" configs from stdin.
func New(logger *slog.Logger, stdin io.Reader) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	return &App{logger: logger, stdin: stdin}
}

// BuildOptions select what to build and where.
type BuildOptions struct {
	// ConfigPath is a file path, or config.Stdin.
	ConfigPath      string
	OutputDirectory string
	Jobs            int
	// MetricsFile, when set, receives the build metrics in the Prometheus
	// text format, written even if the build fails.
	MetricsFile string
}

// Build loads the configuration and builds the site.
func (a *App) Build(ctx context.Context, opts BuildOptions) (builder.Report, error) {
	cfg, err := config.Load(opts.ConfigPath, a.stdin)
	if err != nil {
		return builder.Report{}, zerr.Wrap(err, "failed to load configuration")
	}

	out, err := filepath.Abs(opts.OutputDirectory)
	if err != nil {
		return builder.Report{}, zerr.With(zerr.Wrap(err, "failed to resolve output directory"), "output_directory", opts.OutputDirectory)
	}

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		prom     *metrics.PrometheusRecorder
	)
	if opts.MetricsFile != "" {
		prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = prom
	}

	a.logger.Debug("Building site", "config", opts.ConfigPath, "output_directory", out, "jobs", opts.Jobs)
	report, buildErr := builder.BuildSite(ctx, cfg, out, builder.BuildOptions{
		Jobs:     opts.Jobs,
		Logger:   a.logger,
		Recorder: recorder,
	})

	if prom != nil {
		if err := prom.WriteTextfile(opts.MetricsFile); err != nil {
			if buildErr == nil {
				return report, err
			}
			a.logger.Warn("Could not write metrics file", "path", opts.MetricsFile, "error", err)
		}
	}
	if buildErr != nil {
		return report, zerr.Wrap(buildErr, "build failed")
	}
	return report, nil
}

// Serve serves a built site until ctx is done.
func (a *App) Serve(ctx context.Context, opts server.Options) error {
	opts.Logger = a.logger
	s, err := server.New(opts)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

// NewSite scaffolds a starter project in dir.
func (a *App) NewSite(dir, title string) ([]string, error) {
	created, err := scaffold.NewSite(dir, title)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Scaffolded site", "directory", dir, "files", len(created))
	return created, nil
}

// NewNote adds a Markdown note to dir.
func (a *App) NewNote(dir, title string) (string, error) {
	path, err := scaffold.NewNote(dir, title)
	if err != nil {
		return "", err
	}
	a.logger.Info("Created note", "path", path)
	return path, nil
}
