// Package commands implements the CLI commands for stencil.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"stencil/internal/app"
	"stencil/internal/buildinfo"
	"stencil/internal/builder"
	"stencil/internal/logger"
	"stencil/internal/server"
)

// Application is what the commands drive. *app.App implements it.
type Application interface {
	Build(ctx context.Context, opts app.BuildOptions) (builder.Report, error)
	Serve(ctx context.Context, opts server.Options) error
	NewSite(dir, title string) ([]string, error)
	NewNote(dir, title string) (string, error)
}

// AppFactory creates the Application once the global flags have chosen the
// logger.
type AppFactory func(log *slog.Logger) Application

// CLI represents the command line interface for stencil.
type CLI struct {
	rootCmd *cobra.Command
	newApp  AppFactory
	stderr  io.Writer

	app      Application
	log      *slog.Logger
	level    slog.LevelVar
	verbose  bool
	jsonLogs bool
}

// New creates the CLI. Logs go to stderr.
func New(newApp AppFactory, stderr io.Writer) *CLI {
	c := &CLI{newApp: newApp, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:           "stencil",
		Short:         "A static site generator driven by content blocks and builders",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildinfo.Version,
		PersistentPreRun: func(*cobra.Command, []string) {
			c.setup()
		},
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVar(&c.jsonLogs, "json", false, "Log as JSON lines")

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newNewCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	c.rootCmd = rootCmd
	c.setup()
	return c
}

// setup applies the logging flags and creates the Application.
func (c *CLI) setup() {
	if c.verbose {
		c.level.Set(slog.LevelDebug)
	} else {
		c.level.Set(slog.LevelWarn)
	}
	if c.jsonLogs {
		c.log = logger.NewJSON(c.stderr, &c.level)
	} else {
		c.log = logger.New(c.stderr, &c.level)
	}
	c.app = c.newApp(c.log)
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// ReportError logs a failed command's error chain.
func (c *CLI) ReportError(err error) {
	if c.jsonLogs {
		c.log.Error("Command failed", "error", err.Error())
		return
	}
	c.log.Error(logger.FormatError(err))
}
