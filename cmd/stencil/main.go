// Package main is the entry point for the stencil static site generator.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stencil/cmd/stencil/commands"
	"stencil/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New(func(log *slog.Logger) commands.Application {
		return app.New(log, stdin)
	}, stderr)
	cli.SetArgs(args)
	cli.SetOutput(stdout)

	if err := cli.Execute(ctx); err != nil {
		cli.ReportError(err)
		return 1
	}
	return 0
}
