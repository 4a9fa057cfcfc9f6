package commands

import (
	"github.com/spf13/cobra"

	"stencil/internal/app"
	"stencil/internal/config"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build things",
	}
	cmd.AddCommand(c.newBuildProjectCmd())
	return cmd
}

func (c *CLI) newBuildProjectCmd() *cobra.Command {
	var opts app.BuildOptions
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Build the site described by a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.app.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			c.log.Info("Build finished", "artefacts", report.Total(), "duration", report.Duration.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the configuration file, or "+config.Stdin+" for stdin")
	cmd.Flags().StringVarP(&opts.OutputDirectory, "output-directory", "o", "", "Directory to write the site into")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 1, "Content blocks and builders processed at once")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write build metrics to this file in the Prometheus text format")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("output-directory")
	return cmd
}
