package commands

import (
	"github.com/spf13/cobra"

	"stencil/internal/server"
)

func (c *CLI) newServeCmd() *cobra.Command {
	var opts server.Options
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a built site over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Host, "host", server.DefaultHost, "Host to listen on")
	cmd.Flags().IntVar(&opts.Port, "port", server.DefaultPort, "Port to listen on")
	cmd.Flags().StringVarP(&opts.Directory, "directory", "d", "", "Directory to serve")
	cmd.Flags().BoolVar(&opts.LiveReload, "live-reload", false, "Reload open pages when files in the directory change")
	_ = cmd.MarkFlagRequired("directory")
	return cmd
}
