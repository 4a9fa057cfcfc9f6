package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"stencil/internal/buildinfo"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stencil version %s\n", buildinfo.Version)
		},
	}
}
