package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"stencil/internal/scaffold"
)

func (c *CLI) newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a site or a note",
	}
	cmd.AddCommand(c.newNewSiteCmd(), c.newNewNoteCmd())
	return cmd
}

func (c *CLI) newNewSiteCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "site <directory>",
		Short: "Scaffold a starter project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			created, err := c.app.NewSite(dir, title)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, path := range created {
				_, _ = fmt.Fprintln(out, "created", filepath.Join(dir, path))
			}
			_, _ = fmt.Fprintf(out, "\nBuild it with:\n  cd %s\n  stencil build project -c %s -o public\n", dir, scaffold.ConfigFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Site title")
	return cmd
}

func (c *CLI) newNewNoteCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "note <title>",
		Short: "Add a Markdown note to a scaffolded site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.app.NewNote(dir, args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "created", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "directory", "d", scaffold.NotesDirectory, "Directory holding the notes")
	return cmd
}
