package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/keel/internal/app"
)

func (c *CLI) newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell <element>",
		Short: "Open an interactive shell in the build environment of an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noBuild, _ := cmd.Flags().GetBool("no-build")
			return c.app.Shell(cmd.Context(), args[0], app.ShellOptions{NoBuild: noBuild})
		},
	}
	cmd.Flags().Bool("no-build", false, "Only pull dependencies, never build them")
	return cmd
}
