package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage editable checkouts of element sources",
	}
	cmd.AddCommand(c.newWorkspaceOpenCmd())
	cmd.AddCommand(c.newWorkspaceCloseCmd())
	cmd.AddCommand(c.newWorkspaceResetCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List open workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.WorkspaceList(cmd.Context())
		},
	})
	return cmd
}

func (c *CLI) newWorkspaceOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <element> <directory>",
		Short: "Check out the sources of an element for editing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return c.app.WorkspaceOpen(cmd.Context(), args[0], args[1], force)
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Use the directory even if it is not empty")
	return cmd
}

func (c *CLI) newWorkspaceCloseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close <element>",
		Short: "Stop building an element from its workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetBool("remove-dir")
			return c.app.WorkspaceClose(cmd.Context(), args[0], remove)
		},
	}
	cmd.Flags().Bool("remove-dir", false, "Delete the workspace directory")
	return cmd
}

func (c *CLI) newWorkspaceResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <element>",
		Short: "Discard workspace changes and check out the pinned sources again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.WorkspaceReset(cmd.Context(), args[0])
		},
	}
}
