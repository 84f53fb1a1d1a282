package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.trai.ch/keel/internal/app"
	"go.trai.ch/keel/internal/core/domain"
)

func (c *CLI) newArtifactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Inspect and transfer artifacts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "checkout <element> <directory>",
		Short: "Write the artifact of an element to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.ArtifactCheckout(cmd.Context(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "log <element>",
		Short: "Print the build log of an element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.ArtifactLog(cmd.Context(), args[0])
		},
	})
	cmd.AddCommand(c.newTransferCmd("pull", "Download artifacts from the remote cache", c.app.ArtifactPull))
	cmd.AddCommand(c.newTransferCmd("push", "Upload artifacts to the remote cache", c.app.ArtifactPush))
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <elements...>",
		Short: "Remove artifacts from the local cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.ArtifactDelete(cmd.Context(), args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the artifact index from the content store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.ArtifactReindex(cmd.Context())
		},
	})
	return cmd
}

type transferFunc func(ctx context.Context, targets []string, opts app.ArtifactOptions) error

func (c *CLI) newTransferCmd(use, short string, fn transferFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [elements...]",
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFlag(cmd)
			if err != nil {
				return err
			}
			return fn(cmd.Context(), args, app.ArtifactOptions{Deps: sel})
		},
	}
	depsFlag(cmd, domain.SelectNone)
	return cmd
}
