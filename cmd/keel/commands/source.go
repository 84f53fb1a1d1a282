package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/keel/internal/app"
	"go.trai.ch/keel/internal/core/domain"
)

func (c *CLI) newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage element sources",
	}
	cmd.AddCommand(c.newSourceFetchCmd())
	cmd.AddCommand(c.newSourceTrackCmd())
	cmd.AddCommand(c.newSourceCheckoutCmd())
	return cmd
}

func (c *CLI) newSourceFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [elements...]",
		Short: "Fetch the pinned sources of elements",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFlag(cmd)
			if err != nil {
				return err
			}
			track, _ := cmd.Flags().GetBool("track")
			return c.app.SourceFetch(cmd.Context(), args, app.SourceOptions{Deps: sel, Track: track})
		},
	}
	depsFlag(cmd, domain.SelectNone)
	cmd.Flags().Bool("track", false, "Track sources before fetching")
	return cmd
}

func (c *CLI) newSourceTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track [elements...]",
		Short: "Resolve the latest revisions of tracked sources and pin them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFlag(cmd)
			if err != nil {
				return err
			}
			return c.app.SourceTrack(cmd.Context(), args, app.SourceOptions{Deps: sel})
		},
	}
	depsFlag(cmd, domain.SelectNone)
	return cmd
}

func (c *CLI) newSourceCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <element> <directory>",
		Short: "Write the staged sources of an element to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.SourceCheckout(cmd.Context(), args[0], args[1])
		},
	}
}
