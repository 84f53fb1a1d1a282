package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/keel/internal/app"
	"go.trai.ch/keel/internal/core/domain"
)

func (c *CLI) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [elements...]",
		Short: "Show elements and their state",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionFlag(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return c.app.Show(cmd.Context(), args, app.ShowOptions{Deps: sel, Format: format})
		},
	}
	depsFlag(cmd, domain.SelectAll)
	cmd.Flags().StringP("format", "f", app.DefaultShowFormat,
		"Line template with %{name}, %{kind}, %{state}, %{key}, %{full-key}, %{deps} and %{workspace}")
	return cmd
}
