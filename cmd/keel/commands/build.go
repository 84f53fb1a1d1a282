package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/keel/internal/app"
	"go.trai.ch/keel/internal/core/domain"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [elements...]",
		Short: "Build elements and everything they need",
		Long: "Build makes an artifact available for every element in the build scope of the\n" +
			"targets, pulling from the remote cache or building in dependency order.\n" +
			"Without targets the whole project is built.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			track, _ := cmd.Flags().GetBool("track")
			retry, _ := cmd.Flags().GetBool("retry-failed")
			noPush, _ := cmd.Flags().GetBool("no-push")
			watch, _ := cmd.Flags().GetBool("watch")
			onError, _ := cmd.Flags().GetString("on-error")

			policy := domain.ErrorPolicy(onError)
			switch policy {
			case "", domain.FailFast, domain.ContinueOnError:
			default:
				return domain.NewError(domain.ErrConfigParseFailed, "option", "on-error", "value", onError)
			}

			return c.app.Build(cmd.Context(), args, app.BuildOptions{
				Track:       track,
				RetryFailed: retry,
				NoPush:      noPush,
				OnError:     policy,
				Watch:       watch,
			})
		},
	}
	cmd.Flags().Bool("track", false, "Track sources before building")
	cmd.Flags().Bool("retry-failed", false, "Rebuild elements whose failure is cached")
	cmd.Flags().Bool("no-push", false, "Do not push artifacts to the remote cache")
	cmd.Flags().BoolP("watch", "w", false, "Rebuild when workspaces or local sources change")
	cmd.Flags().String("on-error", "", "Error policy for this run: quit or continue")
	return cmd
}
