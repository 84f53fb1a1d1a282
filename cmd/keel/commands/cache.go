package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/keel/internal/app"
)

// EnvServeToken holds the token clients of "cache serve" must present.
const EnvServeToken = "KEEL_SERVE_TOKEN"

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Operate on artifact caches",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve a content store as a remote cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			dir, _ := cmd.Flags().GetString("dir")
			idle, _ := cmd.Flags().GetDuration("idle-timeout")
			return c.app.CacheServe(cmd.Context(), app.ServeOptions{
				Addr:        addr,
				Dir:         dir,
				Token:       os.Getenv(EnvServeToken),
				IdleTimeout: idle,
			})
		},
	}
	serve.Flags().String("addr", "127.0.0.1:7070", "Listen address, host:port or unix:///path")
	serve.Flags().String("dir", "", "Directory of the served store (default: the current project)")
	serve.Flags().Duration("idle-timeout", 0, "Stop after this long without calls (0 serves forever)")
	cmd.AddCommand(serve)
	return cmd
}
