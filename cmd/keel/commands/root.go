// Package commands implements the CLI commands for keel.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/keel/internal/app"
	"go.trai.ch/keel/internal/build"
	"go.trai.ch/keel/internal/core/domain"
)

// CLI represents the command line interface for keel.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	global  app.GlobalOptions
}

// Application represents the application logic interface.
type Application interface {
	Configure(opts app.GlobalOptions)

	Build(ctx context.Context, targets []string, opts app.BuildOptions) error
	Show(ctx context.Context, targets []string, opts app.ShowOptions) error
	Shell(ctx context.Context, target string, opts app.ShellOptions) error

	SourceFetch(ctx context.Context, targets []string, opts app.SourceOptions) error
	SourceTrack(ctx context.Context, targets []string, opts app.SourceOptions) error
	SourceCheckout(ctx context.Context, target, dir string) error

	WorkspaceOpen(ctx context.Context, element, dir string, force bool) error
	WorkspaceClose(ctx context.Context, element string, remove bool) error
	WorkspaceReset(ctx context.Context, element string) error
	WorkspaceList(ctx context.Context) error

	ArtifactCheckout(ctx context.Context, target, dir string) error
	ArtifactLog(ctx context.Context, target string) error
	ArtifactPull(ctx context.Context, targets []string, opts app.ArtifactOptions) error
	ArtifactPush(ctx context.Context, targets []string, opts app.ArtifactOptions) error
	ArtifactDelete(ctx context.Context, targets []string) error
	ArtifactReindex(ctx context.Context) error

	CacheServe(ctx context.Context, opts app.ServeOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "keel",
		Short:         "Build and integrate software stacks from element declarations",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.global.Dir, "directory", "C", "", "Look for the project at or above this directory")
	flags.BoolVar(&c.global.LogJSON, "log-json", false, "Write log records as JSON")
	flags.BoolVarP(&c.global.Quiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		c.app.Configure(c.global)
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newShowCmd())
	rootCmd.AddCommand(c.newShellCmd())
	rootCmd.AddCommand(c.newSourceCmd())
	rootCmd.AddCommand(c.newWorkspaceCmd())
	rootCmd.AddCommand(c.newArtifactCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// depsFlag registers --deps on cmd with the given default selection.
func depsFlag(cmd *cobra.Command, def domain.Selection) {
	cmd.Flags().StringP("deps", "d", string(def),
		"Dependencies to include: none, build, run or all")
}

func selectionFlag(cmd *cobra.Command) (domain.Selection, error) {
	value, _ := cmd.Flags().GetString("deps")
	return domain.ParseSelection(value)
}
