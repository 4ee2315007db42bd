// Package commands implements the CLI commands for pnpm.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/mjgerace/pnpm/internal/app"
	"github.com/mjgerace/pnpm/internal/build"
	"github.com/spf13/cobra"
)

// CLI represents the command line interface for pnpm.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Install(ctx context.Context, opts app.InstallOptions) error
	Add(ctx context.Context, args []string, opts app.AddOptions) error
	ConfigureLogging(json, verbose bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pnpm",
		Short:         "Fast, disk space efficient package manager",
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

	rootCmd.PersistentFlags().StringP("dir", "C", ".", "Run as if pnpm was started in this directory")
	rootCmd.PersistentFlags().Bool("json", false, "Write log records as JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "Show debug output")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		jsonLogs, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		c.app.ConfigureLogging(jsonLogs, verbose)
	}

	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newAddCmd())
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
