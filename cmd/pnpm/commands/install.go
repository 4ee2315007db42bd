package commands

import (
	"github.com/mjgerace/pnpm/internal/app"
	"github.com/spf13/cobra"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install",
		Aliases: []string{"i"},
		Short:   "Install all dependencies of the project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			production, _ := cmd.Flags().GetBool("production")
			frozen, _ := cmd.Flags().GetBool("frozen-lockfile")

			return c.app.Install(cmd.Context(), app.InstallOptions{
				Dir:        dir,
				Production: production,
				Frozen:     frozen,
			})
		},
	}
	cmd.Flags().BoolP("production", "P", false, "Do not install devDependencies")
	cmd.Flags().Bool("frozen-lockfile", false, "Fail instead of updating shrinkwrap.yaml")
	return cmd
}
