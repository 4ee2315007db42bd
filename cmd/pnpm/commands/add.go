package commands

import (
	"github.com/mjgerace/pnpm/internal/app"
	"github.com/spf13/cobra"
)

func (c *CLI) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <pkg>...",
		Short: "Add packages to package.json and install them",
		Long: `Add packages to package.json and install them.

A package is given as name, name@range, name@tag, owner/repo or a tarball URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			dir, _ := cmd.Flags().GetString("dir")
			dev, _ := cmd.Flags().GetBool("save-dev")
			exact, _ := cmd.Flags().GetBool("save-exact")
			production, _ := cmd.Flags().GetBool("production")

			return c.app.Add(cmd.Context(), args, app.AddOptions{
				Dir:        dir,
				Dev:        dev,
				Exact:      exact,
				Production: production,
			})
		},
	}
	cmd.Flags().BoolP("save-dev", "D", false, "Save as a devDependency")
	cmd.Flags().BoolP("save-exact", "E", false, "Save the exact version instead of a caret range")
	cmd.Flags().BoolP("production", "P", false, "Do not install devDependencies")
	return cmd
}
