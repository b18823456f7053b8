package cli

import (
	"github.com/spf13/cobra"

	"github.com/pakt-pm/pakt/pkg/manifest"
)

// addCommand creates the "add" command.
func (c *CLI) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <package>[@version]",
		Short: "Add a package to package.json",
		Long: `Add records a dependency in package.json. Without an explicit version
the latest published version is fetched from the registry and stored as a
caret range (^1.2.3). An explicit version or range is stored verbatim.

Existing entries are updated in place; other entries keep their order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			name, spec, err := manifest.ParsePackageArg(args[0])
			if err != nil {
				return err
			}

			m, err := manifest.LoadOrInit(manifest.DefaultFile)
			if err != nil {
				return err
			}

			if spec == "" {
				client, err := c.newClient(ctx)
				if err != nil {
					return err
				}
				logger.Debugf("fetching latest version of %s", name)
				meta, err := client.FetchMetadata(ctx, name, "latest")
				if err != nil {
					return err
				}
				spec = "^" + meta.Version
			}

			if _, exists := m.Dependencies.Get(name); exists {
				printInfo("Package %s already exists. Updating version.", name)
			} else {
				printInfo("Adding new package %s.", name)
			}
			m.Dependencies.Set(name, spec)

			if err := m.Save(manifest.DefaultFile); err != nil {
				return err
			}

			printSuccess("Added %s@%s to package.json", name, spec)
			printNextStep("Install it", "pakt install")
			return nil
		},
	}
}
