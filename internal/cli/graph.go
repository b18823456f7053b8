package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pakt-pm/pakt/pkg/lockfile"
	"github.com/pakt-pm/pakt/pkg/manifest"
	"github.com/pakt-pm/pakt/pkg/render"
	"github.com/pakt-pm/pakt/pkg/semver"
)

// graphCommand creates the "graph" command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the dependency tree as DOT or SVG",
		Long: `Graph resolves the full dependency tree and renders it as a Graphviz
diagram. With --format dot the raw DOT text is produced; the default SVG
output is rendered in-process.

Use -o - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			format = strings.ToLower(format)
			if format != "svg" && format != "dot" {
				return fmt.Errorf("unsupported format %q (want svg or dot)", format)
			}

			m, err := manifest.Load(manifest.DefaultFile)
			if err != nil {
				return err
			}

			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}

			gen := lockfile.NewGenerator(client, semver.New())
			gen.Logger = logger.Warnf

			sp := newSpinner(ctx, "Resolving dependencies...")
			sp.Start()
			lock, err := gen.Generate(ctx, m)
			sp.Stop()
			if err != nil {
				return err
			}

			dot := render.ToDOT(lock, render.Options{Detailed: detailed})

			var data []byte
			if format == "dot" {
				data = []byte(dot)
			} else {
				data, err = render.RenderSVG(ctx, dot)
				if err != nil {
					return err
				}
			}

			if output == "" {
				output = "dependency-graph." + format
			}
			if output == "-" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}

			printSuccess("Rendered %d packages", len(lock.Packages))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default dependency-graph.<format>, - for stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg or dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include pinned versions in node labels")
	return cmd
}
