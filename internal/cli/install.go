package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pakt-pm/pakt/pkg/install"
	"github.com/pakt-pm/pakt/pkg/lockfile"
	"github.com/pakt-pm/pakt/pkg/manifest"
	"github.com/pakt-pm/pakt/pkg/resolve"
	"github.com/pakt-pm/pakt/pkg/semver"
)

// tarballDir is where downloaded package tarballs land, relative to the
// project root.
var tarballDir = filepath.Join("node_modules", ".pakt")

// installCommand creates the "install" command.
func (c *CLI) installCommand() *cobra.Command {
	var (
		concurrency int
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Resolve, lock, and download all dependencies",
		Long: `Install expands package.json into the full transitive dependency tree,
detects conflicting version requirements, and tries to resolve each one to
a single compatible version. On success it updates package.json, writes
package-lock.json, and downloads every package tarball.

Unresolvable conflicts abort the install before any file is modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			m, err := manifest.Load(manifest.DefaultFile)
			if err != nil {
				return err
			}

			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}

			engine := resolve.NewEngine(client, semver.New())
			engine.Logger = logger.Debugf

			prog := newProgress(logger)
			sp := newSpinner(ctx, "Resolving dependencies...")
			sp.Start()
			result, err := engine.CheckAndResolve(ctx, m.Dependencies.Entries())
			sp.Stop()
			if err != nil {
				return err
			}

			for _, msg := range result.Messages {
				printDetail("- %s", msg)
			}
			if !result.OK {
				printError("Install aborted: conflicts could not be resolved")
				return fmt.Errorf("unresolved version conflicts")
			}

			// Pin resolved conflict versions back into the manifest; names
			// the manifest never declared stay transitive.
			for name, version := range result.Resolved {
				if _, declared := m.Dependencies.Get(name); declared {
					m.Dependencies.Set(name, version)
				}
			}
			if err := m.Save(manifest.DefaultFile); err != nil {
				return err
			}

			gen := lockfile.NewGenerator(client, semver.New())
			gen.Logger = logger.Warnf
			lock, err := gen.Generate(ctx, m)
			if err != nil {
				return err
			}
			if err := lock.Save(lockfile.DefaultFile); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Resolved %d packages", len(lock.Packages)))
			printSuccess("Locked %d packages", len(lock.Packages))
			printFile(lockfile.DefaultFile)

			planner := install.NewPlanner(client)
			planner.Logger = logger.Warnf
			items, err := planner.Plan(ctx, m.Dependencies.Entries())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				printInfo("Nothing to download")
				return nil
			}

			if concurrency <= 0 {
				concurrency = c.cfg.Concurrency
			}
			d := install.NewDownloader(client, tarballDir, concurrency)
			d.Logger = logger.Warnf

			report, err := c.runDownloads(cmd, d, items, noProgress)
			if err != nil {
				return err
			}

			printSuccess("Downloaded %d of %d packages", len(report.Downloaded), len(items))
			printFile(tarballDir + string(os.PathSeparator))
			for _, f := range report.Failed {
				printWarning("failed %s: %v", f.Item.Key(), f.Err)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d downloads failed", len(report.Failed))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max parallel downloads (default from config)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the download progress bar")
	return cmd
}

// runDownloads executes the plan, rendering a live progress bar unless
// disabled or stdout is not a terminal-friendly target.
func (c *CLI) runDownloads(cmd *cobra.Command, d *install.Downloader, items []install.Item, noProgress bool) (*install.Report, error) {
	ctx := cmd.Context()

	if noProgress {
		return d.Run(ctx, items)
	}

	p := tea.NewProgram(newDownloadModel(len(items)), tea.WithContext(ctx), tea.WithInput(nil))
	d.OnProgress = func(done, total int) {
		p.Send(itemDoneMsg{done: done, total: total})
	}

	var (
		report *install.Report
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		report, runErr = d.Run(ctx, items)
		p.Send(downloadsFinishedMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return nil, err
	}
	<-done
	if runErr != nil {
		return nil, runErr
	}
	return report, nil
}
