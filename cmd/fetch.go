package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pacquet/pacquet/internal/registry"
	"github.com/pacquet/pacquet/internal/ui"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [package][@range]",
	Short: "Fetch a package tarball into the content-addressed store",
	Long: `Fetch downloads a package's tarball and its dependency-free content
into the content-addressed store, without linking it into node_modules.
Useful for warming the store ahead of an install, or for pulling down a
single package in isolation.

Examples:
  pacquet fetch express@4.18.2
  pacquet fetch lodash@latest
  pacquet fetch react`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, rng := parsePackageSpec(args[0])

		env, err := newProjectEnv(".")
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}

		start := time.Now()
		spinner := ui.NewSpinner(fmt.Sprintf("Resolving %s@%s...", name, rng))
		spinner.Start()

		doc, err := env.reg.GetPackage(context.Background(), name)
		if err != nil {
			spinner.Stop()
			ui.ErrorLine(fmt.Errorf("fetching metadata for %s: %w", name, err))
			os.Exit(1)
		}
		version, err := registry.PinnedVersion(doc, rng)
		if err != nil {
			spinner.Stop()
			ui.ErrorLine(err)
			os.Exit(1)
		}

		spinner.Suffix = fmt.Sprintf(" Downloading %s@%s...", name, version.Version)
		url := version.Dist.Tarball
		if url == "" {
			url = env.reg.TarballURL(name, version.Version)
		}
		idx, err := env.tarballs.GetOrFetch(context.Background(), url, version.Dist.Integrity, 0)
		spinner.Stop()
		if err != nil {
			ui.ErrorLine(fmt.Errorf("fetching tarball for %s@%s: %w", name, version.Version, err))
			os.Exit(1)
		}

		ui.SuccessLine(name, version.Version, time.Since(start).String())
		ui.Info.Printf("stored %d file(s) in %s\n", len(idx.Entries), env.cfg.StoreDir)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
