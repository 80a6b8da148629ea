package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pacquet/pacquet/internal/cas"
	"github.com/pacquet/pacquet/internal/config"
	"github.com/pacquet/pacquet/internal/httpx"
	"github.com/pacquet/pacquet/internal/identity"
	"github.com/pacquet/pacquet/internal/installer"
	"github.com/pacquet/pacquet/internal/lockfile"
	"github.com/pacquet/pacquet/internal/packagejson"
	"github.com/pacquet/pacquet/internal/registry"
	"github.com/pacquet/pacquet/internal/tarball"
	"github.com/pacquet/pacquet/internal/ui"

	"github.com/spf13/cobra"
)

var installConcurrency int

var installCmd = &cobra.Command{
	Use:     "install [package[@range]...]",
	Aliases: []string{"i"},
	Short:   "Install packages",
	Long: `Install downloads and links packages into node_modules.
If no packages are named, it installs dependencies from package.json (or
the lockfile, if one is present).

Examples:
  pacquet install express
  pacquet install react@18.3.1
  pacquet install             # install from package.json / lockfile`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			installNamedPackages(args)
			return
		}
		installFromProject()
	},
}

func init() {
	installCmd.Flags().IntVarP(&installConcurrency, "concurrency", "c", 0, "installer concurrency (0=auto)")
	rootCmd.AddCommand(installCmd)
}

type projectEnv struct {
	cfg      config.Config
	store    *cas.Store
	tarballs *tarball.Cache
	reg      *registry.Client
	inst     *installer.Installer
}

func newProjectEnv(projectDir string) (*projectEnv, error) {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.StoreDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	client := httpx.NewClient()
	store := cas.New(cfg.StoreDir)
	tarballs := tarball.New(store, client)
	reg := registry.New(cfg.Registry, client, filepath.Join(filepath.Dir(cfg.StoreDir), "registry-cache"))
	inst := installer.New(cfg.ModulesPath(projectDir), cfg.VirtualStoreDir, tarballs, reg, installConcurrency)

	return &projectEnv{cfg: cfg, store: store, tarballs: tarballs, reg: reg, inst: inst}, nil
}

func installNamedPackages(specs []string) {
	env, err := newProjectEnv(".")
	if err != nil {
		ui.ErrorLine(err)
		os.Exit(1)
	}

	directDeps := make(map[string]string, len(specs))
	for _, spec := range specs {
		name, rng := parsePackageSpec(spec)
		directDeps[name] = rng
	}

	start := time.Now()
	spinner := ui.NewSpinner(fmt.Sprintf("Installing %d package(s)...", len(directDeps)))
	spinner.Start()
	err = env.inst.InstallFromRanges(context.Background(), directDeps)
	spinner.Stop()
	if err != nil {
		ui.ErrorLine(err)
		os.Exit(1)
	}
	ui.Summary(len(directDeps), time.Since(start).String())
}

func installFromProject() {
	if _, err := os.Stat("package.json"); os.IsNotExist(err) {
		ui.Warning.Println("no package.json found in this directory")
		os.Exit(1)
	}
	pkg, err := packagejson.Read("package.json")
	if err != nil {
		ui.ErrorLine(fmt.Errorf("reading package.json: %w", err))
		os.Exit(1)
	}
	runtimeDeps := pkg.RuntimeDependencies()
	if len(runtimeDeps) == 0 {
		ui.Info.Println("no dependencies to install")
		return
	}

	env, err := newProjectEnv(".")
	if err != nil {
		ui.ErrorLine(err)
		os.Exit(1)
	}

	start := time.Now()

	if lf, err := lockfile.Load("."); err == nil {
		directDeps, err := resolveDirectDeps(lf.Packages, runtimeDeps)
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}
		bar := ui.NewProgressBar(len(lf.Packages), "installing")
		env.inst.OnNodeInstalled = func() { _ = bar.Add(1) }
		err = env.inst.InstallFromLockfile(context.Background(), lf.Packages, directDeps)
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}
	} else {
		spinner := ui.NewSpinner("Installing dependencies...")
		spinner.Start()
		err = env.inst.InstallFromRanges(context.Background(), runtimeDeps)
		spinner.Stop()
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}
	}

	ui.Summary(len(runtimeDeps), time.Since(start).String())
}

// resolveDirectDeps maps each direct dependency name to the graph entry
// installed for it: the first entry in graph order whose package name
// matches. When the graph holds several versions of that name, the
// requested range is not consulted to choose between them.
func resolveDirectDeps(graph lockfile.Graph, runtimeDeps map[string]string) (map[string]string, error) {
	directDeps := make(map[string]string, len(runtimeDeps))
	for name := range runtimeDeps {
		found := ""
		for _, e := range graph {
			id, err := identity.Parse(e.Path)
			if err == nil && id.Name == name {
				found = e.Path
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("dependency %s not found in lockfile", name)
		}
		directDeps[name] = found
	}
	return directDeps, nil
}

// parsePackageSpec splits "name@range" into (name, range), defaulting to
// "latest" when no range is given. A leading '@' (scoped package name) is
// never treated as the separator.
func parsePackageSpec(spec string) (name, rng string) {
	start := 0
	if strings.HasPrefix(spec, "@") {
		start = 1
	}
	idx := strings.IndexByte(spec[start:], '@')
	if idx == -1 {
		return spec, "latest"
	}
	idx += start
	return spec[:idx], spec[idx+1:]
}
