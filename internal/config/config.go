// Package config loads pacquet's on-disk project configuration. It is an
// external collaborator boundary: argument parsing and .npmrc loading are
// out of scope (spec Non-goals), so this package only ever reads the single
// pacquet.yaml file a project may carry, applying fixed defaults for
// anything the file omits or for a project that doesn't carry one at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

// FileName is the project-local config file's conventional name.
const FileName = "pacquet.yaml"

// ImportMethod selects how the Importer materializes files into the
// virtual store. Only Auto (reflink-or-copy, spec §4.3) is implemented;
// other values are accepted so a config file can name a future mode
// without failing to parse, but Load rejects them.
type ImportMethod string

const (
	ImportAuto ImportMethod = "auto"
)

// Config is pacquet's project-local configuration.
type Config struct {
	StoreDir           string       `yaml:"store_dir"`
	VirtualStoreDir    string       `yaml:"virtual_store_dir"`
	ModulesDir         string       `yaml:"modules_dir"`
	Registry           string       `yaml:"registry"`
	PackageImportMethod ImportMethod `yaml:"package_import_method"`
	Symlink            bool         `yaml:"symlink"`
}

// Default returns the configuration used when a project carries no
// pacquet.yaml. StoreDir is the CAS: a single machine-global blob store
// rooted under the user's home directory, the way the teacher's fixed
// cache layout was rooted under ~/.npgo — sharing blobs across every
// project is the whole point of content-addressing them. VirtualStoreDir
// is the isolation unit (spec §1): it is rooted inside projectDir itself,
// pnpm's own node_modules/.pnpm layout, so two projects never share entry
// directories even when both depend on the same package version.
func Default(projectDir string) Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	root := filepath.Join(home, ".pacquet")
	return Config{
		StoreDir:            filepath.Join(root, "store", "v1"),
		VirtualStoreDir:     filepath.Join(projectDir, "node_modules", ".pacquet"),
		ModulesDir:          "node_modules",
		Registry:            "https://registry.npmjs.org",
		PackageImportMethod: ImportAuto,
		Symlink:             true,
	}
}

// Load reads pacquet.yaml from projectDir, if present, and overlays it on
// top of Default(projectDir). A missing file is not an error.
func Load(projectDir string) (Config, error) {
	cfg := Default(projectDir)
	path := filepath.Join(projectDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.PackageImportMethod != ImportAuto {
		return Config{}, fmt.Errorf("package_import_method %q is not supported", cfg.PackageImportMethod)
	}
	return cfg, nil
}

// ModulesPath returns the absolute node_modules directory for projectDir.
func (c Config) ModulesPath(projectDir string) string {
	if filepath.IsAbs(c.ModulesDir) {
		return c.ModulesDir
	}
	return filepath.Join(projectDir, c.ModulesDir)
}
