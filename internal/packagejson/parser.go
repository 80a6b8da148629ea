package packagejson

import (
	"encoding/json"
	"fmt"
	"os"
)

// PackageJSON represents the structure of package.json
type PackageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Description          string            `json:"description"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	Scripts              map[string]string `json:"scripts,omitempty"`
	Private              bool              `json:"private,omitempty"`
	Workspaces           interface{}       `json:"workspaces,omitempty"`
	// Bin is either a single string (the package name is the command) or a
	// map of command name to script path. vstore's bin-shim linking reads
	// this field directly from the CAS-extracted package.json, so this
	// mirrors that shape rather than the more common map-only form.
	Bin interface{} `json:"bin,omitempty"`
}

// Read reads and parses a package.json file
func Read(path string) (*PackageJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	return &pkg, nil
}

// RuntimeDependencies returns the dependency set the no-lockfile installer
// walks (spec §4.7 install_from_ranges): regular dependencies only, not dev
// or peer, matching the recursive runtime-dep walk the spec describes.
func (p *PackageJSON) RuntimeDependencies() map[string]string {
	deps := make(map[string]string, len(p.Dependencies))
	for name, version := range p.Dependencies {
		deps[name] = version
	}
	return deps
}
