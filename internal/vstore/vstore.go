// Package vstore is the virtual store layout engine: the deterministic
// function from (package name, version, peer-set) to an on-disk directory
// of files (reflinked or copied from CAS) and the sibling symlinks that
// expose each package's own direct dependencies.
package vstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pacquet/pacquet/internal/identity"
	"github.com/pacquet/pacquet/internal/importer"
	"github.com/pacquet/pacquet/internal/tarball"
	"github.com/pacquet/pacquet/internal/vlink"
)

// Builder composes the Importer and Symlink Layer to produce one virtual
// store entry per resolved package identity.
type Builder struct {
	// VirtualStoreDir is the root under which every identity gets its own
	// "<folder-name>/node_modules/..." entry.
	VirtualStoreDir string
	// LinkPolicy controls whether symlink targets are absolute or
	// relative (spec §4.4/§9).
	LinkPolicy vlink.TargetPolicy
}

// New returns a Builder rooted at virtualStoreDir with absolute symlink
// targets, the module's default policy.
func New(virtualStoreDir string) *Builder {
	return &Builder{VirtualStoreDir: virtualStoreDir, LinkPolicy: vlink.Absolute}
}

// EntryDir returns "<virtual_store_dir>/<folder-name>/node_modules" for id.
func (b *Builder) EntryDir(id identity.Identity) string {
	return filepath.Join(b.VirtualStoreDir, identity.FolderName(id), "node_modules")
}

// OwnDir returns the directory inside id's entry holding its own files.
func (b *Builder) OwnDir(id identity.Identity) string {
	return filepath.Join(b.EntryDir(id), filepath.FromSlash(id.Name))
}

// BuildEntry materializes id's own files (if not already present) and
// creates a sibling symlink for every entry in graphDeps.
//
// Safe to call concurrently for distinct identities. For the same identity,
// the first caller to observe own_dir absent races to import it; later
// callers see it already exists and skip straight to step 3 — sufficient
// because the only other readers of a virtual-store entry are other
// builders creating sibling symlinks, never file contents, until install
// has fully completed (spec §5).
func (b *Builder) BuildEntry(ctx context.Context, id identity.Identity, idx *tarball.Index, graphDeps map[string]identity.Identity) error {
	entryDir := b.EntryDir(id)
	ownDir := b.OwnDir(id)

	if _, err := os.Stat(ownDir); os.IsNotExist(err) {
		if err := importer.Materialize(ctx, idx, ownDir); err != nil {
			return err
		}
		linkBinaries(ownDir, entryDir, id.Name)
	} else if err != nil {
		return err
	}

	for depName, depID := range graphDeps {
		target := filepath.Join(b.EntryDir(depID), filepath.FromSlash(depName))
		link := filepath.Join(entryDir, filepath.FromSlash(depName))
		if err := vlink.Dir(target, link, b.LinkPolicy); err != nil {
			return err
		}
	}
	return nil
}

// LinkProjectDependency exposes a direct project dependency at
// "<modules_dir>/<name>", pointing at the dependency's own_dir. Called once
// per direct dependency after every virtual-store entry has been built.
func (b *Builder) LinkProjectDependency(modulesDir, name string, id identity.Identity) error {
	link := filepath.Join(modulesDir, filepath.FromSlash(name))
	return vlink.Dir(b.OwnDir(id), link, b.LinkPolicy)
}

// packageBin mirrors just enough of package.json to resolve bin shims.
type packageBin struct {
	Bin any `json:"bin"`
}

// linkBinaries symlinks an imported package's declared bin entries into
// "<virtual_store_dir>/<folder>/node_modules/.bin/". This supplements the
// distilled spec (silent on bin linking) with real npm behavior; it is not
// script *execution*, which stays out of scope (spec §1 Non-goals).
func linkBinaries(ownDir, entryDir, pkgName string) {
	data, err := os.ReadFile(filepath.Join(ownDir, "package.json"))
	if err != nil {
		return
	}
	var pb packageBin
	if json.Unmarshal(data, &pb) != nil {
		return
	}
	binDir := filepath.Join(entryDir, ".bin")

	switch v := pb.Bin.(type) {
	case string:
		if v != "" {
			linkBin(binDir, pkgName, ownDir, v)
		}
	case map[string]any:
		for name, rel := range v {
			if s, ok := rel.(string); ok && s != "" {
				linkBin(binDir, name, ownDir, s)
			}
		}
	}
}

func linkBin(binDir, binName, ownDir, relPath string) {
	target := filepath.Join(ownDir, filepath.FromSlash(relPath))
	link := filepath.Join(binDir, binName)
	_ = vlink.Dir(target, link, vlink.Absolute)
}
