// Package installer is the lockfile-driven installer (spec §4.7): it walks
// a resolved dependency graph, or a plain set of version ranges when no
// lockfile exists, and drives the Tarball Cache and Virtual Store Builder
// across it in parallel.
package installer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pacquet/pacquet/internal/identity"
	"github.com/pacquet/pacquet/internal/lockfile"
	"github.com/pacquet/pacquet/internal/perr"
	"github.com/pacquet/pacquet/internal/registry"
	"github.com/pacquet/pacquet/internal/tarball"
	"github.com/pacquet/pacquet/internal/telemetry"
	"github.com/pacquet/pacquet/internal/vstore"
)

// Installer drives installs for one project.
type Installer struct {
	ModulesDir string

	// OnNodeInstalled, if set, is called once per graph node immediately
	// after InstallFromLockfile finishes installing it (success only). The
	// CLI layer wires this to a progress bar, since the lockfile graph's
	// size is known up front (spec §8 scenario); InstallFromRanges has no
	// equivalent hook since its dependency count isn't known in advance.
	OnNodeInstalled func()

	tarballs    *tarball.Cache
	registry    *registry.Client
	vstore      *vstore.Builder
	concurrency int
	sem         chan struct{}
}

// New returns an Installer writing into virtualStoreDir/modulesDir, backed
// by tarballs for fetch/extract and reg for metadata. concurrency bounds
// outstanding HTTP/disk work at once; 0 selects autoConcurrency(), kept
// from the teacher's cmd/install.go sizing formula.
func New(modulesDir string, vstoreDir string, tarballs *tarball.Cache, reg *registry.Client, concurrency int) *Installer {
	if concurrency <= 0 {
		concurrency = autoConcurrency()
	}
	return &Installer{
		ModulesDir:  modulesDir,
		tarballs:    tarballs,
		registry:    reg,
		vstore:      vstore.New(vstoreDir),
		concurrency: concurrency,
		sem:         make(chan struct{}, concurrency),
	}
}

// autoConcurrency scales default parallelism to the machine, the way the
// teacher's cmd/install.go sized its resolver/download worker pools.
func autoConcurrency() int {
	base := runtime.NumCPU() * 16
	if base < 64 {
		base = 64
	}
	if base > 256 {
		base = 256
	}
	return base
}

// InstallFromLockfile iterates every node in graph in parallel (spec §4.7
// install_from_lockfile), then links directDeps (name -> dependency-path)
// into the project's node_modules. Directory and Git resolutions are
// fatal; the first node-level failure cancels the remaining nodes at
// their next scheduling point.
func (in *Installer) InstallFromLockfile(ctx context.Context, graph lockfile.Graph, directDeps map[string]string) error {
	identities := make(map[string]identity.Identity, len(graph))
	for _, e := range graph {
		id, err := identity.Parse(e.Path)
		if err != nil {
			return fmt.Errorf("parsing dependency path %q: %w", e.Path, err)
		}
		identities[e.Path] = id
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)

	for _, entry := range graph {
		entry := entry
		g.Go(func() error {
			return in.installNode(gctx, entry, identities)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for name, path := range directDeps {
		id, ok := identities[path]
		if !ok {
			return fmt.Errorf("direct dependency %s: no such graph entry %q", name, path)
		}
		if err := in.vstore.LinkProjectDependency(in.ModulesDir, name, id); err != nil {
			return fmt.Errorf("linking direct dependency %s: %w", name, err)
		}
	}
	return nil
}

func (in *Installer) installNode(ctx context.Context, entry lockfile.Entry, identities map[string]identity.Identity) error {
	id := identities[entry.Path]
	node := entry.Node

	if !node.Installable() {
		return &perr.UnsupportedResolution{Kind: string(node.Resolution.Kind)}
	}

	url, integritySRI, err := in.resolveTarball(id, node)
	if err != nil {
		return err
	}

	idx, err := in.tarballs.GetOrFetch(ctx, url, integritySRI, 0)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", entry.Path, err)
	}

	graphDeps := make(map[string]identity.Identity, len(node.Dependencies))
	for depName, depPath := range node.Dependencies {
		depID, ok := identities[depPath]
		if !ok {
			return fmt.Errorf("node %s: dependency %s points at unknown path %q", entry.Path, depName, depPath)
		}
		graphDeps[depName] = depID
	}

	telemetry.Debug("installing graph node", "path", entry.Path)
	if err := in.vstore.BuildEntry(ctx, id, idx, graphDeps); err != nil {
		return fmt.Errorf("building virtual-store entry for %s: %w", entry.Path, err)
	}
	if in.OnNodeInstalled != nil {
		in.OnNodeInstalled()
	}
	return nil
}

// resolveTarball returns the tarball URL and expected integrity for an
// installable node, synthesizing the URL for Registry resolutions per
// spec §4.7.
func (in *Installer) resolveTarball(id identity.Identity, node lockfile.Node) (url string, integritySRI string, err error) {
	if node.Resolution.Integrity == "" && node.Resolution.Kind != lockfile.KindTarball {
		return "", "", &perr.MissingIntegrity{Identity: id.String()}
	}
	switch node.Resolution.Kind {
	case lockfile.KindTarball:
		if node.Resolution.Integrity == "" {
			return "", "", &perr.MissingIntegrity{Identity: id.String()}
		}
		return node.Resolution.Tarball, node.Resolution.Integrity, nil
	case lockfile.KindRegistry:
		return in.registry.TarballURL(id.Name, id.Version), node.Resolution.Integrity, nil
	default:
		return "", "", &perr.UnsupportedResolution{Kind: string(node.Resolution.Kind)}
	}
}

// InstallFromRanges installs directDeps (name -> semver range) with no
// lockfile and no peer resolution (spec §4.7 install_from_ranges),
// recursively installing each package's own declared runtime dependencies.
func (in *Installer) InstallFromRanges(ctx context.Context, directDeps map[string]string) error {
	visited := sync.Map{} // "name@version" -> struct{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)

	for name, rng := range directDeps {
		name, rng := name, rng
		g.Go(func() error {
			_, err := in.installRange(gctx, name, rng, true, &visited)
			return err
		})
	}
	return g.Wait()
}

// acquire blocks until a concurrency slot is free, or ctx is done.
func (in *Installer) acquire(ctx context.Context) error {
	select {
	case in.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees a slot acquired with acquire.
func (in *Installer) release() { <-in.sem }

// installRange resolves name@rng against the registry, installs it if not
// already visited in this run, and recurses into its runtime dependencies.
// It returns the resolved identity so a caller linking direct dependencies
// can do so without a second registry round-trip.
//
// The concurrency slot is acquired only around this node's own leaf work
// (the tarball fetch and the virtual-store write), never across the
// recursive dg.Wait() below: holding a slot while blocked on descendants
// would let a dependency chain deeper than the concurrency bound deadlock,
// since every slot would be pinned on an ancestor waiting for a child that
// can never acquire one.
func (in *Installer) installRange(ctx context.Context, name, rng string, direct bool, visited *sync.Map) (*identity.Identity, error) {
	doc, err := in.registry.GetPackage(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata for %s: %w", name, err)
	}
	version, err := registry.PinnedVersion(doc, rng)
	if err != nil {
		return nil, err
	}

	id := identity.Identity{Name: name, Version: version.Version}
	key := id.String()
	if _, loaded := visited.LoadOrStore(key, struct{}{}); loaded {
		if direct {
			if err := in.vstore.LinkProjectDependency(in.ModulesDir, name, id); err != nil {
				return nil, fmt.Errorf("linking direct dependency %s: %w", name, err)
			}
		}
		return &id, nil
	}

	integritySRI := version.Dist.Integrity
	url := version.Dist.Tarball
	if url == "" {
		url = in.registry.TarballURL(name, version.Version)
	}
	if integritySRI == "" {
		return nil, &perr.MissingIntegrity{Identity: key}
	}

	if err := in.acquire(ctx); err != nil {
		return nil, err
	}
	idx, err := in.tarballs.GetOrFetch(ctx, url, integritySRI, 0)
	in.release()
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}

	runtimeDeps := version.Dependencies
	graphDeps := make(map[string]identity.Identity, len(runtimeDeps))

	var mu sync.Mutex
	dg, dctx := errgroup.WithContext(ctx)
	for depName, depRange := range runtimeDeps {
		depName, depRange := depName, depRange
		dg.Go(func() error {
			depID, err := in.installRange(dctx, depName, depRange, false, visited)
			if err != nil {
				return err
			}
			mu.Lock()
			graphDeps[depName] = *depID
			mu.Unlock()
			return nil
		})
	}
	if err := dg.Wait(); err != nil {
		return nil, err
	}

	telemetry.Debug("installing range-resolved package", "name", name, "version", version.Version)
	if err := in.acquire(ctx); err != nil {
		return nil, err
	}
	err = in.vstore.BuildEntry(ctx, id, idx, graphDeps)
	in.release()
	if err != nil {
		return nil, fmt.Errorf("building virtual-store entry for %s: %w", key, err)
	}

	if direct {
		if err := in.vstore.LinkProjectDependency(in.ModulesDir, name, id); err != nil {
			return nil, fmt.Errorf("linking direct dependency %s: %w", name, err)
		}
	}
	return &id, nil
}
