// Package installer materializes a lockfile into node_modules.
//
// Every package instance lives in its own directory,
// node_modules/.<registry host>/<name>/<version>/node_modules/<name>, next to
// symlinks to exactly the dependencies recorded for it. The project's root
// dependencies are symlinked into node_modules/<name>.
package installer

import (
	"context"
	"maps"
	"path/filepath"
	"slices"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 16

// Options describes one install.
type Options struct {
	Dir string
	// Production skips everything only reachable from devDependencies.
	Production bool
}

// Report summarizes what an install changed.
type Report struct {
	// Placed is the number of package instances placed in node_modules.
	Placed int
	// Removed is the number of placements and root links pruned.
	Removed int
	// UpToDate is set when node_modules already matched the lockfile.
	UpToDate bool
}

// Installer implements the on-disk part of an install.
type Installer struct {
	store       ports.ContentStore
	linker      ports.Linker
	lockfiles   ports.LockfileRepository
	modules     ports.ModulesRepository
	logger      ports.Logger
	concurrency int
}

// New creates an Installer.
func New(
	store ports.ContentStore,
	linker ports.Linker,
	lockfiles ports.LockfileRepository,
	modules ports.ModulesRepository,
	logger ports.Logger,
	concurrency int,
) *Installer {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Installer{
		store:       store,
		linker:      linker,
		lockfiles:   lockfiles,
		modules:     modules,
		logger:      logger,
		concurrency: concurrency,
	}
}

// placement is one package instance to materialize.
type placement struct {
	path   string
	name   string
	stored *domain.StoredPackage
}

// Install makes node_modules match lf and then persists lf. A nil lockfile
// removes every placement and the lockfile itself. Nothing under
// node_modules changes before all content passed verification.
func (i *Installer) Install(ctx context.Context, lf *domain.Lockfile, m *domain.Manifest, opts Options) (*Report, error) {
	prev, err := i.modules.Load(opts.Dir)
	if err != nil {
		i.logger.Warn("ignoring unreadable node_modules state", "error", err.Error())
		prev = nil
	}

	if lf == nil {
		return i.uninstall(opts, prev)
	}

	roots := rootLinks(lf, m, opts.Production)
	names := reachableNames(lf, roots)
	wanted := slices.Sorted(maps.Keys(names))

	fingerprint, err := i.lockfiles.Fingerprint(lf)
	if err != nil {
		return nil, err
	}

	host := domain.RegistryHost(lf.Registry)
	modulesDir := domain.ModulesDir(opts.Dir)

	if upToDate(prev, fingerprint, opts.Production, wanted, roots) {
		present, err := i.linker.Verify(expectedPaths(lf, modulesDir, host, names, roots))
		if err != nil {
			return nil, err
		}
		if present {
			i.logger.Debug("node_modules is up to date", "packages", len(wanted))
			if err := i.lockfiles.Save(opts.Dir, lf); err != nil {
				return nil, err
			}
			return &Report{UpToDate: true}, nil
		}
		i.logger.Debug("node_modules is incomplete, relinking")
	}

	placements, err := i.fetchAll(ctx, lf, names, wanted)
	if err != nil {
		return nil, err
	}

	// From here on node_modules is modified; drop the claim that it is complete.
	if err := i.modules.Remove(opts.Dir); err != nil {
		return nil, err
	}

	if err := i.placeAll(ctx, lf, host, modulesDir, placements); err != nil {
		return nil, err
	}

	for _, name := range slices.Sorted(maps.Keys(roots)) {
		target := packageDir(modulesDir, host, roots[name], name)
		if err := i.linker.Symlink(target, filepath.Join(modulesDir, filepath.FromSlash(name))); err != nil {
			return nil, err
		}
	}

	removed, err := i.prune(prev, modulesDir, host, names, roots)
	if err != nil {
		return nil, err
	}

	state := &domain.ModulesState{
		LayoutVersion:       domain.ModulesLayoutVersion,
		Registry:            lf.Registry,
		LockfileFingerprint: fingerprint,
		Production:          opts.Production,
		Placed:              wanted,
		RootLinks:           roots,
	}
	if err := i.modules.Save(opts.Dir, state); err != nil {
		return nil, err
	}
	if err := i.lockfiles.Save(opts.Dir, lf); err != nil {
		return nil, err
	}

	return &Report{Placed: len(placements), Removed: removed}, nil
}

func (i *Installer) uninstall(opts Options, prev *domain.ModulesState) (*Report, error) {
	if err := i.modules.Remove(opts.Dir); err != nil {
		return nil, err
	}
	removed, err := i.prune(prev, domain.ModulesDir(opts.Dir), "", nil, nil)
	if err != nil {
		return nil, err
	}
	if err := i.lockfiles.Remove(opts.Dir); err != nil {
		return nil, err
	}
	return &Report{Removed: removed}, nil
}

// fetchAll makes the content of every wanted path available in the store.
func (i *Installer) fetchAll(
	ctx context.Context,
	lf *domain.Lockfile,
	names map[string]string,
	wanted []string,
) ([]placement, error) {
	placements := make([]placement, len(wanted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, p := range wanted {
		g.Go(func() error {
			ref := packageRef(lf, p, names[p])
			stored, err := i.store.Ensure(gctx, ref)
			if err != nil {
				return err
			}
			placements[idx] = placement{path: p, name: ref.Name, stored: stored}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return placements, nil
}

// placeAll imports every package and links its dependencies next to it.
func (i *Installer) placeAll(
	ctx context.Context,
	lf *domain.Lockfile,
	host, modulesDir string,
	placements []placement,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for _, pl := range placements {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			siblings := virtualModules(modulesDir, host, pl.path)
			dst := filepath.Join(siblings, filepath.FromSlash(pl.name))
			if err := i.linker.ImportPackage(pl.stored.Dir, dst); err != nil {
				return zerr.With(err, "dep_path", pl.path)
			}

			deps := lf.Packages[pl.path].DependencyPaths()
			for _, name := range slices.Sorted(maps.Keys(deps)) {
				if name == pl.name {
					continue
				}
				target := packageDir(modulesDir, host, deps[name], name)
				if err := i.linker.Symlink(target, filepath.Join(siblings, filepath.FromSlash(name))); err != nil {
					return zerr.With(err, "dep_path", pl.path)
				}
			}

			i.logger.Debug("placed package", "dep_path", pl.path)
			return nil
		})
	}
	return g.Wait()
}

// prune removes placements and root links of prev that are no longer wanted.
// Placements made for another registry host are always removed.
func (i *Installer) prune(prev *domain.ModulesState, modulesDir, host string, names, roots map[string]string) (int, error) {
	if prev == nil {
		return 0, nil
	}

	removed := 0
	prevHost := domain.RegistryHost(prev.Registry)
	for _, p := range prev.Placed {
		if _, ok := names[p]; ok && prevHost == host {
			continue
		}
		if err := i.linker.RemoveAll(filepath.Join(modulesDir, filepath.FromSlash(domain.VirtualDir(prevHost, p)))); err != nil {
			return removed, err
		}
		removed++
	}

	for _, name := range slices.Sorted(maps.Keys(prev.RootLinks)) {
		if _, ok := roots[name]; ok {
			continue
		}
		if err := i.linker.RemoveAll(filepath.Join(modulesDir, filepath.FromSlash(name))); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// rootLinks returns the root dependencies to link, keyed by name.
func rootLinks(lf *domain.Lockfile, m *domain.Manifest, production bool) map[string]string {
	paths := lf.RootPaths()
	links := make(map[string]string, len(paths))
	for _, dep := range m.AllDependencies() {
		if production && dep.Dev {
			continue
		}
		if p, ok := paths[dep.Name]; ok {
			links[dep.Name] = p
		}
	}
	return links
}

// reachableNames maps every path reachable from roots to the name it is
// installed under. Non-registry paths only learn their name from the
// dependency that references them.
func reachableNames(lf *domain.Lockfile, roots map[string]string) map[string]string {
	names := make(map[string]string)
	type item struct{ path, name string }

	queue := make([]item, 0, len(roots))
	for _, name := range slices.Sorted(maps.Keys(roots)) {
		queue = append(queue, item{path: roots[name], name: name})
	}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if _, seen := names[it.path]; seen {
			continue
		}
		snapshot, ok := lf.Packages[it.path]
		if !ok {
			continue
		}
		if name, _, err := domain.ParseDepPath(it.path); err == nil {
			it.name = name
		}
		names[it.path] = it.name

		deps := snapshot.DependencyPaths()
		for _, name := range slices.Sorted(maps.Keys(deps)) {
			queue = append(queue, item{path: deps[name], name: name})
		}
	}
	return names
}

func packageRef(lf *domain.Lockfile, p, name string) domain.PackageRef {
	ref := domain.PackageRef{Name: name, Path: p, Resolution: lf.Packages[p].Resolution}
	if depName, version, err := domain.ParseDepPath(p); err == nil {
		ref.Name, ref.Version = depName, version
		if ref.Resolution.Tarball == "" {
			ref.Resolution.Tarball = domain.DefaultTarballURL(lf.Registry, depName, version)
		}
	}
	return ref
}

// virtualModules is the node_modules directory holding the package at p
// together with the links to its dependencies.
func virtualModules(modulesDir, host, p string) string {
	virtual := filepath.Join(modulesDir, filepath.FromSlash(domain.VirtualDir(host, p)))
	return filepath.Join(virtual, domain.ModulesDirName)
}

// packageDir is where the package at p lives inside node_modules.
func packageDir(modulesDir, host, p, name string) string {
	return filepath.Join(virtualModules(modulesDir, host, p), filepath.FromSlash(name))
}

// expectedPaths lists every placement, dependency link and root link an
// install creates.
func expectedPaths(lf *domain.Lockfile, modulesDir, host string, names, roots map[string]string) []string {
	paths := make([]string, 0, len(names)+len(roots))
	for _, p := range slices.Sorted(maps.Keys(names)) {
		paths = append(paths, packageDir(modulesDir, host, p, names[p]))

		siblings := virtualModules(modulesDir, host, p)
		deps := lf.Packages[p].DependencyPaths()
		for _, name := range slices.Sorted(maps.Keys(deps)) {
			if name != names[p] {
				paths = append(paths, filepath.Join(siblings, filepath.FromSlash(name)))
			}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(roots)) {
		paths = append(paths, filepath.Join(modulesDir, filepath.FromSlash(name)))
	}
	return paths
}

func upToDate(prev *domain.ModulesState, fingerprint string, production bool, wanted []string, roots map[string]string) bool {
	return prev != nil &&
		prev.LayoutVersion == domain.ModulesLayoutVersion &&
		prev.LockfileFingerprint == fingerprint &&
		prev.Production == production &&
		slices.Equal(prev.Placed, wanted) &&
		maps.Equal(prev.RootLinks, roots)
}
