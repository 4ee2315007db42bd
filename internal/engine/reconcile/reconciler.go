// Package reconcile decides which parts of an existing lockfile survive a
// manifest change and produces the new lockfile.
package reconcile

import (
	"context"
	"maps"
	"slices"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/mjgerace/pnpm/internal/engine/graph"
	"go.trai.ch/zerr"
)

// GraphBuilder produces the dependency graph for a request.
type GraphBuilder interface {
	Build(ctx context.Context, req graph.Request) (*domain.Graph, error)
}

// Options tunes a single reconciliation.
type Options struct {
	// Frozen fails instead of resolving anything the lockfile does not record.
	Frozen bool
}

// Result is the outcome of a reconciliation.
type Result struct {
	// Lockfile is the new lockfile. Nil means the lockfile must be removed.
	Lockfile *domain.Lockfile
	Graph    *domain.Graph
	// Reused lists the root names kept from the existing lockfile.
	Reused []string
	// Resolved lists the root names resolved from scratch.
	Resolved []string
}

// Reconciler compares a manifest with the existing lockfile.
type Reconciler struct {
	builder  GraphBuilder
	logger   ports.Logger
	registry string
}

// New creates a Reconciler for lockfiles recorded against registry.
func New(builder GraphBuilder, logger ports.Logger, registry string) *Reconciler {
	return &Reconciler{
		builder:  builder,
		logger:   logger,
		registry: domain.NormalizeRegistry(registry),
	}
}

// Reconcile builds the lockfile m requires, reusing what existing still
// records correctly. existing may be nil.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	m *domain.Manifest,
	existing *domain.Lockfile,
	opts Options,
) (*Result, error) {
	if !m.HasDependencies() {
		return &Result{}, nil
	}

	lf := r.usable(existing)
	if opts.Frozen && lf == nil {
		return nil, zerr.With(domain.ErrLockfileOutdated, "reason", "no usable lockfile")
	}

	result := &Result{}
	lockedRoots := make(map[string]string)
	rootPaths := lf.RootPaths()

	deps := m.AllDependencies()
	for _, dep := range deps {
		if p, ok := rootPaths[dep.Name]; ok && r.reusable(lf, dep, p) {
			lockedRoots[dep.Name] = p
			result.Reused = append(result.Reused, dep.Name)
			continue
		}
		if opts.Frozen {
			err := zerr.With(domain.ErrLockfileOutdated, "package", dep.Name)
			return nil, zerr.With(err, "specifier", dep.Specifier)
		}
		result.Resolved = append(result.Resolved, dep.Name)
	}

	if opts.Frozen && !maps.Equal(lf.Specifiers, m.Specifiers()) {
		return nil, zerr.With(domain.ErrLockfileOutdated, "reason", "specifiers differ from package.json")
	}

	preserved := lf.Reachable(slices.Sorted(maps.Values(lockedRoots))...)
	r.logger.Debug("reconciled lockfile",
		"reused", len(result.Reused),
		"resolved", len(result.Resolved),
		"preserved_paths", len(preserved))

	g, err := r.builder.Build(ctx, graph.Request{
		Roots:       deps,
		Lockfile:    lf,
		Preserved:   preserved,
		LockedRoots: lockedRoots,
	})
	if err != nil {
		return nil, err
	}

	if opts.Frozen {
		if err := frozenCheck(g); err != nil {
			return nil, err
		}
	}

	result.Graph = g
	result.Lockfile = g.ToLockfile(r.registry, m.Specifiers())
	return result, nil
}

// usable returns existing when it can be reused at all.
func (r *Reconciler) usable(existing *domain.Lockfile) *domain.Lockfile {
	if existing == nil {
		return nil
	}
	if err := existing.Validate(); err != nil {
		r.logger.Warn("ignoring invalid lockfile", "error", err.Error())
		return nil
	}
	if domain.NormalizeRegistry(existing.Registry) != r.registry {
		r.logger.Warn("lockfile was created for another registry, resolving from scratch",
			"lockfile_registry", existing.Registry,
			"registry", r.registry)
		return nil
	}
	return existing
}

// reusable reports whether the root dep can keep its locked path p.
func (r *Reconciler) reusable(lf *domain.Lockfile, dep domain.Dependency, p string) bool {
	if _, ok := lf.Packages[p]; !ok {
		return false
	}
	if recorded, ok := lf.Specifiers[dep.Name]; ok && recorded != dep.Specifier {
		return false
	}

	spec, err := domain.ParseSpecifier(dep.Name, dep.Specifier)
	if err != nil {
		return false
	}

	switch spec.Kind {
	case domain.SpecRange:
		name, version, err := domain.ParseDepPath(p)
		return err == nil && name == dep.Name && domain.Satisfies(version, dep.Specifier)
	case domain.SpecTag:
		_, recorded := lf.Specifiers[dep.Name]
		return recorded
	default:
		return p == domain.TarballDepPath(spec.URL)
	}
}

// frozenCheck fails when the graph holds anything not recorded verbatim.
func frozenCheck(g *domain.Graph) error {
	for _, p := range slices.Sorted(maps.Keys(g.Nodes)) {
		if g.Nodes[p].Snapshot == nil {
			return zerr.With(domain.ErrLockfileOutdated, "dep_path", p)
		}
	}
	return nil
}
