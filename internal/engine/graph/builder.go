// Package graph builds the dependency graph of a manifest.
//
// Building runs in two phases. Exploration walks the requirements breadth
// first, one level at a time, resolving independent requirements in
// parallel. Every requirement gets its own candidate: a version preserved
// from the lockfile when one satisfies it, otherwise a fresh resolution.
// Selection then runs over the complete candidate set, so the result does
// not depend on the order in which resolutions finished: each requirement
// is bound to a satisfying candidate of the same name that is needed
// anyway, so one version serves as many requirements as it can.
package graph

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 16
	defaultMaxDepth    = 1000
)

// Resolver turns one specifier into a concrete package.
type Resolver interface {
	Resolve(ctx context.Context, spec domain.Specifier) (*domain.ResolvedPackage, error)
}

// Options tunes a Builder.
type Options struct {
	// Concurrency bounds the number of packages expanded at the same time.
	Concurrency int
	// MaxDepth bounds the number of levels before expansion is reported as a cycle.
	MaxDepth int
}

// Request describes one build.
type Request struct {
	// Roots are the dependencies declared by the manifest.
	Roots []domain.Dependency
	// Lockfile is the existing lockfile, or nil.
	Lockfile *domain.Lockfile
	// Preserved holds the lockfile paths that may be reused.
	Preserved map[string]bool
	// LockedRoots binds root names to lockfile paths verbatim.
	LockedRoots map[string]string
}

// Builder implements the dependency graph construction.
type Builder struct {
	resolver Resolver
	store    ports.ContentStore
	logger   ports.Logger
	opts     Options
}

// New creates a Builder. Locked packages are read from store to learn the
// ranges they declare.
func New(resolver Resolver, store ports.ContentStore, logger ports.Logger, opts Options) *Builder {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = defaultMaxDepth
	}
	return &Builder{
		resolver: resolver,
		store:    store,
		logger:   logger,
		opts:     opts,
	}
}

// Build resolves req into a graph. Any failure fails the whole build.
func (b *Builder) Build(ctx context.Context, req Request) (*domain.Graph, error) {
	r := newRun(b, req)

	roots, err := r.rootEdges(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.explore(ctx, roots); err != nil {
		return nil, err
	}
	return r.selectGraph(roots), nil
}

// candidate is one package instance discovered during exploration.
type candidate struct {
	path       string
	name       string
	version    string
	resolution domain.Resolution
	// ranges are the dependencies the package declares.
	ranges map[string]string
	// locked is the lockfile record the candidate comes from, if any.
	locked *domain.Snapshot
}

// edge is one dependency requirement of a package.
type edge struct {
	name string
	spec string
	// own is the candidate found for this requirement during exploration.
	own string
}

// run holds the state of a single Build call.
type run struct {
	*Builder

	lockfile    *domain.Lockfile
	preserved   map[string]bool
	lockedRoots map[string]string
	roots       []domain.Dependency
	// lockedByName lists preserved default-registry versions per name, highest first.
	lockedByName map[string][]string

	nameLocks sync.Map // name -> *sync.Mutex

	mu         sync.Mutex
	candidates map[string]*candidate
	memo       map[string]string // name@spec -> candidate path
	edges      map[string][]edge // candidate path -> requirements
	parent     map[string]string // candidate path -> path that discovered it
}

func newRun(b *Builder, req Request) *run {
	r := &run{
		Builder:      b,
		lockfile:     req.Lockfile,
		preserved:    req.Preserved,
		lockedRoots:  req.LockedRoots,
		roots:        req.Roots,
		lockedByName: make(map[string][]string),
		candidates:   make(map[string]*candidate),
		memo:         make(map[string]string),
		edges:        make(map[string][]edge),
		parent:       make(map[string]string),
	}
	if r.preserved == nil {
		r.preserved = map[string]bool{}
	}

	for p := range r.preserved {
		if name, version, err := domain.ParseDepPath(p); err == nil {
			r.lockedByName[name] = append(r.lockedByName[name], version)
		}
	}
	for _, versions := range r.lockedByName {
		slices.SortFunc(versions, func(a, b string) int { return domain.CompareVersions(b, a) })
	}
	return r
}

func (r *run) rootEdges(ctx context.Context) ([]edge, error) {
	edges := make([]edge, 0, len(r.roots))
	for _, dep := range r.roots {
		e := edge{name: dep.Name, spec: dep.Specifier}
		if p, ok := r.lockedRoots[dep.Name]; ok && r.preserved[p] {
			e.own = r.lockedCandidate(p, dep.Name).path
		} else {
			own, err := r.require(ctx, dep.Name, dep.Specifier)
			if err != nil {
				return nil, err
			}
			e.own = own
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// explore expands candidates level by level until no new path shows up.
func (r *run) explore(ctx context.Context, roots []edge) error {
	expanded := make(map[string]bool)
	var level []string
	for _, e := range roots {
		if !slices.Contains(level, e.own) {
			level = append(level, e.own)
		}
	}
	slices.Sort(level)

	for depth := 1; len(level) > 0; depth++ {
		if depth > r.opts.MaxDepth {
			return domain.BuildCycleError(r.chain(level[0]))
		}

		results := make([][]edge, len(level))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Concurrency)
		for i, p := range level {
			g.Go(func() error {
				edges, err := r.expand(gctx, p)
				results[i] = edges
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var next []string
		queued := make(map[string]bool)
		for _, p := range level {
			expanded[p] = true
		}
		for i, p := range level {
			r.edges[p] = results[i]
			for _, e := range results[i] {
				if expanded[e.own] || queued[e.own] {
					continue
				}
				queued[e.own] = true
				r.parent[e.own] = p
				next = append(next, e.own)
			}
		}
		slices.Sort(next)
		level = next
	}
	return nil
}

// expand returns the requirements of the candidate at p.
func (r *run) expand(ctx context.Context, p string) ([]edge, error) {
	c := r.candidate(p)

	var recorded map[string]string
	if c.locked != nil {
		stored, err := r.store.Ensure(ctx, r.lockedRef(c))
		if err != nil {
			return nil, zerr.With(err, "dep_path", p)
		}
		c.ranges = stored.Manifest.Dependencies
		if c.version == "" {
			c.version = domain.NormalizeVersion(stored.Manifest.Version)
		}
		recorded = c.locked.DependencyPaths()
	}

	edges := make([]edge, 0, len(c.ranges))
	for _, name := range slices.Sorted(maps.Keys(c.ranges)) {
		e := edge{name: name, spec: c.ranges[name]}

		if rp, ok := recorded[name]; ok {
			if r.acceptsLocked(name, e.spec, rp) {
				e.own = r.lockedCandidate(rp, name).path
				edges = append(edges, e)
				continue
			}
			r.logger.Debug("re-resolving drifted dependency", "dep_path", p, "package", name, "specifier", e.spec, "locked", rp)
		}

		own, err := r.require(ctx, name, e.spec)
		if err != nil {
			return nil, zerr.With(err, "dep_path", p)
		}
		e.own = own
		edges = append(edges, e)
	}
	return edges, nil
}

// require returns the candidate of one (name, spec) requirement.
// Requirements of the same name are handled one at a time.
func (r *run) require(ctx context.Context, name, raw string) (string, error) {
	lock, _ := r.nameLocks.LoadOrStore(name, &sync.Mutex{})
	lock.(*sync.Mutex).Lock()
	defer lock.(*sync.Mutex).Unlock()

	key := name + "@" + raw
	r.mu.Lock()
	p, ok := r.memo[key]
	r.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := r.find(ctx, name, raw)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.memo[key] = p
	r.mu.Unlock()
	return p, nil
}

func (r *run) find(ctx context.Context, name, raw string) (string, error) {
	spec, err := domain.ParseSpecifier(name, raw)
	if err != nil {
		return "", err
	}

	switch spec.Kind {
	case domain.SpecRange:
		for _, version := range r.lockedByName[name] {
			if domain.Satisfies(version, raw) {
				return r.lockedCandidate(domain.DepPath(name, version), name).path, nil
			}
		}
	case domain.SpecTarball, domain.SpecGitHub:
		if p := domain.TarballDepPath(spec.URL); r.preserved[p] {
			return r.lockedCandidate(p, name).path, nil
		}
	}

	pkg, err := r.resolver.Resolve(ctx, spec)
	if err != nil {
		return "", err
	}
	if r.preserved[pkg.Path] {
		return r.lockedCandidate(pkg.Path, name).path, nil
	}
	return r.freshCandidate(pkg).path, nil
}

// acceptsLocked reports whether the recorded child p still serves spec.
func (r *run) acceptsLocked(name, raw, p string) bool {
	if !r.preserved[p] {
		return false
	}
	spec, err := domain.ParseSpecifier(name, raw)
	if err != nil {
		return false
	}

	switch spec.Kind {
	case domain.SpecRange:
		depName, version, err := domain.ParseDepPath(p)
		return err == nil && depName == name && domain.Satisfies(version, raw)
	case domain.SpecTag:
		depName, _, err := domain.ParseDepPath(p)
		return err == nil && depName == name
	default:
		return p == domain.TarballDepPath(spec.URL)
	}
}

func (r *run) candidate(p string) *candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidates[p]
}

func (r *run) lockedCandidate(p, name string) *candidate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.candidates[p]; ok {
		return c
	}

	snapshot := r.lockfile.Packages[p]
	c := &candidate{path: p, name: name, resolution: snapshot.Resolution, locked: snapshot}
	if depName, version, err := domain.ParseDepPath(p); err == nil {
		c.name, c.version = depName, version
	}
	r.candidates[p] = c
	return c
}

func (r *run) freshCandidate(pkg *domain.ResolvedPackage) *candidate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.candidates[pkg.Path]; ok {
		return c
	}
	c := &candidate{
		path:       pkg.Path,
		name:       pkg.Name,
		version:    pkg.Version,
		resolution: pkg.Resolution,
		ranges:     pkg.Dependencies,
	}
	r.candidates[pkg.Path] = c
	return c
}

// lockedRef describes the content of a locked candidate for the store.
func (r *run) lockedRef(c *candidate) domain.PackageRef {
	res := c.resolution
	if res.Tarball == "" && domain.IsDefaultPath(c.path) {
		res.Tarball = domain.DefaultTarballURL(r.lockfile.Registry, c.name, c.version)
	}
	return domain.PackageRef{Name: c.name, Version: c.version, Path: c.path, Resolution: res}
}

// chain lists the packages from a root down to p.
func (r *run) chain(p string) []string {
	var chain []string
	for current := p; current != ""; current = r.parent[current] {
		c := r.candidates[current]
		chain = append(chain, c.name+"@"+c.version)
		if len(chain) > len(r.candidates) {
			break
		}
	}
	slices.Reverse(chain)
	return chain
}

// selectGraph binds every requirement to its final candidate and keeps
// what is reachable from the roots.
//
// Binding starts from the candidates found during exploration and is
// refined until the reachable set stops changing: each range requirement
// moves to the reachable candidate of its name that serves the most
// requirements, so an already needed version is reused before a newer one
// is added. A range requirement always has a satisfying candidate in the
// previous set, so the set only shrinks and the loop ends.
func (r *run) selectGraph(roots []edge) *domain.Graph {
	byName := make(map[string][]*candidate)
	for _, c := range r.candidates {
		if _, explored := r.edges[c.path]; explored {
			byName[c.name] = append(byName[c.name], c)
		}
	}
	for _, list := range byName {
		slices.SortFunc(list, func(a, b *candidate) int { return cmp.Compare(a.path, b.path) })
	}

	bind := func(e edge) string { return e.own }
	chosen := r.reachable(roots, bind)
	for range len(r.candidates) {
		rank := r.rank(roots, chosen, byName)
		set := chosen
		bind = func(e edge) string { return r.choose(e, set, rank, byName) }

		next := r.reachable(roots, bind)
		if len(next) == len(chosen) {
			break
		}
		chosen = next
	}

	g := domain.NewGraph()
	queue := make([]string, 0, len(roots))
	for _, e := range roots {
		p := bind(e)
		g.Roots[e.name] = p
		queue = append(queue, p)
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if _, done := g.Nodes[p]; done {
			continue
		}

		c := r.candidates[p]
		node := &domain.Node{
			Path:       p,
			Name:       c.name,
			Version:    c.version,
			Resolution: c.resolution,
		}
		if edges := r.edges[p]; len(edges) > 0 {
			node.Dependencies = make(map[string]string, len(edges))
			for _, e := range edges {
				if selfEdge(c, e) {
					continue
				}
				node.Dependencies[e.name] = bind(e)
				queue = append(queue, node.Dependencies[e.name])
			}
		}
		if c.locked != nil && maps.Equal(node.Dependencies, c.locked.DependencyPaths()) {
			node.Snapshot = c.locked
		}
		g.Nodes[p] = node
	}
	return g
}

// reachable lists the candidates reached from the roots under bind.
func (r *run) reachable(roots []edge, bind func(edge) string) map[string]bool {
	seen := make(map[string]bool)
	queue := make([]string, 0, len(roots))
	for _, e := range roots {
		queue = append(queue, bind(e))
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if seen[p] {
			continue
		}
		seen[p] = true
		c := r.candidates[p]
		for _, e := range r.edges[p] {
			if !selfEdge(c, e) {
				queue = append(queue, bind(e))
			}
		}
	}
	return seen
}

// rank counts, for every chosen candidate, the chosen requirements it serves.
func (r *run) rank(roots []edge, chosen map[string]bool, byName map[string][]*candidate) map[string]int {
	rank := make(map[string]int)
	count := func(e edge) {
		for _, c := range byName[e.name] {
			if chosen[c.path] && r.serves(e, c) {
				rank[c.path]++
			}
		}
	}

	for _, e := range roots {
		count(e)
	}
	for p := range chosen {
		c := r.candidates[p]
		for _, e := range r.edges[p] {
			if !selfEdge(c, e) {
				count(e)
			}
		}
	}
	return rank
}

// choose binds e to the best chosen candidate that serves it.
func (r *run) choose(e edge, chosen map[string]bool, rank map[string]int, byName map[string][]*candidate) string {
	if r.pinned(e) {
		return e.own
	}

	var best *candidate
	for _, c := range byName[e.name] {
		if !chosen[c.path] || !r.serves(e, c) {
			continue
		}
		if best == nil || preferred(c, best, rank) < 0 {
			best = c
		}
	}
	if best == nil {
		return e.own
	}
	return best.path
}

// pinned reports whether e keeps its own candidate: locked records and
// non-range specifiers are never rebound.
func (r *run) pinned(e edge) bool {
	if r.candidates[e.own].locked != nil {
		return true
	}
	spec, err := domain.ParseSpecifier(e.name, e.spec)
	return err != nil || spec.Kind != domain.SpecRange
}

// serves reports whether c may be bound to e.
func (r *run) serves(e edge, c *candidate) bool {
	if r.pinned(e) {
		return c.path == e.own
	}
	return domain.IsDefaultPath(c.path) && domain.Satisfies(c.version, e.spec)
}

func selfEdge(c *candidate, e edge) bool {
	return e.name == c.name && e.own == c.path
}

// preferred orders candidates of one name: most requirements served first,
// then locked, then highest version.
func preferred(a, b *candidate, rank map[string]int) int {
	if c := cmp.Compare(rank[b.path], rank[a.path]); c != 0 {
		return c
	}
	if (a.locked != nil) != (b.locked != nil) {
		if a.locked != nil {
			return -1
		}
		return 1
	}
	if c := domain.CompareVersions(b.version, a.version); c != 0 {
		return c
	}
	return cmp.Compare(a.path, b.path)
}
