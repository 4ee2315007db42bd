package domain

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Snapshot is the recorded state of one resolved package instance.
type Snapshot struct {
	// Dependencies maps a dependency name to a version (default registry)
	// or to a full dependency path.
	Dependencies map[string]string
	// Resolution is empty for the root snapshot.
	Resolution Resolution
}

// DependencyPaths returns the dependency paths referenced by the snapshot, keyed by name.
func (s *Snapshot) DependencyPaths() map[string]string {
	paths := make(map[string]string, len(s.Dependencies))
	for name, ref := range s.Dependencies {
		paths[name] = RefToPath(name, ref)
	}
	return paths
}

// Lockfile is the persisted, shareable resolution record.
type Lockfile struct {
	Version    int
	Registry   string
	Specifiers map[string]string
	Packages   map[string]*Snapshot
}

// NewLockfile returns an empty lockfile for registry.
func NewLockfile(registry string) *Lockfile {
	return &Lockfile{
		Version:    LockfileVersion,
		Registry:   NormalizeRegistry(registry),
		Specifiers: make(map[string]string),
		Packages: map[string]*Snapshot{
			RootPath: {Dependencies: make(map[string]string)},
		},
	}
}

// Root returns the project snapshot, or nil when the lockfile has none.
func (l *Lockfile) Root() *Snapshot {
	if l == nil || l.Packages == nil {
		return nil
	}
	return l.Packages[RootPath]
}

// RootPaths returns the dependency path of every root dependency, keyed by name.
func (l *Lockfile) RootPaths() map[string]string {
	root := l.Root()
	if root == nil {
		return map[string]string{}
	}
	return root.DependencyPaths()
}

// Validate checks the format version and the structure of every package entry.
// Dangling references are not structural errors: the reconciler re-resolves them.
func (l *Lockfile) Validate() error {
	if l == nil {
		return zerr.With(ErrLockfileInvalid, "reason", "empty document")
	}
	if l.Version != LockfileVersion {
		err := zerr.With(ErrLockfileInvalid, "reason", "unsupported version")
		err = zerr.With(err, "version", l.Version)
		return zerr.With(err, "supported_version", LockfileVersion)
	}
	if len(l.Specifiers) > 0 && l.Root() == nil {
		return zerr.With(ErrLockfileInvalid, "reason", "missing root package entry")
	}

	for _, p := range slices.Sorted(maps.Keys(l.Packages)) {
		snapshot := l.Packages[p]
		if snapshot == nil {
			err := zerr.With(ErrLockfileInvalid, "reason", "empty package entry")
			return zerr.With(err, "dep_path", p)
		}
		switch {
		case p == RootPath:
		case IsDefaultPath(p):
			if _, _, err := ParseDepPath(p); err != nil {
				return zerr.With(zerr.Wrap(err, ErrLockfileInvalid.Error()), "dep_path", p)
			}
		case !strings.Contains(p, "/"):
			err := zerr.With(ErrLockfileInvalid, "reason", "malformed dependency path")
			return zerr.With(err, "dep_path", p)
		case snapshot.Resolution.Tarball == "":
			err := zerr.With(ErrLockfileInvalid, "reason", "non-registry package without tarball")
			return zerr.With(err, "dep_path", p)
		}
	}
	return nil
}

// Reachable returns every dependency path reachable from paths, including paths themselves
// when they are recorded. References to missing entries are not followed.
func (l *Lockfile) Reachable(paths ...string) map[string]bool {
	seen := make(map[string]bool)
	if l == nil {
		return seen
	}

	queue := slices.Clone(paths)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if seen[p] {
			continue
		}
		snapshot, ok := l.Packages[p]
		if !ok {
			continue
		}
		seen[p] = true
		for _, name := range slices.Sorted(maps.Keys(snapshot.Dependencies)) {
			queue = append(queue, RefToPath(name, snapshot.Dependencies[name]))
		}
	}
	return seen
}
