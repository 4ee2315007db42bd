package domain

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Node is one package instance in a resolved dependency graph.
type Node struct {
	Path       string
	Name       string
	Version    string
	Resolution Resolution
	// Dependencies maps each dependency name to the dependency path chosen for it.
	Dependencies map[string]string
	// Snapshot is the unchanged lockfile record this node was reused from, if any.
	Snapshot *Snapshot
}

// Graph is the authoritative dependency graph produced for a manifest.
type Graph struct {
	// Roots maps each root dependency name to its dependency path.
	Roots map[string]string
	Nodes map[string]*Node
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		Roots: make(map[string]string),
		Nodes: make(map[string]*Node),
	}
}

// ToLockfile serializes the graph into a fresh lockfile.
// Only paths reachable from the roots are written. Reused nodes keep their
// original snapshot record, everything else gets a new one.
func (g *Graph) ToLockfile(registry string, specifiers map[string]string) *Lockfile {
	lf := NewLockfile(registry)
	maps.Copy(lf.Specifiers, specifiers)

	root := lf.Packages[RootPath]
	queue := make([]string, 0, len(g.Roots))
	for _, name := range slices.Sorted(maps.Keys(g.Roots)) {
		p := g.Roots[name]
		root.Dependencies[name] = PathToRef(name, p)
		queue = append(queue, p)
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if _, done := lf.Packages[p]; done {
			continue
		}
		node, ok := g.Nodes[p]
		if !ok {
			continue
		}
		lf.Packages[p] = node.snapshot(lf.Registry)
		for _, name := range slices.Sorted(maps.Keys(node.Dependencies)) {
			queue = append(queue, node.Dependencies[name])
		}
	}
	return lf
}

func (n *Node) snapshot(registry string) *Snapshot {
	if n.Snapshot != nil {
		return n.Snapshot
	}

	s := &Snapshot{Resolution: n.Resolution}
	if len(n.Dependencies) > 0 {
		s.Dependencies = make(map[string]string, len(n.Dependencies))
		for name, p := range n.Dependencies {
			s.Dependencies[name] = PathToRef(name, p)
		}
	}
	if s.Resolution.Integrity != "" {
		s.Resolution.Shasum = ""
	}
	if IsDefaultPath(n.Path) && s.Resolution.Tarball == DefaultTarballURL(registry, n.Name, n.Version) {
		s.Resolution.Tarball = ""
	}
	return s
}

// BuildCycleError reports an expansion chain that exceeded the depth guard.
// The chain holds "name@version" entries; the reported cycle starts at the first
// earlier occurrence of the last package name, or covers the whole chain.
func BuildCycleError(chain []string) error {
	if len(chain) == 0 {
		return ErrCyclicDependencyOverflow
	}

	last := packageName(chain[len(chain)-1])
	start := 0
	for i := len(chain) - 2; i >= 0; i-- {
		if packageName(chain[i]) == last {
			start = i
		}
	}

	err := zerr.With(ErrCyclicDependencyOverflow, "cycle", strings.Join(chain[start:], " -> "))
	return zerr.With(err, "depth", len(chain))
}

func packageName(entry string) string {
	if idx := strings.LastIndex(entry, "@"); idx > 0 {
		return entry[:idx]
	}
	return entry
}
