package domain

import (
	"slices"
	"strings"
)

// Manifest is the subset of package.json the engine consumes.
type Manifest struct {
	Name            string
	Version         string
	Dependencies    map[string]string
	DevDependencies map[string]string
}

// Dependency is one root dependency declared by the manifest.
type Dependency struct {
	Name      string
	Specifier string
	Dev       bool
}

// AllDependencies returns every declared root dependency ordered by name.
// A name listed in both sections counts as a production dependency.
func (m *Manifest) AllDependencies() []Dependency {
	if m == nil {
		return nil
	}

	deps := make([]Dependency, 0, len(m.Dependencies)+len(m.DevDependencies))
	for name, spec := range m.Dependencies {
		deps = append(deps, Dependency{Name: name, Specifier: spec})
	}
	for name, spec := range m.DevDependencies {
		if _, ok := m.Dependencies[name]; ok {
			continue
		}
		deps = append(deps, Dependency{Name: name, Specifier: spec, Dev: true})
	}

	slices.SortFunc(deps, func(a, b Dependency) int {
		return strings.Compare(a.Name, b.Name)
	})
	return deps
}

// HasDependencies reports whether the manifest declares any dependency at all.
func (m *Manifest) HasDependencies() bool {
	return m != nil && (len(m.Dependencies) > 0 || len(m.DevDependencies) > 0)
}

// Specifiers returns the literal specifier of every root dependency.
func (m *Manifest) Specifiers() map[string]string {
	specs := make(map[string]string)
	for _, dep := range m.AllDependencies() {
		specs[dep.Name] = dep.Specifier
	}
	return specs
}

// SetDependency records spec for name in the requested section and removes it from the other one.
func (m *Manifest) SetDependency(name, spec string, dev bool) {
	if dev {
		if m.DevDependencies == nil {
			m.DevDependencies = make(map[string]string)
		}
		m.DevDependencies[name] = spec
		delete(m.Dependencies, name)
		return
	}
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string)
	}
	m.Dependencies[name] = spec
	delete(m.DevDependencies, name)
}
