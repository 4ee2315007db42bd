package lockfile

import (
	"strings"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of shrinkwrap.yaml.
type document struct {
	Version    int                     `yaml:"version"`
	Registry   string                  `yaml:"registry"`
	Specifiers map[string]string       `yaml:"specifiers,omitempty"`
	Packages   map[string]*snapshotDoc `yaml:"packages,omitempty"`
}

type snapshotDoc struct {
	Dependencies map[string]string `yaml:"dependencies,omitempty"`
	Resolution   *resolutionDoc    `yaml:"resolution,omitempty"`
}

type resolutionDoc struct {
	Integrity string `yaml:"integrity,omitempty"`
	Shasum    string `yaml:"shasum,omitempty"`
	Tarball   string `yaml:"tarball,omitempty"`
}

// UnmarshalYAML accepts a bare string as shorthand for a shasum-only resolution.
func (s *snapshotDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var shasum string
		if err := node.Decode(&shasum); err != nil {
			return err
		}
		s.Resolution = &resolutionDoc{Shasum: shasum}
		return nil
	}

	type plain snapshotDoc
	return node.Decode((*plain)(s))
}

func fromDomain(lf *domain.Lockfile) *document {
	doc := &document{
		Version:    lf.Version,
		Registry:   lf.Registry,
		Specifiers: lf.Specifiers,
		Packages:   make(map[string]*snapshotDoc, len(lf.Packages)),
	}

	for p, snapshot := range lf.Packages {
		sd := &snapshotDoc{}
		if len(snapshot.Dependencies) > 0 {
			sd.Dependencies = snapshot.Dependencies
		}
		if !snapshot.Resolution.IsZero() {
			r := snapshot.Resolution
			sd.Resolution = &resolutionDoc{Integrity: r.Integrity, Shasum: r.Shasum, Tarball: r.Tarball}
		}
		doc.Packages[p] = sd
	}
	return doc
}

func (d *document) toDomain() *domain.Lockfile {
	lf := &domain.Lockfile{
		Version:    d.Version,
		Registry:   domain.NormalizeRegistry(d.Registry),
		Specifiers: make(map[string]string, len(d.Specifiers)),
		Packages:   make(map[string]*domain.Snapshot, len(d.Packages)),
	}
	for name, spec := range d.Specifiers {
		lf.Specifiers[name] = spec
	}

	for p, sd := range d.Packages {
		snapshot := &domain.Snapshot{Dependencies: make(map[string]string)}
		if sd != nil {
			for name, ref := range sd.Dependencies {
				snapshot.Dependencies[name] = normalizeRef(ref)
			}
			if sd.Resolution != nil {
				snapshot.Resolution = domain.Resolution{
					Integrity: sd.Resolution.Integrity,
					Shasum:    sd.Resolution.Shasum,
					Tarball:   sd.Resolution.Tarball,
				}
			}
		}
		lf.Packages[normalizePath(p)] = snapshot
	}
	return lf
}

// normalizePath strips v and = prefixes from the version of a default-registry path.
// Anything unparsable is kept as written so that validation can reject it.
func normalizePath(p string) string {
	if !domain.IsDefaultPath(p) {
		return p
	}
	name, version, err := domain.ParseDepPath(p)
	if err != nil {
		return p
	}
	return domain.DepPath(name, version)
}

func normalizeRef(ref string) string {
	if strings.Contains(ref, "/") {
		return normalizePath(ref)
	}
	return domain.NormalizeVersion(ref)
}
