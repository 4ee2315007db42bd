package registry

import "github.com/mjgerace/pnpm/internal/core/domain"

// document is the registry JSON for one package, full or abbreviated.
type document struct {
	Name     string                      `json:"name"`
	DistTags map[string]string           `json:"dist-tags"`
	Versions map[string]*versionDocument `json:"versions"`
}

type versionDocument struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
	Dist         struct {
		Shasum    string `json:"shasum"`
		Integrity string `json:"integrity"`
		Tarball   string `json:"tarball"`
	} `json:"dist"`
}

// toDomain normalizes versions and drops entries that are not valid semver.
func (d *document) toDomain(name string) *domain.PackageMetadata {
	meta := &domain.PackageMetadata{
		Name:     d.Name,
		DistTags: make(map[string]string, len(d.DistTags)),
		Versions: make(map[string]*domain.VersionManifest, len(d.Versions)),
	}
	if meta.Name == "" {
		meta.Name = name
	}

	for tag, version := range d.DistTags {
		meta.DistTags[tag] = domain.NormalizeVersion(version)
	}

	for key, v := range d.Versions {
		if v == nil {
			continue
		}
		version := domain.NormalizeVersion(key)
		if !domain.IsValidVersion(version) {
			continue
		}
		meta.Versions[version] = &domain.VersionManifest{
			Name:         meta.Name,
			Version:      version,
			Dependencies: v.Dependencies,
			Dist: domain.Dist{
				Shasum:    v.Dist.Shasum,
				Integrity: v.Dist.Integrity,
				Tarball:   v.Dist.Tarball,
			},
		}
	}
	return meta
}
