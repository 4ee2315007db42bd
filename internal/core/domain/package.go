package domain

import (
	"slices"
	"strings"
)

// Resolution records where a package instance comes from and how to verify it.
type Resolution struct {
	// Integrity is a Subresource Integrity string ("sha512-<base64>").
	Integrity string
	// Shasum is the hex encoded SHA-1 of the tarball, used when no integrity is published.
	Shasum string
	// Tarball is the download URL. It is empty when derivable from the default registry.
	Tarball string
}

// IsZero reports whether the resolution carries no information at all.
func (r Resolution) IsZero() bool {
	return r == Resolution{}
}

// ContentKey identifies the content the resolution points to.
// It is used to deduplicate concurrent fetches of the same content.
func (r Resolution) ContentKey() string {
	switch {
	case r.Integrity != "":
		return r.Integrity
	case r.Shasum != "":
		return "sha1:" + strings.ToLower(r.Shasum)
	default:
		return "url:" + r.Tarball
	}
}

// Dist is the "dist" section of a registry version document.
type Dist struct {
	Shasum    string
	Integrity string
	Tarball   string
}

// VersionManifest is one published version in a registry document.
type VersionManifest struct {
	Name         string
	Version      string
	Dependencies map[string]string
	Dist         Dist
}

// PackageMetadata is the registry document of a package.
// Version keys are normalized with NormalizeVersion.
type PackageMetadata struct {
	Name     string
	DistTags map[string]string
	Versions map[string]*VersionManifest
}

// VersionList returns the published versions in ascending order.
func (m *PackageMetadata) VersionList() []string {
	versions := make([]string, 0, len(m.Versions))
	for v := range m.Versions {
		versions = append(versions, v)
	}
	slices.SortFunc(versions, CompareVersions)
	return versions
}

// ResolvedPackage is the outcome of resolving one specifier.
type ResolvedPackage struct {
	Name    string
	Version string
	// Path is the dependency path allocated for this instance.
	Path       string
	Resolution Resolution
	// Dependencies are the ranges the package itself declares.
	Dependencies map[string]string
}

// PackageRef identifies package content to fetch into the store.
type PackageRef struct {
	Name    string
	Version string
	Path    string
	// Resolution must carry a tarball URL, even for default-registry packages.
	Resolution Resolution
}

// StoredPackage is package content available in the store.
type StoredPackage struct {
	// Dir holds the extracted package files.
	Dir string
	// Integrity is the sha512 SRI of the tarball the content was extracted from.
	Integrity string
	// Manifest is the package.json shipped inside the tarball.
	Manifest *Manifest
}

// DefaultTarballURL returns the conventional tarball location of name@version in registry.
func DefaultTarballURL(registry, name, version string) string {
	base := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		base = name[idx+1:]
	}
	return NormalizeRegistry(registry) + name + "/-/" + base + "-" + NormalizeVersion(version) + ".tgz"
}
