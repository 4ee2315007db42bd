package domain

import (
	"net/url"
	"path"
	"strings"

	"go.trai.ch/zerr"
)

// RootPath is the dependency path of the project itself.
const RootPath = "/"

// DepPath returns the dependency path of a default-registry package instance.
// Scoped names keep their "@": DepPath("@types/semver", "5.3.31") is "/@types/semver/5.3.31".
func DepPath(name, version string) string {
	return "/" + name + "/" + NormalizeVersion(version)
}

// IsDefaultPath reports whether p identifies a package from the default registry.
// Non-default paths are host-qualified and never start with a slash.
func IsDefaultPath(p string) bool {
	return strings.HasPrefix(p, "/") && p != RootPath
}

// ParseDepPath splits a default-registry dependency path into name and version.
func ParseDepPath(p string) (name, version string, err error) {
	if !IsDefaultPath(p) {
		return "", "", zerr.With(ErrInvalidDepPath, "dep_path", p)
	}

	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	switch {
	case len(parts) == 2 && !strings.HasPrefix(parts[0], "@"):
		name, version = parts[0], parts[1]
	case len(parts) == 3 && strings.HasPrefix(parts[0], "@"):
		name, version = parts[0]+"/"+parts[1], parts[2]
	default:
		return "", "", zerr.With(ErrInvalidDepPath, "dep_path", p)
	}

	version = NormalizeVersion(version)
	if name == "" || !IsValidVersion(version) {
		return "", "", zerr.With(ErrInvalidDepPath, "dep_path", p)
	}
	return name, version, nil
}

// RefToPath expands a snapshot dependency reference into a dependency path.
// A bare version is shortened form for the default registry; anything containing
// a slash is already a full path.
func RefToPath(name, ref string) string {
	if strings.Contains(ref, "/") {
		return ref
	}
	return DepPath(name, ref)
}

// PathToRef returns the shortest reference to p as recorded under the dependency name.
func PathToRef(name, p string) string {
	depName, version, err := ParseDepPath(p)
	if err != nil || depName != name {
		return p
	}
	return version
}

// TarballDepPath derives the dependency path of a package fetched from a direct URL.
// The result is host-qualified ("codeload.github.com/owner/repo/tar.gz/master").
func TarballDepPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(rawURL, ".tgz")
	}
	host := strings.ReplaceAll(u.Host, ":", "+")
	return host + strings.TrimSuffix(u.EscapedPath(), ".tgz")
}

// RegistryHost returns the directory-safe host of a registry URL ("localhost:4873" becomes "localhost+4873").
func RegistryHost(registry string) string {
	u, err := url.Parse(registry)
	if err != nil || u.Host == "" {
		return strings.ReplaceAll(strings.Trim(registry, "/"), ":", "+")
	}
	return strings.ReplaceAll(u.Host, ":", "+")
}

// NormalizeRegistry returns registry with exactly one trailing slash.
func NormalizeRegistry(registry string) string {
	registry = strings.TrimSpace(registry)
	if registry == "" {
		return DefaultRegistry
	}
	return strings.TrimRight(registry, "/") + "/"
}

// VirtualDir returns the slash-separated directory, relative to node_modules, that holds
// one package instance together with the links to its own dependencies.
func VirtualDir(registryHost, depPath string) string {
	if name, version, err := ParseDepPath(depPath); err == nil {
		return path.Join("."+registryHost, name, version)
	}
	return "." + strings.Trim(depPath, "/")
}
