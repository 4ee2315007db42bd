// Package enginetest provides an in-memory registry and a temporary store
// for engine tests.
package enginetest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"maps"
	"strings"
	"sync"
	"testing"

	"github.com/mjgerace/pnpm/internal/adapters/cas"
	"github.com/mjgerace/pnpm/internal/adapters/tarball"
	"github.com/mjgerace/pnpm/internal/adapters/tarball/tarballtest"
	"github.com/mjgerace/pnpm/internal/adapters/telemetry"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
)

// RegistryURL is the registry the fake pretends to be.
const RegistryURL = "http://localhost:4873/"

// Registry is an in-memory ports.Registry serving generated tarballs.
type Registry struct {
	t   testing.TB
	url string

	mu       sync.Mutex
	docs     map[string]*domain.PackageMetadata
	tarballs map[string][]byte
	metadata map[string]int
	fetches  map[string]int
}

var _ ports.Registry = (*Registry)(nil)

// NewRegistry creates an empty registry pretending to live at RegistryURL.
func NewRegistry(t testing.TB) *Registry {
	t.Helper()
	return NewRegistryAt(t, RegistryURL)
}

// NewRegistryAt creates an empty registry whose tarball URLs point at url.
func NewRegistryAt(t testing.TB, url string) *Registry {
	t.Helper()
	return &Registry{
		t:        t,
		url:      domain.NormalizeRegistry(url),
		docs:     make(map[string]*domain.PackageMetadata),
		tarballs: make(map[string][]byte),
		metadata: make(map[string]int),
		fetches:  make(map[string]int),
	}
}

// Publish adds name@version with the given dependency ranges and moves the
// "latest" tag to it when it is the highest stable version.
func (r *Registry) Publish(name, version string, deps map[string]string) {
	r.t.Helper()

	data := r.pack(name, version, deps)
	url := domain.DefaultTarballURL(r.url, name, version)

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[name]
	if !ok {
		doc = &domain.PackageMetadata{
			Name:     name,
			DistTags: map[string]string{},
			Versions: map[string]*domain.VersionManifest{},
		}
		r.docs[name] = doc
	}
	doc.Versions[version] = &domain.VersionManifest{
		Name:         name,
		Version:      version,
		Dependencies: deps,
		Dist: domain.Dist{
			Integrity: tarballtest.Integrity(data),
			Shasum:    tarballtest.Shasum(data),
			Tarball:   url,
		},
	}
	if latest := doc.DistTags["latest"]; !strings.Contains(version, "-") &&
		(latest == "" || domain.CompareVersions(version, latest) > 0) {
		doc.DistTags["latest"] = version
	}
	r.tarballs[url] = data
}

// URL returns the registry URL, with a trailing slash.
func (r *Registry) URL() string {
	return r.url
}

// Tag points a dist-tag of name at version.
func (r *Registry) Tag(name, tag, version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[name].DistTags[tag] = version
}

// Host serves a package tarball at url outside the registry documents,
// the way GitHub or any plain web server would.
func (r *Registry) Host(url, name, version string, deps map[string]string) []byte {
	r.t.Helper()

	data := r.pack(name, version, deps)
	r.mu.Lock()
	r.tarballs[url] = data
	r.mu.Unlock()
	return data
}

// Tamper replaces the tarball of name@version while keeping its published hashes.
func (r *Registry) Tamper(name, version string) {
	r.t.Helper()

	data := tarballtest.Build(r.t, "package", map[string]string{
		"package.json": `{"name":"` + name + `","version":"` + version + `"}`,
		"index.js":     "throw new Error('tampered')\n",
	})
	r.mu.Lock()
	r.tarballs[domain.DefaultTarballURL(r.url, name, version)] = data
	r.mu.Unlock()
}

// MetadataCalls returns how often the document of name was requested.
func (r *Registry) MetadataCalls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadata[name]
}

// FetchCalls returns how many tarballs were downloaded in total.
func (r *Registry) FetchCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, n := range r.fetches {
		total += n
	}
	return total
}

// Metadata implements ports.Registry.
func (r *Registry) Metadata(_ context.Context, name string) (*domain.PackageMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metadata[name]++
	doc, ok := r.docs[name]
	if !ok {
		return nil, zerr.With(domain.ErrPackageNotFound, "package", name)
	}

	return &domain.PackageMetadata{
		Name:     doc.Name,
		DistTags: maps.Clone(doc.DistTags),
		Versions: maps.Clone(doc.Versions),
	}, nil
}

// Fetch implements ports.Registry.
func (r *Registry) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fetches[url]++
	data, ok := r.tarballs[url]
	if !ok {
		return nil, zerr.With(domain.ErrPackageNotFound, "url", url)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *Registry) pack(name, version string, deps map[string]string) []byte {
	r.t.Helper()

	manifest, err := json.Marshal(map[string]any{
		"name":         name,
		"version":      version,
		"dependencies": deps,
	})
	if err != nil {
		r.t.Fatalf("marshal manifest: %v", err)
	}
	return tarballtest.Build(r.t, "package", map[string]string{
		"package.json": string(manifest),
		"index.js":     "module.exports = '" + name + "@" + version + "'\n",
	})
}

// NewStore creates a content store in a temporary directory backed by reg.
func NewStore(t testing.TB, reg ports.Registry) *cas.Store {
	t.Helper()

	fsys := afero.NewOsFs()
	store, err := cas.NewStore(t.TempDir(), fsys, reg, tarball.New(fsys), telemetry.NewNoOpTracer())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

// PublishFixtures publishes the packages most engine tests install.
func (r *Registry) PublishFixtures() {
	r.t.Helper()

	r.Publish("is-positive", "1.0.0", nil)
	r.Publish("is-positive", "3.1.0", nil)
	r.Publish("is-negative", "2.0.0", nil)
	r.Publish("is-negative", "2.1.0", nil)
	r.Publish("dep-of-pkg-with-1-dep", "100.0.0", nil)
	r.Publish("dep-of-pkg-with-1-dep", "100.1.0", nil)
	r.Publish("pkg-with-1-dep", "100.0.0", map[string]string{"dep-of-pkg-with-1-dep": "^100.0.0"})
	r.Publish("@types/semver", "5.3.31", nil)
}
