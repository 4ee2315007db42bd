// Package resolver turns one dependency specifier into a concrete package.
package resolver

import (
	"context"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// latestTag is the dist-tag preferred when it satisfies a range.
const latestTag = "latest"

// Resolver resolves registry ranges and tags through a ports.Registry and
// direct tarballs through the content store. Results are not memoized.
type Resolver struct {
	registry ports.Registry
	store    ports.ContentStore
	tracer   ports.Tracer
	base     string
}

// New creates a Resolver. defaultRegistry is the registry dependency paths
// and default tarball locations are derived from.
func New(registry ports.Registry, store ports.ContentStore, tracer ports.Tracer, defaultRegistry string) *Resolver {
	return &Resolver{
		registry: registry,
		store:    store,
		tracer:   tracer,
		base:     domain.NormalizeRegistry(defaultRegistry),
	}
}

// Resolve returns the best match for spec.
func (r *Resolver) Resolve(ctx context.Context, spec domain.Specifier) (*domain.ResolvedPackage, error) {
	ctx, span := r.tracer.Start(ctx, "resolve "+spec.Key(), ports.WithKind("resolve"))
	defer span.End()
	span.SetAttribute("package", spec.Name)
	span.SetAttribute("specifier", spec.Raw)

	var (
		pkg *domain.ResolvedPackage
		err error
	)
	if spec.IsRegistry() {
		pkg, err = r.resolveFromRegistry(ctx, spec)
	} else {
		pkg, err = r.resolveTarball(ctx, spec)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("version", pkg.Version)
	return pkg, nil
}

func (r *Resolver) resolveFromRegistry(ctx context.Context, spec domain.Specifier) (*domain.ResolvedPackage, error) {
	meta, err := r.registry.Metadata(ctx, spec.Name)
	if err != nil {
		return nil, zerr.With(err, "specifier", spec.Raw)
	}

	version, ok := PickVersion(meta, spec)
	if !ok {
		err := zerr.With(domain.ErrNoMatchingVersion, "package", spec.Name)
		return nil, zerr.With(err, "specifier", spec.Raw)
	}
	manifest := meta.Versions[version]

	res := domain.Resolution{
		Integrity: manifest.Dist.Integrity,
		Tarball:   manifest.Dist.Tarball,
	}
	if res.Integrity == "" {
		res.Shasum = manifest.Dist.Shasum
	}
	if res.Tarball == "" {
		res.Tarball = domain.DefaultTarballURL(r.base, spec.Name, version)
	}

	return &domain.ResolvedPackage{
		Name:         spec.Name,
		Version:      version,
		Path:         domain.DepPath(spec.Name, version),
		Resolution:   res,
		Dependencies: manifest.Dependencies,
	}, nil
}

// resolveTarball fetches a direct tarball: its name, version and dependencies
// are only known from the package.json inside it.
func (r *Resolver) resolveTarball(ctx context.Context, spec domain.Specifier) (*domain.ResolvedPackage, error) {
	stored, err := r.store.Import(ctx, spec.URL)
	if err != nil {
		return nil, zerr.With(zerr.With(err, "package", spec.Name), "specifier", spec.Raw)
	}

	name := spec.Name
	if name == "" {
		name = stored.Manifest.Name
	}

	return &domain.ResolvedPackage{
		Name:    name,
		Version: domain.NormalizeVersion(stored.Manifest.Version),
		Path:    domain.TarballDepPath(spec.URL),
		Resolution: domain.Resolution{
			Integrity: stored.Integrity,
			Tarball:   spec.URL,
		},
		Dependencies: stored.Manifest.Dependencies,
	}, nil
}

// PickVersion selects the version of meta that spec resolves to.
// A range prefers the "latest" dist-tag when it satisfies it, then the
// highest satisfying version. An empty range means "latest".
func PickVersion(meta *domain.PackageMetadata, spec domain.Specifier) (string, bool) {
	switch {
	case spec.Kind == domain.SpecTag:
		return taggedVersion(meta, spec.Raw)
	case spec.Kind != domain.SpecRange:
		return "", false
	case spec.Raw == "":
		return taggedVersion(meta, latestTag)
	}

	if latest, ok := taggedVersion(meta, latestTag); ok && domain.Satisfies(latest, spec.Raw) {
		return latest, true
	}
	return domain.MaxSatisfying(meta.VersionList(), spec.Raw)
}

func taggedVersion(meta *domain.PackageMetadata, tag string) (string, bool) {
	version, ok := meta.DistTags[tag]
	if !ok {
		return "", false
	}
	version = domain.NormalizeVersion(version)
	_, published := meta.Versions[version]
	return version, published
}
