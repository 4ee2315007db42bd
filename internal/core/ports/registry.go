package ports

import (
	"context"
	"io"

	"github.com/mjgerace/pnpm/internal/core/domain"
)

// Registry defines the interface to a package registry.
//
//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type Registry interface {
	// Metadata returns the registry document of a package.
	// Returns domain.ErrPackageNotFound if the registry does not know the name.
	Metadata(ctx context.Context, name string) (*domain.PackageMetadata, error)

	// Fetch opens the tarball at url. The caller must close the returned reader.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}
