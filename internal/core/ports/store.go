package ports

import (
	"context"
	"io"

	"github.com/mjgerace/pnpm/internal/core/domain"
)

// ContentStore defines the interface for the content-addressed package store.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ContentStore interface {
	// Ensure makes the content of ref available, fetching and verifying it when missing.
	// Returns domain.ErrIntegrityMismatch when the fetched bytes do not match ref's hash.
	Ensure(ctx context.Context, ref domain.PackageRef) (*domain.StoredPackage, error)

	// Import fetches a tarball that is not pinned to a hash yet and stores it
	// under the hash computed while downloading.
	Import(ctx context.Context, url string) (*domain.StoredPackage, error)
}

// Extractor unpacks package tarballs.
type Extractor interface {
	// Extract unpacks the gzip compressed tar stream r into dest,
	// dropping the leading "package/" directory.
	Extract(r io.Reader, dest string) error
}
