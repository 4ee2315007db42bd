package ports

import "github.com/mjgerace/pnpm/internal/core/domain"

// ManifestRepository defines the interface for reading and writing package.json.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestRepository interface {
	// Load reads the manifest of the project in dir.
	// Returns domain.ErrManifestNotFound if there is none.
	Load(dir string) (*domain.Manifest, error)

	// Save writes the dependency sections of m back, preserving all other fields.
	Save(dir string, m *domain.Manifest) error
}
