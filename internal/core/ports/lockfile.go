package ports

import "github.com/mjgerace/pnpm/internal/core/domain"

// LockfileRepository defines the interface for persisting the lockfile.
//
//go:generate mockgen -source=lockfile.go -destination=mocks/mock_lockfile.go -package=mocks
type LockfileRepository interface {
	// Load reads the lockfile of the project in dir.
	// Returns nil, nil if the project has no lockfile.
	Load(dir string) (*domain.Lockfile, error)

	// Save writes lf as the lockfile of the project in dir.
	Save(dir string, lf *domain.Lockfile) error

	// Remove deletes the lockfile of the project in dir if it exists.
	Remove(dir string) error

	// Fingerprint returns a stable hash of the encoded form of lf.
	Fingerprint(lf *domain.Lockfile) (string, error)
}

// ModulesRepository defines the interface for the node_modules installed-state file.
type ModulesRepository interface {
	// Load returns nil, nil if node_modules has no state file.
	Load(dir string) (*domain.ModulesState, error)
	Save(dir string, state *domain.ModulesState) error
	Remove(dir string) error
}
