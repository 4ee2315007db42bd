package ports

import "github.com/mjgerace/pnpm/internal/core/domain"

// ConfigLoader defines the interface for loading install settings.
//
//go:generate mockgen -source=config.go -destination=mocks/mock_config.go -package=mocks
type ConfigLoader interface {
	// Load merges defaults, the settings file of the project in dir and the environment.
	Load(dir string) (*domain.Settings, error)
}
