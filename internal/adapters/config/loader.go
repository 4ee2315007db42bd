// Package config loads install settings with viper.
package config

import (
	"errors"
	"path/filepath"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "PNPM"

// Loader implements ports.ConfigLoader.
type Loader struct {
	fs afero.Fs
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a Loader reading settings files from fs.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs}
}

// Load reads the settings for the project in dir.
func (l *Loader) Load(dir string) (*domain.Settings, error) {
	v := viper.New()
	v.SetFs(l.fs)
	v.SetConfigName(domain.SettingsFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "dir", dir)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigInvalid.Error())
	}

	return s.toDomain(dir)
}

func (s *Settings) toDomain(dir string) (*domain.Settings, error) {
	if s.NetworkConcurrency < 1 {
		return nil, zerr.With(domain.ErrConfigInvalid, "network_concurrency", s.NetworkConcurrency)
	}
	if s.FetchRetries < 0 {
		return nil, zerr.With(domain.ErrConfigInvalid, "fetch_retries", s.FetchRetries)
	}
	if s.MaxDepth < 1 {
		return nil, zerr.With(domain.ErrConfigInvalid, "max_depth", s.MaxDepth)
	}

	storeDir := s.StoreDir
	switch {
	case storeDir == "":
		storeDir = domain.DefaultStorePath()
	case !filepath.IsAbs(storeDir):
		storeDir = filepath.Join(dir, storeDir)
	}

	return &domain.Settings{
		Registry:           domain.NormalizeRegistry(s.Registry),
		StoreDir:           storeDir,
		NetworkConcurrency: s.NetworkConcurrency,
		FetchRetries:       s.FetchRetries,
		FetchRetryDelay:    s.FetchRetryDelay,
		MaxDepth:           s.MaxDepth,
		JSONLogs:           s.JSONLogs,
	}, nil
}
