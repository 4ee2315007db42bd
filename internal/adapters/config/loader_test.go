package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mjgerace/pnpm/internal/adapters/config"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectDir = "/work/project"

func writeSettings(t *testing.T, fs afero.Fs, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(projectDir, ".pnpmrc.yaml"), []byte(content), 0o644))
}

func TestLoader_Defaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(projectDir, 0o755))

	s, err := config.NewLoader(fs).Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultRegistry, s.Registry)
	assert.Equal(t, domain.DefaultStorePath(), s.StoreDir)
	assert.Equal(t, 16, s.NetworkConcurrency)
	assert.Equal(t, 3, s.FetchRetries)
	assert.Equal(t, time.Second, s.FetchRetryDelay)
	assert.Equal(t, 1000, s.MaxDepth)
	assert.False(t, s.JSONLogs)
}

func TestLoader_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSettings(t, fs, `
registry: http://localhost:4873
store_dir: .store
network_concurrency: 4
fetch_retries: 0
fetch_retry_delay: 250ms
max_depth: 50
json_logs: true
`)

	s, err := config.NewLoader(fs).Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4873/", s.Registry)
	assert.Equal(t, filepath.Join(projectDir, ".store"), s.StoreDir)
	assert.Equal(t, 4, s.NetworkConcurrency)
	assert.Equal(t, 0, s.FetchRetries)
	assert.Equal(t, 250*time.Millisecond, s.FetchRetryDelay)
	assert.Equal(t, 50, s.MaxDepth)
	assert.True(t, s.JSONLogs)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSettings(t, fs, "registry: http://localhost:4873\nstore_dir: /abs/store\n")
	t.Setenv("PNPM_REGISTRY", "https://registry.example.com")
	t.Setenv("PNPM_NETWORK_CONCURRENCY", "2")

	s, err := config.NewLoader(fs).Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, "https://registry.example.com/", s.Registry)
	assert.Equal(t, "/abs/store", s.StoreDir)
	assert.Equal(t, 2, s.NetworkConcurrency)
}

func TestLoader_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero concurrency", "network_concurrency: 0\n"},
		{"negative retries", "fetch_retries: -1\n"},
		{"zero depth", "max_depth: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeSettings(t, fs, tt.content)

			_, err := config.NewLoader(fs).Load(projectDir)
			require.Error(t, err)
			assert.True(t, domain.IsError(err, domain.ErrConfigInvalid))
		})
	}
}

func TestLoader_MalformedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeSettings(t, fs, "registry: [unterminated\n")

	_, err := config.NewLoader(fs).Load(projectDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrConfigReadFailed.Error())
}
