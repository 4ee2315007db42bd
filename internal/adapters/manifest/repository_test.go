package manifest_test

import (
	"encoding/json"
	"testing"

	"github.com/mjgerace/pnpm/internal/adapters/manifest"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectDir = "/work/project"

func TestRepository_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `{
  "name": "project",
  "version": "0.0.0",
  "dependencies": {"pkg-with-1-dep": "^100.0.0"},
  "devDependencies": {"is-positive": ">=1.0.0 <4.0.0"}
}`
	require.NoError(t, afero.WriteFile(fs, domain.ManifestPath(projectDir), []byte(content), 0o644))

	m, err := manifest.NewRepository(fs).Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, "project", m.Name)
	assert.Equal(t, map[string]string{"pkg-with-1-dep": "^100.0.0"}, m.Dependencies)
	assert.Equal(t, map[string]string{"is-positive": ">=1.0.0 <4.0.0"}, m.DevDependencies)
}

func TestRepository_Load_Missing(t *testing.T) {
	_, err := manifest.NewRepository(afero.NewMemMapFs()).Load(projectDir)
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrManifestNotFound))
}

func TestRepository_Load_Invalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, domain.ManifestPath(projectDir), []byte("{not json"), 0o644))

	_, err := manifest.NewRepository(fs).Load(projectDir)
	require.Error(t, err)
	assert.True(t, domain.IsError(err, domain.ErrManifestInvalid))
}

func TestRepository_Save_PreservesOtherFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `{"name": "project", "scripts": {"test": "tap"}, "devDependencies": {"tap": "^10.0.0"}}`
	require.NoError(t, afero.WriteFile(fs, domain.ManifestPath(projectDir), []byte(content), 0o644))

	repo := manifest.NewRepository(fs)
	m, err := repo.Load(projectDir)
	require.NoError(t, err)

	m.SetDependency("is-positive", ">=1.0.0", false)
	m.SetDependency("tap", "10.3.0", false)
	require.NoError(t, repo.Save(projectDir, m))

	data, err := afero.ReadFile(fs, domain.ManifestPath(projectDir))
	require.NoError(t, err)
	assert.Contains(t, string(data), `">=1.0.0"`, "ranges must not be HTML escaped")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]any{"test": "tap"}, raw["scripts"])
	assert.Equal(t, map[string]any{"is-positive": ">=1.0.0", "tap": "10.3.0"}, raw["dependencies"])
	assert.NotContains(t, raw, "devDependencies", "empty sections are dropped")
}

func TestRepository_Save_CreatesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(projectDir, 0o755))
	repo := manifest.NewRepository(fs)

	require.NoError(t, repo.Save(projectDir, &domain.Manifest{
		DevDependencies: map[string]string{"@types/semver": "^5.3.31"},
	}))

	m, err := repo.Load(projectDir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"@types/semver": "^5.3.31"}, m.DevDependencies)
}

func TestParse(t *testing.T) {
	m, err := manifest.Parse([]byte(`{"name":"is-negative","version":"2.1.0","dependencies":{"is-positive":"^1.0.0"}}`))
	require.NoError(t, err)
	assert.Equal(t, "is-negative", m.Name)
	assert.Equal(t, "2.1.0", m.Version)
	assert.Equal(t, "^1.0.0", m.Dependencies["is-positive"])
}
