// Package manifest reads and writes package.json files.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
)

// packageJSON is the subset of package.json fields the engine reads.
type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Repository implements ports.ManifestRepository.
type Repository struct {
	fs afero.Fs
}

var _ ports.ManifestRepository = (*Repository)(nil)

// NewRepository creates a manifest repository on fs.
func NewRepository(fs afero.Fs) *Repository {
	return &Repository{fs: fs}
}

// Parse decodes package.json content.
func Parse(data []byte) (*domain.Manifest, error) {
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, zerr.Wrap(err, domain.ErrManifestInvalid.Error())
	}
	return &domain.Manifest{
		Name:            pj.Name,
		Version:         pj.Version,
		Dependencies:    pj.Dependencies,
		DevDependencies: pj.DevDependencies,
	}, nil
}

// Load reads package.json of the project in dir.
func (r *Repository) Load(dir string) (*domain.Manifest, error) {
	path := domain.ManifestPath(dir)

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrManifestNotFound, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestInvalid.Error()), "path", path)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return m, nil
}

// Save rewrites the dependency sections of package.json. Fields the engine
// does not model are carried over untouched.
func (r *Repository) Save(dir string, m *domain.Manifest) error {
	path := domain.ManifestPath(dir)

	fields := make(map[string]json.RawMessage)
	data, err := afero.ReadFile(r.fs, path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &fields); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrManifestInvalid.Error()), "path", path)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}

	if err := setSection(fields, "dependencies", m.Dependencies); err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	if err := setSection(fields, "devDependencies", m.DevDependencies); err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}

	out, err := encode(fields)
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	if err := afero.WriteFile(r.fs, path, out, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	return nil
}

func setSection(fields map[string]json.RawMessage, key string, deps map[string]string) error {
	if len(deps) == 0 {
		delete(fields, key)
		return nil
	}
	raw, err := encode(deps)
	if err != nil {
		return err
	}
	fields[key] = raw
	return nil
}

// encode writes indented JSON without escaping the <, > and & that ranges contain.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
