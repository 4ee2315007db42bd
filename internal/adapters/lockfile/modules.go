package lockfile

import (
	"errors"
	"io/fs"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

type modulesDoc struct {
	LayoutVersion       int               `yaml:"layoutVersion"`
	Registry            string            `yaml:"registry"`
	LockfileFingerprint string            `yaml:"lockfileFingerprint"`
	Production          bool              `yaml:"production"`
	Placed              []string          `yaml:"placed,omitempty"`
	RootLinks           map[string]string `yaml:"rootLinks,omitempty"`
}

// ModulesRepository implements ports.ModulesRepository.
type ModulesRepository struct {
	fs afero.Fs
}

var _ ports.ModulesRepository = (*ModulesRepository)(nil)

// NewModulesRepository creates a node_modules state repository on fs.
func NewModulesRepository(fs afero.Fs) *ModulesRepository {
	return &ModulesRepository{fs: fs}
}

// Load reads node_modules/.modules.yaml of the project in dir.
func (r *ModulesRepository) Load(dir string) (*domain.ModulesState, error) {
	path := domain.ModulesStatePath(dir)

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModulesStateFailed.Error()), "path", path)
	}

	var doc modulesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrModulesStateFailed.Error()), "path", path)
	}

	state := &domain.ModulesState{
		LayoutVersion:       doc.LayoutVersion,
		Registry:            doc.Registry,
		LockfileFingerprint: doc.LockfileFingerprint,
		Production:          doc.Production,
		Placed:              doc.Placed,
		RootLinks:           doc.RootLinks,
	}
	if state.RootLinks == nil {
		state.RootLinks = make(map[string]string)
	}
	return state, nil
}

// Save writes state into node_modules of the project in dir.
func (r *ModulesRepository) Save(dir string, state *domain.ModulesState) error {
	data, err := encodeYAML(&modulesDoc{
		LayoutVersion:       state.LayoutVersion,
		Registry:            state.Registry,
		LockfileFingerprint: state.LockfileFingerprint,
		Production:          state.Production,
		Placed:              state.Placed,
		RootLinks:           state.RootLinks,
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrModulesStateFailed.Error())
	}

	path := domain.ModulesStatePath(dir)
	if err := atomicWriteFile(r.fs, path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrModulesStateFailed.Error()), "path", path)
	}
	return nil
}

// Remove deletes the state file. A missing file is not an error.
func (r *ModulesRepository) Remove(dir string) error {
	path := domain.ModulesStatePath(dir)
	if err := r.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrModulesStateFailed.Error()), "path", path)
	}
	return nil
}
