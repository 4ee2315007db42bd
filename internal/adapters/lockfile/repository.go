// Package lockfile persists shrinkwrap.yaml and the node_modules state file.
package lockfile

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const yamlIndent = 2

// Repository implements ports.LockfileRepository.
type Repository struct {
	fs afero.Fs
}

var _ ports.LockfileRepository = (*Repository)(nil)

// NewRepository creates a lockfile repository on fs.
func NewRepository(fs afero.Fs) *Repository {
	return &Repository{fs: fs}
}

// Load reads and decodes the lockfile of the project in dir.
func (r *Repository) Load(dir string) (*domain.Lockfile, error) {
	path := domain.LockfilePath(dir)

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockfileReadFailed.Error()), "path", path)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockfileInvalid.Error()), "path", path)
	}

	return doc.toDomain(), nil
}

// Save encodes lf and replaces the lockfile of the project in dir.
func (r *Repository) Save(dir string, lf *domain.Lockfile) error {
	data, err := Encode(lf)
	if err != nil {
		return zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error())
	}

	path := domain.LockfilePath(dir)
	if err := atomicWriteFile(r.fs, path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error()), "path", path)
	}
	return nil
}

// Remove deletes the lockfile of the project in dir.
func (r *Repository) Remove(dir string) error {
	path := domain.LockfilePath(dir)
	if err := r.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error()), "path", path)
	}
	return nil
}

// Fingerprint hashes the encoded form of lf.
func (r *Repository) Fingerprint(lf *domain.Lockfile) (string, error) {
	if lf == nil {
		return "", nil
	}
	data, err := Encode(lf)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrLockfileWriteFailed.Error())
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// Encode renders lf as a shrinkwrap.yaml document. Map keys are sorted, so
// equal lockfiles always encode to equal bytes.
func Encode(lf *domain.Lockfile) ([]byte, error) {
	return encodeYAML(fromDomain(lf))
}

func encodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// atomicWriteFile writes data to a temp file beside path and renames it into place.
func atomicWriteFile(fsys afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := afero.TempFile(fsys, dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := fsys.Stat(tmpName); statErr == nil {
			_ = fsys.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := fsys.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}

	return fsys.Rename(tmpName, path)
}
