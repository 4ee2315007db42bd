// Package cas implements the content-addressed package store.
//
// Extracted packages live under packages/<sha512 hex of the tarball>. Content
// pinned by a weaker hash is found through index/<algorithm>/<hex>, whose
// file body is the sha512 hex of the same tarball.
package cas

import (
	"context"
	"crypto/sha1" //nolint:gosec // npm shasums are sha1
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mjgerace/pnpm/internal/adapters/manifest"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const (
	packagesDir = "packages"
	indexDir    = "index"
	tmpDir      = "tmp"
)

// Store implements ports.ContentStore.
type Store struct {
	root      string
	fs        afero.Fs
	registry  ports.Registry
	extractor ports.Extractor
	tracer    ports.Tracer
	group     singleflight.Group
}

var _ ports.ContentStore = (*Store)(nil)

// NewStore creates a store rooted at root.
func NewStore(
	root string,
	fsys afero.Fs,
	registry ports.Registry,
	extractor ports.Extractor,
	tracer ports.Tracer,
) (*Store, error) {
	for _, dir := range []string{packagesDir, indexDir, tmpDir} {
		if err := fsys.MkdirAll(filepath.Join(root, dir), domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", root)
		}
	}
	return &Store{
		root:      root,
		fs:        fsys,
		registry:  registry,
		extractor: extractor,
		tracer:    tracer,
	}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Ensure returns the stored content of ref, fetching it first when missing.
// Concurrent calls for the same content share one fetch.
func (s *Store) Ensure(ctx context.Context, ref domain.PackageRef) (*domain.StoredPackage, error) {
	v, err, _ := s.group.Do(ref.Resolution.ContentKey(), func() (any, error) {
		return s.ensure(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.StoredPackage), nil
}

func (s *Store) ensure(ctx context.Context, ref domain.PackageRef) (*domain.StoredPackage, error) {
	exp, pinned, err := expectationFor(ref.Resolution)
	if err != nil {
		return nil, zerr.With(err, "package", ref.Path)
	}

	if pinned {
		if key, ok := s.lookup(exp); ok {
			return s.load(key)
		}
	}

	if ref.Resolution.Tarball == "" {
		return nil, zerr.With(zerr.With(domain.ErrStoreReadFailed, "reason", "no tarball url"), "package", ref.Path)
	}

	var expected *expectation
	if pinned {
		expected = &exp
	}
	stored, err := s.fetch(ctx, ref.Name, ref.Resolution.Tarball, expected)
	if err != nil {
		return nil, zerr.With(err, "package", ref.Path)
	}
	return stored, nil
}

// Import stores a tarball that is not pinned to a hash yet.
func (s *Store) Import(ctx context.Context, url string) (*domain.StoredPackage, error) {
	v, err, _ := s.group.Do("url:"+url, func() (any, error) {
		return s.fetch(ctx, url, url, nil)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.StoredPackage), nil
}

// fetch downloads url, verifies it against expected when given and stores it.
func (s *Store) fetch(ctx context.Context, label, url string, expected *expectation) (*domain.StoredPackage, error) {
	ctx, span := s.tracer.Start(ctx, "fetch "+label, ports.WithKind("fetch"))
	defer span.End()
	span.SetAttribute("url", url)

	stored, err := s.download(ctx, url, expected)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return stored, nil
}

func (s *Store) download(ctx context.Context, url string, expected *expectation) (*domain.StoredPackage, error) {
	body, err := s.registry.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	stage := filepath.Join(s.root, tmpDir, uuid.NewString())
	archive := stage + ".tgz"
	defer func() {
		_ = s.fs.Remove(archive)
		_ = s.fs.RemoveAll(stage)
	}()

	sums, err := s.spool(body, archive, expected)
	if err != nil {
		return nil, err
	}

	if expected != nil {
		actual := sums.encoded(expected.alg)
		if actual != expected.encoded {
			err := zerr.With(domain.ErrIntegrityMismatch, "url", url)
			err = zerr.With(err, "expected", expected.render())
			return nil, zerr.With(err, "actual", expectation{alg: expected.alg, encoded: actual}.render())
		}
	}

	key := sums.encoded(digest.SHA512)
	if err := s.extract(archive, stage, key); err != nil {
		return nil, err
	}
	if err := s.index(sums, expected); err != nil {
		return nil, err
	}
	return s.load(key)
}

// checksums holds every hash computed while spooling a download.
type checksums struct {
	sha1     hash.Hash
	sha512   hash.Hash
	digester digest.Digester
}

func (c *checksums) encoded(alg digest.Algorithm) string {
	switch alg {
	case algSHA1:
		return hex.EncodeToString(c.sha1.Sum(nil))
	case digest.SHA512:
		return hex.EncodeToString(c.sha512.Sum(nil))
	default:
		if c.digester != nil && c.digester.Digest().Algorithm() == alg {
			return c.digester.Digest().Encoded()
		}
		return ""
	}
}

// spool copies r into path while hashing it.
func (s *Store) spool(r io.Reader, path string, expected *expectation) (*checksums, error) {
	sums := &checksums{
		sha1:   sha1.New(), //nolint:gosec // npm shasums are sha1
		sha512: sha512.New(),
	}
	writers := []io.Writer{sums.sha1, sums.sha512}
	if expected != nil && expected.alg != algSHA1 && expected.alg != digest.SHA512 {
		sums.digester = expected.alg.Digester()
		writers = append(writers, sums.digester.Hash())
	}

	f, err := s.fs.Create(path)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	writers = append(writers, f)

	if _, err := io.Copy(io.MultiWriter(writers...), r); err != nil {
		_ = f.Close()
		return nil, zerr.Wrap(err, domain.ErrRegistryUnavailable.Error())
	}
	if err := f.Close(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return sums, nil
}

// extract unpacks archive into stage and moves it to its final location.
// When another process stored the same content first, its copy wins.
func (s *Store) extract(archive, stage, key string) error {
	final := s.packageDir(key)
	if exists, _ := afero.DirExists(s.fs, final); exists {
		return nil
	}

	f, err := s.fs.Open(archive)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	defer func() { _ = f.Close() }()

	if err := s.extractor.Extract(f, stage); err != nil {
		return err
	}

	if err := s.fs.Rename(stage, final); err != nil {
		if exists, _ := afero.DirExists(s.fs, final); exists {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", final)
	}
	return nil
}

// index records the weaker hashes of the content so pinned lookups find it.
func (s *Store) index(sums *checksums, expected *expectation) error {
	key := []byte(sums.encoded(digest.SHA512))
	entries := map[digest.Algorithm]string{algSHA1: sums.encoded(algSHA1)}
	if expected != nil && expected.alg != digest.SHA512 {
		entries[expected.alg] = expected.encoded
	}

	for alg, encoded := range entries {
		path := s.indexPath(alg, encoded)
		if err := s.fs.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
			return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
		}
		if err := afero.WriteFile(s.fs, path, key, domain.FilePerm); err != nil {
			return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
		}
	}
	return nil
}

// lookup returns the sha512 key of content already stored for exp.
func (s *Store) lookup(exp expectation) (string, bool) {
	key := exp.encoded
	if exp.alg != digest.SHA512 {
		data, err := afero.ReadFile(s.fs, s.indexPath(exp.alg, exp.encoded))
		if err != nil {
			return "", false
		}
		key = strings.TrimSpace(string(data))
	}
	if !isHex(key, sha512.Size*2) {
		return "", false
	}

	exists, err := afero.DirExists(s.fs, s.packageDir(key))
	if err != nil || !exists {
		return "", false
	}
	return key, true
}

func (s *Store) load(key string) (*domain.StoredPackage, error) {
	dir := s.packageDir(key)

	m := &domain.Manifest{}
	data, err := afero.ReadFile(s.fs, filepath.Join(dir, domain.ManifestName))
	switch {
	case err == nil:
		if m, err = manifest.Parse(data); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", dir)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", dir)
	}

	return &domain.StoredPackage{
		Dir:       dir,
		Integrity: sri(digest.SHA512, key),
		Manifest:  m,
	}, nil
}

func (s *Store) packageDir(key string) string {
	return filepath.Join(s.root, packagesDir, key)
}

func (s *Store) indexPath(alg digest.Algorithm, encoded string) string {
	return filepath.Join(s.root, indexDir, string(alg), encoded)
}
