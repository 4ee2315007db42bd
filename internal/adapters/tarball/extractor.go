// Package tarball unpacks gzip compressed package tarballs.
package tarball

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
)

// Extractor implements ports.Extractor.
type Extractor struct {
	fs afero.Fs
}

var _ ports.Extractor = (*Extractor)(nil)

// New creates an Extractor writing to fs.
func New(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs}
}

// Extract unpacks r into dest. The first path component of every entry is
// dropped, whatever its name: npm uses "package/", GitHub uses "<repo>-<ref>/".
// Links and special files are skipped.
func (e *Extractor) Extract(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return zerr.Wrap(err, domain.ErrTarballInvalid.Error())
	}
	defer func() { _ = gz.Close() }()

	if err := e.fs.MkdirAll(dest, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, domain.ErrTarballInvalid.Error())
		}

		rel, ok := stripFirst(hdr.Name)
		if !ok {
			continue
		}
		target, err := safeJoin(dest, rel)
		if err != nil {
			return zerr.With(err, "entry", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := e.fs.MkdirAll(target, domain.DirPerm); err != nil {
				return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
			}
		case tar.TypeReg:
			if err := e.writeFile(target, hdr.FileInfo().Mode(), tr); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "entry", hdr.Name)
			}
		}
	}
}

func (e *Extractor) writeFile(target string, mode os.FileMode, r io.Reader) error {
	if err := e.fs.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return err
	}

	perm := os.FileMode(domain.FilePerm)
	if mode&0o111 != 0 {
		perm = domain.ExecFilePerm
	}

	f, err := e.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// stripFirst drops the leading directory of a tar entry name.
func stripFirst(name string) (string, bool) {
	name = strings.TrimLeft(strings.TrimPrefix(name, "./"), "/")
	_, rest, found := strings.Cut(name, "/")
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

// safeJoin joins rel onto dest and rejects results outside dest.
func safeJoin(dest, rel string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(rel))
	back, err := filepath.Rel(dest, target)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", domain.ErrTarballUnsafePath
	}
	return target, nil
}
