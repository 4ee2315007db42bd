// Package linker places stored package files into node_modules.
package linker

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"go.trai.ch/zerr"
)

// Linker implements ports.Linker on the local filesystem.
// Files are hardlinked from the store and copied when the store lives on
// another device.
type Linker struct {
	link func(oldname, newname string) error
}

var _ ports.Linker = (*Linker)(nil)

// New creates a Linker.
func New() *Linker {
	return &Linker{link: os.Link}
}

// ImportPackage replaces dst with the files of src.
func (l *Linker) ImportPackage(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return linkError(err, src, dst)
	}

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, domain.DirPerm)
		case d.Type().IsRegular():
			return l.importFile(path, target)
		default:
			return nil
		}
	})
	if err != nil {
		return linkError(err, src, dst)
	}
	return nil
}

func (l *Linker) importFile(src, dst string) error {
	if err := l.link(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // src is inside the store
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // dst is inside node_modules
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Symlink makes link point to target. Absolute targets are stored relative
// to the link so a project directory can be moved.
func (l *Linker) Symlink(target, link string) error {
	if filepath.IsAbs(target) {
		rel, err := filepath.Rel(filepath.Dir(link), target)
		if err != nil {
			return linkError(err, target, link)
		}
		target = rel
	}

	if current, err := os.Readlink(link); err == nil && current == target {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(link), domain.DirPerm); err != nil {
		return linkError(err, target, link)
	}
	if err := os.RemoveAll(link); err != nil {
		return linkError(err, target, link)
	}
	if err := os.Symlink(target, link); err != nil {
		return linkError(err, target, link)
	}
	return nil
}

// RemoveAll deletes path. A missing path is not an error.
func (l *Linker) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "path", path)
	}
	return nil
}

func linkError(err error, src, dst string) error {
	wrapped := zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "src", src)
	return zerr.With(wrapped, "dst", dst)
}
