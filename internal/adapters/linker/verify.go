package linker

import (
	"errors"
	"io/fs"
	"os"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"go.trai.ch/zerr"
)

// Verify reports whether every path exists. A dangling symlink counts as missing.
func (l *Linker) Verify(paths []string) (bool, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "path", path)
		}
	}
	return true, nil
}
