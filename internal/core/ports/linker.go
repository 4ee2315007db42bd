package ports

// Linker places package files into node_modules.
//
//go:generate mockgen -source=linker.go -destination=mocks/mock_linker.go -package=mocks
type Linker interface {
	// ImportPackage makes the files of the stored package at src available at dst.
	ImportPackage(src, dst string) error

	// Symlink creates or replaces link so that it points to target.
	Symlink(target, link string) error

	// RemoveAll deletes path and everything below it.
	RemoveAll(path string) error

	// Verify reports whether every path exists. Symlinks count only when their target exists.
	Verify(paths []string) (bool, error)
}
