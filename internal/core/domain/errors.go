package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrNoMatchingVersion is returned when no published version satisfies the requested range or tag.
	ErrNoMatchingVersion = zerr.New("no matching version found")

	// ErrPackageNotFound is returned when the registry has no document for a package name.
	ErrPackageNotFound = zerr.New("package not found in registry")

	// ErrRegistryUnavailable is returned when a registry request fails after all retries.
	ErrRegistryUnavailable = zerr.New("registry unavailable")

	// ErrRegistryResponseInvalid is returned when a registry document cannot be decoded.
	ErrRegistryResponseInvalid = zerr.New("invalid registry response")

	// ErrIntegrityMismatch is returned when downloaded content does not match its recorded hash.
	ErrIntegrityMismatch = zerr.New("integrity mismatch: incorrect shasum")

	// ErrUnsupportedIntegrity is returned when an integrity string uses an unknown algorithm.
	ErrUnsupportedIntegrity = zerr.New("unsupported integrity algorithm")

	// ErrLockfileInvalid is returned when a lockfile has an unsupported version or a malformed structure.
	ErrLockfileInvalid = zerr.New("invalid lockfile")

	// ErrLockfileOutdated is returned by frozen installs when the lockfile does not satisfy the manifest.
	ErrLockfileOutdated = zerr.New("lockfile is not up to date with package.json")

	// ErrLockfileReadFailed is returned when the lockfile cannot be read.
	ErrLockfileReadFailed = zerr.New("failed to read lockfile")

	// ErrLockfileWriteFailed is returned when the lockfile cannot be written or removed.
	ErrLockfileWriteFailed = zerr.New("failed to write lockfile")

	// ErrCyclicDependencyOverflow is returned when dependency expansion exceeds the depth guard.
	ErrCyclicDependencyOverflow = zerr.New("cyclic dependency overflow")

	// ErrManifestNotFound is returned when the project has no package.json.
	ErrManifestNotFound = zerr.New("package.json not found")

	// ErrManifestInvalid is returned when package.json cannot be parsed.
	ErrManifestInvalid = zerr.New("invalid package.json")

	// ErrManifestWriteFailed is returned when package.json cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write package.json")

	// ErrInvalidSpecifier is returned when a dependency specifier cannot be interpreted.
	ErrInvalidSpecifier = zerr.New("invalid specifier")

	// ErrInvalidDepPath is returned when a dependency path cannot be parsed.
	ErrInvalidDepPath = zerr.New("invalid dependency path")

	// ErrStoreCreateFailed is returned when the content store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create store directory")

	// ErrStoreWriteFailed is returned when content cannot be written into the store.
	ErrStoreWriteFailed = zerr.New("failed to write to store")

	// ErrStoreReadFailed is returned when stored content cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read from store")

	// ErrTarballInvalid is returned when a package tarball is not a valid gzip tar archive.
	ErrTarballInvalid = zerr.New("invalid package tarball")

	// ErrTarballUnsafePath is returned when a tarball entry would escape the extraction directory.
	ErrTarballUnsafePath = zerr.New("tarball entry escapes extraction directory")

	// ErrLinkFailed is returned when a package cannot be placed into node_modules.
	ErrLinkFailed = zerr.New("failed to link package")

	// ErrModulesStateFailed is returned when the installed-state file cannot be read or written.
	ErrModulesStateFailed = zerr.New("failed to access node_modules state")

	// ErrConfigReadFailed is returned when the settings file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read settings")

	// ErrConfigInvalid is returned when settings fail validation.
	ErrConfigInvalid = zerr.New("invalid settings")

	// ErrNoPackagesSpecified is returned when add is called without package arguments.
	ErrNoPackagesSpecified = zerr.New("no packages specified")
)

// IsError reports whether target appears in the chain of err.
// zerr.With returns a copy of the sentinel, so the raw messages are compared as well.
func IsError(err, target error) bool {
	if err == nil || target == nil {
		return false
	}
	if errors.Is(err, target) {
		return true
	}

	want := target.Error()
	for current := err; current != nil; current = errors.Unwrap(current) {
		if z, ok := current.(*zerr.Error); ok {
			if z.Message() == want {
				return true
			}
			continue
		}
		if current.Error() == want {
			return true
		}
	}
	return false
}
