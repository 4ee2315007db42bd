package domain

import (
	"os"
	"path/filepath"
)

const (
	// LockfileName is the name of the lockfile written next to package.json.
	LockfileName = "shrinkwrap.yaml"

	// LockfileVersion is the only lockfile format version this engine reads and writes.
	LockfileVersion = 2

	// ManifestName is the name of the project manifest.
	ManifestName = "package.json"

	// ModulesDirName is the name of the directory packages are placed into.
	ModulesDirName = "node_modules"

	// ModulesStateName is the name of the installed-state file inside node_modules.
	ModulesStateName = ".modules.yaml"

	// ModulesLayoutVersion identifies the node_modules layout written by the installer.
	ModulesLayoutVersion = 1

	// SettingsFileName is the base name of the project settings file (without extension).
	SettingsFileName = ".pnpmrc"

	// StoreDirName is the name of the content store directory.
	StoreDirName = ".pnpm-store"

	// StoreLayoutVersion is appended to the store directory so incompatible layouts never mix.
	StoreLayoutVersion = "v2"

	// DefaultRegistry is the registry used when no registry is configured.
	DefaultRegistry = "https://registry.npmjs.org/"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// ExecFilePerm is the permission for executable package files (rwxr-xr-x).
	ExecFilePerm = 0o755
)

// DefaultStorePath returns the default location of the shared content store.
// It lives in the user's home directory so every project on the machine shares it.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(StoreDirName, StoreLayoutVersion)
	}
	return filepath.Join(home, StoreDirName, StoreLayoutVersion)
}

// LockfilePath returns the lockfile location for a project directory.
func LockfilePath(dir string) string {
	return filepath.Join(dir, LockfileName)
}

// ManifestPath returns the manifest location for a project directory.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestName)
}

// ModulesDir returns the node_modules location for a project directory.
func ModulesDir(dir string) string {
	return filepath.Join(dir, ModulesDirName)
}

// ModulesStatePath returns the installed-state file location for a project directory.
func ModulesStatePath(dir string) string {
	return filepath.Join(dir, ModulesDirName, ModulesStateName)
}
