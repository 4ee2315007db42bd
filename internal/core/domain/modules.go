package domain

// ModulesState records what the installer placed into node_modules.
// It is written only after a successful install, so its presence means
// node_modules matches the lockfile it fingerprints.
type ModulesState struct {
	LayoutVersion int
	Registry      string
	// LockfileFingerprint is a hash of the encoded lockfile that was installed.
	LockfileFingerprint string
	Production          bool
	// Placed lists the dependency paths materialized under node_modules.
	Placed []string
	// RootLinks maps each linked root dependency name to its dependency path.
	RootLinks map[string]string
}
