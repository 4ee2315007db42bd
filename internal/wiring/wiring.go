// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/mjgerace/pnpm/internal/adapters/config"
	_ "github.com/mjgerace/pnpm/internal/adapters/linker"
	_ "github.com/mjgerace/pnpm/internal/adapters/lockfile"
	_ "github.com/mjgerace/pnpm/internal/adapters/logger"
	_ "github.com/mjgerace/pnpm/internal/adapters/manifest"
	_ "github.com/mjgerace/pnpm/internal/adapters/tarball"
	// Register app nodes.
	_ "github.com/mjgerace/pnpm/internal/app"
)
