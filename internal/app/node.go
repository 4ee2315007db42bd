package app

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/mjgerace/pnpm/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"github.com/mjgerace/pnpm/internal/adapters/linker"   //nolint:depguard // Wired in app layer
	"github.com/mjgerace/pnpm/internal/adapters/lockfile" //nolint:depguard // Wired in app layer
	"github.com/mjgerace/pnpm/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"github.com/mjgerace/pnpm/internal/adapters/manifest" //nolint:depguard // Wired in app layer
	"github.com/mjgerace/pnpm/internal/adapters/tarball"  //nolint:depguard // Wired in app layer
	"github.com/mjgerace/pnpm/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components is what the entry point needs to run a command.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			manifest.NodeID,
			lockfile.NodeID,
			lockfile.ModulesNodeID,
			linker.NodeID,
			tarball.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	manifests, err := graft.Dep[ports.ManifestRepository](ctx)
	if err != nil {
		return nil, err
	}

	lockfiles, err := graft.Dep[ports.LockfileRepository](ctx)
	if err != nil {
		return nil, err
	}

	modules, err := graft.Dep[ports.ModulesRepository](ctx)
	if err != nil {
		return nil, err
	}

	lnk, err := graft.Dep[ports.Linker](ctx)
	if err != nil {
		return nil, err
	}

	extractor, err := graft.Dep[ports.Extractor](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, manifests, lockfiles, modules, lnk, extractor, log), nil
}
