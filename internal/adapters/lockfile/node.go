package lockfile

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
)

const (
	// NodeID is the unique identifier for the lockfile repository Graft node.
	NodeID graft.ID = "adapter.lockfile"

	// ModulesNodeID is the unique identifier for the node_modules state repository Graft node.
	ModulesNodeID graft.ID = "adapter.modules_state"
)

func init() {
	graft.Register(graft.Node[ports.LockfileRepository]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LockfileRepository, error) {
			return NewRepository(afero.NewOsFs()), nil
		},
	})

	graft.Register(graft.Node[ports.ModulesRepository]{
		ID:        ModulesNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ModulesRepository, error) {
			return NewModulesRepository(afero.NewOsFs()), nil
		},
	})
}
