package config

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
)

// NodeID is the unique identifier for the settings loader Graft node.
const NodeID graft.ID = "adapter.config_loader"

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ConfigLoader, error) {
			return NewLoader(afero.NewOsFs()), nil
		},
	})
}
