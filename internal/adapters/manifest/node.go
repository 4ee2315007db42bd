package manifest

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
)

// NodeID is the unique identifier for the manifest repository Graft node.
const NodeID graft.ID = "adapter.manifest"

func init() {
	graft.Register(graft.Node[ports.ManifestRepository]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ManifestRepository, error) {
			return NewRepository(afero.NewOsFs()), nil
		},
	})
}
