package tarball

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/mjgerace/pnpm/internal/core/ports"
	"github.com/spf13/afero"
)

// NodeID is the unique identifier for the tarball extractor Graft node.
const NodeID graft.ID = "adapter.tarball"

func init() {
	graft.Register(graft.Node[ports.Extractor]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Extractor, error) {
			return New(afero.NewOsFs()), nil
		},
	})
}
