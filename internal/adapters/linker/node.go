package linker

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/mjgerace/pnpm/internal/core/ports"
)

// NodeID is the unique identifier for the linker Graft node.
const NodeID graft.ID = "adapter.linker"

func init() {
	graft.Register(graft.Node[ports.Linker]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Linker, error) {
			return New(), nil
		},
	})
}
