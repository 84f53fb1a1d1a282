package linear

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/core/ports"
)

// NodeID is the unique identifier for the linear renderer Graft node.
const NodeID graft.ID = "adapter.linear"

func init() {
	graft.Register(graft.Node[ports.Renderer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(context.Context) (ports.Renderer, error) {
			return NewRenderer(nil, nil), nil
		},
	})
}
