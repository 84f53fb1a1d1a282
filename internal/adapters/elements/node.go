package elements

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/core/ports"
)

// NodeID is the unique identifier for the element builders Graft node.
const NodeID graft.ID = "adapter.elements"

func init() {
	graft.Register(graft.Node[ports.ElementBuilders]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ElementBuilders, error) {
			return Registry(), nil
		},
	})
}
