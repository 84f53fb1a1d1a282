package dialer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/core/ports"
)

// NodeID is the unique identifier for the remote dialer Graft node.
const NodeID graft.ID = "adapter.dialer"

func init() {
	graft.Register(graft.Node[ports.RemoteDialer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RemoteDialer, error) {
			return Dialer{}, nil
		},
	})
}
