package sandbox

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/adapters/cas"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/core/ports"
)

// NodeID is the unique identifier for the sandbox Graft node.
const NodeID graft.ID = "adapter.sandbox"

func init() {
	graft.Register(graft.Node[ports.Sandbox]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{cas.TreesNodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Sandbox, error) {
			trees, err := graft.Dep[ports.TreeIO](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(trees, log), nil
		},
	})
}
