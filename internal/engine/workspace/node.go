package workspace

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/adapters/config" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/core/ports"
)

// NodeID is the unique identifier for the workspace manager Graft node.
const NodeID graft.ID = "engine.workspace"

func init() {
	graft.Register(graft.Node[*Manager]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.WorkspacesNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Manager, error) {
			store, err := graft.Dep[ports.WorkspaceStore](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(store, log), nil
		},
	})
}
