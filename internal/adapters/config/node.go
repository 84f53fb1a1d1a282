package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the project loader Graft node.
	NodeID graft.ID = "adapter.config_loader"
	// RefsNodeID is the unique identifier for the project.refs store Graft node.
	RefsNodeID graft.ID = "adapter.config_refs"
	// WorkspacesNodeID is the unique identifier for the workspace record store Graft node.
	WorkspacesNodeID graft.ID = "adapter.config_workspaces"
)

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})

	graft.Register(graft.Node[ports.RefStore]{
		ID:        RefsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RefStore, error) {
			return NewRefFile(), nil
		},
	})

	graft.Register(graft.Node[ports.WorkspaceStore]{
		ID:        WorkspacesNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.WorkspaceStore, error) {
			return NewWorkspaceFile(), nil
		},
	})
}
