package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/adapters/cas"     //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/adapters/config"  //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/adapters/dialer"  //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/adapters/linear"  //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/adapters/sources" //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/keel/internal/engine/scheduler"
	"go.trai.ch/keel/internal/engine/workspace"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			config.RefsNodeID,
			cas.NodeID,
			cas.TreesNodeID,
			dialer.NodeID,
			sources.NodeID,
			scheduler.NodeID,
			workspace.NodeID,
			watcher.NodeID,
			linear.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	var (
		deps Dependencies
		err  error
	)
	if deps.Loader, err = graft.Dep[ports.ConfigLoader](ctx); err != nil {
		return nil, err
	}
	if deps.Refs, err = graft.Dep[ports.RefStore](ctx); err != nil {
		return nil, err
	}
	if deps.Opener, err = graft.Dep[ports.StoreOpener](ctx); err != nil {
		return nil, err
	}
	if deps.Trees, err = graft.Dep[ports.TreeIO](ctx); err != nil {
		return nil, err
	}
	if deps.Dialer, err = graft.Dep[ports.RemoteDialer](ctx); err != nil {
		return nil, err
	}
	if deps.Plugins, err = graft.Dep[ports.SourcePlugins](ctx); err != nil {
		return nil, err
	}
	if deps.Scheduler, err = graft.Dep[*scheduler.Scheduler](ctx); err != nil {
		return nil, err
	}
	if deps.Workspaces, err = graft.Dep[*workspace.Manager](ctx); err != nil {
		return nil, err
	}
	if deps.Watcher, err = graft.Dep[ports.Watcher](ctx); err != nil {
		return nil, err
	}
	if deps.Renderer, err = graft.Dep[ports.Renderer](ctx); err != nil {
		return nil, err
	}
	if deps.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}
	return New(deps), nil
}
