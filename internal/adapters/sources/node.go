package sources

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/adapters/cas" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/core/ports"
)

// NodeID is the unique identifier for the source plugins Graft node.
const NodeID graft.ID = "adapter.sources"

func init() {
	graft.Register(graft.Node[ports.SourcePlugins]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{cas.TreesNodeID},
		Run: func(ctx context.Context) (ports.SourcePlugins, error) {
			trees, err := graft.Dep[ports.TreeIO](ctx)
			if err != nil {
				return nil, err
			}
			return Registry(trees, nil), nil
		},
	})
}
