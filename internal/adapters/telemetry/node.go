package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/adapters/linear" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/core/ports"
)

// TracerNodeID is the unique identifier for the Telemetry adapter Graft node.
const TracerNodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{linear.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			renderer, err := graft.Dep[ports.Renderer](ctx)
			if err != nil {
				return nil, err
			}
			return NewOTelTracer("keel", renderer), nil
		},
	})
}
