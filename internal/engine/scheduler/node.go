package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/adapters/elements"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/adapters/sandbox"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/keel/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			sandbox.NodeID,
			elements.NodeID,
			cas.TreesNodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			sb, err := graft.Dep[ports.Sandbox](ctx)
			if err != nil {
				return nil, err
			}

			builders, err := graft.Dep[ports.ElementBuilders](ctx)
			if err != nil {
				return nil, err
			}

			trees, err := graft.Dep[ports.TreeIO](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(sb, builders, trees, tracer, log), nil
		},
	})
}
