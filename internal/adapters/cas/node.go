package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/keel/internal/adapters/fs"
	"go.trai.ch/keel/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the content store opener Graft node.
	NodeID graft.ID = "adapter.cas.opener"
	// TreesNodeID is the unique identifier for the tree import and checkout Graft node.
	TreesNodeID graft.ID = "adapter.cas.trees"
)

func init() {
	graft.Register(graft.Node[ports.StoreOpener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StoreOpener, error) {
			return Opener{}, nil
		},
	})

	graft.Register(graft.Node[ports.TreeIO]{
		ID:        TreesNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.WalkerNodeID, fs.DigestCacheNodeID},
		Run: func(ctx context.Context) (ports.TreeIO, error) {
			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			digests, err := graft.Dep[*fs.DigestCache](ctx)
			if err != nil {
				return nil, err
			}
			return NewImporter(walker, digests), nil
		},
	})
}
