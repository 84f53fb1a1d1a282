package fs

import (
	"context"

	"github.com/grindlemire/graft"
)

const (
	// WalkerNodeID is the unique identifier for the walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// DigestCacheNodeID is the unique identifier for the digest cache Graft node.
	DigestCacheNodeID graft.ID = "adapter.fs.digest_cache"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[*DigestCache]{
		ID:        DigestCacheNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*DigestCache, error) {
			return NewDigestCache(DefaultDigestCacheSize)
		},
	})
}
