package ports

import (
	"context"

	"go.trai.ch/keel/internal/core/domain"
)

// ArtifactCache maps cache keys to committed artifacts.
//
//go:generate mockgen -source=artifact_cache.go -destination=mocks/mock_artifact_cache.go -package=mocks
type ArtifactCache interface {
	// Query returns the artifact committed under key, if any.
	Query(ctx context.Context, key domain.CacheKey) (domain.Artifact, bool, error)
	// QueryWeak returns the most recent artifact committed under a weak key.
	QueryWeak(ctx context.Context, weak domain.CacheKey) (domain.Artifact, bool, error)
	// Commit records art under art.Key and art.WeakKey. Its objects must already be stored.
	Commit(ctx context.Context, art domain.Artifact) error
	// Pull downloads the artifact for key from the remote cache.
	Pull(ctx context.Context, key domain.CacheKey) (domain.Artifact, error)
	// Push uploads the artifact for key. It reports false when the remote already had it.
	Push(ctx context.Context, key domain.CacheKey) (bool, error)
	// HasRemote reports whether a usable remote cache is configured.
	HasRemote() bool
	// Retain fences keys against eviction until release is called.
	Retain(keys ...domain.CacheKey) (release func())
	// Fence holds off eviction while uncommitted objects are written.
	Fence() (release func())
	// Lock serializes producers of key across processes.
	Lock(ctx context.Context, key domain.CacheKey) (unlock func(), err error)
	// Evict removes least recently used artifacts when the cache exceeds its quota.
	Evict(ctx context.Context) (domain.PruneStats, error)
	// Prune removes objects no artifact or source refers to.
	Prune(ctx context.Context) (domain.PruneStats, error)
	// Reindex restores refs from artifact metadata found in the store.
	Reindex(ctx context.Context) (int, error)
	// Log returns the build log of the artifact committed under key.
	Log(ctx context.Context, key domain.CacheKey) ([]byte, error)
	// Delete removes the artifact committed under key.
	Delete(ctx context.Context, key domain.CacheKey) error
	// Store returns the local content store holding artifact trees.
	Store() ContentStore
}
