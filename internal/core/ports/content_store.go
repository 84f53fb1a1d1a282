package ports

import (
	"context"
	"iter"
	"time"

	"go.trai.ch/keel/internal/core/domain"
)

//go:generate mockgen -source=content_store.go -destination=mocks/mock_content_store.go -package=mocks

// ContentStore stores immutable objects addressed by their digest.
type ContentStore interface {
	// Put stores data and returns its digest. Storing existing content is a no-op.
	Put(ctx context.Context, data []byte) (domain.Digest, error)
	// Get returns the content of d or domain.ErrObjectNotFound.
	Get(ctx context.Context, d domain.Digest) ([]byte, error)
	// Has reports whether d is stored.
	Has(ctx context.Context, d domain.Digest) (bool, error)
	// PutTree stores a tree object built from entries.
	PutTree(ctx context.Context, entries []domain.TreeEntry) (domain.Digest, error)
	// Walk lazily yields the entries of a tree, expanding nested trees.
	Walk(ctx context.Context, tree domain.Digest) iter.Seq2[domain.TreeEntry, error]
}

// LocalStore is a ContentStore on local disk that supports garbage collection.
type LocalStore interface {
	ContentStore
	// Objects yields every stored digest.
	Objects(ctx context.Context) iter.Seq2[domain.Digest, error]
	// Sweep deletes objects for which keep returns false, sparing objects
	// written after cutoff. It returns the number of objects and bytes removed.
	Sweep(ctx context.Context, keep func(domain.Digest) bool, cutoff time.Time) (int, int64, error)
	// Size returns the total size of stored objects in bytes.
	Size(ctx context.Context) (int64, error)
}

// RemoteCache is a shared content store plus a key to artifact index.
type RemoteCache interface {
	ContentStore
	// FindMissing returns the digests the remote does not hold.
	FindMissing(ctx context.Context, digests []domain.Digest) ([]domain.Digest, error)
	// GetRef returns the artifact metadata digest for key or domain.ErrRemoteMiss.
	GetRef(ctx context.Context, key domain.CacheKey) (domain.Digest, error)
	// PutRef points key at an artifact metadata digest.
	PutRef(ctx context.Context, key domain.CacheKey, d domain.Digest) error
	// Close releases connections.
	Close() error
}

// StoreOpener opens the local content store of a project.
type StoreOpener interface {
	Open(root string) (LocalStore, error)
}

// RemoteDialer connects to the remote cache a project is configured with.
type RemoteDialer interface {
	Dial(ctx context.Context, opts domain.RemoteOptions) (RemoteCache, error)
}

// TreeIO moves trees between directories and a content store.
type TreeIO interface {
	// Import stores every file below dir and returns the tree digest.
	Import(ctx context.Context, store ContentStore, dir string) (domain.Digest, error)
	// Checkout writes the files of tree below dest.
	Checkout(ctx context.Context, store ContentStore, tree domain.Digest, dest string) error
}
