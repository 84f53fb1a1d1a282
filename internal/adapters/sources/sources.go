// Package sources provides the source plugins: local directories, git
// repositories and downloads.
package sources

import (
	"context"
	"iter"
	"net/http"
	"time"

	"go.trai.ch/keel/internal/adapters/cas" //nolint:depguard // Tree encoding is shared with the store.
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
)

// DefaultHTTPTimeout bounds a single download.
const DefaultHTTPTimeout = 10 * time.Minute

// Registry returns a plugin for every built-in source kind.
func Registry(trees ports.TreeIO, client *http.Client) ports.SourcePlugins {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	plugins := []ports.SourcePlugin{
		NewLocal(trees),
		NewGit(trees),
		NewRemote(trees, client),
		NewTar(trees, client),
	}
	out := make(ports.SourcePlugins, len(plugins))
	for _, p := range plugins {
		out[p.Kind()] = p
	}
	return out
}

// stager checks out fetched trees. Every plugin stores plain trees, so
// staging is the same for all of them.
type stager struct {
	trees ports.TreeIO
}

// Stage writes tree into dest.
func (s stager) Stage(ctx context.Context, store ports.ContentStore, tree domain.Digest, dest string) error {
	return s.trees.Checkout(ctx, store, tree, dest)
}

// hashStore computes digests without keeping content. It lets plugins derive
// the digest a tree would have before anything is fetched.
type hashStore struct{}

var _ ports.ContentStore = hashStore{}

func (hashStore) Put(_ context.Context, data []byte) (domain.Digest, error) {
	return domain.DigestOf(data), nil
}

func (hashStore) Get(_ context.Context, d domain.Digest) ([]byte, error) {
	return nil, domain.NewError(domain.ErrObjectNotFound, "digest", d.String())
}

func (hashStore) Has(context.Context, domain.Digest) (bool, error) {
	return false, nil
}

func (h hashStore) PutTree(ctx context.Context, entries []domain.TreeEntry) (domain.Digest, error) {
	return cas.PutTree(ctx, h, entries)
}

func (h hashStore) Walk(ctx context.Context, tree domain.Digest) iter.Seq2[domain.TreeEntry, error] {
	return cas.Walk(ctx, h, tree)
}
