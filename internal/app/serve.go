package app

import (
	"context"
	"path/filepath"
	"time"

	"go.trai.ch/keel/internal/adapters/remote" //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/core/domain"
)

// ServeOptions configures CacheServe.
type ServeOptions struct {
	// Addr is host:port or unix:///path.
	Addr string
	// Dir holds the served store. Empty serves the project's own store.
	Dir string
	// Token, when set, is required from every client.
	Token string
	// IdleTimeout stops the server after a period without calls. Zero serves
	// until ctx ends.
	IdleTimeout time.Duration
}

// CacheServe exposes a content store and artifact index as a remote cache
// until ctx ends or the server goes idle.
func (a *App) CacheServe(ctx context.Context, opts ServeOptions) error {
	root := opts.Dir
	if root == "" {
		var err error
		if root, err = a.Loader.DiscoverRoot(a.dir); err != nil {
			return err
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreReadFailed, "path", root)
	}

	store, err := a.Opener.Open(root)
	if err != nil {
		return err
	}
	refs, err := remote.NewFileRefs(filepath.Join(domain.StatePath(root), "served-refs"))
	if err != nil {
		return err
	}
	lis, err := remote.Listen(opts.Addr)
	if err != nil {
		return err
	}

	a.Logger.Info("serving store " + domain.CASPath(root))
	if opts.Token == "" {
		a.Logger.Warn("no token set, the cache accepts any client")
	}
	srv := remote.NewServer(store, refs, opts.Token, a.Logger, remote.WithIdleTimeout(opts.IdleTimeout))
	return srv.Serve(ctx, lis)
}
