package artifactcache

import (
	"context"
	"errors"
	"slices"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Pull downloads the artifact committed under key on the remote and commits
// it locally. Objects already present locally are not transferred.
func (c *Cache) Pull(ctx context.Context, key domain.CacheKey) (domain.Artifact, error) {
	if err := c.remoteReady(); err != nil {
		return domain.Artifact{}, err
	}

	release := c.Fence()
	defer release()

	meta, err := c.remote.GetRef(ctx, key)
	if err != nil {
		return domain.Artifact{}, c.remoteError(err, "key", key.Short())
	}

	data, err := c.download(ctx, meta)
	if err != nil {
		return domain.Artifact{}, err
	}
	art, err := domain.DecodeArtifact(data)
	if err != nil {
		return domain.Artifact{}, err
	}
	if art.Key != key {
		return domain.Artifact{}, domain.NewError(domain.ErrIntegrity, "key", key.Short(), "artifact_key", art.Key.Short())
	}

	if art.Tree != "" {
		treeData, err := c.download(ctx, art.Tree)
		if err != nil {
			return domain.Artifact{}, err
		}
		entries, err := domain.DecodeTree(treeData)
		if err != nil {
			return domain.Artifact{}, err
		}
		if err := c.downloadTree(ctx, entries); err != nil {
			return domain.Artifact{}, err
		}
	}
	if art.Logs != "" {
		if _, err := c.download(ctx, art.Logs); err != nil {
			return domain.Artifact{}, err
		}
	}

	if err := c.Commit(ctx, art); err != nil {
		return domain.Artifact{}, err
	}
	return art, nil
}

func (c *Cache) downloadTree(ctx context.Context, entries []domain.TreeEntry) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Transfers)
	for _, e := range entries {
		g.Go(func() error {
			data, err := c.download(ctx, e.Digest)
			if err != nil {
				return err
			}
			if e.Mode != domain.ModeTree {
				return nil
			}
			nested, err := domain.DecodeTree(data)
			if err != nil {
				return err
			}
			return c.downloadTree(ctx, nested)
		})
	}
	return g.Wait()
}

// download copies d from the remote unless it is present locally, verifying
// its content on the way.
func (c *Cache) download(ctx context.Context, d domain.Digest) ([]byte, error) {
	if data, err := c.store.Get(ctx, d); err == nil {
		return data, nil
	} else if !errors.Is(err, domain.ErrObjectNotFound) {
		return nil, err
	}

	data, err := c.remote.Get(ctx, d)
	if err != nil {
		return nil, c.remoteError(err, "digest", d.Short())
	}
	if got := domain.DigestOf(data); got != d {
		return nil, domain.NewError(domain.ErrIntegrity, "digest", d.String(), "actual", got.String())
	}
	if _, err := c.store.Put(ctx, data); err != nil {
		return nil, err
	}
	c.remoteHas.Add(d, struct{}{})
	return data, nil
}

// Push uploads the artifact committed under key. It reports false when the
// remote already had the artifact and all of its objects.
func (c *Cache) Push(ctx context.Context, key domain.CacheKey) (bool, error) {
	if err := c.remoteReady(); err != nil {
		return false, err
	}

	meta, ok, err := readRef(c.refPath(key))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, domain.NewError(domain.ErrArtifactNotFound, "key", key.String())
	}
	release := c.Retain(key)
	defer release()

	art, err := c.load(ctx, meta)
	if err != nil {
		return false, err
	}

	digests := append([]domain.Digest{meta}, art.Digests()...)
	if art.Tree != "" {
		for entry, err := range c.store.Walk(ctx, art.Tree) {
			if err != nil {
				return false, err
			}
			digests = append(digests, entry.Digest)
		}
	}
	slices.Sort(digests)
	digests = slices.Compact(digests)

	missing, err := c.findMissing(ctx, digests)
	if err != nil {
		return false, err
	}

	if len(missing) == 0 {
		current, err := c.remote.GetRef(ctx, key)
		if err == nil && current == meta {
			return false, nil
		}
		if err != nil && !errors.Is(err, domain.ErrRemoteMiss) {
			return false, c.remoteError(err, "key", key.Short())
		}
	}

	if err := c.upload(ctx, missing); err != nil {
		return false, err
	}
	if err := c.remote.PutRef(ctx, key, meta); err != nil {
		return false, c.remoteError(err, "key", key.Short())
	}
	return true, nil
}

func (c *Cache) findMissing(ctx context.Context, digests []domain.Digest) ([]domain.Digest, error) {
	unknown := make([]domain.Digest, 0, len(digests))
	for _, d := range digests {
		if !c.remoteHas.Contains(d) {
			unknown = append(unknown, d)
		}
	}
	if len(unknown) == 0 {
		return nil, nil
	}

	missing, err := c.remote.FindMissing(ctx, unknown)
	if err != nil {
		return nil, c.remoteError(err)
	}
	for _, d := range unknown {
		if !slices.Contains(missing, d) {
			c.remoteHas.Add(d, struct{}{})
		}
	}
	return missing, nil
}

func (c *Cache) upload(ctx context.Context, digests []domain.Digest) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Transfers)
	for _, d := range digests {
		g.Go(func() error {
			data, err := c.store.Get(ctx, d)
			if err != nil {
				return err
			}
			if _, err := c.remote.Put(ctx, data); err != nil {
				return c.remoteError(err, "digest", d.Short())
			}
			c.remoteHas.Add(d, struct{}{})
			return nil
		})
	}
	return g.Wait()
}

func (c *Cache) remoteReady() error {
	if c.remote == nil {
		return domain.NewError(domain.ErrRemoteUnavailable, "reason", "no remote cache configured")
	}
	if c.remoteDown.Load() {
		return domain.NewError(domain.ErrRemoteUnavailable, "reason", "remote cache was unreachable earlier in this run")
	}
	return nil
}

// remoteError classifies a remote failure. Connectivity failures mark the
// remote as down so the rest of the run works locally.
func (c *Cache) remoteError(err error, kv ...any) error {
	switch {
	case errors.Is(err, domain.ErrRemoteMiss), errors.Is(err, domain.ErrObjectNotFound):
		return domain.WrapError(err, domain.ErrRemoteMiss, kv...)
	case errors.Is(err, domain.ErrIntegrity), errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, domain.ErrRemoteUnauthenticated):
		c.markDown(err)
		return zerr.With(err, "remote", "unauthenticated")
	default:
		c.markDown(err)
		return domain.WrapError(err, domain.ErrRemoteUnavailable, kv...)
	}
}

func (c *Cache) markDown(err error) {
	if c.remoteDown.CompareAndSwap(false, true) {
		c.logger.Warn("remote cache unavailable, continuing with the local cache only: " + err.Error())
	}
}
