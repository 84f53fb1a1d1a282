package artifactcache

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/keel/internal/core/domain"
)

type ref struct {
	key     domain.CacheKey
	path    string
	meta    domain.Digest
	modTime time.Time
}

// refs yields the refs stored directly in dir.
func refs(dir string) iter.Seq2[ref, error] {
	return func(yield func(ref, error) bool) {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			yield(ref{}, domain.WrapError(err, domain.ErrStoreReadFailed, "path", dir))
			return
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			path := filepath.Join(dir, e.Name())
			meta, ok, err := readRef(path)
			if err != nil {
				if !yield(ref{}, err) {
					return
				}
				continue
			}
			info, err := e.Info()
			if !ok || err != nil {
				continue
			}
			if !yield(ref{key: domain.CacheKey(e.Name()), path: path, meta: meta, modTime: info.ModTime()}, nil) {
				return
			}
		}
	}
}

// Evict removes least recently used artifacts once the store exceeds the
// quota, until it is below half the quota. Retained keys are never evicted.
func (c *Cache) Evict(ctx context.Context) (domain.PruneStats, error) {
	if c.opts.Quota <= 0 {
		return domain.PruneStats{}, nil
	}
	size, err := c.store.Size(ctx)
	if err != nil || size <= c.opts.Quota {
		return domain.PruneStats{}, err
	}

	c.gc.Lock()
	defer c.gc.Unlock()

	target := c.opts.Quota / 2
	var stats domain.PruneStats
	for size > target {
		candidates, err := c.evictionCandidates()
		if err != nil {
			return stats, err
		}
		if len(candidates) == 0 {
			c.logger.Warn("artifact cache is above its quota but every artifact is in use")
			return stats, nil
		}

		projected := size
		for _, r := range candidates {
			if projected <= target {
				break
			}
			projected -= c.artifactSize(ctx, r.meta)
			if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return stats, domain.WrapError(err, domain.ErrStoreWriteFailed, "key", r.key.String())
			}
			if err := c.dropWeakRefs(r.meta); err != nil {
				return stats, err
			}
			stats.Refs++
		}

		swept, err := c.sweep(ctx)
		if err != nil {
			return stats, err
		}
		stats.Objects += swept.Objects
		stats.Bytes += swept.Bytes

		if size, err = c.store.Size(ctx); err != nil {
			return stats, err
		}
		if swept.Objects == 0 {
			break
		}
	}
	return stats, nil
}

// Prune removes every object no ref points to.
func (c *Cache) Prune(ctx context.Context) (domain.PruneStats, error) {
	c.gc.Lock()
	defer c.gc.Unlock()
	return c.sweep(ctx)
}

// evictionCandidates returns unretained refs, least recently used first.
func (c *Cache) evictionCandidates() ([]ref, error) {
	c.retainMu.Lock()
	defer c.retainMu.Unlock()

	var out []ref
	for r, err := range refs(c.index) {
		if err != nil {
			return nil, err
		}
		if c.retained[r.key] > 0 {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b ref) int { return a.modTime.Compare(b.modTime) })
	return out, nil
}

func (c *Cache) artifactSize(ctx context.Context, meta domain.Digest) int64 {
	art, err := c.load(ctx, meta)
	if err != nil {
		return 0
	}
	var total int64
	if data, err := c.store.Get(ctx, art.Logs); err == nil {
		total += int64(len(data))
	}
	for entry, err := range c.store.Walk(ctx, art.Tree) {
		if err != nil {
			break
		}
		if data, err := c.store.Get(ctx, entry.Digest); err == nil {
			total += int64(len(data))
		}
	}
	return total
}

// sweep marks everything reachable from artifact and source refs and removes
// the rest. The caller holds the gc lock.
func (c *Cache) sweep(ctx context.Context) (domain.PruneStats, error) {
	cutoff := time.Now()
	live := make(map[domain.Digest]struct{})

	mark := func(d domain.Digest) { live[d] = struct{}{} }
	markTree := func(tree domain.Digest) error {
		mark(tree)
		for entry, err := range c.store.Walk(ctx, tree) {
			if errors.Is(err, domain.ErrObjectNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mark(entry.Digest)
		}
		return nil
	}

	for _, dir := range []string{c.index, filepath.Join(c.index, weakDirName)} {
		for r, err := range refs(dir) {
			if err != nil {
				return domain.PruneStats{}, err
			}
			mark(r.meta)
			art, err := c.load(ctx, r.meta)
			if err != nil {
				continue
			}
			if art.Logs != "" {
				mark(art.Logs)
			}
			if art.Tree != "" {
				if err := markTree(art.Tree); err != nil {
					return domain.PruneStats{}, err
				}
			}
		}
	}

	// Fetched sources share the store and stay reachable through the source index.
	for r, err := range refs(filepath.Join(filepath.Dir(c.index), domain.SourcesDirName)) {
		if err != nil {
			return domain.PruneStats{}, err
		}
		if err := markTree(r.meta); err != nil {
			return domain.PruneStats{}, err
		}
	}

	count, bytes, err := c.store.Sweep(ctx, func(d domain.Digest) bool {
		_, ok := live[d]
		return ok
	}, cutoff)
	return domain.PruneStats{Objects: count, Bytes: bytes}, err
}

// Reindex rebuilds missing refs by scanning the store for artifact metadata.
// It returns the number of refs restored.
func (c *Cache) Reindex(ctx context.Context) (int, error) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	restored := 0
	for d, err := range c.store.Objects(ctx) {
		if err != nil {
			return restored, err
		}
		data, err := c.store.Get(ctx, d)
		if err != nil {
			return restored, err
		}
		if !domain.IsArtifactObject(data) {
			continue
		}
		art, err := domain.DecodeArtifact(data)
		if err != nil || !art.Key.Valid() {
			continue
		}
		if _, ok, err := readRef(c.refPath(art.Key)); err != nil || ok {
			continue
		}
		if complete, err := c.complete(ctx, art); err != nil || !complete {
			continue
		}
		if err := writeRef(c.refPath(art.Key), d); err != nil {
			return restored, err
		}
		if art.WeakKey != "" {
			if _, ok, _ := readRef(c.weakPath(art.WeakKey)); !ok {
				_ = writeRef(c.weakPath(art.WeakKey), d)
			}
		}
		restored++
	}
	return restored, nil
}
