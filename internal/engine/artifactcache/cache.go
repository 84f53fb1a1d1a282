// Package artifactcache maps cache keys to artifacts in the content store and
// mirrors them to a remote cache.
package artifactcache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactCache = (*Cache)(nil)

const (
	weakDirName        = "weak"
	remoteMemoSize     = 65536
	defaultTransferers = 8
)

// Options configures a Cache.
type Options struct {
	// Quota is the size in bytes above which artifacts are evicted. Zero disables eviction.
	Quota int64
	// Transfers bounds concurrent object transfers per push or pull.
	Transfers int
}

// Cache is the artifact cache of one project. Refs are files named after
// the key under .keel/artifacts holding the digest of the artifact metadata
// object. A ref's modification time is its last use.
type Cache struct {
	index  string
	locks  string
	store  ports.LocalStore
	remote ports.RemoteCache
	logger ports.Logger
	opts   Options

	// commitMu serializes index updates inside this process.
	commitMu sync.Mutex
	// gc fences eviction against producers holding uncommitted objects.
	gc sync.RWMutex

	retainMu sync.Mutex
	retained map[domain.CacheKey]int

	remoteHas  *lru.Cache[domain.Digest, struct{}]
	remoteDown atomic.Bool
}

// New creates the cache of the project rooted at root. remote may be nil.
func New(root string, store ports.LocalStore, remote ports.RemoteCache, logger ports.Logger, opts Options) (*Cache, error) {
	if opts.Transfers <= 0 {
		opts.Transfers = defaultTransferers
	}
	memo, err := lru.New[domain.Digest, struct{}](remoteMemoSize)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create remote presence cache")
	}

	c := &Cache{
		index:     domain.ArtifactIndexPath(root),
		locks:     domain.LocksPath(root),
		store:     store,
		remote:    remote,
		logger:    logger,
		opts:      opts,
		retained:  make(map[domain.CacheKey]int),
		remoteHas: memo,
	}
	for _, dir := range []string{c.index, filepath.Join(c.index, weakDirName), c.locks} {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return nil, domain.WrapError(err, domain.ErrStoreWriteFailed, "path", dir)
		}
	}
	return c, nil
}

// Store returns the local content store.
func (c *Cache) Store() ports.ContentStore {
	return c.store
}

// HasRemote reports whether a remote cache is configured and reachable so far.
func (c *Cache) HasRemote() bool {
	return c.remote != nil && !c.remoteDown.Load()
}

// Query returns the artifact committed under key. An artifact whose objects
// are no longer complete locally is reported as a miss.
func (c *Cache) Query(ctx context.Context, key domain.CacheKey) (domain.Artifact, bool, error) {
	return c.query(ctx, c.refPath(key))
}

// QueryWeak returns the most recent artifact committed under a weak key.
func (c *Cache) QueryWeak(ctx context.Context, weak domain.CacheKey) (domain.Artifact, bool, error) {
	if weak == "" {
		return domain.Artifact{}, false, nil
	}
	return c.query(ctx, c.weakPath(weak))
}

func (c *Cache) query(ctx context.Context, ref string) (domain.Artifact, bool, error) {
	meta, ok, err := readRef(ref)
	if err != nil || !ok {
		return domain.Artifact{}, false, err
	}

	art, err := c.load(ctx, meta)
	if errors.Is(err, domain.ErrObjectNotFound) {
		return domain.Artifact{}, false, nil
	}
	if err != nil {
		return domain.Artifact{}, false, err
	}

	complete, err := c.complete(ctx, art)
	if err != nil || !complete {
		return domain.Artifact{}, false, err
	}

	now := time.Now()
	_ = os.Chtimes(ref, now, now)
	return art, true, nil
}

// Commit records art under its key. Committing the same content again is a
// no-op. A successful artifact may replace a cached failure; any other
// difference is reported as domain.ErrAlreadyCommitted and the committed
// artifact is kept.
func (c *Cache) Commit(ctx context.Context, art domain.Artifact) error {
	if !art.Key.Valid() {
		return domain.NewError(domain.ErrInvalidDigest, "key", art.Key.String())
	}

	data, err := domain.EncodeArtifact(art)
	if err != nil {
		return zerr.Wrap(err, "failed to encode artifact")
	}
	meta, err := c.store.Put(ctx, data)
	if err != nil {
		return err
	}

	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	if current, ok, err := readRef(c.refPath(art.Key)); err != nil {
		return err
	} else if ok && current != meta {
		existing, err := c.load(ctx, current)
		switch {
		case errors.Is(err, domain.ErrObjectNotFound):
			// The previous artifact was evicted underneath its ref.
		case err != nil:
			return err
		case existing.SameContent(art):
			return nil
		case !existing.Success && art.Success:
			c.logger.Info("replacing cached failure of " + art.Element)
		default:
			return domain.NewError(domain.ErrAlreadyCommitted,
				"element", art.Element, "key", art.Key.Short(),
				"committed_tree", existing.Tree.Short(), "new_tree", art.Tree.Short())
		}
	}

	if err := writeRef(c.refPath(art.Key), meta); err != nil {
		return err
	}
	if art.WeakKey != "" {
		if err := writeRef(c.weakPath(art.WeakKey), meta); err != nil {
			return err
		}
	}
	return nil
}

// Retain fences keys against eviction until release is called.
func (c *Cache) Retain(keys ...domain.CacheKey) func() {
	c.retainMu.Lock()
	for _, k := range keys {
		c.retained[k]++
	}
	c.retainMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.retainMu.Lock()
			defer c.retainMu.Unlock()
			for _, k := range keys {
				if c.retained[k]--; c.retained[k] <= 0 {
					delete(c.retained, k)
				}
			}
		})
	}
}

// Fence holds off eviction while a producer writes objects that no ref
// points to yet. Release it after Commit.
func (c *Cache) Fence() func() {
	c.gc.RLock()
	var once sync.Once
	return func() { once.Do(c.gc.RUnlock) }
}

// Log returns the build log of the artifact committed under key.
func (c *Cache) Log(ctx context.Context, key domain.CacheKey) ([]byte, error) {
	art, ok, err := c.Query(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewError(domain.ErrArtifactNotFound, "key", key.String())
	}
	if art.Logs == "" {
		return nil, nil
	}
	return c.store.Get(ctx, art.Logs)
}

// Delete removes the ref of key and prunes objects nothing refers to anymore.
func (c *Cache) Delete(ctx context.Context, key domain.CacheKey) error {
	c.commitMu.Lock()
	meta, ok, err := readRef(c.refPath(key))
	if err == nil && ok {
		err = os.Remove(c.refPath(key))
		if err == nil {
			err = c.dropWeakRefs(meta)
		}
	}
	c.commitMu.Unlock()

	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "key", key.String())
	}
	if !ok {
		return domain.NewError(domain.ErrArtifactNotFound, "key", key.String())
	}

	_, err = c.Prune(ctx)
	return err
}

func (c *Cache) dropWeakRefs(meta domain.Digest) error {
	for ref, err := range refs(filepath.Join(c.index, weakDirName)) {
		if err != nil {
			return err
		}
		if ref.meta == meta {
			if err := os.Remove(ref.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

// load reads and decodes an artifact metadata object.
func (c *Cache) load(ctx context.Context, meta domain.Digest) (domain.Artifact, error) {
	data, err := c.store.Get(ctx, meta)
	if err != nil {
		return domain.Artifact{}, err
	}
	return domain.DecodeArtifact(data)
}

// complete reports whether every object of art is present locally.
func (c *Cache) complete(ctx context.Context, art domain.Artifact) (bool, error) {
	for _, d := range art.Digests() {
		ok, err := c.store.Has(ctx, d)
		if err != nil || !ok {
			return false, err
		}
	}
	if art.Tree == "" {
		return true, nil
	}
	for entry, err := range c.store.Walk(ctx, art.Tree) {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		ok, err := c.store.Has(ctx, entry.Digest)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c *Cache) refPath(key domain.CacheKey) string {
	return filepath.Join(c.index, key.String())
}

func (c *Cache) weakPath(key domain.CacheKey) string {
	return filepath.Join(c.index, weakDirName, key.String())
}

func readRef(path string) (domain.Digest, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.WrapError(err, domain.ErrStoreReadFailed, "ref", path)
	}
	d, err := domain.ParseDigest(strings.TrimSpace(string(data)))
	if err != nil {
		return "", false, domain.WrapError(err, domain.ErrIntegrity, "ref", path)
	}
	return d, true, nil
}

func writeRef(path string, meta domain.Digest) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(meta.String() + "\n"); err != nil {
		_ = tmp.Close()
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	if err := tmp.Close(); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "ref", path)
	}
	return nil
}
