// Package cas implements the local content addressable store.
package cas

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.LocalStore = (*Store)(nil)

// Store keeps objects on disk under objects/<first two hex chars>/<rest>.
// Writes go through tmp/ and are linked into place, so an object is either
// complete or absent.
type Store struct {
	objects string
	tmp     string
}

// NewStore opens the store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	s := &Store{
		objects: filepath.Join(dir, domain.ObjectsDirName),
		tmp:     filepath.Join(dir, domain.TmpDirName),
	}
	for _, d := range []string{s.objects, s.tmp} {
		if err := os.MkdirAll(d, domain.DirPerm); err != nil {
			return nil, domain.WrapError(err, domain.ErrStoreWriteFailed, "path", d)
		}
	}
	return s, nil
}

// Opener opens the store of a project.
type Opener struct{}

// Open implements ports.StoreOpener.
func (Opener) Open(root string) (ports.LocalStore, error) {
	return NewStore(domain.CASPath(root))
}

// Path returns the file holding d.
func (s *Store) Path(d domain.Digest) string {
	return filepath.Join(s.objects, string(d[:2]), string(d[2:]))
}

// Put stores data and returns its digest. The object is synced to disk before Put returns.
func (s *Store) Put(ctx context.Context, data []byte) (domain.Digest, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d := domain.DigestOf(data)
	path := s.Path(d)
	if _, err := os.Stat(path); err == nil {
		// Refresh the mtime so a concurrent sweep sees the object as recent.
		now := time.Now()
		_ = os.Chtimes(path, now, now)
		return d, nil
	}

	if err := s.write(path, data); err != nil {
		return "", zerr.With(err, "digest", d.String())
	}
	return d, nil
}

func (s *Store) write(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.tmp, "obj-*")
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
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

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	// Link fails if another writer won the race, which is fine: content is identical.
	if err := os.Link(tmpName, path); err != nil && !errors.Is(err, fs.ErrExist) {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	return syncDir(dir)
}

func syncDir(dir string) error {
	//nolint:gosec // Directory inside the store.
	f, err := os.Open(dir)
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	defer func() { _ = f.Close() }()
	if err := f.Sync(); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	return nil
}

// Get returns the content of d, verifying it against the digest.
func (s *Store) Get(ctx context.Context, d domain.Digest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.Valid() {
		return nil, domain.NewError(domain.ErrInvalidDigest, "digest", d.String())
	}

	data, err := os.ReadFile(s.Path(d))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewError(domain.ErrObjectNotFound, "digest", d.String())
		}
		return nil, domain.WrapError(err, domain.ErrStoreReadFailed, "digest", d.String())
	}

	if got := domain.DigestOf(data); got != d {
		return nil, domain.NewError(domain.ErrIntegrity, "digest", d.String(), "actual", got.String())
	}
	return data, nil
}

// Has reports whether d is stored.
func (s *Store) Has(_ context.Context, d domain.Digest) (bool, error) {
	if !d.Valid() {
		return false, domain.NewError(domain.ErrInvalidDigest, "digest", d.String())
	}
	_, err := os.Stat(s.Path(d))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, domain.WrapError(err, domain.ErrStoreReadFailed, "digest", d.String())
	}
}

// PutTree stores a tree object built from entries.
func (s *Store) PutTree(ctx context.Context, entries []domain.TreeEntry) (domain.Digest, error) {
	return PutTree(ctx, s, entries)
}

// Walk yields the entries of tree, expanding nested trees.
func (s *Store) Walk(ctx context.Context, tree domain.Digest) iter.Seq2[domain.TreeEntry, error] {
	return Walk(ctx, s, tree)
}

// Objects yields every stored digest.
func (s *Store) Objects(ctx context.Context) iter.Seq2[domain.Digest, error] {
	return func(yield func(domain.Digest, error) bool) {
		for obj, err := range s.files(ctx) {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(obj.digest, nil) {
				return
			}
		}
	}
}

// Sweep removes objects that are not kept, sparing those written after cutoff.
func (s *Store) Sweep(ctx context.Context, keep func(domain.Digest) bool, cutoff time.Time) (int, int64, error) {
	var (
		count int
		freed int64
	)
	for obj, err := range s.files(ctx) {
		if err != nil {
			return count, freed, err
		}
		if keep(obj.digest) || obj.info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(obj.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return count, freed, domain.WrapError(err, domain.ErrStoreWriteFailed, "digest", obj.digest.String())
		}
		count++
		freed += obj.info.Size()
	}
	return count, freed, nil
}

// Size returns the total size of stored objects.
func (s *Store) Size(ctx context.Context) (int64, error) {
	var total int64
	for obj, err := range s.files(ctx) {
		if err != nil {
			return 0, err
		}
		total += obj.info.Size()
	}
	return total, nil
}

type object struct {
	digest domain.Digest
	path   string
	info   fs.FileInfo
}

func (s *Store) files(ctx context.Context) iter.Seq2[object, error] {
	return func(yield func(object, error) bool) {
		err := filepath.WalkDir(s.objects, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(s.objects, path)
			if err != nil {
				return err
			}
			digest := domain.Digest(strings.ReplaceAll(filepath.ToSlash(rel), "/", ""))
			if !digest.Valid() {
				return nil
			}
			info, err := d.Info()
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}
			if !yield(object{digest: digest, path: path, info: info}, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(object{}, domain.WrapError(err, domain.ErrStoreReadFailed))
		}
	}
}
