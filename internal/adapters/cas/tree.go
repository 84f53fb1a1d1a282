package cas

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"

	keelfs "go.trai.ch/keel/internal/adapters/fs"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
)

// PutTree encodes entries as a tree object and stores it in store.
func PutTree(ctx context.Context, store ports.ContentStore, entries []domain.TreeEntry) (domain.Digest, error) {
	data, err := domain.EncodeTree(entries)
	if err != nil {
		return "", err
	}
	return store.Put(ctx, data)
}

// Walk lazily yields the entries of tree, expanding nested trees with their path prefixed.
func Walk(ctx context.Context, store ports.ContentStore, tree domain.Digest) iter.Seq2[domain.TreeEntry, error] {
	return func(yield func(domain.TreeEntry, error) bool) {
		walkTree(ctx, store, tree, "", yield)
	}
}

func walkTree(
	ctx context.Context,
	store ports.ContentStore,
	tree domain.Digest,
	prefix string,
	yield func(domain.TreeEntry, error) bool,
) bool {
	data, err := store.Get(ctx, tree)
	if err != nil {
		return yield(domain.TreeEntry{}, err)
	}
	entries, err := domain.DecodeTree(data)
	if err != nil {
		return yield(domain.TreeEntry{}, zerr.With(err, "tree", tree.String()))
	}

	for _, e := range entries {
		if prefix != "" {
			e.Path = path.Join(prefix, e.Path)
		}
		if e.Mode == domain.ModeTree {
			if !walkTree(ctx, store, e.Digest, e.Path, yield) {
				return false
			}
			continue
		}
		if !yield(e, nil) {
			return false
		}
	}
	return true
}

var _ ports.TreeIO = (*Importer)(nil)

// Importer moves directory trees in and out of a content store.
type Importer struct {
	walker  *keelfs.Walker
	digests *keelfs.DigestCache
}

// NewImporter creates an Importer. digests may be nil.
func NewImporter(walker *keelfs.Walker, digests *keelfs.DigestCache) *Importer {
	return &Importer{walker: walker, digests: digests}
}

// Import stores every file below dir and returns the digest of the tree
// describing them. A missing dir imports as the empty tree.
func (i *Importer) Import(ctx context.Context, store ports.ContentStore, dir string) (domain.Digest, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return PutTree(ctx, store, nil)
	}

	var entries []domain.TreeEntry
	for file, err := range i.walker.WalkFiles(dir, nil) {
		if err != nil {
			return "", domain.WrapError(err, domain.ErrStoreReadFailed, "path", dir)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		entry, err := i.importFile(ctx, store, file)
		if err != nil {
			return "", err
		}
		entries = append(entries, entry)
	}
	return PutTree(ctx, store, entries)
}

func (i *Importer) importFile(ctx context.Context, store ports.ContentStore, file keelfs.Entry) (domain.TreeEntry, error) {
	entry := domain.TreeEntry{Path: file.Path, Mode: domain.ModeFile}

	if file.Info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(file.Abs)
		if err != nil {
			return entry, domain.WrapError(err, domain.ErrStoreReadFailed, "path", file.Abs)
		}
		entry.Mode = domain.ModeSymlink
		entry.Digest, err = store.Put(ctx, []byte(target))
		return entry, err
	}

	if file.Info.Mode()&0o111 != 0 {
		entry.Mode = domain.ModeExecutable
	}

	if i.digests != nil {
		if d, ok := i.digests.Lookup(file.Abs, file.Info); ok {
			if has, err := store.Has(ctx, d); err == nil && has {
				entry.Digest = d
				return entry, nil
			}
		}
	}

	data, err := os.ReadFile(file.Abs)
	if err != nil {
		return entry, domain.WrapError(err, domain.ErrStoreReadFailed, "path", file.Abs)
	}
	d, err := store.Put(ctx, data)
	if err != nil {
		return entry, err
	}
	if i.digests != nil {
		i.digests.Remember(file.Abs, file.Info, d)
	}
	entry.Digest = d
	return entry, nil
}

// Checkout writes the files of tree below dest.
func (i *Importer) Checkout(ctx context.Context, store ports.ContentStore, tree domain.Digest, dest string) error {
	return Checkout(ctx, store, tree, dest)
}

// Checkout writes the files of tree below dest. Existing files are replaced.
func Checkout(ctx context.Context, store ports.ContentStore, tree domain.Digest, dest string) error {
	if err := os.MkdirAll(dest, domain.DirPerm); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "path", dest)
	}

	for entry, err := range Walk(ctx, store, tree) {
		if err != nil {
			return err
		}
		rel, err := domain.CleanEntryPath(entry.Path)
		if err != nil {
			return err
		}
		if err := checkoutEntry(ctx, store, entry, filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			return zerr.With(err, "path", rel)
		}
	}
	return nil
}

func checkoutEntry(ctx context.Context, store ports.ContentStore, entry domain.TreeEntry, target string) error {
	data, err := store.Get(ctx, entry.Digest)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}

	switch entry.Mode {
	case domain.ModeSymlink:
		err = os.Symlink(string(data), target)
	case domain.ModeExecutable:
		//nolint:gosec // Executables need the execute bit.
		err = os.WriteFile(target, data, 0o755)
	default:
		err = os.WriteFile(target, data, domain.FilePerm)
	}
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	return nil
}
