package sources

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
)

// Local serves "local" sources: a directory inside the project. Its revision
// is the digest of the directory tree, so editing the files makes the source
// inconsistent until it is tracked again.
type Local struct {
	stager
}

// NewLocal creates the local plugin.
func NewLocal(trees ports.TreeIO) *Local {
	return &Local{stager{trees: trees}}
}

// Kind returns "local".
func (*Local) Kind() string { return "local" }

// ResolveRef digests the directory.
func (l *Local) ResolveRef(ctx context.Context, root string, src domain.Source) (string, error) {
	dir, err := l.dir(root, src)
	if err != nil {
		return "", err
	}
	tree, err := l.trees.Import(ctx, hashStore{}, dir)
	if err != nil {
		return "", err
	}
	return tree.String(), nil
}

// Fetch imports the directory and checks that it still matches the pinned revision.
func (l *Local) Fetch(ctx context.Context, root string, src domain.Source, store ports.ContentStore) (domain.Digest, error) {
	dir, err := l.dir(root, src)
	if err != nil {
		return "", err
	}
	tree, err := l.trees.Import(ctx, store, dir)
	if err != nil {
		return "", err
	}
	if tree.String() != src.Ref {
		return "", domain.NewError(domain.ErrIntegrity,
			"path", src.Path, "expected", src.Ref, "actual", tree.String(),
			"hint", "the directory changed since it was tracked")
	}
	return tree, nil
}

func (*Local) dir(root string, src domain.Source) (string, error) {
	rel, err := domain.CleanEntryPath(filepath.ToSlash(src.Path))
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(dir)
	if err != nil {
		return "", domain.WrapError(err, domain.ErrStoreReadFailed, "path", src.Path)
	}
	if !info.IsDir() {
		return "", domain.NewError(domain.ErrStoreReadFailed, "path", src.Path, "reason", "not a directory")
	}
	return dir, nil
}
