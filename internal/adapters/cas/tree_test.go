package cas_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/cas"
	"go.trai.ch/keel/internal/adapters/fs"
	"go.trai.ch/keel/internal/core/domain"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func newImporter(t *testing.T) *cas.Importer {
	t.Helper()
	digests, err := fs.NewDigestCache(64)
	require.NoError(t, err)
	return cas.NewImporter(fs.NewWalker(), digests)
}

func TestImporter_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "README"), "docs", 0o644)
	writeFile(t, filepath.Join(src, "bin", "tool"), "#!/bin/sh\necho hi\n", 0o755)
	require.NoError(t, os.Symlink("bin/tool", filepath.Join(src, "tool")))

	importer := newImporter(t)
	tree, err := importer.Import(ctx, store, src)
	require.NoError(t, err)

	modes := map[string]domain.EntryMode{}
	for entry, err := range store.Walk(ctx, tree) {
		require.NoError(t, err)
		modes[entry.Path] = entry.Mode
	}
	assert.Equal(t, map[string]domain.EntryMode{
		"README":   domain.ModeFile,
		"bin/tool": domain.ModeExecutable,
		"tool":     domain.ModeSymlink,
	}, modes)

	dest := t.TempDir()
	require.NoError(t, cas.Checkout(ctx, store, tree, dest))

	data, err := os.ReadFile(filepath.Join(dest, "README"))
	require.NoError(t, err)
	assert.Equal(t, "docs", string(data))

	info, err := os.Stat(filepath.Join(dest, "bin", "tool"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100)

	target, err := os.Readlink(filepath.Join(dest, "tool"))
	require.NoError(t, err)
	assert.Equal(t, "bin/tool", target)

	// Importing the same content again yields the same tree.
	again, err := importer.Import(ctx, store, dest)
	require.NoError(t, err)
	assert.Equal(t, tree, again)
}

func TestImporter_MissingDirIsEmptyTree(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)

	tree, err := newImporter(t).Import(ctx, store, filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	empty, err := store.PutTree(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, empty, tree)
}

func TestWalk_ExpandsNestedTrees(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)

	blob, err := store.Put(ctx, []byte("leaf"))
	require.NoError(t, err)
	inner, err := store.PutTree(ctx, []domain.TreeEntry{{Path: "leaf.txt", Digest: blob}})
	require.NoError(t, err)
	outer, err := store.PutTree(ctx, []domain.TreeEntry{
		{Path: "top.txt", Digest: blob},
		{Path: "sub/dir", Digest: inner, Mode: domain.ModeTree},
	})
	require.NoError(t, err)

	var paths []string
	for entry, err := range cas.Walk(ctx, store, outer) {
		require.NoError(t, err)
		paths = append(paths, entry.Path)
	}
	assert.Equal(t, []string{"sub/dir/leaf.txt", "top.txt"}, paths)
}

func TestCheckout_RejectsMissingObjects(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)

	tree, err := store.PutTree(ctx, []domain.TreeEntry{{Path: "gone", Digest: domain.DigestOf([]byte("never stored"))}})
	require.NoError(t, err)

	err = cas.Checkout(ctx, store, tree, t.TempDir())
	require.ErrorIs(t, err, domain.ErrObjectNotFound)
}
