package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/fs"
)

func collect(t *testing.T, w *fs.Walker, root string, ignores []string) []string {
	t.Helper()
	var files []string
	for entry, err := range w.WalkFiles(root, ignores) {
		require.NoError(t, err)
		files = append(files, entry.Path)
	}
	slices.Sort(files)
	return files
}

func TestWalker_WalkFiles(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "dir1"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "dir2"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "file1.txt"), []byte("content1"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "dir1", "file2.txt"), []byte("content2"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "dir2", "file3.txt"), []byte("content3"), 0o600))
	require.NoError(t, os.Symlink("file1.txt", filepath.Join(tmpDir, "link")))

	files := collect(t, fs.NewWalker(), tmpDir, nil)
	assert.Equal(t, []string{"dir1/file2.txt", "dir2/file3.txt", "file1.txt", "link"}, files)
}

func TestWalker_WalkFiles_SkipsStateDirs(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".git", "objects"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".jj"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".keel", "cas"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "src"), 0o750))

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".git", "config"), []byte("gitconfig"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".jj", "store"), []byte("jjstore"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".keel", "cas", "x"), []byte("object"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "src", "main.c"), []byte("int main;"), 0o600))

	files := collect(t, fs.NewWalker(), tmpDir, nil)
	assert.Equal(t, []string{"src/main.c"}, files)
}

func TestWalker_WalkFiles_WithIgnores(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "build"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "main.c"), []byte("int main;"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "main.o"), []byte("obj"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "build", "output.bin"), []byte("binary"), 0o600))

	files := collect(t, fs.NewWalker(), tmpDir, []string{"*.o", "build"})
	assert.Equal(t, []string{"main.c"}, files)
}

func TestWalker_WalkFiles_EmptyDirectory(t *testing.T) {
	assert.Empty(t, collect(t, fs.NewWalker(), t.TempDir(), nil))
}

func TestWalker_WalkFiles_MissingRoot(t *testing.T) {
	var errs int
	for _, err := range fs.NewWalker().WalkFiles(filepath.Join(t.TempDir(), "missing"), nil) {
		if err != nil {
			errs++
		}
	}
	assert.Equal(t, 1, errs)
}
