package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/fs"
	"go.trai.ch/keel/internal/core/domain"
)

func TestDigestCache_TracksStatChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o600))

	cache, err := fs.NewDigestCache(8)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	_, ok := cache.Lookup(path, info)
	assert.False(t, ok)

	d := domain.DigestOf([]byte("one"))
	cache.Remember(path, info, d)
	got, ok := cache.Lookup(path, info)
	require.True(t, ok)
	assert.Equal(t, d, got)

	require.NoError(t, os.WriteFile(path, []byte("three"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	info, err = os.Stat(path)
	require.NoError(t, err)
	_, ok = cache.Lookup(path, info)
	assert.False(t, ok, "a modified file must not hit the memo")
}

func TestDigestCache_Evicts(t *testing.T) {
	dir := t.TempDir()
	cache, err := fs.NewDigestCache(2)
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o600))
		info, err := os.Stat(path)
		require.NoError(t, err)
		cache.Remember(path, info, domain.DigestOf([]byte(name)))
	}

	assert.Equal(t, 2, cache.Len())
}

func TestFingerprint_PathSensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	info, err := os.Stat(path)
	require.NoError(t, err)

	assert.Equal(t, fs.Fingerprint(path, info), fs.Fingerprint(path, info))
	assert.NotEqual(t, fs.Fingerprint(path, info), fs.Fingerprint(path+"2", info))
}
