package fs

import (
	"encoding/binary"
	"io/fs"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultDigestCacheSize is the number of file digests remembered per process.
const DefaultDigestCacheSize = 16384

// DigestCache remembers the content digest of files by a fingerprint of their
// path and stat data, so unchanged files are not read again.
type DigestCache struct {
	entries *lru.Cache[uint64, domain.Digest]
}

// NewDigestCache creates a cache holding up to size digests.
func NewDigestCache(size int) (*DigestCache, error) {
	entries, err := lru.New[uint64, domain.Digest](size)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create digest cache"), "size", size)
	}
	return &DigestCache{entries: entries}, nil
}

// Lookup returns the remembered digest of the file at path.
func (c *DigestCache) Lookup(path string, info fs.FileInfo) (domain.Digest, bool) {
	return c.entries.Get(Fingerprint(path, info))
}

// Remember records the digest of the file at path.
func (c *DigestCache) Remember(path string, info fs.FileInfo, d domain.Digest) {
	c.entries.Add(Fingerprint(path, info), d)
}

// Len returns the number of remembered digests.
func (c *DigestCache) Len() int {
	return c.entries.Len()
}

// Fingerprint hashes the path, size, modification time and mode of a file.
func Fingerprint(path string, info fs.FileInfo) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(path)
	_, _ = h.Write([]byte{0})

	var buf [8]byte
	//nolint:gosec // Sizes are never negative.
	binary.LittleEndian.PutUint64(buf[:], uint64(info.Size()))
	_, _ = h.Write(buf[:])
	//nolint:gosec // Modification times before 1970 only lose ordering, not identity.
	binary.LittleEndian.PutUint64(buf[:], uint64(info.ModTime().UnixNano()))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(info.Mode()))
	_, _ = h.Write(buf[:])

	return h.Sum64()
}
