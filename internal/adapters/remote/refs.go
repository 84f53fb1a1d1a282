package remote

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/keel/internal/core/domain"
)

// FileRefs is the key index of a cache server: one file per key holding the
// digest of the artifact metadata object.
type FileRefs struct {
	dir string
}

// NewFileRefs creates an index stored in dir.
func NewFileRefs(dir string) (*FileRefs, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, domain.WrapError(err, domain.ErrStoreWriteFailed, "path", dir)
	}
	return &FileRefs{dir: dir}, nil
}

// GetRef returns the digest recorded for key or domain.ErrRemoteMiss.
func (r *FileRefs) GetRef(key domain.CacheKey) (domain.Digest, error) {
	p, err := r.path(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", domain.NewError(domain.ErrRemoteMiss, "key", key.Short())
	}
	if err != nil {
		return "", domain.WrapError(err, domain.ErrStoreReadFailed, "key", key.Short())
	}
	return domain.ParseDigest(strings.TrimSpace(string(data)))
}

// PutRef records d for key, replacing any previous digest.
func (r *FileRefs) PutRef(key domain.CacheKey, d domain.Digest) error {
	p, err := r.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(r.dir, ".ref-*")
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(d.String() + "\n"); err != nil {
		_ = tmp.Close()
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	if err := tmp.Close(); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	return nil
}

func (r *FileRefs) path(key domain.CacheKey) (string, error) {
	if !domain.Digest(key).Valid() {
		return "", domain.NewError(domain.ErrInvalidDigest, "key", key.String())
	}
	return filepath.Join(r.dir, key.String()), nil
}
