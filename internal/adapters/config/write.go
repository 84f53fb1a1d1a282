package config

import (
	"os"
	"path/filepath"

	"go.trai.ch/keel/internal/core/domain"
)

// writeFileAtomic replaces path with data so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "file", path)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "file", path)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "file", path)
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		_ = tmp.Close()
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "file", path)
	}
	if err := tmp.Close(); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "file", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "file", path)
	}
	return nil
}
