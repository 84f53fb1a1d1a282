package artifactcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/keel/internal/core/domain"
	"golang.org/x/sys/unix"
)

const lockPollInterval = 50 * time.Millisecond

// Lock takes an exclusive file lock for key, shared by every keel process
// using this project. It waits until the lock is free or ctx is done.
func (c *Cache) Lock(ctx context.Context, key domain.CacheKey) (func(), error) {
	path := filepath.Join(c.locks, key.String()+".lock")
	//nolint:gosec // Lock file inside the state directory.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, domain.PrivateFilePerm)
	if err != nil {
		return nil, domain.WrapError(err, domain.ErrStoreWriteFailed, "path", path)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		//nolint:gosec // File descriptors fit in int.
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = f.Close()
			return nil, domain.WrapError(err, domain.ErrStoreWriteFailed, "path", path)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		//nolint:gosec // File descriptors fit in int.
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}, nil
}
