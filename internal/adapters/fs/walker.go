// Package fs provides file system helpers for importing directories into the content store.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/keel/internal/core/domain"
)

// Entry is a file found by the walker.
type Entry struct {
	// Path is relative to the walked root, slash separated.
	Path string
	// Abs is the absolute path on disk.
	Abs  string
	Info fs.FileInfo
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields regular files and symlinks below root, skipping VCS and
// keel state directories and names matching one of the ignore patterns.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}

			if skip, action := w.shouldSkip(d, ignores); skip {
				return action
			}

			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
				// Sockets, devices and pipes have no content to store.
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			if !yield(Entry{Path: filepath.ToSlash(rel), Abs: path, Info: info}, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(Entry{}, err)
		}
	}
}

// shouldSkip reports whether d is ignored. For directories the action is
// filepath.SkipDir, for files it is nil.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() {
		switch name {
		case ".git", ".jj", domain.StateDirName:
			return true, filepath.SkipDir
		}
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}

	return false, nil
}
