package watcher

import (
	"path/filepath"
	"slices"
	"strings"
)

// Index maps watched directories to the elements whose inputs live there.
type Index struct {
	dirs map[string][]string
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{dirs: make(map[string][]string)}
}

// Add registers dir as an input directory of element.
func (x *Index) Add(dir, element string) {
	dir = filepath.Clean(dir)
	if !slices.Contains(x.dirs[dir], element) {
		x.dirs[dir] = append(x.dirs[dir], element)
	}
}

// Dirs returns the registered directories sorted.
func (x *Index) Dirs() []string {
	dirs := make([]string, 0, len(x.dirs))
	for d := range x.dirs {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}

// Affected returns the sorted names of elements with a registered directory
// containing any of paths.
func (x *Index) Affected(paths []string) []string {
	var out []string
	for _, p := range paths {
		p = filepath.Clean(p)
		for dir, elements := range x.dirs {
			if p != dir && !strings.HasPrefix(p, dir+string(filepath.Separator)) {
				continue
			}
			for _, e := range elements {
				if !slices.Contains(out, e) {
					out = append(out, e)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}
