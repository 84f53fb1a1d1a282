package config

import (
	"path/filepath"
	"sync"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"gopkg.in/yaml.v3"
)

const refsHeader = "# Pinned source revisions. Written by keel source track.\n"

// RefFile implements ports.RefStore on project.refs.
type RefFile struct {
	FS FileSystem
	mu sync.Mutex
}

var _ ports.RefStore = (*RefFile)(nil)

// NewRefFile creates a RefFile on the real filesystem.
func NewRefFile() *RefFile {
	return &RefFile{FS: OSFS{}}
}

// SetRef records ref for source index of element.
func (r *RefFile) SetRef(root, element string, index int, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs, err := readRefs(r.FS, root)
	if err != nil {
		return err
	}
	if refs.Elements == nil {
		refs.Elements = map[string][]string{}
	}
	pinned := refs.Elements[element]
	for len(pinned) <= index {
		pinned = append(pinned, "")
	}
	pinned[index] = ref
	refs.Elements[element] = pinned

	data, err := yaml.Marshal(&refs)
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	return writeFileAtomic(filepath.Join(root, domain.RefsFileName), append([]byte(refsHeader), data...))
}

func readRefs(fsys FileSystem, root string) (RefsFile, error) {
	var refs RefsFile
	path := filepath.Join(root, domain.RefsFileName)
	data, err := fsys.ReadFile(path)
	if notExist(err) {
		return refs, nil
	}
	if err != nil {
		return refs, domain.WrapError(err, domain.ErrStoreReadFailed, "file", path)
	}
	if err := yaml.Unmarshal(data, &refs); err != nil {
		return refs, domain.WrapError(err, domain.ErrConfigParseFailed, "file", path)
	}
	return refs, nil
}
