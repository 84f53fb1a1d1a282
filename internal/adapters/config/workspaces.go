package config

import (
	"slices"
	"strings"
	"sync"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"gopkg.in/yaml.v3"
)

// WorkspaceFile implements ports.WorkspaceStore on .keel/workspaces.yaml.
type WorkspaceFile struct {
	FS FileSystem
	mu sync.Mutex
}

var _ ports.WorkspaceStore = (*WorkspaceFile)(nil)

// NewWorkspaceFile creates a WorkspaceFile on the real filesystem.
func NewWorkspaceFile() *WorkspaceFile {
	return &WorkspaceFile{FS: OSFS{}}
}

// Get returns the workspace of element, or nil when none is open.
func (w *WorkspaceFile) Get(root, element string) (*domain.Workspace, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	records, err := w.read(root)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(records, func(ws domain.Workspace) bool { return ws.Element == element })
	if i < 0 {
		return nil, nil
	}
	return &records[i], nil
}

// Put records ws, replacing any record for the same element.
func (w *WorkspaceFile) Put(root string, ws domain.Workspace) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	records, err := w.read(root)
	if err != nil {
		return err
	}
	records = slices.DeleteFunc(records, func(r domain.Workspace) bool { return r.Element == ws.Element })
	return w.write(root, append(records, ws))
}

// Delete removes the record for element.
func (w *WorkspaceFile) Delete(root, element string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	records, err := w.read(root)
	if err != nil {
		return err
	}
	n := len(records)
	records = slices.DeleteFunc(records, func(r domain.Workspace) bool { return r.Element == element })
	if len(records) == n {
		return domain.NewError(domain.ErrWorkspaceNotFound, "element", element)
	}
	return w.write(root, records)
}

// List returns all records sorted by element name.
func (w *WorkspaceFile) List(root string) ([]domain.Workspace, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.read(root)
}

func (w *WorkspaceFile) read(root string) ([]domain.Workspace, error) {
	path := domain.WorkspacesPath(root)
	data, err := w.FS.ReadFile(path)
	if notExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapError(err, domain.ErrStoreReadFailed, "file", path)
	}
	var file WorkspacesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.WrapError(err, domain.ErrConfigParseFailed, "file", path)
	}
	return file.Workspaces, nil
}

func (w *WorkspaceFile) write(root string, records []domain.Workspace) error {
	slices.SortFunc(records, func(a, b domain.Workspace) int { return strings.Compare(a.Element, b.Element) })
	data, err := yaml.Marshal(&WorkspacesFile{Workspaces: records})
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	return writeFileAtomic(domain.WorkspacesPath(root), data)
}
