// Package workspace manages mutable checkouts that replace an element's
// primary source.
package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
)

// Sources is the source state a workspace is opened against.
type Sources interface {
	Sources(element string) []domain.Source
	Workspace(element string) (domain.Workspace, bool)
	SetWorkspace(ctx context.Context, element string, ws *domain.Workspace) error
	CheckoutPrimary(ctx context.Context, element, dest string) error
}

// Manager opens, closes and resets workspaces and keeps their records.
type Manager struct {
	store  ports.WorkspaceStore
	logger ports.Logger
	now    func() time.Time
}

// New creates a Manager persisting records in store.
func New(store ports.WorkspaceStore, logger ports.Logger) *Manager {
	return &Manager{store: store, logger: logger, now: time.Now}
}

// OpenOptions configures Open.
type OpenOptions struct {
	// Force allows opening into a non-empty directory, whose content is replaced.
	Force bool
}

// Open checks out the pinned primary source of element into dir and binds
// dir to the element. The source must be fetched.
func (m *Manager) Open(
	ctx context.Context,
	root string,
	src Sources,
	element, dir string,
	opts OpenOptions,
) (domain.Workspace, error) {
	if _, ok := src.Workspace(element); ok {
		return domain.Workspace{}, domain.NewError(domain.ErrWorkspaceExists, "element", element)
	}
	existing, err := m.store.Get(root, element)
	if err != nil {
		return domain.Workspace{}, err
	}
	if existing != nil {
		return domain.Workspace{}, domain.NewError(domain.ErrWorkspaceExists, "element", element, "path", existing.Path)
	}

	sources := src.Sources(element)
	if len(sources) == 0 {
		return domain.Workspace{}, domain.NewError(domain.ErrNoSources, "element", element)
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return domain.Workspace{}, zerr.Wrap(err, "failed to resolve workspace directory")
	}
	created, err := prepareDir(dir, opts.Force)
	if err != nil {
		return domain.Workspace{}, zerr.With(err, "element", element)
	}

	if err := src.CheckoutPrimary(ctx, element, dir); err != nil {
		if created {
			_ = os.RemoveAll(dir)
		}
		return domain.Workspace{}, err
	}

	ws := domain.Workspace{
		Element: element,
		Path:    dir,
		Ref:     sources[0].Ref,
		Opened:  m.now().UTC(),
	}
	if err := m.store.Put(root, ws); err != nil {
		return domain.Workspace{}, err
	}
	if err := src.SetWorkspace(ctx, element, &ws); err != nil {
		return domain.Workspace{}, err
	}
	m.logger.Info("opened workspace for " + element + " at " + dir)
	return ws, nil
}

// Close unbinds the workspace of element. With remove the directory is deleted.
func (m *Manager) Close(ctx context.Context, root string, src Sources, element string, remove bool) error {
	ws, err := m.lookup(root, element)
	if err != nil {
		return err
	}
	if err := m.store.Delete(root, element); err != nil {
		return err
	}
	if err := src.SetWorkspace(ctx, element, nil); err != nil {
		return err
	}
	if remove {
		if err := os.RemoveAll(ws.Path); err != nil {
			return domain.WrapError(err, domain.ErrStoreWriteFailed, "path", ws.Path)
		}
		m.logger.Info("closed workspace for " + element + " and removed " + ws.Path)
		return nil
	}
	m.logger.Info("closed workspace for " + element + ", kept " + ws.Path)
	return nil
}

// Reset replaces the workspace content of element with its pinned primary source.
func (m *Manager) Reset(ctx context.Context, root string, src Sources, element string) (domain.Workspace, error) {
	ws, err := m.lookup(root, element)
	if err != nil {
		return domain.Workspace{}, err
	}
	if _, err := prepareDir(ws.Path, true); err != nil {
		return domain.Workspace{}, zerr.With(err, "element", element)
	}
	if err := src.CheckoutPrimary(ctx, element, ws.Path); err != nil {
		return domain.Workspace{}, err
	}
	if sources := src.Sources(element); len(sources) > 0 {
		ws.Ref = sources[0].Ref
	}
	if err := m.store.Put(root, ws); err != nil {
		return domain.Workspace{}, err
	}
	m.logger.Info("reset workspace for " + element)
	return ws, nil
}

// List returns the open workspaces of the project sorted by element.
func (m *Manager) List(root string) ([]domain.Workspace, error) {
	return m.store.List(root)
}

func (m *Manager) lookup(root, element string) (domain.Workspace, error) {
	ws, err := m.store.Get(root, element)
	if err != nil {
		return domain.Workspace{}, err
	}
	if ws == nil {
		return domain.Workspace{}, domain.NewError(domain.ErrWorkspaceNotFound, "element", element)
	}
	return *ws, nil
}

// prepareDir makes dir an empty directory. A non-empty dir is emptied only
// with force. It reports whether dir was created.
func prepareDir(dir string, force bool) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return false, domain.WrapError(err, domain.ErrStoreWriteFailed, "path", dir)
		}
		return true, nil
	}
	if err != nil {
		return false, domain.WrapError(err, domain.ErrStoreReadFailed, "path", dir)
	}
	if len(entries) == 0 {
		return false, nil
	}
	if !force {
		return false, domain.NewError(domain.ErrWorkspaceDirNotEmpty, "path", dir)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return false, domain.WrapError(err, domain.ErrStoreWriteFailed, "path", dir)
		}
	}
	return false, nil
}
