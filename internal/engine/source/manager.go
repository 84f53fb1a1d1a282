// Package source tracks, fetches and stages element sources.
package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
)

// Manager owns the consistency state of every source in a project. Pinned
// revisions start as declared in the project and change through Track.
type Manager struct {
	root    string
	plugins ports.SourcePlugins
	store   ports.ContentStore
	refs    ports.RefStore
	trees   ports.TreeIO
	index   string

	mu         sync.RWMutex
	sources    map[string][]domain.Source
	workspaces map[string]domain.Workspace
}

// NewManager creates a Manager for the elements of project.
func NewManager(
	project *domain.Project,
	plugins ports.SourcePlugins,
	store ports.ContentStore,
	refs ports.RefStore,
	trees ports.TreeIO,
	workspaces []domain.Workspace,
) *Manager {
	m := &Manager{
		root:       project.Root,
		plugins:    plugins,
		store:      store,
		refs:       refs,
		trees:      trees,
		index:      domain.SourceIndexPath(project.Root),
		sources:    make(map[string][]domain.Source, len(project.Elements)),
		workspaces: make(map[string]domain.Workspace, len(workspaces)),
	}
	for _, e := range project.Elements {
		m.sources[e.Name] = slices.Clone(e.Sources)
	}
	for _, ws := range workspaces {
		m.workspaces[ws.Element] = ws
	}
	return m
}

// Sources returns the element's sources with their current pinned revisions.
func (m *Manager) Sources(element string) []domain.Source {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.sources[element])
}

// Workspaced reports whether a workspace overrides the element's sources.
func (m *Manager) Workspaced(element string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.workspaces[element]
	return ok
}

// Workspace returns the open workspace of element.
func (m *Manager) Workspace(element string) (domain.Workspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, ok := m.workspaces[element]
	return ws, ok
}

// SetWorkspace moves the element's sources to the workspaced state, or back
// to their pinned state when ws is nil.
func (m *Manager) SetWorkspace(ctx context.Context, element string, ws *domain.Workspace) error {
	from, err := m.State(ctx, element)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ws != nil {
		if err := transition(from, domain.Workspaced); err != nil {
			return err
		}
		m.workspaces[element] = *ws
		return nil
	}

	delete(m.workspaces, element)
	return nil
}

// State returns the element's consistency: the least consistent of its
// sources, or Workspaced. Elements without sources are Cached.
func (m *Manager) State(ctx context.Context, element string) (domain.Consistency, error) {
	if m.Workspaced(element) {
		return domain.Workspaced, nil
	}

	states, err := m.SourceStates(ctx, element)
	if err != nil {
		return domain.Inconsistent, err
	}
	state := domain.Cached
	for _, s := range states {
		state = min(state, s)
	}
	return state, nil
}

// SourceStates returns the consistency of each source of element, ignoring workspaces.
func (m *Manager) SourceStates(ctx context.Context, element string) ([]domain.Consistency, error) {
	sources := m.Sources(element)
	out := make([]domain.Consistency, len(sources))
	for i, src := range sources {
		s, err := m.sourceState(ctx, src)
		if err != nil {
			return nil, zerr.With(err, "element", element)
		}
		out[i] = s
	}
	return out, nil
}

func (m *Manager) sourceState(ctx context.Context, src domain.Source) (domain.Consistency, error) {
	if src.Ref == "" {
		return domain.Inconsistent, nil
	}
	tree, ok, err := m.lookup(src)
	if err != nil {
		return domain.Inconsistent, err
	}
	if !ok {
		return domain.Resolved, nil
	}
	has, err := m.store.Has(ctx, tree)
	if err != nil {
		return domain.Inconsistent, err
	}
	if !has {
		return domain.Resolved, nil
	}
	return domain.Cached, nil
}

// Track resolves the tracking pattern of each source of element and persists
// new revisions. It reports whether any revision changed. On error the
// sources keep their previous revisions.
func (m *Manager) Track(ctx context.Context, element string) (bool, error) {
	sources := m.Sources(element)
	if len(sources) == 0 {
		return false, nil
	}

	refs := make([]string, len(sources))
	for i, src := range sources {
		plugin, err := m.plugin(src)
		if err != nil {
			return false, err
		}
		ref, err := plugin.ResolveRef(ctx, m.root, src)
		if err != nil {
			return false, domain.WrapError(err, domain.ErrTrackFailed, "element", element, "source", i)
		}
		if ref == "" {
			return false, domain.NewError(domain.ErrTrackFailed, "element", element, "source", i, "reason", "empty revision")
		}
		refs[i] = ref
	}

	changed := false
	for i, ref := range refs {
		if sources[i].Ref == ref {
			continue
		}
		from, err := m.sourceState(ctx, sources[i])
		if err != nil {
			return changed, err
		}
		if err := transition(from, domain.Resolved); err != nil {
			return changed, err
		}
		if err := m.refs.SetRef(m.root, element, i, ref); err != nil {
			return changed, zerr.With(err, "element", element)
		}

		m.mu.Lock()
		m.sources[element][i] = sources[i].WithRef(ref)
		m.mu.Unlock()
		changed = true
	}
	return changed, nil
}

// Fetch stores the pinned content of every source of element that is not
// cached yet.
func (m *Manager) Fetch(ctx context.Context, element string) error {
	for i, src := range m.Sources(element) {
		state, err := m.sourceState(ctx, src)
		if err != nil {
			return err
		}
		if state == domain.Cached {
			continue
		}
		if state == domain.Inconsistent {
			return domain.NewError(domain.ErrSourceInconsistent, "element", element, "source", i)
		}

		plugin, err := m.plugin(src)
		if err != nil {
			return err
		}
		tree, err := plugin.Fetch(ctx, m.root, src, m.store)
		if err != nil {
			if domain.IsFatal(err) {
				return zerr.With(err, "element", element)
			}
			return domain.WrapError(err, domain.ErrFetchFailed, "element", element, "source", i)
		}
		if err := m.record(src, tree); err != nil {
			return err
		}
	}
	return nil
}

// Mounts returns the tree of each source of element and where it is placed
// relative to the build directory. A workspace replaces the first source with
// the current content of the workspace directory.
func (m *Manager) Mounts(ctx context.Context, element string) ([]domain.Mount, error) {
	sources := m.Sources(element)
	ws, workspaced := m.Workspace(element)

	mounts := make([]domain.Mount, 0, len(sources)+1)
	for i, src := range sources {
		dir := path.Clean("/" + filepath.ToSlash(src.Directory))[1:]
		if workspaced && i == 0 {
			tree, err := m.trees.Import(ctx, m.store, ws.Path)
			if err != nil {
				return nil, zerr.With(err, "workspace", ws.Path)
			}
			mounts = append(mounts, domain.Mount{Path: dir, Tree: tree})
			continue
		}

		state, err := m.sourceState(ctx, src)
		if err != nil {
			return nil, err
		}
		if state != domain.Cached {
			return nil, domain.NewError(domain.ErrNotCached, "element", element, "source", i, "state", state.String())
		}
		tree, _, err := m.lookup(src)
		if err != nil {
			return nil, err
		}
		mounts = append(mounts, domain.Mount{Path: dir, Tree: tree})
	}

	if workspaced && len(sources) == 0 {
		tree, err := m.trees.Import(ctx, m.store, ws.Path)
		if err != nil {
			return nil, err
		}
		mounts = append(mounts, domain.Mount{Tree: tree})
	}
	return mounts, nil
}

// Checkout writes the pinned sources of element below dest. Every source must be cached.
func (m *Manager) Checkout(ctx context.Context, element, dest string) error {
	sources := m.Sources(element)
	if len(sources) == 0 {
		return domain.NewError(domain.ErrNoSources, "element", element)
	}
	return m.checkout(ctx, element, sources, dest)
}

// CheckoutPrimary writes the first source of element to dest.
func (m *Manager) CheckoutPrimary(ctx context.Context, element, dest string) error {
	sources := m.Sources(element)
	if len(sources) == 0 {
		return domain.NewError(domain.ErrNoSources, "element", element)
	}
	primary := sources[0]
	primary.Directory = ""
	return m.checkout(ctx, element, []domain.Source{primary}, dest)
}

func (m *Manager) checkout(ctx context.Context, element string, sources []domain.Source, dest string) error {
	for i, src := range sources {
		state, err := m.sourceState(ctx, src)
		if err != nil {
			return err
		}
		if state != domain.Cached {
			return domain.NewError(domain.ErrNotCached, "element", element, "source", i, "state", state.String())
		}

		tree, _, err := m.lookup(src)
		if err != nil {
			return err
		}
		plugin, err := m.plugin(src)
		if err != nil {
			return err
		}

		target := dest
		if src.Directory != "" {
			rel, err := domain.CleanEntryPath(src.Directory)
			if err != nil {
				return zerr.With(err, "element", element)
			}
			target = filepath.Join(dest, filepath.FromSlash(rel))
		}
		if err := plugin.Stage(ctx, m.store, tree, target); err != nil {
			return zerr.With(err, "element", element)
		}
	}
	return nil
}

func (m *Manager) plugin(src domain.Source) (ports.SourcePlugin, error) {
	plugin, ok := m.plugins[src.Kind]
	if !ok {
		return nil, domain.NewError(domain.ErrUnknownSourceKind, "kind", src.Kind)
	}
	return plugin, nil
}

// lookup reads the tree digest recorded for a fetched source.
func (m *Manager) lookup(src domain.Source) (domain.Digest, bool, error) {
	key, err := src.UniqueKey()
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(filepath.Join(m.index, key.String()))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.WrapError(err, domain.ErrStoreReadFailed, "source", key.String())
	}
	tree, err := domain.ParseDigest(strings.TrimSpace(string(data)))
	if err != nil {
		return "", false, domain.WrapError(err, domain.ErrIntegrity, "source", key.String())
	}
	return tree, true, nil
}

func (m *Manager) record(src domain.Source, tree domain.Digest) error {
	key, err := src.UniqueKey()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.index, domain.DirPerm); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed, "path", m.index)
	}

	tmp, err := os.CreateTemp(m.index, ".tmp-*")
	if err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.WriteString(tree.String() + "\n"); err != nil {
		_ = tmp.Close()
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	if err := tmp.Close(); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(m.index, key.String())); err != nil {
		return domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	return nil
}
