package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/config"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports/mocks"
	"go.trai.ch/keel/internal/engine/workspace"
	"go.uber.org/mock/gomock"
)

// fakeSources checks out a single file named after the pinned revision.
type fakeSources struct {
	sources    map[string][]domain.Source
	workspaces map[string]domain.Workspace
	checkouts  int
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		sources: map[string][]domain.Source{
			"hello": {{Kind: "git", URL: "https://example.com/hello.git", Ref: "abc123"}},
			"stack": nil,
		},
		workspaces: map[string]domain.Workspace{},
	}
}

func (f *fakeSources) Sources(element string) []domain.Source { return f.sources[element] }

func (f *fakeSources) Workspace(element string) (domain.Workspace, bool) {
	ws, ok := f.workspaces[element]
	return ws, ok
}

func (f *fakeSources) SetWorkspace(_ context.Context, element string, ws *domain.Workspace) error {
	if ws == nil {
		delete(f.workspaces, element)
		return nil
	}
	f.workspaces[element] = *ws
	return nil
}

func (f *fakeSources) CheckoutPrimary(_ context.Context, element, dest string) error {
	f.checkouts++
	ref := f.sources[element][0].Ref
	return os.WriteFile(filepath.Join(dest, ref), []byte(ref), domain.FilePerm)
}

func newManager(t *testing.T) *workspace.Manager {
	t.Helper()
	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	m := workspace.New(config.NewWorkspaceFile(), logger)
	m.SetNow(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) })
	return m
}

func TestManager_OpenCloseKeep(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(t.TempDir(), "hello")
	src := newFakeSources()
	m := newManager(t)
	ctx := context.Background()

	ws, err := m.Open(ctx, root, src, "hello", dir, workspace.OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, "abc123", ws.Ref)
	assert.FileExists(t, filepath.Join(dir, "abc123"))
	assert.Contains(t, src.workspaces, "hello")

	_, err = m.Open(ctx, root, src, "hello", dir, workspace.OpenOptions{})
	require.ErrorIs(t, err, domain.ErrWorkspaceExists)

	list, err := m.List(root)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, dir, list[0].Path)

	require.NoError(t, m.Close(ctx, root, src, "hello", false))
	assert.NotContains(t, src.workspaces, "hello")
	assert.DirExists(t, dir)

	err = m.Close(ctx, root, src, "hello", false)
	require.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}

func TestManager_CloseRemove(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(t.TempDir(), "hello")
	src := newFakeSources()
	m := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, root, src, "hello", dir, workspace.OpenOptions{})
	require.NoError(t, err)
	require.NoError(t, m.Close(ctx, root, src, "hello", true))
	assert.NoDirExists(t, dir)
}

func TestManager_OpenNonEmptyDir(t *testing.T) {
	root := t.TempDir()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale"), []byte("x"), domain.FilePerm))
	src := newFakeSources()
	m := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, root, src, "hello", dir, workspace.OpenOptions{})
	require.ErrorIs(t, err, domain.ErrWorkspaceDirNotEmpty)
	assert.Zero(t, src.checkouts)

	_, err = m.Open(ctx, root, src, "hello", dir, workspace.OpenOptions{Force: true})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "stale"))
}

func TestManager_OpenWithoutSources(t *testing.T) {
	m := newManager(t)
	_, err := m.Open(context.Background(), t.TempDir(), newFakeSources(), "stack", t.TempDir(), workspace.OpenOptions{})
	require.ErrorIs(t, err, domain.ErrNoSources)
}

func TestManager_Reset(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(t.TempDir(), "hello")
	src := newFakeSources()
	m := newManager(t)
	ctx := context.Background()

	_, err := m.Open(ctx, root, src, "hello", dir, workspace.OpenOptions{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edit.c"), []byte("local change"), domain.FilePerm))

	src.sources["hello"][0].Ref = "def456"
	ws, err := m.Reset(ctx, root, src, "hello")
	require.NoError(t, err)
	assert.Equal(t, "def456", ws.Ref)
	assert.NoFileExists(t, filepath.Join(dir, "edit.c"))
	assert.NoFileExists(t, filepath.Join(dir, "abc123"))
	assert.FileExists(t, filepath.Join(dir, "def456"))

	_, err = m.Reset(ctx, root, src, "stack")
	require.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}
