package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/cmd/keel/commands"
	"go.trai.ch/keel/internal/app"
	"go.trai.ch/keel/internal/build"
	"go.trai.ch/keel/internal/core/domain"
)

// mockApp records the last call it received.
type mockApp struct {
	global  app.GlobalOptions
	method  string
	targets []string
	args    []string
	opts    any
	err     error
}

func (m *mockApp) record(method string, targets []string, opts any, args ...string) error {
	if len(targets) == 0 {
		targets = nil
	}
	m.method, m.targets, m.opts, m.args = method, targets, opts, args
	return m.err
}

func (m *mockApp) Configure(opts app.GlobalOptions) { m.global = opts }

func (m *mockApp) Build(_ context.Context, targets []string, opts app.BuildOptions) error {
	return m.record("Build", targets, opts)
}

func (m *mockApp) Show(_ context.Context, targets []string, opts app.ShowOptions) error {
	return m.record("Show", targets, opts)
}

func (m *mockApp) Shell(_ context.Context, target string, opts app.ShellOptions) error {
	return m.record("Shell", nil, opts, target)
}

func (m *mockApp) SourceFetch(_ context.Context, targets []string, opts app.SourceOptions) error {
	return m.record("SourceFetch", targets, opts)
}

func (m *mockApp) SourceTrack(_ context.Context, targets []string, opts app.SourceOptions) error {
	return m.record("SourceTrack", targets, opts)
}

func (m *mockApp) SourceCheckout(_ context.Context, target, dir string) error {
	return m.record("SourceCheckout", nil, nil, target, dir)
}

func (m *mockApp) WorkspaceOpen(_ context.Context, element, dir string, force bool) error {
	return m.record("WorkspaceOpen", nil, force, element, dir)
}

func (m *mockApp) WorkspaceClose(_ context.Context, element string, remove bool) error {
	return m.record("WorkspaceClose", nil, remove, element)
}

func (m *mockApp) WorkspaceReset(_ context.Context, element string) error {
	return m.record("WorkspaceReset", nil, nil, element)
}

func (m *mockApp) WorkspaceList(context.Context) error {
	return m.record("WorkspaceList", nil, nil)
}

func (m *mockApp) ArtifactCheckout(_ context.Context, target, dir string) error {
	return m.record("ArtifactCheckout", nil, nil, target, dir)
}

func (m *mockApp) ArtifactLog(_ context.Context, target string) error {
	return m.record("ArtifactLog", nil, nil, target)
}

func (m *mockApp) ArtifactPull(_ context.Context, targets []string, opts app.ArtifactOptions) error {
	return m.record("ArtifactPull", targets, opts)
}

func (m *mockApp) ArtifactPush(_ context.Context, targets []string, opts app.ArtifactOptions) error {
	return m.record("ArtifactPush", targets, opts)
}

func (m *mockApp) ArtifactDelete(_ context.Context, targets []string) error {
	return m.record("ArtifactDelete", targets, nil)
}

func (m *mockApp) ArtifactReindex(context.Context) error {
	return m.record("ArtifactReindex", nil, nil)
}

func (m *mockApp) CacheServe(_ context.Context, opts app.ServeOptions) error {
	return m.record("CacheServe", nil, opts)
}

func execute(t *testing.T, m *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(m)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Build(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "build", "hello", "app", "--track", "--retry-failed", "--no-push", "--on-error", "continue")
		require.NoError(t, err)

		assert.Equal(t, "Build", m.method)
		assert.Equal(t, []string{"hello", "app"}, m.targets)
		assert.Equal(t, app.BuildOptions{
			Track:       true,
			RetryFailed: true,
			NoPush:      true,
			OnError:     domain.ContinueOnError,
		}, m.opts)
	})

	t.Run("rejects unknown error policy", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "build", "--on-error", "ignore")
		require.ErrorIs(t, err, domain.ErrConfigParseFailed)
		assert.Empty(t, m.method)
	})

	t.Run("returns error on build failure", func(t *testing.T) {
		m := &mockApp{err: errors.New("simulated error")}
		_, err := execute(t, m, "build", "target")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_GlobalFlags(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "-C", "/src/project", "--log-json", "-q", "show")
	require.NoError(t, err)

	assert.Equal(t, app.GlobalOptions{Dir: "/src/project", LogJSON: true, Quiet: true}, m.global)
}

func TestCommands_Show(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "show", "hello", "--deps", "none", "--format", "%{name}")
	require.NoError(t, err)
	assert.Equal(t, app.ShowOptions{Deps: domain.SelectNone, Format: "%{name}"}, m.opts)

	_, err = execute(t, m, "show", "--deps", "everything")
	require.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestCommands_Subcommands(t *testing.T) {
	tests := []struct {
		args    []string
		method  string
		targets []string
		opts    any
		rest    []string
	}{
		{args: []string{"shell", "hello", "--no-build"}, method: "Shell", opts: app.ShellOptions{NoBuild: true}, rest: []string{"hello"}},
		{args: []string{"source", "fetch", "a", "--track"}, method: "SourceFetch", targets: []string{"a"}, opts: app.SourceOptions{Deps: domain.SelectNone, Track: true}},
		{args: []string{"source", "track", "--deps", "build"}, method: "SourceTrack", opts: app.SourceOptions{Deps: domain.SelectBuild}},
		{args: []string{"source", "checkout", "a", "out"}, method: "SourceCheckout", rest: []string{"a", "out"}},
		{args: []string{"workspace", "open", "a", "ws", "-f"}, method: "WorkspaceOpen", opts: true, rest: []string{"a", "ws"}},
		{args: []string{"workspace", "close", "a", "--remove-dir"}, method: "WorkspaceClose", opts: true, rest: []string{"a"}},
		{args: []string{"workspace", "reset", "a"}, method: "WorkspaceReset", rest: []string{"a"}},
		{args: []string{"workspace", "list"}, method: "WorkspaceList"},
		{args: []string{"artifact", "checkout", "a", "out"}, method: "ArtifactCheckout", rest: []string{"a", "out"}},
		{args: []string{"artifact", "log", "a"}, method: "ArtifactLog", rest: []string{"a"}},
		{args: []string{"artifact", "pull", "a", "-d", "all"}, method: "ArtifactPull", targets: []string{"a"}, opts: app.ArtifactOptions{Deps: domain.SelectAll}},
		{args: []string{"artifact", "push", "a"}, method: "ArtifactPush", targets: []string{"a"}, opts: app.ArtifactOptions{Deps: domain.SelectNone}},
		{args: []string{"artifact", "delete", "a", "b"}, method: "ArtifactDelete", targets: []string{"a", "b"}},
		{args: []string{"artifact", "reindex"}, method: "ArtifactReindex"},
		{
			args:   []string{"cache", "serve", "--addr", "unix:///tmp/keel.sock", "--idle-timeout", "10m"},
			method: "CacheServe",
			opts:   app.ServeOptions{Addr: "unix:///tmp/keel.sock", IdleTimeout: 10 * time.Minute},
		},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Setenv(commands.EnvServeToken, "")
			m := &mockApp{}
			_, err := execute(t, m, tt.args...)
			require.NoError(t, err)

			assert.Equal(t, tt.method, m.method)
			assert.Equal(t, tt.targets, m.targets)
			assert.Equal(t, tt.opts, m.opts)
			if len(tt.rest) > 0 {
				assert.Equal(t, tt.rest, m.args)
			} else {
				assert.Empty(t, m.args)
			}
		})
	}
}

func TestCommands_ArgumentValidation(t *testing.T) {
	for _, args := range [][]string{
		{"shell"},
		{"workspace", "open", "a"},
		{"artifact", "delete"},
		{"artifact", "reindex", "extra"},
	} {
		m := &mockApp{}
		_, err := execute(t, m, args...)
		require.Error(t, err, "args %v", args)
		assert.Empty(t, m.method)
	}
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
	assert.Contains(t, out, build.Commit)
}
