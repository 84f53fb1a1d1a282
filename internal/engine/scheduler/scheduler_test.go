package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/cas"
	"go.trai.ch/keel/internal/adapters/fs"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/keel/internal/core/ports/mocks"
	"go.trai.ch/keel/internal/engine/artifactcache"
	"go.trai.ch/keel/internal/engine/cachekey"
	"go.trai.ch/keel/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// fakeSources keeps one pinned source per element and fetches it into the store.
type fakeSources struct {
	store ports.ContentStore

	mu         sync.Mutex
	refs       map[string]string
	workspaced map[string]bool
	fetched    map[string]domain.Digest
	fetches    int
	fetchCalls int
	// fetchFailures makes that many upcoming fetches fail.
	fetchFailures int
}

func newFakeSources(store ports.ContentStore) *fakeSources {
	return &fakeSources{
		store:      store,
		refs:       map[string]string{},
		workspaced: map[string]bool{},
		fetched:    map[string]domain.Digest{},
	}
}

func (f *fakeSources) setRef(element, ref string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[element] = ref
}

func (f *fakeSources) Sources(element string) []domain.Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.refs[element]
	if !ok {
		return nil
	}
	return []domain.Source{{Kind: "fake", URL: "https://example.com/" + element, Ref: ref}}
}

func (f *fakeSources) Workspaced(element string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workspaced[element]
}

func (f *fakeSources) State(_ context.Context, element string) (domain.Consistency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.workspaced[element] {
		return domain.Workspaced, nil
	}
	ref, ok := f.refs[element]
	switch {
	case !ok:
		return domain.Cached, nil
	case ref == "":
		return domain.Inconsistent, nil
	}
	if _, ok := f.fetched[element+"@"+ref]; ok {
		return domain.Cached, nil
	}
	return domain.Resolved, nil
}

func (f *fakeSources) Track(context.Context, string) (bool, error) {
	return false, nil
}

func (f *fakeSources) Fetch(ctx context.Context, element string) error {
	f.mu.Lock()
	ref := f.refs[element]
	f.fetchCalls++
	if f.fetchFailures > 0 {
		f.fetchFailures--
		f.mu.Unlock()
		return domain.NewError(domain.ErrFetchFailed, "element", element)
	}
	f.mu.Unlock()

	tree, err := f.tree(ctx, "src/"+element, "source of "+element+"@"+ref)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched[element+"@"+ref] = tree
	f.fetches++
	return nil
}

func (f *fakeSources) Mounts(ctx context.Context, element string) ([]domain.Mount, error) {
	if f.Workspaced(element) {
		tree, err := f.tree(ctx, "src/"+element, "workspace of "+element)
		return []domain.Mount{{Tree: tree}}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.refs[element]
	if !ok {
		return nil, nil
	}
	tree, ok := f.fetched[element+"@"+ref]
	if !ok {
		return nil, domain.NewError(domain.ErrNotCached, "element", element)
	}
	return []domain.Mount{{Tree: tree}}, nil
}

func (f *fakeSources) Checkout(context.Context, string, string) error {
	return nil
}

func (f *fakeSources) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSources) tree(ctx context.Context, path, content string) (domain.Digest, error) {
	blob, err := f.store.Put(ctx, []byte(content))
	if err != nil {
		return "", err
	}
	return f.store.PutTree(ctx, []domain.TreeEntry{{Path: path, Digest: blob}})
}

type planBuilder struct {
	kind string
	plan domain.BuildPlan
}

func (b planBuilder) Kind() string { return b.kind }

func (b planBuilder) Plan(*domain.Element) (domain.BuildPlan, error) { return b.plan, nil }

type harness struct {
	store   *cas.Store
	cache   *artifactcache.Cache
	sources *fakeSources
	sandbox *mocks.MockSandbox
	logger  *mocks.MockLogger
	sched   *scheduler.Scheduler
	options domain.Options
}

func newHarness(t *testing.T, remote ports.RemoteCache) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	store, err := cas.NewStore(domain.CASPath(root))
	require.NoError(t, err)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()

	cache, err := artifactcache.New(root, store, remote, logger, artifactcache.Options{})
	require.NoError(t, err)

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) { return len(p), nil }).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()

	builders := ports.ElementBuilders{
		"manual":  planBuilder{kind: "manual", plan: domain.BuildPlan{Commands: []string{"make install"}}},
		"import":  planBuilder{kind: "import", plan: domain.BuildPlan{Strategy: domain.StrategyImport}},
		"compose": planBuilder{kind: "compose", plan: domain.BuildPlan{Strategy: domain.StrategyCompose}},
	}
	sandbox := mocks.NewMockSandbox(ctrl)
	trees := cas.NewImporter(fs.NewWalker(), nil)

	opts := domain.DefaultOptions()
	opts.RetryBackoff = 0

	return &harness{
		store:   store,
		cache:   cache,
		sources: newFakeSources(store),
		sandbox: sandbox,
		logger:  logger,
		sched:   scheduler.New(sandbox, builders, trees, tracer, logger),
		options: opts,
	}
}

func (h *harness) request(t *testing.T, elements []domain.Element) scheduler.Request {
	t.Helper()
	g, err := domain.NewGraph(elements)
	require.NoError(t, err)
	return scheduler.Request{
		Graph:    g,
		Elements: g.TopologicalOrder(),
		Pipeline: scheduler.PipelineBuild,
		Cache:    h.cache,
		Sources:  h.sources,
		Keys:     cachekey.New(g, h.sources),
		Options:  h.options,
	}
}

func (h *harness) build(t *testing.T, elements ...domain.Element) (*scheduler.Report, error) {
	t.Helper()
	return h.sched.Run(context.Background(), h.request(t, elements))
}

// element declares a manual element. A source is declared when the fake
// sources have a revision for it.
func (h *harness) element(name string, deps ...string) domain.Element {
	e := domain.Element{Name: name, Kind: "manual"}
	for _, d := range deps {
		e.Dependencies = append(e.Dependencies, domain.Dependency{Name: d, Kind: domain.DepBuild})
	}
	if src := h.sources.Sources(name); len(src) > 0 {
		e.Sources = src
	}
	return e
}

type elementMatcher string

func (m elementMatcher) Matches(x any) bool {
	req, ok := x.(domain.SandboxRequest)
	return ok && req.Element == string(m)
}

func (m elementMatcher) String() string { return "sandbox request for " + string(m) }

// expectBuild expects one sandbox run for name. A non-zero exit fails the build.
func (h *harness) expectBuild(name string, exit int) *gomock.Call {
	return h.sandbox.EXPECT().Run(gomock.Any(), gomock.Any(), elementMatcher(name)).DoAndReturn(
		func(ctx context.Context, store ports.ContentStore, req domain.SandboxRequest) (domain.SandboxResult, error) {
			_, _ = fmt.Fprintf(req.Log, "building %s\n", req.Element)
			if exit != 0 {
				return domain.SandboxResult{ExitCode: exit}, nil
			}
			blob, err := store.Put(ctx, []byte("output of "+req.Element))
			if err != nil {
				return domain.SandboxResult{}, err
			}
			tree, err := store.PutTree(ctx, []domain.TreeEntry{{Path: "usr/" + req.Element, Digest: blob}})
			return domain.SandboxResult{Output: tree}, err
		},
	)
}

func TestScheduler_FirstSecondAndChangedBuild(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.sources.setRef("a", "v1")
		h.sources.setRef("b", "v1")

		// First build: both fetched and built, A before B.
		aCall := h.expectBuild("a", 0).Times(1)
		h.expectBuild("b", 0).Times(1).After(aCall)

		report, err := h.build(t, h.element("a"), h.element("b", "a"))
		require.NoError(t, err)
		assert.Equal(t, map[string]domain.ElementState{"a": domain.StateBuilt, "b": domain.StateBuilt}, report.States)
		assert.Equal(t, 2, h.sources.fetchCount())
		firstKeys := report.Keys

		// Second build: nothing changed, nothing runs.
		report, err = h.build(t, h.element("a"), h.element("b", "a"))
		require.NoError(t, err)
		assert.Equal(t, map[string]domain.ElementState{"a": domain.StateCachedHit, "b": domain.StateCachedHit}, report.States)
		assert.Equal(t, firstKeys, report.Keys)
		assert.Equal(t, 2, h.sources.fetchCount())

		// A new revision of A rebuilds A and, through its key, B.
		h.sources.setRef("a", "v2")
		aCall = h.expectBuild("a", 0).Times(1)
		h.expectBuild("b", 0).Times(1).After(aCall)

		report, err = h.build(t, h.element("a"), h.element("b", "a"))
		require.NoError(t, err)
		assert.Equal(t, map[string]domain.ElementState{"a": domain.StateBuilt, "b": domain.StateBuilt}, report.States)
		assert.NotEqual(t, firstKeys["a"], report.Keys["a"])
		assert.NotEqual(t, firstKeys["b"], report.Keys["b"])
		assert.Equal(t, 3, h.sources.fetchCount())
	})
}

func TestScheduler_ContinueOnError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.options.OnError = domain.ContinueOnError

		h.expectBuild("a", 2).Times(1)
		h.expectBuild("c", 0).Times(1)
		h.logger.EXPECT().Warn(gomock.Any()).Times(0)

		report, err := h.build(t, h.element("a"), h.element("b", "a"), h.element("c"))
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrBuildFailed)
		require.ErrorIs(t, report.Errors["a"], domain.ErrSandboxFailed)
		assert.Equal(t, map[string]domain.ElementState{
			"a": domain.StateFailed,
			"b": domain.StateSkipped,
			"c": domain.StateBuilt,
		}, report.States)
		assert.Equal(t, []string{"a"}, report.Failed())

		// The failure is cached: a second run reports it without building.
		report, err = h.build(t, h.element("a"), h.element("b", "a"), h.element("c"))
		require.ErrorIs(t, err, domain.ErrBuildFailed)
		require.ErrorIs(t, report.Errors["a"], domain.ErrCachedFailure)
		assert.Equal(t, domain.StateCachedHit, report.States["c"])

		log, err := h.cache.Log(context.Background(), report.Keys["a"])
		require.NoError(t, err)
		assert.Equal(t, "building a\n", string(log))
	})
}

func TestScheduler_RetryFailed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

		h.expectBuild("a", 1).Times(1)
		_, err := h.build(t, h.element("a"))
		require.ErrorIs(t, err, domain.ErrBuildFailed)

		h.expectBuild("a", 0).Times(1)
		req := h.request(t, []domain.Element{h.element("a")})
		req.RetryFailed = true
		report, err := h.sched.Run(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, domain.StateBuilt, report.States["a"])
	})
}

func TestScheduler_FailFastStopsDispatching(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.options.Builders = 1
		h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

		h.expectBuild("a", 1).Times(1)

		report, err := h.build(t, h.element("a"), h.element("b", "a"), h.element("c"))
		require.ErrorIs(t, err, domain.ErrBuildFailed)
		assert.Equal(t, map[string]domain.ElementState{
			"a": domain.StateFailed,
			"b": domain.StateSkipped,
			"c": domain.StateSkipped,
		}, report.States)
	})
}

func TestScheduler_IdenticalElementsBuildSeparately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)

		x := domain.Element{Name: "x", Kind: "manual", Config: map[string]any{"v": 1}}
		y := domain.Element{Name: "y", Kind: "manual", Config: map[string]any{"v": 1}}
		h.expectBuild("x", 0).Times(1)
		h.expectBuild("y", 0).Times(1)

		report, err := h.build(t, x, y)
		require.NoError(t, err)
		assert.NotEqual(t, report.Keys["x"], report.Keys["y"])
		assert.Equal(t, map[string]domain.ElementState{"x": domain.StateBuilt, "y": domain.StateBuilt}, report.States)

		ctx := context.Background()
		for _, name := range []string{"x", "y"} {
			art, ok, err := h.cache.Query(ctx, report.Keys[name])
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, name, art.Element)

			var paths []string
			for entry, err := range h.store.Walk(ctx, art.Tree) {
				require.NoError(t, err)
				paths = append(paths, entry.Path)
			}
			assert.Equal(t, []string{"usr/" + name}, paths)
		}
	})
}

func TestScheduler_FetchRetriedThenFails(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.options.RetryBackoff = time.Second
		h.options.NetworkRetries = 2
		h.sources.setRef("a", "v1")
		h.sources.fetchFailures = 10
		h.logger.EXPECT().Warn(gomock.Any()).Times(2)

		start := time.Now()
		report, err := h.build(t, h.element("a"), h.element("b", "a"))
		require.ErrorIs(t, err, domain.ErrBuildFailed)
		require.ErrorIs(t, report.Errors["a"], domain.ErrFetchFailed)
		assert.Equal(t, map[string]domain.ElementState{
			"a": domain.StateFailed,
			"b": domain.StateSkipped,
		}, report.States)
		assert.Equal(t, 3, h.sources.fetchCalls)
		assert.Equal(t, 3*time.Second, time.Since(start), "backoff doubles between attempts")
	})
}

func TestScheduler_FetchRetrySucceeds(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.options.RetryBackoff = time.Second
		h.sources.setRef("a", "v1")
		h.sources.fetchFailures = 1
		h.logger.EXPECT().Warn(gomock.Any()).Times(1)
		h.expectBuild("a", 0).Times(1)

		report, err := h.build(t, h.element("a"))
		require.NoError(t, err)
		assert.Equal(t, domain.StateBuilt, report.States["a"])
		assert.Equal(t, 2, h.sources.fetchCalls)
		assert.Equal(t, 1, h.sources.fetchCount())
	})
}

func TestScheduler_ConcurrentRunsShareBuild(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)

		gate := make(chan struct{})
		h.sandbox.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, store ports.ContentStore, _ domain.SandboxRequest) (domain.SandboxResult, error) {
				<-gate
				tree, err := store.PutTree(ctx, nil)
				return domain.SandboxResult{Output: tree}, err
			},
		).Times(1)

		var wg sync.WaitGroup
		reports := make([]*scheduler.Report, 2)
		for i := range reports {
			wg.Go(func() {
				reports[i], _ = h.build(t, h.element("a"))
			})
		}

		synctest.Wait()
		close(gate)
		wg.Wait()

		for _, r := range reports {
			require.NotNil(t, r)
			assert.True(t, r.States["a"].IsSuccess())
		}
	})
}

func TestScheduler_CancelledRunDoesNotFailJoinedRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

		gate := make(chan struct{})
		h.sandbox.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, store ports.ContentStore, _ domain.SandboxRequest) (domain.SandboxResult, error) {
				select {
				case <-gate:
				case <-ctx.Done():
					return domain.SandboxResult{}, ctx.Err()
				}
				tree, err := store.PutTree(ctx, nil)
				return domain.SandboxResult{Output: tree}, err
			},
		).Times(1)

		firstCtx, cancel := context.WithCancel(context.Background())
		firstErr := make(chan error, 1)
		go func() {
			_, err := h.sched.Run(firstCtx, h.request(t, []domain.Element{h.element("a")}))
			firstErr <- err
		}()
		synctest.Wait()

		var report *scheduler.Report
		var err error
		done := make(chan struct{})
		go func() {
			defer close(done)
			report, err = h.build(t, h.element("a"))
		}()
		synctest.Wait()

		cancel()
		require.ErrorIs(t, <-firstErr, context.Canceled)

		close(gate)
		<-done
		require.NoError(t, err)
		assert.Equal(t, domain.StateBuilt, report.States["a"])
	})
}

func TestScheduler_WorkspaceNeverServedFromCache(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.sources.setRef("a", "v1")

		h.expectBuild("a", 0).Times(1)
		h.expectBuild("b", 0).Times(1)
		_, err := h.build(t, h.element("a"), h.element("b", "a"))
		require.NoError(t, err)

		h.sources.mu.Lock()
		h.sources.workspaced["a"] = true
		h.sources.mu.Unlock()

		// A is rebuilt twice despite the hits on disk; B follows A's output.
		aCall := h.expectBuild("a", 0).Times(1)
		h.expectBuild("b", 0).Times(1).After(aCall)
		report, err := h.build(t, h.element("a"), h.element("b", "a"))
		require.NoError(t, err)
		assert.Equal(t, domain.StateBuilt, report.States["a"])
		assert.Equal(t, domain.StateBuilt, report.States["b"])
		bKey := report.Keys["b"]

		h.expectBuild("a", 0).Times(1)
		report, err = h.build(t, h.element("a"), h.element("b", "a"))
		require.NoError(t, err)
		assert.Equal(t, domain.StateBuilt, report.States["a"])
		// Same workspace output, so B's key is stable and hits.
		assert.Equal(t, domain.StateCachedHit, report.States["b"])
		assert.Equal(t, bKey, report.Keys["b"])
	})
}

func TestScheduler_RemoteUnreachableFallsBackToBuild(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		remote := mocks.NewMockRemoteCache(ctrl)
		remote.EXPECT().GetRef(gomock.Any(), gomock.Any()).
			Return(domain.Digest(""), errors.New("dial tcp: connection refused")).Times(1)

		h := newHarness(t, remote)
		h.logger.EXPECT().Warn(gomock.Cond(func(msg string) bool {
			return strings.Contains(msg, "remote cache unavailable")
		})).Times(1)

		aCall := h.expectBuild("a", 0).Times(1)
		h.expectBuild("b", 0).Times(1).After(aCall)

		report, err := h.build(t, h.element("a"), h.element("b", "a"))
		require.NoError(t, err)
		assert.Nil(t, report.Fatal)
		assert.Equal(t, map[string]domain.ElementState{"a": domain.StateBuilt, "b": domain.StateBuilt}, report.States)
		assert.False(t, h.cache.HasRemote())
	})
}

func TestScheduler_NonStrictUsesWeakKey(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)

		aCall := h.expectBuild("a", 0).Times(1)
		h.expectBuild("b", 0).Times(1).After(aCall)
		_, err := h.build(t, h.element("a"), h.element("b", "a"))
		require.NoError(t, err)

		// A changes; in non-strict mode B is reused through its weak key.
		changed := h.element("a")
		changed.Config = map[string]any{"flags": "-O2"}
		h.options.Strict = false
		h.expectBuild("a", 0).Times(1)

		report, err := h.build(t, changed, h.element("b", "a"))
		require.NoError(t, err)
		assert.Equal(t, domain.StateBuilt, report.States["a"])
		assert.Equal(t, domain.StateCachedHit, report.States["b"])
	})
}

func TestScheduler_ImportAndCompose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.sources.setRef("files", "v1")

		files := h.element("files")
		files.Kind = "import"
		group := domain.Element{
			Name:         "group",
			Kind:         "compose",
			Dependencies: []domain.Dependency{{Name: "files", Kind: domain.DepBuild}},
		}

		report, err := h.build(t, files, group)
		require.NoError(t, err)
		assert.Equal(t, domain.StateBuilt, report.States["files"])
		assert.Equal(t, domain.StateBuilt, report.States["group"])

		ctx := context.Background()
		art, ok, err := h.cache.Query(ctx, report.Keys["files"])
		require.NoError(t, err)
		require.True(t, ok)
		var paths []string
		for entry, err := range h.store.Walk(ctx, art.Tree) {
			require.NoError(t, err)
			paths = append(paths, entry.Path)
		}
		assert.Equal(t, []string{"src/files"}, paths)
	})
}

func TestScheduler_MissingDependencyArtifact(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

		req := h.request(t, []domain.Element{h.element("a"), h.element("b", "a")})
		b, _ := req.Graph.Lookup("b")
		req.Elements = []domain.ElementID{b}

		report, err := h.sched.Run(context.Background(), req)
		require.ErrorIs(t, err, domain.ErrBuildFailed)
		require.ErrorIs(t, report.Errors["b"], domain.ErrMissingDependencyArtifact)
	})
}

func TestScheduler_Cancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

		h.sandbox.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ ports.ContentStore, _ domain.SandboxRequest) (domain.SandboxResult, error) {
				<-ctx.Done()
				return domain.SandboxResult{}, ctx.Err()
			},
		).Times(1)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			_, err := h.sched.Run(ctx, h.request(t, []domain.Element{h.element("a"), h.element("b", "a")}))
			errCh <- err
		}()

		synctest.Wait()
		cancel()

		err := <-errCh
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestScheduler_PullPipelineSkipsMisses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.logger.EXPECT().Warn(gomock.Cond(func(msg string) bool {
			return strings.Contains(msg, "no artifact for b")
		})).Times(1)

		h.expectBuild("a", 0).Times(1)
		req := h.request(t, []domain.Element{h.element("a"), h.element("b")})
		a, _ := req.Graph.Lookup("a")
		req.Elements = []domain.ElementID{a}
		_, err := h.sched.Run(context.Background(), req)
		require.NoError(t, err)

		req = h.request(t, []domain.Element{h.element("a"), h.element("b")})
		req.Pipeline = scheduler.PipelinePull
		report, err := h.sched.Run(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, domain.StateDone, report.States["a"])
		assert.Equal(t, domain.StateSkipped, report.States["b"])
	})
}

func TestScheduler_ArtifactCheckout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.expectBuild("a", 0).Times(1)
		_, err := h.build(t, h.element("a"))
		require.NoError(t, err)

		dest := t.TempDir()
		req := h.request(t, []domain.Element{h.element("a")})
		req.Pipeline = scheduler.PipelinePull
		req.Checkout = &scheduler.Checkout{Element: req.Elements[0], Dest: dest}
		report, err := h.sched.Run(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, domain.StateDone, report.States["a"])
		assert.FileExists(t, dest+"/usr/a")
	})
}

func TestScheduler_Shell(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, nil)
		h.sources.setRef("app", "v1")

		h.expectBuild("lib", 0).Times(1)
		_, err := h.build(t, h.element("lib"))
		require.NoError(t, err)
		require.NoError(t, h.sources.Fetch(context.Background(), "app"))

		req := h.request(t, []domain.Element{h.element("lib"), h.element("app", "lib")})
		app, _ := req.Graph.Lookup("app")

		h.sandbox.EXPECT().Shell(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ ports.ContentStore, sreq domain.SandboxRequest, _ io.Reader, _ io.Writer) error {
				require.Len(t, sreq.Mounts, 2)
				assert.Empty(t, sreq.Mounts[0].Path)
				assert.Equal(t, domain.SandboxBuildDir, sreq.Mounts[1].Path)
				assert.Equal(t, domain.SandboxBuildDir, sreq.WorkDir)
				return nil
			},
		).Times(1)

		require.NoError(t, h.sched.Shell(context.Background(), req, app, nil, nil))
	})
}
