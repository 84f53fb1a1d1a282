package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
)

// execute runs one job and reports its result to the loop. The span is ended
// before the result is sent so that observers see it before the run returns.
func (r *run) execute(j job) {
	res := func() result {
		ctx, span := r.s.tracer.Start(r.ctx, j.kind.String()+" "+j.el.name, ports.WithElement(j.el.name))
		defer span.End()
		if j.el.keyed {
			span.SetAttribute("keel.key", j.el.key.String())
		}

		res := r.perform(ctx, span, j)
		res.job = j
		if res.err != nil {
			span.RecordError(res.err)
		}
		return res
	}()

	r.results <- res
}

func (r *run) perform(ctx context.Context, span ports.Span, j job) result {
	e := j.el
	switch j.kind {
	case domain.JobTrack:
		var changed bool
		err := r.retry(ctx, j, func() error {
			var err error
			changed, err = r.req.Sources.Track(ctx, e.name)
			return err
		})
		return result{changed: changed, err: err}

	case domain.JobFetch:
		release := r.req.Cache.Fence()
		defer release()
		return result{err: r.retry(ctx, j, func() error {
			return r.req.Sources.Fetch(ctx, e.name)
		})}

	case domain.JobPull:
		art, err := r.req.Cache.Pull(ctx, e.key)
		if errors.Is(err, domain.ErrRemoteMiss) {
			span.SetAttribute("keel.remote", "miss")
		}
		return result{art: art, err: err}

	case domain.JobBuild:
		return r.s.build(ctx, span, r, e)

	case domain.JobPush:
		pushed, err := r.req.Cache.Push(ctx, e.artifact.Key)
		if err == nil && !pushed {
			span.SetAttribute("keel.remote", "present")
		}
		return result{pushed: pushed, err: err}

	case domain.JobCheckout:
		return result{err: r.checkout(ctx, e)}

	default:
		return result{err: fmt.Errorf("scheduler: unexpected job %s", j.kind)}
	}
}

// retry repeats fn with exponential backoff while it fails with a retryable error.
func (r *run) retry(ctx context.Context, j job, fn func() error) error {
	backoff := r.req.Options.RetryBackoff
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !domain.IsRetryable(err) || attempt >= r.req.Options.NetworkRetries {
			return err
		}

		r.s.logger.Warn(fmt.Sprintf("%s %s failed, retrying in %s: %v", j.kind, j.el.name, backoff, err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return err
		}
		backoff *= 2
	}
}

func (r *run) checkout(ctx context.Context, e *element) error {
	dest := r.req.Checkout.Dest
	if r.req.Checkout.Sources {
		return r.req.Sources.Checkout(ctx, e.name, dest)
	}
	if e.artifact.Tree == "" {
		return domain.NewError(domain.ErrArtifactNotFound, "element", e.name)
	}
	return r.s.trees.Checkout(ctx, r.req.Cache.Store(), e.artifact.Tree, dest)
}

type outcome struct {
	art domain.Artifact
	hit bool
}

// build produces the artifact of e. Concurrent builds of one key inside the
// process share a single producer; across processes the key lock serializes
// them and late arrivals find the committed artifact. The producer runs
// detached from any single caller and is cancelled once every caller left.
func (s *Scheduler) build(ctx context.Context, span ports.Span, r *run, e *element) result {
	key := e.key.String()
	f := s.join(ctx, key)
	ch := s.flights.DoChan(key, func() (any, error) {
		return s.produce(f.ctx, span, r, e)
	})

	select {
	case res := <-ch:
		s.leave(key, f, false)
		if res.Shared {
			span.SetAttribute("keel.shared", true)
		}
		if res.Err != nil {
			return result{err: res.Err}
		}
		out := res.Val.(outcome)
		return result{art: out.art, hit: out.hit}
	case <-ctx.Done():
		s.leave(key, f, true)
		return result{err: ctx.Err()}
	}
}

// flight is one in-process producer of a key and the callers waiting on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (s *Scheduler) join(ctx context.Context, key string) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.producing[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		s.producing[key] = f
	}
	f.waiters++
	return f
}

// leave drops a caller from f. The last caller to leave releases the flight;
// if it gave up early the producer is cancelled and later callers start afresh.
func (s *Scheduler) leave(key string, f *flight, abandoned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	if s.producing[key] == f {
		delete(s.producing, key)
	}
	if abandoned {
		s.flights.Forget(key)
	}
	f.cancel()
}

func (s *Scheduler) produce(ctx context.Context, span ports.Span, r *run, e *element) (outcome, error) {
	unlock, err := r.req.Cache.Lock(ctx, e.key)
	if err != nil {
		return outcome{}, err
	}
	defer unlock()

	cacheable := r.req.Keys.Cacheable(e.id)
	if cacheable {
		if art, ok, err := r.req.Cache.Query(ctx, e.key); err != nil {
			return outcome{}, err
		} else if ok && art.Success {
			return outcome{art: art, hit: true}, nil
		}
	}

	release := r.req.Cache.Fence()
	defer release()

	sreq, plan, sources, err := s.compose(ctx, &r.req, e.id, r.artifactOf)
	if err != nil {
		return outcome{}, err
	}

	store := r.req.Cache.Store()
	var logs bytes.Buffer
	art := domain.Artifact{
		Element: e.name,
		Key:     e.key,
		WeakKey: e.weak,
		Success: true,
		Start:   time.Now(),
	}

	switch plan.Strategy {
	case domain.StrategyImport:
		art.Tree, err = overlay(ctx, store, sources)
	case domain.StrategyCompose:
		art.Tree, err = store.PutTree(ctx, nil)
	default:
		sreq.Log = io.MultiWriter(&logs, span)
		var res domain.SandboxResult
		res, err = s.sandbox.Run(ctx, store, sreq)
		if err != nil {
			err = domain.WrapError(err, domain.ErrSandboxFailed, "element", e.name)
			break
		}
		art.ExitCode = res.ExitCode
		art.Success = res.ExitCode == 0
		art.Tree = res.Output
	}
	if err != nil {
		return outcome{}, err
	}
	art.End = time.Now()

	if logs.Len() > 0 {
		if art.Logs, err = store.Put(ctx, logs.Bytes()); err != nil {
			return outcome{}, err
		}
	}

	if cacheable {
		if art, err = s.commit(ctx, r, art); err != nil {
			return outcome{}, err
		}
	} else if art.Success {
		r.req.Keys.SetOutput(e.id, art.Tree)
	}

	if !art.Success {
		return outcome{}, domain.NewError(domain.ErrSandboxFailed,
			"element", e.name, "exit_code", art.ExitCode, "log", art.Logs.Short())
	}
	return outcome{art: art}, nil
}

// commit records art and returns the artifact the cache holds for its key.
func (s *Scheduler) commit(ctx context.Context, r *run, art domain.Artifact) (domain.Artifact, error) {
	err := r.req.Cache.Commit(ctx, art)
	if err == nil || !errors.Is(err, domain.ErrAlreadyCommitted) {
		return art, err
	}
	if r.req.Options.OnMismatch == domain.MismatchFail {
		return art, err
	}

	s.logger.Warn("non-deterministic build of " + art.Element + ": " + err.Error())
	committed, ok, qerr := r.req.Cache.Query(ctx, art.Key)
	if qerr != nil {
		return art, qerr
	}
	if ok {
		return committed, nil
	}
	return art, nil
}

// compose builds the sandbox request of id. Dependency artifacts are staged
// at the sandbox root and sources below the build directory. The source mounts
// are also returned relative to the build directory.
func (s *Scheduler) compose(
	ctx context.Context,
	req *Request,
	id domain.ElementID,
	produced func(domain.ElementID) (domain.Artifact, bool),
) (domain.SandboxRequest, domain.BuildPlan, []domain.Mount, error) {
	e := req.Graph.Element(id)
	builder, ok := s.builders[e.Kind]
	if !ok {
		return domain.SandboxRequest{}, domain.BuildPlan{}, nil,
			domain.NewError(domain.ErrUnknownElementKind, "element", e.Name, "kind", e.Kind)
	}
	plan, err := builder.Plan(e)
	if err != nil {
		return domain.SandboxRequest{}, domain.BuildPlan{}, nil, zerr.With(err, "element", e.Name)
	}

	scope := req.Graph.BuildScope(id)
	mounts := make([]domain.Mount, 0, len(scope)+len(e.Sources))
	for _, dep := range scope {
		art, err := dependencyArtifact(ctx, req, dep, produced)
		if err != nil {
			return domain.SandboxRequest{}, domain.BuildPlan{}, nil, zerr.With(err, "element", e.Name)
		}
		mounts = append(mounts, domain.Mount{Tree: art.Tree})
	}

	sources, err := req.Sources.Mounts(ctx, e.Name)
	if err != nil {
		return domain.SandboxRequest{}, domain.BuildPlan{}, nil, err
	}
	for _, m := range sources {
		mounts = append(mounts, domain.Mount{Path: path.Join(domain.SandboxBuildDir, m.Path), Tree: m.Tree})
	}

	return domain.SandboxRequest{
		Element:   e.Name,
		Commands:  plan.Commands,
		Env:       plan.Env,
		Mounts:    mounts,
		WorkDir:   domain.SandboxBuildDir,
		OutputDir: domain.SandboxInstallDir,
	}, plan, sources, nil
}

// dependencyArtifact finds the artifact staged for dep, preferring what the
// current run produced over a cache lookup.
func dependencyArtifact(
	ctx context.Context,
	req *Request,
	dep domain.ElementID,
	produced func(domain.ElementID) (domain.Artifact, bool),
) (domain.Artifact, error) {
	if produced != nil {
		if art, ok := produced(dep); ok {
			return art, nil
		}
	}

	name := req.Graph.Name(dep)
	key, err := req.Keys.DependencyKey(dep)
	if err != nil {
		return domain.Artifact{}, err
	}
	art, ok, err := req.Cache.Query(ctx, key)
	if err != nil {
		return domain.Artifact{}, err
	}
	if !ok || !art.Success {
		return domain.Artifact{}, domain.NewError(domain.ErrMissingDependencyArtifact,
			"dependency", name, "key", key.Short())
	}
	return art, nil
}

// overlay merges trees placed at their mount paths into a single tree. Later
// mounts win on conflicting paths.
func overlay(ctx context.Context, store ports.ContentStore, mounts []domain.Mount) (domain.Digest, error) {
	byPath := make(map[string]domain.TreeEntry)
	var order []string
	for _, m := range mounts {
		for entry, err := range store.Walk(ctx, m.Tree) {
			if err != nil {
				return "", err
			}
			entry.Path = path.Join(m.Path, entry.Path)
			if _, seen := byPath[entry.Path]; !seen {
				order = append(order, entry.Path)
			}
			byPath[entry.Path] = entry
		}
	}

	entries := make([]domain.TreeEntry, 0, len(order))
	for _, p := range order {
		entries = append(entries, byPath[p])
	}
	return store.PutTree(ctx, entries)
}
