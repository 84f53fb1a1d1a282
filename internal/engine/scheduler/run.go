package scheduler

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/keel/internal/core/domain"
)

// pool indexes.
const (
	poolNetwork = iota
	poolBuild
	poolPush
	poolCount
)

type element struct {
	id      domain.ElementID
	name    string
	state   domain.ElementState
	waiting int
	sources bool

	key   domain.CacheKey
	weak  domain.CacheKey
	keyed bool

	tracked    bool
	looked     bool
	pullTried  bool
	fetched    bool
	pushed     bool
	checkedOut bool

	// artifact is valid once hasArtifact is set. hit means it came from a cache.
	artifact    domain.Artifact
	hasArtifact bool
	hit         bool
}

type job struct {
	kind domain.JobKind
	el   *element
}

type result struct {
	job     job
	err     error
	changed bool
	art     domain.Artifact
	hit     bool
	pushed  bool
	evict   bool
	stats   domain.PruneStats
}

type pool struct {
	limit  int
	active int
	queue  []job
}

type run struct {
	s   *Scheduler
	req Request
	ctx context.Context

	elements map[domain.ElementID]*element
	order    []*element
	ready    []*element
	pools    [poolCount]pool
	results  chan result
	active   int

	stopping bool
	evicting bool
	releases []func()
	report   *Report
}

func newRun(ctx context.Context, s *Scheduler, req Request) *run {
	r := &run{
		s:        s,
		req:      req,
		ctx:      ctx,
		elements: make(map[domain.ElementID]*element, len(req.Elements)),
		report: &Report{
			States: make(map[string]domain.ElementState, len(req.Elements)),
			Keys:   make(map[string]domain.CacheKey, len(req.Elements)),
			Errors: make(map[string]error),
		},
	}

	for _, id := range req.Elements {
		r.elements[id] = nil
	}
	for _, id := range req.Graph.TopologicalOrder() {
		if _, ok := r.elements[id]; !ok {
			continue
		}
		e := &element{
			id:      id,
			name:    req.Graph.Name(id),
			sources: len(req.Graph.Element(id).Sources) > 0,
		}
		r.elements[id] = e
		r.order = append(r.order, e)
		r.report.Order = append(r.report.Order, e.name)
	}

	if req.Pipeline == PipelineBuild {
		for _, e := range r.order {
			for _, dep := range req.Graph.BuildScope(e.id) {
				if _, ok := r.elements[dep]; ok {
					e.waiting++
				}
			}
		}
	}

	limits := [poolCount]int{req.Options.Fetchers, req.Options.Builders, req.Options.Pushers}
	total := 1
	for i, limit := range limits {
		r.pools[i].limit = max(limit, 1)
		total += r.pools[i].limit
	}
	r.results = make(chan result, total)
	return r
}

func (r *run) loop() {
	for _, e := range r.order {
		if e.waiting == 0 {
			r.transition(e, domain.StateReady)
			r.ready = append(r.ready, e)
		}
	}

	done := r.ctx.Done()
	for {
		r.dispatch()
		if r.active == 0 {
			break
		}

		select {
		case res := <-r.results:
			r.handle(res)
		case <-done:
			done = nil
			r.stop(r.ctx.Err())
		}
	}

	if r.report.Fatal == nil && r.ctx.Err() != nil {
		r.report.Fatal = r.ctx.Err()
	}
	r.finish()
}

// dispatch advances ready elements and starts queued jobs up to each pool's limit.
func (r *run) dispatch() {
	for len(r.ready) > 0 && !r.stopping {
		e := r.ready[0]
		r.ready = r.ready[1:]
		r.advance(e)
	}

	for i := range r.pools {
		p := &r.pools[i]
		for len(p.queue) > 0 && p.active < p.limit && !r.stopping {
			j := p.queue[0]
			p.queue = p.queue[1:]
			p.active++
			r.active++
			go r.execute(j)
		}
	}
}

func (r *run) enqueue(kind domain.JobKind, e *element) {
	p := r.poolOf(kind)
	p.queue = append(p.queue, job{kind: kind, el: e})
}

func (r *run) poolOf(kind domain.JobKind) *pool {
	switch kind {
	case domain.JobTrack, domain.JobFetch, domain.JobPull:
		return &r.pools[poolNetwork]
	case domain.JobPush:
		return &r.pools[poolPush]
	default:
		return &r.pools[poolBuild]
	}
}

// advance decides the next step for e: queue a job or finish the element.
func (r *run) advance(e *element) {
	if e.state == domain.StateReady {
		r.transition(e, domain.StateRunning)
	}

	switch r.req.Pipeline {
	case PipelineTrack:
		if !e.tracked && e.sources {
			r.enqueue(domain.JobTrack, e)
			return
		}
		r.succeed(e, domain.StateDone)

	case PipelineFetch:
		if r.req.Track && !e.tracked && e.sources {
			r.enqueue(domain.JobTrack, e)
			return
		}
		if r.needsFetch(e) {
			r.enqueue(domain.JobFetch, e)
			return
		}
		if r.wantsCheckout(e) {
			r.enqueue(domain.JobCheckout, e)
			return
		}
		r.succeed(e, domain.StateDone)

	case PipelinePull:
		r.advancePull(e)

	case PipelinePush:
		r.advancePush(e)

	default:
		r.advanceBuild(e)
	}
}

func (r *run) advanceBuild(e *element) {
	if r.req.Track && !e.tracked && e.sources {
		r.enqueue(domain.JobTrack, e)
		return
	}
	if !r.resolveKey(e) {
		return
	}

	cacheable := r.req.Keys.Cacheable(e.id)
	if !e.looked {
		e.looked = true
		if cacheable && !r.lookup(e) {
			return
		}
	}

	if !e.hasArtifact {
		switch {
		case cacheable && !e.pullTried && r.req.Cache.HasRemote():
			r.enqueue(domain.JobPull, e)
		case r.needsFetch(e):
			r.enqueue(domain.JobFetch, e)
		default:
			r.enqueue(domain.JobBuild, e)
		}
		return
	}

	if r.req.Push && cacheable && !e.pushed && r.req.Cache.HasRemote() {
		r.enqueue(domain.JobPush, e)
		return
	}
	if r.wantsCheckout(e) {
		r.enqueue(domain.JobCheckout, e)
		return
	}
	r.succeed(e, r.successState(e))
}

// needsFetch reports whether e has sources that are not stored locally yet.
// When the state cannot be determined the fetch job reports the error.
func (r *run) needsFetch(e *element) bool {
	if e.fetched || !e.sources {
		return false
	}
	state, err := r.req.Sources.State(r.ctx, e.name)
	if err != nil || state < domain.Cached {
		return true
	}
	e.fetched = true
	return false
}

func (r *run) advancePull(e *element) {
	if !r.resolveKey(e) {
		return
	}
	if !r.req.Keys.Cacheable(e.id) {
		r.s.logger.Warn(e.name + " has an open workspace, not pulling")
		r.transition(e, domain.StateSkipped)
		return
	}
	if !e.looked {
		e.looked = true
		if !r.lookup(e) {
			return
		}
	}

	if !e.hasArtifact {
		if !e.pullTried && r.req.Cache.HasRemote() {
			r.enqueue(domain.JobPull, e)
			return
		}
		if r.isCheckoutTarget(e) {
			r.fail(e, domain.NewError(domain.ErrArtifactNotFound, "element", e.name, "key", e.key.Short()))
			return
		}
		r.s.logger.Warn(fmt.Sprintf("no artifact for %s (%s) in any cache", e.name, e.key.Short()))
		r.transition(e, domain.StateSkipped)
		return
	}

	if r.wantsCheckout(e) {
		r.enqueue(domain.JobCheckout, e)
		return
	}
	r.succeed(e, domain.StateDone)
}

func (r *run) advancePush(e *element) {
	if !r.resolveKey(e) {
		return
	}
	if !e.looked {
		e.looked = true
		if r.req.Keys.Cacheable(e.id) && !r.lookup(e) {
			return
		}
	}
	if !e.hasArtifact {
		r.s.logger.Warn(fmt.Sprintf("%s is not cached locally, not pushing", e.name))
		r.transition(e, domain.StateSkipped)
		return
	}
	if !e.pushed {
		r.enqueue(domain.JobPush, e)
		return
	}
	r.succeed(e, domain.StateDone)
}

// resolveKey computes the keys of e once. It reports false when e failed.
func (r *run) resolveKey(e *element) bool {
	if e.keyed {
		return true
	}
	key, err := r.req.Keys.Key(e.id)
	if err != nil {
		r.fail(e, err)
		return false
	}
	weak, err := r.req.Keys.Weak(e.id)
	if err != nil {
		r.fail(e, err)
		return false
	}
	e.key, e.weak, e.keyed = key, weak, true
	r.report.Keys[e.name] = key
	r.releases = append(r.releases, r.req.Cache.Retain(key))
	return true
}

// lookup queries the local cache for e. It reports false when e failed.
func (r *run) lookup(e *element) bool {
	art, ok, err := r.req.Cache.Query(r.ctx, e.key)
	if err != nil {
		r.fail(e, err)
		return false
	}
	if ok {
		if art.Success {
			r.useArtifact(e, art, true)
			return true
		}
		if !r.req.RetryFailed {
			r.fail(e, domain.NewError(domain.ErrCachedFailure, "element", e.name, "key", e.key.Short()))
			return false
		}
		return true
	}

	if !r.req.Options.Strict {
		art, ok, err := r.req.Cache.QueryWeak(r.ctx, e.weak)
		if err != nil {
			r.fail(e, err)
			return false
		}
		if ok && art.Success {
			r.useArtifact(e, art, true)
		}
	}
	return true
}

func (r *run) useArtifact(e *element, art domain.Artifact, hit bool) {
	e.artifact, e.hasArtifact, e.hit = art, true, hit
}

func (r *run) successState(e *element) domain.ElementState {
	if e.hit {
		return domain.StateCachedHit
	}
	return domain.StateBuilt
}

func (r *run) isCheckoutTarget(e *element) bool {
	return r.req.Checkout != nil && r.req.Checkout.Element == e.id
}

func (r *run) wantsCheckout(e *element) bool {
	return r.isCheckoutTarget(e) && !e.checkedOut
}

func (r *run) handle(res result) {
	r.active--
	if res.evict {
		r.evicting = false
		if res.err != nil {
			r.s.logger.Warn("cache eviction failed: " + res.err.Error())
		} else if res.stats.Refs > 0 {
			r.s.logger.Info(fmt.Sprintf("evicted %d artifacts, freed %d bytes", res.stats.Refs, res.stats.Bytes))
		}
		return
	}
	r.poolOf(res.job.kind).active--

	e := res.job.el
	switch res.job.kind {
	case domain.JobTrack:
		if res.err != nil {
			r.fail(e, res.err)
			return
		}
		e.tracked = true
		if res.changed {
			r.req.Keys.Invalidate(e.id)
		}

	case domain.JobFetch:
		if res.err != nil {
			r.fail(e, res.err)
			return
		}
		e.fetched = true

	case domain.JobPull:
		e.pullTried = true
		switch {
		case res.err == nil:
			r.useArtifact(e, res.art, true)
		case errors.Is(res.err, domain.ErrRemoteMiss), errors.Is(res.err, domain.ErrRemoteUnavailable):
		default:
			r.fail(e, res.err)
			return
		}

	case domain.JobBuild:
		if res.err != nil {
			r.fail(e, res.err)
			return
		}
		r.useArtifact(e, res.art, res.hit)
		if !res.hit {
			r.startEviction()
		}

	case domain.JobPush:
		e.pushed = true
		if res.err != nil {
			if r.req.Pipeline == PipelinePush {
				r.fail(e, res.err)
				return
			}
			r.s.logger.Warn(fmt.Sprintf("failed to push %s: %v", e.name, res.err))
		}

	case domain.JobCheckout:
		if res.err != nil {
			r.fail(e, res.err)
			return
		}
		e.checkedOut = true
	}

	if r.stopping {
		r.settle(e)
		return
	}
	r.ready = append(r.ready, e)
}

// startEviction trims the cache to its quota in the background, one pass at a time.
func (r *run) startEviction() {
	if r.evicting {
		return
	}
	r.evicting = true
	r.active++
	go func() {
		stats, err := r.req.Cache.Evict(r.ctx)
		r.results <- result{evict: true, stats: stats, err: err}
	}()
}

func (r *run) succeed(e *element, state domain.ElementState) {
	r.transition(e, state)
	if r.req.Pipeline != PipelineBuild {
		return
	}
	for _, u := range r.req.Graph.ScopeUsers(e.id) {
		user, ok := r.elements[u]
		if !ok || user.state != domain.StateWaiting {
			continue
		}
		user.waiting--
		if user.waiting == 0 {
			r.transition(user, domain.StateReady)
			r.ready = append(r.ready, user)
		}
	}
}

func (r *run) fail(e *element, err error) {
	r.report.Errors[e.name] = err
	r.transition(e, domain.StateFailed)

	switch {
	case domain.IsFatal(err):
		if r.report.Fatal == nil {
			r.report.Fatal = err
		}
		r.stop(err)
	case r.req.Options.OnError == domain.ContinueOnError:
		r.skipDependents(e)
	default:
		r.stop(err)
	}
}

// skipDependents marks every planned element that stages e as skipped.
func (r *run) skipDependents(e *element) {
	queue := []domain.ElementID{e.id}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, u := range r.req.Graph.ScopeUsers(id) {
			user, ok := r.elements[u]
			if !ok || user.state.IsTerminal() {
				continue
			}
			r.transition(user, domain.StateSkipped)
			queue = append(queue, u)
		}
	}
}

// stop ends dispatching. Queued work is dropped; in-flight jobs finish.
func (r *run) stop(cause error) {
	if r.stopping {
		return
	}
	r.stopping = true
	if cause != nil && !errors.Is(cause, context.Canceled) {
		r.s.logger.Warn("stopping after error: " + cause.Error())
	}

	for i := range r.pools {
		for _, j := range r.pools[i].queue {
			r.settle(j.el)
		}
		r.pools[i].queue = nil
	}
	for _, e := range r.ready {
		r.settle(e)
	}
	r.ready = nil
}

// settle finishes e without further jobs after the run stopped.
func (r *run) settle(e *element) {
	if e.state.IsTerminal() {
		return
	}
	if e.hasArtifact {
		state := r.successState(e)
		if r.req.Pipeline != PipelineBuild {
			state = domain.StateDone
		}
		r.transition(e, state)
		return
	}
	r.transition(e, domain.StateSkipped)
}

func (r *run) transition(e *element, next domain.ElementState) {
	if e.state.CanTransition(next) {
		e.state = next
	}
}

func (r *run) finish() {
	for _, e := range r.order {
		if !e.state.IsTerminal() {
			r.transition(e, domain.StateSkipped)
		}
		r.report.States[e.name] = e.state
	}
	for _, release := range r.releases {
		release()
	}
}

// artifactOf returns the artifact a planned element produced in this run.
func (r *run) artifactOf(id domain.ElementID) (domain.Artifact, bool) {
	e, ok := r.elements[id]
	if !ok || e == nil || !e.hasArtifact || !e.state.IsSuccess() {
		return domain.Artifact{}, false
	}
	return e.artifact, true
}
