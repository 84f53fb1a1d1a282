// Package scheduler walks an element graph and drives track, fetch, pull,
// build, push and checkout jobs to completion.
package scheduler

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// Pipeline selects the jobs a run performs for each element.
type Pipeline uint8

const (
	// PipelineBuild makes an artifact available for every element, building
	// in dependency order where no cache has one.
	PipelineBuild Pipeline = iota
	// PipelineFetch stores the pinned sources of every element.
	PipelineFetch
	// PipelineTrack resolves the tracking patterns of every element.
	PipelineTrack
	// PipelinePull downloads missing artifacts from the remote cache.
	PipelinePull
	// PipelinePush uploads local artifacts to the remote cache.
	PipelinePush
)

// Sources is the source state a run drives.
type Sources interface {
	// State returns the least consistent state of the element's sources.
	State(ctx context.Context, element string) (domain.Consistency, error)
	Track(ctx context.Context, element string) (bool, error)
	Fetch(ctx context.Context, element string) error
	Mounts(ctx context.Context, element string) ([]domain.Mount, error)
	Checkout(ctx context.Context, element, dest string) error
}

// Keys derives the cache keys of the request graph.
type Keys interface {
	Key(id domain.ElementID) (domain.CacheKey, error)
	Weak(id domain.ElementID) (domain.CacheKey, error)
	Cacheable(id domain.ElementID) bool
	DependencyKey(id domain.ElementID) (domain.CacheKey, error)
	SetOutput(id domain.ElementID, tree domain.Digest)
	Invalidate(id domain.ElementID)
}

// Checkout asks a run to materialize one element once it succeeded.
type Checkout struct {
	Element domain.ElementID
	Dest    string
	// Sources checks out the element's sources instead of its artifact.
	Sources bool
}

// Request describes one run.
type Request struct {
	// Graph is the whole project graph the keys are computed over.
	Graph *domain.Graph
	// Elements is the planned set. Build dependencies outside it must already be cached.
	Elements []domain.ElementID
	Pipeline Pipeline

	Cache   ports.ArtifactCache
	Sources Sources
	Keys    Keys
	Options domain.Options

	// Track resolves source revisions before anything else happens to an element.
	Track bool
	// Push uploads artifacts after a build or a local hit.
	Push bool
	// RetryFailed rebuilds elements whose failure is cached.
	RetryFailed bool
	Checkout    *Checkout
}

// Report is the outcome of a run.
type Report struct {
	// Order lists the planned elements in topological order.
	Order  []string
	States map[string]domain.ElementState
	Keys   map[string]domain.CacheKey
	Errors map[string]error
	// Fatal is set when the run stopped on an error that no policy tolerates.
	Fatal error
}

// Failed returns the failed elements in topological order.
func (r *Report) Failed() []string {
	var out []string
	for _, name := range r.Order {
		if r.States[name] == domain.StateFailed {
			out = append(out, name)
		}
	}
	return out
}

// Count returns how many elements ended in state.
func (r *Report) Count(state domain.ElementState) int {
	n := 0
	for _, s := range r.States {
		if s == state {
			n++
		}
	}
	return n
}

// Err returns nil when every element succeeded or was intentionally skipped.
func (r *Report) Err() error {
	if r.Fatal != nil {
		return r.Fatal
	}
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := []error{domain.NewError(domain.ErrBuildFailed, "failed", strings.Join(failed, ", "))}
	for _, name := range failed {
		if err := r.Errors[name]; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Scheduler runs jobs for element graphs. One Scheduler is shared by every
// run of a process so that concurrent builds of the same key are joined.
type Scheduler struct {
	sandbox  ports.Sandbox
	builders ports.ElementBuilders
	trees    ports.TreeIO
	tracer   ports.Tracer
	logger   ports.Logger

	flights singleflight.Group

	mu        sync.Mutex
	producing map[string]*flight
}

// New creates a Scheduler.
func New(
	sandbox ports.Sandbox,
	builders ports.ElementBuilders,
	trees ports.TreeIO,
	tracer ports.Tracer,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		sandbox:   sandbox,
		builders:  builders,
		trees:     trees,
		tracer:    tracer,
		logger:    logger,
		producing: make(map[string]*flight),
	}
}

// Run processes req and reports the state of every planned element. The
// returned error is the report's Err.
func (s *Scheduler) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Graph == nil || req.Cache == nil || req.Sources == nil || req.Keys == nil {
		return nil, errors.New("scheduler: incomplete request")
	}

	r := newRun(ctx, s, req)
	s.tracer.EmitPlan(ctx, slices.Clone(r.report.Order))
	r.loop()
	return r.report, r.report.Err()
}

// Shell starts an interactive shell in the build root of id. The artifacts of
// its build scope must be cached and its sources fetched.
func (s *Scheduler) Shell(ctx context.Context, req Request, id domain.ElementID, stdin io.Reader, stdout io.Writer) error {
	sreq, _, _, err := s.compose(ctx, &req, id, nil)
	if err != nil {
		return err
	}
	return s.sandbox.Shell(ctx, req.Cache.Store(), sreq, stdin, stdout)
}
