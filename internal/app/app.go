// Package app implements the application layer for keel: one method per
// command, each loading the project and driving the engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/keel/internal/engine/artifactcache"
	"go.trai.ch/keel/internal/engine/cachekey"
	"go.trai.ch/keel/internal/engine/scheduler"
	"go.trai.ch/keel/internal/engine/source"
	"go.trai.ch/keel/internal/engine/workspace"
	"go.trai.ch/zerr"
)

// Dependencies are the adapters and engine parts an App drives.
type Dependencies struct {
	Loader     ports.ConfigLoader
	Refs       ports.RefStore
	Opener     ports.StoreOpener
	Dialer     ports.RemoteDialer
	Plugins    ports.SourcePlugins
	Trees      ports.TreeIO
	Scheduler  *scheduler.Scheduler
	Workspaces *workspace.Manager
	Watcher    ports.Watcher
	Renderer   ports.Renderer
	Logger     ports.Logger
}

// App represents the main application logic.
type App struct {
	Dependencies

	dir string
	in  io.Reader
	out io.Writer
}

// New creates a new App working in the current directory.
func New(deps Dependencies) *App {
	return &App{Dependencies: deps, dir: ".", in: os.Stdin, out: os.Stdout}
}

// WithDir makes the App look for the project at or above dir.
func (a *App) WithDir(dir string) *App {
	a.dir = dir
	return a
}

// WithIO replaces the streams used for command output and the interactive shell.
func (a *App) WithIO(in io.Reader, out io.Writer) *App {
	a.in, a.out = in, out
	return a
}

// Components groups the App with the adapters the entry point needs directly.
type Components struct {
	App    *App
	Logger ports.Logger
}

// GlobalOptions are settings shared by every command.
type GlobalOptions struct {
	// Dir is where the project lookup starts.
	Dir     string
	LogJSON bool
	Quiet   bool
}

type configurableLogger interface {
	SetJSON(enable bool)
	SetQuiet(quiet bool)
}

// Configure applies the global options before a command runs.
func (a *App) Configure(opts GlobalOptions) {
	if opts.Dir != "" {
		a.dir = opts.Dir
	}
	if l, ok := a.Logger.(configurableLogger); ok {
		l.SetJSON(opts.LogJSON)
		l.SetQuiet(opts.Quiet)
	}
}

// session is a loaded project with its engine state.
type session struct {
	project *domain.Project
	graph   *domain.Graph
	sources *source.Manager
	keys    *cachekey.Calculator
	cache   *artifactcache.Cache
	remote  ports.RemoteCache
}

type sessionOptions struct {
	// offline skips the remote cache even when one is configured.
	offline bool
}

func (a *App) open(ctx context.Context, opts sessionOptions) (*session, error) {
	project, err := a.Loader.Load(a.dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load project")
	}
	graph, err := domain.NewGraph(project.Elements)
	if err != nil {
		return nil, err
	}

	records, err := a.Workspaces.List(project.Root)
	if err != nil {
		return nil, err
	}
	store, err := a.Opener.Open(project.Root)
	if err != nil {
		return nil, err
	}

	s := &session{project: project, graph: graph}
	if project.Options.Remote.Enabled() && !opts.offline {
		s.remote, err = a.Dialer.Dial(ctx, project.Options.Remote)
		switch {
		case errors.Is(err, domain.ErrInvalidRemoteURL):
			return nil, err
		case err != nil:
			a.Logger.Warn("remote cache unavailable, continuing with the local cache only: " + err.Error())
			s.remote = nil
		}
	}

	cache, err := artifactcache.New(project.Root, store, s.remote, a.Logger, artifactcache.Options{
		Quota:     project.Options.Quota,
		Transfers: project.Options.Fetchers,
	})
	if err != nil {
		s.close()
		return nil, err
	}
	s.cache = cache
	s.sources = source.NewManager(project, a.Plugins, store, a.Refs, a.Trees, records)
	s.keys = cachekey.New(graph, s.sources)
	return s, nil
}

func (s *session) close() {
	if s.remote != nil {
		_ = s.remote.Close()
	}
}

// plan resolves targets and widens them with sel. An empty target list
// means every element of the project.
func (s *session) plan(targets []string, sel domain.Selection) ([]domain.ElementID, error) {
	if len(targets) == 0 {
		return s.graph.TopologicalOrder(), nil
	}
	ids, err := s.graph.Resolve(targets)
	if err != nil {
		return nil, err
	}
	sub, err := s.graph.Plan(ids, sel)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ElementID, 0, sub.Len())
	for _, e := range sub.Walk() {
		id, _ := s.graph.Lookup(e.Name)
		out = append(out, id)
	}
	return out, nil
}

func (s *session) request(pipeline scheduler.Pipeline, elements []domain.ElementID) scheduler.Request {
	return scheduler.Request{
		Graph:    s.graph,
		Elements: elements,
		Pipeline: pipeline,
		Cache:    s.cache,
		Sources:  s.sources,
		Keys:     s.keys,
		Options:  s.project.Options,
	}
}

// run drives one scheduler run with the renderer attached and logs a summary.
func (a *App) run(ctx context.Context, req scheduler.Request) (*scheduler.Report, error) {
	if err := a.Renderer.Start(ctx); err != nil {
		return nil, err
	}
	report, err := a.Scheduler.Run(ctx, req)
	_ = a.Renderer.Stop()
	if report != nil {
		a.summarize(req.Pipeline, report)
	}
	return report, err
}

func (a *App) summarize(p scheduler.Pipeline, r *scheduler.Report) {
	var msg string
	switch p {
	case scheduler.PipelineBuild:
		msg = fmt.Sprintf("%d built, %d cached", r.Count(domain.StateBuilt), r.Count(domain.StateCachedHit))
	default:
		msg = fmt.Sprintf("%d done", r.Count(domain.StateDone))
	}
	if n := r.Count(domain.StateSkipped); n > 0 {
		msg += fmt.Sprintf(", %d skipped", n)
	}
	if failed := r.Failed(); len(failed) > 0 {
		msg += fmt.Sprintf(", %d failed", len(failed))
		a.Logger.Warn(msg)
		for _, name := range failed {
			if err := r.Errors[name]; err != nil {
				a.Logger.Error(zerr.With(err, "element", name))
			}
		}
		return
	}
	a.Logger.Info(msg)
}
