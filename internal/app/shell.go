package app

import (
	"context"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/engine/scheduler"
)

// ShellOptions configures Shell.
type ShellOptions struct {
	// NoBuild fails instead of building missing dependencies.
	NoBuild bool
}

// Shell opens an interactive shell in the build root of target, with its
// build dependencies staged and its sources in the build directory.
func (a *App) Shell(ctx context.Context, target string, opts ShellOptions) error {
	s, err := a.open(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.close()

	id, ok := s.graph.Lookup(target)
	if !ok {
		return domain.NewError(domain.ErrElementNotFound, "element", target)
	}

	if scope := s.graph.BuildScope(id); len(scope) > 0 {
		var deps []string
		for _, d := range scope {
			deps = append(deps, s.graph.Name(d))
		}
		pipeline := scheduler.PipelineBuild
		if opts.NoBuild {
			pipeline = scheduler.PipelinePull
		}
		elements, err := s.plan(deps, domain.SelectBuild)
		if err != nil {
			return err
		}
		if _, err := a.run(ctx, s.request(pipeline, elements)); err != nil {
			return err
		}
	}
	if _, err := a.run(ctx, s.request(scheduler.PipelineFetch, []domain.ElementID{id})); err != nil {
		return err
	}
	return a.Scheduler.Shell(ctx, s.request(scheduler.PipelineBuild, nil), id, a.in, a.out)
}
