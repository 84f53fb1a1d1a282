package app

import (
	"context"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/engine/scheduler"
)

// SourceOptions configures the source commands.
type SourceOptions struct {
	Deps domain.Selection
	// Track resolves revisions before fetching.
	Track bool
}

// SourceFetch stores the pinned sources of targets.
func (a *App) SourceFetch(ctx context.Context, targets []string, opts SourceOptions) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	elements, err := s.plan(targets, selection(opts.Deps, domain.SelectNone))
	if err != nil {
		return err
	}
	req := s.request(scheduler.PipelineFetch, elements)
	req.Track = opts.Track
	_, err = a.run(ctx, req)
	return err
}

// SourceTrack resolves the tracking patterns of targets and records new
// revisions in project.refs.
func (a *App) SourceTrack(ctx context.Context, targets []string, opts SourceOptions) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	elements, err := s.plan(targets, selection(opts.Deps, domain.SelectNone))
	if err != nil {
		return err
	}
	_, err = a.run(ctx, s.request(scheduler.PipelineTrack, elements))
	return err
}

// SourceCheckout fetches the sources of target and writes them below dir.
func (a *App) SourceCheckout(ctx context.Context, target, dir string) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	id, ok := s.graph.Lookup(target)
	if !ok {
		return domain.NewError(domain.ErrElementNotFound, "element", target)
	}
	req := s.request(scheduler.PipelineFetch, []domain.ElementID{id})
	req.Checkout = &scheduler.Checkout{Element: id, Dest: dir, Sources: true}
	_, err = a.run(ctx, req)
	return err
}

func selection(sel, fallback domain.Selection) domain.Selection {
	if sel == "" {
		return fallback
	}
	return sel
}
