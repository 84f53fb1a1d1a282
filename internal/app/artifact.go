package app

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// ArtifactOptions configures the artifact transfer commands.
type ArtifactOptions struct {
	Deps domain.Selection
}

// ArtifactCheckout writes the artifact of target below dir, pulling it from
// the remote cache when it is not cached locally.
func (a *App) ArtifactCheckout(ctx context.Context, target, dir string) error {
	s, err := a.open(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.close()

	id, ok := s.graph.Lookup(target)
	if !ok {
		return domain.NewError(domain.ErrElementNotFound, "element", target)
	}
	req := s.request(scheduler.PipelinePull, []domain.ElementID{id})
	req.Checkout = &scheduler.Checkout{Element: id, Dest: dir}
	report, err := a.run(ctx, req)
	if err != nil {
		return err
	}
	if report.States[target] != domain.StateDone {
		return domain.NewError(domain.ErrArtifactNotFound, "element", target)
	}
	return nil
}

// ArtifactLog prints the build log stored with the artifact of target.
func (a *App) ArtifactLog(ctx context.Context, target string) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	key, err := s.key(target)
	if err != nil {
		return err
	}
	logs, err := s.cache.Log(ctx, key)
	if err != nil {
		return zerr.With(err, "element", target)
	}
	if _, err := a.out.Write(logs); err != nil {
		return zerr.Wrap(err, "failed to write output")
	}
	return nil
}

// ArtifactPull downloads the artifacts of targets from the remote cache.
func (a *App) ArtifactPull(ctx context.Context, targets []string, opts ArtifactOptions) error {
	return a.transfer(ctx, scheduler.PipelinePull, targets, opts)
}

// ArtifactPush uploads the artifacts of targets to the remote cache.
func (a *App) ArtifactPush(ctx context.Context, targets []string, opts ArtifactOptions) error {
	return a.transfer(ctx, scheduler.PipelinePush, targets, opts)
}

func (a *App) transfer(ctx context.Context, p scheduler.Pipeline, targets []string, opts ArtifactOptions) error {
	s, err := a.open(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.close()

	if s.remote == nil {
		return domain.NewError(domain.ErrRemoteUnavailable, "reason", "no remote cache configured")
	}
	elements, err := s.plan(targets, selection(opts.Deps, domain.SelectNone))
	if err != nil {
		return err
	}
	_, err = a.run(ctx, s.request(p, elements))
	return err
}

// ArtifactDelete removes the local artifacts of targets. Objects nothing
// refers to anymore are pruned with them.
func (a *App) ArtifactDelete(ctx context.Context, targets []string) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	var errs []error
	for _, name := range targets {
		key, err := s.key(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.cache.Delete(ctx, key); err != nil {
			errs = append(errs, zerr.With(err, "element", name))
			continue
		}
		a.Logger.Info(fmt.Sprintf("deleted artifact %s of %s", key.Short(), name))
	}
	return errors.Join(errs...)
}

// ArtifactReindex rebuilds the artifact index from metadata objects in the store.
func (a *App) ArtifactReindex(ctx context.Context) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	n, err := s.cache.Reindex(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info(fmt.Sprintf("restored %d artifact refs", n))
	return nil
}

// key returns the strict cache key of the named element.
func (s *session) key(name string) (domain.CacheKey, error) {
	id, ok := s.graph.Lookup(name)
	if !ok {
		return "", domain.NewError(domain.ErrElementNotFound, "element", name)
	}
	if !s.keys.Cacheable(id) {
		return "", domain.NewError(domain.ErrArtifactNotFound, "element", name, "reason", "element has an open workspace")
	}
	return s.keys.Key(id)
}
