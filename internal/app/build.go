package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"go.trai.ch/keel/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/engine/scheduler"
)

// BuildOptions configures Build.
type BuildOptions struct {
	// Track resolves source revisions before building.
	Track bool
	// RetryFailed rebuilds elements whose failure is cached.
	RetryFailed bool
	// NoPush keeps artifacts local even when the remote accepts pushes.
	NoPush bool
	// OnError overrides the project's error policy when set.
	OnError domain.ErrorPolicy
	// Watch rebuilds whenever a workspace or local source of the plan changes.
	Watch bool
}

// Build makes artifacts available for targets and everything they need.
func (a *App) Build(ctx context.Context, targets []string, opts BuildOptions) error {
	err := a.build(ctx, targets, opts)
	if !opts.Watch {
		return err
	}
	if err != nil && !errors.Is(err, domain.ErrBuildFailed) {
		return err
	}
	return a.watch(ctx, targets, opts)
}

func (a *App) build(ctx context.Context, targets []string, opts BuildOptions) error {
	s, err := a.open(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer s.close()

	elements, err := s.plan(targets, domain.SelectBuild)
	if err != nil {
		return err
	}
	req := s.request(scheduler.PipelineBuild, elements)
	req.Track = opts.Track
	req.RetryFailed = opts.RetryFailed
	req.Push = s.project.Options.Remote.Push && !opts.NoPush
	if opts.OnError != "" {
		req.Options.OnError = opts.OnError
	}
	_, err = a.run(ctx, req)
	return err
}

// watch rebuilds after every quiet period following a change below the input
// directories of the plan. It returns when ctx ends.
func (a *App) watch(ctx context.Context, targets []string, opts BuildOptions) error {
	index, err := a.watchIndex(ctx, targets)
	if err != nil {
		return err
	}
	dirs := index.Dirs()
	if len(dirs) == 0 {
		a.Logger.Warn("nothing to watch: no element of the plan has a workspace or local source")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.Watcher.Start(ctx, dirs...); err != nil {
		return err
	}
	defer func() { _ = a.Watcher.Stop() }()

	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow)
	go func() {
		for ev := range a.Watcher.Events() {
			debouncer.Add(ev.Path)
		}
	}()

	a.Logger.Info("watching " + strings.Join(dirs, ", "))
	for {
		paths, err := debouncer.Next(ctx)
		if err != nil {
			return nil //nolint:nilerr // Cancellation ends the watch.
		}
		affected := index.Affected(paths)
		if len(affected) == 0 {
			continue
		}
		a.Logger.Info("changes in " + strings.Join(affected, ", ") + ", rebuilding")
		if err := a.build(ctx, targets, opts); err != nil && !errors.Is(err, domain.ErrBuildFailed) {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// watchIndex collects the workspace and local source directories of the plan.
func (a *App) watchIndex(ctx context.Context, targets []string) (*watcher.Index, error) {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return nil, err
	}
	defer s.close()

	elements, err := s.plan(targets, domain.SelectBuild)
	if err != nil {
		return nil, err
	}
	index := watcher.NewIndex()
	for _, id := range elements {
		name := s.graph.Name(id)
		if ws, ok := s.sources.Workspace(name); ok {
			index.Add(ws.Path, name)
			continue
		}
		for _, src := range s.sources.Sources(name) {
			if src.Kind == "local" && src.Path != "" {
				index.Add(filepath.Join(s.project.Root, filepath.FromSlash(src.Path)), name)
			}
		}
	}
	return index, nil
}
