package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/engine/scheduler"
	"go.trai.ch/keel/internal/engine/workspace"
	"go.trai.ch/zerr"
)

// WorkspaceOpen fetches the primary source of element and checks it out into dir.
func (a *App) WorkspaceOpen(ctx context.Context, element, dir string, force bool) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	id, ok := s.graph.Lookup(element)
	if !ok {
		return domain.NewError(domain.ErrElementNotFound, "element", element)
	}
	if _, err := a.run(ctx, s.request(scheduler.PipelineFetch, []domain.ElementID{id})); err != nil {
		return err
	}
	_, err = a.Workspaces.Open(ctx, s.project.Root, s.sources, element, dir, workspace.OpenOptions{Force: force})
	return err
}

// WorkspaceClose unbinds the workspace of element, deleting its directory with remove.
func (a *App) WorkspaceClose(ctx context.Context, element string, remove bool) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()
	return a.Workspaces.Close(ctx, s.project.Root, s.sources, element, remove)
}

// WorkspaceReset replaces the workspace content of element with its pinned source.
func (a *App) WorkspaceReset(ctx context.Context, element string) error {
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	id, ok := s.graph.Lookup(element)
	if !ok {
		return domain.NewError(domain.ErrElementNotFound, "element", element)
	}
	if _, err := a.run(ctx, s.request(scheduler.PipelineFetch, []domain.ElementID{id})); err != nil {
		return err
	}
	_, err = a.Workspaces.Reset(ctx, s.project.Root, s.sources, element)
	return err
}

// WorkspaceList prints the open workspaces of the project.
func (a *App) WorkspaceList(_ context.Context) error {
	root, err := a.Loader.DiscoverRoot(a.dir)
	if err != nil {
		return err
	}
	records, err := a.Workspaces.List(root)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ELEMENT\tPATH\tREF\tOPENED")
	for _, ws := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ws.Element, ws.Path, ws.Ref, ws.Opened.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return zerr.Wrap(err, "failed to write output")
	}
	return nil
}
