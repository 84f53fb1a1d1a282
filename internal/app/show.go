package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultShowFormat prints the state, short key and name of each element.
const DefaultShowFormat = "%{state: >12} %{key} %{name}"

// ShowOptions configures Show.
type ShowOptions struct {
	Deps domain.Selection
	// Format is a line template with %{name}, %{kind}, %{state}, %{key},
	// %{full-key}, %{deps} and %{workspace}. A ": >N" or ": <N" suffix pads
	// the value to N columns.
	Format string
}

// Element display states.
const (
	ShowCached       = "cached"
	ShowFailed       = "failed"
	ShowBuildable    = "buildable"
	ShowWaiting      = "waiting"
	ShowFetchNeeded  = "fetch needed"
	ShowInconsistent = "inconsistent"
	ShowWorkspace    = "workspace"
)

var placeholder = regexp.MustCompile(`%\{([a-z-]+)(?::\s*([<>])(\d+))?\}`)

// Show prints one line per element of the plan in build order.
func (a *App) Show(ctx context.Context, targets []string, opts ShowOptions) error {
	format := opts.Format
	if format == "" {
		format = DefaultShowFormat
	}
	s, err := a.open(ctx, sessionOptions{offline: true})
	if err != nil {
		return err
	}
	defer s.close()

	sel := opts.Deps
	if sel == "" {
		sel = domain.SelectAll
	}
	elements, err := s.plan(targets, sel)
	if err != nil {
		return err
	}

	states := make(map[domain.ElementID]string, len(elements))
	for _, id := range elements {
		state, err := a.elementState(ctx, s, id, states)
		if err != nil {
			return err
		}
		states[id] = state

		line, err := s.formatLine(format, id, state)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(a.out, line); err != nil {
			return zerr.Wrap(err, "failed to write output")
		}
	}
	return nil
}

func (a *App) elementState(ctx context.Context, s *session, id domain.ElementID, known map[domain.ElementID]string) (string, error) {
	name := s.graph.Name(id)
	if s.sources.Workspaced(name) {
		return ShowWorkspace, nil
	}
	consistency, err := s.sources.State(ctx, name)
	if err != nil {
		return "", err
	}
	if consistency == domain.Inconsistent {
		return ShowInconsistent, nil
	}
	if key, err := s.keys.Key(id); err == nil {
		art, ok, err := s.cache.Query(ctx, key)
		if err != nil {
			return "", err
		}
		if ok {
			if art.Success {
				return ShowCached, nil
			}
			return ShowFailed, nil
		}
	}
	if consistency == domain.Resolved {
		return ShowFetchNeeded, nil
	}
	for _, dep := range s.graph.BuildScope(id) {
		state, ok := known[dep]
		if !ok {
			if state, err = a.elementState(ctx, s, dep, known); err != nil {
				return "", err
			}
			known[dep] = state
		}
		if state != ShowCached {
			return ShowWaiting, nil
		}
	}
	return ShowBuildable, nil
}

func (s *session) formatLine(format string, id domain.ElementID, state string) (string, error) {
	e := s.graph.Element(id)
	var failure error
	line := placeholder.ReplaceAllStringFunc(format, func(m string) string {
		parts := placeholder.FindStringSubmatch(m)
		var value string
		switch parts[1] {
		case "name":
			value = e.Name
		case "kind":
			value = e.Kind
		case "state":
			value = state
		case "key", "full-key":
			key, err := s.keys.Key(id)
			switch {
			case err != nil:
				value = strings.Repeat("-", 8)
			case parts[1] == "key":
				value = key.Short()
			default:
				value = key.String()
			}
		case "deps":
			var deps []string
			for _, d := range s.graph.BuildDeps(id) {
				deps = append(deps, s.graph.Name(d))
			}
			value = "[" + strings.Join(deps, ", ") + "]"
		case "workspace":
			if ws, ok := s.sources.Workspace(e.Name); ok {
				value = ws.Path
			}
		default:
			failure = domain.NewError(domain.ErrInvalidFormat, "placeholder", parts[1])
			return m
		}
		return pad(value, parts[2], parts[3])
	})
	return line, failure
}

func pad(value, align, width string) string {
	if align == "" {
		return value
	}
	var n int
	_, _ = fmt.Sscanf(width, "%d", &n)
	if align == ">" {
		return fmt.Sprintf("%*s", n, value)
	}
	return fmt.Sprintf("%-*s", n, value)
}
