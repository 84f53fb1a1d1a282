package domain_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/core/domain"
)

func el(name string, build []string, runtime ...string) domain.Element {
	e := domain.Element{Name: name, Kind: "manual"}
	for _, b := range build {
		e.Dependencies = append(e.Dependencies, domain.Dependency{Name: b, Kind: domain.DepBuild})
	}
	for _, r := range runtime {
		e.Dependencies = append(e.Dependencies, domain.Dependency{Name: r, Kind: domain.DepRuntime})
	}
	return e
}

func names(g *domain.Graph, ids []domain.ElementID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Name(id)
	}
	return out
}

func mustGraph(t *testing.T, elements ...domain.Element) *domain.Graph {
	t.Helper()
	g, err := domain.NewGraph(elements)
	require.NoError(t, err)
	return g
}

func TestGraph_TopologicalOrder_TieBreakByDeclaration(t *testing.T) {
	g := mustGraph(t,
		el("app", []string{"lib", "base"}),
		el("zeta", nil),
		el("lib", []string{"base"}),
		el("base", nil),
	)

	got := names(g, g.TopologicalOrder())
	assert.Equal(t, []string{"zeta", "base", "lib", "app"}, got)
}

func TestGraph_TopologicalOrder_RandomDAGs(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := range 50 {
		n := 2 + rng.IntN(30)
		elements := make([]domain.Element, n)
		perm := rng.Perm(n)
		for i := range n {
			var build, runtime []string
			// Only depend on elements with a lower rank so the graph stays acyclic.
			for j := range n {
				if perm[j] < perm[i] && rng.IntN(4) == 0 {
					if rng.IntN(3) == 0 {
						runtime = append(runtime, fmt.Sprintf("e%d", j))
					} else {
						build = append(build, fmt.Sprintf("e%d", j))
					}
				}
			}
			elements[i] = el(fmt.Sprintf("e%d", i), build, runtime...)
		}

		g, err := domain.NewGraph(elements)
		require.NoError(t, err, "round %d", round)

		order := g.TopologicalOrder()
		require.Len(t, order, n)
		index := make(map[domain.ElementID]int, n)
		for i, id := range order {
			index[id] = i
		}
		for id := range n {
			for _, dep := range g.BuildDeps(domain.ElementID(id)) {
				assert.Less(t, index[dep], index[domain.ElementID(id)],
					"round %d: %s must come after %s", round, g.Name(domain.ElementID(id)), g.Name(dep))
			}
		}
	}
}

func TestGraph_DetectCycles_ReportsPath(t *testing.T) {
	tests := []struct {
		name     string
		elements []domain.Element
		want     []string
	}{
		{
			name: "two element cycle",
			elements: []domain.Element{
				el("a", []string{"b"}),
				el("b", []string{"a"}),
			},
			want: []string{"a", "b", "a"},
		},
		{
			name: "cycle below an acyclic prefix",
			elements: []domain.Element{
				el("root", []string{"x"}),
				el("x", []string{"y"}),
				el("y", []string{"z"}),
				el("z", []string{"x"}),
			},
			want: []string{"x", "y", "z", "x"},
		},
		{
			name:     "self dependency",
			elements: []domain.Element{el("a", []string{"a"})},
			want:     []string{"a", "a"},
		},
		{
			name: "cycle closed through a runtime dependency of a build dependency",
			elements: []domain.Element{
				el("app", []string{"lib"}),
				el("lib", nil, "app"),
			},
			want: []string{"app", "app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewGraph(tt.elements)
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrDependencyCycle)

			var cycle *domain.CycleError
			require.True(t, errors.As(err, &cycle))
			if diff := cmp.Diff(tt.want, cycle.Path); diff != "" {
				t.Errorf("cycle path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGraph_RuntimeCyclesAreAllowed(t *testing.T) {
	g := mustGraph(t,
		el("a", nil, "b"),
		el("b", nil, "a"),
		el("c", []string{"a"}),
	)

	c, _ := g.Lookup("c")
	assert.Equal(t, []string{"a", "b"}, names(g, g.BuildScope(c)))
}

func TestGraph_ConstructionErrors(t *testing.T) {
	_, err := domain.NewGraph([]domain.Element{el("a", []string{"missing"})})
	require.ErrorIs(t, err, domain.ErrUnknownDependency)

	_, err = domain.NewGraph([]domain.Element{el("a", nil), el("a", nil)})
	require.ErrorIs(t, err, domain.ErrDuplicateElement)
}

func TestGraph_ReverseDependents(t *testing.T) {
	// base <- lib <- app, tool is a runtime dependency of lib, docs is unrelated.
	g := mustGraph(t,
		el("base", nil),
		el("tool", nil),
		el("lib", []string{"base"}, "tool"),
		el("app", []string{"lib"}),
		el("docs", nil),
		el("image", nil, "app"),
	)

	id := func(n string) domain.ElementID {
		i, ok := g.Lookup(n)
		require.True(t, ok)
		return i
	}

	assert.Equal(t, []string{"lib", "app"}, names(g, g.ReverseDependents(id("base"))))
	// tool is staged when building app through lib's runtime closure.
	assert.Equal(t, []string{"app"}, names(g, g.ReverseDependents(id("tool"))))
	assert.Empty(t, g.ReverseDependents(id("docs")))
	// image only depends on app at runtime, so its key does not change with app.
	assert.Empty(t, g.ReverseDependents(id("app")))
}

func TestGraph_Plan(t *testing.T) {
	g := mustGraph(t,
		el("base", nil),
		el("tool", nil),
		el("runlib", nil),
		el("lib", []string{"base"}, "runlib"),
		el("app", []string{"lib", "tool"}, "config"),
		el("config", nil),
	)
	app, _ := g.Lookup("app")

	tests := []struct {
		sel  domain.Selection
		want []string
	}{
		{domain.SelectNone, []string{"app"}},
		{domain.SelectRun, []string{"app", "config"}},
		{domain.SelectBuild, []string{"base", "tool", "runlib", "lib", "app"}},
		{domain.SelectAll, []string{"base", "tool", "runlib", "lib", "app", "config"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sel), func(t *testing.T) {
			sub, err := g.Plan([]domain.ElementID{app}, tt.sel)
			require.NoError(t, err)

			got := names(sub, sub.TopologicalOrder())
			slices.Sort(got)
			want := slices.Clone(tt.want)
			slices.Sort(want)
			assert.Equal(t, want, got)
		})
	}

	t.Run("edge kinds are preserved", func(t *testing.T) {
		sub, err := g.Plan([]domain.ElementID{app}, domain.SelectAll)
		require.NoError(t, err)
		subApp, _ := sub.Lookup("app")
		assert.Equal(t, []string{"lib", "tool"}, names(sub, sub.BuildDeps(subApp)))
		assert.Equal(t, []string{"config"}, names(sub, sub.RuntimeDeps(subApp)))
	})

	t.Run("invalid selection", func(t *testing.T) {
		_, err := g.Plan([]domain.ElementID{app}, "some")
		require.ErrorIs(t, err, domain.ErrInvalidSelection)
	})
}

func TestParseSelection(t *testing.T) {
	sel, err := domain.ParseSelection("")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectAll, sel)

	sel, err = domain.ParseSelection("run")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectRun, sel)
}
