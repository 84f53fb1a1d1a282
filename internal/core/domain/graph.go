// Package domain contains the core domain models of the build engine.
package domain

import (
	"container/heap"
	"iter"
	"slices"
	"strings"
)

// ElementID indexes an element inside a Graph. IDs follow declaration order.
type ElementID int

// Selection chooses which dependencies of the targets a plan includes.
type Selection string

const (
	// SelectAll includes every transitive dependency.
	SelectAll Selection = "all"
	// SelectBuild includes everything needed to build the targets.
	SelectBuild Selection = "build"
	// SelectRun includes the runtime closure of the targets.
	SelectRun Selection = "run"
	// SelectNone includes only the targets.
	SelectNone Selection = "none"
)

// ParseSelection validates a selection name.
func ParseSelection(s string) (Selection, error) {
	switch sel := Selection(s); sel {
	case SelectAll, SelectBuild, SelectRun, SelectNone:
		return sel, nil
	case "":
		return SelectAll, nil
	default:
		return "", NewError(ErrInvalidSelection, "selection", s)
	}
}

// CycleError reports a dependency cycle as the list of element names along it,
// starting and ending with the same element.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return ErrDependencyCycle.Error() + ": " + strings.Join(e.Path, " -> ")
}

// Unwrap makes errors.Is(err, ErrDependencyCycle) hold.
func (e *CycleError) Unwrap() error {
	return ErrDependencyCycle
}

// Graph is an arena of elements with build and runtime edges.
// It is immutable once constructed.
type Graph struct {
	elements []*Element
	byName   map[InternedString]ElementID

	build   [][]ElementID
	runtime [][]ElementID

	// scope holds, per element, the elements staged when building it: its
	// build dependencies and their runtime closures, sorted by name.
	scope      [][]ElementID
	scopeUsers [][]ElementID
	order      []ElementID
	position   []int
}

// NewGraph builds a graph from element declarations, in declaration order.
// It fails on duplicate names, unknown dependencies and cycles.
func NewGraph(elements []Element) (*Graph, error) {
	g := &Graph{
		elements: make([]*Element, 0, len(elements)),
		byName:   make(map[InternedString]ElementID, len(elements)),
	}

	for i := range elements {
		e := elements[i]
		name := NewInternedString(e.Name)
		if _, exists := g.byName[name]; exists {
			return nil, NewError(ErrDuplicateElement, "element", e.Name)
		}
		g.byName[name] = ElementID(len(g.elements))
		g.elements = append(g.elements, &e)
	}

	g.build = make([][]ElementID, len(g.elements))
	g.runtime = make([][]ElementID, len(g.elements))
	for id, e := range g.elements {
		for _, dep := range e.Dependencies {
			to, ok := g.byName[NewInternedString(dep.Name)]
			if !ok {
				return nil, NewError(ErrUnknownDependency, "element", e.Name, "dependency", dep.Name)
			}
			if dep.Kind == DepRuntime {
				g.runtime[id] = appendUnique(g.runtime[id], to)
			} else {
				g.build[id] = appendUnique(g.build[id], to)
			}
		}
	}

	if err := g.finish(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) finish() error {
	if err := g.DetectCycles(); err != nil {
		return err
	}
	g.computeScopes()
	if path := findCycle(len(g.elements), func(id ElementID) []ElementID { return g.scope[id] }); path != nil {
		return g.cycleError(path)
	}
	g.computeOrder()
	return nil
}

// Len returns the number of elements.
func (g *Graph) Len() int {
	return len(g.elements)
}

// Element returns the element with the given ID.
func (g *Graph) Element(id ElementID) *Element {
	return g.elements[id]
}

// Name returns the name of the element with the given ID.
func (g *Graph) Name(id ElementID) string {
	return g.elements[id].Name
}

// Lookup finds an element by name.
func (g *Graph) Lookup(name string) (ElementID, bool) {
	id, ok := g.byName[NewInternedString(name)]
	return id, ok
}

// Resolve maps names to IDs, failing on the first unknown name.
func (g *Graph) Resolve(names []string) ([]ElementID, error) {
	ids := make([]ElementID, 0, len(names))
	for _, n := range names {
		id, ok := g.Lookup(n)
		if !ok {
			return nil, NewError(ErrElementNotFound, "element", n)
		}
		ids = appendUnique(ids, id)
	}
	return ids, nil
}

// BuildDeps returns the direct build dependencies of id in declaration order.
func (g *Graph) BuildDeps(id ElementID) []ElementID {
	return g.build[id]
}

// RuntimeDeps returns the direct runtime dependencies of id in declaration order.
func (g *Graph) RuntimeDeps(id ElementID) []ElementID {
	return g.runtime[id]
}

// BuildScope returns the elements whose artifacts are staged to build id,
// sorted by name.
func (g *Graph) BuildScope(id ElementID) []ElementID {
	return g.scope[id]
}

// ScopeUsers returns the elements that stage id when they are built.
func (g *Graph) ScopeUsers(id ElementID) []ElementID {
	return g.scopeUsers[id]
}

// TopologicalOrder returns all elements with every element after the
// elements of its build scope. Ties are broken by declaration order.
func (g *Graph) TopologicalOrder() []ElementID {
	return slices.Clone(g.order)
}

// Walk yields elements in topological order.
func (g *Graph) Walk() iter.Seq2[ElementID, *Element] {
	return func(yield func(ElementID, *Element) bool) {
		for _, id := range g.order {
			if !yield(id, g.elements[id]) {
				return
			}
		}
	}
}

// DetectCycles checks that build edges form a DAG. The returned error is a
// *CycleError carrying the cycle path.
func (g *Graph) DetectCycles() error {
	path := findCycle(len(g.elements), func(id ElementID) []ElementID { return g.build[id] })
	if path == nil {
		return nil
	}
	return g.cycleError(path)
}

// ReverseDependents returns every element whose cache key depends on id,
// directly or transitively, in topological order.
func (g *Graph) ReverseDependents(id ElementID) []ElementID {
	seen := make([]bool, len(g.elements))
	queue := slices.Clone(g.scopeUsers[id])
	for _, u := range queue {
		seen[u] = true
	}
	for i := 0; i < len(queue); i++ {
		for _, u := range g.scopeUsers[queue[i]] {
			if !seen[u] {
				seen[u] = true
				queue = append(queue, u)
			}
		}
	}
	slices.SortFunc(queue, func(a, b ElementID) int { return g.position[a] - g.position[b] })
	return queue
}

// Plan returns the subgraph containing targets and the dependencies chosen by
// sel. Edges between included elements keep their kind.
func (g *Graph) Plan(targets []ElementID, sel Selection) (*Graph, error) {
	if _, err := ParseSelection(string(sel)); err != nil {
		return nil, err
	}

	var next func(ElementID) []ElementID
	switch sel {
	case SelectAll:
		next = func(id ElementID) []ElementID { return append(slices.Clone(g.build[id]), g.runtime[id]...) }
	case SelectBuild:
		next = func(id ElementID) []ElementID { return g.scope[id] }
	case SelectRun:
		next = func(id ElementID) []ElementID { return g.runtime[id] }
	default:
		next = func(ElementID) []ElementID { return nil }
	}

	include := make([]bool, len(g.elements))
	queue := make([]ElementID, 0, len(targets))
	for _, t := range targets {
		if !include[t] {
			include[t] = true
			queue = append(queue, t)
		}
	}
	for i := 0; i < len(queue); i++ {
		for _, d := range next(queue[i]) {
			if !include[d] {
				include[d] = true
				queue = append(queue, d)
			}
		}
	}

	return g.restrict(include), nil
}

// Contains reports whether an element with the given name is in the graph.
func (g *Graph) Contains(name string) bool {
	_, ok := g.Lookup(name)
	return ok
}

func (g *Graph) restrict(include []bool) *Graph {
	sub := &Graph{byName: make(map[InternedString]ElementID)}
	remap := make([]ElementID, len(g.elements))
	for id, e := range g.elements {
		remap[id] = -1
		if include[id] {
			remap[id] = ElementID(len(sub.elements))
			sub.byName[NewInternedString(e.Name)] = remap[id]
			sub.elements = append(sub.elements, e)
		}
	}
	sub.build = make([][]ElementID, len(sub.elements))
	sub.runtime = make([][]ElementID, len(sub.elements))
	for id := range g.elements {
		from := remap[id]
		if from < 0 {
			continue
		}
		for _, d := range g.build[id] {
			if remap[d] >= 0 {
				sub.build[from] = append(sub.build[from], remap[d])
			}
		}
		for _, d := range g.runtime[id] {
			if remap[d] >= 0 {
				sub.runtime[from] = append(sub.runtime[from], remap[d])
			}
		}
	}
	// A restriction of an acyclic graph stays acyclic.
	_ = sub.finish()
	return sub
}

func (g *Graph) computeScopes() {
	n := len(g.elements)
	runtimeClosure := make([][]ElementID, n)
	for id := range n {
		seen := map[ElementID]bool{ElementID(id): true}
		stack := slices.Clone(g.runtime[id])
		var closure []ElementID
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[cur] {
				continue
			}
			seen[cur] = true
			closure = append(closure, cur)
			stack = append(stack, g.runtime[cur]...)
		}
		runtimeClosure[id] = closure
	}

	g.scope = make([][]ElementID, n)
	g.scopeUsers = make([][]ElementID, n)
	for id := range n {
		var scope []ElementID
		for _, b := range g.build[id] {
			scope = appendUnique(scope, b)
			for _, r := range runtimeClosure[b] {
				scope = appendUnique(scope, r)
			}
		}
		slices.SortFunc(scope, func(a, b ElementID) int {
			return strings.Compare(g.elements[a].Name, g.elements[b].Name)
		})
		g.scope[id] = scope
		for _, s := range scope {
			g.scopeUsers[s] = append(g.scopeUsers[s], ElementID(id))
		}
	}
}

func (g *Graph) computeOrder() {
	n := len(g.elements)
	inDegree := make([]int, n)
	for id := range n {
		inDegree[id] = len(g.scope[id])
	}

	h := &idHeap{}
	for id := range n {
		if inDegree[id] == 0 {
			heap.Push(h, ElementID(id))
		}
	}

	g.order = make([]ElementID, 0, n)
	g.position = make([]int, n)
	for h.Len() > 0 {
		id := heap.Pop(h).(ElementID)
		g.position[id] = len(g.order)
		g.order = append(g.order, id)
		for _, u := range g.scopeUsers[id] {
			inDegree[u]--
			if inDegree[u] == 0 {
				heap.Push(h, u)
			}
		}
	}
}

func (g *Graph) cycleError(path []ElementID) error {
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = g.elements[id].Name
	}
	return &CycleError{Path: names}
}

// findCycle runs a depth-first search in declaration order and returns the
// first cycle found, closed by repeating its first element.
func findCycle(n int, adj func(ElementID) []ElementID) []ElementID {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, n)
	var path []ElementID

	var visit func(u ElementID) []ElementID
	visit = func(u ElementID) []ElementID {
		state[u] = visiting
		path = append(path, u)
		for _, v := range adj(u) {
			switch state[v] {
			case visiting:
				start := slices.Index(path, v)
				cycle := slices.Clone(path[start:])
				return append(cycle, v)
			case unvisited:
				if c := visit(v); c != nil {
					return c
				}
			}
		}
		state[u] = done
		path = path[:len(path)-1]
		return nil
	}

	for id := range n {
		if state[id] == unvisited {
			if c := visit(ElementID(id)); c != nil {
				return c
			}
		}
	}
	return nil
}

func appendUnique(s []ElementID, id ElementID) []ElementID {
	if slices.Contains(s, id) {
		return s
	}
	return append(s, id)
}

type idHeap []ElementID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) { *h = append(*h, x.(ElementID)) }

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
