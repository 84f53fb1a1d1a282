// Package cachekey derives the cache keys identifying element build inputs.
package cachekey

import (
	"sync"

	"go.trai.ch/keel/internal/core/domain"
)

// keyVersion is mixed into every key; bump it when the key layout changes.
const keyVersion = 2

// SourceResolver exposes the current state of element sources.
type SourceResolver interface {
	// Sources returns the element's sources with their current pinned revisions.
	Sources(element string) []domain.Source
	// Workspaced reports whether a workspace overrides the element's sources.
	Workspaced(element string) bool
}

// Calculator computes and memoizes cache keys over one graph. Keys are
// recomputed only after Invalidate or SetOutput touched an element they depend on.
type Calculator struct {
	graph   *domain.Graph
	sources SourceResolver

	mu      sync.Mutex
	strict  map[domain.ElementID]domain.CacheKey
	weak    map[domain.ElementID]domain.CacheKey
	outputs map[domain.ElementID]domain.Digest
}

// New creates a Calculator for graph.
func New(graph *domain.Graph, sources SourceResolver) *Calculator {
	return &Calculator{
		graph:   graph,
		sources: sources,
		strict:  make(map[domain.ElementID]domain.CacheKey),
		weak:    make(map[domain.ElementID]domain.CacheKey),
		outputs: make(map[domain.ElementID]domain.Digest),
	}
}

type dependencyInput struct {
	Name string          `json:"name"`
	Key  domain.CacheKey `json:"key,omitempty"`
}

type keyInput struct {
	Version      int               `json:"version"`
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	Config       domain.Digest     `json:"config"`
	Dependencies []dependencyInput `json:"dependencies"`
	Sources      []domain.Digest   `json:"sources,omitempty"`
	Workspace    bool              `json:"workspace,omitempty"`
}

// Key returns the key identifying the build inputs of id. For an element with
// an open workspace this is the workspace-open variant, which leaves out the
// sources and is never used to look up the cache.
func (c *Calculator) Key(id domain.ElementID) (domain.CacheKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key(id)
}

// Cacheable reports whether artifacts for id may be served from a cache.
func (c *Calculator) Cacheable(id domain.ElementID) bool {
	return !c.sources.Workspaced(c.graph.Name(id))
}

// DependencyKey returns the key dependents of id mix into their own keys. It
// equals Key for cacheable elements. For workspaced elements it also covers the
// output tree, so it is only known once the element was built.
func (c *Calculator) DependencyKey(id domain.ElementID) (domain.CacheKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dependencyKey(id)
}

// Weak returns the weak key of id: like the strict key, but with dependency
// names in place of their keys, so it survives dependency rebuilds that keep
// the same interface.
func (c *Calculator) Weak(id domain.ElementID) (domain.CacheKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if k, ok := c.weak[id]; ok {
		return k, nil
	}

	e := c.graph.Element(id)
	in, err := c.baseInput(id)
	if err != nil {
		return "", err
	}
	for _, dep := range c.graph.BuildScope(id) {
		in.Dependencies = append(in.Dependencies, dependencyInput{Name: c.graph.Name(dep)})
	}
	if in.Sources, err = c.sourceDigests(e); err != nil {
		return "", err
	}

	k, err := digest(in)
	if err != nil {
		return "", err
	}
	c.weak[id] = k
	return k, nil
}

// SetOutput records the output tree of a workspaced element and invalidates
// everything that depends on it.
func (c *Calculator) SetOutput(id domain.ElementID, tree domain.Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outputs[id] == tree {
		return
	}
	c.outputs[id] = tree
	c.invalidateDependents(id)
}

// Invalidate drops the memoized keys of id and of every element whose key depends on it.
func (c *Calculator) Invalidate(id domain.ElementID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.strict, id)
	delete(c.weak, id)
	delete(c.outputs, id)
	c.invalidateDependents(id)
}

func (c *Calculator) invalidateDependents(id domain.ElementID) {
	for _, dep := range c.graph.ReverseDependents(id) {
		delete(c.strict, dep)
		delete(c.weak, dep)
		delete(c.outputs, dep)
	}
}

func (c *Calculator) key(id domain.ElementID) (domain.CacheKey, error) {
	if k, ok := c.strict[id]; ok {
		return k, nil
	}

	e := c.graph.Element(id)
	in, err := c.baseInput(id)
	if err != nil {
		return "", err
	}

	for _, dep := range c.graph.BuildScope(id) {
		dk, err := c.dependencyKey(dep)
		if err != nil {
			return "", domain.WrapError(err, domain.ErrUnresolvedDependency,
				"element", e.Name, "dependency", c.graph.Name(dep))
		}
		in.Dependencies = append(in.Dependencies, dependencyInput{Name: c.graph.Name(dep), Key: dk})
	}

	if c.sources.Workspaced(e.Name) {
		in.Workspace = true
	} else if in.Sources, err = c.sourceDigests(e); err != nil {
		return "", err
	}

	k, err := digest(in)
	if err != nil {
		return "", err
	}
	c.strict[id] = k
	return k, nil
}

func (c *Calculator) dependencyKey(id domain.ElementID) (domain.CacheKey, error) {
	k, err := c.key(id)
	if err != nil {
		return "", err
	}
	if !c.sources.Workspaced(c.graph.Name(id)) {
		return k, nil
	}

	out, ok := c.outputs[id]
	if !ok {
		return "", domain.NewError(domain.ErrUnresolvedDependency,
			"element", c.graph.Name(id), "reason", "workspace not built yet")
	}
	return domain.CacheKey(domain.DigestOf([]byte(string(k) + ":" + string(out)))), nil
}

func (c *Calculator) baseInput(id domain.ElementID) (keyInput, error) {
	e := c.graph.Element(id)
	config, err := e.ConfigDigest()
	if err != nil {
		return keyInput{}, domain.WrapError(err, domain.ErrConfigParseFailed, "element", e.Name)
	}
	return keyInput{
		Version:      keyVersion,
		Name:         e.Name,
		Kind:         e.Kind,
		Config:       config,
		Dependencies: []dependencyInput{},
	}, nil
}

func (c *Calculator) sourceDigests(e *domain.Element) ([]domain.Digest, error) {
	sources := c.sources.Sources(e.Name)
	out := make([]domain.Digest, 0, len(sources))
	for i, src := range sources {
		if src.Ref == "" {
			return nil, domain.NewError(domain.ErrUnresolvedDependency,
				"element", e.Name, "source", i, "reason", "source is not resolved")
		}
		d, err := src.UniqueKey()
		if err != nil {
			return nil, domain.WrapError(err, domain.ErrUnresolvedDependency, "element", e.Name, "source", i)
		}
		out = append(out, d)
	}
	return out, nil
}

func digest(in keyInput) (domain.CacheKey, error) {
	d, err := domain.CanonicalDigest(in)
	if err != nil {
		return "", err
	}
	return domain.CacheKey(d), nil
}
