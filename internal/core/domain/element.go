package domain

import (
	"regexp"
	"slices"
)

// DepKind distinguishes build from runtime dependencies.
type DepKind uint8

const (
	// DepBuild means the dependency's artifact is staged when building the dependent.
	DepBuild DepKind = iota
	// DepRuntime means the dependency is needed wherever the dependent is used.
	DepRuntime
)

// String returns the declaration name of the kind.
func (k DepKind) String() string {
	if k == DepRuntime {
		return "runtime"
	}
	return "build"
}

// Dependency references another element by name.
type Dependency struct {
	Name string
	Kind DepKind
}

// Source describes where part of an element's input comes from.
type Source struct {
	// Kind selects the source plugin.
	Kind string `json:"kind"`
	// URL is the remote location for network plugins.
	URL string `json:"url,omitempty"`
	// Path is a project-relative path for local plugins.
	Path string `json:"path,omitempty"`
	// Track is the pattern resolved by tracking, for example a branch name.
	Track string `json:"-"`
	// Ref is the pinned revision. Empty means the source is inconsistent.
	Ref string `json:"ref"`
	// Directory is where the source is staged inside the build directory.
	Directory string `json:"directory,omitempty"`
	// Config holds plugin specific settings.
	Config map[string]any `json:"config,omitempty"`
}

// UniqueKey digests everything that pins the source content. The ref is part of
// it, so the key is known as soon as the source is resolved.
func (s Source) UniqueKey() (Digest, error) {
	return CanonicalDigest(s)
}

// WithRef returns a copy of the source pinned to ref.
func (s Source) WithRef(ref string) Source {
	s.Ref = ref
	return s
}

// Element is the immutable declaration of a buildable component.
type Element struct {
	Name         string
	Kind         string
	Config       map[string]any
	Environment  map[string]string
	Dependencies []Dependency
	Sources      []Source
}

// ConfigDigest digests the element's build configuration.
func (e *Element) ConfigDigest() (Digest, error) {
	return CanonicalDigest(struct {
		Config      map[string]any    `json:"config"`
		Environment map[string]string `json:"environment"`
	}{e.Config, e.Environment})
}

// DependencyNames returns the names of dependencies of the given kind in declaration order.
func (e *Element) DependencyNames(kind DepKind) []string {
	var out []string
	for _, d := range e.Dependencies {
		if d.Kind == kind && !slices.Contains(out, d.Name) {
			out = append(out, d.Name)
		}
	}
	return out
}

var elementNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// ValidElementName reports whether name may be used for an element.
func ValidElementName(name string) bool {
	return elementNameRe.MatchString(name)
}
