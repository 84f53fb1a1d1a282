package ports

import (
	"context"

	"go.trai.ch/keel/internal/core/domain"
)

//go:generate mockgen -source=source_plugin.go -destination=mocks/mock_source_plugin.go -package=mocks

// SourcePlugin knows how to track, fetch and stage one kind of source.
type SourcePlugin interface {
	// Kind is the source kind the plugin serves.
	Kind() string
	// ResolveRef resolves the source's tracking pattern to a revision.
	ResolveRef(ctx context.Context, root string, src domain.Source) (string, error)
	// Fetch stores the content pinned by src.Ref and returns its tree digest.
	Fetch(ctx context.Context, root string, src domain.Source, store ContentStore) (domain.Digest, error)
	// Stage writes a fetched tree into dest.
	Stage(ctx context.Context, store ContentStore, tree domain.Digest, dest string) error
}

// SourcePlugins maps source kinds to their plugins.
type SourcePlugins map[string]SourcePlugin

// ElementBuilder turns an element of one kind into a build plan.
type ElementBuilder interface {
	// Kind is the element kind the builder serves.
	Kind() string
	// Plan describes how the element is built.
	Plan(e *domain.Element) (domain.BuildPlan, error)
}

// ElementBuilders maps element kinds to their builders.
type ElementBuilders map[string]ElementBuilder
