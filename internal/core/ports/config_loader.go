package ports

import "go.trai.ch/keel/internal/core/domain"

//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks

// ConfigLoader defines the interface for loading a project.
type ConfigLoader interface {
	// Load finds the project file at or above cwd and returns the project with
	// pinned revisions applied to its sources.
	Load(cwd string) (*domain.Project, error)

	// DiscoverRoot walks up from cwd to find the directory holding keel.yaml.
	DiscoverRoot(cwd string) (string, error)
}

// RefStore persists pinned source revisions next to the project file.
type RefStore interface {
	// SetRef records ref for source index of element.
	SetRef(root, element string, index int, ref string) error
}
