package ports

import "go.trai.ch/keel/internal/core/domain"

// WorkspaceStore persists open workspace records of a project.
//
//go:generate mockgen -source=workspace_store.go -destination=mocks/mock_workspace_store.go -package=mocks
type WorkspaceStore interface {
	// Get returns the workspace of element, or nil when none is open.
	Get(root, element string) (*domain.Workspace, error)
	// Put records a workspace, replacing any record for the same element.
	Put(root string, ws domain.Workspace) error
	// Delete removes the record for element.
	Delete(root, element string) error
	// List returns all records sorted by element name.
	List(root string) ([]domain.Workspace, error)
}
