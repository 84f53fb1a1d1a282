package domain

import "time"

// Workspace binds a mutable directory to an element, overriding its first source.
type Workspace struct {
	Element string    `yaml:"element"`
	Path    string    `yaml:"path"`
	Ref     string    `yaml:"ref,omitempty"`
	Opened  time.Time `yaml:"opened"`
}
