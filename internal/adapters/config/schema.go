package config

import (
	"time"

	"go.trai.ch/keel/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// ProjectFile is the structure of keel.yaml.
type ProjectFile struct {
	Name    string     `yaml:"name"`
	Options OptionsDTO `yaml:"options"`
	// Elements is a mapping of element name to ElementDTO. It stays a node so
	// declaration order survives decoding.
	Elements yaml.Node `yaml:"elements"`
}

// OptionsDTO holds engine settings. Unset fields keep their defaults.
type OptionsDTO struct {
	Scheduler SchedulerDTO `yaml:"scheduler"`
	Cache     CacheDTO     `yaml:"cache"`
	Remote    RemoteDTO    `yaml:"remote"`
}

// SchedulerDTO configures job pools and the error policy.
type SchedulerDTO struct {
	Fetchers       *int           `yaml:"fetchers"`
	Builders       *int           `yaml:"builders"`
	Pushers        *int           `yaml:"pushers"`
	NetworkRetries *int           `yaml:"network-retries"`
	RetryBackoff   *time.Duration `yaml:"retry-backoff"`
	OnError        string         `yaml:"on-error"`
}

// CacheDTO configures the local artifact cache.
type CacheDTO struct {
	Strict     *bool  `yaml:"strict"`
	Quota      string `yaml:"quota"`
	OnMismatch string `yaml:"on-mismatch"`
}

// RemoteDTO configures the shared remote cache. Secrets belong in the
// environment or .env, not here.
type RemoteDTO struct {
	URL    string `yaml:"url"`
	Push   *bool  `yaml:"push"`
	Region string `yaml:"region"`
}

// ElementDTO is one element declaration.
type ElementDTO struct {
	Kind string `yaml:"kind"`
	// Depends declares dependencies needed both to build and at runtime.
	Depends        []string          `yaml:"depends"`
	BuildDepends   []string          `yaml:"build-depends"`
	RuntimeDepends []string          `yaml:"runtime-depends"`
	Config         map[string]any    `yaml:"config"`
	Environment    map[string]string `yaml:"environment"`
	Sources        []SourceDTO       `yaml:"sources"`
}

// SourceDTO is one source declaration.
type SourceDTO struct {
	Kind      string         `yaml:"kind"`
	URL       string         `yaml:"url"`
	Path      string         `yaml:"path"`
	Track     string         `yaml:"track"`
	Ref       string         `yaml:"ref"`
	Directory string         `yaml:"directory"`
	Config    map[string]any `yaml:"config"`
}

// RefsFile is the structure of project.refs: the pinned revision of every
// source, by element name and source index.
type RefsFile struct {
	Elements map[string][]string `yaml:"elements"`
}

// WorkspacesFile is the structure of the workspace record file.
type WorkspacesFile struct {
	Workspaces []domain.Workspace `yaml:"workspaces"`
}
