// Package config loads keel.yaml projects and persists the state files that
// live next to them: pinned revisions and open workspaces.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader.
type Loader struct {
	FS     FileSystem
	Logger ports.Logger
	// Getenv reads overrides from the process environment.
	Getenv func(string) string
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a Loader on the real filesystem and environment.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{FS: OSFS{}, Logger: logger, Getenv: os.Getenv}
}

// DiscoverRoot walks up from cwd to the first directory holding keel.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	dir := cwd
	for {
		if info, err := l.FS.Stat(filepath.Join(dir, domain.ProjectFileName)); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", domain.NewError(domain.ErrConfigNotFound, "cwd", cwd)
		}
		dir = parent
	}
}

// Load reads the project around cwd. Revisions from project.refs replace the
// ones declared inline, and the environment overrides remote settings.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	root, err := l.DiscoverRoot(cwd)
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(root, domain.ProjectFileName)

	var file ProjectFile
	if err := l.readYAML(configPath, &file); err != nil {
		return nil, err
	}

	project := &domain.Project{Name: file.Name, Root: root}
	if project.Name == "" {
		project.Name = filepath.Base(root)
	}
	if project.Options, err = buildOptions(file.Options); err != nil {
		return nil, zerr.With(err, "file", configPath)
	}
	if project.Elements, err = buildElements(&file.Elements); err != nil {
		return nil, zerr.With(err, "file", configPath)
	}

	refs, err := readRefs(l.FS, root)
	if err != nil {
		return nil, err
	}
	applyRefs(project, refs, l.Logger)

	if err := l.applyEnv(root, &project.Options.Remote); err != nil {
		return nil, err
	}
	return project, nil
}

func (l *Loader) readYAML(path string, target any) error {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return domain.WrapError(err, domain.ErrConfigReadFailed, "file", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return domain.WrapError(err, domain.ErrConfigParseFailed, "file", path)
	}
	return nil
}

func buildElements(node *yaml.Node) ([]domain.Element, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, domain.NewError(domain.ErrConfigParseFailed, "reason", "elements must be a mapping")
	}

	elements := make([]domain.Element, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if !domain.ValidElementName(name) {
			return nil, domain.NewError(domain.ErrInvalidElementName, "element", name, "line", node.Content[i].Line)
		}
		var dto ElementDTO
		if err := node.Content[i+1].Decode(&dto); err != nil {
			return nil, domain.WrapError(err, domain.ErrConfigParseFailed, "element", name)
		}
		e, err := buildElement(name, &dto)
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	return elements, nil
}

func buildElement(name string, dto *ElementDTO) (domain.Element, error) {
	if dto.Kind == "" {
		return domain.Element{}, domain.NewError(domain.ErrConfigParseFailed, "element", name, "reason", "missing kind")
	}
	e := domain.Element{
		Name:        name,
		Kind:        dto.Kind,
		Config:      dto.Config,
		Environment: dto.Environment,
	}

	add := func(names []string, kinds ...domain.DepKind) {
		for _, dep := range names {
			for _, kind := range kinds {
				d := domain.Dependency{Name: dep, Kind: kind}
				if !slices.Contains(e.Dependencies, d) {
					e.Dependencies = append(e.Dependencies, d)
				}
			}
		}
	}
	add(dto.Depends, domain.DepBuild, domain.DepRuntime)
	add(dto.BuildDepends, domain.DepBuild)
	add(dto.RuntimeDepends, domain.DepRuntime)

	for i, s := range dto.Sources {
		if s.Kind == "" {
			return domain.Element{}, domain.NewError(domain.ErrConfigParseFailed,
				"element", name, "source", i, "reason", "missing source kind")
		}
		e.Sources = append(e.Sources, domain.Source{
			Kind:      s.Kind,
			URL:       s.URL,
			Path:      s.Path,
			Track:     s.Track,
			Ref:       s.Ref,
			Directory: s.Directory,
			Config:    s.Config,
		})
	}
	return e, nil
}

func buildOptions(dto OptionsDTO) (domain.Options, error) {
	opts := domain.DefaultOptions()

	s := dto.Scheduler
	for _, f := range []struct {
		dst *int
		src *int
		min int
		key string
	}{
		{&opts.Fetchers, s.Fetchers, 1, "fetchers"},
		{&opts.Builders, s.Builders, 1, "builders"},
		{&opts.Pushers, s.Pushers, 1, "pushers"},
		{&opts.NetworkRetries, s.NetworkRetries, 0, "network-retries"},
	} {
		if f.src == nil {
			continue
		}
		if *f.src < f.min {
			return opts, domain.NewError(domain.ErrConfigParseFailed, "option", f.key, "value", *f.src)
		}
		*f.dst = *f.src
	}
	if s.RetryBackoff != nil {
		opts.RetryBackoff = *s.RetryBackoff
	}
	switch domain.ErrorPolicy(s.OnError) {
	case "":
	case domain.FailFast, domain.ContinueOnError:
		opts.OnError = domain.ErrorPolicy(s.OnError)
	default:
		return opts, domain.NewError(domain.ErrConfigParseFailed, "option", "on-error", "value", s.OnError)
	}

	c := dto.Cache
	if c.Strict != nil {
		opts.Strict = *c.Strict
	}
	if c.Quota != "" {
		quota, err := ParseSize(c.Quota)
		if err != nil {
			return opts, zerr.With(err, "option", "quota")
		}
		opts.Quota = quota
	}
	switch domain.MismatchPolicy(c.OnMismatch) {
	case "":
	case domain.MismatchWarn, domain.MismatchFail:
		opts.OnMismatch = domain.MismatchPolicy(c.OnMismatch)
	default:
		return opts, domain.NewError(domain.ErrConfigParseFailed, "option", "on-mismatch", "value", c.OnMismatch)
	}

	opts.Remote.URL = dto.Remote.URL
	opts.Remote.Region = dto.Remote.Region
	opts.Remote.Push = dto.Remote.URL != ""
	if dto.Remote.Push != nil {
		opts.Remote.Push = *dto.Remote.Push
	}
	return opts, nil
}

// applyRefs pins sources to the revisions recorded by tracking.
func applyRefs(project *domain.Project, refs RefsFile, logger ports.Logger) {
	for i := range project.Elements {
		e := &project.Elements[i]
		pinned, ok := refs.Elements[e.Name]
		if !ok {
			continue
		}
		if len(pinned) > len(e.Sources) {
			logger.Warn("project.refs lists more revisions than " + e.Name + " has sources, ignoring the rest")
		}
		for j := range e.Sources {
			if j < len(pinned) && pinned[j] != "" {
				e.Sources[j].Ref = pinned[j]
			}
		}
	}
}

func notExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
