// Package elements provides the builders that turn element declarations of
// each kind into build plans.
package elements

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
)

// Command phases in the order they run.
const (
	ConfigureCommands = "configure-commands"
	BuildCommands     = "build-commands"
	InstallCommands   = "install-commands"
	StripCommands     = "strip-commands"
)

var phases = []string{ConfigureCommands, BuildCommands, InstallCommands, StripCommands}

// Commands is a builder for kinds that run shell commands. Defaults fill in
// phases the element does not set.
type Commands struct {
	kind     string
	defaults map[string][]string
	env      map[string]string
}

var _ ports.ElementBuilder = (*Commands)(nil)

// NewManual returns the builder for "manual" elements. Every command comes
// from the element.
func NewManual() *Commands {
	return &Commands{kind: "manual"}
}

// NewMake returns the builder for "make" elements.
func NewMake() *Commands {
	return &Commands{
		kind: "make",
		defaults: map[string][]string{
			BuildCommands:   {"make"},
			InstallCommands: {`make -j1 DESTDIR="$KEEL_INSTALL_DIR" install`},
		},
	}
}

// NewAutotools returns the builder for "autotools" elements.
func NewAutotools() *Commands {
	return &Commands{
		kind: "autotools",
		defaults: map[string][]string{
			ConfigureCommands: {`./configure --prefix="$PREFIX"`},
			BuildCommands:     {"make"},
			InstallCommands:   {`make -j1 DESTDIR="$KEEL_INSTALL_DIR" install`},
		},
		env: map[string]string{"PREFIX": "/usr"},
	}
}

// Kind returns the element kind served.
func (c *Commands) Kind() string {
	return c.kind
}

// Plan concatenates the command phases. The element environment overrides the
// builder's.
func (c *Commands) Plan(e *domain.Element) (domain.BuildPlan, error) {
	if err := checkKeys(e, phases...); err != nil {
		return domain.BuildPlan{}, err
	}

	var commands []string
	for _, phase := range phases {
		cmds, ok, err := stringList(e, phase)
		if err != nil {
			return domain.BuildPlan{}, err
		}
		if !ok {
			cmds = c.defaults[phase]
		}
		commands = append(commands, cmds...)
	}

	env := maps.Clone(c.env)
	if env == nil {
		env = map[string]string{}
	}
	maps.Copy(env, e.Environment)
	return domain.BuildPlan{Strategy: domain.StrategySandbox, Commands: commands, Env: env}, nil
}

// Import is the builder for "import" elements, whose artifact is their staged
// sources.
type Import struct{}

// Kind returns "import".
func (Import) Kind() string { return "import" }

// Plan returns an import plan.
func (Import) Plan(e *domain.Element) (domain.BuildPlan, error) {
	if err := checkKeys(e); err != nil {
		return domain.BuildPlan{}, err
	}
	if len(e.Sources) == 0 {
		return domain.BuildPlan{}, domain.NewError(domain.ErrNoSources, "element", e.Name)
	}
	return domain.BuildPlan{Strategy: domain.StrategyImport}, nil
}

// Stack is the builder for "stack" elements. A stack only groups its
// dependencies and produces an empty artifact.
type Stack struct{}

// Kind returns "stack".
func (Stack) Kind() string { return "stack" }

// Plan returns a compose plan.
func (Stack) Plan(e *domain.Element) (domain.BuildPlan, error) {
	if err := checkKeys(e); err != nil {
		return domain.BuildPlan{}, err
	}
	if len(e.Sources) > 0 {
		return domain.BuildPlan{}, domain.NewError(domain.ErrInvalidElementConfig,
			"element", e.Name, "reason", "stack elements cannot have sources")
	}
	return domain.BuildPlan{Strategy: domain.StrategyCompose}, nil
}

// Registry returns the builders of every built-in kind.
func Registry() ports.ElementBuilders {
	builders := []ports.ElementBuilder{NewManual(), NewMake(), NewAutotools(), Import{}, Stack{}}
	out := make(ports.ElementBuilders, len(builders))
	for _, b := range builders {
		out[b.Kind()] = b
	}
	return out
}

func checkKeys(e *domain.Element, allowed ...string) error {
	for _, key := range slices.Sorted(maps.Keys(e.Config)) {
		if !slices.Contains(allowed, key) {
			return domain.NewError(domain.ErrInvalidElementConfig,
				"element", e.Name, "kind", e.Kind, "key", key,
				"reason", "unknown key")
		}
	}
	return nil
}

// stringList reads key as a list of strings. A single string is a list of one.
func stringList(e *domain.Element, key string) ([]string, bool, error) {
	raw, ok := e.Config[key]
	if !ok {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case string:
		return []string{v}, true, nil
	case []string:
		return v, true, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, false, domain.NewError(domain.ErrInvalidElementConfig,
					"element", e.Name, "key", fmt.Sprintf("%s[%d]", key, i),
					"reason", "expected a command string")
			}
			out = append(out, s)
		}
		return out, true, nil
	case nil:
		return nil, true, nil
	default:
		return nil, false, domain.NewError(domain.ErrInvalidElementConfig,
			"element", e.Name, "key", key, "reason", "expected a list of commands")
	}
}
