package elements_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/elements"
	"go.trai.ch/keel/internal/core/domain"
)

func TestCommands_Plan(t *testing.T) {
	tests := []struct {
		name    string
		builder *elements.Commands
		element domain.Element
		want    domain.BuildPlan
	}{
		{
			name:    "manual runs only declared phases in order",
			builder: elements.NewManual(),
			element: domain.Element{
				Name: "hello",
				Kind: "manual",
				Config: map[string]any{
					elements.InstallCommands: []any{`cp hello "$KEEL_INSTALL_DIR"`},
					elements.BuildCommands:   "cc -o hello hello.c",
				},
				Environment: map[string]string{"CC": "gcc"},
			},
			want: domain.BuildPlan{
				Commands: []string{"cc -o hello hello.c", `cp hello "$KEEL_INSTALL_DIR"`},
				Env:      map[string]string{"CC": "gcc"},
			},
		},
		{
			name:    "make fills defaults",
			builder: elements.NewMake(),
			element: domain.Element{Name: "lib", Kind: "make"},
			want: domain.BuildPlan{
				Commands: []string{"make", `make -j1 DESTDIR="$KEEL_INSTALL_DIR" install`},
				Env:      map[string]string{},
			},
		},
		{
			name:    "autotools override keeps other defaults",
			builder: elements.NewAutotools(),
			element: domain.Element{
				Name:        "tool",
				Kind:        "autotools",
				Config:      map[string]any{elements.BuildCommands: []any{"make -j4"}},
				Environment: map[string]string{"PREFIX": "/opt"},
			},
			want: domain.BuildPlan{
				Commands: []string{
					`./configure --prefix="$PREFIX"`,
					"make -j4",
					`make -j1 DESTDIR="$KEEL_INSTALL_DIR" install`,
				},
				Env: map[string]string{"PREFIX": "/opt"},
			},
		},
		{
			name:    "explicit empty phase disables a default",
			builder: elements.NewMake(),
			element: domain.Element{
				Name:   "headers",
				Kind:   "make",
				Config: map[string]any{elements.BuildCommands: nil},
			},
			want: domain.BuildPlan{
				Commands: []string{`make -j1 DESTDIR="$KEEL_INSTALL_DIR" install`},
				Env:      map[string]string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.builder.Plan(&tt.element)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommands_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{"unknown key", map[string]any{"post-commands": []any{"true"}}},
		{"not a list", map[string]any{elements.BuildCommands: 3}},
		{"blank command", map[string]any{elements.BuildCommands: []any{"make", " "}}},
		{"non string command", map[string]any{elements.BuildCommands: []any{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := elements.NewManual().Plan(&domain.Element{Name: "x", Kind: "manual", Config: tt.config})
			require.ErrorIs(t, err, domain.ErrInvalidElementConfig)
		})
	}
}

func TestImport_Plan(t *testing.T) {
	plan, err := elements.Import{}.Plan(&domain.Element{
		Name:    "base",
		Kind:    "import",
		Sources: []domain.Source{{Kind: "local", Path: "files"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyImport, plan.Strategy)

	_, err = elements.Import{}.Plan(&domain.Element{Name: "empty", Kind: "import"})
	require.ErrorIs(t, err, domain.ErrNoSources)
}

func TestStack_Plan(t *testing.T) {
	plan, err := elements.Stack{}.Plan(&domain.Element{Name: "all", Kind: "stack"})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyCompose, plan.Strategy)

	_, err = elements.Stack{}.Plan(&domain.Element{
		Name:    "all",
		Kind:    "stack",
		Sources: []domain.Source{{Kind: "local", Path: "x"}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidElementConfig)
}

func TestRegistry(t *testing.T) {
	reg := elements.Registry()
	for _, kind := range []string{"manual", "make", "autotools", "import", "stack"} {
		b, ok := reg[kind]
		require.True(t, ok, kind)
		assert.Equal(t, kind, b.Kind())
	}
}
