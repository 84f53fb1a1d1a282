package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/config"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestRefFile_SetRef(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.ProjectFileName), []byte(`
elements:
  hello:
    kind: manual
    sources:
      - kind: git
        url: https://example.com/a.git
        track: main
      - kind: git
        url: https://example.com/b.git
        track: main
`), domain.FilePerm))

	refs := config.NewRefFile()
	require.NoError(t, refs.SetRef(root, "hello", 1, "def456"))
	require.NoError(t, refs.SetRef(root, "hello", 0, "abc123"))
	require.NoError(t, refs.SetRef(root, "hello", 1, "fed654"))

	logger := mocks.NewMockLogger(gomock.NewController(t))
	project, err := config.NewLoader(logger).Load(root)
	require.NoError(t, err)

	sources := project.Elements[0].Sources
	assert.Equal(t, "abc123", sources[0].Ref)
	assert.Equal(t, "fed654", sources[1].Ref)

	data, err := os.ReadFile(filepath.Join(root, domain.RefsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Pinned source revisions")
}
