package sandbox_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/sandbox"
)

func TestResolveEnvironment(t *testing.T) {
	got := sandbox.ResolveEnvironment(
		[]string{"PATH=/usr/bin", "HOME=/home/u", "AWS_SECRET=x", "malformed"},
		map[string]string{sandbox.EnvElement: "app"},
		map[string]string{"PATH": "/opt/tools/bin", "CFLAGS": "-O2"},
	)

	assert.Equal(t, []string{
		"CFLAGS=-O2",
		"HOME=/home/u",
		"KEEL_ELEMENT=app",
		"PATH=/opt/tools/bin" + string(os.PathListSeparator) + "/usr/bin",
	}, got)
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain"), nil, 0o644))

	got, err := sandbox.LookPath("tool", []string{"PATH=" + dir})
	require.NoError(t, err)
	assert.Equal(t, tool, got)

	_, err = sandbox.LookPath("plain", []string{"PATH=" + dir})
	require.ErrorIs(t, err, exec.ErrNotFound)

	_, err = sandbox.LookPath("tool", nil)
	require.ErrorIs(t, err, exec.ErrNotFound)
}
