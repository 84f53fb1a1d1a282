package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/watcher"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/keel/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestWatcher_ReportsWrites(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, domain.StateDirName), domain.DirPerm))

	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	w, err := watcher.NewWatcher(logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, root))
	defer func() { _ = w.Stop() }()

	// Writes below the state directory are not reported.
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.StateDirName, "ignored"), []byte("x"), domain.FilePerm))
	target := filepath.Join(root, "main.c")
	require.NoError(t, os.WriteFile(target, []byte("int main;"), domain.FilePerm))

	got := make(chan ports.WatchEvent, 1)
	go func() {
		for ev := range w.Events() {
			if ev.Path == target {
				got <- ev
				return
			}
			assert.NotContains(t, ev.Path, domain.StateDirName)
		}
	}()

	select {
	case ev := <-got:
		assert.Contains(t, []ports.WatchOp{ports.OpCreate, ports.OpWrite}, ev.Operation)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for written file")
	}
}
