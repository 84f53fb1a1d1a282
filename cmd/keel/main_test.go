package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/keel/internal/app"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newComponents(ctrl *gomock.Controller, loader *mocks.MockConfigLoader, logger *mocks.MockLogger) ComponentProvider {
	application := app.New(app.Dependencies{
		Loader:   loader,
		Renderer: mocks.NewMockRenderer(ctrl),
		Watcher:  mocks.NewMockWatcher(ctrl),
		Logger:   logger,
	})
	return func(context.Context) (*app.Components, func(), error) {
		return &app.Components{App: application, Logger: logger}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := newComponents(ctrl, mocks.NewMockConfigLoader(ctrl), mocks.NewMockLogger(ctrl))

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that a failing command is logged and exits 1.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	loadErr := domain.NewError(domain.ErrConfigNotFound, "dir", "/nowhere")
	loader.EXPECT().Load("/nowhere").Return(nil, loadErr)
	logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	})

	exitCode := run(context.Background(), []string{"-C", "/nowhere", "show"}, io.Discard, newComponents(ctrl, loader, logger))
	assert.Equal(t, 1, exitCode)
}

// TestRun_BuildFailedIsNotLoggedAgain verifies that failed builds only set the exit code.
func TestRun_BuildFailedIsNotLoggedAgain(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	loader.EXPECT().Load(gomock.Any()).Return(nil, domain.NewError(domain.ErrBuildFailed))
	logger.EXPECT().Error(gomock.Any()).Times(0)

	exitCode := run(context.Background(), []string{"build"}, io.Discard, newComponents(ctrl, loader, logger))
	assert.Equal(t, 1, exitCode)
}

// TestRun_Signal verifies that the context is canceled on signal.
func TestRun_Signal(t *testing.T) {
	ctrl := gomock.NewController(t)
	blockCh := make(chan struct{})

	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(gomock.Any()).DoAndReturn(func(string) (*domain.Project, error) {
		select {
		case <-blockCh:
			return nil, context.Canceled
		case <-time.After(5 * time.Second):
			return nil, errors.New("timeout in mock")
		}
	})

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan int)

	go func() {
		errCh <- run(ctx, []string{"build", "target"}, io.Discard, newComponents(ctrl, loader, logger))
	}()

	// Give run() time to reach Load().
	time.Sleep(100 * time.Millisecond)

	cancel()
	close(blockCh)

	select {
	case ret := <-errCh:
		assert.NotEqual(t, 0, ret)
	case <-time.After(2 * time.Second):
		t.Fatal("TestRun_Signal timed out waiting for run() to return")
	}
}
