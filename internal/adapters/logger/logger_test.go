package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/logger"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/zerr"
)

func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Info("fetching 3 sources")
	lg.Warn("remote cache unavailable")
	lg.Error(errors.New("boom"))

	assert.Equal(t,
		"fetching 3 sources\n"+
			"! remote cache unavailable\n"+
			"✗ Error: boom\n",
		buf.String())
}

func TestLogger_Quiet(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetQuiet(true)

	lg.Info("hidden")
	lg.Warn("shown")

	assert.Equal(t, "! shown\n", buf.String())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_Error_DomainChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	cause := errors.New("exit status 128")
	lg.Error(domain.WrapError(cause, domain.ErrFetchFailed, "element", "base/zlib"))

	out := buf.String()
	assert.Contains(t, out, "Error: failed to fetch source")
	assert.Contains(t, out, "element: base/zlib")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "→ exit status 128")
	assert.NotContains(t, out, "Error: exit status 128")
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	err := zerr.With(zerr.Wrap(errors.New("connection refused"), "remote cache unavailable"), "url", "grpc://cache:7070")
	lg.Error(err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Contains(t, rec["error"], "remote cache unavailable")
	assert.Equal(t, "grpc://cache:7070", rec["url"])
}

func TestLogger_FormatSwitching(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Error(errors.New("pretty"))
	pretty := buf.String()
	buf.Reset()

	lg.SetJSON(true)
	lg.Error(errors.New("json"))
	jsonOut := buf.String()
	buf.Reset()

	lg.SetJSON(false)
	lg.Error(errors.New("pretty again"))

	assert.Contains(t, pretty, "✗")
	assert.Contains(t, jsonOut, `"level":"ERROR"`)
	assert.NotContains(t, jsonOut, "✗")
	assert.Contains(t, buf.String(), "✗ Error: pretty again")
}

func TestLogger_SetOutputNil(t *testing.T) {
	lg := logger.New().(*logger.Logger)
	require.NotPanics(t, func() { lg.SetOutput(nil) })
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			switch i % 4 {
			case 0:
				lg.Info(fmt.Sprintf("info %d", i))
			case 1:
				lg.Warn("warn")
			case 2:
				lg.SetJSON(i%8 == 2)
			default:
				lg.SetOutput(&bytes.Buffer{})
			}
		})
	}
	wg.Wait()
}
