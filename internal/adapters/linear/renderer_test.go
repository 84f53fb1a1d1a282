package linear_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/keel/internal/adapters/linear"
)

func newRenderer(t *testing.T) (*linear.Renderer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	return linear.NewRenderer(&stdout, &stderr), &stdout, &stderr
}

func TestRenderer_JobLifecycle(t *testing.T) {
	r, stdout, stderr := newRenderer(t)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	r.OnPlanEmit([]string{"base", "app"})
	r.OnJobStart("s1", "build app", start)
	r.OnJobLog("s1", []byte("compiling\nlinking"))
	r.OnJobLog("s1", []byte(" done\n"))
	r.OnJobComplete("s1", start.Add(1500*time.Millisecond), nil)

	assert.Equal(t, "[build app] compiling\n[build app] linking done\n", stdout.String())
	assert.Equal(t,
		"● processing 2 element(s)\n"+
			"[build app] started\n"+
			"[build app] ✓ done in 1.5s\n",
		stderr.String())
}

func TestRenderer_Failure(t *testing.T) {
	r, stdout, stderr := newRenderer(t)
	start := time.Now()

	r.OnJobStart("s1", "fetch base", start)
	r.OnJobLog("s1", []byte("fatal: repository not found"))
	r.OnJobComplete("s1", start.Add(time.Second), errors.New("failed to fetch source"))

	assert.Equal(t, "[fetch base] fatal: repository not found\n", stdout.String())
	assert.Contains(t, stderr.String(), "[fetch base] ✗ failed after 1s: failed to fetch source")
}

func TestRenderer_InterleavedJobs(t *testing.T) {
	r, stdout, _ := newRenderer(t)
	start := time.Now()

	r.OnJobStart("s1", "build a", start)
	r.OnJobStart("s2", "build b", start)
	r.OnJobLog("s1", []byte("a1\n"))
	r.OnJobLog("s2", []byte("b1\n"))
	r.OnJobLog("s1", []byte("a2\n"))

	assert.Equal(t, []string{"[build a] a1", "[build b] b1", "[build a] a2"},
		strings.Split(strings.TrimSpace(stdout.String()), "\n"))
}

func TestRenderer_IgnoresUnknownAndEmpty(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	r.OnJobLog("missing", []byte("dropped\n"))
	r.OnJobComplete("missing", time.Now(), nil)
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())

	r.OnJobStart("s1", "build a", time.Now())
	r.OnJobLog("s1", []byte("\n\r\n"))
	assert.Empty(t, stdout.String())
}

func TestRenderer_StopFlushesPartialLines(t *testing.T) {
	r, stdout, _ := newRenderer(t)

	r.OnJobStart("s1", "build a", time.Now())
	r.OnJobLog("s1", []byte("partial"))
	assert.Empty(t, stdout.String())

	assert.NoError(t, r.Stop())
	assert.Equal(t, "[build a] partial\n", stdout.String())
}

func TestRenderer_PrefixColourIsStable(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var stdout, stderr bytes.Buffer
	r := linear.NewRenderer(&stdout, &stderr)

	r.OnJobStart("s1", "build a", time.Now())
	first := stderr.String()
	stderr.Reset()
	r.OnJobStart("s2", "build a", time.Now())

	assert.Equal(t, first, stderr.String())
	assert.Contains(t, first, "\x1b[")
}
