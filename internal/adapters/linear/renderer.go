// Package linear prints job progress as plain, chronological lines. Command
// output goes to stdout prefixed with the job name; lifecycle lines go to stderr.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/muesli/termenv"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/keel/internal/ui/output"
	"go.trai.ch/keel/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// prefixColors are picked by hashing the job name so a job keeps its colour
// across runs.
var prefixColors = []termenv.ANSIColor{
	termenv.ANSICyan,
	termenv.ANSIMagenta,
	termenv.ANSIBlue,
	termenv.ANSIYellow,
	termenv.ANSIBrightCyan,
	termenv.ANSIBrightMagenta,
	termenv.ANSIBrightBlue,
	termenv.ANSIBrightGreen,
}

type job struct {
	name    string
	started time.Time
	partial bytes.Buffer
}

// Renderer implements ports.Renderer.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	out    *termenv.Output

	mu   sync.Mutex
	jobs map[string]*job
}

// NewRenderer creates a Renderer. Nil writers default to the process streams.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		out:    output.New(stderr),
		jobs:   make(map[string]*job),
	}
}

// Start is a no-op; the renderer writes synchronously.
func (r *Renderer) Start(context.Context) error {
	return nil
}

// Stop prints partial lines still buffered for unfinished jobs.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		r.flushLocked(j)
	}
	return nil
}

// OnPlanEmit prints how many elements the run covers.
func (r *Renderer) OnPlanEmit(elements []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.stderr, "%s processing %d element(s)\n", style.Dot, len(elements))
}

// OnJobStart registers a job and prints its start line.
func (r *Renderer) OnJobStart(spanID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[spanID] = &job{name: name, started: startTime}
	_, _ = fmt.Fprintf(r.stderr, "%s started\n", r.prefix(name))
}

// OnJobLog prints the complete lines in data. A trailing partial line is kept
// until more data or the end of the job arrives.
func (r *Renderer) OnJobLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[spanID]
	if !ok {
		return
	}
	j.partial.Write(data)
	for {
		i := bytes.IndexByte(j.partial.Bytes(), '\n')
		if i < 0 {
			return
		}
		line := j.partial.Next(i + 1)
		r.printLocked(j.name, line)
	}
}

// OnJobComplete prints the outcome and duration of a job.
func (r *Renderer) OnJobComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[spanID]
	if !ok {
		return
	}
	delete(r.jobs, spanID)
	r.flushLocked(j)

	took := endTime.Sub(j.started).Round(time.Millisecond)
	if err != nil {
		mark := r.out.String(style.Cross).Foreground(termenv.ANSIRed)
		_, _ = fmt.Fprintf(r.stderr, "%s %s failed after %v: %v\n", r.prefix(j.name), mark, took, err)
		return
	}
	mark := r.out.String(style.Check).Foreground(termenv.ANSIGreen)
	_, _ = fmt.Fprintf(r.stderr, "%s %s done in %v\n", r.prefix(j.name), mark, took)
}

func (r *Renderer) prefix(name string) string {
	color := prefixColors[xxhash.Sum64String(name)%uint64(len(prefixColors))]
	return r.out.String("[" + name + "]").Foreground(color).String()
}

// flushLocked prints the buffered partial line of j. Must be called with mu held.
func (r *Renderer) flushLocked(j *job) {
	if j.partial.Len() > 0 {
		r.printLocked(j.name, j.partial.Bytes())
		j.partial.Reset()
	}
}

// printLocked must be called with mu held.
func (r *Renderer) printLocked(name string, line []byte) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
