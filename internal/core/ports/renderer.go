package ports

import (
	"context"
	"time"
)

// Renderer presents job progress to the user.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop flushes buffered output.
	Stop() error

	// OnPlanEmit is called once with the elements a run will process.
	OnPlanEmit(elements []string)

	// OnJobStart is called when a job span begins.
	OnJobStart(spanID, name string, startTime time.Time)

	// OnJobLog is called when a job emits output. data may hold partial lines.
	OnJobLog(spanID string, data []byte)

	// OnJobComplete is called when a job finishes. err is nil on success.
	OnJobComplete(spanID string, endTime time.Time, err error)
}
