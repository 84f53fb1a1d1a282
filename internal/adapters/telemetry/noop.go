package telemetry

import (
	"context"

	"go.trai.ch/keel/internal/core/ports"
)

// NoOpTracer discards spans. It is used when no progress is printed, for
// example while the output is consumed by a script.
type NoOpTracer struct{}

// NewNoOpTracer creates a NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start returns ctx and a span that does nothing.
func (*NoOpTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, NoOpSpan{}
}

// EmitPlan does nothing.
func (*NoOpTracer) EmitPlan(context.Context, []string) {}

// NoOpSpan implements ports.Span without recording anything.
type NoOpSpan struct{}

// End does nothing.
func (NoOpSpan) End() {}

// RecordError does nothing.
func (NoOpSpan) RecordError(error) {}

// SetAttribute does nothing.
func (NoOpSpan) SetAttribute(string, any) {}

// Write discards p.
func (NoOpSpan) Write(p []byte) (int, error) {
	return len(p), nil
}
