package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/keel/internal/core/ports"
)

// Bridge is an sdktrace.SpanProcessor reporting span starts and ends to a Renderer.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a Bridge for renderer.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart reports a started span.
func (b *Bridge) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	sc := s.SpanContext()
	if b.renderer == nil || !sc.IsValid() {
		return
	}
	b.renderer.OnJobStart(sc.SpanID().String(), s.Name(), s.StartTime())
}

// OnEnd reports a finished span. A span with error status is reported with
// its status description as the error.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	sc := s.SpanContext()
	if b.renderer == nil || !sc.IsValid() {
		return
	}

	var err error
	if st := s.Status(); st.Code == codes.Error {
		msg := st.Description
		if msg == "" {
			msg = "job failed"
		}
		err = errors.New(msg)
	}
	b.renderer.OnJobComplete(sc.SpanID().String(), s.EndTime(), err)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(context.Context) error {
	return nil
}
