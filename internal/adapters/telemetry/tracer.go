// Package telemetry implements ports.Tracer on OpenTelemetry and forwards
// job spans to a ports.Renderer.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/keel/internal/core/ports"
)

// ElementAttribute tags spans with the element they work on.
const ElementAttribute = "keel.element"

var (
	_ ports.Tracer = (*OTelTracer)(nil)
	_ ports.Span   = (*OTelSpan)(nil)
)

// OTelTracer implements ports.Tracer. Span lifecycles reach the renderer
// through the Bridge registered on the provider; span output is batched and
// sent to the renderer directly.
type OTelTracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	renderer ports.Renderer
}

// NewOTelTracer creates a tracer whose provider reports to renderer. A nil
// renderer keeps spans in OpenTelemetry only.
func NewOTelTracer(name string, renderer ports.Renderer) *OTelTracer {
	var opts []sdktrace.TracerProviderOption
	if renderer != nil {
		opts = append(opts, sdktrace.WithSpanProcessor(NewBridge(renderer)))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	return &OTelTracer{
		tracer:   tp.Tracer(name),
		provider: tp,
		renderer: renderer,
	}
}

// Shutdown ends the provider. Spans started afterwards are not recorded.
func (t *OTelTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// Start creates a span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := ports.SpanConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var startOpts []trace.SpanStartOption
	if cfg.Element != "" {
		startOpts = append(startOpts, trace.WithAttributes(attribute.String(ElementAttribute, cfg.Element)))
	}
	ctx, span := t.tracer.Start(ctx, name, startOpts...)

	s := &OTelSpan{span: span}
	if t.renderer != nil {
		spanID := span.SpanContext().SpanID().String()
		s.batcher = newBatcher(0, 0, func(data []byte) {
			t.renderer.OnJobLog(spanID, data)
		})
	}
	return ctx, s
}

// EmitPlan records the planned elements on the current span and tells the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, elements []string) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("plan", trace.WithAttributes(attribute.StringSlice("elements", elements)))
	}
	if t.renderer != nil {
		t.renderer.OnPlanEmit(elements)
	}
}

// OTelSpan implements ports.Span.
type OTelSpan struct {
	span    trace.Span
	batcher *batcher
}

// End flushes pending output and completes the span.
func (s *OTelSpan) End() {
	if s.batcher != nil {
		s.batcher.Close()
	}
	s.span.End()
}

// RecordError records err and marks the span failed.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	case fmt.Stringer:
		s.span.SetAttributes(attribute.String(key, v.String()))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprint(v)))
	}
}

// Write sends job output to the renderer, or records it as a span event when
// there is none.
func (s *OTelSpan) Write(p []byte) (int, error) {
	if s.batcher != nil {
		return s.batcher.Write(p)
	}
	s.span.AddEvent("output", trace.WithAttributes(attribute.String("data", string(p))))
	return len(p), nil
}
