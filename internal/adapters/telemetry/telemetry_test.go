package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/keel/internal/adapters/telemetry"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/keel/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestTracer_SpanLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	var startID string
	gomock.InOrder(
		renderer.EXPECT().OnJobStart(gomock.Any(), "build app", gomock.Any()).
			Do(func(id, _ string, _ time.Time) { startID = id }),
		renderer.EXPECT().OnJobLog(gomock.Any(), []byte("make install\n")).
			Do(func(id string, _ []byte) { assert.Equal(t, startID, id) }),
		renderer.EXPECT().OnJobComplete(gomock.Any(), gomock.Any(), nil).
			Do(func(id string, _ time.Time, _ error) { assert.Equal(t, startID, id) }),
	)

	tracer := telemetry.NewOTelTracer("test", renderer)
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	_, span := tracer.Start(context.Background(), "build app", ports.WithElement("app"))
	n, err := span.Write([]byte("make install\n"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)
	span.End()
}

func TestTracer_RecordErrorFailsJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	renderer.EXPECT().OnJobStart(gomock.Any(), "fetch base", gomock.Any())
	renderer.EXPECT().OnJobComplete(gomock.Any(), gomock.Any(), gomock.Cond(func(err error) bool {
		return err != nil && err.Error() == "connection refused"
	}))

	tracer := telemetry.NewOTelTracer("test", renderer)
	_, span := tracer.Start(context.Background(), "fetch base")
	span.SetAttribute("attempt", 2)
	span.SetAttribute("cached", false)
	span.RecordError(errors.New("connection refused"))
	span.End()
}

func TestTracer_EmitPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	renderer.EXPECT().OnPlanEmit([]string{"base", "app"})

	tracer := telemetry.NewOTelTracer("test", renderer)
	tracer.EmitPlan(context.Background(), []string{"base", "app"})
}

func TestTracer_WithoutRenderer(t *testing.T) {
	tracer := telemetry.NewOTelTracer("test", nil)
	ctx, span := tracer.Start(context.Background(), "build")
	tracer.EmitPlan(ctx, []string{"a"})

	n, err := span.Write([]byte("output"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	span.End()
}

func TestBridge_ReportsStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	bridge := telemetry.NewBridge(renderer)

	renderer.EXPECT().OnJobComplete(gomock.Any(), gomock.Any(), gomock.Cond(func(err error) bool {
		return err != nil && err.Error() == "job failed"
	}))

	tp := sdktrace.NewTracerProvider()
	_, span := tp.Tracer("test").Start(context.Background(), "build")
	span.SetStatus(codes.Error, "")
	span.End()

	roSpan, ok := span.(sdktrace.ReadOnlySpan)
	require.True(t, ok)
	bridge.OnEnd(roSpan)

	require.NoError(t, bridge.ForceFlush(context.Background()))
	require.NoError(t, bridge.Shutdown(context.Background()))
}

func TestBridge_NilRenderer(t *testing.T) {
	bridge := telemetry.NewBridge(nil)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(bridge))
	_, span := tp.Tracer("test").Start(context.Background(), "build")
	assert.NotPanics(t, func() { span.End() })
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	got, span := tracer.Start(ctx, "build", ports.WithElement("app"))
	assert.Equal(t, ctx, got)
	tracer.EmitPlan(ctx, []string{"app"})

	n, err := span.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	span.SetAttribute("k", "v")
	span.RecordError(errors.New("boom"))
	span.End()
}
