package telemetry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/drainage/internal/adapters/telemetry"
	"go.trai.ch/drainage/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = telemetry.NoOpSpan{}
}

func TestTracerNode_Resolves(t *testing.T) {
	tracer, _, err := graft.ExecuteFor[*telemetry.OTelTracer](context.Background())
	require.NoError(t, err)
	require.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "Fill Depressions")
	span.End()
}

func newRecordedTracer(t *testing.T) (*telemetry.OTelTracer, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return telemetry.NewOTelTracerFrom(tp, "test"), rec
}

func TestOTelTracer_RecordsTaskSpan(t *testing.T) {
	tracer, rec := newRecordedTracer(t)

	_, span := tracer.Start(context.Background(), "Merge")
	span.SetAttribute("drainage.task.id", "merge")
	span.SetAttribute("drainage.task.layers", []string{"a", "b"})
	span.SetAttribute("drainage.task.attempt", 1)
	span.RecordError(errors.New("exit status 1"))
	n, err := span.Write([]byte("0...10...20"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, "Merge", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "exit status 1", s.Status().Description)

	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "merge", attrs["drainage.task.id"])
	assert.Equal(t, "1", attrs["drainage.task.attempt"])

	var events []string
	for _, e := range s.Events() {
		events = append(events, e.Name)
	}
	assert.Contains(t, events, "log")
}

func TestOTelTracer_LogSink(t *testing.T) {
	tracer, _ := newRecordedTracer(t)

	var (
		mu  sync.Mutex
		got = map[string]string{}
	)
	tracer.WithLogSink(func(name string, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		got[name] += string(data)
	})

	_, span := tracer.Start(context.Background(), "Fill depressions")
	_, _ = span.Write([]byte("0...10..."))
	_, _ = span.Write([]byte("100 - done\n"))
	span.End()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "0...10...100 - done\n", got["Fill depressions"])
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	got, span := tracer.Start(ctx, "noop")
	assert.Equal(t, ctx, got)

	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	n, err := span.Write([]byte("data"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	span.End()
}

func TestInstallProvider(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	shutdown := telemetry.InstallProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, span := telemetry.NewOTelTracer("global").Start(context.Background(), "Load(A)")
	span.End()

	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, "Load(A)", rec.Ended()[0].Name())
}

func TestBatchProcessor_FlushOnSize(t *testing.T) {
	var collected []byte
	bp := telemetry.NewBatchProcessor(5, time.Hour, func(data []byte) {
		collected = append(collected, data...)
	})
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("123"))
	require.NoError(t, err)
	assert.Empty(t, collected)

	_, err = bp.Write([]byte("456"))
	require.NoError(t, err)
	assert.Equal(t, "123456", string(collected))
}

func TestBatchProcessor_FlushOnTime(t *testing.T) {
	flushed := make(chan []byte, 1)
	bp := telemetry.NewBatchProcessor(100, 10*time.Millisecond, func(data []byte) {
		flushed <- data
	})
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("tick"))
	require.NoError(t, err)

	select {
	case data := <-flushed:
		assert.Equal(t, "tick", string(data))
	case <-time.After(time.Second):
		t.Fatal("timed flush did not happen")
	}
}

func TestBatchProcessor_Close(t *testing.T) {
	var collected []byte
	bp := telemetry.NewBatchProcessor(100, time.Hour, func(data []byte) {
		collected = append(collected, data...)
	})

	_, _ = bp.Write([]byte("tail"))
	require.NoError(t, bp.Close())
	require.NoError(t, bp.Close())
	assert.Equal(t, "tail", string(collected))

	_, err := bp.Write([]byte("late"))
	assert.Error(t, err)
}
