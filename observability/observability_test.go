package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("flapsctl")

	if cfg.ServiceName != "flapsctl" {
		t.Errorf("expected ServiceName 'flapsctl', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("flapsctl")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "svc", "dev", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected nil shutdown error, got %v", err)
	}
}

func TestTracerWithProvider(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := Tracer(tp).Start(context.Background(), "flaps.get")
	span.SetAttributes(AttrMachineID.String("148ed"))
	EndSpan(span, errors.New("boom"))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name() != "flaps.get" {
		t.Errorf("unexpected span name %q", got.Name())
	}
	if got.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status())
	}
	if got.InstrumentationScope().Name != InstrumentationName {
		t.Errorf("unexpected scope %q", got.InstrumentationScope().Name)
	}
	found := false
	for _, kv := range got.Attributes() {
		if kv.Key == AttrMachineID && kv.Value.AsString() == "148ed" {
			found = true
		}
	}
	if !found {
		t.Error("expected machine id attribute")
	}
}

func TestEndSpanWithoutError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, span := Tracer(tp).Start(context.Background(), "ok")
	EndSpan(span, nil)

	if s := sr.Ended(); len(s) != 1 || s[0].Status().Code == codes.Error {
		t.Errorf("expected one non-error span, got %v", s)
	}
}

func TestStartSpanGlobal(t *testing.T) {
	ctx, span := StartSpan(context.Background(), nil, "test-operation")
	defer span.End()
	if ctx == nil || span == nil {
		t.Fatal("expected context and span")
	}
}

func TestStartSpanClientKind(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	_, span := StartSpan(context.Background(), Tracer(tp), "flaps.list", AttrApp.String("my-app"))
	EndSpan(span, nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].SpanKind() != trace.SpanKindClient {
		t.Errorf("expected client span, got %v", spans[0].SpanKind())
	}
	if attrs := spans[0].Attributes(); len(attrs) != 1 || attrs[0].Value.AsString() != "my-app" {
		t.Errorf("unexpected attributes %v", attrs)
	}
}

func TestNewMetricsNoop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordOperation(ctx, "get", "ok", 100*time.Millisecond)
	metrics.RecordRetry(ctx, "wait")
	metrics.RecordError(ctx, "get", "not_found")

	var nilMetrics *Metrics
	nilMetrics.RecordOperation(ctx, "get", "ok", time.Millisecond)
}

func TestMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(Meter(mp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	metrics.RecordOperation(ctx, "list", "ok", 20*time.Millisecond)
	metrics.RecordOperation(ctx, "list", "ok", 30*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "flaps.operation.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Errorf("expected 2 operations recorded, got %d", total)
	}
}
