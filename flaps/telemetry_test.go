package flaps_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/flapstest"
	"github.com/kbukum/flyio-api/machine"
	"github.com/kbukum/flyio-api/observability"
)

func TestOperationSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	c := newClient(t, srv, flaps.WithTracerProvider(tp))
	ctx := context.Background()

	if _, err := c.Get(ctx, "148ed"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Get(ctx, "missing"); err == nil {
		t.Fatal("expected error")
	}

	var ops []sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() == "flaps.get" {
			ops = append(ops, s)
		}
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 flaps.get spans, got %d", len(ops))
	}

	attrs := map[string]string{}
	for _, kv := range ops[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs[string(observability.AttrApp)] != "my-app" || attrs[string(observability.AttrMachineID)] != "148ed" {
		t.Errorf("unexpected attributes %v", attrs)
	}
	if attrs[string(observability.AttrRequestID)] == "" {
		t.Error("expected request id attribute")
	}
	if ops[0].SpanKind() != trace.SpanKindClient {
		t.Errorf("expected client span kind, got %v", ops[0].SpanKind())
	}
	if ops[1].Status().Code != codes.Error {
		t.Errorf("expected error status on failed span, got %v", ops[1].Status())
	}
}

func TestOperationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv, flaps.WithMeterProvider(mp))
	ctx := context.Background()

	if _, err := c.List(ctx, ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := c.Get(ctx, "missing"); err == nil {
		t.Fatal("expected error")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				counts[m.Name] += dp.Value
			}
		}
	}
	if counts["flaps.operation.total"] != 2 {
		t.Errorf("expected 2 operations, got %v", counts)
	}
	if counts["flaps.error.total"] != 1 {
		t.Errorf("expected 1 error, got %v", counts)
	}
}
