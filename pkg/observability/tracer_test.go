package observability

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInitTracing_Disabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if tp.IsEnabled() {
		t.Error("enabled without an endpoint")
	}
	_, span := tp.GetTracer("test").Start(context.Background(), "op")
	if span.IsRecording() {
		t.Error("disabled tracer records spans")
	}
	span.End()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestInitTracing_Endpoint(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	tp, err := InitTracing(context.Background(), Config{Endpoint: "http://127.0.0.1:4318/v1/traces"})
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if !tp.IsEnabled() {
		t.Error("not enabled")
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNewWithExporter(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := NewWithExporter(Config{ServiceVersion: "1.2.3", Environment: "test"}, exporter)
	defer tp.Shutdown(context.Background())

	_, span := tp.GetTracer("blockscript/vm").Start(context.Background(), "vm.line")
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "vm.line" {
		t.Fatalf("spans = %v", spans)
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Resource.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["service.name"] != "blockscript" || attrs["service.version"] != "1.2.3" || attrs["deployment.environment"] != "test" {
		t.Errorf("resource = %v", attrs)
	}
}
