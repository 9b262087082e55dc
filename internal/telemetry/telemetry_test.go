package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/ppiankov/watchdog/internal/model"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(model.TelemetryConfig{}, "test")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInitExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	var buf bytes.Buffer
	shutdown, err := InitWithWriter(model.TelemetryConfig{Tracing: true, ServiceName: "watchdog-test"}, "1.0.0", &buf)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "analyze")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"Name": "analyze"`) {
		t.Errorf("Expected exported span, got %s", out)
	}
	if !strings.Contains(out, "watchdog-test") {
		t.Errorf("Expected service name in resource, got %s", out)
	}
}
