package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		expect zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseLevel(tc.input); got != tc.expect {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.expect)
			}
		})
	}
}

func TestNewLogger_JSONComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(newLogger(&buf, LoggingConfig{Level: "debug", Format: "json"}), "transport")
	log.Debug().Str("path", "Agent").Msg("request")

	out := buf.String()
	for _, want := range []string{`"component":"transport"`, `"path":"Agent"`, `"level":"debug"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %s", out, want)
		}
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, LoggingConfig{Level: "warn", Format: "json"})
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
}

func TestMetrics_Disabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.ObserveRequest("GET", 200, time.Millisecond)
	m.RecordError("Agent", "server")
	if m.Registry() != nil {
		t.Error("Registry() should be nil when metrics are disabled")
	}

	var nilMetrics *Metrics
	nilMetrics.RecordOperation("backup", "job")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Handler status = %d, want 404", rec.Code)
	}
}

func TestMetrics_Counts(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, Namespace: "test"})
	m.ObserveRequest("GET", 200, time.Millisecond)
	m.ObserveRequest("GET", 204, time.Millisecond)
	m.ObserveRequest("POST", 500, time.Millisecond)
	m.ObserveRequest("POST", 0, time.Millisecond)
	m.RecordError("Agent", "server")
	m.RecordOperation("backup", "schedule")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "2xx")); got != 2 {
		t.Errorf("GET 2xx = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "5xx")); got != 1 {
		t.Errorf("POST 5xx = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("POST", "error")); got != 1 {
		t.Errorf("POST error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.entityErrors.WithLabelValues("Agent", "server")); got != 1 {
		t.Errorf("entity errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("backup", "schedule")); got != 1 {
		t.Errorf("operations = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "test_requests_total") {
		t.Error("metrics output missing test_requests_total")
	}
}

func TestTracer_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	tr, err := newTracer(TracingConfig{Enabled: true, Exporter: "stdout", SamplingRate: 1}, "cvsdk-test", &buf)
	if err != nil {
		t.Fatalf("newTracer: %v", err)
	}
	_, span := tr.Tracer().Start(context.Background(), "GET Agent")
	span.End()
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "GET Agent") {
		t.Errorf("exported spans %q missing span name", buf.String())
	}
}

func TestTracer_Disabled(t *testing.T) {
	tr, err := NewTracer(TracingConfig{}, "cvsdk-test")
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	_, span := tr.Tracer().Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracer produced a valid span context")
	}
	span.End()
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestTracer_UnknownExporter(t *testing.T) {
	if _, err := NewTracer(TracingConfig{Enabled: true, Exporter: "zipkin"}, "x"); err == nil {
		t.Error("NewTracer should reject an unknown exporter")
	}
}
