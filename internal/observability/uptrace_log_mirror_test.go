package observability

import (
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

func TestIsHealthCheckLog(t *testing.T) {
	if !isHealthCheckLog("http_request", []any{"http_path", "/healthz"}) {
		t.Fatalf("expected health check log to be skipped")
	}
	if isHealthCheckLog("http_request", []any{"http_path", "/v1/seasons/2024"}) {
		t.Fatalf("did not expect season request log to be skipped")
	}
	if isHealthCheckLog("season loaded", []any{"http_path", "/healthz"}) {
		t.Fatalf("did not expect non-request event to be skipped")
	}
}

func TestLogAttributes(t *testing.T) {
	attrs := logAttributes([]any{"season", "2024", "attempt", 2, "failed", []string{"2019", "2020"}, "dangling"})
	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "season" || attrs[0].Value.AsString() != "2024" {
		t.Fatalf("unexpected season attribute: %+v", attrs[0])
	}
	if attrs[1].Key != "attempt" || attrs[1].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute: %+v", attrs[1])
	}
	if attrs[2].Value.Kind() != otellog.KindSlice || len(attrs[2].Value.AsSlice()) != 2 {
		t.Fatalf("expected failed seasons as slice, got %s", attrs[2].Value.Kind())
	}
	if attrs[3].Key != "dangling" || attrs[3].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected dangling attribute: %+v", attrs[3])
	}
}

func TestLogAttributes_NonStringKey(t *testing.T) {
	attrs := logAttributes([]any{42, "value"})
	if len(attrs) != 1 || attrs[0].Key != "arg_0" {
		t.Fatalf("expected positional key, got %+v", attrs)
	}
}

func TestLogValue(t *testing.T) {
	if got := logValue(errors.New("upstream 500")); got.AsString() != "upstream 500" {
		t.Fatalf("unexpected error value: %q", got.AsString())
	}
	if got := logValue(1500 * time.Millisecond); got.AsString() != "1.5s" {
		t.Fatalf("unexpected duration value: %q", got.AsString())
	}
	if got := logValue(nil); got.Kind() != otellog.KindEmpty {
		t.Fatalf("expected empty value for nil, got %s", got.Kind())
	}
}

func TestSeverityOf(t *testing.T) {
	cases := map[zapcore.Level]otellog.Severity{
		zapcore.DebugLevel: otellog.SeverityDebug,
		zapcore.InfoLevel:  otellog.SeverityInfo,
		zapcore.WarnLevel:  otellog.SeverityWarn,
		zapcore.ErrorLevel: otellog.SeverityError,
		zapcore.FatalLevel: otellog.SeverityFatal,
	}
	for level, want := range cases {
		if got := severityOf(level); got != want {
			t.Fatalf("level %s: expected %v, got %v", level, want, got)
		}
	}
}
