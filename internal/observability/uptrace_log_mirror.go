package observability

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/riskibarqy/club-stats/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const (
	uptraceLogInstrumentation = "club-stats/internal/platform/logging"
	requestLogMessage         = "http_request"
	healthPath                = "/healthz"
)

var severities = map[zapcore.Level]otellog.Severity{
	zapcore.DebugLevel:  otellog.SeverityDebug,
	zapcore.InfoLevel:   otellog.SeverityInfo,
	zapcore.WarnLevel:   otellog.SeverityWarn,
	zapcore.ErrorLevel:  otellog.SeverityError,
	zapcore.DPanicLevel: otellog.SeverityFatal,
	zapcore.PanicLevel:  otellog.SeverityFatal,
	zapcore.FatalLevel:  otellog.SeverityFatal,
}

// newUptraceLogMirror forwards info and above to the global OTel logger provider.
// Request lines for the health probe are dropped.
func newUptraceLogMirror(serviceVersion string) logging.MirrorFunc {
	otelLogger := otelglobal.Logger(
		uptraceLogInstrumentation,
		otellog.WithInstrumentationVersion(serviceVersion),
	)

	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if level < zapcore.InfoLevel || isHealthCheckLog(msg, args) {
			return
		}

		severity := severityOf(level)
		if !otelLogger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: msg}) {
			return
		}
		otelLogger.Emit(ctx, buildLogRecord(level, severity, msg, args))
	}
}

func buildLogRecord(level zapcore.Level, severity otellog.Severity, msg string, args []any) otellog.Record {
	var record otellog.Record

	now := time.Now().UTC()
	record.SetTimestamp(now)
	record.SetObservedTimestamp(now)
	record.SetSeverity(severity)
	record.SetSeverityText(level.CapitalString())
	record.SetEventName(msg)
	record.SetBody(otellog.StringValue(msg))
	record.AddAttributes(logAttributes(args)...)

	return record
}

// keyValues walks alternating key/value args by pair index. A trailing key
// without a value is paired with danglingKey{}.
func keyValues(args []any) iter.Seq2[int, [2]any] {
	return func(yield func(int, [2]any) bool) {
		for i := 0; i < len(args); i += 2 {
			pair := [2]any{args[i], nil}
			if i+1 < len(args) {
				pair[1] = args[i+1]
			} else {
				pair[1] = danglingKey{}
			}
			if !yield(i/2, pair) {
				return
			}
		}
	}
}

type danglingKey struct{}

func isHealthCheckLog(msg string, args []any) bool {
	if msg != requestLogMessage {
		return false
	}
	for _, kv := range keyValues(args) {
		if kv[0] == "http_path" {
			return kv[1] == healthPath
		}
	}
	return false
}

func logAttributes(args []any) []otellog.KeyValue {
	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for idx, kv := range keyValues(args) {
		key, _ := kv[0].(string)
		if strings.TrimSpace(key) == "" {
			key = fmt.Sprintf("arg_%d", idx)
		}
		if _, dangling := kv[1].(danglingKey); dangling {
			attrs = append(attrs, otellog.Empty(key))
			continue
		}
		attrs = append(attrs, otellog.KeyValue{Key: key, Value: logValue(kv[1])})
	}
	return attrs
}

func severityOf(level zapcore.Level) otellog.Severity {
	if severity, ok := severities[level]; ok {
		return severity
	}
	if level < zapcore.DebugLevel {
		return otellog.SeverityTrace
	}
	return otellog.SeverityFatal
}

// logValue keeps scalars typed; anything structured is rendered with fmt.
func logValue(value any) otellog.Value {
	switch v := value.(type) {
	case nil:
		return otellog.Value{}
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int64:
		return otellog.Int64Value(v)
	case float64:
		return otellog.Float64Value(v)
	case []string:
		items := make([]otellog.Value, len(v))
		for i, item := range v {
			items[i] = otellog.StringValue(item)
		}
		return otellog.SliceValue(items...)
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	default:
		return otellog.StringValue(fmt.Sprint(v))
	}
}
