package logging

import (
	"context"
	"os"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// Logger is a key/value facade over zap. A nil *Logger logs through Default().
type Logger struct {
	zap    *zap.Logger
	synced atomic.Bool
}

// MirrorFunc receives a copy of every record that passes the level check,
// e.g. to forward it to an OpenTelemetry log exporter.
type MirrorFunc func(ctx context.Context, level Level, msg string, args ...any)

var (
	defaultLogger atomic.Pointer[Logger]
	mirror        atomic.Pointer[MirrorFunc]
)

func init() {
	defaultLogger.Store(NewNop())
}

// SetMirror installs fn as the process-wide mirror. Nil removes it.
func SetMirror(fn MirrorFunc) {
	if fn == nil {
		mirror.Store(nil)
		return
	}
	mirror.Store(&fn)
}

// New writes colored console lines to stderr when development is set and JSON
// lines to stdout otherwise.
func New(level Level, development bool) *Logger {
	if !development {
		return NewJSON(level)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	return build(zapcore.NewConsoleEncoder(cfg), os.Stderr, level)
}

func NewJSON(level Level) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	return build(zapcore.NewJSONEncoder(cfg), os.Stdout, level, zap.AddStacktrace(zapcore.ErrorLevel))
}

func build(encoder zapcore.Encoder, out *os.File, level Level, opts ...zap.Option) *Logger {
	core := zapcore.NewCore(encoder, zapcore.Lock(out), level)
	// Skip Logger.emit and the exported level method so callers show up as the caller.
	opts = append([]zap.Option{zap.AddCaller(), zap.AddCallerSkip(2)}, opts...)
	return FromZap(zap.New(core, opts...))
}

// ParseLevel accepts debug, info, warn or error. Anything else is info.
func ParseLevel(raw string) Level {
	if level, err := zapcore.ParseLevel(raw); err == nil {
		return level
	}
	return LevelInfo
}

func NewNop() *Logger {
	return FromZap(zap.NewNop())
}

func FromZap(z *zap.Logger) *Logger {
	if z == nil {
		return &Logger{zap: zap.NewNop()}
	}
	return &Logger{zap: z}
}

func Default() *Logger {
	return defaultLogger.Load()
}

func SetDefault(logger *Logger) {
	if logger == nil {
		logger = NewNop()
	}
	defaultLogger.Store(logger)
}

// Sync flushes buffered entries once; later calls are no-ops.
func (l *Logger) Sync() error {
	if l == nil || !l.synced.CompareAndSwap(false, true) {
		return nil
	}
	return l.zap.Sync()
}

func (l *Logger) With(args ...any) *Logger {
	return FromZap(l.orDefault().zap.With(zapFields(args)...))
}

// Named adds a component name, e.g. "season_repository".
func (l *Logger) Named(name string) *Logger {
	return FromZap(l.orDefault().zap.Named(name))
}

func (l *Logger) Debug(msg string, args ...any) { l.emit(context.Background(), LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.emit(context.Background(), LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.emit(context.Background(), LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.emit(context.Background(), LevelError, msg, args) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, LevelDebug, msg, args)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, LevelInfo, msg, args)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, LevelWarn, msg, args)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, LevelError, msg, args)
}

func (l *Logger) orDefault() *Logger {
	if l == nil {
		return Default()
	}
	return l
}

// emit writes the entry with trace ids from ctx, then hands it to the mirror.
func (l *Logger) emit(ctx context.Context, level Level, msg string, args []any) {
	ce := l.orDefault().zap.Check(level, msg)
	if ce == nil {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	fields := zapFields(args)
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.Stringer("trace_id", spanCtx.TraceID()),
			zap.Stringer("span_id", spanCtx.SpanID()),
		)
	}
	ce.Write(fields...)

	if fn := mirror.Load(); fn != nil {
		(*fn)(ctx, level, msg, args...)
	}
}

// zapFields pairs up alternating keys and values. A non-string key becomes
// "arg" and a trailing key without a value is logged as null.
func zapFields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+2)
	for len(args) > 0 {
		key, _ := args[0].(string)
		if key == "" {
			key = "arg"
		}

		var value any
		if len(args) > 1 {
			value = args[1]
			args = args[2:]
		} else {
			args = nil
		}

		if err, ok := value.(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, value))
	}
	return fields
}
