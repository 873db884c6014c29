// Package logging provides the structured logging interface used across
// RateCraft and its zap-backed implementation. Components depend on Logger
// and receive it through their constructors; zap is not imported directly
// outside this package.
package logging

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/turtacn/RateCraft/pkg/errors"
)

// Canonical field keys shared by every component so log pipelines can index
// on stable names.
const (
	FieldRequestID     = "request_id"
	FieldCalculationID = "calculation_id"
	FieldQuoteID       = "quote_id"
	FieldState         = "state"
	FieldComponent     = "component"
	FieldErrorCode     = "error_code"
	FieldDurationMs    = "duration_ms"
)

// Field is a typed key-value pair attached to a log entry.
type Field = zap.Field

func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Float64(key string, val float64) Field        { return zap.Float64(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Time(key string, val time.Time) Field         { return zap.Time(key, val) }
func Strings(key string, val []string) Field       { return zap.Strings(key, val) }
func Any(key string, val interface{}) Field        { return zap.Any(key, val) }

// Stringer renders val lazily, which keeps decimal amounts readable.
func Stringer(key string, val fmt.Stringer) Field { return zap.Stringer(key, val) }

// Err captures err under the key "error".
func Err(err error) Field { return zap.Error(err) }

// Level is the minimum severity a logger emits.
type Level int8

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

func (l Level) zapLevel() zapcore.Level { return zapcore.Level(l) }

// ParseLevel converts a case-insensitive level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

// Logger is the structured logging contract.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal logs and then calls os.Exit(1). Never call it on a request path.
	Fatal(msg string, fields ...Field)

	// With returns a child logger carrying fields on every entry.
	With(fields ...Field) Logger
	// Named appends name to the logger's name ("ratecraft" -> "ratecraft.engine").
	Named(name string) Logger
	// WithContext attaches the request and calculation IDs found in ctx.
	WithContext(ctx context.Context) Logger
	// WithError attaches err, and for application errors its code.
	WithError(err error) Logger

	Sync() error
}

// LogConfig carries logger construction parameters.
type LogConfig struct {
	Level            Level    `mapstructure:"-" json:"-"`
	LevelName        string   `mapstructure:"level" json:"level"`
	Format           string   `mapstructure:"format" json:"format"`
	OutputPaths      []string `mapstructure:"output_paths" json:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths" json:"error_output_paths"`
	// ServiceName is stamped on every entry as "service".
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) WithContext(ctx context.Context) Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

func (l *zapLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	fields := []Field{Err(err)}
	if code := apperrors.GetCode(err); code != apperrors.CodeUnknown {
		fields = append(fields, String(FieldErrorCode, string(code)))
	}
	return l.With(fields...)
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

// NewLogger builds a zap-backed Logger. Empty output paths are an error;
// a zero LogConfig{} is not valid, use NewDefaultLogger for that.
func NewLogger(cfg LogConfig) (Logger, error) {
	if cfg.OutputPaths != nil && len(cfg.OutputPaths) == 0 {
		return nil, fmt.Errorf("logging: at least one output path is required")
	}
	if cfg.OutputPaths == nil {
		cfg.OutputPaths = []string{"stdout"}
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	level := cfg.Level
	if cfg.LevelName != "" {
		parsed, err := ParseLevel(cfg.LevelName)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	encoding := "json"
	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Format == "console" {
		encoding = "console"
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level.zapLevel()),
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}
	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	if cfg.ServiceName != "" {
		z = z.With(zap.String("service", cfg.ServiceName))
	}
	return &zapLogger{z: z}, nil
}

// NewDefaultLogger returns an info-level JSON logger on stdout.
func NewDefaultLogger() Logger {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json"})
	if err != nil {
		return NewNopLogger()
	}
	return l
}

// NewDevelopmentLogger returns a debug-level console logger.
func NewDevelopmentLogger() Logger {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console"})
	if err != nil {
		return NewNopLogger()
	}
	return l
}

// NewLoggerFromCore wraps an existing core, mostly for observed logs in tests.
func NewLoggerFromCore(core zapcore.Core) Logger {
	return &zapLogger{z: zap.New(core)}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)               {}
func (nopLogger) Info(string, ...Field)                {}
func (nopLogger) Warn(string, ...Field)                {}
func (nopLogger) Error(string, ...Field)               {}
func (nopLogger) Fatal(string, ...Field)               {}
func (n nopLogger) With(...Field) Logger               { return n }
func (n nopLogger) Named(string) Logger                { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
func (n nopLogger) WithError(error) Logger             { return n }
func (nopLogger) Sync() error                          { return nil }

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

type ctxKey int

const (
	requestIDKey ctxKey = iota
	calculationIDKey
)

// WithRequestID stores a request ID for WithContext to pick up.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request ID stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithCalculationID stores a premium calculation ID for WithContext.
func WithCalculationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, calculationIDKey, id)
}

func contextFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}
	var fields []Field
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		fields = append(fields, String(FieldRequestID, id))
	}
	if id, ok := ctx.Value(calculationIDKey).(string); ok && id != "" {
		fields = append(fields, String(FieldCalculationID, id))
	}
	return fields
}

// slowOperationThreshold marks where LogOperationDuration switches to WARN.
const slowOperationThreshold = 500 * time.Millisecond

// LogOperationDuration logs how long op took since start.
func LogOperationDuration(l Logger, op string, start time.Time, fields ...Field) {
	elapsed := time.Since(start)
	fields = append(fields, String("operation", op), Float64(FieldDurationMs, float64(elapsed.Microseconds())/1000))
	if elapsed > slowOperationThreshold {
		l.Warn("slow operation", fields...)
		return
	}
	l.Info("operation completed", fields...)
}

// LogDatabaseQuery logs a finished query with its row count or error.
func LogDatabaseQuery(l Logger, query string, elapsed time.Duration, rows int64, err error) {
	fields := []Field{String("query", query), Duration("elapsed", elapsed), Int64("rows", rows)}
	if err != nil {
		l.WithError(err).Error("database query failed", fields...)
		return
	}
	l.Debug("database query completed", fields...)
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger = nopLogger{}
)

// SetGlobalLogger replaces the process-wide logger. nil is ignored.
func SetGlobalLogger(l Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// GetGlobalLogger returns the process-wide logger, a no-op until set.
func GetGlobalLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

//Personal.AI order the ending
