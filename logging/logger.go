package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures NewLogger.
type Options struct {
	// Development selects the colored console encoder and debug level.
	Development bool

	// FilePath is the rotated JSON log file. Empty disables file output.
	FilePath string

	// Level overrides the mode default when non-empty (debug, info, warn, error).
	Level string

	// Rotation controls FilePath rollover. Zero values use DefaultRotation.
	Rotation Rotation

	// Console replaces stdout. The summarize command logs to stderr so that
	// stdout carries only the summary.
	Console zapcore.WriteSyncer
}

// Logger wraps zap.Logger and redacts credentials from every entry.
//
// It composes:
//   - RotatingFile (log file rotation via lumberjack)
//   - MultiCore (tee output to console + file)
//   - SensitiveFilter (API key redaction)
//
// Example:
//
//	logger, err := NewLogger(Options{Development: true, FilePath: "summarizer.log"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("server started", zap.String("addr", "localhost:8501"))
type Logger struct {
	zap *zap.Logger

	isDevelopment bool
	logFilePath   string
}

// NewLogger creates a Logger that writes to stdout (or opts.Console) and, when FilePath is set,
// to a rotated JSON file.
func NewLogger(opts Options) (*Logger, error) {
	level, err := ResolveLevel(opts.Level, opts.Development)
	if err != nil {
		return nil, err
	}

	var fileWriter zapcore.WriteSyncer
	if opts.FilePath != "" {
		fileWriter, err = RotatingFile(opts.FilePath, opts.Rotation)
		if err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	console := opts.Console
	if console == nil {
		console = zapcore.Lock(os.Stdout)
	}
	core := NewMultiCore(level, console, fileWriter, opts.Development)
	return newLogger(core, opts.Development, opts.FilePath), nil
}

// NewLoggerWithWriters builds a Logger around caller-supplied writers.
// Tests use it to capture output in memory.
func NewLoggerWithWriters(level zapcore.Level, console, file zapcore.WriteSyncer, isDev bool) *Logger {
	return newLogger(NewMultiCore(level, console, file, isDev), isDev, "")
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	z := zap.NewNop()
	return &Logger{zap: z}
}

func newLogger(core zapcore.Core, isDev bool, path string) *Logger {
	z := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1), // skip this wrapper
	)
	return &Logger{
		zap:           z,
		isDevelopment: isDev,
		logFilePath:   path,
	}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l == nil || l.zap == nil {
		return nil
	}
	return l.zap.Sync()
}

// Debug logs a message at DebugLevel.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, redactFields(fields)...)
}

// Info logs a message at InfoLevel.
//
// Example:
//
//	logger.Info("summary complete",
//	    zap.String("strategy", "stuff"),
//	    zap.Int("chunks", 1))
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, redactFields(fields)...)
}

// Warn logs a message at WarnLevel.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, redactFields(fields)...)
}

// Error logs a message at ErrorLevel.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, redactFields(fields)...)
}

// With creates a child logger whose entries all carry fields.
//
// Example:
//
//	reqLogger := logger.With(zap.String("request_id", id))
func (l *Logger) With(fields ...zap.Field) *Logger {
	z := l.zap.With(redactFields(fields)...)
	return &Logger{
		zap:           z,
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// Named adds a sub-logger name, e.g. "http" or "llm".
func (l *Logger) Named(name string) *Logger {
	z := l.zap.Named(name)
	return &Logger{
		zap:           z,
		isDevelopment: l.isDevelopment,
		logFilePath:   l.logFilePath,
	}
}

// IsDevelopment reports whether the console uses the development encoder.
func (l *Logger) IsDevelopment() bool {
	return l.isDevelopment
}

// LogFilePath returns the path to the log file, or "" when file output is off.
func (l *Logger) LogFilePath() string {
	return l.logFilePath
}

// redactFields is applied before every typed log call.
func redactFields(fields []zap.Field) []zap.Field {
	if len(fields) == 0 {
		return fields
	}
	result := make([]zap.Field, len(fields))
	for i, field := range fields {
		result[i] = redactField(field)
	}
	return result
}

func redactField(field zap.Field) zap.Field {
	if IsSensitiveField(field.Key) {
		return zap.String(field.Key, RedactedPlaceholder)
	}
	if field.Type == zapcore.StringType {
		if redacted := RedactSensitiveData(field.String); redacted != field.String {
			return zap.String(field.Key, redacted)
		}
	}
	if field.Type == zapcore.ErrorType {
		if err, ok := field.Interface.(error); ok && err != nil {
			msg := err.Error()
			if redacted := RedactSensitiveData(msg); redacted != msg {
				return zap.String(field.Key, redacted)
			}
		}
	}
	return field
}

