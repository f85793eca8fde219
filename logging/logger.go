// Package logging wraps zap with this module's four log-category gates
// (connection/request/performance, plus the always-on base logger) and
// optional rotating-file output, grounded on
// junbin-yang-go-kitbox's pkg/logger/logger.go (the New(out, level,
// opts...) constructor shape and the custom bracketed time/level/caller
// encoder) with gopkg.in/natefinch/lumberjack.v2 standing in for that
// package's plain io.Writer sink whenever file rotation is configured.
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is zap's level type, re-exported so callers never need to
// import go.uber.org/zap/zapcore directly just to pick a level.
type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// ParseLevel maps log_level values to a zapcore.Level,
// defaulting to Info for anything unrecognized rather than failing
// startup over a typo'd config value.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "err", "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Options is the build-time logging surface a caller configures a
// Logger with: level, optional file rotation, and the three
// log-category gates.
type Options struct {
	Level Level

	// RotateFile, if non-empty, directs output to a lumberjack-rotated
	// file instead of stderr.
	RotateFile string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	EnableConnectionLogs  bool
	EnableRequestLogs     bool
	EnablePerformanceLogs bool
}

// DefaultOptions returns sensible defaults: info level, connection and
// request gates on, performance gate off, stderr-only (no rotation).
func DefaultOptions() Options {
	return Options{
		Level:                 InfoLevel,
		EnableConnectionLogs:  true,
		EnableRequestLogs:     true,
		EnablePerformanceLogs: false,
	}
}

// Logger wraps a *zap.Logger with an atomic level (hot-adjustable
// without rebuilding the core) and this module's three log-category
// gates, each a plain boolean check so a disabled category costs
// nothing beyond that check — no field construction, no zap call.
type Logger struct {
	l    *zap.Logger
	al   zap.AtomicLevel
	opts Options
}

// New constructs a Logger per opts. A RotateFile path routes output
// through lumberjack; otherwise logs go to stderr.
func New(opts Options) *Logger {
	al := zap.NewAtomicLevelAt(opts.Level)

	var writer zapcore.WriteSyncer
	if opts.RotateFile != "" {
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.RotateFile,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		})
	} else {
		writer = zapcore.AddSync(os.Stderr)
	}

	core := zapcore.NewCore(encoder(), writer, al)
	return &Logger{
		l:    zap.New(core, zap.AddCaller()),
		al:   al,
		opts: opts,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func encoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    bracketLevel,
		EncodeTime:     bracketTime,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   bracketCaller,
	})
}

const timeFormat = "2006-01-02T15:04:05.000Z0700"

func bracketLevel(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + lvl.CapitalString() + "]")
}

func bracketTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format(timeFormat) + "]")
}

func bracketCaller(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + c.TrimmedPath() + "]")
}

// SetLevel adjusts the logger's minimum level without rebuilding its
// core, for config hot-reload.
func (lg *Logger) SetLevel(lvl Level) { lg.al.SetLevel(lvl) }

// Raw exposes the underlying *zap.Logger for packages (middleware) that
// take a *zap.Logger directly rather than this wrapper.
func (lg *Logger) Raw() *zap.Logger { return lg.l }

func (lg *Logger) Debug(msg string, fields ...zap.Field) { lg.l.Debug(msg, fields...) }
func (lg *Logger) Info(msg string, fields ...zap.Field)  { lg.l.Info(msg, fields...) }
func (lg *Logger) Warn(msg string, fields ...zap.Field)  { lg.l.Warn(msg, fields...) }
func (lg *Logger) Error(msg string, fields ...zap.Field) { lg.l.Error(msg, fields...) }

// Connection logs a connection-lifecycle event, gated by
// EnableConnectionLogs.
func (lg *Logger) Connection(msg string, fields ...zap.Field) {
	if lg.opts.EnableConnectionLogs {
		lg.l.Info(msg, fields...)
	}
}

// Request logs a per-request line, gated by EnableRequestLogs.
func (lg *Logger) Request(msg string, fields ...zap.Field) {
	if lg.opts.EnableRequestLogs {
		lg.l.Info(msg, fields...)
	}
}

// Performance logs a telemetry/bottleneck line, gated by
// EnablePerformanceLogs.
func (lg *Logger) Performance(msg string, fields ...zap.Field) {
	if lg.opts.EnablePerformanceLogs {
		lg.l.Info(msg, fields...)
	}
}

// Sync flushes any buffered log entries.
func (lg *Logger) Sync() error { return lg.l.Sync() }
