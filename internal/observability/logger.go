// Package observability owns the process-wide zap logger: a console core on
// the given writer plus an optional rotated JSON file core.
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"voxelagent.ai/internal/config"
)

const ServiceName = "voxelagent"

var (
	globalLogger atomic.Pointer[zap.Logger]
	level        = zap.NewAtomicLevel()
	once         sync.Once
)

// Initialize builds the global logger once; later calls return the existing
// logger unchanged.
func Initialize(cfg config.LogConfig, console zapcore.WriteSyncer) *zap.Logger {
	once.Do(func() {
		SetLevel(cfg.Level)

		cores := []zapcore.Core{zapcore.NewCore(encoder(cfg.Format), console, level)}
		if cfg.File != "" {
			// File output is always JSON.
			file := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
			cores = append(cores, zapcore.NewCore(encoder("json"), file, level))
		}

		logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).Named(ServiceName)
		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
	})
	return L()
}

// InitializeStderr is Initialize with console output on a locked stderr, so
// stdout stays free for command output.
func InitializeStderr(cfg config.LogConfig) *zap.Logger {
	return Initialize(cfg, zapcore.Lock(os.Stderr))
}

// SetLevel changes the level of every core. Unknown names fall back to info.
func SetLevel(name string) {
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		level.SetLevel(zap.InfoLevel)
	}
}

func Level() zapcore.Level { return level.Level() }

// L returns the global logger, or a no-op logger before Initialize.
func L() *zap.Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// ResetForTest clears the global logger. Tests only.
func ResetForTest() {
	globalLogger.Store(nil)
	level.SetLevel(zap.InfoLevel)
	once = sync.Once{}
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if strings.EqualFold(format, "json") {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	return zapcore.NewConsoleEncoder(ec)
}

// Sync flushes buffered entries, ignoring the errors terminals return for
// fsync on stdio.
func Sync() {
	l := globalLogger.Load()
	if l == nil {
		return
	}
	if err := l.Sync(); err != nil {
		msg := err.Error()
		if !strings.Contains(msg, "/dev/std") &&
			!strings.Contains(msg, "invalid argument") &&
			!strings.Contains(msg, "inappropriate ioctl") {
			fmt.Fprintln(os.Stderr, "failed to sync logger:", err)
		}
	}
}
