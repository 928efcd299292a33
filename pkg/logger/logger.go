// Package logger provides the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.SugaredLogger
	logFile      *os.File
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path and level.
// Until Init is called every log call is a no-op.
func Init(logPath, level string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), parseLevel(level))
	logFile = f
	globalLogger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()

	return nil
}

// parseLevel converts a string level to zapcore.Level.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
		globalLogger = nil
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Infof(format, v...)
	}
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Debugf(format, v...)
	}
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Errorf(format, v...)
	}
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Warnf(format, v...)
	}
}

// With returns a logger carrying the given key/value pairs, for callers that
// log many events about the same subject (a session, a recording).
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger == nil {
		return zap.NewNop().Sugar()
	}
	return globalLogger.Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar().With(keysAndValues...)
}

// GetWriter returns the underlying writer, or io.Discard before Init.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
