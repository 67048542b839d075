package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
	log  = base.Sugar()
	file *os.File
)

// InitLogging points the package logger at logPath. Debug output is only
// written when debug is true. The terminal is left alone so the progress
// render is never interleaved with log lines.
func InitLogging(debug bool, logPath string) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	Use(New(zapcore.AddSync(f), level))

	mu.Lock()
	file = f
	mu.Unlock()

	return nil
}

// New builds a zap logger writing console-encoded entries to w.
func New(w zapcore.WriteSyncer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, level)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Use replaces the package logger.
func Use(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()

	base = l
	log = l.Sugar()
}

// Zap returns the underlying zap logger.
func Zap() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return base
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()

	return log
}

func Debugf(format string, args ...any) {
	sugar().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	sugar().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	sugar().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	sugar().Errorf(format, args...)
}

// Infow logs a message with structured key/value pairs.
func Infow(msg string, keysAndValues ...any) {
	sugar().Infow(msg, keysAndValues...)
}

// Close flushes buffered entries and closes the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	_ = base.Sync()
	if file != nil {
		_ = file.Close()
		file = nil
	}

	base = zap.NewNop()
	log = base.Sugar()
}
