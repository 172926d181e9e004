// Package logging provides the structured logger used for exchange
// diagnostics: processor lifecycle transitions, halt/shutdown, and
// exception reporting. It never sits on the claim/publish hot path.
//
// The logger is powered by go.uber.org/zap. Its level is controlled by
// the DISRUPTOR_LOG_LEVEL environment variable (an integer matching
// zapcore.Level, default 0 / Info); an optional rotating file sink is
// enabled by setting DISRUPTOR_LOG_FILE, backed by
// gopkg.in/natefinch/lumberjack.v2.
package logging

import (
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level aliases zapcore.Level so callers don't need to import zap
// directly just to call SetLevel.
type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

var (
	mu      sync.Mutex
	level   zap.AtomicLevel
	logger  *zap.Logger
	flusher func() error
)

func init() {
	level = zap.NewAtomicLevel()
	if lvl := os.Getenv("DISRUPTOR_LOG_LEVEL"); lvl != "" {
		if n, err := strconv.Atoi(lvl); err == nil {
			level.SetLevel(zapcore.Level(n))
		}
	}
	if file := os.Getenv("DISRUPTOR_LOG_FILE"); file != "" {
		mustSetOutputFile(file)
		return
	}
	logger = zap.New(zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stdout), level))
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func mustSetOutputFile(path string) {
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(sink), level)
	mu.Lock()
	defer mu.Unlock()
	logger = zap.New(core, zap.AddCaller())
	flusher = logger.Sync
}

// Default returns the shared exchange logger. Safe for concurrent use.
func Default() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// SetLevel raises or lowers the logging threshold at runtime.
func SetLevel(l Level) { level.SetLevel(l) }

// SetOutputFile redirects logging to a rotating file sink. It should
// be called once during process startup, before any processor is
// started.
func SetOutputFile(path string) { mustSetOutputFile(path) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	mu.Lock()
	f := flusher
	mu.Unlock()
	if f == nil {
		return nil
	}
	return f()
}

// Named returns a child logger scoped to a component, e.g.
// logging.Named("batch-processor").
func Named(name string) *zap.Logger {
	return Default().Named(name)
}
