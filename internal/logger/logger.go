package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// Init builds the global JSON logger at the given level ("debug", "info", ...)
func Init(level string) error {
	return InitWithOutput(level, "stdout")
}

// InitWithOutput is Init writing to the given paths. The MCP server logs to
// stderr because stdout carries the protocol.
func InitWithOutput(level string, outputs ...string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.StacktraceKey = ""
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := config.Build()
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// SetLogger replaces the global logger
func SetLogger(l *zap.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

// GetLogger returns the global logger, falling back to a production logger when Init was not called
func GetLogger() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		var err error
		log, err = zap.NewProduction(zap.WithCaller(false))
		if err != nil {
			panic(err)
		}
	}
	return log
}

// Sync flushes any buffered log entries
func Sync() error {
	return GetLogger().Sync()
}
