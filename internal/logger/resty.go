package logger

import "go.uber.org/zap"

// RestyLogger sends resty's own messages to the global logger
type RestyLogger struct{}

func (RestyLogger) sugar() *zap.SugaredLogger {
	return GetLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().With("component", "resty")
}

func (l RestyLogger) Errorf(format string, v ...interface{}) {
	l.sugar().Errorf(format, v...)
}

func (l RestyLogger) Warnf(format string, v ...interface{}) {
	l.sugar().Warnf(format, v...)
}

func (l RestyLogger) Debugf(format string, v ...interface{}) {
	l.sugar().Debugf(format, v...)
}
