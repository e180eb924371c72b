package log

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/rs/zerolog"
)

// CslLogger writes level-prefixed lines through the standard library logger.
// Lines below the minimum level are dropped.
type CslLogger struct {
	out   *log.Logger
	level zerolog.Level
}

func NewCslLogger() (*CslLogger, error) {
	return NewCslLoggerTo(os.Stderr), nil
}

func NewCslLoggerTo(w io.Writer) *CslLogger {
	return &CslLogger{out: log.New(w, "", log.LstdFlags), level: zerolog.DebugLevel}
}

func (l *CslLogger) SetLevel(level zerolog.Level) {
	l.level = level
}

func (l *CslLogger) logf(severity zerolog.Level, level, format string, args ...interface{}) {
	if severity < l.level {
		return
	}
	l.out.Printf("["+level+"] "+format, args...)
}

func (l *CslLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.logf(zerolog.InfoLevel, "INFO", format, args...)
}

func (l *CslLogger) Alert(ctx context.Context, format string, args ...interface{}) {
	l.logf(zerolog.ErrorLevel, "ALERT", format, args...)
}

func (l *CslLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.logf(zerolog.ErrorLevel, "ERROR", format, args...)
}

func (l *CslLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.logf(zerolog.WarnLevel, "WARN", format, args...)
}

func (l *CslLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.logf(zerolog.DebugLevel, "DEBUG", format, args...)
}

func (l *CslLogger) Critical(ctx context.Context, format string, args ...interface{}) {
	l.logf(zerolog.ErrorLevel, "CRITICAL", format, args...)
}

func (l *CslLogger) Emergency(ctx context.Context, format string, args ...interface{}) {
	l.logf(zerolog.ErrorLevel, "EMERGENCY", format, args...)
}

func (l *CslLogger) Notice(ctx context.Context, format string, args ...interface{}) {
	l.logf(zerolog.InfoLevel, "NOTICE", format, args...)
}
