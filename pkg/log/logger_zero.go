package log

import (
	"context"

	"github.com/rs/zerolog"
)

// ZeroLogger adapts zerolog to the Logger interface. Levels zerolog does not
// have are mapped onto the nearest one and tagged with a "severity" field.
type ZeroLogger struct {
	zl zerolog.Logger
}

func NewZeroLogger(zl zerolog.Logger) (*ZeroLogger, error) {
	return &ZeroLogger{zl: zl}, nil
}

// NewNopLogger discards everything. Used by tests.
func NewNopLogger() *ZeroLogger {
	return &ZeroLogger{zl: zerolog.Nop()}
}

func (l *ZeroLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.zl.Info().Ctx(ctx).Msgf(format, args...)
}

func (l *ZeroLogger) Alert(ctx context.Context, format string, args ...interface{}) {
	l.zl.Error().Ctx(ctx).Str("severity", "alert").Msgf(format, args...)
}

func (l *ZeroLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.zl.Error().Ctx(ctx).Msgf(format, args...)
}

func (l *ZeroLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.zl.Warn().Ctx(ctx).Msgf(format, args...)
}

func (l *ZeroLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.zl.Debug().Ctx(ctx).Msgf(format, args...)
}

func (l *ZeroLogger) Notice(ctx context.Context, format string, args ...interface{}) {
	l.zl.Info().Ctx(ctx).Str("severity", "notice").Msgf(format, args...)
}

func (l *ZeroLogger) Critical(ctx context.Context, format string, args ...interface{}) {
	l.zl.Error().Ctx(ctx).Str("severity", "critical").Msgf(format, args...)
}

func (l *ZeroLogger) Emergency(ctx context.Context, format string, args ...interface{}) {
	l.zl.Error().Ctx(ctx).Str("severity", "emergency").Msgf(format, args...)
}
