package log

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thep200/devfolio-sync/cfg"
)

type Logger interface {
	Info(ctx context.Context, format string, args ...interface{})
	Alert(ctx context.Context, format string, args ...interface{})
	Error(ctx context.Context, format string, args ...interface{})
	Warn(ctx context.Context, format string, args ...interface{})
	Debug(ctx context.Context, format string, args ...interface{})
	Notice(ctx context.Context, format string, args ...interface{})
	Critical(ctx context.Context, format string, args ...interface{})
	Emergency(ctx context.Context, format string, args ...interface{})
}

// NewLoggerFromConfig picks the implementation named by app.logformat:
// "json" and "pretty" go through zerolog, anything else is the plain console logger.
func NewLoggerFromConfig(config *cfg.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.App.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	switch strings.ToLower(config.App.LogFormat) {
	case "json":
		zl := zerolog.New(os.Stderr).Level(level).With().
			Timestamp().
			Str("app", config.App.Name).
			Logger()
		return NewZeroLogger(zl)
	case "pretty":
		zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().
			Timestamp().
			Logger()
		return NewZeroLogger(zl)
	default:
		csl, _ := NewCslLogger()
		csl.SetLevel(level)
		return csl, nil
	}
}
