package logger

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/LeeDigitalWorks/sharefs/pkg/env"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type loggerKey struct{}

var globalLogger zerolog.Logger

func init() {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	pname, err := os.Executable()
	if err != nil {
		pname = os.Args[0]
	}

	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}

	// Commands write their results to stdout, logs always go to stderr
	base := zerolog.New(os.Stderr).With().Timestamp()
	if env.IsLocal() {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp()
	}

	globalLogger = base.
		Str("hostname", hostname).
		Str("executable", filepath.Base(pname)).
		Caller().
		Logger().
		Level(level)

	log.Logger = globalLogger
}

// Ctx returns the logger stored in ctx, or the global logger
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	if l, ok := ctx.Value(loggerKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &globalLogger
}

func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// With returns a child of the global logger carrying the given fields,
// stored in ctx
func With(ctx context.Context, fields map[string]any) context.Context {
	l := globalLogger.With().Fields(fields).Logger()
	return WithLogger(ctx, &l)
}

// SetLevel updates the global log level
func SetLevel(level zerolog.Level) {
	globalLogger = globalLogger.Level(level)
	log.Logger = globalLogger
}

// SetLevelString parses and applies a level name such as "debug"
func SetLevelString(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return err
	}
	if level == zerolog.NoLevel {
		return nil
	}
	SetLevel(level)
	return nil
}

// Fatal logs a fatal message and exits
func Fatal() *zerolog.Event {
	return globalLogger.Fatal()
}

// Error logs an error message
func Error() *zerolog.Event {
	return globalLogger.Error()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return globalLogger.Warn()
}

// Info logs an info message
func Info() *zerolog.Event {
	return globalLogger.Info()
}

// Debug logs a debug message
func Debug() *zerolog.Event {
	return globalLogger.Debug()
}
