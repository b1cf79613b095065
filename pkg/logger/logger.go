package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line
const ServiceName = "editorial-cms"

// New creates a new zerolog logger with structured output
func New() zerolog.Logger {
	return NewWithOptions(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Getenv("ENV"))
}

// NewWithOptions builds the logger from explicit settings instead of the environment
func NewWithOptions(level, format, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	// Use pretty console output in development
	if env == "development" || format == "pretty" {
		return build(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, level).
			Caller().
			Logger()
	}

	// JSON output for production
	return build(os.Stdout, level).Logger()
}

func build(w io.Writer, level string) zerolog.Context {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", ServiceName)
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
