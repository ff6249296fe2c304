// Package logging builds the zerolog loggers shared by the commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config string onto a zerolog level. Unknown values
// fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a JSON logger tagged with the service name.
func New(out io.Writer, service, level string) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	return zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// NewConsole returns a human readable logger for interactive commands.
func NewConsole(out io.Writer, service, level string) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	return New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}, service, level)
}

// Sampled limits a chatty per-tick logger to a burst of 5 entries per
// 10 seconds, then 1 in 100.
func Sampled(l zerolog.Logger) zerolog.Logger {
	return l.With().Bool("sampled", true).Logger().Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      10 * time.Second,
		NextSampler: &zerolog.BasicSampler{N: 100},
	})
}
