// Package shared holds helpers common to the railbird commands.
package shared

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the logger the commands use: pretty console output on
// stderr by default, structured JSON when jsonFormat is set so ingest and
// export diagnostics can be piped into log tooling.
func NewLogger(debug, jsonFormat bool) zerolog.Logger {
	return newLogger(os.Stderr, debug, jsonFormat)
}

func newLogger(w io.Writer, debug, jsonFormat bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if jsonFormat {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		return zerolog.New(w).
			Level(level).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
