// Package mctslog provides the structured logger used by the search
// driver's periodic analysis dump and error reporting.
package mctslog

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to stderr. When quiet is true the
// minimum level is raised to zerolog.ErrorLevel, so only error-level
// (and higher) events are written, matching cfg_quiet's scope: it
// silences analysis/stats dumps, not genuine failures.
func New(quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.ErrorLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}
