// Package logging configures the process-wide zerolog logger eosim's
// elements derive their per-component loggers from, grounded on the
// cuemby-warren pkg/log console/JSON logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Init configures the global zerolog level and a console writer, returning
// the base logger every element's own component logger derives from.
func Init(level string) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// ForElement returns a child logger tagged with the element's name.
func ForElement(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("element", name).Logger()
}
