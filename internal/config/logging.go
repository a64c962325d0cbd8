package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the CLI logger. console selects the human readable
// writer; otherwise records are emitted as JSON lines. An unparsable level
// falls back to info.
func NewLogger(w io.Writer, level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := w
	if console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
