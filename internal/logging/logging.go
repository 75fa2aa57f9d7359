package logging

import (
	"io"
	"time"

	"github.com/indigo-web/httpd/config"
	"github.com/rs/zerolog"
)

// Level maps the configured output level onto the logger's one.
func Level(level config.OutputLevel) zerolog.Level {
	switch level {
	case config.Silent:
		return zerolog.Disabled
	case config.Normal:
		return zerolog.InfoLevel
	case config.Verbose:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// New returns a logger writing to out. Console-friendly output is used when pretty
// is set, JSON lines otherwise.
func New(out io.Writer, level config.OutputLevel, pretty bool) zerolog.Logger {
	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(Level(level)).
		With().
		Timestamp().
		Logger()
}
