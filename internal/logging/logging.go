// Package logging configures the process-wide slog logger from the CLI
// verbosity flags.
package logging

import (
	"io"
	"log/slog"
)

// LevelTrace is below debug and only enabled by -vvv.
const LevelTrace = slog.LevelDebug - 4

// MaxVerbosity is the highest -v count that changes anything.
const MaxVerbosity = 3

// Level maps a -v count and the -q flag to a log level. Quiet wins.
func Level(verbosity int, quiet bool) slog.Level {
	if quiet {
		return slog.LevelError
	}
	if verbosity > MaxVerbosity {
		verbosity = MaxVerbosity
	}
	switch verbosity {
	case 0:
		return slog.LevelWarn
	case 1:
		return slog.LevelInfo
	case 2:
		return slog.LevelDebug
	default:
		if verbosity < 0 {
			return slog.LevelWarn
		}
		return LevelTrace
	}
}

// New returns a text logger writing to w at the level implied by the flags.
func New(w io.Writer, verbosity int, quiet bool) *slog.Logger {
	level := Level(verbosity, quiet)
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts)).With(slog.String("component", "dotagents"))
}

// Setup installs a logger built by New as the slog default and returns it.
func Setup(w io.Writer, verbosity int, quiet bool) *slog.Logger {
	logger := New(w, verbosity, quiet)
	slog.SetDefault(logger)
	return logger
}
