// Package logger configures zerolog loggers and carries them in a context
// so that library packages can log without package-level state.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	// Packages
	zerolog "github.com/rs/zerolog"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Config holds logger configuration
type Config struct {
	Level   string // debug, info, warn, error
	Debug   bool   // force debug level
	Pretty  bool   // human-readable console output
	NoColor bool   // disable colors in console output
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultLevel = zerolog.WarnLevel
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a logger writing to w. An unknown or empty level falls back
// to warnings and above.
func New(w io.Writer, cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = DefaultLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	writer := w
	if cfg.Pretty || IsTerminal(w) {
		writer = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
			NoColor:    cfg.NoColor || !IsTerminal(w),
		}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithContext returns a copy of ctx carrying the logger
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return log.WithContext(ctx)
}

// From returns the logger carried by ctx, or a disabled logger
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// IsTerminal returns true if w is a terminal
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
