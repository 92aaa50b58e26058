// Package logger wraps zerolog.Logger for envseal.
//
// Logger embeds zerolog.Logger, so the usual zerolog methods (Debug, Info,
// Warn, Error) are available directly. Components take a *Logger and fall
// back to Nop when given nil.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New builds a console logger writing to w at the given level.
// An unparsable level falls back to warn.
func New(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	logger := zerolog.New(out).Level(lvl).With().
		Timestamp().
		Logger()

	return &Logger{logger}
}

// NewCLI builds the logger used by the command line, writing to stderr
func NewCLI(level string) *Logger {
	return New(os.Stderr, level)
}

// Nop returns a *Logger that discards all output
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// OrNop returns l, or a no-op logger when l is nil
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// WithComponent returns a child logger carrying a component field
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{l.Logger.With().Str("component", component).Logger()}
}
