// Package dlog is a minimal wrapper around a logrus logger, in the
// teacher's thin-wrapper-around-io.Writer idiom, so core packages depend
// only on the small Logger interface they declare themselves.
package dlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger embeds a *logrus.Logger (so its full method set is available) and
// defines Warnf, the one verb the core packages' Logger interfaces need.
// Sink, level and formatting are chosen by the caller (cmd/), never by the
// core.
type Logger struct {
	*logrus.Logger
}

// New returns a Logger writing to w at the given level.
func New(w io.Writer, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &Logger{Logger: l}
}

// Default returns a Logger writing warnings and above to stderr, the level
// cmd/nodedeps uses unless --verbose is passed.
func Default() *Logger {
	return New(os.Stderr, logrus.WarnLevel)
}

// Warnf logs a formatted warning, satisfying every core package's Logger
// interface.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Logger.Warnf(format, args...)
}
