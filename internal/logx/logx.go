// Package logx provides the single structured logger used across
// piercore. It wraps a package-level logrus.Logger so call sites read
// like log.WithField(...).Warn(...) without each package constructing
// its own logger.
package logx

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the global log level.
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

// WithField returns an entry carrying a single structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

// WithError returns an entry carrying the "error" field.
func WithError(err error) *logrus.Entry {
	return log.WithError(err)
}

// WithFields returns an entry carrying multiple structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// Base exposes the underlying logger for components that need the
// unadorned Debug/Info/Warn/Error calls.
func Base() *logrus.Logger {
	return log
}
