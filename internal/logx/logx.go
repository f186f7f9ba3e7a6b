// Package logx wraps logrus with the field conventions used across the
// engine: every log line carries a "component" field, and query-scoped
// lines carry a "query_id" field tying them to one execute call.
package logx

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once sync.Once
	base *logrus.Logger
)

// Logger returns the process-wide logrus.Logger, configured once on first
// use with a text formatter writing to stderr.
func Logger() *logrus.Logger {
	once.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		base.SetLevel(logrus.InfoLevel)
	})
	return base
}

// SetLevel adjusts the process-wide log level, e.g. from CLI flags.
func SetLevel(level logrus.Level) {
	Logger().SetLevel(level)
}

// For returns an entry pre-tagged with component, e.g. logx.For("exec").
func For(component string) *logrus.Entry {
	return Logger().WithField("component", component)
}
