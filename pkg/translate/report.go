package translate

import (
	"github.com/sirupsen/logrus"
)

// ErrorReporter receives every failure the provider swallows or converts.
// Implementations must not block for long; Report is called inline.
type ErrorReporter interface {
	Report(err error, message string)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(err error, message string)

// Report calls f.
func (f ReporterFunc) Report(err error, message string) {
	f(err, message)
}

// LogReporter reports errors to a logrus logger.
type LogReporter struct {
	logger *logrus.Logger
}

// NewLogReporter creates a reporter logging at error level.
func NewLogReporter(logger *logrus.Logger) *LogReporter {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogReporter{logger: logger}
}

// Report logs err with message.
func (r *LogReporter) Report(err error, message string) {
	r.logger.WithError(err).WithField("kind", errorKind(err)).Error(message)
}
