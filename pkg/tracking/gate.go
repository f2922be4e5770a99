// Package tracking forwards unexpected failures to an external error tracker.
package tracking

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/pkg/apperror"
)

// Reporter delivers one failure to an error tracker.
type Reporter interface {
	Report(err error, extra map[string]any)
}

// Noop discards every report. Used when no tracker is configured.
type Noop struct{}

func (Noop) Report(error, map[string]any) {}

// ShouldReport decides whether err is forwarded upstream: expected client errors
// (application errors below 500) are not, everything else is.
func ShouldReport(err error) bool {
	if err == nil {
		return false
	}
	var aerr *apperror.AppError
	if errors.As(err, &aerr) && aerr.StatusCode < http.StatusInternalServerError {
		return false
	}
	return true
}

// Gate applies ShouldReport and hands accepted failures to the reporter on a
// separate goroutine, so reporting never delays or alters the response.
type Gate struct {
	reporter Reporter
	logger   *logrus.Logger
	done     func()
}

func NewGate(reporter Reporter, logger *logrus.Logger) *Gate {
	if reporter == nil {
		reporter = Noop{}
	}
	return &Gate{reporter: reporter, logger: logger}
}

// Forward reports err when the gate accepts it and returns whether it did.
func (g *Gate) Forward(err error, extra map[string]any) bool {
	if !ShouldReport(err) {
		return false
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil && g.logger != nil {
				g.logger.WithField("panic", rec).Warn("error reporter panicked")
			}
			if g.done != nil {
				g.done()
			}
		}()
		g.reporter.Report(err, extra)
	}()
	return true
}
