package tracking

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryOptions configures the Sentry client.
type SentryOptions struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// SentryReporter sends failures to Sentry. The SDK transport is asynchronous.
type SentryReporter struct {
	hub *sentry.Hub
}

func NewSentryReporter(opts SentryOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		TracesSampleRate: opts.TracesSampleRate,
		Debug:            opts.Debug,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *SentryReporter) Report(err error, extra map[string]any) {
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		if len(extra) > 0 {
			scope.SetContext("request", sentry.Context(extra))
		}
		hub.CaptureException(err)
	})
}

// Flush waits for buffered events; call it on shutdown.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
