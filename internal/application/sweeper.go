package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// SweepRecorder receives the number of rows each sweep removed.
type SweepRecorder interface {
	RecordSweep(table string, deleted int64)
}

// Sweeper periodically removes expired sessions and verifications.
type Sweeper struct {
	auth     *AuthService
	interval time.Duration
	logger   *logrus.Logger
	metrics  SweepRecorder
}

func NewSweeper(auth *AuthService, interval time.Duration, logger *logrus.Logger, metrics SweepRecorder) *Sweeper {
	return &Sweeper{auth: auth, interval: interval, logger: logger, metrics: metrics}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *Sweeper) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("expiry sweeper disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	res, err := w.auth.SweepExpired(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.WithError(err).Error("expiry sweep failed")
		}
		return
	}
	if w.metrics != nil {
		w.metrics.RecordSweep("sessions", res.Sessions)
		w.metrics.RecordSweep("verifications", res.Verifications)
	}
	if res.Sessions > 0 || res.Verifications > 0 {
		w.logger.WithFields(logrus.Fields{
			"sessions":      res.Sessions,
			"verifications": res.Verifications,
		}).Info("expired rows removed")
	}
}
