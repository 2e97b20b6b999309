package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunFunc performs one scheduled refresh. The server passes a function
// that opens a store, refreshes and closes it, matching request handling.
type RunFunc func(ctx context.Context) error

// Scheduler triggers a refresh on a fixed interval. It is the in-process
// replacement for an external cron trigger and is off unless configured.
type Scheduler struct {
	interval time.Duration
	run      RunFunc
	logger   *zap.Logger
}

// NewScheduler creates a scheduler. A nil logger is replaced by a no-op.
func NewScheduler(interval time.Duration, run RunFunc, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{interval: interval, run: run, logger: logger}
}

// Start blocks, running a refresh every interval until ctx is cancelled.
// A failed refresh is logged and the next tick proceeds normally; there is
// no catch-up for missed ticks.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduled refresh enabled", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.run(ctx); err != nil {
				s.logger.Error("scheduled refresh failed", zap.Error(err))
				continue
			}
			s.logger.Debug("scheduled refresh done")
		}
	}
}
