// Package scheduler periodically builds the maintenance digest and hands it to
// the notification workers.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cmms-backend/config"
	"cmms-backend/internal/maint"
)

// DigestSource builds the current digest.
type DigestSource interface {
	Digest(ctx context.Context) (*maint.Digest, error)
}

// Dispatcher queues a digest for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, d maint.Digest) error
}

// Scheduler sends the digest every interval.
type Scheduler struct {
	enabled  bool
	interval time.Duration
	source   DigestSource
	pool     Dispatcher
	log      *zap.Logger
}

// New creates a Scheduler from the notification settings.
func New(cfg config.NotificationConfig, source DigestSource, pool Dispatcher, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	interval := cfg.DigestInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		enabled:  cfg.Enabled,
		interval: interval,
		source:   source,
		pool:     pool,
		log:      log,
	}
}

// Run blocks until ctx is done, sending one digest per interval. The first
// digest goes out one interval after start so restarts do not resend it.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.enabled {
		s.log.Info("digest scheduler is disabled, not starting")
		return
	}
	s.log.Info("starting digest scheduler", zap.Duration("interval", s.interval))

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("digest scheduler shutting down")
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("digest cycle failed", zap.Error(err))
			}
			timer.Reset(s.interval)
		}
	}
}

// RunOnce builds the digest and queues it. An empty digest is still returned
// but not queued.
func (s *Scheduler) RunOnce(ctx context.Context) (*maint.Digest, error) {
	d, err := s.source.Digest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build digest: %w", err)
	}
	if d.Empty() {
		s.log.Info("digest is empty, nothing to dispatch")
		return d, nil
	}
	if err := s.pool.Dispatch(ctx, *d); err != nil {
		return nil, fmt.Errorf("failed to dispatch digest: %w", err)
	}
	s.log.Info("digest dispatched",
		zap.Int("overdue_pm_plans", len(d.OverduePlans)),
		zap.Int("open_work_orders", len(d.OpenWorkOrders)),
		zap.Int("low_stock_parts", len(d.LowStockParts)),
	)
	return d, nil
}
